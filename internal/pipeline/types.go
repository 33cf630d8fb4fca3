package pipeline

import "strings"

// Word is a single transcribed word with its timing bounds, as emitted by
// the speech-recognition engine.
type Word struct {
	Text  string
	Start float64
	End   float64
}

// Cue is one subtitle display unit: a time interval plus the lines of text
// shown together during it.
type Cue struct {
	Start float64
	End   float64
	Lines []string
}

// Text returns the cue's lines joined with single spaces.
func (c Cue) Text() string {
	return strings.Join(c.Lines, " ")
}

// SegmentConfig holds the caption segmentation limits. Zero values are
// replaced with defaults by BuildCaptions.
type SegmentConfig struct {
	// MaxCharsPerLine caps the rune count of a line. A single word longer
	// than the cap still occupies a line by itself, unsplit.
	MaxCharsPerLine int
	// MaxLinesPerCue caps the number of lines in one cue.
	MaxLinesPerCue int
	// ShortLineChars is the minimum line length before trailing punctuation
	// is allowed to force a break.
	ShortLineChars int
	// OrphanMaxChars is the maximum joined length of a trailing cue for it
	// to be considered an orphan and merged into its predecessor.
	OrphanMaxChars int
	// OrphanSlack is the extra room past MaxCharsPerLine the predecessor's
	// last line may take when absorbing an orphan.
	OrphanSlack int
}

// Defaults matching the reference caption output. The three 15s are
// empirical; existing caption output depends on them, so they are
// overridable rather than re-derived.
const (
	DefaultMaxCharsPerLine = 32
	DefaultMaxLinesPerCue  = 2
	DefaultShortLineChars  = 15
	DefaultOrphanMaxChars  = 15
	DefaultOrphanSlack     = 15
)

func (c SegmentConfig) withDefaults() SegmentConfig {
	if c.MaxCharsPerLine <= 0 {
		c.MaxCharsPerLine = DefaultMaxCharsPerLine
	}
	if c.MaxLinesPerCue <= 0 {
		c.MaxLinesPerCue = DefaultMaxLinesPerCue
	}
	if c.ShortLineChars <= 0 {
		c.ShortLineChars = DefaultShortLineChars
	}
	if c.OrphanMaxChars <= 0 {
		c.OrphanMaxChars = DefaultOrphanMaxChars
	}
	if c.OrphanSlack <= 0 {
		c.OrphanSlack = DefaultOrphanSlack
	}
	return c
}
