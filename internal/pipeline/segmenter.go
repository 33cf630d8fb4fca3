package pipeline

import (
	"strings"
	"unicode/utf8"
)

// pending is the deferred break state set by one word's trailing punctuation
// and consumed at the start of the next word.
type pending int

const (
	pendingNone pending = iota
	pendingNewLine
	pendingNewCue
)

// BuildCaptions segments word tokens into caption cues. Each word lands in
// exactly one cue, in input order; lines stay within cfg.MaxCharsPerLine
// runes unless a single word alone exceeds the budget; cues carry between
// one and cfg.MaxLinesPerCue lines. Empty input returns nil.
//
// The pass is greedy and lookahead-free: a sentence terminator (. ? !)
// schedules a cue break for the following word, a clause separator (, ; :)
// schedules a line break, and either is ignored while the current line is
// still shorter than cfg.ShortLineChars. A trailing cue short enough to
// read as an orphan is merged back into its predecessor afterwards.
func BuildCaptions(words []Word, cfg SegmentConfig) []Cue {
	cfg = cfg.withDefaults()

	tokens := make([]Word, 0, len(words))
	for _, w := range words {
		w.Text = strings.TrimSpace(w.Text)
		if w.Text != "" {
			tokens = append(tokens, w)
		}
	}
	if len(tokens) == 0 {
		return nil
	}

	var cues []Cue
	cur := Cue{Start: tokens[0].Start, End: tokens[0].End, Lines: []string{""}}
	state := pendingNone

	for _, w := range tokens {
		switch state {
		case pendingNewCue:
			cues = append(cues, cur)
			cur = Cue{Start: w.Start, End: w.End, Lines: []string{""}}
		case pendingNewLine:
			if len(cur.Lines) < cfg.MaxLinesPerCue {
				cur.Lines = append(cur.Lines, "")
			} else {
				cues = append(cues, cur)
				cur = Cue{Start: w.Start, End: w.End, Lines: []string{""}}
			}
		}
		state = pendingNone

		idx := len(cur.Lines) - 1
		line := cur.Lines[idx]
		switch {
		case line == "":
			// An empty line always takes the word, even one over budget:
			// unbreakable words are never split.
			cur.Lines[idx] = w.Text
			cur.End = w.End
		case lineLen(line)+1+lineLen(w.Text) <= cfg.MaxCharsPerLine:
			cur.Lines[idx] = line + " " + w.Text
			cur.End = w.End
		case len(cur.Lines) < cfg.MaxLinesPerCue:
			cur.Lines = append(cur.Lines, w.Text)
			cur.End = w.End
		default:
			cues = append(cues, cur)
			cur = Cue{Start: w.Start, End: w.End, Lines: []string{w.Text}}
		}

		// Punctuation only schedules a break once the line it landed on has
		// some substance; very short lines keep accumulating.
		if lineLen(cur.Lines[len(cur.Lines)-1]) > cfg.ShortLineChars {
			switch last, _ := utf8.DecodeLastRuneInString(w.Text); last {
			case '.', '?', '!':
				state = pendingNewCue
			case ',', ';', ':':
				state = pendingNewLine
			}
		}
	}
	cues = append(cues, cur)

	return mergeOrphan(cues, cfg)
}

// mergeOrphan folds a short trailing cue into the last line of its
// predecessor, extending the predecessor's end time, when the combined line
// stays within MaxCharsPerLine plus OrphanSlack.
func mergeOrphan(cues []Cue, cfg SegmentConfig) []Cue {
	if len(cues) < 2 {
		return cues
	}
	orphan := cues[len(cues)-1]
	text := orphan.Text()
	prev := &cues[len(cues)-2]
	last := len(prev.Lines) - 1
	if lineLen(text) < cfg.OrphanMaxChars &&
		lineLen(prev.Lines[last])+lineLen(text) < cfg.MaxCharsPerLine+cfg.OrphanSlack {
		prev.Lines[last] += " " + text
		prev.End = orphan.End
		cues = cues[:len(cues)-1]
	}
	return cues
}

func lineLen(s string) int {
	return utf8.RuneCountInString(s)
}
