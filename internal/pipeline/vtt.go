package pipeline

import (
	"fmt"
	"strings"
)

// vttHeader is the fixed preamble of every generated caption file.
const vttHeader = "WEBVTT\nKind: captions\nLanguage: en\n\n"

// RenderVTT serializes cues into WEBVTT text: the fixed header, then one
// timed block per cue separated by blank lines. An empty cue list yields
// just the header.
func RenderVTT(cues []Cue) string {
	var sb strings.Builder
	sb.WriteString(vttHeader)
	for _, cue := range cues {
		fmt.Fprintf(&sb, "%s --> %s\n", FormatTimestamp(cue.Start), FormatTimestamp(cue.End))
		sb.WriteString(strings.Join(cue.Lines, "\n"))
		sb.WriteString("\n\n")
	}
	return sb.String()
}
