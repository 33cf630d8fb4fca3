package pipeline

import "fmt"

// FormatTimestamp converts seconds to the WEBVTT time format HH:MM:SS.mmm.
// Negative input is a precondition violation and produces garbage rather
// than an error.
func FormatTimestamp(seconds float64) string {
	whole := int(seconds)
	h := whole / 3600
	m := whole % 3600 / 60
	s := whole % 60
	ms := int((seconds - float64(whole)) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}
