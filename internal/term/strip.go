// Package term handles the terminal control bytes that sessions leak into
// their output streams: ANSI escape sequences on PTY reads and telnet IAC
// command sequences on socket reads.
package term

import (
	"regexp"
	"strings"
)

var (
	// Private mode set/reset, e.g. bracketed paste \x1b[?2004h / \x1b[?2004l.
	privateModeRe = regexp.MustCompile(`\x1b\[\?[0-9;]+[hl]`)
	// Erase-in-line and erase-in-display, with or without a leading count.
	eraseRe = regexp.MustCompile(`\x1b\[[0-9]*[KJ]`)
	// Bare cursor-home.
	cursorHomeRe = regexp.MustCompile(`\x1b\[H`)
)

// StripEscapes removes terminal control sequences from PTY output while
// preserving SGR color sequences, which callers generally want to keep.
func StripEscapes(s string) string {
	if !strings.ContainsRune(s, 0x1b) {
		return s
	}
	s = privateModeRe.ReplaceAllString(s, "")
	s = eraseRe.ReplaceAllString(s, "")
	s = cursorHomeRe.ReplaceAllString(s, "")
	return s
}
