package kakao

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxSegment is the per-bubble text budget, kept below the
// platform's 1000-character limit.
const DefaultMaxSegment = 900

// SplitText splits text into segments of at most maxLen bytes for
// delivery as separate bubbles. Cut points are searched in priority
// order: end of sentence (". "), newline, space, then a hard cut. A
// sentence/newline/space candidate is only accepted in the second half
// of the window, so segments never get pathologically short. Segments
// and the remainder are whitespace-trimmed at each cut.
func SplitText(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultMaxSegment
	}
	text = strings.TrimSpace(text)
	if len(text) <= maxLen {
		return []string{text}
	}

	var parts []string
	remaining := text
	for len(remaining) > 0 {
		if len(remaining) <= maxLen {
			parts = append(parts, remaining)
			break
		}
		cut := cutIndex(remaining, maxLen)
		parts = append(parts, strings.TrimSpace(remaining[:cut]))
		remaining = strings.TrimSpace(remaining[cut:])
	}
	return parts
}

// cutIndex returns the exclusive end of the next segment, 0 < cut <= maxLen.
func cutIndex(remaining string, maxLen int) int {
	for _, sep := range []string{". ", "\n", " "} {
		window := remaining[:min(len(remaining), maxLen+len(sep)-1)]
		if i := strings.LastIndex(window, sep); i >= maxLen/2 {
			// Keep the terminating character in the segment; trimming
			// removes it when it is whitespace.
			return i + 1
		}
	}

	// Hard cut: back off to a rune boundary so multibyte (Korean) text
	// is never split mid-character.
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(remaining[cut]) {
		cut--
	}
	return cut
}
