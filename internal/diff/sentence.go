package diff

import (
	"strings"
	"unicode"
)

// sentence is one tokenized sentence with its byte offset in the source text.
type sentence struct {
	text   string
	norm   string
	offset int
}

// splitSentences tokenizes text into sentences, splitting on runs of
// sentence-terminal punctuation followed by whitespace. Offsets index the
// original text.
func splitSentences(text string) []sentence {
	var out []sentence
	start := -1
	i := 0
	for i < len(text) {
		c := text[i]
		if start < 0 {
			if !isSpaceByte(c) {
				start = i
			} else {
				i++
				continue
			}
		}
		if isTerminal(c) {
			// Consume the punctuation run.
			j := i
			for j < len(text) && isTerminal(text[j]) {
				j++
			}
			if j >= len(text) || isSpaceByte(text[j]) {
				out = append(out, newSentence(text[start:j], start))
				start = -1
			}
			i = j
			continue
		}
		i++
	}
	if start >= 0 {
		out = append(out, newSentence(text[start:], start))
	}
	return out
}

func newSentence(raw string, offset int) sentence {
	trimmed := strings.TrimRightFunc(raw, unicode.IsSpace)
	return sentence{text: trimmed, norm: Normalize(trimmed), offset: offset}
}

func isTerminal(c byte) bool {
	return c == '.' || c == '!' || c == '?'
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// Normalize case-folds text and collapses all whitespace runs to single
// spaces, so comparisons ignore formatting-only differences.
func Normalize(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
