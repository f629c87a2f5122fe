package diff

import (
	"strings"
	"unicode"
)

const (
	minPhraseWords = 2
	maxPhraseWords = 6
)

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "of": true,
	"to": true, "in": true, "on": true, "at": true, "for": true, "with": true,
	"is": true, "was": true, "are": true, "were": true, "be": true, "been": true,
	"has": true, "have": true, "had": true, "this": true, "that": true,
	"it": true, "as": true, "by": true, "from": true, "he": true, "she": true,
	"his": true, "her": true, "their": true, "they": true, "we": true, "i": true,
}

// ExtractPhrases pulls meaningful multi-word phrases out of added or removed
// content for pattern mining. Text is split on punctuation into fragments,
// lowercased, trimmed of leading/trailing stopwords, and kept when between two
// and six words with at least one non-stopword.
func ExtractPhrases(text string) []string {
	if text == "" {
		return nil
	}

	fragments := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return r == '.' || r == ',' || r == ';' || r == ':' || r == '!' ||
			r == '?' || r == '(' || r == ')' || r == '\n'
	})

	var phrases []string
	seen := make(map[string]bool)
	for _, frag := range fragments {
		words := strings.FieldsFunc(frag, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\'' && r != '-'
		})
		words = trimStopwords(words)
		if len(words) < minPhraseWords {
			continue
		}
		if len(words) > maxPhraseWords {
			words = words[:maxPhraseWords]
			words = trimStopwords(words)
			if len(words) < minPhraseWords {
				continue
			}
		}
		if allStopwords(words) {
			continue
		}
		phrase := strings.Join(words, " ")
		if !seen[phrase] {
			seen[phrase] = true
			phrases = append(phrases, phrase)
		}
	}
	return phrases
}

func trimStopwords(words []string) []string {
	for len(words) > 0 && stopwords[words[0]] {
		words = words[1:]
	}
	for len(words) > 0 && stopwords[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	return words
}

func allStopwords(words []string) bool {
	for _, w := range words {
		if !stopwords[w] {
			return false
		}
	}
	return true
}
