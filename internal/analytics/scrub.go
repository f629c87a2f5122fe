package analytics

import (
	"regexp"
	"strings"
)

// redactionMarker replaces patient-identifying text. A candidate pattern that
// still contains the marker after scrubbing is discarded rather than stored.
const redactionMarker = "[REDACTED]"

// phiPatterns are applied in order to every candidate pattern before it can
// enter an aggregate. Names ride on titles because bare capitalized words are
// indistinguishable from clinical terms.
var phiPatterns = []*regexp.Regexp{
	// Names with titles: "Dr Patel", "Mrs Mary O'Brien", "Prof. van der Berg".
	regexp.MustCompile(`\b(?:Dr|Mr|Mrs|Ms|Miss|Prof|Professor|Sister)\.?\s+(?:[A-Z][a-zA-Z'\-]+\s?){1,3}`),
	// Numeric dates: 12/03/2026, 12-3-26, 2026-03-12.
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`\b\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}\b`),
	// Written dates: "12th March 2026", "March 12, 2026".
	regexp.MustCompile(`(?i)\b\d{1,2}(?:st|nd|rd|th)?\s+(?:january|february|march|april|may|june|july|august|september|october|november|december)(?:\s+\d{2,4})?\b`),
	regexp.MustCompile(`(?i)\b(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{2,4})?\b`),
	// Government health identifiers: Medicare (10-11 digits grouped), NHS (3-3-4).
	regexp.MustCompile(`\b\d{4}\s?\d{5}\s?\d{1,2}\b`),
	regexp.MustCompile(`\b\d{3}\s?\d{3}\s?\d{4}\b`),
	// Phone numbers.
	regexp.MustCompile(`\b(?:\+?\d{1,3}[\s\-]?)?\(?\d{2,4}\)?[\s\-]?\d{3,4}[\s\-]?\d{3,4}\b`),
	// Email addresses.
	regexp.MustCompile(`\b[\w.+\-]+@[\w\-]+\.[\w.\-]+\b`),
	// Street addresses.
	regexp.MustCompile(`(?i)\b\d+[a-z]?\s+[a-z'\-]+\s+(?:street|st|road|rd|avenue|ave|drive|dr|lane|ln|court|ct|place|pl|crescent|cres|terrace|tce|parade|pde)\b`),
	// Facility names.
	regexp.MustCompile(`(?i)\b[a-z'\-]+\s+(?:hospital|medical centre|medical center|health service|health campus|clinic|surgery|private)\b`),
}

// Scrub redacts patient-identifying text.
func Scrub(text string) string {
	for _, re := range phiPatterns {
		text = re.ReplaceAllString(text, redactionMarker)
	}
	return text
}

// minCleanLength is the shortest scrubbed pattern worth keeping.
const minCleanLength = 5

// CleanPattern scrubs a candidate pattern and reports whether it is safe to
// store: long enough after scrubbing and free of redaction markers.
func CleanPattern(text string) (string, bool) {
	scrubbed := strings.TrimSpace(Scrub(text))
	if len(scrubbed) < minCleanLength {
		return "", false
	}
	if strings.Contains(scrubbed, redactionMarker) {
		return "", false
	}
	return scrubbed, true
}
