package analytics

import (
	"strings"
	"testing"
)

func TestScrub(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"titled name", "I reviewed Mrs Thompson in clinic"},
		{"doctor name", "as discussed with Dr Patel yesterday"},
		{"iso date", "seen on 2026-03-12 for review"},
		{"numeric date", "follow up booked for 12/03/2026"},
		{"written date", "admitted on 12th March 2026 overnight"},
		{"medicare number", "medicare 2953 48762 1 on file"},
		{"nhs number", "nhs number 943 476 5919 confirmed"},
		{"phone", "contact on 0412 345 678 with results"},
		{"email", "results sent to patient@example.com today"},
		{"street address", "lives at 42 Wickham Terrace with family"},
		{"facility", "transferred from Greenslopes Hospital overnight"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Scrub(tt.input)
			if !strings.Contains(out, redactionMarker) {
				t.Errorf("Scrub(%q) = %q, nothing redacted", tt.input, out)
			}
		})
	}
}

func TestScrubLeavesClinicalTextAlone(t *testing.T) {
	inputs := []string{
		"continue aspirin and review bloods in six weeks",
		"the echocardiogram showed preserved systolic function",
		"I would be grateful for ongoing surveillance",
	}
	for _, in := range inputs {
		if out := Scrub(in); out != in {
			t.Errorf("Scrub(%q) = %q, want unchanged", in, out)
		}
	}
}

func TestCleanPattern(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"continue current therapy", "continue current therapy", true},
		{"seen by Dr Patel", "", false},
		{"ok", "", false},
		{"   ", "", false},
		{"review on 2026-03-12", "", false},
	}

	for _, tt := range tests {
		got, ok := CleanPattern(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("CleanPattern(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}
