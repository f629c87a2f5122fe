package prompt

import (
	"strings"
	"testing"

	"github.com/drrnair/dictatemed-mvp-sub000/internal/letter"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/profile"
)

const basePrompt = "You are drafting a specialist letter.\nWrite the letter from the consultation notes."

func confidentProfile() *profile.Profile {
	return &profile.Profile{
		ClinicianID:  "c1",
		Subspecialty: "cardiology",
		SectionOrder: []letter.SectionType{letter.SectionHistory, letter.SectionImpression, letter.SectionPlan},
		SectionInclusion: map[letter.SectionType]float64{
			letter.SectionFollowUp:      0.9,
			letter.SectionFamilyHistory: 0.1,
		},
		PreferredPhrases: map[letter.SectionType][]string{
			letter.SectionPlan: {"continue current therapy", "review in clinic", "safety-netted", "repeat bloods"},
		},
		Vocabulary:    map[string]string{"commence": "start"},
		GreetingStyle: "Dear Dr {referrer},",
		Formality:     "formal but warm",
		Confidence: profile.Confidence{
			SectionOrder:     1,
			SectionInclusion: 1,
			Phrases:          1,
			Vocabulary:       1,
			Greeting:         1,
			Formality:        1,
		},
		LearningStrength: 1,
	}
}

func TestConditionNilProfile(t *testing.T) {
	g := Condition(basePrompt, nil, "clinic_letter")
	if g.Source != "default" {
		t.Errorf("source = %q, want default", g.Source)
	}
	if g.Prompt != basePrompt {
		t.Errorf("prompt altered with no profile: %q", g.Prompt)
	}
	if len(g.AppliedHints) != 0 {
		t.Errorf("hints applied with no profile: %v", g.AppliedHints)
	}
}

func TestConditionStrengthZero(t *testing.T) {
	p := confidentProfile()
	p.LearningStrength = 0
	g := Condition(basePrompt, p, "")
	if g.Source != "default" {
		t.Errorf("source = %q, want default at strength 0", g.Source)
	}
	if strings.Contains(g.Prompt, guidanceHeader) {
		t.Error("guidance inserted at strength 0")
	}
}

func TestConditionConfidentProfile(t *testing.T) {
	g := Condition(basePrompt, confidentProfile(), "clinic_letter")
	if g.Source != "learned_profile" {
		t.Fatalf("source = %q, want learned_profile", g.Source)
	}
	if !strings.Contains(g.Prompt, guidanceHeader) || !strings.Contains(g.Prompt, guidanceFooter) {
		t.Error("guidance markers missing")
	}
	if !strings.Contains(g.Prompt, basePrompt) {
		t.Error("base prompt lost")
	}
	if !strings.Contains(g.Prompt, "continue current therapy") {
		t.Error("preferred phrase missing")
	}
	if !strings.Contains(g.Prompt, "Dear Dr {referrer},") {
		t.Error("greeting style missing")
	}
	if !strings.Contains(g.Prompt, safetyReminder) {
		t.Error("safety reminder missing")
	}

	wantHints := map[string]bool{
		"section_order": true, "section_inclusion": true,
		"preferred_phrases": true, "vocabulary": true,
		"greeting": true, "formality": true,
	}
	for _, h := range g.AppliedHints {
		delete(wantHints, h)
	}
	for h := range wantHints {
		t.Errorf("hint %q not applied", h)
	}
}

func TestConditionLowConfidenceCategoriesOmitted(t *testing.T) {
	p := confidentProfile()
	p.Confidence.Phrases = 0.2
	p.Confidence.Greeting = 0.4

	g := Condition(basePrompt, p, "")
	for _, h := range g.AppliedHints {
		if h == "preferred_phrases" || h == "greeting" {
			t.Errorf("low-confidence hint %q applied", h)
		}
	}
	if strings.Contains(g.Prompt, "continue current therapy") {
		t.Error("low-confidence phrases leaked into prompt")
	}
}

func TestConditionAllBelowGateFallsBackToDefault(t *testing.T) {
	p := confidentProfile()
	p.Confidence = profile.Confidence{}

	g := Condition(basePrompt, p, "")
	if g.Source != "default" {
		t.Errorf("source = %q, want default when nothing clears the gate", g.Source)
	}
}

func TestConditionIdempotent(t *testing.T) {
	p := confidentProfile()
	once := Condition(basePrompt, p, "clinic_letter")
	twice := Condition(once.Prompt, p, "clinic_letter")

	if once.Prompt != twice.Prompt {
		t.Error("conditioning an already conditioned prompt changed it")
	}
	if strings.Count(twice.Prompt, guidanceHeader) != 1 {
		t.Errorf("guidance block duplicated: %d headers", strings.Count(twice.Prompt, guidanceHeader))
	}
}

func TestConditionStrengthScalesGuidance(t *testing.T) {
	p := confidentProfile()
	p.LearningStrength = 0.6

	g := Condition(basePrompt, p, "")
	// Confidences scale to 0.6, still above the gate, so guidance applies but
	// phrase lists shrink with the dial.
	if g.Source != "learned_profile" {
		t.Fatalf("source = %q, want learned_profile", g.Source)
	}
	if strings.Contains(g.Prompt, "repeat bloods") {
		t.Error("truncated phrase still present at reduced strength")
	}

	p.LearningStrength = 0.4
	g = Condition(basePrompt, p, "")
	// At 0.4 every scaled confidence drops below the 0.5 gate.
	if g.Source != "default" {
		t.Errorf("source = %q, want default below the gate", g.Source)
	}
}
