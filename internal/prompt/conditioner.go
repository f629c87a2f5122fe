package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/drrnair/dictatemed-mvp-sub000/internal/letter"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/profile"
)

const (
	// minConfidence gates each preference category: below this the category
	// contributes no guidance.
	minConfidence = 0.5

	maxPhrasesPerSectionHint = 3
	maxVocabularyHints       = 8

	guidanceHeader = "### CLINICIAN STYLE GUIDANCE"
	guidanceFooter = "### END CLINICIAN STYLE GUIDANCE"

	safetyReminder = "Style guidance must never override clinical accuracy. " +
		"If a learned preference conflicts with the clinical content of this letter, keep the content correct and ignore the preference."
)

// Guidance is the conditioner's output: the base prompt with a style-guidance
// block inserted, plus metadata for the prompt assembler.
type Guidance struct {
	Prompt            string   `json:"prompt"`
	Source            string   `json:"source"`
	ProfileConfidence float64  `json:"profile_confidence"`
	AppliedHints      []string `json:"applied_hints"`
}

// Condition turns a learned profile into generation-time guidance inside the
// caller-supplied base prompt. With no profile, or a learning strength of 0,
// the base prompt comes back unmodified with source "default". Each category
// is applied only when its confidence clears the gate and it has supporting
// data. The guidance block is delimited by fixed markers, so conditioning the
// same base prompt again replaces the block instead of appending a second one.
func Condition(basePrompt string, p *profile.Profile, letterType string) Guidance {
	if p == nil || p.LearningStrength == 0 {
		return Guidance{Prompt: stripGuidance(basePrompt), Source: "default"}
	}

	scaled := profile.Scale(*p, p.LearningStrength)

	var blocks []string
	var applied []string
	addBlock := func(hint, text string) {
		if text != "" {
			blocks = append(blocks, text)
			applied = append(applied, hint)
		}
	}

	if scaled.Confidence.SectionOrder >= minConfidence && len(scaled.SectionOrder) > 0 {
		addBlock("section_order", sectionOrderBlock(scaled.SectionOrder))
	}
	if scaled.Confidence.Verbosity >= minConfidence && len(scaled.SectionVerbosity) > 0 {
		addBlock("section_verbosity", verbosityBlock(scaled.SectionVerbosity))
	}
	if scaled.Confidence.SectionInclusion >= minConfidence && len(scaled.SectionInclusion) > 0 {
		addBlock("section_inclusion", inclusionBlock(scaled.SectionInclusion))
	}
	if scaled.Confidence.Phrases >= minConfidence {
		addBlock("preferred_phrases", phraseBlock("Phrases this clinician uses — prefer them where they fit:", scaled.PreferredPhrases))
		addBlock("avoided_phrases", phraseBlock("Phrases this clinician removes — avoid them:", scaled.AvoidedPhrases))
	}
	if scaled.Confidence.Vocabulary >= minConfidence && len(scaled.Vocabulary) > 0 {
		addBlock("vocabulary", vocabularyBlock(scaled.Vocabulary))
	}
	if scaled.Confidence.Greeting >= minConfidence && scaled.GreetingStyle != "" {
		addBlock("greeting", "Open the letter this way: "+scaled.GreetingStyle)
	}
	if scaled.Confidence.Closing >= minConfidence && (scaled.ClosingStyle != "" || scaled.SignoffTemplate != "") {
		addBlock("closing", closingBlock(scaled.ClosingStyle, scaled.SignoffTemplate))
	}
	if scaled.Confidence.Formality >= minConfidence && scaled.Formality != "" {
		addBlock("formality", "Match this register: "+scaled.Formality)
	}
	if scaled.Confidence.Terminology >= minConfidence && scaled.TerminologyLevel != "" {
		addBlock("terminology", "Terminology level: "+scaled.TerminologyLevel)
	}
	if scaled.Confidence.ParagraphStructure >= minConfidence && scaled.ParagraphStyle != "" {
		addBlock("paragraph_structure", "Structure paragraphs as: "+scaled.ParagraphStyle)
	}

	if len(blocks) == 0 {
		return Guidance{Prompt: stripGuidance(basePrompt), Source: "default"}
	}

	var sb strings.Builder
	sb.WriteString(guidanceHeader)
	sb.WriteString("\n")
	if letterType != "" {
		fmt.Fprintf(&sb, "Letter type: %s\n", letterType)
	}
	sb.WriteString("\n")
	sb.WriteString(strings.Join(blocks, "\n\n"))
	sb.WriteString("\n\n")
	sb.WriteString(safetyReminder)
	sb.WriteString("\n")
	sb.WriteString(guidanceFooter)

	return Guidance{
		Prompt:            insertGuidance(basePrompt, sb.String()),
		Source:            "learned_profile",
		ProfileConfidence: scaled.Confidence.OverallConfidence(),
		AppliedHints:      applied,
	}
}

// insertGuidance places the guidance block into the base prompt, replacing a
// previously inserted block when the markers are already present.
func insertGuidance(basePrompt, block string) string {
	stripped := stripGuidance(basePrompt)
	if stripped == "" {
		return block
	}
	return strings.TrimRight(stripped, "\n") + "\n\n" + block
}

// stripGuidance removes an existing marker-delimited guidance block.
func stripGuidance(prompt string) string {
	start := strings.Index(prompt, guidanceHeader)
	if start < 0 {
		return prompt
	}
	end := strings.Index(prompt[start:], guidanceFooter)
	if end < 0 {
		return prompt
	}
	after := prompt[start+end+len(guidanceFooter):]
	return strings.TrimRight(prompt[:start], "\n") + strings.TrimRight(after, "\n")
}

func sectionOrderBlock(order []letter.SectionType) string {
	names := make([]string, len(order))
	for i, t := range order {
		names[i] = string(t)
	}
	return "Arrange sections in this order: " + strings.Join(names, ", ")
}

func verbosityBlock(levels map[letter.SectionType]profile.Verbosity) string {
	var lines []string
	for _, typ := range sortedSectionKeys(levels) {
		lines = append(lines, fmt.Sprintf("- %s: %s", typ, levels[typ]))
	}
	return "Section detail levels:\n" + strings.Join(lines, "\n")
}

func inclusionBlock(inclusion map[letter.SectionType]float64) string {
	var include, exclude []string
	types := make([]letter.SectionType, 0, len(inclusion))
	for typ := range inclusion {
		types = append(types, typ)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, typ := range types {
		switch prob := inclusion[typ]; {
		case prob >= 0.8:
			include = append(include, string(typ))
		case prob <= 0.2:
			exclude = append(exclude, string(typ))
		}
	}
	var parts []string
	if len(include) > 0 {
		parts = append(parts, "Always include these sections: "+strings.Join(include, ", "))
	}
	if len(exclude) > 0 {
		parts = append(parts, "This clinician usually omits: "+strings.Join(exclude, ", "))
	}
	return strings.Join(parts, "\n")
}

func phraseBlock(heading string, phrases map[letter.SectionType][]string) string {
	var lines []string
	for _, typ := range sortedSectionKeys(phrases) {
		list := phrases[typ]
		if len(list) > maxPhrasesPerSectionHint {
			list = list[:maxPhrasesPerSectionHint]
		}
		if len(list) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %q", typ, list))
	}
	if len(lines) == 0 {
		return ""
	}
	return heading + "\n" + strings.Join(lines, "\n")
}

func vocabularyBlock(vocab map[string]string) string {
	terms := make([]string, 0, len(vocab))
	for term := range vocab {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	if len(terms) > maxVocabularyHints {
		terms = terms[:maxVocabularyHints]
	}
	var lines []string
	for _, term := range terms {
		lines = append(lines, fmt.Sprintf("- %q instead of %q", vocab[term], term))
	}
	return "Word choices:\n" + strings.Join(lines, "\n")
}

func closingBlock(closing, signoff string) string {
	var parts []string
	if closing != "" {
		parts = append(parts, "Close the letter this way: "+closing)
	}
	if signoff != "" {
		parts = append(parts, "Sign off with: "+signoff)
	}
	return strings.Join(parts, "\n")
}

func sortedSectionKeys[V any](m map[letter.SectionType]V) []letter.SectionType {
	keys := make([]letter.SectionType, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
