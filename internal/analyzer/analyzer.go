package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/drrnair/dictatemed-mvp-sub000/internal/letter"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/profile"
)

// Edit is one (before, after) section pair handed to the analyzer.
type Edit struct {
	SectionType letter.SectionType
	EditType    string
	BeforeText  string
	AfterText   string
}

// SchemaError means the analyzer returned content that does not conform to
// the documented preference schema. It is never partial success: the caller
// must leave the current profile untouched.
type SchemaError struct {
	Reason string
	Raw    string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("analysis response failed schema validation: %s", e.Reason)
}

// Completer is the hosted language-model call. *Client satisfies it; tests
// substitute a stub.
type Completer interface {
	Complete(ctx context.Context, system string, messages []Message, maxTokens int) (string, error)
}

type Analyzer struct {
	llm    Completer
	model  string
	logger *slog.Logger
}

func New(llm Completer, model string, logger *slog.Logger) *Analyzer {
	return &Analyzer{llm: llm, model: model, logger: logger}
}

// schemaResponse is the loosely structured analyzer output. Consumption is an
// explicit parse-and-validate step: nothing here is trusted until parseResult
// has checked and clamped it.
type schemaResponse struct {
	SectionOrder     []string            `json:"section_order"`
	SectionInclusion map[string]float64  `json:"section_inclusion"`
	SectionVerbosity map[string]string   `json:"section_verbosity"`
	PreferredPhrases map[string][]string `json:"preferred_phrases"`
	AvoidedPhrases   map[string][]string `json:"avoided_phrases"`
	Vocabulary       map[string]string   `json:"vocabulary"`
	TerminologyLevel string              `json:"terminology_level"`
	GreetingStyle    string              `json:"greeting_style"`
	ClosingStyle     string              `json:"closing_style"`
	SignoffTemplate  string              `json:"signoff_template"`
	Formality        string              `json:"formality"`
	ParagraphStyle   string              `json:"paragraph_style"`
	Confidence       *profile.Confidence `json:"confidence"`
	Insights         []string            `json:"insights"`
}

// Analyze sends a bounded batch of edits to the hosted model and returns a
// validated preference analysis. A transport failure or unparseable response
// is an error; the caller logs it and leaves the profile as it was.
func (a *Analyzer) Analyze(ctx context.Context, subspecialty string, edits []Edit) (*profile.Analysis, error) {
	if len(edits) == 0 {
		return nil, fmt.Errorf("no edits to analyze")
	}

	prompt := fmt.Sprintf(analysisUserPrompt, len(edits), subspecialty, formatEdits(edits))

	a.logger.Info("analyzing style edits",
		"subspecialty", subspecialty,
		"edits", len(edits),
	)

	raw, err := a.llm.Complete(ctx, systemPrompt, []Message{{Role: "user", Content: prompt}}, 4096)
	if err != nil {
		return nil, fmt.Errorf("llm analysis: %w", err)
	}

	result, err := parseResult(raw, len(edits), a.model)
	if err != nil {
		a.logger.Error("failed to parse analysis response", "error", err)
		return nil, err
	}

	a.logger.Info("analysis complete",
		"subspecialty", subspecialty,
		"edits", len(edits),
		"section_order_len", len(result.SectionOrder),
		"vocabulary_len", len(result.Vocabulary),
	)

	return result, nil
}

// parseResult validates the raw model output against the preference schema.
func parseResult(raw string, editCount int, modelID string) (*profile.Analysis, error) {
	var resp schemaResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, &SchemaError{Reason: err.Error(), Raw: raw}
	}
	if resp.Confidence == nil {
		return nil, &SchemaError{Reason: "missing confidence block", Raw: raw}
	}

	result := &profile.Analysis{
		TerminologyLevel: resp.TerminologyLevel,
		GreetingStyle:    resp.GreetingStyle,
		ClosingStyle:     resp.ClosingStyle,
		SignoffTemplate:  resp.SignoffTemplate,
		Formality:        resp.Formality,
		ParagraphStyle:   resp.ParagraphStyle,
		Confidence:       clampConfidence(*resp.Confidence),
		EditCount:        editCount,
		ModelID:          modelID,
		Insights:         resp.Insights,
	}

	for _, s := range resp.SectionOrder {
		typ, ok := sectionType(s)
		if !ok {
			return nil, &SchemaError{Reason: fmt.Sprintf("unknown section type %q in section_order", s), Raw: raw}
		}
		result.SectionOrder = append(result.SectionOrder, typ)
	}

	result.SectionInclusion = make(map[letter.SectionType]float64)
	for s, p := range resp.SectionInclusion {
		if typ, ok := sectionType(s); ok {
			result.SectionInclusion[typ] = profile.Clamp01(p)
		}
	}

	result.SectionVerbosity = make(map[letter.SectionType]profile.Verbosity)
	for s, v := range resp.SectionVerbosity {
		typ, ok := sectionType(s)
		if !ok {
			continue
		}
		switch profile.Verbosity(v) {
		case profile.VerbosityBrief, profile.VerbosityNormal, profile.VerbosityDetailed:
			result.SectionVerbosity[typ] = profile.Verbosity(v)
		default:
			return nil, &SchemaError{Reason: fmt.Sprintf("invalid verbosity %q for section %q", v, s), Raw: raw}
		}
	}

	result.PreferredPhrases = phraseLists(resp.PreferredPhrases)
	result.AvoidedPhrases = phraseLists(resp.AvoidedPhrases)

	result.Vocabulary = make(map[string]string)
	for term, repl := range resp.Vocabulary {
		if term != "" && repl != "" {
			result.Vocabulary[strings.ToLower(term)] = repl
		}
	}

	return result, nil
}

func clampConfidence(c profile.Confidence) profile.Confidence {
	return profile.Confidence{
		SectionOrder:       profile.Clamp01(c.SectionOrder),
		SectionInclusion:   profile.Clamp01(c.SectionInclusion),
		Verbosity:          profile.Clamp01(c.Verbosity),
		Phrases:            profile.Clamp01(c.Phrases),
		Vocabulary:         profile.Clamp01(c.Vocabulary),
		Greeting:           profile.Clamp01(c.Greeting),
		Closing:            profile.Clamp01(c.Closing),
		Formality:          profile.Clamp01(c.Formality),
		Terminology:        profile.Clamp01(c.Terminology),
		ParagraphStructure: profile.Clamp01(c.ParagraphStructure),
	}
}

func phraseLists(in map[string][]string) map[letter.SectionType][]string {
	out := make(map[letter.SectionType][]string)
	for s, list := range in {
		typ, ok := sectionType(s)
		if !ok {
			continue
		}
		for _, phrase := range list {
			if phrase = strings.TrimSpace(phrase); phrase != "" {
				out[typ] = append(out[typ], phrase)
			}
		}
	}
	return out
}

var validSectionTypes = map[letter.SectionType]bool{
	letter.SectionGreeting:            true,
	letter.SectionIntroduction:        true,
	letter.SectionHistory:             true,
	letter.SectionPresentingComplaint: true,
	letter.SectionPastMedicalHistory:  true,
	letter.SectionMedications:         true,
	letter.SectionFamilyHistory:       true,
	letter.SectionSocialHistory:       true,
	letter.SectionExamination:         true,
	letter.SectionInvestigations:      true,
	letter.SectionImpression:          true,
	letter.SectionPlan:                true,
	letter.SectionFollowUp:            true,
	letter.SectionClosing:             true,
	letter.SectionSignoff:             true,
	letter.SectionOther:               true,
}

func sectionType(s string) (letter.SectionType, bool) {
	typ := letter.SectionType(strings.ToLower(strings.TrimSpace(s)))
	return typ, validSectionTypes[typ]
}

func formatEdits(edits []Edit) string {
	var sb strings.Builder
	for i, e := range edits {
		fmt.Fprintf(&sb, "--- Edit %d (section: %s, type: %s) ---\n", i+1, e.SectionType, e.EditType)
		sb.WriteString("Drafted:\n")
		sb.WriteString(e.BeforeText)
		sb.WriteString("\n\nApproved:\n")
		sb.WriteString(e.AfterText)
		sb.WriteString("\n\n")
	}
	return sb.String()
}
