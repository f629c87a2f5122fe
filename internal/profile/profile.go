package profile

import (
	"errors"
	"time"

	"github.com/drrnair/dictatemed-mvp-sub000/internal/letter"
)

// ErrInvalidStrength is returned when a learning-strength value falls outside
// [0,1]. Callers must reject the value before any persistence occurs.
var ErrInvalidStrength = errors.New("learning strength must be between 0 and 1")

// Verbosity is a per-section length preference.
type Verbosity string

const (
	VerbosityBrief    Verbosity = "brief"
	VerbosityNormal   Verbosity = "normal"
	VerbosityDetailed Verbosity = "detailed"
)

// MaxPhrasesPerSection bounds the preferred/avoided phrase lists kept per
// section type after a merge.
const MaxPhrasesPerSection = 20

// MaxVocabularyEntries bounds the vocabulary substitution table.
const MaxVocabularyEntries = 40

// Confidence carries one [0,1] score per preference category, reflecting how
// consistently each pattern was observed across edits.
type Confidence struct {
	SectionOrder       float64 `json:"section_order"`
	SectionInclusion   float64 `json:"section_inclusion"`
	Verbosity          float64 `json:"verbosity"`
	Phrases            float64 `json:"phrases"`
	Vocabulary         float64 `json:"vocabulary"`
	Greeting           float64 `json:"greeting"`
	Closing            float64 `json:"closing"`
	Formality          float64 `json:"formality"`
	Terminology        float64 `json:"terminology"`
	ParagraphStructure float64 `json:"paragraph_structure"`
}

// Profile is the learned style record for one clinician within one
// subspecialty. At most one active profile exists per (clinician,
// subspecialty) key, and it is mutated only through Merge — never by direct
// field writes from elsewhere.
type Profile struct {
	ClinicianID  string
	Subspecialty string

	SectionOrder     []letter.SectionType
	SectionInclusion map[letter.SectionType]float64
	SectionVerbosity map[letter.SectionType]Verbosity
	PreferredPhrases map[letter.SectionType][]string
	AvoidedPhrases   map[letter.SectionType][]string
	Vocabulary       map[string]string

	TerminologyLevel string
	GreetingStyle    string
	ClosingStyle     string
	SignoffTemplate  string
	Formality        string
	ParagraphStyle   string

	Confidence Confidence

	LearningStrength   float64
	TotalEditsAnalyzed int
	LastAnalyzedAt     time.Time

	ModelID  string
	Insights []string
}

// ValidateStrength checks a learning-strength dial value at the boundary.
func ValidateStrength(s float64) error {
	if s < 0 || s > 1 {
		return ErrInvalidStrength
	}
	return nil
}

// Clamp01 pins a score into [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// OverallConfidence is the mean of all category confidences, used for
// reporting alongside generated guidance.
func (c Confidence) OverallConfidence() float64 {
	sum := c.SectionOrder + c.SectionInclusion + c.Verbosity + c.Phrases +
		c.Vocabulary + c.Greeting + c.Closing + c.Formality + c.Terminology +
		c.ParagraphStructure
	return sum / 10
}

func (c Confidence) clamped() Confidence {
	return Confidence{
		SectionOrder:       Clamp01(c.SectionOrder),
		SectionInclusion:   Clamp01(c.SectionInclusion),
		Verbosity:          Clamp01(c.Verbosity),
		Phrases:            Clamp01(c.Phrases),
		Vocabulary:         Clamp01(c.Vocabulary),
		Greeting:           Clamp01(c.Greeting),
		Closing:            Clamp01(c.Closing),
		Formality:          Clamp01(c.Formality),
		Terminology:        Clamp01(c.Terminology),
		ParagraphStructure: Clamp01(c.ParagraphStructure),
	}
}
