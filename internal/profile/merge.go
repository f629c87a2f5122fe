package profile

import (
	"sort"

	"github.com/drrnair/dictatemed-mvp-sub000/internal/letter"
)

// Analysis is the validated output of one external analyzer pass over a batch
// of style edits. Every value carries its category confidence in Confidence.
type Analysis struct {
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
	EditCount  int
	ModelID    string
	Insights   []string
}

// Merge combines an existing profile with a new analysis. A nil existing
// profile projects the analysis directly. Otherwise confidence scores are
// edit-count-weighted averages, single-valued preferences are replaced when
// the new category confidence is at least the existing one (ties favour the
// newer analysis), phrase lists are unioned newest-first up to
// MaxPhrasesPerSection, and edit counts are summed. Merge is pure: the caller
// persists the result and stamps LastAnalyzedAt.
func Merge(existing *Profile, a Analysis) Profile {
	if existing == nil {
		return project(a)
	}

	w1 := float64(existing.TotalEditsAnalyzed)
	w2 := float64(a.EditCount)
	avg := func(oldVal, newVal float64) float64 {
		if w1+w2 == 0 {
			return Clamp01(newVal)
		}
		return Clamp01((oldVal*w1 + newVal*w2) / (w1 + w2))
	}

	ec := existing.Confidence
	nc := a.Confidence.clamped()
	merged := Profile{
		ClinicianID:  existing.ClinicianID,
		Subspecialty: existing.Subspecialty,
		Confidence: Confidence{
			SectionOrder:       avg(ec.SectionOrder, nc.SectionOrder),
			SectionInclusion:   avg(ec.SectionInclusion, nc.SectionInclusion),
			Verbosity:          avg(ec.Verbosity, nc.Verbosity),
			Phrases:            avg(ec.Phrases, nc.Phrases),
			Vocabulary:         avg(ec.Vocabulary, nc.Vocabulary),
			Greeting:           avg(ec.Greeting, nc.Greeting),
			Closing:            avg(ec.Closing, nc.Closing),
			Formality:          avg(ec.Formality, nc.Formality),
			Terminology:        avg(ec.Terminology, nc.Terminology),
			ParagraphStructure: avg(ec.ParagraphStructure, nc.ParagraphStructure),
		},
		LearningStrength:   existing.LearningStrength,
		TotalEditsAnalyzed: existing.TotalEditsAnalyzed + a.EditCount,
		LastAnalyzedAt:     existing.LastAnalyzedAt,
		ModelID:            existing.ModelID,
	}

	// Single-valued preferences: the new value wins when its category
	// confidence is at least the existing one.
	newWins := func(newConf, oldConf float64) bool { return Clamp01(newConf) >= oldConf }

	merged.SectionOrder = existing.SectionOrder
	if len(a.SectionOrder) > 0 && newWins(a.Confidence.SectionOrder, ec.SectionOrder) {
		merged.SectionOrder = a.SectionOrder
	}
	merged.SectionVerbosity = existing.SectionVerbosity
	if len(a.SectionVerbosity) > 0 && newWins(a.Confidence.Verbosity, ec.Verbosity) {
		merged.SectionVerbosity = a.SectionVerbosity
	}
	merged.GreetingStyle = pickString(existing.GreetingStyle, a.GreetingStyle, newWins(a.Confidence.Greeting, ec.Greeting))
	merged.ClosingStyle = pickString(existing.ClosingStyle, a.ClosingStyle, newWins(a.Confidence.Closing, ec.Closing))
	merged.SignoffTemplate = pickString(existing.SignoffTemplate, a.SignoffTemplate, newWins(a.Confidence.Closing, ec.Closing))
	merged.Formality = pickString(existing.Formality, a.Formality, newWins(a.Confidence.Formality, ec.Formality))
	merged.TerminologyLevel = pickString(existing.TerminologyLevel, a.TerminologyLevel, newWins(a.Confidence.Terminology, ec.Terminology))
	merged.ParagraphStyle = pickString(existing.ParagraphStyle, a.ParagraphStyle, newWins(a.Confidence.ParagraphStructure, ec.ParagraphStructure))

	// Section-inclusion probabilities merge per-type with the same weighted
	// average; a type seen on only one side keeps that side's value.
	merged.SectionInclusion = make(map[letter.SectionType]float64)
	for typ, p := range existing.SectionInclusion {
		merged.SectionInclusion[typ] = Clamp01(p)
	}
	for typ, p := range a.SectionInclusion {
		if old, ok := merged.SectionInclusion[typ]; ok {
			merged.SectionInclusion[typ] = avg(old, p)
		} else {
			merged.SectionInclusion[typ] = Clamp01(p)
		}
	}

	merged.PreferredPhrases = mergePhraseLists(existing.PreferredPhrases, a.PreferredPhrases)
	merged.AvoidedPhrases = mergePhraseLists(existing.AvoidedPhrases, a.AvoidedPhrases)
	merged.Vocabulary = mergeVocabulary(existing.Vocabulary, a.Vocabulary)

	if a.ModelID != "" {
		merged.ModelID = a.ModelID
	}
	merged.Insights = appendBounded(existing.Insights, a.Insights, MaxPhrasesPerSection)

	return merged
}

// project builds a first-time profile directly from an analysis result.
func project(a Analysis) Profile {
	p := Profile{
		SectionOrder:       a.SectionOrder,
		SectionVerbosity:   a.SectionVerbosity,
		TerminologyLevel:   a.TerminologyLevel,
		GreetingStyle:      a.GreetingStyle,
		ClosingStyle:       a.ClosingStyle,
		SignoffTemplate:    a.SignoffTemplate,
		Formality:          a.Formality,
		ParagraphStyle:     a.ParagraphStyle,
		Confidence:         a.Confidence.clamped(),
		LearningStrength:   1,
		TotalEditsAnalyzed: a.EditCount,
		ModelID:            a.ModelID,
		Insights:           appendBounded(nil, a.Insights, MaxPhrasesPerSection),
	}
	p.SectionInclusion = make(map[letter.SectionType]float64, len(a.SectionInclusion))
	for typ, v := range a.SectionInclusion {
		p.SectionInclusion[typ] = Clamp01(v)
	}
	p.PreferredPhrases = mergePhraseLists(nil, a.PreferredPhrases)
	p.AvoidedPhrases = mergePhraseLists(nil, a.AvoidedPhrases)
	p.Vocabulary = mergeVocabulary(nil, a.Vocabulary)
	return p
}

func pickString(oldVal, newVal string, preferNew bool) string {
	if newVal != "" && preferNew {
		return newVal
	}
	return oldVal
}

// mergePhraseLists unions per-section phrase lists with the newest entries
// first, deduplicated, capped at MaxPhrasesPerSection.
func mergePhraseLists(existing, incoming map[letter.SectionType][]string) map[letter.SectionType][]string {
	out := make(map[letter.SectionType][]string)
	for typ, list := range incoming {
		out[typ] = appendBounded(nil, list, MaxPhrasesPerSection)
	}
	for typ, list := range existing {
		out[typ] = appendBounded(out[typ], list, MaxPhrasesPerSection)
	}
	for typ, list := range out {
		if len(list) == 0 {
			delete(out, typ)
		}
	}
	return out
}

// appendBounded appends items not already present, keeping order and capping
// total length.
func appendBounded(head, tail []string, limit int) []string {
	seen := make(map[string]bool, len(head))
	out := make([]string, 0, len(head))
	for _, s := range head {
		if s != "" && !seen[s] && len(out) < limit {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range tail {
		if s != "" && !seen[s] && len(out) < limit {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// mergeVocabulary unions substitution tables, the newer analysis winning per
// term. Over the cap, terms from the newest analysis survive first, then the
// existing ones, each group admitted in sorted term order so eviction is
// deterministic.
func mergeVocabulary(existing, incoming map[string]string) map[string]string {
	out := make(map[string]string)
	for _, term := range sortedTerms(incoming) {
		if len(out) >= MaxVocabularyEntries {
			break
		}
		if repl := incoming[term]; term != "" && repl != "" {
			out[term] = repl
		}
	}
	for _, term := range sortedTerms(existing) {
		if len(out) >= MaxVocabularyEntries {
			break
		}
		if _, ok := out[term]; !ok && term != "" && existing[term] != "" {
			out[term] = existing[term]
		}
	}
	return out
}

func sortedTerms(m map[string]string) []string {
	terms := make([]string, 0, len(m))
	for t := range m {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}
