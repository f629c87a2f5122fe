package profile

import (
	"math"

	"github.com/drrnair/dictatemed-mvp-sub000/internal/letter"
)

// Scale dampens a profile's effect toward neutral defaults according to the
// clinician's 0-1 learning-strength dial. At 1 the profile is returned
// unchanged; at 0 every list-valued preference is emptied and every confidence
// zeroed. In between, confidences are multiplied by strength, inclusion
// probabilities interpolate linearly toward the 0.5 neutral point, and lists
// are truncated to floor(len*strength) entries, minimum 1 when the source was
// non-empty. Scale is a pure read-time transform and is never persisted.
func Scale(p Profile, strength float64) Profile {
	strength = Clamp01(strength)
	if strength == 1 {
		return p
	}

	out := p
	out.Confidence = Confidence{
		SectionOrder:       p.Confidence.SectionOrder * strength,
		SectionInclusion:   p.Confidence.SectionInclusion * strength,
		Verbosity:          p.Confidence.Verbosity * strength,
		Phrases:            p.Confidence.Phrases * strength,
		Vocabulary:         p.Confidence.Vocabulary * strength,
		Greeting:           p.Confidence.Greeting * strength,
		Closing:            p.Confidence.Closing * strength,
		Formality:          p.Confidence.Formality * strength,
		Terminology:        p.Confidence.Terminology * strength,
		ParagraphStructure: p.Confidence.ParagraphStructure * strength,
	}

	out.SectionInclusion = make(map[letter.SectionType]float64, len(p.SectionInclusion))
	for typ, prob := range p.SectionInclusion {
		out.SectionInclusion[typ] = 0.5 + (Clamp01(prob)-0.5)*strength
	}

	if strength == 0 {
		out.PreferredPhrases = map[letter.SectionType][]string{}
		out.AvoidedPhrases = map[letter.SectionType][]string{}
		out.Vocabulary = map[string]string{}
		out.Insights = nil
		return out
	}

	out.PreferredPhrases = truncatePhraseLists(p.PreferredPhrases, strength)
	out.AvoidedPhrases = truncatePhraseLists(p.AvoidedPhrases, strength)
	out.Vocabulary = truncateVocabulary(p.Vocabulary, strength)
	out.Insights = p.Insights[:scaledLen(len(p.Insights), strength)]
	return out
}

func truncatePhraseLists(lists map[letter.SectionType][]string, strength float64) map[letter.SectionType][]string {
	out := make(map[letter.SectionType][]string, len(lists))
	for typ, list := range lists {
		out[typ] = list[:scaledLen(len(list), strength)]
	}
	return out
}

func truncateVocabulary(vocab map[string]string, strength float64) map[string]string {
	keep := scaledLen(len(vocab), strength)
	out := make(map[string]string, keep)
	for _, term := range sortedTerms(vocab)[:keep] {
		out[term] = vocab[term]
	}
	return out
}

// scaledLen is floor(n*strength), minimum 1 for a non-empty source.
func scaledLen(n int, strength float64) int {
	if n == 0 {
		return 0
	}
	k := int(math.Floor(float64(n) * strength))
	if k < 1 {
		return 1
	}
	return k
}
