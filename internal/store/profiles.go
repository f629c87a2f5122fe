package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/drrnair/dictatemed-mvp-sub000/internal/letter"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/profile"
)

// ErrStaleProfile means a concurrent analysis run persisted a newer profile
// between this run's read and write. The losing merge is dropped, not retried
// blindly: the caller re-reads if it wants to try again.
var ErrStaleProfile = errors.New("profile was updated concurrently")

// GetProfile fetches the active profile for a (clinician, subspecialty) key.
// A missing profile is (nil, nil), not an error.
func (s *Store) GetProfile(ctx context.Context, clinicianID, subspecialty string) (*profile.Profile, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT clinician_id, subspecialty, section_order, section_inclusion, section_verbosity,
		       preferred_phrases, avoided_phrases, vocabulary,
		       terminology_level, greeting_style, closing_style, signoff_template, formality, paragraph_style,
		       confidence, learning_strength, total_edits_analyzed, last_analyzed_at, model_id, insights
		FROM style_profiles
		WHERE clinician_id = $1 AND subspecialty = $2`,
		clinicianID, subspecialty,
	)

	var p profile.Profile
	var sectionOrder, sectionInclusion, sectionVerbosity, preferred, avoided, vocab, confidence, insights []byte
	var lastAnalyzed *time.Time
	err := row.Scan(&p.ClinicianID, &p.Subspecialty, &sectionOrder, &sectionInclusion, &sectionVerbosity,
		&preferred, &avoided, &vocab,
		&p.TerminologyLevel, &p.GreetingStyle, &p.ClosingStyle, &p.SignoffTemplate, &p.Formality, &p.ParagraphStyle,
		&confidence, &p.LearningStrength, &p.TotalEditsAnalyzed, &lastAnalyzed, &p.ModelID, &insights)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan style_profile: %w", err)
	}

	if lastAnalyzed != nil {
		p.LastAnalyzedAt = *lastAnalyzed
	}
	unmarshal := func(raw []byte, dest any, col string) error {
		if len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, dest); err != nil {
			return fmt.Errorf("unmarshal %s: %w", col, err)
		}
		return nil
	}
	if err := unmarshal(sectionOrder, &p.SectionOrder, "section_order"); err != nil {
		return nil, err
	}
	if err := unmarshal(sectionInclusion, &p.SectionInclusion, "section_inclusion"); err != nil {
		return nil, err
	}
	if err := unmarshal(sectionVerbosity, &p.SectionVerbosity, "section_verbosity"); err != nil {
		return nil, err
	}
	if err := unmarshal(preferred, &p.PreferredPhrases, "preferred_phrases"); err != nil {
		return nil, err
	}
	if err := unmarshal(avoided, &p.AvoidedPhrases, "avoided_phrases"); err != nil {
		return nil, err
	}
	if err := unmarshal(vocab, &p.Vocabulary, "vocabulary"); err != nil {
		return nil, err
	}
	if err := unmarshal(confidence, &p.Confidence, "confidence"); err != nil {
		return nil, err
	}
	if err := unmarshal(insights, &p.Insights, "insights"); err != nil {
		return nil, err
	}

	if p.SectionInclusion == nil {
		p.SectionInclusion = map[letter.SectionType]float64{}
	}
	return &p, nil
}

// UpsertProfile writes a merged profile, guarded by a compare-and-swap on
// total_edits_analyzed: the write applies only when the stored edit count
// still matches what the merge was based on. expectedEdits is 0 for a
// first-time profile.
func (s *Store) UpsertProfile(ctx context.Context, p profile.Profile, expectedEdits int) error {
	sectionOrder, _ := json.Marshal(p.SectionOrder)
	sectionInclusion, _ := json.Marshal(p.SectionInclusion)
	sectionVerbosity, _ := json.Marshal(p.SectionVerbosity)
	preferred, _ := json.Marshal(p.PreferredPhrases)
	avoided, _ := json.Marshal(p.AvoidedPhrases)
	vocab, _ := json.Marshal(p.Vocabulary)
	confidence, _ := json.Marshal(p.Confidence)
	insights, _ := json.Marshal(p.Insights)

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO style_profiles (clinician_id, subspecialty, section_order, section_inclusion, section_verbosity,
			preferred_phrases, avoided_phrases, vocabulary,
			terminology_level, greeting_style, closing_style, signoff_template, formality, paragraph_style,
			confidence, learning_strength, total_edits_analyzed, last_analyzed_at, model_id, insights)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, now(), $18, $19)
		ON CONFLICT (clinician_id, subspecialty) DO UPDATE SET
			section_order = EXCLUDED.section_order,
			section_inclusion = EXCLUDED.section_inclusion,
			section_verbosity = EXCLUDED.section_verbosity,
			preferred_phrases = EXCLUDED.preferred_phrases,
			avoided_phrases = EXCLUDED.avoided_phrases,
			vocabulary = EXCLUDED.vocabulary,
			terminology_level = EXCLUDED.terminology_level,
			greeting_style = EXCLUDED.greeting_style,
			closing_style = EXCLUDED.closing_style,
			signoff_template = EXCLUDED.signoff_template,
			formality = EXCLUDED.formality,
			paragraph_style = EXCLUDED.paragraph_style,
			confidence = EXCLUDED.confidence,
			total_edits_analyzed = EXCLUDED.total_edits_analyzed,
			last_analyzed_at = now(),
			model_id = EXCLUDED.model_id,
			insights = EXCLUDED.insights
		WHERE style_profiles.total_edits_analyzed = $20`,
		p.ClinicianID, p.Subspecialty, sectionOrder, sectionInclusion, sectionVerbosity,
		preferred, avoided, vocab,
		p.TerminologyLevel, p.GreetingStyle, p.ClosingStyle, p.SignoffTemplate, p.Formality, p.ParagraphStyle,
		confidence, p.LearningStrength, p.TotalEditsAnalyzed, p.ModelID, insights,
		expectedEdits,
	)
	if err != nil {
		return fmt.Errorf("upsert style_profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleProfile
	}
	return nil
}

// UpdateLearningStrength sets the clinician-controlled dial on an existing
// profile. Returns false when no profile exists for the key.
func (s *Store) UpdateLearningStrength(ctx context.Context, clinicianID, subspecialty string, strength float64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE style_profiles SET learning_strength = $1
		WHERE clinician_id = $2 AND subspecialty = $3`,
		strength, clinicianID, subspecialty,
	)
	if err != nil {
		return false, fmt.Errorf("update learning_strength: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
