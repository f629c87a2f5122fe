package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/drrnair/dictatemed-mvp-sub000/internal/letter"
)

// Pattern is one de-identified cross-clinician edit pattern. Text has already
// been through PHI scrubbing before it reaches the store.
type Pattern struct {
	Text           string  `json:"text"`
	Frequency      int     `json:"frequency"`
	ClinicianCount int     `json:"clinician_count"`
	CohortPct      float64 `json:"cohort_pct"`
}

// SectionOrderPattern is one section ordering observed in final letters.
type SectionOrderPattern struct {
	Order     []letter.SectionType `json:"order"`
	Frequency int                  `json:"frequency"`
}

// AnalyticsAggregate is the de-identified aggregate for one subspecialty and
// calendar-week period. It never carries clinician identity, letter identity,
// or un-scrubbed text.
type AnalyticsAggregate struct {
	Subspecialty     string                `json:"subspecialty"`
	Period           string                `json:"period"`
	SampleSize       int                   `json:"sample_size"`
	ClinicianCount   int                   `json:"clinician_count"`
	AdditionPatterns []Pattern             `json:"addition_patterns"`
	DeletionPatterns []Pattern             `json:"deletion_patterns"`
	PhrasePatterns   []Pattern             `json:"phrase_patterns"`
	SectionOrders    []SectionOrderPattern `json:"section_orders"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// UpsertAggregate writes an aggregate keyed by (subspecialty, period).
func (s *Store) UpsertAggregate(ctx context.Context, a AnalyticsAggregate) error {
	additions, _ := json.Marshal(a.AdditionPatterns)
	deletions, _ := json.Marshal(a.DeletionPatterns)
	phrases, _ := json.Marshal(a.PhrasePatterns)
	orders, _ := json.Marshal(a.SectionOrders)

	_, err := s.pool.Exec(ctx, `
		INSERT INTO analytics_aggregates (subspecialty, period, sample_size, clinician_count, addition_patterns, deletion_patterns, phrase_patterns, section_orders, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (subspecialty, period) DO UPDATE SET
			sample_size = EXCLUDED.sample_size,
			clinician_count = EXCLUDED.clinician_count,
			addition_patterns = EXCLUDED.addition_patterns,
			deletion_patterns = EXCLUDED.deletion_patterns,
			phrase_patterns = EXCLUDED.phrase_patterns,
			section_orders = EXCLUDED.section_orders,
			updated_at = now()`,
		a.Subspecialty, a.Period, a.SampleSize, a.ClinicianCount, additions, deletions, phrases, orders,
	)
	if err != nil {
		return fmt.Errorf("upsert analytics_aggregate: %w", err)
	}
	return nil
}

// GetAggregate fetches one aggregate; missing is (nil, nil).
func (s *Store) GetAggregate(ctx context.Context, subspecialty, period string) (*AnalyticsAggregate, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT subspecialty, period, sample_size, clinician_count, addition_patterns, deletion_patterns, phrase_patterns, section_orders, updated_at
		FROM analytics_aggregates
		WHERE subspecialty = $1 AND period = $2`,
		subspecialty, period,
	)

	var a AnalyticsAggregate
	var additions, deletions, phrases, orders []byte
	err := row.Scan(&a.Subspecialty, &a.Period, &a.SampleSize, &a.ClinicianCount,
		&additions, &deletions, &phrases, &orders, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan analytics_aggregate: %w", err)
	}

	if err := json.Unmarshal(additions, &a.AdditionPatterns); err != nil {
		return nil, fmt.Errorf("unmarshal addition_patterns: %w", err)
	}
	if err := json.Unmarshal(deletions, &a.DeletionPatterns); err != nil {
		return nil, fmt.Errorf("unmarshal deletion_patterns: %w", err)
	}
	if err := json.Unmarshal(phrases, &a.PhrasePatterns); err != nil {
		return nil, fmt.Errorf("unmarshal phrase_patterns: %w", err)
	}
	if err := json.Unmarshal(orders, &a.SectionOrders); err != nil {
		return nil, fmt.Errorf("unmarshal section_orders: %w", err)
	}
	return &a, nil
}
