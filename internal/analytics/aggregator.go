package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/drrnair/dictatemed-mvp-sub000/internal/diff"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/letter"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/store"
)

const (
	// DefaultMinCohortSize is the minimum distinct-clinician count before any
	// cross-clinician aggregate may be produced.
	DefaultMinCohortSize = 5
	// DefaultMinSampleSize is the minimum edit volume for an aggregate.
	DefaultMinSampleSize = 10

	minPatternFrequency = 2
	maxPatternsPerKind  = 50
)

// EditSource is the slice of the store the aggregator needs.
type EditSource interface {
	EditsForPeriod(ctx context.Context, subspecialty string, start, end time.Time) ([]store.StyleEdit, error)
	SubspecialtiesWithEditsSince(ctx context.Context, since time.Time) ([]string, error)
	UpsertAggregate(ctx context.Context, a store.AnalyticsAggregate) error
}

// Aggregator mines de-identified cross-clinician edit patterns from the edit
// log, enforcing the cohort threshold before anything is stored.
type Aggregator struct {
	store         EditSource
	minCohortSize int
	minSampleSize int
	logger        *slog.Logger
}

func New(s EditSource, minCohortSize, minSampleSize int, logger *slog.Logger) *Aggregator {
	if minCohortSize <= 0 {
		minCohortSize = DefaultMinCohortSize
	}
	if minSampleSize <= 0 {
		minSampleSize = DefaultMinSampleSize
	}
	return &Aggregator{store: s, minCohortSize: minCohortSize, minSampleSize: minSampleSize, logger: logger}
}

// patternCount accumulates one candidate pattern across the cohort.
type patternCount struct {
	count      int
	clinicians map[string]bool
}

type patternSet map[string]*patternCount

func (ps patternSet) add(text, clinicianID string) {
	pc, ok := ps[text]
	if !ok {
		pc = &patternCount{clinicians: make(map[string]bool)}
		ps[text] = pc
	}
	pc.count++
	pc.clinicians[clinicianID] = true
}

// Aggregate mines one subspecialty over [periodStart, periodEnd). It returns
// (nil, nil) — a decision, not an error — when the cohort has fewer than the
// minimum distinct clinicians or fewer edits than minSampleSize. Pass
// minSampleSize <= 0 for the configured default. The result is upserted keyed
// by (subspecialty, calendar week of periodStart).
func (a *Aggregator) Aggregate(ctx context.Context, subspecialty string, periodStart, periodEnd time.Time, minSampleSize int) (*store.AnalyticsAggregate, error) {
	if minSampleSize <= 0 {
		minSampleSize = a.minSampleSize
	}

	edits, err := a.store.EditsForPeriod(ctx, subspecialty, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("load edits: %w", err)
	}

	cohort := make(map[string]bool)
	for _, e := range edits {
		cohort[e.ClinicianID] = true
	}

	if len(cohort) < a.minCohortSize {
		a.logger.Info("aggregate skipped: cohort below threshold",
			"subspecialty", subspecialty,
			"clinicians", len(cohort),
			"min_cohort", a.minCohortSize,
		)
		return nil, nil
	}
	if len(edits) < minSampleSize {
		a.logger.Info("aggregate skipped: sample below threshold",
			"subspecialty", subspecialty,
			"edits", len(edits),
			"min_sample", minSampleSize,
		)
		return nil, nil
	}

	additions := make(patternSet)
	deletions := make(patternSet)
	phrases := make(patternSet)
	orders := make(map[string]int)

	for _, e := range edits {
		mineEdit(e, additions, deletions, phrases, orders)
	}

	agg := store.AnalyticsAggregate{
		Subspecialty:     subspecialty,
		Period:           PeriodLabel(periodStart),
		SampleSize:       len(edits),
		ClinicianCount:   len(cohort),
		AdditionPatterns: rankPatterns(additions, len(cohort)),
		DeletionPatterns: rankPatterns(deletions, len(cohort)),
		PhrasePatterns:   rankPatterns(phrases, len(cohort)),
		SectionOrders:    rankOrders(orders),
	}

	if err := a.store.UpsertAggregate(ctx, agg); err != nil {
		return nil, fmt.Errorf("persist aggregate: %w", err)
	}

	a.logger.Info("aggregate written",
		"subspecialty", subspecialty,
		"period", agg.Period,
		"sample_size", agg.SampleSize,
		"clinicians", agg.ClinicianCount,
		"additions", len(agg.AdditionPatterns),
		"deletions", len(agg.DeletionPatterns),
		"phrases", len(agg.PhrasePatterns),
	)
	return &agg, nil
}

// mineEdit re-parses and re-aligns one edit's before/after text and feeds the
// pattern counters. Every candidate passes PHI scrubbing before it counts.
func mineEdit(e store.StyleEdit, additions, deletions, phrases patternSet, orders map[string]int) {
	draftSections := letter.Parse(e.BeforeText)
	finalSections := letter.Parse(e.AfterText)

	if len(finalSections) >= 2 {
		types := make([]string, len(finalSections))
		for i, s := range finalSections {
			types[i] = string(s.Type)
		}
		orders[strings.Join(types, " > ")]++
	}

	for _, d := range diff.All(draftSections, finalSections) {
		switch d.Status {
		case diff.StatusAdded:
			additions.add(fmt.Sprintf("adds %s section", d.SectionType), e.ClinicianID)
			minePhrases(d.FinalContent, phrases, e.ClinicianID)
		case diff.StatusRemoved:
			deletions.add(fmt.Sprintf("removes %s section", d.SectionType), e.ClinicianID)
			minePhrases(d.DraftContent, phrases, e.ClinicianID)
		case diff.StatusModified:
			for _, c := range d.Changes {
				switch c.Kind {
				case diff.ChangeAddition:
					if text, ok := CleanPattern(c.Modified); ok {
						additions.add(text, e.ClinicianID)
					}
					minePhrases(c.Modified, phrases, e.ClinicianID)
				case diff.ChangeDeletion:
					if text, ok := CleanPattern(c.Original); ok {
						deletions.add(text, e.ClinicianID)
					}
					minePhrases(c.Original, phrases, e.ClinicianID)
				case diff.ChangeModification:
					minePhrases(c.Modified, phrases, e.ClinicianID)
				}
			}
		}
	}
}

func minePhrases(text string, phrases patternSet, clinicianID string) {
	for _, p := range diff.ExtractPhrases(text) {
		if clean, ok := CleanPattern(p); ok {
			phrases.add(clean, clinicianID)
		}
	}
}

// rankPatterns drops candidates below the minimum frequency, sorts by
// frequency (text ascending on ties, for determinism), caps the list, and
// annotates each survivor with its distinct-clinician count and the share of
// the cohort exhibiting it.
func rankPatterns(ps patternSet, cohortSize int) []store.Pattern {
	var out []store.Pattern
	for text, pc := range ps {
		if pc.count < minPatternFrequency {
			continue
		}
		out = append(out, store.Pattern{
			Text:           text,
			Frequency:      pc.count,
			ClinicianCount: len(pc.clinicians),
			CohortPct:      100 * float64(len(pc.clinicians)) / float64(cohortSize),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Text < out[j].Text
	})
	if len(out) > maxPatternsPerKind {
		out = out[:maxPatternsPerKind]
	}
	return out
}

func rankOrders(orders map[string]int) []store.SectionOrderPattern {
	var out []store.SectionOrderPattern
	for key, count := range orders {
		if count < minPatternFrequency {
			continue
		}
		parts := strings.Split(key, " > ")
		types := make([]letter.SectionType, len(parts))
		for i, p := range parts {
			types[i] = letter.SectionType(p)
		}
		out = append(out, store.SectionOrderPattern{Order: types, Frequency: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return len(out[i].Order) > len(out[j].Order)
	})
	if len(out) > maxPatternsPerKind {
		out = out[:maxPatternsPerKind]
	}
	return out
}

// PeriodLabel derives the calendar-week identifier for a period start, e.g.
// "2026-W09".
func PeriodLabel(periodStart time.Time) string {
	year, week := periodStart.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
