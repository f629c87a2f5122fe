package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/drrnair/dictatemed-mvp-sub000/internal/store"
)

type fakeEditSource struct {
	edits  []store.StyleEdit
	saved  []store.AnalyticsAggregate
	recent []string
}

func (f *fakeEditSource) EditsForPeriod(_ context.Context, subspecialty string, _, _ time.Time) ([]store.StyleEdit, error) {
	var out []store.StyleEdit
	for _, e := range f.edits {
		if e.Subspecialty == subspecialty {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEditSource) SubspecialtiesWithEditsSince(_ context.Context, _ time.Time) ([]string, error) {
	return f.recent, nil
}

func (f *fakeEditSource) UpsertAggregate(_ context.Context, a store.AnalyticsAggregate) error {
	f.saved = append(f.saved, a)
	return nil
}

func cohortEdits(clinicians, editsPer int) []store.StyleEdit {
	var out []store.StyleEdit
	for c := 0; c < clinicians; c++ {
		for e := 0; e < editsPer; e++ {
			out = append(out, store.StyleEdit{
				ClinicianID:  fmt.Sprintf("clinician-%d", c),
				Subspecialty: "cardiology",
				SectionType:  "plan",
				EditType:     "modified",
				BeforeText:   "Plan:\nStart aspirin. Review in twelve months.",
				AfterText:    "Plan:\nStart aspirin. Review in clinic in six weeks with repeat bloods beforehand.",
			})
		}
	}
	return out
}

var window = time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

func TestAggregateBelowCohortThreshold(t *testing.T) {
	// Two clinicians with heavy volume must never aggregate, whatever the
	// sample size.
	src := &fakeEditSource{edits: cohortEdits(2, 50)}
	agg := New(src, 5, 10, slog.Default())

	got, err := agg.Aggregate(context.Background(), "cardiology", window, window.AddDate(0, 0, 7), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil aggregate for cohort of 2, got %+v", got)
	}
	if len(src.saved) != 0 {
		t.Errorf("aggregate persisted despite cohort miss")
	}
}

func TestAggregateBelowSampleThreshold(t *testing.T) {
	src := &fakeEditSource{edits: cohortEdits(6, 1)}
	agg := New(src, 5, 10, slog.Default())

	got, err := agg.Aggregate(context.Background(), "cardiology", window, window.AddDate(0, 0, 7), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil aggregate for 6 edits, got %+v", got)
	}
}

func TestAggregateProducesDeidentifiedPatterns(t *testing.T) {
	src := &fakeEditSource{edits: cohortEdits(6, 3)}
	agg := New(src, 5, 10, slog.Default())

	got, err := agg.Aggregate(context.Background(), "cardiology", window, window.AddDate(0, 0, 7), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected an aggregate")
	}

	if got.SampleSize != 18 {
		t.Errorf("sample size = %d, want 18", got.SampleSize)
	}
	if got.ClinicianCount != 6 {
		t.Errorf("clinician count = %d, want 6", got.ClinicianCount)
	}
	if got.Period != "2026-W35" {
		t.Errorf("period = %q, want 2026-W35", got.Period)
	}

	if len(got.PhrasePatterns) == 0 {
		t.Error("expected phrase patterns from repeated edits")
	}
	for _, kind := range [][]store.Pattern{got.AdditionPatterns, got.DeletionPatterns, got.PhrasePatterns} {
		for _, p := range kind {
			if p.Frequency < 2 {
				t.Errorf("pattern %q below minimum frequency: %d", p.Text, p.Frequency)
			}
			if p.ClinicianCount < 1 || p.ClinicianCount > got.ClinicianCount {
				t.Errorf("pattern %q has clinician count %d", p.Text, p.ClinicianCount)
			}
			if p.CohortPct <= 0 || p.CohortPct > 100 {
				t.Errorf("pattern %q has cohort pct %v", p.Text, p.CohortPct)
			}
		}
	}

	if len(src.saved) != 1 {
		t.Fatalf("expected 1 persisted aggregate, got %d", len(src.saved))
	}
}

func TestAggregateScrubsIdentifyingText(t *testing.T) {
	edits := cohortEdits(6, 2)
	for i := range edits {
		edits[i].AfterText = "Plan:\nStart aspirin. Discussed with Dr Patel on 2026-03-12 who agrees with the approach."
	}
	src := &fakeEditSource{edits: edits}
	agg := New(src, 5, 10, slog.Default())

	got, err := agg.Aggregate(context.Background(), "cardiology", window, window.AddDate(0, 0, 7), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected an aggregate")
	}
	for _, kind := range [][]store.Pattern{got.AdditionPatterns, got.DeletionPatterns, got.PhrasePatterns} {
		for _, p := range kind {
			if containsAny(p.Text, "Patel", "patel", "2026-03-12", redactionMarker) {
				t.Errorf("identifying text survived into pattern %q", p.Text)
			}
		}
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func TestSchedulerRunAllIsolatesSubspecialties(t *testing.T) {
	src := &fakeEditSource{
		edits:  append(cohortEdits(6, 3), store.StyleEdit{ClinicianID: "x", Subspecialty: "dermatology", SectionType: "plan", EditType: "modified"}),
		recent: []string{"dermatology", "cardiology"},
	}
	agg := New(src, 5, 10, slog.Default())
	sched, err := NewScheduler(agg, src, nil, "0 2 * * 1", slog.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sched.RunAll(context.Background())

	// Dermatology misses its cohort; cardiology still aggregates.
	if len(src.saved) != 1 {
		t.Fatalf("expected 1 persisted aggregate, got %d", len(src.saved))
	}
	if src.saved[0].Subspecialty != "cardiology" {
		t.Errorf("persisted subspecialty = %q", src.saved[0].Subspecialty)
	}
}

func TestNewSchedulerRejectsBadExpression(t *testing.T) {
	agg := New(&fakeEditSource{}, 5, 10, slog.Default())
	if _, err := NewScheduler(agg, &fakeEditSource{}, nil, "not a cron line", slog.Default()); err == nil {
		t.Error("expected error for invalid cron expression")
	}
}

func TestPeriodLabel(t *testing.T) {
	tests := []struct {
		t    time.Time
		want string
	}{
		{time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), "2026-W35"},
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "2026-W01"},
		{time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), "2026-W53"},
	}
	for _, tt := range tests {
		if got := PeriodLabel(tt.t); got != tt.want {
			t.Errorf("PeriodLabel(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}
