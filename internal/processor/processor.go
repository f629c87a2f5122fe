package processor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/drrnair/dictatemed-mvp-sub000/internal/analyzer"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/cache"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/hermes"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/letter"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/profile"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/recorder"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/store"
)

// Processor orchestrates the style-learning pipeline: approval events in,
// recorded edits and refreshed profiles out. All handlers swallow failures;
// a lost event never disturbs letter delivery.
type Processor struct {
	store    *store.Store
	recorder *recorder.Recorder
	analyzer *analyzer.Analyzer
	cache    cache.ProfileCache
	hermes   *hermes.Client
	logger   *slog.Logger

	minEditsForAnalysis int
	analysisInterval    int
	analysisBatchSize   int
}

func New(s *store.Store, rec *recorder.Recorder, an *analyzer.Analyzer, c cache.ProfileCache, h *hermes.Client, minEdits, interval, batchSize int, logger *slog.Logger) *Processor {
	return &Processor{
		store:               s,
		recorder:            rec,
		analyzer:            an,
		cache:               c,
		hermes:              h,
		logger:              logger,
		minEditsForAnalysis: minEdits,
		analysisInterval:    interval,
		analysisBatchSize:   batchSize,
	}
}

// HandleLetterApproved is the NATS handler for letters.letter.approved.
func (p *Processor) HandleLetterApproved(subject string, data []byte) {
	ctx := context.Background()

	var evt hermes.ApprovedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Error("failed to parse approval event", "error", err)
		return
	}
	if evt.ClinicianID == "" || evt.LetterID == "" || evt.Subspecialty == "" {
		p.logger.Error("approval event missing required fields",
			"clinician_id", evt.ClinicianID,
			"letter_id", evt.LetterID,
			"subspecialty", evt.Subspecialty,
		)
		return
	}

	p.ProcessApproval(ctx, evt)
}

// ProcessApproval records the edit delta for one approved letter and, when
// the edit backlog crosses a threshold, requests an analysis run.
func (p *Processor) ProcessApproval(ctx context.Context, evt hermes.ApprovedEvent) {
	created, _ := p.recorder.RecordApproval(ctx, evt.ClinicianID, evt.LetterID, evt.Subspecialty, evt.DraftText, evt.FinalText)
	if created == 0 {
		p.logger.Info("approval produced no style edits",
			"clinician_id", evt.ClinicianID,
			"letter_id", evt.LetterID,
		)
		return
	}

	p.MaybeRequestAnalysis(ctx, evt.ClinicianID, evt.Subspecialty)
}

// MaybeRequestAnalysis checks the clinician's edit backlog against the
// analysis thresholds and publishes an analysis request when one is due.
func (p *Processor) MaybeRequestAnalysis(ctx context.Context, clinicianID, subspecialty string) {
	count, err := p.store.CountStyleEdits(ctx, clinicianID, subspecialty)
	if err != nil {
		p.logger.Error("failed to count style edits", "clinician_id", clinicianID, "error", err)
		return
	}

	existing, err := p.store.GetProfile(ctx, clinicianID, subspecialty)
	if err != nil {
		p.logger.Error("failed to load profile for trigger check", "clinician_id", clinicianID, "error", err)
		return
	}

	totalAnalyzed := 0
	if existing != nil {
		totalAnalyzed = existing.TotalEditsAnalyzed
	}
	decision := recorder.ShouldTriggerAnalysis(existing != nil, totalAnalyzed, count, p.minEditsForAnalysis, p.analysisInterval)
	if !decision.Trigger {
		return
	}

	p.logger.Info("requesting style analysis",
		"clinician_id", clinicianID,
		"subspecialty", subspecialty,
		"reason", decision.Reason,
	)
	if err := p.hermes.Publish(hermes.SubjectAnalysisRequested, hermes.AnalysisRequest{
		ClinicianID:  clinicianID,
		Subspecialty: subspecialty,
		Reason:       decision.Reason,
	}); err != nil {
		p.logger.Error("failed to publish analysis request", "clinician_id", clinicianID, "error", err)
	}
}

// HandleAnalysisRequested is the NATS handler for letters.analysis.requested.
func (p *Processor) HandleAnalysisRequested(subject string, data []byte) {
	ctx := context.Background()

	var req hermes.AnalysisRequest
	if err := json.Unmarshal(data, &req); err != nil {
		p.logger.Error("failed to parse analysis request", "error", err)
		return
	}
	if req.ClinicianID == "" || req.Subspecialty == "" {
		p.logger.Error("analysis request missing required fields",
			"clinician_id", req.ClinicianID,
			"subspecialty", req.Subspecialty,
		)
		return
	}

	p.RunAnalysis(ctx, req.ClinicianID, req.Subspecialty)
}

// RunAnalysis analyzes the clinician's most recent edits and merges the
// result into their profile. Any failure, including malformed analyzer
// output, leaves the stored profile untouched.
func (p *Processor) RunAnalysis(ctx context.Context, clinicianID, subspecialty string) {
	existing, err := p.store.GetProfile(ctx, clinicianID, subspecialty)
	if err != nil {
		p.logger.Error("failed to load profile", "clinician_id", clinicianID, "error", err)
		return
	}

	rows, err := p.store.RecentStyleEdits(ctx, clinicianID, subspecialty, p.analysisBatchSize)
	if err != nil {
		p.logger.Error("failed to load style edits", "clinician_id", clinicianID, "error", err)
		return
	}
	if len(rows) == 0 {
		p.logger.Info("analysis requested with no edits on record",
			"clinician_id", clinicianID,
			"subspecialty", subspecialty,
		)
		return
	}

	edits := make([]analyzer.Edit, len(rows))
	for i, r := range rows {
		edits[i] = analyzer.Edit{
			SectionType: letter.SectionType(r.SectionType),
			EditType:    r.EditType,
			BeforeText:  r.BeforeText,
			AfterText:   r.AfterText,
		}
	}

	analysis, err := p.analyzer.Analyze(ctx, subspecialty, edits)
	if err != nil {
		var schemaErr *analyzer.SchemaError
		if errors.As(err, &schemaErr) {
			p.logger.Error("analyzer returned malformed result, profile unchanged",
				"clinician_id", clinicianID,
				"reason", schemaErr.Reason,
			)
		} else {
			p.logger.Error("analysis failed, profile unchanged", "clinician_id", clinicianID, "error", err)
		}
		return
	}

	merged := profile.Merge(existing, *analysis)
	merged.ClinicianID = clinicianID
	merged.Subspecialty = subspecialty
	merged.LastAnalyzedAt = time.Now().UTC()

	expected := 0
	if existing != nil {
		expected = existing.TotalEditsAnalyzed
	}
	if err := p.store.UpsertProfile(ctx, merged, expected); err != nil {
		if errors.Is(err, store.ErrStaleProfile) {
			p.logger.Warn("profile changed concurrently, merge discarded",
				"clinician_id", clinicianID,
				"subspecialty", subspecialty,
			)
		} else {
			p.logger.Error("failed to persist profile", "clinician_id", clinicianID, "error", err)
		}
		return
	}

	// Persist first, then invalidate. A reader can see the old profile during
	// the gap but never a cached copy that outlives a successful write.
	p.cache.Invalidate(clinicianID, subspecialty)

	if err := p.hermes.Publish(hermes.SubjectProfileUpdated, hermes.ProfileUpdated{
		ClinicianID:   clinicianID,
		Subspecialty:  subspecialty,
		EditsAnalyzed: merged.TotalEditsAnalyzed,
		Confidence:    merged.Confidence.OverallConfidence(),
	}); err != nil {
		p.logger.Error("failed to publish profile updated", "clinician_id", clinicianID, "error", err)
	}

	p.logger.Info("profile updated",
		"clinician_id", clinicianID,
		"subspecialty", subspecialty,
		"edits_analyzed", merged.TotalEditsAnalyzed,
		"confidence", merged.Confidence.OverallConfidence(),
	)
}
