package recorder

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/drrnair/dictatemed-mvp-sub000/internal/diff"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/letter"
	"github.com/drrnair/dictatemed-mvp-sub000/internal/store"
)

// EditStore is the slice of the store the recorder needs.
type EditStore interface {
	InsertStyleEdit(ctx context.Context, e store.StyleEdit) error
}

// Recorder turns one letter approval into persisted style edits.
type Recorder struct {
	store  EditStore
	logger *slog.Logger
}

func New(s EditStore, logger *slog.Logger) *Recorder {
	return &Recorder{store: s, logger: logger}
}

// RecordApproval parses both snapshots, aligns and diffs their sections, and
// persists one StyleEdit per section whose status is not unchanged. It is
// best-effort with respect to the approval workflow: a failed insert is
// logged and skipped, never propagated. Returns the created count and the
// full diff analysis for caller logging.
func (r *Recorder) RecordApproval(ctx context.Context, clinicianID, letterID, subspecialty, draftText, finalText string) (int, []diff.SectionDiff) {
	draftSections := letter.Parse(draftText)
	finalSections := letter.Parse(finalText)
	diffs := diff.All(draftSections, finalSections)

	created := 0
	for _, d := range diffs {
		if d.Status == diff.StatusUnchanged {
			continue
		}
		e := store.StyleEdit{
			ID:               uuid.New(),
			ClinicianID:      clinicianID,
			LetterID:         letterID,
			Subspecialty:     subspecialty,
			SectionType:      string(d.SectionType),
			EditType:         string(d.Status),
			BeforeText:       d.DraftContent,
			AfterText:        d.FinalContent,
			CharacterChanges: d.TotalCharDelta,
			WordChanges:      d.TotalWordDelta,
		}
		if err := r.store.InsertStyleEdit(ctx, e); err != nil {
			r.logger.Error("failed to persist style edit",
				"clinician_id", clinicianID,
				"letter_id", letterID,
				"section", d.SectionType,
				"error", err,
			)
			continue
		}
		created++
	}

	r.logger.Info("approval recorded",
		"clinician_id", clinicianID,
		"letter_id", letterID,
		"subspecialty", subspecialty,
		"sections", len(diffs),
		"edits_created", created,
	)
	return created, diffs
}
