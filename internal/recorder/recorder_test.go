package recorder

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/drrnair/dictatemed-mvp-sub000/internal/store"
)

type fakeEditStore struct {
	edits  []store.StyleEdit
	failOn string // section type whose insert should fail
}

func (f *fakeEditStore) InsertStyleEdit(_ context.Context, e store.StyleEdit) error {
	if f.failOn != "" && e.SectionType == f.failOn {
		return errors.New("insert failed")
	}
	f.edits = append(f.edits, e)
	return nil
}

const draftLetter = `Dear Dr Smith,

History: chest pain for two weeks.

Plan:
Start aspirin.

Yours sincerely,
Dr Jones`

const finalLetter = `Dear Dr Smith,

History: chest pain for three months.

Plan:
Start aspirin and a statin.

Yours sincerely,
Dr Jones`

func TestRecordApproval(t *testing.T) {
	fs := &fakeEditStore{}
	r := New(fs, slog.Default())

	created, diffs := r.RecordApproval(context.Background(), "c1", "l1", "cardiology", draftLetter, finalLetter)

	if created != 2 {
		t.Fatalf("created = %d, want 2 (history and plan changed)", created)
	}
	if len(diffs) < 4 {
		t.Errorf("expected diffs for every section, got %d", len(diffs))
	}
	for _, e := range fs.edits {
		if e.ClinicianID != "c1" || e.LetterID != "l1" || e.Subspecialty != "cardiology" {
			t.Errorf("edit missing identity fields: %+v", e)
		}
		if e.ID.String() == "00000000-0000-0000-0000-000000000000" {
			t.Error("edit has zero ID")
		}
		if e.EditType == "unchanged" {
			t.Errorf("unchanged section persisted: %+v", e)
		}
	}
}

func TestRecordApprovalIdenticalTexts(t *testing.T) {
	fs := &fakeEditStore{}
	r := New(fs, slog.Default())

	created, _ := r.RecordApproval(context.Background(), "c1", "l1", "cardiology", draftLetter, draftLetter)
	if created != 0 {
		t.Errorf("created = %d, want 0 for identical texts", created)
	}
	if len(fs.edits) != 0 {
		t.Errorf("edits persisted for identical texts: %+v", fs.edits)
	}
}

func TestRecordApprovalInsertFailureSkipsAndContinues(t *testing.T) {
	fs := &fakeEditStore{failOn: "history"}
	r := New(fs, slog.Default())

	created, _ := r.RecordApproval(context.Background(), "c1", "l1", "cardiology", draftLetter, finalLetter)
	if created != 1 {
		t.Errorf("created = %d, want 1 (history insert failed, plan succeeded)", created)
	}
}
