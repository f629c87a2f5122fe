package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StyleEdit is one recorded section-level change between an AI-drafted letter
// and its approved final version. Rows are append-only: this subsystem never
// updates or deletes them.
type StyleEdit struct {
	ID               uuid.UUID
	ClinicianID      string
	LetterID         string
	Subspecialty     string
	SectionType      string
	EditType         string
	BeforeText       string
	AfterText        string
	CharacterChanges int
	WordChanges      int
	CreatedAt        time.Time
}

// InsertStyleEdit appends one style edit row.
func (s *Store) InsertStyleEdit(ctx context.Context, e StyleEdit) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO style_edits (id, clinician_id, letter_id, subspecialty, section_type, edit_type, before_text, after_text, character_changes, word_changes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.ClinicianID, e.LetterID, e.Subspecialty, e.SectionType, e.EditType,
		e.BeforeText, e.AfterText, e.CharacterChanges, e.WordChanges,
	)
	if err != nil {
		return fmt.Errorf("insert style_edit: %w", err)
	}
	return nil
}

// CountStyleEdits counts all edits recorded for one clinician within one
// subspecialty.
func (s *Store) CountStyleEdits(ctx context.Context, clinicianID, subspecialty string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM style_edits
		WHERE clinician_id = $1 AND subspecialty = $2`,
		clinicianID, subspecialty,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count style_edits: %w", err)
	}
	return count, nil
}

// RecentStyleEdits returns the newest edits for a clinician/subspecialty pair,
// bounded to the analysis batch size.
func (s *Store) RecentStyleEdits(ctx context.Context, clinicianID, subspecialty string, limit int) ([]StyleEdit, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, clinician_id, letter_id, subspecialty, section_type, edit_type, before_text, after_text, character_changes, word_changes, created_at
		FROM style_edits
		WHERE clinician_id = $1 AND subspecialty = $2
		ORDER BY created_at DESC
		LIMIT $3`,
		clinicianID, subspecialty, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent style_edits: %w", err)
	}
	defer rows.Close()
	return scanStyleEdits(rows)
}

// EditsForPeriod returns every edit in a subspecialty within [start, end).
func (s *Store) EditsForPeriod(ctx context.Context, subspecialty string, start, end time.Time) ([]StyleEdit, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, clinician_id, letter_id, subspecialty, section_type, edit_type, before_text, after_text, character_changes, word_changes, created_at
		FROM style_edits
		WHERE subspecialty = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at`,
		subspecialty, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("query period style_edits: %w", err)
	}
	defer rows.Close()
	return scanStyleEdits(rows)
}

// SubspecialtiesWithEditsSince lists the subspecialties that recorded any edit
// after the given time, for the periodic aggregation batch.
func (s *Store) SubspecialtiesWithEditsSince(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT subspecialty FROM style_edits
		WHERE created_at >= $1
		ORDER BY subspecialty`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("query subspecialties: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sub string
		if err := rows.Scan(&sub); err != nil {
			return nil, fmt.Errorf("scan subspecialty: %w", err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

type editRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanStyleEdits(rows editRows) ([]StyleEdit, error) {
	var edits []StyleEdit
	for rows.Next() {
		var e StyleEdit
		err := rows.Scan(&e.ID, &e.ClinicianID, &e.LetterID, &e.Subspecialty, &e.SectionType,
			&e.EditType, &e.BeforeText, &e.AfterText, &e.CharacterChanges, &e.WordChanges, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan style_edit: %w", err)
		}
		edits = append(edits, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return edits, nil
}
