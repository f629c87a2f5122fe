package diff

import "github.com/drrnair/dictatemed-mvp-sub000/internal/letter"

// ChangeKind classifies one sentence-level change.
type ChangeKind string

const (
	ChangeAddition     ChangeKind = "addition"
	ChangeDeletion     ChangeKind = "deletion"
	ChangeModification ChangeKind = "modification"
)

// Change is one sentence-level edit within a section. Position is the byte
// offset of the affected sentence within its section content (draft offsets
// for deletions and modifications, final offsets for additions).
type Change struct {
	Kind      ChangeKind `json:"kind"`
	Original  string     `json:"original,omitempty"`
	Modified  string     `json:"modified,omitempty"`
	CharDelta int        `json:"char_delta"`
	WordDelta int        `json:"word_delta"`
	Position  int        `json:"position"`
}

// Status classifies a whole section between draft and final.
type Status string

const (
	StatusUnchanged Status = "unchanged"
	StatusAdded     Status = "added"
	StatusRemoved   Status = "removed"
	StatusModified  Status = "modified"
)

// SectionDiff is the full comparison result for one aligned section pair.
type SectionDiff struct {
	SectionType    letter.SectionType `json:"section_type"`
	DraftContent   string             `json:"draft_content,omitempty"`
	FinalContent   string             `json:"final_content,omitempty"`
	Status         Status             `json:"status"`
	Changes        []Change           `json:"changes,omitempty"`
	TotalCharDelta int                `json:"total_char_delta"`
	TotalWordDelta int                `json:"total_word_delta"`
}

// AlignedPair pairs a draft section with its final counterpart. Either side
// may be nil: a nil Final means the section was removed, a nil Draft means it
// was added.
type AlignedPair struct {
	Draft *letter.Section
	Final *letter.Section
}
