package session

import (
	"github.com/google/uuid"
)

// Document is the engine's read-only view of a ready catalog entry.
type Document struct {
	Id       uuid.UUID `json:"id"`
	FileName string    `json:"file_name"`
	Summary  string    `json:"summary,omitempty"`
}

// Selection holds the ready-document catalog and the user's selected subset.
// Invariant after every operation: selected ⊆ catalog ids. Not safe for
// concurrent use; the owning Engine serializes access.
type Selection struct {
	documents []Document
	selected  map[uuid.UUID]struct{}
	refreshed bool
}

func NewSelection() *Selection {
	return &Selection{selected: make(map[uuid.UUID]struct{})}
}

// Refresh replaces the catalog and reconciles the selection: stale ids are
// dropped, the rest of the previous selection survives. The first successful
// refresh selects everything; afterwards a manual clear is preserved.
func (s *Selection) Refresh(documents []Document) {
	s.documents = make([]Document, len(documents))
	copy(s.documents, documents)

	if !s.refreshed {
		s.refreshed = true
		s.SelectAll()
		return
	}

	kept := make(map[uuid.UUID]struct{}, len(s.selected))
	for _, doc := range s.documents {
		if _, ok := s.selected[doc.Id]; ok {
			kept[doc.Id] = struct{}{}
		}
	}
	s.selected = kept
}

// Toggle flips membership for a catalog id; unknown ids are ignored.
func (s *Selection) Toggle(id uuid.UUID) {
	if !s.inCatalog(id) {
		return
	}
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
	} else {
		s.selected[id] = struct{}{}
	}
}

func (s *Selection) SelectAll() {
	s.selected = make(map[uuid.UUID]struct{}, len(s.documents))
	for _, doc := range s.documents {
		s.selected[doc.Id] = struct{}{}
	}
}

func (s *Selection) ClearAll() {
	s.selected = make(map[uuid.UUID]struct{})
}

func (s *Selection) IsSelected(id uuid.UUID) bool {
	_, ok := s.selected[id]
	return ok
}

func (s *Selection) Empty() bool {
	return len(s.selected) == 0
}

// Documents returns a copy of the catalog in catalog order.
func (s *Selection) Documents() []Document {
	out := make([]Document, len(s.documents))
	copy(out, s.documents)
	return out
}

// SelectedIds returns the selected ids in catalog order.
func (s *Selection) SelectedIds() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(s.selected))
	for _, doc := range s.documents {
		if _, ok := s.selected[doc.Id]; ok {
			out = append(out, doc.Id)
		}
	}
	return out
}

func (s *Selection) inCatalog(id uuid.UUID) bool {
	for _, doc := range s.documents {
		if doc.Id == id {
			return true
		}
	}
	return false
}
