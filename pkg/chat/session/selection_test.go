package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func docs(n int) []Document {
	out := make([]Document, n)
	for i := range out {
		out[i] = Document{Id: uuid.New(), FileName: "doc.pdf"}
	}
	return out
}

// selectionInvariant checks selected ⊆ catalog after any operation.
func selectionInvariant(t *testing.T, s *Selection) {
	t.Helper()
	catalog := make(map[uuid.UUID]struct{})
	for _, d := range s.Documents() {
		catalog[d.Id] = struct{}{}
	}
	for _, id := range s.SelectedIds() {
		_, ok := catalog[id]
		assert.True(t, ok, "selected id %s not in catalog", id)
	}
}

func TestFirstRefreshSelectsAll(t *testing.T) {
	s := NewSelection()
	catalog := docs(3)

	s.Refresh(catalog)

	assert.Len(t, s.SelectedIds(), 3)
	selectionInvariant(t, s)
}

func TestRefreshReconcilesSelectionWithCatalog(t *testing.T) {
	s := NewSelection()
	catalog := docs(3)
	s.Refresh(catalog)

	// Drop one selected id by removing its document from the catalog.
	s.Refresh(catalog[:2])

	assert.Len(t, s.SelectedIds(), 2)
	assert.False(t, s.IsSelected(catalog[2].Id))
	selectionInvariant(t, s)
}

func TestRefreshPreservesManualClear(t *testing.T) {
	s := NewSelection()
	catalog := docs(2)
	s.Refresh(catalog)
	s.ClearAll()

	s.Refresh(catalog)

	assert.True(t, s.Empty(), "a later refresh must not clobber a manual clear")
}

func TestToggleUnknownIdIsNoOp(t *testing.T) {
	s := NewSelection()
	s.Refresh(docs(2))

	before := s.SelectedIds()
	s.Toggle(uuid.New())

	assert.Equal(t, before, s.SelectedIds())
	selectionInvariant(t, s)
}

func TestToggleFlipsMembership(t *testing.T) {
	s := NewSelection()
	catalog := docs(2)
	s.Refresh(catalog)

	s.Toggle(catalog[0].Id)
	assert.False(t, s.IsSelected(catalog[0].Id))
	assert.True(t, s.IsSelected(catalog[1].Id))

	s.Toggle(catalog[0].Id)
	assert.True(t, s.IsSelected(catalog[0].Id))
	selectionInvariant(t, s)
}

func TestSelectionInvariantUnderArbitrarySequences(t *testing.T) {
	s := NewSelection()
	first := docs(4)
	second := append(docs(2), first[1], first[3])

	steps := []func(){
		func() { s.Refresh(first) },
		func() { s.Toggle(first[0].Id) },
		func() { s.ClearAll() },
		func() { s.Toggle(first[2].Id) },
		func() { s.SelectAll() },
		func() { s.Refresh(second) },
		func() { s.Toggle(second[0].Id) },
		func() { s.Toggle(uuid.New()) },
		func() { s.Refresh(nil) },
		func() { s.SelectAll() },
	}

	for _, step := range steps {
		step()
		selectionInvariant(t, s)
	}
}
