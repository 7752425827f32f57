// Package refindex maps the handles declared by a document to the records
// that declare them.
package refindex

import "github.com/starford/grampsxml/internal/models"

// Index resolves handles in constant time. The first declaration of a handle
// wins; later declarations are kept as additional occurrences. An Index is
// derived from one document and is read-only once built.
type Index struct {
	first map[string]models.Entry
	extra map[string][]models.Entry
	dups  []string
}

// Builder accumulates declarations in document order.
type Builder struct {
	ix *Index
}

// NewBuilder returns a Builder sized for about n records.
func NewBuilder(n int) *Builder {
	return &Builder{ix: &Index{first: make(map[string]models.Entry, n)}}
}

// Add records a declaration. Empty handles are not indexed.
func (b *Builder) Add(e models.Entry) {
	if e.Handle == "" {
		return
	}
	ix := b.ix
	if _, ok := ix.first[e.Handle]; !ok {
		ix.first[e.Handle] = e
		return
	}
	if ix.extra == nil {
		ix.extra = make(map[string][]models.Entry)
	}
	if _, seen := ix.extra[e.Handle]; !seen {
		ix.dups = append(ix.dups, e.Handle)
	}
	ix.extra[e.Handle] = append(ix.extra[e.Handle], e)
}

// Index returns the built index. The Builder must not be used afterwards.
func (b *Builder) Index() *Index {
	ix := b.ix
	b.ix = nil
	return ix
}

// Build indexes every record of doc. A nil doc yields an empty index.
func Build(doc *models.Document) *Index {
	if doc == nil {
		doc = &models.Document{}
	}
	entries := doc.Entries()
	b := NewBuilder(len(entries))
	for _, e := range entries {
		b.Add(e)
	}
	return b.Index()
}

// Lookup returns the kind of the record first declaring handle.
func (ix *Index) Lookup(handle string) (models.Kind, bool) {
	e, ok := ix.first[handle]
	return e.Kind, ok
}

// Entry returns the first declaration of handle.
func (ix *Index) Entry(handle string) (models.Entry, bool) {
	e, ok := ix.first[handle]
	return e, ok
}

// Occurrences returns every declaration of handle in document order.
func (ix *Index) Occurrences(handle string) []models.Entry {
	e, ok := ix.first[handle]
	if !ok {
		return nil
	}
	return append([]models.Entry{e}, ix.extra[handle]...)
}

// Duplicates returns the handles declared more than once, in the order their
// second declaration appears.
func (ix *Index) Duplicates() []string {
	return append([]string(nil), ix.dups...)
}

// Len returns the number of distinct handles.
func (ix *Index) Len() int {
	return len(ix.first)
}
