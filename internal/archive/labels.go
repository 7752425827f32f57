package archive

import (
	"strings"
	"unicode/utf8"

	"github.com/starford/grampsxml/internal/catalog"
	"github.com/starford/grampsxml/internal/models"
)

const maxLabel = 80

// entities lists the catalog rows of doc in section order.
func entities(doc *models.Document) []catalog.EntityRow {
	names := make(map[string]string, len(doc.People))
	for i := range doc.People {
		if n, ok := doc.People[i].Primary(); ok {
			names[doc.People[i].Handle] = join(n.First, n.Surname)
		}
	}
	entries := doc.Entries()
	out := make([]catalog.EntityRow, 0, len(entries))
	for _, e := range entries {
		if e.Handle == "" {
			continue
		}
		out = append(out, catalog.EntityRow{
			Handle: e.Handle,
			Kind:   e.Kind,
			ID:     e.ID,
			Label:  label(doc, names, e),
		})
	}
	return out
}

// label returns the searchable text of the entity behind e.
func label(doc *models.Document, names map[string]string, e models.Entry) string {
	var s string
	switch e.Kind {
	case models.KindPerson:
		p := &doc.People[e.Position]
		if n, ok := p.Primary(); ok {
			s = join(n.Title, n.First, n.Surname, n.Suffix)
		}
	case models.KindFamily:
		f := &doc.Families[e.Position]
		s = join(personName(names, f.Father), "&", personName(names, f.Mother))
		if f.Father == "" || f.Mother == "" {
			s = strings.Trim(s, " &")
		}
	case models.KindEvent:
		ev := &doc.Events[e.Position]
		s = join(ev.Type, ev.Description)
	case models.KindPlace:
		s = doc.Places[e.Position].Title
	case models.KindSource:
		src := &doc.Sources[e.Position]
		s = join(src.Title, src.Author)
	case models.KindCitation:
		s = doc.Citations[e.Position].Page
	case models.KindRepository:
		s = doc.Repositories[e.Position].Name
	case models.KindNote:
		s = doc.Notes[e.Position].Text
	case models.KindTag:
		s = doc.Tags[e.Position].Name
	}
	s = truncate(strings.Join(strings.Fields(s), " "))
	if s == "" {
		return e.Label()
	}
	return s
}

func personName(names map[string]string, handle string) string {
	if n, ok := names[handle]; ok && n != "" {
		return n
	}
	return handle
}

func join(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p)
	}
	return b.String()
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxLabel {
		return s
	}
	r := []rune(s)
	return string(r[:maxLabel-1]) + "…"
}
