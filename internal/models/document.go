// Package models defines the Gramps XML document model.
package models

// DefaultSchemaVersion is the Gramps XML schema version written when a
// document does not carry one.
const DefaultSchemaVersion = "1.7.2"

// Document is the complete in-memory representation of one Gramps XML file.
// Collections preserve document order.
type Document struct {
	SchemaVersion string       `json:"schema_version,omitempty"`
	Header        Header       `json:"header"`
	People        []Person     `json:"people,omitempty"`
	Families      []Family     `json:"families,omitempty"`
	Events        []Event      `json:"events,omitempty"`
	Places        []Place      `json:"places,omitempty"`
	Sources       []Source     `json:"sources,omitempty"`
	Citations     []Citation   `json:"citations,omitempty"`
	Repositories  []Repository `json:"repositories,omitempty"`
	Notes         []Note       `json:"notes,omitempty"`
	Tags          []Tag        `json:"tags,omitempty"`
}

// Header is the document singleton describing its origin.
type Header struct {
	Created    Created     `json:"created"`
	Researcher *Researcher `json:"researcher,omitempty"`
	MediaPath  string      `json:"mediapath,omitempty"`
}

// IsZero reports whether the header carries no information.
func (h Header) IsZero() bool {
	return h.Created == (Created{}) && h.Researcher == nil && h.MediaPath == ""
}

// Created holds the creation date and the version of the exporting program.
type Created struct {
	Date    string `json:"date,omitempty"`
	Version string `json:"version,omitempty"`
}

// Researcher is the optional contact block of the header.
type Researcher struct {
	Name     string `json:"resname,omitempty"`
	Address  string `json:"resaddr,omitempty"`
	Locality string `json:"reslocality,omitempty"`
	City     string `json:"rescity,omitempty"`
	State    string `json:"resstate,omitempty"`
	Country  string `json:"rescountry,omitempty"`
	Postal   string `json:"respostal,omitempty"`
	Phone    string `json:"resphone,omitempty"`
	Email    string `json:"resemail,omitempty"`
}

// Counts returns the number of entities per kind.
func (d *Document) Counts() map[Kind]int {
	return map[Kind]int{
		KindPerson:     len(d.People),
		KindFamily:     len(d.Families),
		KindEvent:      len(d.Events),
		KindPlace:      len(d.Places),
		KindSource:     len(d.Sources),
		KindCitation:   len(d.Citations),
		KindRepository: len(d.Repositories),
		KindNote:       len(d.Notes),
		KindTag:        len(d.Tags),
	}
}

// Primary returns the primary (first) name of the person, or false when the
// person has no names.
func (p *Person) Primary() (Name, bool) {
	if len(p.Names) == 0 {
		return Name{}, false
	}
	return p.Names[0], true
}

// Entry locates one record of the document: its kind, handle, Gramps ID and
// position within its section. Tags have no ID and use their name instead.
type Entry struct {
	Kind     Kind   `json:"kind"`
	Handle   string `json:"handle"`
	ID       string `json:"id,omitempty"`
	Position int    `json:"position"`
}

// Entries lists every record of the document in section order.
func (d *Document) Entries() []Entry {
	var out []Entry
	add := func(kind Kind, i int, handle, id string) {
		out = append(out, Entry{Kind: kind, Handle: handle, ID: id, Position: i})
	}
	for i, r := range d.People {
		add(KindPerson, i, r.Handle, r.ID)
	}
	for i, r := range d.Families {
		add(KindFamily, i, r.Handle, r.ID)
	}
	for i, r := range d.Events {
		add(KindEvent, i, r.Handle, r.ID)
	}
	for i, r := range d.Places {
		add(KindPlace, i, r.Handle, r.ID)
	}
	for i, r := range d.Sources {
		add(KindSource, i, r.Handle, r.ID)
	}
	for i, r := range d.Citations {
		add(KindCitation, i, r.Handle, r.ID)
	}
	for i, r := range d.Repositories {
		add(KindRepository, i, r.Handle, r.ID)
	}
	for i, r := range d.Notes {
		add(KindNote, i, r.Handle, r.ID)
	}
	for i, r := range d.Tags {
		add(KindTag, i, r.Handle, r.Name)
	}
	return out
}

// Label returns a short human-readable description of the entry: the ID when
// present, otherwise the handle.
func (e Entry) Label() string {
	if e.ID != "" {
		return string(e.Kind) + " " + e.ID
	}
	return string(e.Kind) + " " + e.Handle
}
