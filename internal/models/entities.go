package models

// Person is a <person> record.
type Person struct {
	ID           string     `json:"id,omitempty"`
	Handle       string     `json:"handle"`
	Change       Timestamp  `json:"change"`
	Private      bool       `json:"priv,omitempty"`
	Gender       Gender     `json:"gender"`
	Names        []Name     `json:"names,omitempty"`
	EventRefs    []EventRef `json:"eventrefs,omitempty"`
	ChildOf      []string   `json:"childof,omitempty"`
	ParentIn     []string   `json:"parentin,omitempty"`
	NoteRefs     []string   `json:"noterefs,omitempty"`
	CitationRefs []string   `json:"citationrefs,omitempty"`
	TagRefs      []string   `json:"tagrefs,omitempty"`
}

// Name is one entry of a person's name list. The first entry is primary.
type Name struct {
	Type    string `json:"type,omitempty"`
	First   string `json:"first,omitempty"`
	Surname string `json:"surname,omitempty"`
	Suffix  string `json:"suffix,omitempty"`
	Title   string `json:"title,omitempty"`
}

// EventRef links a person or family to an event.
type EventRef struct {
	Handle string `json:"hlink"`
	Role   string `json:"role,omitempty"`
}

// Family is a <family> record.
type Family struct {
	ID           string     `json:"id,omitempty"`
	Handle       string     `json:"handle"`
	Change       Timestamp  `json:"change"`
	Private      bool       `json:"priv,omitempty"`
	Relationship string     `json:"rel,omitempty"`
	Father       string     `json:"father,omitempty"`
	Mother       string     `json:"mother,omitempty"`
	EventRefs    []EventRef `json:"eventrefs,omitempty"`
	Children     []ChildRef `json:"childrefs,omitempty"`
	NoteRefs     []string   `json:"noterefs,omitempty"`
	CitationRefs []string   `json:"citationrefs,omitempty"`
	TagRefs      []string   `json:"tagrefs,omitempty"`
}

// ChildRef links a family to one of its children. Empty relationship tags
// mean the schema default (Birth).
type ChildRef struct {
	Handle string       `json:"hlink"`
	MRel   ChildRefType `json:"mrel,omitempty"`
	FRel   ChildRefType `json:"frel,omitempty"`
}

// Event is an <event> record.
type Event struct {
	ID           string    `json:"id,omitempty"`
	Handle       string    `json:"handle"`
	Change       Timestamp `json:"change"`
	Private      bool      `json:"priv,omitempty"`
	Type         string    `json:"type,omitempty"`
	Date         string    `json:"dateval,omitempty"`
	Place        string    `json:"place,omitempty"`
	Description  string    `json:"description,omitempty"`
	NoteRefs     []string  `json:"noterefs,omitempty"`
	CitationRefs []string  `json:"citationrefs,omitempty"`
}

// Place is a <placeobj> record.
type Place struct {
	ID      string    `json:"id,omitempty"`
	Handle  string    `json:"handle"`
	Change  Timestamp `json:"change"`
	Private bool      `json:"priv,omitempty"`
	Type    string    `json:"type,omitempty"`
	Title   string    `json:"ptitle,omitempty"`
}

// Source is a <source> record.
type Source struct {
	ID       string    `json:"id,omitempty"`
	Handle   string    `json:"handle"`
	Change   Timestamp `json:"change"`
	Private  bool      `json:"priv,omitempty"`
	Title    string    `json:"stitle,omitempty"`
	Author   string    `json:"sauthor,omitempty"`
	NoteRefs []string  `json:"noterefs,omitempty"`
	RepoRefs []RepoRef `json:"reporefs,omitempty"`
}

// RepoRef links a source to the repository holding it.
type RepoRef struct {
	Handle string `json:"hlink"`
	Medium string `json:"medium,omitempty"`
}

// Citation is a <citation> record.
type Citation struct {
	ID         string     `json:"id,omitempty"`
	Handle     string     `json:"handle"`
	Change     Timestamp  `json:"change"`
	Private    bool       `json:"priv,omitempty"`
	Date       string     `json:"dateval,omitempty"`
	Page       string     `json:"page,omitempty"`
	Confidence Confidence `json:"confidence"`
	NoteRefs   []string   `json:"noterefs,omitempty"`
	SourceRef  string     `json:"sourceref,omitempty"`
}

// Repository is a <repository> record.
type Repository struct {
	ID      string    `json:"id,omitempty"`
	Handle  string    `json:"handle"`
	Change  Timestamp `json:"change"`
	Private bool      `json:"priv,omitempty"`
	Name    string    `json:"rname,omitempty"`
	Type    string    `json:"type,omitempty"`
}

// Note is a <note> record.
type Note struct {
	ID      string    `json:"id,omitempty"`
	Handle  string    `json:"handle"`
	Change  Timestamp `json:"change"`
	Private bool      `json:"priv,omitempty"`
	Format  string    `json:"format,omitempty"`
	Type    string    `json:"type,omitempty"`
	Text    string    `json:"text,omitempty"`
}

// Tag is a <tag> record. Tags have no separate identifier.
type Tag struct {
	Handle   string    `json:"handle"`
	Name     string    `json:"name"`
	Color    string    `json:"color,omitempty"`
	Priority Priority  `json:"priority"`
	Change   Timestamp `json:"change"`
}
