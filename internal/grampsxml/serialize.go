package grampsxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/starford/grampsxml/internal/models"
)

const xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// Option configures a Serializer.
type Option func(*Serializer)

// WithClock sets the time source used for missing change timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Serializer) { s.now = now }
}

// WithHandleGenerator sets the function producing handles for records that
// lack one.
func WithHandleGenerator(gen func() string) Option {
	return func(s *Serializer) { s.newHandle = gen }
}

// WithSchemaVersion sets the version written for documents without one.
func WithSchemaVersion(version string) Option {
	return func(s *Serializer) { s.version = version }
}

// Serializer writes documents as Gramps XML. Records missing a handle,
// change time or gender receive defaults on output; the input document is
// never modified.
type Serializer struct {
	now       func() time.Time
	newHandle func() string
	version   string
}

// NewSerializer returns a Serializer using the wall clock and random handles
// unless overridden.
func NewSerializer(opts ...Option) *Serializer {
	s := &Serializer{
		now:       time.Now,
		newHandle: NewHandle,
		version:   models.DefaultSchemaVersion,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultSerializer = NewSerializer()

// Serialize encodes doc with the default Serializer.
func Serialize(doc *models.Document) ([]byte, error) {
	return defaultSerializer.Serialize(doc)
}

// Serialize encodes doc as an indented Gramps XML document.
func (s *Serializer) Serialize(doc *models.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.Write(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes doc to w.
func (s *Serializer) Write(w io.Writer, doc *models.Document) error {
	norm := s.Normalize(doc)

	if _, err := io.WriteString(w, xmlDeclaration+doctype(norm.SchemaVersion)); err != nil {
		return fmt.Errorf("grampsxml: write prolog: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(fromModel(norm)); err != nil {
		return fmt.Errorf("grampsxml: encode: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("grampsxml: write: %w", err)
	}
	return nil
}

// Normalize returns a copy of doc with output defaults applied: a generated
// handle where missing, the current time where change is unset or invalid,
// gender U where absent and the serializer's schema version. All defaulted
// timestamps in one call share a single clock reading.
func (s *Serializer) Normalize(doc *models.Document) *models.Document {
	if doc == nil {
		doc = &models.Document{}
	}
	out := *doc
	if out.SchemaVersion == "" {
		out.SchemaVersion = s.version
	}
	if r := doc.Header.Researcher; r != nil {
		researcher := *r
		out.Header.Researcher = &researcher
	}

	now := models.TimestampOf(s.now())
	handle := func(h string) string {
		if h == "" {
			return s.newHandle()
		}
		return h
	}
	change := func(t models.Timestamp) models.Timestamp {
		if t.IsSet() {
			return t
		}
		return now
	}

	out.People = cloneSlice(doc.People)
	for i := range out.People {
		p := &out.People[i]
		p.Handle = handle(p.Handle)
		p.Change = change(p.Change)
		if p.Gender == "" {
			p.Gender = models.GenderUnknown
		}
	}
	out.Families = cloneSlice(doc.Families)
	for i := range out.Families {
		f := &out.Families[i]
		f.Handle = handle(f.Handle)
		f.Change = change(f.Change)
	}
	out.Events = cloneSlice(doc.Events)
	for i := range out.Events {
		e := &out.Events[i]
		e.Handle = handle(e.Handle)
		e.Change = change(e.Change)
	}
	out.Places = cloneSlice(doc.Places)
	for i := range out.Places {
		p := &out.Places[i]
		p.Handle = handle(p.Handle)
		p.Change = change(p.Change)
	}
	out.Sources = cloneSlice(doc.Sources)
	for i := range out.Sources {
		src := &out.Sources[i]
		src.Handle = handle(src.Handle)
		src.Change = change(src.Change)
	}
	out.Citations = cloneSlice(doc.Citations)
	for i := range out.Citations {
		c := &out.Citations[i]
		c.Handle = handle(c.Handle)
		c.Change = change(c.Change)
	}
	out.Repositories = cloneSlice(doc.Repositories)
	for i := range out.Repositories {
		r := &out.Repositories[i]
		r.Handle = handle(r.Handle)
		r.Change = change(r.Change)
	}
	out.Notes = cloneSlice(doc.Notes)
	for i := range out.Notes {
		n := &out.Notes[i]
		n.Handle = handle(n.Handle)
		n.Change = change(n.Change)
	}
	out.Tags = cloneSlice(doc.Tags)
	for i := range out.Tags {
		t := &out.Tags[i]
		t.Handle = handle(t.Handle)
		t.Change = change(t.Change)
	}
	return &out
}

func cloneSlice[T any](in []T) []T {
	if len(in) == 0 {
		return nil
	}
	return append([]T(nil), in...)
}

func doctype(version string) string {
	return fmt.Sprintf("<!DOCTYPE database PUBLIC \"-//Gramps//DTD Gramps XML %s//EN\"\n\"http://gramps-project.org/xml/%s/grampsxml.dtd\">\n",
		version, version)
}
