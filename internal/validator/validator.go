// Package validator checks Gramps XML documents for structural and
// referential defects.
//
// Checks run in a fixed order and all of them run: handle uniqueness,
// referential integrity, value conformance (enumerations and timestamps) and
// required fields. Defects are reported as Violations, never as failures.
// An optional schema pass validates the XML text against an external schema
// definition on top of the structural checks.
package validator

import (
	"bytes"
	"io"

	"github.com/starford/grampsxml/internal/grampsxml"
	"github.com/starford/grampsxml/internal/models"
	"github.com/starford/grampsxml/internal/refindex"
)

// SchemaValidator validates raw XML against a formal schema definition.
// *xsd.Schema satisfies it.
type SchemaValidator interface {
	Validate(r io.Reader) error
}

// Option configures a Validator.
type Option func(*Validator)

// WithSchema enables the schema pass. A nil schema leaves it disabled.
func WithSchema(s SchemaValidator) Option {
	return func(v *Validator) { v.schema = s }
}

// WithSerializer sets the serializer used to render documents for the schema
// pass.
func WithSerializer(s *grampsxml.Serializer) Option {
	return func(v *Validator) { v.serializer = s }
}

// Validator runs the structural checks and, when configured, the schema pass.
// It holds no per-document state and is safe for concurrent use.
type Validator struct {
	schema     SchemaValidator
	serializer *grampsxml.Serializer
}

// New returns a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	if v.serializer == nil {
		v.serializer = grampsxml.NewSerializer()
	}
	return v
}

// Strict reports whether the schema pass is enabled.
func (v *Validator) Strict() bool {
	return v.schema != nil
}

// Validate checks doc. With a schema configured the document is also rendered
// and validated against it.
func (v *Validator) Validate(doc *models.Document) Violations {
	out := Validate(doc)
	if v.schema == nil {
		return out
	}
	data, err := v.serializer.Serialize(doc)
	if err != nil {
		return append(out, Violation{Code: CodeSchema, Reason: err.Error()})
	}
	return append(out, v.schemaPass(bytes.NewReader(data))...)
}

// ValidateBytes parses and checks raw XML. Malformed input fails with a
// *grampsxml.ParseError; every other defect is reported as a Violation.
func (v *Validator) ValidateBytes(data []byte) (*models.Document, Violations, error) {
	doc, ix, err := grampsxml.ParseWithIndex(data)
	if err != nil {
		return nil, nil, err
	}
	out := Check(doc, ix)
	if v.schema != nil {
		out = append(out, v.schemaPass(bytes.NewReader(data))...)
	}
	return doc, out, nil
}

// Validate runs the structural checks on doc. A nil doc is treated as empty.
func Validate(doc *models.Document) Violations {
	return Check(doc, refindex.Build(doc))
}

// Check runs the structural checks on doc using a prebuilt index of it.
func Check(doc *models.Document, ix *refindex.Index) Violations {
	if doc == nil {
		doc = &models.Document{}
	}
	if ix == nil {
		ix = refindex.Build(doc)
	}
	c := &checker{ix: ix}
	c.uniqueness()
	for i := range doc.People {
		c.person(i, &doc.People[i])
	}
	for i := range doc.Families {
		c.family(i, &doc.Families[i])
	}
	for i := range doc.Events {
		c.event(i, &doc.Events[i])
	}
	for i := range doc.Places {
		c.place(i, &doc.Places[i])
	}
	for i := range doc.Sources {
		c.source(i, &doc.Sources[i])
	}
	for i := range doc.Citations {
		c.citation(i, &doc.Citations[i])
	}
	for i := range doc.Repositories {
		c.repository(i, &doc.Repositories[i])
	}
	for i := range doc.Notes {
		c.note(i, &doc.Notes[i])
	}
	for i := range doc.Tags {
		c.tag(i, &doc.Tags[i])
	}
	return c.report()
}
