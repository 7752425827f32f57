package validator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/grampsxml/internal/models"
	"github.com/starford/grampsxml/internal/refindex"
)

var (
	genderRule     = validation.In(anyOf(models.Genders)...).Error("must be one of " + joinValues(models.Genders))
	confidenceRule = validation.In(anyOf(models.Confidences)...).Error("must be one of " + joinValues(models.Confidences))
	childRefRule   = validation.In(anyOf(models.ChildRefTypes)...).Error("must be one of " + joinValues(models.ChildRefTypes))

	errInvalidTimestamp = validation.NewError("validation_timestamp_invalid", "must be a non-negative number of seconds")
	timestampRule       = validation.By(func(value interface{}) error {
		if ts, ok := value.(models.Timestamp); ok && ts.Invalid() != "" {
			return errInvalidTimestamp
		}
		return nil
	})

	errInvalidPriority = validation.NewError("validation_priority_invalid", "must be an integer")
	priorityRule       = validation.By(func(value interface{}) error {
		if p, ok := value.(models.Priority); ok && p.Invalid() != "" {
			return errInvalidPriority
		}
		return nil
	})
)

// checker accumulates violations per check so the report lists them in check
// order while records are visited only once.
type checker struct {
	ix       *refindex.Index
	unique   Violations
	refs     Violations
	conform  Violations
	required Violations
}

func (c *checker) report() Violations {
	n := len(c.unique) + len(c.refs) + len(c.conform) + len(c.required)
	if n == 0 {
		return nil
	}
	out := make(Violations, 0, n)
	out = append(out, c.unique...)
	out = append(out, c.refs...)
	out = append(out, c.conform...)
	return append(out, c.required...)
}

func (c *checker) uniqueness() {
	for _, handle := range c.ix.Duplicates() {
		occ := c.ix.Occurrences(handle)
		labels := make([]string, len(occ))
		for i, e := range occ {
			labels[i] = e.Label()
		}
		first := occ[0]
		c.unique = append(c.unique, Violation{
			Code:        CodeDuplicateHandle,
			Kind:        first.Kind,
			Handle:      handle,
			ID:          first.ID,
			Field:       "handle",
			Value:       handle,
			Reason:      fmt.Sprintf("handle %s shared by %s", handle, joinLabels(labels)),
			Occurrences: occ,
		})
	}
}

// ref checks that a non-empty reference resolves to a record of kind want.
func (c *checker) ref(owner models.Entry, field, handle string, want models.Kind) {
	if handle == "" {
		return
	}
	got, ok := c.ix.Lookup(handle)
	switch {
	case !ok:
		c.refs = append(c.refs, violation(owner, CodeUnresolvedReference, field, handle,
			fmt.Sprintf("%s reference %s does not resolve to any %s", field, handle, want)))
	case got != want:
		c.refs = append(c.refs, violation(owner, CodeWrongKindReference, field, handle,
			fmt.Sprintf("%s reference %s has kind %s, want %s", field, handle, got, want)))
	}
}

func (c *checker) refList(owner models.Entry, field string, handles []string, want models.Kind) {
	for i, h := range handles {
		c.ref(owner, indexed(field, i), h, want)
	}
}

// conforms applies value rules and files failures under the conformance check.
func (c *checker) conforms(owner models.Entry, field, raw string, value any, rules ...validation.Rule) {
	if err := validation.Validate(value, rules...); err != nil {
		c.conform = append(c.conform, ruleViolation(owner, field, raw, err))
	}
}

func (c *checker) require(owner models.Entry, field string, value any) {
	if err := validation.Validate(value, validation.Required); err != nil {
		c.required = append(c.required, ruleViolation(owner, field, "", err))
	}
}

func (c *checker) requireList(owner models.Entry, field string, handles []string) {
	for i, h := range handles {
		c.require(owner, indexed(field, i), h)
	}
}

// common covers the fields every record kind carries.
func (c *checker) common(owner models.Entry, change models.Timestamp) {
	c.conforms(owner, "change", change.Invalid(), change, timestampRule)
	c.require(owner, "handle", owner.Handle)
}

func (c *checker) eventRefs(owner models.Entry, refs []models.EventRef) {
	for i, r := range refs {
		field := indexed("eventrefs", i)
		c.ref(owner, field, r.Handle, models.KindEvent)
		c.require(owner, field+".hlink", r.Handle)
	}
}

func (c *checker) person(i int, p *models.Person) {
	owner := models.Entry{Kind: models.KindPerson, Handle: p.Handle, ID: p.ID, Position: i}
	c.eventRefs(owner, p.EventRefs)
	c.refList(owner, "childof", p.ChildOf, models.KindFamily)
	c.refList(owner, "parentin", p.ParentIn, models.KindFamily)
	c.refList(owner, "noterefs", p.NoteRefs, models.KindNote)
	c.refList(owner, "citationrefs", p.CitationRefs, models.KindCitation)
	c.refList(owner, "tagrefs", p.TagRefs, models.KindTag)

	c.conforms(owner, "gender", string(p.Gender), p.Gender, genderRule)
	c.common(owner, p.Change)
	c.require(owner, "gender", p.Gender)
	c.requireList(owner, "childof", p.ChildOf)
	c.requireList(owner, "parentin", p.ParentIn)
	c.requireList(owner, "noterefs", p.NoteRefs)
	c.requireList(owner, "citationrefs", p.CitationRefs)
	c.requireList(owner, "tagrefs", p.TagRefs)
}

func (c *checker) family(i int, f *models.Family) {
	owner := models.Entry{Kind: models.KindFamily, Handle: f.Handle, ID: f.ID, Position: i}
	c.ref(owner, "father", f.Father, models.KindPerson)
	c.ref(owner, "mother", f.Mother, models.KindPerson)
	c.eventRefs(owner, f.EventRefs)
	for j, ch := range f.Children {
		field := indexed("childrefs", j)
		c.ref(owner, field, ch.Handle, models.KindPerson)
		c.conforms(owner, field+".mrel", string(ch.MRel), ch.MRel, childRefRule)
		c.conforms(owner, field+".frel", string(ch.FRel), ch.FRel, childRefRule)
		c.require(owner, field+".hlink", ch.Handle)
	}
	c.refList(owner, "noterefs", f.NoteRefs, models.KindNote)
	c.refList(owner, "citationrefs", f.CitationRefs, models.KindCitation)
	c.refList(owner, "tagrefs", f.TagRefs, models.KindTag)

	c.common(owner, f.Change)
	c.requireList(owner, "noterefs", f.NoteRefs)
	c.requireList(owner, "citationrefs", f.CitationRefs)
	c.requireList(owner, "tagrefs", f.TagRefs)
}

func (c *checker) event(i int, e *models.Event) {
	owner := models.Entry{Kind: models.KindEvent, Handle: e.Handle, ID: e.ID, Position: i}
	c.ref(owner, "place", e.Place, models.KindPlace)
	c.refList(owner, "noterefs", e.NoteRefs, models.KindNote)
	c.refList(owner, "citationrefs", e.CitationRefs, models.KindCitation)

	c.common(owner, e.Change)
	c.requireList(owner, "noterefs", e.NoteRefs)
	c.requireList(owner, "citationrefs", e.CitationRefs)
}

func (c *checker) place(i int, p *models.Place) {
	owner := models.Entry{Kind: models.KindPlace, Handle: p.Handle, ID: p.ID, Position: i}
	c.common(owner, p.Change)
}

func (c *checker) source(i int, s *models.Source) {
	owner := models.Entry{Kind: models.KindSource, Handle: s.Handle, ID: s.ID, Position: i}
	c.refList(owner, "noterefs", s.NoteRefs, models.KindNote)
	for j, r := range s.RepoRefs {
		c.ref(owner, indexed("reporefs", j), r.Handle, models.KindRepository)
	}

	c.common(owner, s.Change)
	c.requireList(owner, "noterefs", s.NoteRefs)
	for j, r := range s.RepoRefs {
		c.require(owner, indexed("reporefs", j)+".hlink", r.Handle)
	}
}

func (c *checker) citation(i int, ct *models.Citation) {
	owner := models.Entry{Kind: models.KindCitation, Handle: ct.Handle, ID: ct.ID, Position: i}
	c.refList(owner, "noterefs", ct.NoteRefs, models.KindNote)
	c.ref(owner, "sourceref", ct.SourceRef, models.KindSource)

	c.conforms(owner, "confidence", string(ct.Confidence), ct.Confidence, confidenceRule)
	c.common(owner, ct.Change)
	c.require(owner, "confidence", ct.Confidence)
	c.requireList(owner, "noterefs", ct.NoteRefs)
}

func (c *checker) repository(i int, r *models.Repository) {
	owner := models.Entry{Kind: models.KindRepository, Handle: r.Handle, ID: r.ID, Position: i}
	c.common(owner, r.Change)
	c.require(owner, "rname", r.Name)
}

func (c *checker) note(i int, n *models.Note) {
	owner := models.Entry{Kind: models.KindNote, Handle: n.Handle, ID: n.ID, Position: i}
	c.common(owner, n.Change)
}

func (c *checker) tag(i int, t *models.Tag) {
	owner := models.Entry{Kind: models.KindTag, Handle: t.Handle, ID: t.Name, Position: i}
	c.conforms(owner, "priority", t.Priority.Invalid(), t.Priority, priorityRule)
	c.common(owner, t.Change)
	c.require(owner, "name", t.Name)
}

func violation(owner models.Entry, code Code, field, value, reason string) Violation {
	return Violation{
		Code:   code,
		Kind:   owner.Kind,
		Handle: owner.Handle,
		ID:     owner.ID,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// ruleViolation converts an ozzo rule error into a Violation, classifying it
// by the rule's error code.
func ruleViolation(owner models.Entry, field, raw string, err error) Violation {
	code, msg := CodeSchema, err.Error()
	var verr validation.Error
	if errors.As(err, &verr) {
		msg = verr.Message()
		switch verr.Code() {
		case validation.ErrRequired.Code():
			code = CodeRequired
		case validation.ErrInInvalid.Code():
			code = CodeInvalidEnum
		case errInvalidTimestamp.Code():
			code = CodeInvalidTimestamp
		case errInvalidPriority.Code():
			code = CodeInvalidPriority
		}
	}
	reason := field + " " + msg
	if raw != "" {
		reason = field + " " + strconv.Quote(raw) + " " + msg
	}
	return violation(owner, code, field, raw, reason)
}

func indexed(field string, i int) string {
	return field + "[" + strconv.Itoa(i) + "]"
}

func anyOf[T any](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

func joinLabels(labels []string) string {
	if len(labels) <= 2 {
		return strings.Join(labels, " and ")
	}
	return strings.Join(labels[:len(labels)-1], ", ") + " and " + labels[len(labels)-1]
}
