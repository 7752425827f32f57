package validator

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	xsderrors "github.com/jacoelho/xsd/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/grampsxml/internal/apperr"
	"github.com/starford/grampsxml/internal/grampsxml"
	"github.com/starford/grampsxml/internal/models"
)

func codes(vs Violations) []Code {
	out := make([]Code, len(vs))
	for i, v := range vs {
		out[i] = v.Code
	}
	return out
}

func TestConcreteScenario(t *testing.T) {
	doc, err := grampsxml.Parse([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<database xmlns="http://gramps-project.org/xml/1.7.2/">
  <people>
    <person handle="p1" id="I01"><gender>M</gender></person>
  </people>
  <families>
    <family handle="f1" id="F01">
      <father hlink="p1"/>
      <mother hlink="p2"/>
    </family>
  </families>
</database>`))
	require.NoError(t, err)
	require.Len(t, doc.People, 1)
	require.Len(t, doc.Families, 1)

	vs := Validate(doc)
	require.Len(t, vs, 1)
	assert.Equal(t, Violation{
		Code:   CodeUnresolvedReference,
		Kind:   models.KindFamily,
		Handle: "f1",
		ID:     "F01",
		Field:  "mother",
		Value:  "p2",
		Reason: "mother reference p2 does not resolve to any person",
	}, vs[0])
}

func TestDanglingReferenceDoesNotHideOthers(t *testing.T) {
	doc := &models.Document{
		People: []models.Person{
			{Handle: "p1", ID: "I01", Gender: models.GenderFemale},
			{Handle: "p2", ID: "I02", Gender: "Q"},
		},
		Families: []models.Family{{Handle: "f1", ID: "F01", Father: "ghost", Mother: "p1"}},
	}
	vs := Validate(doc)

	refs := vs.ByCode(CodeUnresolvedReference)
	require.Len(t, refs, 1)
	assert.Equal(t, "f1", refs[0].Handle)
	assert.Equal(t, "father", refs[0].Field)

	enums := vs.ByCode(CodeInvalidEnum)
	require.Len(t, enums, 1)
	assert.Equal(t, "p2", enums[0].Handle)
	assert.Len(t, vs, 2)
}

func TestDuplicateHandles(t *testing.T) {
	doc := &models.Document{
		People:   []models.Person{{Handle: "x", ID: "I01", Gender: models.GenderMale}},
		Families: []models.Family{{Handle: "x", ID: "F01"}},
	}
	vs := Validate(doc)
	require.Len(t, vs, 1)

	v := vs[0]
	assert.Equal(t, CodeDuplicateHandle, v.Code)
	assert.Equal(t, "x", v.Handle)
	assert.Equal(t, "handle x shared by person I01 and family F01", v.Reason)
	require.Len(t, v.Occurrences, 2)
	assert.Equal(t, models.KindPerson, v.Occurrences[0].Kind)
	assert.Equal(t, models.KindFamily, v.Occurrences[1].Kind)
}

func TestWrongKindReference(t *testing.T) {
	doc := &models.Document{
		Events:   []models.Event{{Handle: "e1", ID: "E01"}},
		Families: []models.Family{{Handle: "f1", Father: "e1"}},
	}
	vs := Validate(doc)
	require.Len(t, vs, 1)
	assert.Equal(t, CodeWrongKindReference, vs[0].Code)
	assert.Equal(t, "father reference e1 has kind event, want person", vs[0].Reason)
}

func TestCrossReferences(t *testing.T) {
	doc := &models.Document{
		People: []models.Person{{
			Handle:       "p1",
			Gender:       models.GenderMale,
			EventRefs:    []models.EventRef{{Handle: "e1"}, {Handle: "nope"}},
			ChildOf:      []string{"f1"},
			NoteRefs:     []string{"e1"},
			CitationRefs: []string{"c1"},
			TagRefs:      []string{"t1"},
		}},
		Families:  []models.Family{{Handle: "f1", Children: []models.ChildRef{{Handle: "p1"}, {Handle: "n1"}}}},
		Events:    []models.Event{{Handle: "e1", Place: "pl1"}},
		Places:    []models.Place{{Handle: "pl1"}},
		Sources:   []models.Source{{Handle: "s1", RepoRefs: []models.RepoRef{{Handle: "r9"}}}},
		Citations: []models.Citation{{Handle: "c1", Confidence: models.ConfidenceNormal, SourceRef: "s1"}},
		Notes:     []models.Note{{Handle: "n1"}},
		Tags:      []models.Tag{{Handle: "t1", Name: "ToDo"}},
	}
	vs := Validate(doc)

	fields := make([]string, len(vs))
	for i, v := range vs {
		fields[i] = v.Field
	}
	assert.Equal(t, []string{"eventrefs[1]", "noterefs[0]", "childrefs[1]", "reporefs[0]"}, fields)
	assert.Equal(t, []Code{
		CodeUnresolvedReference, CodeWrongKindReference, CodeWrongKindReference, CodeUnresolvedReference,
	}, codes(vs))
}

func TestEnumerationConformance(t *testing.T) {
	doc := &models.Document{
		People: []models.Person{{Handle: "p1", ID: "I01", Gender: "X"}},
		Families: []models.Family{{Handle: "f1", Children: []models.ChildRef{
			{Handle: "p1", MRel: models.ChildRefBirth, FRel: "Cloned"},
		}}},
		Citations: []models.Citation{{Handle: "c1", Confidence: "7"}},
	}
	vs := Validate(doc)
	require.Len(t, vs, 3)
	for _, v := range vs {
		assert.Equal(t, CodeInvalidEnum, v.Code)
	}
	assert.Equal(t, "gender", vs[0].Field)
	assert.Equal(t, "X", vs[0].Value)
	assert.Equal(t, `gender "X" must be one of M, F, U`, vs[0].Reason)
	assert.Equal(t, "childrefs[0].frel", vs[1].Field)
	assert.Equal(t, "confidence", vs[2].Field)
}

func TestRequiredFields(t *testing.T) {
	doc := &models.Document{
		People:       []models.Person{{ID: "I01"}},
		Families:     []models.Family{{Handle: "f1", Children: []models.ChildRef{{}}}},
		Citations:    []models.Citation{{Handle: "c1"}},
		Repositories: []models.Repository{{Handle: "r1"}},
		Tags:         []models.Tag{{Handle: "t1"}},
	}
	vs := Validate(doc)

	got := make([]string, len(vs))
	for i, v := range vs {
		assert.Equal(t, CodeRequired, v.Code, v.String())
		got[i] = string(v.Kind) + "." + v.Field
	}
	assert.Equal(t, []string{
		"person.handle",
		"person.gender",
		"family.childrefs[0].hlink",
		"citation.confidence",
		"repository.rname",
		"tag.name",
	}, got)
	assert.Equal(t, "gender cannot be blank", vs[1].Reason)
}

func TestInvalidTimestamp(t *testing.T) {
	doc, err := grampsxml.Parse([]byte(`<database><notes><note handle="n1" id="N01" change="-5"><text>x</text></note></notes></database>`))
	require.NoError(t, err)

	vs := Validate(doc)
	require.Len(t, vs, 1)
	assert.Equal(t, CodeInvalidTimestamp, vs[0].Code)
	assert.Equal(t, "change", vs[0].Field)
	assert.Equal(t, "-5", vs[0].Value)
}

func TestInvalidPriority(t *testing.T) {
	doc, err := grampsxml.Parse([]byte(`<database><tags><tag handle="t1" name="a" priority="high"/></tags></database>`))
	require.NoError(t, err)

	vs := Validate(doc)
	require.Len(t, vs, 1)
	assert.Equal(t, Violation{
		Code:   CodeInvalidPriority,
		Kind:   models.KindTag,
		Handle: "t1",
		ID:     "a",
		Field:  "priority",
		Value:  "high",
		Reason: `priority "high" must be an integer`,
	}, vs[0])

	doc.Tags[0].Priority = models.NewPriority(-3)
	assert.Empty(t, Validate(doc))
}

func TestNilDocument(t *testing.T) {
	assert.Empty(t, Validate(nil))
	assert.Empty(t, Check(nil, nil))
	assert.Empty(t, New().Validate(nil))
}

func TestCheckOrder(t *testing.T) {
	doc := &models.Document{
		People: []models.Person{
			{Handle: "x", ID: "I01", Gender: "X"},
			{Handle: "x", ID: "I02"},
		},
		Families: []models.Family{{Handle: "f1", Father: "nobody"}},
	}
	assert.Equal(t, []Code{
		CodeDuplicateHandle, CodeUnresolvedReference, CodeInvalidEnum, CodeRequired,
	}, codes(Validate(doc)))
}

func TestEmptyDocument(t *testing.T) {
	assert.Empty(t, Validate(&models.Document{}))
}

func TestViolationsError(t *testing.T) {
	var empty Violations
	assert.NoError(t, empty.Err())

	vs := Violations{
		{Code: CodeRequired, Kind: models.KindPerson, Handle: "p1", Field: "gender", Reason: "gender cannot be blank"},
		{Code: CodeSchema, Reason: "boom"},
	}
	err := vs.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrSchemaViolation))
	assert.Equal(t, "[required] person p1 gender: gender cannot be blank (and 1 more)", err.Error())
}

type fakeSchema struct {
	err  error
	seen []byte
}

func (f *fakeSchema) Validate(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.seen = data
	return f.err
}

func TestValidateBytes(t *testing.T) {
	v := New()
	assert.False(t, v.Strict())

	sample, err := os.ReadFile(filepath.Join("..", "grampsxml", "testdata", "sample.xml"))
	require.NoError(t, err)
	doc, vs, err := v.ValidateBytes(sample)
	require.NoError(t, err)
	assert.Len(t, doc.People, 3)
	assert.Empty(t, vs)

	_, _, err = v.ValidateBytes([]byte("<database><people>"))
	assert.ErrorIs(t, err, apperr.ErrMalformed)
}

func TestSchemaPass(t *testing.T) {
	schema := &fakeSchema{err: xsderrors.ValidationList{{
		Code:     "cvc-complex-type.2.4",
		Message:  "unexpected element foo",
		Path:     "/database/foo",
		Expected: []string{"people"},
		Line:     3,
	}}}
	v := New(WithSchema(schema))
	require.True(t, v.Strict())

	input := []byte("<database>\n  <people/>\n  <foo/>\n</database>")
	_, vs, err := v.ValidateBytes(input)
	require.NoError(t, err)
	assert.Equal(t, input, schema.seen)
	require.Len(t, vs, 1)
	assert.Equal(t, Violation{
		Code:   CodeSchema,
		Field:  "/database/foo",
		Reason: "unexpected element foo (expected: people)",
		Line:   3,
	}, vs[0])
}

func TestSchemaPassOnDocument(t *testing.T) {
	schema := &fakeSchema{err: errors.New("schema engine failed")}
	v := New(WithSchema(schema))

	vs := v.Validate(&models.Document{People: []models.Person{{Handle: "p1", Gender: models.GenderMale}}})
	require.Len(t, vs, 1)
	assert.Equal(t, CodeSchema, vs[0].Code)
	assert.Equal(t, "schema engine failed", vs[0].Reason)
	assert.True(t, bytes.Contains(schema.seen, []byte(`<person handle="p1"`)))
}

func TestSchemaPassClean(t *testing.T) {
	v := New(WithSchema(&fakeSchema{}))
	assert.Empty(t, v.Validate(&models.Document{}))
}

func TestLoadSchemaMissing(t *testing.T) {
	_, err := LoadSchema(filepath.Join(t.TempDir(), "missing.xsd"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
