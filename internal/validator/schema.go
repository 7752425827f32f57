package validator

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/jacoelho/xsd"
	xsderrors "github.com/jacoelho/xsd/errors"

	"github.com/starford/grampsxml/internal/apperr"
)

// LoadSchema compiles the XSD at path. A missing file fails with an error
// matching apperr.ErrNotFound.
func LoadSchema(path string) (SchemaValidator, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: schema %s", apperr.ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: schema %s: %w", apperr.ErrIO, path, err)
	}
	s, err := xsd.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("validator: load schema: %w", err)
	}
	return s, nil
}

// LoadSchemaFS compiles the XSD at location within fsys.
func LoadSchemaFS(fsys fs.FS, location string) (SchemaValidator, error) {
	s, err := xsd.Load(fsys, location)
	if err != nil {
		return nil, fmt.Errorf("validator: load schema: %w", err)
	}
	return s, nil
}

func (v *Validator) schemaPass(r io.Reader) Violations {
	err := v.schema.Validate(r)
	if err == nil {
		return nil
	}
	list, ok := xsderrors.AsValidations(err)
	if !ok {
		return Violations{{Code: CodeSchema, Reason: err.Error()}}
	}
	out := make(Violations, 0, len(list))
	for _, e := range list {
		reason := e.Message
		if len(e.Expected) > 0 {
			reason += " (expected: " + strings.Join(e.Expected, ", ") + ")"
		}
		out = append(out, Violation{
			Code:   CodeSchema,
			Field:  e.Path,
			Value:  e.Actual,
			Reason: reason,
			Line:   e.Line,
		})
	}
	return out
}
