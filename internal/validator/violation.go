package validator

import (
	"fmt"
	"strings"

	"github.com/starford/grampsxml/internal/apperr"
	"github.com/starford/grampsxml/internal/models"
)

// Code classifies a violation.
type Code string

// Violation codes.
const (
	CodeDuplicateHandle     Code = "duplicate_handle"
	CodeUnresolvedReference Code = "unresolved_reference"
	CodeWrongKindReference  Code = "wrong_kind_reference"
	CodeInvalidEnum         Code = "invalid_enum"
	CodeInvalidTimestamp    Code = "invalid_timestamp"
	CodeInvalidPriority     Code = "invalid_priority"
	CodeRequired            Code = "required"
	CodeSchema              Code = "schema"
)

// Violation is one structural or referential defect of a document. Kind,
// Handle and ID locate the offending record; Field names the attribute or
// element path within it.
type Violation struct {
	Code        Code           `json:"code"`
	Kind        models.Kind    `json:"kind,omitempty"`
	Handle      string         `json:"handle,omitempty"`
	ID          string         `json:"id,omitempty"`
	Field       string         `json:"field,omitempty"`
	Value       string         `json:"value,omitempty"`
	Reason      string         `json:"reason"`
	Occurrences []models.Entry `json:"occurrences,omitempty"`
	Line        int            `json:"line,omitempty"`
}

func (v Violation) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", v.Code)
	if v.Kind != "" {
		loc := v.Handle
		if v.ID != "" {
			loc = v.ID
		}
		fmt.Fprintf(&b, " %s %s", v.Kind, loc)
	}
	if v.Field != "" {
		fmt.Fprintf(&b, " %s", v.Field)
	}
	if v.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", v.Line)
	}
	b.WriteString(": ")
	b.WriteString(v.Reason)
	return b.String()
}

// Violations is a validation report. A non-empty report can be returned as
// an error matching apperr.ErrSchemaViolation.
type Violations []Violation

func (vs Violations) Error() string {
	switch len(vs) {
	case 0:
		return "no violations"
	case 1:
		return vs[0].String()
	default:
		return fmt.Sprintf("%s (and %d more)", vs[0].String(), len(vs)-1)
	}
}

// Is reports whether target is apperr.ErrSchemaViolation.
func (vs Violations) Is(target error) bool { return target == apperr.ErrSchemaViolation }

// Err returns vs as an error, or nil when the report is empty.
func (vs Violations) Err() error {
	if len(vs) == 0 {
		return nil
	}
	return vs
}

// ByCode returns the violations with the given code.
func (vs Violations) ByCode(code Code) Violations {
	var out Violations
	for _, v := range vs {
		if v.Code == code {
			out = append(out, v)
		}
	}
	return out
}
