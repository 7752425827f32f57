package grampsxml

import (
	"strings"

	"github.com/google/uuid"
)

// NewHandle returns a fresh record handle: an underscore followed by the 32
// hex digits of a time-ordered UUID. It panics if the system entropy source
// fails.
func NewHandle() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("grampsxml: generate handle: " + err.Error())
	}
	return "_" + strings.ReplaceAll(id.String(), "-", "")
}
