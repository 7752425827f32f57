package models

import (
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
)

// Priority is a tag's sort priority. A literal that is not an integer is
// kept verbatim so it can be reported and written back unchanged.
type Priority struct {
	value   int
	invalid string
}

// NewPriority returns a valid priority.
func NewPriority(n int) Priority {
	return Priority{value: n}
}

// ParsePriority parses a priority attribute. An empty string is priority 0.
func ParsePriority(s string) Priority {
	if s == "" {
		return Priority{}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Priority{invalid: s}
	}
	return Priority{value: n}
}

// Int returns the numeric priority; it is 0 when the literal was invalid.
func (p Priority) Int() int {
	return p.value
}

// Invalid returns the unparsable literal the priority was read from, if any.
func (p Priority) Invalid() string {
	return p.invalid
}

// String returns the wire form.
func (p Priority) String() string {
	if p.invalid != "" {
		return p.invalid
	}
	return strconv.Itoa(p.value)
}

// MarshalJSON encodes a valid priority as a number and an invalid one as its
// literal string.
func (p Priority) MarshalJSON() ([]byte, error) {
	if p.invalid != "" {
		return json.Marshal(p.invalid)
	}
	return []byte(strconv.Itoa(p.value)), nil
}

// UnmarshalJSON accepts a number, a string or null.
func (p *Priority) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*p = Priority{}
		return nil
	}
	if len(s) > 0 && s[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("priority: %w", err)
		}
		*p = ParsePriority(raw)
		return nil
	}
	*p = ParsePriority(s)
	return nil
}
