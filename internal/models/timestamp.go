package models

import (
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// Timestamp is a last-modified time in seconds since the epoch. The zero value
// is "unset", which is distinct from an explicit 0.
type Timestamp struct {
	seconds int64
	set     bool
	invalid string
}

// NewTimestamp returns a set timestamp. Negative values are kept as invalid.
func NewTimestamp(seconds int64) Timestamp {
	if seconds < 0 {
		return Timestamp{invalid: strconv.FormatInt(seconds, 10)}
	}
	return Timestamp{seconds: seconds, set: true}
}

// TimestampOf returns the timestamp of t truncated to seconds.
func TimestampOf(t time.Time) Timestamp {
	return NewTimestamp(t.Unix())
}

// ParseTimestamp parses a change attribute. An empty string yields an unset
// timestamp; anything that is not a non-negative integer is retained verbatim
// and reported by Invalid.
func ParseTimestamp(s string) Timestamp {
	if s == "" {
		return Timestamp{}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return Timestamp{invalid: s}
	}
	return Timestamp{seconds: n, set: true}
}

// Unix returns the seconds value and whether the timestamp is set.
func (t Timestamp) Unix() (int64, bool) {
	return t.seconds, t.set
}

// IsSet reports whether the timestamp holds a valid value.
func (t Timestamp) IsSet() bool {
	return t.set
}

// Invalid returns the unparsable literal the timestamp was read from, if any.
func (t Timestamp) Invalid() string {
	return t.invalid
}

// String returns the wire form: seconds when set, the invalid literal, or "".
func (t Timestamp) String() string {
	if t.set {
		return strconv.FormatInt(t.seconds, 10)
	}
	return t.invalid
}

// MarshalJSON encodes a set timestamp as a number, an invalid one as its
// literal string and an unset one as null.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	switch {
	case t.set:
		return []byte(strconv.FormatInt(t.seconds, 10)), nil
	case t.invalid != "":
		return json.Marshal(t.invalid)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a number, a numeric string or null.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*t = Timestamp{}
		return nil
	}
	if len(s) > 0 && s[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		*t = ParseTimestamp(raw)
		return nil
	}
	*t = ParseTimestamp(s)
	return nil
}
