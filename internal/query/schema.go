package query

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the stored type of a document field.
type Kind int

const (
	String Kind = iota
	Number
	Bool
	Date
	StringArray
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Bool:
		return "boolean"
	case Date:
		return "date"
	case StringArray:
		return "string array"
	default:
		return "string"
	}
}

// Schema maps field paths to their kind. Fields not listed are strings.
type Schema map[string]Kind

// Kind returns the kind of field.
func (s Schema) Kind(field string) Kind {
	return s[field]
}

// Cast converts a raw query value to the Go value stored for field. Array
// fields compare element-wise, so their operands are single strings.
func (s Schema) Cast(field, raw string) (any, error) {
	switch s.Kind(field) {
	case Number:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, inputErrorf("field %q expects a number, got %q", field, raw)
		}
		return n, nil
	case Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, inputErrorf("field %q expects a boolean, got %q", field, raw)
		}
		return b, nil
	case Date:
		t, err := parseDate(strings.TrimSpace(raw))
		if err != nil {
			return nil, inputErrorf("field %q expects a date, got %q", field, raw)
		}
		return t, nil
	default:
		return raw, nil
	}
}

// CastAll casts every operand of c.
func (s Schema) CastAll(field string, c Condition) ([]any, error) {
	out := make([]any, 0, len(c.Values))
	for _, raw := range c.Values {
		v, err := s.Cast(field, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, strconv.ErrSyntax
}
