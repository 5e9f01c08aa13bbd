package query

import (
	"net/url"
	"regexp"
	"slices"
	"strings"
)

// Op is a comparison operator in the engine form stores understand.
type Op string

const (
	OpEq  Op = "$eq"
	OpGt  Op = "$gt"
	OpGte Op = "$gte"
	OpLt  Op = "$lt"
	OpLte Op = "$lte"
	OpIn  Op = "$in"
)

// bracketOps maps the operator names accepted in field[op] keys to their
// engine form. Anything else inside brackets is rejected.
var bracketOps = map[string]Op{
	"gt":  OpGt,
	"gte": OpGte,
	"lt":  OpLt,
	"lte": OpLte,
	"in":  OpIn,
}

// Condition is one clause on a field. Values holds exactly one element for
// every operator except OpIn.
type Condition struct {
	Op     Op
	Values []string
}

// Value returns the single operand of a non-$in condition.
func (c Condition) Value() string {
	if len(c.Values) == 0 {
		return ""
	}
	return c.Values[0]
}

// Filter maps a field path to the conditions ANDed on it. Values are kept as
// the raw strings from the query; stores cast them with Schema.Cast.
type Filter map[string][]Condition

// Fields returns the filtered field paths in sorted order.
func (f Filter) Fields() []string {
	fields := make([]string, 0, len(f))
	for k := range f {
		fields = append(fields, k)
	}
	slices.Sort(fields)
	return fields
}

// Eq returns a filter with a single equality condition.
func Eq(field, value string) Filter {
	return Filter{field: {{Op: OpEq, Values: []string{value}}}}
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

func validField(name string) bool {
	return fieldPattern.MatchString(name)
}

// splitKey splits "field" or "field[op]" into its parts. Only a single trailing
// bracket group is allowed.
func splitKey(key string) (field, op string, bracketed bool, err error) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		if strings.ContainsRune(key, ']') {
			return "", "", false, inputErrorf("invalid query key %q: unbalanced brackets", key)
		}
		return key, "", false, nil
	}
	field, rest := key[:open], key[open:]
	if !strings.HasSuffix(rest, "]") || strings.Count(rest, "[") != 1 || strings.Count(rest, "]") != 1 {
		return "", "", false, inputErrorf("invalid query key %q: expected field[operator]", key)
	}
	return field, rest[1 : len(rest)-1], true, nil
}

// parseFilter walks the non-reserved parameters and builds a Filter. Operator
// keys are rewritten field by field; values are never inspected for operator
// names, so a field such as "ingredient" or a value such as "gt" is left alone.
func parseFilter(params url.Values) (Filter, error) {
	f := Filter{}
	plain := map[string]bool{}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		if reserved[key] {
			continue
		}
		values := params[key]
		field, opName, bracketed, err := splitKey(key)
		if err != nil {
			return nil, err
		}
		if field == "" {
			return nil, inputErrorf("invalid query key %q: empty field name", key)
		}
		if !validField(field) {
			return nil, inputErrorf("invalid field name %q", field)
		}

		if !bracketed {
			if _, ok := f[field]; ok {
				return nil, inputErrorf("field %q mixes a plain value with operators", field)
			}
			plain[field] = true
			if len(values) > 1 {
				f[field] = []Condition{{Op: OpIn, Values: slices.Clone(values)}}
			} else {
				f[field] = []Condition{{Op: OpEq, Values: []string{firstOrEmpty(values)}}}
			}
			continue
		}

		op, ok := bracketOps[opName]
		if !ok {
			return nil, inputErrorf("unsupported operator %q on field %q", opName, field)
		}
		if plain[field] {
			return nil, inputErrorf("field %q mixes a plain value with operators", field)
		}

		var cond Condition
		if op == OpIn {
			cond = Condition{Op: OpIn, Values: splitList(values)}
			if len(cond.Values) == 0 {
				return nil, inputErrorf("operator %q on field %q needs at least one value", opName, field)
			}
		} else {
			if len(values) != 1 {
				return nil, inputErrorf("operator %q on field %q takes exactly one value", opName, field)
			}
			if strings.TrimSpace(values[0]) == "" {
				return nil, inputErrorf("operator %q on field %q needs a value", opName, field)
			}
			cond = Condition{Op: op, Values: []string{values[0]}}
		}
		f[field] = append(f[field], cond)
	}

	for field, conds := range f {
		slices.SortFunc(conds, func(a, b Condition) int { return strings.Compare(string(a.Op), string(b.Op)) })
		f[field] = conds
	}
	return f, nil
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func firstOrEmpty(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
