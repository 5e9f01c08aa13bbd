package postgres

import (
	"encoding/json"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/alfredjeanlab/devcamper/internal/query"
	"github.com/alfredjeanlab/devcamper/internal/store"
)

// Documents live in a JSONB column. Field paths reaching these helpers have
// passed the query package's identifier check, so they are safe to inline as
// JSON path literals; every value travels as a bind parameter.

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// tables lists the collections a relation may be expanded from.
var tables = map[string]bool{
	store.CollectionBootcamps: true,
	store.CollectionCourses:   true,
}

var cmpOps = map[query.Op]string{
	query.OpGt:  ">",
	query.OpGte: ">=",
	query.OpLt:  "<",
	query.OpLte: "<=",
}

func pathParts(field string) []string { return strings.Split(field, ".") }

// textPath reads field as text.
func textPath(alias, field string) string {
	if field == query.IDField {
		return alias + ".id"
	}
	parts := pathParts(field)
	if len(parts) == 1 {
		return fmt.Sprintf("%s.doc->>'%s'", alias, field)
	}
	return fmt.Sprintf("%s.doc#>>'{%s}'", alias, strings.Join(parts, ","))
}

// jsonPath reads field as a JSONB value.
func jsonPath(alias string, parts []string) string {
	if len(parts) == 1 {
		return fmt.Sprintf("%s.doc->'%s'", alias, parts[0])
	}
	return fmt.Sprintf("%s.doc#>'{%s}'", alias, strings.Join(parts, ","))
}

// typedPath reads field converted to the SQL type matching its kind, so
// comparisons and ordering follow the stored type rather than its text.
func typedPath(alias, field string, kind query.Kind) string {
	if field == query.IDField {
		return alias + ".id"
	}
	switch kind {
	case query.Number:
		return "(" + textPath(alias, field) + ")::numeric"
	case query.Bool:
		return "(" + textPath(alias, field) + ")::boolean"
	case query.Date:
		return "(" + textPath(alias, field) + ")::timestamptz"
	default:
		return textPath(alias, field)
	}
}

// containment renders {"a":{"b":v}} for a doc @> test. Array fields match when
// they contain v as an element.
func containment(field string, v any, kind query.Kind) (string, error) {
	var node any = v
	if kind == query.StringArray {
		node = []any{v}
	}
	parts := pathParts(field)
	for i := len(parts) - 1; i >= 0; i-- {
		node = map[string]any{parts[i]: node}
	}
	b, err := json.Marshal(node)
	if err != nil {
		return "", fmt.Errorf("encode %s operand: %w", field, err)
	}
	return string(b), nil
}

func eqExpr(alias, field string, kind query.Kind, v any) (sq.Sqlizer, error) {
	if field == query.IDField || kind == query.Date {
		return sq.Expr(typedPath(alias, field, kind)+" = ?", v), nil
	}
	js, err := containment(field, v, kind)
	if err != nil {
		return nil, err
	}
	return sq.Expr(alias+".doc @> ?::jsonb", js), nil
}

// whereClause compiles a filter into SQL over alias.doc.
func whereClause(alias string, f query.Filter, schema query.Schema) (sq.And, error) {
	where := sq.And{}
	for _, field := range f.Fields() {
		kind := schema.Kind(field)
		for _, c := range f[field] {
			switch c.Op {
			case query.OpEq:
				v, err := schema.Cast(field, c.Value())
				if err != nil {
					return nil, err
				}
				e, err := eqExpr(alias, field, kind, v)
				if err != nil {
					return nil, err
				}
				where = append(where, e)
			case query.OpIn:
				vals, err := schema.CastAll(field, c)
				if err != nil {
					return nil, err
				}
				alts := sq.Or{}
				for _, v := range vals {
					e, err := eqExpr(alias, field, kind, v)
					if err != nil {
						return nil, err
					}
					alts = append(alts, e)
				}
				where = append(where, alts)
			default:
				op, ok := cmpOps[c.Op]
				if !ok {
					return nil, fmt.Errorf("unsupported operator %s", c.Op)
				}
				v, err := schema.Cast(field, c.Value())
				if err != nil {
					return nil, err
				}
				if kind == query.StringArray {
					where = append(where, sq.Expr(fmt.Sprintf(
						"EXISTS (SELECT 1 FROM jsonb_array_elements_text(%s) e WHERE e %s ?)",
						jsonPath(alias, pathParts(field)), op), v))
					continue
				}
				where = append(where, sq.Expr(typedPath(alias, field, kind)+" "+op+" ?", v))
			}
		}
	}
	return where, nil
}

// orderBy sorts missing values first on ascending keys, as MongoDB does.
func orderBy(alias string, sort []query.SortField, schema query.Schema) []string {
	out := make([]string, 0, len(sort))
	for _, s := range sort {
		expr := typedPath(alias, s.Field, schema.Kind(s.Field))
		if s.Desc {
			out = append(out, expr+" DESC NULLS LAST")
		} else {
			out = append(out, expr+" ASC NULLS FIRST")
		}
	}
	return out
}

// projectionExpr returns the JSONB expression selected for each row.
func projectionExpr(alias string, p query.Projection) string {
	switch {
	case p.IsZero():
		return alias + ".doc"
	case p.Exclude:
		var b strings.Builder
		b.WriteString("(" + alias + ".doc")
		for _, f := range p.Fields {
			fmt.Fprintf(&b, " #- '{%s}'", strings.Join(pathParts(f), ","))
		}
		b.WriteString(")")
		return b.String()
	default:
		paths := make([][]string, 0, len(p.Fields))
		for _, f := range p.Fields {
			paths = append(paths, pathParts(f))
		}
		return fmt.Sprintf("jsonb_strip_nulls(jsonb_build_object('_id', %s.id, %s))",
			alias, objectArgs(alias, nil, paths))
	}
}

// objectArgs renders the key/value arguments of jsonb_build_object for the
// given paths below prefix, nesting objects for dotted paths.
func objectArgs(alias string, prefix []string, paths [][]string) string {
	var (
		order []string
		tails = map[string][][]string{}
		leaf  = map[string]bool{}
	)
	for _, p := range paths {
		head := p[0]
		if _, seen := tails[head]; !seen {
			order = append(order, head)
			tails[head] = nil
		}
		if len(p) == 1 {
			leaf[head] = true
		} else {
			tails[head] = append(tails[head], p[1:])
		}
	}

	args := make([]string, 0, len(order))
	for _, head := range order {
		full := append(append([]string{}, prefix...), head)
		var value string
		if leaf[head] {
			value = jsonPath(alias, full)
		} else {
			value = "jsonb_build_object(" + objectArgs(alias, full, tails[head]) + ")"
		}
		args = append(args, fmt.Sprintf("'%s', %s", head, value))
	}
	return strings.Join(args, ", ")
}

// relationExpr returns a correlated subquery producing the related document
// (or array of documents) for each row of the outer alias t.
func relationExpr(pop *query.Populate) (string, error) {
	if !tables[pop.From] {
		return "", fmt.Errorf("unknown relation collection %q", pop.From)
	}
	proj := projectionExpr("r", query.Projection{Fields: pop.Select})
	cond := textPath("r", pop.ForeignField) + " = " + textPath("t", pop.LocalField)
	if pop.Many {
		return fmt.Sprintf("(SELECT COALESCE(jsonb_agg(%s ORDER BY r.created_at, r.id), '[]'::jsonb) FROM %s r WHERE %s)",
			proj, pop.From, cond), nil
	}
	return fmt.Sprintf("(SELECT %s FROM %s r WHERE %s LIMIT 1)", proj, pop.From, cond), nil
}
