package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alfredjeanlab/devcamper/internal/query"
)

// collection adapts a JSONB document table to query.Collection.
type collection struct {
	db     executor
	table  string
	schema query.Schema
}

var _ query.Collection = (*collection)(nil)

func (c *collection) Name() string         { return c.table }
func (c *collection) Schema() query.Schema { return c.schema }

func (c *collection) CountDocuments(ctx context.Context, f query.Filter) (int64, error) {
	stmt, args, err := c.countSQL(f)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := c.db.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", c.table, err)
	}
	return n, nil
}

func (c *collection) Find(ctx context.Context, f query.Filter, opts query.FindOptions) ([]query.Document, error) {
	stmt, args, err := c.findSQL(f, opts)
	if err != nil {
		return nil, err
	}
	rows, err := c.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c.table, err)
	}
	defer rows.Close()

	var docs []query.Document
	for rows.Next() {
		var raw, rel []byte
		dest := []any{&raw}
		if opts.Populate != nil {
			dest = append(dest, &rel)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.table, err)
		}
		doc := query.Document{}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode %s document: %w", c.table, err)
		}
		if opts.Populate != nil {
			var v any
			if len(rel) > 0 {
				if err := json.Unmarshal(rel, &v); err != nil {
					return nil, fmt.Errorf("decode %s relation: %w", c.table, err)
				}
			}
			doc[opts.Populate.Path] = v
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", c.table, err)
	}
	return docs, nil
}

func (c *collection) countSQL(f query.Filter) (string, []any, error) {
	where, err := whereClause("t", f, c.schema)
	if err != nil {
		return "", nil, err
	}
	sb := psql.Select("COUNT(*)").From(c.table + " t")
	if len(where) > 0 {
		sb = sb.Where(where)
	}
	return sb.ToSql()
}

func (c *collection) findSQL(f query.Filter, opts query.FindOptions) (string, []any, error) {
	where, err := whereClause("t", f, c.schema)
	if err != nil {
		return "", nil, err
	}
	sb := psql.Select(projectionExpr("t", opts.Projection) + " AS doc").From(c.table + " t")
	if opts.Populate != nil {
		rel, err := relationExpr(opts.Populate)
		if err != nil {
			return "", nil, err
		}
		sb = sb.Column(rel + " AS rel")
	}
	if len(where) > 0 {
		sb = sb.Where(where)
	}
	if len(opts.Sort) > 0 {
		sb = sb.OrderBy(orderBy("t", opts.Sort, c.schema)...)
	}
	if opts.Limit > 0 {
		sb = sb.Limit(uint64(opts.Limit))
	}
	if opts.Skip > 0 {
		sb = sb.Offset(uint64(opts.Skip))
	}
	return sb.ToSql()
}
