package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/alfredjeanlab/devcamper/internal/query"
)

// collection adapts a MongoDB collection to query.Collection.
type collection struct {
	db     *mongo.Database
	name   string
	schema query.Schema
}

var _ query.Collection = (*collection)(nil)

func (c *collection) Name() string         { return c.name }
func (c *collection) Schema() query.Schema { return c.schema }

func (c *collection) CountDocuments(ctx context.Context, f query.Filter) (int64, error) {
	match, err := filterDoc(f, c.schema)
	if err != nil {
		return 0, err
	}
	n, err := c.db.Collection(c.name).CountDocuments(ctx, match)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", c.name, err)
	}
	return n, nil
}

func (c *collection) Find(ctx context.Context, f query.Filter, opts query.FindOptions) ([]query.Document, error) {
	match, err := filterDoc(f, c.schema)
	if err != nil {
		return nil, err
	}
	cur, err := c.db.Collection(c.name).Aggregate(ctx, findPipeline(match, opts))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c.name, err)
	}
	var rows []bson.M
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.name, err)
	}
	docs := make([]query.Document, len(rows))
	for i, row := range rows {
		docs[i] = toDocument(row)
	}
	return docs, nil
}
