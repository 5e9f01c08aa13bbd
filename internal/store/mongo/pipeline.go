package mongo

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/alfredjeanlab/devcamper/internal/query"
)

// filterDoc renders a query.Filter as a MongoDB filter document, casting
// operands with the collection schema. A lone equality stays in the short
// {field: value} form, which also matches array elements.
func filterDoc(f query.Filter, schema query.Schema) (bson.D, error) {
	doc := bson.D{}
	for _, field := range f.Fields() {
		conds := f[field]
		if len(conds) == 1 && conds[0].Op == query.OpEq {
			v, err := schema.Cast(field, conds[0].Value())
			if err != nil {
				return nil, err
			}
			doc = append(doc, bson.E{Key: field, Value: v})
			continue
		}

		ops := bson.D{}
		for _, c := range conds {
			if c.Op == query.OpIn {
				vals, err := schema.CastAll(field, c)
				if err != nil {
					return nil, err
				}
				ops = append(ops, bson.E{Key: string(c.Op), Value: bson.A(vals)})
				continue
			}
			v, err := schema.Cast(field, c.Value())
			if err != nil {
				return nil, err
			}
			ops = append(ops, bson.E{Key: string(c.Op), Value: v})
		}
		doc = append(doc, bson.E{Key: field, Value: ops})
	}
	return doc, nil
}

func sortDoc(sort []query.SortField) bson.D {
	doc := make(bson.D, 0, len(sort))
	for _, s := range sort {
		dir := 1
		if s.Desc {
			dir = -1
		}
		doc = append(doc, bson.E{Key: s.Field, Value: dir})
	}
	return doc
}

// projectionDoc returns nil for whole-document projections.
func projectionDoc(p query.Projection) bson.D {
	if p.IsZero() {
		return nil
	}
	flag := 1
	if p.Exclude {
		flag = 0
	}
	doc := make(bson.D, 0, len(p.Fields))
	for _, f := range p.Fields {
		doc = append(doc, bson.E{Key: f, Value: flag})
	}
	return doc
}

// findPipeline narrows the collection before expanding relations so only the
// returned page pays for the $lookup.
func findPipeline(match bson.D, opts query.FindOptions) mongo.Pipeline {
	p := mongo.Pipeline{{{Key: "$match", Value: match}}}
	if len(opts.Sort) > 0 {
		p = append(p, bson.D{{Key: "$sort", Value: sortDoc(opts.Sort)}})
	}
	if opts.Skip > 0 {
		p = append(p, bson.D{{Key: "$skip", Value: opts.Skip}})
	}
	if opts.Limit > 0 {
		p = append(p, bson.D{{Key: "$limit", Value: opts.Limit}})
	}
	if pop := opts.Populate; pop != nil {
		lookup := bson.D{
			{Key: "from", Value: pop.From},
			{Key: "localField", Value: pop.LocalField},
			{Key: "foreignField", Value: pop.ForeignField},
		}
		if proj := projectionDoc(query.Projection{Fields: pop.Select}); proj != nil {
			lookup = append(lookup, bson.E{Key: "pipeline", Value: bson.A{bson.D{{Key: "$project", Value: proj}}}})
		}
		lookup = append(lookup, bson.E{Key: "as", Value: pop.Path})
		p = append(p, bson.D{{Key: "$lookup", Value: lookup}})
		if !pop.Many {
			p = append(p, bson.D{{Key: "$unwind", Value: bson.D{
				{Key: "path", Value: "$" + pop.Path},
				{Key: "preserveNullAndEmptyArrays", Value: true},
			}}})
		}
	}
	if proj := projectionDoc(opts.Projection); proj != nil {
		p = append(p, bson.D{{Key: "$project", Value: proj}})
	}
	return p
}

// toDocument converts decoded BSON into plain JSON-friendly values.
func toDocument(m bson.M) query.Document {
	out := make(query.Document, len(m))
	for k, v := range m {
		out[k] = plain(v)
	}
	return out
}

func plain(v any) any {
	switch t := v.(type) {
	case bson.M:
		return map[string]any(toDocument(t))
	case bson.D:
		return map[string]any(toDocument(t.Map()))
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.ObjectID:
		return t.Hex()
	case int32:
		return int64(t)
	default:
		return v
	}
}
