package query

import "context"

// Document is one stored record rendered as JSON-compatible values.
type Document map[string]any

// ID returns the document's identity as a string, or "" when absent.
func (d Document) ID() string {
	if s, ok := d[IDField].(string); ok {
		return s
	}
	return ""
}

// Populate expands a relation into the returned documents.
//
// A forward relation (Many false) replaces Path with the document of From
// whose ForeignField equals the local LocalField, or nil when none matches.
// A reverse relation (Many true) sets Path to every matching document of
// From. Select limits the related document's fields; nil keeps all of them.
type Populate struct {
	Path         string
	From         string
	LocalField   string
	ForeignField string
	Many         bool
	Select       []string
}

// FindOptions narrows a Find call.
type FindOptions struct {
	Projection Projection
	Sort       []SortField
	Skip       int64
	Limit      int64
	Populate   *Populate
}

// Collection is the store capability the Builder runs against. Each call is a
// single read; Find applies every option in one execution.
type Collection interface {
	Name() string
	Schema() Schema
	CountDocuments(ctx context.Context, filter Filter) (int64, error)
	Find(ctx context.Context, filter Filter, opts FindOptions) ([]Document, error)
}
