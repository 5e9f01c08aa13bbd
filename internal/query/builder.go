// Package query turns list-endpoint query strings into filtered, projected,
// sorted and paginated reads against a document collection.
//
// A request such as
//
//	GET /api/v1/bootcamps?averageCost[lte]=10000&select=name,averageCost&sort=-averageCost&page=2
//
// becomes a Filter on averageCost with a $lte condition, an inclusion
// Projection, a descending sort and the second window of DefaultLimit
// documents. The Builder runs the count and the find for that plan and
// assembles the Pagination block.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultLimit   = 25
	DefaultTimeout = 10 * time.Second
)

// DefaultSort orders newest documents first.
var DefaultSort = []SortField{{Field: "createdAt", Desc: true}}

// Observer is notified once per executed query with its outcome
// ("ok", "input_error" or "store_error").
type Observer func(collection, outcome string, elapsed time.Duration)

// Result is one executed list query.
type Result struct {
	Items      []Document
	Pagination Pagination
}

// Builder parses and executes list queries. It holds no per-request state and
// is safe for concurrent use.
type Builder struct {
	defaultLimit int
	maxLimit     int
	timeout      time.Duration
	defaultSort  []SortField
	observer     Observer
	logger       *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithDefaultLimit sets the page size used when the request has no valid limit.
func WithDefaultLimit(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.defaultLimit = n
		}
	}
}

// WithMaxLimit caps the page size; 0 means no cap.
func WithMaxLimit(n int) Option {
	return func(b *Builder) { b.maxLimit = n }
}

// WithTimeout bounds the count and find calls; 0 disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(b *Builder) { b.timeout = d }
}

// WithDefaultSort replaces the sort used when the request has none.
func WithDefaultSort(s []SortField) Option {
	return func(b *Builder) { b.defaultSort = s }
}

func WithObserver(o Observer) Option {
	return func(b *Builder) { b.observer = o }
}

func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder returns a Builder with the package defaults, adjusted by opts.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		defaultLimit: DefaultLimit,
		timeout:      DefaultTimeout,
		defaultSort:  DefaultSort,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Parse builds a Plan from raw query parameters without touching a store.
func (b *Builder) Parse(params url.Values) (*Plan, error) {
	filter, err := parseFilter(params)
	if err != nil {
		return nil, err
	}
	projection, err := parseProjection(params)
	if err != nil {
		return nil, err
	}
	sort, err := parseSort(params, b.defaultSort)
	if err != nil {
		return nil, err
	}
	return &Plan{
		Filter:     filter,
		Projection: projection,
		Sort:       sort,
		Window:     parseWindow(params, b.defaultLimit, b.maxLimit),
	}, nil
}

// Execute parses params and runs the resulting plan against coll.
func (b *Builder) Execute(ctx context.Context, coll Collection, params url.Values, populate *Populate) (*Result, error) {
	start := time.Now()
	plan, err := b.Parse(params)
	if err != nil {
		b.observe(coll.Name(), err, time.Since(start))
		return nil, err
	}
	res, err := b.run(ctx, coll, plan, populate)
	b.observe(coll.Name(), err, time.Since(start))
	return res, err
}

// ExecutePlan runs an already parsed plan against coll.
func (b *Builder) ExecutePlan(ctx context.Context, coll Collection, plan *Plan, populate *Populate) (*Result, error) {
	start := time.Now()
	res, err := b.run(ctx, coll, plan, populate)
	b.observe(coll.Name(), err, time.Since(start))
	return res, err
}

func (b *Builder) run(ctx context.Context, coll Collection, plan *Plan, populate *Populate) (*Result, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	opts := FindOptions{
		Projection: plan.Projection,
		Sort:       plan.Sort,
		Skip:       plan.Window.Skip(),
		Limit:      int64(plan.Window.Limit),
	}
	if populate != nil && plan.Projection.Includes(populate.Path) {
		opts.Populate = populate
	}

	var (
		total int64
		items []Document
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		defer recoverStore(coll.Name(), "count", &err)
		n, err := coll.CountDocuments(gctx, plan.Filter)
		if err != nil {
			return classify(coll.Name(), "count", err)
		}
		total = n
		return nil
	})
	g.Go(func() (err error) {
		defer recoverStore(coll.Name(), "find", &err)
		docs, err := coll.Find(gctx, plan.Filter, opts)
		if err != nil {
			return classify(coll.Name(), "find", err)
		}
		items = docs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if items == nil {
		items = []Document{}
	}
	return &Result{Items: items, Pagination: Paginate(plan.Window, total)}, nil
}

// recoverStore turns a panicking Collection call into a StoreError so it
// cannot take down the process from an errgroup goroutine.
func recoverStore(collection, op string, err *error) {
	if r := recover(); r != nil {
		*err = &StoreError{Collection: collection, Op: op, Err: fmt.Errorf("panic: %v", r)}
	}
}

// classify keeps casting failures as client errors and wraps everything else.
func classify(collection, op string, err error) error {
	var ie InputError
	if errors.As(err, &ie) {
		return ie
	}
	var se *StoreError
	if errors.As(err, &se) {
		return se
	}
	return &StoreError{Collection: collection, Op: op, Err: err}
}

func (b *Builder) observe(collection string, err error, elapsed time.Duration) {
	outcome := "ok"
	var ie InputError
	switch {
	case err == nil:
	case errors.As(err, &ie):
		outcome = "input_error"
	default:
		outcome = "store_error"
		b.logger.Error("list query failed", "collection", collection, "elapsed", elapsed, "error", err)
	}
	if b.observer != nil {
		b.observer(collection, outcome, elapsed)
	}
}
