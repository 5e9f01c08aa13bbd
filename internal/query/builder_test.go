package query

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeCollection records the calls made by the Builder and returns canned data.
type fakeCollection struct {
	mu       sync.Mutex
	total    int64
	docs     []Document
	countErr error
	findErr  error
	delay    time.Duration

	counts   atomic.Int32
	finds    atomic.Int32
	gotCount Filter
	gotFind  Filter
	gotOpts  FindOptions
}

func (c *fakeCollection) Name() string   { return "bootcamps" }
func (c *fakeCollection) Schema() Schema { return Schema{"averageCost": Number} }

func (c *fakeCollection) CountDocuments(ctx context.Context, f Filter) (int64, error) {
	c.counts.Add(1)
	c.mu.Lock()
	c.gotCount = f
	c.mu.Unlock()
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	return c.total, c.countErr
}

func (c *fakeCollection) Find(ctx context.Context, f Filter, opts FindOptions) ([]Document, error) {
	c.finds.Add(1)
	c.mu.Lock()
	c.gotFind = f
	c.gotOpts = opts
	c.mu.Unlock()
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	if c.findErr != nil {
		return nil, c.findErr
	}
	return c.docs, nil
}

func (c *fakeCollection) wait(ctx context.Context) error {
	if c.delay == 0 {
		return nil
	}
	select {
	case <-time.After(c.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func docs(ids ...string) []Document {
	out := make([]Document, len(ids))
	for i, id := range ids {
		out[i] = Document{"_id": id}
	}
	return out
}

func TestExecute_PassesPlanToCollection(t *testing.T) {
	coll := &fakeCollection{total: 30, docs: docs("a", "b")}
	b := NewBuilder()

	res, err := b.Execute(context.Background(), coll,
		mustParseQuery(t, "averageCost[lte]=10000&select=name,averageCost&sort=-averageCost&page=2&limit=10"), nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if coll.counts.Load() != 1 || coll.finds.Load() != 1 {
		t.Fatalf("counts=%d finds=%d, want 1 and 1", coll.counts.Load(), coll.finds.Load())
	}
	wantFilter := Filter{"averageCost": {{Op: OpLte, Values: []string{"10000"}}}}
	if !reflect.DeepEqual(coll.gotCount, wantFilter) || !reflect.DeepEqual(coll.gotFind, wantFilter) {
		t.Errorf("count filter %+v, find filter %+v, want %+v", coll.gotCount, coll.gotFind, wantFilter)
	}
	if coll.gotOpts.Skip != 10 || coll.gotOpts.Limit != 10 {
		t.Errorf("skip=%d limit=%d, want 10/10", coll.gotOpts.Skip, coll.gotOpts.Limit)
	}
	if got := coll.gotOpts.Projection.Keys(); !reflect.DeepEqual(got, []string{"_id", "name", "averageCost"}) {
		t.Errorf("projection = %v", got)
	}
	wantSort := []SortField{{Field: "averageCost", Desc: true}, {Field: "_id"}}
	if !reflect.DeepEqual(coll.gotOpts.Sort, wantSort) {
		t.Errorf("sort = %v, want %v", coll.gotOpts.Sort, wantSort)
	}

	want := Pagination{Total: 30, Next: &Page{Page: 3, Limit: 10}, Prev: &Page{Page: 1, Limit: 10}}
	if !reflect.DeepEqual(res.Pagination, want) {
		t.Errorf("pagination = %+v, want %+v", res.Pagination, want)
	}
	if len(res.Items) != 2 {
		t.Errorf("items = %d, want 2", len(res.Items))
	}
}

func TestExecute_EmptyResult(t *testing.T) {
	coll := &fakeCollection{}
	res, err := NewBuilder().Execute(context.Background(), coll, mustParseQuery(t, "name=nothing"), nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Items == nil || len(res.Items) != 0 {
		t.Errorf("items = %#v, want empty non-nil slice", res.Items)
	}
	if !reflect.DeepEqual(res.Pagination, Pagination{Total: 0}) {
		t.Errorf("pagination = %+v, want {Total:0}", res.Pagination)
	}
}

func TestExecute_InputErrorSkipsStore(t *testing.T) {
	coll := &fakeCollection{}
	_, err := NewBuilder().Execute(context.Background(), coll, mustParseQuery(t, "price[regex]=x"), nil)
	var ie InputError
	if !errors.As(err, &ie) {
		t.Fatalf("got %v, want InputError", err)
	}
	if coll.counts.Load() != 0 || coll.finds.Load() != 0 {
		t.Error("store should not be called for malformed queries")
	}
}

func TestExecute_StoreErrorsAreWrapped(t *testing.T) {
	boom := errors.New("connection reset")
	for _, tc := range []struct {
		name   string
		coll   *fakeCollection
		wantOp string
	}{
		{"count", &fakeCollection{countErr: boom}, "count"},
		{"find", &fakeCollection{findErr: boom}, "find"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBuilder().Execute(context.Background(), tc.coll, nil, nil)
			var se *StoreError
			if !errors.As(err, &se) {
				t.Fatalf("got %v, want *StoreError", err)
			}
			if se.Op != tc.wantOp || se.Collection != "bootcamps" || !errors.Is(err, boom) {
				t.Errorf("got %+v", se)
			}
		})
	}
}

func TestExecute_CastFailureStaysInputError(t *testing.T) {
	coll := &fakeCollection{countErr: InputError(`field "averageCost" expects a number`)}
	_, err := NewBuilder().Execute(context.Background(), coll, nil, nil)
	var ie InputError
	if !errors.As(err, &ie) {
		t.Fatalf("got %v, want InputError", err)
	}
}

func TestExecute_Timeout(t *testing.T) {
	coll := &fakeCollection{delay: time.Second}
	b := NewBuilder(WithTimeout(20 * time.Millisecond))

	start := time.Now()
	_, err := b.Execute(context.Background(), coll, nil, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want deadline exceeded", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("timeout did not cancel the store calls")
	}
}

func TestExecute_PopulateFollowsProjection(t *testing.T) {
	pop := &Populate{Path: "bootcamp", From: "bootcamps", LocalField: "bootcamp", ForeignField: "_id", Select: []string{"name", "description"}}
	for _, tc := range []struct {
		raw  string
		want bool
	}{
		{"", true},
		{"select=title,bootcamp", true},
		{"select=title", false},
		{"select=-bootcamp", false},
		{"select=-title", true},
	} {
		t.Run(tc.raw, func(t *testing.T) {
			coll := &fakeCollection{}
			if _, err := NewBuilder().Execute(context.Background(), coll, mustParseQuery(t, tc.raw), pop); err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if got := coll.gotOpts.Populate != nil; got != tc.want {
				t.Errorf("populate passed = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestExecute_Options(t *testing.T) {
	coll := &fakeCollection{}
	var outcomes []string
	b := NewBuilder(
		WithDefaultLimit(5),
		WithMaxLimit(50),
		WithDefaultSort([]SortField{{Field: "name"}}),
		WithObserver(func(collection, outcome string, _ time.Duration) {
			outcomes = append(outcomes, collection+":"+outcome)
		}),
	)

	if _, err := b.Execute(context.Background(), coll, mustParseQuery(t, "limit=1000"), nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if coll.gotOpts.Limit != 50 {
		t.Errorf("limit = %d, want clamp to 50", coll.gotOpts.Limit)
	}
	if _, err := b.Execute(context.Background(), coll, nil, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if coll.gotOpts.Limit != 5 {
		t.Errorf("limit = %d, want default 5", coll.gotOpts.Limit)
	}
	if !reflect.DeepEqual(coll.gotOpts.Sort, []SortField{{Field: "name"}, {Field: "_id"}}) {
		t.Errorf("sort = %v", coll.gotOpts.Sort)
	}
	_, _ = b.Execute(context.Background(), coll, mustParseQuery(t, "x[nope]=1"), nil)

	want := []string{"bootcamps:ok", "bootcamps:ok", "bootcamps:input_error"}
	if !reflect.DeepEqual(outcomes, want) {
		t.Errorf("outcomes = %v, want %v", outcomes, want)
	}
}

func TestExecute_Idempotent(t *testing.T) {
	coll := &fakeCollection{total: 3, docs: docs("a", "b", "c")}
	b := NewBuilder()
	params := mustParseQuery(t, "sort=name&limit=2")

	first, err := b.Execute(context.Background(), coll, params, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	opts := coll.gotOpts
	second, err := b.Execute(context.Background(), coll, params, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !reflect.DeepEqual(first, second) || !reflect.DeepEqual(opts, coll.gotOpts) {
		t.Error("identical requests produced different plans or results")
	}
}

// panickingCollection fails the way a buggy store adapter would.
type panickingCollection struct{ fakeCollection }

func (c *panickingCollection) Find(context.Context, Filter, FindOptions) ([]Document, error) {
	panic("index out of range")
}

func TestExecute_StorePanicBecomesStoreError(t *testing.T) {
	_, err := NewBuilder().Execute(context.Background(), &panickingCollection{}, nil, nil)
	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want *StoreError", err)
	}
	if se.Op != "find" || se.Collection != "bootcamps" {
		t.Errorf("got %+v", se)
	}
}

func TestExecute_HugePageStaysPastTheEnd(t *testing.T) {
	coll := &fakeCollection{total: 30}
	res, err := NewBuilder().Execute(context.Background(), coll, mustParseQuery(t, "page=4611686018427387904&limit=4"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if coll.gotOpts.Skip <= 0 {
		t.Errorf("skip = %d, want a positive offset", coll.gotOpts.Skip)
	}
	if res.Pagination.Next != nil {
		t.Errorf("next = %+v, want none past the end", res.Pagination.Next)
	}
	if res.Pagination.Prev == nil {
		t.Error("prev missing")
	}
}
