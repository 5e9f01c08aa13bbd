package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/alfredjeanlab/devcamper/internal/geocode"
	"github.com/alfredjeanlab/devcamper/internal/model"
	"github.com/alfredjeanlab/devcamper/internal/query"
	"github.com/alfredjeanlab/devcamper/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockStore keeps bootcamps, courses and users in maps.
type mockStore struct {
	mu        sync.Mutex
	bootcamps map[string]*model.Bootcamp
	courses   map[string]*model.Course
	users     map[string]*model.User

	pingErr   error
	findErr   error
	radiusArg [3]float64
}

func newMockStore() *mockStore {
	return &mockStore{
		bootcamps: make(map[string]*model.Bootcamp),
		courses:   make(map[string]*model.Course),
		users:     make(map[string]*model.User),
	}
}

func (m *mockStore) Bootcamps() query.Collection {
	return &mockCollection{store: m, name: store.CollectionBootcamps, schema: model.BootcampSchema}
}

func (m *mockStore) Courses() query.Collection {
	return &mockCollection{store: m, name: store.CollectionCourses, schema: model.CourseSchema}
}

func (m *mockStore) CreateBootcamp(_ context.Context, b *model.Bootcamp) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.bootcamps {
		if existing.Name == b.Name {
			return store.ErrDuplicate
		}
	}
	clone := *b
	m.bootcamps[b.ID] = &clone
	return nil
}

func (m *mockStore) GetBootcamp(_ context.Context, id string) (*model.Bootcamp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bootcamps[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (m *mockStore) UpdateBootcamp(_ context.Context, b *model.Bootcamp) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bootcamps[b.ID]; !ok {
		return store.ErrNotFound
	}
	clone := *b
	m.bootcamps[b.ID] = &clone
	return nil
}

func (m *mockStore) UpdateBootcampPhoto(_ context.Context, id, photo string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bootcamps[id]
	if !ok {
		return store.ErrNotFound
	}
	b.Photo = photo
	return nil
}

func (m *mockStore) DeleteBootcamp(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bootcamps[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.bootcamps, id)
	for cid, c := range m.courses {
		if c.Bootcamp == id {
			delete(m.courses, cid)
		}
	}
	return nil
}

func (m *mockStore) BootcampsWithinRadius(_ context.Context, lng, lat, radius float64) ([]*model.Bootcamp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.radiusArg = [3]float64{lng, lat, radius}
	var out []*model.Bootcamp
	for _, b := range m.bootcamps {
		if b.Location != nil {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockStore) CreateCourse(_ context.Context, c *model.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *c
	m.courses[c.ID] = &clone
	return nil
}

func (m *mockStore) GetCourse(_ context.Context, id string) (*model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (m *mockStore) ListCoursesByBootcamp(_ context.Context, bootcampID string) ([]*model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Course
	for _, c := range m.courses {
		if c.Bootcamp == bootcampID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockStore) UpdateCourse(_ context.Context, c *model.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.courses[c.ID]; !ok {
		return store.ErrNotFound
	}
	clone := *c
	m.courses[c.ID] = &clone
	return nil
}

func (m *mockStore) DeleteCourse(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.courses[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.courses, id)
	return nil
}

func (m *mockStore) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	clone := *u
	m.users[u.ID] = &clone
	return nil
}

func (m *mockStore) Ping(context.Context) error { return m.pingErr }

func (m *mockStore) Close() error { return nil }

// mockCollection serves every stored document of one kind, ignoring the
// filter, and records the last call.
type mockCollection struct {
	store  *mockStore
	name   string
	schema query.Schema
}

func (c *mockCollection) Name() string         { return c.name }
func (c *mockCollection) Schema() query.Schema { return c.schema }

func (c *mockCollection) CountDocuments(context.Context, query.Filter) (int64, error) {
	docs, err := c.all()
	return int64(len(docs)), err
}

func (c *mockCollection) Find(_ context.Context, _ query.Filter, opts query.FindOptions) ([]query.Document, error) {
	c.store.mu.Lock()
	findErr := c.store.findErr
	c.store.mu.Unlock()
	if findErr != nil {
		return nil, findErr
	}
	docs, err := c.all()
	if err != nil {
		return nil, err
	}
	if opts.Skip >= int64(len(docs)) {
		return nil, nil
	}
	docs = docs[opts.Skip:]
	if opts.Limit > 0 && int64(len(docs)) > opts.Limit {
		docs = docs[:opts.Limit]
	}
	return docs, nil
}

func (c *mockCollection) all() ([]query.Document, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	var items []any
	switch c.name {
	case store.CollectionBootcamps:
		for _, b := range c.store.bootcamps {
			items = append(items, b)
		}
	case store.CollectionCourses:
		for _, v := range c.store.courses {
			items = append(items, v)
		}
	default:
		return nil, errors.New("unknown collection")
	}

	out := make([]query.Document, 0, len(items))
	for _, it := range items {
		data, err := json.Marshal(it)
		if err != nil {
			return nil, err
		}
		var doc query.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// recordingPublisher captures published topics.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

// fakeGeocoder returns a fixed answer for every address.
type fakeGeocoder struct {
	locations []geocode.Location
	err       error
	calls     []string
}

func (g *fakeGeocoder) Geocode(_ context.Context, address string) ([]geocode.Location, error) {
	g.calls = append(g.calls, address)
	return g.locations, g.err
}

// memDestination keeps uploaded files in memory.
type memDestination struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func (d *memDestination) Save(_ context.Context, name, _ string, r io.Reader) error {
	if d.err != nil {
		return d.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.files == nil {
		d.files = make(map[string][]byte)
	}
	d.files[name] = data
	return nil
}
