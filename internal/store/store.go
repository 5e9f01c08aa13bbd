package store

import (
	"context"
	"errors"

	"github.com/alfredjeanlab/devcamper/internal/model"
	"github.com/alfredjeanlab/devcamper/internal/query"
)

var (
	// ErrNotFound is returned when a single-document lookup matches nothing.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a write violates a unique field.
	ErrDuplicate = errors.New("duplicate field value")
)

// Collection names shared by every backend.
const (
	CollectionBootcamps = "bootcamps"
	CollectionCourses   = "courses"
	CollectionUsers     = "users"
)

// Store is the persistence contract the server is built on. Implementations
// are constructed once at startup and injected.
type Store interface {
	// Bootcamps and Courses expose the collections list queries run against.
	Bootcamps() query.Collection
	Courses() query.Collection

	CreateBootcamp(ctx context.Context, b *model.Bootcamp) error
	GetBootcamp(ctx context.Context, id string) (*model.Bootcamp, error)
	UpdateBootcamp(ctx context.Context, b *model.Bootcamp) error
	UpdateBootcampPhoto(ctx context.Context, id, photo string) error
	// DeleteBootcamp removes the bootcamp and all of its courses.
	DeleteBootcamp(ctx context.Context, id string) error
	// BootcampsWithinRadius returns bootcamps whose location lies within
	// radius (in radians) of the given point.
	BootcampsWithinRadius(ctx context.Context, lng, lat, radius float64) ([]*model.Bootcamp, error)

	CreateCourse(ctx context.Context, c *model.Course) error
	GetCourse(ctx context.Context, id string) (*model.Course, error)
	ListCoursesByBootcamp(ctx context.Context, bootcampID string) ([]*model.Course, error)
	UpdateCourse(ctx context.Context, c *model.Course) error
	DeleteCourse(ctx context.Context, id string) error

	CreateUser(ctx context.Context, u *model.User) error

	Ping(ctx context.Context) error
	Close() error
}
