// Package postgres implements the store.Store interface backed by PostgreSQL,
// keeping each document in a JSONB column.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"

	"github.com/alfredjeanlab/devcamper/internal/model"
	"github.com/alfredjeanlab/devcamper/internal/query"
	"github.com/alfredjeanlab/devcamper/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB

	bootcamps *collection
	courses   *collection
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return newStore(db), nil
}

func newStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:        db,
		bootcamps: &collection{db: db, table: store.CollectionBootcamps, schema: model.BootcampSchema},
		courses:   &collection{db: db, table: store.CollectionCourses, schema: model.CourseSchema},
	}
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Bootcamps returns the bootcamps table for list queries.
func (s *PostgresStore) Bootcamps() query.Collection { return s.bootcamps }

// Courses returns the courses table for list queries.
func (s *PostgresStore) Courses() query.Collection { return s.courses }

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateBootcamp(ctx context.Context, b *model.Bootcamp) error {
	return queryInsertDoc(ctx, s.db, store.CollectionBootcamps, b.ID, b.CreatedAt, b)
}

func (s *PostgresStore) GetBootcamp(ctx context.Context, id string) (*model.Bootcamp, error) {
	var b model.Bootcamp
	if err := queryGetDoc(ctx, s.db, store.CollectionBootcamps, id, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *PostgresStore) UpdateBootcamp(ctx context.Context, b *model.Bootcamp) error {
	return queryReplaceDoc(ctx, s.db, store.CollectionBootcamps, b.ID, b)
}

func (s *PostgresStore) UpdateBootcampPhoto(ctx context.Context, id, photo string) error {
	return queryUpdateBootcampPhoto(ctx, s.db, id, photo)
}

// DeleteBootcamp removes the bootcamp and its courses in one transaction.
func (s *PostgresStore) DeleteBootcamp(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := queryDeleteBootcamp(ctx, tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PostgresStore) BootcampsWithinRadius(ctx context.Context, lng, lat, radius float64) ([]*model.Bootcamp, error) {
	return queryBootcampsWithinRadius(ctx, s.db, lng, lat, radius)
}

func (s *PostgresStore) CreateCourse(ctx context.Context, c *model.Course) error {
	return queryInsertDoc(ctx, s.db, store.CollectionCourses, c.ID, c.CreatedAt, c)
}

func (s *PostgresStore) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	var c model.Course
	if err := queryGetDoc(ctx, s.db, store.CollectionCourses, id, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) ListCoursesByBootcamp(ctx context.Context, bootcampID string) ([]*model.Course, error) {
	return queryListCoursesByBootcamp(ctx, s.db, bootcampID)
}

func (s *PostgresStore) UpdateCourse(ctx context.Context, c *model.Course) error {
	return queryReplaceDoc(ctx, s.db, store.CollectionCourses, c.ID, c)
}

func (s *PostgresStore) DeleteCourse(ctx context.Context, id string) error {
	return queryDeleteDoc(ctx, s.db, store.CollectionCourses, id)
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *model.User) error {
	return queryInsertUser(ctx, s.db, u)
}

// writeErr maps unique violations onto store.ErrDuplicate.
func writeErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", store.ErrDuplicate, pqErr.Constraint)
	}
	return err
}
