package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alfredjeanlab/devcamper/internal/model"
	"github.com/alfredjeanlab/devcamper/internal/store"
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Table names below come from the store.Collection* constants, never from
// request input.

func queryInsertDoc(ctx context.Context, db executor, table, id string, createdAt time.Time, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s document: %w", table, err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO `+table+` (id, doc, created_at) VALUES ($1, $2, $3)`,
		id, data, createdAt,
	)
	return writeErr(err)
}

func queryGetDoc(ctx context.Context, db executor, table, id string, out any) error {
	var data []byte
	err := db.QueryRowContext(ctx, `SELECT doc FROM `+table+` WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s %s: %w", table, id, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s document: %w", table, err)
	}
	return nil
}

func queryReplaceDoc(ctx context.Context, db executor, table, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s document: %w", table, err)
	}
	res, err := db.ExecContext(ctx, `UPDATE `+table+` SET doc = $2 WHERE id = $1`, id, data)
	if err != nil {
		return writeErr(err)
	}
	return expectOne(res)
}

func queryDeleteDoc(ctx context.Context, db executor, table, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func queryUpdateBootcampPhoto(ctx context.Context, db executor, id, photo string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE bootcamps SET doc = jsonb_set(doc, '{photo}', to_jsonb($2::text)) WHERE id = $1`,
		id, photo,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func queryDeleteBootcamp(ctx context.Context, db executor, id string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM courses WHERE doc->>'bootcamp' = $1`, id); err != nil {
		return fmt.Errorf("delete courses of bootcamp %s: %w", id, err)
	}
	return queryDeleteDoc(ctx, db, store.CollectionBootcamps, id)
}

// queryBootcampsWithinRadius compares the great-circle angle between each
// bootcamp and the point (haversine) with radius, both in radians.
func queryBootcampsWithinRadius(ctx context.Context, db executor, lng, lat, radius float64) ([]*model.Bootcamp, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT doc FROM (
			SELECT doc,
				radians((doc#>>'{location,coordinates,0}')::float8) AS lng,
				radians((doc#>>'{location,coordinates,1}')::float8) AS lat
			FROM bootcamps
			WHERE doc#>'{location,coordinates}' IS NOT NULL
		) b
		WHERE 2 * asin(sqrt(
			power(sin((b.lat - radians($2)) / 2), 2) +
			cos(radians($2)) * cos(b.lat) * power(sin((b.lng - radians($1)) / 2), 2)
		)) <= $3`,
		lng, lat, radius,
	)
	if err != nil {
		return nil, fmt.Errorf("radius query: %w", err)
	}
	defer rows.Close()

	var out []*model.Bootcamp
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan bootcamp: %w", err)
		}
		var b model.Bootcamp
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("decode bootcamp: %w", err)
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}

func queryListCoursesByBootcamp(ctx context.Context, db executor, bootcampID string) ([]*model.Course, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT doc FROM courses WHERE doc->>'bootcamp' = $1 ORDER BY created_at, id`, bootcampID)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	out := []*model.Course{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		var c model.Course
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decode course: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// queryInsertUser keeps the password hash out of the JSON document.
func queryInsertUser(ctx context.Context, db executor, u *model.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO users (id, doc, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		u.ID, data, u.PasswordHash, u.CreatedAt,
	)
	return writeErr(err)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
