// Package client provides a transport-agnostic interface for the devcamper API
// and an HTTP/JSON implementation that talks to the REST endpoints.
package client

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/devcamper/internal/model"
	"github.com/alfredjeanlab/devcamper/internal/query"
)

// DevcamperClient is the interface the devcamper CLI commands use to talk to a
// server.
type DevcamperClient interface {
	// Bootcamps
	ListBootcamps(ctx context.Context, q *ListQuery) (*ListResponse, error)
	GetBootcamp(ctx context.Context, id string) (*model.Bootcamp, error)
	CreateBootcamp(ctx context.Context, b *model.Bootcamp) (*model.Bootcamp, error)
	DeleteBootcamp(ctx context.Context, id string) error
	BootcampsInRadius(ctx context.Context, zipcode string, miles float64) ([]*model.Bootcamp, error)

	// Courses
	ListCourses(ctx context.Context, q *ListQuery) (*ListResponse, error)
	ListBootcampCourses(ctx context.Context, bootcampID string) ([]*model.Course, error)
	GetCourse(ctx context.Context, id string) (*model.CourseWithBootcamp, error)

	// Auth
	Register(ctx context.Context, req *model.Registration) (*model.User, error)

	Health(ctx context.Context) (string, error)

	Close() error
}

// ListQuery holds the parameters of a list request. Where carries raw
// field filters such as "averageCost[lte]=10000" or "housing=true".
type ListQuery struct {
	Select []string
	Sort   []string
	Page   int
	Limit  int
	Where  []string
}

// Values encodes q as list query parameters.
func (q *ListQuery) Values() (url.Values, error) {
	v := url.Values{}
	if q == nil {
		return v, nil
	}
	for _, w := range q.Where {
		key, val, ok := strings.Cut(w, "=")
		if !ok || key == "" {
			return nil, &UsageError{Message: "filter " + strconv.Quote(w) + " must have the form field=value or field[op]=value"}
		}
		v.Add(key, val)
	}
	if len(q.Select) > 0 {
		v.Set(query.ParamSelect, strings.Join(q.Select, ","))
	}
	if len(q.Sort) > 0 {
		v.Set(query.ParamSort, strings.Join(q.Sort, ","))
	}
	if q.Page > 0 {
		v.Set(query.ParamPage, strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set(query.ParamLimit, strconv.Itoa(q.Limit))
	}
	return v, nil
}

// ListResponse is the envelope of a list endpoint. Items stay raw because a
// select clause can drop any field.
type ListResponse struct {
	Success    bool              `json:"success"`
	Count      int               `json:"count"`
	Pagination query.Pagination  `json:"pagination"`
	Data       []json.RawMessage `json:"data"`
}

// UsageError reports a request the client refused to send.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string { return e.Message }
