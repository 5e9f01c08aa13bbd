package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/alfredjeanlab/devcamper/internal/geocode"
	"github.com/alfredjeanlab/devcamper/internal/model"
	"github.com/alfredjeanlab/devcamper/internal/query"
	"github.com/alfredjeanlab/devcamper/internal/store"
	"github.com/alfredjeanlab/devcamper/internal/upload"
)

// APIPrefix is the path prefix of every API route.
const APIPrefix = "/api/v1"

// maxJSONBody caps request bodies decoded as JSON.
const maxJSONBody = 1 << 20

// NewHTTPHandler returns an http.Handler with all routes and middleware
// registered. Private routes require the configured bearer token.
func (s *Server) NewHTTPHandler() http.Handler {
	mux := http.NewServeMux()
	public := func(pattern string, h http.HandlerFunc) { mux.HandleFunc(pattern, h) }
	private := func(pattern string, h http.HandlerFunc) { mux.Handle(pattern, AuthMiddleware(s.authToken, h)) }

	public("GET "+APIPrefix+"/bootcamps", s.handleListBootcamps)
	private("POST "+APIPrefix+"/bootcamps", s.handleCreateBootcamp)
	public("GET "+APIPrefix+"/bootcamps/{id}", s.handleGetBootcamp)
	private("PUT "+APIPrefix+"/bootcamps/{id}", s.handleUpdateBootcamp)
	private("DELETE "+APIPrefix+"/bootcamps/{id}", s.handleDeleteBootcamp)
	public("GET "+APIPrefix+"/bootcamps/radius/{zipcode}/{distance}", s.handleBootcampsInRadius)
	private("PUT "+APIPrefix+"/bootcamps/{id}/photo", s.handleUploadPhoto)

	public("GET "+APIPrefix+"/bootcamps/{bootcampId}/courses", s.handleListBootcampCourses)
	private("POST "+APIPrefix+"/bootcamps/{bootcampId}/courses", s.handleCreateCourse)
	public("GET "+APIPrefix+"/courses", s.handleListCourses)
	public("GET "+APIPrefix+"/courses/{id}", s.handleGetCourse)
	private("PUT "+APIPrefix+"/courses/{id}", s.handleUpdateCourse)
	private("DELETE "+APIPrefix+"/courses/{id}", s.handleDeleteCourse)

	public("POST "+APIPrefix+"/auth/register", s.handleRegister)

	public("GET "+APIPrefix+"/health", s.handleHealth)
	private("GET "+APIPrefix+"/events/stream", s.handleEventStream)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Route %s %s not found", r.Method, r.URL.Path))
	})

	var h http.Handler = mux
	h = corsMiddleware(s.corsOrigins, h)
	h = rateLimit(s.ratePerMinute, s.rateBurst, h)
	if s.metrics != nil {
		h = s.metrics.Middleware(h)
	}
	h = logRequests(s.logger, h)
	return recoverMiddleware(s.logger, h)
}

// handleHealth handles GET /api/v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"success": false, "status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "status": "ok"})
}

// listResponse is the envelope of query-builder endpoints.
type listResponse struct {
	Success    bool             `json:"success"`
	Count      int              `json:"count"`
	Pagination query.Pagination `json:"pagination"`
	Data       []query.Document `json:"data"`
}

func writeList(w http.ResponseWriter, res *query.Result) {
	writeJSON(w, http.StatusOK, listResponse{
		Success:    true,
		Count:      len(res.Items),
		Pagination: res.Pagination,
		Data:       res.Items,
	})
}

// writeData writes {"success": true, "data": data}.
func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"success": true, "data": data})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}

// writeErr maps an error onto a status code. Messages of unexpected errors
// stay in the log.
func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ie query.InputError
		ve *model.ValidationError
		se *query.StoreError
		me *http.MaxBytesError
	)
	switch {
	case errors.As(err, &ie):
		writeError(w, http.StatusBadRequest, ie.Error())
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   ve.Error(),
			"fields":  ve.Errors,
		})
	case errors.As(err, &me):
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body larger than %d bytes", me.Limit))
	case errors.Is(err, upload.ErrInvalidFile):
		writeError(w, http.StatusBadRequest, upload.Message(err))
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusBadRequest, "Duplicate field value entered")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, geocode.ErrUnavailable):
		s.logger.Warn("geocoder unavailable", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusServiceUnavailable, "Geocoding service unavailable")
	case errors.As(err, &se):
		// Already logged by the query builder.
		writeError(w, http.StatusInternalServerError, "Server Error")
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Server Error")
	}
}

// decodeJSON reads a JSON object body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		var me *http.MaxBytesError
		if errors.As(err, &me) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return query.InputError("request body is empty")
		}
		return query.InputError("invalid JSON body: " + err.Error())
	}
	return nil
}
