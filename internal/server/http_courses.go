package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alfredjeanlab/devcamper/internal/events"
	"github.com/alfredjeanlab/devcamper/internal/idgen"
	"github.com/alfredjeanlab/devcamper/internal/model"
	"github.com/alfredjeanlab/devcamper/internal/store"
)

// courseReadOnly lists fields clients cannot set directly on update. A course
// never moves to another bootcamp.
var courseReadOnly = []string{"_id", "bootcamp", "createdAt"}

// handleListCourses handles GET /api/v1/courses.
func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	res, err := s.builder.Execute(r.Context(), s.store.Courses(), r.URL.Query(), model.BootcampRelation)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeList(w, res)
}

// handleListBootcampCourses handles GET /api/v1/bootcamps/{bootcampId}/courses.
func (s *Server) handleListBootcampCourses(w http.ResponseWriter, r *http.Request) {
	bootcampID := r.PathValue("bootcampId")
	if !idgen.Valid(bootcampID) {
		bootcampNotFound(w, bootcampID)
		return
	}

	courses, err := s.store.ListCoursesByBootcamp(r.Context(), bootcampID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if courses == nil {
		courses = []*model.Course{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(courses),
		"data":    courses,
	})
}

// handleGetCourse handles GET /api/v1/courses/{id}. The response embeds the
// name and description of the course's bootcamp.
func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadCourse(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	out := model.CourseWithBootcamp{Course: *c}
	b, err := s.store.GetBootcamp(r.Context(), c.Bootcamp)
	switch {
	case err == nil:
		out.Bootcamp = &model.BootcampSummary{ID: b.ID, Name: b.Name, Description: b.Description}
	case !errors.Is(err, store.ErrNotFound):
		s.writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

// handleCreateCourse handles POST /api/v1/bootcamps/{bootcampId}/courses.
func (s *Server) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBootcamp(w, r, r.PathValue("bootcampId"))
	if !ok {
		return
	}

	var c model.Course
	if err := decodeJSON(w, r, &c); err != nil {
		s.writeErr(w, r, err)
		return
	}
	id, err := idgen.New()
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	c.ID = id
	c.Bootcamp = b.ID
	c.CreatedAt = time.Now().UTC()
	c.Normalize()
	if err := model.ValidateCourse(&c); err != nil {
		s.writeErr(w, r, err)
		return
	}

	if err := s.store.CreateCourse(r.Context(), &c); err != nil {
		s.writeErr(w, r, err)
		return
	}

	s.publish(r.Context(), events.TopicCourseCreated, events.CourseCreated{Course: &c})
	writeData(w, http.StatusCreated, &c)
}

// handleUpdateCourse handles PUT /api/v1/courses/{id}.
func (s *Server) handleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadCourse(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	orig := *c
	changes, err := decodePatch(w, r, c, courseReadOnly)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	c.ID, c.Bootcamp, c.CreatedAt = orig.ID, orig.Bootcamp, orig.CreatedAt
	c.Normalize()
	if err := model.ValidateCourse(c); err != nil {
		s.writeErr(w, r, err)
		return
	}

	if err := s.store.UpdateCourse(r.Context(), c); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			courseNotFound(w, c.ID)
			return
		}
		s.writeErr(w, r, err)
		return
	}

	s.publish(r.Context(), events.TopicCourseUpdated, events.CourseUpdated{Course: c, Changes: changes})
	writeData(w, http.StatusOK, c)
}

// handleDeleteCourse handles DELETE /api/v1/courses/{id}.
func (s *Server) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadCourse(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	if err := s.store.DeleteCourse(r.Context(), c.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			courseNotFound(w, c.ID)
			return
		}
		s.writeErr(w, r, err)
		return
	}

	s.publish(r.Context(), events.TopicCourseDeleted, events.CourseDeleted{CourseID: c.ID, BootcampID: c.Bootcamp})
	writeData(w, http.StatusOK, struct{}{})
}

func (s *Server) loadCourse(w http.ResponseWriter, r *http.Request, id string) (*model.Course, bool) {
	if !idgen.Valid(id) {
		courseNotFound(w, id)
		return nil, false
	}
	c, err := s.store.GetCourse(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		courseNotFound(w, id)
		return nil, false
	}
	if err != nil {
		s.writeErr(w, r, err)
		return nil, false
	}
	return c, true
}

func courseNotFound(w http.ResponseWriter, id string) {
	writeError(w, http.StatusNotFound, fmt.Sprintf("No course with id of: %s", id))
}
