package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/alfredjeanlab/devcamper/internal/events"
	"github.com/alfredjeanlab/devcamper/internal/geocode"
	"github.com/alfredjeanlab/devcamper/internal/idgen"
	"github.com/alfredjeanlab/devcamper/internal/model"
	"github.com/alfredjeanlab/devcamper/internal/query"
	"github.com/alfredjeanlab/devcamper/internal/store"
	"github.com/alfredjeanlab/devcamper/internal/upload"
)

// multipartOverhead is the slack allowed above the photo size cap for the
// multipart envelope.
const multipartOverhead = 64 << 10

// bootcampReadOnly lists fields clients cannot set directly on update.
var bootcampReadOnly = []string{"_id", "slug", "photo", "location", "createdAt"}

// handleListBootcamps handles GET /api/v1/bootcamps.
func (s *Server) handleListBootcamps(w http.ResponseWriter, r *http.Request) {
	res, err := s.builder.Execute(r.Context(), s.store.Bootcamps(), r.URL.Query(), model.CoursesRelation)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeList(w, res)
}

// handleGetBootcamp handles GET /api/v1/bootcamps/{id}.
func (s *Server) handleGetBootcamp(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBootcamp(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	writeData(w, http.StatusOK, b)
}

// handleCreateBootcamp handles POST /api/v1/bootcamps.
func (s *Server) handleCreateBootcamp(w http.ResponseWriter, r *http.Request) {
	var b model.Bootcamp
	if err := decodeJSON(w, r, &b); err != nil {
		s.writeErr(w, r, err)
		return
	}

	id, err := idgen.New()
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	b.ID = id
	b.CreatedAt = time.Now().UTC()
	b.Photo = ""
	b.Location = nil
	b.Normalize()
	if err := model.ValidateBootcamp(&b, true); err != nil {
		s.writeErr(w, r, err)
		return
	}
	b.Location = s.locate(r.Context(), b.Address)

	if err := s.store.CreateBootcamp(r.Context(), &b); err != nil {
		s.writeErr(w, r, err)
		return
	}

	s.publish(r.Context(), events.TopicBootcampCreated, events.BootcampCreated{Bootcamp: &b})
	writeData(w, http.StatusCreated, &b)
}

// handleUpdateBootcamp handles PUT /api/v1/bootcamps/{id}. Fields absent from
// the body keep their stored values.
func (s *Server) handleUpdateBootcamp(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBootcamp(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	orig := *b
	changes, err := decodePatch(w, r, b, bootcampReadOnly)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	b.ID, b.CreatedAt, b.Photo, b.Location = orig.ID, orig.CreatedAt, orig.Photo, orig.Location
	b.Normalize()
	if err := model.ValidateBootcamp(b, false); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if b.Address != orig.Address {
		b.Location = s.locate(r.Context(), b.Address)
	}

	if err := s.store.UpdateBootcamp(r.Context(), b); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			bootcampNotFound(w, b.ID)
			return
		}
		s.writeErr(w, r, err)
		return
	}

	s.publish(r.Context(), events.TopicBootcampUpdated, events.BootcampUpdated{Bootcamp: b, Changes: changes})
	writeData(w, http.StatusOK, b)
}

// handleDeleteBootcamp handles DELETE /api/v1/bootcamps/{id}.
func (s *Server) handleDeleteBootcamp(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !idgen.Valid(id) {
		bootcampNotFound(w, id)
		return
	}

	if err := s.store.DeleteBootcamp(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			bootcampNotFound(w, id)
			return
		}
		s.writeErr(w, r, err)
		return
	}

	s.publish(r.Context(), events.TopicBootcampDeleted, events.BootcampDeleted{BootcampID: id})
	writeData(w, http.StatusOK, struct{}{})
}

// handleBootcampsInRadius handles GET /api/v1/bootcamps/radius/{zipcode}/{distance}.
// distance is in miles.
func (s *Server) handleBootcampsInRadius(w http.ResponseWriter, r *http.Request) {
	zipcode := r.PathValue("zipcode")
	distance, err := strconv.ParseFloat(r.PathValue("distance"), 64)
	if err != nil || !(distance > 0) || math.IsInf(distance, 0) {
		writeError(w, http.StatusBadRequest, "distance must be a positive number of miles")
		return
	}

	loc, err := geocode.First(r.Context(), s.geocoder, zipcode)
	if errors.Is(err, geocode.ErrNoResults) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("No location found for zipcode %s", zipcode))
		return
	}
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	bootcamps, err := s.store.BootcampsWithinRadius(r.Context(), loc.Longitude, loc.Latitude, geocode.Radians(distance))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if bootcamps == nil {
		bootcamps = []*model.Bootcamp{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(bootcamps),
		"data":    bootcamps,
	})
}

// handleUploadPhoto handles PUT /api/v1/bootcamps/{id}/photo. The response is
// sent only after the file is stored and the bootcamp references it.
func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBootcamp(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	if s.uploads == nil {
		writeError(w, http.StatusServiceUnavailable, "Photo uploads are not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var me *http.MaxBytesError
		if errors.As(err, &me) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Please upload an image less than %d", s.maxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "Please upload a file")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Please upload a file")
		return
	}
	defer file.Close()

	contentType := hdr.Header.Get("Content-Type")
	if err := upload.CheckImage(contentType, hdr.Size, s.maxUploadBytes); err != nil {
		s.writeErr(w, r, err)
		return
	}

	name := upload.PhotoName(b.ID, hdr.Filename)
	if err := s.uploads.Save(r.Context(), name, contentType, io.LimitReader(file, s.maxUploadBytes)); err != nil {
		s.logger.Error("photo upload failed", "bootcamp_id", b.ID, "file", name, "error", err)
		writeError(w, http.StatusInternalServerError, "Problem with file upload")
		return
	}
	if err := s.store.UpdateBootcampPhoto(r.Context(), b.ID, name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			bootcampNotFound(w, b.ID)
			return
		}
		s.writeErr(w, r, err)
		return
	}

	s.publish(r.Context(), events.TopicBootcampPhotoUploaded, events.BootcampPhotoUploaded{BootcampID: b.ID, Photo: name})
	writeData(w, http.StatusOK, name)
}

// loadBootcamp fetches the bootcamp with the given id, writing a 404 when it
// does not exist.
func (s *Server) loadBootcamp(w http.ResponseWriter, r *http.Request, id string) (*model.Bootcamp, bool) {
	if !idgen.Valid(id) {
		bootcampNotFound(w, id)
		return nil, false
	}
	b, err := s.store.GetBootcamp(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		bootcampNotFound(w, id)
		return nil, false
	}
	if err != nil {
		s.writeErr(w, r, err)
		return nil, false
	}
	return b, true
}

func bootcampNotFound(w http.ResponseWriter, id string) {
	writeError(w, http.StatusNotFound, fmt.Sprintf("No bootcamp with id of: %s", id))
}

// locate geocodes address into a GeoJSON point. A failed lookup leaves the
// bootcamp without a location.
func (s *Server) locate(ctx context.Context, address string) *model.Location {
	if address == "" {
		return nil
	}
	loc, err := geocode.First(ctx, s.geocoder, address)
	if err != nil {
		s.logger.Warn("geocoding failed, storing bootcamp without location", "address", address, "error", err)
		return nil
	}
	l := model.NewPoint(loc.Longitude, loc.Latitude)
	l.FormattedAddress = loc.FormattedAddress
	l.Street = loc.Street
	l.City = loc.City
	l.State = loc.State
	l.Zipcode = loc.Zipcode
	l.Country = loc.Country
	return l
}

// decodePatch applies a JSON object body onto dst and returns the fields it
// named. Keys in readOnly are dropped from the result; callers restore them.
func decodePatch(w http.ResponseWriter, r *http.Request, dst any, readOnly []string) (map[string]any, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		return nil, err
	}
	var changes map[string]any
	if err := json.Unmarshal(body, &changes); err != nil {
		return nil, query.InputError("invalid JSON body: " + err.Error())
	}
	if changes == nil {
		return nil, query.InputError("request body must be a JSON object")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return nil, query.InputError("invalid JSON body: " + err.Error())
	}
	for _, k := range readOnly {
		delete(changes, k)
	}
	return changes, nil
}
