package server

import (
	"net/http"
	"time"

	"github.com/alfredjeanlab/devcamper/internal/events"
	"github.com/alfredjeanlab/devcamper/internal/idgen"
	"github.com/alfredjeanlab/devcamper/internal/model"
)

// handleRegister handles POST /api/v1/auth/register.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg model.Registration
	if err := decodeJSON(w, r, &reg); err != nil {
		s.writeErr(w, r, err)
		return
	}
	reg.Normalize()
	if err := model.ValidateRegistration(&reg); err != nil {
		s.writeErr(w, r, err)
		return
	}

	id, err := idgen.New()
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	u := &model.User{
		ID:        id,
		Name:      reg.Name,
		Email:     reg.Email,
		Role:      reg.Role,
		CreatedAt: time.Now().UTC(),
	}
	if err := u.SetPassword(reg.Password); err != nil {
		s.writeErr(w, r, err)
		return
	}

	if err := s.store.CreateUser(r.Context(), u); err != nil {
		s.writeErr(w, r, err)
		return
	}

	s.publish(r.Context(), events.TopicUserRegistered, events.UserRegistered{UserID: u.ID, Email: u.Email, Role: u.Role})
	writeData(w, http.StatusCreated, u)
}
