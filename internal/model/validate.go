package model

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error formats the validation error as a comma-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + " " + fe.Message
	}
	return strings.Join(parts, ", ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) err() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// ValidateBootcamp checks a normalized Bootcamp for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the bootcamp is valid.
func ValidateBootcamp(b *Bootcamp, requireAddress bool) error {
	var ve ValidationError

	switch n := len([]rune(b.Name)); {
	case n == 0:
		ve.add("name", "is required")
	case n > 50:
		ve.add("name", "can not be more than 50 characters")
	}

	switch n := len([]rune(b.Description)); {
	case n == 0:
		ve.add("description", "is required")
	case n > 500:
		ve.add("description", "can not be more than 500 characters")
	}

	if b.Website != "" {
		u, err := url.Parse(b.Website)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			ve.add("website", "must be a valid URL with HTTP or HTTPS")
		}
	}

	if len([]rune(b.Phone)) > 20 {
		ve.add("phone", "can not be longer than 20 characters")
	}

	if b.Email != "" && !emailPattern.MatchString(b.Email) {
		ve.add("email", "must be a valid email")
	}

	if requireAddress && strings.TrimSpace(b.Address) == "" {
		ve.add("address", "is required")
	}

	if len(b.Careers) == 0 {
		ve.add("careers", "is required")
	}
	for _, c := range b.Careers {
		if !c.IsValid() {
			ve.add("careers", "invalid value %q", c)
		}
	}

	if r := b.AverageRating; r != nil && (*r < 1 || *r > 10) {
		ve.add("averageRating", "must be between 1 and 10")
	}

	if c := b.AverageCost; c != nil && *c < 0 {
		ve.add("averageCost", "can not be negative")
	}

	return ve.err()
}

// ValidateCourse checks a normalized Course for constraint violations.
func ValidateCourse(c *Course) error {
	var ve ValidationError

	if c.Title == "" {
		ve.add("title", "is required")
	}
	if c.Description == "" {
		ve.add("description", "is required")
	}
	if c.Weeks == "" {
		ve.add("weeks", "is required")
	}
	switch {
	case c.Tuition == nil:
		ve.add("tuition", "is required")
	case *c.Tuition < 0:
		ve.add("tuition", "can not be negative")
	}
	if c.MinimumSkill == "" {
		ve.add("minimumSkill", "is required")
	} else if !c.MinimumSkill.IsValid() {
		ve.add("minimumSkill", "invalid value %q", c.MinimumSkill)
	}
	if c.Bootcamp == "" {
		ve.add("bootcamp", "is required")
	}

	return ve.err()
}

// ValidateRegistration checks a normalized registration request.
func ValidateRegistration(r *Registration) error {
	var ve ValidationError

	if r.Name == "" {
		ve.add("name", "is required")
	}
	if r.Email == "" {
		ve.add("email", "is required")
	} else if !emailPattern.MatchString(r.Email) {
		ve.add("email", "must be a valid email")
	}
	switch {
	case len(r.Password) < MinPasswordLength:
		ve.add("password", "must be at least %d characters", MinPasswordLength)
	case len(r.Password) > MaxPasswordBytes:
		ve.add("password", "can not be longer than %d bytes", MaxPasswordBytes)
	}
	// Admins are created out of band.
	if r.Role != RoleUser && r.Role != RolePublisher {
		ve.add("role", "invalid value %q", r.Role)
	}

	return ve.err()
}
