// Package events publishes change notifications for bootcamps, courses and
// users on NATS subjects.
package events

import (
	"context"

	"github.com/alfredjeanlab/devcamper/internal/model"
)

// Event topic constants
const (
	TopicBootcampCreated       = "devcamper.bootcamp.created"
	TopicBootcampUpdated       = "devcamper.bootcamp.updated"
	TopicBootcampDeleted       = "devcamper.bootcamp.deleted"
	TopicBootcampPhotoUploaded = "devcamper.bootcamp.photo_uploaded"

	TopicCourseCreated = "devcamper.course.created"
	TopicCourseUpdated = "devcamper.course.updated"
	TopicCourseDeleted = "devcamper.course.deleted"

	TopicUserRegistered = "devcamper.user.registered"

	// TopicAll matches every devcamper subject.
	TopicAll = "devcamper.>"
)

// Event types

type BootcampCreated struct {
	Bootcamp *model.Bootcamp `json:"bootcamp"`
}

type BootcampUpdated struct {
	Bootcamp *model.Bootcamp `json:"bootcamp"`
	Changes  map[string]any  `json:"changes"` // field name -> new value
}

type BootcampDeleted struct {
	BootcampID string `json:"bootcamp_id"`
}

type BootcampPhotoUploaded struct {
	BootcampID string `json:"bootcamp_id"`
	Photo      string `json:"photo"`
}

type CourseCreated struct {
	Course *model.Course `json:"course"`
}

type CourseUpdated struct {
	Course  *model.Course  `json:"course"`
	Changes map[string]any `json:"changes"`
}

type CourseDeleted struct {
	CourseID   string `json:"course_id"`
	BootcampID string `json:"bootcamp_id"`
}

// UserRegistered never carries the password hash.
type UserRegistered struct {
	UserID string     `json:"user_id"`
	Email  string     `json:"email"`
	Role   model.Role `json:"role"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
