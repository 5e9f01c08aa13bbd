package model

import (
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/alfredjeanlab/devcamper/internal/query"
)

// Career is one of the career paths a bootcamp can prepare students for.
type Career string

const (
	CareerWebDevelopment    Career = "Web Development"
	CareerMobileDevelopment Career = "Mobile Development"
	CareerUIUX              Career = "UI/UX"
	CareerDataScience       Career = "Data Science"
	CareerBusiness          Career = "Business"
	CareerOther             Career = "Other"
)

// IsValid checks whether the career is a known value.
func (c Career) IsValid() bool {
	switch c {
	case CareerWebDevelopment, CareerMobileDevelopment, CareerUIUX,
		CareerDataScience, CareerBusiness, CareerOther:
		return true
	}
	return false
}

// DefaultPhoto is the photo name of a bootcamp that has none uploaded.
const DefaultPhoto = "no-photo.jpg"

// Bootcamp is a coding school that offers courses.
type Bootcamp struct {
	ID            string    `json:"_id" bson:"_id"`
	Name          string    `json:"name" bson:"name"`
	Slug          string    `json:"slug,omitempty" bson:"slug,omitempty"`
	Description   string    `json:"description" bson:"description"`
	Website       string    `json:"website,omitempty" bson:"website,omitempty"`
	Phone         string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Email         string    `json:"email,omitempty" bson:"email,omitempty"`
	Address       string    `json:"address,omitempty" bson:"address,omitempty"`
	Location      *Location `json:"location,omitempty" bson:"location,omitempty"`
	Careers       []Career  `json:"careers" bson:"careers"`
	AverageRating *float64  `json:"averageRating,omitempty" bson:"averageRating,omitempty"`
	AverageCost   *float64  `json:"averageCost,omitempty" bson:"averageCost,omitempty"`
	Photo         string    `json:"photo" bson:"photo"`
	Housing       bool      `json:"housing" bson:"housing"`
	JobAssistance bool      `json:"jobAssistance" bson:"jobAssistance"`
	JobGuarantee  bool      `json:"jobGuarantee" bson:"jobGuarantee"`
	AcceptGi      bool      `json:"acceptGi" bson:"acceptGi"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
}

// Location is a GeoJSON point plus the address components the geocoder
// resolved for it. Coordinates are [longitude, latitude].
type Location struct {
	Type             string    `json:"type" bson:"type"`
	Coordinates      []float64 `json:"coordinates" bson:"coordinates"`
	FormattedAddress string    `json:"formattedAddress,omitempty" bson:"formattedAddress,omitempty"`
	Street           string    `json:"street,omitempty" bson:"street,omitempty"`
	City             string    `json:"city,omitempty" bson:"city,omitempty"`
	State            string    `json:"state,omitempty" bson:"state,omitempty"`
	Zipcode          string    `json:"zipcode,omitempty" bson:"zipcode,omitempty"`
	Country          string    `json:"country,omitempty" bson:"country,omitempty"`
}

// NewPoint returns a GeoJSON point location.
func NewPoint(lng, lat float64) *Location {
	return &Location{Type: "Point", Coordinates: []float64{lng, lat}}
}

// Normalize trims user input, fills defaults and derives the slug.
func (b *Bootcamp) Normalize() {
	b.Name = strings.TrimSpace(b.Name)
	b.Description = strings.TrimSpace(b.Description)
	b.Email = strings.TrimSpace(b.Email)
	b.Website = strings.TrimSpace(b.Website)
	if b.Photo == "" {
		b.Photo = DefaultPhoto
	}
	b.Slug = slug.Make(b.Name)
}

// BootcampSchema types the bootcamp fields list queries may filter on.
var BootcampSchema = query.Schema{
	"averageRating": query.Number,
	"averageCost":   query.Number,
	"housing":       query.Bool,
	"jobAssistance": query.Bool,
	"jobGuarantee":  query.Bool,
	"acceptGi":      query.Bool,
	"careers":       query.StringArray,
	"createdAt":     query.Date,
}
