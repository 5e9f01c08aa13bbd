package model

import (
	"strings"
	"time"

	"github.com/alfredjeanlab/devcamper/internal/query"
)

// Skill is the minimum skill level a course expects.
type Skill string

const (
	SkillBeginner     Skill = "beginner"
	SkillIntermediate Skill = "intermediate"
	SkillAdvanced     Skill = "advanced"
)

// IsValid checks whether the skill is a known value.
func (s Skill) IsValid() bool {
	switch s {
	case SkillBeginner, SkillIntermediate, SkillAdvanced:
		return true
	}
	return false
}

// Course belongs to exactly one bootcamp.
type Course struct {
	ID                   string    `json:"_id" bson:"_id"`
	Title                string    `json:"title" bson:"title"`
	Description          string    `json:"description" bson:"description"`
	Weeks                string    `json:"weeks" bson:"weeks"`
	Tuition              *float64  `json:"tuition" bson:"tuition"`
	MinimumSkill         Skill     `json:"minimumSkill" bson:"minimumSkill"`
	ScholarshipAvailable bool      `json:"scholarshipAvailable" bson:"scholarshipAvailable"`
	CreatedAt            time.Time `json:"createdAt" bson:"createdAt"`
	Bootcamp             string    `json:"bootcamp" bson:"bootcamp"`
}

// Normalize trims user input.
func (c *Course) Normalize() {
	c.Title = strings.TrimSpace(c.Title)
	c.Description = strings.TrimSpace(c.Description)
	c.Weeks = strings.TrimSpace(c.Weeks)
}

// BootcampSummary is the slice of a bootcamp embedded in course responses.
type BootcampSummary struct {
	ID          string `json:"_id" bson:"_id"`
	Name        string `json:"name" bson:"name"`
	Description string `json:"description" bson:"description"`
}

// CourseWithBootcamp is a course whose bootcamp reference is expanded.
type CourseWithBootcamp struct {
	Course
	Bootcamp *BootcampSummary `json:"bootcamp"`
}

// CourseSchema types the course fields list queries may filter on.
var CourseSchema = query.Schema{
	"tuition":              query.Number,
	"scholarshipAvailable": query.Bool,
	"createdAt":            query.Date,
}

// BootcampRelation expands a course's bootcamp id into its name and description.
var BootcampRelation = &query.Populate{
	Path:         "bootcamp",
	From:         "bootcamps",
	LocalField:   "bootcamp",
	ForeignField: "_id",
	Select:       []string{"name", "description"},
}

// CoursesRelation lists a bootcamp's courses under "courses".
var CoursesRelation = &query.Populate{
	Path:         "courses",
	From:         "courses",
	LocalField:   "_id",
	ForeignField: "bootcamp",
	Many:         true,
}
