package domain

import (
	"strings"
	"time"
)

// Course is a catalog entry. A course cross-listed under several department
// codes has one primary Number and the remaining listings in Aliases.
type Course struct {
	// Number is the primary listing number (e.g. "6.100A").
	Number string

	// Aliases are the other listing numbers for the same course.
	Aliases []string

	// Department is the owning department name or code.
	Department string

	// Title is the catalog title.
	Title string

	// Description is the catalog description.
	Description string

	// Units is the credit description as printed in the catalog.
	Units string

	// Instructors lists the current instructors.
	Instructors []string

	// Prerequisites is free text; empty when there are none.
	Prerequisites string

	// Corequisites is free text; empty when there are none.
	Corequisites string

	// Active marks courses currently offered.
	Active bool

	// UpdatedAt is the last modification time.
	UpdatedAt time.Time
}

// Identity returns the canonical identity of the course.
func (c *Course) Identity() CourseIdentity {
	return NewCourseIdentity(c.Number, c.Aliases)
}

// CourseIdentity groups every listing number that refers to one course.
type CourseIdentity struct {
	// Primary is the canonical listing number.
	Primary string

	// Aliases are the non-primary listing numbers.
	Aliases []string
}

// NewCourseIdentity builds an identity, dropping blanks and the primary from aliases.
func NewCourseIdentity(primary string, aliases []string) CourseIdentity {
	primary = strings.TrimSpace(primary)
	id := CourseIdentity{Primary: primary}
	seen := map[string]bool{primary: true}
	for _, a := range aliases {
		a = strings.TrimSpace(a)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		id.Aliases = append(id.Aliases, a)
	}
	return id
}

// Numbers returns the primary followed by all aliases.
func (id CourseIdentity) Numbers() []string {
	out := make([]string, 0, len(id.Aliases)+1)
	out = append(out, id.Primary)
	return append(out, id.Aliases...)
}

// Has reports whether number is the primary or one of the aliases.
func (id CourseIdentity) Has(number string) bool {
	if id.Primary == number {
		return true
	}
	for _, a := range id.Aliases {
		if a == number {
			return true
		}
	}
	return false
}

// Review is a student review of a course.
type Review struct {
	ID           string
	CourseNumber string
	Text         string
	Rating       int
	Visible      bool
	CreatedAt    time.Time
}

// IsPublishable reports whether the review may be shown as an excerpt.
func (r *Review) IsPublishable() bool {
	return r.Visible && strings.TrimSpace(r.Text) != ""
}

// ContentItem is text extracted from a file uploaded for a course.
type ContentItem struct {
	ID           string
	CourseNumber string
	Title        string
	Text         string
	CreatedAt    time.Time
}

// ImportResult summarises a catalog import.
type ImportResult struct {
	Courses int `json:"courses"`
	Reviews int `json:"reviews"`
	Content int `json:"content"`
}
