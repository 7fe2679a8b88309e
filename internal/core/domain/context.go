package domain

import (
	"fmt"
	"strings"
	"time"
)

// NoContextMessage is rendered for an empty bundle.
const NoContextMessage = "No relevant courses were found."

// ReviewProvenanceLabel heads the review block. Review excerpts are written by
// other students; the consuming model must not attribute them to the requester.
const ReviewProvenanceLabel = "Reviews written by OTHER students (not by the person asking; " +
	"do not assume the person asking has taken any of these courses):"

// ContextBundle is the evidence assembled for one query.
type ContextBundle struct {
	Query           string           `json:"query"`
	Classes         []ContextCourse  `json:"classes"`
	Reviews         []ReviewExcerpt  `json:"reviews"`
	ContentSnippets []ContentSnippet `json:"contentSnippets"`
}

// EmptyContextBundle returns a valid bundle with no evidence.
func EmptyContextBundle(query string) ContextBundle {
	return ContextBundle{
		Query:           query,
		Classes:         []ContextCourse{},
		Reviews:         []ReviewExcerpt{},
		ContentSnippets: []ContentSnippet{},
	}
}

// IsEmpty reports whether the bundle holds no courses.
func (b *ContextBundle) IsEmpty() bool {
	return len(b.Classes) == 0
}

// ContextCourse is one ranked course in a bundle.
type ContextCourse struct {
	Number        string   `json:"number"`
	Aliases       []string `json:"aliases,omitempty"`
	Department    string   `json:"department,omitempty"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Units         string   `json:"units,omitempty"`
	Instructors   []string `json:"instructors,omitempty"`
	WhyRelevant   string   `json:"whyRelevant"`
	Prerequisites string   `json:"prerequisites,omitempty"`
	Corequisites  string   `json:"corequisites,omitempty"`
	Score         float64  `json:"score"`
}

// ReviewExcerpt is a review shown verbatim in the bundle.
type ReviewExcerpt struct {
	CourseNumber string    `json:"courseNumber"`
	Text         string    `json:"text"`
	Rating       int       `json:"rating,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ContentSnippet is an excerpt of uploaded course material.
type ContentSnippet struct {
	CourseNumber string  `json:"courseNumber"`
	Snippet      string  `json:"snippet"`
	Score        float64 `json:"score"`
}

// Render serialises the bundle into one ordered text block: courses first,
// then labelled review excerpts, then content snippets.
func (b *ContextBundle) Render() string {
	if b.IsEmpty() {
		return NoContextMessage
	}

	var sb strings.Builder
	sb.WriteString("Relevant courses:\n")
	for i := range b.Classes {
		c := &b.Classes[i]
		fmt.Fprintf(&sb, "%d. %s", i+1, c.Number)
		if len(c.Aliases) > 0 {
			fmt.Fprintf(&sb, " (also listed as %s)", strings.Join(c.Aliases, ", "))
		}
		if c.Title != "" {
			fmt.Fprintf(&sb, " - %s", c.Title)
		}
		sb.WriteString("\n")
		writeField(&sb, "Department", c.Department)
		writeField(&sb, "Description", c.Description)
		writeField(&sb, "Units", c.Units)
		writeField(&sb, "Instructors", strings.Join(c.Instructors, ", "))
		writeField(&sb, "Why relevant", c.WhyRelevant)
		writeField(&sb, "Prerequisites", c.Prerequisites)
		writeField(&sb, "Corequisites", c.Corequisites)
	}

	if len(b.Reviews) > 0 {
		sb.WriteString("\n")
		sb.WriteString(ReviewProvenanceLabel)
		sb.WriteString("\n")
		for _, r := range b.Reviews {
			fmt.Fprintf(&sb, "- [%s] %q\n", r.CourseNumber, r.Text)
		}
	}

	if len(b.ContentSnippets) > 0 {
		sb.WriteString("\nCourse material excerpts:\n")
		for _, s := range b.ContentSnippets {
			fmt.Fprintf(&sb, "- [%s] %s\n", s.CourseNumber, s.Snippet)
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func writeField(sb *strings.Builder, label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	fmt.Fprintf(sb, "   %s: %s\n", label, value)
}
