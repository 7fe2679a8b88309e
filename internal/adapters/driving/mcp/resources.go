package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/courselens/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for courselens resources.
	uriScheme = "courselens://"
)

// registerResources registers the catalog resources when a catalog is wired.
func (s *Server) registerResources() {
	if s.ports.Catalog == nil {
		return
	}

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "courses",
		Name:        "courses",
		Description: "All catalog courses with their listing numbers",
		MIMEType:    "application/json",
	}, s.handleCoursesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "courses/{number}",
		Name:        "course",
		Description: "Catalog entry for one course, by primary or alias number",
		MIMEType:    "application/json",
	}, s.handleCourseResource)
}

// courseInfo is the resource view of a course.
type courseInfo struct {
	Number        string   `json:"number"`
	Aliases       []string `json:"aliases,omitempty"`
	Department    string   `json:"department,omitempty"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Units         string   `json:"units,omitempty"`
	Instructors   []string `json:"instructors,omitempty"`
	Prerequisites string   `json:"prerequisites,omitempty"`
	Corequisites  string   `json:"corequisites,omitempty"`
	Active        bool     `json:"active"`
}

func toCourseInfo(c *domain.Course) courseInfo {
	return courseInfo{
		Number:        c.Number,
		Aliases:       c.Aliases,
		Department:    c.Department,
		Title:         c.Title,
		Description:   c.Description,
		Units:         c.Units,
		Instructors:   c.Instructors,
		Prerequisites: c.Prerequisites,
		Corequisites:  c.Corequisites,
		Active:        c.Active,
	}
}

// handleCoursesResource lists every course without descriptions.
func (s *Server) handleCoursesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	courses, err := s.ports.Catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}

	infos := make([]courseInfo, len(courses))
	for i := range courses {
		infos[i] = toCourseInfo(&courses[i])
		infos[i].Description = ""
	}
	return jsonResource(req.Params.URI, infos)
}

// handleCourseResource returns one course.
func (s *Server) handleCourseResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	number := extractCourseNumber(req.Params.URI)
	if number == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	course, err := s.ports.Catalog.Get(ctx, number)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting course: %w", err)
	}
	return jsonResource(req.Params.URI, toCourseInfo(course))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractCourseNumber extracts the number from a URI like courselens://courses/{number}.
func extractCourseNumber(uri string) string {
	const prefix = uriScheme + "courses/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	number := strings.TrimPrefix(uri, prefix)
	if strings.Contains(number, "/") {
		return ""
	}
	return number
}
