package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/courselens/internal/core/domain"
	"github.com/custodia-labs/courselens/internal/core/ports/driven"
	"github.com/custodia-labs/courselens/internal/core/ports/driving"
	"github.com/custodia-labs/courselens/internal/logger"
)

// Ensure CatalogService implements the interface.
var _ driving.CatalogService = (*CatalogService)(nil)

// catalogDocument is the JSON layout accepted by Import.
type catalogDocument struct {
	Courses []catalogCourse  `json:"courses"`
	Reviews []catalogReview  `json:"reviews"`
	Content []catalogContent `json:"content"`
}

type catalogCourse struct {
	Number        string   `json:"number"`
	Aliases       []string `json:"aliases"`
	Department    string   `json:"department"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Units         string   `json:"units"`
	Instructors   []string `json:"instructors"`
	Prerequisites string   `json:"prerequisites"`
	Corequisites  string   `json:"corequisites"`
	Active        *bool    `json:"active"`
}

type catalogReview struct {
	ID        string    `json:"id"`
	Course    string    `json:"course"`
	Text      string    `json:"text"`
	Rating    int       `json:"rating"`
	Visible   *bool     `json:"visible"`
	CreatedAt time.Time `json:"created_at"`
}

type catalogContent struct {
	ID        string    `json:"id"`
	Course    string    `json:"course"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Format    string    `json:"format"`
	CreatedAt time.Time `json:"created_at"`
}

// CatalogService loads and reads the local course catalog.
type CatalogService struct {
	courses driven.CourseStore
	reviews driven.ReviewStore
	content     driven.ContentStore
	normalisers driven.NormaliserRegistry
	now         func() time.Time
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(courses driven.CourseStore, reviews driven.ReviewStore, content driven.ContentStore) *CatalogService {
	return &CatalogService{
		courses: courses,
		reviews: reviews,
		content: content,
		now:     time.Now,
	}
}

// WithNormalisers enables format conversion for imported content items.
// Without a registry, content text is stored as given.
func (s *CatalogService) WithNormalisers(r driven.NormaliserRegistry) *CatalogService {
	s.normalisers = r
	return s
}

// Import reads a catalog document and stores its courses, reviews and
// content. Courses are saved first so reviews and content can reference
// them by any listing number.
func (s *CatalogService) Import(ctx context.Context, r io.Reader) (*domain.ImportResult, error) {
	var doc catalogDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode catalog: %w", domain.ErrValidation, err)
	}

	now := s.now()
	result := &domain.ImportResult{}

	for _, c := range doc.Courses {
		if strings.TrimSpace(c.Number) == "" {
			return result, fmt.Errorf("%w: course without a number", domain.ErrValidation)
		}
		course := domain.Course{
			Number:        strings.TrimSpace(c.Number),
			Aliases:       domain.NewCourseIdentity(c.Number, c.Aliases).Aliases,
			Department:    c.Department,
			Title:         c.Title,
			Description:   c.Description,
			Units:         c.Units,
			Instructors:   c.Instructors,
			Prerequisites: c.Prerequisites,
			Corequisites:  c.Corequisites,
			Active:        c.Active == nil || *c.Active,
			UpdatedAt:     now,
		}
		if err := s.courses.Save(ctx, course); err != nil {
			return result, fmt.Errorf("save course %s: %w", course.Number, err)
		}
		result.Courses++
	}

	for _, rv := range doc.Reviews {
		number, err := s.primary(ctx, rv.Course)
		if err != nil {
			return result, fmt.Errorf("review %q: %w", rv.ID, err)
		}
		review := domain.Review{
			ID:           orNewID(rv.ID),
			CourseNumber: number,
			Text:         rv.Text,
			Rating:       rv.Rating,
			Visible:      rv.Visible == nil || *rv.Visible,
			CreatedAt:    orTime(rv.CreatedAt, now),
		}
		if err := s.reviews.AddReview(ctx, review); err != nil {
			return result, fmt.Errorf("save review %s: %w", review.ID, err)
		}
		result.Reviews++
	}

	for _, ct := range doc.Content {
		number, err := s.primary(ctx, ct.Course)
		if err != nil {
			return result, fmt.Errorf("content %q: %w", ct.ID, err)
		}
		title, text, err := s.normalise(ct)
		if err != nil {
			return result, fmt.Errorf("content %q: %w", ct.ID, err)
		}
		item := domain.ContentItem{
			ID:           orNewID(ct.ID),
			CourseNumber: number,
			Title:        title,
			Text:         text,
			CreatedAt:    orTime(ct.CreatedAt, now),
		}
		if err := s.content.SaveContent(ctx, item); err != nil {
			return result, fmt.Errorf("save content %s: %w", item.ID, err)
		}
		result.Content++
	}

	logger.Info("Imported %d courses, %d reviews, %d content items", result.Courses, result.Reviews, result.Content)
	return result, nil
}

// normalise converts content markup to text. A title found in the markup
// is used only when the item has none.
func (s *CatalogService) normalise(ct catalogContent) (title, text string, err error) {
	if s.normalisers == nil {
		if ct.Format != "" {
			return "", "", fmt.Errorf("%w: content format %q not supported", domain.ErrValidation, ct.Format)
		}
		return ct.Title, ct.Text, nil
	}
	res, err := s.normalisers.Normalise(ct.Format, ct.Text)
	if err != nil {
		return "", "", err
	}
	title = strings.TrimSpace(ct.Title)
	if title == "" {
		title = res.Title
	}
	return title, res.Text, nil
}

// primary resolves a listing number to its course's primary number.
func (s *CatalogService) primary(ctx context.Context, number string) (string, error) {
	id, err := s.courses.Identity(ctx, strings.TrimSpace(number))
	if err != nil {
		return "", fmt.Errorf("course %q: %w", number, err)
	}
	return id.Primary, nil
}

// Get retrieves a course by primary or alias number.
func (s *CatalogService) Get(ctx context.Context, number string) (*domain.Course, error) {
	return s.courses.Get(ctx, strings.TrimSpace(number))
}

// List returns every course in the catalog.
func (s *CatalogService) List(ctx context.Context) ([]domain.Course, error) {
	return s.courses.List(ctx)
}

func orNewID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func orTime(t, fallback time.Time) time.Time {
	if t.IsZero() {
		return fallback
	}
	return t
}
