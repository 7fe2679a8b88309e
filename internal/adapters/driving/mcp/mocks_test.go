package mcp

import (
	"context"
	"io"
	"time"

	"github.com/custodia-labs/courselens/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.SearchHit
	err     error

	gotKind  domain.SourceKind
	gotLimit int
}

func (m *mockSearchService) Search(
	_ context.Context, _ string, kind domain.SourceKind, limit int,
) ([]domain.SearchHit, error) {
	m.gotKind = kind
	m.gotLimit = limit
	return m.results, m.err
}

// mockContextService is a mock implementation of driving.ContextService.
type mockContextService struct {
	bundle   domain.ContextBundle
	err      error
	gotCount int
}

func (m *mockContextService) BuildContext(ctx context.Context, query string) (domain.ContextBundle, error) {
	return m.BuildContextN(ctx, query, 0)
}

func (m *mockContextService) BuildContextN(_ context.Context, _ string, count int) (domain.ContextBundle, error) {
	m.gotCount = count
	return m.bundle, m.err
}

// mockEmbeddingService is a mock implementation of driving.EmbeddingService.
type mockEmbeddingService struct {
	stats *domain.EmbeddingStats
	err   error
}

func (m *mockEmbeddingService) Generate(_ context.Context, _ domain.GenerateRequest) (*domain.GenerateResult, error) {
	return &domain.GenerateResult{}, m.err
}

func (m *mockEmbeddingService) Stats(_ context.Context, _ domain.SourceKind, _ time.Time) (*domain.EmbeddingStats, error) {
	return m.stats, m.err
}

// mockBatchService is a mock implementation of driving.BatchService.
type mockBatchService struct {
	report *domain.ProgressReport
	err    error

	gotForce    bool
	gotPageSize int
}

func (m *mockBatchService) Run(
	ctx context.Context, scope domain.SourceKind, force bool, onProgress func(domain.ProgressEvent),
) (*domain.ProgressReport, error) {
	return m.RunPages(ctx, scope, force, 0, onProgress)
}

func (m *mockBatchService) RunPages(
	_ context.Context, _ domain.SourceKind, force bool, pageSize int, _ func(domain.ProgressEvent),
) (*domain.ProgressReport, error) {
	m.gotForce = force
	m.gotPageSize = pageSize
	return m.report, m.err
}

func (m *mockBatchService) State() domain.BatchState {
	return domain.BatchStateIdle
}

// mockCatalogService is a mock implementation of driving.CatalogService.
type mockCatalogService struct {
	courses []domain.Course
	err     error
}

func (m *mockCatalogService) Import(_ context.Context, _ io.Reader) (*domain.ImportResult, error) {
	return &domain.ImportResult{}, m.err
}

func (m *mockCatalogService) Get(_ context.Context, number string) (*domain.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.courses {
		c := &m.courses[i]
		if c.Number == number {
			return c, nil
		}
		for _, a := range c.Aliases {
			if a == number {
				return c, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockCatalogService) List(_ context.Context) ([]domain.Course, error) {
	return m.courses, m.err
}

func requiredPorts() *Ports {
	return &Ports{
		Search:  &mockSearchService{},
		Context: &mockContextService{bundle: domain.EmptyContextBundle("")},
	}
}
