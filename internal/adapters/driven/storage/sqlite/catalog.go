package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/courselens/internal/core/domain"
	"github.com/custodia-labs/courselens/internal/core/ports/driven"
)

// CatalogStore implements the catalog ports over SQLite.
type CatalogStore struct {
	store *Store
}

var (
	_ driven.CourseStore     = (*CatalogStore)(nil)
	_ driven.ReviewStore     = (*CatalogStore)(nil)
	_ driven.ContentStore    = (*CatalogStore)(nil)
	_ driven.SourceItemStore = (*CatalogStore)(nil)
)

// Save stores or updates a course and re-points its listing numbers.
func (s *CatalogStore) Save(ctx context.Context, course domain.Course) error {
	id := course.Identity()
	if id.Primary == "" {
		return fmt.Errorf("%w: course number is required", domain.ErrValidation)
	}

	instructors, err := json.Marshal(course.Instructors)
	if err != nil {
		return fmt.Errorf("marshalling instructors: %w", err)
	}
	if course.UpdatedAt.IsZero() {
		course.UpdatedAt = time.Now().UTC()
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO courses (number, department, title, description, units, instructors,
			prerequisites, corequisites, active, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(number) DO UPDATE SET
			department = excluded.department,
			title = excluded.title,
			description = excluded.description,
			units = excluded.units,
			instructors = excluded.instructors,
			prerequisites = excluded.prerequisites,
			corequisites = excluded.corequisites,
			active = excluded.active,
			updated_at = excluded.updated_at
	`, id.Primary, course.Department, course.Title, course.Description, course.Units, string(instructors),
		course.Prerequisites, course.Corequisites, boolToInt(course.Active), course.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving course: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM course_numbers WHERE course_number = ?", id.Primary); err != nil {
		return fmt.Errorf("clearing listing numbers: %w", err)
	}
	for _, n := range id.Numbers() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO course_numbers (number, course_number, is_primary) VALUES (?, ?, ?)
			ON CONFLICT(number) DO UPDATE SET
				course_number = excluded.course_number,
				is_primary = excluded.is_primary
		`, n, id.Primary, boolToInt(n == id.Primary))
		if err != nil {
			return fmt.Errorf("saving listing number %s: %w", n, err)
		}
	}

	return tx.Commit()
}

// Get retrieves a course by primary or alias number.
func (s *CatalogStore) Get(ctx context.Context, number string) (*domain.Course, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT c.number, c.department, c.title, c.description, c.units, c.instructors,
			c.prerequisites, c.corequisites, c.active, c.updated_at
		FROM course_numbers n JOIN courses c ON c.number = n.course_number
		WHERE n.number = ?
	`, number)

	course, err := scanCourse(row)
	if err != nil {
		return nil, err
	}
	aliases, err := s.aliases(ctx, course.Number)
	if err != nil {
		return nil, err
	}
	course.Aliases = aliases
	return course, nil
}

// Identity returns the canonical identity for a listing number.
func (s *CatalogStore) Identity(ctx context.Context, number string) (domain.CourseIdentity, error) {
	var primary string
	err := s.store.db.QueryRowContext(ctx,
		"SELECT course_number FROM course_numbers WHERE number = ?", number).Scan(&primary)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CourseIdentity{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.CourseIdentity{}, fmt.Errorf("resolving %s: %w", number, err)
	}

	aliases, err := s.aliases(ctx, primary)
	if err != nil {
		return domain.CourseIdentity{}, err
	}
	return domain.NewCourseIdentity(primary, aliases), nil
}

func (s *CatalogStore) aliases(ctx context.Context, primary string) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT number FROM course_numbers WHERE course_number = ? AND is_primary = 0 ORDER BY number", primary)
	if err != nil {
		return nil, fmt.Errorf("querying aliases: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scanning alias: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// ActiveSet returns the numbers whose course is active.
func (s *CatalogStore) ActiveSet(ctx context.Context, numbers []string) (map[string]bool, error) {
	active := make(map[string]bool, len(numbers))
	if len(numbers) == 0 {
		return active, nil
	}

	args := make([]any, len(numbers))
	for i, n := range numbers {
		args[i] = n
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT n.number FROM course_numbers n JOIN courses c ON c.number = n.course_number
		WHERE c.active = 1 AND n.number IN (`+placeholders(len(numbers))+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying active courses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scanning active course: %w", err)
		}
		active[n] = true
	}
	return active, rows.Err()
}

// List returns all courses ordered by number.
func (s *CatalogStore) List(ctx context.Context) ([]domain.Course, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT number, department, title, description, units, instructors,
			prerequisites, corequisites, active, updated_at
		FROM courses ORDER BY number
	`)
	if err != nil {
		return nil, fmt.Errorf("querying courses: %w", err)
	}
	defer rows.Close()

	var courses []domain.Course //nolint:prealloc // size unknown from query
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating courses: %w", err)
	}

	for i := range courses {
		if courses[i].Aliases, err = s.aliases(ctx, courses[i].Number); err != nil {
			return nil, err
		}
	}
	return courses, nil
}

// AddReview stores a review, replacing one with the same ID.
func (s *CatalogStore) AddReview(ctx context.Context, review domain.Review) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO reviews (id, course_number, text, rating, visible, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			course_number = excluded.course_number,
			text = excluded.text,
			rating = excluded.rating,
			visible = excluded.visible,
			created_at = excluded.created_at
	`, review.ID, review.CourseNumber, review.Text, review.Rating, boolToInt(review.Visible), review.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving review: %w", err)
	}
	return nil
}

// RecentReviews returns up to limit publishable reviews, newest first.
func (s *CatalogStore) RecentReviews(ctx context.Context, numbers []string, limit int) ([]domain.Review, error) {
	if len(numbers) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = -1
	}

	args := make([]any, 0, len(numbers)+1)
	for _, n := range numbers {
		args = append(args, n)
	}
	args = append(args, limit)

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, course_number, text, rating, visible, created_at
		FROM reviews
		WHERE visible = 1 AND TRIM(text) <> '' AND course_number IN (`+placeholders(len(numbers))+`)
		ORDER BY created_at DESC, id
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying reviews: %w", err)
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var r domain.Review
		var visible int
		if err := rows.Scan(&r.ID, &r.CourseNumber, &r.Text, &r.Rating, &visible, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}
		r.Visible = visible == 1
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveContent stores or updates a content item.
func (s *CatalogStore) SaveContent(ctx context.Context, item domain.ContentItem) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO content (id, course_number, title, text, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			course_number = excluded.course_number,
			title = excluded.title,
			text = excluded.text,
			created_at = excluded.created_at
	`, item.ID, item.CourseNumber, item.Title, item.Text, item.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving content: %w", err)
	}
	return nil
}

// SourceItems derives the text to embed for every course with text of kind.
// Reviews and content are filed under their course's primary number and
// joined oldest first.
func (s *CatalogStore) SourceItems(ctx context.Context, kind domain.SourceKind) ([]domain.SourceItem, error) {
	var query string
	switch kind {
	case domain.SourceKindDescription:
		query = `SELECT number, title, description FROM courses`
	case domain.SourceKindReviews:
		query = `
			SELECT n.course_number, '', r.text FROM reviews r
			JOIN course_numbers n ON n.number = r.course_number
			WHERE r.visible = 1 AND TRIM(r.text) <> ''
			ORDER BY r.created_at, r.id`
	case domain.SourceKindContent:
		query = `
			SELECT n.course_number, '', c.text FROM content c
			JOIN course_numbers n ON n.number = c.course_number
			WHERE TRIM(c.text) <> ''
			ORDER BY c.created_at, c.id`
	default:
		return nil, fmt.Errorf("%w: unknown source kind %q", domain.ErrValidation, kind)
	}

	rows, err := s.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying %s source text: %w", kind, err)
	}
	defer rows.Close()

	parts := make(map[string][]string)
	for rows.Next() {
		var number, title, text string
		if err := rows.Scan(&number, &title, &text); err != nil {
			return nil, fmt.Errorf("scanning %s source text: %w", kind, err)
		}
		if kind == domain.SourceKindDescription {
			text = domain.DescriptionText(&domain.Course{Title: title, Description: text})
		}
		if text = strings.TrimSpace(text); text != "" {
			parts[number] = append(parts[number], text)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s source text: %w", kind, err)
	}

	out := make([]domain.SourceItem, 0, len(parts))
	for n, p := range parts {
		out = append(out, domain.NewSourceItem(n, kind, strings.Join(p, domain.SourceTextSeparator)))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CourseNumber < out[j].CourseNumber })
	return out, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCourse(row scanner) (*domain.Course, error) {
	var c domain.Course
	var instructors string
	var active int
	var updatedAt sql.NullTime
	err := row.Scan(&c.Number, &c.Department, &c.Title, &c.Description, &c.Units, &instructors,
		&c.Prerequisites, &c.Corequisites, &active, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning course: %w", err)
	}

	if err := json.Unmarshal([]byte(instructors), &c.Instructors); err != nil {
		return nil, fmt.Errorf("unmarshalling instructors: %w", err)
	}
	c.Active = active == 1
	if updatedAt.Valid {
		c.UpdatedAt = updatedAt.Time
	}
	return &c, nil
}

// placeholders returns n comma-separated bind parameters.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
