package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCourseIdentity_DropsBlanksAndDuplicates(t *testing.T) {
	id := NewCourseIdentity(" 6.100A ", []string{"6.1000", "", "6.100A", "6.1000"})

	assert.Equal(t, "6.100A", id.Primary)
	assert.Equal(t, []string{"6.1000"}, id.Aliases)
	assert.Equal(t, []string{"6.100A", "6.1000"}, id.Numbers())
}

func TestCourseIdentity_Has(t *testing.T) {
	id := NewCourseIdentity("6.100A", []string{"6.1000"})

	assert.True(t, id.Has("6.100A"))
	assert.True(t, id.Has("6.1000"))
	assert.False(t, id.Has("6.101"))
}

func TestCourse_Identity(t *testing.T) {
	c := Course{Number: "18.06", Aliases: []string{"18.700"}}
	assert.Equal(t, CourseIdentity{Primary: "18.06", Aliases: []string{"18.700"}}, c.Identity())
}

func TestReview_IsPublishable(t *testing.T) {
	tests := []struct {
		name   string
		review Review
		want   bool
	}{
		{"visible with text", Review{Visible: true, Text: "Great"}, true},
		{"hidden", Review{Visible: false, Text: "Great"}, false},
		{"blank text", Review{Visible: true, Text: "   "}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.review.IsPublishable())
		})
	}
}

func TestSourceKind(t *testing.T) {
	assert.True(t, SourceKindDescription.IsValid())
	assert.False(t, SourceKindAll.IsValid())
	assert.True(t, SourceKindAll.IsValidScope())
	assert.False(t, SourceKind("syllabus").IsValidScope())
	assert.Equal(t, AllSourceKinds(), SourceKindAll.Expand())
	assert.Equal(t, []SourceKind{SourceKindReviews}, SourceKindReviews.Expand())
}
