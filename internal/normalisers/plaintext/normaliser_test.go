package plaintext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormats(t *testing.T) {
	assert.Contains(t, New().Formats(), Format)
}

func TestNormalise(t *testing.T) {
	res := New().Normalise("\r\n  Syllabus  \r\n\tWeek 1 \r\n\r\n")

	assert.Equal(t, "Syllabus\nWeek 1", res.Text)
	assert.Empty(t, res.Title)
}
