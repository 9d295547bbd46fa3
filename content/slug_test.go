package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"  Leading and trailing  ", "leading-and-trailing"},
		{"AI & Automation: What's Next?", "ai-automation-whats-next"},
		{"multiple   spaces\tand\nnewlines", "multiple-spaces-and-newlines"},
		{"already-a-slug", "already-a-slug"},
		{"--dashes -- everywhere--", "dashes-everywhere"},
		{"Café déjà vu", "caf-dj-vu"},
		{"2024 in Review", "2024-in-review"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			got := Slugify(tt.title)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Slugify(got), "slugify must be idempotent")
			assert.Regexp(t, `^([a-z0-9]+(-[a-z0-9]+)*)?$`, got)
		})
	}
}

func TestSlugCandidate(t *testing.T) {
	assert.Equal(t, "hello", slugCandidate("hello", 0))
	assert.Equal(t, "hello-1", slugCandidate("hello", 1))
	assert.Equal(t, "hello-5", slugCandidate("hello", 5))
}

func TestEstimateReadTime(t *testing.T) {
	words := func(n int) string {
		body := ""
		for i := 0; i < n; i++ {
			body += "word "
		}
		return body
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty", "", 1},
		{"one word", "hello", 1},
		{"exactly 200", words(200), 1},
		{"201 rounds up", words(201), 2},
		{"1000", words(1000), 5},
		{"whitespace only", " \n\t ", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateReadTime(tt.body))
		})
	}
}
