package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordsRoundTrip(t *testing.T) {
	lists := [][]string{
		{},
		{"ai"},
		{"ai", "small business", `quotes "inside"`, "ünïcödé", "a,b"},
	}

	for _, list := range lists {
		got, ok := DeserializeKeywords(SerializeKeywords(list))
		assert.True(t, ok)
		assert.Equal(t, list, got)
	}
}

func TestDeserializeKeywords(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		want   []string
		ok     bool
	}{
		{"empty", "", []string{}, true},
		{"null", "null", []string{}, true},
		{"empty array", "[]", []string{}, true},
		{"array", `["seo","growth"]`, []string{"seo", "growth"}, true},
		{"not json", "seo, growth", []string{}, false},
		{"wrong element type", "[1,2]", []string{}, false},
		{"object", `{"a":"b"}`, []string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DeserializeKeywords(tt.stored)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderMarkdown(t *testing.T) {
	html, err := RenderMarkdown("# Title\n\nSome **bold** text and a [link](https://example.com).\n\n<script>alert(1)</script>\n")
	assert.NoError(t, err)
	assert.Contains(t, html, `<h1 id="title">Title</h1>`)
	assert.Contains(t, html, "<strong>bold</strong>")
	assert.Contains(t, html, `<a href="https://example.com">link</a>`)
	assert.NotContains(t, html, "<script>")
}
