package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{
			name:     "strips emphasis",
			source:   "Hello **bold** and *italic*",
			expected: "Hello bold and italic",
		},
		{
			name:     "keeps link text",
			source:   "see [the docs](https://example.com)",
			expected: "see the docs",
		},
		{
			name:     "heading and paragraph",
			source:   "# Title\n\nBody text",
			expected: "Title\nBody text",
		},
		{
			name:     "empty",
			source:   "",
			expected: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, PlainText(tt.source))
		})
	}
}

func TestExtractTags(t *testing.T) {
	tags := ExtractTags("Working on #Golang today, also #golang and #db/postgres")
	require.Equal(t, []string{"db/postgres", "golang"}, tags)
}

func TestExtractTagsNone(t *testing.T) {
	require.Nil(t, ExtractTags("no tags here"))
}

func TestNormalizeTags(t *testing.T) {
	normalized := NormalizeTags([]string{" Go ", "#go", "Databases", "", "go"})
	require.Equal(t, []string{"databases", "go"}, normalized)
}

func TestNormalizeTagsEmpty(t *testing.T) {
	require.Nil(t, NormalizeTags(nil))
	require.Nil(t, NormalizeTags([]string{"", "  "}))
}
