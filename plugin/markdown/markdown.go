// Package markdown provides content helpers for note bodies: plain-text
// rendering for embedding input and hashtag extraction.
package markdown

import (
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New()

var tagPattern = regexp.MustCompile(`#([\p{L}\p{N}_][\p{L}\p{N}_/-]*)`)

// PlainText renders markdown source to plain text by walking the AST and
// collecting text segments. Formatting, links and code fences are flattened.
func PlainText(source string) string {
	src := []byte(source)
	doc := md.Parser().Parse(text.NewReader(src))

	var buf strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			// Separate block-level nodes with a newline.
			if _, ok := n.(*ast.Paragraph); ok {
				buf.WriteByte('\n')
			}
			if _, ok := n.(*ast.Heading); ok {
				buf.WriteByte('\n')
			}
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Text:
			buf.Write(v.Segment.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.AutoLink:
			buf.Write(v.URL(src))
		case *ast.FencedCodeBlock:
			writeLines(&buf, src, v)
		case *ast.CodeBlock:
			writeLines(&buf, src, v)
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(buf.String())
}

func writeLines(buf *strings.Builder, src []byte, n ast.Node) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		buf.Write(segment.Value(src))
	}
}

// ExtractTags returns the lowercase-normalized hashtags found in the rendered
// plain text of the markdown source, deduplicated and sorted.
func ExtractTags(source string) []string {
	matches := tagPattern.FindAllStringSubmatch(PlainText(source), -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	var tags []string
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags
}

// NormalizeTags lowercases, trims and deduplicates a user-supplied tag list.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var normalized []string
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(tag, "#")))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		normalized = append(normalized, tag)
	}
	sort.Strings(normalized)
	return normalized
}
