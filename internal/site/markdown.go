package site

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// renderMarkdown converts recipe markdown (descriptions, step text) to HTML.
func renderMarkdown(source string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	//nolint:gosec // recipe content is author-trusted, same trust model as the templates
	return template.HTML(buf.String()), nil
}
