// Package render turns untrusted markdown produced by a model into HTML that is
// safe to insert into a page.
//
// Rendering is a two stage pipeline. Goldmark converts the markdown (GFM, with
// single newlines kept as line breaks) and passes embedded raw HTML through
// untouched; bluemonday then removes everything able to run script: script and
// style elements, event handler attributes, javascript: and other non-web URL
// schemes, inline styles, frames and forms. The sanitizer always runs, so the
// output never carries an executable construct whatever the model returned.
package render

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			goldhtml.WithHardWraps(),
			goldhtml.WithUnsafe(),
		),
	)

	policy = newPolicy()
	strict = bluemonday.StrictPolicy()
)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Render converts markdown to sanitized HTML. Empty input gives empty output.
func Render(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		// Goldmark only fails on writer errors; fall back to escaped text
		buf.Reset()
		buf.WriteString("<p>" + html.EscapeString(md) + "</p>")
	}
	return policy.Sanitize(buf.String())
}

// PlainText strips every tag from rendered HTML and unescapes entities
func PlainText(rendered string) string {
	return html.UnescapeString(strict.Sanitize(rendered))
}
