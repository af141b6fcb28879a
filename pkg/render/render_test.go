package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderHeading(t *testing.T) {
	out := Render("# Title\n")
	assert.Contains(t, out, "<h1>Title</h1>")
}

func TestRenderEmpty(t *testing.T) {
	assert.Equal(t, "", Render(""))
	assert.Equal(t, "", Render("  \n\t"))
}

func TestRenderMarkup(t *testing.T) {
	out := Render("## Parts\n\n- **bold** item\n- _em_ item\n\n```go\nfmt.Println(1)\n```\n\n[docs](https://example.com)")

	assert.Contains(t, out, "<h2>Parts</h2>")
	assert.Contains(t, out, "<li><strong>bold</strong> item</li>")
	assert.Contains(t, out, "<em>em</em>")
	assert.Contains(t, out, "<pre><code")
	assert.Contains(t, out, "fmt.Println(1)")
	assert.Contains(t, out, `href="https://example.com"`)
	assert.Contains(t, out, "nofollow")
	assert.Contains(t, out, `target="_blank"`)
}

func TestRenderHardWraps(t *testing.T) {
	out := Render("line one\nline two")
	assert.Regexp(t, `line one<br\s*/?>`, out)
	assert.Contains(t, out, "line two")
}

func TestRenderStripsExecutableContent(t *testing.T) {
	inputs := []string{
		"<script>alert(1)</script>",
		"before\n\n<script>alert(1)</script>\n\nafter",
		"<SCRIPT SRC=//evil.example/x.js></SCRIPT>",
		`<img src=x onerror=alert(1)>`,
		`<a href="javascript:alert(1)">click</a>`,
		"[click](javascript:alert(1))",
		`<p style="background:url(javascript:alert(1))">styled</p>`,
		`<div onclick="alert(1)" onmouseover="alert(2)">hover</div>`,
		`<iframe src="https://evil.example"></iframe>`,
		`<svg onload=alert(1)><circle/></svg>`,
		`<style>body{background:url("javascript:alert(1)")}</style>`,
		`<object data="javascript:alert(1)"></object>`,
		`<form action="https://evil.example"><input name=x></form>`,
		"text <scr<script>ipt>alert(1)</script>",
	}
	for _, in := range inputs {
		out := strings.ToLower(Render(in))
		assert.NotContains(t, out, "<script", in)
		assert.NotContains(t, out, "javascript:", in)
		assert.NotContains(t, out, "onerror=", in)
		assert.NotContains(t, out, "onclick=", in)
		assert.NotContains(t, out, "onload=", in)
		assert.NotContains(t, out, "onmouseover=", in)
		assert.NotContains(t, out, "style=", in)
		assert.NotContains(t, out, "<style", in)
		assert.NotContains(t, out, "<iframe", in)
		assert.NotContains(t, out, "<object", in)
		assert.NotContains(t, out, "<form", in)
	}
}

func TestRenderKeepsCodeAsText(t *testing.T) {
	out := Render("```html\n<script>alert(1)</script>\n```")
	assert.NotContains(t, out, "<script")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestRenderDeterministic(t *testing.T) {
	in := "# Report\n\nSome *text* with a [link](https://example.com)."
	assert.Equal(t, Render(in), Render(in))
}

func TestRenderIdempotentOnPlainText(t *testing.T) {
	for _, in := range []string{"hello world", "a plain sentence without markup"} {
		once := Render(in)
		twice := Render(once)
		assert.Equal(t, in, strings.TrimSpace(PlainText(once)))
		assert.Equal(t, in, strings.TrimSpace(PlainText(twice)))
		assert.Equal(t, once, Render(in))
	}
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Fish & chips", strings.TrimSpace(PlainText(Render("**Fish** & chips"))))
}
