package prompt

import "strings"

// Default is the instruction used until the user types their own prompt
const Default = `Convert this image into a technical design document`

// MarkdownDirective asks the model to format its answer so the renderer can display it
const MarkdownDirective = `Format the answer as Markdown: use headings, lists and fenced code blocks where they help.`

// Build returns the text part sent to the model, optionally suffixed with MarkdownDirective
func Build(text string, directive bool) string {
	if !directive {
		return text
	}
	text = strings.TrimRight(text, " \t\r\n")
	if text == "" {
		return MarkdownDirective
	}
	return text + "\n\n" + MarkdownDirective
}
