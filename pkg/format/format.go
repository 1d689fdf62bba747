// Package format converts a model reply written in light markdown into the
// HTML fragment returned as formatted_response.
package format

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	paragraphSplit = regexp.MustCompile(`\n\s*\n`)
	numberedLine   = regexp.MustCompile(`(?m)^\d+\.`)
	bulletLine     = regexp.MustCompile(`^\s*[-*]`)
	boldPattern    = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicPattern  = regexp.MustCompile(`\*([^*]+)\*`)
)

// HTML escapes text and rewrites it as paragraphs and lists. A paragraph that
// has any line starting with "N." becomes a numbered list; every other
// paragraph gets bold/italic conversion and <br> line breaks.
func HTML(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = html.EscapeString(text)

	var sb strings.Builder
	for _, paragraph := range paragraphSplit.Split(text, -1) {
		if numberedLine.MatchString(paragraph) {
			sb.WriteString(listHTML(paragraph))
			continue
		}
		paragraph = boldPattern.ReplaceAllString(paragraph, "<strong>$1</strong>")
		paragraph = italicPattern.ReplaceAllString(paragraph, "<em>$1</em>")
		paragraph = strings.ReplaceAll(paragraph, "\n", "<br>")
		sb.WriteString("<p>" + paragraph + "</p>")
	}
	return sb.String()
}

func listHTML(paragraph string) string {
	var sb strings.Builder
	sb.WriteString(`<ul class="numbered-list">`)
	for _, line := range strings.Split(paragraph, "\n") {
		switch {
		case numberedLine.MatchString(line):
			num, rest, _ := strings.Cut(line, ".")
			sb.WriteString("<li><strong>" + num + ".</strong>" + rest + "</li>")
		case bulletLine.MatchString(line):
			sb.WriteString(`<li class="sub-item">` + strings.TrimSpace(line) + "</li>")
		default:
			sb.WriteString(line)
		}
	}
	sb.WriteString("</ul>")
	return sb.String()
}
