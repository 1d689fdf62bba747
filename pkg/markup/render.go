// Package markup turns assistant HTML into styled, width-bounded terminal lines.
//
// Only a small set of formatting elements is honoured (p, br, strong/b, em/i,
// ul/ol, li, code). Executable or embedding elements are dropped together with
// their content, every other element is unwrapped to its text, and attributes
// never reach the output.
package markup

import (
	"fmt"
	"regexp"
	"strings"

	"camara_chat/pkg/ui/styles"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	bulletPrefix  = "• "
	subItemPrefix = "  • "
	nestedIndent  = 2
)

var ownNumberPattern = regexp.MustCompile(`^\d+\.$`)

type flags struct {
	bold   int
	italic int
	code   int
}

type token struct {
	text  string
	space bool
	style flags
}

type block struct {
	prefix string
	indent int
	gap    bool
	tokens []token
}

type listState struct {
	ordered bool
	next    int
}

type renderer struct {
	blocks       []*block
	cur          *block
	style        flags
	pendingSpace bool
	nextGap      bool
	lists        []listState
	// dropMarker strips the "-" or "*" a sub-item carries ahead of its text.
	dropMarker bool
}

// Render parses assistant markup and returns styled lines no wider than width.
// A width of zero or less disables wrapping.
func Render(content string, width int) []string {
	blocks := parse(content)
	return layout(blocks, width, renderTokens)
}

// Text returns the unstyled rendering of assistant markup, one line per block.
func Text(content string) string {
	blocks := parse(content)
	return strings.Join(layout(blocks, 0, plainTokens), "\n")
}

// RenderPlain wraps user text without interpreting markup. Line breaks are kept.
func RenderPlain(text string, width int) []string {
	text = Sanitize(text)
	var out []string
	for _, line := range strings.Split(text, "\n") {
		var tokens []token
		for i, word := range strings.Fields(line) {
			tokens = append(tokens, token{text: word, space: i > 0})
		}
		if len(tokens) == 0 {
			out = append(out, "")
			continue
		}
		out = append(out, wrap(tokens, width, "", "", renderTokens)...)
	}
	return out
}

// Sanitize removes control characters except newlines and tabs.
func Sanitize(content string) string {
	if content == "" {
		return content
	}
	var sb strings.Builder
	sb.Grow(len(content))
	for _, r := range content {
		switch r {
		case '\n', '\t':
			sb.WriteRune(r)
			continue
		}
		if r < 0x20 || (r >= 0x7f && r < 0xa0) {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func parse(content string) []*block {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	r := &renderer{}
	if err != nil {
		// The tokenizer is lenient; a failure here means a read error, so fall back to text.
		r.text(content)
		return r.blocks
	}
	for _, n := range nodes {
		r.walk(n)
	}
	return r.blocks
}

func (r *renderer) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		r.text(n.Data)
		return
	case html.ElementNode:
	default:
		return
	}

	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Iframe, atom.Object, atom.Embed,
		atom.Noscript, atom.Template, atom.Svg, atom.Math, atom.Frameset, atom.Frame:
		return
	case atom.Br:
		r.lineBreak()
		return
	case atom.P, atom.Div, atom.Blockquote, atom.Pre,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		heading := isHeading(n.DataAtom)
		r.startBlock("", r.listIndent(), true)
		if heading {
			r.style.bold++
		}
		r.children(n)
		if heading {
			r.style.bold--
		}
		r.endBlock(true)
		return
	case atom.Ul, atom.Ol:
		if len(r.lists) == 0 {
			r.endBlock(true)
		} else {
			r.endBlock(false)
		}
		r.lists = append(r.lists, listState{ordered: n.DataAtom == atom.Ol, next: 1})
		r.children(n)
		r.lists = r.lists[:len(r.lists)-1]
		r.endBlock(len(r.lists) == 0)
		return
	case atom.Li:
		prefix := r.itemPrefix(n)
		r.startBlock(prefix, r.listIndent(), false)
		r.dropMarker = prefix == subItemPrefix
		r.children(n)
		r.dropMarker = false
		r.endBlock(false)
		return
	case atom.Strong, atom.B:
		r.style.bold++
		r.children(n)
		r.style.bold--
		return
	case atom.Em, atom.I:
		r.style.italic++
		r.children(n)
		r.style.italic--
		return
	case atom.Code:
		r.style.code++
		r.children(n)
		r.style.code--
		return
	}

	r.children(n)
}

func (r *renderer) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.walk(c)
	}
}

func (r *renderer) startBlock(prefix string, indent int, gap bool) {
	r.cur = &block{prefix: prefix, indent: indent, gap: gap || r.nextGap}
	r.blocks = append(r.blocks, r.cur)
	r.nextGap = false
	r.pendingSpace = false
}

func (r *renderer) endBlock(gap bool) {
	r.cur = nil
	if gap {
		r.nextGap = true
	}
	r.pendingSpace = false
}

func (r *renderer) lineBreak() {
	indent := r.listIndent()
	if r.cur != nil {
		indent = r.cur.indent + runewidth.StringWidth(r.cur.prefix)
	}
	r.startBlock("", indent, false)
}

func (r *renderer) text(data string) {
	data = Sanitize(data)
	if r.dropMarker {
		if trimmed := strings.TrimLeft(data, " \t\n\r\f"); trimmed != "" {
			r.dropMarker = false
			if trimmed[0] == '-' || trimmed[0] == '*' {
				data = trimmed[1:]
			}
		}
	}
	if data == "" {
		return
	}
	if startsWithSpace(data) {
		r.pendingSpace = true
	}
	words := strings.Fields(data)
	for _, word := range words {
		if r.cur == nil {
			r.startBlock("", r.listIndent(), false)
		}
		r.cur.tokens = append(r.cur.tokens, token{
			text:  word,
			space: r.pendingSpace && len(r.cur.tokens) > 0,
			style: r.style,
		})
		r.pendingSpace = true
	}
	if len(words) > 0 {
		r.pendingSpace = endsWithSpace(data)
	}
}

func (r *renderer) listIndent() int {
	if len(r.lists) <= 1 {
		return 0
	}
	return (len(r.lists) - 1) * nestedIndent
}

func (r *renderer) itemPrefix(li *html.Node) string {
	if len(r.lists) == 0 {
		return bulletPrefix
	}
	list := &r.lists[len(r.lists)-1]
	if list.ordered {
		prefix := fmt.Sprintf("%d. ", list.next)
		list.next++
		return prefix
	}
	if hasClass(li, "sub-item") {
		return subItemPrefix
	}
	if carriesOwnNumber(li) {
		return ""
	}
	return bulletPrefix
}

func isHeading(a atom.Atom) bool {
	switch a {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	}
	return false
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

// carriesOwnNumber reports whether an item opens with a bold "N." marker.
func carriesOwnNumber(li *html.Node) bool {
	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) == "" {
			continue
		}
		if c.Type != html.ElementNode || (c.DataAtom != atom.Strong && c.DataAtom != atom.B) {
			return false
		}
		if c.FirstChild == nil || c.FirstChild.Type != html.TextNode {
			return false
		}
		return ownNumberPattern.MatchString(strings.TrimSpace(c.FirstChild.Data))
	}
	return false
}

func startsWithSpace(s string) bool {
	return s != "" && strings.TrimLeft(s, " \t\n\r\f") != s
}

func endsWithSpace(s string) bool {
	return s != "" && strings.TrimRight(s, " \t\n\r\f") != s
}

type lineRenderer func(tokens []token) string

func layout(blocks []*block, width int, render lineRenderer) []string {
	var out []string
	pendingGap := false
	for _, b := range blocks {
		pendingGap = pendingGap || b.gap
		if len(b.tokens) == 0 {
			continue
		}
		if pendingGap && len(out) > 0 {
			out = append(out, "")
		}
		pendingGap = false

		lead := strings.Repeat(" ", b.indent)
		first := lead + b.prefix
		rest := lead + strings.Repeat(" ", runewidth.StringWidth(b.prefix))
		out = append(out, wrap(b.tokens, width, first, rest, render)...)
	}
	return out
}

// wrap lays tokens out on lines of at most width cells. The first line starts
// with firstPrefix and continuation lines with restPrefix.
func wrap(tokens []token, width int, firstPrefix, restPrefix string, render lineRenderer) []string {
	if width <= 0 {
		return []string{firstPrefix + render(tokens)}
	}

	var lines []string
	var lineTokens []token
	prefix := firstPrefix
	avail := max(width-runewidth.StringWidth(prefix), 1)
	lineWidth := 0

	flush := func() {
		lines = append(lines, prefix+render(lineTokens))
		lineTokens = nil
		lineWidth = 0
		prefix = restPrefix
		avail = max(width-runewidth.StringWidth(prefix), 1)
	}

	for _, tok := range tokens {
		parts := splitByWidth(tok.text, avail)
		for i, part := range parts {
			partWidth := runewidth.StringWidth(part)
			space := tok.space && i == 0
			extra := 0
			if space && lineWidth > 0 {
				extra = 1
			}
			if lineWidth > 0 && lineWidth+extra+partWidth > avail {
				flush()
				extra = 0
			}
			lineTokens = append(lineTokens, token{text: part, space: extra == 1, style: tok.style})
			lineWidth += extra + partWidth
		}
	}
	if len(lineTokens) > 0 {
		flush()
	}
	return lines
}

func splitByWidth(text string, width int) []string {
	if width <= 0 || runewidth.StringWidth(text) <= width {
		return []string{text}
	}

	var parts []string
	var sb strings.Builder
	currentWidth := 0
	for _, r := range text {
		rw := runewidth.RuneWidth(r)
		if currentWidth+rw > width && currentWidth > 0 {
			parts = append(parts, sb.String())
			sb.Reset()
			currentWidth = 0
		}
		sb.WriteRune(r)
		currentWidth += rw
	}
	if sb.Len() > 0 {
		parts = append(parts, sb.String())
	}
	return parts
}

func renderTokens(tokens []token) string {
	var sb strings.Builder
	for _, tok := range tokens {
		if tok.space {
			sb.WriteString(" ")
		}
		sb.WriteString(styleFor(tok.style).Render(tok.text))
	}
	return sb.String()
}

func plainTokens(tokens []token) string {
	var sb strings.Builder
	for _, tok := range tokens {
		if tok.space {
			sb.WriteString(" ")
		}
		sb.WriteString(tok.text)
	}
	return sb.String()
}

func styleFor(f flags) lipgloss.Style {
	style := styles.TextStyle
	if f.code > 0 {
		style = styles.CodeStyle
	}
	if f.bold > 0 {
		style = style.Bold(true)
	}
	if f.italic > 0 {
		style = style.Italic(true)
	}
	return style
}
