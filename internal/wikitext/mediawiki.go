package wikitext

import (
	"fmt"
	"net/url"
	"path"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MediaWiki converts HTML to MediaWiki markup.
type MediaWiki struct{}

// Convert parses src and renders the body as wikitext.
func (MediaWiki) Convert(src string) (string, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	w := &wikiWriter{}

	root := findBody(doc)
	if root == nil {
		root = doc
	}

	w.children(root)

	return tidy(w.buf.String()), nil
}

// wikiWriter renders a node tree. lists holds the active list markers,
// innermost last.
type wikiWriter struct {
	buf    strings.Builder
	lists  []byte
	inline bool
}

func (w *wikiWriter) write(s string) {
	w.buf.WriteString(s)
}

func (w *wikiWriter) lastByte() byte {
	s := w.buf.String()
	if s == "" {
		return '\n'
	}

	return s[len(s)-1]
}

func (w *wikiWriter) newline() {
	if w.inline {
		if w.lastByte() != ' ' {
			w.write(" ")
		}

		return
	}

	if w.buf.Len() > 0 && w.lastByte() != '\n' {
		w.write("\n")
	}
}

func (w *wikiWriter) blankLine() {
	if w.inline {
		w.newline()

		return
	}

	if w.buf.Len() == 0 {
		return
	}

	w.newline()

	s := w.buf.String()
	if !strings.HasSuffix(s, "\n\n") {
		w.write("\n")
	}
}

func (w *wikiWriter) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.node(c)
	}
}

func (w *wikiWriter) node(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.text(n.Data)
	case html.ElementNode:
		w.element(n)
	case html.DocumentNode:
		w.children(n)
	}
}

func (w *wikiWriter) text(data string) {
	collapsed := strings.Join(strings.Fields(data), " ")
	if collapsed == "" {
		if data != "" && w.lastByte() != ' ' && w.lastByte() != '\n' {
			w.write(" ")
		}

		return
	}

	lineStart := !w.inline && w.lastByte() == '\n'

	if startsWithSpace(data) && w.lastByte() != ' ' && w.lastByte() != '\n' {
		w.write(" ")
	}

	w.write(escapeText(collapsed, lineStart))

	if endsWithSpace(data) {
		w.write(" ")
	}
}

//nolint:cyclop,funlen // one case per supported element
func (w *wikiWriter) element(n *html.Node) {
	switch n.DataAtom {
	case atom.Head, atom.Script, atom.Style, atom.Title, atom.Meta, atom.Link, atom.Noscript:
		return
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		w.heading(n)
	case atom.P, atom.Div, atom.Section, atom.Article:
		if len(w.lists) > 0 || w.inline {
			w.children(n)

			return
		}

		w.blankLine()
		w.children(n)
		w.blankLine()
	case atom.Br:
		if w.inline || len(w.lists) > 0 {
			w.write("<br />")

			return
		}

		w.write("\n")
	case atom.B, atom.Strong:
		w.wrap(n, "'''", "'''")
	case atom.I, atom.Em:
		w.wrap(n, "''", "''")
	case atom.U, atom.Ins:
		w.wrap(n, "<u>", "</u>")
	case atom.S, atom.Strike, atom.Del:
		w.wrap(n, "<s>", "</s>")
	case atom.Sup:
		w.wrap(n, "<sup>", "</sup>")
	case atom.Sub:
		w.wrap(n, "<sub>", "</sub>")
	case atom.Code, atom.Tt, atom.Kbd:
		w.write("<code>" + html.EscapeString(textContent(n)) + "</code>")
	case atom.Span, atom.Font:
		w.span(n)
	case atom.A:
		w.anchor(n)
	case atom.Ul:
		w.list(n, '*')
	case atom.Ol:
		w.list(n, '#')
	case atom.Li:
		w.item(n)
	case atom.Table:
		w.table(n)
	case atom.Tr:
		w.newline()
		w.write("|-\n")
		w.children(n)
	case atom.Th:
		w.cell(n, "! ")
	case atom.Td:
		w.cell(n, "| ")
	case atom.Caption:
		w.cell(n, "|+ ")
	case atom.Pre:
		w.blankLine()
		w.write("<pre>" + html.EscapeString(textContent(n)) + "</pre>")
		w.blankLine()
	case atom.Hr:
		w.blankLine()
		w.write("----")
		w.blankLine()
	case atom.Img:
		w.image(n)
	case atom.Blockquote:
		w.blankLine()
		w.wrap(n, "<blockquote>", "</blockquote>")
		w.blankLine()
	default:
		w.children(n)
	}
}

func (w *wikiWriter) heading(n *html.Node) {
	level := int(n.Data[1] - '0')
	marks := strings.Repeat("=", level)

	w.blankLine()
	w.write(marks + " " + renderInline(n) + " " + marks)
	w.blankLine()
}

func (w *wikiWriter) wrap(n *html.Node, open, closing string) {
	inner := renderInline(n)
	if inner == "" {
		return
	}

	if w.lastByte() != ' ' && w.lastByte() != '\n' && startsWithSpace(textContent(n)) {
		w.write(" ")
	}

	w.write(open + inner + closing)

	if endsWithSpace(textContent(n)) {
		w.write(" ")
	}
}

// span maps inline CSS used by exported documents to bold and italics.
func (w *wikiWriter) span(n *html.Node) {
	style := strings.ReplaceAll(strings.ToLower(attr(n, "style")), " ", "")

	bold := strings.Contains(style, "font-weight:bold") || strings.Contains(style, "font-weight:700")
	italic := strings.Contains(style, "font-style:italic")

	switch {
	case bold && italic:
		w.wrap(n, "'''''", "'''''")
	case bold:
		w.wrap(n, "'''", "'''")
	case italic:
		w.wrap(n, "''", "''")
	default:
		w.children(n)
	}
}

func (w *wikiWriter) anchor(n *html.Node) {
	href := strings.TrimSpace(attr(n, "href"))
	label := renderInline(n)

	switch {
	case href == "" || strings.HasPrefix(href, "#"):
		w.write(label)
	case label == "" || label == href:
		w.write(href)
	default:
		w.write("[" + href + " " + label + "]")
	}
}

func (w *wikiWriter) list(n *html.Node, marker byte) {
	if len(w.lists) == 0 {
		w.blankLine()
	}

	w.lists = append(w.lists, marker)
	w.children(n)
	w.lists = w.lists[:len(w.lists)-1]

	if len(w.lists) == 0 {
		w.blankLine()
	}
}

func (w *wikiWriter) item(n *html.Node) {
	markers := string(w.lists)
	if markers == "" {
		markers = "*"
	}

	w.newline()
	w.write(markers + " ")
	w.children(n)
	w.trimTrailingSpace()
}

func (w *wikiWriter) table(n *html.Node) {
	w.blankLine()
	w.write("{| class=\"wikitable\"\n")
	w.children(n)
	w.newline()
	w.write("|}")
	w.blankLine()
}

func (w *wikiWriter) cell(n *html.Node, prefix string) {
	w.newline()
	w.write(prefix + renderInline(n) + "\n")
}

func (w *wikiWriter) image(n *html.Node) {
	name := fileName(attr(n, "src"))
	if name == "" {
		return
	}

	alt := strings.TrimSpace(attr(n, "alt"))
	if alt == "" {
		w.write("[[File:" + name + "]]")

		return
	}

	w.write("[[File:" + name + "|" + alt + "]]")
}

func (w *wikiWriter) trimTrailingSpace() {
	s := w.buf.String()
	trimmed := strings.TrimRight(s, " ")

	if len(trimmed) != len(s) {
		w.buf.Reset()
		w.buf.WriteString(trimmed)
	}
}

// renderInline renders the children of n on a single line.
func renderInline(n *html.Node) string {
	sub := &wikiWriter{inline: true}
	sub.children(n)

	return strings.TrimSpace(sub.buf.String())
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if body := findBody(c); body != nil {
			return body
		}
	}

	return nil
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}

	var sb strings.Builder

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Br {
			sb.WriteString("\n")

			continue
		}

		sb.WriteString(textContent(c))
	}

	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}

	return ""
}

func fileName(src string) string {
	u, err := url.Parse(strings.TrimSpace(src))
	if err != nil || u.Path == "" {
		return ""
	}

	base := path.Base(u.Path)
	if base == "/" || base == "." {
		return ""
	}

	return base
}

// markupSequences turn into live wikitext anywhere on a line.
var markupSequences = []string{"[", "]", "{{", "}}", "{|", "|}", "''", "~~~", "__"}

// escapeText keeps document prose literal. "<" becomes an entity; runs
// containing wiki markup, or starting a line with a block marker, are
// wrapped in <nowiki>.
func escapeText(s string, lineStart bool) string {
	s = strings.ReplaceAll(s, "<", "&lt;")

	blockMarker := lineStart && (strings.ContainsRune("*#:;=", rune(s[0])) || strings.HasPrefix(s, "----"))

	if blockMarker || slices.ContainsFunc(markupSequences, func(seq string) bool { return strings.Contains(s, seq) }) {
		return "<nowiki>" + s + "</nowiki>"
	}

	return s
}

func startsWithSpace(s string) bool {
	return s != "" && strings.TrimLeft(s, " \t\r\n") != s
}

func endsWithSpace(s string) bool {
	return s != "" && strings.TrimRight(s, " \t\r\n") != s
}

// tidy strips trailing spaces per line, collapses runs of blank lines and
// trims the document.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}

	out := strings.Join(lines, "\n")
	for strings.Contains(out, "\n\n\n") {
		out = strings.ReplaceAll(out, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(out)
}
