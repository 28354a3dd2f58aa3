// Package wikitext converts exported HTML documents into wiki markup.
//
// Two output dialects are supported: MediaWiki markup (the default) and
// Markdown for wikis running a Markdown extension.
package wikitext

import (
	"errors"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

// Supported format names.
const (
	FormatMediaWiki = "mediawiki"
	FormatMarkdown  = "markdown"
)

// ErrUnknownFormat is returned by New for unsupported format names.
var ErrUnknownFormat = errors.New("unknown markup format")

// Converter turns HTML into markup.
type Converter interface {
	Convert(src string) (string, error)
}

// New returns the converter for format. An empty format selects MediaWiki.
func New(format string) (Converter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatMediaWiki:
		return MediaWiki{}, nil
	case FormatMarkdown:
		return Markdown{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Markdown converts HTML to Markdown.
type Markdown struct{}

// Convert parses src and renders the body as Markdown.
func (Markdown) Convert(src string) (string, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	root := findBody(doc)
	if root == nil {
		root = doc
	}

	out, err := htmltomarkdown.ConvertNode(root)
	if err != nil {
		return "", fmt.Errorf("convert html to markdown: %w", err)
	}

	return strings.TrimSpace(string(out)), nil
}
