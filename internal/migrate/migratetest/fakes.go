// Package migratetest provides in-memory document and wiki services for tests.
package migratetest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/calvinalkan/docmigrate/internal/migrate"
)

// ErrNotFound is returned by Docs for unknown ids.
var ErrNotFound = errors.New("not found")

// Docs is an in-memory migrate.DocumentService.
type Docs struct {
	mu sync.Mutex

	Documents map[string]migrate.Document
	// HTML is the exported content per document id.
	HTML map[string]string
	// RevisionsByID is the revision history per document id.
	RevisionsByID map[string][]migrate.Revision
	// Folders maps folder id to the ids it contains.
	Folders map[string][]string

	// DownloadErr and MetadataErr force failures when set.
	DownloadErr error
	MetadataErr error
	ListErr     error

	// Calls records method names in call order.
	Calls []string
	// LastSearch holds the parameters of the most recent Search.
	LastSearch map[string]string
}

// NewDocs returns an empty Docs.
func NewDocs() *Docs {
	return &Docs{
		Documents:     map[string]migrate.Document{},
		HTML:          map[string]string{},
		RevisionsByID: map[string][]migrate.Revision{},
		Folders:       map[string][]string{},
	}
}

// Add registers a document with its exported HTML.
func (d *Docs) Add(doc migrate.Document, html string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.Documents[doc.ID] = doc
	d.HTML[doc.ID] = html
}

func (d *Docs) record(call string) {
	d.Calls = append(d.Calls, call)
}

// List returns every document sorted by id. Any filter other than "all"
// matches on Kind.
func (d *Docs) List(_ context.Context, filter string) ([]migrate.Document, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.record("list")

	if d.ListErr != nil {
		return nil, d.ListErr
	}

	var out []migrate.Document

	for _, doc := range d.Documents {
		if filter == "all" || strings.TrimSuffix(filter, "s") == doc.Kind {
			out = append(out, doc)
		}
	}

	sortDocs(out)

	return out, nil
}

// ListFolder returns the documents registered under folderID.
func (d *Docs) ListFolder(_ context.Context, folderID string) ([]migrate.Document, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.record("list-folder")

	ids, ok := d.Folders[folderID]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", folderID, ErrNotFound)
	}

	out := make([]migrate.Document, 0, len(ids))
	for _, id := range ids {
		out = append(out, d.Documents[id])
	}

	return out, nil
}

// Search matches the "q" or "title" parameter as a substring of the title.
func (d *Docs) Search(_ context.Context, params map[string]string) ([]migrate.Document, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.record("search")

	d.LastSearch = make(map[string]string, len(params))
	for k, v := range params {
		d.LastSearch[k] = v
	}

	needle := params["q"]
	if needle == "" {
		needle = params["title"]
	}

	var out []migrate.Document

	for _, doc := range d.Documents {
		if strings.Contains(doc.Title, needle) {
			out = append(out, doc)
		}
	}

	sortDocs(out)

	return out, nil
}

// Document returns the metadata for id.
func (d *Docs) Document(_ context.Context, id string) (migrate.Document, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.record("document")

	if d.MetadataErr != nil {
		return migrate.Document{}, d.MetadataErr
	}

	doc, ok := d.Documents[id]
	if !ok {
		return migrate.Document{}, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}

	return doc, nil
}

// Revisions returns the revisions registered for id.
func (d *Docs) Revisions(_ context.Context, id string) ([]migrate.Revision, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.record("revisions")

	revs, ok := d.RevisionsByID[id]
	if !ok {
		return nil, fmt.Errorf("revisions %s: %w", id, ErrNotFound)
	}

	return revs, nil
}

// Download writes the registered HTML for id to dst.
func (d *Docs) Download(_ context.Context, id, dst, _ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.record("download")

	if d.DownloadErr != nil {
		return d.DownloadErr
	}

	html, ok := d.HTML[id]
	if !ok {
		return fmt.Errorf("download %s: %w", id, ErrNotFound)
	}

	return os.WriteFile(dst, []byte(html), 0o600)
}

// Wiki is an in-memory migrate.WikiService.
type Wiki struct {
	mu sync.Mutex

	Pages map[string]string
	// SaveErr fails Save for the named pages.
	SaveErr map[string]error
	// Saves records page titles in save order.
	Saves []string
}

// NewWiki returns a Wiki with no pages.
func NewWiki() *Wiki {
	return &Wiki{Pages: map[string]string{}, SaveErr: map[string]error{}}
}

// Page returns a copy of the stored page.
func (w *Wiki) Page(_ context.Context, title string) (*migrate.Page, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	text, ok := w.Pages[title]

	return &migrate.Page{Title: title, Text: text, Exists: ok}, nil
}

// Save stores the page text.
func (w *Wiki) Save(_ context.Context, page *migrate.Page) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.SaveErr[page.Title]; err != nil {
		return err
	}

	w.Pages[page.Title] = page.Text
	w.Saves = append(w.Saves, page.Title)

	return nil
}

// Text returns the stored text of title.
func (w *Wiki) Text(title string) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.Pages[title]
}

// Converter wraps the html in a fixed marker so tests can recognize it.
type Converter struct {
	Err error
}

// Convert returns "converted(" + html + ")".
func (c Converter) Convert(html string) (string, error) {
	if c.Err != nil {
		return "", c.Err
	}

	return "converted(" + html + ")", nil
}

func sortDocs(docs []migrate.Document) {
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
}
