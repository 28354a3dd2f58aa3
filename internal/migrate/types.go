package migrate

import (
	"context"
	"time"
)

// Document is a summary of a remote document as returned by the document service.
type Document struct {
	// ID is the opaque resource id, e.g. "document:1a2b3c".
	ID    string
	Title string
	// Kind is the document type label (document, folder, spreadsheet, ...).
	Kind string
	// Parents holds the titles of the folders containing the document, in
	// the order the service reports them.
	Parents []string
	Updated time.Time
	Link    string
}

// Revision is one entry of a document's revision history.
type Revision struct {
	Title       string
	Updated     time.Time
	Author      string
	AuthorEmail string
	Link        string
}

// Page is a wiki page held in memory between a read and a save.
type Page struct {
	Title  string
	Text   string
	Exists bool
}

// AppendText appends text to the page body. Nothing is sent until the page is saved.
func (p *Page) AppendText(text string) {
	p.Text += text
}

// DocumentService is the remote document-list API.
type DocumentService interface {
	// List returns documents matching a category filter such as "all" or "folders".
	List(ctx context.Context, filter string) ([]Document, error)
	// ListFolder returns the contents of a folder.
	ListFolder(ctx context.Context, folderID string) ([]Document, error)
	// Search runs a query built from parameter name/value pairs.
	Search(ctx context.Context, params map[string]string) ([]Document, error)
	// Document returns metadata for a single document.
	Document(ctx context.Context, id string) (Document, error)
	// Revisions returns the revision history of a document.
	Revisions(ctx context.Context, id string) ([]Revision, error)
	// Download exports the document in format and writes it to dst.
	Download(ctx context.Context, id, dst, format string) error
}

// WikiService reads and writes wiki pages.
type WikiService interface {
	// Page returns the current page. Missing pages come back empty with Exists=false.
	Page(ctx context.Context, title string) (*Page, error)
	// Save writes the full page text.
	Save(ctx context.Context, page *Page) error
}

// MarkupConverter turns an HTML document into wiki markup.
type MarkupConverter interface {
	Convert(html string) (string, error)
}

// Recorder is notified after every successful migration.
type Recorder interface {
	Record(ctx context.Context, documentID string, res Result) error
}

// Result describes where a document ended up.
type Result struct {
	Title    string
	Category string
}
