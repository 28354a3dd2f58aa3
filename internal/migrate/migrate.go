// Package migrate copies documents from the document service into the wiki.
//
// A migration is a fixed sequence: download the document as HTML to a
// staging file, convert it to wiki markup, resolve the category, then
// upsert three pages (root index, category page, document page). There is
// no rollback: a failure part way through leaves earlier pages updated.
//
// Page updates are read-append-save with no edit locking, so concurrent
// editors can lose updates. Category and document pages are appended to
// unconditionally; repeated migrations accumulate duplicate links.
package migrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/calvinalkan/docmigrate/internal/logging"
)

// Defaults used when Options leaves a field empty.
const (
	DefaultRootPage = "CloudHealth"
	DefaultCategory = "Default"
	DownloadFormat  = "html"
)

// Options configures a Migrator.
type Options struct {
	Docs      DocumentService
	Wiki      WikiService
	Converter MarkupConverter

	// RootPage is the wiki page listing every category.
	RootPage string
	// DefaultCategory is used when neither the caller nor the document
	// metadata names one.
	DefaultCategory string
	// StagingDir receives downloaded HTML. Defaults to os.TempDir()/docmigrate.
	StagingDir string
	// KeepStaging leaves staging files on disk after conversion.
	KeepStaging bool

	// Recorder is optional.
	Recorder Recorder
	Logger   logging.Logger
}

// Migrator runs migrations. It holds no per-migration state.
type Migrator struct {
	docs      DocumentService
	wiki      WikiService
	converter MarkupConverter

	rootPage        string
	defaultCategory string
	stagingDir      string
	keepStaging     bool

	recorder Recorder
	log      logging.Logger
}

// New validates opts and returns a Migrator.
func New(opts Options) (*Migrator, error) {
	if opts.Docs == nil {
		return nil, fmt.Errorf("%w: document service", ErrMissingDependency)
	}

	if opts.Wiki == nil {
		return nil, fmt.Errorf("%w: wiki service", ErrMissingDependency)
	}

	if opts.Converter == nil {
		return nil, fmt.Errorf("%w: markup converter", ErrMissingDependency)
	}

	m := &Migrator{
		docs:            opts.Docs,
		wiki:            opts.Wiki,
		converter:       opts.Converter,
		rootPage:        opts.RootPage,
		defaultCategory: opts.DefaultCategory,
		stagingDir:      opts.StagingDir,
		keepStaging:     opts.KeepStaging,
		recorder:        opts.Recorder,
		log:             logging.OrNoOp(opts.Logger),
	}

	if m.rootPage == "" {
		m.rootPage = DefaultRootPage
	}

	if m.defaultCategory == "" {
		m.defaultCategory = DefaultCategory
	}

	if m.stagingDir == "" {
		m.stagingDir = filepath.Join(os.TempDir(), "docmigrate")
	}

	return m, nil
}

// Migrate copies the document documentID into the wiki under category.
// An empty category means the caller did not supply one.
//
// If the migration succeeded but the Recorder failed, the full Result is
// returned together with an error wrapping ErrRecord.
func (m *Migrator) Migrate(ctx context.Context, documentID, category string) (Result, error) {
	if strings.TrimSpace(documentID) == "" {
		return Result{}, ErrDocumentIDRequired
	}

	content, err := m.fetchMarkup(ctx, documentID)
	if err != nil {
		return Result{}, err
	}

	doc, err := m.docs.Document(ctx, documentID)
	if err != nil {
		return Result{}, fmt.Errorf("%w: metadata for %s: %w", ErrService, documentID, err)
	}

	if strings.TrimSpace(doc.Title) == "" {
		return Result{}, fmt.Errorf("%w: %s", ErrUntitled, documentID)
	}

	res := Result{
		Title:    doc.Title,
		Category: ResolveCategory(category, doc, m.defaultCategory),
	}

	m.log.Debug("migrate: resolved target", "document", documentID, "title", res.Title, "category", res.Category)

	err = m.ensureRootLists(ctx, res.Category)
	if err != nil {
		return Result{}, err
	}

	err = m.appendAndSave(ctx, res.Category, "\n*"+Link(res.Title))
	if err != nil {
		return Result{}, err
	}

	err = m.appendAndSave(ctx, res.Title, content)
	if err != nil {
		return Result{}, err
	}

	if m.recorder != nil {
		recErr := m.recorder.Record(ctx, documentID, res)
		if recErr != nil {
			return res, fmt.Errorf("%w: %w", ErrRecord, recErr)
		}
	}

	return res, nil
}

// fetchMarkup downloads the document to a staging file and converts it.
func (m *Migrator) fetchMarkup(ctx context.Context, documentID string) (string, error) {
	err := os.MkdirAll(m.stagingDir, 0o755)
	if err != nil {
		return "", fmt.Errorf("%w: staging dir: %w", ErrDownload, err)
	}

	staged := filepath.Join(m.stagingDir, uuid.NewString()+"."+DownloadFormat)

	err = m.docs.Download(ctx, documentID, staged, DownloadFormat)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrDownload, documentID, err)
	}

	if !m.keepStaging {
		defer func() { _ = os.Remove(staged) }()
	}

	m.log.Debug("migrate: staged download", "document", documentID, "path", staged)

	raw, err := os.ReadFile(staged)
	if err != nil {
		return "", fmt.Errorf("%w: read staged file: %w", ErrConversion, err)
	}

	content, err := m.converter.Convert(string(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrConversion, err)
	}

	return content, nil
}

// ensureRootLists adds the category to the root page unless a link is already there.
func (m *Migrator) ensureRootLists(ctx context.Context, category string) error {
	root, err := m.wiki.Page(ctx, m.rootPage)
	if err != nil {
		return fmt.Errorf("%w: get %q: %w", ErrWiki, m.rootPage, err)
	}

	if strings.Contains(root.Text, Link(category)) {
		return nil
	}

	root.AppendText("\n*" + Link(category))

	err = m.wiki.Save(ctx, root)
	if err != nil {
		return fmt.Errorf("%w: save %q: %w", ErrWiki, m.rootPage, err)
	}

	return nil
}

func (m *Migrator) appendAndSave(ctx context.Context, title, text string) error {
	page, err := m.wiki.Page(ctx, title)
	if err != nil {
		return fmt.Errorf("%w: get %q: %w", ErrWiki, title, err)
	}

	page.AppendText(text)

	err = m.wiki.Save(ctx, page)
	if err != nil {
		return fmt.Errorf("%w: save %q: %w", ErrWiki, title, err)
	}

	return nil
}

// ResolveCategory picks the target category: explicit beats the document's
// first parent folder, which beats fallback.
func ResolveCategory(explicit string, doc Document, fallback string) string {
	if explicit != "" {
		return explicit
	}

	if len(doc.Parents) > 0 && doc.Parents[0] != "" {
		return doc.Parents[0]
	}

	return fallback
}

// Link renders an internal wiki link to title.
func Link(title string) string {
	return "[[" + title + "]]"
}
