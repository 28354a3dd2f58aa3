// Package mediawiki adapts go-mwclient to the migrator's WikiService.
//
// It logs in with a bot password, reads page wikitext and replaces page
// text. Saves send the whole page; there is no edit-conflict detection, so a
// concurrent editor's change between read and save is overwritten.
//
// go-mwclient has no context support. The context is checked before each
// API call; a call in flight runs until the HTTP timeout.
package mediawiki

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	mwclient "cgt.name/pkg/go-mwclient"
	"cgt.name/pkg/go-mwclient/params"

	"github.com/calvinalkan/docmigrate/internal/migrate"
)

// DefaultEditSummary is attached to every edit unless Options overrides it.
const DefaultEditSummary = "Migrated by docmigrate"

// DefaultUserAgent identifies the client to the wiki.
const DefaultUserAgent = "docmigrate"

// Error variables for wiki operations.
var (
	ErrEndpointRequired = errors.New("wiki api endpoint is required")
	ErrLoginFailed      = errors.New("wiki login failed")
	ErrEditFailed       = errors.New("wiki edit failed")
	ErrAPI              = errors.New("wiki api error")
	ErrTitleRequired    = errors.New("page title is required")
)

// Options configures a Client.
type Options struct {
	// Endpoint is the full api.php URL.
	Endpoint    string
	EditSummary string
	UserAgent   string
	// Timeout bounds each HTTP request. Zero keeps the library default.
	Timeout time.Duration
}

// Client is a logged-in (or anonymous) API session.
type Client struct {
	api     *mwclient.Client
	summary string
}

var _ migrate.WikiService = (*Client)(nil)

// NewClient returns a client with its own cookie session.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Endpoint) == "" {
		return nil, ErrEndpointRequired
	}

	_, err := url.ParseRequestURI(opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid wiki endpoint %q: %w", opts.Endpoint, err)
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	api, err := mwclient.New(opts.Endpoint, ua)
	if err != nil {
		return nil, fmt.Errorf("invalid wiki endpoint %q: %w", opts.Endpoint, err)
	}

	if opts.Timeout > 0 {
		api.SetHTTPTimeout(opts.Timeout)
	}

	summary := opts.EditSummary
	if summary == "" {
		summary = DefaultEditSummary
	}

	return &Client{api: api, summary: summary}, nil
}

// Login signs in with a username and (bot) password.
func (c *Client) Login(ctx context.Context, username, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := c.api.Login(username, password)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	return nil
}

// Page returns the current wikitext of title. A missing page is returned
// with empty text and Exists=false.
func (c *Client) Page(ctx context.Context, title string) (*migrate.Page, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrTitleRequired
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page := &migrate.Page{Title: title}

	text, _, err := c.api.GetPageByName(title)
	if errors.Is(err, mwclient.ErrPageNotFound) {
		return page, nil
	}

	if err != nil {
		return nil, fmt.Errorf("%w: read %q: %w", ErrAPI, title, err)
	}

	page.Exists = true
	page.Text = text

	return page, nil
}

// Save replaces the text of the page. An edit that leaves the text
// unchanged counts as saved.
func (c *Client) Save(ctx context.Context, page *migrate.Page) error {
	if page == nil || strings.TrimSpace(page.Title) == "" {
		return ErrTitleRequired
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	err := c.api.Edit(params.Values{
		"title":   page.Title,
		"text":    page.Text,
		"summary": c.summary,
		"bot":     "1",
	})
	if err != nil && !errors.Is(err, mwclient.ErrEditNoChange) {
		return fmt.Errorf("%w: %q: %w", ErrEditFailed, page.Title, err)
	}

	page.Exists = true

	return nil
}
