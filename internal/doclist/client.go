// Package doclist is a client for the Documents List feed API.
//
// It covers what docmigrate needs: ClientLogin and AuthSub authentication,
// listing and searching the document feed, single entries, revision feeds
// and HTML export downloads. Feeds are Atom XML; every request carries
// GData-Version 3.0.
package doclist

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/calvinalkan/docmigrate/internal/migrate"
)

// Defaults for Options.
const (
	DefaultHost     = "docs.google.com"
	DefaultLoginURL = "https://www.google.com/accounts/ClientLogin"
	DefaultAppName  = "docmigrate-1.0"

	gdataVersion = "3.0"
	feedPath     = "/feeds/default/private/full"
	serviceName  = "writely"

	maxErrorBody = 512
)

// listCategories maps the filter names accepted by List to feed categories.
var listCategories = map[string]string{
	"starred":       "starred",
	"trashed":       "trashed",
	"documents":     "document",
	"spreadsheets":  "spreadsheet",
	"pdfs":          "pdf",
	"presentations": "presentation",
	"folders":       "folder",
}

// Filters returns the names accepted by List, sorted, with "all" first.
func Filters() []string {
	names := make([]string, 0, len(listCategories)+1)
	for name := range listCategories {
		names = append(names, name)
	}

	sort.Strings(names)

	return append([]string{"all"}, names...)
}

// Options configures a Client.
type Options struct {
	// Host is the feed host, e.g. "docs.google.com" or "localhost:8080".
	Host string
	// BaseURL overrides scheme and host (tests point this at httptest servers).
	BaseURL string
	// LoginURL is the ClientLogin endpoint.
	LoginURL string
	// AppName is sent as the ClientLogin source.
	AppName    string
	HTTPClient *http.Client
}

// Client talks to the document service. It is not safe for concurrent
// Login calls; reads after login may run concurrently.
type Client struct {
	base     string
	loginURL string
	appName  string
	http     *http.Client

	authHeader string
}

var _ migrate.DocumentService = (*Client)(nil)

// NewClient returns an unauthenticated client.
func NewClient(opts Options) *Client {
	host := opts.Host
	if host == "" {
		host = DefaultHost
	}

	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://" + host
	}

	c := &Client{
		base:     base,
		loginURL: opts.LoginURL,
		appName:  opts.AppName,
		http:     opts.HTTPClient,
	}

	if c.loginURL == "" {
		c.loginURL = DefaultLoginURL
	}

	if c.appName == "" {
		c.appName = DefaultAppName
	}

	if c.http == nil {
		c.http = http.DefaultClient
	}

	return c
}

// Login authenticates with ClientLogin using an account name and password.
func (c *Client) Login(ctx context.Context, username, password string) error {
	form := url.Values{
		"accountType": {"HOSTED_OR_GOOGLE"},
		"Email":       {username},
		"Passwd":      {password},
		"service":     {serviceName},
		"source":      {c.appName},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create login request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read login response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s", ErrAuthentication, strings.TrimSpace(loginField(string(body), "Error")))
	}

	token := loginField(string(body), "Auth")
	if token == "" {
		return fmt.Errorf("%w: no Auth token in response", ErrAuthentication)
	}

	c.authHeader = "GoogleLogin auth=" + token

	return nil
}

// LoginWithToken authenticates with an AuthSub session token.
// The token is not verified until the first request.
func (c *Client) LoginWithToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: empty AuthSub token", ErrAuthentication)
	}

	c.authHeader = `AuthSub token="` + token + `"`

	return nil
}

// List returns the documents in the feed category named by filter.
func (c *Client) List(ctx context.Context, filter string) ([]migrate.Document, error) {
	feed := c.base + feedPath

	if filter != "" && filter != "all" {
		category, ok := listCategories[filter]
		if !ok {
			return nil, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownFilter, filter, strings.Join(Filters(), ", "))
		}

		feed += "/-/" + category
	}

	return c.documents(ctx, feed)
}

// ListFolder returns the contents of the folder with the given id.
func (c *Client) ListFolder(ctx context.Context, folderID string) ([]migrate.Document, error) {
	if folderID == "" {
		return nil, ErrIDRequired
	}

	folderID = strings.TrimPrefix(folderID, "folder:")

	return c.documents(ctx, c.base+feedPath+"/folder%3A"+url.PathEscape(folderID)+"/contents")
}

// Search queries the document feed. Parameter names are passed through
// unchanged, e.g. "q", "title", "title-exact", "owner".
func (c *Client) Search(ctx context.Context, params map[string]string) ([]migrate.Document, error) {
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}

	feed := c.base + feedPath
	if encoded := query.Encode(); encoded != "" {
		feed += "?" + encoded
	}

	return c.documents(ctx, feed)
}

// Document fetches a single entry by resource id.
func (c *Client) Document(ctx context.Context, id string) (migrate.Document, error) {
	if id == "" {
		return migrate.Document{}, ErrIDRequired
	}

	var entry atomEntry

	err := c.getXML(ctx, c.entryURL(id), &entry)
	if err != nil {
		return migrate.Document{}, err
	}

	return entry.document(), nil
}

// Revisions fetches the revision feed of a document.
func (c *Client) Revisions(ctx context.Context, id string) ([]migrate.Revision, error) {
	if id == "" {
		return nil, ErrIDRequired
	}

	var feed atomFeed

	err := c.getXML(ctx, c.entryURL(id)+"/revisions", &feed)
	if err != nil {
		return nil, err
	}

	revs := make([]migrate.Revision, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		revs = append(revs, e.revision())
	}

	return revs, nil
}

// Download exports the document in format (e.g. "html", "txt", "pdf") and
// atomically replaces dst with the result.
func (c *Client) Download(ctx context.Context, id, dst, format string) error {
	exportURL, err := c.exportURL(id, format)
	if err != nil {
		return err
	}

	resp, err := c.get(ctx, exportURL)
	if err != nil {
		return err
	}

	defer func() { _ = resp.Body.Close() }()

	err = atomic.WriteFile(dst, resp.Body)
	if err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}

	return nil
}

func (c *Client) exportURL(id, format string) (string, error) {
	if id == "" {
		return "", ErrIDRequired
	}

	kind, docID, found := strings.Cut(id, ":")
	if !found {
		kind, docID = "document", id
	}

	var path string

	switch kind {
	case "document":
		path = "/feeds/download/documents/Export"
	case "presentation":
		path = "/feeds/download/presentations/Export"
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}

	query := url.Values{
		"docID":        {docID},
		"exportFormat": {format},
	}

	return c.base + path + "?" + query.Encode(), nil
}

func (c *Client) entryURL(id string) string {
	return c.base + feedPath + "/" + url.PathEscape(id)
}

func (c *Client) documents(ctx context.Context, feedURL string) ([]migrate.Document, error) {
	var feed atomFeed

	err := c.getXML(ctx, feedURL, &feed)
	if err != nil {
		return nil, err
	}

	docs := make([]migrate.Document, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		docs = append(docs, e.document())
	}

	return docs, nil
}

func (c *Client) getXML(ctx context.Context, target string, out any) error {
	resp, err := c.get(ctx, target)
	if err != nil {
		return err
	}

	defer func() { _ = resp.Body.Close() }()

	err = xml.NewDecoder(resp.Body).Decode(out)
	if err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrService, target, err)
	}

	return nil
}

// get performs an authenticated GET. Non-2xx responses become *ServiceError
// and the body is closed; on success the caller owns resp.Body.
func (c *Client) get(ctx context.Context, target string) (*http.Response, error) {
	if c.authHeader == "" {
		return nil, ErrNotAuthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("GData-Version", gdataVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrService, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()

		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return nil, &ServiceError{
			StatusCode: resp.StatusCode,
			URL:        target,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	return resp, nil
}

// loginField extracts key=value from a ClientLogin response body.
func loginField(body, key string) string {
	for line := range strings.SplitSeq(body, "\n") {
		if value, ok := strings.CutPrefix(strings.TrimSpace(line), key+"="); ok {
			return value
		}
	}

	return ""
}
