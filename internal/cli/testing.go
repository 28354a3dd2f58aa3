package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/calvinalkan/docmigrate/internal/config"
	"github.com/calvinalkan/docmigrate/internal/logging"
	"github.com/calvinalkan/docmigrate/internal/migrate/migratetest"
)

// CLI runs docmigrate sessions in tests against in-memory services.
// It manages a temp directory used as HOME and config root.
type CLI struct {
	t   *testing.T
	Dir string
	Env map[string]string

	Docs *migratetest.Docs
	Wiki *migratetest.Wiki

	// ConnectErr makes the connect step fail.
	ConnectErr error
	// Connects counts connect attempts.
	Connects int
	// Username, Password and AuthSub hold the credentials of the last connect.
	Username, Password, AuthSub string
}

// NewCLI creates a test CLI. Settings are written to the global config
// file so staging stays inside the temp directory.
func NewCLI(t *testing.T) *CLI {
	t.Helper()

	dir := t.TempDir()

	c := &CLI{
		t:   t,
		Dir: dir,
		Env: map[string]string{
			"HOME":            dir,
			"XDG_CONFIG_HOME": filepath.Join(dir, "config"),
		},
		Docs: migratetest.NewDocs(),
		Wiki: migratetest.NewWiki(),
	}

	c.WriteConfig(map[string]any{
		"staging_dir":   filepath.Join(dir, "staging"),
		"wiki_username": "bot",
	})

	return c
}

// WriteConfig replaces the global config file with settings.
func (c *CLI) WriteConfig(settings map[string]any) {
	c.t.Helper()

	data, err := json.Marshal(settings)
	if err != nil {
		c.t.Fatalf("marshal config: %v", err)
	}

	path := filepath.Join(c.Env["XDG_CONFIG_HOME"], "docmigrate", "config.json")

	err = os.MkdirAll(filepath.Dir(path), 0o750)
	if err == nil {
		err = os.WriteFile(path, data, 0o600)
	}

	if err != nil {
		c.t.Fatalf("write config: %v", err)
	}
}

func (c *CLI) connect(_ context.Context, _ config.Config, creds credentials, _ logging.Logger) (*services, error) {
	c.Connects++
	c.Username, c.Password, c.AuthSub = creds.username, creds.password, creds.authSub

	if c.ConnectErr != nil {
		return nil, c.ConnectErr
	}

	return &services{docs: c.Docs, wiki: c.Wiki}, nil
}

// RunWithInput executes docmigrate with args and stdin, returning stdout,
// stderr and the exit code. Args should not include the program name.
func (c *CLI) RunWithInput(stdin string, args ...string) (string, string, int) {
	var outBuf, errBuf bytes.Buffer

	fullArgs := append([]string{"docmigrate"}, args...)
	code := run(strings.NewReader(stdin), &outBuf, &errBuf, fullArgs, c.Env, nil, c.connect)

	return outBuf.String(), errBuf.String(), code
}

// Run executes docmigrate with empty stdin.
func (c *CLI) Run(args ...string) (string, string, int) {
	return c.RunWithInput("", args...)
}

// RunInterrupted starts docmigrate with stdin that never delivers a line,
// sends an interrupt once the prompt is waiting for input and returns
// stdout and the exit code.
func (c *CLI) RunInterrupted(args ...string) (string, int) {
	c.t.Helper()

	stdin := newBlockingReader()
	c.t.Cleanup(stdin.release)

	sigCh := make(chan os.Signal, 1)

	var outBuf, errBuf bytes.Buffer

	done := make(chan int, 1)

	go func() {
		fullArgs := append([]string{"docmigrate"}, args...)
		done <- run(stdin, &outBuf, &errBuf, fullArgs, c.Env, sigCh, c.connect)
	}()

	select {
	case <-stdin.reading:
	case code := <-done:
		c.t.Fatalf("session ended before reading input: code %d\nstderr: %s", code, errBuf.String())
	case <-time.After(5 * time.Second):
		c.t.Fatal("session never read from stdin")
	}

	sigCh <- os.Interrupt

	select {
	case code := <-done:
		return outBuf.String(), code
	case <-time.After(2 * time.Second):
		c.t.Fatal("session did not end after interrupt while waiting at the prompt")
	}

	return "", 0
}

// blockingReader blocks every Read until released, then reports io.EOF.
type blockingReader struct {
	reading     chan struct{}
	released    chan struct{}
	readOnce    sync.Once
	releaseOnce sync.Once
}

func newBlockingReader() *blockingReader {
	return &blockingReader{reading: make(chan struct{}), released: make(chan struct{})}
}

func (r *blockingReader) Read([]byte) (int, error) {
	r.readOnce.Do(func() { close(r.reading) })
	<-r.released

	return 0, io.EOF
}

func (r *blockingReader) release() {
	r.releaseOnce.Do(func() { close(r.released) })
}

// Session logs in with a username and password, feeds input to the REPL
// and fails the test unless the session exits with 0. Returns stdout.
func (c *CLI) Session(input string) string {
	c.t.Helper()

	stdout, stderr, code := c.RunWithInput(input, "--username", "alice", "--password", "secret")
	if code != 0 {
		c.t.Fatalf("session failed with exit code %d\nstderr: %s", code, stderr)
	}

	return stdout
}

// AssertContains fails the test if content doesn't contain substr.
func AssertContains(t *testing.T, content, substr string) {
	t.Helper()

	if !strings.Contains(content, substr) {
		t.Errorf("content should contain %q\ncontent:\n%s", substr, content)
	}
}

// AssertNotContains fails the test if content contains substr.
func AssertNotContains(t *testing.T, content, substr string) {
	t.Helper()

	if strings.Contains(content, substr) {
		t.Errorf("content should NOT contain %q\ncontent:\n%s", substr, content)
	}
}
