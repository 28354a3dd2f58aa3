package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/peterh/liner"
)

const (
	promptText      = "Command: "
	historyFileName = ".docmigrate_history"
	unknownCommand  = "Unknown command. Type 'help' for a list of commands."
)

// errAborted is returned by a prompter when the user pressed Ctrl-C.
var errAborted = errors.New("prompt aborted")

// prompter reads one line of input per call. End of input is io.EOF.
type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(line string)
	Close() error
}

// REPL is the interactive command loop.
type REPL struct {
	io       *IO
	commands []*Command
	in       prompter
}

// Run reads and executes commands until end of input, an exit command,
// Ctrl-C at the prompt, or ctx cancellation.
func (r *REPL) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line, err := r.prompt(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, errAborted) {
				return nil
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.in.AppendHistory(line)

		name, args := parseCommandLine(line)

		if strings.HasPrefix(name, "q") || strings.HasPrefix(name, "exit") {
			return nil
		}

		cmd := r.lookup(name)
		if cmd == nil {
			r.io.Println(unknownCommand)

			continue
		}

		cmd.Run(ctx, r.io, args)
	}
}

type promptResult struct {
	line string
	err  error
}

// prompt waits for the next line or ctx cancellation, whichever comes
// first. On cancellation the pending read is abandoned.
func (r *REPL) prompt(ctx context.Context) (string, error) {
	ch := make(chan promptResult, 1)

	go func() {
		line, err := r.in.Prompt(promptText)
		ch <- promptResult{line: line, err: err}
	}()

	select {
	case res := <-ch:
		return res.line, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (r *REPL) lookup(name string) *Command {
	for _, c := range r.commands {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

// completer provides tab completion for command names.
func (r *REPL) completer(line string) []string {
	var completions []string

	for _, c := range r.commands {
		if strings.HasPrefix(c.Name(), line) {
			completions = append(completions, c.Name())
		}
	}

	return completions
}

// parseCommandLine splits a line into the command name and its arguments.
// "search" keeps the remainder of the line as a single argument.
func parseCommandLine(line string) (string, []string) {
	line = strings.TrimSpace(line)

	name, rest, _ := strings.Cut(line, " ")

	if name == "search" {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			return name, nil
		}

		return name, []string{rest}
	}

	return name, strings.Fields(rest)
}

// readerPrompter reads lines from a plain reader, writing the prompt to w.
type readerPrompter struct {
	r *bufio.Reader
	w io.Writer
}

func newReaderPrompter(r io.Reader, w io.Writer) *readerPrompter {
	if r == nil {
		r = strings.NewReader("")
	}

	return &readerPrompter{r: bufio.NewReader(r), w: w}
}

func (p *readerPrompter) Prompt(prompt string) (string, error) {
	_, _ = io.WriteString(p.w, prompt)

	line, err := p.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}

		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}

func (*readerPrompter) AppendHistory(string) {}

func (*readerPrompter) Close() error { return nil }

// linerPrompter gives terminals line editing and a persistent history.
type linerPrompter struct {
	state       *liner.State
	historyPath string
}

func newLinerPrompter(historyPath string, completer liner.Completer) *linerPrompter {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetCompleter(completer)

	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			_, _ = state.ReadHistory(f)
			_ = f.Close()
		}
	}

	return &linerPrompter{state: state, historyPath: historyPath}
}

func (p *linerPrompter) Prompt(prompt string) (string, error) {
	line, err := p.state.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", errAborted
	}

	return line, err
}

func (p *linerPrompter) AppendHistory(line string) {
	p.state.AppendHistory(line)
}

// Close restores the terminal and persists history.
func (p *linerPrompter) Close() error {
	var histErr error

	if p.historyPath != "" {
		var buf bytes.Buffer

		_, err := p.state.WriteHistory(&buf)
		if err == nil {
			err = atomic.WriteFile(p.historyPath, &buf)
		}

		if err != nil {
			histErr = fmt.Errorf("save history: %w", err)
		}
	}

	err := p.state.Close()
	if err != nil {
		return fmt.Errorf("restore terminal: %w", err)
	}

	return histErr
}

// newPrompter picks liner when both stdin and stdout are the process
// terminal and a plain line reader for everything else (pipes, files,
// tests). liner draws its prompt on stdout, so a redirected stdout always
// gets the line reader and its prompt on errOut.
func newPrompter(stdin io.Reader, out, errOut io.Writer, env map[string]string, completer liner.Completer) prompter {
	if interactive(stdin, out) && liner.TerminalSupported() {
		return newLinerPrompter(historyPath(env), completer)
	}

	return newReaderPrompter(stdin, errOut)
}

func interactive(stdin io.Reader, out io.Writer) bool {
	in, ok := stdin.(*os.File)
	if !ok || in != os.Stdin || !isTerminal(in) {
		return false
	}

	o, ok := out.(*os.File)

	return ok && o == os.Stdout && isTerminal(o)
}

func historyPath(env map[string]string) string {
	home := env["HOME"]
	if home == "" {
		return ""
	}

	return filepath.Join(home, historyFileName)
}
