// Package cli implements the docmigrate command line: startup flags,
// configuration, service wiring and the interactive command loop.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/docmigrate/internal/config"
	"github.com/calvinalkan/docmigrate/internal/journal"
	"github.com/calvinalkan/docmigrate/internal/logging"
	"github.com/calvinalkan/docmigrate/internal/migrate"
	"github.com/calvinalkan/docmigrate/internal/wikitext"
)

// exitInterrupted is returned when a signal ended the session.
const exitInterrupted = 130

// ErrUnexpectedArgument is returned for positional startup arguments.
var ErrUnexpectedArgument = errors.New("unexpected argument")

// Run is the main entry point. Returns exit code.
func Run(stdin io.Reader, out, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	return run(stdin, out, errOut, args, env, sigCh, connect)
}

func run(
	stdin io.Reader, out, errOut io.Writer, args []string, env map[string]string,
	sigCh <-chan os.Signal, dial connectFunc,
) int {
	if len(args) > 0 {
		args = args[1:]
	}

	flags, err := parseFlags(args)
	if err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut)

		return 1
	}

	if flags.help || !flags.creds.valid() {
		printUsage(out)

		return 1
	}

	overrides := config.Overrides{DocHost: flags.host}
	if flags.log {
		overrides.LogLevel = "debug"
	}

	cfg, err := config.Load(config.LoadInput{
		ConfigPath: flags.configPath,
		Overrides:  overrides,
		Env:        env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupted := make(chan struct{})

	go func() {
		select {
		case <-sigCh:
			close(interrupted)
			cancel()
		case <-ctx.Done():
		}
	}()

	o := NewIO(out, errOut)

	code := session(ctx, stdin, o, cfg, flags.creds, env, logger, dial)

	select {
	case <-interrupted:
		return exitInterrupted
	default:
		return code
	}
}

// session connects to both services and runs the REPL.
func session(
	ctx context.Context, stdin io.Reader, o *IO, cfg config.Config, creds credentials,
	env map[string]string, logger logging.Logger, dial connectFunc,
) int {
	svc, err := dial(ctx, cfg, creds, logger)
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	if cfg.WikiUsername == "" {
		o.Warn("wiki_username is not configured; wiki edits are anonymous")
	}

	converter, err := wikitext.New(cfg.Markup)
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	opts := migrate.Options{
		Docs:            svc.docs,
		Wiki:            svc.wiki,
		Converter:       converter,
		RootPage:        cfg.RootPage,
		DefaultCategory: cfg.DefaultCategory,
		StagingDir:      cfg.StagingDir,
		KeepStaging:     cfg.KeepStaging,
		Logger:          logging.Named(logger, "migrate"),
	}

	var j *journal.Journal

	if cfg.Journal {
		j, err = journal.Open(ctx, cfg.JournalPath())
		if err != nil {
			o.Warn("migration journal unavailable: " + err.Error())

			j = nil
		} else {
			defer func() { _ = j.Close() }()

			opts.Recorder = j
		}
	}

	m, err := migrate.New(opts)
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	repl := &REPL{io: o}
	repl.commands = []*Command{
		ListCmd(svc.docs),
		SearchCmd(svc.docs),
		ASearchCmd(svc.docs),
		RevisionsCmd(svc.docs),
		MigrateCmd(m),
		HistoryCmd(j),
		ConfigCmd(cfg),
		HelpCmd(func() []*Command { return repl.commands }),
		ExitCmd(),
	}
	repl.in = newPrompter(stdin, o.out, o.errOut, env, repl.completer)

	printWelcome(o)

	runErr := repl.Run(ctx)

	closeErr := repl.in.Close()
	if closeErr != nil {
		o.Warn(closeErr.Error())
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		o.ErrPrintln("error:", runErr)

		return 1
	}

	return 0
}

// credentials selects the document service login: username and password
// (ClientLogin) take precedence over an AuthSub token.
type credentials struct {
	username string
	password string
	authSub  string
}

func (c credentials) valid() bool {
	return c.usePassword() || c.authSub != ""
}

func (c credentials) usePassword() bool {
	return c.username != "" && c.password != ""
}

type startupFlags struct {
	creds      credentials
	host       string
	configPath string
	log        bool
	help       bool
}

func parseFlags(args []string) (startupFlags, error) {
	var f startupFlags

	fs := flag.NewFlagSet("docmigrate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVarP(&f.creds.username, "username", "u", "", "account name")
	fs.StringVar(&f.creds.username, "user", "", "account name")
	fs.StringVarP(&f.creds.password, "password", "p", "", "account password")
	fs.StringVar(&f.creds.password, "pass", "", "account password")
	fs.StringVarP(&f.creds.authSub, "authSub", "a", "", "AuthSub session token")
	fs.StringVar(&f.creds.authSub, "auth", "", "AuthSub session token")
	fs.StringVarP(&f.host, "host", "s", "", "document feed host")
	fs.BoolVarP(&f.log, "log", "l", false, "enable request logging")
	fs.BoolVarP(&f.help, "help", "h", false, "show usage")
	fs.StringVarP(&f.configPath, "config", "c", "", "config file")

	for _, alias := range []string{"user", "pass", "auth"} {
		_ = fs.MarkHidden(alias)
	}

	err := fs.Parse(args)
	if err != nil {
		return startupFlags{}, err //nolint:wrapcheck // pflag messages are user-facing as is
	}

	if fs.NArg() > 0 {
		return startupFlags{}, fmt.Errorf("%w: %s", ErrUnexpectedArgument, fs.Arg(0))
	}

	return f, nil
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer) {
	fprintln(w, strings.Join([]string{
		"Usage: docmigrate --username <user> --password <pass>",
		"Usage: docmigrate --authSub <token>",
		"    [--host <host:port>]          Where is the feed (default = " + config.DefaultDocHost + ")",
		"    [--log]                       Enable logging of requests",
		"    [--config <file>]             Read settings from <file>",
	}, "\n"))
}

func printWelcome(o *IO) {
	o.PrintLines([]string{
		"",
		"docmigrate: list your documents and migrate them into the wiki.",
		"Type 'help' for a list of commands.",
		"",
	})
}
