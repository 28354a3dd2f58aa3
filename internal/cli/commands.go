package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/calvinalkan/docmigrate/internal/config"
	"github.com/calvinalkan/docmigrate/internal/journal"
	"github.com/calvinalkan/docmigrate/internal/migrate"
)

const timeLayout = "2006-01-02 15:04:05"

// ListCmd returns the list command.
func ListCmd(docs migrate.DocumentService) *Command {
	return &Command{
		Usage: "list [object_type] [...]",
		Short: "lists objects",
		Help: []string{
			"list [object_type]",
			"    object_type: all, starred, trashed, documents, spreadsheets, pdfs, presentations, folders.",
			"        (defaults to 'all')",
			"list folder <folder_id>",
			"    folder_id: The id of the folder you want the contents list for.",
		},
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execList(ctx, o, docs, args)
		},
	}
}

func execList(ctx context.Context, o *IO, docs migrate.DocumentService, args []string) error {
	var (
		header string
		found  []migrate.Document
		err    error
	)

	switch {
	case len(args) == 0:
		header = "List of docs:"
		found, err = docs.List(ctx, "all")
	case len(args) == 1 && args[0] != "folder":
		header = "List of all " + args[0] + ":"
		found, err = docs.List(ctx, args[0])
	case len(args) == 2 && args[0] == "folder":
		header = "Contents of folder_id '" + args[1] + "':"
		found, err = docs.ListFolder(ctx, args[1])
	default:
		return errUsage
	}

	if err != nil {
		return err
	}

	o.Println(header)
	printDocuments(o, found)

	return nil
}

// SearchCmd returns the full-text search command.
func SearchCmd(docs migrate.DocumentService) *Command {
	return &Command{
		Usage: "search <search_text>",
		Short: "full text search",
		Help: []string{
			"search <search_text>",
			"    search_text: A string to be used for a full text query",
		},
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
				return errUsage
			}

			found, err := docs.Search(ctx, map[string]string{"q": args[0]})
			if err != nil {
				return err
			}

			o.Println("Results for [" + args[0] + "]")
			printDocuments(o, found)

			return nil
		},
	}
}

// ASearchCmd returns the advanced search command.
func ASearchCmd(docs migrate.DocumentService) *Command {
	return &Command{
		Usage: "asearch [<query_param>=<value>] ...",
		Short: "search by query parameters",
		Help: []string{
			"asearch [<query_param>=<value>] [<query_param2>=<value2>] ...",
			"    query_param: title, title-exact, opened-min, opened-max, owner, writer, reader, showfolders, etc.",
			"    value: The value of the parameter",
		},
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return errUsage
			}

			params := make(map[string]string, len(args))

			for _, arg := range args {
				key, value, ok := strings.Cut(arg, "=")
				if !ok || key == "" {
					return errUsage
				}

				params[key] = value
			}

			found, err := docs.Search(ctx, params)
			if err != nil {
				return err
			}

			o.Println("Results for advanced search:")
			printDocuments(o, found)

			return nil
		},
	}
}

// RevisionsCmd returns the revisions command.
func RevisionsCmd(docs migrate.DocumentService) *Command {
	return &Command{
		Usage: "revisions <resource_id>",
		Short: "lists revisions of a document",
		Help: []string{
			"revisions <resource_id>",
			"    resource_id: document resource id",
		},
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 1 {
				return errUsage
			}

			revs, err := docs.Revisions(ctx, args[0])
			if err != nil {
				return err
			}

			o.Println("List of revisions...")

			for _, r := range revs {
				o.Println(formatRevision(r))
			}

			return nil
		},
	}
}

// MigrateCmd returns the migrate command.
func MigrateCmd(m *migrate.Migrator) *Command {
	return &Command{
		Usage: "migrate <resource_id> [category]",
		Short: "migrate a document to Wiki",
		Help: []string{
			"migrate <resource_id> [category]",
			"    Migrate the resource with resource ID under the category",
		},
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) < 1 || len(args) > 2 {
				return errUsage
			}

			var category string
			if len(args) == 2 {
				category = args[1]
			}

			res, err := m.Migrate(ctx, args[0], category)
			if err != nil && !errors.Is(err, migrate.ErrRecord) {
				return err
			}

			o.Println(`The document "` + res.Title + `" is successfully migrated under "` + res.Category + `"`)

			if err != nil {
				o.Warn(err.Error())
			}

			return nil
		},
	}
}

// HistoryCmd returns the history command. j may be nil when the journal is disabled.
func HistoryCmd(j *journal.Journal) *Command {
	return &Command{
		Usage: "history [n]",
		Short: "lists recent migrations",
		Help: []string{
			"history [n]",
			"    n: Number of most recent migrations to show (defaults to all)",
		},
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) > 1 {
				return errUsage
			}

			limit := 0

			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return errUsage
				}

				limit = n
			}

			if j == nil {
				o.Println("The migration journal is disabled.")

				return nil
			}

			entries, err := j.List(ctx, limit)
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				o.Println("No migrations recorded.")

				return nil
			}

			o.Println("Recent migrations:")

			for _, e := range entries {
				o.Printf(" -- %s %s [%s] %s\n", e.MigratedAt.Format(timeLayout), e.Title, e.Category, e.DocumentID)
			}

			return nil
		},
	}
}

// ConfigCmd returns the config command.
func ConfigCmd(cfg config.Config) *Command {
	return &Command{
		Usage: "config",
		Short: "show resolved configuration",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) != 0 {
				return errUsage
			}

			formatted, err := config.Format(cfg)
			if err != nil {
				return err
			}

			o.Println(formatted)
			o.Println("")
			o.Println("# Sources:")

			if cfg.Sources.Global != "" {
				o.Println("#   global:", cfg.Sources.Global)
			}

			if cfg.Sources.Explicit != "" {
				o.Println("#   explicit:", cfg.Sources.Explicit)
			}

			if cfg.Sources.Global == "" && cfg.Sources.Explicit == "" {
				o.Println("#   (using defaults only)")
			}

			return nil
		},
	}
}

// HelpCmd returns the help command. commands is the full registry,
// including the help command itself.
func HelpCmd(commands func() []*Command) *Command {
	return &Command{
		Usage: "help [command]",
		Short: "display this message, or info about the specified command",
		Help: []string{
			"help [command]",
			"    Display the list of commands, or the help text of one command.",
		},
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) != 1 {
				printCommandList(o, commands())

				return nil
			}

			for _, c := range commands() {
				if c.Name() == args[0] {
					c.PrintHelp(o)

					return nil
				}
			}

			o.Println("unknown command")

			return nil
		},
	}
}

// ExitCmd returns the exit command. The REPL ends the loop itself; this
// entry exists for the command listing and "help exit".
func ExitCmd() *Command {
	return &Command{
		Usage: "exit",
		Short: "exit the program",
		Help: []string{
			"exit",
			"    Exit the program.",
		},
		Exec: func(context.Context, *IO, []string) error { return nil },
	}
}

func printCommandList(o *IO, commands []*Command) {
	o.Println("Commands:")

	for _, c := range commands {
		o.Println(c.HelpLine())
	}
}

func printDocuments(o *IO, docs []migrate.Document) {
	for _, d := range docs {
		o.Println(formatDocument(d))
	}
}

// formatDocument renders " -- <title> [<parent>] ... <resourceId>".
func formatDocument(d migrate.Document) string {
	var b strings.Builder

	b.WriteString(" -- " + d.Title + " ")

	for _, p := range d.Parents {
		b.WriteString("[" + p + "] ")
	}

	b.WriteString(d.ID)

	return b.String()
}

func formatRevision(r migrate.Revision) string {
	return fmt.Sprintf(" -- %s, created on %s  by %s - %s\n    %s",
		r.Title, r.Updated.Format(timeLayout), r.Author, r.AuthorEmail, r.Link)
}
