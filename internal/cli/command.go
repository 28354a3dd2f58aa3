package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// errUsage makes Command.Run print the command's help text instead of an error.
var errUsage = errors.New("usage")

// Command is one REPL command.
type Command struct {
	// Usage is the command name followed by its arguments.
	// Examples: "revisions <resource_id>", "list [object_type]".
	Usage string

	// Short is a one-line description for the command listing.
	Short string

	// Help is printed by "help <name>" and when the arguments are malformed.
	// If empty, Usage and Short are used instead.
	Help []string

	// Exec runs the command. Returning errUsage prints Help.
	Exec func(ctx context.Context, o *IO, args []string) error
}

// Name returns the command name (first word of Usage).
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// HelpLine returns the line shown in the full command listing.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("    %-40s [[%s]]", c.Usage, c.Short)
}

// PrintHelp prints the command's help text to stdout.
func (c *Command) PrintHelp(o *IO) {
	if len(c.Help) == 0 {
		o.Println(c.Usage)
		o.Println("    " + c.Short)

		return
	}

	o.PrintLines(c.Help)
}

// Run executes the command and reports failures. Errors never end the
// session; they are printed and the REPL reads the next line.
func (c *Command) Run(ctx context.Context, o *IO, args []string) {
	err := c.Exec(ctx, o, args)
	if err == nil {
		return
	}

	if errors.Is(err, errUsage) {
		c.PrintHelp(o)

		return
	}

	o.ErrPrintln("error:", err)
}
