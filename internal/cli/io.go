package cli

import (
	"fmt"
	"io"
)

// IO routes command output. Results go to out; diagnostics, warnings and
// the plain-reader prompt go to errOut so that out can be piped. The liner
// prompt is drawn on the terminal, which is only used when out is the
// terminal too.
type IO struct {
	out    io.Writer
	errOut io.Writer
}

// NewIO creates a new IO instance.
func NewIO(out, errOut io.Writer) *IO {
	return &IO{out: out, errOut: errOut}
}

// Println writes to stdout.
func (o *IO) Println(a ...any) {
	_, _ = fmt.Fprintln(o.out, a...)
}

// Printf writes formatted output to stdout.
func (o *IO) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(o.out, format, a...)
}

// ErrPrintln writes to stderr.
func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// Warn prints a warning to stderr. Warnings do not stop the session.
func (o *IO) Warn(issue string) {
	_, _ = fmt.Fprintln(o.errOut, "warning:", issue)
}

// PrintLines writes each line to stdout.
func (o *IO) PrintLines(lines []string) {
	for _, l := range lines {
		o.Println(l)
	}
}
