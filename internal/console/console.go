// Package console provides colored, user-facing status output. Components
// receive a Printer rather than writing ANSI escapes themselves, so color
// handling and quiet mode live in one place. Color is suppressed when the
// output is not a terminal or when NO_COLOR is set.
package console

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// ANSI escape sequences for the status line palette.
const (
	codeGreen  = "\033[92m"
	codeRed    = "\033[91m"
	codeBlue   = "\033[94m"
	codeYellow = "\033[93m"
	codeCyan   = "\033[96m"
	codeReset  = "\033[0m"
)

// Printer writes categorized status lines to a single output stream.
// The zero value is not usable; construct with New.
type Printer struct {
	w     io.Writer
	color bool
	quiet bool
}

// New creates a Printer writing to w. Color is enabled only when w is a
// terminal and NO_COLOR is unset. quiet suppresses Infof and Hintf lines;
// success, warning, and error lines are always printed.
func New(w io.Writer, quiet bool) *Printer {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	if os.Getenv("NO_COLOR") != "" {
		color = false
	}

	return &Printer{w: w, color: color, quiet: quiet}
}

// Discard returns a Printer that swallows all output. Used in tests and
// wherever a component requires a Printer but output is unwanted.
func Discard() *Printer {
	return &Printer{w: io.Discard}
}

func (p *Printer) line(code, prefix, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.color {
		fmt.Fprintf(p.w, "%s%s%s%s\n", code, prefix, msg, codeReset)
		return
	}

	fmt.Fprintf(p.w, "%s%s\n", prefix, msg)
}

// Successf prints a green "✓" line.
func (p *Printer) Successf(format string, args ...any) {
	p.line(codeGreen, "✓ ", format, args...)
}

// Errorf prints a red "✗" line.
func (p *Printer) Errorf(format string, args ...any) {
	p.line(codeRed, "✗ ", format, args...)
}

// Warnf prints a yellow "!" line.
func (p *Printer) Warnf(format string, args ...any) {
	p.line(codeYellow, "! ", format, args...)
}

// Infof prints a blue informational line. Suppressed in quiet mode.
func (p *Printer) Infof(format string, args ...any) {
	if p.quiet {
		return
	}

	p.line(codeBlue, "", format, args...)
}

// Hintf prints a cyan hint line. Suppressed in quiet mode.
func (p *Printer) Hintf(format string, args ...any) {
	if p.quiet {
		return
	}

	p.line(codeCyan, "", format, args...)
}
