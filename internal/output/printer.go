// Package output renders user-facing console messages.
package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Printer writes styled lines. With color disabled it writes plain text.
type Printer struct {
	out io.Writer
	err io.Writer

	success lipgloss.Style
	failure lipgloss.Style
	warning lipgloss.Style
	info    lipgloss.Style
	dryRun  lipgloss.Style
}

func NewPrinter(out io.Writer, errOut io.Writer, noColor bool) *Printer {
	renderer := lipgloss.NewRenderer(out)
	if noColor {
		renderer.SetColorProfile(termenv.Ascii)
	}
	return &Printer{
		out:     out,
		err:     errOut,
		success: renderer.NewStyle().Foreground(lipgloss.Color("2")),
		failure: renderer.NewStyle().Foreground(lipgloss.Color("1")),
		warning: renderer.NewStyle().Foreground(lipgloss.Color("3")),
		info:    renderer.NewStyle().Foreground(lipgloss.Color("4")),
		dryRun:  renderer.NewStyle().Foreground(lipgloss.Color("6")),
	}
}

func (p *Printer) Success(msg string) { fmt.Fprintln(p.out, p.success.Render(msg)) }
func (p *Printer) Warning(msg string) { fmt.Fprintln(p.out, p.warning.Render(msg)) }
func (p *Printer) Info(msg string)    { fmt.Fprintln(p.out, p.info.Render(msg)) }
func (p *Printer) DryRun(msg string)  { fmt.Fprintln(p.out, p.dryRun.Render(msg)) }
func (p *Printer) Plain(msg string)   { fmt.Fprintln(p.out, msg) }
func (p *Printer) Blank()             { fmt.Fprintln(p.out) }

// Error writes to the error stream.
func (p *Printer) Error(msg string) { fmt.Fprintln(p.err, p.failure.Render(msg)) }

// Added prints a diff line for a package that would be installed.
func (p *Printer) Added(name string, detail string) {
	p.diffLine("+", p.success, name, detail)
}

// Removed prints a diff line for a package that would be removed.
func (p *Printer) Removed(name string, detail string) {
	p.diffLine("-", p.failure, name, detail)
}

func (p *Printer) diffLine(mark string, style lipgloss.Style, name string, detail string) {
	padded := fmt.Sprintf("%-30s", name)
	fmt.Fprintf(p.out, "%s %s %s\n", style.Render(mark), style.Render(padded), detail)
}

// Writer exposes the standard stream for encoders.
func (p *Printer) Writer() io.Writer {
	return p.out
}
