// Package ui renders chatcbt output in the terminal: notices, markdown
// replies and a loading indicator shown while a request is in flight.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const defaultWidth = 80

var (
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// Console writes user-facing output. On a terminal it styles notices,
// renders markdown and animates the loading indicator; otherwise it writes
// plain text.
type Console struct {
	out         io.Writer
	interactive bool
	width       int
}

// NewConsole returns a Console writing to f. noColor forces plain ASCII
// styling even on a terminal.
func NewConsole(f *os.File, noColor bool) *Console {
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	c := &Console{out: f, width: defaultWidth}
	fd := int(f.Fd())
	if term.IsTerminal(fd) {
		c.interactive = true
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			c.width = w
		}
	}
	return c
}

// NewPlainConsole returns a non-interactive Console writing to w.
func NewPlainConsole(w io.Writer) *Console {
	return &Console{out: w, width: defaultWidth}
}

// Interactive reports whether the console is attached to a terminal.
func (c *Console) Interactive() bool { return c.interactive }

// Notice shows an informational message.
func (c *Console) Notice(msg string) {
	c.println(noticeStyle.Render(msg))
}

// Advise implements chat.Advisor.
func (c *Console) Advise(msg string) {
	c.Notice(msg)
}

// Error shows a failure the way the editor notice did.
func (c *Console) Error(err error) {
	c.println(errorStyle.Render("ChatCBT Error: " + err.Error()))
}

// Markdown renders md. Outside a terminal md is written unchanged.
func (c *Console) Markdown(md string) {
	if !c.interactive {
		fmt.Fprintln(c.out, md)
		return
	}
	fmt.Fprint(c.out, c.render(md))
}

// Indicator returns a loading indicator suited to the console.
func (c *Console) Indicator() *Spinner {
	return &Spinner{console: c}
}

func (c *Console) render(md string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(c.width-4),
	)
	if err != nil {
		return md + "\n"
	}
	out, err := r.Render(md)
	if err != nil {
		return md + "\n"
	}
	return out
}

func (c *Console) println(styled string) {
	if !c.interactive {
		styled = ansi.Strip(styled)
	}
	fmt.Fprintln(c.out, strings.TrimRight(styled, "\n"))
}
