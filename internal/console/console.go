// Package console prints user-facing status lines and fallback text.
package console

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colors used for status lines.
type Theme struct {
	Success lipgloss.Color
	Notice  lipgloss.Color
	Failure lipgloss.Color
	Echo    lipgloss.Color
}

// DefaultTheme mirrors a typical terminal palette.
var DefaultTheme = Theme{
	Success: lipgloss.Color("2"),
	Notice:  lipgloss.Color("3"),
	Failure: lipgloss.Color("1"),
	Echo:    lipgloss.Color("6"),
}

// Styles holds the styles derived from a theme.
type Styles struct {
	Success lipgloss.Style
	Notice  lipgloss.Style
	Failure lipgloss.Style
	Echo    lipgloss.Style
}

// Console writes styled lines to a single writer. Safe for concurrent use.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	styles Styles
}

// New creates a console writing to w. Color support is detected from w,
// so a non-terminal writer receives plain text.
func New(w io.Writer) *Console {
	return NewWithTheme(w, DefaultTheme)
}

// NewWithTheme creates a console with a custom theme.
func NewWithTheme(w io.Writer, t Theme) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		out: w,
		styles: Styles{
			Success: r.NewStyle().Bold(true).Foreground(t.Success),
			Notice:  r.NewStyle().Bold(true).Foreground(t.Notice),
			Failure: r.NewStyle().Bold(true).Foreground(t.Failure),
			Echo:    r.NewStyle().Foreground(t.Echo),
		},
	}
}

// Stdout returns a console bound to os.Stdout.
func Stdout() *Console {
	return New(os.Stdout)
}

// Print writes text verbatim followed by a newline.
func (c *Console) Print(text string) {
	c.write(text)
}

// Success prints a bold green status line.
func (c *Console) Success(format string, args ...any) {
	c.write(c.styles.Success.Render(fmt.Sprintf(format, args...)))
}

// Notice prints a bold yellow status line.
func (c *Console) Notice(format string, args ...any) {
	c.write(c.styles.Notice.Render(fmt.Sprintf(format, args...)))
}

// Failure prints a bold red status line.
func (c *Console) Failure(format string, args ...any) {
	c.write(c.styles.Failure.Render(fmt.Sprintf(format, args...)))
}

// Echo prints a cyan line, used to repeat what the user said.
func (c *Console) Echo(format string, args ...any) {
	c.write(c.styles.Echo.Render(fmt.Sprintf(format, args...)))
}

func (c *Console) write(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, line)
}
