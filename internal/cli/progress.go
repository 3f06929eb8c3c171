// Package cli provides terminal helpers for the fastfood command: status
// lines, a spinner for long operations and shell completion scripts.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Color codes for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorCyan   = "\033[36m"
)

// Console writes status lines, colored when the output is a terminal.
type Console struct {
	w        io.Writer
	colorize bool
}

// NewConsole returns a console writing to w. Color is enabled only when w is
// a character device.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w, colorize: isTerminal(w)}
}

func (c *Console) line(color, mark, message string) {
	if c.colorize {
		fmt.Fprintf(c.w, "%s%s%s %s\n", color, mark, ColorReset, message)
		return
	}
	fmt.Fprintf(c.w, "%s %s\n", mark, message)
}

// Success prints a success message
func (c *Console) Success(message string) { c.line(ColorGreen, "✓", message) }

// Error prints an error message
func (c *Console) Error(message string) { c.line(ColorRed, "✗", message) }

// Warning prints a warning message
func (c *Console) Warning(message string) { c.line(ColorYellow, "⚠", message) }

// Info prints an info message
func (c *Console) Info(message string) { c.line(ColorBlue, "ℹ", message) }

// Spinner animates while a blocking step runs.
type Spinner struct {
	frames  []string
	current int
	prefix  string
	mu      sync.Mutex
	console *Console
	started time.Time
	active  bool
	done    chan struct{}
}

// Spinner creates a stopped spinner labelled prefix.
func (c *Console) Spinner(prefix string) *Spinner {
	return &Spinner{
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		prefix:  prefix,
		console: c,
		done:    make(chan struct{}),
	}
}

// Start starts the spinner. Nothing is animated on a non-terminal.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return
	}
	s.active = true
	s.started = time.Now()
	animate := s.console.colorize
	s.mu.Unlock()

	if !animate {
		return
	}
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.mu.Lock()
				if s.active {
					fmt.Fprintf(s.console.w, "\r%s%s%s %s", ColorCyan, s.frames[s.current], ColorReset, s.prefix)
					s.current = (s.current + 1) % len(s.frames)
				}
				s.mu.Unlock()
			case <-s.done:
				return
			}
		}
	}()
}

func (s *Spinner) stop() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return 0
	}
	s.active = false
	close(s.done)
	if s.console.colorize {
		fmt.Fprint(s.console.w, "\r"+strings.Repeat(" ", 80)+"\r")
	}
	return time.Since(s.started)
}

// Success stops the spinner and reports message with the elapsed time.
func (s *Spinner) Success(message string) {
	elapsed := s.stop()
	s.console.Success(fmt.Sprintf("%s (%s)", message, formatDuration(elapsed)))
}

// Error stops the spinner and reports message.
func (s *Spinner) Error(message string) {
	s.stop()
	s.console.Error(message)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "< 1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
