// Package termtitle sets the terminal window title to reflect the
// connected MCP server, with capability detection so unsupported
// terminals get a silent no-op.
package termtitle

import (
	"fmt"
	"os"
	"strings"

	"github.com/muesli/termenv"
)

type Manager struct {
	output    *termenv.Output
	supported bool
	isTmux    bool
}

func NewManager() *Manager {
	return NewManagerWithOutput(termenv.DefaultOutput())
}

func NewManagerWithOutput(output *termenv.Output) *Manager {
	return &Manager{
		output:    output,
		supported: detectSupport(),
		isTmux:    os.Getenv("TMUX") != "",
	}
}

// Supported reports whether the terminal is expected to honor OSC 2.
func (m *Manager) Supported() bool {
	return m.supported
}

// SetTitle sets the window title. No-op on unsupported terminals.
func (m *Manager) SetTitle(title string) error {
	if !m.supported {
		return nil
	}

	title = sanitizeTitle(title)

	var seq string
	if m.isTmux {
		// tmux needs the OSC sequence wrapped in a passthrough envelope
		seq = fmt.Sprintf("\x1bPtmux;\x1b\x1b]2;%s\x07\x1b\\", title)
	} else {
		seq = fmt.Sprintf("\x1b]2;%s\x07", title)
	}

	_, err := m.output.WriteString(seq)
	return err
}

// Reset restores the default window title.
func (m *Manager) Reset() error {
	return m.SetTitle("")
}

// detectSupport checks the environment for a terminal known to honor
// OSC 2 title sequences.
func detectSupport() bool {
	term := strings.ToLower(os.Getenv("TERM"))
	if term == "" || term == "dumb" {
		return false
	}

	if strings.HasPrefix(term, "xterm") ||
		strings.HasPrefix(term, "screen") ||
		strings.HasPrefix(term, "tmux") ||
		strings.HasPrefix(term, "rxvt") ||
		strings.Contains(term, "color") {
		return true
	}

	return os.Getenv("TMUX") != "" || os.Getenv("STY") != ""
}

// sanitizeTitle strips control characters so the title cannot break out
// of the escape sequence.
func sanitizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		if r >= 32 && r != 127 {
			b.WriteRune(r)
		} else if r == '\t' {
			b.WriteRune(' ')
		}
	}

	runes := []rune(b.String())
	if len(runes) > 255 {
		return string(runes[:255])
	}
	return b.String()
}
