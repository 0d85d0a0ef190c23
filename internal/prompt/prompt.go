// Package prompt implements the interactive line editor: a bubbletea
// program wrapping a textinput with schema-aware completion cycling and
// history navigation.
package prompt

import (
	"errors"
	"os"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"github.com/mcpsh/mcpsh/internal/completion"
	"github.com/mcpsh/mcpsh/internal/styles"
)

// ErrInterrupted is returned when the user presses Ctrl+C at the prompt.
var ErrInterrupted = errors.New("prompt interrupted")

// ErrEOF is returned when the user presses Ctrl+D on an empty line.
var ErrEOF = errors.New("prompt eof")

// maxMenuItems caps how many candidates the menu shows at once.
const maxMenuItems = 10

// Completer produces candidates for the current buffer and cursor.
type Completer interface {
	Complete(line string, cursor int) []completion.Candidate
}

// completionState tracks an in-progress completion cycle. The original
// buffer is kept so Tab can step through candidates non-destructively and
// Esc can restore what the user had typed. originalPos is a byte offset
// into originalValue, not a rune index.
type completionState struct {
	active        bool
	candidates    []completion.Candidate
	selected      int
	originalValue string
	originalPos   int
}

func (cs *completionState) reset() {
	cs.active = false
	cs.candidates = nil
	cs.selected = -1
	cs.originalValue = ""
	cs.originalPos = 0
}

type model struct {
	input     textinput.Model
	completer Completer
	logger    *zap.Logger

	history      []string
	historyIndex int
	savedLine    string

	comp completionState

	width  int
	result string
	err    error
	done   bool
}

func newModel(promptText string, history []string, completer Completer, logger *zap.Logger) model {
	input := textinput.New()
	input.Prompt = promptText
	input.PromptStyle = styles.PromptPrefix
	input.Focus()

	return model{
		input:        input,
		completer:    completer,
		logger:       logger,
		history:      history,
		historyIndex: len(history),
		width:        80,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - runewidth.StringWidth(m.input.Prompt) - 1
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.err = ErrInterrupted
			m.done = true
			return m, tea.Quit

		case tea.KeyCtrlD:
			if m.input.Value() == "" {
				m.err = ErrEOF
				m.done = true
				return m, tea.Quit
			}

		case tea.KeyEnter:
			m.comp.reset()
			m.result = m.input.Value()
			m.done = true
			return m, tea.Quit

		case tea.KeyTab:
			m.advanceCompletion(1)
			return m, nil

		case tea.KeyShiftTab:
			m.advanceCompletion(-1)
			return m, nil

		case tea.KeyEscape:
			if m.comp.active {
				m.input.SetValue(m.comp.originalValue)
				m.input.SetCursor(utf8.RuneCountInString(m.comp.originalValue[:m.comp.originalPos]))
				m.comp.reset()
			}
			return m, nil

		case tea.KeyUp:
			m.comp.reset()
			m.navigateHistory(-1)
			return m, nil

		case tea.KeyDown:
			m.comp.reset()
			m.navigateHistory(1)
			return m, nil
		}

		// Any other key accepts whatever completion text is in the buffer
		// and keeps typing from there.
		m.comp.reset()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// advanceCompletion starts a completion cycle or steps through an active
// one. Each step re-applies a candidate against the original buffer, so
// cycling never compounds insertions.
func (m *model) advanceCompletion(direction int) {
	if m.completer == nil {
		return
	}

	if !m.comp.active {
		line := m.input.Value()
		// textinput counts the cursor in runes; the completer and the
		// candidate offsets work in bytes.
		pos := byteOffset(line, m.input.Position())

		candidates := m.completer.Complete(line, pos)
		if len(candidates) == 0 {
			return
		}

		if len(candidates) == 1 {
			m.comp.originalValue = line
			m.comp.originalPos = pos
			m.applyCandidate(candidates[0])
			m.comp.reset()
			return
		}

		m.comp.active = true
		m.comp.candidates = candidates
		m.comp.originalValue = line
		m.comp.originalPos = pos
		if direction < 0 {
			m.comp.selected = len(candidates) - 1
		} else {
			m.comp.selected = 0
		}
		m.applyCandidate(candidates[m.comp.selected])
		return
	}

	n := len(m.comp.candidates)
	m.comp.selected = (m.comp.selected + direction + n) % n
	m.applyCandidate(m.comp.candidates[m.comp.selected])
}

// applyCandidate splices a candidate into the original buffer at the
// cursor-relative replace offset. The splice works in bytes; the cursor
// handed back to textinput is converted to a rune index.
func (m *model) applyCandidate(c completion.Candidate) {
	value := m.comp.originalValue
	pos := m.comp.originalPos

	from := pos + c.ReplaceFrom
	if from < 0 {
		from = 0
	}
	if from > pos {
		from = pos
	}

	next := value[:from] + c.Insert + value[pos:]
	cursor := from + len(c.Insert)

	m.input.SetValue(next)
	m.input.SetCursor(utf8.RuneCountInString(next[:cursor]))
}

// byteOffset converts a rune-indexed cursor position into a byte offset
// into value.
func byteOffset(value string, runePos int) int {
	if runePos <= 0 {
		return 0
	}
	for i := range value {
		if runePos == 0 {
			return i
		}
		runePos--
	}
	return len(value)
}

// navigateHistory moves through past commands. The live line is stashed so
// walking down past the newest entry restores it.
func (m *model) navigateHistory(direction int) {
	if len(m.history) == 0 {
		return
	}

	next := m.historyIndex + direction
	if next < 0 || next > len(m.history) {
		return
	}

	if m.historyIndex == len(m.history) {
		m.savedLine = m.input.Value()
	}

	m.historyIndex = next
	if next == len(m.history) {
		m.input.SetValue(m.savedLine)
	} else {
		m.input.SetValue(m.history[next])
	}
	m.input.CursorEnd()
}

func (m model) View() string {
	if m.done {
		return m.input.View() + "\n"
	}

	view := m.input.View()
	if m.comp.active {
		view += "\n" + m.renderMenu()
	}
	return view
}

// renderMenu draws the candidate list with the selection highlighted,
// windowed around the selected item.
func (m model) renderMenu() string {
	start := 0
	if m.comp.selected >= maxMenuItems {
		start = m.comp.selected - maxMenuItems + 1
	}
	end := start + maxMenuItems
	if end > len(m.comp.candidates) {
		end = len(m.comp.candidates)
	}

	labelWidth := 0
	for _, c := range m.comp.candidates[start:end] {
		if w := runewidth.StringWidth(c.Label()); w > labelWidth {
			labelWidth = w
		}
	}

	var out string
	for i := start; i < end; i++ {
		label := runewidth.FillRight(m.comp.candidates[i].Label(), labelWidth)
		if i == m.comp.selected {
			out += styles.MenuSelected.Render(" " + label + " ")
		} else {
			out += styles.MenuItem.Render(" " + label + " ")
		}
		out += "\n"
	}

	if end < len(m.comp.candidates) {
		out += styles.MenuDesc.Render(" ...") + "\n"
	}
	return out
}

// Read runs the line editor and returns the submitted line. History is
// ordered oldest first.
func Read(promptText string, history []string, completer Completer, logger *zap.Logger) (string, error) {
	program := tea.NewProgram(
		newModel(promptText, history, completer, logger),
		tea.WithInput(os.Stdin),
		tea.WithOutput(os.Stderr),
	)

	final, err := program.Run()
	if err != nil {
		return "", err
	}

	result := final.(model)
	if result.err != nil {
		return "", result.err
	}
	return result.result, nil
}
