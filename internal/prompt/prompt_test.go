package prompt

import (
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mcpsh/mcpsh/internal/completion"
)

// staticCompleter returns a fixed candidate list regardless of input.
type staticCompleter struct {
	candidates []completion.Candidate
}

func (c staticCompleter) Complete(line string, cursor int) []completion.Candidate {
	return c.candidates
}

func newTestModel(completer Completer, history []string) model {
	return newModel("> ", history, completer, zap.NewNop())
}

func press(m model, keyType tea.KeyType) model {
	next, _ := m.Update(tea.KeyMsg{Type: keyType})
	return next.(model)
}

func typeText(m model, text string) model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(model)
}

func TestTabAppliesSingleCandidate(t *testing.T) {
	m := newTestModel(staticCompleter{[]completion.Candidate{
		{Insert: "tools", ReplaceFrom: -2},
	}}, nil)
	m = typeText(m, "to")

	m = press(m, tea.KeyTab)

	assert.Equal(t, "tools", m.input.Value())
	assert.Equal(t, 5, m.input.Position())
	assert.False(t, m.comp.active, "single candidate should not open a menu")
}

func TestTabCyclesWithoutCompounding(t *testing.T) {
	m := newTestModel(staticCompleter{[]completion.Candidate{
		{Insert: "tools", ReplaceFrom: -2},
		{Insert: "tool-details", ReplaceFrom: -2},
	}}, nil)
	m = typeText(m, "to")

	m = press(m, tea.KeyTab)
	require.True(t, m.comp.active)
	assert.Equal(t, "tools", m.input.Value())

	m = press(m, tea.KeyTab)
	assert.Equal(t, "tool-details", m.input.Value())

	m = press(m, tea.KeyTab)
	assert.Equal(t, "tools", m.input.Value(), "cycle wraps around to the first candidate")
}

func TestShiftTabCyclesBackwards(t *testing.T) {
	m := newTestModel(staticCompleter{[]completion.Candidate{
		{Insert: "a"},
		{Insert: "b"},
		{Insert: "c"},
	}}, nil)

	m = press(m, tea.KeyShiftTab)
	assert.Equal(t, "c", m.input.Value(), "backwards entry starts at the last candidate")

	m = press(m, tea.KeyShiftTab)
	assert.Equal(t, "b", m.input.Value())
}

func TestEscapeRestoresOriginal(t *testing.T) {
	m := newTestModel(staticCompleter{[]completion.Candidate{
		{Insert: "tools", ReplaceFrom: -2},
		{Insert: "tool-details", ReplaceFrom: -2},
	}}, nil)
	m = typeText(m, "to")

	m = press(m, tea.KeyTab)
	require.Equal(t, "tools", m.input.Value())

	m = press(m, tea.KeyEscape)
	assert.Equal(t, "to", m.input.Value())
	assert.Equal(t, 2, m.input.Position())
	assert.False(t, m.comp.active)
}

func TestTypingAcceptsCurrentCandidate(t *testing.T) {
	m := newTestModel(staticCompleter{[]completion.Candidate{
		{Insert: `"name": ""`},
		{Insert: `"`},
	}}, nil)
	m = typeText(m, "call t {")

	m = press(m, tea.KeyTab)
	require.True(t, m.comp.active)

	m = typeText(m, "x")
	assert.False(t, m.comp.active)
	assert.Equal(t, `call t {"name": ""x`, m.input.Value())
}

func TestNegativeReplaceFromSplicesBeforeCursor(t *testing.T) {
	m := newTestModel(staticCompleter{[]completion.Candidate{
		{Insert: `me": `, ReplaceFrom: 0},
	}}, nil)
	m = typeText(m, `call t { "na`)

	m = press(m, tea.KeyTab)
	assert.Equal(t, `call t { "name": `, m.input.Value())
}

// The completer and candidate offsets work in bytes while textinput
// counts runes; a multi-byte rune before the cursor must not shift the
// splice.
func TestCompletionWithMultibyteRunes(t *testing.T) {
	snap := completion.Snapshot{
		Commands:  []string{"read"},
		Resources: []string{"café-menu"},
	}
	provider := &completion.Provider{Snapshot: func() completion.Snapshot { return snap }}

	m := newTestModel(provider, nil)
	m = typeText(m, "read café")
	require.Equal(t, 9, m.input.Position(), "textinput cursor is rune indexed")

	m = press(m, tea.KeyTab)
	assert.Equal(t, "read café-menu", m.input.Value())
	assert.Equal(t, utf8.RuneCountInString("read café-menu"), m.input.Position())
}

func TestEscapeRestoresMultibyteCursor(t *testing.T) {
	m := newTestModel(staticCompleter{[]completion.Candidate{
		{Insert: "café-menu", ReplaceFrom: -len("café")},
		{Insert: "café-bar", ReplaceFrom: -len("café")},
	}}, nil)
	m = typeText(m, "read café")

	m = press(m, tea.KeyTab)
	require.True(t, m.comp.active)
	assert.Equal(t, "read café-menu", m.input.Value())

	m = press(m, tea.KeyShiftTab)
	assert.Equal(t, "read café-bar", m.input.Value(), "cycling splices against the original bytes")

	m = press(m, tea.KeyEscape)
	assert.Equal(t, "read café", m.input.Value())
	assert.Equal(t, 9, m.input.Position())
}

func TestByteOffset(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		runePos int
		want    int
	}{
		{"ascii", "read", 2, 2},
		{"multibyte before cursor", "café", 4, 5},
		{"cursor mid string", "café-menu", 4, 5},
		{"past the end clamps", "café", 99, 5},
		{"negative clamps to zero", "café", -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, byteOffset(tt.value, tt.runePos))
		})
	}
}

func TestNoCandidatesLeavesBufferAlone(t *testing.T) {
	m := newTestModel(staticCompleter{nil}, nil)
	m = typeText(m, "zzz")

	m = press(m, tea.KeyTab)
	assert.Equal(t, "zzz", m.input.Value())
	assert.False(t, m.comp.active)
}

func TestHistoryNavigation(t *testing.T) {
	m := newTestModel(staticCompleter{nil}, []string{"tools", "resources"})
	m = typeText(m, "hel")

	m = press(m, tea.KeyUp)
	assert.Equal(t, "resources", m.input.Value())

	m = press(m, tea.KeyUp)
	assert.Equal(t, "tools", m.input.Value())

	m = press(m, tea.KeyUp)
	assert.Equal(t, "tools", m.input.Value(), "up at the oldest entry stays put")

	m = press(m, tea.KeyDown)
	assert.Equal(t, "resources", m.input.Value())

	m = press(m, tea.KeyDown)
	assert.Equal(t, "hel", m.input.Value(), "down past the newest entry restores the live line")
}

func TestEnterSubmits(t *testing.T) {
	m := newTestModel(staticCompleter{nil}, nil)
	m = typeText(m, "tools")

	m = press(m, tea.KeyEnter)
	assert.True(t, m.done)
	assert.Equal(t, "tools", m.result)
	assert.NoError(t, m.err)
}

func TestCtrlCInterrupts(t *testing.T) {
	m := newTestModel(staticCompleter{nil}, nil)
	m = typeText(m, "half a comm")

	m = press(m, tea.KeyCtrlC)
	assert.True(t, m.done)
	assert.ErrorIs(t, m.err, ErrInterrupted)
}

func TestCtrlDOnEmptyLineSignalsEOF(t *testing.T) {
	m := newTestModel(staticCompleter{nil}, nil)

	m = press(m, tea.KeyCtrlD)
	assert.True(t, m.done)
	assert.ErrorIs(t, m.err, ErrEOF)
}

func TestMenuRendersSelection(t *testing.T) {
	m := newTestModel(staticCompleter{[]completion.Candidate{
		{Insert: "alpha"},
		{Insert: "beta", Display: "beta - second"},
	}}, nil)

	m = press(m, tea.KeyTab)
	require.True(t, m.comp.active)

	view := m.View()
	assert.Contains(t, view, "alpha")
	assert.Contains(t, view, "beta - second")
}
