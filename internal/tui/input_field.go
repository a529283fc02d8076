package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// AnswerSubmittedMsg is sent when the user submits an answer.
type AnswerSubmittedMsg struct {
	QuestionKey string
	Text        string
}

// InputField is a text input component for answering one question.
type InputField struct {
	input textinput.Model
	key   string
	width int
}

// NewInputField creates a new InputField.
func NewInputField() *InputField {
	ti := textinput.New()
	ti.Placeholder = "Type an answer and press Enter..."
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 60

	return &InputField{
		input: ti,
		width: 80,
	}
}

// SetWidth sets the width of the input field.
func (f *InputField) SetWidth(width int) {
	f.width = width
	f.input.Width = width - 4 // prompt and padding
}

// Bind points the field at a question and preloads its current answer.
func (f *InputField) Bind(questionKey, current string) {
	f.key = questionKey
	f.input.SetValue(current)
	f.input.CursorEnd()
}

// SetValue replaces the text being edited.
func (f *InputField) SetValue(s string) {
	f.input.SetValue(s)
	f.input.CursorEnd()
}

// Value returns the text being edited.
func (f *InputField) Value() string {
	return f.input.Value()
}

// Update handles messages for the input field.
func (f *InputField) Update(msg tea.Msg) (*InputField, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEnter {
		text := strings.TrimSpace(f.input.Value())
		if text == "" || f.key == "" {
			return f, nil
		}
		key := f.key
		return f, func() tea.Msg {
			return AnswerSubmittedMsg{QuestionKey: key, Text: text}
		}
	}

	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return f, cmd
}

// View renders the input field.
func (f *InputField) View() string {
	promptStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Bold(true)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Width(f.width - 2)

	prompt := promptStyle.Render("> ")
	return boxStyle.Render(prompt + f.input.View())
}

// Focus sets focus on the input field.
func (f *InputField) Focus() tea.Cmd {
	return f.input.Focus()
}

// Blur removes focus from the input field.
func (f *InputField) Blur() {
	f.input.Blur()
}
