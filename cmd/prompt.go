package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

var errPromptCanceled = errors.New("password entry canceled")

// passwordPrompt is a single masked input line
type passwordPrompt struct {
	input    textinput.Model
	done     bool
	canceled bool
}

func newPasswordPrompt(label string) passwordPrompt {
	ti := textinput.New()
	ti.Prompt = label
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '*'
	ti.Focus()
	return passwordPrompt{input: ti}
}

func (m passwordPrompt) Init() tea.Cmd {
	return textinput.Blink
}

func (m passwordPrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.canceled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m passwordPrompt) View() string {
	if m.done || m.canceled {
		return ""
	}
	return m.input.View() + "\n"
}

// promptPassword asks for a password twice on the terminal
func promptPassword(username string) (string, error) {
	first, err := runPrompt(fmt.Sprintf("Password for %s: ", username))
	if err != nil {
		return "", err
	}
	second, err := runPrompt("Confirm password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", fmt.Errorf("passwords do not match")
	}
	return first, nil
}

func runPrompt(label string) (string, error) {
	final, err := tea.NewProgram(newPasswordPrompt(label)).Run()
	if err != nil {
		return "", fmt.Errorf("password prompt failed: %w", err)
	}
	return promptValue(final)
}

// promptValue extracts the entered password from the finished prompt model
func promptValue(final tea.Model) (string, error) {
	m, ok := final.(passwordPrompt)
	if !ok {
		return "", fmt.Errorf("password prompt returned unexpected model %T", final)
	}
	if m.canceled {
		return "", errPromptCanceled
	}
	return m.input.Value(), nil
}

// interactive reports whether stdin is a terminal; tests replace it
var interactive = isInteractive

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
