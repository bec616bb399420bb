// Package ui renders progress and result lines for the xpidriver CLI.
package ui

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type doneMsg struct{ err error }

type spinnerModel struct {
	spinner spinner.Model
	label   string
	run     func() error

	done bool
	err  error
}

func newSpinnerModel(label string, run func() error) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	return spinnerModel{spinner: s, label: label, run: run}
}

func (m spinnerModel) Init() tea.Cmd {
	run := m.run
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return doneMsg{err: run()}
	})
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Interrupt
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m spinnerModel) View() string {
	if !m.done {
		return fmt.Sprintf("%s %s\n", m.spinner.View(), m.label)
	}
	if m.err != nil {
		return Failure(m.label) + "\n"
	}
	return Success(m.label) + "\n"
}

// RunWithSpinner runs fn while showing an animated spinner next to label on
// w, then leaves a success or failure line behind. With plain set it writes
// the lines without animation. fn's error is returned; RunWithSpinner always
// waits for fn to finish.
func RunWithSpinner(w io.Writer, label string, plain bool, fn func() error) error {
	if plain {
		fmt.Fprintf(w, "%s...\n", label)
		err := fn()
		if err != nil {
			fmt.Fprintln(w, Failure(label))
		} else {
			fmt.Fprintln(w, Success(label))
		}
		return err
	}

	result := make(chan error, 1)
	var started atomic.Bool
	run := func() error {
		started.Store(true)
		err := fn()
		result <- err
		return err
	}

	p := tea.NewProgram(newSpinnerModel(label, run), tea.WithOutput(w), tea.WithInput(nil))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrInterrupted) && !started.Load() {
		return fmt.Errorf("failed to run spinner: %w", err)
	}
	return <-result
}
