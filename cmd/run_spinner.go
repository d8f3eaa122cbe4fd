package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type runDoneMsg struct {
	err error
}

type runProgressMsg struct {
	label string
}

type runSpinnerModel struct {
	spinner  spinner.Model
	label    string
	run      tea.Cmd
	progress <-chan string
	err      error
	done     bool
}

func newRunSpinnerModel(label string, run tea.Cmd, progress <-chan string) runSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return runSpinnerModel{
		spinner:  s,
		label:    label,
		run:      run,
		progress: progress,
	}
}

func (m runSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run, m.waitProgress())
}

func (m runSpinnerModel) waitProgress() tea.Cmd {
	return func() tea.Msg {
		label, ok := <-m.progress
		if !ok {
			return nil
		}
		return runProgressMsg{label: label}
	}
}

func (m runSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case runProgressMsg:
		m.label = msg.label
		return m, m.waitProgress()
	case runDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m runSpinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

// runWithSpinner shows a spinner on output while run executes. Labels sent on progress replace the spinner text.
func runWithSpinner(ctx context.Context, output io.Writer, label string, run func(context.Context, chan<- string) error) error {
	progress := make(chan string, 16)
	runCmd := func() tea.Msg {
		err := run(ctx, progress)
		close(progress)
		return runDoneMsg{err: err}
	}

	p := tea.NewProgram(
		newRunSpinnerModel(label, runCmd, progress),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(runSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
