package ui

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/staabm/platformsh-cli/internal/errors"
)

// EnvironmentInfo contains information about an environment for display
// in the picker.
type EnvironmentInfo struct {
	ID     string // Environment identifier (e.g., "feature-x")
	Parent string // Parent environment identifier
	Status string // Activation status
}

// environmentItem implements list.Item for the Bubbles list component.
type environmentItem struct {
	env EnvironmentInfo
}

func (i environmentItem) Title() string {
	return i.env.ID
}

func (i environmentItem) Description() string {
	var parts []string

	if i.env.Status != "" {
		parts = append(parts, i.env.Status)
	}
	if i.env.Parent != "" {
		parts = append(parts, "parent: "+i.env.Parent)
	}

	return strings.Join(parts, " | ")
}

func (i environmentItem) FilterValue() string {
	return i.env.ID
}

// EnvironmentPickerModel is a Bubble Tea model for selecting an environment.
type EnvironmentPickerModel struct {
	list     list.Model
	selected *EnvironmentInfo
	quitting bool
}

type environmentPickerKeyMap struct {
	Enter key.Binding
	Quit  key.Binding
}

var environmentPickerKeys = environmentPickerKeyMap{
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q/esc", "cancel"),
	),
}

// NewEnvironmentPickerModel creates a new environment picker model.
func NewEnvironmentPickerModel(envs []EnvironmentInfo) EnvironmentPickerModel {
	items := make([]list.Item, len(envs))
	for i, e := range envs {
		items[i] = environmentItem{env: e}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color(string(ColorPrimary))).
		BorderForeground(lipgloss.Color(string(ColorSecondary)))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color(string(ColorMuted)))

	l := list.New(items, delegate, 0, 0)
	l.Title = "Select an environment"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color(string(ColorPrimary))).
		Bold(true).
		Padding(0, 0, 1, 0)
	l.Styles.HelpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(string(ColorMuted)))

	return EnvironmentPickerModel{list: l}
}

// Init implements tea.Model.
func (m EnvironmentPickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m EnvironmentPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, environmentPickerKeys.Enter):
			if item, ok := m.list.SelectedItem().(environmentItem); ok {
				m.selected = &item.env
			}
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, environmentPickerKeys.Quit):
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-2)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m EnvironmentPickerModel) View() string {
	if m.quitting {
		return ""
	}
	return m.list.View()
}

// Selected returns the selected environment, or nil if cancelled.
func (m EnvironmentPickerModel) Selected() *EnvironmentInfo {
	return m.selected
}

// PickEnvironment displays an interactive environment picker and returns
// the selection. Returns nil if the user cancels (ESC/q/Ctrl+C).
func PickEnvironment(envs []EnvironmentInfo) (*EnvironmentInfo, error) {
	return PickEnvironmentWithIO(envs, os.Stdout, os.Stdin)
}

// PickEnvironmentWithIO displays the environment picker using custom I/O.
func PickEnvironmentWithIO(envs []EnvironmentInfo, output io.Writer, input io.Reader) (*EnvironmentInfo, error) {
	if len(envs) == 0 {
		return nil, errors.New(errors.ErrAPI,
			"No environments to pick from",
			"Push a branch first, or check the project ID")
	}

	if len(envs) == 1 {
		return &envs[0], nil
	}

	model := NewEnvironmentPickerModel(envs)

	p := tea.NewProgram(
		model,
		tea.WithOutput(output),
		tea.WithInput(input),
	)

	finalModel, err := p.Run()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Environment picker failed",
			"Use --environment to specify the environment directly")
	}

	if m, ok := finalModel.(EnvironmentPickerModel); ok {
		return m.Selected(), nil
	}

	return nil, nil
}
