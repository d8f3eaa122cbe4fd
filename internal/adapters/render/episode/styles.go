package episode

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title      lipgloss.Style
	header     lipgloss.Style
	episode    lipgloss.Style
	detail     lipgloss.Style
	section    lipgloss.Style
	empty      lipgloss.Style
	fieldKey   lipgloss.Style
	fieldValue lipgloss.Style
	active     lipgloss.Style
	ended      lipgloss.Style
	idle       lipgloss.Style
	barBracket lipgloss.Style
	barFill    lipgloss.Style
	barEmpty   lipgloss.Style
	positive   lipgloss.Style
	negative   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:      lipgloss.NewStyle().Bold(true),
		header:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		episode:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		detail:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		section:    lipgloss.NewStyle().MarginTop(1),
		empty:      lipgloss.NewStyle().Faint(true),
		fieldKey:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Width(12),
		fieldValue: lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Width(14).Align(lipgloss.Right),
		active:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("114")),
		ended:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		idle:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245")),
		barBracket: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		barFill:    lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		barEmpty:   lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		positive:   lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		negative:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
	}
}
