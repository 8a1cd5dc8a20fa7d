package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/lite-lake/dnssync/internal/domain/entity"
)

const (
	ColorPrimary   = "#7C3AED"
	ColorSuccess   = "#10B981"
	ColorWarning   = "#F59E0B"
	ColorError     = "#EF4444"
	ColorSecondary = "#6B7280"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorPrimary))

	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSecondary))

	ChangeCreateStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorSuccess))

	ChangeUpdateStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorWarning))

	ChangeDeleteStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorError))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSuccess))

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorWarning))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorError)).
			Bold(true)
)

func changeStyle(t entity.ChangeType) lipgloss.Style {
	switch t {
	case entity.ChangeTypeCreate:
		return ChangeCreateStyle
	case entity.ChangeTypeUpdate:
		return ChangeUpdateStyle
	case entity.ChangeTypeDelete:
		return ChangeDeleteStyle
	default:
		return HelpStyle
	}
}

func stateStyle(s entity.SyncState) lipgloss.Style {
	switch s {
	case entity.StateSucceeded:
		return SuccessStyle
	case entity.StateSucceededWithErrors:
		return WarningStyle
	default:
		return ErrorStyle
	}
}
