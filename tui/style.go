package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	stylePlain = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleResult = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228")).
			Bold(true)

	styleDetail = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	styleUserInput = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34"))

	styleSpinner = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindPlain lineKind = iota
	kindResult
	kindDetail
	kindSystem
	kindError
)

const resultPrefix = "The wheel stops on: "

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case strings.HasPrefix(line, resultPrefix):
		return kindResult
	case strings.HasPrefix(line, "(") && strings.HasSuffix(line, ")"):
		return kindDetail
	case strings.Contains(line, " failed"),
		strings.HasPrefix(line, "There is nothing"),
		strings.HasPrefix(line, "Hold on"),
		strings.HasPrefix(line, "I don't know"),
		strings.HasPrefix(line, "Spin cancelled"):
		return kindError
	default:
		return kindPlain
	}
}

// styledResult renders "The wheel stops on: X" with the pick highlighted.
func styledResult(line string) string {
	if !strings.HasPrefix(line, resultPrefix) {
		return stylePlain.Render(line)
	}
	return stylePlain.Render(resultPrefix) + styleResult.Render(line[len(resultPrefix):])
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
