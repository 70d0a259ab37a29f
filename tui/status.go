package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/optionspicker/engine"
	"github.com/nathoo/optionspicker/engine/textfile"
)

// renderStatusBar produces a full-width inverted status line showing the
// option count, total weight, history size and the last pick.
func (m Model) renderStatusBar() string {
	e := m.engine
	spins := len(e.Tracker.History())

	left := fmt.Sprintf(" %d options | Weight: %s", e.Len(), textfile.FormatWeight(e.TotalWeight()))
	right := fmt.Sprintf("H:%d/%d ", spins, engine.HistoryCapacity)

	switch {
	case m.spinning || m.selecting:
		right = m.spinner.View() + " spinning | " + right
	case m.lastPick != "":
		// Show the last pick if it fits.
		candidate := fmt.Sprintf("Last: %s | %s", m.lastPick, right)
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
