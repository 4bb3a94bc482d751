package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the current state of the application
func (m Model) View() string {
	if m.loading {
		return m.renderApp(BorderStyle.Render(fmt.Sprintf("%s %s", m.spinner.View(), m.loadingMessage)))
	}
	if m.err != nil {
		return m.renderApp(ErrorStyle.Render(fmt.Sprintf("Error: %s\n\nPress any key to continue...", m.err)))
	}

	var content string
	switch m.currentScene {
	case SceneHome:
		content = m.homeModel.View()
	case SceneCompare:
		content = m.compareModel.View()
	case SceneResults:
		content = m.resultsModel.View()
	case SceneHelp:
		content = renderHelp()
	default:
		content = "Unknown scene"
	}
	return m.renderApp(content)
}

// renderApp wraps content with title bar and status bar
func (m Model) renderApp(content string) string {
	contentHeight := max(0, m.height-4)
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderTitleBar(),
		lipgloss.NewStyle().Height(contentHeight).Render(content),
		m.renderStatusBar(),
	)
}

// renderTitleBar renders the application title and breadcrumb
func (m Model) renderTitleBar() string {
	title := TitleStyle.Render("ICHRA - Contribution Strategy Browser")
	breadcrumb := m.currentScene.String()
	if m.mode != "" {
		breadcrumb += " / " + string(m.mode)
	}
	if m.currentScene == SceneResults && m.selected != nil {
		breadcrumb += " / " + m.selected.Name
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, SubtitleStyle.Render(breadcrumb))
}

// renderStatusBar renders the bottom status bar with keyboard shortcuts
func (m Model) renderStatusBar() string {
	bindings := []struct{ key, desc string }{
		{m.keys.Home.Help().Key, m.keys.Home.Help().Desc},
		{m.keys.Compare.Help().Key, m.keys.Compare.Help().Desc},
		{m.keys.Results.Help().Key, m.keys.Results.Help().Desc},
		{m.keys.Mode.Help().Key, m.keys.Mode.Help().Desc},
		{m.keys.Help.Help().Key, m.keys.Help.Help().Desc},
		{m.keys.Quit.Help().Key, m.keys.Quit.Help().Desc},
	}
	shortcuts := make([]string, len(bindings))
	for i, b := range bindings {
		shortcuts[i] = StatusKeyStyle.Render(b.key) + " " + b.desc
	}
	statusText := strings.Join(shortcuts, " • ")

	if m.session != nil {
		id := SubtitleStyle.Render("session " + shortID(m.session.ID))
		spacer := strings.Repeat(" ", max(0, m.width-lipgloss.Width(statusText)-lipgloss.Width(id)-2))
		statusText += spacer + id
	}
	return StatusBarStyle.Width(m.width).Render(statusText)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// renderHelp renders the help screen
func renderHelp() string {
	return BorderStyle.Render(`
ICHRA Contribution Strategy Browser

KEYBOARD SHORTCUTS:
  h        Home: workforce affordability overview
  c        Compare: every strategy the mode allows, ranked
  r        Results: per-employee detail of the selected strategy
  m        Switch operating mode (ALE, standard, subsidy)
  ?        Show this help
  ESC      Go back
  q/Ctrl+C Quit

IN TABLES:
  ↑/↓ or j/k  Move
  enter       Open the strategy under the cursor

In ALE mode strategies that are not 100% affordable are marked "!"
and rank after every compliant strategy.
`)
}
