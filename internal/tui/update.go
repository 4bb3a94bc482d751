package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles all messages and updates the model state
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.homeModel.SetSize(msg.Width, msg.Height)
		m.compareModel.SetSize(msg.Width, msg.Height)
		m.resultsModel.SetSize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case NavigateMsg:
		m.previousScene = m.currentScene
		m.currentScene = msg.Scene
		return m, nil

	case ErrorMsg:
		m.loading = false
		m.err = msg.Err
		return m, nil

	case ComparisonStartedMsg:
		if m.session == nil {
			return m, nil
		}
		m.mode = msg.Mode
		m.loading = true
		m.loadingMessage = "Comparing strategies (" + string(msg.Mode) + ")..."
		return m, tea.Batch(m.spinner.Tick, compareCmd(m.session, m.censusPath, msg.Mode))

	case ComparisonCompleteMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.mode = msg.Mode
		m.analysis = msg.Analysis
		m.comparison = msg.Set
		m.selected = nil
		m.homeModel.SetData(msg.Mode, msg.Analysis, msg.Set)
		m.compareModel.SetComparison(msg.Set)
		m.compareModel.SetSize(m.width, m.height)
		m.resultsModel.SetOutcome(nil)
		return m, nil

	case OutcomeSelectedMsg:
		m.selected = msg.Outcome
		m.resultsModel.SetOutcome(msg.Outcome)
		m.resultsModel.SetSize(m.width, m.height)
		return m, navigate(SceneResults)
	}

	return m.updateCurrentScene(msg)
}

func navigate(s Scene) tea.Cmd {
	return func() tea.Msg { return NavigateMsg{Scene: s} }
}

// handleKeyPress processes keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	// Any key dismisses an error
	if m.err != nil {
		m.err = nil
		return m, nil
	}
	if m.loading {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		return m, navigate(SceneHelp)

	case key.Matches(msg, m.keys.Back):
		if m.currentScene == SceneHome {
			return m, nil
		}
		if m.previousScene != m.currentScene {
			return m, navigate(m.previousScene)
		}
		return m, navigate(SceneHome)

	case key.Matches(msg, m.keys.Home):
		if m.currentScene != SceneHome {
			return m, navigate(SceneHome)
		}

	case key.Matches(msg, m.keys.Compare):
		if m.currentScene != SceneCompare {
			return m, navigate(SceneCompare)
		}

	case key.Matches(msg, m.keys.Results):
		if m.currentScene != SceneResults && m.selected != nil {
			return m, navigate(SceneResults)
		}

	case key.Matches(msg, m.keys.Mode):
		mode := nextMode(m.mode)
		return m, func() tea.Msg { return ComparisonStartedMsg{Mode: mode} }
	}

	return m.updateCurrentScene(msg)
}

// updateCurrentScene delegates updates to the current scene's model
func (m Model) updateCurrentScene(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentScene {
	case SceneHome:
		m.homeModel, cmd = m.homeModel.Update(msg)
	case SceneCompare:
		m.compareModel, cmd = m.compareModel.Update(msg)
	case SceneResults:
		m.resultsModel, cmd = m.resultsModel.Update(msg)
	}
	return m, cmd
}
