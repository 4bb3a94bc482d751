package tui

import (
	"github.com/rgehrsitz/ichra/internal/tui/tuimsg"
)

// Scene represents different screens in the TUI
type Scene int

const (
	SceneHome Scene = iota
	SceneCompare
	SceneResults
	SceneHelp
)

// String returns a human-readable name for a scene
func (s Scene) String() string {
	switch s {
	case SceneHome:
		return "Home"
	case SceneCompare:
		return "Compare"
	case SceneResults:
		return "Results"
	case SceneHelp:
		return "Help"
	default:
		return "Unknown"
	}
}

// NavigateMsg switches to a different scene
type NavigateMsg struct {
	Scene Scene
}

// Scene models live in their own package; their messages are shared through tuimsg
type (
	ErrorMsg              = tuimsg.ErrorMsg
	ComparisonStartedMsg  = tuimsg.ComparisonStartedMsg
	ComparisonCompleteMsg = tuimsg.ComparisonCompleteMsg
	OutcomeSelectedMsg    = tuimsg.OutcomeSelectedMsg
)
