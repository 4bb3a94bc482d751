package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rgehrsitz/ichra/internal/compare"
	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/rgehrsitz/ichra/internal/session"
	"github.com/rgehrsitz/ichra/internal/tui/scenes"
)

// Model represents the entire application state
type Model struct {
	// Navigation
	currentScene  Scene
	previousScene Scene

	// Terminal dimensions
	width  int
	height int

	session    *session.Session
	censusPath string
	mode       compare.OperatingMode

	analysis   *domain.WorkforceAnalysis
	comparison *compare.ComparisonSet
	selected   *compare.StrategyOutcome

	homeModel    *scenes.HomeModel
	compareModel *scenes.CompareModel
	resultsModel *scenes.ResultsModel

	keys keyMap

	err error

	spinner        spinner.Model
	loading        bool
	loadingMessage string
}

type keyMap struct {
	Quit    key.Binding
	Help    key.Binding
	Back    key.Binding
	Home    key.Binding
	Compare key.Binding
	Results key.Binding
	Mode    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Home:    key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "home")),
		Compare: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "compare")),
		Results: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "results")),
		Mode:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mode")),
	}
}

// NewModel creates the browser for a session. The comparison runs on Init.
func NewModel(sess *session.Session, censusPath string, mode compare.OperatingMode) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StatusKeyStyle

	return Model{
		currentScene:   SceneHome,
		session:        sess,
		censusPath:     censusPath,
		mode:           mode,
		homeModel:      scenes.NewHomeModel(censusPath),
		compareModel:   scenes.NewCompareModel(),
		resultsModel:   scenes.NewResultsModel(),
		keys:           defaultKeyMap(),
		spinner:        s,
		loading:        sess != nil,
		loadingMessage: "Comparing strategies...",
		width:          80,
		height:         24,
	}
}

// Init starts the first comparison (required by tea.Model interface)
func (m Model) Init() tea.Cmd {
	if m.session == nil {
		return nil
	}
	return tea.Batch(m.spinner.Tick, compareCmd(m.session, m.censusPath, m.mode))
}

// compareCmd analyzes the workforce and ranks every strategy the mode allows
func compareCmd(sess *session.Session, censusPath string, mode compare.OperatingMode) tea.Cmd {
	return func() tea.Msg {
		w := sess.Workforce()
		analysis := sess.Analyzer().Analyze(w)

		engine := compare.NewEngine(sess.StrategyCalculator())
		engine.SetLogger(sess.Logger())
		set, err := engine.CompareStrategies(context.Background(), w, mode)
		if set != nil {
			set.CensusPath = censusPath
		}
		return ComparisonCompleteMsg{Mode: mode, Set: set, Analysis: analysis, Err: err}
	}
}

// nextMode cycles ALE, standard and subsidy
func nextMode(mode compare.OperatingMode) compare.OperatingMode {
	switch mode {
	case compare.ModeALE:
		return compare.ModeStandard
	case compare.ModeStandard:
		return compare.ModeSubsidy
	default:
		return compare.ModeALE
	}
}
