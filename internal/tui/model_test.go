package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgehrsitz/ichra/internal/compare"
	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/rgehrsitz/ichra/internal/premium"
	"github.com/rgehrsitz/ichra/internal/session"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleSet() *compare.ComparisonSet {
	flat := &domain.StrategyResult{
		Kind: domain.KindFlatAmount,
		Name: domain.KindFlatAmount.DisplayName(),
		Employees: []domain.EmployeeContribution{
			{EmployeeID: "E1", Age: 30, State: "OH", FamilyStatus: domain.FamilyEmployeeOnly,
				LCSP: decimal.NewFromInt(400), Contribution: decimal.NewFromInt(300)},
		},
		TotalMonthly:     decimal.NewFromInt(300),
		TotalAnnual:      decimal.NewFromInt(3600),
		EmployeesCovered: 1,
		ByAgeTier:        map[string]domain.TierTotal{"26-35": {Count: 1, TotalMonthly: decimal.NewFromInt(300)}},
	}
	pct := &domain.StrategyResult{
		Kind:             domain.KindPercentageLCSP,
		Name:             domain.KindPercentageLCSP.DisplayName(),
		TotalMonthly:     decimal.NewFromInt(320),
		TotalAnnual:      decimal.NewFromInt(3840),
		EmployeesCovered: 1,
	}
	return &compare.ComparisonSet{
		Mode:          compare.ModeStandard,
		EmployeeCount: 1,
		Outcomes: []compare.StrategyOutcome{
			{Rank: 1, Kind: flat.Kind, Name: flat.Name, BaseContribution: decimal.NewFromInt(300),
				TotalMonthly: flat.TotalMonthly, TotalAnnual: flat.TotalAnnual, EmployeesCovered: 1, Result: flat},
			{Rank: 2, Kind: pct.Kind, Name: pct.Name, BaseContribution: decimal.NewFromInt(80),
				TotalMonthly: pct.TotalMonthly, TotalAnnual: pct.TotalAnnual, EmployeesCovered: 1, Result: pct},
		},
		Recommendations: []string{"Lowest Cost: Flat Amount"},
	}
}

// send applies a message and then every message its command chain produces,
// skipping batches and quit
func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	for msg != nil {
		next, cmd := m.Update(msg)
		m = next.(Model)
		msg = nil
		if cmd != nil {
			msg = cmd()
			if _, ok := msg.(tea.BatchMsg); ok {
				msg = nil
			}
		}
	}
	return m
}

func loadedModel(t *testing.T) Model {
	m := NewModel(nil, "census.csv", compare.ModeStandard)
	return send(t, m, ComparisonCompleteMsg{Mode: compare.ModeStandard, Set: sampleSet(), Analysis: &domain.WorkforceAnalysis{}})
}

func TestNewModel(t *testing.T) {
	m := NewModel(nil, "census.csv", compare.ModeALE)
	assert.Equal(t, SceneHome, m.currentScene)
	assert.False(t, m.loading, "Nothing to load without a session")
	assert.Nil(t, m.Init())
	assert.Contains(t, m.View(), "ICHRA - Contribution Strategy Browser")
}

func TestNavigation(t *testing.T) {
	m := loadedModel(t)

	m = send(t, m, runes("c"))
	assert.Equal(t, SceneCompare, m.currentScene)
	assert.Contains(t, m.View(), "Contribution Strategy Comparison")
	assert.Contains(t, m.View(), "Flat Amount")

	m = send(t, m, runes("?"))
	assert.Equal(t, SceneHelp, m.currentScene)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, SceneCompare, m.currentScene)

	m = send(t, m, runes("h"))
	assert.Equal(t, SceneHome, m.currentScene)

	m = send(t, m, runes("r"))
	assert.Equal(t, SceneHome, m.currentScene, "Results needs a selected strategy")
}

func TestSelectOutcome(t *testing.T) {
	m := loadedModel(t)
	m = send(t, m, runes("c"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, m.selected)
	assert.Equal(t, domain.KindFlatAmount, m.selected.Kind)
	assert.Equal(t, SceneResults, m.currentScene)

	view := m.View()
	assert.Contains(t, view, "#1 Flat Amount")
	assert.Contains(t, view, "E1")
	assert.Contains(t, view, "Monthly by Age Tier")
}

func TestComparisonCompleteResetsSelection(t *testing.T) {
	m := loadedModel(t)
	m = send(t, m, OutcomeSelectedMsg{Outcome: &m.comparison.Outcomes[1]})
	require.NotNil(t, m.selected)

	m = send(t, m, ComparisonCompleteMsg{Mode: compare.ModeSubsidy, Set: sampleSet()})
	assert.Nil(t, m.selected)
	assert.Equal(t, compare.ModeSubsidy, m.mode)
}

func TestErrorIsDismissedByAnyKey(t *testing.T) {
	m := loadedModel(t)
	m = send(t, m, ComparisonCompleteMsg{Err: errors.New("no benchmark premiums")})
	assert.Contains(t, m.View(), "Error: no benchmark premiums")
	assert.NotNil(t, m.comparison, "Previous comparison is kept")

	m = send(t, m, runes("x"))
	assert.Nil(t, m.err)
	assert.NotContains(t, m.View(), "Error:")
}

func TestQuit(t *testing.T) {
	m := loadedModel(t)
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestNextMode(t *testing.T) {
	assert.Equal(t, compare.ModeStandard, nextMode(compare.ModeALE))
	assert.Equal(t, compare.ModeSubsidy, nextMode(compare.ModeStandard))
	assert.Equal(t, compare.ModeALE, nextMode(compare.ModeSubsidy))
}

func TestModeKey_WithoutSession(t *testing.T) {
	m := loadedModel(t)
	_, cmd := m.Update(runes("m"))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, ComparisonStartedMsg{Mode: compare.ModeSubsidy}, msg)

	next, cmd := m.Update(msg)
	assert.Nil(t, cmd)
	assert.False(t, next.(Model).loading)
}

func TestCompareCmd_WithSession(t *testing.T) {
	income := decimal.NewFromInt(4000)
	census := domain.NewCensus([]domain.Employee{
		{ID: "A", Age: 30, State: "OH", RatingArea: 1, FamilyStatus: domain.FamilyEmployeeOnly, MonthlyIncome: &income},
		{ID: "B", Age: 45, State: "OH", RatingArea: 1, FamilyStatus: domain.FamilyEmployeeOnly, MonthlyIncome: &income},
	})
	table := premium.RateTable{
		PlanYear: 2026,
		Rates: []premium.RateEntry{
			{State: "OH", RatingArea: 1, AgeBand: "30", LCSP: decimal.NewFromInt(400)},
			{State: "OH", RatingArea: 1, AgeBand: "45", LCSP: decimal.NewFromInt(550)},
		},
	}
	sess, err := session.Open(context.Background(), nil, census, session.Sources{LCSP: table.LCSP()})
	require.NoError(t, err)

	m := NewModel(sess, "census.csv", compare.ModeStandard)
	assert.True(t, m.loading)
	assert.NotNil(t, m.Init())

	msg := compareCmd(sess, "census.csv", compare.ModeStandard)()
	done, ok := msg.(ComparisonCompleteMsg)
	require.True(t, ok)
	require.NoError(t, done.Err)
	require.NotNil(t, done.Set)
	assert.Equal(t, "census.csv", done.Set.CensusPath)
	assert.Len(t, done.Set.Outcomes, 3)
	assert.Equal(t, 2, done.Analysis.Summary.TotalEmployees)

	m = send(t, m, done)
	assert.False(t, m.loading)
	assert.Contains(t, m.View(), "session "+sess.ID[:8])
}
