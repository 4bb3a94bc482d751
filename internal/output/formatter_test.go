package output

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func buildStrategyReport() *Report {
	report := NewReport("Strategy")
	report.Assumptions = Assumptions(nil)
	report.Strategy = &domain.StrategyResult{
		Kind: domain.KindFPLSafeHarbor,
		Name: domain.KindFPLSafeHarbor.DisplayName(),
		Employees: []domain.EmployeeContribution{
			{
				EmployeeID: "E1", Age: 30, State: "OH", FamilyStatus: domain.FamilyEmployeeOnly, AgeTier: "26-35",
				LCSP: dec("400"), BaseContribution: dec("270.11"), FamilyMultiplier: dec("1"), Contribution: dec("270.11"),
				Verdict: &domain.AffordabilityVerdict{Affordable: true},
			},
			{
				EmployeeID: "E2", Age: 50, State: "OH", FamilyStatus: domain.FamilyFull, AgeTier: "46-55",
				LCSP: dec("800"), BaseContribution: dec("670.11"), FamilyMultiplier: dec("1.8"), Contribution: dec("1206.20"),
				Verdict: &domain.AffordabilityVerdict{Affordable: true},
			},
		},
		TotalMonthly:     dec("1476.31"),
		TotalAnnual:      dec("17715.72"),
		EmployeesCovered: 2,
		ByState:          map[string]domain.TierTotal{"OH": {Count: 2, TotalMonthly: dec("1476.31")}},
		Affordability: &domain.AffordabilitySummary{
			SafeHarbor:        domain.SafeHarborFPL,
			EmployeesAnalyzed: 2,
			AffordableCount:   2,
			AffordablePct:     dec("100"),
			AllAffordable:     true,
		},
	}
	return report
}

func TestFormatterFunc(t *testing.T) {
	called := false
	formatter := FormatterFunc{
		ID: "test-formatter",
		F: func(report *Report) ([]byte, error) {
			called = true
			return []byte("test output"), nil
		},
	}

	out, err := formatter.Format(buildStrategyReport())
	assert.NoError(t, err)
	assert.True(t, called, "Should call the function")
	assert.Equal(t, []byte("test output"), out)
	assert.Equal(t, "test-formatter", formatter.Name())
}

func TestWriteFormatted(t *testing.T) {
	tmpDir := t.TempDir()
	originalDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	defer os.Chdir(originalDir)

	formatter := FormatterFunc{ID: "test", F: func(*Report) ([]byte, error) { return []byte("content"), nil }}
	filename, err := WriteFormatted(formatter, buildStrategyReport(), "txt")
	require.NoError(t, err)
	assert.Contains(t, filename, "ichra_report_")
	assert.True(t, strings.HasSuffix(filename, ".txt"))

	content, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, "content", string(content))

	failing := FormatterFunc{ID: "err", F: func(*Report) ([]byte, error) { return nil, fmt.Errorf("formatter error") }}
	filename, err = WriteFormatted(failing, buildStrategyReport(), "txt")
	assert.Error(t, err)
	assert.Empty(t, filename)
}

func TestGetFormatterByName(t *testing.T) {
	tests := []struct {
		name   string
		want   string
		pretty bool
		ok     bool
	}{
		{"console", "console", false, true},
		{"TEXT", "console", false, true},
		{"json", "json", true, true},
		{"json-min", "json", false, true},
		{"yml", "yaml", false, true},
		{"csv", "csv", false, true},
		{"html", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := GetFormatterByName(tt.name)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.want, f.Name())
			if jf, isJSON := f.(JSONFormatter); isJSON {
				assert.Equal(t, tt.pretty, jf.Pretty)
			}
		})
	}

	assert.Equal(t, []string{"console", "csv", "json", "yaml"}, AvailableFormatterNames())
	assert.Contains(t, AvailableFormatAliases(), "yml")
}

func TestConsoleFormatter_Strategy(t *testing.T) {
	out, err := ConsoleFormatter{}.Format(buildStrategyReport())
	require.NoError(t, err)

	content := string(out)
	assert.Contains(t, content, "STRATEGY")
	assert.Contains(t, content, "KEY ASSUMPTIONS")
	assert.Contains(t, content, "9.96%")
	assert.Contains(t, content, "$1,476.31")
	assert.Contains(t, content, "$17,715.72")
	assert.Contains(t, content, "COMPLIANT")
	assert.NotContains(t, content, "NOT COMPLIANT")
}

func TestConsoleFormatter_Sections(t *testing.T) {
	report := NewReport("")
	report.Analysis = &domain.WorkforceAnalysis{Error: &domain.AnalysisError{Code: domain.AnalysisMissingColumn, Column: "age", Message: "missing required column: age"}}
	report.Recommendations = &domain.RecommendationSet{}
	report.ClassModel = &domain.ClassModel{
		Classes:  []domain.ContributionClass{{ID: "flat_EE", FamilyStatus: domain.FamilyEmployeeOnly, Contribution: dec("400"), EmployeeCount: 1}},
		Warnings: []string{"1 employee(s) in states without defined tiers (using average): E9"},
	}
	report.Renewal = []domain.RenewalProjection{
		{EmployeeID: "E1", FamilyStatus: domain.FamilyEmployeeOnly, RenewalPremium: dec("500"), ProjectedER: dec("350"), ProjectedEE: dec("150"), Method: domain.PatternPercentage},
	}

	out, err := ConsoleFormatter{}.Format(report)
	require.NoError(t, err)
	content := string(out)
	assert.Contains(t, content, "ICHRA CONTRIBUTION ANALYSIS")
	assert.Contains(t, content, "Analysis failed: missing required column: age")
	assert.Contains(t, content, "nothing to recommend")
	assert.Contains(t, content, "flat_EE")
	assert.Contains(t, content, "states without defined tiers")
	assert.Contains(t, content, "RENEWAL PROJECTION")
}

func TestJSONFormatter(t *testing.T) {
	out, err := JSONFormatter{}.Format(buildStrategyReport())
	require.NoError(t, err)

	var decoded struct {
		Title string `json:"title"`
		Strategy struct {
			TotalMonthly string `json:"total_monthly"`
			Affordability struct {
				AllAffordable bool `json:"all_affordable"`
			} `json:"affordability"`
		} `json:"strategy"`
		Analysis *json.RawMessage `json:"analysis"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "Strategy", decoded.Title)
	assert.Equal(t, "1476.31", decoded.Strategy.TotalMonthly)
	assert.True(t, decoded.Strategy.Affordability.AllAffordable)
	assert.Nil(t, decoded.Analysis, "Absent sections are omitted")
}

func TestYAMLFormatter(t *testing.T) {
	out, err := YAMLFormatter{}.Format(buildStrategyReport())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, "Strategy", decoded["title"])
	assert.Contains(t, decoded, "strategy")
}

func TestCSVFormatter(t *testing.T) {
	out, err := CSVFormatter{}.Format(buildStrategyReport())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "employee_id,age,state"))
	assert.Equal(t, "E2,50,OH,F,46-55,800.00,670.11,1.8,0.00,1206.20,true", lines[2])
}

func TestCSVFormatter_AnalysisAndEmpty(t *testing.T) {
	report := NewReport("Analysis")
	report.Analysis = &domain.WorkforceAnalysis{Employees: []domain.EmployeeAffordability{
		{EmployeeID: "E1", Age: 40, State: "TX", FamilyStatus: domain.FamilyEmployeeOnly,
			Affordability: domain.Affordability{LCSP: dec("500"), MonthlyIncome: decPtr("4000")}},
	}}
	out, err := CSVFormatter{}.Format(report)
	require.NoError(t, err)
	assert.Contains(t, string(out), "E1,40,TX,0,,EE,500.00,4000.00,,,0.00,,")

	_, err = CSVFormatter{}.Format(NewReport("empty"))
	assert.Error(t, err)
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"999.5", "$999.50"},
		{"1234.567", "$1,234.57"},
		{"1234567", "$1,234,567.00"},
		{"-2500", "-$2,500.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCurrency(dec(tt.in)))
		})
	}
	assert.Equal(t, "9.96%", FormatPercentage(dec("0.0996")))
}
