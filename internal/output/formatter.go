package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/rgehrsitz/ichra/internal/solver"
	"github.com/shopspring/decimal"
)

var (
	decimal12  = decimal.NewFromInt(12)
	decimal100 = decimal.NewFromInt(100)
)

// Report collects the results of one command. Formatters render whichever
// sections are present, in a fixed order.
type Report struct {
	Title       string    `json:"title,omitempty" yaml:"title,omitempty"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	SessionID   string    `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	CensusPath  string    `json:"census_path,omitempty" yaml:"census_path,omitempty"`
	Assumptions []string  `json:"assumptions,omitempty" yaml:"assumptions,omitempty"`

	Analysis        *domain.WorkforceAnalysis       `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	Strategy        *domain.StrategyResult          `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Solver          *solver.Result                  `json:"solver,omitempty" yaml:"solver,omitempty"`
	Recommendations *domain.RecommendationSet       `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
	ClassModel      *domain.ClassModel              `json:"class_model,omitempty" yaml:"class_model,omitempty"`
	Patterns        *domain.PatternResult           `json:"patterns,omitempty" yaml:"patterns,omitempty"`
	Renewal         []domain.RenewalProjection      `json:"renewal,omitempty" yaml:"renewal,omitempty"`
	Subsidy         *domain.SubsidyWorkforceSummary `json:"subsidy,omitempty" yaml:"subsidy,omitempty"`
}

// NewReport creates an empty report stamped with the current time
func NewReport(title string) *Report {
	return &Report{Title: title, GeneratedAt: time.Now()}
}

// Formatter renders a report
type Formatter interface {
	Name() string
	Format(report *Report) ([]byte, error)
}

// FormatterFunc adapts a function to the Formatter interface
type FormatterFunc struct {
	ID string
	F  func(report *Report) ([]byte, error)
}

func (f FormatterFunc) Name() string { return f.ID }

func (f FormatterFunc) Format(report *Report) ([]byte, error) { return f.F(report) }

var formatters = map[string]Formatter{
	"console": ConsoleFormatter{},
	"json":    JSONFormatter{Pretty: true},
	"yaml":    YAMLFormatter{},
	"csv":     CSVFormatter{},
}

var formatAliases = map[string]string{
	"text":     "console",
	"table":    "console",
	"json-min": "json",
	"yml":      "yaml",
}

// GetFormatterByName resolves a formatter by name or alias
func GetFormatterByName(name string) (Formatter, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "json-min" {
		return JSONFormatter{}, true
	}
	if canonical, ok := formatAliases[name]; ok {
		name = canonical
	}
	f, ok := formatters[name]
	return f, ok
}

// AvailableFormatterNames returns the canonical formatter names, sorted
func AvailableFormatterNames() []string {
	names := make([]string, 0, len(formatters))
	for name := range formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AvailableFormatAliases returns the aliases, sorted
func AvailableFormatAliases() []string {
	aliases := make([]string, 0, len(formatAliases))
	for alias := range formatAliases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

// WriteFormatted renders the report to a timestamped file in the working
// directory and returns the file name
func WriteFormatted(f Formatter, report *Report, ext string) (string, error) {
	data, err := f.Format(report)
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("ichra_report_%s.%s", time.Now().Format("20060102_150405"), ext)
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return filename, nil
}

// FormatCurrency formats a monetary amount with a dollar sign and thousands separators
func FormatCurrency(amount decimal.Decimal) string {
	s := amount.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")
	var sb strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	sign := ""
	if amount.IsNegative() {
		sign = "-"
	}
	return sign + "$" + sb.String() + "." + frac
}

// FormatPercentage formats a rate such as 0.0996 as "9.96%"
func FormatPercentage(rate decimal.Decimal) string {
	return rate.Mul(decimal100).StringFixed(2) + "%"
}
