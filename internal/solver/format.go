package solver

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// TableFormatter formats solver results as a console table
type TableFormatter struct{}

// Format generates a formatted table for a solver result
func (tf *TableFormatter) Format(result *Result) string {
	var sb strings.Builder

	sb.WriteString("AGE CURVE SAFE HARBOR SOLVER\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")

	sb.WriteString(fmt.Sprintf("Safe Harbor:         %s\n", result.SafeHarbor))
	sb.WriteString(fmt.Sprintf("Status:              %s\n", tf.formatStatus(result.Converged)))
	sb.WriteString(fmt.Sprintf("Extra Passes:        %d\n", result.Iterations))
	if result.ConvergenceInfo != "" {
		sb.WriteString(fmt.Sprintf("Convergence:         %s\n", result.ConvergenceInfo))
	}
	sb.WriteString("\n")

	sb.WriteString("BASE AMOUNT\n")
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Base Age:            %d\n", result.BaseAge))
	sb.WriteString(fmt.Sprintf("Initial Base:        $%s\n", tf.formatCurrency(result.InitialBase)))
	sb.WriteString(fmt.Sprintf("Final Base:          $%s\n", tf.formatCurrency(result.BaseAmount)))
	if result.BindingEmployee != "" {
		sb.WriteString(fmt.Sprintf("Binding Employee:    %s\n", result.BindingEmployee))
	}
	sb.WriteString("\n")

	if s := result.Strategy; s != nil {
		sb.WriteString("PROJECTED COST\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		sb.WriteString(fmt.Sprintf("Employees Covered:   %d\n", s.EmployeesCovered))
		sb.WriteString(fmt.Sprintf("Monthly Total:       $%s\n", tf.formatCurrency(s.TotalMonthly)))
		sb.WriteString(fmt.Sprintf("Annual Total:        $%s\n", tf.formatCurrency(s.TotalAnnual)))
		if a := s.Affordability; a != nil {
			sb.WriteString(fmt.Sprintf("Affordable:          %d of %d (%s%%)\n", a.AffordableCount, a.EmployeesAnalyzed, a.AffordablePct.StringFixed(1)))
			if len(a.SkippedEmployees) > 0 {
				sb.WriteString(fmt.Sprintf("Skipped (no income): %d\n", len(a.SkippedEmployees)))
			}
		}
		sb.WriteString("\n")
	}

	if !result.Converged {
		sb.WriteString("NOT COMPLIANT\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		sb.WriteString(fmt.Sprintf("Residual Gap:        $%s\n", tf.formatCurrency(result.ResidualGap)))
		sb.WriteString("Retry with a larger iteration bound or a different seed before using this result.\n\n")
	}

	return sb.String()
}

// JSONFormatter formats results as JSON
type JSONFormatter struct {
	Pretty bool
}

// Format generates JSON output
func (jf *JSONFormatter) Format(result *Result) (string, error) {
	var data []byte
	var err error

	if jf.Pretty {
		data, err = json.MarshalIndent(result, "", "  ")
	} else {
		data, err = json.Marshal(result)
	}

	if err != nil {
		return "", err
	}

	return string(data), nil
}

func (tf *TableFormatter) formatStatus(converged bool) string {
	if converged {
		return "✓ Converged (100% affordable)"
	}
	return "⚠ Did not converge"
}

func (tf *TableFormatter) formatCurrency(d decimal.Decimal) string {
	return d.StringFixed(2)
}
