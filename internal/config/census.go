package config

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/rgehrsitz/ichra/internal/census"
	"github.com/rgehrsitz/ichra/internal/domain"
	"gopkg.in/yaml.v3"
)

// Canonical census column names
const (
	ColEmployeeID   = "employee_id"
	ColName         = "name"
	ColAge          = "age"
	ColState        = "state"
	ColRatingArea   = "rating_area_id"
	ColFamilyStatus = "family_status"
	ColIncome       = "monthly_income"
	ColCurrentER    = "current_er_monthly"
	ColCurrentEE    = "current_ee_monthly"
	ColRenewal      = "renewal_premium"
)

// columnAliases maps common header spellings to canonical names
var columnAliases = map[string]string{
	"id":               ColEmployeeID,
	"employee":         ColEmployeeID,
	"employee_name":    ColName,
	"rating_area":      ColRatingArea,
	"family":           ColFamilyStatus,
	"coverage_tier":    ColFamilyStatus,
	"tier":             ColFamilyStatus,
	"income":           ColIncome,
	"monthly_salary":   ColIncome,
	"er_contribution":  ColCurrentER,
	"ee_contribution":  ColCurrentEE,
	"renewal":          ColRenewal,
	"renewal_premiums": ColRenewal,
}

// NormalizeColumn lower-cases a header, replaces spaces and dashes with
// underscores and resolves known aliases
func NormalizeColumn(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	h = strings.NewReplacer(" ", "_", "-", "_").Replace(h)
	if canonical, ok := columnAliases[h]; ok {
		return canonical
	}
	return h
}

// ParseCensusCSV reads a census with a header row
func ParseCensusCSV(r io.Reader) (*domain.Census, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("census is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read census header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = NormalizeColumn(strings.TrimPrefix(h, "\ufeff"))
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read census row %d: %w", len(rows)+2, err)
		}
		row := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return buildCensus(columns, rows)
}

// censusFile is the YAML census layout
type censusFile struct {
	Employees []map[string]string `yaml:"employees"`
}

// ParseCensusYAML reads a census from an employees: list of mappings
func ParseCensusYAML(r io.Reader) (*domain.Census, error) {
	var file censusFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("census is empty")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return CensusFromRecords(file.Employees)
}

// CensusFromRecords builds a census from keyed records such as decoded YAML or
// JSON rows. Keys are normalized like CSV headers; the column set is the union
// of every record's keys.
func CensusFromRecords(records []map[string]string) (*domain.Census, error) {
	seen := make(map[string]bool)
	var columns []string
	rows := make([]map[string]string, len(records))
	for i, raw := range records {
		row := make(map[string]string, len(raw))
		for k, v := range raw {
			col := NormalizeColumn(k)
			row[col] = v
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
		rows[i] = row
	}
	return buildCensus(columns, rows)
}

// buildCensus normalizes raw rows into employees. Missing values become absent
// fields; only a missing employee ID is an error.
func buildCensus(columns []string, rows []map[string]string) (*domain.Census, error) {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}

	c := &domain.Census{
		Columns: domain.CensusColumns{
			EmployeeID:   present[ColEmployeeID],
			Age:          present[ColAge],
			State:        present[ColState],
			RatingArea:   present[ColRatingArea],
			FamilyStatus: present[ColFamilyStatus],
			Income:       present[ColIncome],
			CurrentER:    present[ColCurrentER],
			CurrentEE:    present[ColCurrentEE],
			Renewal:      present[ColRenewal],
		},
	}

	for i, row := range rows {
		id := strings.TrimSpace(row[ColEmployeeID])
		if c.Columns.EmployeeID && id == "" {
			return nil, fmt.Errorf("census row %d: employee_id is required", i+1)
		}

		e := domain.Employee{
			ID:               id,
			Name:             strings.TrimSpace(row[ColName]),
			State:            census.NormalizeState(row[ColState]),
			FamilyStatus:     domain.ParseFamilyStatus(row[ColFamilyStatus]),
			MonthlyIncome:    census.ParsePositiveCurrency(row[ColIncome]),
			CurrentERMonthly: census.ParseCurrencyPtr(row[ColCurrentER]),
			CurrentEEMonthly: census.ParseCurrencyPtr(row[ColCurrentEE]),
			RenewalPremium:   census.ParseCurrencyPtr(row[ColRenewal]),
		}
		if age, ok := census.ParseAge(row[ColAge]); ok {
			e.Age = age
		} else {
			e.AgeMissing = true
		}
		if area, ok := census.ParseRatingArea(row[ColRatingArea]); ok {
			e.RatingArea = area
		}
		c.Employees = append(c.Employees, e)
	}
	return c, nil
}
