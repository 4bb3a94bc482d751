package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FamilyStatus is the enrollment tier code used for premiums and contributions
type FamilyStatus string

const (
	FamilyEmployeeOnly     FamilyStatus = "EE" // self-only
	FamilyEmployeeSpouse   FamilyStatus = "ES"
	FamilyEmployeeChildren FamilyStatus = "EC"
	FamilyFull             FamilyStatus = "F"
)

// FamilyStatuses lists the four tiers in display order
var FamilyStatuses = []FamilyStatus{
	FamilyEmployeeOnly,
	FamilyEmployeeSpouse,
	FamilyEmployeeChildren,
	FamilyFull,
}

// ParseFamilyStatus normalizes a census value. Anything unrecognized is treated as EE.
func ParseFamilyStatus(s string) FamilyStatus {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ES":
		return FamilyEmployeeSpouse
	case "EC":
		return FamilyEmployeeChildren
	case "F", "FAM", "FAMILY":
		return FamilyFull
	default:
		return FamilyEmployeeOnly
	}
}

// Valid reports whether the code is one of the four known tiers
func (fs FamilyStatus) Valid() bool {
	switch fs {
	case FamilyEmployeeOnly, FamilyEmployeeSpouse, FamilyEmployeeChildren, FamilyFull:
		return true
	}
	return false
}

// Employee is one normalized census row. It is never mutated during a calculation pass.
type Employee struct {
	ID           string       `yaml:"employee_id" json:"employee_id"`
	Name         string       `yaml:"name,omitempty" json:"name,omitempty"`
	Age          int          `yaml:"age" json:"age"`
	AgeMissing   bool         `yaml:"age_missing,omitempty" json:"age_missing,omitempty"`
	State        string       `yaml:"state" json:"state"`
	RatingArea   int          `yaml:"rating_area_id" json:"rating_area_id"`
	FamilyStatus FamilyStatus `yaml:"family_status" json:"family_status"`

	// Optional monetary fields, nil when the census has no value
	MonthlyIncome    *decimal.Decimal `yaml:"monthly_income,omitempty" json:"monthly_income,omitempty"`
	CurrentERMonthly *decimal.Decimal `yaml:"current_er_monthly,omitempty" json:"current_er_monthly,omitempty"`
	CurrentEEMonthly *decimal.Decimal `yaml:"current_ee_monthly,omitempty" json:"current_ee_monthly,omitempty"`
	RenewalPremium   *decimal.Decimal `yaml:"renewal_premium,omitempty" json:"renewal_premium,omitempty"` // next year's total premium
}

// HasIncome reports whether a positive monthly income is present
func (e Employee) HasIncome() bool {
	return e.MonthlyIncome != nil && e.MonthlyIncome.GreaterThan(decimal.Zero)
}

// AgeOr returns the employee's age or the fallback when the census had none
func (e Employee) AgeOr(fallback int) int {
	if e.AgeMissing {
		return fallback
	}
	return e.Age
}

// Status returns the family status, treating blanks and unknown codes as EE
func (e Employee) Status() FamilyStatus {
	if e.FamilyStatus.Valid() {
		return e.FamilyStatus
	}
	return FamilyEmployeeOnly
}

// CurrentER returns the current employer contribution or zero
func (e Employee) CurrentER() decimal.Decimal {
	if e.CurrentERMonthly == nil {
		return decimal.Zero
	}
	return *e.CurrentERMonthly
}

// CensusColumns records which columns were present in the source dataset
type CensusColumns struct {
	EmployeeID   bool `json:"employee_id"`
	Age          bool `json:"age"`
	State        bool `json:"state"`
	RatingArea   bool `json:"rating_area_id"`
	FamilyStatus bool `json:"family_status"`
	Income       bool `json:"monthly_income"`
	CurrentER    bool `json:"current_er_monthly"`
	CurrentEE    bool `json:"current_ee_monthly"`
	Renewal      bool `json:"renewal_premium"`
}

// AllColumns marks every column present. Useful for datasets built in code.
func AllColumns() CensusColumns {
	return CensusColumns{
		EmployeeID: true, Age: true, State: true, RatingArea: true,
		FamilyStatus: true, Income: true, CurrentER: true, CurrentEE: true,
		Renewal: true,
	}
}

// Missing returns the names of the columns the census did not carry
func (c CensusColumns) Missing() []string {
	var missing []string
	for _, col := range []struct {
		name    string
		present bool
	}{
		{"employee_id", c.EmployeeID},
		{"age", c.Age},
		{"state", c.State},
		{"rating_area_id", c.RatingArea},
		{"family_status", c.FamilyStatus},
		{"monthly_income", c.Income},
		{"current_er_monthly", c.CurrentER},
		{"current_ee_monthly", c.CurrentEE},
		{"renewal_premium", c.Renewal},
	} {
		if !col.present {
			missing = append(missing, col.name)
		}
	}
	return missing
}

// Census is an immutable snapshot of a workforce for one analysis run
type Census struct {
	Employees []Employee    `yaml:"employees" json:"employees"`
	Columns   CensusColumns `yaml:"-" json:"columns"`
}

// NewCensus wraps employees built in code, marking all columns present
func NewCensus(employees []Employee) *Census {
	return &Census{Employees: employees, Columns: AllColumns()}
}

// Len returns the number of employees
func (c *Census) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Employees)
}

// HasIncomeData reports whether any employee carries income
func (c *Census) HasIncomeData() bool {
	for _, e := range c.Employees {
		if e.HasIncome() {
			return true
		}
	}
	return false
}

// States returns the distinct states in first-seen order
func (c *Census) States() []string {
	seen := make(map[string]bool)
	var states []string
	for _, e := range c.Employees {
		if !seen[e.State] {
			seen[e.State] = true
			states = append(states, e.State)
		}
	}
	return states
}
