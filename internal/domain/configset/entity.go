package configset

import (
	"github.com/shopspring/decimal"
)

// ApprovalStatus gates whether a configuration entity may be used in
// calculations. Only APPROVED entities participate.
type ApprovalStatus string

const (
	StatusDraft    ApprovalStatus = "DRAFT"
	StatusApproved ApprovalStatus = "APPROVED"
	StatusRejected ApprovalStatus = "REJECTED"
)

type PayGrade struct {
	ID         string
	Grade      string
	BaseSalary decimal.Decimal
	Currency   string
	Status     ApprovalStatus
}

type Allowance struct {
	ID       string
	Name     string
	Amount   decimal.Decimal
	Currency string
	Status   ApprovalStatus
}

// TaxRule applies Rate percent of base salary. Percentages are stored as
// whole numbers: 7.5 means 7.5%.
type TaxRule struct {
	ID     string
	Name   string
	Rate   decimal.Decimal
	Status ApprovalStatus
}

// InsuranceBracket applies EmployeeRate percent of base salary when the base
// falls inside [MinSalary, MaxSalary]. A nil MaxSalary is open-ended.
type InsuranceBracket struct {
	ID           string
	Name         string
	MinSalary    decimal.Decimal
	MaxSalary    *decimal.Decimal
	EmployeeRate decimal.Decimal
	Status       ApprovalStatus
}

func (b *InsuranceBracket) Contains(salary decimal.Decimal) bool {
	if salary.LessThan(b.MinSalary) {
		return false
	}
	if b.MaxSalary != nil && salary.GreaterThan(*b.MaxSalary) {
		return false
	}
	return true
}

// SigningBonusPlan grants Amount to employees hired within EligibilityDays of
// the sweep that picks them up.
type SigningBonusPlan struct {
	ID              string
	Name            string
	Amount          decimal.Decimal
	EligibilityDays int
	Status          ApprovalStatus
}

type TerminationBenefitPlan struct {
	ID     string
	Name   string
	Amount decimal.Decimal
	Status ApprovalStatus
}
