package payslip

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one labelled amount snapshotted from configuration at
// generation time.
type LineItem struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

type Earnings struct {
	BaseSalary decimal.Decimal `json:"base_salary"`
	Allowances []LineItem      `json:"allowances"`
	Bonuses    []LineItem      `json:"bonuses"`
	Benefits   []LineItem      `json:"benefits"`
	Refunds    []LineItem      `json:"refunds"`
}

type Deductions struct {
	Taxes      []LineItem      `json:"taxes"`
	Insurances []LineItem      `json:"insurances"`
	Penalties  decimal.Decimal `json:"penalties"`
}

// Payslip - one per (employee, run), generated once a run is LOCKED and PAID.
// Immutable once created; regeneration returns the existing record.
type Payslip struct {
	ID              string
	RunID           string
	EmployeeID      string
	Earnings        Earnings
	Deductions      Deductions
	TotalGross      decimal.Decimal
	TotalDeductions decimal.Decimal
	NetPay          decimal.Decimal
	Currency        string
	GeneratedAt     time.Time
}
