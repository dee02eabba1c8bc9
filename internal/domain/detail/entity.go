package detail

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankStatus enum
type BankStatus string

const (
	BankValid   BankStatus = "valid"
	BankMissing BankStatus = "missing"
)

// SalarySource records where the base salary came from.
type SalarySource string

const (
	SourcePayGrade SalarySource = "paygrade"
	SourceOverride SalarySource = "override"
	SourceNone     SalarySource = "none"
)

// Code identifies a category of payroll exception.
type Code string

const (
	CodeMissingPayGrade    Code = "MISSING_PAY_GRADE"
	CodeUnapprovedPayGrade Code = "UNAPPROVED_PAY_GRADE"
	CodeInvalidBaseSalary  Code = "INVALID_BASE_SALARY"
	CodeMissingBaseSalary  Code = "MISSING_BASE_SALARY"
	CodeBaseSalaryOverride Code = "BASE_SALARY_OVERRIDE"
	CodeMissingBankAccount Code = "MISSING_BANK_ACCOUNT"
	CodeConfigLookupFailed Code = "CONFIG_LOOKUP_FAILED"
	CodeCalcError          Code = "CALC_ERROR"
	CodeNegativeNetPay     Code = "NEGATIVE_NET_PAY"
	CodeSalarySpike        Code = "SALARY_SPIKE"
	CodeNotifyFailed       Code = "NOTIFY_FAILED"
)

// MessageStatus enum. Active entries are outstanding; resolved entries keep
// their resolver identity and free-text resolution.
type MessageStatus string

const (
	MessageActive   MessageStatus = "active"
	MessageResolved MessageStatus = "resolved"
)

// ExceptionMessage is one diagnostic flag on an employee's detail. Entries are
// mutated in place when resolved.
type ExceptionMessage struct {
	ID         string
	Code       Code
	Message    string
	Status     MessageStatus
	FlaggedAt  time.Time
	ResolvedBy *string
	ResolvedAt *time.Time
	Resolution *string
}

// HistoryAction enum
type HistoryAction string

const (
	ActionFlagged  HistoryAction = "flagged"
	ActionResolved HistoryAction = "resolved"
)

// ExceptionEvent is one entry in the append-only audit trail. Events are never
// edited or deleted.
type ExceptionEvent struct {
	ID      string
	Action  HistoryAction
	Code    Code
	Message string
	Actor   string
	At      time.Time
}

// DeductionsBreakdown captures the statutory and penalty sub-totals behind a
// detail's deduction figures.
type DeductionsBreakdown struct {
	Taxes                decimal.Decimal `json:"taxes"`
	Insurance            decimal.Decimal `json:"insurance"`
	TimePenalties        decimal.Decimal `json:"time_management_penalties"`
	UnpaidLeavePenalties decimal.Decimal `json:"unpaid_leave_penalties"`
	Total                decimal.Decimal `json:"total"`
}

// Detail - one employee's computed pay breakdown within a run. Exactly one
// exists per (employee, run); draft regeneration replaces them wholesale.
type Detail struct {
	ID           string
	RunID        string
	EmployeeID   string
	BaseSalary   decimal.Decimal
	SalarySource SalarySource
	Allowances   decimal.Decimal
	Deductions   decimal.Decimal // statutory total
	Penalties    decimal.Decimal
	Refunds      decimal.Decimal
	RefundIDs    []string // refunds credited into NetPay at calculation time
	Bonus        decimal.Decimal
	Benefit      decimal.Decimal
	NetSalary    decimal.Decimal
	NetPay       decimal.Decimal
	BankStatus   BankStatus
	Currency     string
	Breakdown    DeductionsBreakdown
	Messages     []ExceptionMessage
	History      []ExceptionEvent
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ActiveMessages returns the outstanding exception entries.
func (d *Detail) ActiveMessages() []ExceptionMessage {
	var active []ExceptionMessage
	for _, m := range d.Messages {
		if m.Status == MessageActive {
			active = append(active, m)
		}
	}
	return active
}
