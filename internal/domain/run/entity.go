package run

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status enum covering the life cycle states of a payroll run.
type Status string

const (
	StatusDraft                  Status = "DRAFT"
	StatusUnderReview            Status = "UNDER_REVIEW"
	StatusPendingFinanceApproval Status = "PENDING_FINANCE_APPROVAL"
	StatusApproved               Status = "APPROVED"
	StatusLocked                 Status = "LOCKED"
	StatusUnlocked               Status = "UNLOCKED"
	StatusRejected               Status = "REJECTED"
)

// PaymentStatus enum
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
)

// PayrollRun - one payroll cycle for one entity and period
type PayrollRun struct {
	ID                string
	RunID             string // business ID, PR-{year}-{seq4}
	Period            time.Time
	EntityName        string
	Currency          string
	SpecialistID      string
	ManagerID         string
	FinanceStaffID    string
	Status            Status
	PaymentStatus     PaymentStatus
	EmployeeCount     int
	ExceptionCount    int
	TotalNetPay       decimal.Decimal
	RejectionReason   *string
	UnlockReason      *string
	ReviewedAt        *time.Time
	ManagerApprovedAt *time.Time
	FinanceApprovedAt *time.Time
	LockedAt          *time.Time
	CreatedBy         string
	UpdatedBy         string
	Version           int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Entity returns the combined "Name|CUR" descriptor the run was created with.
func (r *PayrollRun) Entity() string {
	return r.EntityName + "|" + r.Currency
}

// ParseEntity splits an entity descriptor into its name and currency code.
func ParseEntity(entity string) (name, currency string, err error) {
	idx := strings.LastIndex(entity, "|")
	if idx <= 0 || idx == len(entity)-1 {
		return "", "", fmt.Errorf("entity %q must be formatted as Name|CUR", entity)
	}
	return entity[:idx], entity[idx+1:], nil
}

// FormatRunID builds the yearly-resetting business identifier.
func FormatRunID(year, seq int) string {
	return fmt.Sprintf("PR-%d-%04d", year, seq)
}

// TruncateToMonth normalises a period to the first day of its month, UTC.
func TruncateToMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
