package refund

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrRefundNotFound = errors.New("refund not found")

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusProcessed Status = "PROCESSED"
)

// Refund is an amount owed back to an employee, paid out through the first
// payroll run that picks it up.
type Refund struct {
	ID          string
	EmployeeID  string
	Amount      decimal.Decimal
	Status      Status
	PaidInRunID *string
}

// Tracker is the bidirectional refund boundary: the engine reads pending
// refunds during calculation and writes back once a locked run's payslip has
// included them.
type Tracker interface {
	// PendingByEmployee returns PENDING refunds not yet tied to a run.
	PendingByEmployee(ctx context.Context, employeeID string) ([]Refund, error)

	// MarkProcessed stamps the refund with the run that paid it.
	MarkProcessed(ctx context.Context, refundID, runID string) error
}
