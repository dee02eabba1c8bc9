package payslip

import (
	"context"
	"errors"
)

var ErrPayslipNotFound = errors.New("payslip not found")

type Repository interface {
	Create(ctx context.Context, p Payslip) (Payslip, error)
	GetByRunAndEmployee(ctx context.Context, runID, employeeID string) (Payslip, error)
	ListByRun(ctx context.Context, runID string) ([]Payslip, error)
}
