package run

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository defines data access for payroll runs. Update and UpdateStatus
// carry the caller's loaded Version and fail with ErrRunConflict when the row
// has moved on, so concurrent writers surface instead of clobbering counters.
type Repository interface {
	Create(ctx context.Context, r PayrollRun) (PayrollRun, error)
	GetByID(ctx context.Context, id string) (PayrollRun, error)
	GetByRunID(ctx context.Context, runID string) (PayrollRun, error)
	List(ctx context.Context, filter RunFilter) ([]PayrollRun, int64, error)

	// FindActiveByPeriod returns the non-REJECTED run for an entity and
	// calendar month, or ErrRunNotFound.
	FindActiveByPeriod(ctx context.Context, entityName string, period time.Time) (PayrollRun, error)

	// NextSequence allocates the next yearly run sequence number.
	NextSequence(ctx context.Context, year int) (int, error)

	Update(ctx context.Context, r PayrollRun) (PayrollRun, error)
	UpdateStatus(ctx context.Context, r PayrollRun) (PayrollRun, error)

	// AdjustExceptionCount atomically adds delta to the run's aggregate
	// exception counter.
	AdjustExceptionCount(ctx context.Context, id string, delta int) error

	// SetTotals persists the draft generator's run-level aggregates.
	SetTotals(ctx context.Context, id string, employees, exceptions int, totalNetPay decimal.Decimal) error
}
