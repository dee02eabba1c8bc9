package detail

import "context"

// Repository defines data access for payroll details and their embedded
// exception records. Exception messages and history live in child tables
// keyed by detail ID; the entity exposes them as slices.
type Repository interface {
	// CreateSkeleton inserts an empty detail row for (run, employee) so
	// exception flagging during calculation has a home.
	CreateSkeleton(ctx context.Context, runID, employeeID, currency string) (Detail, error)

	// SaveFigures updates the computed monetary fields, bank status and
	// breakdown of an existing detail. Exception records are untouched.
	SaveFigures(ctx context.Context, d Detail) (Detail, error)

	GetByRunAndEmployee(ctx context.Context, runID, employeeID string) (Detail, error)
	ListByRun(ctx context.Context, runID string) ([]Detail, error)

	// DeleteByRun removes every detail of a run together with its exception
	// records. Used by draft rebuilds and the REJECTED cascade.
	DeleteByRun(ctx context.Context, runID string) error

	// AppendException appends an active message plus its audit event.
	AppendException(ctx context.Context, detailID string, msg ExceptionMessage, evt ExceptionEvent) error

	// ResolveMessage flips the given message to resolved in place and appends
	// the audit event. History rows are never modified.
	ResolveMessage(ctx context.Context, detailID string, msg ExceptionMessage, evt ExceptionEvent) error
}
