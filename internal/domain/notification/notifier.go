package notification

import "context"

type Kind string

const (
	KindRunStatusChanged Kind = "run_status_changed"
	KindPayslipReady     Kind = "payslip_ready"
	KindAwardPending     Kind = "award_pending"
)

// Notifier is a fire-and-forget sink. Callers log failures and continue;
// delivery problems must never roll back payroll data.
type Notifier interface {
	Notify(ctx context.Context, kind Kind, recipient, message string, metadata map[string]string) error
}
