package timeoff

import (
	"context"
	"time"
)

// Provider is the time & leave boundary, read-only to the engine.
type Provider interface {
	// ApprovedLeave returns leave requests with status APPROVED overlapping
	// [from, to] for the employee.
	ApprovedLeave(ctx context.Context, employeeID string, from, to time.Time) ([]LeaveRequest, error)

	// FinalisedAttendance returns attendance records in [from, to] already
	// finalised for payroll.
	FinalisedAttendance(ctx context.Context, employeeID string, from, to time.Time) ([]AttendanceRecord, error)

	// TimeExceptions returns approved attendance exceptions in [from, to].
	TimeExceptions(ctx context.Context, employeeID string, from, to time.Time) ([]TimeException, error)
}
