package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/corepay/payroll-engine-go/internal/domain/timeoff"
	"github.com/corepay/payroll-engine-go/internal/pkg/database"
)

type timeoffRepository struct {
	db *database.DB
}

func NewTimeoffRepository(db *database.DB) timeoff.Provider {
	return &timeoffRepository{db: db}
}

func (r *timeoffRepository) ApprovedLeave(ctx context.Context, employeeID string, from, to time.Time) ([]timeoff.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT lr.id, lr.employee_id, lt.name, lt.is_paid,
			   lr.start_date, lr.end_date, lr.duration_days, lr.status
		FROM leave_requests lr
		JOIN leave_types lt ON lt.id = lr.leave_type_id
		WHERE lr.employee_id = $1 AND lr.status = 'APPROVED'
		  AND lr.start_date <= $3 AND lr.end_date >= $2
		ORDER BY lr.start_date`,
		employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	defer rows.Close()

	var out []timeoff.LeaveRequest
	for rows.Next() {
		var lr timeoff.LeaveRequest
		if err := rows.Scan(&lr.ID, &lr.EmployeeID, &lr.LeaveType, &lr.Paid,
			&lr.StartDate, &lr.EndDate, &lr.DurationDays, &lr.Status); err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		out = append(out, lr)
	}
	return out, rows.Err()
}

func (r *timeoffRepository) FinalisedAttendance(ctx context.Context, employeeID string, from, to time.Time) ([]timeoff.AttendanceRecord, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, employee_id, work_date, worked_minutes, finalised_for_payroll
		FROM attendance_records
		WHERE employee_id = $1 AND work_date BETWEEN $2 AND $3
		  AND finalised_for_payroll = TRUE
		ORDER BY work_date`,
		employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	var out []timeoff.AttendanceRecord
	for rows.Next() {
		var rec timeoff.AttendanceRecord
		if err := rows.Scan(&rec.ID, &rec.EmployeeID, &rec.Date, &rec.WorkedMinutes, &rec.FinalisedForPayroll); err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *timeoffRepository) TimeExceptions(ctx context.Context, employeeID string, from, to time.Time) ([]timeoff.TimeException, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT te.id, te.employee_id, te.attendance_record_id, te.type, te.status
		FROM time_exceptions te
		JOIN attendance_records ar ON ar.id = te.attendance_record_id
		WHERE te.employee_id = $1 AND ar.work_date BETWEEN $2 AND $3
		  AND te.status = 'APPROVED'
		ORDER BY ar.work_date`,
		employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list time exceptions: %w", err)
	}
	defer rows.Close()

	var out []timeoff.TimeException
	for rows.Next() {
		var te timeoff.TimeException
		if err := rows.Scan(&te.ID, &te.EmployeeID, &te.AttendanceRecordID, &te.Type, &te.Status); err != nil {
			return nil, fmt.Errorf("failed to scan time exception: %w", err)
		}
		out = append(out, te)
	}
	return out, rows.Err()
}
