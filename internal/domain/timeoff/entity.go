package timeoff

import "time"

type RequestStatus string

const (
	RequestApproved RequestStatus = "APPROVED"
	RequestPending  RequestStatus = "PENDING"
	RequestRejected RequestStatus = "REJECTED"
)

// LeaveRequest is the approved-leave projection the calculator consumes.
// Paid indicates whether the leave type deducts from pay.
type LeaveRequest struct {
	ID           string
	EmployeeID   string
	LeaveType    string
	Paid         bool
	StartDate    time.Time
	EndDate      time.Time
	DurationDays int
	Status       RequestStatus
}

// AttendanceRecord is a day's worked time once it has been finalised for
// payroll. Non-finalised records never influence penalties.
type AttendanceRecord struct {
	ID                  string
	EmployeeID          string
	Date                time.Time
	WorkedMinutes       int
	FinalisedForPayroll bool
}

type ExceptionType string

const (
	ExceptionMissedPunch ExceptionType = "missed_punch"
	ExceptionLate        ExceptionType = "late"
	ExceptionEarlyLeave  ExceptionType = "early_leave"
	ExceptionShortTime   ExceptionType = "short_time"
)

// TimeException is an attendance irregularity tied to a finalised record.
type TimeException struct {
	ID                 string
	EmployeeID         string
	AttendanceRecordID string
	Type               ExceptionType
	Status             RequestStatus
}
