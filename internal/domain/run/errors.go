package run

import "errors"

var (
	ErrRunNotFound          = errors.New("payroll run not found")
	ErrDuplicatePeriod      = errors.New("a non-rejected payroll run already exists for this entity and period")
	ErrManagerIsSpecialist  = errors.New("payroll manager must differ from payroll specialist")
	ErrRunLocked            = errors.New("payroll run is locked")
	ErrRunRejected          = errors.New("payroll run is rejected and can no longer change")
	ErrEditRequiresReject   = errors.New("payroll run is under approval, reject it before editing")
	ErrUnlockReasonRequired = errors.New("unlocking a payroll run requires a reason")
	ErrRunConflict          = errors.New("payroll run was modified concurrently, retry with fresh state")
	ErrRunNotPayable        = errors.New("payroll run must be locked and paid before payslips can be generated")
	ErrPeriodBeforeHire     = errors.New("payroll period precedes an active employee's hire or contract start date")
)
