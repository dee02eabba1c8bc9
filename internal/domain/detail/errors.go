package detail

import "errors"

var (
	ErrDetailNotFound    = errors.New("employee payroll detail not found")
	ErrDetailExists      = errors.New("employee payroll detail already exists for this run")
	ErrExceptionNotFound = errors.New("no matching active exception entry found")
)
