package workforce

import (
	"context"
	"errors"
)

var ErrEmployeeNotFound = errors.New("employee not found")

// Provider is the workforce boundary. The engine only reads from it; employee
// master data is owned elsewhere.
type Provider interface {
	FindOne(ctx context.Context, employeeID string) (Employee, error)
	FindAllActive(ctx context.Context) ([]Employee, error)
}
