package exceptions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/corepay/payroll-engine-go/internal/domain/detail"
	"github.com/corepay/payroll-engine-go/internal/domain/run"
	"github.com/google/uuid"
)

// Service is the exception ledger: it records diagnostic flags against a
// run's details, keeps the append-only audit trail, and maintains the run's
// aggregate active-exception counter.
type Service interface {
	Flag(ctx context.Context, runID string, code detail.Code, message string, employeeID *string) error
	Resolve(ctx context.Context, runID, employeeID, messageID, resolvedBy, resolution string) error
	ListForEmployee(ctx context.Context, runID, employeeID string) ([]detail.ExceptionMessage, []detail.ExceptionEvent, error)
	ListForRun(ctx context.Context, runID string) ([]detail.Detail, error)
}

type exceptionService struct {
	details detail.Repository
	runs    run.Repository
}

func NewExceptionService(details detail.Repository, runs run.Repository) Service {
	return &exceptionService{details: details, runs: runs}
}

// Flag appends an active message and its audit event to the employee's detail
// and bumps the run counter. The counter moves even when no detail exists to
// carry the message: a nil employeeID flags the run itself, and a failed
// detail lookup is logged and swallowed so the aggregate count stays honest.
func (s *exceptionService) Flag(ctx context.Context, runID string, code detail.Code, message string, employeeID *string) error {
	now := time.Now()

	if employeeID == nil {
		slog.Warn("run-level payroll exception", "run_id", runID, "code", code, "message", message)
	} else if d, err := s.details.GetByRunAndEmployee(ctx, runID, *employeeID); err != nil {
		slog.Warn("payroll exception without a matching detail",
			"run_id", runID, "employee_id", *employeeID, "code", code, "error", err)
	} else {
		msg := detail.ExceptionMessage{
			ID:        uuid.NewString(),
			Code:      code,
			Message:   message,
			Status:    detail.MessageActive,
			FlaggedAt: now,
		}
		evt := detail.ExceptionEvent{
			ID:      uuid.NewString(),
			Action:  detail.ActionFlagged,
			Code:    code,
			Message: message,
			Actor:   "system",
			At:      now,
		}
		if err := s.details.AppendException(ctx, d.ID, msg, evt); err != nil {
			return fmt.Errorf("failed to append exception: %w", err)
		}
	}

	if err := s.runs.AdjustExceptionCount(ctx, runID, 1); err != nil {
		return fmt.Errorf("failed to increment exception counter: %w", err)
	}
	return nil
}

// Resolve marks one active message resolved, appends the audit event, and
// decrements the run counter. Resolving an already-resolved or unknown
// message returns ErrExceptionNotFound.
func (s *exceptionService) Resolve(ctx context.Context, runID, employeeID, messageID, resolvedBy, resolution string) error {
	d, err := s.details.GetByRunAndEmployee(ctx, runID, employeeID)
	if err != nil {
		return fmt.Errorf("failed to load detail: %w", err)
	}

	var target *detail.ExceptionMessage
	for i := range d.Messages {
		if d.Messages[i].ID == messageID && d.Messages[i].Status == detail.MessageActive {
			target = &d.Messages[i]
			break
		}
	}
	if target == nil {
		return detail.ErrExceptionNotFound
	}

	now := time.Now()
	target.Status = detail.MessageResolved
	target.ResolvedBy = &resolvedBy
	target.ResolvedAt = &now
	target.Resolution = &resolution

	evt := detail.ExceptionEvent{
		ID:      uuid.NewString(),
		Action:  detail.ActionResolved,
		Code:    target.Code,
		Message: resolution,
		Actor:   resolvedBy,
		At:      now,
	}
	if err := s.details.ResolveMessage(ctx, d.ID, *target, evt); err != nil {
		return fmt.Errorf("failed to resolve exception: %w", err)
	}

	if err := s.runs.AdjustExceptionCount(ctx, runID, -1); err != nil {
		return fmt.Errorf("failed to decrement exception counter: %w", err)
	}
	return nil
}

func (s *exceptionService) ListForEmployee(ctx context.Context, runID, employeeID string) ([]detail.ExceptionMessage, []detail.ExceptionEvent, error) {
	d, err := s.details.GetByRunAndEmployee(ctx, runID, employeeID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load detail: %w", err)
	}
	return d.Messages, d.History, nil
}

// ListForRun returns every detail of the run that still carries at least one
// active exception.
func (s *exceptionService) ListForRun(ctx context.Context, runID string) ([]detail.Detail, error) {
	details, err := s.details.ListByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list details: %w", err)
	}

	var flagged []detail.Detail
	for _, d := range details {
		if len(d.ActiveMessages()) > 0 {
			flagged = append(flagged, d)
		}
	}
	return flagged, nil
}
