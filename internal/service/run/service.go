package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corepay/payroll-engine-go/internal/domain/award"
	"github.com/corepay/payroll-engine-go/internal/domain/detail"
	"github.com/corepay/payroll-engine-go/internal/domain/notification"
	"github.com/corepay/payroll-engine-go/internal/domain/run"
	"github.com/shopspring/decimal"
)

// Service drives the payroll run life cycle: creation, the approval chain,
// rejection with its cascade, and the lock/unlock audit loop.
type Service interface {
	Create(ctx context.Context, req run.CreateRunRequest, createdBy string) (run.PayrollRun, error)
	GetByID(ctx context.Context, id string) (run.PayrollRun, error)
	GetByRunID(ctx context.Context, runID string) (run.PayrollRun, error)
	List(ctx context.Context, filter run.RunFilter) ([]run.PayrollRun, int64, error)
	Update(ctx context.Context, req run.UpdateRunRequest, updatedBy string) (run.PayrollRun, error)

	SubmitForReview(ctx context.Context, id, actor string) (run.PayrollRun, error)
	ManagerApprove(ctx context.Context, id, actor string) (run.PayrollRun, error)
	FinanceApprove(ctx context.Context, id, actor string) (run.PayrollRun, error)
	Reject(ctx context.Context, req run.RejectRunRequest, actor string) (run.PayrollRun, error)
	Lock(ctx context.Context, id, actor string) (run.PayrollRun, error)
	Unlock(ctx context.Context, req run.UnlockRunRequest, actor string) (run.PayrollRun, error)
}

type runService struct {
	runs     run.Repository
	details  detail.Repository
	awards   award.Repository
	notifier notification.Notifier
}

func NewRunService(runs run.Repository, details detail.Repository, awards award.Repository, notifier notification.Notifier) Service {
	return &runService{runs: runs, details: details, awards: awards, notifier: notifier}
}

// Create validates the request, enforces the one-active-run-per-period rule
// and allocates the yearly PR-{year}-{seq} identifier. Undecided signing
// bonuses and termination benefits block initiation outright.
func (s *runService) Create(ctx context.Context, req run.CreateRunRequest, createdBy string) (run.PayrollRun, error) {
	if err := req.Validate(); err != nil {
		return run.PayrollRun{}, err
	}
	if req.ManagerID == req.SpecialistID {
		return run.PayrollRun{}, run.ErrManagerIsSpecialist
	}

	pending, err := s.awards.ListPending(ctx)
	if err != nil {
		return run.PayrollRun{}, fmt.Errorf("failed to check pending awards: %w", err)
	}
	if len(pending) > 0 {
		return run.PayrollRun{}, &award.PendingAwardsError{Items: pending}
	}

	entityName, currency, err := run.ParseEntity(req.Entity)
	if err != nil {
		return run.PayrollRun{}, err
	}
	period, err := time.Parse("2006-01", req.Period)
	if err != nil {
		return run.PayrollRun{}, fmt.Errorf("invalid period %q: %w", req.Period, err)
	}
	period = run.TruncateToMonth(period)

	if _, err := s.runs.FindActiveByPeriod(ctx, entityName, period); err == nil {
		return run.PayrollRun{}, run.ErrDuplicatePeriod
	} else if !errors.Is(err, run.ErrRunNotFound) {
		return run.PayrollRun{}, fmt.Errorf("failed to check for existing run: %w", err)
	}

	seq, err := s.runs.NextSequence(ctx, period.Year())
	if err != nil {
		return run.PayrollRun{}, fmt.Errorf("failed to allocate run sequence: %w", err)
	}

	created, err := s.runs.Create(ctx, run.PayrollRun{
		RunID:          run.FormatRunID(period.Year(), seq),
		Period:         period,
		EntityName:     entityName,
		Currency:       currency,
		SpecialistID:   req.SpecialistID,
		ManagerID:      req.ManagerID,
		FinanceStaffID: req.FinanceStaffID,
		Status:         run.StatusDraft,
		PaymentStatus:  run.PaymentPending,
		TotalNetPay:    decimal.Zero,
		CreatedBy:      createdBy,
		UpdatedBy:      createdBy,
	})
	if err != nil {
		return run.PayrollRun{}, fmt.Errorf("failed to create payroll run: %w", err)
	}
	return created, nil
}

func (s *runService) GetByID(ctx context.Context, id string) (run.PayrollRun, error) {
	return s.runs.GetByID(ctx, id)
}

func (s *runService) GetByRunID(ctx context.Context, runID string) (run.PayrollRun, error) {
	return s.runs.GetByRunID(ctx, runID)
}

func (s *runService) List(ctx context.Context, filter run.RunFilter) ([]run.PayrollRun, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.runs.List(ctx, filter)
}

// Update edits run header fields. Locked runs refuse edits, runs inside the
// approval chain must be rejected first.
func (s *runService) Update(ctx context.Context, req run.UpdateRunRequest, updatedBy string) (run.PayrollRun, error) {
	if err := req.Validate(); err != nil {
		return run.PayrollRun{}, err
	}

	r, err := s.runs.GetByID(ctx, req.ID)
	if err != nil {
		return run.PayrollRun{}, err
	}
	if err := run.EditGuard(r.Status); err != nil {
		return run.PayrollRun{}, err
	}

	if req.Entity != nil {
		name, currency, err := run.ParseEntity(*req.Entity)
		if err != nil {
			return run.PayrollRun{}, err
		}
		r.EntityName, r.Currency = name, currency
	}
	if req.Period != nil {
		period, err := time.Parse("2006-01", *req.Period)
		if err != nil {
			return run.PayrollRun{}, fmt.Errorf("invalid period %q: %w", *req.Period, err)
		}
		r.Period = run.TruncateToMonth(period)
	}
	if req.SpecialistID != nil {
		r.SpecialistID = *req.SpecialistID
	}
	if req.ManagerID != nil {
		r.ManagerID = *req.ManagerID
	}
	if req.FinanceStaffID != nil {
		r.FinanceStaffID = *req.FinanceStaffID
	}
	if r.ManagerID == r.SpecialistID {
		return run.PayrollRun{}, run.ErrManagerIsSpecialist
	}

	if req.Entity != nil || req.Period != nil {
		existing, err := s.runs.FindActiveByPeriod(ctx, r.EntityName, r.Period)
		if err == nil && existing.ID != r.ID {
			return run.PayrollRun{}, run.ErrDuplicatePeriod
		} else if err != nil && !errors.Is(err, run.ErrRunNotFound) {
			return run.PayrollRun{}, fmt.Errorf("failed to check for existing run: %w", err)
		}
	}

	r.UpdatedBy = updatedBy
	return s.runs.Update(ctx, r)
}

// SubmitForReview hands a draft to the payroll manager.
func (s *runService) SubmitForReview(ctx context.Context, id, actor string) (run.PayrollRun, error) {
	return s.transition(ctx, id, actor, run.StatusUnderReview, func(r *run.PayrollRun, now time.Time) {
		r.ReviewedAt = &now
	}, notification.KindRunStatusChanged, func(r run.PayrollRun) string { return r.ManagerID })
}

// ManagerApprove forwards the run to finance.
func (s *runService) ManagerApprove(ctx context.Context, id, actor string) (run.PayrollRun, error) {
	return s.transition(ctx, id, actor, run.StatusPendingFinanceApproval, func(r *run.PayrollRun, now time.Time) {
		r.ManagerApprovedAt = &now
	}, notification.KindRunStatusChanged, func(r run.PayrollRun) string { return r.FinanceStaffID })
}

// FinanceApprove completes the approval chain and marks the run paid.
func (s *runService) FinanceApprove(ctx context.Context, id, actor string) (run.PayrollRun, error) {
	return s.transition(ctx, id, actor, run.StatusApproved, func(r *run.PayrollRun, now time.Time) {
		r.FinanceApprovedAt = &now
		r.PaymentStatus = run.PaymentPaid
	}, notification.KindRunStatusChanged, func(r run.PayrollRun) string { return r.SpecialistID })
}

// Reject moves the run to its terminal state and cascades: all details and
// their exception records are removed and the aggregates zeroed, so a
// replacement run for the period starts clean.
func (s *runService) Reject(ctx context.Context, req run.RejectRunRequest, actor string) (run.PayrollRun, error) {
	if err := req.Validate(); err != nil {
		return run.PayrollRun{}, err
	}

	r, err := s.runs.GetByID(ctx, req.ID)
	if err != nil {
		return run.PayrollRun{}, err
	}
	if err := run.Transition(r.Status, run.StatusRejected); err != nil {
		return run.PayrollRun{}, err
	}

	r.Status = run.StatusRejected
	r.RejectionReason = &req.Reason
	r.UpdatedBy = actor
	updated, err := s.runs.UpdateStatus(ctx, r)
	if err != nil {
		return run.PayrollRun{}, err
	}

	if err := s.details.DeleteByRun(ctx, updated.ID); err != nil {
		return run.PayrollRun{}, fmt.Errorf("failed to cascade rejection to details: %w", err)
	}
	if err := s.runs.SetTotals(ctx, updated.ID, 0, 0, decimal.Zero); err != nil {
		return run.PayrollRun{}, fmt.Errorf("failed to reset totals after rejection: %w", err)
	}
	updated.EmployeeCount, updated.ExceptionCount, updated.TotalNetPay = 0, 0, decimal.Zero

	s.notify(ctx, notification.KindRunStatusChanged, updated.SpecialistID,
		fmt.Sprintf("payroll run %s was rejected: %s", updated.RunID, req.Reason), updated)
	return updated, nil
}

// Lock freezes an approved (or re-reviewed unlocked) run.
func (s *runService) Lock(ctx context.Context, id, actor string) (run.PayrollRun, error) {
	return s.transition(ctx, id, actor, run.StatusLocked, func(r *run.PayrollRun, now time.Time) {
		r.LockedAt = &now
	}, notification.KindRunStatusChanged, func(r run.PayrollRun) string { return r.SpecialistID })
}

// Unlock reopens a locked run for correction. The reason is mandatory and
// kept on the run for audit.
func (s *runService) Unlock(ctx context.Context, req run.UnlockRunRequest, actor string) (run.PayrollRun, error) {
	if err := req.Validate(); err != nil {
		return run.PayrollRun{}, run.ErrUnlockReasonRequired
	}

	return s.transition(ctx, req.ID, actor, run.StatusUnlocked, func(r *run.PayrollRun, _ time.Time) {
		r.UnlockReason = &req.Reason
	}, notification.KindRunStatusChanged, func(r run.PayrollRun) string { return r.ManagerID })
}

func (s *runService) transition(
	ctx context.Context,
	id, actor string,
	target run.Status,
	apply func(*run.PayrollRun, time.Time),
	kind notification.Kind,
	recipient func(run.PayrollRun) string,
) (run.PayrollRun, error) {
	r, err := s.runs.GetByID(ctx, id)
	if err != nil {
		return run.PayrollRun{}, err
	}
	if err := run.Transition(r.Status, target); err != nil {
		return run.PayrollRun{}, err
	}

	r.Status = target
	r.UpdatedBy = actor
	apply(&r, time.Now())

	updated, err := s.runs.UpdateStatus(ctx, r)
	if err != nil {
		return run.PayrollRun{}, err
	}

	s.notify(ctx, kind, recipient(updated),
		fmt.Sprintf("payroll run %s moved to %s", updated.RunID, updated.Status), updated)
	return updated, nil
}

// notify is fire and forget: a delivery failure is logged and never surfaces
// to the caller.
func (s *runService) notify(ctx context.Context, kind notification.Kind, recipient, message string, r run.PayrollRun) {
	if s.notifier == nil || recipient == "" {
		return
	}
	err := s.notifier.Notify(ctx, kind, recipient, message, map[string]string{
		"run_id": r.RunID,
		"status": string(r.Status),
	})
	if err != nil {
		slog.Error("failed to send run notification", "run_id", r.RunID, "recipient", recipient, "error", err)
	}
}

// ToResponse maps a run onto its transport shape.
func ToResponse(r run.PayrollRun) run.RunResponse {
	fmtTime := func(t *time.Time) *string {
		if t == nil {
			return nil
		}
		s := t.Format(time.RFC3339)
		return &s
	}
	return run.RunResponse{
		ID:                r.ID,
		RunID:             r.RunID,
		Period:            r.Period.Format("2006-01"),
		Entity:            r.Entity(),
		Currency:          r.Currency,
		SpecialistID:      r.SpecialistID,
		ManagerID:         r.ManagerID,
		FinanceStaffID:    r.FinanceStaffID,
		Status:            string(r.Status),
		PaymentStatus:     string(r.PaymentStatus),
		EmployeeCount:     r.EmployeeCount,
		ExceptionCount:    r.ExceptionCount,
		TotalNetPay:       r.TotalNetPay,
		RejectionReason:   r.RejectionReason,
		UnlockReason:      r.UnlockReason,
		ReviewedAt:        fmtTime(r.ReviewedAt),
		ManagerApprovedAt: fmtTime(r.ManagerApprovedAt),
		FinanceApprovedAt: fmtTime(r.FinanceApprovedAt),
		LockedAt:          fmtTime(r.LockedAt),
	}
}
