package draft

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/corepay/payroll-engine-go/internal/domain/award"
	"github.com/corepay/payroll-engine-go/internal/domain/configset"
	"github.com/corepay/payroll-engine-go/internal/domain/detail"
	"github.com/corepay/payroll-engine-go/internal/domain/run"
	"github.com/corepay/payroll-engine-go/internal/domain/workforce"
	"github.com/corepay/payroll-engine-go/internal/service/calculator"
	"github.com/shopspring/decimal"
)

// Service builds and rebuilds a run's draft: the full set of per-employee
// details plus the run-level aggregates. Every generation is a clean rebuild;
// partial recalculation is deliberately unsupported.
type Service interface {
	GenerateDraft(ctx context.Context, runID string) (run.PayrollRun, error)

	// SweepAwards creates PENDING signing bonuses and termination benefits
	// for newly eligible employees. Also run on a schedule.
	SweepAwards(ctx context.Context) (int, error)
}

type draftService struct {
	runs      run.Repository
	details   detail.Repository
	employees workforce.Provider
	config    configset.Provider
	awards    award.Repository
	calc      calculator.Service
	flagger   calculator.Flagger
}

func NewDraftService(
	runs run.Repository,
	details detail.Repository,
	employees workforce.Provider,
	config configset.Provider,
	awards award.Repository,
	calc calculator.Service,
	flagger calculator.Flagger,
) Service {
	return &draftService{
		runs:      runs,
		details:   details,
		employees: employees,
		config:    config,
		awards:    awards,
		calc:      calc,
		flagger:   flagger,
	}
}

// GenerateDraft rebuilds the run's details from scratch. Undecided awards
// block generation before any work starts; the sweep afterwards creates the
// next batch of pending records, which in turn gate the next generation.
// A calculation failure for one employee is flagged CALC_ERROR and skipped so
// the rest of the workforce still gets figures.
func (s *draftService) GenerateDraft(ctx context.Context, runID string) (run.PayrollRun, error) {
	r, err := s.runs.GetByID(ctx, runID)
	if err != nil {
		return run.PayrollRun{}, err
	}
	if err := run.EditGuard(r.Status); err != nil {
		return run.PayrollRun{}, err
	}

	employees, err := s.employees.FindAllActive(ctx)
	if err != nil {
		return run.PayrollRun{}, fmt.Errorf("failed to list employees: %w", err)
	}

	// The period must not predate any active employee's hire or contract
	// start: such an employee cannot have figures for that month at all.
	periodEnd := run.TruncateToMonth(r.Period).AddDate(0, 1, -1)
	for _, emp := range employees {
		if periodEnd.Before(emp.DateOfHire) || periodEnd.Before(emp.ContractStartDate) {
			return run.PayrollRun{}, run.ErrPeriodBeforeHire
		}
	}

	pending, err := s.awards.ListPending(ctx)
	if err != nil {
		return run.PayrollRun{}, fmt.Errorf("failed to check pending awards: %w", err)
	}
	if len(pending) > 0 {
		return run.PayrollRun{}, &award.PendingAwardsError{Items: pending}
	}

	if _, err := s.SweepAwards(ctx); err != nil {
		return run.PayrollRun{}, fmt.Errorf("award sweep failed: %w", err)
	}

	// Clean rebuild: previous details and their exception records go, and
	// the run counters reset so re-flagged exceptions count exactly once.
	if err := s.details.DeleteByRun(ctx, r.ID); err != nil {
		return run.PayrollRun{}, fmt.Errorf("failed to clear previous draft: %w", err)
	}
	if err := s.runs.SetTotals(ctx, r.ID, 0, 0, decimal.Zero); err != nil {
		return run.PayrollRun{}, fmt.Errorf("failed to reset run totals: %w", err)
	}

	totalNetPay := decimal.Zero
	for _, emp := range employees {
		if _, err := s.details.CreateSkeleton(ctx, r.ID, emp.ID, r.Currency); err != nil {
			return run.PayrollRun{}, fmt.Errorf("failed to create detail for employee %s: %w", emp.ID, err)
		}

		d, err := s.calc.Calculate(ctx, emp.ID, r, nil)
		if err != nil {
			slog.Error("employee calculation failed", "run_id", r.RunID, "employee_id", emp.ID, "error", err)
			empID := emp.ID
			if ferr := s.flagger.Flag(ctx, r.ID, detail.CodeCalcError,
				fmt.Sprintf("calculation failed: %v", err), &empID); ferr != nil {
				return run.PayrollRun{}, fmt.Errorf("failed to flag calculation error: %w", ferr)
			}
			continue
		}

		if err := s.overlayAwards(ctx, &d); err != nil {
			return run.PayrollRun{}, err
		}

		if _, err := s.details.SaveFigures(ctx, d); err != nil {
			return run.PayrollRun{}, fmt.Errorf("failed to save detail for employee %s: %w", emp.ID, err)
		}
		totalNetPay = totalNetPay.Add(d.NetPay)
	}

	// Reload for the exception counter the calculation pass accumulated.
	r, err = s.runs.GetByID(ctx, r.ID)
	if err != nil {
		return run.PayrollRun{}, err
	}
	if err := s.runs.SetTotals(ctx, r.ID, len(employees), r.ExceptionCount, totalNetPay.Round(2)); err != nil {
		return run.PayrollRun{}, fmt.Errorf("failed to store run totals: %w", err)
	}

	return s.runs.GetByID(ctx, r.ID)
}

// overlayAwards adds the employee's APPROVED signing bonuses and termination
// benefits on top of the calculated figures.
func (s *draftService) overlayAwards(ctx context.Context, d *detail.Detail) error {
	bonuses, err := s.awards.ApprovedBonusesFor(ctx, d.EmployeeID)
	if err != nil {
		return fmt.Errorf("failed to load signing bonuses: %w", err)
	}
	for _, b := range bonuses {
		d.Bonus = d.Bonus.Add(b.Amount)
	}

	benefits, err := s.awards.ApprovedBenefitsFor(ctx, d.EmployeeID)
	if err != nil {
		return fmt.Errorf("failed to load termination benefits: %w", err)
	}
	for _, b := range benefits {
		d.Benefit = d.Benefit.Add(b.Amount)
	}

	d.Bonus = d.Bonus.Round(2)
	d.Benefit = d.Benefit.Round(2)
	d.NetPay = d.NetPay.Add(d.Bonus).Add(d.Benefit).Round(2)
	return nil
}

// SweepAwards scans the active workforce against APPROVED bonus and benefit
// plans and creates the missing PENDING award records. Idempotent: the
// repository skips natural-key duplicates.
func (s *draftService) SweepAwards(ctx context.Context) (int, error) {
	employees, err := s.employees.FindAllActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list employees: %w", err)
	}

	bonusPlans, err := s.config.SigningBonusPlans(ctx, configset.StatusApproved)
	if err != nil {
		return 0, fmt.Errorf("failed to load signing bonus plans: %w", err)
	}
	benefitPlans, err := s.config.TerminationBenefitPlans(ctx, configset.StatusApproved)
	if err != nil {
		return 0, fmt.Errorf("failed to load termination benefit plans: %w", err)
	}

	now := time.Now()
	created := 0

	for _, emp := range employees {
		for _, plan := range bonusPlans {
			cutoff := emp.DateOfHire.AddDate(0, 0, plan.EligibilityDays)
			if now.After(cutoff) {
				continue
			}
			ok, err := s.awards.CreateBonusIfAbsent(ctx, award.SigningBonus{
				EmployeeID: emp.ID,
				PlanID:     plan.ID,
				Amount:     plan.Amount,
				Status:     award.StatusPending,
			})
			if err != nil {
				return created, fmt.Errorf("failed to create signing bonus: %w", err)
			}
			if ok {
				created++
			}
		}

		if !emp.TerminationApproved || emp.TerminationDate == nil {
			continue
		}
		for _, plan := range benefitPlans {
			ok, err := s.awards.CreateBenefitIfAbsent(ctx, award.TerminationBenefit{
				EmployeeID:      emp.ID,
				PlanID:          plan.ID,
				TerminationDate: *emp.TerminationDate,
				Amount:          plan.Amount,
				Status:          award.StatusPending,
			})
			if err != nil {
				return created, fmt.Errorf("failed to create termination benefit: %w", err)
			}
			if ok {
				created++
			}
		}
	}

	if created > 0 {
		slog.Info("award sweep created pending records", "count", created)
	}
	return created, nil
}
