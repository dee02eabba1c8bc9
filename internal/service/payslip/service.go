package payslip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corepay/payroll-engine-go/internal/domain/award"
	"github.com/corepay/payroll-engine-go/internal/domain/configset"
	"github.com/corepay/payroll-engine-go/internal/domain/detail"
	"github.com/corepay/payroll-engine-go/internal/domain/notification"
	"github.com/corepay/payroll-engine-go/internal/domain/payslip"
	"github.com/corepay/payroll-engine-go/internal/domain/refund"
	"github.com/corepay/payroll-engine-go/internal/domain/run"
	"github.com/corepay/payroll-engine-go/internal/domain/workforce"
	"github.com/corepay/payroll-engine-go/internal/pkg/currency"
	"github.com/corepay/payroll-engine-go/internal/service/calculator"
	"github.com/shopspring/decimal"
)

// Service assembles immutable payslips from a locked, paid run. Each payslip
// snapshots the configuration names and amounts at generation time, so later
// configuration edits never rewrite an issued document.
type Service interface {
	GenerateForRun(ctx context.Context, runID string) ([]payslip.Payslip, error)
	GetForEmployee(ctx context.Context, runID, employeeID string) (payslip.Payslip, error)
	ListByRun(ctx context.Context, runID string) ([]payslip.Payslip, error)
}

type payslipService struct {
	runs      run.Repository
	details   detail.Repository
	payslips  payslip.Repository
	config    configset.Provider
	employees workforce.Provider
	awards    award.Repository
	refunds   refund.Tracker
	policy    calculator.EligibilityPolicy
	converter *currency.Converter
	flagger   calculator.Flagger
	notifier  notification.Notifier
}

func NewPayslipService(
	runs run.Repository,
	details detail.Repository,
	payslips payslip.Repository,
	config configset.Provider,
	employees workforce.Provider,
	awards award.Repository,
	refunds refund.Tracker,
	policy calculator.EligibilityPolicy,
	converter *currency.Converter,
	flagger calculator.Flagger,
	notifier notification.Notifier,
) Service {
	return &payslipService{
		runs:      runs,
		details:   details,
		payslips:  payslips,
		config:    config,
		employees: employees,
		awards:    awards,
		refunds:   refunds,
		policy:    policy,
		converter: converter,
		flagger:   flagger,
		notifier:  notifier,
	}
}

// GenerateForRun issues one payslip per detail of a LOCKED, PAID run.
// Generation is idempotent: an employee who already has a payslip for the run
// keeps the existing record untouched. Pending refunds included in the
// figures are stamped with the run, closing the refund loop.
func (s *payslipService) GenerateForRun(ctx context.Context, runID string) ([]payslip.Payslip, error) {
	r, err := s.runs.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if r.Status != run.StatusLocked || r.PaymentStatus != run.PaymentPaid {
		return nil, run.ErrRunNotPayable
	}

	details, err := s.details.ListByRun(ctx, r.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list run details: %w", err)
	}

	out := make([]payslip.Payslip, 0, len(details))
	for _, d := range details {
		existing, err := s.payslips.GetByRunAndEmployee(ctx, r.ID, d.EmployeeID)
		if err == nil {
			out = append(out, existing)
			continue
		}
		if !errors.Is(err, payslip.ErrPayslipNotFound) {
			return nil, fmt.Errorf("failed to check for existing payslip: %w", err)
		}

		p, err := s.assemble(ctx, r, d)
		if err != nil {
			return nil, err
		}
		created, err := s.payslips.Create(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("failed to store payslip for employee %s: %w", d.EmployeeID, err)
		}
		out = append(out, created)

		s.notifyEmployee(ctx, r, d.EmployeeID)
	}
	return out, nil
}

func (s *payslipService) GetForEmployee(ctx context.Context, runID, employeeID string) (payslip.Payslip, error) {
	return s.payslips.GetByRunAndEmployee(ctx, runID, employeeID)
}

func (s *payslipService) ListByRun(ctx context.Context, runID string) ([]payslip.Payslip, error) {
	return s.payslips.ListByRun(ctx, runID)
}

// assemble snapshots the configuration behind a detail's figures into named
// line items. The detail's totals stay authoritative: the payslip presents
// them, it never recomputes them.
func (s *payslipService) assemble(ctx context.Context, r run.PayrollRun, d detail.Detail) (payslip.Payslip, error) {
	earnings := payslip.Earnings{BaseSalary: d.BaseSalary}
	deductions := payslip.Deductions{Penalties: d.Penalties}

	if err := s.snapshotAllowances(ctx, r, d, &earnings); err != nil {
		return payslip.Payslip{}, err
	}

	bonuses, err := s.awards.ApprovedBonusesFor(ctx, d.EmployeeID)
	if err != nil {
		return payslip.Payslip{}, fmt.Errorf("failed to load signing bonuses: %w", err)
	}
	for _, b := range bonuses {
		earnings.Bonuses = append(earnings.Bonuses, payslip.LineItem{Label: "Signing Bonus", Amount: b.Amount})
	}
	benefits, err := s.awards.ApprovedBenefitsFor(ctx, d.EmployeeID)
	if err != nil {
		return payslip.Payslip{}, fmt.Errorf("failed to load termination benefits: %w", err)
	}
	for _, b := range benefits {
		earnings.Benefits = append(earnings.Benefits, payslip.LineItem{Label: "Termination Benefit", Amount: b.Amount})
	}

	if err := s.snapshotRefunds(ctx, r, d, &earnings); err != nil {
		return payslip.Payslip{}, err
	}
	if err := s.snapshotStatutory(ctx, d, &deductions); err != nil {
		return payslip.Payslip{}, err
	}

	gross := earnings.BaseSalary
	for _, items := range [][]payslip.LineItem{earnings.Allowances, earnings.Bonuses, earnings.Benefits, earnings.Refunds} {
		for _, it := range items {
			gross = gross.Add(it.Amount)
		}
	}
	totalDeductions := deductions.Penalties
	for _, items := range [][]payslip.LineItem{deductions.Taxes, deductions.Insurances} {
		for _, it := range items {
			totalDeductions = totalDeductions.Add(it.Amount)
		}
	}

	return payslip.Payslip{
		RunID:           r.ID,
		EmployeeID:      d.EmployeeID,
		Earnings:        earnings,
		Deductions:      deductions,
		TotalGross:      gross.Round(2),
		TotalDeductions: totalDeductions.Round(2),
		NetPay:          d.NetPay,
		Currency:        r.Currency,
		GeneratedAt:     time.Now(),
	}, nil
}

func (s *payslipService) snapshotAllowances(ctx context.Context, r run.PayrollRun, d detail.Detail, earnings *payslip.Earnings) error {
	if d.Allowances.IsZero() {
		return nil
	}
	all, err := s.config.Allowances(ctx, configset.StatusApproved)
	if err != nil {
		return fmt.Errorf("failed to load allowances: %w", err)
	}

	emp, err := s.employees.FindOne(ctx, d.EmployeeID)
	if err != nil {
		return fmt.Errorf("failed to load employee %s: %w", d.EmployeeID, err)
	}
	attrs := calculator.Attributes{
		PositionTitle:  emp.PositionTitle,
		DepartmentName: emp.DepartmentName,
		ContractType:   emp.ContractType,
		WorkType:       emp.WorkType,
	}
	if emp.PayGradeID != nil {
		if grade, err := s.config.PayGrade(ctx, *emp.PayGradeID); err == nil {
			attrs.PayGrade = grade.Grade
		}
	}

	var matched []configset.Allowance
	for _, a := range all {
		if s.policy.Eligible(a.Name, attrs) {
			matched = append(matched, a)
		}
	}
	if len(matched) == 0 {
		matched = all
	}
	for _, a := range matched {
		earnings.Allowances = append(earnings.Allowances, payslip.LineItem{
			Label:  a.Name,
			Amount: s.converter.Convert(a.Amount, a.Currency, r.Currency),
		})
	}
	return nil
}

// snapshotRefunds settles the refunds the draft calculation credited into the
// detail's net pay. Refunds that turned pending after calculation are not in
// d.RefundIDs and stay open for a later run.
func (s *payslipService) snapshotRefunds(ctx context.Context, r run.PayrollRun, d detail.Detail, earnings *payslip.Earnings) error {
	if len(d.RefundIDs) == 0 {
		return nil
	}
	included := make(map[string]bool, len(d.RefundIDs))
	for _, id := range d.RefundIDs {
		included[id] = true
	}

	pending, err := s.refunds.PendingByEmployee(ctx, d.EmployeeID)
	if err != nil {
		return fmt.Errorf("failed to load refunds: %w", err)
	}
	for _, ref := range pending {
		if !included[ref.ID] {
			continue
		}
		earnings.Refunds = append(earnings.Refunds, payslip.LineItem{Label: "Refund", Amount: ref.Amount})
		if err := s.refunds.MarkProcessed(ctx, ref.ID, r.ID); err != nil {
			return fmt.Errorf("failed to mark refund %s processed: %w", ref.ID, err)
		}
	}
	return nil
}

func (s *payslipService) snapshotStatutory(ctx context.Context, d detail.Detail, deductions *payslip.Deductions) error {
	rules, err := s.config.TaxRules(ctx, configset.StatusApproved)
	if err != nil {
		return fmt.Errorf("failed to load tax rules: %w", err)
	}
	hundred := decimal.NewFromInt(100)
	for _, rule := range rules {
		deductions.Taxes = append(deductions.Taxes, payslip.LineItem{
			Label:  rule.Name,
			Amount: d.BaseSalary.Mul(rule.Rate).Div(hundred).Round(2),
		})
	}

	brackets, err := s.config.InsuranceBrackets(ctx, configset.StatusApproved)
	if err != nil {
		return fmt.Errorf("failed to load insurance brackets: %w", err)
	}
	for _, b := range brackets {
		if b.Contains(d.BaseSalary) {
			deductions.Insurances = append(deductions.Insurances, payslip.LineItem{
				Label:  b.Name,
				Amount: d.BaseSalary.Mul(b.EmployeeRate).Div(hundred).Round(2),
			})
		}
	}
	return nil
}

// notifyEmployee is fire and forget. A delivery failure is flagged on the
// run so reviewers see it, but the payslip stands.
func (s *payslipService) notifyEmployee(ctx context.Context, r run.PayrollRun, employeeID string) {
	if s.notifier == nil {
		return
	}
	emp, err := s.employees.FindOne(ctx, employeeID)
	if err != nil || emp.Email == "" {
		return
	}
	err = s.notifier.Notify(ctx, notification.KindPayslipReady, emp.Email,
		fmt.Sprintf("your payslip for %s is ready", r.Period.Format("January 2006")),
		map[string]string{"run_id": r.RunID})
	if err != nil {
		slog.Error("failed to send payslip notification", "run_id", r.RunID, "employee_id", employeeID, "error", err)
		empID := employeeID
		if ferr := s.flagger.Flag(ctx, r.ID, detail.CodeNotifyFailed,
			fmt.Sprintf("payslip notification failed: %v", err), &empID); ferr != nil {
			slog.Error("failed to flag notification failure", "run_id", r.RunID, "error", ferr)
		}
	}
}
