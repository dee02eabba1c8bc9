package calculator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/corepay/payroll-engine-go/internal/domain/configset"
	"github.com/corepay/payroll-engine-go/internal/domain/detail"
	"github.com/corepay/payroll-engine-go/internal/domain/refund"
	"github.com/corepay/payroll-engine-go/internal/domain/run"
	"github.com/corepay/payroll-engine-go/internal/domain/timeoff"
	"github.com/corepay/payroll-engine-go/internal/domain/workforce"
	"github.com/corepay/payroll-engine-go/internal/pkg/currency"
	"github.com/shopspring/decimal"
)

const (
	standardWorkdayMinutes = 8 * 60
	unpaidLeaveDivisor     = 30  // daily rate = base / 30
	timePenaltyDivisor     = 240 // hourly rate = base / 240
	missedPunchHours       = 4
	otherExceptionHours    = 1
	salarySpikeFactor      = 3
)

// Flagger records a payroll exception against a run and optionally one of its
// details. Implemented by the exception ledger.
type Flagger interface {
	Flag(ctx context.Context, runID string, code detail.Code, message string, employeeID *string) error
}

// Service computes one employee's pay breakdown for a run.
type Service interface {
	Calculate(ctx context.Context, employeeID string, r run.PayrollRun, override *decimal.Decimal) (detail.Detail, error)
}

type calculatorService struct {
	employees workforce.Provider
	config    configset.Provider
	timeoff   timeoff.Provider
	refunds   refund.Tracker
	flagger   Flagger
	policy    EligibilityPolicy
	converter *currency.Converter
}

func NewCalculatorService(
	employees workforce.Provider,
	config configset.Provider,
	timeoffProvider timeoff.Provider,
	refunds refund.Tracker,
	flagger Flagger,
	policy EligibilityPolicy,
	converter *currency.Converter,
) Service {
	return &calculatorService{
		employees: employees,
		config:    config,
		timeoff:   timeoffProvider,
		refunds:   refunds,
		flagger:   flagger,
		policy:    policy,
		converter: converter,
	}
}

// Calculate runs the full per-employee algorithm: base salary resolution,
// proration, allowances, statutory deductions, penalties and refunds, then
// aggregation with the net-pay floor. Configuration failures are flagged and
// zeroed so one bad rule never blocks a whole run; a missing employee is
// fatal and propagated.
func (s *calculatorService) Calculate(ctx context.Context, employeeID string, r run.PayrollRun, override *decimal.Decimal) (detail.Detail, error) {
	emp, err := s.employees.FindOne(ctx, employeeID)
	if err != nil {
		return detail.Detail{}, fmt.Errorf("failed to load employee %s: %w", employeeID, err)
	}

	// 1. Base salary resolution
	base, source := s.resolveBaseSalary(ctx, &emp, r, override)

	// 2. Proration for mid-period hire or approved termination
	base = s.prorate(&emp, r, base)

	// 3. Allowances
	allowances := s.sumAllowances(ctx, &emp, r)

	// 4. Statutory deductions
	taxes, insurance := s.statutoryDeductions(ctx, r, base, emp.ID)
	statutory := taxes.Add(insurance).Round(2)

	// 5. Penalties
	unpaidLeave := s.unpaidLeavePenalty(ctx, &emp, r, base)
	timePenalty := s.timeManagementPenalty(ctx, &emp, r, base)
	penalties := unpaidLeave.Add(timePenalty).Round(2)

	// 6. Refunds
	refunds, refundIDs := s.pendingRefunds(ctx, emp.ID, r)

	// 7. Aggregation
	gross := base.Add(allowances)
	netSalary := gross.Sub(statutory).Round(2)
	netPay := netSalary.Sub(penalties).Add(refunds).Round(2)
	if netPay.IsNegative() {
		s.flag(ctx, r.ID, detail.CodeNegativeNetPay,
			fmt.Sprintf("net pay computed as %s before flooring at 0", netPay), emp.ID)
		netPay = decimal.Zero
	}

	bankStatus := detail.BankValid
	if !emp.HasBankAccount() {
		bankStatus = detail.BankMissing
		s.flag(ctx, r.ID, detail.CodeMissingBankAccount, "employee has no bank account number on file", emp.ID)
	}

	return detail.Detail{
		RunID:        r.ID,
		EmployeeID:   emp.ID,
		BaseSalary:   base,
		SalarySource: source,
		Allowances:   allowances,
		Deductions:   statutory,
		Penalties:    penalties,
		Refunds:      refunds,
		RefundIDs:    refundIDs,
		Bonus:        decimal.Zero,
		Benefit:      decimal.Zero,
		NetSalary:    netSalary,
		NetPay:       netPay,
		BankStatus:   bankStatus,
		Currency:     r.Currency,
		Breakdown: detail.DeductionsBreakdown{
			Taxes:                taxes,
			Insurance:            insurance,
			TimePenalties:        timePenalty,
			UnpaidLeavePenalties: unpaidLeave,
			Total:                statutory.Add(penalties).Round(2),
		},
	}, nil
}

func (s *calculatorService) resolveBaseSalary(ctx context.Context, emp *workforce.Employee, r run.PayrollRun, override *decimal.Decimal) (decimal.Decimal, detail.SalarySource) {
	resolved := decimal.Zero
	source := detail.SourceNone

	if emp.PayGradeID == nil {
		s.flag(ctx, r.ID, detail.CodeMissingPayGrade, "employee has no pay grade assigned", emp.ID)
	} else {
		grade, err := s.config.PayGrade(ctx, *emp.PayGradeID)
		switch {
		case err != nil:
			s.flag(ctx, r.ID, detail.CodeConfigLookupFailed,
				fmt.Sprintf("pay grade lookup failed: %v", err), emp.ID)
		case grade.Status != configset.StatusApproved:
			s.flag(ctx, r.ID, detail.CodeUnapprovedPayGrade,
				fmt.Sprintf("pay grade %s is %s, not APPROVED", grade.Grade, grade.Status), emp.ID)
		case !grade.BaseSalary.IsPositive():
			s.flag(ctx, r.ID, detail.CodeInvalidBaseSalary,
				fmt.Sprintf("pay grade %s has non-positive base salary %s", grade.Grade, grade.BaseSalary), emp.ID)
		default:
			resolved = s.converter.Convert(grade.BaseSalary, grade.Currency, r.Currency)
			source = detail.SourcePayGrade
		}
	}

	if override != nil {
		if !override.Equal(resolved) {
			s.flag(ctx, r.ID, detail.CodeBaseSalaryOverride,
				fmt.Sprintf("caller override %s differs from resolved base %s", override, resolved), emp.ID)
		}
		if resolved.IsPositive() && override.GreaterThan(resolved.Mul(decimal.NewFromInt(salarySpikeFactor))) {
			s.flag(ctx, r.ID, detail.CodeSalarySpike,
				fmt.Sprintf("override %s exceeds %dx the grade base %s", override, salarySpikeFactor, resolved), emp.ID)
		}
		resolved = *override
		source = detail.SourceOverride
	}

	if !resolved.IsPositive() {
		s.flag(ctx, r.ID, detail.CodeMissingBaseSalary, "no positive base salary resolved, using 0", emp.ID)
		return decimal.Zero, detail.SourceNone
	}
	return resolved, source
}

// prorate recomputes the salary when the hire date or an approved termination
// falls inside the pay period. daysWorked counts both boundary days and is
// clamped to the days in the month, so an employee hired on the 1st keeps the
// full month.
func (s *calculatorService) prorate(emp *workforce.Employee, r run.PayrollRun, base decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() {
		return base
	}

	periodStart := run.TruncateToMonth(r.Period)
	periodEnd := periodStart.AddDate(0, 1, -1)
	daysInMonth := periodEnd.Day()

	windowStart, windowEnd := periodStart, periodEnd
	prorated := false

	if emp.DateOfHire.After(periodStart) && !emp.DateOfHire.After(periodEnd) {
		windowStart = emp.DateOfHire
		prorated = true
	}
	if emp.TerminationApproved && emp.TerminationDate != nil &&
		!emp.TerminationDate.Before(periodStart) && !emp.TerminationDate.After(periodEnd) {
		windowEnd = *emp.TerminationDate
		prorated = true
	}
	if !prorated || windowEnd.Before(windowStart) {
		return base
	}

	daysWorked := int(windowEnd.Sub(windowStart).Hours()/24+0.999999) + 1
	if daysWorked > daysInMonth {
		daysWorked = daysInMonth
	}

	return base.
		Div(decimal.NewFromInt(int64(daysInMonth))).
		Mul(decimal.NewFromInt(int64(daysWorked))).
		Round(2)
}

// sumAllowances applies the eligibility policy over all APPROVED allowances.
// When the policy matches nothing for the employee, every allowance is
// granted instead: the conservative default avoids silently zeroing pay.
func (s *calculatorService) sumAllowances(ctx context.Context, emp *workforce.Employee, r run.PayrollRun) decimal.Decimal {
	all, err := s.config.Allowances(ctx, configset.StatusApproved)
	if err != nil {
		s.flag(ctx, r.ID, detail.CodeConfigLookupFailed,
			fmt.Sprintf("allowance lookup failed: %v", err), emp.ID)
		return decimal.Zero
	}
	if len(all) == 0 {
		return decimal.Zero
	}

	attrs := Attributes{
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

	matched := make([]configset.Allowance, 0, len(all))
	for _, a := range all {
		if s.policy.Eligible(a.Name, attrs) {
			matched = append(matched, a)
		}
	}
	if len(matched) == 0 {
		matched = all
	}

	total := decimal.Zero
	for _, a := range matched {
		total = total.Add(s.converter.Convert(a.Amount, a.Currency, r.Currency))
	}
	return total.Round(2)
}

func (s *calculatorService) statutoryDeductions(ctx context.Context, r run.PayrollRun, base decimal.Decimal, employeeID string) (taxes, insurance decimal.Decimal) {
	taxes, insurance = decimal.Zero, decimal.Zero
	hundred := decimal.NewFromInt(100)

	rules, err := s.config.TaxRules(ctx, configset.StatusApproved)
	if err != nil {
		s.flag(ctx, r.ID, detail.CodeConfigLookupFailed,
			fmt.Sprintf("tax rule lookup failed: %v", err), employeeID)
	} else {
		for _, rule := range rules {
			taxes = taxes.Add(base.Mul(rule.Rate).Div(hundred))
		}
	}

	brackets, err := s.config.InsuranceBrackets(ctx, configset.StatusApproved)
	if err != nil {
		s.flag(ctx, r.ID, detail.CodeConfigLookupFailed,
			fmt.Sprintf("insurance bracket lookup failed: %v", err), employeeID)
	} else {
		for _, b := range brackets {
			if b.Contains(base) {
				insurance = insurance.Add(base.Mul(b.EmployeeRate).Div(hundred))
			}
		}
	}

	return taxes.Round(2), insurance.Round(2)
}

func (s *calculatorService) unpaidLeavePenalty(ctx context.Context, emp *workforce.Employee, r run.PayrollRun, base decimal.Decimal) decimal.Decimal {
	periodStart := run.TruncateToMonth(r.Period)
	periodEnd := periodStart.AddDate(0, 1, -1)

	requests, err := s.timeoff.ApprovedLeave(ctx, emp.ID, periodStart, periodEnd)
	if err != nil {
		s.flag(ctx, r.ID, detail.CodeConfigLookupFailed,
			fmt.Sprintf("leave request lookup failed: %v", err), emp.ID)
		return decimal.Zero
	}

	dailyRate := base.Div(decimal.NewFromInt(unpaidLeaveDivisor))
	total := decimal.Zero
	for _, req := range requests {
		if req.Paid {
			continue
		}
		total = total.Add(dailyRate.Mul(decimal.NewFromInt(int64(req.DurationDays))))
	}
	return total.Round(2)
}

// timeManagementPenalty charges hours against base/240: 4 hours for a missed
// punch, 1 hour for late/early-leave/short-time exceptions tied to a
// finalised attendance record, plus the missing hours of any finalised day
// worked under 50% of the standard 8 hours.
func (s *calculatorService) timeManagementPenalty(ctx context.Context, emp *workforce.Employee, r run.PayrollRun, base decimal.Decimal) decimal.Decimal {
	periodStart := run.TruncateToMonth(r.Period)
	periodEnd := periodStart.AddDate(0, 1, -1)

	records, err := s.timeoff.FinalisedAttendance(ctx, emp.ID, periodStart, periodEnd)
	if err != nil {
		s.flag(ctx, r.ID, detail.CodeConfigLookupFailed,
			fmt.Sprintf("attendance lookup failed: %v", err), emp.ID)
		return decimal.Zero
	}
	finalised := make(map[string]timeoff.AttendanceRecord, len(records))
	for _, rec := range records {
		if rec.FinalisedForPayroll {
			finalised[rec.ID] = rec
		}
	}

	hourlyRate := base.Div(decimal.NewFromInt(timePenaltyDivisor))
	penaltyHours := decimal.Zero

	exceptions, err := s.timeoff.TimeExceptions(ctx, emp.ID, periodStart, periodEnd)
	if err != nil {
		s.flag(ctx, r.ID, detail.CodeConfigLookupFailed,
			fmt.Sprintf("time exception lookup failed: %v", err), emp.ID)
	} else {
		for _, ex := range exceptions {
			if ex.Type == timeoff.ExceptionMissedPunch {
				penaltyHours = penaltyHours.Add(decimal.NewFromInt(missedPunchHours))
				continue
			}
			if _, ok := finalised[ex.AttendanceRecordID]; ok {
				penaltyHours = penaltyHours.Add(decimal.NewFromInt(otherExceptionHours))
			}
		}
	}

	// Days worked under half the standard shift charge their missing hours.
	for _, rec := range finalised {
		if rec.WorkedMinutes*2 < standardWorkdayMinutes {
			missing := decimal.NewFromInt(int64(standardWorkdayMinutes - rec.WorkedMinutes)).
				Div(decimal.NewFromInt(60))
			penaltyHours = penaltyHours.Add(missing)
		}
	}

	return hourlyRate.Mul(penaltyHours).Round(2)
}

// pendingRefunds totals the employee's open refunds and returns their IDs so
// payslip generation later settles exactly the refunds this draft credited.
func (s *calculatorService) pendingRefunds(ctx context.Context, employeeID string, r run.PayrollRun) (decimal.Decimal, []string) {
	pending, err := s.refunds.PendingByEmployee(ctx, employeeID)
	if err != nil {
		s.flag(ctx, r.ID, detail.CodeConfigLookupFailed,
			fmt.Sprintf("refund lookup failed: %v", err), employeeID)
		return decimal.Zero, nil
	}

	total := decimal.Zero
	var ids []string
	for _, ref := range pending {
		if ref.Status == refund.StatusPending && ref.PaidInRunID == nil {
			total = total.Add(ref.Amount)
			ids = append(ids, ref.ID)
		}
	}
	return total.Round(2), ids
}

// flag records an exception and never lets a flagging failure abort the
// calculation that triggered it.
func (s *calculatorService) flag(ctx context.Context, runID string, code detail.Code, message string, employeeID string) {
	if err := s.flagger.Flag(ctx, runID, code, message, &employeeID); err != nil {
		slog.Error("failed to flag payroll exception",
			"run_id", runID, "employee_id", employeeID, "code", code, "error", err)
	}
}

// periodBounds is exposed for the draft generator's precondition checks.
func PeriodBounds(period time.Time) (start, end time.Time) {
	start = run.TruncateToMonth(period)
	return start, start.AddDate(0, 1, -1)
}
