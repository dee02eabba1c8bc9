package calculator

import (
	"context"
	"testing"
	"time"

	"github.com/corepay/payroll-engine-go/internal/domain/configset"
	"github.com/corepay/payroll-engine-go/internal/domain/detail"
	"github.com/corepay/payroll-engine-go/internal/domain/refund"
	"github.com/corepay/payroll-engine-go/internal/domain/run"
	"github.com/corepay/payroll-engine-go/internal/domain/timeoff"
	"github.com/corepay/payroll-engine-go/internal/domain/workforce"
	"github.com/corepay/payroll-engine-go/internal/pkg/currency"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWorkforce struct {
	employees map[string]workforce.Employee
}

func (f *fakeWorkforce) FindOne(_ context.Context, id string) (workforce.Employee, error) {
	emp, ok := f.employees[id]
	if !ok {
		return workforce.Employee{}, workforce.ErrEmployeeNotFound
	}
	return emp, nil
}

func (f *fakeWorkforce) FindAllActive(_ context.Context) ([]workforce.Employee, error) {
	var out []workforce.Employee
	for _, e := range f.employees {
		out = append(out, e)
	}
	return out, nil
}

type fakeConfig struct {
	grades     map[string]configset.PayGrade
	allowances []configset.Allowance
	taxRules   []configset.TaxRule
	brackets   []configset.InsuranceBracket
}

func (f *fakeConfig) PayGrade(_ context.Context, id string) (configset.PayGrade, error) {
	g, ok := f.grades[id]
	if !ok {
		return configset.PayGrade{}, configset.ErrPayGradeNotFound
	}
	return g, nil
}

func (f *fakeConfig) Allowances(_ context.Context, _ configset.ApprovalStatus) ([]configset.Allowance, error) {
	return f.allowances, nil
}

func (f *fakeConfig) TaxRules(_ context.Context, _ configset.ApprovalStatus) ([]configset.TaxRule, error) {
	return f.taxRules, nil
}

func (f *fakeConfig) InsuranceBrackets(_ context.Context, _ configset.ApprovalStatus) ([]configset.InsuranceBracket, error) {
	return f.brackets, nil
}

func (f *fakeConfig) SigningBonusPlans(_ context.Context, _ configset.ApprovalStatus) ([]configset.SigningBonusPlan, error) {
	return nil, nil
}

func (f *fakeConfig) TerminationBenefitPlans(_ context.Context, _ configset.ApprovalStatus) ([]configset.TerminationBenefitPlan, error) {
	return nil, nil
}

type fakeTimeoff struct {
	leave      []timeoff.LeaveRequest
	attendance []timeoff.AttendanceRecord
	exceptions []timeoff.TimeException
}

func (f *fakeTimeoff) ApprovedLeave(_ context.Context, _ string, _, _ time.Time) ([]timeoff.LeaveRequest, error) {
	return f.leave, nil
}

func (f *fakeTimeoff) FinalisedAttendance(_ context.Context, _ string, _, _ time.Time) ([]timeoff.AttendanceRecord, error) {
	return f.attendance, nil
}

func (f *fakeTimeoff) TimeExceptions(_ context.Context, _ string, _, _ time.Time) ([]timeoff.TimeException, error) {
	return f.exceptions, nil
}

type fakeRefunds struct {
	pending []refund.Refund
}

func (f *fakeRefunds) PendingByEmployee(_ context.Context, _ string) ([]refund.Refund, error) {
	return f.pending, nil
}

func (f *fakeRefunds) MarkProcessed(_ context.Context, _, _ string) error { return nil }

type recordedFlag struct {
	Code    detail.Code
	Message string
}

type fakeFlagger struct {
	flags []recordedFlag
}

func (f *fakeFlagger) Flag(_ context.Context, _ string, code detail.Code, message string, _ *string) error {
	f.flags = append(f.flags, recordedFlag{Code: code, Message: message})
	return nil
}

func (f *fakeFlagger) has(code detail.Code) bool {
	for _, fl := range f.flags {
		if fl.Code == code {
			return true
		}
	}
	return false
}

type calcFixture struct {
	workforce *fakeWorkforce
	config    *fakeConfig
	timeoff   *fakeTimeoff
	refunds   *fakeRefunds
	flagger   *fakeFlagger
	svc       Service
}

func newCalcFixture() *calcFixture {
	gradeID := "grade-1"
	account := "1234567890"
	f := &calcFixture{
		workforce: &fakeWorkforce{employees: map[string]workforce.Employee{
			"emp-1": {
				ID:                "emp-1",
				FullName:          "Jane Roe",
				Status:            workforce.StatusActive,
				DateOfHire:        time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
				PayGradeID:        &gradeID,
				BankAccountNumber: &account,
				PositionTitle:     "Accountant",
				DepartmentName:    "Finance",
			},
		}},
		config: &fakeConfig{
			grades: map[string]configset.PayGrade{
				"grade-1": {
					ID:         "grade-1",
					Grade:      "G1",
					BaseSalary: decimal.NewFromInt(3000),
					Currency:   "USD",
					Status:     configset.StatusApproved,
				},
			},
			allowances: []configset.Allowance{
				{ID: "al-1", Name: "Housing Allowance", Amount: decimal.NewFromInt(200), Currency: "USD", Status: configset.StatusApproved},
			},
			taxRules: []configset.TaxRule{
				{ID: "tax-1", Name: "Income Tax", Rate: decimal.NewFromInt(10), Status: configset.StatusApproved},
			},
		},
		timeoff: &fakeTimeoff{},
		refunds: &fakeRefunds{},
		flagger: &fakeFlagger{},
	}
	f.svc = NewCalculatorService(
		f.workforce, f.config, f.timeoff, f.refunds, f.flagger,
		NewKeywordPolicy(), currency.NewConverter(currency.NewStaticRates()),
	)
	return f
}

func usdRun(period time.Time) run.PayrollRun {
	return run.PayrollRun{
		ID:       "run-1",
		RunID:    "PR-2025-0001",
		Period:   period,
		Currency: "USD",
	}
}

func TestCalculate_BaseWithAllowanceAndTax(t *testing.T) {
	f := newCalcFixture()
	r := usdRun(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	d, err := f.svc.Calculate(context.Background(), "emp-1", r, nil)
	require.NoError(t, err)

	assert.True(t, d.BaseSalary.Equal(decimal.NewFromInt(3000)), "base = %s", d.BaseSalary)
	assert.Equal(t, detail.SourcePayGrade, d.SalarySource)
	assert.True(t, d.Allowances.Equal(decimal.NewFromInt(200)), "allowances = %s", d.Allowances)
	assert.True(t, d.Deductions.Equal(decimal.NewFromInt(300)), "statutory = %s", d.Deductions)
	assert.True(t, d.NetSalary.Equal(decimal.NewFromInt(2900)), "net salary = %s", d.NetSalary)
	assert.True(t, d.NetPay.Equal(decimal.NewFromInt(2900)), "net pay = %s", d.NetPay)
	assert.Equal(t, detail.BankValid, d.BankStatus)
	assert.Empty(t, f.flagger.flags)
}

func TestCalculate_ProratesMidMonthHire(t *testing.T) {
	f := newCalcFixture()
	emp := f.workforce.employees["emp-1"]
	emp.DateOfHire = time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)
	f.workforce.employees["emp-1"] = emp
	f.config.allowances = nil
	f.config.taxRules = nil

	d, err := f.svc.Calculate(context.Background(), "emp-1", usdRun(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)), nil)
	require.NoError(t, err)

	// 30-day month, hired on the 11th: 20 days worked.
	assert.True(t, d.BaseSalary.Equal(decimal.NewFromInt(2000)), "prorated base = %s", d.BaseSalary)
}

func TestCalculate_HiredOnFirstDayNotProrated(t *testing.T) {
	f := newCalcFixture()
	emp := f.workforce.employees["emp-1"]
	emp.DateOfHire = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	f.workforce.employees["emp-1"] = emp
	f.config.allowances = nil
	f.config.taxRules = nil

	d, err := f.svc.Calculate(context.Background(), "emp-1", usdRun(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)), nil)
	require.NoError(t, err)

	assert.True(t, d.BaseSalary.Equal(decimal.NewFromInt(3000)))
}

func TestCalculate_HiredOnSecondDayProrated(t *testing.T) {
	f := newCalcFixture()
	emp := f.workforce.employees["emp-1"]
	emp.DateOfHire = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	f.workforce.employees["emp-1"] = emp
	f.config.allowances = nil
	f.config.taxRules = nil

	d, err := f.svc.Calculate(context.Background(), "emp-1", usdRun(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)), nil)
	require.NoError(t, err)

	// 29 of 30 days: 3000/30*29 = 2900.
	assert.True(t, d.BaseSalary.Equal(decimal.NewFromInt(2900)), "prorated base = %s", d.BaseSalary)
}

func TestCalculate_ApprovedTerminationProrates(t *testing.T) {
	f := newCalcFixture()
	term := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	emp := f.workforce.employees["emp-1"]
	emp.TerminationDate = &term
	emp.TerminationApproved = true
	f.workforce.employees["emp-1"] = emp
	f.config.allowances = nil
	f.config.taxRules = nil

	d, err := f.svc.Calculate(context.Background(), "emp-1", usdRun(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)), nil)
	require.NoError(t, err)

	// Days 1 through 15 inclusive: 3000/30*15 = 1500.
	assert.True(t, d.BaseSalary.Equal(decimal.NewFromInt(1500)), "prorated base = %s", d.BaseSalary)
}

func TestCalculate_UnapprovedTerminationIgnored(t *testing.T) {
	f := newCalcFixture()
	term := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	emp := f.workforce.employees["emp-1"]
	emp.TerminationDate = &term
	emp.TerminationApproved = false
	f.workforce.employees["emp-1"] = emp
	f.config.allowances = nil
	f.config.taxRules = nil

	d, err := f.svc.Calculate(context.Background(), "emp-1", usdRun(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)), nil)
	require.NoError(t, err)

	assert.True(t, d.BaseSalary.Equal(decimal.NewFromInt(3000)))
}

func TestCalculate_MissingPayGradeFlagsAndZeroes(t *testing.T) {
	f := newCalcFixture()
	emp := f.workforce.employees["emp-1"]
	emp.PayGradeID = nil
	f.workforce.employees["emp-1"] = emp

	d, err := f.svc.Calculate(context.Background(), "emp-1", usdRun(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)), nil)
	require.NoError(t, err)

	assert.True(t, d.BaseSalary.IsZero())
	assert.Equal(t, detail.SourceNone, d.SalarySource)
	assert.True(t, f.flagger.has(detail.CodeMissingPayGrade))
	assert.True(t, f.flagger.has(detail.CodeMissingBaseSalary))
}

func TestCalculate_UnapprovedPayGradeFlagged(t *testing.T) {
	f := newCalcFixture()
	g := f.config.grades["grade-1"]
	g.Status = configset.StatusDraft
	f.config.grades["grade-1"] = g

	d, err := f.svc.Calculate(context.Background(), "emp-1", usdRun(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)), nil)
	require.NoError(t, err)

	assert.True(t, d.BaseSalary.IsZero())
	assert.True(t, f.flagger.has(detail.CodeUnapprovedPayGrade))
}

func TestCalculate_OverrideFlagsSpike(t *testing.T) {
	f := newCalcFixture()
	override := decimal.NewFromInt(10000)

	d, err := f.svc.Calculate(context.Background(), "emp-1", usdRun(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)), &override)
	require.NoError(t, err)

	assert.True(t, d.BaseSalary.Equal(override))
	assert.Equal(t, detail.SourceOverride, d.SalarySource)
	assert.True(t, f.flagger.has(detail.CodeBaseSalaryOverride))
	assert.True(t, f.flagger.has(detail.CodeSalarySpike))
}

func TestCalculate_OverrideWithinBoundsNoSpike(t *testing.T) {
	f := newCalcFixture()
	override := decimal.NewFromInt(3500)

	d, err := f.svc.Calculate(context.Background(), "emp-1", usdRun(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)), &override)
	require.NoError(t, err)

	assert.True(t, d.BaseSalary.Equal(override))
	assert.True(t, f.flagger.has(detail.CodeBaseSalaryOverride))
	assert.False(t, f.flagger.has(detail.CodeSalarySpike))
}

func TestCalculate_UnpaidLeavePenalty(t *testing.T) {
	f := newCalcFixture()
	f.config.allowances = nil
	f.config.taxRules = nil
	f.timeoff.leave = []timeoff.LeaveRequest{
		{ID: "lv-1", EmployeeID: "emp-1", Paid: false, DurationDays: 3, Status: timeoff.RequestApproved},
		{ID: "lv-2", EmployeeID: "emp-1", Paid: true, DurationDays: 5, Status: timeoff.RequestApproved},
	}

	d, err := f.svc.Calculate(context.Background(), "emp-1", usdRun(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)), nil)
	require.NoError(t, err)

	// daily rate 3000/30 = 100, three unpaid days; paid leave never deducts.
	assert.True(t, d.Penalties.Equal(decimal.NewFromInt(300)), "penalties = %s", d.Penalties)
	assert.True(t, d.NetPay.Equal(decimal.NewFromInt(2700)))
}

func TestCalculate_TimeManagementPenalties(t *testing.T) {
	f := newCalcFixture()
	f.config.allowances = nil
	f.config.taxRules = nil
	f.timeoff.attendance = []timeoff.AttendanceRecord{
		{ID: "att-1", EmployeeID: "emp-1", WorkedMinutes: 480, FinalisedForPayroll: true},
		{ID: "att-2", EmployeeID: "emp-1", WorkedMinutes: 480, FinalisedForPayroll: false},
	}
	f.timeoff.exceptions = []timeoff.TimeException{
		{ID: "ex-1", EmployeeID: "emp-1", Type: timeoff.ExceptionMissedPunch},
		{ID: "ex-2", EmployeeID: "emp-1", Type: timeoff.ExceptionLate, AttendanceRecordID: "att-1"},
		// tied to a non-finalised record, must not charge
		{ID: "ex-3", EmployeeID: "emp-1", Type: timeoff.ExceptionLate, AttendanceRecordID: "att-2"},
	}

	d, err := f.svc.Calculate(context.Background(), "emp-1", usdRun(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)), nil)
	require.NoError(t, err)

	// hourly rate 3000/240 = 12.50; 4h missed punch + 1h late = 62.50.
	assert.True(t, d.Penalties.Equal(decimal.NewFromFloat(62.50)), "penalties = %s", d.Penalties)
}

func TestCalculate_ShortDayChargesMissingHours(t *testing.T) {
	f := newCalcFixture()
	f.config.allowances = nil
	f.config.taxRules = nil
	f.timeoff.attendance = []timeoff.AttendanceRecord{
		// 3h worked, under half the 8h day: 5 missing hours charged.
		{ID: "att-1", EmployeeID: "emp-1", WorkedMinutes: 180, FinalisedForPayroll: true},
		// 5h worked, above half: no top-up.
		{ID: "att-2", EmployeeID: "emp-1", WorkedMinutes: 300, FinalisedForPayroll: true},
	}

	d, err := f.svc.Calculate(context.Background(), "emp-1", usdRun(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)), nil)
	require.NoError(t, err)

	// 12.50/h * 5h = 62.50.
	assert.True(t, d.Penalties.Equal(decimal.NewFromFloat(62.50)), "penalties = %s", d.Penalties)
}

func TestCalculate_PendingRefundsAdded(t *testing.T) {
	f := newCalcFixture()
	f.config.allowances = nil
	f.config.taxRules = nil
	f.refunds.pending = []refund.Refund{
		{ID: "rf-1", EmployeeID: "emp-1", Amount: decimal.NewFromFloat(150.25), Status: refund.StatusPending},
	}

	d, err := f.svc.Calculate(context.Background(), "emp-1", usdRun(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)), nil)
	require.NoError(t, err)

	assert.True(t, d.Refunds.Equal(decimal.NewFromFloat(150.25)))
	assert.True(t, d.NetPay.Equal(decimal.NewFromFloat(3150.25)))
	assert.Equal(t, []string{"rf-1"}, d.RefundIDs)
}

func TestCalculate_NetPayFlooredAtZero(t *testing.T) {
	f := newCalcFixture()
	f.config.allowances = nil
	f.config.taxRules = nil
	f.timeoff.leave = []timeoff.LeaveRequest{
		{ID: "lv-1", EmployeeID: "emp-1", Paid: false, DurationDays: 40, Status: timeoff.RequestApproved},
	}

	d, err := f.svc.Calculate(context.Background(), "emp-1", usdRun(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)), nil)
	require.NoError(t, err)

	assert.True(t, d.NetPay.IsZero(), "net pay = %s", d.NetPay)
	assert.True(t, f.flagger.has(detail.CodeNegativeNetPay))
}

func TestCalculate_MissingBankAccountFlagged(t *testing.T) {
	f := newCalcFixture()
	emp := f.workforce.employees["emp-1"]
	emp.BankAccountNumber = nil
	f.workforce.employees["emp-1"] = emp

	d, err := f.svc.Calculate(context.Background(), "emp-1", usdRun(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)), nil)
	require.NoError(t, err)

	assert.Equal(t, detail.BankMissing, d.BankStatus)
	assert.True(t, f.flagger.has(detail.CodeMissingBankAccount))
}

func TestCalculate_InsuranceBracketsByBase(t *testing.T) {
	f := newCalcFixture()
	f.config.allowances = nil
	f.config.taxRules = nil
	max := decimal.NewFromInt(2500)
	f.config.brackets = []configset.InsuranceBracket{
		{ID: "ins-1", MinSalary: decimal.Zero, MaxSalary: &max, EmployeeRate: decimal.NewFromInt(5), Status: configset.StatusApproved},
		{ID: "ins-2", MinSalary: decimal.NewFromInt(2500), MaxSalary: nil, EmployeeRate: decimal.NewFromInt(8), Status: configset.StatusApproved},
	}

	d, err := f.svc.Calculate(context.Background(), "emp-1", usdRun(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)), nil)
	require.NoError(t, err)

	// base 3000 is above 2500: only the open-ended 8% bracket applies.
	assert.True(t, d.Deductions.Equal(decimal.NewFromInt(240)), "statutory = %s", d.Deductions)
	assert.True(t, d.Breakdown.Insurance.Equal(decimal.NewFromInt(240)))
}

func TestCalculate_AllowanceCurrencyConverted(t *testing.T) {
	f := newCalcFixture()
	f.config.taxRules = nil
	f.config.allowances = []configset.Allowance{
		{ID: "al-1", Name: "Housing Allowance", Amount: decimal.NewFromInt(100), Currency: "EUR", Status: configset.StatusApproved},
	}

	d, err := f.svc.Calculate(context.Background(), "emp-1", usdRun(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)), nil)
	require.NoError(t, err)

	// 100 EUR at the reciprocal of USD->EUR 0.92: 108.70 USD.
	assert.True(t, d.Allowances.Equal(decimal.NewFromFloat(108.70)), "allowances = %s", d.Allowances)
}

func TestCalculate_UnknownEmployeeIsFatal(t *testing.T) {
	f := newCalcFixture()

	_, err := f.svc.Calculate(context.Background(), "ghost", usdRun(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, workforce.ErrEmployeeNotFound)
}
