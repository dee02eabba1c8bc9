package payslip

import (
	"context"
	"testing"
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
	"github.com/corepay/payroll-engine-go/internal/service/exceptions"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunRepo struct {
	runs map[string]*run.PayrollRun
}

func (f *fakeRunRepo) Create(_ context.Context, r run.PayrollRun) (run.PayrollRun, error) {
	r.ID = uuid.NewString()
	r.Version = 1
	f.runs[r.ID] = &r
	return r, nil
}

func (f *fakeRunRepo) GetByID(_ context.Context, id string) (run.PayrollRun, error) {
	r, ok := f.runs[id]
	if !ok {
		return run.PayrollRun{}, run.ErrRunNotFound
	}
	return *r, nil
}

func (f *fakeRunRepo) GetByRunID(_ context.Context, _ string) (run.PayrollRun, error) {
	return run.PayrollRun{}, run.ErrRunNotFound
}

func (f *fakeRunRepo) List(_ context.Context, _ run.RunFilter) ([]run.PayrollRun, int64, error) {
	return nil, 0, nil
}

func (f *fakeRunRepo) FindActiveByPeriod(_ context.Context, _ string, _ time.Time) (run.PayrollRun, error) {
	return run.PayrollRun{}, run.ErrRunNotFound
}

func (f *fakeRunRepo) NextSequence(_ context.Context, _ int) (int, error) { return 1, nil }

func (f *fakeRunRepo) Update(_ context.Context, r run.PayrollRun) (run.PayrollRun, error) {
	*f.runs[r.ID] = r
	return r, nil
}

func (f *fakeRunRepo) UpdateStatus(_ context.Context, r run.PayrollRun) (run.PayrollRun, error) {
	*f.runs[r.ID] = r
	return r, nil
}

func (f *fakeRunRepo) AdjustExceptionCount(_ context.Context, id string, delta int) error {
	f.runs[id].ExceptionCount += delta
	return nil
}

func (f *fakeRunRepo) SetTotals(_ context.Context, id string, employees, exceptions int, totalNetPay decimal.Decimal) error {
	r := f.runs[id]
	r.EmployeeCount, r.ExceptionCount, r.TotalNetPay = employees, exceptions, totalNetPay
	return nil
}

type fakeDetailRepo struct {
	details map[string]*detail.Detail
}

func (f *fakeDetailRepo) CreateSkeleton(_ context.Context, runID, employeeID, currency string) (detail.Detail, error) {
	d := &detail.Detail{ID: uuid.NewString(), RunID: runID, EmployeeID: employeeID, Currency: currency}
	f.details[runID+"/"+employeeID] = d
	return *d, nil
}

func (f *fakeDetailRepo) SaveFigures(_ context.Context, d detail.Detail) (detail.Detail, error) {
	stored := f.details[d.RunID+"/"+d.EmployeeID]
	d.ID = stored.ID
	*stored = d
	return d, nil
}

func (f *fakeDetailRepo) GetByRunAndEmployee(_ context.Context, runID, employeeID string) (detail.Detail, error) {
	d, ok := f.details[runID+"/"+employeeID]
	if !ok {
		return detail.Detail{}, detail.ErrDetailNotFound
	}
	return *d, nil
}

func (f *fakeDetailRepo) ListByRun(_ context.Context, runID string) ([]detail.Detail, error) {
	var out []detail.Detail
	for _, d := range f.details {
		if d.RunID == runID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDetailRepo) DeleteByRun(_ context.Context, _ string) error { return nil }

func (f *fakeDetailRepo) AppendException(_ context.Context, detailID string, msg detail.ExceptionMessage, evt detail.ExceptionEvent) error {
	for _, d := range f.details {
		if d.ID == detailID {
			d.Messages = append(d.Messages, msg)
			d.History = append(d.History, evt)
			return nil
		}
	}
	return detail.ErrDetailNotFound
}

func (f *fakeDetailRepo) ResolveMessage(_ context.Context, _ string, _ detail.ExceptionMessage, _ detail.ExceptionEvent) error {
	return detail.ErrExceptionNotFound
}

type fakePayslipRepo struct {
	slips map[string]*payslip.Payslip
}

func (f *fakePayslipRepo) Create(_ context.Context, p payslip.Payslip) (payslip.Payslip, error) {
	p.ID = uuid.NewString()
	f.slips[p.RunID+"/"+p.EmployeeID] = &p
	return p, nil
}

func (f *fakePayslipRepo) GetByRunAndEmployee(_ context.Context, runID, employeeID string) (payslip.Payslip, error) {
	p, ok := f.slips[runID+"/"+employeeID]
	if !ok {
		return payslip.Payslip{}, payslip.ErrPayslipNotFound
	}
	return *p, nil
}

func (f *fakePayslipRepo) ListByRun(_ context.Context, runID string) ([]payslip.Payslip, error) {
	var out []payslip.Payslip
	for _, p := range f.slips {
		if p.RunID == runID {
			out = append(out, *p)
		}
	}
	return out, nil
}

type fakeConfig struct {
	allowances []configset.Allowance
	taxRules   []configset.TaxRule
	brackets   []configset.InsuranceBracket
}

func (f *fakeConfig) PayGrade(_ context.Context, _ string) (configset.PayGrade, error) {
	return configset.PayGrade{}, configset.ErrPayGradeNotFound
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

type fakeWorkforce struct {
	employees map[string]workforce.Employee
}

func (f *fakeWorkforce) FindOne(_ context.Context, id string) (workforce.Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return workforce.Employee{}, workforce.ErrEmployeeNotFound
	}
	return e, nil
}

func (f *fakeWorkforce) FindAllActive(_ context.Context) ([]workforce.Employee, error) {
	var out []workforce.Employee
	for _, e := range f.employees {
		out = append(out, e)
	}
	return out, nil
}

type fakeAwardRepo struct {
	bonuses  []award.SigningBonus
	benefits []award.TerminationBenefit
}

func (f *fakeAwardRepo) CreateBonusIfAbsent(_ context.Context, _ award.SigningBonus) (bool, error) {
	return false, nil
}

func (f *fakeAwardRepo) CreateBenefitIfAbsent(_ context.Context, _ award.TerminationBenefit) (bool, error) {
	return false, nil
}

func (f *fakeAwardRepo) ListPending(_ context.Context) ([]award.PendingItem, error) { return nil, nil }

func (f *fakeAwardRepo) ApprovedBonusesFor(_ context.Context, employeeID string) ([]award.SigningBonus, error) {
	var out []award.SigningBonus
	for _, b := range f.bonuses {
		if b.EmployeeID == employeeID && b.Status == award.StatusApproved {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeAwardRepo) ApprovedBenefitsFor(_ context.Context, employeeID string) ([]award.TerminationBenefit, error) {
	var out []award.TerminationBenefit
	for _, b := range f.benefits {
		if b.EmployeeID == employeeID && b.Status == award.StatusApproved {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeAwardRepo) Decide(_ context.Context, _ award.Kind, _ string, _ award.Status, _ string) error {
	return nil
}

type fakeRefundTracker struct {
	refunds map[string]*refund.Refund
}

func (f *fakeRefundTracker) PendingByEmployee(_ context.Context, employeeID string) ([]refund.Refund, error) {
	var out []refund.Refund
	for _, r := range f.refunds {
		if r.EmployeeID == employeeID && r.Status == refund.StatusPending {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRefundTracker) MarkProcessed(_ context.Context, refundID, runID string) error {
	r, ok := f.refunds[refundID]
	if !ok {
		return refund.ErrRefundNotFound
	}
	r.Status = refund.StatusProcessed
	r.PaidInRunID = &runID
	return nil
}

type fakeNotifier struct {
	sent []string
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, _ notification.Kind, recipient, _ string, _ map[string]string) error {
	f.sent = append(f.sent, recipient)
	return f.err
}

type slipFixture struct {
	runs     *fakeRunRepo
	details  *fakeDetailRepo
	slips    *fakePayslipRepo
	config   *fakeConfig
	wf       *fakeWorkforce
	awards   *fakeAwardRepo
	refunds  *fakeRefundTracker
	notifier *fakeNotifier
	svc      Service
	run      run.PayrollRun
}

func newSlipFixture(t *testing.T) *slipFixture {
	t.Helper()
	f := &slipFixture{
		runs:    &fakeRunRepo{runs: make(map[string]*run.PayrollRun)},
		details: &fakeDetailRepo{details: make(map[string]*detail.Detail)},
		slips:   &fakePayslipRepo{slips: make(map[string]*payslip.Payslip)},
		config: &fakeConfig{
			allowances: []configset.Allowance{
				{ID: "al-1", Name: "Housing Allowance", Amount: decimal.NewFromInt(200), Currency: "USD", Status: configset.StatusApproved},
			},
			taxRules: []configset.TaxRule{
				{ID: "tax-1", Name: "Income Tax", Rate: decimal.NewFromInt(10), Status: configset.StatusApproved},
			},
		},
		wf: &fakeWorkforce{employees: map[string]workforce.Employee{
			"emp-1": {ID: "emp-1", FullName: "Jane Roe", Email: "jane@acme.example"},
		}},
		awards:   &fakeAwardRepo{},
		refunds:  &fakeRefundTracker{refunds: make(map[string]*refund.Refund)},
		notifier: &fakeNotifier{},
	}
	ledger := exceptions.NewExceptionService(f.details, f.runs)
	f.svc = NewPayslipService(
		f.runs, f.details, f.slips, f.config, f.wf, f.awards, f.refunds,
		calculator.NewKeywordPolicy(), currency.NewConverter(currency.NewStaticRates()),
		ledger, f.notifier,
	)

	locked := time.Now()
	r, err := f.runs.Create(context.Background(), run.PayrollRun{
		RunID:         "PR-2025-0001",
		Period:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Status:        run.StatusLocked,
		PaymentStatus: run.PaymentPaid,
		Currency:      "USD",
		LockedAt:      &locked,
	})
	require.NoError(t, err)
	f.run = r

	_, err = f.details.CreateSkeleton(context.Background(), r.ID, "emp-1", "USD")
	require.NoError(t, err)
	_, err = f.details.SaveFigures(context.Background(), detail.Detail{
		RunID:      r.ID,
		EmployeeID: "emp-1",
		BaseSalary: decimal.NewFromInt(3000),
		Allowances: decimal.NewFromInt(200),
		Deductions: decimal.NewFromInt(300),
		NetSalary:  decimal.NewFromInt(2900),
		NetPay:     decimal.NewFromInt(2900),
		BankStatus: detail.BankValid,
		Currency:   "USD",
	})
	require.NoError(t, err)
	return f
}

func TestGenerateForRun_SnapshotsLineItems(t *testing.T) {
	f := newSlipFixture(t)

	slips, err := f.svc.GenerateForRun(context.Background(), f.run.ID)
	require.NoError(t, err)
	require.Len(t, slips, 1)

	p := slips[0]
	assert.True(t, p.Earnings.BaseSalary.Equal(decimal.NewFromInt(3000)))
	require.Len(t, p.Earnings.Allowances, 1)
	assert.Equal(t, "Housing Allowance", p.Earnings.Allowances[0].Label)
	require.Len(t, p.Deductions.Taxes, 1)
	assert.Equal(t, "Income Tax", p.Deductions.Taxes[0].Label)
	assert.True(t, p.Deductions.Taxes[0].Amount.Equal(decimal.NewFromInt(300)))
	assert.True(t, p.TotalGross.Equal(decimal.NewFromInt(3200)))
	assert.True(t, p.TotalDeductions.Equal(decimal.NewFromInt(300)))
	assert.True(t, p.NetPay.Equal(decimal.NewFromInt(2900)))
	assert.Equal(t, []string{"jane@acme.example"}, f.notifier.sent)
}

func TestGenerateForRun_RequiresLockedAndPaid(t *testing.T) {
	f := newSlipFixture(t)

	stored := f.runs.runs[f.run.ID]
	stored.Status = run.StatusApproved
	_, err := f.svc.GenerateForRun(context.Background(), f.run.ID)
	assert.ErrorIs(t, err, run.ErrRunNotPayable)

	stored.Status = run.StatusLocked
	stored.PaymentStatus = run.PaymentPending
	_, err = f.svc.GenerateForRun(context.Background(), f.run.ID)
	assert.ErrorIs(t, err, run.ErrRunNotPayable)
}

func TestGenerateForRun_Idempotent(t *testing.T) {
	f := newSlipFixture(t)

	first, err := f.svc.GenerateForRun(context.Background(), f.run.ID)
	require.NoError(t, err)
	second, err := f.svc.GenerateForRun(context.Background(), f.run.ID)
	require.NoError(t, err)

	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[0].GeneratedAt, second[0].GeneratedAt)
	// only the first generation notifies.
	assert.Len(t, f.notifier.sent, 1)
}

func TestGenerateForRun_MarksRefundsProcessed(t *testing.T) {
	f := newSlipFixture(t)
	f.refunds.refunds["rf-1"] = &refund.Refund{
		ID: "rf-1", EmployeeID: "emp-1",
		Amount: decimal.NewFromFloat(150.25), Status: refund.StatusPending,
	}
	d, _ := f.details.GetByRunAndEmployee(context.Background(), f.run.ID, "emp-1")
	d.Refunds = decimal.NewFromFloat(150.25)
	d.RefundIDs = []string{"rf-1"}
	d.NetPay = decimal.NewFromFloat(3050.25)
	_, err := f.details.SaveFigures(context.Background(), d)
	require.NoError(t, err)

	slips, err := f.svc.GenerateForRun(context.Background(), f.run.ID)
	require.NoError(t, err)

	require.Len(t, slips[0].Earnings.Refunds, 1)
	processed := f.refunds.refunds["rf-1"]
	assert.Equal(t, refund.StatusProcessed, processed.Status)
	require.NotNil(t, processed.PaidInRunID)
	assert.Equal(t, f.run.ID, *processed.PaidInRunID)
}

func TestGenerateForRun_LateRefundStaysPending(t *testing.T) {
	f := newSlipFixture(t)
	f.refunds.refunds["rf-1"] = &refund.Refund{
		ID: "rf-1", EmployeeID: "emp-1",
		Amount: decimal.NewFromFloat(150.25), Status: refund.StatusPending,
	}
	// Turned pending after draft calculation, so the detail never credited it.
	f.refunds.refunds["rf-2"] = &refund.Refund{
		ID: "rf-2", EmployeeID: "emp-1",
		Amount: decimal.NewFromInt(75), Status: refund.StatusPending,
	}
	d, _ := f.details.GetByRunAndEmployee(context.Background(), f.run.ID, "emp-1")
	d.Refunds = decimal.NewFromFloat(150.25)
	d.RefundIDs = []string{"rf-1"}
	d.NetPay = decimal.NewFromFloat(3050.25)
	_, err := f.details.SaveFigures(context.Background(), d)
	require.NoError(t, err)

	slips, err := f.svc.GenerateForRun(context.Background(), f.run.ID)
	require.NoError(t, err)

	require.Len(t, slips[0].Earnings.Refunds, 1)
	assert.True(t, slips[0].Earnings.Refunds[0].Amount.Equal(decimal.NewFromFloat(150.25)))

	late := f.refunds.refunds["rf-2"]
	assert.Equal(t, refund.StatusPending, late.Status)
	assert.Nil(t, late.PaidInRunID)
}

func TestGenerateForRun_ApprovedAwardsListed(t *testing.T) {
	f := newSlipFixture(t)
	f.awards.bonuses = []award.SigningBonus{
		{ID: "b-1", EmployeeID: "emp-1", Amount: decimal.NewFromInt(500), Status: award.StatusApproved},
	}

	slips, err := f.svc.GenerateForRun(context.Background(), f.run.ID)
	require.NoError(t, err)

	require.Len(t, slips[0].Earnings.Bonuses, 1)
	assert.Equal(t, "Signing Bonus", slips[0].Earnings.Bonuses[0].Label)
	assert.True(t, slips[0].TotalGross.Equal(decimal.NewFromInt(3700)))
}

func TestGenerateForRun_NotifyFailureFlagsRun(t *testing.T) {
	f := newSlipFixture(t)
	f.notifier.err = assert.AnError

	_, err := f.svc.GenerateForRun(context.Background(), f.run.ID)
	require.NoError(t, err)

	d, err := f.details.GetByRunAndEmployee(context.Background(), f.run.ID, "emp-1")
	require.NoError(t, err)
	require.Len(t, d.Messages, 1)
	assert.Equal(t, detail.CodeNotifyFailed, d.Messages[0].Code)
}
