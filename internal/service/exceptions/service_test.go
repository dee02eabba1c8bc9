package exceptions

import (
	"context"
	"testing"
	"time"

	"github.com/corepay/payroll-engine-go/internal/domain/detail"
	"github.com/corepay/payroll-engine-go/internal/domain/run"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDetailRepo struct {
	details map[string]*detail.Detail // keyed runID+"/"+employeeID
}

func newFakeDetailRepo() *fakeDetailRepo {
	return &fakeDetailRepo{details: make(map[string]*detail.Detail)}
}

func (f *fakeDetailRepo) key(runID, employeeID string) string { return runID + "/" + employeeID }

func (f *fakeDetailRepo) CreateSkeleton(_ context.Context, runID, employeeID, currency string) (detail.Detail, error) {
	d := &detail.Detail{
		ID:         uuid.NewString(),
		RunID:      runID,
		EmployeeID: employeeID,
		Currency:   currency,
	}
	f.details[f.key(runID, employeeID)] = d
	return *d, nil
}

func (f *fakeDetailRepo) SaveFigures(_ context.Context, d detail.Detail) (detail.Detail, error) {
	stored, ok := f.details[f.key(d.RunID, d.EmployeeID)]
	if !ok {
		return detail.Detail{}, detail.ErrDetailNotFound
	}
	msgs, hist := stored.Messages, stored.History
	d.ID = stored.ID
	*stored = d
	stored.Messages, stored.History = msgs, hist
	return *stored, nil
}

func (f *fakeDetailRepo) GetByRunAndEmployee(_ context.Context, runID, employeeID string) (detail.Detail, error) {
	d, ok := f.details[f.key(runID, employeeID)]
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

func (f *fakeDetailRepo) DeleteByRun(_ context.Context, runID string) error {
	for k, d := range f.details {
		if d.RunID == runID {
			delete(f.details, k)
		}
	}
	return nil
}

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

func (f *fakeDetailRepo) ResolveMessage(_ context.Context, detailID string, msg detail.ExceptionMessage, evt detail.ExceptionEvent) error {
	for _, d := range f.details {
		if d.ID != detailID {
			continue
		}
		for i := range d.Messages {
			if d.Messages[i].ID == msg.ID {
				d.Messages[i] = msg
				d.History = append(d.History, evt)
				return nil
			}
		}
	}
	return detail.ErrExceptionNotFound
}

type fakeRunRepo struct {
	runs map[string]*run.PayrollRun
}

func newFakeRunRepo() *fakeRunRepo {
	return &fakeRunRepo{runs: make(map[string]*run.PayrollRun)}
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

func (f *fakeRunRepo) GetByRunID(_ context.Context, runID string) (run.PayrollRun, error) {
	for _, r := range f.runs {
		if r.RunID == runID {
			return *r, nil
		}
	}
	return run.PayrollRun{}, run.ErrRunNotFound
}

func (f *fakeRunRepo) List(_ context.Context, _ run.RunFilter) ([]run.PayrollRun, int64, error) {
	var out []run.PayrollRun
	for _, r := range f.runs {
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRunRepo) FindActiveByPeriod(_ context.Context, entityName string, period time.Time) (run.PayrollRun, error) {
	for _, r := range f.runs {
		if r.EntityName == entityName && r.Period.Equal(run.TruncateToMonth(period)) && r.Status != run.StatusRejected {
			return *r, nil
		}
	}
	return run.PayrollRun{}, run.ErrRunNotFound
}

func (f *fakeRunRepo) NextSequence(_ context.Context, year int) (int, error) {
	seq := 1
	for _, r := range f.runs {
		if r.Period.Year() == year {
			seq++
		}
	}
	return seq, nil
}

func (f *fakeRunRepo) Update(_ context.Context, r run.PayrollRun) (run.PayrollRun, error) {
	stored, ok := f.runs[r.ID]
	if !ok {
		return run.PayrollRun{}, run.ErrRunNotFound
	}
	if stored.Version != r.Version {
		return run.PayrollRun{}, run.ErrRunConflict
	}
	r.Version++
	*stored = r
	return r, nil
}

func (f *fakeRunRepo) UpdateStatus(_ context.Context, r run.PayrollRun) (run.PayrollRun, error) {
	return f.Update(nil, r)
}

func (f *fakeRunRepo) AdjustExceptionCount(_ context.Context, id string, delta int) error {
	stored, ok := f.runs[id]
	if !ok {
		return run.ErrRunNotFound
	}
	stored.ExceptionCount += delta
	return nil
}

func (f *fakeRunRepo) SetTotals(_ context.Context, id string, employees, exceptions int, totalNetPay decimal.Decimal) error {
	stored, ok := f.runs[id]
	if !ok {
		return run.ErrRunNotFound
	}
	stored.EmployeeCount = employees
	stored.ExceptionCount = exceptions
	stored.TotalNetPay = totalNetPay
	return nil
}

func seedRunWithDetail(t *testing.T, runs *fakeRunRepo, details *fakeDetailRepo) (run.PayrollRun, detail.Detail) {
	t.Helper()
	r, err := runs.Create(context.Background(), run.PayrollRun{
		RunID:    "PR-2025-0001",
		Status:   run.StatusDraft,
		Currency: "USD",
	})
	require.NoError(t, err)
	d, err := details.CreateSkeleton(context.Background(), r.ID, "emp-1", "USD")
	require.NoError(t, err)
	return r, d
}

func TestFlag_AppendsMessageAndIncrementsCounter(t *testing.T) {
	runs, details := newFakeRunRepo(), newFakeDetailRepo()
	svc := NewExceptionService(details, runs)
	r, _ := seedRunWithDetail(t, runs, details)

	empID := "emp-1"
	err := svc.Flag(context.Background(), r.ID, detail.CodeMissingBankAccount, "no account on file", &empID)
	require.NoError(t, err)

	d, err := details.GetByRunAndEmployee(context.Background(), r.ID, empID)
	require.NoError(t, err)
	require.Len(t, d.Messages, 1)
	assert.Equal(t, detail.CodeMissingBankAccount, d.Messages[0].Code)
	assert.Equal(t, detail.MessageActive, d.Messages[0].Status)
	require.Len(t, d.History, 1)
	assert.Equal(t, detail.ActionFlagged, d.History[0].Action)

	updated, _ := runs.GetByID(context.Background(), r.ID)
	assert.Equal(t, 1, updated.ExceptionCount)
}

func TestFlag_RunLevelOnlyMovesCounter(t *testing.T) {
	runs, details := newFakeRunRepo(), newFakeDetailRepo()
	svc := NewExceptionService(details, runs)
	r, _ := seedRunWithDetail(t, runs, details)

	err := svc.Flag(context.Background(), r.ID, detail.CodeNotifyFailed, "smtp unreachable", nil)
	require.NoError(t, err)

	d, _ := details.GetByRunAndEmployee(context.Background(), r.ID, "emp-1")
	assert.Empty(t, d.Messages)
	updated, _ := runs.GetByID(context.Background(), r.ID)
	assert.Equal(t, 1, updated.ExceptionCount)
}

func TestFlag_MissingDetailStillMovesCounter(t *testing.T) {
	runs, details := newFakeRunRepo(), newFakeDetailRepo()
	svc := NewExceptionService(details, runs)
	r, _ := seedRunWithDetail(t, runs, details)

	empID := "emp-unknown"
	err := svc.Flag(context.Background(), r.ID, detail.CodeCalcError, "calculation aborted", &empID)
	require.NoError(t, err)

	updated, _ := runs.GetByID(context.Background(), r.ID)
	assert.Equal(t, 1, updated.ExceptionCount)
}

func TestCounter_FlagAcrossEmployeesResolveAllReturnsToZero(t *testing.T) {
	runs, details := newFakeRunRepo(), newFakeDetailRepo()
	svc := NewExceptionService(details, runs)
	r, _ := seedRunWithDetail(t, runs, details)
	_, err := details.CreateSkeleton(context.Background(), r.ID, "emp-2", "USD")
	require.NoError(t, err)

	flags := []struct {
		employee string
		code     detail.Code
	}{
		{"emp-1", detail.CodeMissingBankAccount},
		{"emp-1", detail.CodeSalarySpike},
		{"emp-2", detail.CodeMissingPayGrade},
	}
	for _, fl := range flags {
		empID := fl.employee
		require.NoError(t, svc.Flag(context.Background(), r.ID, fl.code, "flagged", &empID))
	}

	mid, _ := runs.GetByID(context.Background(), r.ID)
	assert.Equal(t, 3, mid.ExceptionCount)

	for _, empID := range []string{"emp-1", "emp-2"} {
		d, err := details.GetByRunAndEmployee(context.Background(), r.ID, empID)
		require.NoError(t, err)
		for _, m := range d.ActiveMessages() {
			require.NoError(t, svc.Resolve(context.Background(), r.ID, empID, m.ID, "mgr-1", "verified"))
		}
	}

	final, _ := runs.GetByID(context.Background(), r.ID)
	assert.Equal(t, 0, final.ExceptionCount)
}

func TestResolve_MarksResolvedAndDecrementsCounter(t *testing.T) {
	runs, details := newFakeRunRepo(), newFakeDetailRepo()
	svc := NewExceptionService(details, runs)
	r, _ := seedRunWithDetail(t, runs, details)

	empID := "emp-1"
	require.NoError(t, svc.Flag(context.Background(), r.ID, detail.CodeSalarySpike, "override 4x grade base", &empID))
	d, _ := details.GetByRunAndEmployee(context.Background(), r.ID, empID)
	msgID := d.Messages[0].ID

	err := svc.Resolve(context.Background(), r.ID, empID, msgID, "specialist-1", "override confirmed with manager")
	require.NoError(t, err)

	d, _ = details.GetByRunAndEmployee(context.Background(), r.ID, empID)
	require.Len(t, d.Messages, 1)
	assert.Equal(t, detail.MessageResolved, d.Messages[0].Status)
	require.NotNil(t, d.Messages[0].ResolvedBy)
	assert.Equal(t, "specialist-1", *d.Messages[0].ResolvedBy)
	require.NotNil(t, d.Messages[0].Resolution)

	// history keeps both the flag and the resolution, in order.
	require.Len(t, d.History, 2)
	assert.Equal(t, detail.ActionFlagged, d.History[0].Action)
	assert.Equal(t, detail.ActionResolved, d.History[1].Action)

	updated, _ := runs.GetByID(context.Background(), r.ID)
	assert.Equal(t, 0, updated.ExceptionCount)
}

func TestResolve_AlreadyResolvedMessage(t *testing.T) {
	runs, details := newFakeRunRepo(), newFakeDetailRepo()
	svc := NewExceptionService(details, runs)
	r, _ := seedRunWithDetail(t, runs, details)

	empID := "emp-1"
	require.NoError(t, svc.Flag(context.Background(), r.ID, detail.CodeSalarySpike, "spike", &empID))
	d, _ := details.GetByRunAndEmployee(context.Background(), r.ID, empID)
	msgID := d.Messages[0].ID

	require.NoError(t, svc.Resolve(context.Background(), r.ID, empID, msgID, "specialist-1", "ok"))
	err := svc.Resolve(context.Background(), r.ID, empID, msgID, "specialist-1", "again")
	assert.ErrorIs(t, err, detail.ErrExceptionNotFound)
}

func TestResolve_UnknownMessage(t *testing.T) {
	runs, details := newFakeRunRepo(), newFakeDetailRepo()
	svc := NewExceptionService(details, runs)
	r, _ := seedRunWithDetail(t, runs, details)

	err := svc.Resolve(context.Background(), r.ID, "emp-1", "missing-id", "specialist-1", "n/a")
	assert.ErrorIs(t, err, detail.ErrExceptionNotFound)
}

func TestListForRun_OnlyDetailsWithActiveMessages(t *testing.T) {
	runs, details := newFakeRunRepo(), newFakeDetailRepo()
	svc := NewExceptionService(details, runs)
	r, _ := seedRunWithDetail(t, runs, details)
	_, err := details.CreateSkeleton(context.Background(), r.ID, "emp-2", "USD")
	require.NoError(t, err)

	empID := "emp-2"
	require.NoError(t, svc.Flag(context.Background(), r.ID, detail.CodeMissingPayGrade, "no grade", &empID))

	flagged, err := svc.ListForRun(context.Background(), r.ID)
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, "emp-2", flagged[0].EmployeeID)
}
