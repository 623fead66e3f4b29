package client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chitieu/internal/core"
	"chitieu/internal/store/memory"
)

// fakeAPI serves from a memory store and can be switched to fail.
type fakeAPI struct {
	st    *memory.Store
	fail  error
	calls int
}

func newFakeAPI() *fakeAPI { return &fakeAPI{st: memory.New()} }

func (f *fakeAPI) List(ctx context.Context) ([]core.Expense, error) {
	f.calls++
	if f.fail != nil {
		return nil, f.fail
	}
	return f.st.List(ctx)
}

func (f *fakeAPI) Create(ctx context.Context, n core.NewExpense) (core.Expense, error) {
	f.calls++
	if f.fail != nil {
		return core.Expense{}, f.fail
	}
	return f.st.Create(ctx, n)
}

func (f *fakeAPI) TogglePaid(ctx context.Context, id int64) (core.Expense, error) {
	f.calls++
	if f.fail != nil {
		return core.Expense{}, f.fail
	}
	return f.st.TogglePaid(ctx, id)
}

func (f *fakeAPI) Delete(ctx context.Context, id int64) error {
	f.calls++
	if f.fail != nil {
		return f.fail
	}
	return f.st.Delete(ctx, id)
}

func TestLedgerAddRefreshesTotals(t *testing.T) {
	api := newFakeAPI()
	l := NewLedger(api)
	ctx := context.Background()

	rent, err := l.Add(ctx, "  Rent ", "100", core.KindExpense)
	require.NoError(t, err)
	assert.Equal(t, "Rent", rent.Title)
	_, err = l.Add(ctx, "Salary", "300", core.KindIncome)
	require.NoError(t, err)

	assert.Len(t, l.Expenses(), 2)
	totals := l.Totals()
	assert.Equal(t, "0.00", totals.Chi.String(), "unpaid chi is not counted")
	assert.Equal(t, "300.00", totals.Thu.String())

	_, err = l.Toggle(ctx, rent.ID)
	require.NoError(t, err)
	totals = l.Totals()
	assert.Equal(t, "100.00", totals.Chi.String())
	assert.Equal(t, "200.00", totals.Balance.String())
}

func TestLedgerClientSideValidationSendsNothing(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		amount    string
		kind      core.Kind
		wantField string
	}{
		{"blank title", "   ", "10", core.KindExpense, "title"},
		{"zero amount", "Coffee", "0", core.KindExpense, "amount"},
		{"negative amount", "Coffee", "-3", core.KindExpense, "amount"},
		{"not a number", "Coffee", "ten", core.KindExpense, "amount"},
		{"unknown type", "Coffee", "10", core.Kind("other"), "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			_, err := NewLedger(api).Add(context.Background(), tt.title, tt.amount, tt.kind)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
			assert.Zero(t, ve.StatusCode)
			assert.Zero(t, api.calls, "no request on a local validation failure")
		})
	}
}

func TestLedgerToggleRefusesIncomeLocally(t *testing.T) {
	api := newFakeAPI()
	l := NewLedger(api)
	ctx := context.Background()

	salary, err := l.Add(ctx, "Salary", "300", core.KindIncome)
	require.NoError(t, err)
	before := api.calls

	_, err = l.Toggle(ctx, salary.ID)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "type", ve.Field)
	assert.Equal(t, before, api.calls)

	_, err = l.Toggle(ctx, 999)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestLedgerFailureKeepsPriorState(t *testing.T) {
	api := newFakeAPI()
	l := NewLedger(api)
	ctx := context.Background()

	lunch, err := l.Add(ctx, "Lunch", "45000", core.KindExpense)
	require.NoError(t, err)
	before := l.Expenses()
	beforeTotals := l.Totals()

	api.fail = &TransportError{Op: "test", Err: errors.New("connection refused")}

	_, err = l.Add(ctx, "Dinner", "60000", core.KindExpense)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	_, err = l.Toggle(ctx, lunch.ID)
	require.ErrorAs(t, err, &te)
	require.ErrorAs(t, l.Delete(ctx, lunch.ID, func() bool { return true }), &te)
	require.ErrorAs(t, l.Refresh(ctx), &te)

	assert.Equal(t, before, l.Expenses())
	assert.Equal(t, beforeTotals, l.Totals())
}

func TestLedgerDeleteNeedsConfirmation(t *testing.T) {
	api := newFakeAPI()
	l := NewLedger(api)
	ctx := context.Background()

	e, err := l.Add(ctx, "Lunch", "45000", core.KindExpense)
	require.NoError(t, err)
	calls := api.calls

	assert.ErrorIs(t, l.Delete(ctx, e.ID, func() bool { return false }), ErrNotConfirmed)
	assert.ErrorIs(t, l.Delete(ctx, e.ID, nil), ErrNotConfirmed)
	assert.Equal(t, calls, api.calls)
	assert.Len(t, l.Expenses(), 1)

	require.NoError(t, l.Delete(ctx, e.ID, func() bool { return true }))
	assert.Empty(t, l.Expenses())
}
