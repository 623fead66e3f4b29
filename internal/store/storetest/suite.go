// Package storetest holds the behavioural suite every store.Store
// implementation must pass.
package storetest

import (
	"context"
	"sync"
	"testing"

	"chitieu/internal/core"
	"chitieu/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// Suite runs against a fresh, empty store per test.
type Suite struct {
	suite.Suite

	// Open returns an empty store. Implementations register their own cleanup on t.
	Open func(t *testing.T) store.Store

	store store.Store
	ctx   context.Context
}

func (s *Suite) SetupTest() {
	require.NotNil(s.T(), s.Open, "Open must be set")
	s.ctx = context.Background()
	s.store = s.Open(s.T())
}

func (s *Suite) create(title, amount string, kind core.Kind) core.Expense {
	e, err := s.store.Create(s.ctx, core.NewExpense{Title: title, Amount: core.MustMoney(amount), Type: kind})
	require.NoError(s.T(), err, "create %s", title)
	return e
}

func (s *Suite) TestEmptyList() {
	items, err := s.store.List(s.ctx)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), items)
}

func (s *Suite) TestCreateAssignsDefaults() {
	e := s.create("  Lunch ", "45000", core.KindExpense)

	assert.Positive(s.T(), e.ID)
	assert.Equal(s.T(), "Lunch", e.Title)
	assert.Equal(s.T(), "45000.00", e.Amount.String())
	assert.Equal(s.T(), core.KindExpense, e.Type)
	assert.False(s.T(), e.IsPaid)
	assert.False(s.T(), e.CreatedAt.IsZero())

	got, err := s.store.Get(s.ctx, e.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), e.ID, got.ID)
	assert.True(s.T(), e.Amount.Equal(got.Amount))
}

func (s *Suite) TestCreateKeepsFractions() {
	e := s.create("Coffee", "12.35", core.KindExpense)
	got, err := s.store.Get(s.ctx, e.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "12.35", got.Amount.String())
}

func (s *Suite) TestCreateRejectsInvalidDraft() {
	_, err := s.store.Create(s.ctx, core.NewExpense{Title: " ", Amount: core.MustMoney("1"), Type: core.KindExpense})
	var ve *core.ValidationError
	require.ErrorAs(s.T(), err, &ve)
	assert.Equal(s.T(), "title", ve.Field)

	_, err = s.store.Create(s.ctx, core.NewExpense{Title: "x", Amount: core.MustMoney("-5"), Type: core.KindExpense})
	require.ErrorAs(s.T(), err, &ve)
	assert.Equal(s.T(), "amount", ve.Field)

	items, err := s.store.List(s.ctx)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), items, "rejected drafts must not be stored")
}

func (s *Suite) TestListNewestFirst() {
	first := s.create("A", "1", core.KindExpense)
	second := s.create("B", "2", core.KindIncome)
	third := s.create("C", "3", core.KindExpense)

	items, err := s.store.List(s.ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), items, 3)
	assert.Equal(s.T(), []int64{third.ID, second.ID, first.ID}, []int64{items[0].ID, items[1].ID, items[2].ID})
}

func (s *Suite) TestToggleTwiceRestoresFlag() {
	e := s.create("Rent", "5000000", core.KindExpense)

	once, err := s.store.TogglePaid(s.ctx, e.ID)
	require.NoError(s.T(), err)
	assert.True(s.T(), once.IsPaid)
	assert.False(s.T(), once.UpdatedAt.Before(e.UpdatedAt))

	twice, err := s.store.TogglePaid(s.ctx, e.ID)
	require.NoError(s.T(), err)
	assert.False(s.T(), twice.IsPaid)
	assert.Equal(s.T(), e.Type, twice.Type)
	assert.Equal(s.T(), e.Title, twice.Title)
}

func (s *Suite) TestToggleUnknownID() {
	_, err := s.store.TogglePaid(s.ctx, 999)
	assert.ErrorIs(s.T(), err, store.ErrNotFound)
}

func (s *Suite) TestDeleteRemovesRecord() {
	keep := s.create("Keep", "1", core.KindExpense)
	gone := s.create("Gone", "2", core.KindExpense)

	require.NoError(s.T(), s.store.Delete(s.ctx, gone.ID))

	items, err := s.store.List(s.ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), items, 1)
	assert.Equal(s.T(), keep.ID, items[0].ID)

	_, err = s.store.Get(s.ctx, gone.ID)
	assert.ErrorIs(s.T(), err, store.ErrNotFound)
}

func (s *Suite) TestDoubleDeleteIsNotFound() {
	e := s.create("Once", "1", core.KindIncome)
	require.NoError(s.T(), s.store.Delete(s.ctx, e.ID))
	assert.ErrorIs(s.T(), s.store.Delete(s.ctx, e.ID), store.ErrNotFound)
}

func (s *Suite) TestIDsNotReusedAfterDelete() {
	e := s.create("First", "1", core.KindExpense)
	require.NoError(s.T(), s.store.Delete(s.ctx, e.ID))
	next := s.create("Second", "1", core.KindExpense)
	assert.Greater(s.T(), next.ID, e.ID)
}

func (s *Suite) TestConcurrentToggles() {
	e := s.create("Shared", "10", core.KindExpense)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.TogglePaid(s.ctx, e.ID)
			assert.NoError(s.T(), err)
		}()
	}
	wg.Wait()

	got, err := s.store.Get(s.ctx, e.ID)
	require.NoError(s.T(), err)
	assert.False(s.T(), got.IsPaid, "an even number of toggles leaves the flag unchanged")
}

func (s *Suite) TestPing() {
	assert.NoError(s.T(), s.store.Ping(s.ctx))
}
