package client_test

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chitieu/internal/client"
	"chitieu/internal/core"
	apihttp "chitieu/internal/http"
	"chitieu/internal/log"
	"chitieu/internal/services"
	"chitieu/internal/store/memory"
)

func newAPI(t *testing.T) *client.Client {
	t.Helper()
	svc := services.NewExpenseService(memory.New())
	srv := apihttp.NewServer(":0", svc, apihttp.Options{
		RateLimitPerMinute: 1000,
		Logger:             log.New(log.Config{Component: "test", Output: io.Discard}),
	})
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return client.New(ts.URL)
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	api := newAPI(t)
	l := client.NewLedger(api)

	require.NoError(t, api.Ping(ctx))
	require.NoError(t, l.Refresh(ctx))
	assert.Empty(t, l.Expenses())

	lunch, err := l.Add(ctx, "Lunch", "45000", core.KindExpense)
	require.NoError(t, err)
	_, err = l.Add(ctx, "Salary", "10000000", core.KindIncome)
	require.NoError(t, err)

	_, err = l.Toggle(ctx, lunch.ID)
	require.NoError(t, err)

	totals := l.Totals()
	assert.Equal(t, "45000.00", totals.Chi.String())
	assert.Equal(t, "10000000.00", totals.Thu.String())
	assert.Equal(t, "9955000.00", totals.Balance.String())

	server, err := api.Summary(ctx)
	require.NoError(t, err)
	assert.True(t, server.Balance.Equal(totals.Balance), "server and client totals agree")

	require.NoError(t, l.Delete(ctx, lunch.ID, func() bool { return true }))
	assert.Len(t, l.Expenses(), 1)

	err = api.Delete(ctx, lunch.ID)
	var nf *client.NotFoundError
	require.ErrorAs(t, err, &nf, "second delete of the same id")
	assert.Equal(t, lunch.ID, nf.ID)
}

func TestEndToEndServerValidation(t *testing.T) {
	api := newAPI(t)

	// bypasses the Ledger's local checks to reach the API
	_, err := api.Create(context.Background(), core.NewExpense{Title: "", Amount: core.MustMoney("1"), Type: core.KindExpense})
	var ve *client.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "title", ve.Field)
	assert.Equal(t, 422, ve.StatusCode)

	salary, err := api.Create(context.Background(), core.NewExpense{Title: "Salary", Amount: core.MustMoney("5"), Type: core.KindIncome})
	require.NoError(t, err)
	_, err = api.TogglePaid(context.Background(), salary.ID)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "type", ve.Field)
}
