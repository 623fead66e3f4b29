package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chitieu/internal/core"
)

func stubServer(t *testing.T, status int, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL + "/")
}

func TestClientErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "validation with field",
			status: http.StatusUnprocessableEntity,
			body:   `{"message":"the title field is required","errors":{"title":["the title field is required"]}}`,
			check: func(t *testing.T, err error) {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "title", ve.Field)
				assert.Equal(t, "the title field is required", ve.Message)
				assert.Equal(t, http.StatusUnprocessableEntity, ve.StatusCode)
			},
		},
		{
			name:   "bad request without field",
			status: http.StatusBadRequest,
			body:   `{"message":"Malformed request body"}`,
			check: func(t *testing.T, err error) {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Empty(t, ve.Field)
				assert.Equal(t, "Malformed request body", ve.Message)
			},
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   `{"message":"Expense not found"}`,
			check: func(t *testing.T, err error) {
				var nf *NotFoundError
				require.ErrorAs(t, err, &nf)
				assert.Equal(t, int64(7), nf.ID)
			},
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   `{"message":"Too many requests"}`,
			check: func(t *testing.T, err error) {
				var te *TransportError
				require.ErrorAs(t, err, &te)
				assert.Equal(t, http.StatusTooManyRequests, te.StatusCode)
			},
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"message":"Internal server error"}`,
			check: func(t *testing.T, err error) {
				var te *TransportError
				require.ErrorAs(t, err, &te)
				assert.Contains(t, te.Error(), "HTTP 500")
				assert.Contains(t, te.Error(), "Internal server error")
			},
		},
		{
			name:   "undecodable success body",
			status: http.StatusOK,
			body:   `not json`,
			check: func(t *testing.T, err error) {
				var te *TransportError
				require.ErrorAs(t, err, &te)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := stubServer(t, tt.status, tt.body)
			_, err := c.TogglePaid(context.Background(), 7)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestClientTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).List(context.Background())
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.StatusCode)
	assert.NotNil(t, errors.Unwrap(te))
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	err := New(srv.URL, WithTimeout(50*time.Millisecond)).Ping(context.Background())
	var te *TransportError
	require.ErrorAs(t, err, &te)
}

func TestClientSendsJSON(t *testing.T) {
	var gotType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1,"title":"Lunch","amount":"45000.00","type":"chi","is_paid":false}`))
	}))
	t.Cleanup(srv.Close)

	e, err := New(srv.URL).Create(context.Background(), core.NewExpense{Title: "Lunch", Amount: core.MustMoney("45000"), Type: core.KindExpense})
	require.NoError(t, err)
	assert.Equal(t, "application/json", gotType)
	assert.JSONEq(t, `{"title":"Lunch","amount":"45000.00","type":"chi"}`, gotBody)
	assert.Equal(t, int64(1), e.ID)
	assert.Equal(t, "45000.00", e.Amount.String())
}
