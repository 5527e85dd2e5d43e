package monobank

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/splitfeed/internal/bank"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL, Token: "secret", Location: time.UTC})
	require.NoError(t, err)
	return c
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := New(Options{Token: "  "})
	assert.Error(t, err)
}

func TestClientInfo(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/personal/client-info", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Token"))
		fmt.Fprint(w, `{"clientId":"c1","name":"Olena","accounts":[
			{"id":"acc-0001","balance":123456,"type":"black","currencyCode":980,"maskedPan":["5375****1234"],"iban":"UA00"}
		]}`)
	})

	info, err := c.ClientInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Olena", info.Name)
	require.Len(t, info.Accounts, 1)
	acc := info.Accounts[0]
	assert.Equal(t, "acc-0001", acc.ID)
	assert.Equal(t, int64(123456), acc.Balance)
	assert.Equal(t, []string{"5375****1234"}, acc.MaskedPan)
	assert.Equal(t, "UA00", acc.IBAN)
}

func TestStatements_PathAndDecode(t *testing.T) {
	from := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 30, 8, 0, 0, 0, time.UTC)
	wantPath := fmt.Sprintf("/personal/statement/acc/%d/%d",
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Unix(),
		time.Date(2024, 3, 30, 23, 59, 59, 0, time.UTC).Unix())

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, wantPath, r.URL.Path)
		fmt.Fprint(w, `[{"id":"tx1","time":1709300000,"description":"Coffee","mcc":5814,"amount":-15000,"currencyCode":980,"balance":100}]`)
	})

	items, err := c.Statements(context.Background(), "acc", from, to)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, bank.StatementItem{
		ID: "tx1", Time: 1709300000, Description: "Coffee", MCC: 5814,
		Amount: -15000, CurrencyCode: 980, Balance: 100,
	}, items[0])
}

func TestStatements_TooManyRequests(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"errorDescription":"Too many requests"}`)
	})

	_, err := c.Statements(context.Background(), "acc", time.Now(), time.Now())
	assert.ErrorIs(t, err, bank.ErrTooManyRequests)
}

func TestStatements_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"errorDescription":"Period must be no more than 31 days"}`)
	})

	_, err := c.Statements(context.Background(), "acc", time.Now(), time.Now())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Period must be no more than 31 days", apiErr.Description)
	assert.Contains(t, err.Error(), "status 400")
}

func TestStatements_BadJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{not json`)
	})

	_, err := c.Statements(context.Background(), "acc", time.Now(), time.Now())
	require.Error(t, err)
	assert.NotErrorIs(t, err, bank.ErrTooManyRequests)
}

func TestStatements_CancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Statements(ctx, "acc", time.Now(), time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLabel(t *testing.T) {
	tests := []struct {
		name string
		acc  bank.Account
		want string
	}{
		{"uah", bank.Account{ID: "abcdef9f3a", Type: "black", Balance: 123456, CurrencyCode: 980}, "black 1234.56 UAH (ID: ...9f3a)"},
		{"short id", bank.Account{ID: "ab", Type: "white", Balance: 5, CurrencyCode: 840}, "white 0.05 USD (ID: ...ab)"},
		{"unknown currency", bank.Account{ID: "xxxx1111", Type: "fop", Balance: -100, CurrencyCode: 999}, "fop -1.00 999 (ID: ...1111)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Label(tt.acc))
		})
	}
}
