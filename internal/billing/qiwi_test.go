package billing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pray-app/pray_api/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *QiwiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewQiwiClient(config.Billing{APIToken: "secret", BaseURL: srv.URL, Currency: "RUB", Timeout: 2 * time.Second})
}

func TestQiwiCreateBill(t *testing.T) {
	var got qiwiBillRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/partner/bill/v1/bills/bill-1", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"billId":"bill-1","payUrl":"https://pay/x","status":{"value":"WAITING"}}`))
	})

	expires := time.Date(2026, 10, 20, 9, 2, 0, 0, time.FixedZone("MSK", 3*3600))
	bill, err := client.CreateBill(context.Background(), BillRequest{BillID: "bill-1", Amount: 6, Currency: "RUB", ExpiresAt: expires})
	require.NoError(t, err)

	assert.Equal(t, "https://pay/x", bill.PayURL)
	assert.Equal(t, StatusWaiting, bill.Status)
	assert.Equal(t, "6.00", got.Amount.Value)
	assert.Equal(t, "RUB", got.Amount.Currency)
	assert.Equal(t, "2026-10-20T09:02:00+03:00", got.ExpirationDateTime)
}

func TestQiwiCreateBillWithoutPayURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errorCode":"auth.unauthorized"}`))
	})

	_, err := client.CreateBill(context.Background(), BillRequest{BillID: "b", Amount: 2, Currency: "RUB", ExpiresAt: time.Now()})
	require.ErrorIs(t, err, ErrNoPayURL)
	assert.ErrorIs(t, err, ErrProvider)
}

func TestQiwiBillStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		switch {
		case strings.HasSuffix(r.URL.Path, "/paid"):
			_, _ = w.Write([]byte(`{"billId":"paid","status":{"value":"PAID"}}`))
		case strings.HasSuffix(r.URL.Path, "/garbled"):
			_, _ = w.Write([]byte(`<html>`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errorCode":"api.invoice.not.found"}`))
		}
	})

	status, err := client.BillStatus(context.Background(), "paid")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, status)

	_, err = client.BillStatus(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNoStatus)

	_, err = client.BillStatus(context.Background(), "garbled")
	assert.ErrorIs(t, err, ErrProvider)
	assert.False(t, errors.Is(err, ErrNoStatus))
}

func TestQiwiUnreachable(t *testing.T) {
	client := NewQiwiClient(config.Billing{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	_, err := client.BillStatus(context.Background(), "x")
	assert.ErrorIs(t, err, ErrProvider)
}

func TestQiwiCanceledContext(t *testing.T) {
	client := NewQiwiClient(config.Billing{BaseURL: "http://127.0.0.1:1"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.BillStatus(ctx, "x")
	assert.ErrorIs(t, err, ErrProvider)
}
