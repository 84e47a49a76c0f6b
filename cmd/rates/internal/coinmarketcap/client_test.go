package coinmarketcap_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stephc02/FinancialTrackingSystem/cmd/rates/internal/coinmarketcap"
)

const listingsBody = `{
  "status": {"error_code": 0, "error_message": null},
  "data": [
    {"symbol": "BTC", "quote": {"USD": {"price": 43250.5, "percent_change_24h": 2.1}}},
    {"symbol": "ETH", "quote": {"USD": {"price": 3000, "percent_change_24h": -6.2}}}
  ]
}`

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-CMC_PRO_API_KEY"); got != "test-key" {
			t.Errorf("missing API key header, got %q", got)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchRates_ParsesListings(t *testing.T) {
	srv := newServer(t, http.StatusOK, listingsBody)
	client := coinmarketcap.NewClient(srv.URL, "test-key", "USD")

	quotes, err := client.FetchRates(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	assert.Equal(t, "BTC", quotes[0].Symbol)
	assert.Equal(t, "43250.5", quotes[0].Rate.String())
	assert.Equal(t, "2.1", quotes[0].PercentChange24h.String())
	assert.Equal(t, "ETH", quotes[1].Symbol)
	assert.Equal(t, "-6.2", quotes[1].PercentChange24h.String())
}

func TestFetchRates_NonOKStatus(t *testing.T) {
	srv := newServer(t, http.StatusTooManyRequests, "{}")
	client := coinmarketcap.NewClient(srv.URL, "test-key", "USD")

	_, err := client.FetchRates(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestFetchRates_APIError(t *testing.T) {
	body := `{"status": {"error_code": 1001, "error_message": "invalid key"}, "data": []}`
	srv := newServer(t, http.StatusOK, body)
	client := coinmarketcap.NewClient(srv.URL, "test-key", "USD")

	_, err := client.FetchRates(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid key")
}

func TestFetchRates_MalformedBody(t *testing.T) {
	srv := newServer(t, http.StatusOK, "{not json")
	client := coinmarketcap.NewClient(srv.URL, "test-key", "USD")

	_, err := client.FetchRates(context.Background())
	require.Error(t, err)
}

func TestFetchRates_MissingConvertQuote(t *testing.T) {
	body := `{"status": {"error_code": 0}, "data": [{"symbol": "BTC", "quote": {"EUR": {"price": 1, "percent_change_24h": 0}}}]}`
	srv := newServer(t, http.StatusOK, body)
	client := coinmarketcap.NewClient(srv.URL, "test-key", "USD")

	_, err := client.FetchRates(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no USD quote")
}

func TestFetchRates_EmptyListings(t *testing.T) {
	body := `{"status": {"error_code": 0}, "data": []}`
	srv := newServer(t, http.StatusOK, body)
	client := coinmarketcap.NewClient(srv.URL, "test-key", "USD")

	_, err := client.FetchRates(context.Background())
	require.Error(t, err)
}
