// Package coinmarketcap fetches quote listings from the CoinMarketCap pro API.
package coinmarketcap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Stephc02/FinancialTrackingSystem/pkg/models"
)

const defaultTimeout = 10 * time.Second

// listingsResponse is the explicit schema for the listings payload. Shape
// mismatches surface as fetch failures at decode time, never as runtime
// type errors downstream.
type listingsResponse struct {
	Status struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
	Data []struct {
		Symbol string `json:"symbol"`
		Quote  map[string]struct {
			Price            float64 `json:"price"`
			PercentChange24h float64 `json:"percent_change_24h"`
		} `json:"quote"`
	} `json:"data"`
}

type Client struct {
	apiURL     string
	apiKey     string
	convert    string
	httpClient *http.Client
}

func NewClient(apiURL, apiKey, convert string) *Client {
	return &Client{
		apiURL:  apiURL,
		apiKey:  apiKey,
		convert: convert,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// WithHTTPClient overrides the transport. Test hook.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// FetchRates polls the listings endpoint once and returns the normalized
// quotes. Errors are returned to the caller as-is; there is no internal retry.
func (c *Client) FetchRates(ctx context.Context) ([]models.RateQuote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?convert="+c.convert, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-CMC_PRO_API_KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching rates: unexpected status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading rates response: %w", err)
	}

	var payload listingsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding rates response: %w", err)
	}
	if payload.Status.ErrorCode != 0 {
		return nil, fmt.Errorf("rates API error %d: %s", payload.Status.ErrorCode, payload.Status.ErrorMessage)
	}
	if len(payload.Data) == 0 {
		return nil, fmt.Errorf("rates response contains no listings")
	}

	quotes := make([]models.RateQuote, 0, len(payload.Data))
	for _, entry := range payload.Data {
		if entry.Symbol == "" {
			return nil, fmt.Errorf("listing with empty symbol in rates response")
		}
		quote, ok := entry.Quote[c.convert]
		if !ok {
			return nil, fmt.Errorf("listing %s has no %s quote", entry.Symbol, c.convert)
		}
		quotes = append(quotes, models.RateQuote{
			Symbol:           entry.Symbol,
			Rate:             decimal.NewFromFloat(quote.Price),
			PercentChange24h: decimal.NewFromFloat(quote.PercentChange24h),
		})
	}

	return quotes, nil
}
