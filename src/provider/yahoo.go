package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"macd-scan-go/src/models"
)

const (
	// YahooBaseURL is the public chart API host
	YahooBaseURL = "https://query1.finance.yahoo.com"
	// DefaultTimeout bounds a single history request
	DefaultTimeout = 30 * time.Second
)

// YahooClient reads daily bars from the Yahoo Finance chart endpoint.
type YahooClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewYahooClient creates a client against baseURL, or YahooBaseURL when empty.
func NewYahooClient(baseURL string) *YahooClient {
	if baseURL == "" {
		baseURL = YahooBaseURL
	}
	return &YahooClient{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		baseURL: baseURL,
	}
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		GMTOffset int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []chartQuote `json:"quote"`
	} `json:"indicators"`
}

// Prices are pointers because the API emits null for missing sessions.
type chartQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

// History fetches daily bars for symbol over lookback (e.g. "6mo").
func (c *YahooClient) History(ctx context.Context, symbol, lookback string) ([]models.Bar, error) {
	query := url.Values{}
	query.Set("range", lookback)
	query.Set("interval", "1d")
	path := "/v8/finance/chart/" + url.PathEscape(symbol) + "?" + query.Encode()

	body, err := c.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}

	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		respStr := string(body)
		if len(respStr) > 500 {
			respStr = respStr[:500]
		}
		return nil, fmt.Errorf("%w: decode chart: %v (body: %s)", ErrMalformedSeries, err, respStr)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrNoData, resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: empty result for %s", ErrNoData, symbol)
	}

	bars, err := resp.Chart.Result[0].bars()
	if err != nil {
		return nil, err
	}
	return Normalize(bars)
}

// bars flattens the columnar payload. Only the first quote block is used when
// the API nests several.
func (r chartResult) bars() ([]models.Bar, error) {
	if len(r.Timestamp) == 0 || len(r.Indicators.Quote) == 0 {
		return nil, ErrNoData
	}
	quote := r.Indicators.Quote[0]
	if len(quote.Close) != len(r.Timestamp) {
		return nil, fmt.Errorf("%w: %d timestamps but %d closes", ErrMalformedSeries, len(r.Timestamp), len(quote.Close))
	}

	bars := make([]models.Bar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if quote.Close[i] == nil {
			continue
		}
		bars = append(bars, models.Bar{
			Date:   time.Unix(ts+r.Meta.GMTOffset, 0).UTC(),
			Open:   valueAt(quote.Open, i),
			High:   valueAt(quote.High, i),
			Low:    valueAt(quote.Low, i),
			Close:  *quote.Close[i],
			Volume: valueAt(quote.Volume, i),
		})
	}
	return bars, nil
}

// valueAt safely dereferences a nullable column entry, returning 0 when absent
func valueAt(column []*float64, index int) float64 {
	if index < 0 || index >= len(column) || column[index] == nil {
		return 0
	}
	return *column[index]
}

func (c *YahooClient) doRequest(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; macd-scan-go)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoData, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrNoData, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrNoData, resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
