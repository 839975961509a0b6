package provider

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"macd-scan-go/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeSortsDedupesAndDropsInvalid(t *testing.T) {
	bars := []models.Bar{
		{Date: day(2024, 3, 5).Add(15 * time.Hour), Close: 12},
		{Date: day(2024, 3, 4), Close: 11},
		{Date: day(2024, 3, 5), Close: 13},
		{Date: day(2024, 3, 6), Close: math.NaN()},
		{Date: day(2024, 3, 7), Close: 0},
	}
	got, err := Normalize(bars)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, day(2024, 3, 4), got[0].Date)
	assert.Equal(t, day(2024, 3, 5), got[1].Date)
	assert.Equal(t, 13.0, got[1].Close, "last bar of a duplicated day wins")
}

func TestNormalizeNoData(t *testing.T) {
	_, err := Normalize(nil)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = Normalize([]models.Bar{{Date: day(2024, 1, 1), Close: math.NaN()}})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestNormalizeRejectsMissingDate(t *testing.T) {
	_, err := Normalize([]models.Bar{{Close: 10}})
	assert.ErrorIs(t, err, ErrMalformedSeries)
}

func TestLookbackDays(t *testing.T) {
	for in, want := range map[string]int{"6mo": 186, "90d": 90, "2wk": 14, "1y": 366} {
		got, err := lookbackDays(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := lookbackDays("six months")
	assert.Error(t, err)
	_, err = lookbackDays("3h")
	assert.Error(t, err)
}

const chartPayload = `{"chart":{"result":[{"meta":{"symbol":"7203.T","gmtoffset":32400},
"timestamp":[1704153600,1704240000,1704326400],
"indicators":{"quote":[{"open":[1,2,3],"high":[1,2,3],"low":[1,2,3],
"close":[2500.5,null,2510.25],"volume":[100,200,300]}]}}],"error":null}}`

func TestYahooHistory(t *testing.T) {
	var gotPath, gotRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRange = r.URL.Query().Get("range")
		fmt.Fprint(w, chartPayload)
	}))
	defer srv.Close()

	bars, err := NewYahooClient(srv.URL).History(context.Background(), "7203.T", "6mo")
	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/7203.T", gotPath)
	assert.Equal(t, "6mo", gotRange)

	require.Len(t, bars, 2, "null close is skipped")
	assert.Equal(t, 2500.5, bars[0].Close)
	assert.Equal(t, 2510.25, bars[1].Close)
	assert.Equal(t, 300.0, bars[1].Volume)
	// 1704153600 is 2024-01-02 00:00 UTC, 09:00 in Tokyo
	assert.Equal(t, day(2024, 1, 2), bars[0].Date)
}

func TestYahooHistoryErrors(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
		want   error
	}{
		"not found":   {http.StatusNotFound, `{"chart":{"result":null,"error":{"code":"Not Found"}}}`, ErrNoData},
		"api error":   {http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data"}}}`, ErrNoData},
		"empty":       {http.StatusOK, `{"chart":{"result":[],"error":null}}`, ErrNoData},
		"garbage":     {http.StatusOK, `<html>`, ErrMalformedSeries},
		"misaligned":  {http.StatusOK, `{"chart":{"result":[{"timestamp":[1,2],"indicators":{"quote":[{"close":[1]}]}}]}}`, ErrMalformedSeries},
		"no quotes":   {http.StatusOK, `{"chart":{"result":[{"timestamp":[1,2],"indicators":{"quote":[]}}]}}`, ErrNoData},
		"all nulls":   {http.StatusOK, `{"chart":{"result":[{"timestamp":[1,2],"indicators":{"quote":[{"close":[null,null]}]}}]}}`, ErrNoData},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			}))
			defer srv.Close()

			_, err := NewYahooClient(srv.URL).History(context.Background(), "XXXX", "6mo")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestReadBarsWithBOMAndNulls(t *testing.T) {
	data := "\ufeffDate,Open,High,Low,Close,Adj Close,Volume\n" +
		"2024-01-04,1,2,0.5,10.5,10.5,1000\n" +
		"2024-01-05,null,null,null,null,null,null\n" +
		"2024-01-08,1,2,0.5,11,11,1200\n"
	bars, err := ReadBars(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 10.5, bars[0].Close)
	assert.Equal(t, 1200.0, bars[1].Volume)
}

func TestReadBarsMissingClose(t *testing.T) {
	_, err := ReadBars(strings.NewReader("Date,Open\n2024-01-04,1\n"))
	assert.ErrorIs(t, err, ErrMalformedSeries)
}

func TestCSVDirHistory(t *testing.T) {
	dir := t.TempDir()
	var sb strings.Builder
	sb.WriteString("Date,Close\n")
	start := day(2023, 1, 1)
	for i := 0; i < 400; i++ {
		fmt.Fprintf(&sb, "%s,%d\n", start.AddDate(0, 0, i).Format(models.DateLayout), 100+i)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "AAPL.csv"), []byte(sb.String()), 0o644))

	p := NewCSVDir(dir)
	bars, err := p.History(context.Background(), "AAPL", "30d")
	require.NoError(t, err)
	require.Len(t, bars, 30)
	assert.Equal(t, start.AddDate(0, 0, 399), bars[len(bars)-1].Date)

	_, err = p.History(context.Background(), "MSFT", "30d")
	assert.ErrorIs(t, err, ErrNoData)
}
