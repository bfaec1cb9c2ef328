package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"StockSense/internal/model"
)

// HTTPFetcher implements Fetcher against a generic REST chart endpoint that
// returns candles in any shape ParseChartData accepts.
type HTTPFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewHTTPFetcher creates a new fetcher with optional proxy support.
func NewHTTPFetcher(baseURL, apiKey, proxyURL string) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *HTTPFetcher) Name() string { return "http" }

func (f *HTTPFetcher) FetchBars(ctx context.Context, symbol string, interval Interval, limit int) ([]model.Bar, error) {
	bars, err := f.fetchBars(ctx, symbol, interval, limit)
	if err == nil || interval != Weekly {
		return bars, err
	}

	// Fallback: fetch enough daily bars and aggregate to weekly
	daily, dailyErr := f.fetchBars(ctx, symbol, Daily, limit*7)
	if dailyErr != nil {
		return nil, fmt.Errorf("weekly fetch failed: %w; daily fallback also failed: %w", err, dailyErr)
	}
	weekly := aggregateDailyToWeekly(daily)
	if limit > 0 && len(weekly) > limit {
		weekly = weekly[len(weekly)-limit:]
	}
	return weekly, nil
}

func (f *HTTPFetcher) fetchBars(ctx context.Context, symbol string, interval Interval, limit int) ([]model.Bar, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", string(interval))
	q.Set("limit", fmt.Sprint(limit))
	endpoint := f.BaseURL + "/api/v1/bars?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read bars: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}
	bars, err := ParseChartData(body)
	if err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	return bars, nil
}

// unixTime interprets a bar timestamp as seconds, or milliseconds when it is too large for seconds.
func unixTime(ts int64) time.Time {
	if ts > 1e12 {
		return time.UnixMilli(ts)
	}
	return time.Unix(ts, 0)
}

// aggregateDailyToWeekly converts daily bars into ISO-week bars.
func aggregateDailyToWeekly(daily []model.Bar) []model.Bar {
	if len(daily) == 0 {
		return nil
	}
	var weekly []model.Bar
	week := daily[0]
	wy, ww := unixTime(week.Timestamp).UTC().ISOWeek()

	for _, d := range daily[1:] {
		y, w := unixTime(d.Timestamp).UTC().ISOWeek()
		if y != wy || w != ww {
			weekly = append(weekly, week)
			week = d
			wy, ww = y, w
			continue
		}
		if d.High > week.High {
			week.High = d.High
		}
		if d.Low < week.Low {
			week.Low = d.Low
		}
		week.Close = d.Close
		week.Volume += d.Volume
	}
	return append(weekly, week)
}
