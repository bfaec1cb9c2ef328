package collector

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"StockSense/internal/model"
)

// Interval is the bar size requested from a data source.
type Interval string

const (
	Daily  Interval = "1d"
	Weekly Interval = "1wk"
)

// ParseInterval maps common spellings to an Interval, defaulting to Daily.
func ParseInterval(s string) Interval {
	switch s {
	case "1wk", "1w", "weekly", "week":
		return Weekly
	default:
		return Daily
	}
}

// Fetcher defines the interface for fetching market data.
// Bars are returned oldest first; the collector re-sorts and validates them.
type Fetcher interface {
	FetchBars(ctx context.Context, symbol string, interval Interval, limit int) ([]model.Bar, error)
	Name() string
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}
