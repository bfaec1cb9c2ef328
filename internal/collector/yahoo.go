package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"StockSense/internal/model"
)

const yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	Client    *http.Client
	BaseURL   string
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		Client:  newHTTPClient(proxyURL),
		BaseURL: yahooChartURL,
		SymbolMap: map[string]string{
			"NIFTY":     "^NSEI",
			"NIFTY50":   "^NSEI",
			"BANKNIFTY": "^NSEBANK",
			"SENSEX":    "^BSESN",
			"SPX500":    "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooRange picks the shortest chart range that covers limit bars.
func yahooRange(interval Interval, limit int) string {
	if interval == Weekly {
		switch {
		case limit <= 26:
			return "6mo"
		case limit <= 52:
			return "1y"
		case limit <= 104:
			return "2y"
		default:
			return "5y"
		}
	}
	switch {
	case limit <= 20:
		return "1mo"
	case limit <= 60:
		return "3mo"
	case limit <= 125:
		return "6mo"
	case limit <= 250:
		return "1y"
	default:
		return "2y"
	}
}

func (f *YahooFetcher) FetchBars(ctx context.Context, symbol string, interval Interval, limit int) ([]model.Bar, error) {
	u := fmt.Sprintf("%s%s?interval=%s&range=%s",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), interval, yahooRange(interval, limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	bars, err := parseYahooChart(body)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}

// parseYahooChart reads the v8 chart response. Null quotes (holidays, halts) are skipped.
func parseYahooChart(body []byte) ([]model.Bar, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("yahoo decode: invalid JSON")
	}
	doc := gjson.ParseBytes(body)
	if desc := doc.Get("chart.error.description"); desc.Exists() {
		return nil, fmt.Errorf("yahoo api error: %s", desc.String())
	}
	result := doc.Get("chart.result.0")
	timestamps := result.Get("timestamp").Array()
	if len(timestamps) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}

	quote := result.Get("indicators.quote.0")
	opens := quote.Get("open").Array()
	highs := quote.Get("high").Array()
	lows := quote.Get("low").Array()
	closes := quote.Get("close").Array()
	volumes := quote.Get("volume").Array()

	at := func(vals []gjson.Result, i int) gjson.Result {
		if i < len(vals) {
			return vals[i]
		}
		return gjson.Result{}
	}

	bars := make([]model.Bar, 0, len(timestamps))
	for i, ts := range timestamps {
		o, c := at(opens, i), at(closes, i)
		h, l := at(highs, i), at(lows, i)
		if o.Type != gjson.Number || h.Type != gjson.Number || l.Type != gjson.Number || c.Type != gjson.Number {
			continue
		}
		bars = append(bars, model.Bar{
			Timestamp: ts.Int(),
			Open:      o.Float(),
			High:      h.Float(),
			Low:       l.Float(),
			Close:     c.Float(),
			Volume:    at(volumes, i).Float(),
		})
	}
	return bars, nil
}
