package collector

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"StockSense/internal/model"
)

// DefaultBars is the number of bars requested when none is configured.
const DefaultBars = 250

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  []model.Bar
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, _ string, interval Interval, limit int) ([]model.Bar, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return m.Bars, nil
	}
	step := 24 * time.Hour
	if interval == Weekly {
		step = 7 * step
	}
	return generateMockBars(m.Price, limit, step), nil
}

// generateMockBars produces a gently oscillating series ending today.
func generateMockBars(basePrice float64, count int, step time.Duration) []model.Bar {
	if basePrice <= 0 {
		basePrice = 100
	}
	end := time.Now().UTC().Truncate(24 * time.Hour)
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.03*math.Sin(float64(i)/5) + float64(i-count/2)*0.0005)
		o := p * (1 + 0.004*math.Cos(float64(i)))
		bars[i] = model.Bar{
			Timestamp: end.Add(-time.Duration(count-i) * step).Unix(),
			Open:      o,
			High:      math.Max(o, p) * 1.005,
			Low:       math.Min(o, p) * 0.995,
			Close:     p,
			Volume:    1000000,
		}
	}
	return bars
}

// Collector fetches bars for a symbol and assembles a validated series.
type Collector struct {
	Fetcher  Fetcher
	Interval Interval
	Bars     int
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, interval Interval, bars int) *Collector {
	if bars <= 0 {
		bars = DefaultBars
	}
	return &Collector{Fetcher: fetcher, Interval: interval, Bars: bars}
}

// Collect fetches market data and returns it as a series. Bars from the source
// are sorted, de-duplicated by timestamp (last wins) and stripped of entries
// that violate the OHLC invariant before validation.
func (c *Collector) Collect(ctx context.Context, symbol string) (model.Series, error) {
	bars, err := c.Fetcher.FetchBars(ctx, symbol, c.Interval, c.Bars)
	if err != nil {
		return model.Series{}, fmt.Errorf("fetch %s bars from %s: %w", c.Interval, c.Fetcher.Name(), err)
	}

	clean, dropped := normalizeBars(bars)
	if dropped > 0 {
		log.Printf("[WARN] %s: dropped %d malformed or duplicate bars from %s", symbol, dropped, c.Fetcher.Name())
	}
	series, err := model.NewSeries(symbol, clean)
	if err != nil {
		return model.Series{}, fmt.Errorf("build series: %w", err)
	}
	return series, nil
}

func normalizeBars(bars []model.Bar) ([]model.Bar, int) {
	sorted := make([]model.Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	out := make([]model.Bar, 0, len(sorted))
	dropped := 0
	for _, b := range sorted {
		if b.Validate() != nil {
			dropped++
			continue
		}
		if n := len(out); n > 0 && out[n-1].Timestamp == b.Timestamp {
			out[n-1] = b
			dropped++
			continue
		}
		out = append(out, b)
	}
	return out, dropped
}
