package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrMalformedBar is returned when a bar violates the OHLC invariant or breaks series ordering.
var ErrMalformedBar = errors.New("malformed bar")

// Bar represents a single OHLCV candlestick bar.
type Bar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Body returns |Close - Open|.
func (b Bar) Body() float64 {
	return math.Abs(b.Close - b.Open)
}

// Range returns High - Low.
func (b Bar) Range() float64 {
	return b.High - b.Low
}

// UpperShadow returns the distance from the top of the body to the high.
func (b Bar) UpperShadow() float64 {
	return b.High - math.Max(b.Open, b.Close)
}

// LowerShadow returns the distance from the bottom of the body to the low.
func (b Bar) LowerShadow() float64 {
	return math.Min(b.Open, b.Close) - b.Low
}

// BodyMidpoint returns the midpoint between open and close.
func (b Bar) BodyMidpoint() float64 {
	return (b.Open + b.Close) / 2
}

func (b Bar) IsBullish() bool { return b.Close > b.Open }
func (b Bar) IsBearish() bool { return b.Close < b.Open }

// Validate checks the OHLC invariant low <= min(open,close) <= max(open,close) <= high
// and that no field is negative or NaN.
func (b Bar) Validate() error {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("non-finite value")
		}
		if v < 0 {
			return errors.New("negative value")
		}
	}
	if b.Low > math.Min(b.Open, b.Close) {
		return fmt.Errorf("low %.4f above body", b.Low)
	}
	if b.High < math.Max(b.Open, b.Close) {
		return fmt.Errorf("high %.4f below body", b.High)
	}
	return nil
}

// BarError describes the offending bar when a series fails validation.
type BarError struct {
	Index  int
	Reason string
}

func (e *BarError) Error() string {
	return fmt.Sprintf("bar %d: %s", e.Index, e.Reason)
}

func (e *BarError) Unwrap() error { return ErrMalformedBar }

// Series is an immutable, chronologically ordered sequence of bars for one instrument.
type Series struct {
	Symbol string
	bars   []Bar
}

// NewSeries validates bars and returns a Series holding its own copy of them.
// Timestamps must be strictly increasing.
func NewSeries(symbol string, bars []Bar) (Series, error) {
	for i, b := range bars {
		if err := b.Validate(); err != nil {
			return Series{}, &BarError{Index: i, Reason: err.Error()}
		}
		if i > 0 && b.Timestamp <= bars[i-1].Timestamp {
			return Series{}, &BarError{Index: i, Reason: fmt.Sprintf("timestamp %d not after %d", b.Timestamp, bars[i-1].Timestamp)}
		}
	}
	own := make([]Bar, len(bars))
	copy(own, bars)
	return Series{Symbol: symbol, bars: own}, nil
}

// MustSeries is NewSeries that panics on invalid input. Intended for fixtures.
func MustSeries(symbol string, bars []Bar) Series {
	s, err := NewSeries(symbol, bars)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Series) Len() int { return len(s.bars) }

// At returns the i-th bar, oldest first.
func (s Series) At(i int) Bar { return s.bars[i] }

// Last returns the most recent bar. ok is false on an empty series.
func (s Series) Last() (Bar, bool) {
	if len(s.bars) == 0 {
		return Bar{}, false
	}
	return s.bars[len(s.bars)-1], true
}

// Bars returns a copy of all bars.
func (s Series) Bars() []Bar {
	out := make([]Bar, len(s.bars))
	copy(out, s.bars)
	return out
}

// Tail returns a copy of the most recent n bars (all bars if n exceeds the length).
func (s Series) Tail(n int) []Bar {
	if n <= 0 {
		return nil
	}
	if n > len(s.bars) {
		n = len(s.bars)
	}
	out := make([]Bar, n)
	copy(out, s.bars[len(s.bars)-n:])
	return out
}

// Closes extracts closing prices in chronological order.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s.bars))
	for i, b := range s.bars {
		closes[i] = b.Close
	}
	return closes
}
