package model

import (
	"bytes"
	"encoding/json"
)

// Optional holds a value that may be absent. Absent is distinct from the zero value.
type Optional[T any] struct {
	value T
	ok    bool
}

// Some wraps a present value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

// None returns an absent value.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

func (o Optional[T]) IsPresent() bool { return o.ok }

// OrElse returns the value if present, otherwise def.
func (o Optional[T]) OrElse(def T) T {
	if o.ok {
		return o.value
	}
	return def
}

// MarshalJSON renders an absent value as null.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// MACD holds the MACD line, signal line and histogram.
type MACD struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// IndicatorSnapshot holds all computed technical indicators for one series.
type IndicatorSnapshot struct {
	RSI  Optional[float64]         `json:"rsi"`
	MACD Optional[MACD]            `json:"macd"`
	SMA  map[int]Optional[float64] `json:"sma"`
}

// SMAFor returns the SMA for period, absent if it was not computed.
func (s IndicatorSnapshot) SMAFor(period int) Optional[float64] {
	return s.SMA[period]
}

// KeyLevels holds support and resistance derived from the recent trading range.
type KeyLevels struct {
	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`
	Lookback   int     `json:"lookback"`
	// Position is where the last close sits in the range, 0 at support and 1 at resistance.
	Position   float64 `json:"position"`
}
