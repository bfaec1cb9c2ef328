package collector

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"StockSense/internal/model"
)

// ErrInvalidChart is returned when a chart payload is not a list of candles.
var ErrInvalidChart = errors.New("invalid chart payload")

var priceReplacer = strings.NewReplacer("₹", "", "$", "", "Rs.", "", "Rs", "", "INR", "", ",", "", " ", "", "\u00a0", "")

// ParsePrice parses a price as displayed on a broker page, e.g. "₹1,234.50".
func ParsePrice(s string) (float64, error) {
	clean := priceReplacer.Replace(strings.TrimSpace(s))
	if clean == "" {
		return 0, fmt.Errorf("parse price %q: empty", s)
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", s, err)
	}
	return d.InexactFloat64(), nil
}

// numberOf reads a JSON number or a price-formatted string.
// The second result is false when the value is missing or null.
func numberOf(r gjson.Result) (float64, bool, error) {
	switch r.Type {
	case gjson.Number:
		return r.Float(), true, nil
	case gjson.String:
		v, err := ParsePrice(r.String())
		if err != nil {
			return 0, false, err
		}
		return v, true, nil
	case gjson.Null:
		return 0, false, nil
	default:
		return 0, false, fmt.Errorf("unexpected %s value", r.Type)
	}
}

// firstOf returns the first present key of an object.
func firstOf(obj gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if r := obj.Get(k); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

func timestampOf(r gjson.Result) (int64, bool, error) {
	switch r.Type {
	case gjson.Number:
		return r.Int(), true, nil
	case gjson.String:
		if t, err := time.Parse(time.RFC3339, r.String()); err == nil {
			return t.Unix(), true, nil
		}
		if t, err := time.Parse("2006-01-02", r.String()); err == nil {
			return t.Unix(), true, nil
		}
		v, err := decimal.NewFromString(r.String())
		if err != nil {
			return 0, false, fmt.Errorf("parse timestamp %q: %w", r.String(), err)
		}
		return v.IntPart(), true, nil
	default:
		return 0, false, nil
	}
}

// ParseChartData extracts bars from a chart payload. It accepts a bare array
// or an object holding one under candlestickData, data, bars or candles.
// Candles are objects keyed open|o, high|h, low|l, close|c, volume|v and
// timestamp|time|t, or arrays of [t, o, h, l, c, v]. Values may be numbers or
// price strings. Candles without a timestamp are numbered by position.
func ParseChartData(data []byte) ([]model.Bar, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidChart)
	}
	root := gjson.ParseBytes(data)
	if root.IsObject() {
		root = firstOf(root, "candlestickData", "data", "bars", "candles")
	}
	return ParseCandles(root)
}

// ParseCandles converts an already-located JSON array of candles.
func ParseCandles(arr gjson.Result) ([]model.Bar, error) {
	if !arr.IsArray() {
		return nil, fmt.Errorf("%w: expected an array of candles", ErrInvalidChart)
	}
	items := arr.Array()
	bars := make([]model.Bar, 0, len(items))
	for i, item := range items {
		b, err := parseCandle(item, i)
		if err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func parseCandle(item gjson.Result, idx int) (model.Bar, error) {
	var fields [6]gjson.Result
	switch {
	case item.IsArray():
		vals := item.Array()
		if len(vals) < 5 {
			return model.Bar{}, &model.BarError{Index: idx, Reason: "candle array needs at least [t, o, h, l, c]"}
		}
		copy(fields[:], vals)
	case item.IsObject():
		fields = [6]gjson.Result{
			firstOf(item, "timestamp", "time", "t"),
			firstOf(item, "open", "o"),
			firstOf(item, "high", "h"),
			firstOf(item, "low", "l"),
			firstOf(item, "close", "c"),
			firstOf(item, "volume", "v"),
		}
	default:
		return model.Bar{}, &model.BarError{Index: idx, Reason: "candle is neither object nor array"}
	}

	b := model.Bar{Timestamp: int64(idx + 1)}
	ts, ok, err := timestampOf(fields[0])
	if err != nil {
		return model.Bar{}, &model.BarError{Index: idx, Reason: err.Error()}
	}
	if ok {
		b.Timestamp = ts
	}

	names := [...]string{"open", "high", "low", "close"}
	targets := [...]*float64{&b.Open, &b.High, &b.Low, &b.Close}
	for i, name := range names {
		v, ok, err := numberOf(fields[i+1])
		if err != nil {
			return model.Bar{}, &model.BarError{Index: idx, Reason: fmt.Sprintf("%s: %v", name, err)}
		}
		if !ok {
			return model.Bar{}, &model.BarError{Index: idx, Reason: "missing " + name}
		}
		*targets[i] = v
	}
	v, _, err := numberOf(fields[5])
	if err != nil {
		return model.Bar{}, &model.BarError{Index: idx, Reason: fmt.Sprintf("volume: %v", err)}
	}
	b.Volume = v
	return b, nil
}

// ParseFundamentals reads optional fundamentals from a JSON object.
// Unknown keys are ignored; an empty or missing object yields nil.
func ParseFundamentals(obj gjson.Result) (*model.Fundamentals, error) {
	if !obj.IsObject() {
		return nil, nil
	}
	f := &model.Fundamentals{}
	fields := []struct {
		keys   []string
		target **float64
	}{
		{[]string{"pe", "PE", "peRatio"}, &f.PE},
		{[]string{"eps", "EPS"}, &f.EPS},
		{[]string{"marketCap", "market_cap"}, &f.MarketCap},
		{[]string{"bookValue", "book_value"}, &f.BookValue},
		{[]string{"debtEquity", "debtToEquity", "debt_equity"}, &f.DebtEquity},
		{[]string{"roe", "ROE"}, &f.ROE},
		{[]string{"revenue", "sales"}, &f.Revenue},
		{[]string{"profit", "netIncome"}, &f.Profit},
	}
	for _, fld := range fields {
		v, ok, err := numberOf(firstOf(obj, fld.keys...))
		if err != nil {
			return nil, fmt.Errorf("parse fundamental %s: %w", fld.keys[0], err)
		}
		if ok {
			val := v
			*fld.target = &val
		}
	}
	if f.IsEmpty() {
		return nil, nil
	}
	return f, nil
}
