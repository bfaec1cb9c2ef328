package pattern

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"StockSense/internal/model"
)

func makeSeries(bars ...model.Bar) model.Series {
	for i := range bars {
		bars[i].Timestamp = int64(i + 1)
	}
	return model.MustSeries("TEST", bars)
}

func names(findings []model.Finding) []string {
	out := make([]string, len(findings))
	for i, f := range findings {
		out[i] = f.Name
	}
	return out
}

func TestMatcher_DojiScenario(t *testing.T) {
	s := makeSeries(model.Bar{Open: 100, High: 110, Low: 95, Close: 101, Volume: 1000})
	got := NewMatcher(Options{}).Detect(s)
	if len(got) != 1 {
		t.Fatalf("expected exactly one finding, got %v", names(got))
	}
	f := got[0]
	if f.Name != NameDoji {
		t.Errorf("Name = %q, want %q", f.Name, NameDoji)
	}
	if f.Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", f.Confidence)
	}
	if f.Sentiment != model.SentimentNeutral || f.Action != model.ActionWait {
		t.Errorf("got %s/%s, want neutral/WAIT", f.Sentiment, f.Action)
	}
}

func TestMatcher_BullishEngulfingScenario(t *testing.T) {
	s := makeSeries(
		model.Bar{Open: 50, High: 52, Low: 48, Close: 49, Volume: 100},
		model.Bar{Open: 48, High: 55, Low: 47, Close: 53, Volume: 200},
	)
	got := NewMatcher(Options{}).Detect(s)
	if len(got) != 1 {
		t.Fatalf("expected exactly one finding, got %v", names(got))
	}
	f := got[0]
	if f.Name != NameBullishEngulfing || f.Confidence != 0.85 || f.Action != model.ActionBuy {
		t.Errorf("got %+v", f)
	}
	if f.Sentiment != model.SentimentBullish {
		t.Errorf("Sentiment = %s, want bullish", f.Sentiment)
	}
}

func TestBearishEngulfing(t *testing.T) {
	s := makeSeries(
		model.Bar{Open: 49, High: 52, Low: 48, Close: 50},
		model.Bar{Open: 53, High: 54, Low: 46, Close: 47},
	)
	f, ok := bearishEngulfing{}.Detect(s)
	if !ok {
		t.Fatal("expected bearish engulfing")
	}
	if f.Action != model.ActionSell || f.Sentiment != model.SentimentBearish {
		t.Errorf("got %+v", f)
	}
	if _, ok := (bullishEngulfing{}).Detect(s); ok {
		t.Error("bullish engulfing must not fire on the same window")
	}
}

func TestShootingStar(t *testing.T) {
	s := makeSeries(model.Bar{Open: 100, High: 104, Low: 98.8, Close: 99})
	got := NewMatcher(Options{}).Detect(s)
	if len(got) != 1 || got[0].Name != NameShootingStar {
		t.Fatalf("expected only Shooting Star, got %v", names(got))
	}
	if got[0].Confidence != 0.7 || got[0].Action != model.ActionSell {
		t.Errorf("got %+v", got[0])
	}
}

func TestStars(t *testing.T) {
	morning := makeSeries(
		model.Bar{Open: 110, High: 111, Low: 99, Close: 100},
		model.Bar{Open: 98, High: 100, Low: 96, Close: 98.5},
		model.Bar{Open: 99, High: 108, Low: 98.5, Close: 107},
	)
	got := NewMatcher(Options{}).Detect(morning)
	if len(got) != 1 || got[0].Name != NameMorningStar {
		t.Fatalf("expected only Morning Star, got %v", names(got))
	}

	evening := makeSeries(
		model.Bar{Open: 100, High: 111, Low: 99, Close: 110},
		model.Bar{Open: 112, High: 114, Low: 110, Close: 111.5},
		model.Bar{Open: 111, High: 111.5, Low: 102, Close: 103},
	)
	f, ok := eveningStar{}.Detect(evening)
	if !ok {
		t.Fatal("expected Evening Star")
	}
	if f.Sentiment != model.SentimentBearish || f.Confidence != 0.8 {
		t.Errorf("got %+v", f)
	}

	// third candle closing above the first body midpoint is not an evening star
	weak := makeSeries(
		model.Bar{Open: 100, High: 111, Low: 99, Close: 110},
		model.Bar{Open: 112, High: 114, Low: 110, Close: 111.5},
		model.Bar{Open: 111, High: 111.5, Low: 105, Close: 106},
	)
	if _, ok := (eveningStar{}).Detect(weak); ok {
		t.Error("Evening Star should require a close below the first body midpoint")
	}
}

func hammerBar() model.Bar {
	return model.Bar{Open: 100, High: 101.2, Low: 95, Close: 101}
}

func risingBars(closes ...float64) []model.Bar {
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{Open: c - 0.5, High: c + 0.5, Low: c - 1, Close: c}
	}
	return bars
}

func TestHammer_TrendDemotion(t *testing.T) {
	tests := []struct {
		name      string
		prior     []model.Bar
		sentiment model.Sentiment
		action    model.Action
	}{
		{"single bar", nil, model.SentimentBullish, model.ActionBuy},
		{"five bars rising is too short for a trend", risingBars(97, 98, 99, 100), model.SentimentBullish, model.ActionBuy},
		{"six bars rising", risingBars(96, 97, 98, 99, 100), model.SentimentNeutral, model.ActionWait},
		{"six bars with a dip", risingBars(96, 97, 99, 98, 100), model.SentimentBullish, model.ActionBuy},
		{"flat close breaks the trend", risingBars(96, 97, 98, 100, 101), model.SentimentBullish, model.ActionBuy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := makeSeries(append(tt.prior, hammerBar())...)
			f, ok := hammer{}.Detect(s)
			if !ok {
				t.Fatal("expected hammer")
			}
			if f.Sentiment != tt.sentiment || f.Action != tt.action {
				t.Errorf("got %s/%s, want %s/%s", f.Sentiment, f.Action, tt.sentiment, tt.action)
			}
			if f.Confidence != 0.75 {
				t.Errorf("Confidence = %v, want 0.75", f.Confidence)
			}
		})
	}
}

func TestMatcher_Disabled(t *testing.T) {
	s := makeSeries(model.Bar{Open: 100, High: 110, Low: 95, Close: 101})
	m := NewMatcher(Options{Disabled: []string{NameDoji}})
	if got := m.Detect(s); len(got) != 0 {
		t.Errorf("disabled Doji still reported: %v", names(got))
	}
	for _, n := range m.Names() {
		if n == NameDoji {
			t.Error("Names() still lists Doji")
		}
	}
}

func TestMatcher_Order(t *testing.T) {
	core := NewMatcher(Options{}).Names()
	want := []string{
		NameDoji, NameHammer, NameBullishEngulfing, NameBearishEngulfing,
		NameShootingStar, NameMorningStar, NameEveningStar,
	}
	if len(core) != len(want) {
		t.Fatalf("Names() = %v", core)
	}
	for i := range want {
		if core[i] != want[i] {
			t.Errorf("detector %d = %q, want %q", i, core[i], want[i])
		}
	}

	ext := NewMatcher(Options{Extended: true}).Names()
	if len(ext) != len(want)+5 {
		t.Fatalf("extended Names() = %v", ext)
	}
	if ext[len(want)] != NameThreeWhiteSoldiers {
		t.Errorf("first extended detector = %q", ext[len(want)])
	}
}

func TestKnownName(t *testing.T) {
	if !KnownName(NameHammer) || !KnownName(NameThreeOutside) {
		t.Error("expected known detector names")
	}
	if KnownName("Bogus Pattern") {
		t.Error("unexpected known name")
	}
}

func TestExtended_ShortSeries(t *testing.T) {
	bars := risingBars(10, 11, 12, 13, 14, 15, 16, 17, 18, 19)
	s := makeSeries(bars...)
	for _, d := range ExtendedDetectors() {
		if _, ok := d.Detect(s); ok {
			t.Errorf("%s fired on a %d-bar series", d.Name(), s.Len())
		}
	}
}

func TestExtended_RisingFixture(t *testing.T) {
	var bars []model.Bar
	for i := 0; i < 14; i++ {
		c := 100 + float64(i%2)*0.2
		bars = append(bars, model.Bar{Open: c - 0.1, High: c + 0.3, Low: c - 0.4, Close: c})
	}
	bars = append(bars,
		model.Bar{Open: 100.2, High: 103.05, Low: 100.1, Close: 103},
		model.Bar{Open: 102, High: 106.05, Low: 101.9, Close: 106},
		model.Bar{Open: 105, High: 109.05, Low: 104.9, Close: 109},
	)
	s := makeSeries(bars...)

	m := NewMatcher(Options{Extended: true, Disabled: coreNames()})
	for _, f := range m.Detect(s) {
		if f.Confidence != extendedConfidence {
			t.Errorf("%s confidence = %v, want %v", f.Name, f.Confidence, extendedConfidence)
		}
		if f.Sentiment == model.SentimentBearish {
			t.Errorf("%s reported bearish on three rising candles", f.Name)
		}
	}
}

func coreNames() []string {
	var out []string
	for _, d := range CoreDetectors() {
		out = append(out, d.Name())
	}
	return out
}

func barFrom(open, close, upper, lower float64) model.Bar {
	return model.Bar{
		Open:  open,
		Close: close,
		High:  math.Max(open, close) + upper,
		Low:   math.Min(open, close) - lower,
	}
}

func TestBarFrom_ValidWithinGeneratorBounds(t *testing.T) {
	b := barFrom(10, 10, 9.9, 9.9)
	if err := b.Validate(); err != nil {
		t.Fatalf("extreme generated bar is invalid: %v", err)
	}
	if b.Low <= 0 {
		t.Errorf("Low = %v, want positive", b.Low)
	}
}

func TestDetectors_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// shadows stay below the lowest price so every generated bar is valid
	price := gen.Float64Range(10, 200)
	shadow := gen.Float64Range(0, 9.9)

	properties.Property("engulfing detectors are mutually exclusive", prop.ForAll(
		func(o1, c1, o2, c2, u, l float64) bool {
			s := makeSeries(barFrom(o1, c1, u, l), barFrom(o2, c2, l, u))
			_, bull := bullishEngulfing{}.Detect(s)
			_, bear := bearishEngulfing{}.Detect(s)
			return !(bull && bear)
		},
		price, price, price, price, shadow, shadow,
	))

	properties.Property("single bar yields only single-bar findings", prop.ForAll(
		func(o, c, u, l float64) bool {
			s := makeSeries(barFrom(o, c, u, l))
			for _, f := range NewMatcher(Options{Extended: true}).Detect(s) {
				switch f.Name {
				case NameDoji, NameHammer, NameShootingStar:
				default:
					return false
				}
			}
			return true
		},
		price, price, shadow, shadow,
	))

	properties.Property("confidence stays within [0,1]", prop.ForAll(
		func(o1, c1, o2, c2, o3, c3, u, l float64) bool {
			s := makeSeries(barFrom(o1, c1, u, l), barFrom(o2, c2, l, u), barFrom(o3, c3, u, u))
			for _, f := range NewMatcher(Options{Extended: true}).Detect(s) {
				if f.Confidence < 0 || f.Confidence > 1 {
					return false
				}
			}
			return true
		},
		price, price, price, price, price, price, shadow, shadow,
	))

	properties.TestingRun(t)
}
