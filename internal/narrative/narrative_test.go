package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"

	"StockSense/internal/model"
)

func sampleContext() Context {
	pe := 18.5
	return Context{
		Symbol:    "RELIANCE",
		Timeframe: "1d",
		LastPrice: model.Some(2450.5),
		Patterns: []model.Finding{{
			Name:       "Hammer",
			Sentiment:  model.SentimentBullish,
			Confidence: 0.75,
			Action:     model.ActionBuy,
		}},
		Indicators: model.IndicatorSnapshot{
			RSI: model.Some(28.0),
			SMA: map[int]model.Optional[float64]{20: model.Some(2400.0)},
		},
		Recommendation: model.Recommendation{Action: model.ActionBuy, TotalScore: 0.6, RiskLevel: model.RiskHigh},
		Fundamentals:   &model.Fundamentals{PE: &pe},
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt, err := BuildPrompt(sampleContext())
	if err != nil {
		t.Fatalf("BuildPrompt: %v", err)
	}
	for _, want := range []string{
		"Symbol: RELIANCE",
		"Current price: 2450.50",
		`"rsi":28`,
		`"name":"Hammer"`,
		"Rule-based verdict: BUY",
		`"pe":18.5`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}

	in := sampleContext()
	in.Fundamentals = nil
	in.LastPrice = model.None[float64]()
	prompt, err = BuildPrompt(in)
	if err != nil {
		t.Fatalf("BuildPrompt: %v", err)
	}
	if strings.Contains(prompt, "Fundamentals:") || strings.Contains(prompt, "Current price:") {
		t.Errorf("prompt should omit absent sections:\n%s", prompt)
	}
}

func TestContextFrom(t *testing.T) {
	r := model.AnalysisResult{
		Symbol:    "TCS",
		Timeframe: "1h",
		LastPrice: model.Some(10.0),
		Insight:   "ignored",
	}
	c := ContextFrom(r)
	if c.Symbol != "TCS" || c.Timeframe != "1h" {
		t.Errorf("got %+v", c)
	}
	if v, ok := c.LastPrice.Get(); !ok || v != 10 {
		t.Errorf("LastPrice = %v, %v", v, ok)
	}
}

func newChatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != openai.ChatMessageRoleSystem {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %q, want test-model", req.Model)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID: "chatcmpl-1",
			Choices: []openai.ChatCompletionChoice{{
				Index:   0,
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
			}},
		})
	}))
}

func TestOpenAIGenerator_Generate(t *testing.T) {
	srv := newChatServer(t, http.StatusOK, "  Oversold bounce likely near support.  ")
	defer srv.Close()

	g := NewOpenAIGenerator(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1/", Model: "test-model"})
	text, err := g.Generate(context.Background(), sampleContext())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "Oversold bounce likely near support." {
		t.Errorf("text = %q", text)
	}
}

func TestOpenAIGenerator_EmptyResponse(t *testing.T) {
	srv := newChatServer(t, http.StatusOK, "   ")
	defer srv.Close()

	g := NewOpenAIGenerator(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1", Model: "test-model"})
	if _, err := g.Generate(context.Background(), sampleContext()); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("err = %v, want ErrEmptyResponse", err)
	}
}

func TestOpenAIGenerator_ServerError(t *testing.T) {
	srv := newChatServer(t, http.StatusInternalServerError, "")
	defer srv.Close()

	g := NewOpenAIGenerator(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1", Model: "test-model"})
	if _, err := g.Generate(context.Background(), sampleContext()); err == nil {
		t.Error("expected error from failing server")
	}
}
