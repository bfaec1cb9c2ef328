package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"StockSense/internal/collector"
	"StockSense/internal/model"
	"StockSense/internal/service"
)

// Version is reported by the extension status endpoint.
const Version = "1.0.0"

// maxBodyBytes bounds POST /api/analyze payloads.
const maxBodyBytes = 5 << 20

// maxRecentLimit caps the limit query parameter of /api/analyses.
const maxRecentLimit = 100

type Server struct {
	Service        *service.Service
	Metrics        http.Handler
	AllowedOrigins []string
	// Patterns lists the detectors enabled for this deployment.
	Patterns []string
}

func New(svc *service.Service, metrics http.Handler, patterns []string, allowedOrigins []string) *Server {
	return &Server{Service: svc, Metrics: metrics, Patterns: patterns, AllowedOrigins: allowedOrigins}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/extension/status", s.handleStatus)
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/analysis", s.handleAnalysis)
	mux.HandleFunc("/api/analyses", s.handleAnalyses)
	mux.HandleFunc("/api/patterns", s.handlePatterns)
	mux.HandleFunc("/api/usage", s.handleUsage)
	if s.Metrics != nil {
		mux.Handle("/metrics", s.Metrics)
	}
	return s.cors(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"ok":true}`))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	features := append([]string{"indicators", "key_levels", "recommendation", "narrative"}, s.Patterns...)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ready",
		"features": features,
		"version":  Version,
	})
}

// handleAnalyze analyzes bars supplied in the request body.
// POST /api/analyze {"symbol","timeframe","candlestickData":[...],"fundamentals":{}}
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, fmt.Errorf("read body: %w", err))
		return
	}
	if !gjson.ValidBytes(body) {
		writeError(w, http.StatusBadRequest, errors.New("request body is not valid JSON"))
		return
	}
	req := gjson.ParseBytes(body)

	bars, err := collector.ParseCandles(req.Get("candlestickData"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	series, err := model.NewSeries(strings.ToUpper(strings.TrimSpace(req.Get("symbol").String())), bars)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	fundamentals, err := collector.ParseFundamentals(req.Get("fundamentals"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.Service.AnalyzeSeries(r.Context(), series, req.Get("timeframe").String(), fundamentals, service.SourceIngest)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleAnalysis fetches bars from the configured data source and analyzes them.
// GET /api/analysis?symbol=INFY
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	res, err := s.Service.AnalyzeSymbol(r.Context(), r.URL.Query().Get("symbol"), service.SourceAPI)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleAnalyses returns recorded analyses, newest first.
// GET /api/analyses?symbol=INFY&limit=10
func (s *Server) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = min(n, maxRecentLimit)
	}
	list, err := s.Service.RecentAnalyses(r.Context(), q.Get("symbol"), limit)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if list == nil {
		list = []model.AnalysisResult{}
	}
	writeJSON(w, http.StatusOK, list)
}

// handlePatterns returns recorded pattern counts for a symbol.
// GET /api/patterns?symbol=INFY
func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
	counts, err := s.Service.PatternCounts(r.Context(), symbol)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if counts == nil {
		counts = map[string]int{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"symbol": symbol, "counts": counts})
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.Service.Usage())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrMalformedBar),
		errors.Is(err, collector.ErrInvalidChart),
		errors.Is(err, service.ErrEmptySymbol):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return false
	}
	if r.Method != method {
		w.Header().Set("Allow", method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// writeJSON encodes v fully before writing the header. Encoding failures become a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		log.Printf("[ERROR] request failed: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) cors(next http.Handler) http.Handler {
	allowed := s.AllowedOrigins
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		allowOrigin := ""
		for _, o := range allowed {
			if o == "*" {
				allowOrigin = "*"
				break
			}
			if o == origin {
				allowOrigin = origin
				break
			}
		}

		if allowOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
