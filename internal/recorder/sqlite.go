package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite"

	"StockSense/internal/model"
)

// ErrMissingID is returned when recording a result that has not been assigned an ID.
var ErrMissingID = errors.New("analysis result has no id")

// SQLiteRecorder persists analysis history to a SQLite database.
type SQLiteRecorder struct {
	db            *sql.DB
	mu            sync.Mutex
	keepPerSymbol int
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
// keepPerSymbol bounds the history per symbol; zero means DefaultKeepPerSymbol.
func NewSQLiteRecorder(dbPath string, keepPerSymbol int) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode lets the HTTP API read while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if keepPerSymbol <= 0 {
		keepPerSymbol = DefaultKeepPerSymbol
	}
	r := &SQLiteRecorder{db: db, keepPerSymbol: keepPerSymbol}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s (keep %d per symbol)", dbPath, keepPerSymbol)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS stock_analysis (
			id             TEXT PRIMARY KEY,
			symbol         TEXT NOT NULL,
			timeframe      TEXT,
			generated_at   INTEGER NOT NULL,
			bar_count      INTEGER,
			last_price     REAL,
			rsi            REAL,
			macd           REAL,
			macd_signal    REAL,
			macd_histogram REAL,
			support        REAL,
			resistance     REAL,
			action         TEXT,
			total_score    REAL,
			risk_level     TEXT,
			insight_status TEXT,
			payload        TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_symbol_ts ON stock_analysis(symbol, generated_at)`,

		`CREATE TABLE IF NOT EXISTS pattern_detections (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			analysis_id TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			detected_at INTEGER NOT NULL,
			name        TEXT NOT NULL,
			sentiment   TEXT,
			confidence  REAL,
			action      TEXT,
			timeframe   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_patterns_analysis ON pattern_detections(analysis_id)`,
		`CREATE INDEX IF NOT EXISTS idx_patterns_symbol_ts ON pattern_detections(symbol, detected_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// optional converts an absent value to SQL NULL.
func optional(o model.Optional[float64]) any {
	if v, ok := o.Get(); ok {
		return v
	}
	return nil
}

func (r *SQLiteRecorder) RecordAnalysis(ctx context.Context, res *model.AnalysisResult) error {
	if res.ID == "" {
		return ErrMissingID
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	var macd, signal, hist any
	if m, ok := res.Indicators.MACD.Get(); ok {
		macd, signal, hist = m.MACD, m.Signal, m.Histogram
	}
	var support, resistance any
	if lv, ok := res.Levels.Get(); ok {
		support, resistance = lv.Support, lv.Resistance
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	ts := res.GeneratedAt.UnixMilli()
	_, err = tx.ExecContext(ctx, `INSERT INTO stock_analysis
		(id, symbol, timeframe, generated_at, bar_count, last_price, rsi,
		 macd, macd_signal, macd_histogram, support, resistance,
		 action, total_score, risk_level, insight_status, payload)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		res.ID, res.Symbol, res.Timeframe, ts, res.BarCount,
		optional(res.LastPrice), optional(res.Indicators.RSI),
		macd, signal, hist, support, resistance,
		string(res.Recommendation.Action), res.Recommendation.TotalScore,
		string(res.Recommendation.RiskLevel), string(res.InsightStatus),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}

	for _, p := range res.Patterns {
		_, err = tx.ExecContext(ctx, `INSERT INTO pattern_detections
			(analysis_id, symbol, detected_at, name, sentiment, confidence, action, timeframe)
			VALUES (?,?,?,?,?,?,?,?)`,
			res.ID, res.Symbol, ts, p.Name, string(p.Sentiment), p.Confidence,
			string(p.Action), p.Timeframe,
		)
		if err != nil {
			return fmt.Errorf("insert pattern %s: %w", p.Name, err)
		}
	}

	if err := r.prune(ctx, tx, res.Symbol); err != nil {
		return err
	}
	return tx.Commit()
}

// prune keeps only the newest keepPerSymbol analyses for symbol.
func (r *SQLiteRecorder) prune(ctx context.Context, tx *sql.Tx, symbol string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM stock_analysis
		WHERE symbol = ? AND id NOT IN (
			SELECT id FROM stock_analysis WHERE symbol = ?
			ORDER BY generated_at DESC, rowid DESC LIMIT ?)`,
		symbol, symbol, r.keepPerSymbol,
	)
	if err != nil {
		return fmt.Errorf("prune analyses: %w", err)
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM pattern_detections
		WHERE symbol = ? AND analysis_id NOT IN (SELECT id FROM stock_analysis WHERE symbol = ?)`,
		symbol, symbol,
	)
	if err != nil {
		return fmt.Errorf("prune patterns: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) RecentAnalyses(ctx context.Context, symbol string, limit int) ([]model.AnalysisResult, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := r.db.QueryContext(ctx, `SELECT payload FROM stock_analysis
		WHERE symbol = ? ORDER BY generated_at DESC, rowid DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var out []model.AnalysisResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		var res model.AnalysisResult
		if err := json.Unmarshal([]byte(payload), &res); err != nil {
			return nil, fmt.Errorf("decode analysis: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) PatternCounts(ctx context.Context, symbol string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, COUNT(*) FROM pattern_detections
		WHERE symbol = ? GROUP BY name`, symbol)
	if err != nil {
		return nil, fmt.Errorf("query pattern counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scan pattern count: %w", err)
		}
		counts[name] = n
	}
	return counts, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
