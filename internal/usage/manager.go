package usage

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"StockSense/internal/model"
	"StockSense/internal/narrative"
)

// DefaultDailyLimit is the number of narrative generations allowed per day.
const DefaultDailyLimit = 10

// historyDays bounds how many days of counts are kept in the state file.
const historyDays = 30

const dayLayout = "2006-01-02"

// ErrQuotaExceeded is returned once the daily limit has been used up.
var ErrQuotaExceeded = errors.New("daily narrative quota exceeded")

// Manager tracks daily narrative usage with concurrency safety.
type Manager struct {
	mu       sync.Mutex
	state    *model.UsageState
	filePath string
	now      func() time.Time
}

// NewManager creates a Manager, loading or initializing state from disk.
// A limit of zero or less disables the quota.
func NewManager(filePath string, dailyLimit int) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}
	state.DailyLimit = dailyLimit

	m := &Manager{state: state, filePath: filePath, now: time.Now}
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

// Snapshot reports today's usage.
type Snapshot struct {
	Date      string `json:"date"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
}

// Today returns the usage for the current day.
func (m *Manager) Today() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	day := m.day()
	s := Snapshot{Date: day, Used: m.state.Days[day], Limit: m.state.DailyLimit, Remaining: -1}
	if s.Limit > 0 {
		s.Remaining = max(s.Limit-s.Used, 0)
	}
	return s
}

// Reserve consumes one unit of today's quota.
func (m *Manager) Reserve() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	day := m.day()
	if m.state.DailyLimit > 0 && m.state.Days[day] >= m.state.DailyLimit {
		return ErrQuotaExceeded
	}
	m.state.Days[day]++
	m.trim()

	if err := m.save(); err != nil {
		log.Printf("[ERROR] save usage state: %v", err)
	}
	return nil
}

// Guard wraps a generator so each call consumes quota. Calls past the limit
// fail with ErrQuotaExceeded without reaching the generator.
func (m *Manager) Guard(gen narrative.Generator) narrative.Generator {
	if gen == nil {
		return nil
	}
	return narrative.Func(func(ctx context.Context, in narrative.Context) (string, error) {
		if err := m.Reserve(); err != nil {
			log.Printf("[WARN] narrative for %s skipped: %v", in.Symbol, err)
			return "", err
		}
		return gen.Generate(ctx, in)
	})
}

func (m *Manager) day() string {
	return m.now().Format(dayLayout)
}

// trim drops the oldest days beyond historyDays. Caller must hold m.mu.
func (m *Manager) trim() {
	if len(m.state.Days) <= historyDays {
		return
	}
	days := make([]string, 0, len(m.state.Days))
	for d := range m.state.Days {
		days = append(days, d)
	}
	sort.Strings(days)
	for _, d := range days[:len(days)-historyDays] {
		delete(m.state.Days, d)
	}
}

func (m *Manager) save() error {
	return SaveState(m.filePath, m.state)
}
