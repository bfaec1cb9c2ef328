package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/robfig/cron/v3"

	"StockSense/internal/model"
	"StockSense/internal/notifier"
	"StockSense/internal/service"
	"StockSense/internal/usage"
)

// Analyzer is the part of the analysis service the scheduler drives.
type Analyzer interface {
	AnalyzeSymbol(ctx context.Context, symbol, source string) (*model.AnalysisResult, error)
	Usage() usage.Snapshot
}

// Sender delivers formatted messages.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// sendRetries is how many times a failed notification is retried.
const sendRetries = 3

// Scheduler runs the watchlist job and answers chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Analyzer  Analyzer
	Notifier  Sender
	Watchlist []string
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler. A nil sender only logs reports.
func NewScheduler(ctx context.Context, an Analyzer, sender Sender, watchlist []string) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Analyzer:  an,
		Notifier:  sender,
		Watchlist: watchlist,
		Ctx:       ctx,
	}
}

// RegisterAll registers the watchlist task.
func (s *Scheduler) RegisterAll(watchlistCron string) error {
	if _, err := s.Cron.AddFunc(watchlistCron, s.watchlistTask); err != nil {
		return fmt.Errorf("register watchlist task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Printf("[INFO] scheduler started, watching %d symbols", len(s.Watchlist))
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the watchlist task immediately (for RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.watchlistTask()
}

// watchlistTask analyzes each symbol in turn and sends one report per symbol.
func (s *Scheduler) watchlistTask() {
	log.Printf("[INFO] running watchlist task (%d symbols)", len(s.Watchlist))
	failed := 0
	for _, symbol := range s.Watchlist {
		if s.Ctx.Err() != nil {
			log.Println("[WARN] watchlist task cancelled")
			return
		}
		res, err := s.Analyzer.AnalyzeSymbol(s.Ctx, symbol, service.SourceScheduler)
		if err != nil {
			failed++
			log.Printf("[ERROR] watchlist analyze %s: %v", symbol, err)
			s.trySend(notifier.FormatError(symbol, err))
			continue
		}
		s.trySend(notifier.FormatAnalysisReport(res))
	}
	if failed > 0 {
		log.Printf("[WARN] watchlist task finished with %d failures", failed)
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.HelpText
	}
	// Commands in groups arrive as /cmd@BotName.
	cmd, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	switch cmd {
	case "/analyze":
		if len(fields) < 2 {
			return "Usage: /analyze SYMBOL"
		}
		res, err := s.Analyzer.AnalyzeSymbol(ctx, fields[1], service.SourceTelegram)
		if err != nil {
			log.Printf("[ERROR] command analyze %s: %v", fields[1], err)
			return notifier.FormatError(strings.ToUpper(fields[1]), err)
		}
		return notifier.FormatAnalysisReport(res)
	case "/usage":
		return notifier.FormatUsage(s.Analyzer.Usage())
	case "/watchlist":
		if len(s.Watchlist) == 0 {
			return "Watchlist is empty"
		}
		return "Watchlist: " + strings.Join(s.Watchlist, ", ")
	default:
		return notifier.HelpText
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		log.Printf("[INFO] report (no notifier configured):\n%s", text)
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, sendRetries); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
