package scheduler

import (
	"context"
	"fmt"
	"log"

	"TrendRadar/internal/notifier"
	"TrendRadar/internal/pipeline"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the scoring pipeline on a cron cadence in watch mode.
type Scheduler struct {
	Cron     *cron.Cron
	Pipeline *pipeline.Pipeline
	Notifier *notifier.TelegramNotifier // nil when Telegram is not configured
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, p *pipeline.Pipeline, tn *notifier.TelegramNotifier) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Pipeline: p,
		Notifier: tn,
		Ctx:      ctx,
	}
}

// RegisterDaily registers the daily scoring task.
func (s *Scheduler) RegisterDaily(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the daily task immediately (for manual trigger on startup).
func (s *Scheduler) RunNow() {
	s.dailyTask()
}

func (s *Scheduler) dailyTask() {
	log.Println("[INFO] running daily scoring task")
	res, err := s.Pipeline.Run()
	if err != nil {
		log.Printf("[ERROR] daily run: %v", err)
		s.trySend(notifier.FormatRunError(err))
		return
	}
	s.trySend(notifier.FormatDailySummary(res.Rows))
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
