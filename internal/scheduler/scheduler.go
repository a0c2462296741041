package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/example/wordmemo/internal/logger"
	"github.com/example/wordmemo/pkg/models"
	"github.com/go-co-op/gocron"
)

// Default job intervals
const (
	DefaultDecayInterval    = 30 * time.Minute
	DefaultReminderInterval = time.Hour

	jobTimeout = 5 * time.Minute
)

// Vocabulary is the part of the vocabulary service the jobs drive
type Vocabulary interface {
	DecaySweep(ctx context.Context) ([]string, error)
	ReviewQueue(ctx context.Context) ([]models.Word, error)
}

// SettingsSource returns the persisted settings
type SettingsSource interface {
	Get(ctx context.Context) (models.Settings, error)
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminders(userID int64, count int) error
}

// Config holds the job intervals and reminder recipients
type Config struct {
	DecayInterval    time.Duration
	ReminderInterval time.Duration
	Owners           []int64
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	vocab     Vocabulary
	settings  SettingsSource
	notifier  Notifier
	cfg       Config
	log       *logger.Logger
}

// New creates a new scheduler instance. notifier and settings may be nil, in
// which case reminders are not sent or not gated by settings.
func New(cfg Config, vocab Vocabulary, settings SettingsSource, notifier Notifier, log *logger.Logger) *Scheduler {
	if cfg.DecayInterval <= 0 {
		cfg.DecayInterval = DefaultDecayInterval
	}
	if cfg.ReminderInterval <= 0 {
		cfg.ReminderInterval = DefaultReminderInterval
	}
	if log == nil {
		log = logger.NewNop()
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		vocab:     vocab,
		settings:  settings,
		notifier:  notifier,
		cfg:       cfg,
		log:       log.With("component", "scheduler"),
	}
}

// Start registers the jobs and runs them in the background. The decay sweep
// also runs once immediately.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.cfg.DecayInterval).Tag("decay").Do(s.runDecaySweep); err != nil {
		return fmt.Errorf("failed to schedule decay sweep: %w", err)
	}

	if s.notifier != nil && len(s.cfg.Owners) > 0 {
		_, err := s.scheduler.Every(s.cfg.ReminderInterval).WaitForSchedule().Tag("reminders").Do(s.checkAndSendReminders)
		if err != nil {
			return fmt.Errorf("failed to schedule reminders: %w", err)
		}
	}

	s.scheduler.StartAsync()
	s.log.Info("scheduler started",
		"decay_interval", s.cfg.DecayInterval,
		"reminder_interval", s.cfg.ReminderInterval)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) runDecaySweep() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	downgraded, err := s.vocab.DecaySweep(ctx)
	if err != nil {
		s.log.Error("decay sweep failed", "error", err)
		return
	}
	s.log.Debug("decay sweep finished", "downgraded", len(downgraded))
}

// checkAndSendReminders notifies every owner about the words due now
func (s *Scheduler) checkAndSendReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if s.settings != nil {
		settings, err := s.settings.Get(ctx)
		if err != nil {
			s.log.Error("failed to load settings", "error", err)
			return
		}
		if !settings.Display.ShowReviewReminder {
			return
		}
	}

	for _, owner := range s.cfg.Owners {
		if err := s.RunManualCheck(ctx, owner); err != nil {
			s.log.Error("failed to send reminder", "owner", owner, "error", err)
		}
	}
}

// RunManualCheck sends a reminder to one owner if anything is due
func (s *Scheduler) RunManualCheck(ctx context.Context, userID int64) error {
	if s.notifier == nil {
		return nil
	}
	due, err := s.vocab.ReviewQueue(ctx)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}
	return s.notifier.SendReminders(userID, len(due))
}
