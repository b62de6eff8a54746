package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/classdesk/classboard/internal/board/store"
)

// Mailer dispatches due-date reminder messages. Delivery transport is out
// of scope here; the app wires a real implementation or a logging stub.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// HousekeepingService periodically purges expired sessions and sends
// due-date reminders for tasks entering the reminder horizon.
type HousekeepingService struct {
	Store           store.Store
	Mailer          Mailer
	Logger          *slog.Logger
	Interval        time.Duration
	ReminderHorizon time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates the background worker. Zero or negative
// interval defaults to one hour, zero horizon to 24 hours.
func NewHousekeepingService(st store.Store, mailer Mailer, logger *slog.Logger, interval, horizon time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	if horizon <= 0 {
		horizon = 24 * time.Hour
	}

	return &HousekeepingService{
		Store:           st,
		Mailer:          mailer,
		Logger:          logger,
		Interval:        interval,
		ReminderHorizon: horizon,
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping started",
		slog.Duration("interval", s.Interval),
		slog.Duration("reminder_horizon", s.ReminderHorizon))
}

// Stop shuts the worker down, waiting for any in-progress sweep.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep immediately on startup.
	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

// sweep runs both chores. Each is independent; one failing never stops the
// other.
func (s *HousekeepingService) sweep() {
	ctx := context.Background()

	if err := s.Store.Sessions().DeleteExpiredSessions(ctx); err != nil {
		s.Logger.Error("failed to purge expired sessions", slogErr(err))
	}

	if err := s.remindDueTasks(ctx); err != nil {
		s.Logger.Error("failed to send due-task reminders", slogErr(err))
	}
}

// remindDueTasks mails the creator of every task entering the horizon,
// flagging each so it is reminded at most once per due date.
func (s *HousekeepingService) remindDueTasks(ctx context.Context) error {
	horizon := time.Now().UTC().Add(s.ReminderHorizon)

	due, err := s.Store.Tasks().ListDueTasks(ctx, horizon)
	if err != nil {
		return fmt.Errorf("failed to list due tasks: %w", err)
	}

	for _, task := range due {
		if task.CreatedBy == nil {
			// Creator deleted; nobody to remind, but flag it anyway.
			if err := s.Store.Tasks().MarkReminderSent(ctx, task.ID); err != nil {
				s.Logger.Error("failed to flag reminder", slogErr(err), slog.String("task_id", task.ID))
			}
			continue
		}

		user, err := s.Store.Users().GetUserByID(ctx, *task.CreatedBy)
		if err != nil {
			s.Logger.Error("failed to resolve reminder recipient", slogErr(err), slog.String("task_id", task.ID))
			continue
		}
		if user.Email == "" {
			if err := s.Store.Tasks().MarkReminderSent(ctx, task.ID); err != nil {
				s.Logger.Error("failed to flag reminder", slogErr(err), slog.String("task_id", task.ID))
			}
			continue
		}

		subject := fmt.Sprintf("Task %q is due soon", task.Title)
		body := fmt.Sprintf("Your task %q is due on %s.", task.Title, task.DueDate.Format("02/01/2006 15:04"))
		if err := s.Mailer.Send(ctx, user.Email, subject, body); err != nil {
			// Leave the flag unset so the next sweep retries.
			s.Logger.Error("failed to send reminder", slogErr(err), slog.String("task_id", task.ID))
			continue
		}

		if err := s.Store.Tasks().MarkReminderSent(ctx, task.ID); err != nil {
			s.Logger.Error("failed to flag reminder", slogErr(err), slog.String("task_id", task.ID))
		}
	}
	return nil
}

// LogMailer is the default Mailer: it records the reminder instead of
// delivering it. Real SMTP wiring slots in behind the same interface.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) Send(_ context.Context, to, subject, _ string) error {
	m.Logger.Info("reminder email", slog.String("to", to), slog.String("subject", subject))
	return nil
}
