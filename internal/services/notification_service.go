package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vakitapp/vakit-agent/internal/models"
	"github.com/vakitapp/vakit-agent/pkg/prayer"
	"github.com/vakitapp/vakit-agent/pkg/timeofday"
)

// Scheduler is the external notification scheduler contract. The agent
// computes fire instants and hands them off; delivery is not its concern.
type Scheduler interface {
	Schedule(req models.NotificationRequest) error
	CancelAll() error
}

// NotificationService converts each new day schedule into notification
// requests: one at every event time, and one a configurable lead earlier.
// The previous day's requests are cancelled wholesale before rescheduling.
type NotificationService struct {
	// Configuration fields
	lead time.Duration

	// Dependencies
	scheduler Scheduler
	logger    zerolog.Logger

	// Internal state management
	mu      sync.Mutex
	running bool
	now     func() time.Time
}

// NewNotificationService creates a new NotificationService instance.
func NewNotificationService(lead time.Duration, scheduler Scheduler, logger zerolog.Logger) *NotificationService {
	return &NotificationService{
		lead:      lead,
		scheduler: scheduler,
		logger:    logger,
		now:       time.Now,
	}
}

// Start marks the service active.
func (n *NotificationService) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.running {
		n.logger.Warn().Msg("NotificationService is already running")
		return errors.New("notification service is already running")
	}

	n.running = true
	n.logger.Info().Dur("lead", n.lead).Msg("NotificationService started")
	return nil
}

// Stop marks the service inactive and cancels all pending requests.
func (n *NotificationService) Stop() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.running {
		n.logger.Warn().Msg("NotificationService is not running")
		return errors.New("notification service is not running")
	}

	if err := n.scheduler.CancelAll(); err != nil {
		n.logger.Error().Err(err).Msg("Failed to cancel pending notifications")
	}

	n.running = false
	n.logger.Info().Msg("NotificationService stopped")
	return nil
}

// OnNewSchedule replaces all pending notifications with the new day's.
// Events already passed and malformed times are skipped.
func (n *NotificationService) OnNewSchedule(schedule prayer.DaySchedule) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.running {
		return
	}

	if err := n.scheduler.CancelAll(); err != nil {
		n.logger.Error().Err(err).Msg("Failed to cancel previous notifications")
		return
	}

	now := n.now()
	date := schedule.Date()
	scheduled := 0

	for _, ev := range prayer.CanonicalOrder {
		raw, ok := schedule.Time(ev)
		if !ok {
			continue
		}
		tod, err := timeofday.Parse(prayer.CleanTime(raw))
		if err != nil {
			n.logger.Warn().Str("event", string(ev)).Str("raw", raw).Msg("Skipping notification for unreadable event time")
			continue
		}

		fireAt := tod.At(date)
		if n.lead > 0 {
			reminder := fireAt.Add(-n.lead)
			if reminder.After(now) {
				n.schedule(models.NotificationRequest{
					ID:      uuid.New().String(),
					Title:   ev.Label(),
					Message: fmt.Sprintf("%s vaktine %d dakika kaldı", ev.Label(), int(n.lead.Minutes())),
					FireAt:  reminder,
				})
				scheduled++
			}
		}
		if fireAt.After(now) {
			n.schedule(models.NotificationRequest{
				ID:      uuid.New().String(),
				Title:   ev.Label(),
				Message: fmt.Sprintf("%s vakti girdi", ev.Label()),
				FireAt:  fireAt,
			})
			scheduled++
		}
	}

	n.logger.Info().Int("scheduled", scheduled).Time("date", date).Msg("Day notifications scheduled")
}

func (n *NotificationService) schedule(req models.NotificationRequest) {
	if err := n.scheduler.Schedule(req); err != nil {
		n.logger.Error().Err(err).Str("title", req.Title).Time("fire_at", req.FireAt).Msg("Failed to schedule notification")
	}
}
