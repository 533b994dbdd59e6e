package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vakitapp/vakit-agent/internal/models"
	"github.com/vakitapp/vakit-agent/pkg/location"
	"github.com/vakitapp/vakit-agent/pkg/prayer"
	"github.com/vakitapp/vakit-agent/pkg/remote"
	"github.com/vakitapp/vakit-agent/pkg/vakit"
)

// Locator is the location surface the prayer service consumes.
type Locator interface {
	Resolve(ctx context.Context) (location.CachedLocation, error)
}

// SnapshotConsumer receives the per-tick widget snapshot.
type SnapshotConsumer interface {
	Consume(snapshot models.WidgetSnapshot)
}

// ScheduleConsumer is notified whenever a new day schedule replaces the
// current one.
type ScheduleConsumer interface {
	OnNewSchedule(schedule prayer.DaySchedule)
}

// refreshCooldown bounds how often a failed schedule refresh is re-attempted,
// so the 1 Hz tick loop does not hammer an unavailable endpoint.
const refreshCooldown = 30 * time.Second

// PrayerService owns the periodic next-event resolution: it keeps the current
// day schedule, refetches it on date rollover, recomputes the upcoming event
// every tick, and fans the result out to the snapshot and schedule consumers.
type PrayerService struct {
	// Configuration fields
	city     string
	country  string
	interval time.Duration

	// Dependencies
	fetcher   vakit.Fetcher
	locator   Locator
	snapshots []SnapshotConsumer
	schedules []ScheduleConsumer
	logger    zerolog.Logger

	// Internal state management
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	running     bool
	schedule    prayer.DaySchedule
	hasSchedule bool
	label       string
	lastRefresh time.Time
	now         func() time.Time
}

// NewPrayerService creates a new PrayerService instance. When city is
// non-empty the schedule is fetched by city name; otherwise the locator
// supplies a coordinate.
func NewPrayerService(city, country string, interval time.Duration, fetcher vakit.Fetcher,
	locator Locator, logger zerolog.Logger) *PrayerService {
	if interval <= 0 {
		interval = time.Second
	}
	return &PrayerService{
		city:     city,
		country:  country,
		interval: interval,
		fetcher:  fetcher,
		locator:  locator,
		logger:   logger,
		now:      time.Now,
	}
}

// AddSnapshotConsumer registers a consumer of per-tick snapshots. Must be
// called before Start.
func (p *PrayerService) AddSnapshotConsumer(c SnapshotConsumer) {
	p.snapshots = append(p.snapshots, c)
}

// AddScheduleConsumer registers a consumer of day-schedule replacements.
// Must be called before Start.
func (p *PrayerService) AddScheduleConsumer(c ScheduleConsumer) {
	p.schedules = append(p.schedules, c)
}

// Start launches the resolution loop.
func (p *PrayerService) Start() error {
	if p.running {
		p.logger.Warn().Msg("PrayerService is already running")
		return errors.New("prayer service is already running")
	}

	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.running = true

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.tick()
		for {
			select {
			case <-ticker.C:
				p.tick()
			case <-p.ctx.Done():
				p.logger.Info().Msg("PrayerService is stopping")
				return
			}
		}
	}()

	p.logger.Info().Dur("interval", p.interval).Msg("PrayerService started")
	return nil
}

// Stop cancels the resolution loop and waits for it to exit.
func (p *PrayerService) Stop() error {
	if !p.running {
		p.logger.Warn().Msg("PrayerService is not running")
		return errors.New("prayer service is not running")
	}

	p.cancel()
	p.wg.Wait()
	p.running = false

	p.logger.Info().Msg("PrayerService stopped")
	return nil
}

// Current returns the latest resolved next event. It is valid to call at any
// time; with no schedule loaded it degrades to the resolver's default.
func (p *PrayerService) Current() prayer.NextEvent {
	return prayer.ResolveNext(p.schedule, p.now())
}

// tick refreshes the schedule if it is absent or no longer covers today,
// recomputes the next event, and fans out the snapshot.
func (p *PrayerService) tick() {
	now := p.now()

	if !p.hasSchedule || !p.schedule.IsFor(now) {
		p.refresh(now)
	}

	next := prayer.ResolveNext(p.schedule, now)
	snapshot := p.buildSnapshot(next, now)
	for _, c := range p.snapshots {
		c.Consume(snapshot)
	}
}

// refresh fetches a schedule for now's date, keeping the previous schedule on
// failure. Attempts are spaced by refreshCooldown.
func (p *PrayerService) refresh(now time.Time) {
	if !p.lastRefresh.IsZero() && now.Sub(p.lastRefresh) < refreshCooldown {
		return
	}
	p.lastRefresh = now

	schedule, label, err := p.fetchSchedule(now)
	if err != nil {
		if errors.Is(err, remote.ErrRemoteUnavailable) {
			// The one user-visible failure: keep showing the last
			// resolved schedule and let the next cooldown retry.
			p.logger.Error().Err(err).Msg("Schedule endpoint unavailable with no fallback, keeping last schedule")
		} else {
			p.logger.Error().Err(err).Msg("Failed to refresh day schedule")
		}
		return
	}

	p.schedule = schedule
	p.hasSchedule = true
	p.label = label
	p.logger.Info().Str("location", label).Time("date", schedule.Date()).Msg("Day schedule loaded")

	for _, c := range p.schedules {
		c.OnNewSchedule(schedule)
	}
}

func (p *PrayerService) fetchSchedule(now time.Time) (prayer.DaySchedule, string, error) {
	ctx, cancel := context.WithTimeout(p.ctx, time.Minute)
	defer cancel()

	if p.city != "" {
		schedule, err := p.fetcher.TimesByCity(ctx, now, p.city, p.country)
		return schedule, p.city, err
	}

	resolved, err := p.locator.Resolve(ctx)
	if err != nil {
		return prayer.DaySchedule{}, "", fmt.Errorf("failed to resolve location: %w", err)
	}

	schedule, err := p.fetcher.TimesByCoordinate(ctx, now, resolved.Coordinate)
	label := fmt.Sprintf("%.4f, %.4f", resolved.Coordinate.Latitude, resolved.Coordinate.Longitude)
	return schedule, label, err
}

func (p *PrayerService) buildSnapshot(next prayer.NextEvent, now time.Time) models.WidgetSnapshot {
	times := make(map[string]string, len(prayer.CanonicalOrder))
	for _, ev := range prayer.CanonicalOrder {
		if raw, ok := p.schedule.Time(ev); ok {
			times[string(ev)] = raw
		}
	}

	return models.WidgetSnapshot{
		NextEventName:    next.Event.Label(),
		NextEventTime:    next.Time.String(),
		RemainingMinutes: next.Remaining.Hours*60 + next.Remaining.Minutes,
		CurrentTime:      now.Format("15:04"),
		LocationLabel:    p.label,
		Times:            times,
	}
}
