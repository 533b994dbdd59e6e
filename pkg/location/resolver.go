package location

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"

	"github.com/vakitapp/vakit-agent/internal/utils"
)

// Sentinel conditions a caller can distinguish.
var (
	// ErrPermissionDenied is returned when location permission is refused
	// and the resolver is not allowed to degrade to the fallback chain.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrGpsUnavailable signals that every live acquisition attempt failed.
	// It never escapes Resolve; the fallback chain absorbs it.
	ErrGpsUnavailable = errors.New("gps unavailable")
)

const (
	// memorySlot is the single key used in the in-process cache tier.
	memorySlot = "current"
	// persistKey is the key the resolved location is persisted under.
	persistKey = "location"

	// DefaultFreshnessWindow is the sole staleness rule for cached
	// coordinates.
	DefaultFreshnessWindow = 5 * time.Minute
)

// DefaultFallbackCoordinate is the fixed reference city (Istanbul) returned
// when no cached or live coordinate can be obtained.
var DefaultFallbackCoordinate = Coordinate{Latitude: 41.0082, Longitude: 28.9784}

// ResolverOptions tune a Resolver. Zero values select the defaults.
type ResolverOptions struct {
	FreshnessWindow time.Duration
	Fallback        *Coordinate
	Retry           utils.RetryPolicy
	// AllowFallback lets a permission denial degrade to the fallback chain
	// instead of surfacing ErrPermissionDenied.
	AllowFallback bool
	// PollInterval is how often a suspended caller re-checks the in-flight
	// flag.
	PollInterval time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Resolver acquires a coordinate through ordered fallback tiers: memory
// cache, persisted cache, live provider with retry, stale persisted cache,
// hardcoded fallback. At most one live acquisition sequence runs process-wide
// at any time; concurrent callers collapse onto its result.
type Resolver struct {
	provider    Provider
	permissions PermissionChecker
	persisted   Store
	memory      cmap.ConcurrentMap[string, CachedLocation]

	freshness     time.Duration
	fallback      Coordinate
	retry         utils.RetryPolicy
	allowFallback bool
	pollInterval  time.Duration
	now           func() time.Time

	resolving atomic.Bool
	logger    zerolog.Logger
}

// Store is the persistence surface the resolver needs.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// NewResolver wires a resolver from its collaborators.
func NewResolver(provider Provider, permissions PermissionChecker, persisted Store, opts ResolverOptions, logger zerolog.Logger) *Resolver {
	if opts.FreshnessWindow <= 0 {
		opts.FreshnessWindow = DefaultFreshnessWindow
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = utils.DefaultRetryPolicy()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 50 * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	fallback := DefaultFallbackCoordinate
	if opts.Fallback != nil {
		fallback = *opts.Fallback
	}

	return &Resolver{
		provider:      provider,
		permissions:   permissions,
		persisted:     persisted,
		memory:        cmap.New[CachedLocation](),
		freshness:     opts.FreshnessWindow,
		fallback:      fallback,
		retry:         opts.Retry,
		allowFallback: opts.AllowFallback,
		pollInterval:  opts.PollInterval,
		now:           opts.Now,
		logger:        logger,
	}
}

// Resolve produces a coordinate, walking the tiers in order. Every return
// path yields a CachedLocation with a definite source; only a permission
// denial without AllowFallback surfaces an error.
func (r *Resolver) Resolve(ctx context.Context) (CachedLocation, error) {
	if err := r.acquire(ctx); err != nil {
		return CachedLocation{}, err
	}
	defer r.resolving.Store(false)

	for _, tier := range []func(ctx context.Context) (*CachedLocation, error){
		r.fromMemory,
		r.fromPersisted,
		r.fromProvider,
		r.fromStalePersisted,
		r.fromFallback,
	} {
		loc, err := tier(ctx)
		if err != nil {
			return CachedLocation{}, err
		}
		if loc != nil {
			return *loc, nil
		}
	}

	// Unreachable: the fallback tier always produces a value.
	return CachedLocation{}, ErrGpsUnavailable
}

// ClearCache drops both cache tiers. It is the only invalidation besides the
// freshness window.
func (r *Resolver) ClearCache() error {
	r.memory.Remove(memorySlot)
	return r.persisted.Delete(persistKey)
}

// acquire claims the process-wide in-flight flag. A caller that loses the
// race suspends on a polling wait, then retries from the cache tiers so it
// can pick up the winner's freshly written result.
func (r *Resolver) acquire(ctx context.Context) error {
	for !r.resolving.CompareAndSwap(false, true) {
		select {
		case <-time.After(r.pollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (r *Resolver) fromMemory(context.Context) (*CachedLocation, error) {
	cached, ok := r.memory.Get(memorySlot)
	if !ok || !cached.FreshWithin(r.freshness, r.now()) {
		return nil, nil
	}

	result := cached
	result.Source = SourceCache
	r.logger.Debug().Float64("lat", result.Coordinate.Latitude).Float64("lon", result.Coordinate.Longitude).Msg("Location served from memory cache")
	return &result, nil
}

func (r *Resolver) fromPersisted(context.Context) (*CachedLocation, error) {
	cached, ok := r.readPersisted()
	if !ok || !cached.FreshWithin(r.freshness, r.now()) {
		return nil, nil
	}

	// Promote so the next caller short-circuits at the memory tier.
	r.memory.Set(memorySlot, *cached)

	result := *cached
	result.Source = SourceCache
	r.logger.Debug().Msg("Location served from persisted cache")
	return &result, nil
}

// fromProvider runs the permission gate and the live acquisition with retry.
// Acquisition failure is absorbed; the chain continues to the stale tiers.
func (r *Resolver) fromProvider(ctx context.Context) (*CachedLocation, error) {
	if !r.permissions.Check() && !r.permissions.Request() {
		if !r.allowFallback {
			return nil, ErrPermissionDenied
		}
		r.logger.Warn().Msg("Location permission denied, degrading to fallback chain")
		return nil, nil
	}

	coord, err := utils.WithRetry(ctx, r.retry, r.retry.LinearBackoff(), func(ctx context.Context) (Coordinate, error) {
		return r.provider.GetLocation(ctx)
	})
	if err != nil {
		r.logger.Warn().Err(err).Int("attempts", r.retry.MaxAttempts).Msg("Live location acquisition failed")
		return nil, nil
	}

	result := CachedLocation{Coordinate: coord, Source: SourceGPS, Timestamp: r.now()}
	r.writeThrough(result)
	r.logger.Info().Float64("lat", coord.Latitude).Float64("lon", coord.Longitude).Msg("Location acquired from provider")
	return &result, nil
}

// fromStalePersisted returns a persisted entry regardless of its age.
func (r *Resolver) fromStalePersisted(context.Context) (*CachedLocation, error) {
	cached, ok := r.readPersisted()
	if !ok {
		return nil, nil
	}

	result := *cached
	result.Source = SourceCache
	r.logger.Warn().Time("cached_at", cached.Timestamp).Msg("Serving stale persisted location")
	return &result, nil
}

// fromFallback returns the hardcoded reference coordinate and persists it so
// subsequent calls short-circuit until the freshness window lapses.
func (r *Resolver) fromFallback(context.Context) (*CachedLocation, error) {
	result := CachedLocation{Coordinate: r.fallback, Source: SourceFallback, Timestamp: r.now()}
	r.writeThrough(result)
	r.logger.Warn().Msg("Serving hardcoded fallback location")
	return &result, nil
}

func (r *Resolver) readPersisted() (*CachedLocation, bool) {
	raw, ok, err := r.persisted.Get(persistKey)
	if err != nil || !ok {
		if err != nil {
			r.logger.Error().Err(err).Msg("Failed to read persisted location")
		}
		return nil, false
	}

	var cached CachedLocation
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		r.logger.Error().Err(err).Msg("Corrupt persisted location entry")
		return nil, false
	}
	return &cached, true
}

// writeThrough writes a newly resolved location to both cache tiers.
func (r *Resolver) writeThrough(loc CachedLocation) {
	r.memory.Set(memorySlot, loc)

	payload, err := json.Marshal(loc)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to serialize location for persistence")
		return
	}
	if err := r.persisted.Set(persistKey, string(payload)); err != nil {
		r.logger.Error().Err(err).Msg("Failed to persist location")
	}
}
