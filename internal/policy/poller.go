// Package policy implements the adaptive server-policy polling loop.
//
// The poller periodically refreshes server-controlled feature flags on an
// interval dictated by the server, backing off exponentially with jitter
// while the backend is throttling. Consumers read the last successfully
// fetched flags through [Poller.Snapshot]; a fetch in flight or a failed
// fetch never clears previously known flags, so permission state does not
// flicker during transient errors.
package policy

import (
	"context"
	"errors"
	"io"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/screener/internal/api"
	"github.com/desertthunder/screener/internal/services"
	"github.com/desertthunder/screener/internal/shared"
)

const (
	// DefaultInterval applies when the server supplies no usable
	// min_poll_interval_seconds.
	DefaultInterval = 30 * time.Second

	// MinInterval is the floor for any server-supplied interval.
	MinInterval = time.Second

	// MaxBackoff caps the throttle backoff before jitter.
	MaxBackoff = 30 * time.Second

	// MaxJitter bounds the random spread added to each backoff delay.
	MaxJitter = time.Second
)

// Snapshot is a point-in-time copy of the poller's state for consumers.
type Snapshot struct {
	// Known is false until the first successful fetch.
	Known bool

	// FeatureFlags holds the last successfully fetched flags.
	FeatureFlags map[string]bool

	// Interval is the current normal polling interval.
	Interval time.Duration

	// ConsecutiveThrottles counts back-to-back throttled fetches; zero
	// whenever the last response was not a throttle.
	ConsecutiveThrottles int
}

// Enabled reports whether a feature flag is on. Missing flags are off.
func (s Snapshot) Enabled(flag string) bool {
	return s.FeatureFlags[flag]
}

// PollerOpts contains configuration options for creating a [Poller].
type PollerOpts struct {
	Service services.Review
	Clock   shared.Clock
	Logger  *log.Logger

	// Jitter overrides the random backoff spread, for deterministic
	// tests. The default draws uniformly from [0, MaxJitter).
	Jitter func() time.Duration

	// DefaultInterval overrides the fallback polling interval used until
	// the server supplies a usable one. Zero means [DefaultInterval].
	DefaultInterval time.Duration

	// OnUpdate, when set, is invoked after every successful fetch with
	// the fresh snapshot.
	OnUpdate func(Snapshot)
}

// Poller owns the policy state for the lifetime of one session.
type Poller struct {
	svc      services.Review
	clock    shared.Clock
	logger   *log.Logger
	jitter   func() time.Duration
	onUpdate func(Snapshot)
	fallback time.Duration

	mu        sync.Mutex
	known     bool
	flags     map[string]bool
	interval  time.Duration
	throttles int
}

// NewPoller creates a [Poller]. Service is required.
func NewPoller(opts PollerOpts) *Poller {
	if opts.Clock == nil {
		opts.Clock = shared.NewClock()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.Jitter == nil {
		opts.Jitter = func() time.Duration {
			return time.Duration(rand.Int63n(int64(MaxJitter)))
		}
	}
	if opts.DefaultInterval <= 0 {
		opts.DefaultInterval = DefaultInterval
	}

	return &Poller{
		svc:      opts.Service,
		clock:    opts.Clock,
		logger:   opts.Logger,
		jitter:   opts.Jitter,
		onUpdate: opts.OnUpdate,
		fallback: opts.DefaultInterval,
		interval: opts.DefaultInterval,
	}
}

// Snapshot returns the current policy state. Safe to call from any
// goroutine, including while a fetch is in flight.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	flags := make(map[string]bool, len(p.flags))
	for k, v := range p.flags {
		flags[k] = v
	}
	return Snapshot{
		Known:                p.known,
		FeatureFlags:         flags,
		Interval:             p.interval,
		ConsecutiveThrottles: p.throttles,
	}
}

// Run polls until ctx is cancelled. Intended to run on its own goroutine;
// the session teardown cancels ctx, and any result that arrives after
// cancellation is discarded rather than applied.
func (p *Poller) Run(ctx context.Context) {
	for {
		delay := p.PollOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		if err := p.clock.Sleep(ctx, delay); err != nil {
			return
		}
	}
}

// PollOnce performs a single fetch and returns the delay until the next
// poll: the normal interval after a success or non-throttle failure, an
// exponentially increasing jittered backoff while throttled.
func (p *Poller) PollOnce(ctx context.Context) time.Duration {
	pol, err := p.svc.FetchPolicy(ctx)
	if ctx.Err() != nil {
		// Session torn down mid-flight; drop the result.
		return p.fallback
	}

	if err != nil {
		return p.recordFailure(err)
	}
	return p.recordSuccess(pol)
}

func (p *Poller) recordSuccess(pol *services.Policy) time.Duration {
	p.mu.Lock()
	p.known = true
	p.flags = pol.FeatureFlags
	p.throttles = 0
	p.interval = p.normalInterval(pol.MinPollIntervalSeconds)
	interval := p.interval
	snap := p.snapshotLocked()
	p.mu.Unlock()

	p.logger.Debug("policy refreshed", "flags", len(snap.FeatureFlags), "interval", interval)
	if p.onUpdate != nil {
		p.onUpdate(snap)
	}
	return interval
}

func (p *Poller) recordFailure(err error) time.Duration {
	var apiErr *api.Error
	throttled := errors.As(err, &apiErr) && apiErr.Throttled()

	p.mu.Lock()
	defer p.mu.Unlock()

	if !throttled {
		// Non-throttle failures fall back to the normal cadence and
		// leave previously known flags untouched.
		p.throttles = 0
		p.logger.Warn("policy fetch failed", "err", err)
		return p.interval
	}

	p.throttles++
	// Clamp before shifting. A large enough shift wraps int64 negative
	// and a negative backoff would slip past the cap.
	backoff := MaxBackoff
	if shift := p.throttles - 1; shift < 5 {
		backoff = time.Second << shift
	}
	delay := backoff + p.jitter()
	p.logger.Warn("policy fetch throttled", "consecutive", p.throttles, "delay", delay)
	return delay
}

// snapshotLocked builds a Snapshot; callers hold p.mu.
func (p *Poller) snapshotLocked() Snapshot {
	flags := make(map[string]bool, len(p.flags))
	for k, v := range p.flags {
		flags[k] = v
	}
	return Snapshot{
		Known:                p.known,
		FeatureFlags:         flags,
		Interval:             p.interval,
		ConsecutiveThrottles: p.throttles,
	}
}

// normalInterval clamps a server-supplied interval: at least MinInterval,
// falling back to the configured default when unspecified or invalid.
func (p *Poller) normalInterval(seconds float64) time.Duration {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return p.fallback
	}
	d := time.Duration(seconds * float64(time.Second))
	if d < MinInterval {
		return MinInterval
	}
	return d
}
