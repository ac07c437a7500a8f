// Package instrument times pipeline stages. Slow stages are logged and, when
// a registry is configured, every stage duration and provider outcome is
// exported to Prometheus.
package instrument

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// DefaultSlowThreshold is the duration above which a stage is logged as slow.
const DefaultSlowThreshold = 10 * time.Millisecond

// Option configures a Timer.
type Option func(*Timer)

// WithSlowThreshold overrides DefaultSlowThreshold. Zero or negative disables
// slow-call logging.
func WithSlowThreshold(d time.Duration) Option {
	return func(t *Timer) { t.slow = d }
}

// WithRegisterer exports stage durations and provider outcomes to reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(t *Timer) { t.reg = reg }
}

// WithLogger sets the logger used for slow-call warnings. Defaults to zap.L().
func WithLogger(l *zap.Logger) Option {
	return func(t *Timer) { t.log = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Timer) { t.now = now }
}

// Timer measures stage durations. A nil *Timer is valid and only runs the
// wrapped functions.
type Timer struct {
	slow time.Duration
	reg  prometheus.Registerer
	log  *zap.Logger
	now  func() time.Time

	durations *prometheus.HistogramVec
	outcomes  *prometheus.CounterVec
}

// NewTimer creates a Timer. Registering metrics that already exist in the
// registry reuses the existing collectors.
func NewTimer(opts ...Option) (*Timer, error) {
	t := &Timer{slow: DefaultSlowThreshold, now: time.Now}
	for _, o := range opts {
		o(t)
	}
	if t.reg == nil {
		return t, nil
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geofusion",
		Name:      "stage_duration_seconds",
		Help:      "Duration of pipeline stages.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"stage"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geofusion",
		Name:      "provider_outcomes_total",
		Help:      "Extracted provider sections by status.",
	}, []string{"provider", "status"})

	var err error
	if t.durations, err = register(t.reg, durations); err != nil {
		return nil, err
	}
	if t.outcomes, err = register(t.reg, outcomes); err != nil {
		return nil, err
	}
	return t, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// Start begins timing stage and returns a func that records the elapsed
// time when called.
func (t *Timer) Start(stage string) func() time.Duration {
	if t == nil {
		return func() time.Duration { return 0 }
	}
	start := t.now()
	return func() time.Duration {
		elapsed := t.now().Sub(start)
		t.record(stage, elapsed)
		return elapsed
	}
}

// Observe runs fn and records its duration under stage.
func (t *Timer) Observe(stage string, fn func() error) error {
	stop := t.Start(stage)
	defer stop()
	return fn()
}

// Value runs fn, records its duration under stage and returns its result.
func Value[T any](t *Timer, stage string, fn func() T) T {
	stop := t.Start(stage)
	defer stop()
	return fn()
}

// Outcome counts one provider section with the given status.
func (t *Timer) Outcome(provider, status string) {
	if t == nil || t.outcomes == nil {
		return
	}
	t.outcomes.WithLabelValues(provider, status).Inc()
}

func (t *Timer) record(stage string, elapsed time.Duration) {
	if t.durations != nil {
		t.durations.WithLabelValues(stage).Observe(elapsed.Seconds())
	}
	if t.slow > 0 && elapsed > t.slow {
		log := t.log
		if log == nil {
			log = zap.L()
		}
		log.Warn("instrument: slow stage",
			zap.String("stage", stage),
			zap.Duration("elapsed", elapsed),
			zap.Duration("threshold", t.slow),
		)
	}
}
