package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"tutela/internal/consent/models"
	"tutela/internal/platform/metrics"
)

const defaultProbeTimeout = 5 * time.Second

// Factory constructs and verifies one backend tier. A factory returning an
// error means the tier is unavailable at probe time.
type Factory func(ctx context.Context) (Repository, error)

// Selector owns backend selection. It probes tiers in priority order at bind
// time, records every downgrade in the audit trail, and only ever upgrades a
// live binding through an explicit administrative reconnect. There is no
// automatic re-selection while a process runs.
type Selector struct {
	primary      Factory
	secondary    Factory
	fallback     func() Repository
	probeTimeout time.Duration
	clock        func() time.Time
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

// Option configures a Selector.
type Option func(*Selector)

// WithPrimary registers the primary tier factory.
func WithPrimary(f Factory) Option {
	return func(s *Selector) { s.primary = f }
}

// WithSecondary registers the secondary tier factory.
func WithSecondary(f Factory) Option {
	return func(s *Selector) { s.secondary = f }
}

// WithFallback overrides the fallback constructor. The fallback must never
// fail to construct; the default is the in-process memory store.
func WithFallback(f func() Repository) Option {
	return func(s *Selector) { s.fallback = f }
}

// WithProbeTimeout bounds each connection probe.
func WithProbeTimeout(d time.Duration) Option {
	return func(s *Selector) {
		if d > 0 {
			s.probeTimeout = d
		}
	}
}

// WithClock overrides the timestamp source for transition events.
func WithClock(clock func() time.Time) Option {
	return func(s *Selector) { s.clock = clock }
}

// NewSelector constructs a selector. Tiers without a registered factory are
// treated as unavailable.
func NewSelector(logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Selector {
	s := &Selector{
		fallback:     func() Repository { return NewMemory() },
		probeTimeout: defaultProbeTimeout,
		clock:        time.Now,
		logger:       logger,
		metrics:      m,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bind probes primary, then secondary, then binds the fallback
// unconditionally. One repository_fallback audit event is recorded per
// downgrade, written through the repository that ends up bound.
func (s *Selector) Bind(ctx context.Context) *Binding {
	var transitions []models.AuditEvent

	repo, err := s.connect(ctx, BackendPrimary)
	if err != nil {
		s.logger.WarnContext(ctx, "primary repository unavailable, falling back",
			"from", BackendPrimary, "to", BackendSecondary, "error", err)
		s.metrics.SetPrimaryReachable(false)
		transitions = append(transitions, s.transitionEvent("primary", "secondary"))

		repo, err = s.connect(ctx, BackendSecondary)
		if err != nil {
			s.logger.ErrorContext(ctx, "data loss risk: using volatile storage",
				"from", BackendSecondary, "to", BackendFallback, "error", err)
			transitions = append(transitions, s.transitionEvent("secondary", "inmemory"))
			repo = s.fallback()
		}
	} else {
		s.metrics.SetPrimaryReachable(true)
	}

	backend := repo.Backend()
	s.metrics.SetActiveBackend(string(backend))
	for _, event := range transitions {
		s.metrics.IncrementFallbackTransitions()
		if err := repo.LogAuditEvent(ctx, event); err != nil {
			s.metrics.IncrementAuditLogFailures()
			s.logger.ErrorContext(ctx, "failed to record fallback transition", "error", err)
		}
	}

	s.logger.InfoContext(ctx, "repository bound", "backend", backend)
	return newBinding(repo)
}

// Reconnect re-probes strictly higher-priority tiers and upgrades the
// binding when one answers. It never downgrades. Returns the backend in
// effect and whether it changed.
func (s *Selector) Reconnect(ctx context.Context, b *Binding) (Backend, bool) {
	current := b.Backend()
	if current == BackendPrimary {
		return current, false
	}

	repo, err := s.connect(ctx, BackendPrimary)
	if err == nil {
		b.swap(repo)
		s.metrics.SetActiveBackend(string(BackendPrimary))
		s.metrics.SetPrimaryReachable(true)
		s.logger.InfoContext(ctx, "repository rebound", "from", current, "to", BackendPrimary)
		return BackendPrimary, true
	}
	s.logger.WarnContext(ctx, "reconnect probe failed", "backend", BackendPrimary, "error", err)
	s.metrics.SetPrimaryReachable(false)

	if current != BackendFallback {
		return current, false
	}
	repo, err = s.connect(ctx, BackendSecondary)
	if err == nil {
		b.swap(repo)
		s.metrics.SetActiveBackend(string(BackendSecondary))
		s.logger.InfoContext(ctx, "repository rebound", "from", current, "to", BackendSecondary)
		return BackendSecondary, true
	}
	s.logger.WarnContext(ctx, "reconnect probe failed", "backend", BackendSecondary, "error", err)
	return current, false
}

func (s *Selector) connect(ctx context.Context, backend Backend) (Repository, error) {
	var factory Factory
	switch backend {
	case BackendPrimary:
		factory = s.primary
	case BackendSecondary:
		factory = s.secondary
	}
	if factory == nil {
		return nil, fmt.Errorf("%s repository not configured", backend)
	}

	probeCtx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	repo, err := factory(probeCtx)
	if err != nil {
		return nil, err
	}
	if err := repo.Ping(probeCtx); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return repo, nil
}

// transitionEvent records a downgrade. The volatile tier is written as
// "inmemory", its storage kind, in the trail.
func (s *Selector) transitionEvent(from, to string) models.AuditEvent {
	event := models.NewAuditEvent(models.AuditActionRepositoryFallback, "", map[string]string{
		models.DetailFrom: from,
		models.DetailTo:   to,
	})
	event.Timestamp = s.clock()
	return event
}

// Binding holds the active repository. The hot path reads a single atomic
// pointer; the pointer only moves on an administrative reconnect.
type Binding struct {
	active atomic.Pointer[Repository]

	mu      sync.Mutex
	retired []Repository
}

func newBinding(repo Repository) *Binding {
	b := &Binding{}
	b.active.Store(&repo)
	return b
}

// Repository returns the active repository.
func (b *Binding) Repository() Repository {
	return *b.active.Load()
}

// Backend names the active tier.
func (b *Binding) Backend() Backend {
	return b.Repository().Backend()
}

func (b *Binding) swap(repo Repository) {
	old := b.active.Swap(&repo)
	if old == nil {
		return
	}
	// The demoted repository stays open until shutdown; in-flight requests
	// may still hold it.
	b.mu.Lock()
	b.retired = append(b.retired, *old)
	b.mu.Unlock()
}

// Close releases the active repository and any demoted ones.
func (b *Binding) Close() error {
	err := b.Repository().Close()

	b.mu.Lock()
	retired := b.retired
	b.retired = nil
	b.mu.Unlock()

	for _, repo := range retired {
		if cerr := repo.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Prober periodically observes primary reachability without ever switching
// the binding; recovery stays an administrative decision.
type Prober struct {
	selector *Selector
	binding  *Binding
	interval time.Duration
	last     atomic.Bool
	stop     chan struct{}
	done     chan struct{}
}

// NewProber constructs a stopped prober.
func (s *Selector) NewProber(binding *Binding, interval time.Duration) *Prober {
	return &Prober{
		selector: s,
		binding:  binding,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins probing in the background.
func (p *Prober) Start() {
	p.last.Store(p.binding.Backend() == BackendPrimary)
	go p.run()
}

// Stop halts probing and waits for the loop to exit.
func (p *Prober) Stop() {
	close(p.stop)
	<-p.done
}

func (p *Prober) run() {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.probeOnce()
		}
	}
}

func (p *Prober) probeOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), p.selector.probeTimeout)
	defer cancel()

	reachable := p.selector.primaryReachable(ctx, p.binding)
	p.selector.metrics.SetPrimaryReachable(reachable)
	if p.last.Swap(reachable) != reachable {
		p.selector.logger.InfoContext(ctx, "primary reachability changed",
			"reachable", reachable, "active_backend", p.binding.Backend())
	}
}

func (s *Selector) primaryReachable(ctx context.Context, b *Binding) bool {
	if repo := b.Repository(); repo.Backend() == BackendPrimary {
		return repo.Ping(ctx) == nil
	}
	if s.primary == nil {
		return false
	}
	repo, err := s.primary(ctx)
	if err != nil {
		return false
	}
	defer func() {
		_ = repo.Close()
	}()
	return repo.Ping(ctx) == nil
}
