package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/newsdigest/offline-client/pkg/store"
	"github.com/newsdigest/offline-client/pkg/strategy"
)

// Claimer takes control of currently-open client connections during
// activate, so already-loaded pages are served by the new logic without a
// manual reload. This accepts a brief window where a loaded page's script
// and the newly active cache are of mismatched versions.
type Claimer interface {
	Claim(ctx context.Context) error
}

// NopClaimer is a Claimer that does nothing, for setups without live
// clients to take over.
type NopClaimer struct{}

// Claim implements Claimer.
func (NopClaimer) Claim(ctx context.Context) error { return nil }

// Config holds the explicit generation naming passed into the manager.
type Config struct {
	// StaticRole and DynamicRole are the generation role names.
	StaticRole  string
	DynamicRole string

	// Version is the deploy version tag. Bumping it is the sole trigger
	// for superseding the prior generations.
	Version string

	// Origin is the base URL manifest paths are fetched from.
	Origin string

	// Manifest is the ordered set of paths cached eagerly at install.
	Manifest []string
}

// Manager drives the install/activate/cleanup cycle for one deploy version.
// It implements strategy.Generations so the executors always read the
// currently active pair.
type Manager struct {
	store    store.Store
	fetcher  strategy.Fetcher
	registry Registry
	claimer  Claimer
	config   Config
	logger   zerolog.Logger

	mu    sync.RWMutex
	phase Phase
}

// Ensure Manager implements strategy.Generations
var _ strategy.Generations = (*Manager)(nil)

// NewManager creates a lifecycle manager for the given deploy version.
func NewManager(s store.Store, fetcher strategy.Fetcher, registry Registry, claimer Claimer, cfg Config, logger zerolog.Logger) (*Manager, error) {
	if cfg.StaticRole == "" || cfg.DynamicRole == "" {
		return nil, fmt.Errorf("generation role names are required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("version tag is required")
	}
	if len(cfg.Manifest) == 0 {
		return nil, fmt.Errorf("static manifest cannot be empty")
	}
	if claimer == nil {
		claimer = NopClaimer{}
	}

	return &Manager{
		store:    s,
		fetcher:  fetcher,
		registry: registry,
		claimer:  claimer,
		config:   cfg,
		logger:   logger,
		phase:    PhaseInstalling,
	}, nil
}

// Phase returns the current lifecycle phase.
func (m *Manager) Phase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

func (m *Manager) setPhase(p Phase) {
	m.mu.Lock()
	m.phase = p
	m.mu.Unlock()
	m.logger.Info().Str("phase", string(p)).Str("version", m.config.Version).Msg("Lifecycle phase change")
}

// StaticGeneration returns this version's static generation name.
func (m *Manager) StaticGeneration() string {
	return m.config.StaticRole + "-" + m.config.Version
}

// DynamicGeneration returns this version's dynamic generation name.
func (m *Manager) DynamicGeneration() string {
	return m.config.DynamicRole + "-" + m.config.Version
}

// Active implements strategy.Generations.
func (m *Manager) Active() (string, string) {
	return m.StaticGeneration(), m.DynamicGeneration()
}

// Install populates a new static generation from the manifest.
//
// The policy is strict all-or-nothing: if any manifest fetch fails after
// retries, the partially populated generation is deleted, promotion is
// aborted, and previously active generations remain untouched.
func (m *Manager) Install(ctx context.Context) error {
	m.setPhase(PhaseInstalling)
	generation := m.StaticGeneration()
	start := time.Now()

	m.logger.Info().
		Str("generation", generation).
		Int("manifest_size", len(m.config.Manifest)).
		Msg("Installing static generation")

	p := &prefetcher{
		fetcher: m.fetcher,
		store:   m.store,
		config:  defaultPrefetchConfig(),
		retry:   defaultRetryConfig(),
	}

	if err := p.fetchAll(ctx, m.config.Origin, generation, m.config.Manifest); err != nil {
		installsTotal.WithLabelValues("failure").Inc()
		m.logger.Error().Err(err).Str("generation", generation).Msg("Install failed, discarding generation")

		if delErr := m.store.DeleteGeneration(ctx, generation); delErr != nil {
			m.logger.Warn().Err(delErr).Str("generation", generation).Msg("Failed to discard partial generation")
		}
		m.setPhase(PhaseRedundant)
		return err
	}

	installsTotal.WithLabelValues("success").Inc()
	installDuration.Observe(time.Since(start).Seconds())
	m.logger.Info().
		Str("generation", generation).
		Dur("duration", time.Since(start)).
		Msg("Install complete")

	m.setPhase(PhaseWaiting)
	return nil
}

// Activate promotes this version's generations: it records the new active
// pair in the shared registry, deletes every generation not in the pair,
// and claims currently-open clients.
func (m *Manager) Activate(ctx context.Context) error {
	if phase := m.Phase(); phase != PhaseWaiting {
		return fmt.Errorf("cannot activate from phase %s", phase)
	}

	staticGen, dynamicGen := m.Active()

	if m.registry != nil {
		state := ActivationState{
			StaticGeneration:  staticGen,
			DynamicGeneration: dynamicGen,
			Version:           m.config.Version,
			ActivatedAt:       time.Now(),
		}
		if err := m.registry.Save(ctx, state); err != nil {
			return fmt.Errorf("record activation: %w", err)
		}
	}

	names, err := m.store.Generations(ctx)
	if err != nil {
		return fmt.Errorf("enumerate generations: %w", err)
	}

	for _, name := range names {
		if name == staticGen || name == dynamicGen {
			continue
		}
		m.logger.Info().Str("generation", name).Msg("Deleting stale generation")
		if err := m.store.DeleteGeneration(ctx, name); err != nil {
			return fmt.Errorf("delete stale generation %s: %w", name, err)
		}
		store.GenerationsDeleted.Inc()
	}

	// Claim failure must not abort activation; propagation of the new
	// version to open pages just waits for their next reload.
	if err := m.claimer.Claim(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to claim open clients")
	}

	activationsTotal.Inc()
	m.setPhase(PhaseActive)
	m.logger.Info().
		Str("static", staticGen).
		Str("dynamic", dynamicGen).
		Msg("Activation complete")
	return nil
}

// Supersede marks this manager redundant once a later activate cycle has
// taken over. No further requests are dispatched to it.
func (m *Manager) Supersede() {
	m.setPhase(PhaseRedundant)
}
