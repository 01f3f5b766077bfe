// Package providers implements the Provider Abstraction & Failover layer
// (spec.md §4.2): a provider-agnostic Complete call, a health-tracking
// failover chain with circuit breaking and exponential backoff, and cost
// accounting per completed call.
//
// Grounded on internal/agent/failover.go (FailoverOrchestrator, ProviderState
// circuit breaker) and internal/agent/provider_types.go (the LLMProvider
// shape), generalized from a streaming-channel interface to
// pkg/radium.ModelCallRequest/ModelResponse's whole-response call per
// orchestrator.Provider.
package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/radium-run/radium/internal/backoff"
	"github.com/radium-run/radium/internal/ratelimit"
	"github.com/radium-run/radium/pkg/radium"
)

// ErrAllProvidersExhausted is returned when every provider in the chain has
// failed or is circuit-broken (spec.md §4.2).
var ErrAllProvidersExhausted = errors.New("providers: all providers exhausted")

// QuotaExceeded is the dedicated error variant a provider adapter returns
// when the backend rejects a call for quota reasons: HTTP 429, a vendor
// "insufficient quota"/"insufficient credits" code, or an explicit quota
// response (spec.md §4.2). It is the only error class the failover chain
// retries against the next candidate; every other error either bubbles up
// untouched (transient) or terminates the turn (content/validation),
// matching original_source/crates/radium-orchestrator/tests/
// failover_integration_test.rs's test_non_credit_errors_no_failover.
type QuotaExceeded struct {
	Provider string
	Message  string
}

func (e *QuotaExceeded) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: quota exceeded", e.Provider)
	}
	return fmt.Sprintf("%s: quota exceeded: %s", e.Provider, e.Message)
}

// Config tunes the failover chain's circuit-breaker and rate-limit behavior.
type Config struct {
	// CircuitBreakerThreshold is the consecutive-failure count that opens a
	// provider's circuit.
	CircuitBreakerThreshold int
	// CircuitBreakerTimeout is the base reopen interval; each consecutive
	// re-trip doubles it (capped at MaxCircuitBreakerBackoff) via
	// internal/backoff's jittered exponential policy.
	CircuitBreakerTimeout    time.Duration
	MaxCircuitBreakerBackoff time.Duration

	// RateLimit throttles requests per provider (spec.md §5's concurrency
	// model: each engine has its own budget, so one saturated provider
	// doesn't starve its neighbors' tokens).
	RateLimit ratelimit.Config
}

// DefaultConfig returns conservative circuit-breaker/rate-limit defaults
// suitable for a production failover chain.
func DefaultConfig() Config {
	return Config{
		CircuitBreakerThreshold:  3,
		CircuitBreakerTimeout:    30 * time.Second,
		MaxCircuitBreakerBackoff: 5 * time.Minute,
		RateLimit:                ratelimit.DefaultConfig(),
	}
}

// CostTracker records billable duration per engine, used by the failover
// chain to attribute cost after each completed call (SPEC_FULL.md domain
// stack: internal/costconfig supplies the per-engine rates).
type CostTracker interface {
	RecordUsage(engine string, duration time.Duration, usage *radium.TokenUsage)
}

type noopCostTracker struct{}

func (noopCostTracker) RecordUsage(string, time.Duration, *radium.TokenUsage) {}

type providerState struct {
	name             string
	failures         int
	lastFailure      time.Time
	circuitOpen      bool
	circuitOpenAt    time.Time
	consecutiveTrips int
}

// available reports whether s's circuit currently admits calls. A re-tripped
// circuit waits an exponentially growing interval (backoff.ComputeBackoff
// seeded from CircuitBreakerTimeout/MaxCircuitBreakerBackoff) before
// re-admitting, so a provider that keeps failing right after reopening
// backs off further each time instead of being hammered every timeout.
func (s *providerState) available(cfg Config) bool {
	if !s.circuitOpen {
		return true
	}
	policy := backoff.BackoffPolicy{
		InitialMs: float64(cfg.CircuitBreakerTimeout.Milliseconds()),
		MaxMs:     float64(cfg.MaxCircuitBreakerBackoff.Milliseconds()),
		Factor:    2,
		Jitter:    0.1,
	}
	wait := backoff.ComputeBackoff(policy, s.consecutiveTrips)
	return time.Since(s.circuitOpenAt) > wait
}

// Chain is a health-tracking, circuit-breaking, cost-accounting failover
// orchestrator over an ordered list of providers (spec.md §4.2: primary,
// fallback, premium).
type Chain struct {
	mu        sync.RWMutex
	providers []namedProvider
	states    map[string]*providerState
	config    Config
	cost      CostTracker
	limiter   *ratelimit.Limiter
	logger    *slog.Logger
}

type namedProvider struct {
	name string
	impl Provider
}

// Provider is a single backend adapter's narrow contract.
type Provider interface {
	Complete(ctx context.Context, req radium.ModelCallRequest) (radium.ModelResponse, error)
	Name() string
}

// NewChain builds a failover chain from an ordered provider list (first is
// primary). If cost is nil, usage is tracked but discarded.
func NewChain(chainProviders []Provider, config Config, cost CostTracker, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	if cost == nil {
		cost = noopCostTracker{}
	}
	named := make([]namedProvider, len(chainProviders))
	for i, p := range chainProviders {
		named[i] = namedProvider{name: p.Name(), impl: p}
	}
	return &Chain{
		providers: named,
		states:    make(map[string]*providerState),
		config:    config,
		cost:      cost,
		limiter:   ratelimit.NewLimiter(config.RateLimit),
		logger:    logger,
	}
}

// Name identifies the chain itself as a Provider (it composes with
// orchestrator.Provider).
func (c *Chain) Name() string { return "failover-chain" }

// CandidateStatus records one candidate's outcome in a Complete call that
// ended in exhaustion, so the orchestrator can checkpoint "candidate
// progress" per spec.md §4.2/§9.
type CandidateStatus struct {
	Name      string
	Exhausted bool
}

// ExhaustedError is returned by Complete when every candidate reported
// QuotaExceeded (or was unavailable). It unwraps to ErrAllProvidersExhausted
// so callers can keep using errors.Is, while errors.As recovers the
// per-candidate detail needed for the resumable checkpoint.
type ExhaustedError struct {
	Candidates []CandidateStatus
	cause      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: %v", ErrAllProvidersExhausted, e.cause)
}

func (e *ExhaustedError) Unwrap() error { return ErrAllProvidersExhausted }

// Complete tries each provider in order, failing over to the next candidate
// only on QuotaExceeded and skipping providers whose circuit is open. Any
// other error is returned immediately: transient errors bubble up so hooks
// can decide, and content/validation errors terminate the turn (spec.md
// §4.2).
func (c *Chain) Complete(ctx context.Context, req radium.ModelCallRequest) (radium.ModelResponse, error) {
	c.mu.RLock()
	chain := make([]namedProvider, len(c.providers))
	copy(chain, c.providers)
	c.mu.RUnlock()

	var lastErr error
	statuses := make([]CandidateStatus, 0, len(chain))
	for i, np := range chain {
		state := c.stateFor(np.name)
		if !state.available(c.config) {
			statuses = append(statuses, CandidateStatus{Name: np.name, Exhausted: true})
			continue
		}
		if !c.limiter.Allow(np.name) {
			lastErr = fmt.Errorf("providers: %s rate limited", np.name)
			statuses = append(statuses, CandidateStatus{Name: np.name, Exhausted: false})
			continue
		}

		start := time.Now()
		resp, err := np.impl.Complete(ctx, req)
		if err == nil {
			c.recordSuccess(np.name)
			c.cost.RecordUsage(np.name, time.Since(start), resp.Usage)
			return resp, nil
		}

		lastErr = err
		c.recordFailure(np.name, err)

		exhausted := c.shouldFailover(err)
		statuses = append(statuses, CandidateStatus{Name: np.name, Exhausted: exhausted})
		if !exhausted {
			return radium.ModelResponse{}, err
		}
		if i < len(chain)-1 {
			c.logger.Info("provider failover", "from", np.name, "error", err)
		}
	}

	if lastErr == nil {
		return radium.ModelResponse{}, ErrAllProvidersExhausted
	}
	return radium.ModelResponse{}, &ExhaustedError{Candidates: statuses, cause: lastErr}
}

func (c *Chain) stateFor(name string) *providerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.states[name]
	if !ok {
		s = &providerState{name: name}
		c.states[name] = s
	}
	return s
}

func (c *Chain) recordSuccess(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.states[name]
	if s == nil {
		return
	}
	s.failures = 0
	s.circuitOpen = false
	s.consecutiveTrips = 0
}

func (c *Chain) recordFailure(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.states[name]
	if s == nil {
		return
	}
	s.failures++
	s.lastFailure = time.Now()
	if s.failures >= c.config.CircuitBreakerThreshold {
		if !s.circuitOpen {
			s.consecutiveTrips++
		}
		s.circuitOpen = true
		s.circuitOpenAt = time.Now()
		c.logger.Warn("provider circuit opened", "provider", name, "failures", s.failures)
	}
}

// shouldFailover reports whether err is the one error class spec.md §4.2
// fails over on: QuotaExceeded. Everything else is returned to the caller
// as-is instead of being retried against the next candidate.
func (c *Chain) shouldFailover(err error) bool {
	var quota *QuotaExceeded
	return errors.As(err, &quota)
}
