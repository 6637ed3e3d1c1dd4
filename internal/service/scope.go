package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-portal-sync/internal/bus"
	"github.com/noah-isme/sma-portal-sync/internal/models"
	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
)

// Snapshot is the state a feature container exposes. It is a copy; the
// container replaces its own snapshot wholesale and never hands out a
// reference to it.
type Snapshot[T any] struct {
	Selection models.Selection `json:"selection"`
	Data      T                `json:"data"`
	Loaded    bool             `json:"loaded"`
	Loading   bool             `json:"loading"`
	Error     *appErrors.Error `json:"error,omitempty"`
	UpdatedAt *time.Time       `json:"updated_at,omitempty"`
}

type notifier interface {
	Error(source string, err error)
	Success(source, message string)
}

// ScopeOptions carries the collaborators shared by every container.
type ScopeOptions struct {
	Logger   *zap.Logger
	Metrics  *MetricsService
	Notifier notifier
	Now      func() time.Time
	// Writes receives a signal after a container writes its inputs remotely.
	Writes   *bus.Topic[bus.Write]
}

// Scope is the selection-scoped fetch helper every container is built on. It
// tracks the active selection and a generation counter. Each fetch captures
// the generation it started under; a result that arrives after the generation
// moved on is discarded with appErrors.ErrStale instead of overwriting newer
// state.
type Scope[T any] struct {
	name     string
	role     models.Role
	initial  func() T
	logger   *zap.Logger
	metrics  *MetricsService
	notifier notifier
	now      func() time.Time
	writes   *bus.Topic[bus.Write]

	mu         sync.RWMutex
	generation uint64
	inFlight   int
	state      Snapshot[T]
}

// NewScope builds a scope named after its container.
func NewScope[T any](name string, role models.Role, initial func() T, opts ScopeOptions) *Scope[T] {
	if initial == nil {
		initial = func() T {
			var zero T
			return zero
		}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Scope[T]{
		name:     name,
		role:     role,
		initial:  initial,
		logger:   opts.Logger.With(zap.String("container", name), zap.String("role", string(role))),
		metrics:  opts.Metrics,
		notifier: opts.Notifier,
		now:      opts.Now,
		writes:   opts.Writes,
	}
	s.state = Snapshot[T]{Data: initial()}
	return s
}

// Name returns the container name.
func (s *Scope[T]) Name() string { return s.name }

// Snapshot returns a copy of the current state.
func (s *Scope[T]) Snapshot() Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.state
	snap.Loading = s.inFlight > 0
	return snap
}

// Selection returns the selection the scope is tracking.
func (s *Scope[T]) Selection() models.Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Selection
}

// Attach subscribes the scope to a role's channels. A selection change resets
// derived state to initial before onSelection runs; an unauthorized signal
// resets it and runs onUnauthorized. The returned function detaches both.
func (s *Scope[T]) Attach(channels *bus.Channels, onSelection func(models.Selection), onUnauthorized func()) func() {
	stopSel := channels.Selection.Subscribe(func(sel models.Selection) {
		s.SetSelection(sel)
		if onSelection != nil {
			onSelection(sel)
		}
	})
	stopAuth := channels.Unauthorized.Subscribe(func(bus.Unauthorized) {
		s.Reset("unauthorized")
		if onUnauthorized != nil {
			onUnauthorized()
		}
	})
	return func() {
		stopSel()
		stopAuth()
	}
}

// SetSelection adopts sel and drops state derived from the previous one. A
// publish that does not change the triple keeps the state.
func (s *Scope[T]) SetSelection(sel models.Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Selection.SameScope(sel) {
		s.state.Selection = sel
		return
	}
	s.generation++
	s.state = Snapshot[T]{Selection: sel, Data: s.initial()}
	s.metrics.RecordReset(string(s.role), s.name, "selection")
}

// Reset returns the scope to its initial state, keeping the selection, and
// invalidates every in-flight fetch.
func (s *Scope[T]) Reset(cause string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.state = Snapshot[T]{Selection: s.state.Selection, Data: s.initial()}
	s.metrics.RecordReset(string(s.role), s.name, cause)
}

// Wrote announces that the container's inputs for sel changed remotely.
func (s *Scope[T]) Wrote(sel models.Selection) {
	if s.writes == nil {
		return
	}
	s.writes.Publish(bus.Write{Container: s.name, Selection: sel})
}

// Requirement checks a selection before any network call.
type Requirement func(models.Selection) error

// Fetch runs one selection-scoped load: it checks req against the current
// selection, calls load outside the lock and commits the result only if the
// selection did not change meanwhile.
func (s *Scope[T]) Fetch(ctx context.Context, req Requirement, load func(context.Context, models.Selection) (T, error)) (Snapshot[T], error) {
	s.mu.Lock()
	sel := s.state.Selection
	gen := s.generation
	if req != nil {
		if err := req(sel); err != nil {
			s.state.Error = appErrors.FromError(err)
			s.mu.Unlock()
			s.notify(err)
			return s.Snapshot(), err
		}
	}
	s.inFlight++
	s.mu.Unlock()

	start := time.Now()
	data, err := load(ctx, sel)
	return s.commit(gen, start, data, err)
}

// Mutate applies fn to the committed data when the selection is still the one
// the caller observed in expected. It backs local writes after a remote call
// succeeded.
func (s *Scope[T]) Mutate(expected models.Selection, fn func(T) (T, error)) (Snapshot[T], error) {
	s.mu.Lock()
	if !s.state.Selection.SameScope(expected) {
		s.mu.Unlock()
		s.metrics.RecordStaleDiscard(string(s.role), s.name)
		return s.Snapshot(), appErrors.ErrStale
	}
	next, err := fn(s.state.Data)
	if err != nil {
		s.mu.Unlock()
		return s.Snapshot(), err
	}
	now := s.now().UTC()
	s.state.Data = next
	s.state.Loaded = true
	s.state.Error = nil
	s.state.UpdatedAt = &now
	s.mu.Unlock()
	return s.Snapshot(), nil
}

func (s *Scope[T]) commit(gen uint64, start time.Time, data T, err error) (Snapshot[T], error) {
	s.mu.Lock()
	s.inFlight--
	if appErrors.Is(err, appErrors.CodeUnauthorized) {
		// Subscribed scopes were already reset by the unauthorized signal,
		// which also moved the generation on.
		if s.generation == gen {
			s.generation++
			s.state = Snapshot[T]{Selection: s.state.Selection, Data: s.initial()}
		}
		s.mu.Unlock()
		s.metrics.ObserveRefresh(string(s.role), s.name, "unauthorized", time.Since(start))
		return s.Snapshot(), err
	}
	if s.generation != gen {
		s.mu.Unlock()
		s.metrics.RecordStaleDiscard(string(s.role), s.name)
		s.metrics.ObserveRefresh(string(s.role), s.name, "stale", time.Since(start))
		s.logger.Debug("discarding stale response")
		return s.Snapshot(), appErrors.ErrStale
	}

	switch {
	case err == nil:
		now := s.now().UTC()
		s.state.Data = data
		s.state.Loaded = true
		s.state.Error = nil
		s.state.UpdatedAt = &now
		s.mu.Unlock()
		s.metrics.ObserveRefresh(string(s.role), s.name, "ok", time.Since(start))
		return s.Snapshot(), nil
	case errors.Is(err, context.Canceled):
		s.mu.Unlock()
		s.metrics.ObserveRefresh(string(s.role), s.name, "canceled", time.Since(start))
		return s.Snapshot(), err
	default:
		s.state.Data = s.initial()
		s.state.Loaded = false
		s.state.Error = appErrors.FromError(err)
		s.mu.Unlock()
		s.metrics.ObserveRefresh(string(s.role), s.name, "error", time.Since(start))
		s.notify(err)
		return s.Snapshot(), err
	}
}

func (s *Scope[T]) notify(err error) {
	s.logger.Warn("container fetch failed", zap.Error(err))
	if s.notifier != nil {
		s.notifier.Error(s.name, err)
	}
}

// RequireSection rejects a selection without a section.
func RequireSection(sel models.Selection) error {
	if !sel.SectionID.Valid {
		return appErrors.Clone(appErrors.ErrValidation, "section_id is required")
	}
	return nil
}

// RequireFull rejects a selection missing any of the three ids.
func RequireFull(sel models.Selection) error {
	switch {
	case !sel.AcademicYearID.Valid:
		return appErrors.Clone(appErrors.ErrValidation, "academic_year_id is required")
	case !sel.QuarterID.Valid:
		return appErrors.Clone(appErrors.ErrValidation, "quarter_id is required")
	default:
		return RequireSection(sel)
	}
}
