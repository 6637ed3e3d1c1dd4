// Package selection owns the active academic year / quarter / section triple
// of one role.
package selection

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-portal-sync/internal/bus"
	"github.com/noah-isme/sma-portal-sync/internal/models"
	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
)

type kvStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
}

// Store holds a role's Selection, persists it under the role's key prefix and
// broadcasts every replacement on the role's selection channel.
//
// Subscribers receive the complete new value synchronously, before Set or
// Clear returns. They must not call Set or Clear from inside the handler.
type Store struct {
	role      models.Role
	kv        kvStore
	channels  *bus.Channels
	validator *validator.Validate
	logger    *zap.Logger

	// writeMu serialises replace+persist+publish so publish order matches
	// call order.
	writeMu sync.Mutex
	mu      sync.RWMutex
	current models.Selection

	unsubscribe func()
}

// NewStore creates the store for channels.Role and subscribes it to the
// role's unauthorized signal.
func NewStore(kv kvStore, channels *bus.Channels, validate *validator.Validate, logger *zap.Logger) *Store {
	if validate == nil {
		validate = validator.New()
	}
	_ = validate.RegisterValidation("selection_id", validSelectionID)
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		role:      channels.Role,
		kv:        kv,
		channels:  channels,
		validator: validate,
		logger:    logger.With(zap.String("role", string(channels.Role))),
	}
	s.unsubscribe = channels.Unauthorized.Subscribe(s.onUnauthorized)
	return s
}

// Key is the persisted storage key, e.g. "teacher_selection".
func (s *Store) Key() string {
	return s.role.KeyPrefix() + "selection"
}

// Role returns the owning role.
func (s *Store) Role() models.Role {
	return s.role
}

// Current returns a copy of the active selection.
func (s *Store) Current() models.Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Load initialises the store from persistent storage and publishes the
// restored value when one exists.
func (s *Store) Load(ctx context.Context) (models.Selection, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var stored models.Selection
	if err := s.kv.Get(ctx, s.Key(), &stored); err != nil {
		if errors.Is(err, appErrors.ErrKeyNotFound) {
			return s.Current(), nil
		}
		return s.Current(), fmt.Errorf("load %s: %w", s.Key(), err)
	}
	if err := validStored(stored); err != nil {
		s.logger.Warn("discarding malformed persisted selection", zap.Error(err))
		_ = s.kv.Delete(ctx, s.Key())
		return s.Current(), nil
	}
	s.replace(stored)
	if !stored.Empty() {
		s.channels.Selection.Publish(stored)
	}
	return stored, nil
}

// Set merges patch into the active selection, persists the result and
// publishes it. A malformed id rejects the whole patch and the previous value
// stays in place.
func (s *Store) Set(ctx context.Context, patch models.SelectionPatch) (models.Selection, error) {
	if err := s.validator.Struct(patch); err != nil {
		return s.Current(), appErrors.Wrap(err, appErrors.CodeValidation, appErrors.ErrValidation.Status, "invalid selection")
	}
	academicYear, err := parseID("academic_year_id", patch.AcademicYearID)
	if err != nil {
		return s.Current(), err
	}
	quarter, err := parseID("quarter_id", patch.QuarterID)
	if err != nil {
		return s.Current(), err
	}
	section, err := parseID("section_id", patch.SectionID)
	if err != nil {
		return s.Current(), err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	prev := s.Current()
	next := prev
	next.AcademicYearID = academicYear.merge(prev.AcademicYearID)
	next.QuarterID = quarter.merge(prev.QuarterID)
	next.SectionID = section.merge(prev.SectionID)
	next.Version = prev.Version + 1

	if err := s.kv.Set(ctx, s.Key(), next); err != nil {
		return prev, fmt.Errorf("persist %s: %w", s.Key(), err)
	}
	s.replace(next)
	s.logger.Debug("selection changed", zap.String("scope", next.ScopeKey()), zap.Uint64("version", next.Version))
	s.channels.Selection.Publish(next)
	return next, nil
}

// Clear removes the persisted selection and publishes an all-null selection.
func (s *Store) Clear(ctx context.Context) (models.Selection, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.clearLocked(ctx)
}

func (s *Store) clearLocked(ctx context.Context) (models.Selection, error) {
	prev := s.Current()
	next := models.Selection{Version: prev.Version + 1}
	if err := s.kv.Delete(ctx, s.Key()); err != nil {
		return prev, fmt.Errorf("clear %s: %w", s.Key(), err)
	}
	s.replace(next)
	s.logger.Debug("selection cleared", zap.Uint64("version", next.Version))
	s.channels.Selection.Publish(next)
	return next, nil
}

// Close detaches the store from the unauthorized channel.
func (s *Store) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// onUnauthorized clears the selection once; a repeated signal with an already
// empty selection changes nothing.
func (s *Store) onUnauthorized(sig bus.Unauthorized) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.Current().Empty() {
		return
	}
	s.logger.Info("clearing selection after unauthorized signal", zap.Int("status", sig.Status))
	if _, err := s.clearLocked(context.Background()); err != nil {
		s.logger.Error("failed to clear selection", zap.Error(err))
	}
}

func (s *Store) replace(next models.Selection) {
	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
}

// idField is one parsed patch field: untouched, cleared or set.
type idField struct {
	present bool
	value   null.Int64
}

func (f idField) merge(prev null.Int64) null.Int64 {
	if !f.present {
		return prev
	}
	return f.value
}

// validSelectionID accepts an empty string, which clears the field, or an
// unsigned decimal. Range checks happen in parseID.
func validSelectionID(fl validator.FieldLevel) bool {
	raw := strings.TrimSpace(fl.Field().String())
	if raw == "" {
		return true
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseID(field string, raw *string) (idField, error) {
	if raw == nil {
		return idField{}, nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return idField{present: true}, nil
	}
	v, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || v <= 0 {
		e := appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be a positive integer", field))
		e.Details = map[string]interface{}{"field": field, "value": *raw}
		return idField{}, e
	}
	return idField{present: true, value: null.Int64From(v)}, nil
}

func validStored(s models.Selection) error {
	for name, v := range map[string]null.Int64{
		"academic_year_id": s.AcademicYearID,
		"quarter_id":       s.QuarterID,
		"section_id":       s.SectionID,
	} {
		if v.Valid && v.Int64 <= 0 {
			return fmt.Errorf("%s %d is not a valid id", name, v.Int64)
		}
	}
	return nil
}

// Patch builds a SelectionPatch from plain values, for callers that already
// hold integers.
func Patch(academicYearID, quarterID, sectionID int64) models.SelectionPatch {
	str := func(v int64) *string {
		s := strconv.FormatInt(v, 10)
		return &s
	}
	return models.SelectionPatch{AcademicYearID: str(academicYearID), QuarterID: str(quarterID), SectionID: str(sectionID)}
}
