package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-portal-sync/internal/bus"
	"github.com/noah-isme/sma-portal-sync/internal/models"
	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
	"github.com/noah-isme/sma-portal-sync/pkg/sealed"
)

type kvStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
}

// SessionInfo describes the held bearer token without revealing it.
type SessionInfo struct {
	Authenticated bool       `json:"authenticated"`
	Subject       string     `json:"subject,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

type persistedSession struct {
	Sealed string `json:"sealed"`
}

// SessionService holds a role's bearer token. The token is sealed before it
// is persisted and dropped whenever the role's unauthorized signal fires.
type SessionService struct {
	role   models.Role
	kv     kvStore
	box    *sealed.Box
	logger *zap.Logger
	now    func() time.Time

	mu    sync.RWMutex
	token string

	unsubscribe func()
}

// NewSessionService constructs the service and subscribes it to channels.
func NewSessionService(kv kvStore, box *sealed.Box, channels *bus.Channels, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SessionService{
		role:   channels.Role,
		kv:     kv,
		box:    box,
		logger: logger.With(zap.String("role", string(channels.Role))),
		now:    time.Now,
	}
	s.unsubscribe = channels.Unauthorized.Subscribe(func(bus.Unauthorized) {
		if err := s.Clear(context.Background()); err != nil {
			s.logger.Error("failed to clear session", zap.Error(err))
		}
	})
	return s
}

// Key is the persisted storage key, e.g. "teacher_session".
func (s *SessionService) Key() string {
	return s.role.KeyPrefix() + "session"
}

// Token implements transport.TokenSource.
func (s *SessionService) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Info reports whether a token is held and, for JWTs, its subject and expiry.
func (s *SessionService) Info() SessionInfo {
	token := s.Token()
	if token == "" {
		return SessionInfo{}
	}
	info := SessionInfo{Authenticated: true}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if sub, err := claims.GetSubject(); err == nil {
			info.Subject = sub
		}
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			t := exp.Time.UTC()
			info.ExpiresAt = &t
		}
	}
	return info
}

// SetToken stores a new bearer token. A JWT whose exp has already passed is
// rejected.
func (s *SessionService) SetToken(ctx context.Context, token string) (SessionInfo, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return SessionInfo{}, appErrors.Clone(appErrors.ErrValidation, "token is required")
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil && !s.now().Before(exp.Time) {
			return SessionInfo{}, appErrors.Clone(appErrors.ErrValidation, "token has already expired")
		}
	}
	sealedToken, err := s.box.SealString(token)
	if err != nil {
		return SessionInfo{}, err
	}
	if err := s.kv.Set(ctx, s.Key(), persistedSession{Sealed: sealedToken}); err != nil {
		return SessionInfo{}, err
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return s.Info(), nil
}

// Load restores a persisted token. A value that cannot be opened is removed.
func (s *SessionService) Load(ctx context.Context) (SessionInfo, error) {
	var stored persistedSession
	if err := s.kv.Get(ctx, s.Key(), &stored); err != nil {
		if errors.Is(err, appErrors.ErrKeyNotFound) {
			return SessionInfo{}, nil
		}
		return SessionInfo{}, err
	}
	token, err := s.box.OpenString(stored.Sealed)
	if err != nil {
		s.logger.Warn("discarding unreadable persisted session", zap.Error(err))
		return SessionInfo{}, s.kv.Delete(ctx, s.Key())
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return s.Info(), nil
}

// Clear forgets the token in memory and in storage.
func (s *SessionService) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return s.kv.Delete(ctx, s.Key())
}

// Close detaches the service from its channels.
func (s *SessionService) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}
