package service

import (
	"context"
	"strings"

	"github.com/xxxsen/superauth/internal/model"
	appErr "github.com/xxxsen/superauth/internal/pkg/errors"
	"github.com/xxxsen/superauth/internal/pkg/timeutil"
)

type sessionStore interface {
	CountActive(ctx context.Context, username string, now int64) (int, error)
	CreateUnderCap(ctx context.Context, session *model.DeviceSession, cap int, now int64) error
	Get(ctx context.Context, username, sessionID string) (*model.DeviceSession, error)
	Refresh(ctx context.Context, username, sessionID string, now, expiresAt int64) error
	DeleteOldest(ctx context.Context, username string) error
	Delete(ctx context.Context, username, sessionID string) error
	DeleteExpired(ctx context.Context, now int64) (int64, error)
}

// SessionService owns the per-user device quota and the sliding expiry
// window.
type SessionService struct {
	store      sessionStore
	ttlSeconds int64
	maxActive  int
}

func NewSessionService(store sessionStore, ttlHours, maxActive int) *SessionService {
	return &SessionService{
		store:      store,
		ttlSeconds: int64(ttlHours) * 3600,
		maxActive:  maxActive,
	}
}

func (s *SessionService) CountActive(ctx context.Context, username string) (int, error) {
	return s.store.CountActive(ctx, username, timeutil.NowUnix())
}

// Create mints a new session token for the username. ErrQuotaExceeded means
// the device cap is already reached.
func (s *SessionService) Create(ctx context.Context, username string) (*model.DeviceSession, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, appErr.ErrInvalid
	}
	now := timeutil.NowUnix()
	session := &model.DeviceSession{
		ID:        newID(),
		Username:  username,
		SessionID: newToken(),
		Ctime:     now,
		ExpiresAt: now + s.ttlSeconds,
	}
	if err := s.store.CreateUnderCap(ctx, session, s.maxActive, now); err != nil {
		return nil, err
	}
	return session, nil
}

// ValidateAndRefresh checks the session and, when still live, slides its
// expiry forward by the full TTL. An expired row is rejected even if the
// sweeper has not removed it yet.
func (s *SessionService) ValidateAndRefresh(ctx context.Context, username, sessionID string) error {
	username = strings.TrimSpace(username)
	sessionID = strings.TrimSpace(sessionID)
	if username == "" || sessionID == "" {
		return appErr.ErrUnauthorized
	}
	session, err := s.store.Get(ctx, username, sessionID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return appErr.ErrUnauthorized
		}
		return err
	}
	now := timeutil.NowUnix()
	if session.ExpiresAt <= now {
		return appErr.ErrUnauthorized
	}
	return s.store.Refresh(ctx, username, sessionID, now, now+s.ttlSeconds)
}

// EvictOldest drops the least recently refreshed session for the username.
func (s *SessionService) EvictOldest(ctx context.Context, username string) error {
	return s.store.DeleteOldest(ctx, username)
}

func (s *SessionService) Delete(ctx context.Context, username, sessionID string) error {
	return s.store.Delete(ctx, username, sessionID)
}

func (s *SessionService) DeleteExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx, timeutil.NowUnix())
}
