package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/superauth/internal/model"
	appErr "github.com/xxxsen/superauth/internal/pkg/errors"
)

// QuotaConflict is the payload returned when a login would exceed the device
// cap, offering the caller its two ways forward.
type QuotaConflict struct {
	Message string   `json:"message"`
	Options []string `json:"options"`
}

const (
	QuotaOptionLogoutOldest = "logout_oldest_and_continue"
	QuotaOptionCancel       = "cancel_login"
)

// LoginService runs the OTP login flow and the device quota resolution
// around it.
type LoginService struct {
	users     userStore
	otps      *OtpService
	sessions  *SessionService
	maxActive int
}

func NewLoginService(users userStore, otps *OtpService, sessions *SessionService, maxActive int) *LoginService {
	return &LoginService{users: users, otps: otps, sessions: sessions, maxActive: maxActive}
}

// QuotaPayload builds the conflict body for a quota-blocked login.
func (s *LoginService) QuotaPayload() QuotaConflict {
	return QuotaConflict{
		Message: fmt.Sprintf("Already logged in on %d devices", s.maxActive),
		Options: []string{QuotaOptionLogoutOldest, QuotaOptionCancel},
	}
}

// SendOtp starts a login. The device quota is checked up front so the user
// is asked to resolve it before a code is spent.
func (s *LoginService) SendOtp(ctx context.Context, username string) error {
	user, err := s.activeUser(ctx, username)
	if err != nil {
		return err
	}
	count, err := s.sessions.CountActive(ctx, user.Username)
	if err != nil {
		return err
	}
	if count >= s.maxActive {
		return appErr.ErrQuotaExceeded
	}
	return s.otps.IssueLogin(ctx, user.Username, user.Phone)
}

// Verify consumes the login code and mints the device session. A concurrent
// login can still win the last slot, in which case ErrQuotaExceeded comes
// back from the session insert itself.
func (s *LoginService) Verify(ctx context.Context, username, code string) (*model.DeviceSession, error) {
	user, err := s.activeUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.otps.VerifyLogin(ctx, user.Username, code); err != nil {
		return nil, err
	}
	return s.sessions.Create(ctx, user.Username)
}

// ContinueWithOldestLogout resolves a quota conflict by evicting the least
// recently refreshed session and restarting the login, quota check included.
func (s *LoginService) ContinueWithOldestLogout(ctx context.Context, username string) error {
	user, err := s.activeUser(ctx, username)
	if err != nil {
		return err
	}
	if err := s.sessions.EvictOldest(ctx, user.Username); err != nil {
		return err
	}
	return s.SendOtp(ctx, user.Username)
}

// Validate refreshes the session for a request passing through the gateway.
func (s *LoginService) Validate(ctx context.Context, username, sessionID string) error {
	return s.sessions.ValidateAndRefresh(ctx, username, sessionID)
}

func (s *LoginService) Logout(ctx context.Context, username, sessionID string) error {
	username = strings.TrimSpace(username)
	sessionID = strings.TrimSpace(sessionID)
	if username == "" || sessionID == "" {
		return appErr.ErrInvalid
	}
	return s.sessions.Delete(ctx, username, sessionID)
}

func (s *LoginService) activeUser(ctx context.Context, username string) (*model.User, error) {
	username = strings.ToUpper(strings.TrimSpace(username))
	if username == "" {
		return nil, appErr.ErrInvalid
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.Status != model.UserStatusActive {
		return nil, appErr.ErrForbidden
	}
	return user, nil
}
