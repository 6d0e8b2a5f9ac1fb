package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/superauth/internal/model"
	appErr "github.com/xxxsen/superauth/internal/pkg/errors"
	"github.com/xxxsen/superauth/internal/pkg/timeutil"
)

type loginFixture struct {
	svc          *LoginService
	users        *memUserStore
	sessionStore *memSessionStore
	whatsapp     *fakeWhatsAppSender
}

func newLoginFixture(t *testing.T) *loginFixture {
	t.Helper()
	users := newMemUserStore()
	require.NoError(t, users.Create(context.Background(), &model.User{
		ID:       "u1",
		Email:    "a@b.com",
		Phone:    "+91111",
		Username: "ABC123",
		Status:   model.UserStatusActive,
		Ctime:    timeutil.NowUnix(),
	}))
	whatsapp := &fakeWhatsAppSender{}
	otps := NewOtpService(newMemRegOtpStore(), newMemLoginOtpStore(), &fakeEmailSender{}, whatsapp, 5)
	sessionStore := newMemSessionStore()
	sessions := NewSessionService(sessionStore, 48, 4)
	return &loginFixture{
		svc:          NewLoginService(users, otps, sessions, 4),
		users:        users,
		sessionStore: sessionStore,
		whatsapp:     whatsapp,
	}
}

func (f *loginFixture) login(t *testing.T) *model.DeviceSession {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.svc.SendOtp(ctx, "ABC123"))
	code := extractCode(t, f.whatsapp.sent[len(f.whatsapp.sent)-1].Body)
	session, err := f.svc.Verify(ctx, "ABC123", code)
	require.NoError(t, err)
	return session
}

func TestLoginService_FullFlow(t *testing.T) {
	f := newLoginFixture(t)
	session := f.login(t)
	require.Equal(t, "ABC123", session.Username)
	require.NotEmpty(t, session.SessionID)
}

func TestLoginService_UnknownUsername(t *testing.T) {
	f := newLoginFixture(t)
	require.ErrorIs(t, f.svc.SendOtp(context.Background(), "NOPE42"), appErr.ErrNotFound)
}

func TestLoginService_PendingUserCannotLogin(t *testing.T) {
	f := newLoginFixture(t)
	require.NoError(t, f.users.Create(context.Background(), &model.User{
		ID:       "u2",
		Email:    "p@b.com",
		Phone:    "+92222",
		Username: "PEN111",
		Status:   model.UserStatusPending,
	}))
	require.ErrorIs(t, f.svc.SendOtp(context.Background(), "PEN111"), appErr.ErrForbidden)
}

func TestLoginService_QuotaBlocksFifthDevice(t *testing.T) {
	f := newLoginFixture(t)
	for i := 0; i < 4; i++ {
		f.login(t)
	}
	require.ErrorIs(t, f.svc.SendOtp(context.Background(), "ABC123"), appErr.ErrQuotaExceeded)
}

func TestLoginService_QuotaPayload(t *testing.T) {
	f := newLoginFixture(t)
	payload := f.svc.QuotaPayload()
	require.Equal(t, "Already logged in on 4 devices", payload.Message)
	require.Equal(t, []string{"logout_oldest_and_continue", "cancel_login"}, payload.Options)
}

func TestLoginService_ContinueWithOldestLogout(t *testing.T) {
	f := newLoginFixture(t)
	sessions := make([]*model.DeviceSession, 0, 4)
	for i := 0; i < 4; i++ {
		sessions = append(sessions, f.login(t))
	}
	// make the first session clearly the oldest
	f.sessionStore.rows[0].Ctime -= 1000

	ctx := context.Background()
	require.NoError(t, f.svc.ContinueWithOldestLogout(ctx, "ABC123"))
	_, err := f.sessionStore.Get(ctx, "ABC123", sessions[0].SessionID)
	require.ErrorIs(t, err, appErr.ErrNotFound)

	code := extractCode(t, f.whatsapp.sent[len(f.whatsapp.sent)-1].Body)
	session, err := f.svc.Verify(ctx, "ABC123", code)
	require.NoError(t, err)
	require.NotEmpty(t, session.SessionID)
}

func TestLoginService_ContinueRechecksQuota(t *testing.T) {
	f := newLoginFixture(t)
	for i := 0; i < 4; i++ {
		f.login(t)
	}
	// a stray extra row: one eviction is not enough to get under the cap
	now := timeutil.NowUnix()
	f.sessionStore.rows = append(f.sessionStore.rows, &model.DeviceSession{
		ID: "extra", Username: "ABC123", SessionID: "extra-session",
		Ctime: now, ExpiresAt: now + 3600,
	})

	sent := len(f.whatsapp.sent)
	err := f.svc.ContinueWithOldestLogout(context.Background(), "ABC123")
	require.ErrorIs(t, err, appErr.ErrQuotaExceeded)
	require.Len(t, f.whatsapp.sent, sent)
}

func TestLoginService_ValidateAndLogout(t *testing.T) {
	f := newLoginFixture(t)
	session := f.login(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Validate(ctx, session.Username, session.SessionID))
	require.NoError(t, f.svc.Logout(ctx, session.Username, session.SessionID))
	require.ErrorIs(t, f.svc.Validate(ctx, session.Username, session.SessionID), appErr.ErrUnauthorized)
}

func TestLoginService_CaseInsensitiveUsername(t *testing.T) {
	f := newLoginFixture(t)
	require.NoError(t, f.svc.SendOtp(context.Background(), "abc123"))
}
