package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/superauth/internal/model"
	"github.com/xxxsen/superauth/internal/pkg/timeutil"
)

func TestRegistrationOtpRepo_UpsertResetsVerified(t *testing.T) {
	conn := openTestDB(t)
	truncate(t, conn, "registration_otps")
	otps := NewRegistrationOtpRepo(conn)
	ctx := context.Background()
	now := timeutil.NowUnix()

	first := &model.RegistrationOtp{
		ID: "o1", Email: "a@b.com", Phone: "+91111",
		EmailCodeHash: "h1", PhoneCodeHash: "h2",
		Ctime: now, ExpiresAt: now + 300,
	}
	require.NoError(t, otps.Upsert(ctx, first))
	require.NoError(t, otps.MarkVerified(ctx, "o1"))

	got, err := otps.GetByIdentity(ctx, "a@b.com", "+91111")
	require.NoError(t, err)
	require.Equal(t, 1, got.Verified)

	// re-issue keeps a single row per identity and resets the flag
	second := &model.RegistrationOtp{
		ID: "o2", Email: "a@b.com", Phone: "+91111",
		EmailCodeHash: "h3", PhoneCodeHash: "h4",
		Ctime: now + 10, ExpiresAt: now + 310,
	}
	require.NoError(t, otps.Upsert(ctx, second))
	got, err = otps.GetByIdentity(ctx, "a@b.com", "+91111")
	require.NoError(t, err)
	require.Equal(t, 0, got.Verified)
	require.Equal(t, "h3", got.EmailCodeHash)
}

func TestRegistrationOtpRepo_DeleteExpiredKeepsVerified(t *testing.T) {
	conn := openTestDB(t)
	truncate(t, conn, "registration_otps")
	otps := NewRegistrationOtpRepo(conn)
	ctx := context.Background()
	now := timeutil.NowUnix()

	expired := &model.RegistrationOtp{
		ID: "o1", Email: "a@b.com", Phone: "+91111",
		EmailCodeHash: "h", PhoneCodeHash: "h",
		Ctime: now - 600, ExpiresAt: now - 300,
	}
	verified := &model.RegistrationOtp{
		ID: "o2", Email: "c@d.com", Phone: "+92222",
		EmailCodeHash: "h", PhoneCodeHash: "h",
		Ctime: now - 600, ExpiresAt: now - 300,
	}
	require.NoError(t, otps.Upsert(ctx, expired))
	require.NoError(t, otps.Upsert(ctx, verified))
	require.NoError(t, otps.MarkVerified(ctx, "o2"))

	removed, err := otps.DeleteExpired(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	// the verified row survives for the recently-verified check
	_, err = otps.GetByIdentity(ctx, "c@d.com", "+92222")
	require.NoError(t, err)
}
