package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/superauth/internal/model"
	"github.com/xxxsen/superauth/internal/pkg/dbutil"
	appErr "github.com/xxxsen/superauth/internal/pkg/errors"
)

var registrationOtpFields = []string{"id", "email", "phone", "email_code_hash", "phone_code_hash", "verified", "ctime", "expires_at"}

type RegistrationOtpRepo struct {
	db *sql.DB
}

func NewRegistrationOtpRepo(db *sql.DB) *RegistrationOtpRepo {
	return &RegistrationOtpRepo{db: db}
}

// Upsert replaces the current OTP for the identity. A re-issue resets the
// verified flag so a consumed or superseded code can never pass verify again.
func (r *RegistrationOtpRepo) Upsert(ctx context.Context, otp *model.RegistrationOtp) error {
	sqlStr := `INSERT INTO registration_otps (id, email, phone, email_code_hash, phone_code_hash, verified, ctime, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (email, phone) DO UPDATE SET
		email_code_hash = EXCLUDED.email_code_hash,
		phone_code_hash = EXCLUDED.phone_code_hash,
		verified = 0,
		ctime = EXCLUDED.ctime,
		expires_at = EXCLUDED.expires_at`
	args := []interface{}{otp.ID, otp.Email, otp.Phone, otp.EmailCodeHash, otp.PhoneCodeHash, otp.Verified, otp.Ctime, otp.ExpiresAt}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *RegistrationOtpRepo) GetByIdentity(ctx context.Context, email, phone string) (*model.RegistrationOtp, error) {
	where := map[string]interface{}{"email": email, "phone": phone}
	sqlStr, args, err := builder.BuildSelect("registration_otps", where, registrationOtpFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var otp model.RegistrationOtp
	if err := rows.Scan(&otp.ID, &otp.Email, &otp.Phone, &otp.EmailCodeHash, &otp.PhoneCodeHash, &otp.Verified, &otp.Ctime, &otp.ExpiresAt); err != nil {
		return nil, err
	}
	return &otp, nil
}

func (r *RegistrationOtpRepo) MarkVerified(ctx context.Context, id string) error {
	where := map[string]interface{}{"id": id}
	update := map[string]interface{}{"verified": 1}
	sqlStr, args, err := builder.BuildUpdate("registration_otps", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

// DeleteExpired removes expired rows that were never verified; verified rows
// are kept for the recently-verified window.
func (r *RegistrationOtpRepo) DeleteExpired(ctx context.Context, now int64) (int64, error) {
	sqlStr := `DELETE FROM registration_otps WHERE expires_at < ? AND verified = 0`
	args := []interface{}{now}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
