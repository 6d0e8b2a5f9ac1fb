package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/superauth/internal/model"
	"github.com/xxxsen/superauth/internal/pkg/dbutil"
	appErr "github.com/xxxsen/superauth/internal/pkg/errors"
)

var loginOtpFields = []string{"id", "username", "phone", "code_hash", "verified", "ctime", "expires_at"}

type LoginOtpRepo struct {
	db *sql.DB
}

func NewLoginOtpRepo(db *sql.DB) *LoginOtpRepo {
	return &LoginOtpRepo{db: db}
}

func (r *LoginOtpRepo) Upsert(ctx context.Context, otp *model.LoginOtp) error {
	sqlStr := `INSERT INTO login_otps (id, username, phone, code_hash, verified, ctime, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (username) DO UPDATE SET
		phone = EXCLUDED.phone,
		code_hash = EXCLUDED.code_hash,
		verified = 0,
		ctime = EXCLUDED.ctime,
		expires_at = EXCLUDED.expires_at`
	args := []interface{}{otp.ID, otp.Username, otp.Phone, otp.CodeHash, otp.Verified, otp.Ctime, otp.ExpiresAt}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *LoginOtpRepo) GetByUsername(ctx context.Context, username string) (*model.LoginOtp, error) {
	where := map[string]interface{}{"username": username}
	sqlStr, args, err := builder.BuildSelect("login_otps", where, loginOtpFields)
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
	var otp model.LoginOtp
	if err := rows.Scan(&otp.ID, &otp.Username, &otp.Phone, &otp.CodeHash, &otp.Verified, &otp.Ctime, &otp.ExpiresAt); err != nil {
		return nil, err
	}
	return &otp, nil
}

func (r *LoginOtpRepo) MarkVerified(ctx context.Context, id string) error {
	where := map[string]interface{}{"id": id}
	update := map[string]interface{}{"verified": 1}
	sqlStr, args, err := builder.BuildUpdate("login_otps", where, update)
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

func (r *LoginOtpRepo) DeleteExpired(ctx context.Context, now int64) (int64, error) {
	sqlStr := `DELETE FROM login_otps WHERE expires_at < ?`
	args := []interface{}{now}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
