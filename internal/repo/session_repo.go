package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/superauth/internal/model"
	"github.com/xxxsen/superauth/internal/pkg/dbutil"
	appErr "github.com/xxxsen/superauth/internal/pkg/errors"
)

var sessionFields = []string{"id", "username", "session_id", "ctime", "expires_at"}

type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) CountActive(ctx context.Context, username string, now int64) (int, error) {
	sqlStr := `SELECT count(1) FROM user_sessions WHERE username = ? AND expires_at > ?`
	args := []interface{}{username, now}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var count int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// CreateUnderCap inserts the session only while the number of unexpired
// sessions for the username stays below cap. The count and the insert run in
// one statement so two concurrent logins cannot both sneak past the quota.
// Returns ErrQuotaExceeded when the insert is suppressed.
func (r *SessionRepo) CreateUnderCap(ctx context.Context, session *model.DeviceSession, cap int, now int64) error {
	sqlStr := `INSERT INTO user_sessions (id, username, session_id, ctime, expires_at)
		SELECT ?, ?, ?, ?, ?
		WHERE (SELECT count(1) FROM user_sessions WHERE username = ? AND expires_at > ?) < ?`
	args := []interface{}{session.ID, session.Username, session.SessionID, session.Ctime, session.ExpiresAt, session.Username, now, cap}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrQuotaExceeded
	}
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, username, sessionID string) (*model.DeviceSession, error) {
	where := map[string]interface{}{"username": username, "session_id": sessionID}
	sqlStr, args, err := builder.BuildSelect("user_sessions", where, sessionFields)
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
	var session model.DeviceSession
	if err := rows.Scan(&session.ID, &session.Username, &session.SessionID, &session.Ctime, &session.ExpiresAt); err != nil {
		return nil, err
	}
	return &session, nil
}

// Refresh slides the expiry window and resets ctime, making the session the
// newest one for eviction ordering.
func (r *SessionRepo) Refresh(ctx context.Context, username, sessionID string, now, expiresAt int64) error {
	where := map[string]interface{}{"username": username, "session_id": sessionID}
	update := map[string]interface{}{"ctime": now, "expires_at": expiresAt}
	sqlStr, args, err := builder.BuildUpdate("user_sessions", where, update)
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

// DeleteOldest removes the single row with the smallest ctime for the user.
func (r *SessionRepo) DeleteOldest(ctx context.Context, username string) error {
	sqlStr := `DELETE FROM user_sessions WHERE id = (
		SELECT id FROM user_sessions WHERE username = ? ORDER BY ctime ASC LIMIT 1)`
	args := []interface{}{username}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *SessionRepo) Delete(ctx context.Context, username, sessionID string) error {
	where := map[string]interface{}{"username": username, "session_id": sessionID}
	sqlStr, args, err := builder.BuildDelete("user_sessions", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *SessionRepo) DeleteExpired(ctx context.Context, now int64) (int64, error) {
	sqlStr := `DELETE FROM user_sessions WHERE expires_at < ?`
	args := []interface{}{now}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
