package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/superauth/internal/model"
	"github.com/xxxsen/superauth/internal/pkg/dbutil"
	appErr "github.com/xxxsen/superauth/internal/pkg/errors"
)

type UsernameRepo struct {
	db *sql.DB
}

func NewUsernameRepo(db *sql.DB) *UsernameRepo {
	return &UsernameRepo{db: db}
}

func (r *UsernameRepo) Exists(ctx context.Context, username string) (bool, error) {
	where := map[string]interface{}{"username": username}
	sqlStr, args, err := builder.BuildSelect("usernames", where, []string{"count(1)"})
	if err != nil {
		return false, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var count int64
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create reserves the username. A concurrent reservation of the same name
// surfaces as ErrConflict via the unique key.
func (r *UsernameRepo) Create(ctx context.Context, record *model.Username) error {
	data := map[string]interface{}{
		"username": record.Username,
		"assigned": record.Assigned,
		"ctime":    record.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("usernames", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *UsernameRepo) MarkAssigned(ctx context.Context, username string) error {
	where := map[string]interface{}{"username": username}
	update := map[string]interface{}{"assigned": 1}
	sqlStr, args, err := builder.BuildUpdate("usernames", where, update)
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
