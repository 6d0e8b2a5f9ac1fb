package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/superauth/internal/model"
	"github.com/xxxsen/superauth/internal/pkg/dbutil"
	appErr "github.com/xxxsen/superauth/internal/pkg/errors"
)

var txnFields = []string{
	"id", "email", "phone", "username", "fancy", "fancy_type",
	"base_price", "fancy_price", "total_price",
	"payment_id", "reference_id", "status", "ctime", "mtime",
}

type TxnRepo struct {
	db *sql.DB
}

func NewTxnRepo(db *sql.DB) *TxnRepo {
	return &TxnRepo{db: db}
}

func (r *TxnRepo) Create(ctx context.Context, txn *model.PaymentTxn) error {
	data := map[string]interface{}{
		"id":           txn.ID,
		"email":        txn.Email,
		"phone":        txn.Phone,
		"username":     txn.Username,
		"fancy":        txn.Fancy,
		"fancy_type":   txn.FancyType,
		"base_price":   txn.BasePrice,
		"fancy_price":  txn.FancyPrice,
		"total_price":  txn.TotalPrice,
		"payment_id":   txn.PaymentID,
		"reference_id": txn.ReferenceID,
		"status":       txn.Status,
		"ctime":        txn.Ctime,
		"mtime":        txn.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("payment_txns", []map[string]interface{}{data})
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

func (r *TxnRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.PaymentTxn, error) {
	sqlStr, args, err := builder.BuildSelect("payment_txns", where, txnFields)
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
	var txn model.PaymentTxn
	if err := rows.Scan(&txn.ID, &txn.Email, &txn.Phone, &txn.Username, &txn.Fancy, &txn.FancyType,
		&txn.BasePrice, &txn.FancyPrice, &txn.TotalPrice,
		&txn.PaymentID, &txn.ReferenceID, &txn.Status, &txn.Ctime, &txn.Mtime); err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *TxnRepo) GetByPaymentID(ctx context.Context, paymentID string) (*model.PaymentTxn, error) {
	return r.getOne(ctx, map[string]interface{}{"payment_id": paymentID})
}

func (r *TxnRepo) GetByReferenceID(ctx context.Context, referenceID string) (*model.PaymentTxn, error) {
	return r.getOne(ctx, map[string]interface{}{"reference_id": referenceID})
}

// GetCompleted looks up a settled purchase of the username by the identity.
func (r *TxnRepo) GetCompleted(ctx context.Context, email, username string) (*model.PaymentTxn, error) {
	return r.getOne(ctx, map[string]interface{}{
		"email":    email,
		"username": username,
		"status":   model.PaymentStatusCompleted,
	})
}

func (r *TxnRepo) UpdateStatus(ctx context.Context, id, status string, mtime int64) error {
	where := map[string]interface{}{"id": id}
	update := map[string]interface{}{"status": status, "mtime": mtime}
	sqlStr, args, err := builder.BuildUpdate("payment_txns", where, update)
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
