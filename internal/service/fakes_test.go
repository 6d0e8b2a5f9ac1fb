package service

import (
	"context"
	"sort"

	"github.com/xxxsen/superauth/internal/model"
	appErr "github.com/xxxsen/superauth/internal/pkg/errors"
)

type memRegOtpStore struct {
	rows map[string]*model.RegistrationOtp
}

func newMemRegOtpStore() *memRegOtpStore {
	return &memRegOtpStore{rows: make(map[string]*model.RegistrationOtp)}
}

func (s *memRegOtpStore) key(email, phone string) string { return email + "|" + phone }

func (s *memRegOtpStore) Upsert(ctx context.Context, otp *model.RegistrationOtp) error {
	clone := *otp
	clone.Verified = 0
	s.rows[s.key(otp.Email, otp.Phone)] = &clone
	return nil
}

func (s *memRegOtpStore) GetByIdentity(ctx context.Context, email, phone string) (*model.RegistrationOtp, error) {
	otp, ok := s.rows[s.key(email, phone)]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	clone := *otp
	return &clone, nil
}

func (s *memRegOtpStore) MarkVerified(ctx context.Context, id string) error {
	for _, otp := range s.rows {
		if otp.ID == id {
			otp.Verified = 1
			return nil
		}
	}
	return appErr.ErrNotFound
}

type memLoginOtpStore struct {
	rows map[string]*model.LoginOtp
}

func newMemLoginOtpStore() *memLoginOtpStore {
	return &memLoginOtpStore{rows: make(map[string]*model.LoginOtp)}
}

func (s *memLoginOtpStore) Upsert(ctx context.Context, otp *model.LoginOtp) error {
	clone := *otp
	clone.Verified = 0
	s.rows[otp.Username] = &clone
	return nil
}

func (s *memLoginOtpStore) GetByUsername(ctx context.Context, username string) (*model.LoginOtp, error) {
	otp, ok := s.rows[username]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	clone := *otp
	return &clone, nil
}

func (s *memLoginOtpStore) MarkVerified(ctx context.Context, id string) error {
	for _, otp := range s.rows {
		if otp.ID == id {
			otp.Verified = 1
			return nil
		}
	}
	return appErr.ErrNotFound
}

type memSessionStore struct {
	rows []*model.DeviceSession
}

func newMemSessionStore() *memSessionStore { return &memSessionStore{} }

func (s *memSessionStore) CountActive(ctx context.Context, username string, now int64) (int, error) {
	count := 0
	for _, row := range s.rows {
		if row.Username == username && row.ExpiresAt > now {
			count++
		}
	}
	return count, nil
}

func (s *memSessionStore) CreateUnderCap(ctx context.Context, session *model.DeviceSession, cap int, now int64) error {
	count, _ := s.CountActive(ctx, session.Username, now)
	if count >= cap {
		return appErr.ErrQuotaExceeded
	}
	clone := *session
	s.rows = append(s.rows, &clone)
	return nil
}

func (s *memSessionStore) Get(ctx context.Context, username, sessionID string) (*model.DeviceSession, error) {
	for _, row := range s.rows {
		if row.Username == username && row.SessionID == sessionID {
			clone := *row
			return &clone, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (s *memSessionStore) Refresh(ctx context.Context, username, sessionID string, now, expiresAt int64) error {
	for _, row := range s.rows {
		if row.Username == username && row.SessionID == sessionID {
			row.Ctime = now
			row.ExpiresAt = expiresAt
			return nil
		}
	}
	return appErr.ErrNotFound
}

func (s *memSessionStore) DeleteOldest(ctx context.Context, username string) error {
	var mine []*model.DeviceSession
	for _, row := range s.rows {
		if row.Username == username {
			mine = append(mine, row)
		}
	}
	if len(mine) == 0 {
		return nil
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].Ctime < mine[j].Ctime })
	return s.Delete(ctx, username, mine[0].SessionID)
}

func (s *memSessionStore) Delete(ctx context.Context, username, sessionID string) error {
	kept := s.rows[:0]
	for _, row := range s.rows {
		if row.Username == username && row.SessionID == sessionID {
			continue
		}
		kept = append(kept, row)
	}
	s.rows = kept
	return nil
}

func (s *memSessionStore) DeleteExpired(ctx context.Context, now int64) (int64, error) {
	var removed int64
	kept := s.rows[:0]
	for _, row := range s.rows {
		if row.ExpiresAt < now {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	s.rows = kept
	return removed, nil
}

type memUserStore struct {
	rows map[string]*model.User
}

func newMemUserStore() *memUserStore { return &memUserStore{rows: make(map[string]*model.User)} }

func (s *memUserStore) Create(ctx context.Context, user *model.User) error {
	for _, row := range s.rows {
		if row.Email == user.Email || row.Phone == user.Phone {
			return appErr.ErrConflict
		}
	}
	clone := *user
	s.rows[user.ID] = &clone
	return nil
}

func (s *memUserStore) find(match func(*model.User) bool) (*model.User, error) {
	for _, row := range s.rows {
		if match(row) {
			clone := *row
			return &clone, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (s *memUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.Email == email })
}

func (s *memUserStore) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.Phone == phone })
}

func (s *memUserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.Username == username })
}

func (s *memUserStore) Activate(ctx context.Context, userID, username string) error {
	row, ok := s.rows[userID]
	if !ok {
		return appErr.ErrNotFound
	}
	row.Username = username
	row.Status = model.UserStatusActive
	return nil
}

func (s *memUserStore) ExistsActiveUsername(ctx context.Context, username string) (bool, error) {
	for _, row := range s.rows {
		if row.Username == username && row.Status == model.UserStatusActive {
			return true, nil
		}
	}
	return false, nil
}

type memUsernameStore struct {
	rows map[string]*model.Username
}

func newMemUsernameStore() *memUsernameStore {
	return &memUsernameStore{rows: make(map[string]*model.Username)}
}

func (s *memUsernameStore) Exists(ctx context.Context, username string) (bool, error) {
	_, ok := s.rows[username]
	return ok, nil
}

func (s *memUsernameStore) Create(ctx context.Context, record *model.Username) error {
	if _, ok := s.rows[record.Username]; ok {
		return appErr.ErrConflict
	}
	clone := *record
	s.rows[record.Username] = &clone
	return nil
}

func (s *memUsernameStore) MarkAssigned(ctx context.Context, username string) error {
	row, ok := s.rows[username]
	if !ok {
		return appErr.ErrNotFound
	}
	row.Assigned = 1
	return nil
}

type memTxnStore struct {
	rows map[string]*model.PaymentTxn
}

func newMemTxnStore() *memTxnStore { return &memTxnStore{rows: make(map[string]*model.PaymentTxn)} }

func (s *memTxnStore) Create(ctx context.Context, txn *model.PaymentTxn) error {
	clone := *txn
	s.rows[txn.ID] = &clone
	return nil
}

func (s *memTxnStore) find(match func(*model.PaymentTxn) bool) (*model.PaymentTxn, error) {
	for _, row := range s.rows {
		if match(row) {
			clone := *row
			return &clone, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (s *memTxnStore) GetByPaymentID(ctx context.Context, paymentID string) (*model.PaymentTxn, error) {
	return s.find(func(t *model.PaymentTxn) bool { return t.PaymentID == paymentID })
}

func (s *memTxnStore) GetByReferenceID(ctx context.Context, referenceID string) (*model.PaymentTxn, error) {
	return s.find(func(t *model.PaymentTxn) bool { return t.ReferenceID == referenceID })
}

func (s *memTxnStore) GetCompleted(ctx context.Context, email, username string) (*model.PaymentTxn, error) {
	return s.find(func(t *model.PaymentTxn) bool {
		return t.Email == email && t.Username == username && t.Status == model.PaymentStatusCompleted
	})
}

func (s *memTxnStore) UpdateStatus(ctx context.Context, id, status string, mtime int64) error {
	row, ok := s.rows[id]
	if !ok {
		return appErr.ErrNotFound
	}
	row.Status = status
	row.Mtime = mtime
	return nil
}

type sentMessage struct {
	To   string
	Body string
}

type fakeEmailSender struct {
	sent []sentMessage
	err  error
}

func (s *fakeEmailSender) Send(to, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMessage{To: to, Body: body})
	return nil
}

type fakeWhatsAppSender struct {
	sent []sentMessage
	err  error
}

func (s *fakeWhatsAppSender) Send(to, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMessage{To: to, Body: body})
	return nil
}

type fakeLinkCreator struct {
	err   error
	calls []map[string]interface{}
}

func (f *fakeLinkCreator) Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, data)
	return map[string]interface{}{
		"id":        "plink_test123",
		"short_url": "https://pay.test/plink_test123",
	}, nil
}
