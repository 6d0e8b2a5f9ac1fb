package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xxxsen/common/logutil"

	"github.com/xxxsen/superauth/internal/model"
	"github.com/xxxsen/superauth/internal/notify"
	"github.com/xxxsen/superauth/internal/pkg/codes"
	appErr "github.com/xxxsen/superauth/internal/pkg/errors"
	"github.com/xxxsen/superauth/internal/pkg/timeutil"
)

// recentlyVerifiedSeconds is how long a consumed registration OTP keeps
// vouching for the identity during the later registration steps.
const recentlyVerifiedSeconds = 3600

type registrationOtpStore interface {
	Upsert(ctx context.Context, otp *model.RegistrationOtp) error
	GetByIdentity(ctx context.Context, email, phone string) (*model.RegistrationOtp, error)
	MarkVerified(ctx context.Context, id string) error
}

type loginOtpStore interface {
	Upsert(ctx context.Context, otp *model.LoginOtp) error
	GetByUsername(ctx context.Context, username string) (*model.LoginOtp, error)
	MarkVerified(ctx context.Context, id string) error
}

// OtpService issues and verifies one-time codes for both registration and
// login. Each identity has at most one live code row; re-issuing overwrites
// it.
type OtpService struct {
	regStore        registrationOtpStore
	loginStore      loginOtpStore
	email           notify.EmailSender
	whatsapp        notify.WhatsAppSender
	validityMinutes int
}

func NewOtpService(regStore registrationOtpStore, loginStore loginOtpStore, email notify.EmailSender, whatsapp notify.WhatsAppSender, validityMinutes int) *OtpService {
	return &OtpService{
		regStore:        regStore,
		loginStore:      loginStore,
		email:           email,
		whatsapp:        whatsapp,
		validityMinutes: validityMinutes,
	}
}

// IssueRegistration generates one code per channel, persists their hashes and
// then delivers them. Delivery failure after persist maps to ErrDownstream so
// the caller can tell it apart from a bad request.
func (s *OtpService) IssueRegistration(ctx context.Context, email, phone string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	phone = strings.TrimSpace(phone)
	if email == "" || phone == "" {
		return appErr.ErrInvalid
	}
	emailCode, err := newOtpCode()
	if err != nil {
		return err
	}
	phoneCode, err := newOtpCode()
	if err != nil {
		return err
	}
	emailHash, err := codes.Hash(emailCode)
	if err != nil {
		return err
	}
	phoneHash, err := codes.Hash(phoneCode)
	if err != nil {
		return err
	}
	now := timeutil.NowUnix()
	otp := &model.RegistrationOtp{
		ID:            newID(),
		Email:         email,
		Phone:         phone,
		EmailCodeHash: emailHash,
		PhoneCodeHash: phoneHash,
		Verified:      0,
		Ctime:         now,
		ExpiresAt:     now + int64(s.validityMinutes*60),
	}
	if err := s.regStore.Upsert(ctx, otp); err != nil {
		return err
	}
	if err := s.email.Send(email, "Your verification code",
		fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", emailCode, s.validityMinutes)); err != nil {
		logutil.GetLogger(ctx).Error("send registration email code failed", zap.Error(err))
		return appErr.ErrDownstream
	}
	if err := s.whatsapp.Send(phone,
		fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", phoneCode, s.validityMinutes)); err != nil {
		logutil.GetLogger(ctx).Error("send registration whatsapp code failed", zap.Error(err))
		return appErr.ErrDownstream
	}
	return nil
}

// VerifyRegistration checks both channel codes against the current row and
// consumes it. A verified row cannot pass verification a second time.
func (s *OtpService) VerifyRegistration(ctx context.Context, email, phone, emailCode, phoneCode string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	phone = strings.TrimSpace(phone)
	emailCode = strings.TrimSpace(emailCode)
	phoneCode = strings.TrimSpace(phoneCode)
	if email == "" || phone == "" || emailCode == "" || phoneCode == "" {
		return appErr.ErrInvalid
	}
	otp, err := s.regStore.GetByIdentity(ctx, email, phone)
	if err != nil {
		return err
	}
	if otp.Verified != 0 {
		return appErr.ErrInvalid
	}
	if otp.ExpiresAt <= timeutil.NowUnix() {
		return appErr.ErrExpired
	}
	if err := codes.Verify(otp.EmailCodeHash, emailCode); err != nil {
		return appErr.ErrInvalid
	}
	if err := codes.Verify(otp.PhoneCodeHash, phoneCode); err != nil {
		return appErr.ErrInvalid
	}
	return s.regStore.MarkVerified(ctx, otp.ID)
}

// IsRecentlyVerified reports whether the identity consumed a registration OTP
// within the last hour.
func (s *OtpService) IsRecentlyVerified(ctx context.Context, email, phone string) (bool, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	phone = strings.TrimSpace(phone)
	otp, err := s.regStore.GetByIdentity(ctx, email, phone)
	if err != nil {
		if appErr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if otp.Verified == 0 {
		return false, nil
	}
	return otp.Ctime+recentlyVerifiedSeconds > timeutil.NowUnix(), nil
}

// IssueLogin generates a single WhatsApp code for the username.
func (s *OtpService) IssueLogin(ctx context.Context, username, phone string) error {
	username = strings.TrimSpace(username)
	phone = strings.TrimSpace(phone)
	if username == "" || phone == "" {
		return appErr.ErrInvalid
	}
	code, err := newOtpCode()
	if err != nil {
		return err
	}
	hash, err := codes.Hash(code)
	if err != nil {
		return err
	}
	now := timeutil.NowUnix()
	otp := &model.LoginOtp{
		ID:        newID(),
		Username:  username,
		Phone:     phone,
		CodeHash:  hash,
		Verified:  0,
		Ctime:     now,
		ExpiresAt: now + int64(s.validityMinutes*60),
	}
	if err := s.loginStore.Upsert(ctx, otp); err != nil {
		return err
	}
	if err := s.whatsapp.Send(phone,
		fmt.Sprintf("Your login code is %s. It expires in %d minutes.", code, s.validityMinutes)); err != nil {
		logutil.GetLogger(ctx).Error("send login whatsapp code failed", zap.Error(err))
		return appErr.ErrDownstream
	}
	return nil
}

// VerifyLogin checks and consumes the current login code for the username.
func (s *OtpService) VerifyLogin(ctx context.Context, username, code string) error {
	username = strings.TrimSpace(username)
	code = strings.TrimSpace(code)
	if username == "" || code == "" {
		return appErr.ErrInvalid
	}
	otp, err := s.loginStore.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if otp.Verified != 0 {
		return appErr.ErrInvalid
	}
	if otp.ExpiresAt <= timeutil.NowUnix() {
		return appErr.ErrExpired
	}
	if err := codes.Verify(otp.CodeHash, code); err != nil {
		return appErr.ErrInvalid
	}
	return s.loginStore.MarkVerified(ctx, otp.ID)
}
