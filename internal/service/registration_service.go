package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xxxsen/common/logutil"

	"github.com/xxxsen/superauth/internal/model"
	"github.com/xxxsen/superauth/internal/notify"
	appErr "github.com/xxxsen/superauth/internal/pkg/errors"
	"github.com/xxxsen/superauth/internal/pkg/timeutil"
	"github.com/xxxsen/superauth/internal/pricing"
)

type userStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByPhone(ctx context.Context, phone string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Activate(ctx context.Context, userID, username string) error
	ExistsActiveUsername(ctx context.Context, username string) (bool, error)
}

type usernameStore interface {
	Exists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, record *model.Username) error
	MarkAssigned(ctx context.Context, username string) error
}

// UsernameQuote is the availability and price answer for one candidate name.
type UsernameQuote struct {
	Username   string `json:"username"`
	Available  bool   `json:"available"`
	Fancy      bool   `json:"fancy"`
	FancyType  string `json:"fancy_type,omitempty"`
	BasePrice  int64  `json:"base_price"`
	FancyPrice int64  `json:"fancy_price"`
	TotalPrice int64  `json:"total_price"`
}

// PaymentInit is returned when a payment link has been created for a
// username purchase.
type PaymentInit struct {
	PaymentLink string `json:"payment_link"`
	ReferenceID string `json:"reference_id"`
	Username    string `json:"username"`
	TotalPrice  int64  `json:"total_price"`
}

// RegistrationService walks an identity through the whole signup flow:
// OTP challenge, username selection, payment, activation.
type RegistrationService struct {
	users     userStore
	usernames usernameStore
	otps      *OtpService
	payments  *PaymentService
	detector  *pricing.Detector
	generator *pricing.Generator
	email     notify.EmailSender
	whatsapp  notify.WhatsAppSender
}

func NewRegistrationService(users userStore, usernames usernameStore, otps *OtpService, payments *PaymentService,
	detector *pricing.Detector, email notify.EmailSender, whatsapp notify.WhatsAppSender) *RegistrationService {
	s := &RegistrationService{
		users:     users,
		usernames: usernames,
		otps:      otps,
		payments:  payments,
		detector:  detector,
		email:     email,
		whatsapp:  whatsapp,
	}
	s.generator = pricing.NewGenerator(s.usernameTaken)
	return s
}

// Start creates the pending account and sends the two-channel OTP challenge.
// Any user row already holding the email or phone blocks a new start, even a
// half-finished PENDING one.
func (s *RegistrationService) Start(ctx context.Context, email, phone string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	phone = strings.TrimSpace(phone)
	if email == "" || phone == "" {
		return appErr.ErrInvalid
	}
	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return appErr.ErrConflict
	} else if err != nil && !appErr.IsNotFound(err) {
		return err
	}
	if byPhone, err := s.users.GetByPhone(ctx, phone); err == nil && byPhone != nil {
		return appErr.ErrConflict
	} else if err != nil && !appErr.IsNotFound(err) {
		return err
	}
	user := &model.User{
		ID:     newID(),
		Email:  email,
		Phone:  phone,
		Status: model.UserStatusPending,
		Ctime:  timeutil.NowUnix(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return err
	}
	return s.otps.IssueRegistration(ctx, email, phone)
}

// VerifyOtp consumes the current two-channel code pair for the identity.
func (s *RegistrationService) VerifyOtp(ctx context.Context, email, phone, emailCode, phoneCode string) error {
	return s.otps.VerifyRegistration(ctx, email, phone, emailCode, phoneCode)
}

// ValidateUsername prices a candidate name for a recently verified identity.
// An empty candidate asks for a generated one.
func (s *RegistrationService) ValidateUsername(ctx context.Context, email, phone, username string) (*UsernameQuote, error) {
	if err := s.requireRecentlyVerified(ctx, email, phone); err != nil {
		return nil, err
	}
	username = strings.ToUpper(strings.TrimSpace(username))
	if username == "" {
		generated, err := s.generator.Generate(ctx)
		if err != nil {
			return nil, err
		}
		username = generated
	}
	taken, err := s.usernameTaken(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, appErr.ErrConflict
	}
	quote := s.detector.Quote(username)
	return &UsernameQuote{
		Username:   username,
		Available:  true,
		Fancy:      quote.Fancy,
		FancyType:  quote.FancyType,
		BasePrice:  quote.BasePrice,
		FancyPrice: quote.FancyPrice,
		TotalPrice: quote.TotalPrice,
	}, nil
}

// InitiatePayment reserves the username and creates the payment link for it.
func (s *RegistrationService) InitiatePayment(ctx context.Context, email, phone, username string) (*PaymentInit, error) {
	if err := s.requireRecentlyVerified(ctx, email, phone); err != nil {
		return nil, err
	}
	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.ToUpper(strings.TrimSpace(username))
	if username == "" {
		return nil, appErr.ErrInvalid
	}
	taken, err := s.usernameTaken(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, appErr.ErrConflict
	}
	if err := s.usernames.Create(ctx, &model.Username{
		Username: username,
		Assigned: 0,
		Ctime:    timeutil.NowUnix(),
	}); err != nil && err != appErr.ErrConflict {
		return nil, err
	}
	quote := s.detector.Quote(username)
	now := timeutil.NowUnix()
	fancy := 0
	if quote.Fancy {
		fancy = 1
	}
	txn := &model.PaymentTxn{
		ID:         newID(),
		Email:      email,
		Phone:      strings.TrimSpace(phone),
		Username:   username,
		Fancy:      fancy,
		FancyType:  quote.FancyType,
		BasePrice:  quote.BasePrice,
		FancyPrice: quote.FancyPrice,
		TotalPrice: quote.TotalPrice,
		Status:     model.PaymentStatusPending,
		Ctime:      now,
		Mtime:      now,
	}
	link, err := s.payments.CreateLink(ctx, txn)
	if err != nil {
		return nil, err
	}
	return &PaymentInit{
		PaymentLink: link,
		ReferenceID: txn.ReferenceID,
		Username:    username,
		TotalPrice:  txn.TotalPrice,
	}, nil
}

// Complete activates the account once the username purchase has settled.
func (s *RegistrationService) Complete(ctx context.Context, email, phone, username string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.ToUpper(strings.TrimSpace(username))
	if email == "" || username == "" {
		return nil, appErr.ErrInvalid
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.Status == model.UserStatusActive {
		return nil, appErr.ErrConflict
	}
	paid, err := s.payments.HasCompletedPurchase(ctx, email, username)
	if err != nil {
		return nil, err
	}
	if !paid {
		return nil, appErr.ErrPaymentRequired
	}
	if err := s.users.Activate(ctx, user.ID, username); err != nil {
		return nil, err
	}
	if err := s.usernames.MarkAssigned(ctx, username); err != nil && !appErr.IsNotFound(err) {
		return nil, err
	}
	user.Username = username
	user.Status = model.UserStatusActive
	s.sendWelcome(ctx, user)
	return user, nil
}

func (s *RegistrationService) requireRecentlyVerified(ctx context.Context, email, phone string) error {
	ok, err := s.otps.IsRecentlyVerified(ctx, email, phone)
	if err != nil {
		return err
	}
	if !ok {
		return appErr.ErrForbidden
	}
	return nil
}

// usernameTaken checks both reserved names and names held by active
// accounts.
func (s *RegistrationService) usernameTaken(ctx context.Context, username string) (bool, error) {
	reserved, err := s.usernames.Exists(ctx, username)
	if err != nil {
		return false, err
	}
	if reserved {
		return true, nil
	}
	return s.users.ExistsActiveUsername(ctx, username)
}

// sendWelcome delivers the post-activation confirmations. Failures only get
// logged, activation already happened.
func (s *RegistrationService) sendWelcome(ctx context.Context, user *model.User) {
	body := fmt.Sprintf("Your registration is complete. Your username is %s.", user.Username)
	if err := s.email.Send(user.Email, "Registration complete", body); err != nil {
		logutil.GetLogger(ctx).Warn("send welcome email failed", zap.Error(err))
	}
	if err := s.whatsapp.Send(user.Phone, body); err != nil {
		logutil.GetLogger(ctx).Warn("send welcome whatsapp failed", zap.Error(err))
	}
}
