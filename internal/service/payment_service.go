package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/razorpay/razorpay-go/utils"
	"github.com/xxxsen/common/logutil"

	"github.com/xxxsen/superauth/internal/config"
	"github.com/xxxsen/superauth/internal/model"
	appErr "github.com/xxxsen/superauth/internal/pkg/errors"
	"github.com/xxxsen/superauth/internal/pkg/timeutil"
)

type txnStore interface {
	Create(ctx context.Context, txn *model.PaymentTxn) error
	GetByPaymentID(ctx context.Context, paymentID string) (*model.PaymentTxn, error)
	GetByReferenceID(ctx context.Context, referenceID string) (*model.PaymentTxn, error)
	GetCompleted(ctx context.Context, email, username string) (*model.PaymentTxn, error)
	UpdateStatus(ctx context.Context, id, status string, mtime int64) error
}

type usernameAssigner interface {
	MarkAssigned(ctx context.Context, username string) error
}

// paymentLinkCreator is the slice of the razorpay client the service needs;
// client.PaymentLink satisfies it.
type paymentLinkCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// PaymentService creates payment links for username purchases and settles
// transactions from gateway callbacks and webhooks.
type PaymentService struct {
	cfg       config.RazorpayConfig
	links     paymentLinkCreator
	txns      txnStore
	usernames usernameAssigner
}

func NewPaymentService(cfg config.RazorpayConfig, links paymentLinkCreator, txns txnStore, usernames usernameAssigner) *PaymentService {
	return &PaymentService{cfg: cfg, links: links, txns: txns, usernames: usernames}
}

// CreateLink registers the pending transaction and asks the provider for a
// hosted payment link. It fills txn.PaymentID and txn.ReferenceID in place
// and returns the link URL.
func (s *PaymentService) CreateLink(ctx context.Context, txn *model.PaymentTxn) (string, error) {
	txn.ReferenceID = fmt.Sprintf("txn_%d", timeutil.NowUnixMilli())
	data := map[string]interface{}{
		"amount":       txn.TotalPrice,
		"currency":     s.cfg.Currency,
		"description":  fmt.Sprintf("Username purchase: %s", txn.Username),
		"reference_id": txn.ReferenceID,
		"customer": map[string]interface{}{
			"email":   txn.Email,
			"contact": txn.Phone,
		},
		"notify": map[string]interface{}{
			"email": true,
			"sms":   false,
		},
		"notes": map[string]interface{}{
			"username": txn.Username,
			"email":    txn.Email,
		},
	}
	if s.cfg.CallbackURL != "" {
		data["callback_url"] = s.cfg.CallbackURL
		data["callback_method"] = "get"
	}
	link, err := s.links.Create(data, nil)
	if err != nil {
		logutil.GetLogger(ctx).Error("create payment link failed", zap.Error(err))
		return "", appErr.ErrDownstream
	}
	linkID, _ := link["id"].(string)
	shortURL, _ := link["short_url"].(string)
	if linkID == "" || shortURL == "" {
		return "", appErr.ErrDownstream
	}
	txn.PaymentID = linkID
	if err := s.txns.Create(ctx, txn); err != nil {
		return "", err
	}
	return shortURL, nil
}

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		PaymentLink struct {
			Entity struct {
				ID string `json:"id"`
			} `json:"entity"`
		} `json:"payment_link"`
	} `json:"payload"`
}

// HandleWebhook settles the transaction named by a provider event. Replayed
// events for an already settled transaction are acknowledged without change.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !utils.VerifyWebhookSignature(string(body), signature, s.cfg.WebhookSecret) {
		return appErr.ErrUnauthorized
	}
	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return appErr.ErrInvalid
	}
	linkID := event.Payload.PaymentLink.Entity.ID
	if linkID == "" {
		return appErr.ErrInvalid
	}
	txn, err := s.txns.GetByPaymentID(ctx, linkID)
	if err != nil {
		return err
	}
	switch event.Event {
	case "payment.captured", "payment_link.paid":
		if txn.Status == model.PaymentStatusCompleted {
			return nil
		}
		if err := s.txns.UpdateStatus(ctx, txn.ID, model.PaymentStatusCompleted, timeutil.NowUnix()); err != nil {
			return err
		}
		if err := s.usernames.MarkAssigned(ctx, txn.Username); err != nil && !appErr.IsNotFound(err) {
			return err
		}
		logutil.GetLogger(ctx).Info("payment captured",
			zap.String("reference_id", txn.ReferenceID), zap.String("username", txn.Username))
		return nil
	case "payment.failed":
		if txn.Status == model.PaymentStatusCompleted {
			return nil
		}
		return s.txns.UpdateStatus(ctx, txn.ID, model.PaymentStatusFailed, timeutil.NowUnix())
	default:
		return nil
	}
}

// VerifyCallback authenticates the browser redirect after checkout. The
// signature is an HMAC-SHA256 over "<linkID>|<paymentID>".
func (s *PaymentService) VerifyCallback(linkID, paymentID, signature string) error {
	if linkID == "" || paymentID == "" || signature == "" {
		return appErr.ErrUnauthorized
	}
	mac := hmac.New(sha256.New, []byte(s.cfg.KeySecret))
	mac.Write([]byte(linkID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(strings.TrimSpace(signature))) {
		return appErr.ErrUnauthorized
	}
	return nil
}

func (s *PaymentService) Status(ctx context.Context, referenceID string) (*model.PaymentTxn, error) {
	referenceID = strings.TrimSpace(referenceID)
	if referenceID == "" {
		return nil, appErr.ErrInvalid
	}
	return s.txns.GetByReferenceID(ctx, referenceID)
}

// HasCompletedPurchase reports whether the identity already paid for the
// username.
func (s *PaymentService) HasCompletedPurchase(ctx context.Context, email, username string) (bool, error) {
	_, err := s.txns.GetCompleted(ctx, email, username)
	if err != nil {
		if appErr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
