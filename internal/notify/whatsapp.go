package notify

import (
	"strings"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/xxxsen/superauth/internal/config"
	appErr "github.com/xxxsen/superauth/internal/pkg/errors"
)

type WhatsAppSender interface {
	Send(to, body string) error
}

type twilioSender struct {
	cfg    config.TwilioConfig
	client *twilio.RestClient
}

func NewWhatsAppSender(cfg config.TwilioConfig) WhatsAppSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &twilioSender{cfg: cfg, client: client}
}

func (s *twilioSender) Send(to, body string) error {
	if s.cfg.AccountSID == "" || s.cfg.AuthToken == "" || s.cfg.WhatsAppNumber == "" {
		return appErr.ErrInvalid
	}
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(whatsAppAddr(to))
	params.SetFrom(whatsAppAddr(s.cfg.WhatsAppNumber))
	params.SetBody(body)
	_, err := s.client.Api.CreateMessage(params)
	return err
}

func whatsAppAddr(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
