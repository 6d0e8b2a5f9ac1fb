package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type MailConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

type TwilioConfig struct {
	AccountSID     string `json:"account_sid"`
	AuthToken      string `json:"auth_token"`
	WhatsAppNumber string `json:"whatsapp_number"`
}

type RazorpayConfig struct {
	KeyID         string `json:"key_id"`
	KeySecret     string `json:"key_secret"`
	Currency      string `json:"currency"`
	WebhookSecret string `json:"webhook_secret"`
	CallbackURL   string `json:"callback_url"`
	SuccessURL    string `json:"success_url"`
	ErrorURL      string `json:"error_url"`
}

// PricingConfig carries the per-pattern fancy prices in cents plus the flat
// base price every username costs.
type PricingConfig struct {
	BasePrice        int64 `json:"base_price"`
	RepeatedPrice    int64 `json:"repeated_price"`
	SequentialPrice  int64 `json:"sequential_price"`
	PalindromePrice  int64 `json:"palindrome_price"`
	AlternatingPrice int64 `json:"alternating_price"`
	PremiumPrice     int64 `json:"premium_price"`
	SpecialPrice     int64 `json:"special_price"`
}

type AuthConfig struct {
	Port               int              `json:"port"`
	Database           DatabaseConfig   `json:"database"`
	Mail               MailConfig       `json:"mail"`
	Twilio             TwilioConfig     `json:"twilio"`
	Razorpay           RazorpayConfig   `json:"razorpay"`
	Pricing            PricingConfig    `json:"pricing"`
	OtpValidityMinutes int              `json:"otp_validity_minutes"`
	SessionTTLHours    int              `json:"session_ttl_hours"`
	MaxActiveSessions  int              `json:"max_active_sessions"`
	CleanupSpec        string           `json:"cleanup_spec"`
	LogConfig          logger.LogConfig `json:"log_config"`
}

type RouteConfig struct {
	Prefix   string `json:"prefix"`
	Upstream string `json:"upstream"`
}

type GatewayConfig struct {
	Port              int              `json:"port"`
	AuthServiceURL    string           `json:"auth_service_url"`
	PublicPaths       []string         `json:"public_paths"`
	Routes            []RouteConfig    `json:"routes"`
	ValidateTimeoutMS int              `json:"validate_timeout_ms"`
	LogConfig         logger.LogConfig `json:"log_config"`
}

func LoadAuth(path string) (*AuthConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg AuthConfig
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.OtpValidityMinutes == 0 {
		cfg.OtpValidityMinutes = 5
	}
	if cfg.SessionTTLHours == 0 {
		cfg.SessionTTLHours = 48
	}
	if cfg.MaxActiveSessions == 0 {
		cfg.MaxActiveSessions = 4
	}
	if cfg.CleanupSpec == "" {
		cfg.CleanupSpec = "0 3 * * *"
	}
	if cfg.Pricing.BasePrice == 0 {
		cfg.Pricing.BasePrice = 10000
	}
	if cfg.Razorpay.Currency == "" {
		cfg.Razorpay.Currency = "INR"
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	return &cfg, nil
}

func LoadGateway(path string) (*GatewayConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg GatewayConfig
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.AuthServiceURL == "" {
		return nil, fmt.Errorf("auth_service_url is required")
	}
	if len(cfg.Routes) == 0 {
		return nil, fmt.Errorf("at least one route is required")
	}
	if cfg.ValidateTimeoutMS == 0 {
		cfg.ValidateTimeoutMS = 5000
	}
	if len(cfg.PublicPaths) == 0 {
		cfg.PublicPaths = []string{
			"/api/register/start",
			"/api/register/verify-otp",
			"/api/register/validate-username",
			"/api/register/initiate-payment",
			"/api/register/complete",
			"/api/login/send-otp",
			"/api/login/verify",
			"/api/login/continue-with-oldest-logout",
			"/api/payment/webhook",
			"/api/payment/callback",
			"/api/payment/status",
		}
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	return &cfg, nil
}
