// Package mailer sends transfer notification emails. Delivery is
// best-effort everywhere: a failed send is reported to the caller but
// never blocks or aborts the write that triggered it.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/wneessen/go-mail"
)

// ErrNotConfigured is returned by the log-only notifier so callers can
// record emailSent=false with a reason.
var ErrNotConfigured = errors.New("email service not configured")

// Notifier delivers an HTML email.
type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTP sends mail through an SMTP relay using go-mail.
type SMTP struct {
	cfg Config
}

// NewSMTP returns an SMTP notifier.
func NewSMTP(cfg Config) *SMTP {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTP{cfg: cfg}
}

// Send delivers one HTML message.
func (s *SMTP) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}

// LogOnly logs what would have been sent and reports ErrNotConfigured.
// Used when no SMTP credentials are present so the rest of the service
// behaves identically.
type LogOnly struct{}

// Send logs the message and returns ErrNotConfigured.
func (LogOnly) Send(_ context.Context, to, subject, _ string) error {
	slog.Info("email delivery skipped (no SMTP configured)", "to", to, "subject", subject)
	return ErrNotConfigured
}

// FromEnv builds a notifier from environment variables. EMAIL_USER and
// EMAIL_PASS are required for real delivery; SMTP_HOST/SMTP_PORT
// default to Gmail, matching the original deployment.
func FromEnv() Notifier {
	user := os.Getenv("EMAIL_USER")
	pass := os.Getenv("EMAIL_PASS")
	if user == "" || pass == "" {
		return LogOnly{}
	}

	host := os.Getenv("SMTP_HOST")
	if host == "" {
		host = "smtp.gmail.com"
	}
	port := 587
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			port = p
		}
	}

	return NewSMTP(Config{Host: host, Port: port, Username: user, Password: pass})
}
