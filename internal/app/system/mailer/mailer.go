// Package mailer sends plain-text account email over SMTP.
package mailer

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Email is a single outgoing message.
type Email struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers email.
type Sender interface {
	Send(e Email) error
}

// Config holds SMTP settings. An empty Host selects the log-only sender.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTP sends through a gomail dialer.
type SMTP struct {
	dialer *gomail.Dialer
	from   string
}

// New returns an SMTP sender, or a LogSender when cfg.Host is empty.
func New(cfg Config, log *zap.Logger) Sender {
	if cfg.Host == "" {
		return LogSender{Log: log}
	}
	return &SMTP{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *SMTP) Send(e Email) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", e.To)
	m.SetHeader("Subject", e.Subject)
	m.SetBody("text/plain", e.Body)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", e.To, err)
	}
	return nil
}

// LogSender records messages in the log instead of sending them (dev).
type LogSender struct {
	Log *zap.Logger
}

func (l LogSender) Send(e Email) error {
	if l.Log != nil {
		l.Log.Info("mail not sent (no SMTP host configured)",
			zap.String("to", e.To),
			zap.String("subject", e.Subject))
	}
	return nil
}

// PasswordReset builds the reset message for link.
func PasswordReset(to, name, link string) Email {
	return Email{
		To:      to,
		Subject: "Reset your password",
		Body: fmt.Sprintf("Hello %s,\n\n"+
			"Someone asked to reset the password for this account.\n"+
			"Open this link within one hour to choose a new password:\n\n%s\n\n"+
			"If this wasn't you, ignore this message.\n", name, link),
	}
}
