package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/gomail.v2"
)

// Mailer delivers a plain-text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// SMTPMailer sends mail through an SMTP relay, opening one connection per message.
type SMTPMailer struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
	logger   *slog.Logger
}

func NewSMTPMailer(cfg SMTPConfig, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:     cfg.From,
		fromName: cfg.FromName,
		logger:   logger,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMessage()
	if m.fromName != "" {
		msg.SetAddressHeader("From", m.from, m.fromName)
	} else {
		msg.SetHeader("From", m.from)
	}
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetDateHeader("Date", time.Now())
	msg.SetBody("text/plain", body)

	// gomail has no context support; the send is abandoned, not aborted,
	// when ctx ends first.
	done := make(chan error, 1)
	go func() {
		done <- m.dialer.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", to, err)
		}
		m.logger.Info("mail sent", "to", to, "subject", subject)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send to %s: %w", to, ctx.Err())
	}
}

// LogMailer writes messages to the log. Used when no SMTP host is configured.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.logger.Info("mail (log only)", "to", to, "subject", subject, "body", body)
	return nil
}
