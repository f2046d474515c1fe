// Package mailx sends transactional email. The SMTP implementation is used
// in production; deployments without an SMTP host fall back to a logger so
// verification links still surface during development.
package mailx

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"
)

// Mailer delivers a single message.
type Mailer interface {
	Send(ctx context.Context, to, subject, textBody string) error
}

// SMTPConfig holds connection settings for an SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends mail through an SMTP relay using go-mail.
type SMTPMailer struct {
	client *mail.Client
	from   string
}

func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mailx: create client: %w", err)
	}

	return &SMTPMailer{client: client, from: cfg.From}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, textBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("mailx: from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mailx: to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, textBody)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mailx: send: %w", err)
	}
	return nil
}

// LogMailer writes outgoing mail to the log instead of delivering it.
type LogMailer struct {
	Log *slog.Logger
}

func (m *LogMailer) Send(_ context.Context, to, subject, textBody string) error {
	log := m.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info("outgoing mail (log delivery)",
		"to", to,
		"subject", subject,
		"body", textBody,
	)
	return nil
}
