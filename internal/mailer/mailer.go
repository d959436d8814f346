package mailer

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/config"
	"storefront/internal/logger"

	"github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"
)

// ErrNotConfigured is returned when no SMTP host or admin address is set.
var ErrNotConfigured = errors.New("mailer: smtp not configured")

// Message is one outgoing HTML email.
type Message struct {
	To      []string
	ReplyTo string
	Subject string
	HTML    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends mail through the configured SMTP relay.
type SMTPMailer struct {
	cfg  config.MailConfig
	log  *logger.Logger
	send func(ctx context.Context, client *mail.Client, msg *mail.Msg) error
}

func NewSMTPMailer(cfg *config.MailConfig, log *logger.Logger) *SMTPMailer {
	return &SMTPMailer{
		cfg: *cfg,
		log: log,
		send: func(ctx context.Context, client *mail.Client, msg *mail.Msg) error {
			return client.DialAndSendWithContext(ctx, msg)
		},
	}
}

// AdminAddress is where contact and order notifications go.
func (m *SMTPMailer) AdminAddress() string {
	return m.cfg.AdminEmail
}

func (m *SMTPMailer) Configured() bool {
	return m.cfg.Configured()
}

func (m *SMTPMailer) Send(ctx context.Context, message Message) error {
	if !m.Configured() {
		return ErrNotConfigured
	}

	msg, err := m.buildMessage(message)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.cfg.Host, m.clientOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err := m.send(ctx, client, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.log.WithFields(logrus.Fields{
		"to":      message.To,
		"subject": message.Subject,
	}).Info("Email sent")
	return nil
}

func (m *SMTPMailer) buildMessage(message Message) (*mail.Msg, error) {
	if len(message.To) == 0 {
		return nil, errors.New("mailer: no recipients")
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(message.To...); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	if message.ReplyTo != "" {
		if err := msg.ReplyTo(message.ReplyTo); err != nil {
			return nil, fmt.Errorf("invalid reply-to address: %w", err)
		}
	}
	msg.Subject(message.Subject)
	msg.SetBodyString(mail.TypeTextHTML, message.HTML)
	return msg, nil
}

func (m *SMTPMailer) clientOptions() []mail.Option {
	opts := []mail.Option{mail.WithPort(m.cfg.Port)}
	if m.cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	return opts
}
