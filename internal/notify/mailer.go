package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/wneessen/go-mail"

	"github.com/tbourn/skiline-backend/internal/config"
)

// Message is one outbound e-mail.
type Message struct {
	FromName string
	From     string
	To       string
	ReplyTo  string // optional
	Subject  string
	HTML     string
}

// Mailer delivers a single message.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// SMTPMailer sends through an authenticated SMTP relay using STARTTLS.
type SMTPMailer struct {
	cfg config.MailConfig
}

// NewSMTPMailer returns a mailer bound to cfg. No connection is made until
// the first Send.
func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Send dials the relay, delivers m and closes the connection. The
// transport-level timeout comes from MailConfig.Timeout.
func (s *SMTPMailer) Send(ctx context.Context, m Message) error {
	msg, err := buildMsg(m)
	if err != nil {
		return err
	}
	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.User),
		mail.WithPassword(s.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(s.cfg.Timeout),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// buildMsg converts m into a go-mail message, validating every address.
func buildMsg(m Message) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(m.FromName, m.From); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	if m.ReplyTo != "" {
		if err := msg.ReplyTo(m.ReplyTo); err != nil {
			return nil, fmt.Errorf("reply-to address: %w", err)
		}
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextHTML, m.HTML)
	return msg, nil
}

// logMailer is used when no SMTP credentials are configured. It performs
// no network I/O and only logs what would have been sent.
type logMailer struct{}

func (logMailer) Send(_ context.Context, m Message) error {
	log.Info().
		Str("to", m.To).
		Str("subject", m.Subject).
		Bool("reply_to", m.ReplyTo != "").
		Msg("mail not configured; message logged instead of sent")
	return nil
}
