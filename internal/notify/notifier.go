// Package notify e-mails the operator (and, when possible, the applicant)
// about accepted submissions.
//
// Delivery is best effort. Every failure, including a panic inside the
// transport, is folded into an Outcome; nothing escapes to the caller. When
// no SMTP credentials are configured the notifier runs in degraded mode: it
// logs the messages it would have sent and reports them as delivered.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/skiline-backend/internal/config"
	"github.com/tbourn/skiline-backend/internal/domain"
)

// Subjects of the messages sent by EmailNotifier.
const (
	SubjectConfirmation = "Application Received - Skiline Recruitment"
	subjectApplication  = "New Application: "
	subjectContact      = "New Contact Form: "
)

// Outcome summarizes a notification attempt.
type Outcome struct {
	Delivered bool   `json:"delivered"`
	Detail    string `json:"detail"`
}

// EmailNotifier formats submissions into e-mails and hands them to a Mailer.
type EmailNotifier struct {
	mailer   Mailer
	degraded bool
	from     string
	fromName string
	operator string
}

// New picks the transport once from cfg: SMTP when credentials are present,
// otherwise the logging no-op.
func New(cfg config.MailConfig) *EmailNotifier {
	if !cfg.Configured() {
		log.Warn().Msg("mail credentials not configured; notifications will be logged only")
		return &EmailNotifier{
			mailer:   logMailer{},
			degraded: true,
			from:     cfg.User,
			fromName: cfg.FromName,
			operator: cfg.Recipient,
		}
	}
	return NewWithMailer(cfg, NewSMTPMailer(cfg))
}

// NewWithMailer builds a notifier around an explicit transport.
func NewWithMailer(cfg config.MailConfig, m Mailer) *EmailNotifier {
	return &EmailNotifier{
		mailer:   m,
		from:     cfg.User,
		fromName: cfg.FromName,
		operator: cfg.Recipient,
	}
}

// Degraded reports whether the notifier only logs.
func (n *EmailNotifier) Degraded() bool { return n.degraded }

// NotifyApplication sends the operator summary and, if the applicant gave
// an e-mail address, a confirmation to the applicant. Both are attempted
// concurrently and independently.
func (n *EmailNotifier) NotifyApplication(ctx context.Context, s domain.StoredApplication) Outcome {
	view := newApplicationView(s)

	type job struct {
		kind string
		msg  func() (Message, error)
	}
	jobs := []job{{
		kind: "operator",
		msg: func() (Message, error) {
			body, err := render(applicationTmpl, view)
			return Message{
				FromName: n.fromName,
				From:     n.from,
				To:       n.operator,
				Subject:  subjectApplication + view.A.Name,
				HTML:     body,
			}, err
		},
	}}
	if view.A.Email != "" {
		jobs = append(jobs, job{
			kind: "applicant",
			msg: func() (Message, error) {
				body, err := render(confirmationTmpl, view)
				return Message{
					FromName: n.fromName,
					From:     n.from,
					To:       view.A.Email,
					Subject:  SubjectConfirmation,
					HTML:     body,
				}, err
			},
		})
	}

	errs := make([]error, len(jobs))
	var g errgroup.Group
	for i, j := range jobs {
		g.Go(func() error {
			errs[i] = n.dispatch(ctx, j.kind, j.msg)
			return errs[i]
		})
	}
	_ = g.Wait()

	out := Outcome{Delivered: true}
	parts := make([]string, 0, len(jobs))
	for i, j := range jobs {
		if errs[i] != nil {
			out.Delivered = false
			parts = append(parts, fmt.Sprintf("%s: failed: %v", j.kind, errs[i]))
			continue
		}
		parts = append(parts, j.kind+": "+n.sentWord())
	}
	if len(jobs) == 1 {
		parts = append(parts, "applicant: skipped (no email)")
	}
	out.Detail = strings.Join(parts, "; ")
	return out
}

// NotifyContact sends the operator a copy of the contact message with
// Reply-To set to the submitter when they left an address.
func (n *EmailNotifier) NotifyContact(ctx context.Context, s domain.StoredContact) Outcome {
	err := n.dispatch(ctx, "contact", func() (Message, error) {
		body, err := render(contactTmpl, s.Contact)
		return Message{
			FromName: s.Name,
			From:     n.from,
			To:       n.operator,
			ReplyTo:  s.Email,
			Subject:  subjectContact + s.Name,
			HTML:     body,
		}, err
	})
	if err != nil {
		return Outcome{Delivered: false, Detail: "contact: failed: " + err.Error()}
	}
	return Outcome{Delivered: true, Detail: "contact: " + n.sentWord()}
}

func (n *EmailNotifier) sentWord() string {
	if n.degraded {
		return "logged (mail not configured)"
	}
	return "delivered"
}

// dispatch renders and sends one message, converting panics into errors
// and recording the result.
func (n *EmailNotifier) dispatch(ctx context.Context, kind string, build func() (Message, error)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		outcome := "delivered"
		switch {
		case err != nil:
			outcome = "failed"
		case n.degraded:
			outcome = "logged"
		}
		notifications.WithLabelValues(kind, outcome).Inc()
	}()

	m, err := build()
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return n.mailer.Send(ctx, m)
}
