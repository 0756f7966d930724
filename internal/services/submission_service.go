// Package services – SubmissionService
//
// This file implements the submission pipeline shared by the join-us and
// contact forms: validate, store, notify, respond. Application notifications
// are handed to Background and never delay the response. Contact
// notifications are awaited, but their outcome never changes the result.
// A stored record is accepted regardless of what happens to its e-mail.
//
// Observability: public methods are OpenTelemetry-instrumented and accepted
// submissions are counted in Prometheus.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/skiline-backend/internal/domain"
	"github.com/tbourn/skiline-backend/internal/notify"
	"github.com/tbourn/skiline-backend/internal/validation"
)

// Idempotency scopes. A key is only meaningful within the form it was sent to.
const (
	ScopeApplication = "application"
	ScopeContact     = "contact"
)

// SubmissionStore persists accepted submissions. Records are write-once.
type SubmissionStore interface {
	CreateApplication(ctx context.Context, app domain.Application) (domain.StoredApplication, error)
	ListApplications(ctx context.Context) ([]domain.StoredApplication, error)
	CreateContact(ctx context.Context, c domain.Contact) (domain.StoredContact, error)
	ListContacts(ctx context.Context) ([]domain.StoredContact, error)
}

// IdempotencyStore remembers which submission an Idempotency-Key produced.
// Lookup returns an error when the key is unknown or expired.
type IdempotencyStore interface {
	Lookup(ctx context.Context, scope, key string, now time.Time) (string, error)
	Remember(ctx context.Context, scope, key, submissionID string, ttl time.Duration) error
}

// Notifier sends best-effort e-mails about accepted submissions.
type Notifier interface {
	NotifyApplication(ctx context.Context, s domain.StoredApplication) notify.Outcome
	NotifyContact(ctx context.Context, s domain.StoredContact) notify.Outcome
}

// Receipt identifies the submission a request resolved to. Replayed is true
// when an earlier request with the same Idempotency-Key already created it.
type Receipt struct {
	ID       string
	Replayed bool
}

// SubmissionService orchestrates form submissions.
type SubmissionService struct {
	Store    SubmissionStore
	Keys     IdempotencyStore // optional
	Notifier Notifier
	Tasks    *Background
	KeyTTL   time.Duration
}

// NewSubmissionService wires a service. keys may be nil to disable
// idempotent replays.
func NewSubmissionService(store SubmissionStore, keys IdempotencyStore, n Notifier, tasks *Background, keyTTL time.Duration) *SubmissionService {
	return &SubmissionService{Store: store, Keys: keys, Notifier: n, Tasks: tasks, KeyTTL: keyTTL}
}

// SubmitApplication validates and stores a join-us form, then schedules the
// notification in the background. The receipt is returned before any mail
// is attempted.
func (s *SubmissionService) SubmitApplication(ctx context.Context, in validation.ApplicationInput, idemKey string) (Receipt, error) {
	tr := otel.Tracer("services/SubmissionService")
	ctx, span := tr.Start(ctx, "SubmitApplication",
		trace.WithAttributes(attribute.String("submission.category", in.Category)),
	)
	defer span.End()

	app, err := validation.ValidateApplication(in)
	if err != nil {
		return Receipt{}, err
	}

	if id, ok := s.replay(ctx, ScopeApplication, idemKey); ok {
		span.SetAttributes(attribute.Bool("idempotency.replayed", true))
		return Receipt{ID: id, Replayed: true}, nil
	}

	stored, err := s.Store.CreateApplication(ctx, app)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store")
		return Receipt{}, fmt.Errorf("%w: %w", ErrStoreFault, err)
	}
	span.SetAttributes(attribute.String("submission.id", stored.ID))
	submissions.WithLabelValues(ScopeApplication, string(app.Category())).Inc()
	s.remember(ctx, ScopeApplication, idemKey, stored.ID)

	started := s.Tasks.Go(ctx, "notify application", func(ctx context.Context) {
		out := s.Notifier.NotifyApplication(ctx, stored)
		logOutcome(ctx, ScopeApplication, stored.ID, out)
	})
	if !started {
		loggerFrom(ctx).Warn().Str("submission_id", stored.ID).Msg("application notification skipped during shutdown")
	}

	return Receipt{ID: stored.ID}, nil
}

// SubmitContact validates and stores a contact message, then awaits its
// notification. A failed notification is logged and otherwise ignored.
func (s *SubmissionService) SubmitContact(ctx context.Context, in validation.ContactInput, idemKey string) (Receipt, error) {
	tr := otel.Tracer("services/SubmissionService")
	ctx, span := tr.Start(ctx, "SubmitContact")
	defer span.End()

	c, err := validation.ValidateContact(in)
	if err != nil {
		return Receipt{}, err
	}

	if id, ok := s.replay(ctx, ScopeContact, idemKey); ok {
		span.SetAttributes(attribute.Bool("idempotency.replayed", true))
		return Receipt{ID: id, Replayed: true}, nil
	}

	stored, err := s.Store.CreateContact(ctx, c)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store")
		return Receipt{}, fmt.Errorf("%w: %w", ErrStoreFault, err)
	}
	span.SetAttributes(attribute.String("submission.id", stored.ID))
	submissions.WithLabelValues(ScopeContact, "none").Inc()
	s.remember(ctx, ScopeContact, idemKey, stored.ID)

	out := s.Notifier.NotifyContact(ctx, stored)
	span.SetAttributes(attribute.Bool("notification.delivered", out.Delivered))
	logOutcome(ctx, ScopeContact, stored.ID, out)

	return Receipt{ID: stored.ID}, nil
}

// ListApplications returns every stored application.
func (s *SubmissionService) ListApplications(ctx context.Context) ([]domain.StoredApplication, error) {
	tr := otel.Tracer("services/SubmissionService")
	ctx, span := tr.Start(ctx, "ListApplications")
	defer span.End()

	out, err := s.Store.ListApplications(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %w", ErrStoreFault, err)
	}
	span.SetAttributes(attribute.Int("submission.count", len(out)))
	return out, nil
}

// ListContacts returns every stored contact message.
func (s *SubmissionService) ListContacts(ctx context.Context) ([]domain.StoredContact, error) {
	tr := otel.Tracer("services/SubmissionService")
	ctx, span := tr.Start(ctx, "ListContacts")
	defer span.End()

	out, err := s.Store.ListContacts(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %w", ErrStoreFault, err)
	}
	span.SetAttributes(attribute.Int("submission.count", len(out)))
	return out, nil
}

// replay returns the submission previously recorded for key, if any. It only
// runs for a payload that already passed validation, so a reused key never
// turns an invalid form into a 201. Lookup failures fall through to normal
// processing.
func (s *SubmissionService) replay(ctx context.Context, scope, key string) (string, bool) {
	if key == "" || s.Keys == nil {
		return "", false
	}
	id, err := s.Keys.Lookup(ctx, scope, key, time.Now().UTC())
	if err != nil || id == "" {
		return "", false
	}
	return id, true
}

// remember is best effort: a lost race or store error only costs the replay.
func (s *SubmissionService) remember(ctx context.Context, scope, key, id string) {
	if key == "" || s.Keys == nil {
		return
	}
	if err := s.Keys.Remember(ctx, scope, key, id, s.KeyTTL); err != nil {
		loggerFrom(ctx).Warn().Err(err).Str("scope", scope).Str("submission_id", id).Msg("idempotency key not recorded")
	}
}

func logOutcome(ctx context.Context, kind, id string, out notify.Outcome) {
	lg := loggerFrom(ctx)
	ev := lg.Info()
	if !out.Delivered {
		ev = lg.Warn()
	}
	ev.Str("kind", kind).
		Str("submission_id", id).
		Bool("delivered", out.Delivered).
		Str("detail", out.Detail).
		Msg("notification settled")
}

// loggerFrom prefers the request-scoped logger carried by ctx.
func loggerFrom(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}

// IsStoreFault reports whether err originated in the submission store.
func IsStoreFault(err error) bool { return errors.Is(err, ErrStoreFault) }
