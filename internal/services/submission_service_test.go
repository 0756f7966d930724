package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tbourn/skiline-backend/internal/config"
	"github.com/tbourn/skiline-backend/internal/domain"
	"github.com/tbourn/skiline-backend/internal/notify"
	"github.com/tbourn/skiline-backend/internal/repo"
	"github.com/tbourn/skiline-backend/internal/validation"
)

// ----- Fakes -----

type fakeStore struct {
	mu        sync.Mutex
	apps      []domain.StoredApplication
	contacts  []domain.StoredContact
	createErr error
	listErr   error
	n         int
}

func (s *fakeStore) nextID() string {
	s.n++
	return "id-" + strconv.Itoa(s.n)
}

func (s *fakeStore) CreateApplication(_ context.Context, app domain.Application) (domain.StoredApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return domain.StoredApplication{}, s.createErr
	}
	r := domain.StoredApplication{ID: s.nextID(), SubmittedAt: time.Now().UTC(), Application: app}
	s.apps = append(s.apps, r)
	return r, nil
}

func (s *fakeStore) ListApplications(context.Context) ([]domain.StoredApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.StoredApplication(nil), s.apps...), s.listErr
}

func (s *fakeStore) CreateContact(_ context.Context, c domain.Contact) (domain.StoredContact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return domain.StoredContact{}, s.createErr
	}
	r := domain.StoredContact{ID: s.nextID(), Contact: c, SubmittedAt: time.Now().UTC()}
	s.contacts = append(s.contacts, r)
	return r, nil
}

func (s *fakeStore) ListContacts(context.Context) ([]domain.StoredContact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.StoredContact(nil), s.contacts...), s.listErr
}

type fakeNotifier struct {
	mu       sync.Mutex
	apps     []domain.StoredApplication
	contacts []domain.StoredContact
	gate     chan struct{} // when non-nil, NotifyApplication blocks until closed
	outcome  notify.Outcome
}

func (n *fakeNotifier) NotifyApplication(_ context.Context, s domain.StoredApplication) notify.Outcome {
	if n.gate != nil {
		<-n.gate
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.apps = append(n.apps, s)
	return n.outcome
}

func (n *fakeNotifier) NotifyContact(_ context.Context, s domain.StoredContact) notify.Outcome {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.contacts = append(n.contacts, s)
	return n.outcome
}

func (n *fakeNotifier) counts() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.apps), len(n.contacts)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (m *recordingMailer) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func validRetired() validation.ApplicationInput {
	return validation.ApplicationInput{
		Category:               "retired",
		Name:                   "Jane Doe",
		DateOfBirth:            "1960-01-01",
		ContactNumber:          "9841002700",
		Email:                  "",
		EducationQualification: "B.Com",
		LastDesignationTitle:   "Manager",
		YearsOfExperience:      "10+",
	}
}

func validContact() validation.ContactInput {
	return validation.ContactInput{Name: "Asha", Phone: "9841002700", Message: "Please call me back"}
}

func waitDrained(t *testing.T, b *Background) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.Wait(ctx); err != nil {
		t.Fatalf("background tasks did not drain: %v", err)
	}
}

// ----- Tests -----

func TestSubmitApplication_RespondsBeforeNotification(t *testing.T) {
	store := &fakeStore{}
	n := &fakeNotifier{gate: make(chan struct{}), outcome: notify.Outcome{Delivered: true}}
	tasks := NewBackground()
	svc := NewSubmissionService(store, nil, n, tasks, time.Hour)

	before := testutil.ToFloat64(submissions.WithLabelValues("application", "retired"))
	rec, err := svc.SubmitApplication(context.Background(), validRetired(), "")
	if err != nil {
		t.Fatalf("SubmitApplication: %v", err)
	}
	if rec.ID == "" || rec.Replayed {
		t.Fatalf("unexpected receipt %+v", rec)
	}
	if apps, _ := n.counts(); apps != 0 {
		t.Fatalf("notification must not complete before the response")
	}
	if after := testutil.ToFloat64(submissions.WithLabelValues("application", "retired")); after != before+1 {
		t.Fatalf("submissions counter not incremented")
	}

	close(n.gate)
	waitDrained(t, tasks)
	if apps, _ := n.counts(); apps != 1 || n.apps[0].ID != rec.ID {
		t.Fatalf("expected one notification for %s, got %+v", rec.ID, n.apps)
	}
}

func TestSubmitApplication_ValidationErrorHasNoSideEffects(t *testing.T) {
	store := &fakeStore{}
	n := &fakeNotifier{}
	tasks := NewBackground()
	svc := NewSubmissionService(store, nil, n, tasks, time.Hour)

	in := validRetired()
	in.Name = "J"
	_, err := svc.SubmitApplication(context.Background(), in, "")
	var ve *validation.ValidationError
	if !errors.As(err, &ve) || !ve.Has("name") {
		t.Fatalf("expected name validation error, got %v", err)
	}
	waitDrained(t, tasks)
	if len(store.apps) != 0 {
		t.Fatalf("nothing should be stored")
	}
	if apps, _ := n.counts(); apps != 0 {
		t.Fatalf("nothing should be notified")
	}
}

func TestSubmit_StoreFault(t *testing.T) {
	store := &fakeStore{createErr: errors.New("disk full")}
	n := &fakeNotifier{}
	tasks := NewBackground()
	svc := NewSubmissionService(store, nil, n, tasks, time.Hour)

	_, err := svc.SubmitApplication(context.Background(), validRetired(), "")
	if !errors.Is(err, ErrStoreFault) || !IsStoreFault(err) {
		t.Fatalf("expected ErrStoreFault, got %v", err)
	}
	_, err = svc.SubmitContact(context.Background(), validContact(), "")
	if !errors.Is(err, ErrStoreFault) {
		t.Fatalf("expected ErrStoreFault, got %v", err)
	}
	waitDrained(t, tasks)
	if a, c := n.counts(); a != 0 || c != 0 {
		t.Fatalf("store fault must not notify, got %d/%d", a, c)
	}
}

func TestSubmitContact_FailedNotificationStillAccepted(t *testing.T) {
	store := &fakeStore{}
	n := &fakeNotifier{outcome: notify.Outcome{Delivered: false, Detail: "contact: failed: auth"}}
	svc := NewSubmissionService(store, nil, n, NewBackground(), time.Hour)

	rec, err := svc.SubmitContact(context.Background(), validContact(), "")
	if err != nil {
		t.Fatalf("SubmitContact: %v", err)
	}
	if _, c := n.counts(); c != 1 {
		t.Fatalf("contact notification should be awaited in-line, got %d", c)
	}
	list, err := svc.ListContacts(context.Background())
	if err != nil || len(list) != 1 || list[0].ID != rec.ID {
		t.Fatalf("contact must stay stored, got %+v %v", list, err)
	}
}

func TestSubmitContact_ValidationError(t *testing.T) {
	svc := NewSubmissionService(&fakeStore{}, nil, &fakeNotifier{}, NewBackground(), time.Hour)
	_, err := svc.SubmitContact(context.Background(), validation.ContactInput{Name: "A", Phone: "12345", Message: "hi"}, "")
	var ve *validation.ValidationError
	if !errors.As(err, &ve) || len(ve.Fields) != 3 {
		t.Fatalf("expected three field errors, got %v", err)
	}
}

func TestSubmit_IdempotentReplay(t *testing.T) {
	store := &fakeStore{}
	n := &fakeNotifier{outcome: notify.Outcome{Delivered: true}}
	tasks := NewBackground()
	svc := NewSubmissionService(store, repo.NewMemoryIdempotency(), n, tasks, time.Hour)
	ctx := context.Background()

	first, err := svc.SubmitApplication(ctx, validRetired(), "key-1")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := svc.SubmitApplication(ctx, validRetired(), "key-1")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second.ID != first.ID || !second.Replayed {
		t.Fatalf("expected replay of %s, got %+v", first.ID, second)
	}

	// same key on the other form is a different operation
	c, err := svc.SubmitContact(ctx, validContact(), "key-1")
	if err != nil || c.Replayed {
		t.Fatalf("contact with same key should not replay: %+v %v", c, err)
	}

	waitDrained(t, tasks)
	if len(store.apps) != 1 {
		t.Fatalf("replay must not store again, got %d", len(store.apps))
	}
	if a, _ := n.counts(); a != 1 {
		t.Fatalf("replay must not notify again, got %d", a)
	}
}

func TestSubmit_KnownKeyWithInvalidPayloadIsRejected(t *testing.T) {
	store := &fakeStore{}
	tasks := NewBackground()
	svc := NewSubmissionService(store, repo.NewMemoryIdempotency(), &fakeNotifier{}, tasks, time.Hour)
	ctx := context.Background()

	if _, err := svc.SubmitApplication(ctx, validRetired(), "key-2"); err != nil {
		t.Fatalf("first: %v", err)
	}
	_, err := svc.SubmitApplication(ctx, validation.ApplicationInput{Category: "retired", Name: "A"}, "key-2")
	var ve *validation.ValidationError
	if !errors.As(err, &ve) || !ve.Has("name") {
		t.Fatalf("expected validation error, got %v", err)
	}

	if _, err := svc.SubmitContact(ctx, validContact(), "key-3"); err != nil {
		t.Fatalf("first contact: %v", err)
	}
	_, err = svc.SubmitContact(ctx, validation.ContactInput{Name: "A", Phone: "12345", Message: "hi"}, "key-3")
	if !errors.As(err, &ve) || !ve.Has("phone") {
		t.Fatalf("expected contact validation error, got %v", err)
	}
	waitDrained(t, tasks)
}

func TestSubmit_WithoutKeyCreatesTwoRecords(t *testing.T) {
	store := repo.NewMemoryStore()
	n := &fakeNotifier{}
	tasks := NewBackground()
	svc := NewSubmissionService(store, repo.NewMemoryIdempotency(), n, tasks, time.Hour)
	ctx := context.Background()

	a, _ := svc.SubmitApplication(ctx, validRetired(), "")
	b, _ := svc.SubmitApplication(ctx, validRetired(), "")
	waitDrained(t, tasks)
	if a.ID == b.ID {
		t.Fatalf("identical payloads must get distinct ids")
	}
	list, err := svc.ListApplications(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("expected both records listed, got %d %v", len(list), err)
	}
}

func TestList_StoreFault(t *testing.T) {
	svc := NewSubmissionService(&fakeStore{listErr: errors.New("boom")}, nil, &fakeNotifier{}, NewBackground(), time.Hour)
	if _, err := svc.ListApplications(context.Background()); !errors.Is(err, ErrStoreFault) {
		t.Fatalf("expected ErrStoreFault, got %v", err)
	}
	if _, err := svc.ListContacts(context.Background()); !errors.Is(err, ErrStoreFault) {
		t.Fatalf("expected ErrStoreFault, got %v", err)
	}
}

func TestSubmitApplication_EmptyEmailOnlyOperatorMail(t *testing.T) {
	mailer := &recordingMailer{}
	cfg := config.MailConfig{User: "noreply@skilinerecruitment.com", Password: "x", Recipient: "info@skilinerecruitment.com", FromName: "Skiline Recruitment"}
	tasks := NewBackground()
	svc := NewSubmissionService(repo.NewMemoryStore(), nil, notify.NewWithMailer(cfg, mailer), tasks, time.Hour)

	if _, err := svc.SubmitApplication(context.Background(), validRetired(), ""); err != nil {
		t.Fatalf("SubmitApplication: %v", err)
	}
	waitDrained(t, tasks)
	if len(mailer.sent) != 1 || mailer.sent[0].To != cfg.Recipient {
		t.Fatalf("expected a single operator dispatch, got %+v", mailer.sent)
	}
}

func TestSubmitApplication_DegradedModeStillAccepts(t *testing.T) {
	tasks := NewBackground()
	n := notify.New(config.MailConfig{Recipient: "info@skilinerecruitment.com"})
	svc := NewSubmissionService(repo.NewMemoryStore(), nil, n, tasks, time.Hour)

	rec, err := svc.SubmitApplication(context.Background(), validRetired(), "")
	if err != nil || rec.ID == "" {
		t.Fatalf("degraded mode must still accept: %+v %v", rec, err)
	}
	waitDrained(t, tasks)
}
