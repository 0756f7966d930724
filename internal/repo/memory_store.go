package repo

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tbourn/skiline-backend/internal/domain"
)

// MemoryStore keeps submissions in process memory. Contents are lost on
// restart. Identifiers are random UUIDs, so concurrent creates need no
// shared counter; LoadOrStore guarantees one write never replaces another.
type MemoryStore struct {
	applications sync.Map // id -> domain.StoredApplication
	contacts     sync.Map // id -> domain.StoredContact

	// Now is the clock used for SubmittedAt. Defaults to time.Now in UTC.
	Now func() time.Time
	// NewID generates identifiers. Defaults to uuid.NewString.
	NewID func() string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *MemoryStore) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// CreateApplication stores app under a fresh identifier.
func (s *MemoryStore) CreateApplication(ctx context.Context, app domain.Application) (domain.StoredApplication, error) {
	if err := ctx.Err(); err != nil {
		return domain.StoredApplication{}, err
	}
	rec := domain.StoredApplication{SubmittedAt: s.now(), Application: app}
	for {
		rec.ID = s.newID()
		if _, loaded := s.applications.LoadOrStore(rec.ID, rec); !loaded {
			return rec, nil
		}
	}
}

// ListApplications returns every stored application ordered by
// (SubmittedAt, ID).
func (s *MemoryStore) ListApplications(ctx context.Context) ([]domain.StoredApplication, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.StoredApplication, 0)
	s.applications.Range(func(_, v any) bool {
		out = append(out, v.(domain.StoredApplication))
		return true
	})
	slices.SortFunc(out, func(a, b domain.StoredApplication) int {
		return cmp.Or(a.SubmittedAt.Compare(b.SubmittedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// CreateContact stores c under a fresh identifier.
func (s *MemoryStore) CreateContact(ctx context.Context, c domain.Contact) (domain.StoredContact, error) {
	if err := ctx.Err(); err != nil {
		return domain.StoredContact{}, err
	}
	rec := domain.StoredContact{Contact: c, SubmittedAt: s.now()}
	for {
		rec.ID = s.newID()
		if _, loaded := s.contacts.LoadOrStore(rec.ID, rec); !loaded {
			return rec, nil
		}
	}
}

// ListContacts returns every stored contact ordered by (SubmittedAt, ID).
func (s *MemoryStore) ListContacts(ctx context.Context) ([]domain.StoredContact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.StoredContact, 0)
	s.contacts.Range(func(_, v any) bool {
		out = append(out, v.(domain.StoredContact))
		return true
	})
	slices.SortFunc(out, func(a, b domain.StoredContact) int {
		return cmp.Or(a.SubmittedAt.Compare(b.SubmittedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}
