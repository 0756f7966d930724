// This file provides the idempotency key stores used to answer retried form
// posts with the submission they originally produced.
package repo

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/skiline-backend/internal/domain"
)

// ErrNotFound is returned when no live record exists for a key.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates that a live record already exists for the given
// (scope, key) pair.
var ErrDuplicate = errors.New("duplicate")

// GormIdempotency stores keys in the idempotency_keys table.
type GormIdempotency struct {
	DB *gorm.DB
}

// NewGormIdempotency returns a key store on db.
func NewGormIdempotency(db *gorm.DB) *GormIdempotency {
	return &GormIdempotency{DB: db}
}

// Lookup returns the submission id remembered for (scope, key) or
// ErrNotFound when it is missing or expired at now.
func (s *GormIdempotency) Lookup(ctx context.Context, scope, key string, now time.Time) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", ErrNotFound
	}
	var rec domain.IdempotencyKey
	err := s.DB.WithContext(ctx).
		Where("scope = ? AND key = ? AND expires_at > ?", scope, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return rec.SubmissionID, nil
}

// Remember records submissionID for (scope, key) until ttl elapses. An
// expired row for the same pair is replaced; a live one yields ErrDuplicate.
func (s *GormIdempotency) Remember(ctx context.Context, scope, key, submissionID string, ttl time.Duration) error {
	now := time.Now().UTC()
	db := s.DB.WithContext(ctx)
	if err := db.Where("scope = ? AND key = ? AND expires_at <= ?", scope, key, now).
		Delete(&domain.IdempotencyKey{}).Error; err != nil {
		return err
	}
	rec := &domain.IdempotencyKey{
		ID:           uuid.NewString(),
		Scope:        scope,
		Key:          key,
		SubmissionID: submissionID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
	if err := db.Create(rec).Error; err != nil {
		// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

type memoryKey struct {
	scope, key string
}

type memoryEntry struct {
	submissionID string
	expiresAt    time.Time
}

// MemoryIdempotency is the in-process key store paired with MemoryStore.
type MemoryIdempotency struct {
	mu      sync.Mutex
	entries map[memoryKey]memoryEntry
}

// NewMemoryIdempotency returns an empty key store.
func NewMemoryIdempotency() *MemoryIdempotency {
	return &MemoryIdempotency{entries: make(map[memoryKey]memoryEntry)}
}

// Lookup mirrors GormIdempotency.Lookup.
func (s *MemoryIdempotency) Lookup(_ context.Context, scope, key string, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[memoryKey{scope, key}]
	if !ok || !e.expiresAt.After(now) {
		return "", ErrNotFound
	}
	return e.submissionID, nil
}

// Remember mirrors GormIdempotency.Remember. Expired entries are swept on
// every call.
func (s *MemoryIdempotency) Remember(_ context.Context, scope, key, submissionID string, ttl time.Duration) error {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if !e.expiresAt.After(now) {
			delete(s.entries, k)
		}
	}
	k := memoryKey{scope, key}
	if _, ok := s.entries[k]; ok {
		return ErrDuplicate
	}
	s.entries[k] = memoryEntry{submissionID: submissionID, expiresAt: now.Add(ttl)}
	return nil
}
