package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/skiline-backend/internal/domain"
)

// GormStore persists submissions through GORM. It offers the same
// write-once contract as MemoryStore but survives restarts.
type GormStore struct {
	DB *gorm.DB
}

// NewGormStore wraps an opened and migrated database.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

// CreateApplication inserts a new application row.
func (s *GormStore) CreateApplication(ctx context.Context, app domain.Application) (domain.StoredApplication, error) {
	stored := domain.StoredApplication{
		ID:          uuid.NewString(),
		SubmittedAt: time.Now().UTC(),
		Application: app,
	}
	rec := domain.NewApplicationRecord(stored)
	if err := s.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.StoredApplication{}, err
	}
	return stored, nil
}

// ListApplications returns all rows ordered deterministically
// (submitted_at ASC, id ASC). Rows with a category unknown to this build
// are skipped.
func (s *GormStore) ListApplications(ctx context.Context) ([]domain.StoredApplication, error) {
	var rows []domain.ApplicationRecord
	err := s.DB.WithContext(ctx).Order("submitted_at ASC, id ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.StoredApplication, 0, len(rows))
	for _, r := range rows {
		st, ok := r.Stored()
		if !ok {
			log.Warn().Str("submission_id", r.ID).Str("category", r.Category).Msg("skipping application with unknown category")
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

// CreateContact inserts a new contact row.
func (s *GormStore) CreateContact(ctx context.Context, c domain.Contact) (domain.StoredContact, error) {
	stored := domain.StoredContact{
		ID:          uuid.NewString(),
		Contact:     c,
		SubmittedAt: time.Now().UTC(),
	}
	rec := domain.NewContactRecord(stored)
	if err := s.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.StoredContact{}, err
	}
	return stored, nil
}

// ListContacts returns all rows ordered (submitted_at ASC, id ASC).
func (s *GormStore) ListContacts(ctx context.Context) ([]domain.StoredContact, error) {
	var rows []domain.ContactRecord
	err := s.DB.WithContext(ctx).Order("submitted_at ASC, id ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.StoredContact, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Stored())
	}
	return out, nil
}
