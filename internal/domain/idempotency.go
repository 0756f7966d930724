package domain

import "time"

// IdempotencyKey records the submission produced for a client-supplied
// Idempotency-Key within a scope ("application" or "contact"). A retried
// form post carrying the same key is answered with SubmissionID instead of
// creating a second record.
type IdempotencyKey struct {
	ID           string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Scope        string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_scope_key,priority:1"`
	Key          string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_scope_key,priority:2"`
	SubmissionID string    `gorm:"type:TEXT NOT NULL"`
	CreatedAt    time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt    time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (IdempotencyKey) TableName() string { return "idempotency_keys" }
