package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VerificationTokenTTL is how long an issued token stays usable.
const VerificationTokenTTL = 24 * time.Hour

// VerificationToken is the single email-verification / password-reset
// token slot for a user. The unique index on user_id makes "at most one
// token per user" a structural property: re-issuing overwrites the row,
// so any older value becomes unfindable.
type VerificationToken struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	User   User      `gorm:"constraint:OnDelete:CASCADE"`

	TokenHash string `gorm:"type:text;not null"`
	IsActive  bool   `gorm:"not null;default:true"`

	CreatedAt time.Time
}

func (t *VerificationToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *VerificationToken) ExpiresAt() time.Time {
	return t.CreatedAt.Add(VerificationTokenTTL)
}

func (t *VerificationToken) IsValid(now time.Time) bool {
	return t.IsActive && now.Before(t.ExpiresAt())
}
