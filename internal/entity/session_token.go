package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionToken is the opaque bearer credential for a user. One row per
// user; rotation deletes the old row, so a replaced key stops resolving
// immediately. The key is stored as-is because login and retrieve hand
// the current value back to the client.
type SessionToken struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	User   User      `gorm:"constraint:OnDelete:CASCADE"`

	Key string `gorm:"type:text;uniqueIndex;not null"`

	CreatedAt time.Time
}

func (t *SessionToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
