package repository

import (
	"context"
	"errors"

	"dealbase/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VerificationTokenRepository interface {
	// Upsert replaces the user's token slot: value, active flag and
	// creation time are all overwritten on conflict.
	Upsert(ctx context.Context, token *entity.VerificationToken) error
	FindByUser(ctx context.Context, userID uuid.UUID) (*entity.VerificationToken, error)
	// ConsumeActive flips is_active to false only if it is still true,
	// reporting whether this call won. Concurrent consumers of the same
	// token see exactly one true result.
	ConsumeActive(ctx context.Context, id uuid.UUID) (bool, error)
}

type verificationTokenRepository struct {
	db *gorm.DB
}

func NewVerificationTokenRepository(db *gorm.DB) VerificationTokenRepository {
	return &verificationTokenRepository{db: db}
}

func (r *verificationTokenRepository) Upsert(ctx context.Context, token *entity.VerificationToken) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"token_hash", "is_active", "created_at"}),
		}).
		Create(token).Error
}

func (r *verificationTokenRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*entity.VerificationToken, error) {
	var token entity.VerificationToken
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&token).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *verificationTokenRepository) ConsumeActive(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.VerificationToken{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)

	return result.RowsAffected > 0, result.Error
}
