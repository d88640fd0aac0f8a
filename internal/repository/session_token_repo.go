package repository

import (
	"context"
	"errors"

	"dealbase/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionTokenRepository interface {
	// Replace deletes any token the user holds and inserts the new one
	// in a single transaction, so the old key stops resolving at the
	// moment the new one appears.
	Replace(ctx context.Context, token *entity.SessionToken) error
	FindByUser(ctx context.Context, userID uuid.UUID) (*entity.SessionToken, error)
	FindByKey(ctx context.Context, key string) (*entity.SessionToken, error)
}

type sessionTokenRepository struct {
	db *gorm.DB
}

func NewSessionTokenRepository(db *gorm.DB) SessionTokenRepository {
	return &sessionTokenRepository{db: db}
}

func (r *sessionTokenRepository) Replace(ctx context.Context, token *entity.SessionToken) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", token.UserID).Delete(&entity.SessionToken{}).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
}

func (r *sessionTokenRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*entity.SessionToken, error) {
	var token entity.SessionToken
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

func (r *sessionTokenRepository) FindByKey(ctx context.Context, key string) (*entity.SessionToken, error) {
	var token entity.SessionToken
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&token).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}
