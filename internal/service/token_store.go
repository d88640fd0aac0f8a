package service

import (
	"context"

	"dealbase/internal/apierr"
	"dealbase/internal/entity"
	"dealbase/internal/repository"
	"dealbase/internal/utils"

	"github.com/google/uuid"
)

const verificationTokenBytes = 32

// TokenStore manages the single verification/reset token slot per
// user. Issue rotates the slot, Validate checks a submitted value,
// Consume spends it. Only the latest issuance can ever validate
// because Issue overwrites the row in place.
type TokenStore struct {
	tokens repository.VerificationTokenRepository
	clock  Clock
}

func NewTokenStore(tokens repository.VerificationTokenRepository, clock Clock) *TokenStore {
	if clock == nil {
		clock = RealClock{}
	}
	return &TokenStore{tokens: tokens, clock: clock}
}

// Issue generates a fresh random value and upserts the user's token
// row with it, reactivating the slot and resetting its creation time.
// The raw value is returned for delivery; only its hash is stored.
func (s *TokenStore) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	raw, err := utils.GenerateRandomToken(verificationTokenBytes)
	if err != nil {
		return "", err
	}

	token := &entity.VerificationToken{
		UserID:    userID,
		TokenHash: utils.HashToken(raw),
		IsActive:  true,
		CreatedAt: s.clock.Now(),
	}
	if err := s.tokens.Upsert(ctx, token); err != nil {
		return "", err
	}
	return raw, nil
}

// Validate looks up the user's token slot and checks the submitted
// value against it. The caller is responsible for calling Consume on
// success.
func (s *TokenStore) Validate(ctx context.Context, submitted string, userID uuid.UUID) (*entity.VerificationToken, error) {
	token, err := s.tokens.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, apierr.NotFound()
	}

	if utils.HashToken(submitted) != token.TokenHash || !token.IsValid(s.clock.Now()) {
		return nil, apierr.VerificationFailed()
	}
	return token, nil
}

// Consume spends the token. It is a compare-and-consume: if another
// request already spent it, the loser gets VerificationFailed instead
// of silently double-using the token.
func (s *TokenStore) Consume(ctx context.Context, token *entity.VerificationToken) error {
	consumed, err := s.tokens.ConsumeActive(ctx, token.ID)
	if err != nil {
		return err
	}
	if !consumed {
		return apierr.VerificationFailed()
	}
	return nil
}
