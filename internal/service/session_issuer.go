package service

import (
	"context"

	"dealbase/internal/apierr"
	"dealbase/internal/entity"
	"dealbase/internal/repository"
	"dealbase/internal/utils"

	"github.com/google/uuid"
)

const sessionTokenBytes = 32

// SessionTokenIssuer hands out the single opaque bearer token a user
// holds at a time.
type SessionTokenIssuer struct {
	sessions repository.SessionTokenRepository
}

func NewSessionTokenIssuer(sessions repository.SessionTokenRepository) *SessionTokenIssuer {
	return &SessionTokenIssuer{sessions: sessions}
}

// IssueOrRotate replaces whatever token the user currently holds with
// a fresh one. The old key is deleted, not deactivated.
func (s *SessionTokenIssuer) IssueOrRotate(ctx context.Context, userID uuid.UUID) (*entity.SessionToken, error) {
	key, err := utils.GenerateRandomToken(sessionTokenBytes)
	if err != nil {
		return nil, err
	}

	token := &entity.SessionToken{UserID: userID, Key: key}
	if err := s.sessions.Replace(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// Get fetches the user's current token. A missing row is a server
// integrity fault, not a client error: every account gets a token at
// signup and rotation never leaves a gap.
func (s *SessionTokenIssuer) Get(ctx context.Context, userID uuid.UUID) (*entity.SessionToken, error) {
	token, err := s.sessions.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, apierr.InternalServerError()
	}
	return token, nil
}
