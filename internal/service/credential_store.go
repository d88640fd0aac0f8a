package service

import (
	"context"

	"dealbase/internal/apierr"
	"dealbase/internal/entity"
	"dealbase/internal/repository"
	"dealbase/internal/utils"
)

// dummy bcrypt hash compared against when the email is unknown, so the
// response time does not reveal whether the account exists.
const dummyPasswordHash = "$2a$10$CwTycUXWue0Thq9StjUM0uJ8yQbWc1x9uxw2sQ2sXUNx5x9xJ9F2S"

// CredentialStore owns the user identity record and the password
// primitives. Hashing is delegated to the injected PasswordHasher.
type CredentialStore struct {
	users  repository.UserRepository
	hasher PasswordHasher
}

func NewCredentialStore(users repository.UserRepository, hasher PasswordHasher) *CredentialStore {
	return &CredentialStore{users: users, hasher: hasher}
}

func (s *CredentialStore) CreateUser(ctx context.Context, email, password, firstName, lastName string) (*entity.User, error) {
	email = utils.NormalizeEmail(email)

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apierr.ValidationError(map[string][]string{
			"email": {"A user with this email already exists."},
		})
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: hash,
		IsVerified:   false,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate returns the matching user, or nil without error when
// the email is unknown or the password is wrong. The two cases are
// indistinguishable to the caller.
func (s *CredentialStore) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	user, err := s.users.FindByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = s.hasher.Verify(dummyPasswordHash, password)
		return nil, nil
	}
	if !s.hasher.Verify(user.PasswordHash, password) {
		return nil, nil
	}
	return user, nil
}

func (s *CredentialStore) SetPassword(ctx context.Context, user *entity.User, newPassword string) error {
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

// ChangeEmail swaps the login email and drops the verified flag, since
// control of the new address has not been proven yet.
func (s *CredentialStore) ChangeEmail(ctx context.Context, user *entity.User, newEmail string) error {
	newEmail = utils.NormalizeEmail(newEmail)

	existing, err := s.users.FindByEmail(ctx, newEmail)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != user.ID {
		return apierr.ValidationError(map[string][]string{
			"email": {"A user with this email already exists."},
		})
	}

	user.Email = newEmail
	user.IsVerified = false
	return s.users.Update(ctx, user)
}
