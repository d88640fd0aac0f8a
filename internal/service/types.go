package service

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type EmailSender interface {
	SendVerificationEmail(ctx context.Context, email string, token string) error
	SendPasswordResetEmail(ctx context.Context, email string, token string) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash string, password string) bool
}

// ShareConverter converts pending share invitations addressed to an
// email into records owned by the newly registered user. Implemented
// by the deals service; the account flow only triggers it.
type ShareConverter interface {
	ConvertPendingShares(ctx context.Context, email string) error
}

// ContactList adds a contact to the outbound marketing list.
type ContactList interface {
	AddContact(ctx context.Context, firstName string, lastName string, email string) error
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

type BcryptPasswordHasher struct {
	Cost int
}

func (h BcryptPasswordHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (h BcryptPasswordHasher) Verify(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
