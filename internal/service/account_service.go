package service

import (
	"context"
	"encoding/json"
	"strings"

	"dealbase/internal/apierr"
	"dealbase/internal/dto"
	"dealbase/internal/entity"
	"dealbase/internal/repository"
	"dealbase/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// AccountService composes the credential, verification-token and
// session-token stores into the account lifecycle operations. Each
// operation is a short linear flow that short-circuits to a taxonomy
// error.
type AccountService struct {
	users         repository.UserRepository
	securityLogs  repository.SecurityLogRepository
	creds         *CredentialStore
	verifications *TokenStore
	sessions      *SessionTokenIssuer

	emails   EmailSender
	shares   ShareConverter
	contacts ContactList
	logger   logrus.FieldLogger
}

func NewAccountService(
	users repository.UserRepository,
	securityLogs repository.SecurityLogRepository,
	creds *CredentialStore,
	verifications *TokenStore,
	sessions *SessionTokenIssuer,
	emails EmailSender,
	shares ShareConverter,
	contacts ContactList,
	logger logrus.FieldLogger,
) *AccountService {
	return &AccountService{
		users:         users,
		securityLogs:  securityLogs,
		creds:         creds,
		verifications: verifications,
		sessions:      sessions,
		emails:        emails,
		shares:        shares,
		contacts:      contacts,
		logger:        logger,
	}
}

func (s *AccountService) Signup(ctx context.Context, in dto.SignupRequest) (*entity.User, *entity.SessionToken, error) {
	email := utils.NormalizeEmail(in.Email)
	if err := requireFields(map[string]string{
		"email":      email,
		"password":   in.Password,
		"first_name": in.FirstName,
		"last_name":  in.LastName,
	}); err != nil {
		return nil, nil, err
	}

	user, err := s.creds.CreateUser(ctx, email, in.Password, strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName))
	if err != nil {
		return nil, nil, err
	}

	session, err := s.sessions.IssueOrRotate(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.verifications.Issue(ctx, user.ID); err != nil {
		return nil, nil, err
	}

	if s.shares != nil {
		if err := s.shares.ConvertPendingShares(ctx, user.Email); err != nil && s.logger != nil {
			s.logger.WithError(err).WithField("email", user.Email).Error("pending share conversion failed")
		}
	}

	s.logSecurity(ctx, &user.ID, nil, entity.Signup, nil)
	return user, session, nil
}

func (s *AccountService) Login(ctx context.Context, in dto.LoginRequest, ipAddress *string) (*entity.User, *entity.SessionToken, error) {
	email := utils.NormalizeEmail(in.Email)
	if err := requireFields(map[string]string{
		"email":    email,
		"password": in.Password,
	}); err != nil {
		return nil, nil, err
	}

	user, err := s.creds.Authenticate(ctx, email, in.Password)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		s.logSecurity(ctx, nil, ipAddress, entity.LoginFailed, map[string]any{"email": email})
		return nil, nil, apierr.AuthenticationFailed()
	}

	session, err := s.sessions.Get(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	s.logSecurity(ctx, &user.ID, ipAddress, entity.LoginSuccess, nil)
	return user, session, nil
}

// Retrieve returns the authenticated user's current session token.
func (s *AccountService) Retrieve(ctx context.Context, user *entity.User) (*entity.SessionToken, error) {
	return s.sessions.Get(ctx, user.ID)
}

func (s *AccountService) Verify(ctx context.Context, user *entity.User, submitted string) error {
	submitted = strings.TrimSpace(submitted)
	if err := requireFields(map[string]string{"verification_token": submitted}); err != nil {
		return err
	}

	token, err := s.verifications.Validate(ctx, submitted, user.ID)
	if err != nil {
		return err
	}
	if err := s.verifications.Consume(ctx, token); err != nil {
		return err
	}

	user.IsVerified = true
	return s.users.Update(ctx, user)
}

func (s *AccountService) ResendVerification(ctx context.Context, user *entity.User) error {
	raw, err := s.verifications.Issue(ctx, user.ID)
	if err != nil {
		return err
	}
	return s.sendVerificationEmail(ctx, user.Email, raw)
}

// ForgotPassword always reports success. An unknown email is only
// logged, so the response code cannot be used to enumerate accounts.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	email = utils.NormalizeEmail(email)
	if err := requireFields(map[string]string{"email": email}); err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		if s.logger != nil {
			s.logger.WithField("email", email).Info("password reset requested for unknown email")
		}
		return nil
	}

	raw, err := s.verifications.Issue(ctx, user.ID)
	if err != nil {
		return err
	}
	if s.emails != nil {
		if err := s.emails.SendPasswordResetEmail(ctx, user.Email, raw); err != nil {
			return apierr.EmailError()
		}
	}
	return nil
}

func (s *AccountService) ResetPassword(ctx context.Context, in dto.ResetPasswordRequest) (*entity.User, *entity.SessionToken, error) {
	email := utils.NormalizeEmail(in.Email)
	submitted := strings.TrimSpace(in.VerificationToken)
	if err := requireFields(map[string]string{
		"email":              email,
		"password":           in.Password,
		"verification_token": submitted,
	}); err != nil {
		return nil, nil, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, apierr.NotFound()
	}

	token, err := s.verifications.Validate(ctx, submitted, user.ID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.verifications.Consume(ctx, token); err != nil {
		return nil, nil, err
	}

	if err := s.creds.SetPassword(ctx, user, in.Password); err != nil {
		return nil, nil, err
	}
	session, err := s.sessions.IssueOrRotate(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	s.logSecurity(ctx, &user.ID, nil, entity.PasswordReset, nil)
	return user, session, nil
}

func (s *AccountService) ChangePassword(ctx context.Context, user *entity.User, in dto.ChangePasswordRequest) (*entity.SessionToken, error) {
	if err := requireFields(map[string]string{
		"current_password": in.CurrentPassword,
		"new_password":     in.NewPassword,
	}); err != nil {
		return nil, err
	}

	authed, err := s.creds.Authenticate(ctx, user.Email, in.CurrentPassword)
	if err != nil {
		return nil, err
	}
	if authed == nil {
		return nil, apierr.AuthenticationFailed()
	}
	// The credential checked out but belongs to someone other than the
	// requester. Distinct from a wrong password.
	if authed.ID != user.ID {
		return nil, apierr.PermissionDenied()
	}

	if err := s.creds.SetPassword(ctx, user, in.NewPassword); err != nil {
		return nil, err
	}
	session, err := s.sessions.IssueOrRotate(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.logSecurity(ctx, &user.ID, nil, entity.PasswordChanged, nil)
	return session, nil
}

func (s *AccountService) ChangeEmail(ctx context.Context, user *entity.User, newEmail string) (*entity.User, *entity.SessionToken, error) {
	newEmail = utils.NormalizeEmail(newEmail)
	if err := requireFields(map[string]string{"email": newEmail}); err != nil {
		return nil, nil, err
	}

	previous := user.Email
	if err := s.creds.ChangeEmail(ctx, user, newEmail); err != nil {
		return nil, nil, err
	}

	session, err := s.sessions.IssueOrRotate(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	raw, err := s.verifications.Issue(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.sendVerificationEmail(ctx, user.Email, raw); err != nil {
		return nil, nil, err
	}

	s.logSecurity(ctx, &user.ID, nil, entity.EmailChanged, map[string]any{"previous": previous})
	return user, session, nil
}

// UpdateProfile applies a partial update of the name fields. Email and
// password are deliberately unreachable through this path.
func (s *AccountService) UpdateProfile(ctx context.Context, user *entity.User, in dto.UpdateProfileRequest) (*entity.User, error) {
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AccountService) Waitlist(ctx context.Context, in dto.WaitlistRequest) error {
	email := utils.NormalizeEmail(in.Email)
	if err := requireFields(map[string]string{
		"email":      email,
		"first_name": in.FirstName,
		"last_name":  in.LastName,
	}); err != nil {
		return err
	}

	if s.contacts == nil {
		return nil
	}
	if err := s.contacts.AddContact(ctx, in.FirstName, in.LastName, email); err != nil {
		return apierr.ExternalServiceUnavailable()
	}
	return nil
}

func (s *AccountService) sendVerificationEmail(ctx context.Context, email string, token string) error {
	if s.emails == nil {
		return nil
	}
	if err := s.emails.SendVerificationEmail(ctx, email, token); err != nil {
		return apierr.EmailError()
	}
	return nil
}

func (s *AccountService) logSecurity(ctx context.Context, userID *uuid.UUID, ipAddress *string, action entity.SecurityAction, metadata map[string]any) {
	if s.securityLogs == nil {
		return
	}

	var payload datatypes.JSON
	if metadata != nil {
		bytes, err := json.Marshal(metadata)
		if err != nil {
			return
		}
		payload = datatypes.JSON(bytes)
	}

	log := &entity.SecurityLog{
		UserID:    userID,
		IPAddress: ipAddress,
		Action:    action,
		Metadata:  payload,
	}
	if err := s.securityLogs.Log(ctx, log); err != nil && s.logger != nil {
		s.logger.WithError(err).Error("security log write failed")
	}
}

func requireFields(fields map[string]string) error {
	errs := make(map[string][]string)
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			errs[name] = append(errs[name], "This field is required.")
		}
	}
	if len(errs) > 0 {
		return apierr.ValidationError(errs)
	}
	return nil
}
