package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"
)

// ResendEmailSender delivers verification and password-reset emails
// through the Resend API.
type ResendEmailSender struct {
	Client     *resend.Client
	From       string
	AppBaseURL string
	VerifyPath string
	ResetPath  string
}

func NewResendEmailSender(apiKey string, from string, appBaseURL string) *ResendEmailSender {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(from) == "" {
		return nil
	}
	return &ResendEmailSender{
		Client:     resend.NewClient(apiKey),
		From:       from,
		AppBaseURL: strings.TrimRight(appBaseURL, "/"),
		VerifyPath: "/verify-email",
		ResetPath:  "/reset-password",
	}
}

func (s *ResendEmailSender) SendVerificationEmail(ctx context.Context, email string, token string) error {
	link := s.buildURL(s.VerifyPath, token)
	return s.send(
		email,
		"Verify your email",
		fmt.Sprintf("<p>Click to verify your email:</p><p><a href=%q>Verify Email</a></p>", link),
		fmt.Sprintf("Verify your email: %s", link),
	)
}

func (s *ResendEmailSender) SendPasswordResetEmail(ctx context.Context, email string, token string) error {
	link := s.buildURL(s.ResetPath, token)
	return s.send(
		email,
		"Reset your password",
		fmt.Sprintf("<p>Click to reset your password:</p><p><a href=%q>Reset Password</a></p>", link),
		fmt.Sprintf("Reset your password: %s", link),
	)
}

func (s *ResendEmailSender) buildURL(path string, token string) string {
	if s.AppBaseURL == "" {
		return token
	}
	return fmt.Sprintf("%s%s?token=%s", s.AppBaseURL, path, token)
}

func (s *ResendEmailSender) send(to string, subject string, html string, text string) error {
	params := &resend.SendEmailRequest{
		From:    s.From,
		To:      []string{to},
		Subject: subject,
		Html:    html,
		Text:    text,
	}
	if _, err := s.Client.Emails.Send(params); err != nil {
		return err
	}
	return nil
}
