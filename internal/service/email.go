package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

type EmailService struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
	appURL    string
	appName   string
}

func NewEmailService(apiKey, fromEmail, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		isDev:     isDev,
		appURL:    appURL,
		appName:   appName,
	}
}

func (s *EmailService) SendWelcomeEmail(ctx context.Context, email, username string) error {
	galleryURL := fmt.Sprintf("%s/gallery", s.appURL)
	subject, body := welcomeEmailTemplate(username, galleryURL, s.appName)
	return s.send(ctx, "welcome", email, subject, body, "url", galleryURL)
}

func (s *EmailService) SendBadgeAwardedEmail(ctx context.Context, email, username string, badgeNames []string) error {
	if len(badgeNames) == 0 {
		return nil
	}
	profileURL := fmt.Sprintf("%s/u/%s", s.appURL, username)
	subject, body := badgeAwardedEmailTemplate(username, badgeNames, profileURL, s.appName)
	return s.send(ctx, "badge_awarded", email, subject, body, "badges", badgeNames)
}

func (s *EmailService) send(ctx context.Context, kind, to, subject, body string, attrs ...any) error {
	if s.isDev {
		args := append([]any{"type", kind, "to", to, "subject", subject}, attrs...)
		slog.Info("email sent (dev mode)", args...)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}

	slog.Info("email sent", "type", kind, "to", to)
	return nil
}
