package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/templui/recipehub/internal/metrics"
)

// Mailer delivers account lifecycle emails.
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, username, code string, validFor time.Duration) error
	SendPasswordReset(ctx context.Context, email, username, resetURL string, validFor time.Duration) error
	SendWelcome(ctx context.Context, email, username string) error
}

type EmailService struct {
	client      *resend.Client
	fromEmail   string
	isDev       bool
	frontendURL string
	appName     string
}

func NewEmailService(apiKey, fromEmail, frontendURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:      client,
		fromEmail:   fromEmail,
		isDev:       isDev,
		frontendURL: frontendURL,
		appName:     appName,
	}
}

func (s *EmailService) SendVerificationCode(ctx context.Context, email, username, code string, validFor time.Duration) error {
	subject, body := verificationCodeEmailTemplate(username, code, validFor, s.appName)
	return s.send(ctx, "verification_code", email, subject, body, "code", code)
}

func (s *EmailService) SendPasswordReset(ctx context.Context, email, username, resetURL string, validFor time.Duration) error {
	subject, body := passwordResetEmailTemplate(username, resetURL, validFor, s.appName)
	return s.send(ctx, "password_reset", email, subject, body, "url", resetURL)
}

func (s *EmailService) SendWelcome(ctx context.Context, email, username string) error {
	subject, body := welcomeEmailTemplate(username, s.frontendURL+"/recipes", s.appName)
	return s.send(ctx, "welcome", email, subject, body)
}

// send delivers through Resend, or only logs in development. devAttrs are
// logged in development mode only since they may carry secrets.
func (s *EmailService) send(ctx context.Context, template, to, subject, body string, devAttrs ...any) error {
	if s.isDev {
		attrs := append([]any{"type", template, "to", to, "subject", subject}, devAttrs...)
		slog.Info("email sent (dev mode)", attrs...)
		return nil
	}

	if s.client == nil {
		metrics.EmailFailuresTotal.WithLabelValues(template).Inc()
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
		metrics.EmailFailuresTotal.WithLabelValues(template).Inc()
		return fmt.Errorf("failed to send %s email: %w", template, err)
	}

	slog.Info("email sent", "type", template, "to", to)
	return nil
}
