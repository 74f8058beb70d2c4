package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ahlanjobb/api/internal/model"
	ctxutil "github.com/ahlanjobb/api/pkg/context"
	"github.com/ahlanjobb/api/pkg/logger"
	"github.com/ahlanjobb/api/pkg/metrics"
	"github.com/ahlanjobb/api/pkg/queue"
)

// NotificationService turns account events into queued emails.
type NotificationService struct {
	dispatcher queue.Dispatcher
	clientURL  string
	appName    string
}

func NewNotificationService(dispatcher queue.Dispatcher, clientURL, appName string) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		clientURL:  strings.TrimRight(clientURL, "/"),
		appName:    appName,
	}
}

// VerifyURL is the client page that consumes a verification code.
func (s *NotificationService) VerifyURL(code string) string {
	return s.clientURL + "/verify-account/" + code
}

// ResetURL is the client page that consumes a password reset code.
func (s *NotificationService) ResetURL(code string) string {
	return s.clientURL + "/reset-password/" + code
}

func (s *NotificationService) SendVerification(ctx context.Context, user *model.User, code string) error {
	subject := "Verify your account"
	return s.enqueue(ctx, "SendVerification", queue.EmailJob{
		EmailOptions: queue.EmailOptions{To: user.Email, Subject: subject},
		Context: queue.EmailContext{
			Subject:     subject,
			Description: fmt.Sprintf("Welcome to %s! Please confirm your email address to activate your account.", s.appName),
			Action:      "Click the button below to verify your email address.",
			ActionURL:   s.VerifyURL(code),
			BtnText:     "Verify account",
		},
		Sensitive: true,
	})
}

func (s *NotificationService) SendPasswordReset(ctx context.Context, user *model.User, code string) error {
	subject := "Reset your password"
	return s.enqueue(ctx, "SendPasswordReset", queue.EmailJob{
		EmailOptions: queue.EmailOptions{To: user.Email, Subject: subject},
		Context: queue.EmailContext{
			Subject:     subject,
			Description: "We received a request to reset the password of your account.",
			Action:      "Click the button below to choose a new password. If you did not ask for this you can ignore this email.",
			ActionURL:   s.ResetURL(code),
			BtnText:     "Reset password",
		},
		Sensitive: true,
	})
}

// SendAccountCreated tells a staff-created user their generated password.
func (s *NotificationService) SendAccountCreated(ctx context.Context, user *model.User, password, code string) error {
	subject := fmt.Sprintf("Your %s account", s.appName)
	return s.enqueue(ctx, "SendAccountCreated", queue.EmailJob{
		EmailOptions: queue.EmailOptions{To: user.Email, Subject: subject},
		Context: queue.EmailContext{
			Subject:     subject,
			Description: fmt.Sprintf("An account has been created for you with the role %s.", user.Role),
			Message:     fmt.Sprintf("Email: %s / Password: %s", user.Email, password),
			Action:      "Verify your email address, then sign in and change your password.",
			ActionURL:   s.VerifyURL(code),
			BtnText:     "Verify account",
		},
		Sensitive: true,
	})
}

func (s *NotificationService) enqueue(ctx context.Context, function string, job queue.EmailJob) error {
	ctx = ctxutil.WithFunction(ctx, "service", function)

	if err := s.dispatcher.Enqueue(ctx, job); err != nil {
		metrics.EmailJobs.WithLabelValues("enqueue_failed").Inc()
		logger.ErrorWithContext(ctx, "Failed to enqueue email").
			String("to", job.EmailOptions.To).
			String("subject", job.EmailOptions.Subject).
			Err(err).
			Log()
		return err
	}

	metrics.EmailJobs.WithLabelValues("enqueued").Inc()
	logger.DebugWithContext(ctx, "Email enqueued").
		String("to", job.EmailOptions.To).
		String("subject", job.EmailOptions.Subject).
		Log()
	return nil
}
