package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ahlanjobb/api/config"
	"github.com/ahlanjobb/api/pkg/circuit"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

var ErrNotConfigured = errors.New("smtp is not configured")

// Message is a rendered email ready to send.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers over SMTP with gomail.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if s.dialer.Host == "" || s.from == "" {
		return ErrNotConfigured
	}
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("empty recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// BreakerSender fails fast while the wrapped sender keeps failing.
type BreakerSender struct {
	next    Sender
	breaker *circuit.Breaker
	logger  *zap.Logger
}

func NewBreakerSender(next Sender, breaker *circuit.Breaker, logger *zap.Logger) *BreakerSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BreakerSender{next: next, breaker: breaker, logger: logger}
}

func (s *BreakerSender) Send(ctx context.Context, msg Message) error {
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.next.Send(ctx, msg)
	})
	if errors.Is(err, circuit.ErrCircuitOpen) || errors.Is(err, circuit.ErrTooManyRequests) {
		s.logger.Warn("Email delivery short-circuited",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
		)
	}
	return err
}
