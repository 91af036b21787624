// Package notify delivers out-of-band messages (one-time passcodes) to users by email.
package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"pozt-backend/internal/config"
)

// ErrDelivery wraps every failed delivery.
var ErrDelivery = errors.New("notification delivery failed")

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a message to its recipient.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// PermanentError marks a failure that a retry cannot fix (bad address, rejected credentials).
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func permanent(err error) error {
	return &PermanentError{Err: err}
}

// New builds the configured provider wrapped with retries.
func New(cfg config.NotifyConfig, logger *zap.Logger) (Sender, error) {
	var base Sender
	switch cfg.Provider {
	case "smtp":
		if cfg.SMTP.Host == "" || cfg.SMTP.Username == "" {
			return nil, fmt.Errorf("smtp provider needs notify.smtp.host and notify.smtp.username")
		}
		base = NewSMTPSender(cfg)
	case "sendgrid":
		if cfg.SendGrid.APIKey == "" {
			return nil, fmt.Errorf("sendgrid provider needs SENDGRID_API_KEY")
		}
		base = NewSendGridSender(cfg)
	case "log", "":
		base = NewLogSender(logger)
	default:
		return nil, fmt.Errorf("unknown notify provider %q", cfg.Provider)
	}

	return NewRetrying(base, cfg.MaxRetries, cfg.RetryDelay, logger), nil
}
