package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pozt-backend/internal/config"
)

type flakySender struct {
	failures int
	err      error
	calls    int
}

func (s *flakySender) Name() string { return "flaky" }

func (s *flakySender) Send(context.Context, Message) error {
	s.calls++
	if s.calls <= s.failures {
		return s.err
	}
	return nil
}

func TestRetryingRecoversFromOneFailure(t *testing.T) {
	inner := &flakySender{failures: 1, err: errors.New("421 try again")}
	r := NewRetrying(inner, 1, time.Millisecond, zap.NewNop())

	require.NoError(t, r.Send(context.Background(), Message{To: "a@x.com"}))
	assert.Equal(t, 2, inner.calls)
}

func TestRetryingGivesUp(t *testing.T) {
	cause := errors.New("connection refused")
	inner := &flakySender{failures: 10, err: cause}
	r := NewRetrying(inner, 1, time.Millisecond, zap.NewNop())

	err := r.Send(context.Background(), Message{To: "a@x.com"})
	assert.ErrorIs(t, err, ErrDelivery)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 2, inner.calls)
}

func TestRetryingSkipsPermanentFailures(t *testing.T) {
	inner := &flakySender{failures: 10, err: permanent(errors.New("550 no such user"))}
	r := NewRetrying(inner, 3, time.Millisecond, zap.NewNop())

	err := r.Send(context.Background(), Message{To: "a@x.com"})
	assert.ErrorIs(t, err, ErrDelivery)
	assert.Equal(t, 1, inner.calls)
}

func TestOTPMessage(t *testing.T) {
	msg := OTPMessage("a@x.com", "123456", 5*time.Minute)

	assert.Equal(t, "a@x.com", msg.To)
	assert.Equal(t, "POztLite Verification", msg.Subject)
	assert.Contains(t, msg.Text, "123456")
	assert.Contains(t, msg.Text, "5 minutes")
	assert.Contains(t, msg.HTML, "<strong>123456</strong>")
}

func TestNewSelectsProvider(t *testing.T) {
	var cfg config.NotifyConfig

	cfg.Provider = "log"
	s, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "log", s.Name())

	cfg.Provider = "sendgrid"
	_, err = New(cfg, zap.NewNop())
	assert.Error(t, err)

	cfg.SendGrid.APIKey = "SG.key"
	cfg.From = "no-reply@pozt.local"
	s, err = New(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "sendgrid", s.Name())

	cfg.Provider = "smtp"
	_, err = New(cfg, zap.NewNop())
	assert.Error(t, err)

	cfg.SMTP.Host = "smtp.example.com"
	cfg.SMTP.Port = 587
	cfg.SMTP.Username = "mailer"
	s, err = New(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "smtp", s.Name())

	cfg.Provider = "pigeon"
	_, err = New(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestSMTPRejectsBadRecipient(t *testing.T) {
	var cfg config.NotifyConfig
	cfg.SMTP.Host = "smtp.example.com"
	cfg.SMTP.Username = "mailer"

	err := NewSMTPSender(cfg).Send(context.Background(), Message{To: "not an address"})
	var perm *PermanentError
	assert.True(t, errors.As(err, &perm))
}
