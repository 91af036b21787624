package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/mail"

	"gopkg.in/gomail.v2"

	"pozt-backend/internal/config"
)

type SMTPSender struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

func NewSMTPSender(cfg config.NotifyConfig) *SMTPSender {
	d := gomail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.SMTP.Host}

	from := cfg.From
	if from == "" {
		from = cfg.SMTP.Username
	}
	return &SMTPSender{dialer: d, from: from, fromName: cfg.FromName}
}

func (s *SMTPSender) Name() string { return "smtp" }

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if _, err := mail.ParseAddress(msg.To); err != nil {
		return permanent(fmt.Errorf("invalid recipient %q: %w", msg.To, err))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}
