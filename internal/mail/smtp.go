package mail

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/studynotion/apiserver/config"
	"github.com/studynotion/apiserver/internal/services"
)

// SMTPSender sends HTML mail through an SMTP relay.
type SMTPSender struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{
		dialer:   gomail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password),
		from:     cfg.FromEmail,
		fromName: cfg.FromName,
	}
}

func (s *SMTPSender) Send(ctx context.Context, n services.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(s.message(n)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", n.To, err)
	}
	return nil
}

func (s *SMTPSender) message(n services.Notification) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetHeader("To", n.To)
	m.SetHeader("Subject", n.Subject)
	m.SetBody("text/html", n.HTML)
	return m
}
