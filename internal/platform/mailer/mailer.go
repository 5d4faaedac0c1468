// Package mailer provides the outbound email capability used by the
// account lifecycle flows. The service layer depends only on the Mailer
// interface so tests can substitute a fake.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/phrazzld/taskdeck-api/internal/config"
)

// Mailer sends a single message to a single recipient. Implementations
// must honor context cancellation so a slow SMTP server cannot hold a
// request past its deadline.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer implements Mailer over authenticated SMTP.
type SMTPMailer struct {
	cfg config.MailConfig
}

// NewSMTPMailer creates an SMTPMailer from the mail configuration.
func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

var _ Mailer = (*SMTPMailer)(nil)

// Send implements Mailer. The SMTP dialog runs in its own goroutine so the
// caller's context deadline is respected; an abandoned dialog finishes in
// the background and its result is discarded.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	e := email.NewEmail()
	e.From = m.cfg.From
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	done := make(chan error, 1)
	go func() {
		done <- e.Send(addr, auth)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send mail: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("mail send canceled: %w", ctx.Err())
	}
}
