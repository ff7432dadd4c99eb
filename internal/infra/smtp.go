package infra

import (
	"fmt"
	"net/smtp"

	"ferrepos/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer wraps SMTP configuration for administrator notifications.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
}

// NewMailer returns nil when SMTP is not configured.
func NewMailer(cfg *config.Config) *Mailer {
	if cfg.SMTPHost == "" {
		return nil
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// Enviar sends a plain-text message to every recipient.
func (m *Mailer) Enviar(to []string, subject, body string) error {
	e := email.NewEmail()
	e.From = m.user
	e.To = to
	e.Subject = subject
	e.Text = []byte(body)

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	if err := e.Send(m.addr, auth); err != nil {
		return fmt.Errorf("mailer: %w", err)
	}
	return nil
}
