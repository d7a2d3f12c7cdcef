package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"user-portal/internal/observability"
)

// Sender delivers a generated password to a new or reset account.
type Sender interface {
	SendNewPassword(ctx context.Context, email, firstName, username, password string) error
}

const newPasswordSubject = "Welcome To The Platform"

func newPasswordBody(firstName, username, password string) string {
	return fmt.Sprintf(
		"Hello %s!\n\nYour new password is: %s\n\nfor the username: %s,\n\nThe Support Team",
		firstName, password, username,
	)
}

// SMTPSender sends over plain SMTP with optional auth.
type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPSender(host, port, from, username, password string) *SMTPSender {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	return &SMTPSender{
		addr: host + ":" + port,
		from: from,
		auth: auth,
	}
}

func (s *SMTPSender) SendNewPassword(_ context.Context, email, firstName, username, password string) error {
	message := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		s.from, email, newPasswordSubject, newPasswordBody(firstName, username, password))

	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{email}, []byte(message)); err != nil {
		return fmt.Errorf("send new password email: %w", err)
	}

	return nil
}

// LogSender is the fallback when SMTP is not configured. It records that a
// password was generated without ever logging the password itself.
type LogSender struct {
	logger *observability.Logger
}

func NewLogSender(logger *observability.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendNewPassword(_ context.Context, email, _, username, _ string) error {
	s.logger.Warn("password_email_skipped", map[string]any{
		"username": username,
		"email":    email,
		"reason":   "smtp not configured",
	})
	return nil
}
