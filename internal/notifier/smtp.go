package notifier

import (
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

// EmailSender delivers acknowledgement mail over SMTP with STARTTLS.
// Sends are best effort: the caller logs failures and never surfaces them
// to the registrant-facing request.
type EmailSender struct {
	smtpHost string
	smtpPort string
	username string
	password string
	log      *zap.Logger
}

func NewEmailSender(host, port, user, pass string, log *zap.Logger) *EmailSender {
	return &EmailSender{
		smtpHost: host,
		smtpPort: port,
		username: user,
		password: pass,
		log:      log,
	}
}

func (e *EmailSender) Send(to, subject, body string) error {
	if e.username == "" || e.password == "" {
		e.log.Warn("smtp not configured, skipping email", zap.String("to", to))
		return nil
	}

	from := e.username
	msg := []byte(
		fmt.Sprintf("From: %s\r\n", from) +
			fmt.Sprintf("To: %s\r\n", to) +
			fmt.Sprintf("Subject: %s\r\n", subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/plain; charset=\"utf-8\"\r\n" +
			"\r\n" +
			body,
	)

	addr := e.smtpHost + ":" + e.smtpPort
	auth := smtp.PlainAuth("", e.username, e.password, e.smtpHost)

	if err := smtp.SendMail(addr, auth, from, []string{to}, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
