package utils

import (
	"fmt"
	"net/smtp"

	"chat-service/config"
)

// SendMail pushes one plain-text mail through the configured SMTP relay.
// Callers treat failures as best effort; nothing user-facing depends on it.
func SendMail(to, subject, body string) error {
	host := config.Config("SMTP_HOST")
	if host == "" {
		return fmt.Errorf("SMTP_HOST not configured")
	}

	from := config.Config("SMTP_FROM")
	addr := fmt.Sprintf("%s:%s", host, config.ConfigDefault("SMTP_PORT", "587"))

	var auth smtp.Auth
	if user := config.Config("SMTP_USER"); user != "" {
		auth = smtp.PlainAuth("", user, config.Config("SMTP_PASSWORD"), host)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", from, to, subject, body)
	return smtp.SendMail(addr, auth, from, []string{to}, []byte(msg))
}
