// internal/app/system/mailer/mailer.go

// Package mailer sends transactional email over SMTP: password resets and
// temporary-password notices.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Email is a single outbound message. Both bodies should be set; clients
// that cannot render HTML fall back to the text part.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mailer sends email through a single SMTP endpoint.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	log      *zap.Logger
}

// New builds a Mailer. An empty host disables sending: Send logs the message
// and returns nil, which keeps local dev working without an SMTP server.
func New(host string, port int, username, password, from string, logger *zap.Logger) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		log:      logger,
	}
}

// Enabled reports whether a real SMTP endpoint is configured.
func (m *Mailer) Enabled() bool { return m.host != "" }

// Send delivers the email, or logs it when no SMTP host is configured.
func (m *Mailer) Send(e Email) error {
	if !m.Enabled() {
		m.log.Info("mailer disabled; dropping email",
			zap.String("to", e.To),
			zap.String("subject", e.Subject))
		return nil
	}

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	msg := buildMIME(m.from, e)
	if err := smtp.SendMail(addr, auth, m.from, []string{e.To}, msg); err != nil {
		return fmt.Errorf("send email to %s: %w", e.To, err)
	}

	m.log.Info("email sent",
		zap.String("to", e.To),
		zap.String("subject", e.Subject))
	return nil
}

// buildMIME assembles a multipart/alternative message with text and HTML parts.
func buildMIME(from string, e Email) []byte {
	const boundary = "leirefolket-mail-boundary"

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", e.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", e.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(e.TextBody)
	b.WriteString("\r\n")

	if e.HTMLBody != "" {
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		b.WriteString(e.HTMLBody)
		b.WriteString("\r\n")
	}

	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}
