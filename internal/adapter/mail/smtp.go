package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"timely/internal/core/port"
	"timely/pkg/config"
)

// SMTPMailer sends multipart text+HTML mail through a plain SMTP relay.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(ctx context.Context, msg port.MailMessage) error {
	addr := m.cfg.Host + ":" + m.cfg.Port

	var auth smtp.Auth

	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}

	body := buildMIME(m.cfg.From, msg)

	done := make(chan error, 1)

	go func() {
		done <- smtp.SendMail(addr, auth, m.cfg.From, []string{msg.To}, body)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", msg.To, err)
		}

		return nil
	}
}

func buildMIME(from string, msg port.MailMessage) []byte {
	const boundary = "timely-mail-boundary"

	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(msg.Text)
	b.WriteString("\r\n")

	if msg.HTML != "" {
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
		b.WriteString(msg.HTML)
		b.WriteString("\r\n")
	}

	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	return []byte(b.String())
}
