package services

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"net/smtp"
	"strings"
	"time"

	"github.com/peoplesquare/backend/internal/config"
	"github.com/peoplesquare/backend/pkg/logger"
)

// Mailer delivers password reset codes out of band.
type Mailer interface {
	SendResetCode(ctx context.Context, to, fullName, code string, ttl time.Duration) error
	Enabled() bool
}

// NewMailer returns an SMTP mailer when enabled, otherwise a mailer that
// only logs.
func NewMailer(cfg config.SMTPConfig) Mailer {
	if !cfg.Enabled || cfg.Host == "" {
		return noopMailer{}
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPMailer{cfg: cfg}
}

type noopMailer struct{}

func (noopMailer) Enabled() bool { return false }

func (noopMailer) SendResetCode(ctx context.Context, to, fullName, code string, ttl time.Duration) error {
	log := logger.Module("mail")
	log.Debug().Str("to", to).Msg("SMTP disabled, reset code not sent")
	return nil
}

type SMTPMailer struct {
	cfg config.SMTPConfig
}

func (m *SMTPMailer) Enabled() bool { return true }

func (m *SMTPMailer) SendResetCode(ctx context.Context, to, fullName, code string, ttl time.Duration) error {
	subject := "[People Square] Your password reset code"
	body := buildResetBody(fullName, code, ttl)
	return m.send([]string{to}, subject, body)
}

func buildResetBody(fullName, code string, ttl time.Duration) string {
	var sb strings.Builder
	sb.WriteString("<html><body style=\"font-family: Arial, sans-serif;\">")
	fmt.Fprintf(&sb, "<p>Hello %s,</p>", html.EscapeString(fullName))
	sb.WriteString("<p>Use the following code to reset your password:</p>")
	fmt.Fprintf(&sb, "<p style=\"font-size: 24px; font-weight: bold; letter-spacing: 4px;\">%s</p>", code)
	fmt.Fprintf(&sb, "<p>The code expires in %d minutes. If you did not ask for a reset you can ignore this email.</p>", int(ttl.Minutes()))
	sb.WriteString("<hr><p style=\"color: #888; font-size: 12px;\">People Square</p>")
	sb.WriteString("</body></html>")
	return sb.String()
}

func (m *SMTPMailer) send(to []string, subject, body string) error {
	from := m.cfg.From
	if from == "" {
		from = m.cfg.Username
	}

	headers := [][2]string{
		{"From", from},
		{"To", strings.Join(to, ",")},
		{"Subject", subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	}

	var message strings.Builder
	for _, h := range headers {
		fmt.Fprintf(&message, "%s: %s\r\n", h[0], h[1])
	}
	message.WriteString("\r\n")
	message.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	var err error
	if m.cfg.UseTLS {
		err = m.sendTLS(addr, auth, from, to, message.String())
	} else {
		err = smtp.SendMail(addr, auth, from, to, []byte(message.String()))
	}

	log := logger.Module("mail")
	if err != nil {
		log.Warn().Err(err).Strs("to", to).Msg("Failed to send email")
		return err
	}

	log.Info().Strs("to", to).Msg("Sent reset code")
	return nil
}

func (m *SMTPMailer) sendTLS(addr string, auth smtp.Auth, from string, to []string, message string) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.cfg.Host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}

	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}

	if _, err := w.Write([]byte(message)); err != nil {
		return err
	}

	return w.Close()
}
