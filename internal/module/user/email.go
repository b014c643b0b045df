package user

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"go.uber.org/zap"
)

// EmailSender sends transactional email.
type EmailSender interface {
	SendOTPEmail(ctx context.Context, email, name, code string) error
	SendRenewalReminderEmail(ctx context.Context, email, name string, daysLeft int) error
}

// SMTPConfig holds SMTP configuration.
type SMTPConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	FromAddress string
	FromName    string
}

// SMTPEmailSender sends emails via SMTP.
type SMTPEmailSender struct {
	config *SMTPConfig
	logger *zap.Logger
}

// NewSMTPEmailSender creates a new SMTP email sender.
func NewSMTPEmailSender(config *SMTPConfig, logger *zap.Logger) *SMTPEmailSender {
	return &SMTPEmailSender{
		config: config,
		logger: logger,
	}
}

// SendOTPEmail sends a verification code email.
func (s *SMTPEmailSender) SendOTPEmail(ctx context.Context, email, name, code string) error {
	subject := "Your verification code"
	body, err := s.renderTemplate(otpEmailTemplate, map[string]string{
		"Name": name,
		"Code": code,
	})
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	return s.sendEmail(email, subject, body)
}

// SendRenewalReminderEmail reminds a subscriber that their plan is ending.
func (s *SMTPEmailSender) SendRenewalReminderEmail(ctx context.Context, email, name string, daysLeft int) error {
	subject := "Your subscription is ending soon"
	body, err := s.renderTemplate(renewalReminderTemplate, map[string]any{
		"Name":     name,
		"DaysLeft": daysLeft,
	})
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	return s.sendEmail(email, subject, body)
}

func (s *SMTPEmailSender) sendEmail(to, subject, body string) error {
	from := s.config.FromAddress
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromAddress)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		from, to, subject, body)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	var auth smtp.Auth
	if s.config.User != "" && s.config.Password != "" {
		auth = smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
	}

	if err := smtp.SendMail(addr, auth, s.config.FromAddress, []string{to}, []byte(msg)); err != nil {
		s.logger.Error("failed to send email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	return nil
}

func (s *SMTPEmailSender) renderTemplate(tmpl string, data any) (string, error) {
	t, err := template.New("email").Parse(tmpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const otpEmailTemplate = `
<html>
<body style="font-family: sans-serif;">
  <h2>Hi {{.Name}},</h2>
  <p>Your verification code is:</p>
  <p style="font-size: 28px; letter-spacing: 4px; font-weight: bold;">{{.Code}}</p>
  <p>The code expires shortly. If you did not request it, you can ignore this email.</p>
</body>
</html>
`

const renewalReminderTemplate = `
<html>
<body style="font-family: sans-serif;">
  <h2>Hi {{.Name}},</h2>
  <p>Your subscription ends in {{.DaysLeft}} day(s).</p>
  <p>Renew now to keep generating content without interruption.</p>
</body>
</html>
`
