package notifications

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	htmltemplate "html/template"
	"net/smtp"
	"strconv"
	"strings"
	texttemplate "text/template"
	"time"

	"fvivu/internal/shared/config"
	"fvivu/pkg/logger"
)

// EmailService delivers one rendered notification
type EmailService interface {
	SendNotification(ctx context.Context, notification *EmailNotification) error
}

type emailTemplate struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

func mustTemplate(name, html, text string) emailTemplate {
	return emailTemplate{
		html: htmltemplate.Must(htmltemplate.New(name).Parse(html)),
		text: texttemplate.Must(texttemplate.New(name).Parse(text)),
	}
}

var templates = map[NotificationType]emailTemplate{
	NotificationTypeBookingConfirmed: mustTemplate("booking_confirmed", `
<h2>Your tour is booked!</h2>
<p>Hi {{.RecipientName}},</p>
<p>Your booking for <strong>{{.Data.tourName}}</strong> starting <strong>{{.Data.startDate}}</strong> is confirmed.</p>
<p>Travellers: {{.Data.numberOfPeople}}<br>Amount paid: {{.Data.price}} {{.Data.currency}}</p>
<p><a href="{{.Data.bookingsUrl}}">View my bookings</a></p>
<p>See you soon,<br>The Fvivu team</p>`,
		`Hi {{.RecipientName}},

Your booking for {{.Data.tourName}} starting {{.Data.startDate}} is confirmed.
Travellers: {{.Data.numberOfPeople}}
Amount paid: {{.Data.price}} {{.Data.currency}}

View my bookings: {{.Data.bookingsUrl}}

See you soon,
The Fvivu team`),

	NotificationTypeTourApprovalDecision: mustTemplate("tour_approval_decision", `
<h2>Your tour has been reviewed</h2>
<p>Hi {{.RecipientName}},</p>
{{if eq .Data.decision "ACTIVE"}}<p><strong>{{.Data.tourName}}</strong> was approved and is now open for booking.</p>
{{else}}<p><strong>{{.Data.tourName}}</strong> was not approved. Update it and it will be reviewed again.</p>{{end}}
<p>The Fvivu team</p>`,
		`Hi {{.RecipientName}},

{{if eq .Data.decision "ACTIVE"}}{{.Data.tourName}} was approved and is now open for booking.{{else}}{{.Data.tourName}} was not approved. Update it and it will be reviewed again.{{end}}

The Fvivu team`),

	NotificationTypePartnerWelcome: mustTemplate("partner_welcome", `
<h2>Welcome to Fvivu</h2>
<p>Hi {{.RecipientName}},</p>
<p>A partner account was created for you.</p>
<p>Email: <strong>{{.RecipientEmail}}</strong><br>Temporary password: <strong>{{.Data.temporaryPassword}}</strong></p>
<p>Please <a href="{{.Data.loginUrl}}">log in</a> and change your password right away.</p>
<p>The Fvivu team</p>`,
		`Hi {{.RecipientName}},

A partner account was created for you.
Email: {{.RecipientEmail}}
Temporary password: {{.Data.temporaryPassword}}

Please log in at {{.Data.loginUrl}} and change your password right away.

The Fvivu team`),

	NotificationTypeEmailConfirmation: mustTemplate("email_confirmation", `
<h2>Confirm your email</h2>
<p>Hi {{.RecipientName}},</p>
<p>Your confirmation PIN is <strong>{{.Data.pin}}</strong>.</p>
<p>It expires in {{.Data.expiresInMinutes}} minutes.</p>
<p>The Fvivu team</p>`,
		`Hi {{.RecipientName}},

Your confirmation PIN is {{.Data.pin}}.
It expires in {{.Data.expiresInMinutes}} minutes.

The Fvivu team`),

	NotificationTypePasswordReset: mustTemplate("password_reset", `
<h2>Reset your password</h2>
<p>Hi {{.RecipientName}},</p>
<p>Someone asked to reset the password for this account. <a href="{{.Data.resetUrl}}">Choose a new password</a>.</p>
<p>The link expires in {{.Data.expiresInMinutes}} minutes. If you did not ask for this, ignore this email.</p>
<p>The Fvivu team</p>`,
		`Hi {{.RecipientName}},

Someone asked to reset the password for this account. Choose a new password here:
{{.Data.resetUrl}}

The link expires in {{.Data.expiresInMinutes}} minutes. If you did not ask for this, ignore this email.

The Fvivu team`),

	NotificationTypeWelcome: mustTemplate("welcome", `
<h2>Welcome to Fvivu</h2>
<p>Hi {{.RecipientName}},</p>
<p>Your email is confirmed. <a href="{{.Data.toursUrl}}">Find your next tour</a>.</p>
<p>The Fvivu team</p>`,
		`Hi {{.RecipientName}},

Your email is confirmed. Find your next tour at {{.Data.toursUrl}}

The Fvivu team`),
}

// RenderNotification returns the HTML and plain text bodies for a notification
func RenderNotification(notification *EmailNotification) (string, string, error) {
	tmpl, ok := templates[notification.Type]
	if !ok {
		return "", "", fmt.Errorf("no email template for %s", notification.Type)
	}

	view := struct {
		RecipientName  string
		RecipientEmail string
		Data           map[string]interface{}
	}{notification.RecipientName, notification.RecipientEmail, notification.TemplateData}

	var htmlBuf, textBuf bytes.Buffer
	if err := tmpl.html.Execute(&htmlBuf, view); err != nil {
		return "", "", fmt.Errorf("failed to render HTML body: %w", err)
	}
	if err := tmpl.text.Execute(&textBuf, view); err != nil {
		return "", "", fmt.Errorf("failed to render text body: %w", err)
	}
	return strings.TrimSpace(htmlBuf.String()), strings.TrimSpace(textBuf.String()), nil
}

// SMTPEmailService sends mail over SMTP with STARTTLS
type SMTPEmailService struct {
	config config.EmailConfig
	logger *logger.Logger
}

func NewSMTPEmailService(cfg config.EmailConfig) (*SMTPEmailService, error) {
	if err := validateSMTPConfig(cfg); err != nil {
		return nil, err
	}
	return &SMTPEmailService{config: cfg, logger: logger.GetDefault()}, nil
}

func validateSMTPConfig(cfg config.EmailConfig) error {
	if cfg.SMTPHost == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if cfg.SMTPPort <= 0 || cfg.SMTPPort > 65535 {
		return fmt.Errorf("SMTP port must be between 1 and 65535")
	}
	if cfg.SMTPUsername == "" {
		return fmt.Errorf("SMTP username is required")
	}
	if cfg.FromEmail == "" {
		return fmt.Errorf("from email is required")
	}
	return nil
}

func (s *SMTPEmailService) SendNotification(ctx context.Context, notification *EmailNotification) error {
	htmlBody, textBody, err := RenderNotification(notification)
	if err != nil {
		return err
	}

	message := buildMessage(s.config.FromName, s.config.FromEmail, notification.RecipientEmail, notification.Subject, htmlBody, textBody)
	auth := smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	if err := s.sendWithSTARTTLS(addr, auth, notification.RecipientEmail, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.InfoWithContext(ctx, "Email sent", map[string]interface{}{
		"type":      string(notification.Type),
		"recipient": notification.RecipientEmail,
	})
	return nil
}

func (s *SMTPEmailService) sendWithSTARTTLS(addr string, auth smtp.Auth, to string, message []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Quit()

	if err = client.StartTLS(&tls.Config{ServerName: s.config.SMTPHost}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}
	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}
	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return w.Close()
}

// buildMessage creates a multipart/alternative message
func buildMessage(fromName, fromEmail, to, subject, htmlBody, textBody string) []byte {
	boundary := "boundary_" + strconv.FormatInt(time.Now().UnixNano(), 10)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", fromName, fromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	if textBody != "" {
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", boundary, textBody)
	}
	if htmlBody != "" {
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", boundary, htmlBody)
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}

// LogEmailService renders mail and writes it to the log instead of sending.
// Used when SMTP is not configured.
type LogEmailService struct {
	logger *logger.Logger
}

func NewLogEmailService() *LogEmailService {
	return &LogEmailService{logger: logger.GetDefault()}
}

func (s *LogEmailService) SendNotification(ctx context.Context, notification *EmailNotification) error {
	_, textBody, err := RenderNotification(notification)
	if err != nil {
		return err
	}
	s.logger.InfoWithContext(ctx, "Email not sent, SMTP not configured", map[string]interface{}{
		"to":      notification.RecipientEmail,
		"subject": notification.Subject,
	})
	s.logger.DebugWithContext(ctx, "Email body", map[string]interface{}{"body": textBody})
	return nil
}
