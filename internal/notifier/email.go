package notifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"text/template"

	"pr-reminder/internal/config"
	"pr-reminder/pkg/models"
)

var emailTemplate = template.Must(template.New("email").Parse(`{{range .Lines}}{{.}}
{{end}}
This is an automated reminder from the PR reminder service.
`))

// EmailNotifier implements email notifications
type EmailNotifier struct {
	config config.SMTP
}

// NewEmailNotifier creates a new email notifier
func NewEmailNotifier(cfg config.SMTP) *EmailNotifier {
	return &EmailNotifier{config: cfg}
}

func (e *EmailNotifier) Name() string { return "email" }

// Send emails one chunk. net/smtp has no context support, so ctx is only checked up front.
func (e *EmailNotifier) Send(ctx context.Context, chunk models.MessageChunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := e.generateEmailBody(chunk)
	if err != nil {
		return fmt.Errorf("error generating email body: %w", err)
	}

	subject := e.config.Subject
	if subject == "" {
		subject = "Pull request reminder"
	}
	return e.sendEmail(subject, body)
}

// generateEmailBody creates the email content
func (e *EmailNotifier) generateEmailBody(chunk models.MessageChunk) (string, error) {
	// Render chunk lines followed by the footer
	var body strings.Builder
	if err := emailTemplate.Execute(&body, chunk); err != nil {
		return "", err
	}
	return body.String(), nil
}

// sendEmail sends the email using SMTP
func (e *EmailNotifier) sendEmail(subject, body string) error {
	to := strings.Join(e.config.To, ",")
	msg := fmt.Sprintf("To: %s\r\nFrom: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		to, e.config.From, subject, body)

	addr := fmt.Sprintf("%s:%d", e.config.Host, e.config.Port)

	var auth smtp.Auth
	if e.config.User != "" && e.config.Password != "" {
		auth = smtp.PlainAuth("", e.config.User, e.config.Password, e.config.Host)
	}

	var err error
	if auth != nil && e.config.Port == 465 {
		// Implicit TLS for port 465
		err = e.sendWithTLS(addr, auth, e.config.From, e.config.To, []byte(msg))
	} else {
		// SendMail upgrades with STARTTLS when the server offers it (587, local test servers)
		err = smtp.SendMail(addr, auth, e.config.From, e.config.To, []byte(msg))
	}

	if err != nil {
		slog.Error("Failed to send email", "error", err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("Email notification sent successfully", "recipients", e.config.To)
	return nil
}

// sendWithTLS sends email with TLS encryption
func (e *EmailNotifier) sendWithTLS(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	// Create TLS config
	tlsConfig := &tls.Config{
		ServerName: e.config.Host,
	}

	// Connect to SMTP server
	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Create SMTP client
	client, err := smtp.NewClient(conn, e.config.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	// Authenticate
	if err = client.Auth(auth); err != nil {
		return err
	}

	// Set sender
	if err = client.Mail(from); err != nil {
		return err
	}

	// Set recipients
	for _, recipient := range to {
		if err = client.Rcpt(recipient); err != nil {
			return err
		}
	}

	// Send message
	writer, err := client.Data()
	if err != nil {
		return err
	}
	if _, err = writer.Write(msg); err != nil {
		writer.Close()
		return err
	}
	if err = writer.Close(); err != nil {
		return err
	}

	// Close the session
	return client.Quit()
}
