// Package mail renders and sends the transactional emails of the site.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html"
	"html/template"
	"regexp"
	"strings"
	"time"

	"natours/config"
	"natours/metrics"
	"natours/models"

	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"
	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// Template names an embedded templates/<name>.html file
type Template string

const (
	TemplateWelcome       Template = "welcome"
	TemplatePasswordReset Template = "passwordReset"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	templates  = template.Must(template.ParseFS(templateFS, "templates/*.html"))
	textPolicy = bluemonday.StrictPolicy()
	blankLines = regexp.MustCompile(`\n\s*\n+`)
)

// Message is a rendered email
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// New picks Resend when an API key is configured and logs emails otherwise
func New(cfg *config.Config) Mailer {
	if cfg.ResendAPIKey != "" {
		return NewResendMailer(cfg.ResendAPIKey)
	}
	return &LogMailer{}
}

// ResendMailer delivers through the Resend API
type ResendMailer struct {
	client *resend.Client
}

func NewResendMailer(apiKey string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey)}
}

func (m *ResendMailer) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := m.client.Emails.Send(&resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// LogMailer only logs, for development
type LogMailer struct{}

func (m *LogMailer) Send(_ context.Context, msg *Message) error {
	zap.L().Info("email",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text),
	)
	return nil
}

// Email is addressed to one user; URL is the link the email is about
type Email struct {
	To        string
	FirstName string
	URL       string
	From      string
}

func NewEmail(user *models.User, url string) *Email {
	return &Email{
		To:        user.Email,
		FirstName: user.FirstName(),
		URL:       url,
		From:      config.Current.EmailFrom,
	}
}

// Render executes the template into both an HTML and a plain text body
func (e *Email) Render(name Template, subject string) (*Message, error) {
	var body bytes.Buffer
	data := map[string]string{
		"FirstName": e.FirstName,
		"URL":       e.URL,
		"Subject":   subject,
	}
	if err := templates.ExecuteTemplate(&body, string(name)+".html", data); err != nil {
		return nil, errors.Wrapf(err, "failed to execute email template %s", name)
	}
	return &Message{
		From:    e.From,
		To:      e.To,
		Subject: subject,
		HTML:    body.String(),
		Text:    htmlToText(body.String()),
	}, nil
}

func (e *Email) send(ctx context.Context, m Mailer, name Template, subject string) error {
	msg, err := e.Render(name, subject)
	if err == nil {
		err = m.Send(ctx, msg)
	}
	metrics.EmailsSent.WithLabelValues(string(name), metrics.Result(err)).Inc()
	return err
}

func (e *Email) SendWelcome(ctx context.Context, m Mailer) error {
	return e.send(ctx, m, TemplateWelcome, "Welcome to the Natours Family!")
}

func (e *Email) SendPasswordReset(ctx context.Context, m Mailer, validFor time.Duration) error {
	subject := fmt.Sprintf("Your password reset token (valid for only %d minutes)", int(validFor.Minutes()))
	return e.send(ctx, m, TemplatePasswordReset, subject)
}

func htmlToText(s string) string {
	text := html.UnescapeString(textPolicy.Sanitize(s))
	text = blankLines.ReplaceAllString(strings.TrimSpace(text), "\n\n")
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.Join(lines, "\n")
}
