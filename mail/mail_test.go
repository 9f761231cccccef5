package mail

import (
	"context"
	"errors"
	"testing"
	"time"

	"natours/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	sent []*Message
	err  error
}

func (r *recorder) Send(_ context.Context, msg *Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func TestSend(t *testing.T) {
	user := &models.User{Name: "Jonas Schmedtmann", Email: "jonas@example.com"}
	tests := []struct {
		name     string
		send     func(e *Email, m Mailer) error
		subject  string
		contains string
	}{
		{
			"welcome",
			func(e *Email, m Mailer) error { return e.SendWelcome(context.Background(), m) },
			"Welcome to the Natours Family!",
			"Welcome to Natours, we're glad to have you",
		},
		{
			"password reset",
			func(e *Email, m Mailer) error { return e.SendPasswordReset(context.Background(), m, 10*time.Minute) },
			"Your password reset token (valid for only 10 minutes)",
			"Forgot your password?",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{}
			e := NewEmail(user, "http://localhost:8080/me")
			require.NoError(t, tt.send(e, r))
			require.Len(t, r.sent, 1)

			msg := r.sent[0]
			assert.Equal(t, "jonas@example.com", msg.To)
			assert.Equal(t, tt.subject, msg.Subject)
			assert.Contains(t, msg.HTML, "Hi Jonas,")
			assert.Contains(t, msg.HTML, `href="http://localhost:8080/me"`)
			assert.Contains(t, msg.Text, tt.contains)
			assert.NotContains(t, msg.Text, "<p>")
		})
	}
}

func TestSendError(t *testing.T) {
	r := &recorder{err: errors.New("quota exceeded")}
	e := NewEmail(&models.User{Name: "Lea", Email: "lea@example.com"}, "/")
	assert.EqualError(t, e.SendWelcome(context.Background(), r), "quota exceeded")
}

func TestLogMailer(t *testing.T) {
	msg, err := NewEmail(&models.User{Name: "Lea", Email: "lea@example.com"}, "/").Render(TemplateWelcome, "Hi")
	require.NoError(t, err)
	assert.NoError(t, (&LogMailer{}).Send(context.Background(), msg))
}
