package auth

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const alertKey = "alert"

// Session carries one-shot alerts between page views
type Session struct {
	sessions.Session
}

func LoadSession(c *gin.Context) *Session {
	return &Session{
		Session: sessions.Default(c),
	}
}

func (s *Session) SetAlert(message string) {
	s.AddFlash(message, alertKey)
	s.save()
}

// PopAlert returns the pending alert, if any, and forgets it
func (s *Session) PopAlert() string {
	flashes := s.Flashes(alertKey)
	if len(flashes) == 0 {
		return ""
	}
	s.save()
	alert, _ := flashes[len(flashes)-1].(string)
	return alert
}

func (s *Session) LogoutUser() {
	s.Clear()
	s.Options(sessions.Options{Path: "/", MaxAge: -1})
	s.save()
}

func (s *Session) save() {
	if err := s.Save(); err != nil {
		zap.L().Warn("saving session", zap.Error(err))
	}
}
