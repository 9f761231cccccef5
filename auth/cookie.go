package auth

import (
	"net/http"
	"strings"
	"time"

	"natours/config"
	"natours/models"

	"github.com/gin-gonic/gin"
)

const (
	CookieName      = "jwt"
	loggedOutValue  = "loggedout"
	loggedOutExpiry = 10 * time.Second
)

// SendToken signs a token for the user, stores it in the jwt cookie and
// answers with the token and the user.
func SendToken(c *gin.Context, user *models.User, statusCode int) {
	token, err := SignToken(user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	setCookie(c, token, time.Now().Add(config.Current.JWTCookieExpiresIn()))
	c.JSON(statusCode, gin.H{
		"status": "success",
		"token":  token,
		"data":   gin.H{"user": user},
	})
}

// Logout replaces the jwt cookie with a short lived dummy value
func Logout(c *gin.Context) {
	setCookie(c, loggedOutValue, time.Now().Add(loggedOutExpiry))
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func setCookie(c *gin.Context, value string, expires time.Time) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   isSecure(c),
		SameSite: http.SameSiteLaxMode,
	})
}

func isSecure(c *gin.Context) bool {
	return config.Current.IsProduction() ||
		c.Request.TLS != nil ||
		c.GetHeader("X-Forwarded-Proto") == "https"
}

// bearerToken reads "Authorization: Bearer <token>"
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func cookieToken(c *gin.Context) string {
	token, err := c.Cookie(CookieName)
	if err != nil || token == loggedOutValue {
		return ""
	}
	return token
}
