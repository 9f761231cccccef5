package auth

import (
	"natours/db"
	"natours/errs"
	"natours/models"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	userKey = "natours:user"
	// UserTemplateKey exposes the logged in user to the views
	UserTemplateKey = "user"
)

var (
	errNotLoggedIn     = errs.Unauthorized("You are not logged in! Please log in to get access.")
	errUserGone        = errs.Unauthorized("The user belonging to this token does no longer exist.")
	errPasswordChanged = errs.Unauthorized("User recently changed password! Please log in again.")
	errForbidden       = errs.Forbidden("You do not have permission to perform this action")
)

// Protect only lets requests with a valid token of an existing user through
func Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := authenticate(c, bearerToken(c), cookieToken(c)); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RestrictTo must run after Protect
func RestrictTo(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if err := authorize(c, user, roles); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// IsLoggedIn loads the user from the jwt cookie, if any, and never fails
func IsLoggedIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := cookieToken(c); token != "" {
			if _, err := authenticate(c, "", token); err != nil {
				zap.L().Debug("ignoring cookie", zap.Error(err))
			}
		}
		c.Next()
	}
}

// CurrentUser returns the user stored by Protect or IsLoggedIn
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

func setCurrentUser(c *gin.Context, user *models.User) {
	c.Set(userKey, user)
	c.Set(UserTemplateKey, user)
}

func authenticate(c *gin.Context, tokens ...string) (*models.User, error) {
	token := ""
	for _, t := range tokens {
		if t != "" {
			token = t
			break
		}
	}
	if token == "" {
		return nil, errNotLoggedIn
	}
	claims, err := ParseToken(token)
	if err != nil {
		return nil, err
	}
	user := &models.User{}
	if err = db.Instance.WithContext(c.Request.Context()).First(user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errUserGone
		}
		return nil, err
	}
	if user.ChangedPasswordAfter(claims.IssuedAtTime()) {
		return nil, errPasswordChanged
	}
	setCurrentUser(c, user)
	return user, nil
}

func authorize(c *gin.Context, user *models.User, roles []models.Role) error {
	if user == nil {
		return errNotLoggedIn
	}
	if len(roles) == 0 {
		return nil
	}
	allowed, err := Allowed(c.Request.Context(), user.Role, roles)
	if err != nil {
		return errs.Internal(err)
	}
	if !allowed {
		return errForbidden
	}
	return nil
}
