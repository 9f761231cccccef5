package middleware

import (
	"net/http"
	"strings"

	"natours/auth"
	"natours/config"
	"natours/errs"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	genericMessage  = "Something went very wrong!"
	viewErrorTitle  = "Something went wrong!"
	viewGenericText = "Please try again later."
)

// ErrorHandler renders the last error pushed with c.Error. API requests get
// JSON, everything else the error page.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		appErr := errs.Translate(err)
		if !appErr.Operational {
			zap.L().Error("request failed",
				zap.Error(err),
				zap.String("request_id", c.GetString(RequestIDKey)),
				zap.String("path", c.Request.URL.Path),
			)
		}
		if c.Writer.Written() {
			return
		}
		if IsAPI(c) {
			renderAPIError(c, appErr)
			return
		}
		renderViewError(c, appErr)
	}
}

// NotFound is used for routes nobody handles
func NotFound(c *gin.Context) {
	_ = c.Error(errs.NotFound("Can't find " + c.Request.URL.String() + " on this server!"))
}

func IsAPI(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api")
}

func renderAPIError(c *gin.Context, appErr *errs.AppError) {
	if !config.Current.IsProduction() {
		c.JSON(appErr.StatusCode, gin.H{
			"status":  appErr.Status,
			"message": appErr.Message,
			"error":   appErr.Error(),
			"stack":   appErr.StackTrace(),
		})
		return
	}
	if appErr.Operational {
		c.JSON(appErr.StatusCode, gin.H{
			"status":  appErr.Status,
			"message": appErr.Message,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"status":  errs.StatusError,
		"message": genericMessage,
	})
}

func renderViewError(c *gin.Context, appErr *errs.AppError) {
	message := appErr.Message
	if config.Current.IsProduction() && !appErr.Operational {
		message = viewGenericText
	}
	c.HTML(appErr.StatusCode, "error", gin.H{
		"title":              viewErrorTitle,
		"msg":                message,
		auth.UserTemplateKey: auth.CurrentUser(c),
	})
}
