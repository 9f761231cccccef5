// Package middleware holds the gin middleware of the request pipeline.
package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"natours/auth"
	"natours/errs"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "natours:request_id"
	RequestTimeKey  = "natours:request_time"

	CacheNoCache = 0
)

// RequestID adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(RequestIDHeader, requestID)
		c.Set(RequestIDKey, requestID)
		c.Set(RequestTimeKey, time.Now())
		c.Next()
	}
}

// Logger logs every request once it is done
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", c.GetString(RequestIDKey)),
			zap.String("client_ip", c.ClientIP()),
		}
		if user := auth.CurrentUser(c); user != nil {
			fields = append(fields, zap.Uint64("user_id", user.ID))
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("HTTP request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("HTTP request", fields...)
		default:
			logger.Info("HTTP request", fields...)
		}
	}
}

// Recovery turns panics into a 500, rendered like any other unexpected
// error: JSON for the API, the error page for views.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err interface{}) {
		logger.Error("panic recovered",
			zap.Any("error", err),
			zap.String("request_id", c.GetString(RequestIDKey)),
			zap.String("path", c.Request.URL.Path),
			zap.Stack("stack"),
		)
		appErr := errs.Internal(fmt.Errorf("panic: %v", err))
		c.Abort()
		if IsAPI(c) {
			renderAPIError(c, appErr)
			return
		}
		renderViewError(c, appErr)
	})
}

// SecurityHeaders sets the usual hardening headers
func SecurityHeaders() gin.HandlerFunc {
	csp := "default-src 'self' https:; " +
		"script-src 'self' https://js.stripe.com https://api.mapbox.com https://cdnjs.cloudflare.com; " +
		"style-src 'self' 'unsafe-inline' https:; " +
		"img-src 'self' data: blob: https:; " +
		"connect-src 'self' https://api.mapbox.com https://events.mapbox.com ws:; " +
		"frame-src https://js.stripe.com; " +
		"worker-src 'self' blob:; " +
		"object-src 'none'; base-uri 'self'; form-action 'self'; frame-ancestors 'self'"
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Content-Security-Policy", csp)
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("Cross-Origin-Resource-Policy", "same-origin")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-DNS-Prefetch-Control", "off")
		h.Set("X-Download-Options", "noopen")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("X-Permitted-Cross-Domain-Policies", "none")
		h.Set("X-XSS-Protection", "0")
		c.Next()
	}
}

// CacheControl sets cache-control; CacheNoCache disables caching
func CacheControl(maxAgeSeconds int) gin.HandlerFunc {
	value := "no-cache"
	if maxAgeSeconds != CacheNoCache {
		value = "public, max-age=" + strconv.Itoa(maxAgeSeconds)
	}
	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Next()
	}
}

// BodyLimit rejects request bodies larger than limit bytes. Multipart uploads
// get multipartLimit instead.
func BodyLimit(limit, multipartLimit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := limit
		if strings.HasPrefix(c.ContentType(), "multipart/") {
			limit = multipartLimit
		}
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"status":  "fail",
				"message": "Request body too large",
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
