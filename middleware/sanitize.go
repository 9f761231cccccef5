package middleware

import (
	"bytes"
	"encoding/json"
	"html"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// Sanitize cleans JSON bodies: keys starting with "$" or containing "." are
// dropped and HTML tags are stripped from every string except passwords.
// Plain text keeps its quotes, apostrophes and ampersands.
func Sanitize() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.ContentType() != gin.MIMEJSON {
			c.Next()
			return
		}
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))

		decoder := json.NewDecoder(bytes.NewReader(raw))
		decoder.UseNumber()
		var body interface{}
		if err = decoder.Decode(&body); err != nil {
			// leave it to the handler to report
			c.Next()
			return
		}
		clean, err := json.Marshal(sanitizeValue("", body))
		if err != nil {
			c.Next()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(clean))
		c.Request.ContentLength = int64(len(clean))
		c.Next()
	}
}

func sanitizeValue(key string, v interface{}) interface{} {
	switch value := v.(type) {
	case map[string]interface{}:
		for k, inner := range value {
			if strings.HasPrefix(k, "$") || strings.Contains(k, ".") {
				delete(value, k)
				continue
			}
			value[k] = sanitizeValue(k, inner)
		}
		return value
	case []interface{}:
		for i, inner := range value {
			value[i] = sanitizeValue(key, inner)
		}
		return value
	case string:
		if strings.Contains(strings.ToLower(key), "password") {
			return value
		}
		// the policy escapes what it keeps, the stored value is plain text
		return html.UnescapeString(strictPolicy.Sanitize(value))
	}
	return v
}

// ParameterPollution keeps only the last value of repeated query parameters,
// except for the whitelisted ones.
func ParameterPollution(whitelist ...string) gin.HandlerFunc {
	allowed := map[string]bool{}
	for _, name := range whitelist {
		allowed[name] = true
	}
	return func(c *gin.Context) {
		values := c.Request.URL.Query()
		changed := false
		for key, v := range values {
			if len(v) > 1 && !allowed[key] {
				values[key] = v[len(v)-1:]
				changed = true
			}
		}
		if changed {
			c.Request.URL.RawQuery = values.Encode()
		}
		c.Next()
	}
}
