// Package handlers implements the /api/v1 REST endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"natours/errs"
	"natours/mail"
	"natours/payments"
	"natours/utils"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

const statusSuccess = "success"

// WelcomeSender delivers the signup email, possibly in the background
type WelcomeSender interface {
	SendWelcome(ctx context.Context, e *mail.Email)
}

type Options struct {
	Mailer   mail.Mailer
	Welcome  WelcomeSender
	Payments payments.Gateway
}

var (
	mailer        mail.Mailer
	welcomeSender WelcomeSender
	gateway       payments.Gateway
)

// Init sets the collaborators used by the handlers
func Init(o Options) {
	mailer = o.Mailer
	welcomeSender = o.Welcome
	gateway = o.Payments
}

func sendList(c *gin.Context, plural string, docs interface{}, results int) {
	c.JSON(http.StatusOK, gin.H{
		"status":  statusSuccess,
		"results": results,
		"data":    gin.H{plural: docs},
	})
}

func sendOne(c *gin.Context, statusCode int, singular string, doc interface{}) {
	c.JSON(statusCode, gin.H{
		"status": statusSuccess,
		"data":   gin.H{singular: doc},
	})
}

func sendData(c *gin.Context, data gin.H) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusSuccess,
		"data":   data,
	})
}

func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func paramID(c *gin.Context, name string) (uint64, error) {
	value := c.Param(name)
	id, ok := utils.StringToUInt64(value)
	if !ok {
		return 0, errs.InvalidID(name, value)
	}
	return id, nil
}

// baseURL is the scheme and host the client used to reach us
func baseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

// absoluteURL leaves full URLs alone and prefixes site relative ones
func absoluteURL(c *gin.Context, url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return baseURL(c) + url
}

// Body is a request body by top level key. Multipart forms are read the same
// way, values that are valid JSON keep their type.
type Body map[string]json.RawMessage

func readBody(c *gin.Context) (Body, error) {
	b := Body{}
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, errs.BadRequest("Invalid multipart body")
		}
		for key, values := range form.Value {
			if len(values) == 0 {
				continue
			}
			b.setString(key, values[len(values)-1])
		}
		return b, nil
	}
	if c.Request.Body == nil {
		return b, nil
	}
	err := json.NewDecoder(c.Request.Body).Decode(&b)
	if errors.Is(err, io.EOF) {
		return Body{}, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (b Body) setString(key, value string) {
	if json.Valid([]byte(value)) {
		b[key] = json.RawMessage(value)
		return
	}
	b.set(key, value)
}

func (b Body) set(key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err == nil {
		b[key] = raw
	}
}

func (b Body) has(keys ...string) bool {
	for _, k := range keys {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}

// only keeps the given keys
func (b Body) only(keys ...string) Body {
	result := Body{}
	for _, k := range keys {
		if v, ok := b[k]; ok {
			result[k] = v
		}
	}
	return result
}

func (b Body) without(keys ...string) Body {
	for _, k := range keys {
		delete(b, k)
	}
	return b
}

// decodeInto merges the body onto dst
func (b Body) decodeInto(dst interface{}) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func (b Body) str(key string) string {
	var s string
	if raw, ok := b[key]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}
