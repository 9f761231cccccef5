// Package web renders the server side pages of the site.
package web

import (
	"embed"
	"html/template"
	"net/http"

	"natours/auth"
	"natours/storage"

	"github.com/Masterminds/sprig/v3"
	"github.com/gin-gonic/gin"
)

const (
	alertQuery   = "alert"
	bookingAlert = "Your booking was successful! Please check your email for a confirmation. If your booking doesn't show up here immediately, please come back later."
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Templates parses the embedded pages with the sprig functions available
func Templates() (*template.Template, error) {
	return template.New("").
		Funcs(sprig.FuncMap()).
		Funcs(template.FuncMap{
			"tourImage": imageURL(storage.TourImagePath),
			"userPhoto": imageURL(storage.UserImagePath),
		}).
		ParseFS(templateFS, "templates/*.tmpl")
}

func imageURL(path func(string) string) func(string) string {
	return func(name string) string {
		if name == "" {
			return ""
		}
		return storage.Default().URL(path(name))
	}
}

// Alerts turns ?alert=booking into a one-shot alert for the next page
func Alerts(c *gin.Context) {
	if c.Query(alertQuery) == "booking" {
		auth.LoadSession(c).SetAlert(bookingAlert)
	}
	c.Next()
}

// render adds the logged in user and the pending alert to the page data
func render(c *gin.Context, code int, name, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["title"] = title
	if _, ok := data[auth.UserTemplateKey]; !ok {
		data[auth.UserTemplateKey] = auth.CurrentUser(c)
	}
	if alert := auth.LoadSession(c).PopAlert(); alert != "" {
		data["alert"] = alert
	}
	c.HTML(code, name, data)
}

func DisallowRobots(c *gin.Context) {
	c.String(http.StatusOK, "User-agent: *\nDisallow: /api/\n")
}
