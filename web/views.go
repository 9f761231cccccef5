package web

import (
	"net/http"

	"natours/auth"
	"natours/db"
	"natours/errs"
	"natours/handlers"
	"natours/models"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Register mounts the pages. Every page knows the logged in user, if any.
func Register(r gin.IRouter) {
	r.Use(auth.IsLoggedIn(), Alerts)
	r.GET("/", Overview)
	r.GET("/tours/:slug", Tour)
	r.GET("/login", Login)

	views := &auth.Router{Base: r}
	views.GET("/me", Account)
	views.GET("/my-tours", MyTours)
	views.POST("/submit-user-data", SubmitUserData)
}

func Overview(c *gin.Context) {
	tours := []models.Tour{}
	if err := db.Instance.WithContext(c.Request.Context()).Order("created_at").Find(&tours).Error; err != nil {
		_ = c.Error(err)
		return
	}
	render(c, http.StatusOK, "overview", "All Tours", gin.H{"tours": tours})
}

func Tour(c *gin.Context) {
	tour, err := models.TourBySlug(c.Param("slug"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_ = c.Error(errs.NotFound("There is no tour with that name."))
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	render(c, http.StatusOK, "tour", tour.Name+" Tour", gin.H{"tour": tour})
}

func Login(c *gin.Context) {
	render(c, http.StatusOK, "login", "Log into your account", nil)
}

func Account(c *gin.Context, user *models.User) {
	render(c, http.StatusOK, "account", "Your account", gin.H{auth.UserTemplateKey: user})
}

func MyTours(c *gin.Context, user *models.User) {
	tours, err := models.BookedTours(user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	render(c, http.StatusOK, "overview", "My Tours", gin.H{"tours": tours})
}

// SubmitUserData is the plain form version of updateMe
func SubmitUserData(c *gin.Context, user *models.User) {
	user.Name = c.PostForm("name")
	user.Email = c.PostForm("email")
	if err := handlers.UpdateProfile(c, user); err != nil {
		_ = c.Error(err)
		return
	}
	render(c, http.StatusOK, "account", "Your account", gin.H{auth.UserTemplateKey: user})
}
