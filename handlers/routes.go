package handlers

import (
	"natours/auth"
	"natours/models"

	"github.com/gin-gonic/gin"
)

var (
	staff      = []models.Role{models.RoleAdmin, models.RoleLeadGuide}
	tourGuides = []models.Role{models.RoleAdmin, models.RoleLeadGuide, models.RoleGuide}
)

// Register mounts the REST API on v1, normally /api/v1
func Register(v1 gin.IRouter) {
	registerTours(v1.Group("/tours"))
	registerUsers(v1.Group("/users"))
	registerReviews(v1.Group("/reviews"))
	registerBookings(v1.Group("/bookings"))
}

// RegisterWebhook mounts the checkout webhook, which must see the raw body
func RegisterWebhook(r gin.IRouter) {
	r.POST("/webhook-checkout", WebhookCheckout)
}

func registerTours(r *gin.RouterGroup) {
	r.GET("/top-5-cheap", AliasTopTours, Tours.GetAll)
	r.GET("/stats", TourStats)
	r.GET("/monthly-plan/:year", auth.Protect(), auth.RestrictTo(tourGuides...), MonthlyPlan)
	r.GET("/tours-within/:distance/center/:latlng/unit/:unit", ToursWithin)
	r.GET("/distances/:latlng/unit/:unit", Distances)

	r.GET("", Tours.GetAll)
	r.POST("", auth.Protect(), auth.RestrictTo(staff...), Tours.CreateOne)
	r.GET("/:id", Tours.GetOne)
	r.PATCH("/:id", auth.Protect(), auth.RestrictTo(staff...), Tours.UpdateOne)
	r.DELETE("/:id", auth.Protect(), auth.RestrictTo(staff...), Tours.DeleteOne)

	nested := r.Group("/:id/reviews", auth.Protect())
	nested.GET("", Reviews.GetAll)
	nested.POST("", auth.RestrictTo(models.RoleUser), Reviews.CreateOne)
}

func registerUsers(r *gin.RouterGroup) {
	r.POST("/signup", Signup)
	r.POST("/login", Login)
	r.GET("/logout", Logout)
	r.POST("/forgotPassword", ForgotPassword)
	r.PATCH("/resetPassword/:token", ResetPassword)

	me := &auth.Router{Base: r}
	me.PATCH("/updateMyPassword", UpdateMyPassword)
	me.GET("/me", Me)
	me.PATCH("/updateMe", UpdateMe)
	me.DELETE("/deleteMe", DeleteMe)

	admin := r.Group("", auth.Protect(), auth.RestrictTo(models.RoleAdmin))
	admin.GET("", Users.GetAll)
	admin.POST("", CreateUser)
	admin.GET("/:id", Users.GetOne)
	admin.PATCH("/:id", Users.UpdateOne)
	admin.DELETE("/:id", Users.DeleteOne)
}

func registerReviews(r *gin.RouterGroup) {
	r.Use(auth.Protect())
	r.GET("", Reviews.GetAll)
	r.POST("", auth.RestrictTo(models.RoleUser), Reviews.CreateOne)
	r.GET("/:id", Reviews.GetOne)
	r.PATCH("/:id", auth.RestrictTo(models.RoleUser, models.RoleAdmin), Reviews.UpdateOne)
	r.DELETE("/:id", auth.RestrictTo(models.RoleUser, models.RoleAdmin), Reviews.DeleteOne)
}

func registerBookings(r *gin.RouterGroup) {
	(&auth.Router{Base: r}).GET("/checkout-session/:tourId", GetCheckoutSession)

	admin := r.Group("", auth.Protect(), auth.RestrictTo(staff...))
	admin.GET("", Bookings.GetAll)
	admin.POST("", Bookings.CreateOne)
	admin.GET("/:id", Bookings.GetOne)
	admin.PATCH("/:id", Bookings.UpdateOne)
	admin.DELETE("/:id", Bookings.DeleteOne)
}
