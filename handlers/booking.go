package handlers

import (
	"io"
	"net/http"

	"natours/db"
	"natours/errs"
	"natours/metrics"
	"natours/models"
	"natours/payments"
	"natours/query"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxWebhookBytes = 64 * 1024

var bookingFields = query.FieldMap{
	"createdAt": {Column: "created_at", Kind: query.Time},
	"price":     {Column: "price", Kind: query.Number, Repeatable: true},
	"paid":      {Column: "paid", Kind: query.Bool},
	"tourId":    {Column: "tour_id", Kind: query.Number},
	"userId":    {Column: "user_id", Kind: query.Number},
}

var Bookings = &Resource[models.Booking, *models.Booking]{
	Singular:  "booking",
	Plural:    "bookings",
	Fields:    bookingFields,
	ListScope: models.PopulateBooking,
	OneScope:  models.PopulateBooking,
}

// GetCheckoutSession starts a checkout for one tour and the caller
func GetCheckoutSession(c *gin.Context, user *models.User) {
	tourID, err := paramID(c, "tourId")
	if err != nil {
		fail(c, err)
		return
	}
	tour := models.Tour{}
	if err = db.Instance.WithContext(c.Request.Context()).First(&tour, tourID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = errs.NotFound("No tour found with that ID")
		}
		fail(c, err)
		return
	}
	if gateway == nil {
		fail(c, errs.New("Payments are not available", http.StatusServiceUnavailable))
		return
	}
	session, err := gateway.CreateCheckoutSession(c.Request.Context(), &payments.CheckoutRequest{
		TourID:        tour.ID,
		TourName:      tour.Name,
		Summary:       tour.Summary,
		ImageURL:      tourImageURL(c, &tour),
		Price:         tour.Price,
		CustomerEmail: user.Email,
		SuccessURL:    baseURL(c) + "/my-tours?alert=booking",
		CancelURL:     baseURL(c) + "/tours/" + tour.Slug,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  statusSuccess,
		"session": session,
	})
}

// WebhookCheckout receives the payment provider events; it needs the raw
// request body to check the signature.
func WebhookCheckout(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		c.String(http.StatusBadRequest, "Webhook error: %s", err)
		return
	}
	if gateway == nil {
		c.String(http.StatusServiceUnavailable, "Webhook error: payments are not available")
		return
	}
	completed, err := gateway.ParseWebhook(payload, c.GetHeader(payments.SignatureHeader))
	if err != nil {
		c.String(http.StatusBadRequest, "Webhook error: %s", err)
		return
	}
	if completed != nil {
		booking, created, err := models.CreateBookingFromCheckout(completed.SessionID, completed.TourID, completed.CustomerEmail, completed.Price)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// retrying will not make the customer appear
			zap.L().Warn("checkout without a matching user",
				zap.String("session_id", completed.SessionID),
				zap.String("email", completed.CustomerEmail),
			)
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		if err != nil {
			zap.L().Error("creating booking from checkout",
				zap.String("session_id", completed.SessionID),
				zap.Uint64("tour_id", completed.TourID),
				zap.Error(err),
			)
			fail(c, err)
			return
		}
		if created {
			metrics.BookingsCreated.WithLabelValues("webhook").Inc()
			zap.L().Info("booking created", zap.Uint64("booking_id", booking.ID), zap.String("session_id", completed.SessionID))
		}
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
