// Package payments talks to the checkout provider.
package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	SignatureHeader = "Stripe-Signature"
	currency        = "usd"
)

// CheckoutRequest is one tour bought by one customer
type CheckoutRequest struct {
	TourID        uint64
	TourName      string
	Summary       string
	ImageURL      string
	Price         decimal.Decimal
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CompletedCheckout is what a paid session tells us
type CompletedCheckout struct {
	SessionID     string
	TourID        uint64
	CustomerEmail string
	Price         decimal.Decimal
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error)
	// ParseWebhook verifies the payload; events other than a completed
	// checkout return nil.
	ParseWebhook(payload []byte, signature string) (*CompletedCheckout, error)
}

type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api, webhookSecret: webhookSecret}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error) {
	product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name:        stripe.String(req.TourName + " Tour"),
		Description: stripe.String(req.Summary),
	}
	if req.ImageURL != "" {
		product.Images = stripe.StringSlice([]string{req.ImageURL})
	}
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		CustomerEmail:      stripe.String(req.CustomerEmail),
		ClientReferenceID:  stripe.String(strconv.FormatUint(req.TourID, 10)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(currency),
					UnitAmount:  stripe.Int64(ToCents(req.Price)),
					ProductData: product,
				},
			},
		},
	}
	params.Context = ctx
	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, err
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*CompletedCheckout, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, err
	}
	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		return nil, nil
	}
	var s stripe.CheckoutSession
	if err = json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("decoding checkout session: %w", err)
	}
	return completedFrom(&s)
}

func completedFrom(s *stripe.CheckoutSession) (*CompletedCheckout, error) {
	tourID, err := strconv.ParseUint(s.ClientReferenceID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("checkout session %s has no tour reference", s.ID)
	}
	email := s.CustomerEmail
	if email == "" && s.CustomerDetails != nil {
		email = s.CustomerDetails.Email
	}
	return &CompletedCheckout{
		SessionID:     s.ID,
		TourID:        tourID,
		CustomerEmail: email,
		Price:         FromCents(s.AmountTotal),
	}, nil
}

func ToCents(price decimal.Decimal) int64 {
	return price.Shift(2).Round(0).IntPart()
}

func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
