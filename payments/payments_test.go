package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "whsec_test"

func sign(payload []byte, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", at.Unix(), payload)))
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestParseWebhook(t *testing.T) {
	g := NewStripeGateway("sk_test", secret)
	completed := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_test_1","object":"checkout.session","client_reference_id":"42","customer_email":"lea@example.com","amount_total":49750}}}`)
	byDetails := []byte(`{"id":"evt_2","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_test_2","object":"checkout.session","client_reference_id":"7","customer_details":{"email":"max@example.com"},"amount_total":99700}}}`)
	other := []byte(`{"id":"evt_3","object":"event","type":"payment_intent.created","data":{"object":{"id":"pi_1","object":"payment_intent"}}}`)
	noReference := []byte(`{"id":"evt_4","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_test_4","object":"checkout.session"}}}`)

	tests := []struct {
		name      string
		payload   []byte
		signature string
		want      *CompletedCheckout
		wantErr   bool
	}{
		{"completed", completed, sign(completed, time.Now()), &CompletedCheckout{SessionID: "cs_test_1", TourID: 42, CustomerEmail: "lea@example.com", Price: decimal.RequireFromString("497.5")}, false},
		{"email from customer details", byDetails, sign(byDetails, time.Now()), &CompletedCheckout{SessionID: "cs_test_2", TourID: 7, CustomerEmail: "max@example.com", Price: decimal.RequireFromString("997")}, false},
		{"other event", other, sign(other, time.Now()), nil, false},
		{"missing tour reference", noReference, sign(noReference, time.Now()), nil, true},
		{"bad signature", completed, "t=1,v1=deadbeef", nil, true},
		{"stale signature", completed, sign(completed, time.Now().Add(-time.Hour)), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.ParseWebhook(tt.payload, tt.signature)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want.SessionID, got.SessionID)
			assert.Equal(t, tt.want.TourID, got.TourID)
			assert.Equal(t, tt.want.CustomerEmail, got.CustomerEmail)
			assert.True(t, tt.want.Price.Equal(got.Price), "price %s", got.Price)
		})
	}
}

func TestCents(t *testing.T) {
	tests := []struct {
		price string
		cents int64
	}{
		{"497", 49700},
		{"497.5", 49750},
		{"0.01", 1},
		{"19.999", 2000},
	}
	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			assert.Equal(t, tt.cents, ToCents(decimal.RequireFromString(tt.price)))
		})
	}
	assert.Equal(t, "497.5", FromCents(49750).String())
}
