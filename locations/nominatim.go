// Package locations reverse-geocodes coordinates with Nominatim.
package locations

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"natours/models"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://nominatim.openstreetmap.org"
	// Nominatim's usage policy allows one request per second at most
	throttling = 3 * time.Second
	userAgent  = "natours-server"
)

type NominatimAddress struct {
	Aeroway       string `json:"aeroway"`
	Railway       string `json:"railway"`
	Place         string `json:"place"`
	Neighbourhood string `json:"neighbourhood"`
	Village       string `json:"village"`
	Town          string `json:"town"`
	City          string `json:"city"`
	Municipality  string `json:"municipality"`
	Province      string `json:"province"`
	State         string `json:"state"`
	Country       string `json:"country"`
	CountryCode   string `json:"country_code"`
}

type NominatimLocation struct {
	DisplayName string           `json:"display_name"`
	Address     NominatimAddress `json:"address"`
	Error       string           `json:"error"`
}

func (n *NominatimLocation) GetCity() string {
	for _, c := range []string{n.Address.City, n.Address.Town, n.Address.Village, n.Address.Municipality, n.Address.Province} {
		if c != "" {
			return c
		}
	}
	return n.Address.State
}

func (n *NominatimLocation) GetArea() string {
	if n.Address.Aeroway != "" && len(n.Address.Aeroway) > 4 {
		if n.Address.Neighbourhood != "" {
			return n.Address.Aeroway + ", " + n.Address.Neighbourhood
		}
		return n.Address.Aeroway
	}
	if n.Address.Railway != "" {
		return n.Address.Railway
	}
	if n.Address.Place != "" {
		return n.Address.Place
	}
	if n.Address.Neighbourhood != "" {
		return n.Address.Neighbourhood
	}
	a := strings.Split(n.DisplayName, ",")
	city := n.GetCity()
	for i := len(a) - 1; i > 0; i-- {
		if strings.TrimSpace(a[i]) == city {
			return strings.TrimSpace(a[i-1])
		}
	}
	if len(a) == 1 || len(a[0]) >= models.MinLocationDisplaySize {
		return a[0]
	}
	return a[0] + "," + a[1]
}

// Place converts the result to the cached form
func (n *NominatimLocation) Place(lat, lng float64) models.GeoPlace {
	place := models.NewGeoPlace(lat, lng)
	place.Display = n.DisplayName
	place.Area = n.GetArea()
	place.City = n.GetCity()
	place.Country = n.Address.Country
	place.CountryCode = n.Address.CountryCode
	return place
}

// Nominatim is a throttled reverse-geocoding client. It is safe for
// concurrent use; requests are serialized.
type Nominatim struct {
	BaseURL     string
	Client      *http.Client
	Throttling  time.Duration
	lock    sync.Mutex
	limiter *rate.Limiter
}

func NewNominatim(baseURL string) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Nominatim{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Client:     &http.Client{Timeout: 15 * time.Second},
		Throttling: throttling,
	}
}

// wait spaces requests at least Throttling apart
func (n *Nominatim) wait(ctx context.Context) error {
	every := rate.Every(n.Throttling)
	if n.limiter == nil || n.limiter.Limit() != every {
		n.limiter = rate.NewLimiter(every, 1)
	}
	return n.limiter.Wait(ctx)
}

// Reverse looks up the address closest to lat/lng
func (n *Nominatim) Reverse(ctx context.Context, lat, lng float64) (*NominatimLocation, error) {
	n.lock.Lock()
	defer n.lock.Unlock()
	if err := n.wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/reverse?format=json&lat=%f&lon=%f", n.BaseURL, lat, lng)
	zap.L().Debug("nominatim request", zap.String("url", url))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Language", "en")
	req.Header.Set("User-Agent", userAgent)
	resp, err := n.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim responded %s", resp.Status)
	}

	result := &NominatimLocation{}
	if err = json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, fmt.Errorf("nominatim response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("nominatim: %s", result.Error)
	}
	return result, nil
}
