package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"natours/config"
	"natours/db"
	"natours/db/dbtest"
	"natours/models"
	"natours/storage"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	models.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func newServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.JWTSecret = "a-very-long-and-secret-jwt-signing-key"
	cfg.PublicDir = t.TempDir()
	cfg.RateLimitMax = 5
	if mutate != nil {
		mutate(cfg)
	}
	previous := config.Current
	config.Current = cfg
	t.Cleanup(func() { config.Current = previous })

	dbtest.Setup(t)
	require.NoError(t, models.Init())
	storage.SetDefault(storage.NewDiskStorage(storage.BucketFromConfig(cfg)))

	s, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	return s
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, req)
	return w
}

func TestPipeline(t *testing.T) {
	s := newServer(t, nil)
	tour := &models.Tour{
		Name:         "The Forest Hiker",
		Duration:     5,
		MaxGroupSize: 25,
		Difficulty:   models.DifficultyEasy,
		Price:        decimal.NewFromInt(397),
		Summary:      "Breathtaking hike",
		ImageCover:   "tour-1-cover.jpg",
	}
	tour.SetDefaults()
	require.NoError(t, db.Instance.Create(tour).Error)

	tests := []struct {
		name     string
		target   string
		code     int
		contains string
		header   string
	}{
		{"health", "/health", http.StatusOK, `"ok"`, ""},
		{"api", "/api/v1/tours", http.StatusOK, "The Forest Hiker", "no-cache"},
		{"view", "/", http.StatusOK, "The Forest Hiker", ""},
		{"api not found", "/api/v1/nothing", http.StatusNotFound, "Can't find /api/v1/nothing on this server!", ""},
		{"robots", "/robots.txt", http.StatusOK, "Disallow", ""},
		{"metrics", "/metrics", http.StatusOK, "natours_http_requests_total", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(s, httptest.NewRequest(http.MethodGet, tt.target, nil))
			require.Equal(t, tt.code, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), tt.contains)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
			if tt.header != "" {
				assert.Equal(t, tt.header, w.Header().Get("Cache-Control"))
			}
		})
	}
}

func TestAPIProtections(t *testing.T) {
	s := newServer(t, func(cfg *config.Config) { cfg.BodyLimitBytes = 64 })

	big := `{"email":"` + strings.Repeat("a", 100) + `@example.com","password":"test1234"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", strings.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	w := serve(s, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	var last *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		req = httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil)
		req.RemoteAddr = "10.1.1.1:1234"
		last = serve(s, req)
	}
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	body := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(last.Body.Bytes(), &body))
	assert.Equal(t, "Too many requests from this IP, please try again in an hour!", body["message"])

	// the webhook is outside of /api and its limits
	req = httptest.NewRequest(http.MethodPost, "/webhook-checkout", bytes.NewReader([]byte(big)))
	req.RemoteAddr = "10.1.1.1:1234"
	w = serve(s, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPrunerOnlyForMemoryLimiter(t *testing.T) {
	s := newServer(t, nil)
	assert.NotNil(t, s.pruner())
}
