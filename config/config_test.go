package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "a-very-long-and-secret-jwt-signing-key"

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "defaults",
			env:  map[string]string{"NATOURS_JWT_SECRET": testSecret},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, EnvDevelopment, cfg.Env)
				assert.Equal(t, 100, cfg.RateLimitMax)
				assert.Equal(t, time.Hour, cfg.RateLimitWindow)
				assert.Equal(t, int64(10*1024), cfg.BodyLimitBytes)
				assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
				assert.False(t, cfg.IsProduction())
			},
		},
		{
			name: "overrides",
			env: map[string]string{
				"NATOURS_JWT_SECRET":                 testSecret,
				"NATOURS_ENV":                        "production",
				"NATOURS_JWT_EXPIRES_IN":             "2h",
				"NATOURS_JWT_COOKIE_EXPIRES_IN_DAYS": "7",
				"NATOURS_CORS_ORIGINS":               "https://a.example,https://b.example",
				"NATOURS_GEOCODE_ENABLED":            "true",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.IsProduction())
				assert.Equal(t, 2*time.Hour, cfg.JWTExpiresIn)
				assert.Equal(t, 7*24*time.Hour, cfg.JWTCookieExpiresIn())
				assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
				assert.True(t, cfg.GeocodeEnabled)
			},
		},
		{
			name:    "missing secret",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name:    "short secret",
			env:     map[string]string{"NATOURS_JWT_SECRET": "short"},
			wantErr: true,
		},
		{
			name: "s3 without bucket",
			env: map[string]string{
				"NATOURS_JWT_SECRET": testSecret,
				"NATOURS_STORAGE":    "s3",
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			previous := Current
			defer func() { Current = previous }()
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Same(t, cfg, Current)
			tt.check(t, cfg)
		})
	}
}
