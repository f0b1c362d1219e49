package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BACKEND", "memory")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load("does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, ":8082", cfg.Address)
	assert.Equal(t, "BMB", cfg.OrderPrefix)
	assert.Equal(t, int64(1000), cfg.OrderCounterBase)
	assert.Equal(t, int64(150000), cfg.FreeShippingThreshold)
	assert.Equal(t, int64(10000), cfg.ShippingCost)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins())
}

func TestLoad_FirebaseNeedsProject(t *testing.T) {
	t.Setenv("BACKEND", "firebase")
	t.Setenv("FIREBASE_PROJECT_ID", "")

	_, err := Load("does-not-exist.env")
	assert.Error(t, err)
}
