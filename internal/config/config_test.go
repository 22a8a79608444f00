package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CHARGES_CONFIG", "DATABASE_URL", "PG_DSN", "HTTP_ADDR", "TENANT_ID", "CURRENCY",
		"RECONCILE_TOLERANCE", "AUTH_JWT_SECRET", "JWT_SECRET", "LOG_LEVEL",
		"CORS_ALLOWED_ORIGINS", "OUTBOX_DISPATCH_INTERVAL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PG_DSN", "postgres://localhost/charges")
	t.Setenv("AUTH_JWT_SECRET", "secret")
	t.Setenv("RECONCILE_TOLERANCE", "0.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("OUTBOX_DISPATCH_INTERVAL", "2s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/charges", cfg.DatabaseURL)
	assert.Equal(t, 0.5, cfg.Tolerance)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 2*time.Second, cfg.DispatchInterval)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
}

func TestLoad_RequiresDatabaseAndSecret(t *testing.T) {
	clearEnv(t)
	_, err := Load()
	assert.ErrorIs(t, err, ErrDatabaseURLRequired)

	t.Setenv("DATABASE_URL", "postgres://localhost/charges")
	_, err = Load()
	assert.ErrorIs(t, err, ErrJWTSecretRequired)
}

func TestLoad_YAMLWithBuildingOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "charges.yaml")
	content := []byte(`
database_url: postgres://yaml/charges
jwt_secret: yaml-secret
currency: TWD
tolerance: 1
buildings:
  b-strict:
    tolerance: 0.01
  b-usd:
    currency: USD
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("CHARGES_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BuildingOverride{Tolerance: 0.01, Currency: "TWD"}, cfg.ForBuilding("b-strict"))
	assert.Equal(t, BuildingOverride{Tolerance: 1, Currency: "USD"}, cfg.ForBuilding("b-usd"))
	assert.Equal(t, BuildingOverride{Tolerance: 1, Currency: "TWD"}, cfg.ForBuilding("other"))
}

func TestValidate_ClampsNegativeTolerance(t *testing.T) {
	cfg := Defaults()
	cfg.DatabaseURL = "x"
	cfg.JWTSecret = "y"
	cfg.Tolerance = -3
	cfg.DispatchInterval = 0

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.0, cfg.Tolerance)
	assert.Equal(t, 5*time.Second, cfg.DispatchInterval)
}
