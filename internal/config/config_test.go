package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
api:
  environment: test
  port: "9090"
  base_url: localhost:9090
  allowed_cors_domains:
    - http://localhost:3000
  jwt_signing_key: secret
gin:
  mode: test
postgres:
  host: localhost
  port: "5432"
  user: ticketi
  password: ticketi
  db: ticketi
redis:
  enabled: true
  url: redis://localhost:6379/0
  availability_ttl: 5s
ticketing:
  max_capacity: 500
  claim_attempts: 4
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	conf, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "test", conf.API.Environment)
	assert.Equal(t, "9090", conf.API.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, conf.API.AllowedCORSDomains)
	assert.Equal(t, "test", conf.Gin.Mode)
	assert.Equal(t, "disable", conf.Postgres.SSLMode)
	assert.Equal(t, 25, conf.Postgres.MaxOpenConns)
	assert.True(t, conf.Redis.Enabled)
	assert.Equal(t, 5*time.Second, conf.Redis.AvailabilityTTL)
	assert.Equal(t, 500, conf.Ticketing.MaxCapacity)
	assert.Equal(t, 4, conf.Ticketing.ClaimAttempts)
	assert.Equal(t, 500, conf.Ticketing.InventoryBatchSize)
	assert.Equal(t, float64(5), conf.Ticketing.PurchaseRate)
	assert.Equal(t, 10, conf.Ticketing.PurchaseBurst)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("API_PORT", "7070")
	t.Setenv("POSTGRES_HOST", "db.internal")

	conf, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "7070", conf.API.Port)
	assert.Equal(t, "db.internal", conf.Postgres.Host)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *AppConfig {
		return &AppConfig{
			API:       &APIConfig{Port: "8080", JWTSigningKey: "k"},
			Ticketing: &TicketingConfig{MaxCapacity: 10, ClaimAttempts: 1, PurchaseRate: 1, PurchaseBurst: 1},
		}
	}

	require.NoError(t, valid().Validate())

	c := valid()
	c.API.Port = ""
	assert.ErrorIs(t, c.Validate(), ErrMissingPort)

	c = valid()
	c.API.JWTSigningKey = ""
	assert.ErrorIs(t, c.Validate(), ErrMissingSigningKey)

	c = valid()
	c.Ticketing.MaxCapacity = 0
	assert.ErrorIs(t, c.Validate(), ErrInvalidMaxCapacity)

	c = valid()
	c.Ticketing.ClaimAttempts = 0
	assert.ErrorIs(t, c.Validate(), ErrInvalidClaimAttempts)

	c = valid()
	c.Ticketing.PurchaseBurst = 0
	assert.ErrorIs(t, c.Validate(), ErrInvalidPurchaseRate)
}

func TestPostgresConfig_DSN(t *testing.T) {
	c := PostgresConfig{Host: "h", Port: "5432", User: "u", Password: "p", DB: "d", SSLMode: "disable"}
	assert.Equal(t, "host=h user=u password=p dbname=d port=5432 sslmode=disable", c.DSN())
}
