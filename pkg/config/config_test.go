package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("JWT_TTL", "")

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "mysql", cfg.StoreDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 100, cfg.RateLimitAPI)
	assert.Equal(t, 10, cfg.RateLimitAuth)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_TTL", "90m")
	t.Setenv("RATE_LIMIT_API", "7")
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")
	t.Setenv("TRUST_PROXY", "yes")

	cfg := LoadConfig()

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 90*time.Minute, cfg.JWTTTL)
	assert.Equal(t, 7, cfg.RateLimitAPI)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.TrustProxy)
}

func TestLoadConfigIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("RATE_LIMIT_AUTH", "lots")
	t.Setenv("RATE_LIMIT_WINDOW", "soon")

	cfg := LoadConfig()

	assert.Equal(t, 10, cfg.RateLimitAuth)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
}

func TestGetDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "3307", DBName: "shop"}
	assert.Equal(t, "u:p@tcp(db:3307)/shop?parseTime=true&charset=utf8mb4&loc=UTC", cfg.GetDSN())
}

func TestGetAppPortInt(t *testing.T) {
	assert.Equal(t, 9000, (&Config{AppPort: "9000"}).GetAppPortInt())
	assert.Equal(t, 8080, (&Config{AppPort: "x"}).GetAppPortInt())
}
