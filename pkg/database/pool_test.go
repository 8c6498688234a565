package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresConfig_DSN(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "backoffice",
		Password: "pw",
		DBName:   "backoffice",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"postgres://backoffice:pw@db.internal:5433/backoffice?sslmode=require",
		cfg.DSN(),
	)
}

func TestDefaultPostgresConfig(t *testing.T) {
	cfg := DefaultPostgresConfig()
	assert.Equal(t, int32(25), cfg.MaxConns)
	assert.Equal(t, int32(5), cfg.MinConns)
	assert.Equal(t, "disable", cfg.SSLMode)
}

func TestRetryBackoff_Bounds(t *testing.T) {
	for attempt := 0; attempt < 3; attempt++ {
		base := defaultRetryBaseWait << attempt
		lo := time.Duration(float64(base) * (1 - retryJitterFraction))
		hi := time.Duration(float64(base) * (1 + retryJitterFraction))

		for i := 0; i < 50; i++ {
			got := retryBackoff(attempt)
			assert.GreaterOrEqual(t, got, lo)
			assert.LessOrEqual(t, got, hi)
		}
	}
}

func TestRetryBackoff_NegativeAttemptClamped(t *testing.T) {
	got := retryBackoff(-5)
	assert.Greater(t, got, time.Duration(0))
	assert.Less(t, got, 2*defaultRetryBaseWait)
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "cache.internal", Port: 6380}
	assert.Equal(t, "cache.internal:6380", cfg.Addr())
}

func TestNewMockPool(t *testing.T) {
	mock, err := NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	// The mock must satisfy the repository-facing interface.
	var _ DBTX = mock
}
