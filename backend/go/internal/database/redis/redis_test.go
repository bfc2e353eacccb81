package redis

import (
	"context"
	"testing"
	"time"

	"MedMemory/backend/go/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestNewOptions(t *testing.T) {
	opts := newOptions(&config.RedisConfig{Address: "localhost:6379", Password: "pw", DB: 2})
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, defaultPoolSize, opts.PoolSize)
	assert.Equal(t, 2, opts.MinIdleConns)
	assert.Equal(t, 3*time.Second, opts.ReadTimeout)

	opts = newOptions(&config.RedisConfig{PoolSize: 40})
	assert.Equal(t, 40, opts.PoolSize)
	assert.Equal(t, 10, opts.MinIdleConns)
}

func TestHealthCheckWithoutClient(t *testing.T) {
	assert.Error(t, HealthCheck(context.Background()))
	assert.NoError(t, Close())
}
