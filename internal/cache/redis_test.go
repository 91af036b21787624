package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDisabledCacheDegrades(t *testing.T) {
	c := Disabled(zap.NewNop())
	ctx := context.Background()

	assert.False(t, c.Enabled())
	c.SetJSON(ctx, StatesKey, []string{"Gujarat"})

	var out []string
	assert.False(t, c.GetJSON(ctx, StatesKey, &out))
	assert.Empty(t, out)

	c.Invalidate(ctx, StatesKey, CitiesKey)
	assert.Error(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}

func TestConnectUnreachable(t *testing.T) {
	c, err := Connect(context.Background(), "127.0.0.1:1", "", 0, time.Minute, zap.NewNop())
	assert.Error(t, err)
	assert.NotNil(t, c)
	assert.False(t, c.Enabled())
}

func TestNilCacheIsSafe(t *testing.T) {
	var c *Cache
	var out []string
	assert.False(t, c.GetJSON(context.Background(), CitiesKey, &out))
}
