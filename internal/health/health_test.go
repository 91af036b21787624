package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestCheckBasic(t *testing.T) {
	ctx := context.Background()

	s := NewHealthChecker(pinger{}, nil).CheckBasic(ctx)
	assert.Equal(t, "healthy", s.Status)
	assert.Nil(t, s.Cache)

	s = NewHealthChecker(pinger{}, pinger{err: errors.New("redis down")}).CheckBasic(ctx)
	assert.Equal(t, "degraded", s.Status)
	assert.Equal(t, "unhealthy", s.Cache.Status)

	s = NewHealthChecker(pinger{err: errors.New("db down")}, pinger{}).CheckBasic(ctx)
	assert.Equal(t, "unhealthy", s.Status)
	assert.Equal(t, "db down", s.Database.Error)
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "512.0 MB", formatBytes(512*1024*1024))
	assert.Equal(t, "2.0 GB", formatBytes(2*1024*1024*1024))
	assert.Equal(t, "5m", formatUptime(5*time.Minute))
	assert.Equal(t, "2h 3m", formatUptime(2*time.Hour+3*time.Minute))
	assert.Equal(t, "1d 1h", formatUptime(25*time.Hour))
}
