package health

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Pinger is satisfied by *pgxpool.Pool and *cache.Cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthChecker struct {
	db      Pinger
	cache   Pinger
	started time.Time
	timeout time.Duration
}

type HealthStatus struct {
	Status   string            `json:"status"`
	Database DependencyHealth  `json:"database"`
	Cache    *DependencyHealth `json:"cache,omitempty"`
}

type DependencyHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
}

type DetailedStatus struct {
	HealthStatus
	Uptime     string     `json:"uptime"`
	Goroutines int        `json:"goroutines"`
	Host       HostHealth `json:"host"`
}

type HostHealth struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsed    string  `json:"memory_used"`
	MemoryTotal   string  `json:"memory_total"`
	DiskPercent   float64 `json:"disk_percent"`
	DiskUsed      string  `json:"disk_used"`
	DiskTotal     string  `json:"disk_total"`
}

// NewHealthChecker builds a checker. cache may be nil when Redis is not configured.
func NewHealthChecker(db, cache Pinger) *HealthChecker {
	return &HealthChecker{db: db, cache: cache, started: time.Now(), timeout: 2 * time.Second}
}

// CheckBasic pings the database and the cache. Only the database decides readiness;
// the cache is optional and the service degrades without it.
func (h *HealthChecker) CheckBasic(ctx context.Context) HealthStatus {
	status := HealthStatus{Status: "healthy", Database: h.check(ctx, h.db)}
	if status.Database.Status != "healthy" {
		status.Status = "unhealthy"
	}
	if h.cache != nil {
		c := h.check(ctx, h.cache)
		status.Cache = &c
		if c.Status != "healthy" && status.Status == "healthy" {
			status.Status = "degraded"
		}
	}
	return status
}

// CheckDetailed adds process and host statistics.
func (h *HealthChecker) CheckDetailed(ctx context.Context) DetailedStatus {
	d := DetailedStatus{
		HealthStatus: h.CheckBasic(ctx),
		Uptime:       formatUptime(time.Since(h.started)),
		Goroutines:   runtime.NumGoroutine(),
	}

	if percents, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false); err == nil && len(percents) > 0 {
		d.Host.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		d.Host.MemoryPercent = vm.UsedPercent
		d.Host.MemoryUsed = formatBytes(vm.Used)
		d.Host.MemoryTotal = formatBytes(vm.Total)
	}
	if du, err := disk.UsageWithContext(ctx, "/"); err == nil {
		d.Host.DiskPercent = du.UsedPercent
		d.Host.DiskUsed = formatBytes(du.Used)
		d.Host.DiskTotal = formatBytes(du.Total)
	}
	return d
}

func (h *HealthChecker) check(ctx context.Context, p Pinger) DependencyHealth {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return DependencyHealth{Status: "unhealthy", ResponseTime: responseTime, Error: err.Error()}
	}
	return DependencyHealth{Status: "healthy", ResponseTime: responseTime}
}

func formatBytes(bytes uint64) string {
	gb := float64(bytes) / (1024 * 1024 * 1024)
	if gb < 1 {
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	}
	return fmt.Sprintf("%.1f GB", gb)
}

func formatUptime(d time.Duration) string {
	seconds := int(d.Seconds())
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
