package crawlers

import (
	"errors"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monitorWithMemory(cfg ResourceMonitorConfig, availableMB uint64) *ResourceMonitor {
	rm := NewResourceMonitor(cfg)
	rm.virtualMemory = func() (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{Total: 8192 * bytesPerMB, Available: availableMB * bytesPerMB}, nil
	}
	rm.cpuPercent = func(time.Duration, bool) ([]float64, error) {
		return []float64{10}, nil
	}
	return rm
}

func TestGetMemoryStatus(t *testing.T) {
	tests := []struct {
		available uint64
		pressure  string
	}{
		{100, "emergency"},
		{250, "critical"},
		{400, "warning"},
		{4096, "normal"},
	}

	for _, tt := range tests {
		t.Run(tt.pressure, func(t *testing.T) {
			status, err := monitorWithMemory(ResourceMonitorConfig{}, tt.available).GetMemoryStatus()
			require.NoError(t, err)
			assert.Equal(t, uint64(8192), status.TotalMB)
			assert.Equal(t, tt.available, status.AvailableMB)
			assert.Equal(t, tt.pressure, status.MemoryPressure)
		})
	}
}

func TestCheckResourceAvailability(t *testing.T) {
	t.Run("内存充足", func(t *testing.T) {
		ok, reason := monitorWithMemory(ResourceMonitorConfig{MinFreeMemoryMB: 512}, 2048).CheckResourceAvailability()
		assert.True(t, ok)
		assert.Empty(t, reason)
	})

	t.Run("内存不足", func(t *testing.T) {
		ok, reason := monitorWithMemory(ResourceMonitorConfig{MinFreeMemoryMB: 512}, 256).CheckResourceAvailability()
		assert.False(t, ok)
		assert.Contains(t, reason, "内存不足")
	})

	t.Run("CPU负载过高", func(t *testing.T) {
		rm := monitorWithMemory(ResourceMonitorConfig{CPULoadThreshold: 90}, 2048)
		rm.cpuPercent = func(time.Duration, bool) ([]float64, error) {
			return []float64{97.5}, nil
		}
		ok, reason := rm.CheckResourceAvailability()
		assert.False(t, ok)
		assert.Contains(t, reason, "CPU负载过高")
	})

	t.Run("无法读取内存时放行", func(t *testing.T) {
		rm := NewResourceMonitor(ResourceMonitorConfig{MinFreeMemoryMB: 512})
		rm.virtualMemory = func() (*mem.VirtualMemoryStat, error) {
			return nil, errors.New("not supported")
		}
		ok, _ := rm.CheckResourceAvailability()
		assert.True(t, ok)
	})
}
