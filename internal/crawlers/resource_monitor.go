package crawlers

import (
	"fmt"
	"time"

	"github.com/RecoveryAshes/novelcrawl/internal/utils"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

const bytesPerMB = 1024 * 1024

// ResourceMonitorConfig 资源监控配置
type ResourceMonitorConfig struct {
	MinFreeMemoryMB  uint64  // 启动浏览器所需最小可用内存
	CPULoadThreshold float64 // CPU使用率上限(%), 0表示不检查
}

// MemoryStatus 内存状态
type MemoryStatus struct {
	TotalMB        uint64
	AvailableMB    uint64
	MemoryPressure string // normal, warning, critical, emergency
}

// ResourceMonitor 检查系统资源, 决定是否允许启动浏览器
type ResourceMonitor struct {
	config ResourceMonitorConfig

	virtualMemory func() (*mem.VirtualMemoryStat, error)
	cpuPercent    func(interval time.Duration, percpu bool) ([]float64, error)
}

// NewResourceMonitor 创建资源监控器
func NewResourceMonitor(config ResourceMonitorConfig) *ResourceMonitor {
	return &ResourceMonitor{
		config:        config,
		virtualMemory: mem.VirtualMemory,
		cpuPercent:    cpu.Percent,
	}
}

// GetMemoryStatus 读取当前内存状态
func (rm *ResourceMonitor) GetMemoryStatus() (MemoryStatus, error) {
	vm, err := rm.virtualMemory()
	if err != nil {
		return MemoryStatus{}, fmt.Errorf("获取系统内存失败: %w", err)
	}

	status := MemoryStatus{
		TotalMB:     vm.Total / bytesPerMB,
		AvailableMB: vm.Available / bytesPerMB,
	}
	switch {
	case status.AvailableMB < 200:
		status.MemoryPressure = "emergency"
	case status.AvailableMB < 300:
		status.MemoryPressure = "critical"
	case status.AvailableMB < 500:
		status.MemoryPressure = "warning"
	default:
		status.MemoryPressure = "normal"
	}
	return status, nil
}

// CheckResourceAvailability 检查当前资源是否允许启动浏览器
// 无法读取系统信息时放行
func (rm *ResourceMonitor) CheckResourceAvailability() (ok bool, reason string) {
	status, err := rm.GetMemoryStatus()
	if err != nil {
		utils.Warnf("%v, 跳过内存检查", err)
	} else {
		utils.Debugf("系统内存: 总计 %dMB, 可用 %dMB (%s)", status.TotalMB, status.AvailableMB, status.MemoryPressure)
		if status.AvailableMB < rm.config.MinFreeMemoryMB {
			return false, fmt.Sprintf("内存不足(当前可用%dMB, 需要%dMB)", status.AvailableMB, rm.config.MinFreeMemoryMB)
		}
	}

	if rm.config.CPULoadThreshold <= 0 {
		return true, ""
	}

	percentages, err := rm.cpuPercent(100*time.Millisecond, false)
	if err != nil || len(percentages) == 0 {
		utils.Warnf("获取CPU使用率失败: %v", err)
		return true, ""
	}
	if percentages[0] > rm.config.CPULoadThreshold {
		return false, fmt.Sprintf("CPU负载过高(当前%.1f%%)", percentages[0])
	}
	return true, ""
}
