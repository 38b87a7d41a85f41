// Package sysmetrics reports node health (uptime, CPU, memory, disk,
// temperature) from /proc and /sys, and issues lifecycle actions
// (reboot/shutdown/update/cleanup) through internal/executil — spec §4.7.
package sysmetrics

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"luigi/internal/executil"
)

const (
	rebootTimeout   = 5 * time.Second
	shutdownTimeout = 5 * time.Second
	updateTimeout   = 120 * time.Second
	cleanupTimeout  = 600 * time.Second
)

// Snapshot is a point-in-time system health reading. Nil fields mean the
// underlying source was unavailable on this node.
type Snapshot struct {
	UptimeSeconds int64
	CPUPercent    *float64
	Memory        *MemoryStats
	Disk          *DiskStats
	TemperatureC  *float64
}

// MemoryStats reports RAM usage in KiB, percent rounded to the nearest integer.
type MemoryStats struct {
	TotalKB int64
	FreeKB  int64
	UsedKB  int64
	Percent int
}

// DiskStats reports filesystem usage for "/", in bytes.
type DiskStats struct {
	TotalBytes uint64
	FreeBytes  uint64
	UsedBytes  uint64
	Percent    int
}

// Controller reports metrics and issues lifecycle actions.
type Controller struct{}

// New returns a ready Controller.
func New() *Controller { return &Controller{} }

// Snapshot reads every metric it can; a source that fails leaves its field
// nil rather than failing the whole call (spec §4.7).
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{}
	if uptime, ok := readUptime(); ok {
		s.UptimeSeconds = uptime
	}
	if cpu, ok := readCPUPercent(); ok {
		s.CPUPercent = &cpu
	}
	if mem, ok := readMemory(); ok {
		s.Memory = &mem
	}
	if disk, ok := readDisk("/"); ok {
		s.Disk = &disk
	}
	if temp, ok := readTemperature(); ok {
		s.TemperatureC = &temp
	}
	return s
}

func readUptime() (int64, bool) {
	data, err := os.ReadFile("/proc/uptime")
	if err != nil {
		return 0, false
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	return int64(seconds), true
}

// readCPUPercent reports a snapshot of the kernel's cumulative CPU time
// counters from /proc/stat's first "cpu" line: (user+system+other)/total as
// a percentage. This is NOT a delta over an interval — a known limitation
// documented rather than silently corrected (spec §9 open question 2).
func readCPUPercent() (float64, bool) {
	data, err := os.ReadFile("/proc/stat")
	if err != nil {
		return 0, false
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 8 || fields[0] != "cpu" {
			continue
		}
		var total, idle float64
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return 0, false
			}
			total += v
			if i == 3 { // idle is the 4th counter
				idle = v
			}
		}
		if total == 0 {
			return 0, false
		}
		return (total - idle) / total * 100, true
	}
	return 0, false
}

func readMemory() (MemoryStats, bool) {
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return MemoryStats{}, false
	}
	values := map[string]int64{}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		key := strings.TrimSuffix(fields[0], ":")
		v, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			continue
		}
		values[key] = v
	}
	total, ok := values["MemTotal"]
	if !ok {
		return MemoryStats{}, false
	}
	free := values["MemAvailable"]
	if free == 0 {
		free = values["MemFree"]
	}
	used := total - free
	percent := 0
	if total > 0 {
		percent = int(float64(used)/float64(total)*100 + 0.5)
	}
	return MemoryStats{TotalKB: total, FreeKB: free, UsedKB: used, Percent: percent}, true
}

func readDisk(path string) (DiskStats, bool) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return DiskStats{}, false
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	used := total - free
	percent := 0
	if total > 0 {
		percent = int(float64(used)/float64(total)*100 + 0.5)
	}
	return DiskStats{TotalBytes: total, FreeBytes: free, UsedBytes: used, Percent: percent}, true
}

// readTemperature prefers a SoC-specific thermal query utility
// ("vcgencmd measure_temp" on Raspberry Pi boards) and falls back to the
// generic thermal_zone0 sysfs node; nil if neither source is available.
func readTemperature() (float64, bool) {
	if temp, ok := readTemperatureFromVcgencmd(); ok {
		return temp, true
	}
	return readTemperatureFromSysfs()
}

func readTemperatureFromVcgencmd() (float64, bool) {
	res, err := executil.Run(context.Background(), []string{"vcgencmd", "measure_temp"}, executil.Options{Timeout: 2 * time.Second})
	if err != nil || res.ExitCode != 0 {
		return 0, false
	}
	// Output shape: "temp=42.8'C\n"
	out := strings.TrimSpace(res.Stdout)
	_, value, found := strings.Cut(out, "=")
	if !found {
		return 0, false
	}
	value = strings.TrimSuffix(value, "'C")
	temp, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return temp, true
}

func readTemperatureFromSysfs() (float64, bool) {
	data, err := os.ReadFile("/sys/class/thermal/thermal_zone0/temp")
	if err != nil {
		return 0, false
	}
	milliC, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, false
	}
	return float64(milliC) / 1000, true
}

// OpResult is the outcome of a lifecycle action.
type OpResult struct {
	Success bool
	Message string
}

// Reboot issues an immediate system reboot. The control command is expected
// to return before the reboot actually completes.
func (c *Controller) Reboot(ctx context.Context) OpResult {
	return run(ctx, []string{"systemctl", "reboot"}, rebootTimeout)
}

// Shutdown issues an immediate system power-off.
func (c *Controller) Shutdown(ctx context.Context) OpResult {
	return run(ctx, []string{"systemctl", "poweroff"}, shutdownTimeout)
}

// Update refreshes the package index.
func (c *Controller) Update(ctx context.Context) OpResult {
	return run(ctx, []string{"apt-get", "update"}, updateTimeout)
}

// Cleanup removes packages that are no longer needed (apt-get autoremove);
// it does not upgrade installed packages.
func (c *Controller) Cleanup(ctx context.Context) OpResult {
	return run(ctx, []string{"apt-get", "-y", "autoremove"}, cleanupTimeout)
}

func run(ctx context.Context, argv []string, timeout time.Duration) OpResult {
	res, err := executil.Run(ctx, argv, executil.Options{Timeout: timeout})
	if err != nil {
		return OpResult{Success: false, Message: err.Error()}
	}
	if res.ExitCode != 0 {
		return OpResult{Success: false, Message: strings.TrimSpace(res.Stderr)}
	}
	return OpResult{Success: true}
}
