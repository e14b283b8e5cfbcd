package metrics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Temperature is one sensor reading
type Temperature struct {
	SensorKey string
	Celsius   float64
}

// MemoryStat is a virtual memory snapshot in bytes
type MemoryStat struct {
	Available   uint64
	Total       uint64
	Used        uint64
	UsedPercent float64
}

// DiskStat is filesystem usage in bytes
type DiskStat struct {
	Used        uint64
	Total       uint64
	UsedPercent float64
}

// Source reads host telemetry
type Source interface {
	CPUPercent(ctx context.Context) (float64, error)
	CPUFreqMHz(ctx context.Context) (float64, error)
	LogicalCores(ctx context.Context) (int, error)
	Temperatures(ctx context.Context) ([]Temperature, error)
	Memory(ctx context.Context) (MemoryStat, error)
	Disk(ctx context.Context, path string) (DiskStat, error)
	Uptime(ctx context.Context) (string, error)
}

// scalingCurFreq holds the current clock of cpu0 in kHz
const scalingCurFreq = "/sys/devices/system/cpu/cpu0/cpufreq/scaling_cur_freq"

// HostSource reads the local host through gopsutil and an uptime command
type HostSource struct {
	uptimeCommand  []string
	commandTimeout time.Duration
	curFreqPath    string
}

func NewHostSource(uptimeCommand string, commandTimeout time.Duration) *HostSource {
	return &HostSource{
		uptimeCommand:  strings.Fields(uptimeCommand),
		commandTimeout: commandTimeout,
		curFreqPath:    scalingCurFreq,
	}
}

func (s *HostSource) CPUPercent(ctx context.Context) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, fmt.Errorf("cpu percent: %w", err)
	}
	if len(percents) == 0 {
		return 0, errors.New("cpu percent: no reading")
	}
	return percents[0], nil
}

// CPUFreqMHz reports the current clock from cpufreq. gopsutil only exposes the
// rated maximum, which is used when cpufreq is unavailable.
func (s *HostSource) CPUFreqMHz(ctx context.Context) (float64, error) {
	if mhz, ok := readCurFreqMHz(s.curFreqPath); ok {
		return mhz, nil
	}
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("cpu frequency: %w", err)
	}
	if len(infos) == 0 {
		return 0, errors.New("cpu frequency: no cpu info")
	}
	return infos[0].Mhz, nil
}

func readCurFreqMHz(path string) (float64, bool) {
	if path == "" {
		return 0, false
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	khz, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil || khz <= 0 {
		return 0, false
	}
	return khz / 1000, true
}

func (s *HostSource) LogicalCores(ctx context.Context) (int, error) {
	n, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return 0, fmt.Errorf("cpu count: %w", err)
	}
	return n, nil
}

// Temperatures returns whatever sensors could be read. Hosts without sensors
// yield an empty slice rather than an error.
func (s *HostSource) Temperatures(ctx context.Context) ([]Temperature, error) {
	stats, err := host.SensorsTemperaturesWithContext(ctx)
	if err != nil && len(stats) == 0 {
		return nil, nil
	}
	temps := make([]Temperature, 0, len(stats))
	for _, st := range stats {
		temps = append(temps, Temperature{SensorKey: st.SensorKey, Celsius: st.Temperature})
	}
	return temps, nil
}

func (s *HostSource) Memory(ctx context.Context) (MemoryStat, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryStat{}, fmt.Errorf("virtual memory: %w", err)
	}
	return MemoryStat{
		Available:   vm.Available,
		Total:       vm.Total,
		Used:        vm.Used,
		UsedPercent: vm.UsedPercent,
	}, nil
}

func (s *HostSource) Disk(ctx context.Context, path string) (DiskStat, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return DiskStat{}, fmt.Errorf("disk usage of %s: %w", path, err)
	}
	return DiskStat{Used: usage.Used, Total: usage.Total, UsedPercent: usage.UsedPercent}, nil
}

func (s *HostSource) Uptime(ctx context.Context) (string, error) {
	if len(s.uptimeCommand) == 0 {
		return "", errors.New("uptime command is empty")
	}
	ctx, cancel := context.WithTimeout(ctx, s.commandTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, s.uptimeCommand[0], s.uptimeCommand[1:]...).Output()
	if err != nil {
		return "", fmt.Errorf("command '%s' failed: %w", strings.Join(s.uptimeCommand, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}
