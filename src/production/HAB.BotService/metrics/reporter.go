package metrics

import (
	"context"
	"fmt"
	"math"
	"strings"

	logger "gitlab.com/maplesense1/homeant.bot/src/production/HAB.Logger"
	habmodels "gitlab.com/maplesense1/homeant.bot/src/production/HAB.Models"
)

const Header = "*============SYSTEM============*"

// sensorGroups are tried in order; the first group with readings is reported
var sensorGroups = []string{"coretemp", "cpu_thermal"}

// Reporter renders a snapshot of host metrics
type Reporter struct {
	source   Source
	diskPath string
	logger   *logger.Logger
}

func NewReporter(source Source, diskPath string, log *logger.Logger) *Reporter {
	return &Reporter{
		source:   source,
		diskPath: diskPath,
		logger:   log.WithComponent("metrics"),
	}
}

// Report returns the metrics message. Any read failure replaces the whole
// report with a single failure line.
func (r *Reporter) Report(ctx context.Context) string {
	text, err := r.collect(ctx)
	if err != nil {
		r.logger.ErrorWithError(err, "Failed to collect system info")
		return "‼️ Failed to get system info: " + habmodels.EscapeMarkdown(err.Error())
	}
	return text
}

func (r *Reporter) collect(ctx context.Context) (string, error) {
	cpuPercent, err := r.source.CPUPercent(ctx)
	if err != nil {
		return "", err
	}
	freq, err := r.source.CPUFreqMHz(ctx)
	if err != nil {
		return "", err
	}
	cores, err := r.source.LogicalCores(ctx)
	if err != nil {
		return "", err
	}
	temps, err := r.source.Temperatures(ctx)
	if err != nil {
		return "", err
	}
	memory, err := r.source.Memory(ctx)
	if err != nil {
		return "", err
	}
	usage, err := r.source.Disk(ctx, r.diskPath)
	if err != nil {
		return "", err
	}
	uptime, err := r.source.Uptime(ctx)
	if err != nil {
		return "", err
	}

	lines := []string{
		Header,
		fmt.Sprintf("*CPU Usage:* %s%%", formatFloat(round1(cpuPercent))),
		fmt.Sprintf("*CPU Freq:* %d MHz", int64(math.Ceil(freq))),
		fmt.Sprintf("*CPU Cores:* %d", cores),
		fmt.Sprintf("*CPU Temp:* %s", formatTemperatures(temps)),
		fmt.Sprintf("*Free Memory:* %s of %s", ConvertSize(memory.Available), ConvertSize(memory.Total)),
		fmt.Sprintf("*Used Memory:* %s (%s%%)", ConvertSize(memory.Used), formatFloat(round1(memory.UsedPercent))),
		fmt.Sprintf("*Disks usage:* %s of %s (%s%%)", ConvertSize(usage.Used), ConvertSize(usage.Total), formatFloat(round1(usage.UsedPercent))),
		"*Uptime:* " + habmodels.EscapeMarkdown(uptime),
	}
	return strings.Join(lines, "\n"), nil
}

func formatTemperatures(temps []Temperature) string {
	for _, group := range sensorGroups {
		var readings []string
		for _, t := range temps {
			if strings.HasPrefix(t.SensorKey, group) {
				readings = append(readings, formatFloat(round1(t.Celsius))+"°C")
			}
		}
		if len(readings) > 0 {
			return strings.Join(readings, "  ")
		}
	}
	return "NA"
}
