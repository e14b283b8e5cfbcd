package relay

import (
	"fmt"
	"strings"

	habmodels "gitlab.com/maplesense1/homeant.bot/src/production/HAB.Models"
)

const (
	glyphOn  = "🟢"
	glyphOff = "🔴"
)

// Render formats the known values, one line per topic in first-observed order
func Render(topics []habmodels.TopicSpec, order []string, values map[string]string) string {
	specs := make(map[string]habmodels.TopicSpec, len(topics))
	for _, t := range topics {
		specs[t.Path] = t
	}

	lines := make([]string, 0, len(order))
	for _, topic := range order {
		lines = append(lines, renderLine(specs, topic, values[topic]))
	}
	return strings.Join(lines, "\n")
}

func renderLine(specs map[string]habmodels.TopicSpec, topic, value string) string {
	spec, ok := specs[topic]
	if !ok {
		spec = habmodels.TopicSpec{Path: topic, Category: habmodels.CategoryGeneric}
	}

	switch spec.Category {
	case habmodels.CategoryPowerSource:
		return indicatorLine("🔌", spec.Label, value)
	case habmodels.CategoryRelay:
		return indicatorLine("💡", spec.Label, value)
	case habmodels.CategoryBattery:
		return fmt.Sprintf("🔋 %s: %s%%", habmodels.EscapeMarkdown(spec.Label), habmodels.EscapeMarkdown(value))
	default:
		return fmt.Sprintf("%s: %s", habmodels.EscapeMarkdown(spec.Path), habmodels.EscapeMarkdown(value))
	}
}

// indicatorLine renders a binary state. Payloads that are neither on nor off
// leave the glyph out.
func indicatorLine(icon, label, value string) string {
	line := fmt.Sprintf("%s %s:", icon, habmodels.EscapeMarkdown(label))
	switch strings.ToLower(value) {
	case "1", "on", "true":
		return line + " " + glyphOn
	case "0", "off", "false":
		return line + " " + glyphOff
	default:
		return line
	}
}
