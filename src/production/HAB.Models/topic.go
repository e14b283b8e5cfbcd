package habmodels

import "fmt"

// TopicCategory selects how a telemetry topic is rendered
type TopicCategory int

const (
	CategoryGeneric TopicCategory = iota
	CategoryPowerSource
	CategoryRelay
	CategoryBattery
)

var categoryNames = map[TopicCategory]string{
	CategoryGeneric:     "generic",
	CategoryPowerSource: "power_source",
	CategoryRelay:       "relay",
	CategoryBattery:     "battery",
}

func (c TopicCategory) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// TopicSpec describes one subscribed telemetry channel
type TopicSpec struct {
	Path     string
	Label    string
	Category TopicCategory
}

// BuildTopicSpecs turns the configured topic paths into the fixed subscription set.
// Relay and battery labels are numbered in configuration order.
func BuildTopicSpecs(mains string, relays, batteries []string) []TopicSpec {
	specs := []TopicSpec{{Path: mains, Label: "Mains", Category: CategoryPowerSource}}
	for i, path := range relays {
		specs = append(specs, TopicSpec{Path: path, Label: fmt.Sprintf("Relay %d", i+1), Category: CategoryRelay})
	}
	for i, path := range batteries {
		specs = append(specs, TopicSpec{Path: path, Label: fmt.Sprintf("Battery %d", i+1), Category: CategoryBattery})
	}
	return specs
}
