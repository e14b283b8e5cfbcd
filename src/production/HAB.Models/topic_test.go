package habmodels

import "testing"

func TestBuildTopicSpecs(t *testing.T) {
	specs := BuildTopicSpecs("power/mains", []string{"relay/a", "relay/b"}, []string{"battery/a"})

	want := []TopicSpec{
		{Path: "power/mains", Label: "Mains", Category: CategoryPowerSource},
		{Path: "relay/a", Label: "Relay 1", Category: CategoryRelay},
		{Path: "relay/b", Label: "Relay 2", Category: CategoryRelay},
		{Path: "battery/a", Label: "Battery 1", Category: CategoryBattery},
	}
	if len(specs) != len(want) {
		t.Fatalf("expected %d specs, got %d", len(want), len(specs))
	}
	for i := range want {
		if specs[i] != want[i] {
			t.Errorf("spec %d: expected %+v, got %+v", i, want[i], specs[i])
		}
	}
}

func TestEscapeMarkdown(t *testing.T) {
	if got := EscapeMarkdown("a_b*c`d[e"); got != "a\\_b\\*c\\`d\\[e" {
		t.Errorf("unexpected escape result %q", got)
	}
}
