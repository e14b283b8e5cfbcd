package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TG_KEY", "123:abc")
	t.Setenv("AUTHORIZED_IDS", "1072139158, 227723943,-1001722038446")
}

func TestLoadBotConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		setRequired(t)

		cfg, err := LoadBotConfig()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Telegram.Token != "123:abc" {
			t.Errorf("expected token '123:abc', got %q", cfg.Telegram.Token)
		}
		want := []int64{1072139158, 227723943, -1001722038446}
		if len(cfg.AuthorizedIDs) != len(want) {
			t.Fatalf("expected %d authorized ids, got %v", len(want), cfg.AuthorizedIDs)
		}
		for i, id := range want {
			if cfg.AuthorizedIDs[i] != id {
				t.Errorf("authorized id %d: expected %d, got %d", i, id, cfg.AuthorizedIDs[i])
			}
		}
		if got := cfg.Tunnels.Endpoints; len(got) != 1 || got[0] != "http://127.0.0.1:4040/api/tunnels" {
			t.Errorf("unexpected default tunnel endpoints %v", got)
		}
		if cfg.MQTT.GetMQTTBrokerURL() != "tcp://localhost:1883" {
			t.Errorf("unexpected broker url %s", cfg.MQTT.GetMQTTBrokerURL())
		}
		if cfg.Relay.FlushWindow != time.Second {
			t.Errorf("expected 1s flush window, got %s", cfg.Relay.FlushWindow)
		}
		if cfg.Relay.ResetOnOpen {
			t.Error("expected values to be retained across sessions by default")
		}
		if cfg.Server.Port != "9004" {
			t.Errorf("expected default health port 9004, got %q", cfg.Server.Port)
		}
	})

	t.Run("legacy token variable", func(t *testing.T) {
		t.Setenv("TG_KEY", "")
		t.Setenv("TG-KEY", "legacy")
		t.Setenv("AUTHORIZED_IDS", "1")

		cfg, err := LoadBotConfig()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Telegram.Token != "legacy" {
			t.Errorf("expected legacy token, got %q", cfg.Telegram.Token)
		}
	})

	t.Run("broker and topics", func(t *testing.T) {
		setRequired(t)
		t.Setenv("MQTT_HOST", "broker.lan")
		t.Setenv("MQTT_PORT", "8883")
		t.Setenv("MQTT_TLS", "true")
		t.Setenv("TOPIC_RELAYS", "r/1, r/2 ,r/3")
		t.Setenv("HEALTH_PORT", "")

		cfg, err := LoadBotConfig()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.MQTT.GetMQTTBrokerURL() != "tcps://broker.lan:8883" {
			t.Errorf("unexpected broker url %s", cfg.MQTT.GetMQTTBrokerURL())
		}
		if len(cfg.Relay.RelayTopics) != 3 || cfg.Relay.RelayTopics[1] != "r/2" {
			t.Errorf("unexpected relay topics %v", cfg.Relay.RelayTopics)
		}
		if cfg.Server.Port != "" {
			t.Errorf("expected health server to be disabled, got port %q", cfg.Server.Port)
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		cases := map[string][2]string{
			"bad port":             {"MQTT_PORT", "abc"},
			"bad duration":         {"RELAY_FLUSH_WINDOW", "soon"},
			"bad bool":             {"RELAY_RESET_ON_OPEN", "maybe"},
			"bad id":               {"AUTHORIZED_IDS", "12,bob"},
			"too many":             {"TOPIC_BATTERIES", "a,b,c,d"},
			"no token":             {"TG_KEY", ""},
			"zero window":          {"RELAY_FLUSH_WINDOW", "0s"},
			"no authorized":        {"AUTHORIZED_IDS", ""},
			"zero connect timeout": {"MQTT_CONNECT_TIMEOUT", "0s"},
		}
		for name, kv := range cases {
			t.Run(name, func(t *testing.T) {
				setRequired(t)
				t.Setenv("TG-KEY", "")
				t.Setenv(kv[0], kv[1])

				if _, err := LoadBotConfig(); err == nil {
					t.Fatalf("expected error for %s=%q, got nil", kv[0], kv[1])
				}
			})
		}
	})
}
