package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// BotConfig holds all configuration for the Home-Ant bot
type BotConfig struct {
	// Telegram configuration
	Telegram TelegramConfig `json:"telegram"`

	// Allow-listed Telegram user IDs
	AuthorizedIDs []int64 `json:"authorized_ids"`

	// Tunnel status endpoints
	Tunnels TunnelsConfig `json:"tunnels"`

	// MQTT configuration
	MQTT MQTTConfig `json:"mqtt"`

	// Telemetry relay configuration
	Relay RelayConfig `json:"relay"`

	// Host metrics configuration
	Metrics MetricsConfig `json:"metrics"`

	// Health server configuration
	Server ServerConfig `json:"server"`

	// Logging configuration
	Logging LoggingConfig `json:"logging"`
}

// TelegramConfig holds chat transport configuration
type TelegramConfig struct {
	Token       string `json:"-"`
	PollTimeout int    `json:"poll_timeout"`
	Debug       bool   `json:"debug"`
}

// TunnelsConfig holds tunnel status endpoint configuration
type TunnelsConfig struct {
	Endpoints []string      `json:"endpoints"`
	Timeout   time.Duration `json:"timeout"`
}

// MQTTConfig holds MQTT-related configuration
type MQTTConfig struct {
	BrokerHost     string        `json:"broker_host"`
	BrokerPort     int           `json:"broker_port"`
	BrokerUser     string        `json:"broker_user"`
	BrokerPass     string        `json:"broker_pass"`
	UseTLS         bool          `json:"use_tls"`
	CACertPath     string        `json:"ca_cert_path"`
	ClientID       string        `json:"client_id"`
	KeepAlive      time.Duration `json:"keep_alive"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
}

// RelayConfig holds telemetry relay configuration
type RelayConfig struct {
	MainsTopic    string        `json:"mains_topic"`
	RelayTopics   []string      `json:"relay_topics"`
	BatteryTopics []string      `json:"battery_topics"`
	FlushWindow   time.Duration `json:"flush_window"`
	ResetOnOpen   bool          `json:"reset_on_open"`
}

// MetricsConfig holds host metrics configuration
type MetricsConfig struct {
	DiskPath       string        `json:"disk_path"`
	UptimeCommand  string        `json:"uptime_command"`
	CommandTimeout time.Duration `json:"command_timeout"`
}

// ServerConfig holds health server configuration
type ServerConfig struct {
	Port         string        `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level        string `json:"level"`
	Format       string `json:"format"` // json or text
	Output       string `json:"output"` // stdout or stderr
	EnableCaller bool   `json:"enable_caller"`
}

// LoadBotConfig loads configuration for the bot from the environment
func LoadBotConfig() (*BotConfig, error) {
	// A missing .env file is fine, the environment may be set directly
	_ = godotenv.Load()

	authorized, err := getInt64Slice("AUTHORIZED_IDS")
	if err != nil {
		return nil, err
	}

	// An explicitly empty HEALTH_PORT disables the health server
	healthPort := "9004"
	if value, set := os.LookupEnv("HEALTH_PORT"); set {
		healthPort = value
	}

	var errs []error
	integer := func(key string, def int) int {
		i, err := getInt(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return i
	}
	duration := func(key string, def time.Duration) time.Duration {
		d, err := getDuration(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}
	boolean := func(key string, def bool) bool {
		b, err := getBool(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return b
	}

	config := &BotConfig{
		Telegram: TelegramConfig{
			Token:       getEnv("TG_KEY", getEnv("TG-KEY", "")),
			PollTimeout: integer("TG_POLL_TIMEOUT", 60),
			Debug:       boolean("TG_DEBUG", false),
		},
		AuthorizedIDs: authorized,
		Tunnels: TunnelsConfig{
			Endpoints: getStringSlice("NGROK_URLS", []string{"http://127.0.0.1:4040/api/tunnels"}),
			Timeout:   duration("TUNNEL_TIMEOUT", 3*time.Second),
		},
		MQTT: MQTTConfig{
			BrokerHost:     getEnv("MQTT_HOST", "localhost"),
			BrokerPort:     integer("MQTT_PORT", 1883),
			BrokerUser:     getEnv("MQTT_USER", ""),
			BrokerPass:     getEnv("MQTT_PASS", ""),
			UseTLS:         boolean("MQTT_TLS", false),
			CACertPath:     getEnv("MQTT_CA_FILE", ""),
			ClientID:       getEnv("MQTT_CLIENT_ID", "home-ant-bot"),
			KeepAlive:      duration("MQTT_KEEP_ALIVE", 30*time.Second),
			ConnectTimeout: duration("MQTT_CONNECT_TIMEOUT", 5*time.Second),
		},
		Relay: RelayConfig{
			MainsTopic:    getEnv("TOPIC_MAINS", "home/power/mains"),
			RelayTopics:   getStringSlice("TOPIC_RELAYS", []string{"home/relay/1"}),
			BatteryTopics: getStringSlice("TOPIC_BATTERIES", []string{"home/battery/1"}),
			FlushWindow:   duration("RELAY_FLUSH_WINDOW", time.Second),
			ResetOnOpen:   boolean("RELAY_RESET_ON_OPEN", false),
		},
		Metrics: MetricsConfig{
			DiskPath:       getEnv("METRICS_DISK_PATH", "/"),
			UptimeCommand:  getEnv("METRICS_UPTIME_COMMAND", "uptime --pretty"),
			CommandTimeout: duration("METRICS_COMMAND_TIMEOUT", 5*time.Second),
		},
		Server: ServerConfig{
			Port:         healthPort,
			ReadTimeout:  duration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout: duration("WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  duration("IDLE_TIMEOUT", 60*time.Second),
		},
		Logging: LoggingConfig{
			Level:        getEnv("LOG_LEVEL", "info"),
			Format:       getEnv("LOG_FORMAT", "text"),
			Output:       getEnv("LOG_OUTPUT", "stdout"),
			EnableCaller: boolean("LOG_ENABLE_CALLER", false),
		},
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *BotConfig) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("TG_KEY is required")
	}
	if len(c.AuthorizedIDs) == 0 {
		return fmt.Errorf("AUTHORIZED_IDS must list at least one user id")
	}
	if len(c.Tunnels.Endpoints) == 0 {
		return fmt.Errorf("NGROK_URLS must list at least one endpoint")
	}
	if c.Relay.MainsTopic == "" {
		return fmt.Errorf("TOPIC_MAINS is required")
	}
	if n := len(c.Relay.RelayTopics); n < 1 || n > 3 {
		return fmt.Errorf("TOPIC_RELAYS must list 1 to 3 topics, got %d", n)
	}
	if n := len(c.Relay.BatteryTopics); n < 1 || n > 3 {
		return fmt.Errorf("TOPIC_BATTERIES must list 1 to 3 topics, got %d", n)
	}
	if c.Relay.FlushWindow <= 0 {
		return fmt.Errorf("RELAY_FLUSH_WINDOW must be positive")
	}
	if c.MQTT.ConnectTimeout <= 0 {
		return fmt.Errorf("MQTT_CONNECT_TIMEOUT must be positive")
	}
	return nil
}

// GetMQTTBrokerURL returns the MQTT broker URL
func (c *MQTTConfig) GetMQTTBrokerURL() string {
	scheme := "tcp"
	if c.UseTLS {
		scheme = "tcps"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.BrokerHost, c.BrokerPort)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return intValue, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if value == "1" || value == "true" || value == "TRUE" {
		return true, nil
	}
	if value == "0" || value == "false" || value == "FALSE" {
		return false, nil
	}
	return defaultValue, fmt.Errorf("invalid %s: %q (expected true/false or 1/0)", key, value)
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return duration, nil
}

func getStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

func getInt64Slice(key string) ([]int64, error) {
	ids := make([]int64, 0)
	for _, part := range getStringSlice(key, nil) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry %q: %w", key, part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
