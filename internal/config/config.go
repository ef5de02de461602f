package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures the full configuration surface for the application.
// It is loaded once at startup and treated as read-only afterwards.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Lead       LeadConfig       `mapstructure:"lead"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	CallBridge CallBridgeConfig `mapstructure:"call_bridge"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type HTTPConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// AuthConfig holds the shared secret inbound callers must present.
type AuthConfig struct {
	SharedSecret string `mapstructure:"shared_secret"`
	HeaderName   string `mapstructure:"header_name"`
}

// LeadConfig holds placeholder values used when callers omit fields.
type LeadConfig struct {
	DefaultService string `mapstructure:"default_service"`
	DebugName      string `mapstructure:"debug_name"`
	DebugService   string `mapstructure:"debug_service"`
	FunnelName     string `mapstructure:"funnel_name"`
}

type KafkaConfig struct {
	Brokers        []string `mapstructure:"brokers"`
	ClientID       string   `mapstructure:"client_id"`
	CallEventTopic string   `mapstructure:"call_event_topic"`
}

// Enabled reports whether call events should be published.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.CallEventTopic != ""
}

type TelemetryConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	ServiceName     string        `mapstructure:"service_name"`
	SampleRatio     float64       `mapstructure:"sample_ratio"`
	MetricsEnabled  bool          `mapstructure:"metrics_enabled"`
	TracingEnabled  bool          `mapstructure:"tracing_enabled"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// CallBridgeConfig describes the remote call-placement API.
type CallBridgeConfig struct {
	ProviderName   string        `mapstructure:"provider_name"`
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	AgentID        string        `mapstructure:"agent_id"`
	FromNumber     string        `mapstructure:"from_number"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Provider names understood by the container.
const (
	ProviderRetell = "retell"
	ProviderMock   = "mock"
)

// DefaultFromNumber is the caller id used when none is configured.
const DefaultFromNumber = "+12185795523"

// envAliases maps configuration keys to the plain environment variable
// names used by hosting platforms, in addition to the RELAY_ prefixed names.
var envAliases = map[string][]string{
	"call_bridge.api_key":     {"RETELL_API_KEY"},
	"call_bridge.agent_id":    {"RETELL_AGENT_ID"},
	"call_bridge.from_number": {"RETELL_FROM_NUMBER"},
	"call_bridge.base_url":    {"RETELL_BASE_URL"},
	"auth.shared_secret":      {"KRYONEX_SECRET"},
	"http.port":               {"PORT"},
}

// Load reads configuration from an optional file and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(NewEnvReplacer())
	v.AutomaticEnv()

	for key, names := range envAliases {
		args := append([]string{key, "RELAY_" + NewEnvReplacer().Replace(strings.ToUpper(key))}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("config: bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("config: failed to read config file: %w", err)
			}
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal config: %w", err)
	}

	if cfg.CallBridge.FromNumber == "" {
		cfg.CallBridge.FromNumber = DefaultFromNumber
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "KRYONEX_SNIPER_V1")
	v.SetDefault("app.env", "production")
	v.SetDefault("app.version", "dev")

	v.SetDefault("http.port", 8000)
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)

	v.SetDefault("auth.shared_secret", "")
	v.SetDefault("auth.header_name", "X-API-Key")

	v.SetDefault("lead.default_service", "General Inquiry")
	v.SetDefault("lead.debug_name", "TEST_USER")
	v.SetDefault("lead.debug_service", "DEBUG_TEST")
	v.SetDefault("lead.funnel_name", "there")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.client_id", "lead-call-relay")
	v.SetDefault("kafka.call_event_topic", "")

	v.SetDefault("telemetry.endpoint", "localhost:4318")
	v.SetDefault("telemetry.service_name", "lead-call-relay")
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("telemetry.metrics_enabled", true)
	v.SetDefault("telemetry.tracing_enabled", false)
	v.SetDefault("telemetry.shutdown_timeout", 5*time.Second)

	v.SetDefault("call_bridge.provider_name", ProviderRetell)
	v.SetDefault("call_bridge.base_url", "https://api.retellai.com")
	v.SetDefault("call_bridge.api_key", "")
	v.SetDefault("call_bridge.agent_id", "")
	v.SetDefault("call_bridge.from_number", DefaultFromNumber)
	v.SetDefault("call_bridge.request_timeout", 20*time.Second)
}

// NewEnvReplacer standardizes environment variable names.
func NewEnvReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_", "-", "_")
}
