package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/acme/lead-call-relay/internal/config"
	"github.com/acme/lead-call-relay/internal/queue"
	callsvc "github.com/acme/lead-call-relay/internal/service/call"
	"github.com/acme/lead-call-relay/internal/telemetry"
	telephonySvc "github.com/acme/lead-call-relay/internal/telephony"
	telephonyMock "github.com/acme/lead-call-relay/internal/telephony/mock"
	"github.com/acme/lead-call-relay/internal/telephony/retell"
	"github.com/acme/lead-call-relay/pkg/logger"
)

// Container wires together shared infrastructure dependencies.
type Container struct {
	Config   *config.Config
	Logger   *logger.Logger
	Registry *prometheus.Registry
	Kafka    *queue.Kafka

	// lazily initialised components
	components struct {
		once      sync.Once
		services  *services
		providers *providers
		events    *queue.EventPublisher
		metrics   *telemetry.DispatchMetrics
	}
}

type services struct {
	Call *callsvc.Service
}

type providers struct {
	Telephony telephonySvc.Provider
}

// Build constructs a container for the given configuration path.
func Build(ctx context.Context, configPath string) (*Container, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	lg, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, err
	}

	container := New(cfg, lg)

	if cfg.Kafka.Enabled() {
		kafka, err := queue.NewKafka(cfg.Kafka)
		if err != nil {
			return nil, fmt.Errorf("bootstrap kafka: %w", err)
		}
		container.Kafka = kafka
	}

	if cfg.CallBridge.APIKey == "" || cfg.CallBridge.AgentID == "" {
		lg.Warn("call bridge is not fully configured; dispatches will fail until RETELL_API_KEY and RETELL_AGENT_ID are set")
	}
	if cfg.Auth.SharedSecret == "" {
		lg.Warn("shared secret is empty; every inbound request will be rejected")
	}

	return container, nil
}

// New builds a container around an already loaded configuration.
func New(cfg *config.Config, lg *logger.Logger) *Container {
	if lg == nil {
		lg = logger.NewNop()
	}
	return &Container{
		Config:   cfg,
		Logger:   lg,
		Registry: prometheus.NewRegistry(),
	}
}

func (c *Container) initComponents() {
	c.components.once.Do(func() {
		var telephony telephonySvc.Provider
		switch c.Config.CallBridge.ProviderName {
		case config.ProviderMock:
			telephony = telephonyMock.NewProvider()
		default:
			telephony = retell.NewClient(c.Config.CallBridge)
		}
		providers := &providers{Telephony: telephony}

		var metrics *telemetry.DispatchMetrics
		if c.Config.Telemetry.MetricsEnabled {
			metrics = telemetry.NewDispatchMetrics(c.Registry)
		}

		var events callsvc.EventPublisher
		if c.Kafka != nil {
			publisher := queue.NewEventPublisher(c.Kafka, c.Config.Kafka.CallEventTopic)
			c.components.events = publisher
			events = publisher
		}

		services := &services{
			Call: callsvc.NewService(
				callsvc.SettingsFromConfig(c.Config),
				providers.Telephony,
				events,
				metrics,
				c.Logger,
			),
		}

		c.components.providers = providers
		c.components.services = services
		c.components.metrics = metrics
	})
}

// Services exposes initialized services.
func (c *Container) Services() *services {
	c.initComponents()
	return c.components.services
}

// Providers exposes external providers.
func (c *Container) Providers() *providers {
	c.initComponents()
	return c.components.providers
}

// EnsureTopics ensures the call event topic exists when events are enabled.
func (c *Container) EnsureTopics(ctx context.Context) error {
	if c.Kafka == nil {
		return nil
	}
	return c.Kafka.EnsureTopics(ctx, []string{c.Config.Kafka.CallEventTopic}, 6, 1)
}

// Close releases all held resources.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.components.events != nil {
		if err := c.components.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("event publisher close: %w", err))
		}
	}
	if c.Logger != nil {
		if len(errs) > 0 {
			c.Logger.Error("close errors", zap.Errors("errors", errs))
		}
		c.Logger.Sync()
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
