package call

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/acme/lead-call-relay/internal/config"
	"github.com/acme/lead-call-relay/internal/domain"
	"github.com/acme/lead-call-relay/internal/queue"
	"github.com/acme/lead-call-relay/internal/service/phone"
	"github.com/acme/lead-call-relay/internal/telemetry"
	"github.com/acme/lead-call-relay/internal/telephony"
	apperrors "github.com/acme/lead-call-relay/pkg/errors"
	"github.com/acme/lead-call-relay/pkg/logger"
)

const (
	defaultRequestTimeout = 20 * time.Second
	eventPublishTimeout   = 5 * time.Second
)

// EventPublisher emits dispatch outcomes to downstream consumers.
type EventPublisher interface {
	PublishCallEvent(ctx context.Context, evt queue.CallEvent) error
}

// Settings is the read-only slice of configuration the dispatcher needs.
type Settings struct {
	SharedSecret   string
	APIKey         string
	AgentID        string
	FromNumber     string
	DefaultService string
	RequestTimeout time.Duration
}

// SettingsFromConfig extracts dispatcher settings from the loaded config.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		SharedSecret:   cfg.Auth.SharedSecret,
		APIKey:         cfg.CallBridge.APIKey,
		AgentID:        cfg.CallBridge.AgentID,
		FromNumber:     cfg.CallBridge.FromNumber,
		DefaultService: cfg.Lead.DefaultService,
		RequestTimeout: cfg.CallBridge.RequestTimeout,
	}
}

// Service validates inbound leads and places outbound calls.
type Service struct {
	settings Settings
	provider telephony.Provider
	events   EventPublisher
	metrics  *telemetry.DispatchMetrics
	logger   *logger.Logger
	now      func() time.Time
}

// NewService builds the call dispatch service. events and metrics may be nil.
func NewService(
	settings Settings,
	provider telephony.Provider,
	events EventPublisher,
	metrics *telemetry.DispatchMetrics,
	lg *logger.Logger,
) *Service {
	if settings.RequestTimeout <= 0 {
		settings.RequestTimeout = defaultRequestTimeout
	}
	if settings.FromNumber == "" {
		settings.FromNumber = config.DefaultFromNumber
	}
	if lg == nil {
		lg = logger.NewNop()
	}
	return &Service{
		settings: settings,
		provider: provider,
		events:   events,
		metrics:  metrics,
		logger:   lg,
		now:      time.Now,
	}
}

// DispatchInput encapsulates the arguments for a dispatch.
type DispatchInput struct {
	Source     domain.Source
	Lead       domain.LeadRequest
	Credential string
}

// Dispatch authenticates the caller, normalizes the lead's phone number and
// asks the telephony provider to place the call. Every entry point funnels
// through here.
func (s *Service) Dispatch(ctx context.Context, input DispatchInput) (*domain.CallResult, error) {
	tracer := otel.Tracer("relay.call")
	ctx, span := tracer.Start(ctx, "call.dispatch", trace.WithAttributes(
		attribute.String("call.source", string(input.Source)),
	))
	defer span.End()

	start := s.now()
	result, err := s.dispatch(ctx, input)
	outcome := outcomeOf(err)

	span.SetAttributes(attribute.String("call.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	s.metrics.ObserveDispatch(string(input.Source), outcome)

	log := s.logger.WithContext(ctx).With(
		zap.String("source", string(input.Source)),
		zap.String("outcome", outcome),
	)
	switch {
	case err == nil:
		log.Info("call dispatched",
			zap.String("to", phone.Mask(result.To)),
			zap.Stringp("call_id", result.CallID),
		)
	case errors.Is(err, apperrors.ErrUnauthorized):
		log.Warn("dispatch rejected")
	default:
		log.Error("dispatch failed", zap.Error(err))
	}

	if !errors.Is(err, apperrors.ErrUnauthorized) {
		s.publish(ctx, input, result, err, s.now().Sub(start))
	}

	return result, err
}

func (s *Service) dispatch(ctx context.Context, input DispatchInput) (*domain.CallResult, error) {
	if err := s.Authenticate(input.Credential); err != nil {
		return nil, err
	}

	if err := s.checkConfigured(); err != nil {
		return nil, err
	}

	lead := input.Lead
	if strings.TrimSpace(lead.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", apperrors.ErrValidation)
	}
	if strings.TrimSpace(lead.ServiceInterest) == "" {
		lead.ServiceInterest = s.settings.DefaultService
	}

	to, err := phone.Normalize(lead.Phone)
	if err != nil {
		return nil, err
	}

	cmd := domain.NewCallCommand(s.settings.FromNumber, to, s.settings.AgentID, lead)

	callCtx, cancel := context.WithTimeout(ctx, s.settings.RequestTimeout)
	defer cancel()

	started := s.now()
	res, err := s.provider.PlaceCall(callCtx, cmd)
	s.metrics.ObserveRemoteLatency(outcomeOf(err), s.now().Sub(started))
	if err != nil {
		return nil, classifyRemote(err)
	}

	return &domain.CallResult{
		Status: domain.CallResultSuccess,
		CallID: res.CallID,
		To:     to,
	}, nil
}

// Authenticate checks credential against the shared secret in constant time.
// An unset secret rejects everything.
func (s *Service) Authenticate(credential string) error {
	secret := s.settings.SharedSecret
	if secret == "" || subtle.ConstantTimeCompare([]byte(credential), []byte(secret)) != 1 {
		return apperrors.New(apperrors.ErrUnauthorized, "Unauthorized: Invalid Key")
	}
	return nil
}

func (s *Service) checkConfigured() error {
	var missing []string
	if s.settings.APIKey == "" {
		missing = append(missing, "remote API key")
	}
	if s.settings.AgentID == "" {
		missing = append(missing, "agent id")
	}
	if len(missing) > 0 {
		return apperrors.New(apperrors.ErrMisconfigured, "Server misconfigured: missing "+strings.Join(missing, ", "))
	}
	return nil
}

// classifyRemote makes sure every provider failure lands in the remote
// part of the taxonomy.
func classifyRemote(err error) error {
	if errors.Is(err, apperrors.ErrRemoteCall) || errors.Is(err, apperrors.ErrRemoteNetwork) {
		return err
	}
	return apperrors.WithCause(apperrors.ErrRemoteNetwork, "Retell network error: "+err.Error(), err)
}

func (s *Service) publish(ctx context.Context, input DispatchInput, result *domain.CallResult, err error, elapsed time.Duration) {
	if s.events == nil {
		return
	}

	evt := queue.CallEvent{
		EventID:    uuid.New(),
		Source:     string(input.Source),
		Outcome:    outcomeOf(err),
		AgentID:    s.settings.AgentID,
		DurationMs: elapsed.Milliseconds(),
		OccurredAt: s.now().UTC(),
	}
	if result != nil {
		evt.To = result.To.String()
		evt.CallID = result.CallID
	}
	if err != nil {
		evt.Error = err.Error()
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
	defer cancel()
	if perr := s.events.PublishCallEvent(pubCtx, evt); perr != nil {
		s.logger.Warn("call event publish failed", zap.Error(perr))
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, apperrors.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, apperrors.ErrMisconfigured):
		return "misconfigured"
	case errors.Is(err, apperrors.ErrValidation):
		return "invalid_request"
	case errors.Is(err, apperrors.ErrInvalidPhone):
		return "invalid_phone"
	case errors.Is(err, apperrors.ErrRemoteCall):
		return "remote_failure"
	default:
		return "network_error"
	}
}
