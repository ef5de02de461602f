package retell

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/acme/lead-call-relay/internal/config"
	"github.com/acme/lead-call-relay/internal/domain"
	"github.com/acme/lead-call-relay/internal/telephony"
	apperrors "github.com/acme/lead-call-relay/pkg/errors"
)

const (
	createCallPath   = "/v2/create-phone-call"
	maxResponseBytes = 1 << 20
)

// Client places outbound calls through the Retell API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient builds a client from the call bridge configuration. Timeouts are
// driven by the caller's context.
func NewClient(cfg config.CallBridgeConfig, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type createCallRequest struct {
	FromNumber       string            `json:"from_number"`
	ToNumber         string            `json:"to_number"`
	AgentID          string            `json:"agent_id"`
	DynamicVariables map[string]string `json:"retell_llm_dynamic_variables"`
}

type createCallResponse struct {
	CallID *string `json:"call_id"`
}

// PlaceCall sends the command to the create-phone-call endpoint.
func (c *Client) PlaceCall(ctx context.Context, cmd domain.CallCommand) (telephony.Result, error) {
	body, err := json.Marshal(createCallRequest{
		FromNumber:       cmd.FromNumber,
		ToNumber:         cmd.ToNumber.String(),
		AgentID:          cmd.AgentID,
		DynamicVariables: cmd.DynamicVariables,
	})
	if err != nil {
		return telephony.Result{}, fmt.Errorf("retell: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+createCallPath, bytes.NewReader(body))
	if err != nil {
		return telephony.Result{}, apperrors.WithCause(apperrors.ErrRemoteNetwork, "Retell network error: "+err.Error(), err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return telephony.Result{}, apperrors.WithCause(apperrors.ErrRemoteNetwork, "Retell network error: "+err.Error(), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return telephony.Result{}, apperrors.WithCause(apperrors.ErrRemoteNetwork, "Retell network error: "+err.Error(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return telephony.Result{}, &RemoteError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var decoded createCallResponse
	if len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, &decoded); err != nil {
			// call was accepted; a body we cannot read only loses the id
			return telephony.Result{}, nil
		}
	}

	return telephony.Result{CallID: decoded.CallID}, nil
}

// RemoteError is returned when Retell answers with a non-2xx status.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return "Retell Failure: " + e.Body
}

func (e *RemoteError) Unwrap() error {
	return apperrors.ErrRemoteCall
}
