package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acme/lead-call-relay/internal/app"
	"github.com/acme/lead-call-relay/internal/config"
)

const testSecret = "s3cret"

type remoteStub struct {
	server *httptest.Server
	hits   int32
	bodies chan map[string]any
}

func newRemoteStub(t *testing.T, status int, body string) *remoteStub {
	t.Helper()
	stub := &remoteStub{bodies: make(chan map[string]any, 8)}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&stub.hits, 1)
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		stub.bodies <- payload
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(stub.server.Close)
	return stub
}

func newTestApp(t *testing.T, mutate func(*config.Config)) *fiber.App {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	cfg.Auth.SharedSecret = testSecret
	cfg.CallBridge.APIKey = "key_123"
	cfg.CallBridge.AgentID = "agent_1"
	if mutate != nil {
		mutate(cfg)
	}

	container := app.New(cfg, nil)
	hs := NewHandlerSet(container)
	fa := fiber.New(fiber.Config{ErrorHandler: hs.ErrorHandler})
	hs.Register(fa)
	return fa
}

func withRemote(stub *remoteStub) func(*config.Config) {
	return func(cfg *config.Config) {
		cfg.CallBridge.BaseURL = stub.server.URL
	}
}

func doJSON(t *testing.T, fa *fiber.App, method, target, key, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	resp, err := fa.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	fa := newTestApp(t, nil)
	for _, path := range []string{"/", "/health"} {
		status, body := doJSON(t, fa, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "active", body["status"])
		assert.Equal(t, "KRYONEX_SNIPER_V1", body["system"])
	}
}

func TestTriggerCallSuccess(t *testing.T) {
	stub := newRemoteStub(t, http.StatusCreated, `{"call_id":"abc123"}`)
	fa := newTestApp(t, withRemote(stub))

	status, body := doJSON(t, fa, http.MethodPost, "/webhook/trigger-call", testSecret,
		`{"name":"Jane","phone":"(419) 924-3016","service_interest":"Roofing"}`)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "abc123", body["call_id"])
	assert.Equal(t, "+14199243016", body["to"])

	sent := <-stub.bodies
	assert.Equal(t, "+14199243016", sent["to_number"])
	assert.Equal(t, map[string]any{"customer_name": "Jane", "service": "Roofing"}, sent["retell_llm_dynamic_variables"])
}

func TestTriggerCallDefaultsService(t *testing.T) {
	stub := newRemoteStub(t, http.StatusOK, `{"call_id":"abc"}`)
	fa := newTestApp(t, withRemote(stub))

	status, _ := doJSON(t, fa, http.MethodPost, "/webhook/trigger-call", testSecret,
		`{"name":"Jane","phone":"4199243016"}`)
	require.Equal(t, http.StatusOK, status)

	sent := <-stub.bodies
	vars := sent["retell_llm_dynamic_variables"].(map[string]any)
	assert.Equal(t, "General Inquiry", vars["service"])
}

func TestTriggerCallUnauthorized(t *testing.T) {
	stub := newRemoteStub(t, http.StatusOK, `{}`)
	fa := newTestApp(t, withRemote(stub))

	cases := []struct {
		name string
		key  string
		body string
	}{
		{"wrong key", "nope", `{"name":"Jane","phone":"4199243016"}`},
		{"missing key", "", `{"name":"Jane","phone":"4199243016"}`},
		{"malformed body", "nope", `{"name":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := doJSON(t, fa, http.MethodPost, "/webhook/trigger-call", tc.key, tc.body)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, "Unauthorized: Invalid Key", body["detail"])
		})
	}
	assert.Zero(t, atomic.LoadInt32(&stub.hits))
}

func TestTriggerCallBadRequests(t *testing.T) {
	stub := newRemoteStub(t, http.StatusOK, `{}`)
	fa := newTestApp(t, withRemote(stub))

	cases := []struct {
		name string
		body string
	}{
		{"malformed body", `{"name":`},
		{"missing name", `{"phone":"4199243016"}`},
		{"short phone", `{"name":"Jane","phone":"9243016"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := doJSON(t, fa, http.MethodPost, "/webhook/trigger-call", testSecret, tc.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "error", body["status"])
		})
	}
	assert.Zero(t, atomic.LoadInt32(&stub.hits))
}

func TestTriggerCallMisconfigured(t *testing.T) {
	stub := newRemoteStub(t, http.StatusOK, `{}`)
	fa := newTestApp(t, func(cfg *config.Config) {
		cfg.CallBridge.BaseURL = stub.server.URL
		cfg.CallBridge.AgentID = ""
	})

	status, body := doJSON(t, fa, http.MethodPost, "/webhook/trigger-call", testSecret,
		`{"name":"Jane","phone":"4199243016"}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body["detail"], "misconfigured")
	assert.Zero(t, atomic.LoadInt32(&stub.hits))
}

func TestTriggerCallRemoteFailure(t *testing.T) {
	stub := newRemoteStub(t, http.StatusBadRequest, `{"error":"bad agent"}`)
	fa := newTestApp(t, withRemote(stub))

	status, body := doJSON(t, fa, http.MethodPost, "/webhook/trigger-call", testSecret,
		`{"name":"Jane","phone":"4199243016"}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, `Retell Failure: {"error":"bad agent"}`, body["detail"])
}

func TestDebugCall(t *testing.T) {
	stub := newRemoteStub(t, http.StatusOK, `{"call_id":"dbg1"}`)
	fa := newTestApp(t, withRemote(stub))

	status, body := doJSON(t, fa, http.MethodPost, "/debug/test-call", testSecret, `{"phone":"+1 (419) 924-3016"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "dbg1", body["call_id"])
	assert.Equal(t, "+14199243016", body["to"])

	sent := <-stub.bodies
	assert.Equal(t, map[string]any{"customer_name": "TEST_USER", "service": "DEBUG_TEST"}, sent["retell_llm_dynamic_variables"])

	status, _ = doJSON(t, fa, http.MethodPost, "/debug/test-call", "wrong", `{"phone":"4199243016"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestFunnelCall(t *testing.T) {
	stub := newRemoteStub(t, http.StatusOK, `{"call_id":"fn1"}`)
	fa := newTestApp(t, withRemote(stub))

	q := url.Values{}
	q.Set("token", testSecret)
	q.Set("phone", "419.924.3016")
	q.Set("name", "Jane")
	q.Set("service", "Roofing")

	status, body := doJSON(t, fa, http.MethodGet, "/funnel/call?"+q.Encode(), "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "fn1", body["call_id"])
	assert.Equal(t, "+14199243016", body["to"])

	sent := <-stub.bodies
	assert.Equal(t, map[string]any{"customer_name": "Jane", "service": "Roofing"}, sent["retell_llm_dynamic_variables"])

	status, _ = doJSON(t, fa, http.MethodGet, "/funnel/call?phone=4199243016", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestFunnelCallDefaults(t *testing.T) {
	stub := newRemoteStub(t, http.StatusOK, `{"call_id":null}`)
	fa := newTestApp(t, withRemote(stub))

	status, body := doJSON(t, fa, http.MethodGet, "/funnel/call?token="+testSecret+"&phone=4199243016", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Nil(t, body["call_id"])

	sent := <-stub.bodies
	assert.Equal(t, map[string]any{"customer_name": "there", "service": "General Inquiry"}, sent["retell_llm_dynamic_variables"])
}

func TestMetricsEndpoint(t *testing.T) {
	fa := newTestApp(t, func(cfg *config.Config) { cfg.CallBridge.ProviderName = config.ProviderMock })

	status, _ := doJSON(t, fa, http.MethodPost, "/webhook/trigger-call", testSecret, `{"name":"Jane","phone":"4199243016"}`)
	require.Equal(t, http.StatusOK, status)

	resp, err := fa.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `relay_calls_dispatch_total{outcome="success",source="webhook"} 1`)
}
