package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.HTTP.Port)
	assert.Equal(t, DefaultFromNumber, cfg.CallBridge.FromNumber)
	assert.Equal(t, ProviderRetell, cfg.CallBridge.ProviderName)
	assert.Equal(t, 20*time.Second, cfg.CallBridge.RequestTimeout)
	assert.Equal(t, "General Inquiry", cfg.Lead.DefaultService)
	assert.Equal(t, "X-API-Key", cfg.Auth.HeaderName)
	assert.Empty(t, cfg.Auth.SharedSecret)
	assert.False(t, cfg.Kafka.Enabled())
}

func TestLoadPlatformEnvironment(t *testing.T) {
	t.Setenv("RETELL_API_KEY", "key_live")
	t.Setenv("RETELL_AGENT_ID", "agent_42")
	t.Setenv("KRYONEX_SECRET", "s3cret")
	t.Setenv("PORT", "9090")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "key_live", cfg.CallBridge.APIKey)
	assert.Equal(t, "agent_42", cfg.CallBridge.AgentID)
	assert.Equal(t, "s3cret", cfg.Auth.SharedSecret)
	assert.Equal(t, 9090, cfg.HTTP.Port)
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
app:
  name: relay-test
call_bridge:
  agent_id: agent_from_file
  from_number: "+15550001111"
  request_timeout: 30s
kafka:
  brokers: ["localhost:9092"]
  call_event_topic: call-events
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("RELAY_CALL_BRIDGE_AGENT_ID", "agent_from_env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "relay-test", cfg.App.Name)
	assert.Equal(t, "agent_from_env", cfg.CallBridge.AgentID)
	assert.Equal(t, "+15550001111", cfg.CallBridge.FromNumber)
	assert.Equal(t, 30*time.Second, cfg.CallBridge.RequestTimeout)
	assert.True(t, cfg.Kafka.Enabled())
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app: [unterminated"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
