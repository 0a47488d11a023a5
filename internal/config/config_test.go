package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const minimalYAML = `
queue:
  redis_url: redis://localhost:6379/0
ai:
  api_key: test-key
delivery:
  account_sid: AC123
  auth_token: token123
  from_number: "+15550001111"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "sms_messages", cfg.Queue.Name)
	require.Equal(t, 3*time.Second, cfg.Batcher.Window)
	require.Equal(t, 50, cfg.Conversation.MaxHistory)
	require.Equal(t, 1, cfg.Worker.Count)
	require.Equal(t, "Welcome! To get started, I'd like to know your name. What should I call you?", cfg.Messages.Welcome)
	require.Equal(t, "redis://localhost:6379/0", cfg.Queue.RedisURL)

	// The built-in tasks are scheduled out of the box.
	require.True(t, cfg.Scheduler.Tasks["daily_recommendations"].Enabled)
	require.True(t, cfg.Scheduler.Tasks["embed_opportunities"].Enabled)
	require.True(t, cfg.Scheduler.Tasks["sql_maintenance"].Enabled)
	require.NotEmpty(t, cfg.Scheduler.Tasks["embed_opportunities"].Schedule)
}

func TestLoadOverridesFromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML+`
log:
  level: debug
batcher:
  window: 10s
worker:
  count: 4
`))
	require.NoError(t, err)

	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, 10*time.Second, cfg.Batcher.Window)
	require.Equal(t, 4, cfg.Worker.Count)
}

func TestLoadValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing redis url",
			yaml: `
ai:
  api_key: test-key
delivery:
  account_sid: AC123
  auth_token: token123
  from_number: "+15550001111"
`,
		},
		{
			name: "bad log level",
			yaml: minimalYAML + `
log:
  level: loud
`,
		},
		{
			name: "batcher window too small",
			yaml: minimalYAML + `
batcher:
  window: 1ms
`,
		},
		{
			name: "worker count out of range",
			yaml: minimalYAML + `
worker:
  count: 1000
`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			require.Error(t, err)
		})
	}
}
