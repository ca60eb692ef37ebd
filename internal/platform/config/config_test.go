package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv(nil)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "clean-ghana-app", cfg.Backend.AppID)
	assert.Equal(t, "clean-ghana-app", cfg.Backend.ProjectID)
	assert.Equal(t, "artifacts/clean-ghana-app/public/data/reports", cfg.CollectionKey())
}

func TestFromEnv_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("CLEANGHANA_ADDR", ":9090")
	t.Setenv("CLEANGHANA_APP_ID", "pilot-accra")

	cfg := FromEnv(nil)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "pilot-accra", cfg.Backend.AppID)
	// Untouched fields keep their defaults.
	assert.Equal(t, "clean-ghana-app", cfg.Backend.ProjectID)
}

func TestFromEnv_InjectedJSONWins(t *testing.T) {
	t.Setenv("CLEANGHANA_APP_ID", "from-env")
	t.Setenv("CLEANGHANA_CONFIG_JSON", `{"appId":"injected","projectId":"injected-project"}`)

	cfg := FromEnv(nil)

	assert.Equal(t, "injected", cfg.Backend.AppID)
	assert.Equal(t, "injected-project", cfg.Backend.ProjectID)
	// Fields absent from the injected blob fall through to the env tier.
	assert.Equal(t, "clean-ghana-app.example.com", cfg.Backend.AuthDomain)
}

func TestFromEnv_InvalidJSONFallsBack(t *testing.T) {
	t.Setenv("CLEANGHANA_CONFIG_JSON", `{not json`)
	t.Setenv("CLEANGHANA_APP_ID", "env-app")

	cfg := FromEnv(nil)

	require.Equal(t, "env-app", cfg.Backend.AppID)
}
