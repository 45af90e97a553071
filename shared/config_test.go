package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear anything the environment might carry.
	for _, k := range []string{
		"API_TOKEN", "API_TOKEN_STAGE2", "API_TOKEN_2",
		"API_TOKEN_STAGE3", "API_TOKEN_3", "INTAKE_ENV",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "youareplan", cfg.APIToken(Stage1))
	assert.Equal(t, "youareplan_stage2", cfg.APIToken(Stage2))
	assert.Equal(t, "youareplan_stage3", cfg.APIToken(Stage3))
	assert.Equal(t, "dev", cfg.Environment)
	assert.True(t, cfg.OperatorModeEnabled())
}

func TestLoad_Stage2TokenFallbackChain(t *testing.T) {
	t.Setenv("API_TOKEN_STAGE2", "")
	t.Setenv("API_TOKEN_2", "legacy_secret")
	assert.Equal(t, "legacy_secret", Load().APIToken(Stage2))

	// The canonical name wins over the legacy one.
	t.Setenv("API_TOKEN_STAGE2", "canonical_secret")
	assert.Equal(t, "canonical_secret", Load().APIToken(Stage2))
}

func TestConfig_SinkURL(t *testing.T) {
	t.Setenv("FIRST_GAS_URL", "https://sink.example/1")
	t.Setenv("SECOND_GAS_URL", "https://sink.example/2")
	t.Setenv("THIRD_GAS_URL", "https://sink.example/3")

	cfg := Load()
	assert.Equal(t, "https://sink.example/1", cfg.SinkURL(Stage1))
	assert.Equal(t, "https://sink.example/2", cfg.SinkURL(Stage2))
	assert.Equal(t, "https://sink.example/3", cfg.SinkURL(Stage3))
}

func TestOperatorModeDisabledInProd(t *testing.T) {
	t.Setenv("INTAKE_ENV", "prod")
	assert.False(t, Load().OperatorModeEnabled())
}
