package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("STAGE_TIMEOUT", "")
	t.Setenv("MAPPING_MODE", "")
	t.Setenv("NARRATIVE_MODE", "")
	t.Setenv("S3_ENDPOINT", "")
	t.Setenv("S3_USE_SSL", "")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, 60*time.Second, cfg.StageTimeout)
	require.Equal(t, "rules", cfg.MappingMode)
	require.Equal(t, "ai", cfg.NarrativeMode)
	require.Equal(t, "gemini-2.5-pro", cfg.GeminiVisionModel)
	require.Equal(t, "gemini-2.5-flash", cfg.GeminiTextModel)
	require.Empty(t, cfg.GeminiAPIKey)
	require.False(t, cfg.S3Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STAGE_TIMEOUT", "15s")
	t.Setenv("MAPPING_MODE", "AI")
	t.Setenv("NARRATIVE_MODE", "template")
	t.Setenv("S3_ENDPOINT", "localhost:9000")
	t.Setenv("S3_USE_SSL", "true")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 15*time.Second, cfg.StageTimeout)
	require.Equal(t, "ai", cfg.MappingMode)
	require.Equal(t, "template", cfg.NarrativeMode)
	require.True(t, cfg.S3Enabled())
	require.True(t, cfg.S3UseSSL)
}

func TestLoad_Invalid(t *testing.T) {
	for key, value := range map[string]string{
		"STAGE_TIMEOUT":  "soon",
		"S3_USE_SSL":     "maybe",
		"MAPPING_MODE":   "magic",
		"NARRATIVE_MODE": "poem",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.ErrorContains(t, err, key)
		})
	}
}
