package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.4, cfg.Search.LexicalWeight)
	assert.Equal(t, 0.6, cfg.Search.SemanticWeight)
	assert.Equal(t, "weighted", cfg.Search.FusionMethod)
	assert.Equal(t, 60, cfg.Search.RRFConstant)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Search, cfg.Search)
}

func TestLoad_YAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
search:
  fusion_method: rrf
  rrf_constant: 90
cache:
  enabled: false
ollama:
  model: altro-modello
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "rrf", cfg.Search.FusionMethod)
	assert.Equal(t, 90, cfg.Search.RRFConstant)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "altro-modello", cfg.Ollama.Model)
	// Untouched fields keep their defaults.
	assert.Equal(t, 1.2, cfg.Search.BM25K1)
}

func TestLoad_EnvOverridesWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  lexical_weight: 0.5\n"), 0o644))

	t.Setenv("RITROVA_LEXICAL_WEIGHT", "0.9")
	t.Setenv("RITROVA_FUSION_METHOD", "RRF")
	t.Setenv("RITROVA_OLLAMA_HOST", "http://embed:11434")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.9, cfg.Search.LexicalWeight)
	assert.Equal(t, "rrf", cfg.Search.FusionMethod)
	assert.Equal(t, "http://embed:11434", cfg.Ollama.Host)
}

func TestLoad_InvalidEnvValueIgnored(t *testing.T) {
	t.Setenv("RITROVA_LEXICAL_WEIGHT", "not-a-number")
	t.Setenv("RITROVA_RRF_CONSTANT", "-5")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0.4, cfg.Search.LexicalWeight)
	assert.Equal(t, 60, cfg.Search.RRFConstant)
}

func TestValidate_Failures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero weights", func(c *Config) { c.Search.LexicalWeight, c.Search.SemanticWeight = 0, 0 }},
		{"unknown fusion method", func(c *Config) { c.Search.FusionMethod = "media" }},
		{"bad rrf constant", func(c *Config) { c.Search.RRFConstant = 0 }},
		{"bad bm25 b", func(c *Config) { c.Search.BM25B = 1.5 }},
		{"default limit above max", func(c *Config) { c.Search.DefaultLimit = 500 }},
		{"zero cache size", func(c *Config) { c.Cache.Size = 0 }},
		{"empty db path", func(c *Config) { c.Store.DatabasePath = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
