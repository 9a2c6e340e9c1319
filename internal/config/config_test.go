package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"endee-rag/internal/models"
)

func validConfig() *Config {
	cfg := Default()
	cfg.LLM.Key = "test-key"
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "http://localhost:8080", cfg.Endee.Host)
	assert.Equal(t, "http://localhost:8080/api/v1", cfg.Endee.BaseURL())
	assert.Equal(t, models.DefaultIndexName, cfg.Endee.IndexName)
	assert.Equal(t, 300, cfg.RAG.ChunkSize)
	assert.Equal(t, 50, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 5, cfg.RAG.TopK)
	assert.Equal(t, ProviderHash, cfg.EmbedLLM.Provider)
	assert.Equal(t, "vector_metadata.json", cfg.Metadata.File)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "groq", cfg.LLM.Provider)
}

func TestLoadConfig_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlData := `
endee:
  host: http://endee:9000
  index_name: docs
rag:
  chunk_size: 120
  chunk_overlap: 20
llm:
  key: from-file
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0o644))
	t.Setenv("CHUNK_OVERLAP", "10")
	t.Setenv("GROQ_API_KEY", "from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://endee:9000", cfg.Endee.Host)
	assert.Equal(t, "/api/v1", cfg.Endee.APIBase)
	assert.Equal(t, "docs", cfg.Endee.IndexName)
	assert.Equal(t, 120, cfg.RAG.ChunkSize)
	assert.Equal(t, 10, cfg.RAG.ChunkOverlap)
	assert.Equal(t, "from-env", cfg.LLM.Key)
}

func TestLoadConfig_BadInteger(t *testing.T) {
	t.Setenv("TOP_K", "five")
	_, err := LoadConfig("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrConfiguration))
	assert.Contains(t, err.Error(), "TOP_K")
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rag: [unclosed"), 0o644))
	_, err := LoadConfig(path)
	assert.True(t, errors.Is(err, models.ErrConfiguration))
}

func TestLoadConfig_Debug(t *testing.T) {
	t.Setenv("DEBUG", "True")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unsupported provider", mutate: func(c *Config) { c.LLM.Provider = "openai" }, wantErr: "groq"},
		{name: "missing key", mutate: func(c *Config) { c.LLM.Key = "" }, wantErr: "GROQ_API_KEY"},
		{name: "missing host", mutate: func(c *Config) { c.Endee.Host = "" }, wantErr: "ENDEE_HOST"},
		{name: "overlap equals size", mutate: func(c *Config) { c.RAG.ChunkOverlap = c.RAG.ChunkSize }, wantErr: "CHUNK_OVERLAP"},
		{name: "zero size", mutate: func(c *Config) { c.RAG.ChunkSize = 0 }, wantErr: "CHUNK_SIZE"},
		{name: "negative overlap", mutate: func(c *Config) { c.RAG.ChunkOverlap = -1 }, wantErr: "CHUNK_OVERLAP"},
		{name: "zero top k", mutate: func(c *Config) { c.RAG.TopK = 0 }, wantErr: "TOP_K"},
		{name: "unknown backend", mutate: func(c *Config) { c.Endee.Backend = "qdrant" }, wantErr: "VECTOR_BACKEND"},
		{name: "unknown embedder", mutate: func(c *Config) { c.EmbedLLM.Provider = "bert" }, wantErr: "EMBEDDING_PROVIDER"},
		{name: "sql without dsn", mutate: func(c *Config) { c.Metadata.Backend = MetadataSQL }, wantErr: "METADATA_DSN"},
		{name: "chromem backend", mutate: func(c *Config) { c.Endee.Backend = BackendChromem }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrConfiguration))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
