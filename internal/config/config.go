package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"endee-rag/internal/models"
)

const (
	BackendEndee   = "endee"
	BackendChromem = "chromem"

	MetadataFile = "file"
	MetadataSQL  = "sql"

	ProviderHash   = "hash"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

type Config struct {
	Endee    EndeeConfig    `yaml:"endee"`
	Chromem  ChromemConfig  `yaml:"chromem"`
	EmbedLLM EmbedConfig    `yaml:"embedding"`
	LLM      LLMConfig      `yaml:"llm"`
	RAG      RAGConfig      `yaml:"rag"`
	Metadata MetadataConfig `yaml:"metadata"`
	Debug    bool           `yaml:"debug"`
}

type EndeeConfig struct {
	Host      string `yaml:"host"`
	APIBase   string `yaml:"api_base"`
	IndexName string `yaml:"index_name"`
	Backend   string `yaml:"backend"`
}

// BaseURL joins host and API base, e.g. http://localhost:8080/api/v1.
func (c EndeeConfig) BaseURL() string {
	return strings.TrimRight(c.Host, "/") + c.APIBase
}

type ChromemConfig struct {
	// Path of the persistent database directory; empty keeps the database in memory.
	Path string `yaml:"path"`
}

type EmbedConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

type RAGConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	TopK         int `yaml:"top_k"`
}

type MetadataConfig struct {
	Backend string `yaml:"backend"`
	File    string `yaml:"file"`
	DSN     string `yaml:"dsn"`
}

// Default returns the settings used when neither a config file nor the environment override them.
func Default() *Config {
	return &Config{
		Endee: EndeeConfig{
			Host:      "http://localhost:8080",
			APIBase:   "/api/v1",
			IndexName: models.DefaultIndexName,
			Backend:   BackendEndee,
		},
		Chromem: ChromemConfig{Path: "./chromemdb"},
		EmbedLLM: EmbedConfig{
			Provider: ProviderHash,
			Model:    "sentence-transformers/all-MiniLM-L6-v2",
		},
		LLM: LLMConfig{
			Provider: "groq",
			BaseURL:  "https://api.groq.com/openai/v1",
			Model:    "llama-3.1-8b-instant",
		},
		RAG: RAGConfig{
			ChunkSize:    300,
			ChunkOverlap: 50,
			TopK:         5,
		},
		Metadata: MetadataConfig{
			Backend: MetadataFile,
			File:    "vector_metadata.json",
		},
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML file,
// a .env file in the working directory and finally the process environment.
// A missing file at path is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, models.ConfigError("parse %s: %v", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, models.ConfigError("load .env: %v", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Endee.Host, "ENDEE_HOST")
	setString(&cfg.Endee.APIBase, "ENDEE_API_BASE")
	setString(&cfg.Endee.IndexName, "INDEX_NAME")
	setString(&cfg.Endee.Backend, "VECTOR_BACKEND")
	if v, ok := os.LookupEnv("CHROMEM_PATH"); ok {
		cfg.Chromem.Path = v
	}

	setString(&cfg.EmbedLLM.Provider, "EMBEDDING_PROVIDER")
	setString(&cfg.EmbedLLM.Model, "EMBEDDING_MODEL")
	setString(&cfg.EmbedLLM.BaseURL, "EMBEDDING_BASE_URL")
	setString(&cfg.EmbedLLM.Key, "EMBEDDING_API_KEY")

	setString(&cfg.LLM.Provider, "LLM_PROVIDER")
	setString(&cfg.LLM.Key, "GROQ_API_KEY")
	setString(&cfg.LLM.BaseURL, "GROQ_API_URL")
	setString(&cfg.LLM.Model, "GROQ_DEFAULT_MODEL")

	setString(&cfg.Metadata.Backend, "METADATA_BACKEND")
	setString(&cfg.Metadata.File, "METADATA_FILE")
	setString(&cfg.Metadata.DSN, "METADATA_DSN")

	for key, dst := range map[string]*int{
		"CHUNK_SIZE":    &cfg.RAG.ChunkSize,
		"CHUNK_OVERLAP": &cfg.RAG.ChunkOverlap,
		"TOP_K":         &cfg.RAG.TopK,
	} {
		if err := setInt(dst, key); err != nil {
			return err
		}
	}

	if v := os.Getenv("DEBUG"); v != "" {
		cfg.Debug = strings.EqualFold(v, "true")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return models.ConfigError("%s must be an integer, got %q", key, v)
	}
	*dst = n
	return nil
}

// Validate reports the first setting that would make the pipeline unusable.
func (c *Config) Validate() error {
	if c.LLM.Provider != "groq" {
		return models.ConfigError("only 'groq' provider is supported. Set LLM_PROVIDER=groq or leave unset")
	}
	if c.LLM.Key == "" {
		return models.ConfigError("GROQ_API_KEY not set")
	}
	if c.Endee.Host == "" {
		return models.ConfigError("ENDEE_HOST not set")
	}
	if c.Endee.IndexName == "" {
		return models.ConfigError("INDEX_NAME must not be empty")
	}
	if err := ValidateChunking(c.RAG.ChunkSize, c.RAG.ChunkOverlap); err != nil {
		return err
	}
	if c.RAG.TopK <= 0 {
		return models.ConfigError("TOP_K must be positive, got %d", c.RAG.TopK)
	}
	switch c.Endee.Backend {
	case BackendEndee, BackendChromem:
	default:
		return models.ConfigError("unknown VECTOR_BACKEND %q", c.Endee.Backend)
	}
	switch c.EmbedLLM.Provider {
	case ProviderHash, ProviderOllama, ProviderOpenAI:
	default:
		return models.ConfigError("unknown EMBEDDING_PROVIDER %q", c.EmbedLLM.Provider)
	}
	switch c.Metadata.Backend {
	case MetadataFile:
		if c.Metadata.File == "" {
			return models.ConfigError("METADATA_FILE must not be empty")
		}
	case MetadataSQL:
		if c.Metadata.DSN == "" {
			return models.ConfigError("METADATA_DSN is required when METADATA_BACKEND=sql")
		}
	default:
		return models.ConfigError("unknown METADATA_BACKEND %q", c.Metadata.Backend)
	}
	return nil
}

// ValidateChunking checks that a sliding window of size words advancing by
// size-overlap words always makes progress.
func ValidateChunking(size, overlap int) error {
	if size <= 0 {
		return models.ConfigError("CHUNK_SIZE must be positive, got %d", size)
	}
	if overlap < 0 {
		return models.ConfigError("CHUNK_OVERLAP must not be negative, got %d", overlap)
	}
	if overlap >= size {
		return models.ConfigError("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", overlap, size)
	}
	return nil
}
