package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Embedding backend names accepted in the embeddings config document.
const (
	BackendLocal  = "local"
	BackendOpenAI = "openai_compatible"
	BackendGemini = "gemini"
)

// EmbeddingsConfigEnvVar overrides where the embeddings config is read from.
const EmbeddingsConfigEnvVar = "SANITY_LOG_PARSER_EMBEDDINGS_CONFIG"

// embeddingsConfigFilename is picked up from the working directory when no
// explicit path or env override is given.
const embeddingsConfigFilename = "config.json"

// DefaultEmbedBatchSize caps how many texts go into a single embedding call.
const DefaultEmbedBatchSize = 512

// OpenAICompatibleConfig points at an OpenAI-compatible /embeddings endpoint.
type OpenAICompatibleConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

// GeminiConfig selects the Gemini embeddings backend.
type GeminiConfig struct {
	Model  string `json:"model"`
	APIKey string `json:"api_key"`
}

// LocalConfig points at the on-disk ONNX model files for local inference.
type LocalConfig struct {
	ModelPath string `json:"model_path"`
	VocabPath string `json:"vocab_path"`
}

// EmbeddingsConfig selects and configures the embedding backend. Unlike the
// rule clustering config, this document is parsed tolerantly: anything
// invalid produces a warning and a fallback to the local backend, never a
// hard failure.
type EmbeddingsConfig struct {
	Backend   string
	OpenAI    OpenAICompatibleConfig
	Gemini    GeminiConfig
	Local     LocalConfig
	BatchSize int
	Warnings  []string
}

type rawEmbeddingsDoc struct {
	Backend   string                 `json:"embeddings_backend"`
	OpenAI    OpenAICompatibleConfig `json:"openai_compatible"`
	Gemini    GeminiConfig           `json:"gemini"`
	Local     LocalConfig            `json:"local"`
	BatchSize int                    `json:"batch_size"`
}

// ResolveEmbeddingsConfigPath picks the embeddings config location:
// explicit argument, then the env override, then ./config.json if present.
// Returns "" when no config exists anywhere, which means built-in defaults.
func ResolveEmbeddingsConfigPath(arg string) string {
	if trimmed := strings.TrimSpace(arg); trimmed != "" {
		return trimmed
	}
	if env := strings.TrimSpace(os.Getenv(EmbeddingsConfigEnvVar)); env != "" {
		return env
	}
	candidate := filepath.Join(".", embeddingsConfigFilename)
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate
	}
	return ""
}

// LoadEmbeddingsConfig reads the embeddings config from path. An empty path
// or any read/parse failure yields defaults with a warning recorded.
func LoadEmbeddingsConfig(path string) EmbeddingsConfig {
	cfg := defaultEmbeddingsConfig()
	if path == "" {
		return cfg
	}

	data, err := os.ReadFile(path)
	if err != nil {
		cfg.warnf("failed to read %q: %v; using local embeddings defaults", path, err)
		return cfg
	}

	var raw rawEmbeddingsDoc
	if err := json.Unmarshal(data, &raw); err != nil {
		cfg.warnf("failed to parse %q: %v; using local embeddings defaults", path, err)
		return cfg
	}

	cfg.apply(raw)
	return cfg
}

func defaultEmbeddingsConfig() EmbeddingsConfig {
	return EmbeddingsConfig{
		Backend: BackendLocal,
		Local: LocalConfig{
			ModelPath: getenv("SANITY_LOG_PARSER_MODEL_PATH", "models/model_quantized.onnx"),
			VocabPath: getenv("SANITY_LOG_PARSER_VOCAB_PATH", "models/vocab.txt"),
		},
		Gemini:    GeminiConfig{Model: "gemini-embedding-001"},
		OpenAI:    OpenAICompatibleConfig{Model: "text-embedding-3-small"},
		BatchSize: DefaultEmbedBatchSize,
	}
}

func (c *EmbeddingsConfig) apply(raw rawEmbeddingsDoc) {
	backend := strings.TrimSpace(raw.Backend)
	switch backend {
	case "", BackendLocal:
		backend = BackendLocal
	case BackendOpenAI, BackendGemini:
	default:
		c.warnf("invalid embeddings_backend %q; falling back to %q", backend, BackendLocal)
		backend = BackendLocal
	}

	if raw.OpenAI.BaseURL != "" {
		c.OpenAI.BaseURL = strings.TrimRight(raw.OpenAI.BaseURL, "/")
	}
	if raw.OpenAI.Model != "" {
		c.OpenAI.Model = raw.OpenAI.Model
	}
	c.OpenAI.APIKey = firstNonEmpty(raw.OpenAI.APIKey, os.Getenv("OPENAI_API_KEY"))

	if raw.Gemini.Model != "" {
		c.Gemini.Model = raw.Gemini.Model
	}
	c.Gemini.APIKey = firstNonEmpty(raw.Gemini.APIKey, os.Getenv("GEMINI_API_KEY"))

	if raw.Local.ModelPath != "" {
		c.Local.ModelPath = raw.Local.ModelPath
	}
	if raw.Local.VocabPath != "" {
		c.Local.VocabPath = raw.Local.VocabPath
	}

	if raw.BatchSize < 0 {
		c.warnf("batch_size must be positive, got %d; using %d", raw.BatchSize, DefaultEmbedBatchSize)
	} else if raw.BatchSize > 0 {
		c.BatchSize = raw.BatchSize
	}

	if backend == BackendOpenAI && c.OpenAI.BaseURL == "" {
		c.warnf("embeddings_backend is %q but openai_compatible.base_url is missing; falling back to %q",
			BackendOpenAI, BackendLocal)
		backend = BackendLocal
	}
	c.Backend = backend
}

func (c *EmbeddingsConfig) warnf(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
