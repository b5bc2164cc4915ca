package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Corpus    CorpusConfig    `yaml:"corpus,omitempty"`
	Index     IndexConfig     `yaml:"index,omitempty"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Rerank    RerankConfig    `yaml:"rerank,omitempty"`
	LM        LMConfig        `yaml:"lm"`
	Search    SearchConfig    `yaml:"search,omitempty"`
	Verify    VerifyConfig    `yaml:"verify,omitempty"`
	Tools     ToolsConfig     `yaml:"tools,omitempty"`
	Server    ServerConfig    `yaml:"server,omitempty"`
}

// CorpusConfig holds document corpus configuration
type CorpusConfig struct {
	Dir     string   `yaml:"dir,omitempty"`     // Directory of source documents
	Include []string `yaml:"include,omitempty"` // Glob patterns to include
	Exclude []string `yaml:"exclude,omitempty"` // Glob patterns to exclude
}

// IndexConfig holds index storage configuration
type IndexConfig struct {
	// Directory holding the sqlite database and the lexical index.
	// If empty, uses ~/.docqa/data/index
	Dir string `yaml:"dir,omitempty"`
}

// EmbeddingConfig holds embedding service configuration
type EmbeddingConfig struct {
	BaseURL    string `yaml:"base_url,omitempty"` // OpenAI-compatible endpoint
	APIKey     string `yaml:"api_key,omitempty"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`           // Embedding dimensionality D
	BatchSize  int    `yaml:"batch_size,omitempty"` // Texts per embedding request
}

// RerankConfig holds the optional reranking embedding backend. When model is
// empty, reranking is disabled and the fused order is kept.
type RerankConfig struct {
	BaseURL  string `yaml:"base_url,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
	Model    string `yaml:"model,omitempty"`
	MaxChars int    `yaml:"max_chars,omitempty"` // Passage truncation for rerank embeddings
	Workers  int    `yaml:"workers,omitempty"`   // Concurrent passage embedding requests
}

// LMConfig holds the language-model service configuration
type LMConfig struct {
	BaseURL        string `yaml:"base_url,omitempty"`
	APIKey         string `yaml:"api_key,omitempty"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"` // Per-call timeout
	MaxRetries     int    `yaml:"max_retries,omitempty"`
}

// SearchConfig holds retrieval and fusion configuration
type SearchConfig struct {
	LexicalTopN   int     `yaml:"lexical_top_n,omitempty"`  // Lexical candidate pool
	VectorTopN    int     `yaml:"vector_top_n,omitempty"`   // Vector candidate pool
	LexicalWeight float64 `yaml:"lexical_weight,omitempty"` // Fusion weight for lexical scores
	VectorWeight  float64 `yaml:"vector_weight,omitempty"`  // Fusion weight for vector scores
	RerankTopK    int     `yaml:"rerank_top_k,omitempty"`   // Results kept after reranking

	// Multi-hop pools are wider per sub-question.
	MultiHopLexicalTopN int `yaml:"multi_hop_lexical_top_n,omitempty"`
	MultiHopVectorTopN  int `yaml:"multi_hop_vector_top_n,omitempty"`
	MultiHopTopK        int `yaml:"multi_hop_top_k,omitempty"`
	MaxSubQuestions     int `yaml:"max_sub_questions,omitempty"`
}

// VerifyConfig holds the claim-verification quality gate configuration
type VerifyConfig struct {
	PrecisionThreshold float64 `yaml:"precision_threshold,omitempty"` // Gate below this attribution precision
	EvidenceChunks     int     `yaml:"evidence_chunks,omitempty"`     // Chunks in the support-check window
	WideEvidenceChunks int     `yaml:"wide_evidence_chunks,omitempty"`
	ResynthesisChunks  int     `yaml:"resynthesis_chunks,omitempty"` // Chunks in the widened draft context
}

// ToolsConfig holds deterministic tool backend configuration
type ToolsConfig struct {
	TablesDir      string `yaml:"tables_dir,omitempty"`       // Directory of CSV tables
	TableIndexPath string `yaml:"table_index_path,omitempty"` // Precomputed table index JSON
	MaxResultChars int    `yaml:"max_result_chars,omitempty"` // Tool output cap
}

// ServerConfig holds the HTTP adapter configuration
type ServerConfig struct {
	Port      int    `yaml:"port,omitempty"`
	StaticDir string `yaml:"static_dir,omitempty"`
}

// Load loads configuration from the default config file
// Default location: ~/.docqa/config/docqa.yaml
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, ".docqa", "config", "docqa.yaml")
	return LoadFromFile(configPath)
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			homeDir, _ := os.UserHomeDir()
			defaultPath := filepath.Join(homeDir, ".docqa", "config", "docqa.yaml")
			return nil, &ConfigNotFoundError{
				RequestedPath: path,
				DefaultPath:   defaultPath,
			}
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigNotFoundError indicates the config file does not exist
type ConfigNotFoundError struct {
	RequestedPath string
	DefaultPath   string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("config file not found at: %s\n\nDefault location: %s\n\nYou can:\n"+
		"  1. Create the config file at the default location\n"+
		"  2. Specify a custom path with -config flag",
		e.RequestedPath, e.DefaultPath)
}

// IsConfigNotFound checks if error is config not found
func IsConfigNotFound(err error) bool {
	_, ok := err.(*ConfigNotFoundError)
	return ok
}

// expandPath expands ~ and $HOME to the user's home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "$HOME/") || path == "$HOME" {
		homeDir := os.Getenv("HOME")
		if homeDir == "" {
			var err error
			homeDir, err = os.UserHomeDir()
			if err != nil {
				return path
			}
		}
		if path == "$HOME" {
			return homeDir
		}
		return filepath.Join(homeDir, path[6:])
	}

	if strings.HasPrefix(path, "~/") || path == "~" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return homeDir
		}
		return filepath.Join(homeDir, path[2:])
	}

	return path
}

// envFallback returns the first non-empty environment value among names.
func envFallback(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// applyDefaults sets default values for missing configuration. API keys,
// endpoints, and model names fall back to the environment so deployments can
// keep secrets out of the config file.
func (c *Config) applyDefaults() error {
	if c.Index.Dir == "" {
		c.Index.Dir = "~/.docqa/data/index"
	}
	c.Index.Dir = expandPath(c.Index.Dir)
	c.Corpus.Dir = expandPath(c.Corpus.Dir)
	if len(c.Corpus.Include) == 0 {
		c.Corpus.Include = []string{"**/*.txt", "**/*.md"}
	}

	if c.Embedding.BaseURL == "" {
		c.Embedding.BaseURL = envFallback("EMBED_BASE_URL", "LM_BASE_URL")
	}
	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = envFallback("EMBED_API_KEY", "LM_API_KEY", "OPENAI_API_KEY")
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = os.Getenv("EMBED_MODEL")
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 64
	}

	if c.Rerank.Model == "" {
		c.Rerank.Model = os.Getenv("RERANK_MODEL")
	}
	if c.Rerank.BaseURL == "" {
		c.Rerank.BaseURL = c.Embedding.BaseURL
	}
	if c.Rerank.APIKey == "" {
		c.Rerank.APIKey = c.Embedding.APIKey
	}
	if c.Rerank.MaxChars <= 0 {
		c.Rerank.MaxChars = 400
	}
	if c.Rerank.Workers <= 0 {
		c.Rerank.Workers = 8
	}

	if c.LM.BaseURL == "" {
		c.LM.BaseURL = envFallback("OPENAI_BASE_URL", "LM_BASE_URL")
	}
	if c.LM.APIKey == "" {
		c.LM.APIKey = envFallback("LM_API_KEY", "OPENAI_API_KEY")
	}
	if c.LM.Model == "" {
		c.LM.Model = os.Getenv("LMMODEL")
	}
	if c.LM.TimeoutSeconds <= 0 {
		c.LM.TimeoutSeconds = 120
	}
	if c.LM.MaxRetries < 0 {
		c.LM.MaxRetries = 0
	}

	if c.Search.LexicalTopN <= 0 {
		c.Search.LexicalTopN = 100
	}
	if c.Search.VectorTopN <= 0 {
		c.Search.VectorTopN = 200
	}
	if c.Search.LexicalWeight == 0 && c.Search.VectorWeight == 0 {
		c.Search.LexicalWeight = 0.6
		c.Search.VectorWeight = 0.4
	}
	if c.Search.RerankTopK <= 0 {
		c.Search.RerankTopK = 50
	}
	if c.Search.MultiHopLexicalTopN <= 0 {
		c.Search.MultiHopLexicalTopN = 200
	}
	if c.Search.MultiHopVectorTopN <= 0 {
		c.Search.MultiHopVectorTopN = 400
	}
	if c.Search.MultiHopTopK <= 0 {
		c.Search.MultiHopTopK = 12
	}
	if c.Search.MaxSubQuestions <= 0 {
		c.Search.MaxSubQuestions = 4
	}

	if c.Verify.PrecisionThreshold == 0 {
		c.Verify.PrecisionThreshold = 0.7
	}
	if c.Verify.EvidenceChunks <= 0 {
		c.Verify.EvidenceChunks = 3
	}
	if c.Verify.WideEvidenceChunks <= 0 {
		c.Verify.WideEvidenceChunks = 4
	}
	if c.Verify.ResynthesisChunks <= 0 {
		c.Verify.ResynthesisChunks = 10
	}

	if c.Tools.TablesDir == "" {
		c.Tools.TablesDir = "data/tables"
	}
	c.Tools.TablesDir = expandPath(c.Tools.TablesDir)
	if c.Tools.TableIndexPath == "" {
		c.Tools.TableIndexPath = "data/tools/table_index.json"
	}
	c.Tools.TableIndexPath = expandPath(c.Tools.TableIndexPath)
	if c.Tools.MaxResultChars <= 0 {
		c.Tools.MaxResultChars = 8000
	}

	if c.Server.Port <= 0 {
		if p := os.Getenv("PORT"); p != "" {
			fmt.Sscanf(p, "%d", &c.Server.Port)
		}
	}
	if c.Server.Port <= 0 {
		c.Server.Port = 3000
	}
	if c.Server.StaticDir != "" {
		c.Server.StaticDir = expandPath(c.Server.StaticDir)
	}

	return nil
}

// Validate checks configuration invariants
func (c *Config) Validate() error {
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive, got: %d", c.Embedding.Dimensions)
	}
	if c.Embedding.BatchSize <= 0 || c.Embedding.BatchSize > 2048 {
		return fmt.Errorf("batch_size must be between 1 and 2048, got: %d", c.Embedding.BatchSize)
	}
	if c.Search.LexicalWeight < 0 || c.Search.VectorWeight < 0 {
		return fmt.Errorf("fusion weights must be non-negative, got: %.2f/%.2f",
			c.Search.LexicalWeight, c.Search.VectorWeight)
	}
	if c.Search.LexicalWeight+c.Search.VectorWeight == 0 {
		return fmt.Errorf("at least one fusion weight must be positive")
	}
	if c.Verify.PrecisionThreshold < 0 || c.Verify.PrecisionThreshold > 1 {
		return fmt.Errorf("precision_threshold must be in [0,1], got: %.2f", c.Verify.PrecisionThreshold)
	}
	return nil
}

// SaveToFile saves the configuration to a specific file
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

const defaultConfigTemplate = `# docqa configuration
#
# Copy and edit this file for your environment.
# Default location: $HOME/.docqa/config/docqa.yaml

corpus:
  dir: data/docs
  include:
    - "**/*.txt"
    - "**/*.md"

embedding:
  base_url: http://localhost:1234/v1
  api_key: your-api-key
  model: text-embedding-3-small
  dimensions: 1536
  batch_size: 64

# Optional reranking embedding backend; leave model empty to disable.
rerank:
  model: ""

lm:
  base_url: http://localhost:1234/v1
  api_key: not-needed
  model: your-chat-model
  timeout_seconds: 120

search:
  lexical_weight: 0.6
  vector_weight: 0.4

tools:
  tables_dir: data/tables
  table_index_path: data/tools/table_index.json
`

// WriteDefaultTemplate creates a default configuration file if it does not exist.
// It returns true if a file was created, false if it already existed.
func WriteDefaultTemplate(path string) (bool, error) {
	if path == "" {
		return false, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0644); err != nil {
		return false, fmt.Errorf("failed to write config template: %w", err)
	}

	return true, nil
}
