package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the searchgw configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Search    SearchConfig    `yaml:"search"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// SearchConfig holds the managed search service settings.
type SearchConfig struct {
	Endpoint              string `yaml:"endpoint"`
	APIKey                string `yaml:"api_key"`
	APIVersion            string `yaml:"api_version"`
	Index                 string `yaml:"index"`     // HTML content index
	PDFIndex              string `yaml:"pdf_index"` // PDF evidence index
	SemanticConfiguration string `yaml:"semantic_configuration"`
	VectorField           string `yaml:"vector_field"`
	MaxResults            int    `yaml:"max_results"`            // cap for text queries
	EmptyQueryMaxResults  int    `yaml:"empty_query_max_results"` // cap for match-all queries
	TimeoutSec            int    `yaml:"timeout_sec"`
}

// StorageConfig holds blob storage settings.
type StorageConfig struct {
	ConnectionString string           `yaml:"connection_string"`
	Containers       ContainersConfig `yaml:"containers"`
	BlobURLPrefix    string           `yaml:"blob_url_prefix"`   // rewritten to PublicURLPrefix in results
	PublicURLPrefix  string           `yaml:"public_url_prefix"`
}

// ContainersConfig names the blob containers each document class lives in.
type ContainersConfig struct {
	HTML         string `yaml:"html"`
	HTMLArchive  string `yaml:"html_archive"`
	JSON         string `yaml:"json"`
	JSONArchive  string `yaml:"json_archive"`
	Files        string `yaml:"files"`
	FilesArchive string `yaml:"files_archive"`
	FilesMaster  string `yaml:"files_master"`
}

// EmbeddingConfig holds the embedding provider settings for vector search.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Search.APIVersion == "" {
		c.Search.APIVersion = "2023-11-01"
	}
	if c.Search.PDFIndex == "" {
		c.Search.PDFIndex = "pdf-search-index"
	}
	if c.Search.VectorField == "" {
		c.Search.VectorField = "content_vector"
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = 150
	}
	if c.Search.EmptyQueryMaxResults <= 0 {
		c.Search.EmptyQueryMaxResults = 1000
	}
	if c.Search.TimeoutSec <= 0 {
		c.Search.TimeoutSec = 30
	}
	c.Storage.Containers.applyDefaults()
}

func (cc *ContainersConfig) applyDefaults() {
	if cc.HTML == "" {
		cc.HTML = "htmlcontent"
	}
	if cc.HTMLArchive == "" {
		cc.HTMLArchive = "htmlcontent-archive"
	}
	if cc.JSON == "" {
		cc.JSON = "html-jsons"
	}
	if cc.JSONArchive == "" {
		cc.JSONArchive = "jsonfiles-archive"
	}
	if cc.Files == "" {
		cc.Files = "evidencefiles"
	}
	if cc.FilesArchive == "" {
		cc.FilesArchive = "evidencefiles-archive"
	}
	if cc.FilesMaster == "" {
		cc.FilesMaster = "evidencefiles-master"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Search.Endpoint == "" {
		return fmt.Errorf("search.endpoint is required (SEARCH_SERVICE_ENDPOINT)")
	}
	if !strings.HasPrefix(c.Search.Endpoint, "http://") && !strings.HasPrefix(c.Search.Endpoint, "https://") {
		return fmt.Errorf("search.endpoint must be an http(s) URL, got %q", c.Search.Endpoint)
	}
	if c.Search.APIKey == "" {
		return fmt.Errorf("search.api_key is required (SEARCH_ADMIN_KEY)")
	}
	if c.Search.Index == "" {
		return fmt.Errorf("search.index is required (SEARCH_INDEX_NAME)")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
