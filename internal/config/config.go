package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Providers understood by LLM_PROVIDER.
const (
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
)

const defaultModel = "x-ai/grok-4.1-fast"

var defaultModels = []string{
	"x-ai/grok-4.1-fast",
	"openai/gpt-4o-mini",
	"anthropic/claude-3-haiku",
	"google/gemini-3-flash-preview",
	"deepseek/deepseek-v3.2",
}

type Config struct {
	Port string `yaml:"port"`

	// Auth. Empty disables bearer auth on /api routes.
	APIKey string `yaml:"api_key"`

	// Hierarchy source (.xlsx or .csv)
	HierarchyPath string `yaml:"hierarchy_path"`

	// Oracle provider
	LLMProvider       string   `yaml:"llm_provider"`
	OpenRouterAPIKey  string   `yaml:"openrouter_api_key"`
	OpenRouterBaseURL string   `yaml:"openrouter_base_url"`
	AnthropicAPIKey   string   `yaml:"anthropic_api_key"`
	GeminiAPIKey      string   `yaml:"gemini_api_key"`
	DefaultModel      string   `yaml:"default_model"`
	AvailableModels   []string `yaml:"available_models"`
	SiteURL           string   `yaml:"site_url"`
	AppName           string   `yaml:"app_name"`

	// Oracle transport
	OracleTimeout    time.Duration `yaml:"oracle_timeout"`
	OracleMaxRetries int           `yaml:"oracle_max_retries"`
	OracleRPS        float64       `yaml:"oracle_rps"`
	OracleBurst      int           `yaml:"oracle_burst"`
	LLMStatsWindow   time.Duration `yaml:"llm_stats_window"`

	// History
	DBPath string `yaml:"db_path"`

	// Batch worker pool
	WorkerCount           int `yaml:"worker_count"`
	MaxQueueSize          int `yaml:"max_queue_size"`
	MaxConcurrentClassify int `yaml:"max_concurrent_classify"`

	// Upload limits
	MaxUploadBytes       int64 `yaml:"max_upload_bytes"`
	MaxDescriptionTokens int   `yaml:"max_description_tokens"`

	// Job state
	JobTTL time.Duration `yaml:"job_ttl"`

	// PDF
	PDFFallbackPdftotext bool `yaml:"pdf_fallback_pdftotext"`
}

// Load reads the optional YAML file named by CONFIG_PATH (default
// config.yaml), applies environment overrides, then fills defaults.
func Load() (Config, error) {
	var cfg Config
	cfg.PDFFallbackPdftotext = true
	cfg.OracleMaxRetries = -1 // unset; zero disables retries

	path := envOr("CONFIG_PATH", "config.yaml")
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("MATCLASS_API_KEY", cfg.APIKey)
	cfg.HierarchyPath = envOr("HIERARCHY_PATH", cfg.HierarchyPath)

	cfg.LLMProvider = strings.ToLower(envOr("LLM_PROVIDER", cfg.LLMProvider))
	cfg.OpenRouterAPIKey = envOr("OPENROUTER_API_KEY", cfg.OpenRouterAPIKey)
	cfg.OpenRouterBaseURL = envOr("OPENROUTER_BASE_URL", cfg.OpenRouterBaseURL)
	cfg.AnthropicAPIKey = envOr("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)
	cfg.GeminiAPIKey = envOr("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.DefaultModel = envOr("DEFAULT_MODEL", cfg.DefaultModel)
	cfg.AvailableModels = envList("AVAILABLE_MODELS", cfg.AvailableModels)
	cfg.SiteURL = envOr("SITE_URL", cfg.SiteURL)
	cfg.AppName = envOr("APP_NAME", cfg.AppName)

	cfg.OracleTimeout = envDuration("ORACLE_TIMEOUT", cfg.OracleTimeout)
	cfg.OracleMaxRetries = envInt("ORACLE_MAX_RETRIES", cfg.OracleMaxRetries)
	cfg.OracleRPS = envFloat("ORACLE_RPS", cfg.OracleRPS)
	cfg.OracleBurst = envInt("ORACLE_BURST", cfg.OracleBurst)
	cfg.LLMStatsWindow = envDuration("LLM_STATS_WINDOW", cfg.LLMStatsWindow)

	cfg.DBPath = envOr("DB_PATH", cfg.DBPath)

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxConcurrentClassify = envInt("MAX_CONCURRENT_CLASSIFY", cfg.MaxConcurrentClassify)

	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.MaxDescriptionTokens = envInt("MAX_DESCRIPTION_TOKENS", cfg.MaxDescriptionTokens)

	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)

	cfg.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext)

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = "8000"
	}
	if c.HierarchyPath == "" {
		c.HierarchyPath = "data/grpms.xlsx"
	}
	if c.LLMProvider == "" {
		c.LLMProvider = ProviderOpenRouter
	}
	if c.OpenRouterBaseURL == "" {
		c.OpenRouterBaseURL = "https://openrouter.ai/api/v1"
	}
	if c.DefaultModel == "" {
		c.DefaultModel = defaultModel
	}
	if len(c.AvailableModels) == 0 {
		c.AvailableModels = append([]string(nil), defaultModels...)
	}
	if !c.ModelAllowed(c.DefaultModel) {
		c.AvailableModels = append([]string{c.DefaultModel}, c.AvailableModels...)
	}
	if c.SiteURL == "" {
		c.SiteURL = "http://localhost"
	}
	if c.AppName == "" {
		c.AppName = "ClassificadorHierarquico"
	}
	if c.OracleTimeout <= 0 {
		c.OracleTimeout = 60 * time.Second
	}
	if c.OracleMaxRetries < 0 {
		c.OracleMaxRetries = 3
	}
	if c.OracleRPS <= 0 {
		c.OracleRPS = 5
	}
	if c.OracleBurst <= 0 {
		c.OracleBurst = 10
	}
	if c.LLMStatsWindow <= 0 {
		c.LLMStatsWindow = 1 * time.Hour
	}
	if c.DBPath == "" {
		c.DBPath = "./matclass.db"
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = 2
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = 50
	}
	if c.MaxConcurrentClassify <= 0 {
		c.MaxConcurrentClassify = 4
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 20971520 // 20MB
	}
	if c.MaxDescriptionTokens <= 0 {
		c.MaxDescriptionTokens = 1500
	}
	if c.JobTTL <= 0 {
		c.JobTTL = 1 * time.Hour
	}
}

func (c Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenRouter:
		if c.OpenRouterAPIKey == "" {
			return fmt.Errorf("OPENROUTER_API_KEY is required")
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required")
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.HierarchyPath == "" {
		return fmt.Errorf("HIERARCHY_PATH is required")
	}
	return nil
}

// ModelAllowed reports whether model is one of the configured models.
func (c Config) ModelAllowed(model string) bool {
	for _, m := range c.AvailableModels {
		if m == model {
			return true
		}
	}
	return false
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
