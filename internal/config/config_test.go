package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	t.Setenv("CONFIG_PATH", path)
	for _, k := range []string{
		"PORT", "LLM_PROVIDER", "OPENROUTER_API_KEY", "ANTHROPIC_API_KEY",
		"GEMINI_API_KEY", "HIERARCHY_PATH", "DEFAULT_MODEL", "AVAILABLE_MODELS",
		"ORACLE_TIMEOUT", "ORACLE_MAX_RETRIES", "ORACLE_RPS", "WORKER_COUNT", "PDF_FALLBACK_PDFTOTEXT",
	} {
		t.Setenv(k, "")
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected port 8000, got %q", cfg.Port)
	}
	if cfg.LLMProvider != ProviderOpenRouter {
		t.Errorf("expected provider %q, got %q", ProviderOpenRouter, cfg.LLMProvider)
	}
	if cfg.DefaultModel != "x-ai/grok-4.1-fast" {
		t.Errorf("unexpected default model %q", cfg.DefaultModel)
	}
	if len(cfg.AvailableModels) != 5 {
		t.Errorf("expected 5 default models, got %d", len(cfg.AvailableModels))
	}
	if cfg.OracleTimeout != 60*time.Second {
		t.Errorf("expected oracle timeout 60s, got %s", cfg.OracleTimeout)
	}
	if !cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback enabled by default")
	}
	if cfg.OracleMaxRetries != 3 {
		t.Errorf("expected 3 oracle retries, got %d", cfg.OracleMaxRetries)
	}
}

func TestLoad_ZeroRetriesDisablesRetry(t *testing.T) {
	isolate(t)
	t.Setenv("ORACLE_MAX_RETRIES", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OracleMaxRetries != 0 {
		t.Errorf("expected retries disabled, got %d", cfg.OracleMaxRetries)
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := isolate(t)
	yamlDoc := `
port: "9000"
llm_provider: anthropic
anthropic_api_key: from-file
default_model: claude-haiku
available_models: [claude-haiku, claude-sonnet]
oracle_timeout: 5s
worker_count: 7
`
	if err := os.WriteFile(path, []byte(yamlDoc), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "9100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9100" {
		t.Errorf("env should override file: got port %q", cfg.Port)
	}
	if cfg.LLMProvider != ProviderAnthropic || cfg.AnthropicAPIKey != "from-file" {
		t.Errorf("unexpected provider config: %q %q", cfg.LLMProvider, cfg.AnthropicAPIKey)
	}
	if cfg.OracleTimeout != 5*time.Second {
		t.Errorf("expected 5s timeout from yaml, got %s", cfg.OracleTimeout)
	}
	if cfg.WorkerCount != 7 {
		t.Errorf("expected 7 workers, got %d", cfg.WorkerCount)
	}
	if !cfg.ModelAllowed("claude-sonnet") || cfg.ModelAllowed("x-ai/grok-4.1-fast") {
		t.Errorf("unexpected model list %v", cfg.AvailableModels)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := isolate(t)
	if err := os.WriteFile(path, []byte("port: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_DefaultModelAddedToList(t *testing.T) {
	isolate(t)
	t.Setenv("DEFAULT_MODEL", "my/custom-model")
	t.Setenv("AVAILABLE_MODELS", "a/one, b/two")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"my/custom-model", "a/one", "b/two"}
	if len(cfg.AvailableModels) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfg.AvailableModels)
	}
	for i, m := range want {
		if cfg.AvailableModels[i] != m {
			t.Errorf("model[%d]: expected %q, got %q", i, m, cfg.AvailableModels[i])
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"openrouter ok", Config{LLMProvider: ProviderOpenRouter, OpenRouterAPIKey: "k", HierarchyPath: "h.xlsx"}, false},
		{"openrouter missing key", Config{LLMProvider: ProviderOpenRouter, HierarchyPath: "h.xlsx"}, true},
		{"gemini missing key", Config{LLMProvider: ProviderGemini, HierarchyPath: "h.xlsx"}, true},
		{"unknown provider", Config{LLMProvider: "bogus", HierarchyPath: "h.xlsx"}, true},
		{"missing hierarchy", Config{LLMProvider: ProviderGemini, GeminiAPIKey: "k"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
