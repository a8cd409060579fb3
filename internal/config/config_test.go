package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnvWithDefault(t *testing.T) {
	const key = "TEST_APP_PORT"

	// 环境变量未设置时，应该返回默认值
	_ = os.Unsetenv(key)
	if got := getEnv(key, "9000"); got != "9000" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "9000")
	}

	// 环境变量设置后，应优先返回环境变量
	t.Setenv(key, "8080")
	if got := getEnv(key, "9000"); got != "8080" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "8080")
	}
}

func TestGetEnvIntAndDurationFallback(t *testing.T) {
	t.Setenv("TEST_WORKERS", "not-a-number")
	if got := getEnvInt("TEST_WORKERS", 4); got != 4 {
		t.Fatalf("getEnvInt with invalid value = %d, want 4", got)
	}
	t.Setenv("TEST_WORKERS", " 8 ")
	if got := getEnvInt("TEST_WORKERS", 4); got != 8 {
		t.Fatalf("getEnvInt = %d, want 8", got)
	}

	t.Setenv("TEST_DELAY", "bogus")
	if got := getEnvDuration("TEST_DELAY", time.Second); got != time.Second {
		t.Fatalf("getEnvDuration with invalid value = %s, want 1s", got)
	}
	t.Setenv("TEST_DELAY", "250ms")
	if got := getEnvDuration("TEST_DELAY", time.Second); got != 250*time.Millisecond {
		t.Fatalf("getEnvDuration = %s, want 250ms", got)
	}
}

func TestLoadReadsAuthPortsAndInterval(t *testing.T) {
	t.Setenv("APP_PORT", "1234")
	t.Setenv("APP_BASIC_USER", "user")
	t.Setenv("APP_BASIC_PASS", "pass")
	t.Setenv("FETCH_INTERVAL_MINUTES", "0")
	t.Setenv("SOURCES_FILE", "")

	cfg := Load()
	if cfg.AppPort != "1234" {
		t.Fatalf("AppPort = %q, want %q", cfg.AppPort, "1234")
	}
	if cfg.BasicAuthUser != "user" || cfg.BasicAuthPass != "pass" {
		t.Fatalf("BasicAuthUser/Pass not loaded correctly: %+v", cfg)
	}
	// 非法周期回退到 30 分钟
	if cfg.Interval() != 30*time.Minute {
		t.Fatalf("Interval = %s, want 30m", cfg.Interval())
	}
	if len(cfg.Sources) != len(DefaultSources()) {
		t.Fatalf("expected default sources, got %d", len(cfg.Sources))
	}
}

func TestModelURL(t *testing.T) {
	cfg := &Config{InferenceBaseURL: "https://example.com/models/"}
	if got := cfg.ModelURL("/org/model"); got != "https://example.com/models/org/model" {
		t.Fatalf("ModelURL = %q", got)
	}
	if got := cfg.ModelURL(""); got != "" {
		t.Fatalf("ModelURL with empty model = %q, want empty", got)
	}
}

func TestLoadSourcesAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	data := `
sources:
  - name: Reuters
    url: https://example.com/reuters.xml
  - name: Listing
    url: https://example.com/latest
    type: html
    maxItems: 3
    itemSelector: article
    titleSelector: h2
  - name: ""
    url: https://example.com/ignored
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write sources: %v", err)
	}

	sources, err := LoadSources(path)
	if err != nil {
		t.Fatalf("LoadSources error: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d (%+v)", len(sources), sources)
	}
	if sources[0].Type != "rss" || sources[0].MaxItems != defaultMaxItems {
		t.Fatalf("defaults not applied: %+v", sources[0])
	}
	if sources[1].Type != "html" || sources[1].MaxItems != 3 || sources[1].ItemSelector != "article" {
		t.Fatalf("html source not parsed: %+v", sources[1])
	}
}
