package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleYAML = `
http:
  timeout: 5s
  maxAttempts: 3
  maxConcurrent: 4
  userAgent: unfurl-test/1.0
userAgents:
  "%Browser": Mozilla/5.0
extractors:
  FurAffinity:
    a: aaa
    b: bbb
  deviantart:
batch:
  limit: 2
server:
  addr: 127.0.0.1:8081
log:
  verbose: true
`

func TestLoadConfigFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unfurl.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	cfg := DefaultConfig()
	if err := ApplyFileConfig(&cfg, fc); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.Timeout != 5*time.Second || cfg.MaxAttempts != 3 || cfg.MaxConcurrent != 4 {
		t.Fatalf("http section not applied: %+v", cfg)
	}
	if cfg.UserAgent != "unfurl-test/1.0" {
		t.Fatalf("UserAgent=%q", cfg.UserAgent)
	}
	if cfg.UserAgents["browser"] != "Mozilla/5.0" {
		t.Fatalf("UserAgents=%v, want '%%' stripped and key lowercased", cfg.UserAgents)
	}
	if fa := cfg.Extractors["furaffinity"]; fa["a"] != "aaa" || fa["b"] != "bbb" {
		t.Fatalf("furaffinity section=%v", fa)
	}
	if _, ok := cfg.Extractors["deviantart"]; !ok {
		t.Fatalf("empty deviantart section should still be present")
	}
	if cfg.BatchLimit != 2 || cfg.ListenAddr != "127.0.0.1:8081" || !cfg.Verbose {
		t.Fatalf("batch/server/log not applied: %+v", cfg)
	}
	if cfg.RedirectMaxHops != 0 {
		t.Fatalf("unset fields must keep their defaults")
	}
}

func TestLoadConfigFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unfurl.json")
	body := `{"http":{"timeout":"250ms","redirects":2},"userAgents":{"browser":"B"}}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := DefaultConfig()
	if err := ApplyFileConfig(&cfg, fc); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.Timeout != 250*time.Millisecond || cfg.RedirectMaxHops != 2 {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestLoadConfigFile_Errors(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.yaml")); !os.IsNotExist(err) {
		t.Fatalf("want not-exist error, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfigFile(path); err == nil || !strings.Contains(err.Error(), "parse json") {
		t.Fatalf("want parse json error, got %v", err)
	}

	var fc FileConfig
	fc.HTTP.Timeout = "soon"
	cfg := DefaultConfig()
	if err := ApplyFileConfig(&cfg, fc); err == nil {
		t.Fatalf("want duration error")
	}
}

func TestValidateConfig(t *testing.T) {
	if err := ValidateConfig(DefaultConfig()); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}

	bad := map[string]func(*Config){
		"negative timeout":   func(c *Config) { c.Timeout = -time.Second },
		"negative attempts":  func(c *Config) { c.MaxAttempts = -1 },
		"negative body":      func(c *Config) { c.MaxBodyBytes = -1 },
		"negative batch":     func(c *Config) { c.BatchLimit = -1 },
		"header injection":   func(c *Config) { c.UserAgent = "ua\r\nX-Evil: 1" },
		"empty listen":       func(c *Config) { c.ListenAddr = " " },
		"negative redirects": func(c *Config) { c.RedirectMaxHops = -2 },
	}
	for name, mutate := range bad {
		cfg := DefaultConfig()
		mutate(&cfg)
		if err := ValidateConfig(cfg); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestConfig_SettingsCopies(t *testing.T) {
	cfg := DefaultConfig()
	cfg.setExtractorField("furaffinity", "a", "one")
	cfg.setUserAgent("browser", "B")

	s := cfg.Settings()
	cfg.Extractors["furaffinity"]["a"] = "two"
	cfg.UserAgents["browser"] = "C"

	sec, ok := s.Section("furaffinity")
	if !ok || sec["a"] != "one" {
		t.Fatalf("section=%v ok=%v, want copy with a=one", sec, ok)
	}
	if ua, _ := s.UserAgent("%browser"); ua != "B" {
		t.Fatalf("ua=%q, want B", ua)
	}
}
