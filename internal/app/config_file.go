package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/http/httpguts"
	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
	HTTP struct {
		Timeout       string `yaml:"timeout" json:"timeout"`
		MaxAttempts   int    `yaml:"maxAttempts" json:"maxAttempts"`
		MaxBodyBytes  int64  `yaml:"maxBodyBytes" json:"maxBodyBytes"`
		MaxConcurrent int    `yaml:"maxConcurrent" json:"maxConcurrent"`
		Redirects     int    `yaml:"redirects" json:"redirects"`
		UserAgent     string `yaml:"userAgent" json:"userAgent"`
	} `yaml:"http" json:"http"`

	// Keys may be written with or without the leading '%'.
	UserAgents map[string]string `yaml:"userAgents" json:"userAgents"`

	Extractors map[string]map[string]string `yaml:"extractors" json:"extractors"`

	Batch struct {
		Limit int `yaml:"limit" json:"limit"`
	} `yaml:"batch" json:"batch"`

	Server struct {
		Addr string `yaml:"addr" json:"addr"`
	} `yaml:"server" json:"server"`

	Log struct {
		Verbose bool `yaml:"verbose" json:"verbose"`
	} `yaml:"log" json:"log"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays every value set in fc onto cfg. It runs before
// env and flags, which take precedence.
func ApplyFileConfig(cfg *Config, fc FileConfig) error {
	if cfg == nil {
		return nil
	}
	if s := strings.TrimSpace(fc.HTTP.Timeout); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("config: http.timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if fc.HTTP.MaxAttempts != 0 {
		cfg.MaxAttempts = fc.HTTP.MaxAttempts
	}
	if fc.HTTP.MaxBodyBytes != 0 {
		cfg.MaxBodyBytes = fc.HTTP.MaxBodyBytes
	}
	if fc.HTTP.MaxConcurrent != 0 {
		cfg.MaxConcurrent = fc.HTTP.MaxConcurrent
	}
	if fc.HTTP.Redirects != 0 {
		cfg.RedirectMaxHops = fc.HTTP.Redirects
	}
	if fc.HTTP.UserAgent != "" {
		cfg.UserAgent = fc.HTTP.UserAgent
	}
	for name, ua := range fc.UserAgents {
		cfg.setUserAgent(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "%")), ua)
	}
	for name, sec := range fc.Extractors {
		name = strings.ToLower(strings.TrimSpace(name))
		// an empty section still counts as present
		cfg.extractorSection(name)
		for k, v := range sec {
			cfg.setExtractorField(name, k, v)
		}
	}
	if fc.Batch.Limit != 0 {
		cfg.BatchLimit = fc.Batch.Limit
	}
	if fc.Server.Addr != "" {
		cfg.ListenAddr = fc.Server.Addr
	}
	if fc.Log.Verbose {
		cfg.Verbose = true
	}
	return nil
}

// ValidateConfig performs minimal schema validation. Extractor sections are
// validated by their factories when the registry is built.
func ValidateConfig(cfg Config) error {
	if cfg.Timeout < 0 {
		return errors.New("config: http.timeout must not be negative")
	}
	if cfg.MaxAttempts < 0 || cfg.MaxBodyBytes < 0 || cfg.MaxConcurrent < 0 || cfg.RedirectMaxHops < 0 || cfg.BatchLimit < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	if cfg.UserAgent != "" && !httpguts.ValidHeaderFieldValue(cfg.UserAgent) {
		return errors.New("config: http.userAgent is not a valid header value")
	}
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		return errors.New("config: server.addr is required")
	}
	return nil
}
