package app

import (
	"time"

	"github.com/hyperifyio/unfurl/internal/extractor"
)

// Config holds runtime configuration for the application.
type Config struct {
	// Outbound HTTP
	Timeout         time.Duration
	MaxAttempts     int
	MaxBodyBytes    int64
	MaxConcurrent   int
	RedirectMaxHops int
	UserAgent       string

	// Named user agents referenced by extractors ("browser" for "%browser").
	UserAgents map[string]string
	// Per-extractor settings, e.g. Extractors["furaffinity"]["a"].
	Extractors map[string]map[string]string

	// BatchLimit bounds concurrent extractions in ExtractAll.
	BatchLimit int

	// Server
	ListenAddr string

	Verbose bool
}

// Defaults used by DefaultConfig.
const (
	defaultTimeout    = 15 * time.Second
	defaultBatchLimit = 8
	defaultListenAddr = ":8080"
)

// DefaultConfig returns the configuration used before file, env and flags
// are applied.
func DefaultConfig() Config {
	return Config{
		Timeout:     defaultTimeout,
		MaxAttempts: 1,
		UserAgent:   "unfurl/" + BuildVersion + " (+https://github.com/hyperifyio/unfurl)",
		BatchLimit:  defaultBatchLimit,
		ListenAddr:  defaultListenAddr,
	}
}

// Settings is the part of cfg that extractor factories consume. The maps are
// copied so later changes to cfg do not leak into built extractors.
func (cfg Config) Settings() *extractor.Settings {
	s := &extractor.Settings{
		Extractors: make(map[string]map[string]string, len(cfg.Extractors)),
		UserAgents: make(map[string]string, len(cfg.UserAgents)),
	}
	for name, sec := range cfg.Extractors {
		cp := make(map[string]string, len(sec))
		for k, v := range sec {
			cp[k] = v
		}
		s.Extractors[name] = cp
	}
	for k, v := range cfg.UserAgents {
		s.UserAgents[k] = v
	}
	return s
}

// extractorSection returns the named section, creating it when absent.
func (cfg *Config) extractorSection(name string) map[string]string {
	if cfg.Extractors == nil {
		cfg.Extractors = map[string]map[string]string{}
	}
	sec := cfg.Extractors[name]
	if sec == nil {
		sec = map[string]string{}
		cfg.Extractors[name] = sec
	}
	return sec
}

func (cfg *Config) setExtractorField(name, field, value string) {
	cfg.extractorSection(name)[field] = value
}

func (cfg *Config) setUserAgent(name, value string) {
	if cfg.UserAgents == nil {
		cfg.UserAgents = map[string]string{}
	}
	cfg.UserAgents[name] = value
}
