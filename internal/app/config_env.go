package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Environment variable names. Extractor fields and user agents use prefixed
// families: UNFURL_EXTRACTOR_<NAME>_<FIELD> and UNFURL_UA_<NAME>.
const (
	envPrefix          = "UNFURL_"
	envTimeout         = envPrefix + "TIMEOUT"
	envMaxAttempts     = envPrefix + "MAX_ATTEMPTS"
	envMaxBodyBytes    = envPrefix + "MAX_BODY_BYTES"
	envMaxConcurrent   = envPrefix + "MAX_CONCURRENT"
	envRedirects       = envPrefix + "REDIRECTS"
	envUserAgent       = envPrefix + "USER_AGENT"
	envBatchLimit      = envPrefix + "BATCH_LIMIT"
	envListen          = envPrefix + "LISTEN"
	envVerbose         = envPrefix + "VERBOSE"
	envExtractorPrefix = envPrefix + "EXTRACTOR_"
	envUAPrefix        = envPrefix + "UA_"
)

// ApplyEnvOverrides overrides cfg fields with environment variables when
// they are set. Env takes precedence over the config file; flags are applied
// afterwards and win over both. Malformed numbers are logged and ignored.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	applyEnviron(cfg, os.Environ())
}

func applyEnviron(cfg *Config, environ []string) {
	for _, kv := range environ {
		key, val, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, envPrefix) {
			continue
		}
		switch {
		case key == envTimeout:
			if d, err := time.ParseDuration(strings.TrimSpace(val)); err == nil {
				cfg.Timeout = d
			} else {
				log.Warn().Str("env", key).Err(err).Msg("ignoring malformed duration")
			}
		case key == envMaxAttempts:
			setInt(&cfg.MaxAttempts, key, val)
		case key == envMaxConcurrent:
			setInt(&cfg.MaxConcurrent, key, val)
		case key == envRedirects:
			setInt(&cfg.RedirectMaxHops, key, val)
		case key == envBatchLimit:
			setInt(&cfg.BatchLimit, key, val)
		case key == envMaxBodyBytes:
			if n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil {
				cfg.MaxBodyBytes = n
			} else {
				log.Warn().Str("env", key).Err(err).Msg("ignoring malformed number")
			}
		case key == envUserAgent:
			if val != "" {
				cfg.UserAgent = val
			}
		case key == envListen:
			if v := strings.TrimSpace(val); v != "" {
				cfg.ListenAddr = v
			}
		case key == envVerbose:
			setBool(&cfg.Verbose, val)
		case strings.HasPrefix(key, envUAPrefix):
			if name := strings.ToLower(strings.TrimPrefix(key, envUAPrefix)); name != "" {
				cfg.setUserAgent(name, val)
			}
		case strings.HasPrefix(key, envExtractorPrefix):
			// extractor names contain no underscore; the field is the rest
			name, field, ok := strings.Cut(strings.TrimPrefix(key, envExtractorPrefix), "_")
			if ok && name != "" && field != "" {
				cfg.setExtractorField(strings.ToLower(name), strings.ToLower(field), val)
			}
		}
	}
}

func setInt(dst *int, key, val string) {
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		log.Warn().Str("env", key).Err(err).Msg("ignoring malformed number")
		return
	}
	*dst = n
}

// Booleans override when env present and truthy/falsey
func setBool(dst *bool, val string) {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "1", "true", "yes", "on":
		*dst = true
	case "0", "false", "no", "off":
		*dst = false
	}
}
