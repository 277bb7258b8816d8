package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/unfurl/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("unfurl failed")
		stop()
		os.Exit(1)
	}
}

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath  string
	envFiles    []string
	verbose     bool
	timeout     time.Duration
	maxAttempts int
	userAgent   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "unfurl",
		Short: "unfurl turns links into rich embed metadata",
		Long: `unfurl fetches a supported link (DeviantArt, FurAffinity) and prints
a normalized embed: title, description, author, media and safety flags.

Configuration is layered: defaults, then --config file, then UNFURL_*
environment variables (dotenv files included), then flags.`,
		Version:       app.VersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", os.Getenv("UNFURL_CONFIG"), "Path to YAML or JSON config file")
	pf.StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "Dotenv files to load; later files override earlier ones")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")
	pf.DurationVar(&opts.timeout, "timeout", 0, "Per-request upstream timeout (e.g. 10s)")
	pf.IntVar(&opts.maxAttempts, "max-attempts", 0, "Upstream attempts including the first; >1 retries transient failures")
	pf.StringVar(&opts.userAgent, "user-agent", "", "Default User-Agent for upstream requests")

	root.AddCommand(newExtractCmd(opts), newServeCmd(opts))
	return root
}

// loadConfig layers defaults, the config file, env and flags. Flags win.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (app.Config, error) {
	if err := app.LoadEnvFiles(o.envFiles...); err != nil {
		return app.Config{}, fmt.Errorf("load env files: %w", err)
	}

	cfg := app.DefaultConfig()
	if o.configPath != "" {
		fc, err := app.LoadConfigFile(o.configPath)
		if err != nil {
			return app.Config{}, fmt.Errorf("load config: %w", err)
		}
		if err := app.ApplyFileConfig(&cfg, fc); err != nil {
			return app.Config{}, err
		}
	}
	app.ApplyEnvOverrides(&cfg)

	flags := cmd.Flags()
	if flags.Changed("timeout") {
		cfg.Timeout = o.timeout
	}
	if flags.Changed("max-attempts") {
		cfg.MaxAttempts = o.maxAttempts
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent = o.userAgent
	}
	if o.verbose {
		cfg.Verbose = true
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	return cfg, app.ValidateConfig(cfg)
}
