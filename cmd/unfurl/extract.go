package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/unfurl/internal/app"
	"github.com/hyperifyio/unfurl/internal/embed"
)

// extractLine is one line of extract output.
type extractLine struct {
	URL     string       `json:"url"`
	Embed   *embed.Embed `json:"embed,omitempty"`
	Expires uint64       `json:"expires,omitempty"`
	Error   string       `json:"error,omitempty"`
}

func newExtractCmd(opts *rootOptions) *cobra.Command {
	var batch int
	cmd := &cobra.Command{
		Use:   "extract <url>...",
		Short: "Extract embeds for one or more URLs and print them as JSON lines",
		Example: `  unfurl extract https://www.deviantart.com/someone/art/piece-123
  unfurl extract --config unfurl.yaml https://www.furaffinity.net/view/123/ https://fav.me/d1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("batch") {
				cfg.BatchLimit = batch
			}

			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			failed := 0
			for _, res := range a.ExtractAll(cmd.Context(), args) {
				line := extractLine{URL: res.URL}
				if res.Err != nil {
					failed++
					line.Error = res.Err.Error()
				} else {
					line.Embed, line.Expires = res.Embed.Embed, res.Embed.Expires
				}
				if err := enc.Encode(line); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d urls failed", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&batch, "batch", 0, "Concurrent extractions (0 = no limit)")
	return cmd
}
