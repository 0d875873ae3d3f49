package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/backdrop/internal/enhancer"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Write the enhanced page once, without live rotation",
	Long: `Applies the slideshow's initial assignment, the player embed and the poem to
the index page and writes the resulting HTML to stdout or --output.`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	doc, err := loadPage(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	err = withSiteURL(ctx, cfg, func(baseURL string) error {
		opts := enhancerOptions(cfg, baseURL)
		opts.Static = true
		enh := enhancer.New(opts, logger)
		enh.Ready(ctx, doc)
		enh.Wait()
		enh.Close()
		return nil
	})
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}
	if err := doc.Render(out); err != nil {
		return fmt.Errorf("writing page: %w", err)
	}
	return nil
}
