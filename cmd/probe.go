package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/backdrop/internal/progress"
	"github.com/ziadkadry99/backdrop/internal/slides"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check which slideshow pictures are reachable",
	Long: `Sends a HEAD request for every candidate picture under pictures/ and prints
the asset list the slideshow would rotate through, falling back to the
configured gradients when nothing is reachable.`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	names := candidates(cfg)
	reporter := progress.NewReporter("Probing pictures")

	var found []string
	err = withSiteURL(context.Background(), cfg, func(baseURL string) error {
		prober := slides.NewProber(baseURL, logger)
		prober.Timeout = cfg.ProbeTimeout

		settled := 0
		prober.OnResult = func(name string, ok bool) {
			settled++
			status := "missing"
			if ok {
				status = "found"
			}
			reporter.Update(settled, fmt.Sprintf("%s %s", name, status))
		}

		reporter.Start(len(names))
		found = prober.Probe(context.Background(), names)
		reporter.Finish()
		return nil
	})
	if err != nil {
		return err
	}

	assets := slides.Resolve(found, cfg.FallbackGradients)
	out := cmd.OutOrStdout()
	if len(found) == 0 {
		fmt.Fprintf(out, "No pictures reachable; rotating %d gradients:\n", len(assets))
	} else {
		fmt.Fprintf(out, "%d of %d pictures reachable:\n", len(found), len(names))
	}
	for i, a := range assets {
		fmt.Fprintf(out, "  %d. %s\n", i+1, a.Ref)
	}
	return nil
}
