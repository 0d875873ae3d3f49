package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// detectSiteDir returns the first directory next to the working directory
// that looks like a site root (has an index.html), or "site".
func detectSiteDir() string {
	for _, dir := range []string{".", "site", "public", "docs", "www"} {
		if _, err := os.Stat(filepath.Join(dir, "index.html")); err == nil {
			return dir
		}
	}
	return "site"
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to backdrop! Let's configure your page.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Site directory.
	sitePrompt := promptui.Prompt{
		Label:   "Site directory (holds index.html, pictures/ and poem.md)",
		Default: detectSiteDir(),
	}
	siteDir, err := sitePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("site dir: %w", err)
	}
	cfg.SiteDir = siteDir

	// 2. Port.
	portPrompt := promptui.Prompt{
		Label:   "Port",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			p, err := strconv.Atoi(s)
			if err != nil || p < 0 || p > 65535 {
				return fmt.Errorf("not a port: %q", s)
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	// 3. Slide interval.
	intervalPrompt := promptui.Prompt{
		Label:   "Time between slides",
		Default: cfg.Interval.String(),
		Validate: func(s string) error {
			d, err := parseDuration(s)
			if err != nil {
				return err
			}
			if d < MinInterval {
				return fmt.Errorf("must be at least %s", MinInterval)
			}
			return nil
		},
	}
	intervalStr, err := intervalPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("interval: %w", err)
	}
	cfg.Interval, _ = parseDuration(intervalStr)

	// 4. Picture candidates.
	candidatesPrompt := promptui.Prompt{
		Label:   "Pictures to probe under pictures/ (comma-separated)",
		Default: strings.Join(cfg.Candidates, ", "),
	}
	candidatesStr, err := candidatesPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("candidates: %w", err)
	}
	cfg.Candidates = splitAndTrim(candidatesStr)

	// 5. Which region is refreshed on each step.
	policyPrompt := promptui.Select{
		Label: "Background refresh target",
		Items: []string{
			"previous  (the slide that was just hidden)",
			"lookahead (the slide after the visible one, legacy)",
		},
	}
	policyIdx, _, err := policyPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("target policy: %w", err)
	}
	cfg.TargetPolicy = []string{"previous", "lookahead"}[policyIdx]

	// 6. Default track.
	trackPrompt := promptui.Prompt{
		Label:   "Default track id for the player",
		Default: cfg.DefaultTrackID,
	}
	trackID, err := trackPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("track id: %w", err)
	}
	cfg.DefaultTrackID = trackID

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(filepath.Join(cfg.SiteDir, cfg.Index)); os.IsNotExist(err) {
		fmt.Printf("\nNote: %s not found in %s yet.\n", cfg.Index, cfg.SiteDir)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}
