package config

import (
	"fmt"
	"time"

	"github.com/ziadkadry99/backdrop/internal/player"
	"github.com/ziadkadry99/backdrop/internal/poem"
	"github.com/ziadkadry99/backdrop/internal/slides"
)

func DefaultConfig() *Config {
	return &Config{
		SiteDir:           "site",
		Index:             "index.html",
		Port:              8080,
		Interval:          slides.DefaultInterval,
		ProbeTimeout:      slides.DefaultProbeTimeout,
		Candidates:        append([]string(nil), slides.DefaultCandidates...),
		FallbackGradients: append([]string(nil), slides.DefaultGradients...),
		DefaultTrackID:    player.DefaultTrackID,
		PoemFile:          poem.DefaultName,
		TargetPolicy:      string(slides.TargetPrevious),
		LogLevel:          "info",
	}
}

// PageURL returns the address pictures/ and the poem resolve against. An
// explicit base_url wins; otherwise the local server on port is used.
func (c *Config) PageURL(port int) string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return fmt.Sprintf("http://localhost:%d/", port)
}

// MinInterval is the shortest accepted rotation period.
const MinInterval = 100 * time.Millisecond
