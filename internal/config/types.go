package config

import "time"

// Config is the top-level backdrop configuration, corresponding to .backdrop.yml.
type Config struct {
	SiteDir           string        `yaml:"site_dir" koanf:"site_dir"`
	Index             string        `yaml:"index" koanf:"index"`
	BaseURL           string        `yaml:"base_url" koanf:"base_url"`
	Port              int           `yaml:"port" koanf:"port"`
	Interval          time.Duration `yaml:"interval" koanf:"interval"`
	ProbeTimeout      time.Duration `yaml:"probe_timeout" koanf:"probe_timeout"`
	Candidates        []string      `yaml:"candidates" koanf:"candidates"`
	Discover          string        `yaml:"discover" koanf:"discover"`
	FallbackGradients []string      `yaml:"fallback_gradients" koanf:"fallback_gradients"`
	DefaultTrackID    string        `yaml:"default_track_id" koanf:"default_track_id"`
	PoemFile          string        `yaml:"poem_file" koanf:"poem_file"`
	TargetPolicy      string        `yaml:"target_policy" koanf:"target_policy"`
	AllowAllOrigins   bool          `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	LogLevel          string        `yaml:"log_level" koanf:"log_level"`
}

// fileConfig mirrors Config as written to disk, with durations in their
// string form.
type fileConfig struct {
	SiteDir           string   `yaml:"site_dir"`
	Index             string   `yaml:"index"`
	BaseURL           string   `yaml:"base_url"`
	Port              int      `yaml:"port"`
	Interval          string   `yaml:"interval"`
	ProbeTimeout      string   `yaml:"probe_timeout"`
	Candidates        []string `yaml:"candidates"`
	Discover          string   `yaml:"discover"`
	FallbackGradients []string `yaml:"fallback_gradients"`
	DefaultTrackID    string   `yaml:"default_track_id"`
	PoemFile          string   `yaml:"poem_file"`
	TargetPolicy      string   `yaml:"target_policy"`
	AllowAllOrigins   bool     `yaml:"allow_all_origins"`
	LogLevel          string   `yaml:"log_level"`
}

// MarshalYAML writes interval and probe_timeout as "5s" rather than
// nanoseconds.
func (c Config) MarshalYAML() (interface{}, error) {
	return fileConfig{
		SiteDir:           c.SiteDir,
		Index:             c.Index,
		BaseURL:           c.BaseURL,
		Port:              c.Port,
		Interval:          c.Interval.String(),
		ProbeTimeout:      c.ProbeTimeout.String(),
		Candidates:        c.Candidates,
		Discover:          c.Discover,
		FallbackGradients: c.FallbackGradients,
		DefaultTrackID:    c.DefaultTrackID,
		PoemFile:          c.PoemFile,
		TargetPolicy:      c.TargetPolicy,
		AllowAllOrigins:   c.AllowAllOrigins,
		LogLevel:          c.LogLevel,
	}, nil
}
