package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ziadkadry99/backdrop/internal/config"
	"github.com/ziadkadry99/backdrop/internal/enhancer"
	"github.com/ziadkadry99/backdrop/internal/page"
	"github.com/ziadkadry99/backdrop/internal/slides"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `backdrop init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	applyLogLevel(cfg)
	return cfg, nil
}

// newLogger builds a production zap logger; verbose switches it to debug.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return buildLogger(zapcore.DebugLevel)
	}
	return buildLogger(zapcore.InfoLevel)
}

func buildLogger(lvl zapcore.Level) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

// applyLogLevel rebuilds the logger at the configured level unless
// --verbose already asked for debug output.
func applyLogLevel(cfg *config.Config) {
	if verbose || cfg.LogLevel == "" {
		return
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return
	}
	l, err := buildLogger(lvl)
	if err != nil {
		return
	}
	_ = logger.Sync()
	logger = l
}

// loadPage parses the configured index page.
func loadPage(cfg *config.Config) (*page.Document, error) {
	path := filepath.Join(cfg.SiteDir, cfg.Index)
	doc, err := page.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading page: %w", err)
	}
	return doc, nil
}

// candidates returns the configured picture names plus any discovered under
// the site's pictures directory.
func candidates(cfg *config.Config) []string {
	names := cfg.Candidates
	if cfg.Discover == "" {
		return names
	}
	found, err := slides.Discover(os.DirFS(cfg.SiteDir), "pictures", cfg.Discover)
	if err != nil {
		logger.Warn("picture discovery failed", zap.String("pattern", cfg.Discover), zap.Error(err))
		return names
	}
	return slides.MergeCandidates(names, found)
}

// enhancerOptions maps the config onto enhancer options for baseURL.
func enhancerOptions(cfg *config.Config, baseURL string) enhancer.Options {
	return enhancer.Options{
		BaseURL:        baseURL,
		Candidates:     candidates(cfg),
		Gradients:      cfg.FallbackGradients,
		Interval:       cfg.Interval,
		ProbeTimeout:   cfg.ProbeTimeout,
		Policy:         cfg.Policy(),
		DefaultTrackID: cfg.DefaultTrackID,
		PoemName:       cfg.PoemFile,
	}
}

// withSiteURL calls fn with the page address. When no base_url is
// configured, the site directory is served on a loopback port for the
// duration of fn so probes and the poem fetch hit real files.
func withSiteURL(ctx context.Context, cfg *config.Config, fn func(baseURL string) error) error {
	if cfg.BaseURL != "" {
		return fn(cfg.BaseURL)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("starting local site server: %w", err)
	}
	srv := &http.Server{Handler: http.FileServer(http.Dir(cfg.SiteDir))}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("local site server", zap.Error(err))
		}
	}()
	defer srv.Shutdown(ctx)

	return fn(fmt.Sprintf("http://%s/", ln.Addr().String()))
}

// openBrowser opens the given URL in the default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	_ = cmd.Start()
}
