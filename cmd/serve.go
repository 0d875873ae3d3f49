package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/backdrop/internal/enhancer"
	"github.com/ziadkadry99/backdrop/internal/server"
	"github.com/ziadkadry99/backdrop/internal/slides"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the enhanced page with live slide rotation",
	Long: `Loads the index page from the site directory, serves the site, and applies
the slideshow, player and poem once the server is listening. Connected
browsers follow the slide rotation over a websocket.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "override the configured port")
	serveCmd.Flags().String("site", "", "override the configured site directory")
	serveCmd.Flags().Bool("open", false, "open browser automatically")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Port = port
	}
	if site, _ := cmd.Flags().GetString("site"); site != "" {
		cfg.SiteDir = site
	}

	doc, err := loadPage(cfg)
	if err != nil {
		return err
	}
	server.InjectClient(doc)

	var enh *enhancer.Enhancer
	hub := server.NewHub(logger.Named("feed"))
	srv := server.New(server.Config{
		Port:     cfg.Port,
		SiteDir:  cfg.SiteDir,
		AllowAll: cfg.AllowAllOrigins,
	}, doc, func() *slides.Rotator { return enh.Rotator() }, hub, logger.Named("http"))

	ln, err := srv.Listen()
	if err != nil {
		return err
	}
	port := ln.Addr().(*net.TCPAddr).Port

	opts := enhancerOptions(cfg, cfg.PageURL(port))
	opts.OnRotate = hub.Broadcast
	enh = enhancer.New(opts, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	enh.Ready(ctx, doc)

	url := fmt.Sprintf("http://localhost:%d", port)
	fmt.Printf("Serving %s at %s\n", cfg.SiteDir, url)
	fmt.Println("Press Ctrl+C to stop.")
	if open, _ := cmd.Flags().GetBool("open"); open {
		go openBrowser(url)
	}

	select {
	case <-ctx.Done():
	case err = <-errCh:
		if err != nil {
			err = fmt.Errorf("serving site: %w", err)
		}
	}

	stop()
	enh.Close()
	enh.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("shutdown", zap.Error(shutdownErr))
	}
	return err
}
