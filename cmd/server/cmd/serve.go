package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-pkce-gateway/internal/config"
	"github.com/jrsteele09/go-pkce-gateway/internal/version"
	"github.com/jrsteele09/go-pkce-gateway/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var port string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the gateway's HTTP server.

Configuration is read from the environment, after loading --env-file when it
exists. CLIENT_ID, CLIENT_SECRET, KINTONE_SUBDOMAIN and KINTONE_APP_ID are
required, as are AUTHORIZATION_ENDPOINT and TOKEN_ENDPOINT unless
OAUTH_ISSUER is set for discovery.

Examples:
  server serve
  server serve --env-file ./dev.env --port 3000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&port, "port", "p", "",
		"port to listen on (overrides PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if port != "" {
		cfg.Port = port
	}

	configureLogger(cfg.GetEnv())
	if !cmd.Flags().Changed("log-level") {
		if err := setLogLevel(cfg.GetLogLevel()); err != nil {
			return fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
	}

	displayAppname(cfg.GetAppName())

	handler, err := server.NewFromConfig(ctx, cfg)
	if err != nil {
		log.Err(err).Msg("Failed to initialise server")
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(httpServer)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down...")
	return shutdown(httpServer)
}

func listenAndServe(srv *http.Server) error {
	log.Info().Str("addr", srv.Addr).Str("version", version.Version).Msg("Server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	log.Info().Msg("Server stopped")
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
