package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/sourcebrief/internal/api"
	"github.com/ppiankov/sourcebrief/internal/worker"
)

const (
	shutdownTimeout    = 15 * time.Second
	limiterSweepPeriod = 5 * time.Minute
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve exposes the research brief workflow over HTTP:

  POST /api/research-briefs       {"urls": [...]} -> 201 {"brief": ...}
  GET  /api/research-briefs       ?limit=N (default 5), newest first
  GET  /api/research-briefs/{id}
  GET  /api/status
  GET  /metrics

Example:
  sourcebrief serve --addr :8080
  SOURCEBRIEF_STORE_DRIVER=postgres SOURCEBRIEF_STORE_POSTGRES_URL=postgres://... sourcebrief serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "listen address")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.genErr != nil {
		a.log.Warn().Err(a.genErr).Msg("generation backend unavailable, brief creation will fail")
	}

	limiter := worker.NewLimiter(cfg.Server.RequestsPerSecond, cfg.Server.Burst)
	go sweepLimiter(ctx, limiter)

	handler := api.NewServer(a.service, a.checker, limiter, a.log).
		WithMetrics(a.metrics, a.registry).
		Router()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", cfg.Server.Addr).Str("store", cfg.Store.Driver).Str("provider", cfg.LLM.Provider).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func sweepLimiter(ctx context.Context, l *worker.Limiter) {
	if !l.Enabled() {
		return
	}
	ticker := time.NewTicker(limiterSweepPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep(limiterSweepPeriod)
		}
	}
}
