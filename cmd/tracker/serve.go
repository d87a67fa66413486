package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tracker/internal/cli"
	apphttp "tracker/internal/http"
	applog "tracker/internal/log"
)

const shutdownTimeout = 30 * time.Second

var (
	servePort string
	rateLimit int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port; overrides PORT")
	serveCmd.Flags().IntVar(&rateLimit, "rate-limit", 60, "write requests per client per minute")
}

type pinger interface {
	Ping(ctx context.Context) error
}

func runServe(cmd *cobra.Command, _ []string) error {
	env, err := setup(cmd, applog.ComponentApp)
	if err != nil {
		return err
	}
	if servePort != "" {
		env.cfg.Port = servePort
	}
	logger := env.logger

	ctx, stop := cli.SignalContext(cmd.Context(), logger)
	defer stop()

	res, err := cli.OpenBackend(ctx, logger, env.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	opts := []apphttp.Option{apphttp.WithRateLimit(rateLimit)}
	if p, ok := res.Store.(pinger); ok {
		opts = append(opts, apphttp.WithReadinessCheck(p.Ping))
	}
	srv := apphttp.NewServer(env.cfg.Addr(), res.Service, env.cfg.Currency, opts...)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting tracker server",
			"port", env.cfg.Port,
			applog.FieldBackend, env.cfg.DataBackend,
			"transactions", res.Ledger.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("Shutting down server", applog.FieldOperation, applog.OpShutdown)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err)
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
