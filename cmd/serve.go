package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/resale-cli/internal/monitoring"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the annotated dataset and accept corrections",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		v, err := openVault()
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		if err := monitoring.Register(reg); err != nil {
			return eris.Wrap(err, "register metrics")
		}
		if st, err := initStore(ctx); err != nil {
			zap.L().Warn("serve: ledger unavailable, ledger metrics disabled", zap.Error(err))
		} else {
			defer st.Close() //nolint:errcheck
			if err := reg.Register(monitoring.NewLedgerCollector(monitoring.NewCollector(st), 24)); err != nil {
				return eris.Wrap(err, "register ledger collector")
			}
		}

		s := &server{
			vault:        v,
			usagePath:    cfg.Vault.Path(cfg.Vault.Files.Usage),
			historyPath:  cfg.Vault.Path(cfg.Vault.Files.History),
			contextsPath: cfg.Vault.Path(cfg.Vault.Files.Contexts),
		}
		handler := newRouter(s, cfg.Server.AllowedOrigins, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
