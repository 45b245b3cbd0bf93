package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"wardenhq/sentinel/pkg/cli"
	"wardenhq/sentinel/pkg/telemetry"
)

var serveFlags struct {
	healthAddr string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose health, readiness, and metrics endpoints over HTTP",
	Long: `Starts a small HTTP server exposing /health, /ready, /version, and the
configured metrics path. This carries no decision traffic — every tool
call is still evaluated through "sentinel evaluate" or an embedding
program calling the orchestrator directly; this command exists purely
so an operator can curl liveness, readiness, and Prometheus metrics
while the store stays warm between evaluate invocations.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveFlags.healthAddr, "addr", "", "override the configured metrics listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	tel, err := telemetry.New(&rt.cfg.Telemetry, Version, GitCommit, BuildDate)
	if err != nil {
		return cli.NewCommandError("serve", fmt.Errorf("failed to initialize telemetry: %w", err))
	}

	tel.Health().RegisterCheck("store", func(ctx context.Context) error {
		return rt.store.Migrate(ctx)
	})
	tel.Health().RegisterCheck("killswitch", func(ctx context.Context) error {
		return nil
	})

	addr := serveFlags.healthAddr
	if addr == "" {
		addr = rt.cfg.Telemetry.Metrics.ListenAddress
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", tel.Health().LivenessHandler())
	mux.HandleFunc("/ready", tel.Health().ReadinessHandler())
	mux.HandleFunc("/version", healthVersionHandler())
	if rt.cfg.Telemetry.Metrics.Enabled {
		mux.Handle(rt.cfg.Telemetry.Metrics.Path, tel.Metrics().Handler())
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	ctx := cli.SetupSignalHandler()
	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("serving health/metrics on %s\n", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return cli.NewCommandError("serve", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = tel.Shutdown(shutdownCtx)
		fmt.Println("shutdown complete")
	}
	return nil
}

func healthVersionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"version":%q,"commit":%q,"buildDate":%q}`+"\n", Version, GitCommit, BuildDate)
	}
}
