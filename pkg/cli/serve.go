package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/smartresolve/pkg/cli/config"
	httpctrl "github.com/secmon-lab/smartresolve/pkg/controller/http"
	"github.com/secmon-lab/smartresolve/pkg/utils/async"
	"github.com/secmon-lab/smartresolve/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

func cmdServe() *cli.Command {
	var addr string
	var importCases string
	var repoCfg config.Repository
	var llmCfg config.LLM
	var pipelineCfg config.Pipeline
	var archiveCfg config.Archive

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("SMARTRESOLVE_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "import-cases",
			Usage:       "JSON or YAML file of historical cases imported before the server starts",
			Sources:     cli.EnvVars("SMARTRESOLVE_IMPORT_CASES"),
			Destination: &importCases,
		},
	}

	// Add shared config flags
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, pipelineCfg.Flags()...)
	flags = append(flags, archiveCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()
			logger.Info("Serve configuration",
				"repository", repoCfg,
				"llm", llmCfg,
				"pipeline", pipelineCfg,
				"archive", archiveCfg,
			)

			rt, err := setupRuntime(ctx, &repoCfg, &llmCfg, &pipelineCfg, &archiveCfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			if importCases != "" {
				cases, err := loadCases(importCases)
				if err != nil {
					return err
				}
				n, err := rt.uc.Import.Import(ctx, cases)
				if err != nil {
					return goerr.Wrap(err, "failed to import historical cases", goerr.V("imported", n))
				}
				logger.Info("Historical cases preloaded", "path", importCases, "count", n)
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(rt.uc.Recommend),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}
				// Archive uploads must finish before the storage clients close
				if err := async.Wait(shutdownCtx); err != nil {
					logger.Warn("background tasks were dropped at shutdown", "error", err)
				}

				logger.Info("Server shutdown completed")
				return nil
			}
		},
	}
}
