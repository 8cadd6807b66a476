package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/smartresolve/pkg/cli/config"
	"github.com/secmon-lab/smartresolve/pkg/usecase"
	"github.com/secmon-lab/smartresolve/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdImport() *cli.Command {
	var path string
	var workers int
	var repoCfg config.Repository
	var llmCfg config.LLM
	var pipelineCfg config.Pipeline

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "file",
			Aliases:     []string{"f"},
			Usage:       "JSON or YAML file of historical cases",
			Required:    true,
			Destination: &path,
		},
		&cli.IntFlag{
			Name:        "workers",
			Usage:       "Number of cases embedded in parallel",
			Value:       usecase.DefaultImportConcurrency,
			Sources:     cli.EnvVars("SMARTRESOLVE_IMPORT_WORKERS"),
			Destination: &workers,
		},
	}

	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, pipelineCfg.Flags()...)

	return &cli.Command{
		Name:    "import",
		Aliases: []string{"i"},
		Usage:   "Import historical cases into the case store",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			cases, err := loadCases(path)
			if err != nil {
				return err
			}
			logger.Info("Historical cases loaded", "path", path, "count", len(cases))

			rt, err := setupRuntime(ctx, &repoCfg, &llmCfg, &pipelineCfg, nil,
				usecase.WithImportWorkers(workers))
			if err != nil {
				return err
			}
			defer rt.Close()

			n, err := rt.uc.Import.Import(ctx, cases)
			if err != nil {
				return goerr.Wrap(err, "failed to import historical cases", goerr.V("imported", n))
			}

			logger.Info("Import completed", "path", path, "imported", n)
			return nil
		},
	}
}
