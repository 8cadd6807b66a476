package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/smartresolve/pkg/cli/config"
	"github.com/secmon-lab/smartresolve/pkg/repository/firestore"
	"github.com/secmon-lab/smartresolve/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var projectID string
	var databaseID string
	var dryRun bool
	var pipelineCfg config.Pipeline

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required)",
			Required:    true,
			Sources:     cli.EnvVars("SMARTRESOLVE_FIRESTORE_PROJECT_ID"),
			Destination: &projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Sources:     cli.EnvVars("SMARTRESOLVE_FIRESTORE_DATABASE_ID"),
			Destination: &databaseID,
		},
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Preview changes without applying",
			Destination: &dryRun,
		},
	}
	flags = append(flags, pipelineCfg.Flags()...)

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Migrate Firestore indexes",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			pipeline, err := pipelineCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure pipeline")
			}

			logger.Info("Migrate configuration",
				"projectID", projectID,
				"databaseID", databaseID,
				"embeddingDimension", pipeline.EmbeddingDimension,
				"dryRun", dryRun)

			indexConfig := getIndexConfig(pipeline.EmbeddingDimension)

			client, err := fireconf.NewClient(ctx, projectID, databaseID)
			if err != nil {
				return goerr.Wrap(err, "failed to create fireconf client")
			}
			defer func() {
				if err := client.Close(); err != nil {
					logger.Error("failed to close fireconf client", "error", err.Error())
				}
			}()

			if dryRun {
				logger.Info("Dry run mode - previewing changes")
				plan, err := client.GetMigrationPlan(ctx, indexConfig)
				if err != nil {
					return goerr.Wrap(err, "failed to create migration plan")
				}

				if len(plan.Steps) == 0 {
					logger.Info("No changes required")
					return nil
				}

				for _, step := range plan.Steps {
					logger.Info("Migration step",
						"collection", step.Collection,
						"operation", step.Operation,
						"description", step.Description,
						"destructive", step.Destructive)
				}
				return nil
			}

			logger.Info("Applying migrations")
			if err := client.Migrate(ctx, indexConfig); err != nil {
				return goerr.Wrap(err, "failed to apply migrations")
			}
			logger.Info("Migrations applied successfully")

			return nil
		},
	}
}

// getIndexConfig returns the Firestore index configuration for the case
// vector index and recommendation listing
func getIndexConfig(embeddingDimension int) *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: firestore.HistoricalCaseCollection,
				Indexes: []fireconf.Index{
					// FindNearest over case embeddings
					{
						Fields: []fireconf.IndexField{
							{
								Path: firestore.EmbeddingField,
								Vector: &fireconf.VectorConfig{
									Dimension: embeddingDimension,
								},
							},
						},
					},
				},
			},
			{
				Name: firestore.RecommendationCollection,
				Indexes: []fireconf.Index{
					// ListByComplaintID: ComplaintID ASC, CreatedAt DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "ComplaintID", Order: fireconf.OrderAscending},
							{Path: "CreatedAt", Order: fireconf.OrderDescending},
						},
					},
				},
			},
		},
	}
}
