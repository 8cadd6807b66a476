package config

import (
	"context"
	"log/slog"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/smartresolve/pkg/service/archive"
	"github.com/secmon-lab/smartresolve/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Archive holds CLI flags for the Cloud Storage recommendation archive
type Archive struct {
	bucket string
	prefix string
}

func (x *Archive) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "archive-bucket",
			Usage:       "Cloud Storage bucket receiving a JSON copy of every recommendation (disabled if empty)",
			Category:    "Archive",
			Sources:     cli.EnvVars("SMARTRESOLVE_ARCHIVE_BUCKET"),
			Destination: &x.bucket,
		},
		&cli.StringFlag{
			Name:        "archive-prefix",
			Usage:       "Object name prefix inside the archive bucket",
			Category:    "Archive",
			Value:       "recommendations",
			Sources:     cli.EnvVars("SMARTRESOLVE_ARCHIVE_PREFIX"),
			Destination: &x.prefix,
		},
	}
}

func (x Archive) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("bucket", x.bucket),
		slog.String("prefix", x.prefix),
	)
}

// IsEnabled reports whether a bucket is configured
func (x *Archive) IsEnabled() bool {
	return x.bucket != ""
}

// Configure creates the archiver and a function closing its storage client.
// Returns nil archiver and a no-op closer when no bucket is configured.
func (x *Archive) Configure(ctx context.Context) (*archive.Archive, func(), error) {
	if !x.IsEnabled() {
		return nil, func() {}, nil
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", x.bucket))
	}
	closer := func() {
		if err := client.Close(); err != nil {
			logging.Default().Error("failed to close storage client", "error", err)
		}
	}

	a, err := archive.New(client, x.bucket, archive.WithPrefix(x.prefix))
	if err != nil {
		closer()
		return nil, nil, err
	}

	logging.From(ctx).Info("Recommendation archive enabled", "bucket", x.bucket, "prefix", x.prefix)
	return a, closer, nil
}
