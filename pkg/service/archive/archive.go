package archive

import (
	"context"
	"encoding/json"
	"net/url"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/smartresolve/pkg/domain/interfaces"
	"github.com/secmon-lab/smartresolve/pkg/domain/model"
	"github.com/secmon-lab/smartresolve/pkg/domain/model/api"
	"github.com/secmon-lab/smartresolve/pkg/utils/logging"
)

// Archive writes recommendations as JSON objects into a Cloud Storage bucket
type Archive struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ interfaces.Archiver = &Archive{}

type Option func(*Archive)

// WithPrefix sets the object name prefix
func WithPrefix(prefix string) Option {
	return func(a *Archive) {
		a.prefix = prefix
	}
}

// New creates an Archive for bucket. The caller owns client.
func New(client *storage.Client, bucket string, opts ...Option) (*Archive, error) {
	if client == nil {
		return nil, goerr.New("storage client is required")
	}
	if bucket == "" {
		return nil, goerr.New("bucket is required")
	}

	a := &Archive{
		client: client,
		bucket: bucket,
	}
	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

// ObjectName returns {prefix}/{complaintID}/{recommendationID}.json. The
// complaint ID is escaped into a single path segment so the name always stays
// under prefix.
func ObjectName(prefix string, rec *model.Recommendation) string {
	return path.Join(prefix, segment(rec.ComplaintID), segment(string(rec.ID))+".json")
}

func segment(s string) string {
	escaped := url.PathEscape(s)
	if strings.Trim(escaped, ".") == "" {
		return strings.ReplaceAll(escaped, ".", "%2E")
	}
	return escaped
}

// Archive uploads rec as JSON
func (a *Archive) Archive(ctx context.Context, rec *model.Recommendation) error {
	data, err := json.Marshal(api.NewRecommendation(rec))
	if err != nil {
		return goerr.Wrap(err, "failed to marshal recommendation", goerr.V(model.RecommendationIDKey, rec.ID))
	}

	name := ObjectName(a.prefix, rec)
	w := a.client.Bucket(a.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to write archive object",
			goerr.V("bucket", a.bucket),
			goerr.V("object", name))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to close archive object",
			goerr.V("bucket", a.bucket),
			goerr.V("object", name))
	}

	logging.From(ctx).Info("recommendation archived",
		"bucket", a.bucket,
		"object", name,
		"recommendation_id", rec.ID)
	return nil
}
