package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/smartresolve/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// historicalCaseDoc is the Firestore document representation of model.HistoricalCase.
// Embedding is stored as firestore.Vector32 so that FindNearest vector search works.
type historicalCaseDoc struct {
	ID         model.CaseID       `firestore:"ID"`
	Category   string             `firestore:"Category"`
	Resolution string             `firestore:"Resolution"`
	Outcome    string             `firestore:"Outcome"`
	Embedding  firestore.Vector32 `firestore:"Embedding,omitempty"`
	Metadata   map[string]any     `firestore:"Metadata,omitempty"`
}

func toHistoricalCaseDoc(c *model.HistoricalCase) *historicalCaseDoc {
	doc := &historicalCaseDoc{
		ID:         c.ID,
		Category:   c.Category,
		Resolution: c.Resolution,
		Outcome:    c.Outcome,
		Metadata:   c.Metadata,
	}
	if len(c.Embedding) > 0 {
		doc.Embedding = firestore.Vector32(c.Embedding)
	}
	return doc
}

func fromHistoricalCaseDoc(d *historicalCaseDoc) *model.HistoricalCase {
	c := &model.HistoricalCase{
		ID:         d.ID,
		Category:   d.Category,
		Resolution: d.Resolution,
		Outcome:    d.Outcome,
		Metadata:   d.Metadata,
	}
	if len(d.Embedding) > 0 {
		c.Embedding = []float32(d.Embedding)
	}
	return c
}

func docToHistoricalCase(doc *firestore.DocumentSnapshot) (*model.HistoricalCase, error) {
	var d historicalCaseDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, err
	}
	return fromHistoricalCaseDoc(&d), nil
}

type historicalCaseRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newHistoricalCaseRepository(client *firestore.Client) *historicalCaseRepository {
	return &historicalCaseRepository{
		client: client,
	}
}

func (r *historicalCaseRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + HistoricalCaseCollection)
}

func (r *historicalCaseRepository) Put(ctx context.Context, c *model.HistoricalCase) error {
	if c.ID == "" {
		return goerr.New("case ID is required")
	}

	docRef := r.collection().Doc(string(c.ID))
	if _, err := docRef.Set(ctx, toHistoricalCaseDoc(c)); err != nil {
		return goerr.Wrap(err, "failed to put historical case", goerr.V(model.CaseIDKey, c.ID))
	}

	return nil
}

func (r *historicalCaseRepository) Get(ctx context.Context, id model.CaseID) (*model.HistoricalCase, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "historical case not found", goerr.V(model.CaseIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get historical case", goerr.V(model.CaseIDKey, id))
	}

	c, err := docToHistoricalCase(doc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal historical case", goerr.V(model.CaseIDKey, id))
	}

	return c, nil
}

// FindNearest runs a cosine FindNearest query. Firestore reports cosine
// distance, so the similarity score is 1 - distance.
func (r *historicalCaseRepository) FindNearest(ctx context.Context, embedding []float32, limit int) ([]*model.HistoricalCase, error) {
	if limit <= 0 {
		return []*model.HistoricalCase{}, nil
	}

	vq := r.collection().
		FindNearest(EmbeddingField, firestore.Vector32(embedding), limit, firestore.DistanceMeasureCosine,
			&firestore.FindNearestOptions{DistanceResultField: distanceField})

	iter := vq.Documents(ctx)
	defer iter.Stop()

	cases := make([]*model.HistoricalCase, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate vector search results")
		}

		c, err := docToHistoricalCase(doc)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal historical case from vector search")
		}
		if distance, ok := doc.Data()[distanceField].(float64); ok {
			c.Score = 1 - distance
		}

		cases = append(cases, c)
	}

	return cases, nil
}
