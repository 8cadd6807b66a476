package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/smartresolve/pkg/domain/model"
	"github.com/secmon-lab/smartresolve/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type recommendationEntryDoc struct {
	Rank            int    `firestore:"Rank"`
	Resolution      string `firestore:"Resolution"`
	ExpectedOutcome string `firestore:"ExpectedOutcome"`
	Implementation  string `firestore:"Implementation"`
}

// citedCaseDoc keeps the cited case without its embedding
type citedCaseDoc struct {
	ID         model.CaseID   `firestore:"ID"`
	Category   string         `firestore:"Category"`
	Resolution string         `firestore:"Resolution"`
	Outcome    string         `firestore:"Outcome"`
	Score      float64        `firestore:"Score"`
	Metadata   map[string]any `firestore:"Metadata,omitempty"`
}

type recommendationDoc struct {
	ID                    model.RecommendationID   `firestore:"ID"`
	ComplaintID           string                   `firestore:"ComplaintID"`
	Recommendations       []recommendationEntryDoc `firestore:"Recommendations"`
	PrimaryRecommendation string                   `firestore:"PrimaryRecommendation"`
	ConfidenceScore       float64                  `firestore:"ConfidenceScore"`
	CitedCases            []citedCaseDoc           `firestore:"CitedCases"`
	Reasoning             string                   `firestore:"Reasoning"`
	Status                string                   `firestore:"Status"`
	Degradations          []string                 `firestore:"Degradations"`
	ParseMode             string                   `firestore:"ParseMode"`
	CreatedAt             time.Time                `firestore:"CreatedAt"`
	ProcessingTimeMs      float64                  `firestore:"ProcessingTimeMs"`
}

func toRecommendationDoc(rec *model.Recommendation) *recommendationDoc {
	doc := &recommendationDoc{
		ID:                    rec.ID,
		ComplaintID:           rec.ComplaintID,
		Recommendations:       make([]recommendationEntryDoc, len(rec.Recommendations)),
		PrimaryRecommendation: rec.PrimaryRecommendation,
		ConfidenceScore:       rec.ConfidenceScore,
		CitedCases:            make([]citedCaseDoc, len(rec.CitedCases)),
		Reasoning:             rec.Reasoning,
		Status:                rec.Status.String(),
		Degradations:          make([]string, len(rec.Degradations)),
		ParseMode:             rec.ParseMode.String(),
		CreatedAt:             rec.CreatedAt,
		ProcessingTimeMs:      rec.ProcessingTimeMs,
	}
	for i, e := range rec.Recommendations {
		doc.Recommendations[i] = recommendationEntryDoc(e)
	}
	for i, c := range rec.CitedCases {
		doc.CitedCases[i] = citedCaseDoc{
			ID:         c.ID,
			Category:   c.Category,
			Resolution: c.Resolution,
			Outcome:    c.Outcome,
			Score:      c.Score,
			Metadata:   c.Metadata,
		}
	}
	for i, d := range rec.Degradations {
		doc.Degradations[i] = d.String()
	}
	return doc
}

func fromRecommendationDoc(d *recommendationDoc) *model.Recommendation {
	rec := &model.Recommendation{
		ID:                    d.ID,
		ComplaintID:           d.ComplaintID,
		Recommendations:       make([]model.RecommendationEntry, len(d.Recommendations)),
		PrimaryRecommendation: d.PrimaryRecommendation,
		ConfidenceScore:       d.ConfidenceScore,
		CitedCases:            make([]*model.HistoricalCase, len(d.CitedCases)),
		Reasoning:             d.Reasoning,
		Status:                types.RecommendationStatus(d.Status),
		ParseMode:             types.ParseMode(d.ParseMode),
		CreatedAt:             d.CreatedAt,
		ProcessingTimeMs:      d.ProcessingTimeMs,
	}
	for i, e := range d.Recommendations {
		rec.Recommendations[i] = model.RecommendationEntry(e)
	}
	for i, c := range d.CitedCases {
		rec.CitedCases[i] = &model.HistoricalCase{
			ID:         c.ID,
			Category:   c.Category,
			Resolution: c.Resolution,
			Outcome:    c.Outcome,
			Score:      c.Score,
			Metadata:   c.Metadata,
		}
	}
	for _, s := range d.Degradations {
		rec.Degradations = append(rec.Degradations, types.Degradation(s))
	}
	return rec
}

func docToRecommendation(doc *firestore.DocumentSnapshot) (*model.Recommendation, error) {
	var d recommendationDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, err
	}
	return fromRecommendationDoc(&d), nil
}

type recommendationRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newRecommendationRepository(client *firestore.Client) *recommendationRepository {
	return &recommendationRepository{
		client: client,
	}
}

func (r *recommendationRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + RecommendationCollection)
}

func (r *recommendationRepository) Save(ctx context.Context, rec *model.Recommendation) error {
	if rec.ID == "" {
		return goerr.New("recommendation ID is required")
	}

	docRef := r.collection().Doc(string(rec.ID))
	if _, err := docRef.Set(ctx, toRecommendationDoc(rec)); err != nil {
		return goerr.Wrap(err, "failed to save recommendation", goerr.V(model.RecommendationIDKey, rec.ID))
	}

	return nil
}

func (r *recommendationRepository) Get(ctx context.Context, id model.RecommendationID) (*model.Recommendation, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "recommendation not found", goerr.V(model.RecommendationIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get recommendation", goerr.V(model.RecommendationIDKey, id))
	}

	rec, err := docToRecommendation(doc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal recommendation", goerr.V(model.RecommendationIDKey, id))
	}

	return rec, nil
}

func (r *recommendationRepository) ListByComplaintID(ctx context.Context, complaintID string, limit, offset int) ([]*model.Recommendation, int, error) {
	base := r.collection().Where("ComplaintID", "==", complaintID)

	allDocs, err := base.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to count recommendations", goerr.V(model.ComplaintIDKey, complaintID))
	}
	totalCount := len(allDocs)

	query := base.OrderBy("CreatedAt", firestore.Desc).Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	recs := make([]*model.Recommendation, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, goerr.Wrap(err, "failed to iterate recommendations", goerr.V(model.ComplaintIDKey, complaintID))
		}

		rec, err := docToRecommendation(doc)
		if err != nil {
			return nil, 0, goerr.Wrap(err, "failed to unmarshal recommendation")
		}

		recs = append(recs, rec)
	}

	return recs, totalCount, nil
}
