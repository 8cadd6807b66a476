package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/smartresolve/pkg/domain/model"
	"github.com/secmon-lab/smartresolve/pkg/domain/model/api"
	"github.com/secmon-lab/smartresolve/pkg/usecase"
	"github.com/secmon-lab/smartresolve/pkg/utils/errutil"
	"github.com/secmon-lab/smartresolve/pkg/utils/logging"
	"github.com/secmon-lab/smartresolve/pkg/utils/safe"
)

const (
	msgMissingFields  = "Missing required fields"
	msgInvalidQuery   = "Invalid query parameters"
	msgNotFound       = "Recommendation not found"
	maxRequestBodyLen = 1 << 20
)

// writeClientError writes a 4xx response with a fixed message. The cause is
// logged at warn level only.
func writeClientError(w http.ResponseWriter, r *http.Request, status int, msg string, details map[string][]string, cause error) {
	logging.From(r.Context()).Warn("client error",
		"status", status,
		"error", cause)

	errutil.WriteJSON(r.Context(), w, status, errutil.ErrorResponse{
		Error:   msg,
		Details: details,
	})
}

func createRecommendationHandler(uc RecommendUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		defer safe.Close(ctx, r.Body)

		var body api.CreateRecommendationRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyLen)).Decode(&body); err != nil {
			writeClientError(w, r, http.StatusBadRequest, msgMissingFields,
				map[string][]string{"body": {"request body must be a JSON object"}},
				goerr.Wrap(err, "failed to decode request body"))
			return
		}

		rec, err := uc.Create(ctx, body.ToModel())
		if err != nil {
			var verr *model.ValidationError
			if errors.As(err, &verr) {
				writeClientError(w, r, http.StatusBadRequest, msgMissingFields, verr.Fields, err)
				return
			}
			if errors.Is(err, model.ErrInvalidRequest) {
				writeClientError(w, r, http.StatusBadRequest, msgMissingFields, nil, err)
				return
			}
			errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
			return
		}

		errutil.WriteJSON(ctx, w, http.StatusCreated, api.NewRecommendation(rec))
	}
}

func getRecommendationHandler(uc RecommendUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := model.RecommendationID(chi.URLParam(r, "id"))

		rec, err := uc.Get(ctx, id)
		if err != nil {
			if errors.Is(err, usecase.ErrRecommendationNotFound) {
				writeClientError(w, r, http.StatusNotFound, msgNotFound, nil, err)
				return
			}
			errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
			return
		}

		errutil.WriteJSON(ctx, w, http.StatusOK, api.NewRecommendation(rec))
	}
}

func listRecommendationsHandler(uc RecommendUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		query := r.URL.Query()
		details := map[string][]string{}

		limit, err := intParam(query.Get("limit"))
		if err != nil {
			details["limit"] = []string{"limit must be an integer"}
		}
		offset, err := intParam(query.Get("offset"))
		if err != nil {
			details["offset"] = []string{"offset must be an integer"}
		}
		if len(details) > 0 {
			writeClientError(w, r, http.StatusBadRequest, msgInvalidQuery, details,
				goerr.New("invalid list query", goerr.V("query", r.URL.RawQuery)))
			return
		}

		recs, total, err := uc.ListByComplaint(ctx, query.Get("complaintId"), limit, offset)
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
			return
		}

		errutil.WriteJSON(ctx, w, http.StatusOK, api.NewRecommendationList(recs, total))
	}
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
