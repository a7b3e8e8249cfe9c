package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/churn/internal/app"
	"github.com/okian/churn/internal/domain/schema"
	"github.com/okian/churn/internal/domain/table"
	"github.com/okian/churn/internal/domain/validation"
	"github.com/okian/churn/pkg/logger"
)

// predictionFailed is the only detail a caller sees for a server-side fault.
const predictionFailed = "Prediction failed"

// Predictor runs a batch through validation and the pipeline.
type Predictor interface {
	Predict(ctx context.Context, batch table.Table) (service.Result, error)
}

// predictRequest mirrors the OpenAPI schema for POST /predict.
type predictRequest struct {
	Inputs *[]table.Record `json:"inputs"`
}

// predictResponse keeps the single predictions value for existing clients
// and adds the per-row labels.
type predictResponse struct {
	Predictions *int                 `json:"predictions"`
	Labels      []int                `json:"labels"`
	Version     string               `json:"version"`
	Errors      validation.ErrorList `json:"errors"`
}

// PredictHandler handles prediction requests.
type PredictHandler struct {
	predictor    Predictor
	maxBodyBytes int64
	logger       logger.Logger
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(p Predictor, maxBodyBytes int64, l logger.Logger) *PredictHandler {
	return &PredictHandler{predictor: p, maxBodyBytes: maxBodyBytes, logger: l}
}

// HandlePredict handles POST /predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	batch, status, err := h.decode(w, r)
	if err != nil {
		h.logger.Debug(ctx, "rejecting predict request", logger.Int("status", status), logger.Error(err))
		code := "bad_request"
		if status == http.StatusRequestEntityTooLarge {
			code = "body_too_large"
		}
		writeError(w, status, code, err)
		return
	}

	res, err := h.predictor.Predict(ctx, batch)
	if err != nil {
		// The service has already logged the cause.
		writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "internal_error", Message: predictionFailed})
		return
	}

	writeJSON(w, http.StatusOK, predictResponse{
		Predictions: res.Prediction(),
		Labels:      res.Labels,
		Version:     res.Version,
		Errors:      res.Errors,
	})
}

func (h *PredictHandler) decode(w http.ResponseWriter, r *http.Request) (table.Table, int, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	dec.UseNumber()

	var req predictRequest
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return table.Table{}, http.StatusRequestEntityTooLarge,
				fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, tooLarge.Limit)
		}
		return table.Table{}, http.StatusBadRequest, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if req.Inputs == nil {
		return table.Table{}, http.StatusBadRequest, ErrMissingInputs
	}

	return table.New(schema.FieldNames(), *req.Inputs), http.StatusOK, nil
}
