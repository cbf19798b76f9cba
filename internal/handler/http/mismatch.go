package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/mismatch"
	"github.com/cmlabs-hris/hris-reconciliation/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type MismatchHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	SubmitExplanation(w http.ResponseWriter, r *http.Request)
	Decide(w http.ResponseWriter, r *http.Request)
}

type MismatchHandlerImpl struct {
	reviewService mismatch.ReviewService
}

func NewMismatchHandler(reviewService mismatch.ReviewService) MismatchHandler {
	return &MismatchHandlerImpl{
		reviewService: reviewService,
	}
}

// List implements MismatchHandler.
func (h *MismatchHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := mismatch.MismatchFilter{}

	if workerID := q.Get("worker_id"); workerID != "" {
		filter.WorkerID = &workerID
	}
	if startDate := q.Get("start_date"); startDate != "" {
		filter.StartDate = &startDate
	}
	if endDate := q.Get("end_date"); endDate != "" {
		filter.EndDate = &endDate
	}
	if category := q.Get("category"); category != "" {
		filter.Category = &category
	}
	if severity := q.Get("severity"); severity != "" {
		filter.Severity = &severity
	}
	if state := q.Get("state"); state != "" {
		filter.State = &state
	}

	// Pagination
	if pageStr := q.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			filter.Page = p
		}
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			filter.Limit = l
		}
	}

	// Sorting
	filter.SortBy = q.Get("sort_by")
	filter.SortOrder = q.Get("sort_order")

	result, err := h.reviewService.ListMismatches(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: result.TotalPages,
	})
}

// Get implements MismatchHandler.
func (h *MismatchHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Mismatch ID is required", nil)
		return
	}

	result, err := h.reviewService.GetMismatch(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// SubmitExplanation implements MismatchHandler.
func (h *MismatchHandlerImpl) SubmitExplanation(w http.ResponseWriter, r *http.Request) {
	var req mismatch.SubmitExplanationRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("SubmitExplanation decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.reviewService.SubmitExplanation(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Explanation submitted successfully", result)
}

// Decide implements MismatchHandler.
func (h *MismatchHandlerImpl) Decide(w http.ResponseWriter, r *http.Request) {
	var req mismatch.DecideMismatchRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("DecideMismatch decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.reviewService.DecideMismatch(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Mismatch "+result.Decision+" successfully", result)
}
