package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/reconciliation"
	"github.com/cmlabs-hris/hris-reconciliation/internal/handler/http/response"
)

type ReconciliationHandler interface {
	Run(w http.ResponseWriter, r *http.Request)
}

type ReconciliationHandlerImpl struct {
	reconciliationService reconciliation.Service
}

func NewReconciliationHandler(reconciliationService reconciliation.Service) ReconciliationHandler {
	return &ReconciliationHandlerImpl{
		reconciliationService: reconciliationService,
	}
}

// Run implements ReconciliationHandler. The run is synchronous; the summary is
// returned even when the request context is cancelled mid-sweep.
func (h *ReconciliationHandlerImpl) Run(w http.ResponseWriter, r *http.Request) {
	var req reconciliation.RunRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("RunReconciliation decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	summary, err := h.reconciliationService.RunReconciliation(r.Context(), req)
	if err != nil {
		if summary.Interrupted {
			response.Conflict(w, "Reconciliation run was interrupted; re-run the same range to resume")
			return
		}
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Reconciliation run completed", summary)
}
