package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/mismatch"
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/reconciliation"
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/user"
	"github.com/cmlabs-hris/hris-reconciliation/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	handlerTestAccessExp = "1h"
	handlerTestSecret    = "test-secret-key-for-jwt"
)

type stubReconciliationService struct {
	summary reconciliation.RunSummary
	err     error
	got     []reconciliation.RunRequest
}

func (s *stubReconciliationService) RunReconciliation(ctx context.Context, req reconciliation.RunRequest) (reconciliation.RunSummary, error) {
	s.got = append(s.got, req)
	return s.summary, s.err
}

type stubReviewService struct {
	list    mismatch.ListMismatchResponse
	item    mismatch.MismatchResponse
	err     error
	filters []mismatch.MismatchFilter
}

func (s *stubReviewService) ListMismatches(ctx context.Context, filter mismatch.MismatchFilter) (mismatch.ListMismatchResponse, error) {
	s.filters = append(s.filters, filter)
	return s.list, s.err
}

func (s *stubReviewService) GetMismatch(ctx context.Context, id string) (mismatch.MismatchResponse, error) {
	return s.item, s.err
}

func (s *stubReviewService) SubmitExplanation(ctx context.Context, req mismatch.SubmitExplanationRequest) (mismatch.MismatchResponse, error) {
	return s.item, s.err
}

func (s *stubReviewService) DecideMismatch(ctx context.Context, req mismatch.DecideMismatchRequest) (mismatch.MismatchResponse, error) {
	return s.item, s.err
}

func newTestRouter(t *testing.T, recon *stubReconciliationService, review *stubReviewService) (*chi.Mux, jwt.Service) {
	t.Helper()
	jwtService := jwt.NewJWTService(handlerTestSecret, handlerTestAccessExp)
	r := NewRouter(
		RouterOptions{AppName: "hris-reconciliation-test", Version: "test", Env: "test", AllowedOrigins: []string{"*"}},
		jwtService,
		NewReconciliationHandler(recon),
		NewMismatchHandler(review),
	)
	return r, jwtService
}

func doRequest(t *testing.T, h http.Handler, token, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var payload map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &payload)
	return w, payload
}

func tokenFor(t *testing.T, js jwt.Service, role user.Role, userID, employeeID string) string {
	t.Helper()
	token, _, err := js.GenerateAccessToken(userID, employeeID, role)
	require.NoError(t, err)
	return token
}

func TestReconciliationHandler_Run_Success(t *testing.T) {
	recon := &stubReconciliationService{summary: reconciliation.RunSummary{RunID: "run-1", MismatchesCreated: 3}}
	router, js := newTestRouter(t, recon, &stubReviewService{})

	w, payload := doRequest(t, router, tokenFor(t, js, user.RoleManager, "U9", "W9"), http.MethodPost, "/api/v1/reconciliations/run",
		map[string]interface{}{"start_date": "2025-09-01", "end_date": "2025-09-30"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, payload["success"])
	data := payload["data"].(map[string]interface{})
	assert.Equal(t, "run-1", data["run_id"])
	assert.Equal(t, float64(3), data["mismatches_created"])
	require.Len(t, recon.got, 1)
	assert.Equal(t, "2025-09-01", recon.got[0].StartDate)
}

func TestReconciliationHandler_Run_EmployeeForbidden(t *testing.T) {
	recon := &stubReconciliationService{}
	router, js := newTestRouter(t, recon, &stubReviewService{})

	w, _ := doRequest(t, router, tokenFor(t, js, user.RoleEmployee, "U1", "W1"), http.MethodPost, "/api/v1/reconciliations/run",
		map[string]interface{}{"start_date": "2025-09-01", "end_date": "2025-09-30"})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, recon.got)
}

func TestReconciliationHandler_Run_Unauthenticated(t *testing.T) {
	router, _ := newTestRouter(t, &stubReconciliationService{}, &stubReviewService{})

	w, _ := doRequest(t, router, "", http.MethodPost, "/api/v1/reconciliations/run",
		map[string]interface{}{"start_date": "2025-09-01", "end_date": "2025-09-30"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReconciliationHandler_Run_ValidationError(t *testing.T) {
	recon := &stubReconciliationService{}
	router, js := newTestRouter(t, recon, &stubReviewService{})

	w, payload := doRequest(t, router, tokenFor(t, js, user.RoleOwner, "U1", "W1"), http.MethodPost, "/api/v1/reconciliations/run",
		map[string]interface{}{"start_date": "09/01/2025", "end_date": "2025-09-30"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	errDetail := payload["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", errDetail["code"])
	assert.Empty(t, recon.got)
}

func TestReconciliationHandler_Run_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{reconciliation.ErrRunInProgress, http.StatusConflict},
		{reconciliation.ErrRangeTooLarge, http.StatusBadRequest},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			router, js := newTestRouter(t, &stubReconciliationService{err: tt.err}, &stubReviewService{})

			w, _ := doRequest(t, router, tokenFor(t, js, user.RoleManager, "U9", "W9"), http.MethodPost, "/api/v1/reconciliations/run",
				map[string]interface{}{"start_date": "2025-09-01", "end_date": "2025-09-30"})

			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestMismatchHandler_List(t *testing.T) {
	review := &stubReviewService{list: mismatch.ListMismatchResponse{TotalCount: 1, Page: 2, Limit: 5, TotalPages: 1}}
	router, js := newTestRouter(t, &stubReconciliationService{}, review)

	w, payload := doRequest(t, router, tokenFor(t, js, user.RoleEmployee, "U1", "W1"), http.MethodGet,
		"/api/v1/mismatches?severity=high&page=2&limit=5&sort_by=severity", nil)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, review.filters, 1)
	assert.Equal(t, "high", *review.filters[0].Severity)
	assert.Equal(t, 2, review.filters[0].Page)
	assert.Equal(t, 5, review.filters[0].Limit)
	assert.Equal(t, "severity", review.filters[0].SortBy)
	meta := payload["meta"].(map[string]interface{})
	assert.Equal(t, float64(1), meta["total_items"])
}

func TestMismatchHandler_Get_NotFound(t *testing.T) {
	router, js := newTestRouter(t, &stubReconciliationService{}, &stubReviewService{err: mismatch.ErrMismatchNotFound})

	w, _ := doRequest(t, router, tokenFor(t, js, user.RoleEmployee, "U1", "W1"), http.MethodGet, "/api/v1/mismatches/m1", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMismatchHandler_SubmitExplanation(t *testing.T) {
	review := &stubReviewService{item: mismatch.MismatchResponse{ID: "m1", State: "explained"}}
	router, js := newTestRouter(t, &stubReconciliationService{}, review)
	token := tokenFor(t, js, user.RoleEmployee, "U1", "W1")

	w, _ := doRequest(t, router, token, http.MethodPost, "/api/v1/mismatches/m1/explanation", map[string]string{"explanation": "client visit"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doRequest(t, router, token, http.MethodPost, "/api/v1/mismatches/m1/explanation", map[string]string{"explanation": ""})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	review.err = mismatch.ErrNotMismatchOwner
	w, _ = doRequest(t, router, token, http.MethodPost, "/api/v1/mismatches/m1/explanation", map[string]string{"explanation": "client visit"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMismatchHandler_Decide(t *testing.T) {
	review := &stubReviewService{item: mismatch.MismatchResponse{ID: "m1", State: "approved", Decision: "approved"}}
	router, js := newTestRouter(t, &stubReconciliationService{}, review)

	// Employees cannot decide
	w, _ := doRequest(t, router, tokenFor(t, js, user.RoleEmployee, "U1", "W1"), http.MethodPost, "/api/v1/mismatches/m1/decision", map[string]string{"decision": "approved"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	manager := tokenFor(t, js, user.RoleManager, "U9", "W9")
	w, payload := doRequest(t, router, manager, http.MethodPost, "/api/v1/mismatches/m1/decision", map[string]string{"decision": "approved"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Mismatch approved successfully", payload["message"])

	review.err = mismatch.ErrExplanationRequired
	w, _ = doRequest(t, router, manager, http.MethodPost, "/api/v1/mismatches/m1/decision", map[string]string{"decision": "approved"})
	assert.Equal(t, http.StatusConflict, w.Code)
}
