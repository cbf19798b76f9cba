package mismatch

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/mismatch"
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
)

type ReviewServiceImpl struct {
	mismatch.Repository
}

func NewReviewService(mismatchRepository mismatch.Repository) mismatch.ReviewService {
	return &ReviewServiceImpl{
		Repository: mismatchRepository,
	}
}

type caller struct {
	userID     string
	employeeID string
	role       user.Role
}

func (c caller) can(p user.Permission) bool {
	return user.HasPermission(c.role, p)
}

func callerFromContext(ctx context.Context) (caller, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return caller{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}

	var c caller
	c.userID, _ = claims["user_id"].(string)
	c.employeeID, _ = claims["employee_id"].(string)
	role, _ := claims["role"].(string)
	c.role = user.Role(role)
	return c, nil
}

// ListMismatches implements mismatch.ReviewService.
// Callers without mismatch.view_all only ever see their own records.
func (s *ReviewServiceImpl) ListMismatches(ctx context.Context, filter mismatch.MismatchFilter) (mismatch.ListMismatchResponse, error) {
	c, err := callerFromContext(ctx)
	if err != nil {
		return mismatch.ListMismatchResponse{}, err
	}

	if err := filter.Validate(); err != nil {
		return mismatch.ListMismatchResponse{}, err
	}

	if !c.can(user.PermissionMismatchViewAll) {
		if c.employeeID == "" {
			return mismatch.ListMismatchResponse{}, mismatch.ErrWorkerIdentityRequired
		}
		filter.WorkerID = &c.employeeID
	}

	records, total, err := s.Repository.List(ctx, filter)
	if err != nil {
		return mismatch.ListMismatchResponse{}, fmt.Errorf("failed to list mismatches: %w", err)
	}

	responses := make([]mismatch.MismatchResponse, 0, len(records))
	for _, m := range records {
		responses = append(responses, mapMismatchToResponse(m))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", (filter.Page-1)*filter.Limit+1, min(filter.Page*filter.Limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return mismatch.ListMismatchResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Showing:    showing,
		Mismatches: responses,
	}, nil
}

// GetMismatch implements mismatch.ReviewService.
func (s *ReviewServiceImpl) GetMismatch(ctx context.Context, id string) (mismatch.MismatchResponse, error) {
	c, err := callerFromContext(ctx)
	if err != nil {
		return mismatch.MismatchResponse{}, err
	}

	m, err := s.Repository.GetByID(ctx, id)
	if err != nil {
		return mismatch.MismatchResponse{}, err
	}

	if !c.can(user.PermissionMismatchViewAll) && m.WorkerID != c.employeeID {
		return mismatch.MismatchResponse{}, mismatch.ErrNotMismatchOwner
	}

	return mapMismatchToResponse(m), nil
}

// SubmitExplanation implements mismatch.ReviewService.
func (s *ReviewServiceImpl) SubmitExplanation(ctx context.Context, req mismatch.SubmitExplanationRequest) (mismatch.MismatchResponse, error) {
	c, err := callerFromContext(ctx)
	if err != nil {
		return mismatch.MismatchResponse{}, err
	}
	if c.employeeID == "" {
		return mismatch.MismatchResponse{}, mismatch.ErrWorkerIdentityRequired
	}

	if err := req.Validate(); err != nil {
		return mismatch.MismatchResponse{}, err
	}

	m, err := s.Repository.GetByID(ctx, req.ID)
	if err != nil {
		return mismatch.MismatchResponse{}, err
	}

	// Only the worker the mismatch belongs to may explain it
	if m.WorkerID != c.employeeID {
		return mismatch.MismatchResponse{}, mismatch.ErrNotMismatchOwner
	}

	switch m.State() {
	case mismatch.StateApproved, mismatch.StateRejected:
		return mismatch.MismatchResponse{}, mismatch.ErrMismatchAlreadyDecided
	}

	now := time.Now().UTC()
	explanation := strings.TrimSpace(req.Explanation)
	if err := s.Repository.SaveExplanation(ctx, m.ID, explanation, now); err != nil {
		return mismatch.MismatchResponse{}, err
	}

	m.Explanation = &explanation
	m.ExplainedAt = &now

	slog.Info("Mismatch explained", "mismatch_id", m.ID, "worker_id", m.WorkerID, "category", m.Category)
	return mapMismatchToResponse(m), nil
}

// DecideMismatch implements mismatch.ReviewService.
func (s *ReviewServiceImpl) DecideMismatch(ctx context.Context, req mismatch.DecideMismatchRequest) (mismatch.MismatchResponse, error) {
	c, err := callerFromContext(ctx)
	if err != nil {
		return mismatch.MismatchResponse{}, err
	}
	if !c.can(user.PermissionMismatchDecide) {
		return mismatch.MismatchResponse{}, user.ErrManagerAccessRequired
	}
	if c.userID == "" {
		return mismatch.MismatchResponse{}, mismatch.ErrReviewerIdentityMissing
	}

	if err := req.Validate(); err != nil {
		return mismatch.MismatchResponse{}, err
	}

	m, err := s.Repository.GetByID(ctx, req.ID)
	if err != nil {
		return mismatch.MismatchResponse{}, err
	}

	switch m.State() {
	case mismatch.StatePending:
		return mismatch.MismatchResponse{}, mismatch.ErrExplanationRequired
	case mismatch.StateApproved, mismatch.StateRejected:
		return mismatch.MismatchResponse{}, mismatch.ErrMismatchAlreadyDecided
	}

	decision := mismatch.Decision(strings.ToLower(req.Decision))
	var note *string
	if req.Note != nil {
		trimmed := strings.TrimSpace(*req.Note)
		if trimmed != "" {
			note = &trimmed
		}
	}

	now := time.Now().UTC()
	if err := s.Repository.SaveDecision(ctx, m.ID, decision, note, c.userID, now); err != nil {
		return mismatch.MismatchResponse{}, err
	}

	m.Decision = decision
	m.DecisionNote = note
	m.DecidedBy = &c.userID
	m.DecidedAt = &now

	slog.Info("Mismatch decided",
		"mismatch_id", m.ID,
		"worker_id", m.WorkerID,
		"decision", decision,
		"decided_by", c.userID,
	)
	return mapMismatchToResponse(m), nil
}

func mapMismatchToResponse(m mismatch.Mismatch) mismatch.MismatchResponse {
	var explainedAt, decidedAt *string
	if m.ExplainedAt != nil {
		v := m.ExplainedAt.Format(time.RFC3339)
		explainedAt = &v
	}
	if m.DecidedAt != nil {
		v := m.DecidedAt.Format(time.RFC3339)
		decidedAt = &v
	}

	return mismatch.MismatchResponse{
		ID:             m.ID,
		RunID:          m.RunID,
		WorkerID:       m.WorkerID,
		Date:           m.Date.Format("2006-01-02"),
		Category:       string(m.Category),
		Severity:       string(m.Severity),
		State:          string(m.State()),
		Detail:         m.Detail,
		Recommendation: m.Recommendation,
		Explanation:    m.Explanation,
		Decision:       string(m.Decision),
		DecisionNote:   m.DecisionNote,
		DecidedBy:      m.DecidedBy,
		CreatedAt:      m.CreatedAt.Format(time.RFC3339),
		ExplainedAt:    explainedAt,
		DecidedAt:      decidedAt,
	}
}
