package mismatch

import (
	"context"
)

// ReviewService drives the explanation and manager review workflow on mismatch records.
type ReviewService interface {
	// ListMismatches retrieves mismatches with filters (manager)
	ListMismatches(ctx context.Context, filter MismatchFilter) (ListMismatchResponse, error)

	// GetMismatch retrieves a single mismatch by ID
	GetMismatch(ctx context.Context, id string) (MismatchResponse, error)

	// SubmitExplanation stores the worker's reason; pending -> explained
	SubmitExplanation(ctx context.Context, req SubmitExplanationRequest) (MismatchResponse, error)

	// DecideMismatch approves or rejects an explained mismatch
	DecideMismatch(ctx context.Context, req DecideMismatchRequest) (MismatchResponse, error)
}
