package service

import (
	"context"

	"sharematch-backend/internal/features/compliance/models"
)

// Provider is the identity-verification provider surface this service
// consumes. Both methods degrade to their zero value on failure: the
// provider being unreachable must never fail a reconciliation or a
// status query.
type Provider interface {
	FetchApplicantVerifiedName(ctx context.Context, applicantID string) string
	RejectionDetail(ctx context.Context, applicantID string) *models.RejectionDetail
}

// IdentityLinker propagates the verified legal name into the
// user-identity store and the auth identity provider, best-effort.
type IdentityLinker interface {
	SyncVerifiedName(ctx context.Context, userID, fullName string)
}

// EventPublisher emits compliance events for downstream consumers.
type EventPublisher interface {
	Publish(topic string, event interface{})
}

// Outcome describes what a reconciliation pass did.
type Outcome struct {
	From    models.KycStatus `json:"from"`
	To      models.KycStatus `json:"to"`
	Changed bool             `json:"changed"`
}

// ComplianceService owns the verification state machine. Reconcile is
// the only write path to the compliance record; GetStatus is the
// read-side façade.
type ComplianceService interface {
	Reconcile(ctx context.Context, userID string, event models.ReviewEvent) (*Outcome, error)
	GetStatus(ctx context.Context, userID string) (*models.StatusResponse, error)
}
