package repository

import (
	"context"
	"errors"

	"sharematch-backend/internal/features/compliance/models"
)

// ErrNotFound is returned when no record exists for a user.
var ErrNotFound = errors.New("compliance record not found")

// Repository is the durable store of per-user compliance records. The
// reconciliation service is the only writer.
type Repository interface {
	// Get returns the record or ErrNotFound.
	Get(ctx context.Context, userID string) (*models.ComplianceRecord, error)

	// GetOrCreate returns the record, creating the zero-state record on
	// first contact. Creation is atomic: two concurrent first-contact
	// events for the same user yield exactly one record.
	GetOrCreate(ctx context.Context, userID string) (*models.ComplianceRecord, error)

	// Update applies a partial merge: only fields set in the patch
	// overwrite stored values.
	Update(ctx context.Context, userID string, patch models.RecordPatch) (*models.ComplianceRecord, error)
}
