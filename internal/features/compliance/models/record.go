package models

import "time"

// KycStatus is the verification state of a platform user.
type KycStatus string

const (
	StatusUnverified            KycStatus = "unverified"
	StatusStarted               KycStatus = "started"
	StatusPending               KycStatus = "pending"
	StatusOnHold                KycStatus = "on_hold"
	StatusApproved              KycStatus = "approved"
	StatusRejected              KycStatus = "rejected"
	StatusResubmissionRequested KycStatus = "resubmission_requested"
)

// IsTerminal reports whether the status is absorbing: once a verdict has
// posted, a bare "review completed" event must not downgrade it.
func (s KycStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// ComplianceRecord is the durable per-user verification record. It is
// mutated only through the reconciliation service; the query façade and
// everything else read it.
type ComplianceRecord struct {
	UserID string `json:"userId"`

	// Provider-side applicant id. Once bound it never changes for a user.
	ExternalApplicantID string `json:"externalApplicantId,omitempty"`

	// Verification tier requested from the provider.
	VerificationLevel string `json:"verificationLevel,omitempty"`

	Status KycStatus `json:"status"`

	// Set on the first transition away from unverified, never overwritten.
	StartedAt *time.Time `json:"startedAt,omitempty"`

	// Refreshed on every review decision from the provider.
	ReviewedAt *time.Time `json:"reviewedAt,omitempty"`

	// Set on approval; trading is allowed once it has passed.
	CoolingOffUntil *time.Time `json:"coolingOffUntil,omitempty"`

	// Verified legal name from the provider, populated on approval.
	VerifiedFullName string `json:"verifiedFullName,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewRecord returns the zero-state record created on first contact.
func NewRecord(userID string, now time.Time) *ComplianceRecord {
	return &ComplianceRecord{
		UserID:    userID,
		Status:    StatusUnverified,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RecordPatch is a partial update to a ComplianceRecord. Nil fields keep
// their stored values, so independent event types can each write their
// own disjoint subset.
type RecordPatch struct {
	ExternalApplicantID *string    `json:"externalApplicantId,omitempty"`
	VerificationLevel   *string    `json:"verificationLevel,omitempty"`
	Status              *KycStatus `json:"status,omitempty"`
	StartedAt           *time.Time `json:"startedAt,omitempty"`
	ReviewedAt          *time.Time `json:"reviewedAt,omitempty"`
	CoolingOffUntil     *time.Time `json:"coolingOffUntil,omitempty"`
	VerifiedFullName    *string    `json:"verifiedFullName,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p *RecordPatch) IsEmpty() bool {
	return p.ExternalApplicantID == nil &&
		p.VerificationLevel == nil &&
		p.Status == nil &&
		p.StartedAt == nil &&
		p.ReviewedAt == nil &&
		p.CoolingOffUntil == nil &&
		p.VerifiedFullName == nil
}

// Apply merges the patch into a copy of the record.
func (p *RecordPatch) Apply(rec ComplianceRecord, now time.Time) ComplianceRecord {
	if p.ExternalApplicantID != nil {
		rec.ExternalApplicantID = *p.ExternalApplicantID
	}
	if p.VerificationLevel != nil {
		rec.VerificationLevel = *p.VerificationLevel
	}
	if p.Status != nil {
		rec.Status = *p.Status
	}
	if p.StartedAt != nil {
		rec.StartedAt = p.StartedAt
	}
	if p.ReviewedAt != nil {
		rec.ReviewedAt = p.ReviewedAt
	}
	if p.CoolingOffUntil != nil {
		rec.CoolingOffUntil = p.CoolingOffUntil
	}
	if p.VerifiedFullName != nil {
		rec.VerifiedFullName = *p.VerifiedFullName
	}
	rec.UpdatedAt = now
	return rec
}
