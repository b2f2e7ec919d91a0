package models

import "time"

// Provider review verdicts and statuses as they appear on the wire.
const (
	AnswerGreen = "GREEN"
	AnswerRed   = "RED"

	ReviewStatusInit      = "init"
	ReviewStatusPending   = "pending"
	ReviewStatusOnHold    = "onHold"
	ReviewStatusCompleted = "completed"

	RejectTypeFinal = "FINAL"
	RejectTypeRetry = "RETRY"
)

// Webhook event types handled by this service.
const (
	EventApplicantReviewed = "applicantReviewed"
	EventApplicantCreated  = "applicantCreated"
)

// ReviewEvent is the unified reconciliation input. Webhook deliveries,
// manual pushes and polled statuses all collapse into this shape before
// they reach the state machine.
type ReviewEvent struct {
	ApplicantID      string `json:"applicantId,omitempty"`
	LevelName        string `json:"levelName,omitempty"`
	ReviewAnswer     string `json:"reviewAnswer,omitempty"`
	ReviewStatus     string `json:"reviewStatus,omitempty"`
	ReviewRejectType string `json:"reviewRejectType,omitempty"`
}

// WebhookPayload is the raw body the provider posts to the webhook
// endpoint.
type WebhookPayload struct {
	Type           string `json:"type"`
	ExternalUserID string `json:"externalUserId"`
	ApplicantID    string `json:"applicantId"`
	LevelName      string `json:"levelName"`
	ReviewStatus   string `json:"reviewStatus"`
	ReviewResult   *struct {
		ReviewAnswer      string `json:"reviewAnswer"`
		ReviewRejectType  string `json:"reviewRejectType"`
		ModerationComment string `json:"moderationComment"`
	} `json:"reviewResult"`
	CreatedAtMs string `json:"createdAtMs"`
}

// Event flattens the webhook payload into a ReviewEvent.
func (p *WebhookPayload) Event() ReviewEvent {
	ev := ReviewEvent{
		ApplicantID:  p.ApplicantID,
		LevelName:    p.LevelName,
		ReviewStatus: p.ReviewStatus,
	}
	if p.ReviewResult != nil {
		ev.ReviewAnswer = p.ReviewResult.ReviewAnswer
		ev.ReviewRejectType = p.ReviewResult.ReviewRejectType
	}
	return ev
}

// StatusPushRequest is the body of the internal manual status push.
type StatusPushRequest struct {
	UserID           string `json:"userId" binding:"required"`
	ApplicantID      string `json:"applicantId"`
	LevelName        string `json:"levelName"`
	ReviewAnswer     string `json:"reviewAnswer"`
	ReviewStatus     string `json:"reviewStatus"`
	ReviewRejectType string `json:"reviewRejectType"`
}

// Event converts the push request into a ReviewEvent.
func (r *StatusPushRequest) Event() ReviewEvent {
	return ReviewEvent{
		ApplicantID:      r.ApplicantID,
		LevelName:        r.LevelName,
		ReviewAnswer:     r.ReviewAnswer,
		ReviewStatus:     r.ReviewStatus,
		ReviewRejectType: r.ReviewRejectType,
	}
}

// RejectionDetail is the live rejection context fetched from the provider
// for the status query.
type RejectionDetail struct {
	RejectType        string   `json:"rejectType,omitempty"`
	RejectLabels      []string `json:"rejectLabels,omitempty"`
	ModerationComment string   `json:"moderationComment,omitempty"`
}

// StatusResponse is the status-query façade output.
type StatusResponse struct {
	KycStatus        KycStatus        `json:"kycStatus"`
	OkToTrade        bool             `json:"okToTrade"`
	CoolingOffActive bool             `json:"coolingOffActive"`
	CoolingOffUntil  *time.Time       `json:"coolingOffUntil,omitempty"`
	CanResubmit      bool             `json:"canResubmit"`
	RejectionDetail  *RejectionDetail `json:"rejectionDetail,omitempty"`

	// Raw record fields surfaced for the UI.
	HasApplicant  bool       `json:"hasApplicant"`
	SumsubLevel   string     `json:"sumsubLevel,omitempty"`
	KycStartedAt  *time.Time `json:"kycStartedAt,omitempty"`
	KycReviewedAt *time.Time `json:"kycReviewedAt,omitempty"`
}

// StatusChangedEvent is published after every state-changing
// reconciliation pass.
type StatusChangedEvent struct {
	UserID     string    `json:"userId"`
	FromStatus KycStatus `json:"fromStatus"`
	ToStatus   KycStatus `json:"toStatus"`
	At         time.Time `json:"at"`
}

// NameVerifiedEvent is published when a verified legal name has been
// resolved for an approved user.
type NameVerifiedEvent struct {
	UserID   string    `json:"userId"`
	FullName string    `json:"fullName"`
	At       time.Time `json:"at"`
}
