package service

import (
	"context"
	"time"

	"sharematch-backend/internal/common/errors"
	"sharematch-backend/internal/common/logger"
	"sharematch-backend/internal/features/compliance/models"
	"sharematch-backend/internal/features/compliance/repository"
)

const nameSyncTimeout = 30 * time.Second

type complianceService struct {
	repo       repository.Repository
	provider   Provider
	linker     IdentityLinker
	events     EventPublisher
	coolingOff time.Duration
	now        func() time.Time
}

func NewComplianceService(repo repository.Repository, provider Provider, linker IdentityLinker, events EventPublisher, coolingOff time.Duration) ComplianceService {
	return &complianceService{
		repo:       repo,
		provider:   provider,
		linker:     linker,
		events:     events,
		coolingOff: coolingOff,
		now:        time.Now,
	}
}

// Reconcile folds a provider event into the stored record. Webhook
// deliveries, manual pushes and polled statuses all come through here,
// so duplicate and out-of-order arrivals are the normal case, not the
// exception.
func (s *complianceService) Reconcile(ctx context.Context, userID string, event models.ReviewEvent) (*Outcome, error) {
	rec, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreError, "Failed to load compliance record")
	}

	patch := s.decide(rec, event)
	if patch.IsEmpty() {
		// Replayed or unrecognized event: succeed without touching the
		// store so duplicate deliveries cannot corrupt timestamps.
		logger.Debug().
			Str("user_id", userID).
			Str("status", string(rec.Status)).
			Msg("Reconciliation no-op")
		return &Outcome{From: rec.Status, To: rec.Status}, nil
	}

	updated, err := s.repo.Update(ctx, userID, patch)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreError, "Failed to update compliance record")
	}

	outcome := &Outcome{From: rec.Status, To: updated.Status, Changed: rec.Status != updated.Status}

	logger.Info().
		Str("user_id", userID).
		Str("from_status", string(outcome.From)).
		Str("to_status", string(outcome.To)).
		Str("applicant_id", updated.ExternalApplicantID).
		Str("review_answer", event.ReviewAnswer).
		Str("review_status", event.ReviewStatus).
		Msg("Compliance record reconciled")

	if outcome.Changed {
		s.events.Publish("status.changed", models.StatusChangedEvent{
			UserID:     userID,
			FromStatus: outcome.From,
			ToStatus:   outcome.To,
			At:         s.now().UTC(),
		})
	}

	// On approval, resolve the verified legal name off the request path.
	// A slow provider must not hold up the webhook ack past the
	// redelivery timeout.
	if outcome.Changed && updated.Status == models.StatusApproved && updated.ExternalApplicantID != "" {
		go s.syncVerifiedName(userID, updated.ExternalApplicantID)
	}

	return outcome, nil
}

// decide maps (current record, incoming event) to a partial update. An
// answer, when present, always wins over a bare review status.
func (s *complianceService) decide(rec *models.ComplianceRecord, event models.ReviewEvent) models.RecordPatch {
	now := s.now().UTC()
	patch := models.RecordPatch{}

	if event.ApplicantID != "" {
		switch rec.ExternalApplicantID {
		case "":
			patch.ExternalApplicantID = &event.ApplicantID
		case event.ApplicantID:
			// Already bound.
		default:
			// A user maps to exactly one applicant once bound. Keep the
			// existing binding and flag the anomaly for offline review.
			logger.Error().
				Str("user_id", rec.UserID).
				Str("bound_applicant_id", rec.ExternalApplicantID).
				Str("event_applicant_id", event.ApplicantID).
				Msg("Applicant id mismatch, keeping existing binding")
		}
	}
	if event.LevelName != "" && event.LevelName != rec.VerificationLevel {
		patch.VerificationLevel = &event.LevelName
	}

	setStatus := func(target models.KycStatus) {
		if rec.Status != target {
			patch.Status = &target
			if target != models.StatusUnverified && rec.StartedAt == nil {
				patch.StartedAt = &now
			}
		}
	}

	switch {
	case event.ReviewAnswer == models.AnswerGreen:
		setStatus(models.StatusApproved)
		if rec.Status != models.StatusApproved {
			// Cooling-off starts on the transition into approved only; a
			// replayed GREEN must not extend the window.
			until := now.Add(s.coolingOff)
			patch.CoolingOffUntil = &until
		}
		patch.ReviewedAt = &now

	case event.ReviewAnswer == models.AnswerRed:
		if event.ReviewRejectType == models.RejectTypeFinal {
			setStatus(models.StatusRejected)
		} else {
			setStatus(models.StatusResubmissionRequested)
		}
		patch.ReviewedAt = &now

	case event.ReviewStatus == models.ReviewStatusInit,
		event.ReviewStatus == models.ReviewStatusPending:
		setStatus(models.StatusStarted)
		if rec.StartedAt == nil && patch.StartedAt == nil {
			patch.StartedAt = &now
		}

	case event.ReviewStatus == models.ReviewStatusOnHold:
		setStatus(models.StatusOnHold)

	case event.ReviewStatus == models.ReviewStatusCompleted:
		// The provider's queue is done but no verdict has posted. Holding
		// state, except that it must not claw back a posted verdict when
		// events arrive out of order.
		if !rec.Status.IsTerminal() {
			setStatus(models.StatusPending)
		}
		patch.ReviewedAt = &now

	case event.ApplicantID != "":
		// Bare applicant-created contact: bookkeeping only.
		if rec.StartedAt == nil {
			patch.StartedAt = &now
		}
	}

	return patch
}

// syncVerifiedName fetches the verified name and propagates it. Runs
// detached from the webhook request.
func (s *complianceService) syncVerifiedName(userID, applicantID string) {
	ctx, cancel := context.WithTimeout(context.Background(), nameSyncTimeout)
	defer cancel()

	name := s.provider.FetchApplicantVerifiedName(ctx, applicantID)
	if name == "" {
		logger.Warn().
			Str("user_id", userID).
			Str("applicant_id", applicantID).
			Msg("No verified name available from provider")
		return
	}

	fullName := name
	if _, err := s.repo.Update(ctx, userID, models.RecordPatch{VerifiedFullName: &fullName}); err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("Verified name write to compliance record failed")
	}

	s.linker.SyncVerifiedName(ctx, userID, fullName)
}

// GetStatus computes the derived trading-eligibility view of a record.
// This is the one read path allowed to call the provider synchronously,
// and only to enrich rejection detail.
func (s *complianceService) GetStatus(ctx context.Context, userID string) (*models.StatusResponse, error) {
	rec, err := s.repo.Get(ctx, userID)
	if err != nil {
		if err == repository.ErrNotFound {
			return &models.StatusResponse{KycStatus: models.StatusUnverified}, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeStoreError, "Failed to load compliance record")
	}

	now := s.now().UTC()
	resp := &models.StatusResponse{
		KycStatus:       rec.Status,
		CoolingOffUntil: rec.CoolingOffUntil,
		HasApplicant:    rec.ExternalApplicantID != "",
		SumsubLevel:     rec.VerificationLevel,
		KycStartedAt:    rec.StartedAt,
		KycReviewedAt:   rec.ReviewedAt,
	}

	if rec.Status == models.StatusApproved {
		coolingOver := rec.CoolingOffUntil == nil || !rec.CoolingOffUntil.After(now)
		resp.OkToTrade = coolingOver
		resp.CoolingOffActive = !coolingOver
	}

	if rec.Status == models.StatusRejected || rec.Status == models.StatusResubmissionRequested {
		if rec.ExternalApplicantID != "" {
			if detail := s.provider.RejectionDetail(ctx, rec.ExternalApplicantID); detail != nil {
				resp.CanResubmit = detail.RejectType != models.RejectTypeFinal
				resp.RejectionDetail = detail
			} else {
				// Provider unreachable: trading-eligibility checks stay
				// available, so fall back to the stored status.
				resp.CanResubmit = rec.Status == models.StatusResubmissionRequested
			}
		}
	}

	return resp, nil
}
