package service

import (
	"context"
	"time"

	"sharematch-backend/internal/common/logger"
	compliance "sharematch-backend/internal/features/compliance/models"
	"sharematch-backend/internal/features/identity/repository"
)

// AuthDirectory pushes display-name metadata to the external auth
// identity provider.
type AuthDirectory interface {
	Enabled() bool
	UpdateDisplayName(ctx context.Context, authProviderID, displayName string) error
}

// EventPublisher emits identity events for downstream consumers.
type EventPublisher interface {
	Publish(topic string, event interface{})
}

// LinkageService propagates the verified legal name into the
// user-identity store and the auth identity provider. Every step is
// best-effort: a failed propagation is logged and never rolls back the
// compliance status change that triggered it.
type LinkageService interface {
	SyncVerifiedName(ctx context.Context, userID, fullName string)
}

type linkageService struct {
	users     repository.Repository
	directory AuthDirectory
	events    EventPublisher
}

func NewLinkageService(users repository.Repository, directory AuthDirectory, events EventPublisher) LinkageService {
	return &linkageService{
		users:     users,
		directory: directory,
		events:    events,
	}
}

func (s *linkageService) SyncVerifiedName(ctx context.Context, userID, fullName string) {
	if fullName == "" {
		return
	}

	if err := s.users.SetFullName(ctx, userID, fullName); err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("Verified name write to identity store failed")
	}

	if s.directory.Enabled() {
		profile, err := s.users.Get(ctx, userID)
		switch {
		case err != nil:
			logger.Warn().Err(err).Str("user_id", userID).Msg("Profile lookup for auth linkage failed")
		case profile.AuthProviderID == "":
			logger.Warn().Str("user_id", userID).Msg("No auth linkage id on profile, skipping display-name push")
		default:
			if err := s.directory.UpdateDisplayName(ctx, profile.AuthProviderID, fullName); err != nil {
				logger.Warn().Err(err).Str("user_id", userID).Msg("Display-name push to auth provider failed")
			}
		}
	}

	s.events.Publish("name.verified", compliance.NameVerifiedEvent{
		UserID:   userID,
		FullName: fullName,
		At:       time.Now().UTC(),
	})
}
