package models

import "time"

// UserProfile is the platform-side identity record this service reads
// the auth linkage from and writes the verified name into. The rest of
// the profile is owned by the account service.
type UserProfile struct {
	UserID         string    `json:"userId"`
	AuthProviderID string    `json:"authProviderId,omitempty"`
	Email          string    `json:"email,omitempty"`
	FullName       string    `json:"fullName,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
