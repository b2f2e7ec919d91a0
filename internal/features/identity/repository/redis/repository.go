package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sharematch-backend/internal/features/identity/models"
	"sharematch-backend/internal/features/identity/repository"
)

type userRepository struct {
	client *redis.Client
}

func NewUserRepository(client *redis.Client) repository.Repository {
	return &userRepository{client: client}
}

func profileKey(userID string) string {
	return fmt.Sprintf("user:profile:%s", userID)
}

func (r *userRepository) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	raw, err := r.client.Get(ctx, profileKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	var profile models.UserProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *userRepository) SetFullName(ctx context.Context, userID, fullName string) error {
	key := profileKey(userID)

	txf := func(tx *redis.Tx) error {
		profile := &models.UserProfile{UserID: userID}
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil {
			if err := json.Unmarshal(raw, profile); err != nil {
				return err
			}
		}

		profile.FullName = fullName
		profile.UpdatedAt = time.Now().UTC()

		out, err := json.Marshal(profile)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		return err
	}

	for i := 0; i < 3; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err != redis.TxFailedErr {
			return err
		}
	}
	return fmt.Errorf("profile update of %s kept failing optimistic lock", userID)
}
