package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sharematch-backend/internal/features/compliance/models"
	"sharematch-backend/internal/features/compliance/repository"
)

const maxUpdateRetries = 5

type complianceRepository struct {
	client *redis.Client
}

func NewComplianceRepository(client *redis.Client) repository.Repository {
	return &complianceRepository{client: client}
}

func recordKey(userID string) string {
	return fmt.Sprintf("kyc:record:%s", userID)
}

func (r *complianceRepository) Get(ctx context.Context, userID string) (*models.ComplianceRecord, error) {
	raw, err := r.client.Get(ctx, recordKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	var rec models.ComplianceRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *complianceRepository) GetOrCreate(ctx context.Context, userID string) (*models.ComplianceRecord, error) {
	fresh := models.NewRecord(userID, time.Now().UTC())
	raw, err := json.Marshal(fresh)
	if err != nil {
		return nil, err
	}

	// SetNX makes first contact race-free: whichever of two concurrent
	// events lands first creates the record, the other reads it back.
	created, err := r.client.SetNX(ctx, recordKey(userID), raw, 0).Result()
	if err != nil {
		return nil, err
	}
	if created {
		return fresh, nil
	}
	return r.Get(ctx, userID)
}

func (r *complianceRepository) Update(ctx context.Context, userID string, patch models.RecordPatch) (*models.ComplianceRecord, error) {
	key := recordKey(userID)
	var updated *models.ComplianceRecord

	// Optimistic read-merge-write: WATCH aborts the transaction if a
	// concurrent delivery touched the record between read and write.
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if err == redis.Nil {
				return repository.ErrNotFound
			}
			return err
		}

		var rec models.ComplianceRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}

		merged := patch.Apply(rec, time.Now().UTC())
		out, err := json.Marshal(&merged)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		if err == nil {
			updated = &merged
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if err == redis.TxFailedErr {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("update of %s aborted after %d retries", key, maxUpdateRetries)
}
