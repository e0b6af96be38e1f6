// Package redis provides a Redis-backed execution-record store. It covers
// deployments that keep workflow definitions in PostgreSQL but want the
// idempotency guard on a store with cheaper conditional inserts: SET NX is
// the cross-process arbiter for concurrent dispatches of the same event.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/atelierhq/pulse/pkg/models"
	"github.com/atelierhq/pulse/pkg/persistence"
	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "pulse:executions:"

// ExecutionRepository implements persistence.ExecutionRepository on Redis.
// Records are retained indefinitely; expiry is a deployment concern.
type ExecutionRepository struct {
	client redis.UniversalClient
}

// NewExecutionRepository wraps an existing Redis client.
func NewExecutionRepository(client redis.UniversalClient) *ExecutionRepository {
	return &ExecutionRepository{client: client}
}

// NewExecutionRepositoryFromURL connects using a redis:// URL.
func NewExecutionRepositoryFromURL(ctx context.Context, url string) (*ExecutionRepository, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(options)

	err = client.Ping(ctx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &ExecutionRepository{client: client}, nil
}

func recordKey(workflowID, dedupKey string) string {
	return keyPrefix + workflowID + ":" + dedupKey
}

func indexKey(workflowID string) string {
	return keyPrefix + "by-workflow:" + workflowID
}

func (r *ExecutionRepository) TryInsert(ctx context.Context, record *models.ExecutionRecord) (bool, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return false, fmt.Errorf("failed to encode execution record: %w", err)
	}

	inserted, err := r.client.SetNX(ctx, recordKey(record.WorkflowID, record.DedupKey), payload, 0).Result()
	if err != nil {
		return false, persistence.NewExecutionError("TryInsert", record.ID, err)
	}

	if !inserted {
		return false, nil
	}

	// Index for ListByWorkflow, scored by start time. Best effort: a failed
	// index write never undoes the reservation.
	err = r.client.ZAdd(ctx, indexKey(record.WorkflowID), redis.Z{
		Score:  float64(record.StartedAt.UnixNano()),
		Member: record.DedupKey,
	}).Err()
	if err != nil {
		return true, persistence.NewExecutionError("TryInsert", record.ID, err)
	}

	return true, nil
}

func (r *ExecutionRepository) Update(ctx context.Context, record *models.ExecutionRecord) error {
	key := recordKey(record.WorkflowID, record.DedupKey)

	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return persistence.NewExecutionError("Update", record.ID, err)
	}

	if exists == 0 {
		return persistence.NewExecutionError("Update", record.ID, persistence.ErrExecutionNotFound)
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode execution record: %w", err)
	}

	err = r.client.Set(ctx, key, payload, 0).Err()
	if err != nil {
		return persistence.NewExecutionError("Update", record.ID, err)
	}

	return nil
}

func (r *ExecutionRepository) GetByDedupKey(ctx context.Context, workflowID, dedupKey string) (*models.ExecutionRecord, error) {
	payload, err := r.client.Get(ctx, recordKey(workflowID, dedupKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.NewExecutionError("GetByDedupKey", dedupKey, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("GetByDedupKey", dedupKey, err)
	}

	var record models.ExecutionRecord

	err = json.Unmarshal(payload, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to decode execution record: %w", err)
	}

	return &record, nil
}

func (r *ExecutionRepository) ListByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.ExecutionRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	dedupKeys, err := r.client.ZRevRange(ctx, indexKey(workflowID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, persistence.NewExecutionError("ListByWorkflow", workflowID, err)
	}

	records := make([]*models.ExecutionRecord, 0, len(dedupKeys))

	for _, dedupKey := range dedupKeys {
		record, err := r.GetByDedupKey(ctx, workflowID, dedupKey)
		if err != nil {
			if persistence.IsExecutionNotFound(err) {
				continue
			}

			return nil, err
		}

		records = append(records, record)
	}

	return records, nil
}

// Close releases the underlying client connection.
func (r *ExecutionRepository) Close() error {
	return r.client.Close()
}
