package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const statusTTL = 12 * time.Hour

// RedisStore caches derived plan-row statuses. Dashboards poll frequently;
// serving derived state from Redis keeps those reads off the ledger.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func statusKey(planRowID int64) string {
	return fmt.Sprintf("pof:exec:%d", planRowID)
}

func (r *RedisStore) GetStatus(ctx context.Context, planRowID int64) (*Status, error) {
	data, err := r.client.Get(ctx, statusKey(planRowID)).Bytes()
	if err != nil {
		return nil, err
	}
	var st Status
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *RedisStore) SetStatus(ctx context.Context, st *Status) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, statusKey(st.PlanRowID), data, statusTTL).Err()
}

func (r *RedisStore) DeleteStatus(ctx context.Context, planRowID int64) error {
	return r.client.Del(ctx, statusKey(planRowID)).Err()
}

// FlushStatuses drops every cached status. Called before a full resync.
func (r *RedisStore) FlushStatuses(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, "pof:exec:*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}
