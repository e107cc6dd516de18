// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/inkwell/internal/models"
	"github.com/redis/go-redis/v9"
)

// Rdb is the global Redis client. Connect it once at application startup.
// When nil, action publishing and descriptor caching are disabled.
var Rdb *redis.Client

// QueueName is the Redis list (queue) name for game action logs.
var QueueName = "inkwell_actions"

// descriptorPrefix namespaces cached card descriptors.
const descriptorPrefix = "inkwell:card:"

// GameActionRecord holds the minimal info needed by the historian.
type GameActionRecord struct {
	GameID        uuid.UUID              `json:"game_id"`
	ActionIndex   int                    `json:"action_index"`
	ActorUserID   uuid.UUID              `json:"actor_user_id"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}

// ConnectRedis initializes the global Redis client and pings it.
func ConnectRedis(ctx context.Context, addr string, db int) error {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	Rdb = client
	return nil
}

// Close stops the action publisher, then releases the global client, if any.
func Close() error {
	StopPublisher()
	if Rdb == nil {
		return nil
	}
	err := Rdb.Close()
	Rdb = nil
	return err
}

// pushRecord serializes the given record to JSON, then pushes it to the Redis queue.
func pushRecord(ctx context.Context, client *redis.Client, queue string, record GameActionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal GameActionRecord: %w", err)
	}
	if err := client.RPush(ctx, queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", queue, err)
	}
	return nil
}

// PopGameActions blocks up to timeout for the first record, then drains up to
// max-1 more without blocking. A timeout with nothing queued returns no records and no error.
func PopGameActions(ctx context.Context, timeout time.Duration, max int) ([]GameActionRecord, error) {
	if Rdb == nil {
		return nil, errors.New("redis client is not connected")
	}
	res, err := Rdb.BLPop(ctx, timeout, QueueName).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("BLPOP %s: %w", QueueName, err)
	}

	raw := []string{res[1]}
	if max > 1 {
		more, err := Rdb.LPopCount(ctx, QueueName, max-1).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("LPOP %s: %w", QueueName, err)
		}
		raw = append(raw, more...)
	}

	records := make([]GameActionRecord, 0, len(raw))
	for _, s := range raw {
		var rec GameActionRecord
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			// a malformed entry cannot be retried; skip it
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// GetDescriptor looks up a cached card descriptor by its lookup name.
// The second return is false on a miss or when Redis is not connected.
func GetDescriptor(ctx context.Context, name string) (models.Descriptor, bool, error) {
	var d models.Descriptor
	if Rdb == nil {
		return d, false, nil
	}
	data, err := Rdb.Get(ctx, descriptorPrefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return d, false, nil
	}
	if err != nil {
		return d, false, fmt.Errorf("failed to GET descriptor %q: %w", name, err)
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return d, false, fmt.Errorf("failed to decode descriptor %q: %w", name, err)
	}
	return d, true, nil
}

// SetDescriptor caches a resolved descriptor for ttl. A zero ttl keeps it forever.
func SetDescriptor(ctx context.Context, name string, d models.Descriptor, ttl time.Duration) error {
	if Rdb == nil {
		return nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal descriptor %q: %w", name, err)
	}
	if err := Rdb.Set(ctx, descriptorPrefix+name, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to SET descriptor %q: %w", name, err)
	}
	return nil
}
