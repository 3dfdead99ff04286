package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"print-bridge/internal/models"
)

// RedisStore shares the queue between several server instances.
//
// Layout under the key prefix:
//
//	<p>:job:<id>            hash: data (job JSON), restaurant, status, completedAt
//	<p>:pending:<rid>       list of pending job ids, enqueue order
//	<p>:completed           zset of completed job ids scored by completion ms
//	<p>:count:total         jobs currently stored
//	<p>:count:completed     completed jobs currently stored
//
// Completion touches the restaurant's pending list by a key derived inside
// the script, so this layout targets a single Redis node.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "print"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

var insertScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], 'data', ARGV[1], 'restaurant', ARGV[2], 'status', 'pending', 'completedAt', '')
redis.call('RPUSH', KEYS[2], ARGV[3])
redis.call('INCR', KEYS[3])
return 1
`)

var completeScript = redis.NewScript(`
local job = redis.call('HMGET', KEYS[1], 'status', 'restaurant')
if job[1] ~= 'pending' or job[2] ~= ARGV[5] then
  return 0
end
redis.call('HSET', KEYS[1], 'status', 'completed', 'completedAt', ARGV[2])
redis.call('LREM', ARGV[4] .. ARGV[5], 1, ARGV[1])
redis.call('ZADD', KEYS[2], ARGV[3], ARGV[1])
redis.call('INCR', KEYS[3])
return 1
`)

var pruneScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
for _, id in ipairs(ids) do
  redis.call('DEL', ARGV[2] .. id)
  redis.call('ZREM', KEYS[1], id)
end
local n = #ids
if n > 0 then
  redis.call('DECRBY', KEYS[2], n)
  redis.call('DECRBY', KEYS[3], n)
end
return n
`)

func (s *RedisStore) jobKey(id string) string { return s.prefix + ":job:" + id }
func (s *RedisStore) pendingKey(rid string) string { return s.prefix + ":pending:" + rid }
func (s *RedisStore) completedKey() string { return s.prefix + ":completed" }
func (s *RedisStore) counterKey(name string) string { return s.prefix + ":count:" + name }

func (s *RedisStore) Insert(ctx context.Context, job models.PrintJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.ID, err)
	}

	keys := []string{s.jobKey(job.ID), s.pendingKey(job.RestaurantID), s.counterKey("total")}
	inserted, err := insertScript.Run(ctx, s.rdb, keys, data, job.RestaurantID, job.ID).Int()
	if err != nil {
		return fmt.Errorf("insert job %s: %w", job.ID, err)
	}
	if inserted == 0 {
		return ErrDuplicateJob
	}
	return nil
}

func (s *RedisStore) Pending(ctx context.Context, restaurantID string) ([]models.PrintJob, error) {
	ids, err := s.rdb.LRange(ctx, s.pendingKey(restaurantID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read pending list: %w", err)
	}

	jobs := []models.PrintJob{}
	if len(ids) == 0 {
		return jobs, nil
	}

	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.SliceCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HMGet(ctx, s.jobKey(id), "data", "status")
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("read pending jobs: %w", err)
	}

	for i, cmd := range cmds {
		vals := cmd.Val()
		data, _ := vals[0].(string)
		status, _ := vals[1].(string)
		// Completed or pruned between the two reads.
		if data == "" || status != string(models.JobPending) {
			continue
		}

		var job models.PrintJob
		if err := json.Unmarshal([]byte(data), &job); err != nil {
			return nil, fmt.Errorf("decode job %s: %w", ids[i], err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (s *RedisStore) MarkCompleted(ctx context.Context, restaurantID, jobID string, at time.Time) (bool, error) {
	keys := []string{s.jobKey(jobID), s.completedKey(), s.counterKey("completed")}
	args := []any{
		jobID,
		at.UTC().Format(time.RFC3339Nano),
		at.UnixMilli(),
		s.prefix + ":pending:",
		restaurantID,
	}

	done, err := completeScript.Run(ctx, s.rdb, keys, args...).Int()
	if err != nil {
		return false, fmt.Errorf("complete job %s: %w", jobID, err)
	}
	return done == 1, nil
}

func (s *RedisStore) Stats(ctx context.Context) (models.QueueStats, error) {
	vals, err := s.rdb.MGet(ctx, s.counterKey("total"), s.counterKey("completed")).Result()
	if err != nil {
		return models.QueueStats{}, fmt.Errorf("read counters: %w", err)
	}

	total, completed := counterValue(vals[0]), counterValue(vals[1])
	return models.QueueStats{
		Total:     total,
		Pending:   total - completed,
		Completed: completed,
	}, nil
}

func (s *RedisStore) PruneCompleted(ctx context.Context, before time.Time) (int, error) {
	keys := []string{s.completedKey(), s.counterKey("total"), s.counterKey("completed")}
	maxScore := "(" + strconv.FormatInt(before.UnixMilli(), 10)

	n, err := pruneScript.Run(ctx, s.rdb, keys, maxScore, s.prefix+":job:").Int()
	if err != nil {
		return 0, fmt.Errorf("prune completed jobs: %w", err)
	}
	return n, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func counterValue(v any) int {
	str, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(str)
	if err != nil {
		return 0
	}
	return n
}
