package jobstore

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"clipforge/internal/pkg/errors"
)

const redisKeyPrefix = "clipforge:job:"

// RedisStore keeps job records as JSON values in Redis so status survives
// restarts and can be shared by multiple instances. A non-zero TTL expires
// records after completion; zero keeps them forever.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Create(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return errors.Wrap(err, "jobstore.create", "failed to encode job")
	}
	ok, err := s.client.SetNX(ctx, redisKeyPrefix+job.ID, data, s.ttl).Result()
	if err != nil {
		return errors.Wrap(err, "jobstore.create", "failed to store job")
	}
	if !ok {
		return errors.New(errors.CodeConflict, "job already exists").WithField("job_id", job.ID)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Job, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, errors.JobNotFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "jobstore.get", "failed to read job")
	}
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, errors.Wrap(err, "jobstore.get", "corrupt job record")
	}
	return &job, nil
}

func (s *RedisStore) Complete(ctx context.Context, id, outputKey string) error {
	return s.update(ctx, id, func(job *Job) {
		now := time.Now().UTC()
		job.Status = StatusCompleted
		job.CompletedAt = &now
		job.OutputKey = outputKey
	})
}

func (s *RedisStore) Fail(ctx context.Context, id, message string) error {
	return s.update(ctx, id, func(job *Job) {
		now := time.Now().UTC()
		job.Status = StatusFailed
		job.CompletedAt = &now
		job.Error = message
	})
}

func (s *RedisStore) List(ctx context.Context) ([]*Job, error) {
	var out []*Job
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "jobstore.list", "failed to read job")
		}
		var job Job
		if err := json.Unmarshal(data, &job); err != nil {
			continue
		}
		out = append(out, &job)
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "jobstore.list", "job scan failed")
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *RedisStore) update(ctx context.Context, id string, apply func(*Job)) error {
	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	apply(job)

	data, err := json.Marshal(job)
	if err != nil {
		return errors.Wrap(err, "jobstore.update", "failed to encode job")
	}
	if err := s.client.Set(ctx, redisKeyPrefix+id, data, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "jobstore.update", "failed to store job")
	}
	return nil
}
