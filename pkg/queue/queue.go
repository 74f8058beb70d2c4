package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNoJob = errors.New("no job available")

// deadLetterTTL expires the dead letter list this long after its last push.
const deadLetterTTL = 7 * 24 * time.Hour

// Dispatcher accepts email jobs for asynchronous delivery.
type Dispatcher interface {
	Enqueue(ctx context.Context, job EmailJob) error
}

// RedisQueue is a reliable list queue: jobs are pushed on the left, popped
// from the right into a processing list and removed from it on Ack.
type RedisQueue struct {
	rdb        *redis.Client
	key        string
	processing string
	dead       string
}

// NewRedisQueue creates a queue stored under prefix+name.
func NewRedisQueue(rdb *redis.Client, prefix, name string) (*RedisQueue, error) {
	if rdb == nil {
		return nil, errors.New("redis client is nil")
	}
	key := prefix + name
	return &RedisQueue{
		rdb:        rdb,
		key:        key,
		processing: key + ":processing",
		dead:       key + ":dead",
	}, nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, job EmailJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("lpush job: %w", err)
	}
	return nil
}

// Delivery is a popped job together with the raw payload needed to ack it.
type Delivery struct {
	Job EmailJob
	raw string
}

// Pop blocks up to timeout for a job and moves it to the processing list.
func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (*Delivery, error) {
	raw, err := q.rdb.BRPopLPush(ctx, q.key, q.processing, timeout).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoJob
	}
	if err != nil {
		return nil, fmt.Errorf("brpoplpush job: %w", err)
	}

	var job EmailJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		// unreadable payloads go straight to the dead letter list
		pipe := q.rdb.TxPipeline()
		pipe.LRem(ctx, q.processing, 1, raw)
		pipe.LPush(ctx, q.dead, raw)
		pipe.Expire(ctx, q.dead, deadLetterTTL)
		if _, perr := pipe.Exec(ctx); perr != nil {
			return nil, fmt.Errorf("dead letter malformed job: %w", perr)
		}
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	return &Delivery{Job: job, raw: raw}, nil
}

// Ack removes a delivered job from the processing list.
func (q *RedisQueue) Ack(ctx context.Context, d *Delivery) error {
	return q.rdb.LRem(ctx, q.processing, 1, d.raw).Err()
}

// Retry puts the job back on the queue with its attempt count bumped, or
// moves it to the dead letter list once maxRetry attempts were made.
// Dead jobs are stored redacted. It reports whether the job was dead-lettered.
func (q *RedisQueue) Retry(ctx context.Context, d *Delivery, cause error, maxRetry int) (bool, error) {
	job := d.Job
	job.Attempts++
	if cause != nil {
		job.LastError = cause.Error()
	}

	dead := job.Attempts >= maxRetry
	target := q.key
	if dead {
		target = q.dead
		job = job.Redacted()
	}
	data, err := json.Marshal(job)
	if err != nil {
		return false, fmt.Errorf("marshal job: %w", err)
	}

	pipe := q.rdb.TxPipeline()
	pipe.LRem(ctx, q.processing, 1, d.raw)
	pipe.LPush(ctx, target, data)
	if dead {
		pipe.Expire(ctx, q.dead, deadLetterTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("requeue job: %w", err)
	}
	return dead, nil
}

// Recover moves jobs left in the processing list by a crashed worker back
// onto the queue. Call it before starting workers.
func (q *RedisQueue) Recover(ctx context.Context) (int, error) {
	n := 0
	for {
		err := q.rdb.RPopLPush(ctx, q.processing, q.key).Err()
		if errors.Is(err, redis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("recover processing jobs: %w", err)
		}
		n++
	}
}

// Depth returns the pending, processing and dead letter list lengths.
func (q *RedisQueue) Depth(ctx context.Context) (pending, processing, dead int64, err error) {
	pipe := q.rdb.Pipeline()
	p := pipe.LLen(ctx, q.key)
	pr := pipe.LLen(ctx, q.processing)
	d := pipe.LLen(ctx, q.dead)
	if _, err = pipe.Exec(ctx); err != nil {
		return 0, 0, 0, fmt.Errorf("queue depth: %w", err)
	}
	return p.Val(), pr.Val(), d.Val(), nil
}
