package notify

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"eventlocator/internal/queue/redisclient"
)

const scheduledKey = "notify:scheduled"

// Queue is a delayed job queue on a Redis sorted set: the score is the
// fire time in unix milliseconds, the member is the encoded payload.
// Workers claim due members with a ZRem race: whoever removes the member
// owns the job. Redelivery on failure is attempt-counted Requeue, so
// delivery is at-least-once and consumers must tolerate duplicates.
type Queue struct {
	rdb *redis.Client
	key string
}

func NewQueue(client *redisclient.Client) *Queue {
	return &Queue{
		rdb: client.Raw(),
		key: scheduledKey,
	}
}

func (q *Queue) Enqueue(ctx context.Context, p ReminderPayload, delay time.Duration) error {
	if delay < 0 {
		delay = 0
	}

	raw, err := EncodePayload(p)

	if err != nil {
		return err
	}

	score := float64(time.Now().Add(delay).UnixMilli())

	return q.rdb.ZAdd(ctx, q.key, redis.Z{
		Score:  score,
		Member: raw,
	}).Err()
}

// ClaimDue pops up to limit payloads whose fire time has passed. Members
// that fail to decode are dropped (poison entries must not wedge the
// queue); the count of dropped members is returned for logging.
func (q *Queue) ClaimDue(ctx context.Context, now time.Time, limit int64) ([]ReminderPayload, int, error) {
	members, err := q.rdb.ZRangeByScore(ctx, q.key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: limit,
	}).Result()

	if err != nil {
		return nil, 0, err
	}

	var claimed []ReminderPayload
	dropped := 0

	for _, m := range members {
		removed, err := q.rdb.ZRem(ctx, q.key, m).Result()

		if err != nil {
			return claimed, dropped, err
		}

		// another worker won the race for this member
		if removed == 0 {
			continue
		}

		p, err := DecodePayload([]byte(m))

		if err != nil {
			dropped++
			continue
		}

		claimed = append(claimed, p)
	}

	return claimed, dropped, nil
}

// Requeue puts a failed job back with its attempt count bumped. Returns
// false without enqueuing once the attempt cap is reached.
func (q *Queue) Requeue(ctx context.Context, p ReminderPayload, delay time.Duration) (bool, error) {
	p.Attempts++

	if p.Attempts >= MaxAttempts {
		return false, nil
	}

	err := q.Enqueue(ctx, p, delay)

	if err != nil {
		return false, err
	}

	return true, nil
}

func (q *Queue) Size(ctx context.Context) (int64, error) {
	return q.rdb.ZCard(ctx, q.key).Result()
}
