package counter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/Paywall/app/models"
)

const unlockOutcomesKey = "paywall:counters:unlock"

// Outcomes counts unlock results per content type and status in a redis hash.
// Fields look like "comic_chapter:insufficient_funds".
type Outcomes struct {
	client *redis.Client
	key    string
}

// NewOutcomes creates an outcome counter on client
func NewOutcomes(client *redis.Client) *Outcomes {
	return &Outcomes{client: client, key: unlockOutcomesKey}
}

func field(ct models.ContentType, status string) string {
	return ct.String() + ":" + status
}

// AddOutcome increments the counter for one unlock result
func (o *Outcomes) AddOutcome(ctx context.Context, ct models.ContentType, status string) error {
	return o.client.HIncrBy(ctx, o.key, field(ct, status), 1).Err()
}

// Snapshot returns the current counters without resetting them
func (o *Outcomes) Snapshot(ctx context.Context) (map[string]int64, error) {
	data, err := o.client.HGetAll(ctx, o.key).Result()
	if err != nil {
		return nil, err
	}
	return parse(data), nil
}

// Drain returns the counters and resets them. The hash is renamed to a
// temporary key first so increments arriving meanwhile are not lost.
func (o *Outcomes) Drain(ctx context.Context) (map[string]int64, error) {
	tmpKey := fmt.Sprintf("%s:tmp:%d", o.key, time.Now().UnixNano())
	if err := o.client.Rename(ctx, o.key, tmpKey).Err(); err != nil {
		// nothing counted yet
		if errors.Is(err, redis.Nil) || strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return map[string]int64{}, nil
		}
		return nil, err
	}
	defer o.client.Del(ctx, tmpKey)

	data, err := o.client.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return nil, err
	}
	return parse(data), nil
}

func parse(data map[string]string) map[string]int64 {
	out := make(map[string]int64, len(data))
	for k, v := range data {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n == 0 {
			continue
		}
		out[k] = n
	}
	return out
}
