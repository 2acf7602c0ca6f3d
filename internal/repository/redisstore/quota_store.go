package redisstore

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	quotaPrefix = "chat:quota:"
	quotaTTL    = 48 * time.Hour
)

// consumeScript increments the counter only while it is below the limit and
// returns {count, granted}.
var consumeScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local limit = tonumber(ARGV[1])
if current >= limit then
	return {current, 0}
end
current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[2])
end
return {current, 1}
`)

var refundScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current > 0 then
	return redis.call("DECR", KEYS[1])
end
return 0
`)

type QuotaStore struct {
	rdb redis.UniversalClient
}

func NewQuotaStore(rdb redis.UniversalClient) *QuotaStore {
	return &QuotaStore{rdb: rdb}
}

func quotaKey(key, day string) string {
	return quotaPrefix + key + ":" + day
}

func (s *QuotaStore) Consume(ctx context.Context, key string, day string, limit int) (int, bool, error) {
	res, err := consumeScript.Run(ctx, s.rdb, []string{quotaKey(key, day)}, limit, int(quotaTTL.Seconds())).Int64Slice()
	if err != nil {
		return 0, false, err
	}
	if len(res) != 2 {
		return 0, false, errors.New("unexpected quota script reply")
	}
	return int(res[0]), res[1] == 1, nil
}

func (s *QuotaStore) Refund(ctx context.Context, key string, day string) error {
	return refundScript.Run(ctx, s.rdb, []string{quotaKey(key, day)}).Err()
}

func (s *QuotaStore) Used(ctx context.Context, key string, day string) (int, error) {
	val, err := s.rdb.Get(ctx, quotaKey(key, day)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(val)
}
