// repositories/otp_redis_repository.go
package repositories

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/dushop/dushop_backend/models"
	"github.com/dushop/dushop_backend/utils"
)

const otpKeyPrefix = "otp:"

// RedisOTPStore keeps each record as a redis hash whose TTL matches the code
// expiry, for deployments running more than one backend replica. Attempt
// counting runs in a Lua script so an increment can neither be lost nor
// recreate a hash whose key expired mid-call.
type RedisOTPStore struct {
	client      *redis.Client
	codeLength  int
	ttl         time.Duration
	maxAttempts int
}

// NewRedisOTPStore creates a redis-backed OTP store.
func NewRedisOTPStore(client *redis.Client, codeLength int, ttl time.Duration, maxAttempts int) *RedisOTPStore {
	return &RedisOTPStore{
		client:      client,
		codeLength:  codeLength,
		ttl:         ttl,
		maxAttempts: maxAttempts,
	}
}

func otpKey(recipient string) string {
	return otpKeyPrefix + recipient
}

// Issue generates a fresh code for the recipient, replacing any existing
// record in one transaction.
func (s *RedisOTPStore) Issue(ctx context.Context, recipient string) (*models.OTPRecord, error) {
	code, err := utils.GenerateOTP(s.codeLength)
	if err != nil {
		return nil, err
	}

	rec := models.NewOTPRecord(recipient, code, s.ttl)
	key := otpKey(recipient)

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]interface{}{
		"id":        rec.ID,
		"code":      rec.Code,
		"createdAt": rec.CreatedAt.Format(time.RFC3339Nano),
		"expiresAt": rec.ExpiresAt.Format(time.RFC3339Nano),
		"attempts":  0,
		"consumed":  0,
	})
	pipe.PExpire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	return rec, nil
}

// Lookup returns the record for the recipient. Redis expires the key with
// the code, but the expiry is still checked here in case of clock drift.
func (s *RedisOTPStore) Lookup(ctx context.Context, recipient string) (*models.OTPRecord, error) {
	key := otpKey(recipient)

	vals, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, models.ErrOTPNotFound
	}

	rec, err := parseRecord(recipient, vals)
	if err != nil {
		return nil, err
	}
	if rec.Expired(time.Now()) {
		s.client.Del(ctx, key)
		return nil, models.ErrOTPNotFound
	}

	return rec, nil
}

// recordFailedAttemptScript increments the attempt count only if the key
// still exists, so an expiry between calls cannot recreate a bare hash
// without a TTL. Returns -1 when the record is gone.
var recordFailedAttemptScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return -1
end
local attempts = redis.call("HINCRBY", KEYS[1], "attempts", 1)
if attempts >= tonumber(ARGV[1]) then
	redis.call("HSET", KEYS[1], "consumed", 1)
end
return attempts`)

// RecordFailedAttempt increments the failure count atomically and returns
// it. Reaching the maximum marks the record consumed.
func (s *RedisOTPStore) RecordFailedAttempt(ctx context.Context, recipient string) (int, error) {
	attempts, err := recordFailedAttemptScript.Run(ctx, s.client, []string{otpKey(recipient)}, s.maxAttempts).Int()
	if err != nil {
		return 0, err
	}
	if attempts < 0 {
		return 0, models.ErrOTPNotFound
	}
	return attempts, nil
}

// Consume removes the record after a successful verification. Idempotent.
func (s *RedisOTPStore) Consume(ctx context.Context, recipient string) error {
	return s.client.Del(ctx, otpKey(recipient)).Err()
}

// Invalidate removes the record, e.g. after a delivery failure. Idempotent.
func (s *RedisOTPStore) Invalidate(ctx context.Context, recipient string) error {
	return s.Consume(ctx, recipient)
}

func parseRecord(recipient string, vals map[string]string) (*models.OTPRecord, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, vals["createdAt"])
	if err != nil {
		return nil, err
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, vals["expiresAt"])
	if err != nil {
		return nil, err
	}
	attempts, err := strconv.Atoi(vals["attempts"])
	if err != nil {
		return nil, err
	}

	return &models.OTPRecord{
		ID:        vals["id"],
		Recipient: recipient,
		Code:      vals["code"],
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
		Attempts:  attempts,
		Consumed:  vals["consumed"] == "1",
	}, nil
}
