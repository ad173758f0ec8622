// repositories/otp_repository.go
package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/dushop/dushop_backend/models"
	"github.com/dushop/dushop_backend/utils"
)

// OTPStore holds pending one-time passwords keyed by recipient email.
//
// Issue replaces any previously active record for the recipient. Lookup
// treats expired records as absent and purges them lazily. A record that hit
// the attempt cap stays visible (marked consumed) until its TTL runs out, so
// verification can report the lockout instead of pretending nothing was
// issued.
type OTPStore interface {
	Issue(ctx context.Context, recipient string) (*models.OTPRecord, error)
	Lookup(ctx context.Context, recipient string) (*models.OTPRecord, error)
	RecordFailedAttempt(ctx context.Context, recipient string) (int, error)
	Consume(ctx context.Context, recipient string) error
	Invalidate(ctx context.Context, recipient string) error
}

// MemoryOTPStore keeps records in a mutex-guarded map. Each call is atomic
// under the lock; multi-call sequences such as lookup-then-consume are
// serialized per recipient by the OTP service. An optional sweeper purges
// expired records to bound memory; correctness does not depend on it because
// Lookup already skips expired entries.
type MemoryOTPStore struct {
	mu      sync.Mutex
	records map[string]*models.OTPRecord

	codeLength  int
	ttl         time.Duration
	maxAttempts int

	now  func() time.Time
	stop chan struct{}
}

// NewMemoryOTPStore creates an in-memory OTP store.
func NewMemoryOTPStore(codeLength int, ttl time.Duration, maxAttempts int) *MemoryOTPStore {
	return &MemoryOTPStore{
		records:     make(map[string]*models.OTPRecord),
		codeLength:  codeLength,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// Issue generates a fresh code for the recipient, superseding any existing
// record. The returned copy is the only place the code leaves the store.
func (s *MemoryOTPStore) Issue(ctx context.Context, recipient string) (*models.OTPRecord, error) {
	code, err := utils.GenerateOTP(s.codeLength)
	if err != nil {
		return nil, err
	}

	rec := models.NewOTPRecord(recipient, code, s.ttl)

	s.mu.Lock()
	s.records[recipient] = rec
	s.mu.Unlock()

	out := *rec
	return &out, nil
}

// Lookup returns the record for the recipient, treating expired records as
// absent and removing them.
func (s *MemoryOTPStore) Lookup(ctx context.Context, recipient string) (*models.OTPRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[recipient]
	if !ok {
		return nil, models.ErrOTPNotFound
	}
	if rec.Expired(s.now()) {
		delete(s.records, recipient)
		return nil, models.ErrOTPNotFound
	}

	out := *rec
	return &out, nil
}

// RecordFailedAttempt increments the failure count and returns it. Reaching
// the maximum marks the record consumed so it can never match again.
func (s *MemoryOTPStore) RecordFailedAttempt(ctx context.Context, recipient string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[recipient]
	if !ok || rec.Expired(s.now()) {
		delete(s.records, recipient)
		return 0, models.ErrOTPNotFound
	}

	rec.Attempts++
	if rec.Attempts >= s.maxAttempts {
		rec.Consumed = true
	}
	return rec.Attempts, nil
}

// Consume removes the record after a successful verification. Idempotent.
func (s *MemoryOTPStore) Consume(ctx context.Context, recipient string) error {
	s.mu.Lock()
	delete(s.records, recipient)
	s.mu.Unlock()
	return nil
}

// Invalidate removes the record, e.g. after a delivery failure. Idempotent.
func (s *MemoryOTPStore) Invalidate(ctx context.Context, recipient string) error {
	return s.Consume(ctx, recipient)
}

// StartSweeper runs a background loop purging expired records at the given
// interval until StopSweeper is called.
func (s *MemoryOTPStore) StartSweeper(interval time.Duration) {
	s.stop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweepExpired()
			case <-s.stop:
				return
			}
		}
	}()
}

// StopSweeper stops the background sweep loop.
func (s *MemoryOTPStore) StopSweeper() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

func (s *MemoryOTPStore) sweepExpired() {
	now := s.now()
	s.mu.Lock()
	for recipient, rec := range s.records {
		if rec.Expired(now) {
			delete(s.records, recipient)
		}
	}
	s.mu.Unlock()
}
