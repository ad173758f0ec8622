// services/otp_service.go
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/dushop/dushop_backend/models"
	"github.com/dushop/dushop_backend/repositories"
	"github.com/dushop/dushop_backend/utils"
)

// OTPService coordinates code issuance and verification. Record state lives
// in the store; the service serializes the multi-step issue and verify
// sequences per recipient, so two verifications of the same code cannot
// interleave between lookup and consumption.
type OTPService struct {
	store             repositories.OTPStore
	mailer            Mailer
	accounts          AccountGateway
	maxAttempts       int
	requireRegistered bool

	mu    sync.Mutex
	locks map[string]*recipientLock
}

type recipientLock struct {
	mu   sync.Mutex
	refs int
}

// NewOTPService creates the OTP service.
func NewOTPService(store repositories.OTPStore, mailer Mailer, accounts AccountGateway, maxAttempts int, requireRegistered bool) *OTPService {
	return &OTPService{
		store:             store,
		mailer:            mailer,
		accounts:          accounts,
		maxAttempts:       maxAttempts,
		requireRegistered: requireRegistered,
		locks:             make(map[string]*recipientLock),
	}
}

// lockRecipient takes the per-recipient lock and returns its release func.
// Entries are reference-counted so the map does not grow with every address
// ever seen.
func (s *OTPService) lockRecipient(email string) func() {
	s.mu.Lock()
	l, ok := s.locks[email]
	if !ok {
		l = &recipientLock{}
		s.locks[email] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, email)
		}
		s.mu.Unlock()
	}
}

// Send issues a fresh code for the email and delivers it, superseding any
// previously active code for the same address. If delivery fails the new
// record is invalidated so no undelivered code stays verifiable.
func (s *OTPService) Send(ctx context.Context, email string) error {
	if s.requireRegistered {
		registered, err := s.accounts.EmailIsRegistered(ctx, email)
		if err != nil {
			return fmt.Errorf("%w: %v", models.ErrUpstream, err)
		}
		if !registered {
			return models.ErrNotRegistered
		}
	}

	release := s.lockRecipient(email)
	defer release()

	rec, err := s.store.Issue(ctx, email)
	if err != nil {
		return err
	}

	if err := s.mailer.SendOTP(email, rec.Code); err != nil {
		if invErr := s.store.Invalidate(ctx, email); invErr != nil {
			log.Printf("Error invalidating OTP %s after delivery failure: %v", rec.ID, invErr)
		}
		return fmt.Errorf("%w: %v", models.ErrDeliveryFailed, err)
	}

	log.Printf("OTP %s sent to %s", rec.ID, utils.MaskEmail(email))
	return nil
}

// Verify checks a submitted code against the stored one. A match consumes
// the record; a mismatch counts against the attempt cap. Errors are
// ErrOTPNotFound, ErrTooManyAttempts, or ErrInvalidCode.
func (s *OTPService) Verify(ctx context.Context, email, code string) error {
	release := s.lockRecipient(email)
	defer release()

	rec, err := s.store.Lookup(ctx, email)
	if err != nil {
		return err
	}

	if rec.Consumed || rec.Attempts >= s.maxAttempts {
		return models.ErrTooManyAttempts
	}

	if subtle.ConstantTimeCompare([]byte(code), []byte(rec.Code)) != 1 {
		attempts, raErr := s.store.RecordFailedAttempt(ctx, email)
		if raErr != nil {
			if errors.Is(raErr, models.ErrOTPNotFound) {
				return models.ErrInvalidCode
			}
			return raErr
		}
		if attempts >= s.maxAttempts {
			return models.ErrTooManyAttempts
		}
		return models.ErrInvalidCode
	}

	if err := s.store.Consume(ctx, email); err != nil {
		return err
	}
	return nil
}
