// models/otp.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// OTPRecord is the pending one-time password for a recipient. The store owns
// these records exclusively; the code is never serialized into API responses.
type OTPRecord struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Code      string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Attempts  int       `json:"attempts"`
	Consumed  bool      `json:"consumed"`
}

// NewOTPRecord creates a fresh record for the recipient with the given TTL.
func NewOTPRecord(recipient, code string, ttl time.Duration) *OTPRecord {
	now := time.Now()
	return &OTPRecord{
		ID:        uuid.NewString(),
		Recipient: recipient,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired reports whether the record is past its TTL at the given instant.
func (r *OTPRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

// VerifyOTPResponse is the wire shape for /verify-otp.
type VerifyOTPResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
