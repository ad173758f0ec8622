// utils/otp.go
package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateOTP returns a cryptographically random numeric code of the given
// length, zero-padded. crypto/rand with big.Int uses rejection sampling, so
// every code is equally likely.
func GenerateOTP(length int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate OTP: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
