package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dushop/dushop_backend/utils"
)

func TestGenerateOTP(t *testing.T) {
	t.Run("produces 6-digit string", func(t *testing.T) {
		otp, err := utils.GenerateOTP(6)
		require.NoError(t, err)
		assert.Len(t, otp, 6)
		assert.Regexp(t, `^\d{6}$`, otp)
	})

	t.Run("respects configured length", func(t *testing.T) {
		for _, length := range []int{4, 6, 8} {
			otp, err := utils.GenerateOTP(length)
			require.NoError(t, err)
			assert.Len(t, otp, length)
		}
	})

	t.Run("numeric and fixed length over 10000 samples", func(t *testing.T) {
		for i := 0; i < 10000; i++ {
			otp, err := utils.GenerateOTP(6)
			require.NoError(t, err)
			require.Len(t, otp, 6)
			for _, ch := range otp {
				require.True(t, ch >= '0' && ch <= '9', "expected digit, got %c", ch)
			}
		}
	})

	t.Run("produces different values", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			otp, err := utils.GenerateOTP(6)
			require.NoError(t, err)
			seen[otp] = true
		}
		assert.Greater(t, len(seen), 90, "expected at least 90 unique OTPs from 100 draws")
	})
}

func TestSanitizeEmail(t *testing.T) {
	t.Run("lowercases and trims", func(t *testing.T) {
		email, err := utils.SanitizeEmail("  User@Example.COM ")
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", email)
	})

	t.Run("rejects malformed addresses", func(t *testing.T) {
		for _, bad := range []string{"", "not-an-email", "a@b", "@x.com", "a b@x.com"} {
			_, err := utils.SanitizeEmail(bad)
			assert.Error(t, err, "expected %q to be rejected", bad)
		}
	})
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "jo**@x.com", utils.MaskEmail("john@x.com"))
	assert.Equal(t, "a***@x.com", utils.MaskEmail("a@x.com"))
	assert.Equal(t, "***@x.com", utils.MaskEmail("@x.com"))
	assert.Equal(t, "not-an-email", utils.MaskEmail("not-an-email"))
}
