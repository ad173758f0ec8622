package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dushop/dushop_backend/models"
)

func newTestStore() *MemoryOTPStore {
	return NewMemoryOTPStore(6, 5*time.Minute, 5)
}

func TestMemoryOTPStoreIssue(t *testing.T) {
	ctx := context.Background()

	t.Run("returns a fresh record", func(t *testing.T) {
		s := newTestStore()
		rec, err := s.Issue(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", rec.Recipient)
		assert.Regexp(t, `^\d{6}$`, rec.Code)
		assert.Equal(t, 0, rec.Attempts)
		assert.False(t, rec.Consumed)
		assert.NotEmpty(t, rec.ID)
		assert.True(t, rec.ExpiresAt.After(rec.CreatedAt))
	})

	t.Run("supersedes a previous record for the same recipient", func(t *testing.T) {
		s := newTestStore()
		first, err := s.Issue(ctx, "a@x.com")
		require.NoError(t, err)
		second, err := s.Issue(ctx, "a@x.com")
		require.NoError(t, err)

		current, err := s.Lookup(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, second.ID, current.ID)
		assert.NotEqual(t, first.ID, current.ID)
	})

	t.Run("recipients are independent", func(t *testing.T) {
		s := newTestStore()
		_, err := s.Issue(ctx, "a@x.com")
		require.NoError(t, err)
		_, err = s.Issue(ctx, "b@x.com")
		require.NoError(t, err)

		require.NoError(t, s.Consume(ctx, "a@x.com"))

		_, err = s.Lookup(ctx, "b@x.com")
		assert.NoError(t, err)
	})
}

func TestMemoryOTPStoreLookup(t *testing.T) {
	ctx := context.Background()

	t.Run("absent recipient reports not found", func(t *testing.T) {
		s := newTestStore()
		_, err := s.Lookup(ctx, "nobody@x.com")
		assert.ErrorIs(t, err, models.ErrOTPNotFound)
	})

	t.Run("expired record is treated as absent and purged", func(t *testing.T) {
		s := newTestStore()
		_, err := s.Issue(ctx, "a@x.com")
		require.NoError(t, err)

		s.now = func() time.Time { return time.Now().Add(6 * time.Minute) }

		_, err = s.Lookup(ctx, "a@x.com")
		assert.ErrorIs(t, err, models.ErrOTPNotFound)

		s.mu.Lock()
		_, still := s.records["a@x.com"]
		s.mu.Unlock()
		assert.False(t, still, "expired record should have been purged")
	})

	t.Run("callers cannot mutate stored records", func(t *testing.T) {
		s := newTestStore()
		_, err := s.Issue(ctx, "a@x.com")
		require.NoError(t, err)

		rec, err := s.Lookup(ctx, "a@x.com")
		require.NoError(t, err)
		rec.Attempts = 99

		again, err := s.Lookup(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, 0, again.Attempts)
	})
}

func TestMemoryOTPStoreAttempts(t *testing.T) {
	ctx := context.Background()

	t.Run("increments per failure", func(t *testing.T) {
		s := newTestStore()
		_, err := s.Issue(ctx, "a@x.com")
		require.NoError(t, err)

		for want := 1; want <= 3; want++ {
			got, err := s.RecordFailedAttempt(ctx, "a@x.com")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("reaching the maximum marks the record consumed", func(t *testing.T) {
		s := newTestStore()
		_, err := s.Issue(ctx, "a@x.com")
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			_, err := s.RecordFailedAttempt(ctx, "a@x.com")
			require.NoError(t, err)
		}

		rec, err := s.Lookup(ctx, "a@x.com")
		require.NoError(t, err)
		assert.True(t, rec.Consumed)
		assert.Equal(t, 5, rec.Attempts)
	})

	t.Run("absent recipient reports not found", func(t *testing.T) {
		s := newTestStore()
		_, err := s.RecordFailedAttempt(ctx, "nobody@x.com")
		assert.ErrorIs(t, err, models.ErrOTPNotFound)
	})
}

func TestMemoryOTPStoreConsume(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the record", func(t *testing.T) {
		s := newTestStore()
		_, err := s.Issue(ctx, "a@x.com")
		require.NoError(t, err)

		require.NoError(t, s.Consume(ctx, "a@x.com"))

		_, err = s.Lookup(ctx, "a@x.com")
		assert.ErrorIs(t, err, models.ErrOTPNotFound)
	})

	t.Run("idempotent", func(t *testing.T) {
		s := newTestStore()
		require.NoError(t, s.Consume(ctx, "a@x.com"))
		require.NoError(t, s.Consume(ctx, "a@x.com"))
	})
}

func TestMemoryOTPStoreSweeper(t *testing.T) {
	ctx := context.Background()

	t.Run("sweep purges only expired records", func(t *testing.T) {
		s := newTestStore()
		_, err := s.Issue(ctx, "old@x.com")
		require.NoError(t, err)

		s.mu.Lock()
		s.records["old@x.com"].ExpiresAt = time.Now().Add(-time.Second)
		s.mu.Unlock()

		_, err = s.Issue(ctx, "fresh@x.com")
		require.NoError(t, err)

		s.sweepExpired()

		s.mu.Lock()
		_, oldStill := s.records["old@x.com"]
		_, freshStill := s.records["fresh@x.com"]
		s.mu.Unlock()
		assert.False(t, oldStill)
		assert.True(t, freshStill)
	})

	t.Run("start and stop do not race or leak", func(t *testing.T) {
		s := newTestStore()
		s.StartSweeper(10 * time.Millisecond)
		time.Sleep(30 * time.Millisecond)
		s.StopSweeper()
	})
}
