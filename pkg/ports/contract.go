package ports

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aretw0/v2df/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTreeCacheContract runs a suite of tests to verify that a TreeCache implementation
// adheres to the defined interface contract.
func RunTreeCacheContract(t *testing.T, cache TreeCache) {
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405")

	t.Run("Put and Get", func(t *testing.T) {
		payload := []byte{'V', '2', 'D', 'F', 1, 2, 3, 0, 255}
		require.NoError(t, cache.Put(ctx, prefix+"-a", payload))

		got, err := cache.Get(ctx, prefix+"-a")
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("Get Missing", func(t *testing.T) {
		_, err := cache.Get(ctx, prefix+"-missing")
		assert.ErrorIs(t, err, domain.ErrCacheMiss)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, prefix+"-b", []byte("old")))
		require.NoError(t, cache.Put(ctx, prefix+"-b", []byte("new")))

		got, err := cache.Get(ctx, prefix+"-b")
		require.NoError(t, err)
		assert.Equal(t, []byte("new"), got)
	})

	t.Run("Returned Payload Is Owned", func(t *testing.T) {
		require.NoError(t, cache.Put(ctx, prefix+"-c", []byte{1, 2, 3}))
		got, err := cache.Get(ctx, prefix+"-c")
		require.NoError(t, err)
		got[0] = 9

		again, err := cache.Get(ctx, prefix+"-c")
		require.NoError(t, err)
		assert.Equal(t, byte(1), again[0])
	})
}

// RunFrameSourceContract verifies that a FrameSource yields frames matching its
// declared stream info, ends with io.EOF and replays the same frames after Rewind.
// wantFrames is the number of frames the source is expected to hold.
func RunFrameSourceContract(t *testing.T, src FrameSource, wantFrames int) {
	t.Helper()
	ctx := context.Background()
	info := src.Info()

	readAll := func(t *testing.T) [][]byte {
		var out [][]byte
		for {
			frame, err := src.Next(ctx)
			if errors.Is(err, io.EOF) {
				return out
			}
			require.NoError(t, err)
			require.Equal(t, info.Width, frame.Width)
			require.Equal(t, info.Height, frame.Height)
			require.True(t, frame.Format.Supported(), "unsupported format %s", frame.Format)
			require.GreaterOrEqual(t, len(frame.Pix), (frame.Height-1)*frame.Stride+frame.Width*frame.Format.Channels)
			out = append(out, append([]byte(nil), frame.Pix...))
		}
	}

	t.Run("Info", func(t *testing.T) {
		assert.Positive(t, info.Width)
		assert.Positive(t, info.Height)
		assert.Positive(t, info.FrameRate.Num)
		assert.Positive(t, info.FrameRate.Den)
	})

	var first [][]byte
	t.Run("Reads Until EOF", func(t *testing.T) {
		first = readAll(t)
		assert.Len(t, first, wantFrames)

		_, err := src.Next(ctx)
		assert.ErrorIs(t, err, io.EOF, "EOF is sticky")
	})

	t.Run("Rewind Replays", func(t *testing.T) {
		require.NoError(t, src.Rewind())
		again := readAll(t)
		assert.Equal(t, first, again)
	})

	t.Run("Canceled Context", func(t *testing.T) {
		require.NoError(t, src.Rewind())
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := src.Next(canceled)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// RunLockerContract verifies that a DistributedLocker excludes holders of the same key
// and leaves other keys free.
func RunLockerContract(t *testing.T, locker DistributedLocker) {
	ctx := context.Background()
	key := "contract-lock-" + time.Now().Format("20060102150405")

	unlock, err := locker.Lock(ctx, key, 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, unlock)

	t.Run("Contention", func(t *testing.T) {
		waitCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
		defer cancel()
		_, err := locker.Lock(waitCtx, key, 5*time.Second)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("IndependentKeys", func(t *testing.T) {
		other, err := locker.Lock(ctx, key+"-other", 5*time.Second)
		require.NoError(t, err)
		require.NoError(t, other(ctx))
	})

	require.NoError(t, unlock(ctx))

	t.Run("Relock", func(t *testing.T) {
		again, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)
		require.NoError(t, again(ctx))
	})

	t.Run("HeldPastTTL", func(t *testing.T) {
		held, err := locker.Lock(ctx, key+"-lease", 60*time.Millisecond)
		require.NoError(t, err)
		time.Sleep(200 * time.Millisecond)

		waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(waitCtx, key+"-lease", 60*time.Millisecond)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		require.NoError(t, held(ctx))
	})
}
