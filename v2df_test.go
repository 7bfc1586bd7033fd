package v2df_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/v2df"
	"github.com/aretw0/v2df/pkg/adapters/memory"
	"github.com/aretw0/v2df/pkg/domain"
	"github.com/aretw0/v2df/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func graySource(t *testing.T) memory.Opener {
	t.Helper()
	pix := [][]byte{
		{0, 0, 255, 255, 0, 0, 255, 255, 0, 0, 255, 255, 0, 0, 255, 255},
		{255, 255, 255, 255, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	}
	return memory.Opener{
		"clip.gif": func() (ports.FrameSource, error) {
			return memory.NewGraySource(4, 4, domain.NewRational(20, 1), pix...)
		},
	}
}

func testConfig() domain.Config {
	cfg := domain.DefaultConfig()
	cfg.VideoFile = "clip.gif"
	cfg.Projects[0].Namespace = "demo"
	cfg.Projects[0].BorderWidth = 2
	return cfg
}

func TestEngine_Run(t *testing.T) {
	w := memory.NewWriter()
	var frames int
	eng, err := v2df.New(
		v2df.WithOpener(graySource(t)),
		v2df.WithWriter(w),
		v2df.WithLifecycleHooks(domain.LifecycleHooks{
			OnProjectDone: func(_ context.Context, e *domain.ProjectEvent) { frames = e.Frames },
		}),
	)
	require.NoError(t, err)
	defer eng.Close()

	results, err := eng.Run(context.Background(), testConfig())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, frames)
	assert.Contains(t, w.Paths(), "all_frames.json")
	assert.Contains(t, w.Paths(), "demo.manifest.json")
}

func TestEngine_RejectsInvalidConfig(t *testing.T) {
	eng, err := v2df.New(v2df.WithOpener(graySource(t)), v2df.WithWriter(memory.NewWriter()))
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Projects[0].Levels = 0
	_, err = eng.Run(context.Background(), cfg)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestEngine_Test(t *testing.T) {
	w := memory.NewWriter()
	eng, err := v2df.New(v2df.WithOpener(graySource(t)), v2df.WithWriter(w))
	require.NoError(t, err)

	_, err = eng.Test(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Contains(t, w.Paths(), "demo/preview_test_frame_0.png")
}

func TestEngine_RedisCacheFromConfig(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Cache.RedisURL = "redis://" + mr.Addr()

	eng, err := v2df.New(v2df.WithOpener(graySource(t)), v2df.WithWriter(memory.NewWriter()))
	require.NoError(t, err)
	defer eng.Close()

	_, err = eng.Run(context.Background(), cfg)
	require.NoError(t, err)

	keys := mr.Keys()
	assert.Len(t, keys, 2, "one entry per distinct frame, lock released")
	for _, k := range keys {
		assert.True(t, strings.HasPrefix(k, domain.DefaultCachePrefix), k)
	}
}

func TestInitLoadResolve(t *testing.T) {
	dir := t.TempDir()
	path, err := v2df.Init(dir, ".yaml")
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	cfg, base, err := v2df.Load(dir)
	require.NoError(t, err)
	cfg = v2df.Resolve(cfg, base)
	assert.Equal(t, filepath.Join(dir, domain.DefaultVideoFile), cfg.VideoFile)
	assert.Equal(t, filepath.Join(dir, domain.DefaultOutputRootDir), cfg.OutputRootDir)
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, v2df.Version)
}
