package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/v2df/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_YAMLAppliesProjectDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "v2df_config.yaml", `
video_file: clip.gif
tick_rate: 20
cache:
  redis_url: redis://localhost:6379/0
  ttl: 1h
projects:
  - namespace: demo
    levels: 4
    border_color: 3
  - namespace: other
    layout: spiral
    test_frame: 5
`)

	cfg, base, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, base)
	assert.Equal(t, "clip.gif", cfg.VideoFile)
	assert.Equal(t, domain.DefaultOutputRootDir, cfg.OutputRootDir)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	require.Len(t, cfg.Projects, 2)

	demo := cfg.Projects[0]
	assert.Equal(t, 4, demo.Levels)
	assert.Equal(t, 3, demo.BorderColor)
	assert.Equal(t, domain.DefaultBorderWidth, demo.BorderWidth)
	assert.Equal(t, domain.LayoutStrip, demo.Layout)
	assert.Nil(t, demo.TestFrame)
	assert.True(t, demo.MakeGrid)

	other := cfg.Projects[1]
	assert.Equal(t, domain.LayoutSpiral, other.Layout)
	require.NotNil(t, other.TestFrame)
	assert.Equal(t, 5, other.TestFrameIndex())
}

func TestLoad_JSONAndTOML(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "v2df_config.json", `{"video_file":"a.mpg","projects":[{"namespace":"j","threshold":64}]}`)
		cfg, _, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, 64, cfg.Projects[0].Threshold)
		assert.Equal(t, domain.DefaultTickRate, cfg.TickRate)
	})
	t.Run("toml", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "v2df_config.toml", `
video_file = "frames/"
image_sequence_fps = 12.5

[axis_inputs]
frame = "demo:time"

[[projects]]
namespace = "t"
make_tp = false
`)
		cfg, _, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 12.5, cfg.ImageSequenceFPS)
		assert.Equal(t, "demo:time", cfg.AxisInputs["frame"])
		assert.False(t, cfg.Projects[0].MakeTP)
	})
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	_, err := Find(dir)
	assert.ErrorIs(t, err, domain.ErrConfigNotFound)

	_, err = Find(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, domain.ErrConfigNotFound)

	want := writeFile(t, dir, "v2df_config.yml", "video_file: x\n")
	got, err := Find(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte(`{"video_file":"a","projects":[{"namespace":"a","colour":1}]}`), ".json")
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestParse_UnsupportedFormat(t *testing.T) {
	_, err := Parse([]byte(`video_file=a`), ".ini")
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.TickRate = 0
	cfg.AxisInputs = map[string]string{"y": "moredfs:y"}
	bad := domain.DefaultProject()
	bad.Namespace = "Bad Name"
	bad.Levels = 1
	bad.Layout = "zigzag"
	bad.OutOfBoundsValue = 0
	cfg.Projects = append(cfg.Projects, bad, domain.DefaultProject())

	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	errs := ValidationErrors(err)
	keys := make([]string, 0, len(errs))
	for _, e := range errs {
		var ve *ValidationError
		require.ErrorAs(t, e, &ve)
		keys = append(keys, ve.Key)
	}
	assert.Contains(t, keys, "tick_rate")
	assert.Contains(t, keys, "axis_inputs")
	assert.Contains(t, keys, "projects[1].namespace")
	assert.Contains(t, keys, "projects[1].levels")
	assert.Contains(t, keys, "projects[1].layout")
	assert.Contains(t, keys, "projects[1].out_of_bounds_value")
	assert.Contains(t, keys, "projects[2].namespace", "duplicate namespace")
}

func TestValidate_Default(t *testing.T) {
	assert.NoError(t, Validate(domain.DefaultConfig()))
}

func TestWriteDefault_RoundTrips(t *testing.T) {
	for _, ext := range Extensions {
		t.Run(ext, func(t *testing.T) {
			dir := t.TempDir()
			path, err := WriteDefault(dir, ext)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, domain.DefaultConfigName+ext), path)

			cfg, _, err := Load(dir)
			require.NoError(t, err)
			assert.Equal(t, domain.DefaultConfig(), cfg)

			_, err = WriteDefault(dir, ext)
			assert.ErrorIs(t, err, ErrExists)
		})
	}
}
