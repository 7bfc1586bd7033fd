package config

import (
	"fmt"
	"regexp"

	"github.com/aretw0/v2df/pkg/densityfn"
	"github.com/aretw0/v2df/pkg/domain"
)

var namespacePattern = regexp.MustCompile(`^[a-z0-9_.-]+$`)

type checker struct {
	errs []error
}

func (c *checker) fail(key, reason string, value any) {
	c.errs = append(c.errs, &ValidationError{Key: key, Reason: reason, Value: value})
}

func (c *checker) check(ok bool, key, reason string, value any) {
	if !ok {
		c.fail(key, reason, value)
	}
}

// Validate checks every field of cfg and reports all failures at once.
// The returned error wraps domain.ErrInvalidConfig and an *AggregateError.
func Validate(cfg domain.Config) error {
	c := &checker{}

	c.check(cfg.VideoFile != "", "video_file", "is required", nil)
	c.check(cfg.TickRate > 0, "tick_rate", "must be positive", cfg.TickRate)
	c.check(cfg.DriftTolerance >= 0, "drift_tolerance", "must not be negative", cfg.DriftTolerance)
	c.check(cfg.Workers >= 0, "workers", "must not be negative", cfg.Workers)
	c.check(cfg.ImageSequenceFPS >= 0, "image_sequence_fps", "must not be negative", cfg.ImageSequenceFPS)
	c.check(cfg.Cache.TTL >= 0, "cache.ttl", "must not be negative", cfg.Cache.TTL)
	if _, err := densityfn.NewCodec(cfg.AxisInputs); err != nil {
		c.fail("axis_inputs", err.Error(), nil)
	}
	c.check(len(cfg.Projects) > 0, "projects", "at least one project is required", nil)

	seen := map[string]int{}
	for i, p := range cfg.Projects {
		key := func(field string) string { return fmt.Sprintf("projects[%d].%s", i, field) }

		if !namespacePattern.MatchString(p.Namespace) {
			c.fail(key("namespace"), "must match [a-z0-9_.-]+", p.Namespace)
		} else if j, dup := seen[p.Namespace]; dup {
			c.fail(key("namespace"), fmt.Sprintf("duplicates projects[%d]", j), p.Namespace)
		}
		seen[p.Namespace] = i

		c.check(p.BorderWidth >= 0, key("border_width"), "must not be negative", p.BorderWidth)
		c.check(p.Levels >= 2 && p.Levels <= 256, key("levels"), "must be in [2, 256]", p.Levels)
		c.check(p.BorderColor >= 0 && p.BorderColor < p.Levels, key("border_color"), "must be in [0, levels)", p.BorderColor)
		c.check(p.Threshold >= 0 && p.Threshold <= 255, key("threshold"), "must be in [0, 255]", p.Threshold)
		c.check(p.ScaleWidth >= 0 && p.ScaleHeight >= 0, key("scale_width"), "must not be negative", nil)
		c.check((p.ScaleWidth == 0) == (p.ScaleHeight == 0), key("scale_height"), "scale_width and scale_height go together", nil)
		c.check(p.FrameStart >= 0, key("frame_start"), "must not be negative", p.FrameStart)
		c.check(p.FrameCount >= 0, key("frame_count"), "must not be negative", p.FrameCount)
		if p.TestFrame != nil {
			c.check(*p.TestFrame >= 0, key("test_frame"), "must not be negative", *p.TestFrame)
		}
		c.check(p.Layout == domain.LayoutStrip || p.Layout == domain.LayoutSpiral, key("layout"), "must be strip or spiral", p.Layout)
		c.check(p.Spacing >= 0, key("spacing"), "must not be negative", p.Spacing)
		c.check(p.FrameEncoding == domain.EncodingTree || p.FrameEncoding == domain.EncodingTessellation,
			key("frame_encoding"), "must be tree or tessellation", p.FrameEncoding)
		c.check(p.FrameEncoding != domain.EncodingTessellation || !p.MakeGrid || p.MakeFrames, key("make_frames"),
			"a tessellation grid references the frame documents", nil)
		c.check(p.ShareMinNodes >= 0, key("share_min_nodes"), "must not be negative", p.ShareMinNodes)
		c.check(p.OutOfBoundsValue < 0 || p.OutOfBoundsValue >= p.Levels, key("out_of_bounds_value"),
			"must lie outside the value domain [0, levels)", p.OutOfBoundsValue)
		c.check(p.MakeFrames || p.MakeGrid || p.MakeTP, key("make_frames"), "project produces nothing", nil)
	}

	if len(c.errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidConfig, &AggregateError{Errors: c.errs})
	}
	return nil
}
