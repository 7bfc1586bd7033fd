package domain

import "time"

// Config is the root of a v2df project file.
type Config struct {
	VideoFile        string            `json:"video_file" yaml:"video_file" toml:"video_file" mapstructure:"video_file"`
	OutputRootDir    string            `json:"output_root_dir" yaml:"output_root_dir" toml:"output_root_dir" mapstructure:"output_root_dir"`
	TickRate         int               `json:"tick_rate" yaml:"tick_rate" toml:"tick_rate" mapstructure:"tick_rate"`
	DriftTolerance   float64           `json:"drift_tolerance" yaml:"drift_tolerance" toml:"drift_tolerance" mapstructure:"drift_tolerance"`
	Workers          int               `json:"workers,omitempty" yaml:"workers,omitempty" toml:"workers,omitempty" mapstructure:"workers"`
	ImageSequenceFPS float64           `json:"image_sequence_fps,omitempty" yaml:"image_sequence_fps,omitempty" toml:"image_sequence_fps,omitempty" mapstructure:"image_sequence_fps"`
	AxisInputs       map[string]string `json:"axis_inputs,omitempty" yaml:"axis_inputs,omitempty" toml:"axis_inputs,omitempty" mapstructure:"axis_inputs"`
	Cache            CacheConfig       `json:"cache" yaml:"cache" toml:"cache" mapstructure:"cache"`
	Projects         []ProjectSpec     `json:"projects" yaml:"projects" toml:"projects" mapstructure:"projects"`
}

// CacheConfig selects the compiled tree cache backend.
// An empty RedisURL selects the in-process cache.
type CacheConfig struct {
	RedisURL string        `json:"redis_url,omitempty" yaml:"redis_url,omitempty" toml:"redis_url,omitempty" mapstructure:"redis_url"`
	Prefix   string        `json:"prefix,omitempty" yaml:"prefix,omitempty" toml:"prefix,omitempty" mapstructure:"prefix"`
	TTL      time.Duration `json:"ttl,omitempty" yaml:"ttl,omitempty" toml:"ttl,omitempty" mapstructure:"ttl"`
}

// ProjectSpec configures one rendered project. It is read-only for every stage.
type ProjectSpec struct {
	Namespace    string `json:"namespace" yaml:"namespace" toml:"namespace" mapstructure:"namespace"`
	BorderWidth  int    `json:"border_width" yaml:"border_width" toml:"border_width" mapstructure:"border_width"`
	BorderColor  int    `json:"border_color" yaml:"border_color" toml:"border_color" mapstructure:"border_color"`
	InvertColors bool   `json:"invert_colors,omitempty" yaml:"invert_colors,omitempty" toml:"invert_colors,omitempty" mapstructure:"invert_colors"`
	Threshold    int    `json:"threshold" yaml:"threshold" toml:"threshold" mapstructure:"threshold"`
	Levels       int    `json:"levels" yaml:"levels" toml:"levels" mapstructure:"levels"`
	ScaleWidth   int    `json:"scale_width,omitempty" yaml:"scale_width,omitempty" toml:"scale_width,omitempty" mapstructure:"scale_width"`
	ScaleHeight  int    `json:"scale_height,omitempty" yaml:"scale_height,omitempty" toml:"scale_height,omitempty" mapstructure:"scale_height"`

	FrameStart int `json:"frame_start" yaml:"frame_start" toml:"frame_start" mapstructure:"frame_start"`
	// FrameCount limits the rendered range; 0 renders until the end of the source.
	FrameCount int `json:"frame_count,omitempty" yaml:"frame_count,omitempty" toml:"frame_count,omitempty" mapstructure:"frame_count"`

	MakeFrames  bool   `json:"make_frames" yaml:"make_frames" toml:"make_frames" mapstructure:"make_frames"`
	FrameDFsDir string `json:"frame_dfs_dir" yaml:"frame_dfs_dir" toml:"frame_dfs_dir" mapstructure:"frame_dfs_dir"`
	MakeGrid    bool   `json:"make_grid" yaml:"make_grid" toml:"make_grid" mapstructure:"make_grid"`
	GridDFDir   string `json:"grid_df_dir" yaml:"grid_df_dir" toml:"grid_df_dir" mapstructure:"grid_df_dir"`
	MakeTP      bool   `json:"make_tp" yaml:"make_tp" toml:"make_tp" mapstructure:"make_tp"`
	TPHeight    int    `json:"tp_height" yaml:"tp_height" toml:"tp_height" mapstructure:"tp_height"`
	TPDir       string `json:"tp_dir" yaml:"tp_dir" toml:"tp_dir" mapstructure:"tp_dir"`
	TestFrame   *int   `json:"test_frame,omitempty" yaml:"test_frame,omitempty" toml:"test_frame,omitempty" mapstructure:"test_frame"`

	Layout           string `json:"layout" yaml:"layout" toml:"layout" mapstructure:"layout"`
	Spacing          int    `json:"spacing" yaml:"spacing" toml:"spacing" mapstructure:"spacing"`
	FrameEncoding    string `json:"frame_encoding" yaml:"frame_encoding" toml:"frame_encoding" mapstructure:"frame_encoding"`
	ShareMinNodes    int    `json:"share_min_nodes" yaml:"share_min_nodes" toml:"share_min_nodes" mapstructure:"share_min_nodes"`
	OutOfBoundsValue int    `json:"out_of_bounds_value" yaml:"out_of_bounds_value" toml:"out_of_bounds_value" mapstructure:"out_of_bounds_value"`
}

// Border returns the project's border.
func (p ProjectSpec) Border() Border {
	return Border{Width: p.BorderWidth, Value: uint8(p.BorderColor)}
}

// TestFrameIndex returns the configured test frame, defaulting to FrameStart.
func (p ProjectSpec) TestFrameIndex() int {
	if p.TestFrame != nil {
		return *p.TestFrame
	}
	return p.FrameStart
}

// DefaultProject returns a project with every field at its default.
func DefaultProject() ProjectSpec {
	return ProjectSpec{
		Namespace:        DefaultNamespace,
		BorderWidth:      DefaultBorderWidth,
		BorderColor:      DefaultBorderColor,
		Threshold:        DefaultThreshold,
		Levels:           DefaultLevels,
		MakeFrames:       true,
		FrameDFsDir:      DefaultFrameDFsDir,
		MakeGrid:         true,
		GridDFDir:        DefaultGridDFDir,
		MakeTP:           true,
		TPHeight:         DefaultTPHeight,
		TPDir:            DefaultTPDir,
		Layout:           LayoutStrip,
		Spacing:          DefaultSpacing,
		FrameEncoding:    EncodingTree,
		ShareMinNodes:    DefaultShareMinNodes,
		OutOfBoundsValue: DefaultOutOfBoundsValue,
	}
}

// DefaultConfig returns the configuration written by 'v2df init'.
func DefaultConfig() Config {
	return Config{
		VideoFile:      DefaultVideoFile,
		OutputRootDir:  DefaultOutputRootDir,
		TickRate:       DefaultTickRate,
		DriftTolerance: DefaultDriftTolerance,
		Projects:       []ProjectSpec{DefaultProject()},
	}
}
