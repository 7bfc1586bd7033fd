package domain

// Defaults applied to configuration fields left unset.
const (
	DefaultConfigName       = "v2df_config"
	DefaultVideoFile        = "input.mp4"
	DefaultOutputRootDir    = "./output"
	DefaultNamespace        = "namespace"
	DefaultBorderWidth      = 32
	DefaultBorderColor      = 1
	DefaultThreshold        = 127
	DefaultLevels           = 2
	DefaultFrameDFsDir      = "./frames"
	DefaultGridDFDir        = "./"
	DefaultTPDir            = "./frame_tp"
	DefaultTPHeight         = 220
	DefaultSpacing          = 16
	DefaultShareMinNodes    = 8
	DefaultOutOfBoundsValue = 256
	DefaultTickRate         = 20
	DefaultDriftTolerance   = 1.0
	DefaultSequenceFPS      = 30
	DefaultCachePrefix      = "v2df:tree:"
)

// Layout names.
const (
	LayoutStrip  = "strip"
	LayoutSpiral = "spiral"
)

// Frame encodings.
const (
	EncodingTree         = "tree"
	EncodingTessellation = "tessellation"
)

// File names produced by a render.
const (
	GridFileName   = "all_frames.json"
	SharedDirName  = "shared"
	ManifestSuffix = ".manifest.json"
)
