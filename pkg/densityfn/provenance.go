package densityfn

// Document kinds.
const (
	KindFrame  = "frame"
	KindGrid   = "grid"
	KindShared = "shared"
)

// Provenance describes where a document came from.
type Provenance struct {
	Generator  string `json:"generator"`
	Project    string `json:"project"`
	Kind       string `json:"kind"`
	Encoding   string `json:"encoding"`
	FrameStart int    `json:"frame_start"`
	FrameCount int    `json:"frame_count"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	FrameRate  string `json:"frame_rate,omitempty"`
}
