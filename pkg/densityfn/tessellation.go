package densityfn

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

type tessellation struct {
	Type         string `json:"type"`
	XSize        int    `json:"x_size"`
	ZSize        int    `json:"z_size"`
	DeflatedData string `json:"deflated_frame_data"`
}

type wrapped struct {
	Type     string `json:"type"`
	Argument any    `json:"argument"`
}

// TessellationDocument embeds a single channel image of width by height bytes,
// zlib deflated and base64 encoded, behind flat and 2D caches.
func TessellationDocument(prov Provenance, width, height int, pix []byte) ([]byte, error) {
	if len(pix) != width*height {
		return nil, fmt.Errorf("tessellation image holds %d bytes, want %d", len(pix), width*height)
	}
	var deflated bytes.Buffer
	zw := zlib.NewWriter(&deflated)
	if _, err := zw.Write(pix); err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}

	doc := wrapped{
		Type: TypeFlatCache,
		Argument: wrapped{
			Type: TypeCache2D,
			Argument: tessellation{
				Type:         TypeTessellation,
				XSize:        width,
				ZSize:        height,
				DeflatedData: base64.StdEncoding.EncodeToString(deflated.Bytes()),
			},
		},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return withProvenance(raw, prov)
}

// ParseTessellation returns the image embedded by TessellationDocument.
func ParseTessellation(data []byte) (width, height int, pix []byte, prov Provenance, err error) {
	_, prov, err = splitProvenance(data)
	if err != nil {
		return 0, 0, nil, prov, err
	}
	var doc struct {
		Argument struct {
			Argument tessellation `json:"argument"`
		} `json:"argument"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, 0, nil, prov, fmt.Errorf("parse tessellation: %w", err)
	}
	t := doc.Argument.Argument
	if t.Type != TypeTessellation {
		return 0, 0, nil, prov, fmt.Errorf("unexpected density function type %q", t.Type)
	}
	deflated, err := base64.StdEncoding.DecodeString(t.DeflatedData)
	if err != nil {
		return 0, 0, nil, prov, fmt.Errorf("decode frame data: %w", err)
	}
	zr, err := zlib.NewReader(bytes.NewReader(deflated))
	if err != nil {
		return 0, 0, nil, prov, fmt.Errorf("inflate: %w", err)
	}
	defer zr.Close()
	pix, err = io.ReadAll(zr)
	if err != nil {
		return 0, 0, nil, prov, fmt.Errorf("inflate: %w", err)
	}
	if len(pix) != t.XSize*t.ZSize {
		return 0, 0, nil, prov, fmt.Errorf("frame data holds %d bytes, want %d", len(pix), t.XSize*t.ZSize)
	}
	return t.XSize, t.ZSize, pix, prov, nil
}
