package densityfn

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/aretw0/v2df/pkg/expr"
)

// Density function type names.
const (
	TypeRangeChoice  = "minecraft:range_choice"
	TypeConstant     = "minecraft:constant"
	TypeFlatCache    = "minecraft:flat_cache"
	TypeCache2D      = "minecraft:cache_2d"
	TypeTessellation = "moredfs:single_channel_image_tessellation"
)

// MinInclusive is the lower bound of every range choice, so that
// "in range" means exactly "below the threshold".
const MinInclusive = math.MinInt32

// ProvenanceKey is the root entry holding a document's Provenance.
const ProvenanceKey = "v2df_provenance"

// DefaultAxisInputs binds each axis to the density function it reads.
var DefaultAxisInputs = map[string]string{
	"x":     "moredfs:x",
	"z":     "moredfs:z",
	"frame": "v2df:frame",
}

// Codec converts between arenas and density function values.
type Codec struct {
	inputs map[expr.Axis]string
	axes   map[string]expr.Axis
}

// NewCodec builds a codec. overrides replaces entries of DefaultAxisInputs by axis name.
func NewCodec(overrides map[string]string) (*Codec, error) {
	c := &Codec{inputs: make(map[expr.Axis]string), axes: make(map[string]expr.Axis)}
	names := make(map[string]string, len(DefaultAxisInputs))
	for k, v := range DefaultAxisInputs {
		names[k] = v
	}
	for k, v := range overrides {
		if _, err := expr.ParseAxis(k); err != nil {
			return nil, fmt.Errorf("axis_inputs: %w", err)
		}
		if v == "" {
			return nil, fmt.Errorf("axis_inputs: empty input for axis %q", k)
		}
		names[k] = v
	}
	for k, v := range names {
		axis, _ := expr.ParseAxis(k)
		if other, dup := c.axes[v]; dup {
			return nil, fmt.Errorf("axis_inputs: %q bound to both %s and %s", v, other, axis)
		}
		c.inputs[axis] = v
		c.axes[v] = axis
	}
	return c, nil
}

// Input returns the density function bound to axis.
func (c *Codec) Input(axis expr.Axis) string { return c.inputs[axis] }

type rangeChoice struct {
	Type           string `json:"type"`
	Input          string `json:"input"`
	MinInclusive   int64  `json:"min_inclusive"`
	MaxExclusive   int    `json:"max_exclusive"`
	WhenInRange    any    `json:"when_in_range"`
	WhenOutOfRange any    `json:"when_out_of_range"`
}

type constant struct {
	Type     string `json:"type"`
	Argument int    `json:"argument"`
}

// Encode returns the JSON value of the expression rooted at root.
// Nodes present in refs are written as references to the given ids instead of inline.
func (c *Codec) Encode(a *expr.Arena, root expr.NodeID, refs map[expr.NodeID]string) any {
	memo := make(map[expr.NodeID]any)
	var enc func(id expr.NodeID, top bool) any
	enc = func(id expr.NodeID, top bool) any {
		if ref, ok := refs[id]; ok && !top {
			return ref
		}
		if v, ok := memo[id]; ok {
			return v
		}
		n := a.Node(id)
		var out any
		switch n.Kind {
		case expr.KindConstant:
			out = n.Value
		case expr.KindConditional:
			out = &rangeChoice{
				Type:           TypeRangeChoice,
				Input:          c.inputs[n.Axis],
				MinInclusive:   MinInclusive,
				MaxExclusive:   n.Threshold,
				WhenInRange:    enc(n.Then, false),
				WhenOutOfRange: enc(n.Else, false),
			}
		case expr.KindReference:
			out = enc(n.Target, false)
		}
		memo[id] = out
		return out
	}
	return enc(root, true)
}

// Decode builds the expression described by v into a.
// String values are references and are handed to resolve; a nil resolve rejects them.
func (c *Codec) Decode(v any, a *expr.Arena, resolve func(id string) (expr.NodeID, error)) (expr.NodeID, error) {
	switch t := v.(type) {
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return expr.Invalid, fmt.Errorf("constant %s: %w", t, err)
		}
		return a.Constant(int(n)), nil
	case float64:
		if t != math.Trunc(t) {
			return expr.Invalid, fmt.Errorf("constant %v is not an integer", t)
		}
		return a.Constant(int(t)), nil
	case string:
		if resolve == nil {
			return expr.Invalid, fmt.Errorf("unresolved reference %q", t)
		}
		target, err := resolve(t)
		if err != nil {
			return expr.Invalid, fmt.Errorf("reference %q: %w", t, err)
		}
		return a.Reference(target), nil
	case map[string]any:
		return c.decodeObject(t, a, resolve)
	}
	return expr.Invalid, fmt.Errorf("unsupported density function value %T", v)
}

func (c *Codec) decodeObject(m map[string]any, a *expr.Arena, resolve func(string) (expr.NodeID, error)) (expr.NodeID, error) {
	typ, _ := m["type"].(string)
	switch typ {
	case TypeConstant:
		return c.Decode(m["argument"], a, resolve)
	case TypeRangeChoice:
		input, _ := m["input"].(string)
		axis, ok := c.axes[input]
		if !ok {
			return expr.Invalid, fmt.Errorf("range_choice reads unbound input %q", input)
		}
		lo, err := integer(m["min_inclusive"])
		if err != nil || lo != MinInclusive {
			return expr.Invalid, fmt.Errorf("range_choice min_inclusive must be %d", MinInclusive)
		}
		hi, err := integer(m["max_exclusive"])
		if err != nil {
			return expr.Invalid, fmt.Errorf("range_choice max_exclusive: %w", err)
		}
		then, err := c.Decode(m["when_in_range"], a, resolve)
		if err != nil {
			return expr.Invalid, err
		}
		els, err := c.Decode(m["when_out_of_range"], a, resolve)
		if err != nil {
			return expr.Invalid, err
		}
		return a.Conditional(axis, int(hi), then, els), nil
	}
	return expr.Invalid, fmt.Errorf("unsupported density function type %q", typ)
}

func integer(v any) (int64, error) {
	switch t := v.(type) {
	case json.Number:
		return t.Int64()
	case float64:
		if t == math.Trunc(t) {
			return int64(t), nil
		}
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	}
	return 0, fmt.Errorf("expected integer, got %v", v)
}

// Document renders the expression as a standalone document.
func (c *Codec) Document(prov Provenance, a *expr.Arena, root expr.NodeID, refs map[expr.NodeID]string) ([]byte, error) {
	body := c.Encode(a, root, refs)
	if v, ok := body.(int); ok {
		body = &constant{Type: TypeConstant, Argument: v}
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode tree: %w", err)
	}
	return withProvenance(raw, prov)
}

// ParseDocument decodes a document produced by Document.
func (c *Codec) ParseDocument(data []byte, a *expr.Arena, resolve func(string) (expr.NodeID, error)) (expr.NodeID, Provenance, error) {
	m, prov, err := splitProvenance(data)
	if err != nil {
		return expr.Invalid, Provenance{}, err
	}
	root, err := c.Decode(m, a, resolve)
	return root, prov, err
}

// withProvenance inserts the provenance entry first in a JSON object and indents the result.
func withProvenance(object []byte, prov Provenance) ([]byte, error) {
	p, err := json.Marshal(prov)
	if err != nil {
		return nil, fmt.Errorf("encode provenance: %w", err)
	}
	object = bytes.TrimSpace(object)
	if len(object) < 2 || object[0] != '{' {
		return nil, fmt.Errorf("document root is not an object")
	}

	var buf bytes.Buffer
	buf.WriteString(`{"` + ProvenanceKey + `":`)
	buf.Write(p)
	if rest := bytes.TrimSpace(object[1:]); len(rest) > 1 {
		buf.WriteByte(',')
	}
	buf.Write(object[1:])

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func splitProvenance(data []byte) (map[string]any, Provenance, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, Provenance{}, fmt.Errorf("parse document: %w", err)
	}
	var prov Provenance
	if raw, ok := m[ProvenanceKey]; ok {
		b, _ := json.Marshal(raw)
		if err := json.Unmarshal(b, &prov); err != nil {
			return nil, Provenance{}, fmt.Errorf("parse provenance: %w", err)
		}
		delete(m, ProvenanceKey)
	}
	return m, prov, nil
}

// SortedRefs returns ids in a stable order, for emitting shared definitions.
func SortedRefs(refs map[expr.NodeID]string) []expr.NodeID {
	ids := make([]expr.NodeID, 0, len(refs))
	for id := range refs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
