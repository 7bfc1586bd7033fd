package expr

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var magic = [4]byte{'V', '2', 'D', 'F'}

const codecVersion = 1

// ErrCorrupt is returned when a binary payload cannot be decoded.
var ErrCorrupt = errors.New("corrupt expression payload")

// Marshal encodes the expression rooted at root into a compact binary form.
// Only nodes reachable from root are written; shared subtrees stay shared.
func (a *Arena) Marshal(root NodeID) []byte {
	order := a.Reachable(root)
	local := make(map[NodeID]uint64, len(order))

	var buf bytes.Buffer
	buf.Write(magic[:])
	buf.WriteByte(codecVersion)
	buf.Write(binary.AppendUvarint(nil, uint64(len(order))))

	var scratch []byte
	for i, id := range order {
		n := a.nodes[id]
		scratch = append(scratch[:0], byte(n.Kind))
		switch n.Kind {
		case KindConstant:
			scratch = binary.AppendVarint(scratch, int64(n.Value))
		case KindConditional:
			scratch = append(scratch, byte(n.Axis))
			scratch = binary.AppendVarint(scratch, int64(n.Threshold))
			scratch = binary.AppendUvarint(scratch, local[n.Then])
			scratch = binary.AppendUvarint(scratch, local[n.Else])
		case KindReference:
			scratch = binary.AppendUvarint(scratch, local[n.Target])
		}
		buf.Write(scratch)
		local[id] = uint64(i)
	}
	return buf.Bytes()
}

// Unmarshal decodes a payload produced by Marshal into a and returns the root.
func (a *Arena) Unmarshal(data []byte) (NodeID, error) {
	r := bytes.NewReader(data)
	var head [5]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return Invalid, fmt.Errorf("%w: header: %v", ErrCorrupt, err)
	}
	if !bytes.Equal(head[:4], magic[:]) {
		return Invalid, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if head[4] != codecVersion {
		return Invalid, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, head[4])
	}
	count, err := binary.ReadUvarint(r)
	if err != nil || count == 0 || count > uint64(len(data)) {
		return Invalid, fmt.Errorf("%w: node count", ErrCorrupt)
	}

	ids := make([]NodeID, 0, count)
	ref := func() (NodeID, error) {
		v, err := binary.ReadUvarint(r)
		if err != nil {
			return Invalid, err
		}
		if v >= uint64(len(ids)) {
			return Invalid, fmt.Errorf("forward reference %d", v)
		}
		return ids[v], nil
	}

	for i := uint64(0); i < count; i++ {
		kind, err := r.ReadByte()
		if err != nil {
			return Invalid, fmt.Errorf("%w: node %d: %v", ErrCorrupt, i, err)
		}
		var id NodeID
		switch Kind(kind) {
		case KindConstant:
			v, err := binary.ReadVarint(r)
			if err != nil {
				return Invalid, fmt.Errorf("%w: node %d: %v", ErrCorrupt, i, err)
			}
			id = a.Constant(int(v))
		case KindConditional:
			axis, err := r.ReadByte()
			if err != nil || Axis(axis) > AxisFrame {
				return Invalid, fmt.Errorf("%w: node %d: bad axis", ErrCorrupt, i)
			}
			threshold, err := binary.ReadVarint(r)
			if err != nil {
				return Invalid, fmt.Errorf("%w: node %d: %v", ErrCorrupt, i, err)
			}
			then, err := ref()
			if err != nil {
				return Invalid, fmt.Errorf("%w: node %d: %v", ErrCorrupt, i, err)
			}
			els, err := ref()
			if err != nil {
				return Invalid, fmt.Errorf("%w: node %d: %v", ErrCorrupt, i, err)
			}
			id = a.Conditional(Axis(axis), int(threshold), then, els)
		case KindReference:
			target, err := ref()
			if err != nil {
				return Invalid, fmt.Errorf("%w: node %d: %v", ErrCorrupt, i, err)
			}
			id = a.Reference(target)
		default:
			return Invalid, fmt.Errorf("%w: node %d: unknown kind %d", ErrCorrupt, i, kind)
		}
		ids = append(ids, id)
	}
	if r.Len() != 0 {
		return Invalid, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, r.Len())
	}
	return ids[len(ids)-1], nil
}
