package ast

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/Konsultn-Engineering/metal/utils"
)

const fpSeed = 0x9e3779b185ebca87

// opaqueSeq numbers literal values that have no exact encoding.
var opaqueSeq atomic.Uint64

// hasher folds node fields into a rolling fnv-based fingerprint. Two trees
// with equal structure and equal literal values hash to the same value.
// A literal whose value is not ExactValue makes every fingerprint of its
// tree unique.
type hasher struct {
	acc uint64
}

func newHasher(t NodeType) *hasher {
	return &hasher{acc: utils.Mix64(fpSeed, uint64(t))}
}

func (h *hasher) u64(v uint64) *hasher {
	h.acc = utils.Mix64(h.acc, v)
	return h
}

func (h *hasher) str(s string) *hasher {
	return h.u64(utils.U64(s))
}

func (h *hasher) flag(b bool) *hasher {
	if b {
		return h.u64(1)
	}
	return h.u64(2)
}

// Literal value tags.
const (
	tagNil uint64 = iota + 1
	tagBool
	tagString
	tagBytes
	tagInt
	tagInt8
	tagInt16
	tagInt32
	tagInt64
	tagUint
	tagUint8
	tagUint16
	tagUint32
	tagUint64
	tagFloat32
	tagFloat64
	tagTime
	tagOpaque
)

func (h *hasher) value(v any) *hasher {
	switch x := v.(type) {
	case nil:
		return h.u64(tagNil)
	case bool:
		return h.u64(tagBool).flag(x)
	case string:
		return h.u64(tagString).u64(uint64(len(x))).str(x)
	case []byte:
		return h.u64(tagBytes).u64(uint64(len(x))).str(string(x))
	case int:
		return h.u64(tagInt).u64(uint64(x))
	case int8:
		return h.u64(tagInt8).u64(uint64(x))
	case int16:
		return h.u64(tagInt16).u64(uint64(x))
	case int32:
		return h.u64(tagInt32).u64(uint64(x))
	case int64:
		return h.u64(tagInt64).u64(uint64(x))
	case uint:
		return h.u64(tagUint).u64(uint64(x))
	case uint8:
		return h.u64(tagUint8).u64(uint64(x))
	case uint16:
		return h.u64(tagUint16).u64(uint64(x))
	case uint32:
		return h.u64(tagUint32).u64(uint64(x))
	case uint64:
		return h.u64(tagUint64).u64(x)
	case float32:
		return h.u64(tagFloat32).u64(uint64(math.Float32bits(x)))
	case float64:
		return h.u64(tagFloat64).u64(math.Float64bits(x))
	case time.Time:
		return h.u64(tagTime).str(x.Format(time.RFC3339Nano)).str(x.Location().String())
	default:
		return h.u64(tagOpaque).u64(opaqueSeq.Add(1))
	}
}

// ExactValue reports whether v is a literal value the fingerprint encodes
// exactly: nil, bool, string, []byte, the sized integer and float types and
// time.Time. Named types over them are not exact.
func ExactValue(v any) bool {
	switch v.(type) {
	case nil, bool, string, []byte,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, time.Time:
		return true
	}
	return false
}

func (h *hasher) node(n Node) *hasher {
	if n == nil {
		return h.u64(0)
	}
	return h.u64(n.Fingerprint())
}

func (h *hasher) operands(ops []Operand) *hasher {
	h.u64(uint64(len(ops)))
	for _, op := range ops {
		h.node(op)
	}
	return h
}

func (h *hasher) expr(e Expression) *hasher {
	if e == nil {
		return h.u64(0)
	}
	return h.u64(e.Fingerprint())
}

func (h *hasher) query(q *SelectQuery) *hasher {
	if q == nil {
		return h.u64(0)
	}
	return h.u64(q.Fingerprint())
}

func (h *hasher) strs(ss []string) *hasher {
	h.u64(uint64(len(ss)))
	for _, s := range ss {
		h.str(s)
	}
	return h
}

func (h *hasher) intPtr(p *int) *hasher {
	if p == nil {
		return h.u64(0)
	}
	return h.u64(uint64(*p) + 1)
}

func (h *hasher) sum() uint64 {
	return h.acc
}
