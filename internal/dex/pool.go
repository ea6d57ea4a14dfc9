package dex

import (
	"sync"

	"github.com/deploymenttheory/garlic/internal/arena"
	"github.com/deploymenttheory/garlic/internal/binreader"
	"github.com/deploymenttheory/garlic/internal/errs"
)

// pool holds the eagerly-built offset index tables for one interned
// section and lazily resolves each string id's bytes on first lookup,
// per spec.md §3 "Interned pool".
type pool struct {
	buf *binreader.Buffer

	stringOffsets []uint32
	typeIdx       []uint32 // type_id -> string id
	protos        []ProtoID
	fields        []FieldID
	methods       []MethodID

	mu      sync.Mutex
	strings map[uint32]string
}

// String resolves string id i to its decoded MUTF-8 value, caching the
// result.
func (p *pool) String(i uint32) (string, error) {
	if i >= uint32(len(p.stringOffsets)) {
		return "", errs.ErrFormat
	}
	p.mu.Lock()
	if s, ok := p.strings[i]; ok {
		p.mu.Unlock()
		return s, nil
	}
	p.mu.Unlock()

	b, err := p.buf.SubBuffer(int(p.stringOffsets[i]), p.buf.Len()-int(p.stringOffsets[i]))
	if err != nil {
		return "", errs.ErrFormat
	}
	units, err := b.ReadULEB128()
	if err != nil {
		return "", errs.ErrFormat
	}
	decoded, err := b.ReadMUTF8(int(units))
	if err != nil {
		return "", err
	}
	// The interned string pool outlives any single task (spec.md §3,
	// §5): every DexImage-derived task shares the same resolved
	// strings, so the bytes are copied through the process-wide arena
	// (Shared.String returns an ordinary heap string) and cached once.
	s := arena.ProcessWide().String([]byte(decoded))

	p.mu.Lock()
	if p.strings == nil {
		p.strings = make(map[uint32]string)
	}
	p.strings[i] = s
	p.mu.Unlock()
	return s, nil
}

// Type resolves type id i to its descriptor string (e.g. "Ljava/lang/Object;").
func (p *pool) Type(i uint32) (string, error) {
	if i == NoIndex {
		return "", nil
	}
	if i >= uint32(len(p.typeIdx)) {
		return "", errs.ErrFormat
	}
	return p.String(p.typeIdx[i])
}

// Proto returns the decoded proto_id_item for id i.
func (p *pool) Proto(i uint32) (ProtoID, error) {
	if i >= uint32(len(p.protos)) {
		return ProtoID{}, errs.ErrFormat
	}
	return p.protos[i], nil
}

// Field returns the decoded field_id_item for id i.
func (p *pool) Field(i uint32) (FieldID, error) {
	if i >= uint32(len(p.fields)) {
		return FieldID{}, errs.ErrFormat
	}
	return p.fields[i], nil
}

// Method returns the decoded method_id_item for id i.
func (p *pool) Method(i uint32) (MethodID, error) {
	if i >= uint32(len(p.methods)) {
		return MethodID{}, errs.ErrFormat
	}
	return p.methods[i], nil
}

// ProtoParamTypes resolves a proto's parameter type_list into type
// descriptor strings.
func (p *pool) ProtoParamTypes(proto ProtoID) ([]string, error) {
	if proto.ParamsOff == 0 {
		return nil, nil
	}
	b, err := p.buf.SubBuffer(int(proto.ParamsOff), p.buf.Len()-int(proto.ParamsOff))
	if err != nil {
		return nil, errs.ErrFormat
	}
	size, err := b.ReadU32LE()
	if err != nil {
		return nil, errs.ErrFormat
	}
	out := make([]string, 0, size)
	for i := uint32(0); i < size; i++ {
		tid, err := b.ReadU16LE()
		if err != nil {
			return nil, errs.ErrFormat
		}
		t, err := p.Type(uint32(tid))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
