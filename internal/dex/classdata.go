package dex

import (
	"github.com/deploymenttheory/garlic/internal/binreader"
	"github.com/deploymenttheory/garlic/internal/errs"
)

// ClassData decodes cd's class_data_item on first access and caches
// the result on cd, per spec.md §4.2 ("class-data ... is decoded on
// first access per class-def"). A class with ClassDataOff == 0 has no
// fields or methods at all (e.g. a marker interface).
func (img *Image) ClassData(cd *ClassDef) (static, instance []EncodedField, direct, virtual []EncodedMethod, err error) {
	if cd.data.decoded {
		return cd.data.StaticFields, cd.data.InstanceFields, cd.data.DirectMethods, cd.data.VirtualMethods, nil
	}
	if cd.ClassDataOff == 0 {
		cd.data.decoded = true
		return nil, nil, nil, nil, nil
	}

	data := img.rawData()
	b, berr := binreader.New(data).SubBuffer(int(cd.ClassDataOff), len(data)-int(cd.ClassDataOff))
	if berr != nil {
		return nil, nil, nil, nil, errs.ErrFormat
	}

	counts := make([]uint64, 4)
	for i := range counts {
		v, rerr := b.ReadULEB128()
		if rerr != nil {
			return nil, nil, nil, nil, errs.ErrFormat
		}
		counts[i] = v
	}

	staticFields, ferr := img.readEncodedFields(b, int(counts[0]))
	if ferr != nil {
		return nil, nil, nil, nil, ferr
	}
	instanceFields, ferr := img.readEncodedFields(b, int(counts[1]))
	if ferr != nil {
		return nil, nil, nil, nil, ferr
	}
	directMethods, merr := img.readEncodedMethods(b, int(counts[2]))
	if merr != nil {
		return nil, nil, nil, nil, merr
	}
	virtualMethods, merr := img.readEncodedMethods(b, int(counts[3]))
	if merr != nil {
		return nil, nil, nil, nil, merr
	}

	for i := range directMethods {
		if err := img.decodeCode(&directMethods[i]); err != nil {
			return nil, nil, nil, nil, err
		}
	}
	for i := range virtualMethods {
		if err := img.decodeCode(&virtualMethods[i]); err != nil {
			return nil, nil, nil, nil, err
		}
	}

	cd.data = classData{
		StaticFields:   staticFields,
		InstanceFields: instanceFields,
		DirectMethods:  directMethods,
		VirtualMethods: virtualMethods,
		decoded:        true,
	}
	return staticFields, instanceFields, directMethods, virtualMethods, nil
}

// readEncodedFields decodes n encoded_field entries, accumulating the
// field_idx_diff deltas into absolute field ids (spec.md §8 property
// 5, applied to fields the same way as methods).
func (img *Image) readEncodedFields(b *binreader.Buffer, n int) ([]EncodedField, error) {
	out := make([]EncodedField, n)
	var idx uint64
	for i := 0; i < n; i++ {
		delta, err := b.ReadULEB128()
		if err != nil {
			return nil, errs.ErrFormat
		}
		idx += delta
		flags, err := b.ReadULEB128()
		if err != nil {
			return nil, errs.ErrFormat
		}
		out[i] = EncodedField{FieldIdx: uint32(idx), AccessFlags: uint32(flags)}
	}
	return out, nil
}

// readEncodedMethods decodes n encoded_method entries, accumulating
// method_idx_diff deltas into absolute method ids.
func (img *Image) readEncodedMethods(b *binreader.Buffer, n int) ([]EncodedMethod, error) {
	out := make([]EncodedMethod, n)
	var idx uint64
	for i := 0; i < n; i++ {
		delta, err := b.ReadULEB128()
		if err != nil {
			return nil, errs.ErrFormat
		}
		idx += delta
		flags, err := b.ReadULEB128()
		if err != nil {
			return nil, errs.ErrFormat
		}
		codeOff, err := b.ReadULEB128()
		if err != nil {
			return nil, errs.ErrFormat
		}
		out[i] = EncodedMethod{MethodIdx: uint32(idx), AccessFlags: uint32(flags), CodeOff: uint32(codeOff)}
	}
	return out, nil
}

// decodeCode decodes m's code_item if it has one.
func (img *Image) decodeCode(m *EncodedMethod) error {
	if m.CodeOff == 0 {
		return nil
	}
	data := img.rawData()
	b, err := binreader.New(data).SubBuffer(int(m.CodeOff), len(data)-int(m.CodeOff))
	if err != nil {
		return errs.ErrFormat
	}

	ci := &CodeItem{}
	regs, e1 := b.ReadU16LE()
	ins, e2 := b.ReadU16LE()
	outs, e3 := b.ReadU16LE()
	tries, e4 := b.ReadU16LE()
	dbg, e5 := b.ReadU32LE()
	insnsSize, e6 := b.ReadU32LE()
	if e1 != nil || e2 != nil || e3 != nil || e4 != nil || e5 != nil || e6 != nil {
		return errs.ErrFormat
	}
	ci.RegistersSize, ci.InsSize, ci.OutsSize, ci.TriesSize, ci.DebugInfoOff = regs, ins, outs, tries, dbg

	insns := make([]uint16, insnsSize)
	for i := range insns {
		v, err := b.ReadU16LE()
		if err != nil {
			return errs.ErrFormat
		}
		insns[i] = v
	}
	ci.Insns = insns

	if ci.TriesSize != 0 {
		if insnsSize%2 != 0 {
			if _, err := b.ReadU16LE(); err != nil { // 2-byte padding
				return errs.ErrFormat
			}
		}
		tries := make([]TryItem, ci.TriesSize)
		for i := range tries {
			start, e1 := b.ReadU32LE()
			count, e2 := b.ReadU16LE()
			hoff, e3 := b.ReadU16LE()
			if e1 != nil || e2 != nil || e3 != nil {
				return errs.ErrFormat
			}
			tries[i] = TryItem{StartAddr: start, InsnCount: count, HandlerOff: hoff}
		}
		ci.Tries = tries

		listSize, err := b.ReadULEB128()
		if err != nil {
			return errs.ErrFormat
		}
		listBase := b.Pos()
		handlers := make([]EncodedCatchHandler, listSize)
		byOffset := make(map[uint16]EncodedCatchHandler, listSize)
		for i := range handlers {
			off := uint16(b.Pos() - listBase)
			h, err := readCatchHandler(b)
			if err != nil {
				return errs.ErrFormat
			}
			handlers[i] = h
			byOffset[off] = h
		}
		ci.Handlers = handlers
		ci.handlerByOffset = byOffset
	}

	m.Code = ci
	return nil
}

func readCatchHandler(b *binreader.Buffer) (EncodedCatchHandler, error) {
	size, err := b.ReadSLEB128()
	if err != nil {
		return EncodedCatchHandler{}, err
	}
	count := size
	hasCatchAll := size <= 0
	if hasCatchAll {
		count = -size
	}
	h := EncodedCatchHandler{Handlers: make([]CatchHandler, 0, count)}
	for i := int64(0); i < count; i++ {
		typeIdx, err := b.ReadULEB128()
		if err != nil {
			return EncodedCatchHandler{}, err
		}
		addr, err := b.ReadULEB128()
		if err != nil {
			return EncodedCatchHandler{}, err
		}
		h.Handlers = append(h.Handlers, CatchHandler{TypeIdx: uint32(typeIdx), Addr: uint32(addr)})
	}
	if hasCatchAll {
		addr, err := b.ReadULEB128()
		if err != nil {
			return EncodedCatchHandler{}, err
		}
		h.CatchAll = uint32(addr)
		h.hasAll = true
	}
	return h, nil
}
