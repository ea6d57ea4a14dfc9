package dex

import (
	"github.com/deploymenttheory/garlic/internal/binreader"
	"github.com/deploymenttheory/garlic/internal/errs"
)

// Image is a fully parsed DEX container: the header, the interned
// pools, and the eagerly-decoded class-def table. It is shared
// read-only by every task derived from the same .dex entry (spec.md
// §3 "Ownership").
type Image struct {
	Header Header
	pool   *pool

	ClassDefs []*ClassDef
}

// Parse decodes a DEX file's bytes into an Image. It validates the
// header invariants, builds the interned pool offset tables eagerly,
// and decodes the class-def table eagerly (fixed-size records);
// class-data (field/method lists) is decoded lazily per class-def on
// first access via ClassData.
func Parse(data []byte) (*Image, error) {
	b := binreader.New(data)

	hdr, err := readHeader(b)
	if err != nil {
		return nil, err
	}
	if err := hdr.validate(len(data)); err != nil {
		return nil, err
	}

	img := &Image{Header: hdr, pool: &pool{buf: binreader.New(data)}}

	if err := img.readStringIDs(data); err != nil {
		return nil, err
	}
	if err := img.readTypeIDs(data); err != nil {
		return nil, err
	}
	if err := img.readProtoIDs(data); err != nil {
		return nil, err
	}
	if err := img.readFieldIDs(data); err != nil {
		return nil, err
	}
	if err := img.readMethodIDs(data); err != nil {
		return nil, err
	}
	if err := img.readClassDefs(data); err != nil {
		return nil, err
	}
	return img, nil
}

func readHeader(b *binreader.Buffer) (Header, error) {
	var h Header
	magic, err := b.ReadBytes(8)
	if err != nil {
		return h, errs.ErrFormat
	}
	copy(h.Magic[:], magic)

	if h.Checksum, err = b.ReadU32LE(); err != nil {
		return h, errs.ErrFormat
	}
	sig, err := b.ReadBytes(20)
	if err != nil {
		return h, errs.ErrFormat
	}
	copy(h.Signature[:], sig)

	readU32 := func(dst *uint32) {
		if err != nil {
			return
		}
		*dst, err = b.ReadU32LE()
	}
	readU32(&h.FileSize)
	readU32(&h.HeaderSize)
	readU32(&h.EndianTag)
	readU32(&h.Link.Size)
	readU32(&h.Link.Offset)
	readU32(&h.MapOff)
	readU32(&h.StringIDs.Size)
	readU32(&h.StringIDs.Offset)
	readU32(&h.TypeIDs.Size)
	readU32(&h.TypeIDs.Offset)
	readU32(&h.ProtoIDs.Size)
	readU32(&h.ProtoIDs.Offset)
	readU32(&h.FieldIDs.Size)
	readU32(&h.FieldIDs.Offset)
	readU32(&h.MethodIDs.Size)
	readU32(&h.MethodIDs.Offset)
	readU32(&h.ClassDefs.Size)
	readU32(&h.ClassDefs.Offset)
	readU32(&h.Data.Size)
	readU32(&h.Data.Offset)
	if err != nil {
		return h, errs.ErrFormat
	}
	return h, nil
}

func (img *Image) readStringIDs(data []byte) error {
	n := int(img.Header.StringIDs.Size)
	b, err := binreader.New(data).SubBuffer(int(img.Header.StringIDs.Offset), n*4)
	if err != nil {
		return errs.ErrFormat
	}
	offs := make([]uint32, n)
	for i := 0; i < n; i++ {
		v, err := b.ReadU32LE()
		if err != nil {
			return errs.ErrFormat
		}
		offs[i] = v
	}
	img.pool.stringOffsets = offs
	return nil
}

func (img *Image) readTypeIDs(data []byte) error {
	n := int(img.Header.TypeIDs.Size)
	b, err := binreader.New(data).SubBuffer(int(img.Header.TypeIDs.Offset), n*4)
	if err != nil {
		return errs.ErrFormat
	}
	idx := make([]uint32, n)
	for i := 0; i < n; i++ {
		v, err := b.ReadU32LE()
		if err != nil {
			return errs.ErrFormat
		}
		idx[i] = v
	}
	img.pool.typeIdx = idx
	return nil
}

func (img *Image) readProtoIDs(data []byte) error {
	n := int(img.Header.ProtoIDs.Size)
	b, err := binreader.New(data).SubBuffer(int(img.Header.ProtoIDs.Offset), n*12)
	if err != nil {
		return errs.ErrFormat
	}
	protos := make([]ProtoID, n)
	for i := 0; i < n; i++ {
		shorty, e1 := b.ReadU32LE()
		ret, e2 := b.ReadU32LE()
		params, e3 := b.ReadU32LE()
		if e1 != nil || e2 != nil || e3 != nil {
			return errs.ErrFormat
		}
		protos[i] = ProtoID{ShortyIdx: shorty, ReturnTyIdx: ret, ParamsOff: params}
	}
	img.pool.protos = protos
	return nil
}

func (img *Image) readFieldIDs(data []byte) error {
	n := int(img.Header.FieldIDs.Size)
	b, err := binreader.New(data).SubBuffer(int(img.Header.FieldIDs.Offset), n*8)
	if err != nil {
		return errs.ErrFormat
	}
	fields := make([]FieldID, n)
	for i := 0; i < n; i++ {
		class, e1 := b.ReadU16LE()
		typ, e2 := b.ReadU16LE()
		name, e3 := b.ReadU32LE()
		if e1 != nil || e2 != nil || e3 != nil {
			return errs.ErrFormat
		}
		fields[i] = FieldID{ClassIdx: class, TypeIdx: typ, NameIdx: name}
	}
	img.pool.fields = fields
	return nil
}

func (img *Image) readMethodIDs(data []byte) error {
	n := int(img.Header.MethodIDs.Size)
	b, err := binreader.New(data).SubBuffer(int(img.Header.MethodIDs.Offset), n*8)
	if err != nil {
		return errs.ErrFormat
	}
	methods := make([]MethodID, n)
	for i := 0; i < n; i++ {
		class, e1 := b.ReadU16LE()
		proto, e2 := b.ReadU16LE()
		name, e3 := b.ReadU32LE()
		if e1 != nil || e2 != nil || e3 != nil {
			return errs.ErrFormat
		}
		methods[i] = MethodID{ClassIdx: class, ProtoIdx: proto, NameIdx: name}
	}
	img.pool.methods = methods
	return nil
}

func (img *Image) readClassDefs(data []byte) error {
	n := int(img.Header.ClassDefs.Size)
	b, err := binreader.New(data).SubBuffer(int(img.Header.ClassDefs.Offset), n*32)
	if err != nil {
		return errs.ErrFormat
	}
	defs := make([]*ClassDef, n)
	for i := 0; i < n; i++ {
		cd := &ClassDef{}
		fs := []*uint32{
			&cd.ClassIdx, &cd.AccessFlags, &cd.SuperclassIdx, &cd.InterfacesOff,
			&cd.SourceFileIdx, &cd.AnnotationsOff, &cd.ClassDataOff, &cd.StaticValuesOff,
		}
		for _, f := range fs {
			v, rerr := b.ReadU32LE()
			if rerr != nil {
				return errs.ErrFormat
			}
			*f = v
		}
		if cd.InterfacesOff != 0 {
			ifaces, ierr := img.readTypeList(data, cd.InterfacesOff)
			if ierr != nil {
				return ierr
			}
			cd.Interfaces = ifaces
		}
		defs[i] = cd
	}
	img.ClassDefs = defs
	return nil
}

func (img *Image) readTypeList(data []byte, off uint32) ([]uint32, error) {
	b, err := binreader.New(data).SubBuffer(int(off), len(data)-int(off))
	if err != nil {
		return nil, errs.ErrFormat
	}
	size, err := b.ReadU32LE()
	if err != nil {
		return nil, errs.ErrFormat
	}
	out := make([]uint32, size)
	for i := uint32(0); i < size; i++ {
		v, err := b.ReadU16LE()
		if err != nil {
			return nil, errs.ErrFormat
		}
		out[i] = uint32(v)
	}
	return out, nil
}

// String resolves a string id through the image's interned pool.
func (img *Image) String(i uint32) (string, error) { return img.pool.String(i) }

// Type resolves a type id to its descriptor.
func (img *Image) Type(i uint32) (string, error) { return img.pool.Type(i) }

// Proto resolves a proto id.
func (img *Image) Proto(i uint32) (ProtoID, error) { return img.pool.Proto(i) }

// Field resolves a field id.
func (img *Image) Field(i uint32) (FieldID, error) { return img.pool.Field(i) }

// Method resolves a method id.
func (img *Image) Method(i uint32) (MethodID, error) { return img.pool.Method(i) }

// ProtoParamTypes resolves a proto's parameter list.
func (img *Image) ProtoParamTypes(p ProtoID) ([]string, error) { return img.pool.ProtoParamTypes(p) }

// rawData exposes the backing byte slice for class-data/code-item
// decoding, which needs arbitrary offsets not covered by the pool.
func (img *Image) rawData() []byte { return img.pool.buf.Bytes() }
