package dex

// TypeID, StringID etc. are indices into their respective id tables;
// NoIndex marks an absent reference (DEX's 0xffffffff sentinel).
const NoIndex = 0xffffffff

// ProtoID is a decoded proto_id_item: shorty string id, return type id,
// and the offset of its parameter type_list (0 if none).
type ProtoID struct {
	ShortyIdx   uint32
	ReturnTyIdx uint32
	ParamsOff   uint32
}

// FieldID is a decoded field_id_item.
type FieldID struct {
	ClassIdx uint16
	TypeIdx  uint16
	NameIdx  uint32
}

// MethodID is a decoded method_id_item.
type MethodID struct {
	ClassIdx uint16
	ProtoIdx uint16
	NameIdx  uint32
}

// EncodedField is one static_field or instance_field entry. FieldIdx is
// already accumulated from its delta (spec.md §4.2/§8 property 5).
type EncodedField struct {
	FieldIdx    uint32
	AccessFlags uint32
}

// EncodedMethod is one direct_method or virtual_method entry.
// MethodIdx is already accumulated from its delta.
type EncodedMethod struct {
	MethodIdx   uint32
	AccessFlags uint32
	CodeOff     uint32
	Code        *CodeItem // nil if CodeOff == 0 (abstract/native)
}

// TryItem describes one try-block range and the offset of its handler
// list within the handler stream.
type TryItem struct {
	StartAddr  uint32
	InsnCount  uint16
	HandlerOff uint16
}

// CatchHandler is one typed (type, handler address) pair. A catch-all
// is not a CatchHandler; it is kept in EncodedCatchHandler.CatchAll.
type CatchHandler struct {
	TypeIdx uint32
	Addr    uint32
}

// EncodedCatchHandler is the handler list for one TryItem.
type EncodedCatchHandler struct {
	Handlers []CatchHandler
	CatchAll uint32 // 0 if absent; see HasCatchAll
	hasAll   bool
}

// HasCatchAll reports whether this handler list ends in a catch-all.
func (h EncodedCatchHandler) HasCatchAll() bool { return h.hasAll }

// CodeItem is a method's code_item: registers, instruction stream, and
// try/catch table.
type CodeItem struct {
	RegistersSize uint16
	InsSize       uint16
	OutsSize      uint16
	TriesSize     uint16
	DebugInfoOff  uint32
	Insns         []uint16 // code units, 16 bits each
	Tries         []TryItem
	Handlers      []EncodedCatchHandler

	// handlerByOffset maps a TryItem.HandlerOff (byte offset relative
	// to the start of the encoded_catch_handler_list, i.e. just past
	// its own uleb128 size field) to the handler decoded there. Several
	// TryItems may legally share one offset.
	handlerByOffset map[uint16]EncodedCatchHandler
}

// HandlerFor resolves a TryItem's HandlerOff to its decoded handler
// list.
func (ci *CodeItem) HandlerFor(t TryItem) (EncodedCatchHandler, bool) {
	h, ok := ci.handlerByOffset[t.HandlerOff]
	return h, ok
}

// classData holds the decoded (lazily, per-class-def) field and method
// lists of one class_data_item.
type classData struct {
	StaticFields    []EncodedField
	InstanceFields  []EncodedField
	DirectMethods   []EncodedMethod
	VirtualMethods  []EncodedMethod
	decoded         bool
}

// ClassDef is a decoded class_def_item plus its lazily-resolved
// class_data_item contents.
type ClassDef struct {
	ClassIdx        uint32
	AccessFlags     uint32
	SuperclassIdx   uint32 // NoIndex if none
	InterfacesOff   uint32
	SourceFileIdx   uint32 // NoIndex if none
	AnnotationsOff  uint32
	ClassDataOff    uint32 // 0 if the class has no fields or methods
	StaticValuesOff uint32

	Interfaces []uint32

	data classData
}
