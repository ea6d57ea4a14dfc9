package jvmclass

import "fmt"

// NameAndType resolves a NameAndType constant pool entry to its name
// and descriptor strings.
func (cf *ClassFile) NameAndType(idx uint16) (name, desc string, err error) {
	if int(idx) >= len(cf.ConstantPool) {
		return "", "", fmt.Errorf("constant pool index %d out of range", idx)
	}
	e := cf.ConstantPool[idx]
	if e.Tag != tagNameAndType {
		return "", "", fmt.Errorf("constant pool entry %d is not a NameAndType", idx)
	}
	if name, err = cf.utf8(e.NameIdx); err != nil {
		return "", "", err
	}
	desc, err = cf.utf8(e.DescriptorIdx)
	return name, desc, err
}

// MemberRef resolves a Fieldref/Methodref/InterfaceMethodref constant
// pool entry (internal/lift/jvmoplift.go's getfield/putfield/invoke*
// use this uniformly, since all three share the same class_index +
// name_and_type_index layout).
func (cf *ClassFile) MemberRef(idx uint16) (owner, name, desc string, err error) {
	if int(idx) >= len(cf.ConstantPool) {
		return "", "", "", fmt.Errorf("constant pool index %d out of range", idx)
	}
	e := cf.ConstantPool[idx]
	switch e.Tag {
	case tagFieldref, tagMethodref, tagInterfaceMethodref:
	default:
		return "", "", "", fmt.Errorf("constant pool entry %d is not a member ref", idx)
	}
	if owner, err = cf.resolveClassName(e.ClassIdx); err != nil {
		return "", "", "", err
	}
	name, desc, err = cf.NameAndType(e.NameTypeIdx)
	return owner, name, desc, err
}

// ClassRef resolves a Class constant pool entry directly (new,
// anewarray, checkcast, instanceof, multianewarray all index a Class
// entry rather than a member ref).
func (cf *ClassFile) ClassRef(idx uint16) (string, error) {
	return cf.resolveClassName(idx)
}

// InvokeDynamicNameAndType resolves an InvokeDynamic constant pool
// entry's callsite name and descriptor (internal/lift/jvmoplift.go's
// invokedynamic case). The bootstrap_method_attr_index half of the
// entry is left unresolved: this parser doesn't decode the
// BootstrapMethods attribute, so the lifter renders the callsite by
// name/descriptor only, not by its target lambda/method handle.
func (cf *ClassFile) InvokeDynamicNameAndType(idx uint16) (name, desc string, err error) {
	if int(idx) >= len(cf.ConstantPool) {
		return "", "", fmt.Errorf("constant pool index %d out of range", idx)
	}
	e := cf.ConstantPool[idx]
	if e.Tag != tagInvokeDynamic {
		return "", "", fmt.Errorf("constant pool entry %d is not an InvokeDynamic", idx)
	}
	return cf.NameAndType(e.NameTypeIdx)
}

// FindCode returns m's "Code" attribute, parsed, or nil if m has none
// (an abstract or native method_info never carries one).
func (cf *ClassFile) FindCode(m Member) (*CodeAttribute, error) {
	for _, a := range m.Attributes {
		name, err := cf.utf8(a.NameIdx)
		if err != nil {
			return nil, err
		}
		if name != "Code" {
			continue
		}
		return ParseCode(a.Raw)
	}
	return nil, nil
}

// LdcValue resolves an Integer/Float/Long/Double/String/Class constant
// pool entry to the literal value a ldc/ldc_w/ldc2_w instruction
// pushes, plus a type tag matching lift.Const's Type convention.
func (cf *ClassFile) LdcValue(idx uint16) (value interface{}, typ string, err error) {
	if int(idx) >= len(cf.ConstantPool) {
		return nil, "", fmt.Errorf("constant pool index %d out of range", idx)
	}
	e := cf.ConstantPool[idx]
	switch e.Tag {
	case tagInteger:
		return int64(e.Int32), "int", nil
	case tagFloat:
		return float64(e.Float32), "float", nil
	case tagLong:
		return e.Int64, "long", nil
	case tagDouble:
		return e.Float64, "double", nil
	case tagString:
		s, err := cf.utf8(e.StringIdx)
		return s, "string", err
	case tagClass:
		name, err := cf.resolveClassName(idx)
		return name, "class", err
	default:
		return nil, "", fmt.Errorf("constant pool entry %d (tag %d) is not loadable", idx, e.Tag)
	}
}
