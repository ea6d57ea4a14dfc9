package jvmclass

import "fmt"

// ClassName resolves cf's this_class constant pool entry to its
// internal-form name (e.g. "p/A"), following the Class -> Utf8
// indirection the format always uses for a class reference.
func (cf *ClassFile) ClassName() (string, error) {
	return cf.resolveClassName(cf.ThisClass)
}

// SuperClassName resolves cf's super_class constant pool entry, "" if
// the class has no superclass (only java/lang/Object's own class file).
func (cf *ClassFile) SuperClassName() (string, error) {
	if cf.SuperClass == 0 {
		return "", nil
	}
	return cf.resolveClassName(cf.SuperClass)
}

func (cf *ClassFile) resolveClassName(classIdx uint16) (string, error) {
	if int(classIdx) >= len(cf.ConstantPool) {
		return "", fmt.Errorf("constant pool index %d out of range", classIdx)
	}
	classEntry := cf.ConstantPool[classIdx]
	if classEntry.Tag != tagClass {
		return "", fmt.Errorf("constant pool entry %d is not a Class", classIdx)
	}
	return cf.utf8(classEntry.ClassNameIdx)
}

// Utf8 resolves idx to its Utf8 constant pool value.
func (cf *ClassFile) Utf8(idx uint16) (string, error) {
	return cf.utf8(idx)
}

func (cf *ClassFile) utf8(idx uint16) (string, error) {
	if int(idx) >= len(cf.ConstantPool) {
		return "", fmt.Errorf("constant pool index %d out of range", idx)
	}
	if cf.ConstantPool[idx].Tag != tagUtf8 {
		return "", fmt.Errorf("constant pool entry %d is not a Utf8", idx)
	}
	return cf.ConstantPool[idx].Utf8, nil
}

// Dump renders cf in the javap-style header form spec.md's dump mode
// requires: "major_version=N, minor_version=N, this_class=Name".
func (cf *ClassFile) Dump() (string, error) {
	name, err := cf.ClassName()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("major_version=%d, minor_version=%d, this_class=%s", cf.MajorVersion, cf.MinorVersion, name), nil
}
