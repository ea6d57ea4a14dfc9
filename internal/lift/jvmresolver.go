package lift

// JVMResolver is the subset of *jvmclass.ClassFile that JVM operation
// lifting needs to turn a constant-pool index operand into a name,
// owner, or literal value. *jvmclass.ClassFile satisfies this
// interface directly (internal/jvmclass/resolve.go).
type JVMResolver interface {
	MemberRef(idx uint16) (owner, name, desc string, err error)
	ClassRef(idx uint16) (string, error)
	LdcValue(idx uint16) (value interface{}, typ string, err error)
	InvokeDynamicNameAndType(idx uint16) (name, desc string, err error)
}
