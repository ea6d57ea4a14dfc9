package lift

import "github.com/deploymenttheory/garlic/internal/dex"

// Resolver is the subset of *dex.Image that operation lifting needs to
// turn a pool index operand into a descriptor string. *dex.Image
// satisfies this interface directly.
type Resolver interface {
	String(i uint32) (string, error)
	Type(i uint32) (string, error)
	Proto(i uint32) (dex.ProtoID, error)
	Field(i uint32) (dex.FieldID, error)
	Method(i uint32) (dex.MethodID, error)
	ProtoParamTypes(p dex.ProtoID) ([]string, error)
}
