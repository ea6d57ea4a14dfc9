package decompile

import (
	"fmt"
	"strings"

	"github.com/deploymenttheory/garlic/internal/arena"
	"github.com/deploymenttheory/garlic/internal/classmodel"
	"github.com/deploymenttheory/garlic/internal/dex"
	"github.com/deploymenttheory/garlic/internal/lift"
	"github.com/deploymenttheory/garlic/internal/smali"
)

// RenderJavaFile renders top's full .java source text, inlining every
// inner/anonymous class nested (directly or transitively) under it —
// spec.md §4.3's "emitted inline as children of their declaring
// class's source file" — as a nested class body at increasing indent.
// It builds on classmodel.BuildForest for the traversable source-file
// tree (spec.md §3) rather than re-deriving the top-level/inner
// grouping itself.
func RenderJavaFile(img *dex.Image, top *classmodel.ResolvedClass, a *arena.Arena) (string, error) {
	forest, err := classmodel.BuildForest(img)
	if err != nil {
		return "", err
	}
	childrenOf := map[string][]*classmodel.ResolvedClass{}
	for _, sf := range forest {
		if sf.TopLevel.Descriptor != top.Descriptor {
			continue
		}
		for _, rc := range sf.Inner {
			parent := rc.EnclosingDescriptor()
			childrenOf[parent] = append(childrenOf[parent], rc)
		}
		break
	}

	var b strings.Builder
	if pkg := javaPackageName(top.Descriptor); pkg != "" {
		fmt.Fprintf(&b, "package %s;\n\n", pkg)
	}
	body, err := renderClassRec(img, top, childrenOf, 0, a)
	if err != nil {
		return "", err
	}
	b.WriteString(body)
	return b.String(), nil
}

func renderClassRec(img *dex.Image, rc *classmodel.ResolvedClass, childrenOf map[string][]*classmodel.ResolvedClass, indent int, a *arena.Arena) (string, error) {
	var b strings.Builder
	ind := strings.Repeat("    ", indent)

	kind := "class"
	if rc.Def.AccessFlags&accInterface != 0 {
		kind = "interface"
	}
	fmt.Fprintf(&b, "%s%s%s %s {\n", ind, javaModifiers(rc.Def.AccessFlags), kind, rc.SimpleName())

	static, instance, direct, virtual, err := img.ClassData(rc.Def)
	if err != nil {
		return "", err
	}

	for _, f := range append(append([]dex.EncodedField(nil), static...), instance...) {
		fid, err := img.Field(f.FieldIdx)
		if err != nil {
			return "", err
		}
		name, err := img.String(fid.NameIdx)
		if err != nil {
			return "", err
		}
		ftype, err := img.Type(uint32(fid.TypeIdx))
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s    %s%s %s;\n", ind, javaModifiers(f.AccessFlags), javaTypeName(ftype), name)
	}

	for _, m := range append(append([]dex.EncodedMethod(nil), direct...), virtual...) {
		text, err := renderMethod(img, m, indent+1, a)
		if err != nil {
			return "", err
		}
		b.WriteString(text)
	}

	for _, child := range childrenOf[rc.Descriptor] {
		nested, err := renderClassRec(img, child, childrenOf, indent+1, a)
		if err != nil {
			return "", err
		}
		b.WriteString(nested)
	}

	fmt.Fprintf(&b, "%s}\n", ind)
	return b.String(), nil
}

func renderMethod(img *dex.Image, m dex.EncodedMethod, indent int, a *arena.Arena) (string, error) {
	ind := strings.Repeat("    ", indent)
	mid, err := img.Method(m.MethodIdx)
	if err != nil {
		return "", err
	}
	name, err := img.String(mid.NameIdx)
	if err != nil {
		return "", err
	}
	proto, err := img.Proto(uint32(mid.ProtoIdx))
	if err != nil {
		return "", err
	}
	paramDescs, err := img.ProtoParamTypes(proto)
	if err != nil {
		return "", err
	}
	params := make([]string, len(paramDescs))
	for i, d := range paramDescs {
		params[i] = fmt.Sprintf("%s p%d", javaTypeName(d), i)
	}
	retType, err := img.Type(proto.ReturnTyIdx)
	if err != nil {
		return "", err
	}

	sig := fmt.Sprintf("%s%s %s(%s)", javaModifiers(m.AccessFlags), javaTypeName(retType), name, strings.Join(params, ", "))

	if m.Code == nil {
		return fmt.Sprintf("%s%s;\n", ind, sig), nil
	}

	stmts, err := lift.LiftMethod(m.Code, m.MethodIdx, img, a)
	if err != nil {
		raw, smaliErr := smali.EmitMethod(m.Code, img, a)
		if smaliErr != nil {
			raw = fmt.Sprintf("<smali unavailable: %v>", smaliErr)
		}
		var offset uint32
		if le, ok := err.(*lift.LiftError); ok {
			offset = le.Offset
		}
		stmts = []lift.Stmt{lift.Stub{Reason: err.Error(), MethodOffset: offset, RawSmali: raw}}
	}

	body := renderBody(stmts, indent)
	return fmt.Sprintf("%s%s %s\n", ind, sig, body), nil
}
