package smali

import (
	"fmt"
	"strings"

	"github.com/deploymenttheory/garlic/internal/arena"
	"github.com/deploymenttheory/garlic/internal/classmodel"
	"github.com/deploymenttheory/garlic/internal/dex"
)

// Dalvik access_flags bits relevant to Smali directive rendering
// (Dex file format spec, access_flags table).
const (
	accPublic       = 0x1
	accPrivate      = 0x2
	accProtected    = 0x4
	accStatic       = 0x8
	accFinal        = 0x10
	accSynchronized = 0x20
	accInterface    = 0x200
	accAbstract     = 0x400
	accEnum         = 0x4000
)

// Image is the subset of *dex.Image EmitClass needs.
type Image interface {
	Resolver
	ClassData(cd *dex.ClassDef) (static, instance []dex.EncodedField, direct, virtual []dex.EncodedMethod, err error)
	ProtoParamTypes(p dex.ProtoID) ([]string, error)
}

// EmitClass renders rc's full class body: the .class/.super/.source
// header, one .field line per field, and one .method/.end method block
// per method (with EmitMethod's instruction text for methods that
// carry code). Every class-def is rendered into its own file — Smali
// mode never inlines inner classes, unlike Decompile mode's source-file
// grouping. a is the calling task's per-task scratch arena, threaded
// down into every method's EmitMethod call.
func EmitClass(img Image, rc *classmodel.ResolvedClass, a *arena.Arena) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, ".class %s%s\n", accessString(rc.Def.AccessFlags), rc.Descriptor)

	if rc.Def.SuperclassIdx != dex.NoIndex {
		super, err := img.Type(rc.Def.SuperclassIdx)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, ".super %s\n", super)
	}
	for _, ifaceIdx := range rc.Def.Interfaces {
		iface, err := img.Type(ifaceIdx)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, ".implements %s\n", iface)
	}
	if rc.SourceFile != "" {
		fmt.Fprintf(&b, ".source %q\n", rc.SourceFile)
	}
	b.WriteString("\n")

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
		fmt.Fprintf(&b, ".field %s%s:%s\n", accessString(f.AccessFlags), name, ftype)
	}
	if len(static)+len(instance) > 0 {
		b.WriteString("\n")
	}

	for _, m := range append(append([]dex.EncodedMethod(nil), direct...), virtual...) {
		if err := emitMethodBlock(&b, img, m, a); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func emitMethodBlock(b *strings.Builder, img Image, m dex.EncodedMethod, a *arena.Arena) error {
	mid, err := img.Method(m.MethodIdx)
	if err != nil {
		return err
	}
	name, err := img.String(mid.NameIdx)
	if err != nil {
		return err
	}
	proto, err := img.Proto(uint32(mid.ProtoIdx))
	if err != nil {
		return err
	}
	params, err := img.ProtoParamTypes(proto)
	if err != nil {
		return err
	}
	retType, err := img.Type(proto.ReturnTyIdx)
	if err != nil {
		return err
	}

	fmt.Fprintf(b, ".method %s%s(%s)%s\n", accessString(m.AccessFlags), name, strings.Join(params, ""), retType)
	if m.Code != nil {
		body, err := EmitMethod(m.Code, img, a)
		if err != nil {
			return err
		}
		b.WriteString(body)
	}
	b.WriteString(".end method\n\n")
	return nil
}

func accessString(flags uint32) string {
	var parts []string
	add := func(bit uint32, word string) {
		if flags&bit != 0 {
			parts = append(parts, word)
		}
	}
	add(accPublic, "public")
	add(accPrivate, "private")
	add(accProtected, "protected")
	add(accStatic, "static")
	add(accFinal, "final")
	add(accSynchronized, "synchronized")
	add(accAbstract, "abstract")
	add(accInterface, "interface")
	add(accEnum, "enum")
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " ") + " "
}
