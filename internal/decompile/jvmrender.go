package decompile

import (
	"fmt"
	"strings"

	"github.com/deploymenttheory/garlic/internal/jvmbc"
	"github.com/deploymenttheory/garlic/internal/jvmclass"
	"github.com/deploymenttheory/garlic/internal/lift"
)

// RenderJVMJavaFile renders a standalone .class file's declaration —
// package, class header, fields, and method bodies — sharing
// internal/lift's Stmt/Expr model and renderBody with the DEX path
// (spec.md §2's "DEX and JVM pipelines share components 1, 2, 6, 8, 9").
// A method's Code attribute is decoded and lifted by
// lift.LiftJVMMethod; a method with none (abstract or native) renders
// as a bare signature, matching classjava.go's renderMethod.
func RenderJVMJavaFile(cf *jvmclass.ClassFile) (string, error) {
	name, err := cf.ClassName()
	if err != nil {
		return "", err
	}
	super, err := cf.SuperClassName()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if pkg := javaPackageName("L" + name + ";"); pkg != "" {
		fmt.Fprintf(&b, "package %s;\n\n", pkg)
	}

	kind := "class"
	if cf.AccessFlags&accInterface != 0 {
		kind = "interface"
	}
	fmt.Fprintf(&b, "%s%s %s", javaModifiers(uint32(cf.AccessFlags)), kind, javaSimpleName("L"+name+";"))
	if super != "" && super != "java/lang/Object" {
		fmt.Fprintf(&b, " extends %s", javaTypeName("L"+super+";"))
	}
	b.WriteString(" {\n")

	for _, f := range cf.Fields {
		fname, err := cf.Utf8(f.NameIdx)
		if err != nil {
			return "", err
		}
		fdesc, err := cf.Utf8(f.DescIdx)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "    %s%s %s;\n", javaModifiers(uint32(f.AccessFlags)), javaTypeName(fdesc), fname)
	}

	for methodIdx, m := range cf.Methods {
		mname, err := cf.Utf8(m.NameIdx)
		if err != nil {
			return "", err
		}
		mdesc, err := cf.Utf8(m.DescIdx)
		if err != nil {
			return "", err
		}
		params, ret := parseJVMMethodDescriptor(mdesc)
		paramDecls := make([]string, len(params))
		for i, p := range params {
			paramDecls[i] = fmt.Sprintf("%s p%d", javaTypeName(p), i)
		}
		sig := fmt.Sprintf("%s%s %s(%s)", javaModifiers(uint32(m.AccessFlags)), javaTypeName(ret), mname, strings.Join(paramDecls, ", "))
		if m.AccessFlags&accAbstract != 0 {
			fmt.Fprintf(&b, "    %s;\n", sig)
			continue
		}

		ca, err := cf.FindCode(m)
		if err != nil {
			return "", err
		}
		if ca == nil {
			fmt.Fprintf(&b, "    %s;\n", sig)
			continue
		}

		stmts, err := lift.LiftJVMMethod(ca, methodIdx, cf)
		if err != nil {
			var offset uint32
			if le, ok := err.(*lift.LiftError); ok {
				offset = le.Offset
			}
			stmts = []lift.Stmt{lift.Stub{Reason: err.Error(), MethodOffset: offset, RawSmali: rawJVMBytecode(ca)}}
		}

		body := renderBody(stmts, 1)
		fmt.Fprintf(&b, "    %s %s\n", sig, body)
	}

	b.WriteString("}\n")
	return b.String(), nil
}

// rawJVMBytecode renders ca's raw instruction stream as a fallback body
// for a Stub, the JVM-path analog of classjava.go's smali.EmitMethod
// dump — there is no JVM disassembler package in this codebase, so a
// failed lift falls back to this mnemonic-per-line listing instead.
func rawJVMBytecode(ca *jvmclass.CodeAttribute) string {
	insns, err := jvmbc.Decode(ca.Code)
	if err != nil {
		return fmt.Sprintf("<bytecode undecodable: %v>", err)
	}
	var b strings.Builder
	for _, ins := range insns {
		fmt.Fprintf(&b, "%d: %s\n", ins.Offset, ins.Mnemonic)
	}
	return b.String()
}

// parseJVMMethodDescriptor splits a JVM method descriptor
// "(paramDescs)returnDesc" into its parameter descriptor list and
// return descriptor.
func parseJVMMethodDescriptor(desc string) (params []string, ret string) {
	if len(desc) == 0 || desc[0] != '(' {
		return nil, desc
	}
	i := 1
	for i < len(desc) && desc[i] != ')' {
		start := i
		for desc[i] == '[' {
			i++
		}
		if desc[i] == 'L' {
			for desc[i] != ';' {
				i++
			}
		}
		i++
		params = append(params, desc[start:i])
	}
	ret = desc[i+1:]
	return params, ret
}
