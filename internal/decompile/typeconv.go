package decompile

import "strings"

// javaTypeName converts a DEX/JVM type descriptor into the Java source
// spelling the render path emits. Array and primitive descriptors
// follow the JVM descriptor grammar shared by both container formats.
func javaTypeName(desc string) string {
	if desc == "" {
		return ""
	}
	if desc[0] == '[' {
		return javaTypeName(desc[1:]) + "[]"
	}
	switch desc {
	case "V":
		return "void"
	case "Z":
		return "boolean"
	case "B":
		return "byte"
	case "C":
		return "char"
	case "S":
		return "short"
	case "I":
		return "int"
	case "J":
		return "long"
	case "F":
		return "float"
	case "D":
		return "double"
	}
	if len(desc) >= 2 && desc[0] == 'L' && desc[len(desc)-1] == ';' {
		inner := desc[1 : len(desc)-1]
		return strings.ReplaceAll(inner, "/", ".")
	}
	return desc
}

// javaSimpleName strips a descriptor or dotted name down to its final
// path segment, e.g. "La/b/Outer$Inner;" -> "Inner".
func javaSimpleName(desc string) string {
	full := javaTypeName(desc)
	if i := strings.LastIndexByte(full, '.'); i >= 0 {
		full = full[i+1:]
	}
	if i := strings.LastIndexByte(full, '$'); i >= 0 {
		full = full[i+1:]
	}
	return full
}

// javaPackageName returns the dotted package prefix of a type
// descriptor, "" if the type is in the default package.
func javaPackageName(desc string) string {
	full := javaTypeName(desc)
	if i := strings.LastIndexByte(full, '.'); i >= 0 {
		return full[:i]
	}
	return ""
}
