package decompile

import "strings"

// Dalvik/JVM access_flags bits this renderer cares about. Shared
// meaning across both container formats (DEX access_flags table and
// JVM class file access_flags are bit-compatible for these).
const (
	accPublic    = 0x1
	accPrivate   = 0x2
	accProtected = 0x4
	accStatic    = 0x8
	accFinal     = 0x10
	accInterface = 0x200
	accAbstract  = 0x400
)

func javaModifiers(flags uint32) string {
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
	add(accAbstract, "abstract")
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " ") + " "
}
