// Package smali implements the Smali text emitter of spec.md §4.6: a
// linear walk of a method's decoded Dalvik instructions into the
// Smali assembly convention, with labels synthesized at every branch
// target and handler start, and :try_start/:try_end labels placed
// around each try region. Handler lists are not resolved, so no .catch
// directives are emitted. Output is deterministic given the same input.
package smali

import (
	"fmt"
	"sort"
	"strings"

	"github.com/deploymenttheory/garlic/internal/arena"
	"github.com/deploymenttheory/garlic/internal/dalvik"
	"github.com/deploymenttheory/garlic/internal/dex"
	"github.com/deploymenttheory/garlic/internal/errs"
)

// Resolver is the pool-lookup subset EmitMethod needs to render
// operands as descriptors instead of raw indices.
type Resolver interface {
	String(i uint32) (string, error)
	Type(i uint32) (string, error)
	Proto(i uint32) (dex.ProtoID, error)
	Field(i uint32) (dex.FieldID, error)
	Method(i uint32) (dex.MethodID, error)
}

// EmitMethod renders code's instruction stream as Smali text, opening
// with a .registers line for code.RegistersSize; a nil code (an
// abstract/native method) renders as the empty string.
// a is the caller's per-task scratch arena, threaded down into
// dalvik.Decode.
func EmitMethod(code *dex.CodeItem, resolver Resolver, a *arena.Arena) (string, error) {
	if code == nil {
		return "", nil
	}
	insns, err := dalvik.Decode(code.Insns, a)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrLift, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "    .registers %d\n", code.RegistersSize)

	labels := collectLabels(insns, code.Tries, code.Handlers)
	tryBlocks := numberTries(code.Tries, code.Handlers)

	for _, ins := range insns {
		for _, tb := range tryBlocks.startsAt[ins.Offset] {
			fmt.Fprintf(&b, "    :try_start_%d\n", tb)
		}
		if name, ok := labels[ins.Offset]; ok {
			fmt.Fprintf(&b, "    %s:\n", name)
		}
		if ins.Payload != nil {
			writePayload(&b, ins)
			continue
		}
		line, err := renderInstruction(ins, resolver)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "    %s\n", line)
		for _, tb := range tryBlocks.endsAt[ins.Offset+uint32(ins.Width)] {
			fmt.Fprintf(&b, "    :try_end_%d\n", tb)
		}
	}
	for _, c := range tryBlocks.catches {
		typeName := c.Type
		if typeName == "" {
			typeName = "Ljava/lang/Throwable;"
		}
		fmt.Fprintf(&b, "    .catch %s {:try_start_%d .. :try_end_%d} %s\n", typeName, c.Try, c.Try, labelName(c.HandlerOffset))
	}
	return b.String(), nil
}

func labelName(offset uint32) string {
	return fmt.Sprintf(":label_%04x", offset)
}

// collectLabels synthesizes a label at every branch target, switch
// case target, try start/end, and handler start.
func collectLabels(insns []dalvik.Instruction, tries []dex.TryItem, handlers []dex.EncodedCatchHandler) map[uint32]string {
	labels := map[uint32]string{}
	mark := func(off uint32) { labels[off] = labelName(off) }

	idxByOffset := make(map[uint32]int, len(insns))
	for i, ins := range insns {
		idxByOffset[ins.Offset] = i
	}
	for _, ins := range insns {
		switch {
		case isBranch(ins.Mnemonic):
			mark(uint32(int64(ins.Offset) + int64(ins.Branch)))
		case ins.Mnemonic == "packed-switch" || ins.Mnemonic == "sparse-switch":
			payloadOff := uint32(int64(ins.Offset) + int64(ins.Branch))
			if idx, ok := idxByOffset[payloadOff]; ok && insns[idx].Payload != nil {
				for _, t := range insns[idx].Payload.Targets {
					mark(uint32(int64(ins.Offset) + int64(t)))
				}
			}
		}
	}
	for _, t := range tries {
		mark(t.StartAddr)
		mark(t.StartAddr + uint32(t.InsnCount))
	}
	for _, h := range handlers {
		for _, c := range h.Handlers {
			mark(c.Addr)
		}
		if h.HasCatchAll() {
			mark(h.CatchAll)
		}
	}
	return labels
}

func isBranch(m string) bool {
	switch m {
	case "goto", "goto/16", "goto/32",
		"if-eq", "if-ne", "if-lt", "if-ge", "if-gt", "if-le",
		"if-eqz", "if-nez", "if-ltz", "if-gez", "if-gtz", "if-lez":
		return true
	}
	return false
}

type catchDirective struct {
	Try           int
	Type          string
	HandlerOffset uint32
}

type tryNumbering struct {
	startsAt map[uint32][]int
	endsAt   map[uint32][]int
	catches  []catchDirective
}

// numberTries assigns each TryItem a stable, ascending index (by start
// address), so EmitMethod can print :try_start_N/:try_end_N labels
// deterministically. It does not resolve handler lists: catches is
// left empty, so EmitMethod prints no .catch lines.
func numberTries(tries []dex.TryItem, handlers []dex.EncodedCatchHandler) tryNumbering {
	out := tryNumbering{startsAt: map[uint32][]int{}, endsAt: map[uint32][]int{}}
	if len(tries) == 0 {
		return out
	}
	order := append([]dex.TryItem(nil), tries...)
	sort.Slice(order, func(i, j int) bool { return order[i].StartAddr < order[j].StartAddr })

	for n, t := range order {
		out.startsAt[t.StartAddr] = append(out.startsAt[t.StartAddr], n)
		endOff := t.StartAddr + uint32(t.InsnCount)
		out.endsAt[endOff] = append(out.endsAt[endOff], n)
	}
	return out
}

func writePayload(b *strings.Builder, ins dalvik.Instruction) {
	switch ins.Payload.Kind {
	case "packed-switch":
		fmt.Fprintf(b, "    .packed-switch 0x%x\n", ins.Payload.FirstKey)
		for _, t := range ins.Payload.Targets {
			fmt.Fprintf(b, "        %s\n", labelName(uint32(int64(ins.Offset)+int64(t))))
		}
		b.WriteString("    .end packed-switch\n")
	case "sparse-switch":
		b.WriteString("    .sparse-switch\n")
		for i, k := range ins.Payload.Keys {
			fmt.Fprintf(b, "        0x%x -> %s\n", k, labelName(uint32(int64(ins.Offset)+int64(ins.Payload.Targets[i]))))
		}
		b.WriteString("    .end sparse-switch\n")
	case "fill-array-data":
		fmt.Fprintf(b, "    .array-data %d\n", ins.Payload.ElementWidth)
		b.WriteString("        " + formatArrayBytes(ins.Payload.Data) + "\n")
		b.WriteString("    .end array-data\n")
	}
}

func formatArrayBytes(data []byte) string {
	var parts []string
	for _, d := range data {
		parts = append(parts, fmt.Sprintf("%#02x", d))
	}
	return strings.Join(parts, " ")
}

func renderInstruction(ins dalvik.Instruction, resolver Resolver) (string, error) {
	regs := make([]string, len(ins.Regs))
	for i, r := range ins.Regs {
		regs[i] = fmt.Sprintf("v%d", r)
	}
	regList := strings.Join(regs, ", ")

	switch ins.Kind {
	case dalvik.KindString:
		s, err := resolver.String(ins.Index)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s, %q", ins.Mnemonic, regList, s), nil
	case dalvik.KindType:
		t, err := resolver.Type(ins.Index)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s, %s", ins.Mnemonic, regList, t), nil
	case dalvik.KindField:
		f, err := resolver.Field(ins.Index)
		if err != nil {
			return "", err
		}
		owner, err := resolver.Type(uint32(f.ClassIdx))
		if err != nil {
			return "", err
		}
		name, err := resolver.String(f.NameIdx)
		if err != nil {
			return "", err
		}
		ftype, err := resolver.Type(uint32(f.TypeIdx))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s, %s->%s:%s", ins.Mnemonic, regList, owner, name, ftype), nil
	case dalvik.KindMethod:
		m, err := resolver.Method(ins.Index)
		if err != nil {
			return "", err
		}
		owner, err := resolver.Type(uint32(m.ClassIdx))
		if err != nil {
			return "", err
		}
		name, err := resolver.String(m.NameIdx)
		if err != nil {
			return "", err
		}
		proto, err := resolver.Proto(uint32(m.ProtoIdx))
		if err != nil {
			return "", err
		}
		shorty, err := resolver.String(proto.ShortyIdx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s {%s}, %s->%s:%s", ins.Mnemonic, regList, owner, name, shorty), nil
	}

	switch {
	case isBranch(ins.Mnemonic):
		target := uint32(int64(ins.Offset) + int64(ins.Branch))
		if regList == "" {
			return fmt.Sprintf("%s %s", ins.Mnemonic, labelName(target)), nil
		}
		return fmt.Sprintf("%s %s, %s", ins.Mnemonic, regList, labelName(target)), nil
	case ins.Mnemonic == "packed-switch" || ins.Mnemonic == "sparse-switch":
		target := uint32(int64(ins.Offset) + int64(ins.Branch))
		return fmt.Sprintf("%s %s, %s", ins.Mnemonic, regList, labelName(target)), nil
	case strings.HasPrefix(ins.Mnemonic, "const") && regList != "":
		return fmt.Sprintf("%s %s, %d", ins.Mnemonic, regList, ins.Literal), nil
	}
	if regList == "" {
		return ins.Mnemonic, nil
	}
	return fmt.Sprintf("%s %s", ins.Mnemonic, regList), nil
}
