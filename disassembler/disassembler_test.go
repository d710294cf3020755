package disassembler

import (
	"encoding/binary"
	"testing"
)

const entryAddr uint32 = 0x08000000

func le16(vals ...uint16) []byte {
	buf := make([]byte, 0, len(vals)*2)
	for _, v := range vals {
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, v)
		buf = append(buf, b...)
	}
	return buf
}

func TestDisassembleLinearReturn(t *testing.T) {
	rom := le16(
		0x2005, // mov r0, #5
		0x4770, // bx lr
	)

	items, err := New(rom).Disassemble(entryAddr, nil)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].Address() != entryAddr || items[0].Label() == "" {
		t.Fatalf("entry item = %+v", items[0])
	}
	if items[1].String() != "bx\tlr" {
		t.Fatalf("items[1].String() = %q", items[1].String())
	}
}

func TestDisassembleConditionalBranchExploresBothPaths(t *testing.T) {
	// beq with offset 0 targets pc+4 (the bx lr); the fall-through path
	// reaches the same bx lr by way of the mov.
	rom := le16(
		0xD000, // beq L
		0x2001, // mov r0, #1
		0x4770, // bx lr  (L)
	)

	items, err := New(rom).Disassemble(entryAddr, nil)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len(items) = %d, want 3: %+v", len(items), items)
	}
	for i := 1; i < len(items); i++ {
		if items[i].Address() <= items[i-1].Address() {
			t.Fatalf("items not strictly ordered: %+v", items)
		}
	}

	target := items[2]
	if target.Address() != entryAddr+4 {
		t.Fatalf("target address = 0x%X, want 0x%X", target.Address(), entryAddr+4)
	}
	if target.Label() == "" {
		t.Fatalf("branch target has no label: %+v", target)
	}
}

func TestDisassembleLiteralPoolAndAlign(t *testing.T) {
	rom := make([]byte, 12)
	copy(rom[0:2], le16(0x4801)) // ldr r0, [pc, #4]
	copy(rom[2:4], le16(0x4770)) // bx lr
	binary.LittleEndian.PutUint32(rom[8:12], 0xDEADBEEF)

	items, err := New(rom).Disassemble(entryAddr, nil)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}

	var sawAlign, sawData bool
	for _, item := range items {
		switch item.Kind() {
		case KindAlign:
			sawAlign = true
		case KindData:
			sawData = true
			if item.Address() != entryAddr+8 {
				t.Fatalf("data address = 0x%X, want 0x%X", item.Address(), entryAddr+8)
			}
			if item.Label() == "" {
				t.Fatalf("literal has no label: %+v", item)
			}
		}
	}
	if !sawAlign {
		t.Fatalf("expected an Align item to fill the gap before the literal: %+v", items)
	}
	if !sawData {
		t.Fatalf("expected a Data item for the literal pool word: %+v", items)
	}

	if got := items[0].String(); got != "ldr\tr0, =0xdeadbeef" {
		t.Fatalf("items[0].String() = %q", got)
	}
}

func TestDisassemblePushPopReturnClassification(t *testing.T) {
	rom := le16(
		0xB500, // push {lr}
		0xBD00, // pop {pc}
	)

	items, err := New(rom).Disassemble(entryAddr, nil)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2: %+v", len(items), items)
	}
}

func TestDisassembleBXNonReturnIsTreatedAsCall(t *testing.T) {
	// bx r0 -> not a return (r0 carries no "lr" provenance), so it's a call:
	// its unresolvable register target is never queried, and the walk
	// continues past it rather than branching.
	rom := le16(
		0x4700, // bx r0
		0x4770, // bx lr
	)

	items, err := New(rom).Disassemble(entryAddr, nil)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2: %+v", len(items), items)
	}
}

func TestDisassembleNopPeephole(t *testing.T) {
	// mov r8, r8 -> nop
	rom := le16(
		0x46C0, // mov r8, r8
		0x4770, // bx lr
	)

	items, err := New(rom).Disassemble(entryAddr, nil)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if items[0].String() != "nop" {
		t.Fatalf("items[0].String() = %q, want nop peephole", items[0].String())
	}
}

func TestDisassembleMovPeephole(t *testing.T) {
	// add r1, r0, #0 -> format2, immediate, rnOrOffset=0
	rom := le16(
		0x1c01, // add r1, r0, #0
		0x4770, // bx lr
	)

	items, err := New(rom).Disassemble(entryAddr, nil)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if items[0].String() != "mov\tr1, r0" {
		t.Fatalf("items[0].String() = %q, want mov peephole", items[0].String())
	}
}
