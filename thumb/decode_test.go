package thumb

import (
	"encoding/binary"
	"testing"
)

func enc16(op uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, op)
	return b
}

func TestDecodeMovImmediate(t *testing.T) {
	// mov r0, #5 -> format 3, kind 0, rd=0, offset=5
	d, err := Decode(0, enc16(0x2005))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if d.ID != IDMov || d.Mnemonic != "mov" {
		t.Fatalf("got %+v", d)
	}
	if d.Operands[1].Imm != 5 {
		t.Fatalf("imm = %d, want 5", d.Operands[1].Imm)
	}
}

func TestDecodeAddSubRegister(t *testing.T) {
	// add r0, r1, r2 -> format 2, immediate=0, isSub=0, rnOrOffset=2(r2), rs=1, rd=0
	op := uint16(0x1800) | (2 << 6) | (1 << 3) | 0
	d, err := Decode(0, enc16(op))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if d.ID != IDAdd {
		t.Fatalf("ID = %v, want IDAdd", d.ID)
	}
	if d.Operands[2].Kind != OperandReg || d.Operands[2].Reg != R2 {
		t.Fatalf("operand 2 = %+v", d.Operands[2])
	}
}

func TestDecodeRegOffsetFormat7And8(t *testing.T) {
	// str r0, [r1, r2] -> format 7, l=0 b=0, bit9=0
	op7 := uint16(0x5000) | (2 << 6) | (1 << 3) | 0
	d7, err := Decode(0, enc16(op7))
	if err != nil {
		t.Fatalf("Decode format 7: %v", err)
	}
	if d7.Mnemonic != "str" {
		t.Fatalf("mnemonic = %s, want str", d7.Mnemonic)
	}

	// ldsh r0, [r1, r2] -> format 8, bit9=1 s=1 h=1
	op8 := uint16(0x5000) | 0x0200 | 0x0400 | 0x0800 | (2 << 6) | (1 << 3) | 0
	d8, err := Decode(0, enc16(op8))
	if err != nil {
		t.Fatalf("Decode format 8: %v", err)
	}
	if d8.Mnemonic != "ldsh" {
		t.Fatalf("mnemonic = %s, want ldsh", d8.Mnemonic)
	}
}

func TestDecodeBX(t *testing.T) {
	// bx lr -> format 5, kind=3, h1=0, rs=lr(14) -> h2=1, low3=6
	op := uint16(0x4700) | (1 << 6) | (6 << 3)
	d, err := Decode(0, enc16(op))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if d.ID != IDBX || !d.IsJump() {
		t.Fatalf("got %+v", d)
	}
	if d.Operands[0].Reg != LR {
		t.Fatalf("rs = %v, want LR", d.Operands[0].Reg)
	}
}

func TestDecodePushPopWithExtra(t *testing.T) {
	// push {r0, lr} -> format 14, l=0, r=1, rlist=0x01
	op := uint16(0xB400) | 0x0100 | 0x01
	d, err := Decode(0, enc16(op))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if d.ID != IDPush {
		t.Fatalf("ID = %v, want IDPush", d.ID)
	}
	regs := d.Operands[0].Regs
	if len(regs) != 2 || regs[0] != R0 || regs[1] != LR {
		t.Fatalf("regs = %v", regs)
	}

	// pop {r0, pc}
	op2 := uint16(0xB400) | 0x0800 | 0x0100 | 0x01
	d2, err := Decode(0, enc16(op2))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	regs2 := d2.Operands[0].Regs
	if len(regs2) != 2 || regs2[1] != PC {
		t.Fatalf("regs = %v", regs2)
	}
}

func TestDecodeConditionalBranch(t *testing.T) {
	// beq with offset field -1 (0xFF): target = pc + 4 - 2 = pc + 2
	op := uint16(0xD000) | (uint16(EQ) << 8) | 0xFF
	d := decodeCondBranch(0x100, op)
	if d.Mnemonic != "beq" {
		t.Fatalf("mnemonic = %s, want beq", d.Mnemonic)
	}
	want := uint32(int64(0x100) + 4 + int64(-1)*2)
	if uint32(d.Operands[0].Imm) != want {
		t.Fatalf("target = 0x%X, want 0x%X", uint32(d.Operands[0].Imm), want)
	}
}

func TestDecodeBLPair(t *testing.T) {
	hi := make([]byte, 2)
	lo := make([]byte, 2)
	binary.LittleEndian.PutUint16(hi, 0xF000)
	binary.LittleEndian.PutUint16(lo, 0xF800)
	code := append(hi, lo...)

	d, err := Decode(0x100, code)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if d.ID != IDBL || d.Size != 4 {
		t.Fatalf("got %+v", d)
	}
}

func TestDecodeShortRead(t *testing.T) {
	if _, err := Decode(0, nil); err != ErrShortRead {
		t.Fatalf("err = %v, want ErrShortRead", err)
	}
}

func TestDecodeMisaligned(t *testing.T) {
	if _, err := Decode(1, enc16(0)); err != ErrMisaligned {
		t.Fatalf("err = %v, want ErrMisaligned", err)
	}
}

func TestBuildRegListCollapsesRanges(t *testing.T) {
	got := BuildRegList([]Reg{R0, R1, R2, R4, LR})
	want := "{r0-r2, r4, lr}"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestBuildImm(t *testing.T) {
	cases := []struct {
		in   int32
		want string
	}{
		{5, "#5"},
		{10, "#0xa"},
		{-1, "#-1"},
	}
	for _, c := range cases {
		if got := BuildImm(c.in); got != c.want {
			t.Fatalf("BuildImm(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}
