package thumb

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShortRead is returned when code does not hold enough bytes to decode
// the instruction (or its BL second half-word) at pc.
var ErrShortRead = errors.New("thumb: not enough bytes to decode instruction")

// ErrMisaligned is returned when pc is not half-word aligned.
var ErrMisaligned = errors.New("thumb: address is not half-word aligned")

func reg(bits uint16) Reg { return Reg(bits & 0x7) }

func regOp(r Reg) Operand { return Operand{Kind: OperandReg, Reg: r} }
func immOp(v int32) Operand { return Operand{Kind: OperandImm, Imm: v} }

// Decode decodes a single Thumb instruction at pc. code must start at pc and
// contain at least 2 bytes (4 if the instruction turns out to be a BL pair).
func Decode(pc uint32, code []byte) (Decoded, error) {
	if pc%2 != 0 {
		return Decoded{}, ErrMisaligned
	}
	if len(code) < 2 {
		return Decoded{}, ErrShortRead
	}

	op := binary.LittleEndian.Uint16(code)

	switch {
	case op&0xF800 == 0x1800: // format 2: add/subtract
		return decodeAddSub(op), nil
	case op&0xE000 == 0x0000: // format 1: move shifted register
		return decodeShifted(op), nil
	case op&0xE000 == 0x2000: // format 3: mov/cmp/add/sub immediate
		return decodeImmediateALU(op), nil
	case op&0xFC00 == 0x4000: // format 4: ALU operations
		return decodeALU(op), nil
	case op&0xFC00 == 0x4400: // format 5: hi register ops / bx
		return decodeHiReg(op)
	case op&0xF800 == 0x4800: // format 6: PC-relative load
		return decodePCRelativeLoad(op), nil
	case op&0xF000 == 0x5000: // format 7/8: load/store with register offset
		return decodeRegOffset(op), nil
	case op&0xE000 == 0x6000: // format 9: load/store immediate offset
		return decodeImmOffset(op), nil
	case op&0xF000 == 0x8000: // format 10: load/store halfword
		return decodeHalfword(op), nil
	case op&0xF000 == 0x9000: // format 11: SP-relative load/store
		return decodeSPRelative(op), nil
	case op&0xF000 == 0xA000: // format 12: load address
		return decodeLoadAddress(op), nil
	case op&0xFF00 == 0xB000: // format 13: add offset to SP
		return decodeAddSP(op), nil
	case op&0xF600 == 0xB400: // format 14: push/pop
		return decodePushPop(op), nil
	case op&0xF000 == 0xC000: // format 15: multiple load/store
		return decodeMultiple(op), nil
	case op&0xFF00 == 0xDF00: // format 17: software interrupt
		return Decoded{ID: IDSWI, Mnemonic: "swi", Operands: []Operand{immOp(int32(op & 0xFF))}, Size: 2}, nil
	case op&0xF000 == 0xD000: // format 16: conditional branch
		return decodeCondBranch(pc, op), nil
	case op&0xF800 == 0xE000: // format 18: unconditional branch
		return decodeUncondBranch(pc, op), nil
	case op&0xF000 == 0xF000: // format 19: long branch with link
		return decodeBL(pc, code)
	}

	return Decoded{}, fmt.Errorf("thumb: unrecognised opcode 0x%04X at 0x%08X", op, pc)
}

// --- Format 1: move shifted register ---

func decodeShifted(op uint16) Decoded {
	mnemonics := [...]string{"lsl", "lsr", "asr"}
	shiftOp := (op >> 11) & 0x3
	offset := (op >> 6) & 0x1F
	rs := reg(op >> 3)
	rd := reg(op)

	mn := mnemonics[shiftOp]
	return Decoded{
		ID:       IDOther,
		Mnemonic: mn,
		Cond:     AL,
		Operands: []Operand{regOp(rd), regOp(rs), immOp(int32(offset))},
		Size:     2,
	}
}

// --- Format 2: add/subtract ---

func decodeAddSub(op uint16) Decoded {
	immediate := op&0x0400 != 0
	isSub := op&0x0200 != 0
	rnOrOffset := (op >> 6) & 0x7
	rs := reg(op >> 3)
	rd := reg(op)

	mn := "add"
	id := IDAdd
	if isSub {
		mn = "sub"
		id = IDSub
	}

	var third Operand
	if immediate {
		third = immOp(int32(rnOrOffset))
	} else {
		third = regOp(Reg(rnOrOffset))
	}

	return Decoded{
		ID:       id,
		Mnemonic: mn,
		Cond:     AL,
		Operands: []Operand{regOp(rd), regOp(rs), third},
		Size:     2,
	}
}

// --- Format 3: move/compare/add/subtract immediate ---

func decodeImmediateALU(op uint16) Decoded {
	kind := (op >> 11) & 0x3
	rd := Reg((op >> 8) & 0x7)
	offset := int32(op & 0xFF)

	switch kind {
	case 0:
		return Decoded{ID: IDMov, Mnemonic: "mov", Cond: AL, Operands: []Operand{regOp(rd), immOp(offset)}, Size: 2}
	case 1:
		return Decoded{ID: IDCmp, Mnemonic: "cmp", Cond: AL, Operands: []Operand{regOp(rd), immOp(offset)}, Size: 2}
	case 2:
		return Decoded{ID: IDAdd, Mnemonic: "add", Cond: AL, Operands: []Operand{regOp(rd), regOp(rd), immOp(offset)}, Size: 2}
	default:
		return Decoded{ID: IDSub, Mnemonic: "sub", Cond: AL, Operands: []Operand{regOp(rd), regOp(rd), immOp(offset)}, Size: 2}
	}
}

// --- Format 4: ALU operations ---

var aluMnemonics = [...]string{
	"and", "eor", "lsl", "lsr", "asr", "adc", "sbc", "ror",
	"tst", "neg", "cmp", "cmn", "orr", "mul", "bic", "mvn",
}

func decodeALU(op uint16) Decoded {
	kind := (op >> 6) & 0xF
	rs := reg(op >> 3)
	rd := reg(op)

	mn := aluMnemonics[kind]
	var id ID
	switch mn {
	case "cmp":
		id = IDCmp
	default:
		id = IDOther
	}

	return Decoded{ID: id, Mnemonic: mn, Cond: AL, Operands: []Operand{regOp(rd), regOp(rs)}, Size: 2}
}

// --- Format 5: hi register operations / branch exchange ---

func decodeHiReg(op uint16) (Decoded, error) {
	kind := (op >> 8) & 0x3
	h1 := (op >> 7) & 0x1
	h2 := (op >> 6) & 0x1
	rs := Reg(((op >> 3) & 0x7) | (h2 << 3))
	rd := Reg((op & 0x7) | (h1 << 3))

	switch kind {
	case 0:
		return Decoded{ID: IDAdd, Mnemonic: "add", Cond: AL, Operands: []Operand{regOp(rd), regOp(rd), regOp(rs)}, Size: 2}, nil
	case 1:
		return Decoded{ID: IDCmp, Mnemonic: "cmp", Cond: AL, Operands: []Operand{regOp(rd), regOp(rs)}, Size: 2}, nil
	case 2:
		return Decoded{ID: IDMov, Mnemonic: "mov", Cond: AL, Operands: []Operand{regOp(rd), regOp(rs)}, Size: 2}, nil
	case 3:
		return Decoded{
			ID:       IDBX,
			Mnemonic: "bx",
			Cond:     AL,
			Operands: []Operand{regOp(rs)},
			Groups:   GroupJump,
			Size:     2,
		}, nil
	}
	return Decoded{}, fmt.Errorf("thumb: impossible hi-register opcode 0x%04X", op)
}

// --- Format 6: PC-relative load ---

func decodePCRelativeLoad(op uint16) Decoded {
	rd := Reg((op >> 8) & 0x7)
	word8 := int32(op&0xFF) * 4

	return Decoded{
		ID:       IDLDR,
		Mnemonic: "ldr",
		Cond:     AL,
		Operands: []Operand{regOp(rd), {Kind: OperandMem, Base: PC, Disp: word8}},
		Size:     2,
	}
}

// --- Formats 7 & 8: load/store with register offset ---

func decodeRegOffset(op uint16) Decoded {
	ro := reg(op >> 6)
	rb := reg(op >> 3)
	rd := reg(op)
	mem := Operand{Kind: OperandMem, Base: rb, Index: ro, HasIndex: true}

	if op&0x0200 != 0 {
		// format 8: sign-extended byte/halfword
		h := op&0x0800 != 0
		s := op&0x0400 != 0
		var mn string
		switch {
		case !s && !h:
			mn = "strh"
		case !s && h:
			mn = "ldrh"
		case s && !h:
			mn = "ldsb"
		default:
			mn = "ldsh"
		}
		id := IDOther
		if mn == "strh" {
			id = IDSTR
		} else {
			id = IDLDR
		}
		return Decoded{ID: id, Mnemonic: mn, Cond: AL, Operands: []Operand{regOp(rd), mem}, Size: 2}
	}

	l := op&0x0800 != 0
	b := op&0x0400 != 0
	mn := "str"
	id := IDSTR
	switch {
	case l && !b:
		mn, id = "ldr", IDLDR
	case l && b:
		mn, id = "ldrb", IDLDR
	case !l && b:
		mn, id = "strb", IDSTR
	}
	return Decoded{ID: id, Mnemonic: mn, Cond: AL, Operands: []Operand{regOp(rd), mem}, Size: 2}
}

// --- Format 9: load/store with immediate offset ---

func decodeImmOffset(op uint16) Decoded {
	b := op&0x1000 != 0
	l := op&0x0800 != 0
	offset5 := (op >> 6) & 0x1F
	rb := reg(op >> 3)
	rd := reg(op)

	scale := int32(4)
	if b {
		scale = 1
	}
	mem := Operand{Kind: OperandMem, Base: rb, Disp: int32(offset5) * scale}

	mn := "str"
	id := IDSTR
	switch {
	case l && !b:
		mn, id = "ldr", IDLDR
	case l && b:
		mn, id = "ldrb", IDLDR
	case !l && b:
		mn, id = "strb", IDSTR
	}
	return Decoded{ID: id, Mnemonic: mn, Cond: AL, Operands: []Operand{regOp(rd), mem}, Size: 2}
}

// --- Format 10: load/store halfword ---

func decodeHalfword(op uint16) Decoded {
	l := op&0x0800 != 0
	offset5 := (op >> 6) & 0x1F
	rb := reg(op >> 3)
	rd := reg(op)

	mem := Operand{Kind: OperandMem, Base: rb, Disp: int32(offset5) * 2}
	mn := "strh"
	id := IDSTR
	if l {
		mn, id = "ldrh", IDLDR
	}
	return Decoded{ID: id, Mnemonic: mn, Cond: AL, Operands: []Operand{regOp(rd), mem}, Size: 2}
}

// --- Format 11: SP-relative load/store ---

func decodeSPRelative(op uint16) Decoded {
	l := op&0x0800 != 0
	rd := Reg((op >> 8) & 0x7)
	word8 := int32(op&0xFF) * 4

	mem := Operand{Kind: OperandMem, Base: SP, Disp: word8}
	mn := "str"
	id := IDSTR
	if l {
		mn, id = "ldr", IDLDR
	}
	return Decoded{ID: id, Mnemonic: mn, Cond: AL, Operands: []Operand{regOp(rd), mem}, Size: 2}
}

// --- Format 12: load address ---

func decodeLoadAddress(op uint16) Decoded {
	sp := op&0x0800 != 0
	rd := Reg((op >> 8) & 0x7)
	word8 := int32(op&0xFF) * 4

	base := PC
	if sp {
		base = SP
	}
	return Decoded{ID: IDAdd, Mnemonic: "add", Cond: AL, Operands: []Operand{regOp(rd), regOp(base), immOp(word8)}, Size: 2}
}

// --- Format 13: add offset to stack pointer ---

func decodeAddSP(op uint16) Decoded {
	negative := op&0x80 != 0
	sword7 := int32(op&0x7F) * 4
	if negative {
		sword7 = -sword7
	}
	return Decoded{ID: IDAdd, Mnemonic: "add", Cond: AL, Operands: []Operand{regOp(SP), regOp(SP), immOp(sword7)}, Size: 2}
}

// --- Format 14: push/pop ---

func decodePushPop(op uint16) Decoded {
	l := op&0x0800 != 0
	r := op&0x0100 != 0
	rlist := op & 0xFF

	var regs []Reg
	for i := 0; i < 8; i++ {
		if rlist&(1<<uint(i)) != 0 {
			regs = append(regs, Reg(i))
		}
	}

	mn := "push"
	id := IDPush
	if l {
		mn, id = "pop", IDPop
		if r {
			regs = append(regs, PC)
		}
	} else if r {
		regs = append(regs, LR)
	}

	return Decoded{ID: id, Mnemonic: mn, Cond: AL, Operands: []Operand{{Kind: OperandRegList, Regs: regs}}, Size: 2}
}

// --- Format 15: multiple load/store ---

func decodeMultiple(op uint16) Decoded {
	l := op&0x0800 != 0
	rb := Reg((op >> 8) & 0x7)
	rlist := op & 0xFF

	var regs []Reg
	for i := 0; i < 8; i++ {
		if rlist&(1<<uint(i)) != 0 {
			regs = append(regs, Reg(i))
		}
	}

	mn := "stmia"
	id := IDSTR
	if l {
		mn, id = "ldmia", IDLDR
	}
	return Decoded{
		ID:       id,
		Mnemonic: mn,
		Cond:     AL,
		Operands: []Operand{regOp(rb), {Kind: OperandRegList, Regs: regs}},
		Size:     2,
	}
}

// --- Format 16: conditional branch ---

func decodeCondBranch(pc uint32, op uint16) Decoded {
	cond := Cond((op >> 8) & 0xF)
	offset := int32(int8(op & 0xFF))
	target := uint32(int64(pc) + 4 + int64(offset)*2)

	return Decoded{
		ID:       IDB,
		Mnemonic: "b" + cond.Suffix(),
		Cond:     cond,
		Operands: []Operand{immOp(int32(target))},
		Groups:   GroupJump,
		Size:     2,
	}
}

// --- Format 18: unconditional branch ---

func decodeUncondBranch(pc uint32, op uint16) Decoded {
	offset := signExtend(int32(op&0x7FF), 11)
	target := uint32(int64(pc) + 4 + int64(offset)*2)

	return Decoded{
		ID:       IDB,
		Mnemonic: "b",
		Cond:     AL,
		Operands: []Operand{immOp(int32(target))},
		Groups:   GroupJump,
		Size:     2,
	}
}

// --- Format 19: long branch with link ---

func decodeBL(pc uint32, code []byte) (Decoded, error) {
	if len(code) < 4 {
		return Decoded{}, ErrShortRead
	}

	hi := binary.LittleEndian.Uint16(code[0:2])
	lo := binary.LittleEndian.Uint16(code[2:4])

	if hi&0xF800 != 0xF000 || lo&0xF800 != 0xF800 {
		return Decoded{}, fmt.Errorf("thumb: malformed BL pair at 0x%08X", pc)
	}

	offsetHi := signExtend(int32(hi&0x7FF), 11)
	offsetLo := int32(lo & 0x7FF)
	offset := (offsetHi << 12) | (offsetLo << 1)
	target := uint32(int64(pc) + 4 + int64(offset))

	return Decoded{
		ID:       IDBL,
		Mnemonic: "bl",
		Cond:     AL,
		Operands: []Operand{immOp(int32(target))},
		Size:     4,
	}, nil
}

func signExtend(value int32, bits uint) int32 {
	shift := 32 - bits
	return (value << shift) >> shift
}
