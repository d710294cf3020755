package disassembler

import (
	"fmt"
	"strings"

	"github.com/touched/agbdiff/symtab"
	"github.com/touched/agbdiff/thumb"
)

func generateLabel(address uint32, prefix string) string {
	return fmt.Sprintf("%s_%X", prefix, address)
}

// literal is the resolved value of a literal-pool word an instruction loads,
// passed into rendering so `ldr Rd, =name` can be produced without a second
// ROM read.
type literal struct {
	address uint32
	value   uint32
	present bool
}

// renderInsn implements spec's "Rendering an Insn to text" contract: operand
// text, jump-target labels, symbol-resolved calls and literal loads, and the
// `mov`/`nop` peephole pseudo-ops.
func renderInsn(d thumb.Decoded, lit literal, symbols *symtab.Index) string {
	mnemonic := d.Mnemonic
	operands := d.Operands

	switch {
	case d.ID == thumb.IDAdd && len(operands) == 3 && operands[2].Kind == thumb.OperandImm && operands[2].Imm == 0:
		mnemonic = "mov"
		operands = operands[:2]
	case d.ID == thumb.IDMov && len(operands) == 2 &&
		operands[0].Kind == thumb.OperandReg && operands[1].Kind == thumb.OperandReg &&
		operands[0].Reg == thumb.R8 && operands[1].Reg == thumb.R8:
		return "nop"
	case d.ID == thumb.IDLDR && len(operands) == 2 && operands[1].Kind == thumb.OperandMem && operands[1].Base == thumb.PC:
		return fmt.Sprintf("%s\t%s, %s", mnemonic, operands[0].Reg.Name(), renderLiteralOperand(lit, symbols))
	}

	parts := make([]string, 0, len(operands))
	for _, op := range operands {
		parts = append(parts, renderOperand(op, d, symbols))
	}

	if len(parts) == 0 {
		return mnemonic
	}
	return fmt.Sprintf("%s\t%s", mnemonic, strings.Join(parts, ", "))
}

func renderLiteralOperand(lit literal, symbols *symtab.Index) string {
	if !lit.present {
		return "=?"
	}
	if symbols != nil {
		if l, ok := symbols.Lookup(lit.value); ok {
			if l.Disp > 0 {
				return fmt.Sprintf("=%s+%d", l.Symbol.Name, l.Disp)
			}
			return fmt.Sprintf("=%s", l.Symbol.Name)
		}
	}
	return fmt.Sprintf("=0x%08x", lit.value)
}

func renderOperand(op thumb.Operand, d thumb.Decoded, symbols *symtab.Index) string {
	switch op.Kind {
	case thumb.OperandReg:
		return op.Reg.Name()
	case thumb.OperandImm:
		if d.IsJump() {
			return generateLabel(uint32(op.Imm), "loc")
		}
		if d.ID == thumb.IDBL {
			if symbols != nil {
				if l, ok := symbols.Lookup(uint32(op.Imm)); ok {
					return l.Symbol.Name
				}
			}
			return fmt.Sprintf("0x%08x", uint32(op.Imm))
		}
		return thumb.BuildImm(op.Imm)
	case thumb.OperandMem:
		if op.HasIndex {
			return fmt.Sprintf("[%s, %s]", op.Base.Name(), op.Index.Name())
		}
		return fmt.Sprintf("[%s, %s]", op.Base.Name(), thumb.BuildImm(op.Disp))
	case thumb.OperandRegList:
		return thumb.BuildRegList(op.Regs)
	}
	return "?"
}
