// Package thumb decodes ARMv4T Thumb instructions and renders their raw
// operand shapes. It has no notion of control flow, symbols, or registers'
// runtime contents — that belongs to package disassembler, which drives this
// package one instruction at a time during its control-flow walk.
package thumb

import "fmt"

// Reg is an ARM register number, 0-15. Registers 13-15 have the canonical
// names sp, lr, pc.
type Reg uint8

const (
	R0 Reg = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	R10
	R11
	R12
	SP
	LR
	PC
)

var registerNames = [...]string{
	"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
	"r8", "r9", "r10", "r11", "r12", "sp", "lr", "pc",
}

// Name renders a register in its canonical lowercase form.
func (r Reg) Name() string {
	if int(r) < len(registerNames) {
		return registerNames[r]
	}
	return fmt.Sprintf("r%d", r)
}

// BuildImm renders an immediate as `#N`, hex (`0x…`) when N > 9, else decimal.
func BuildImm(imm int32) string {
	if imm > 9 {
		return fmt.Sprintf("#0x%x", imm)
	}
	return fmt.Sprintf("#%d", imm)
}

// BuildRegList renders a push/pop register list, collapsing architecturally
// adjacent registers into ranges: `{a-b, c, d-e}`.
func BuildRegList(regs []Reg) string {
	if len(regs) == 0 {
		return "{}"
	}

	var parts []string
	start, end := regs[0], regs[0]

	flush := func() {
		if start == end {
			parts = append(parts, start.Name())
		} else {
			parts = append(parts, fmt.Sprintf("%s-%s", start.Name(), end.Name()))
		}
	}

	for i := 1; i < len(regs); i++ {
		if regs[i] == end+1 {
			end = regs[i]
			continue
		}
		flush()
		start, end = regs[i], regs[i]
	}
	flush()

	result := ""
	for i, p := range parts {
		if i > 0 {
			result += ", "
		}
		result += p
	}
	return "{" + result + "}"
}
