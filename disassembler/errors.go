package disassembler

import "fmt"

// UnexpectedEndOfStream is returned when the decoder runs out of ROM bytes
// before a code path reaches a return or non-call jump.
type UnexpectedEndOfStream struct {
	Address uint32
}

func (e *UnexpectedEndOfStream) Error() string {
	return fmt.Sprintf("disassembler: unexpected end of stream at 0x%08X", e.Address)
}

// UnsupportedConstruct marks an input the core deliberately refuses to
// reason about: a non-positive literal-pool displacement, a misaligned
// instruction, or an opcode the Thumb decoder does not recognise. A `bx Rn`
// that is not a return is treated as a call and never reported here.
type UnsupportedConstruct struct {
	Address uint32
	Reason  string
}

func (e *UnsupportedConstruct) Error() string {
	return fmt.Sprintf("disassembler: unsupported construct at 0x%08X: %s", e.Address, e.Reason)
}
