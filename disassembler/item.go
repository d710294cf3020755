// Package disassembler performs a control-flow-aware walk of Thumb code in a
// GBA ROM image, producing an ordered, gap-free sequence of Items.
package disassembler

import "fmt"

// Kind distinguishes the three Item variants.
type Kind int

const (
	KindInsn Kind = iota
	KindData
	KindAlign
)

// Item is the unit of disassembler output and differ input: an instruction,
// a literal-pool data word, or an alignment filler.
type Item interface {
	Address() uint32
	Size() uint32
	Kind() Kind
	// String renders the item's canonical single-line text form. The differ
	// diffs items by this text, so it must be stable and side-effect free.
	String() string
	// Label returns the label assigned to this item's address by the
	// post-pass, or "" if none.
	Label() string
	SetLabel(string)
}

// Insn is a decoded Thumb instruction, its literal-pool data references, and
// the register/stack provenance state captured as of this point in its code
// path.
type Insn struct {
	address  uint32
	size     uint32
	text     string
	label    string
	dataRefs []uint32

	// Registers and Stack are the provenance state after this instruction's
	// push/pop effect has been applied, cloned from the code path that
	// produced it.
	Registers Registers
	Stack     Stack
}

// NewInsn constructs an Insn directly from its rendered fields, for
// composing fixtures in packages (such as differ) that consume disassembler
// output without running a full control-flow walk.
func NewInsn(address, size uint32, text, label string) *Insn {
	return &Insn{address: address, size: size, text: text, label: label}
}

func (i *Insn) Address() uint32    { return i.address }
func (i *Insn) Size() uint32       { return i.size }
func (i *Insn) Kind() Kind         { return KindInsn }
func (i *Insn) String() string     { return i.text }
func (i *Insn) Label() string      { return i.label }
func (i *Insn) SetLabel(l string)  { i.label = l }
func (i *Insn) DataReferences() []uint32 {
	return i.dataRefs
}

// Data is a literal-pool word: a little-endian 32-bit value loaded by some
// `ldr Rd, [pc, #disp]` elsewhere in the same disassembly.
type Data struct {
	address uint32
	value   uint32
	label   string
}

func (d *Data) Address() uint32   { return d.address }
func (d *Data) Size() uint32      { return 4 }
func (d *Data) Kind() Kind        { return KindData }
func (d *Data) Label() string     { return d.label }
func (d *Data) SetLabel(l string) { d.label = l }
func (d *Data) Value() uint32     { return d.value }
func (d *Data) String() string    { return fmt.Sprintf(".word 0x%08X", d.value) }

// Align is a gap filler covering [Address, Address+Size) between two
// emitted items, reified by the post-pass whenever it finds a hole.
type Align struct {
	address uint32
	size    uint32
	label   string
}

func (a *Align) Address() uint32   { return a.address }
func (a *Align) Size() uint32      { return a.size }
func (a *Align) Kind() Kind        { return KindAlign }
func (a *Align) Label() string     { return a.label }
func (a *Align) SetLabel(l string) { a.label = l }
func (a *Align) String() string    { return fmt.Sprintf(".align %d", a.size) }
