package disassembler

import (
	"fmt"
	"sort"

	"github.com/touched/agbdiff/symtab"
	"github.com/touched/agbdiff/thumb"
)

// Disassembler performs a control-flow-aware Thumb disassembly of a ROM
// image. A value holds only a read-only reference to the ROM bytes; it may
// be reused across calls to Disassemble, but a single call's walk is not
// restartable or resumable.
type Disassembler struct {
	rom []byte
}

// New wraps a ROM byte buffer for disassembly.
func New(rom []byte) *Disassembler {
	return &Disassembler{rom: rom}
}

func (d *Disassembler) window(address uint32) ([]byte, error) {
	offset, err := symtab.AddressToOffset(address)
	if err != nil {
		return nil, fmt.Errorf("disassembler: %w", err)
	}
	if int(offset) >= len(d.rom) {
		return nil, &UnexpectedEndOfStream{Address: address}
	}
	return d.rom[offset:], nil
}

// Disassemble walks Thumb code starting at entry, following the control-flow
// graph (branches, conditional branches, returns) to discover every
// reachable instruction, then returns them in address order, gap-free, with
// labels assigned. entry must be Thumb-aligned with any low-bit tag already
// stripped.
func (d *Disassembler) Disassemble(entry uint32, symbols *symtab.Index) ([]Item, error) {
	queue := newPathQueue()
	queue.push(codePath{address: entry})

	items := make(map[uint32]Item)
	labels := map[uint32]string{entry: generateLabel(entry, "sub")}

	for {
		path, ok := queue.pop()
		if !ok {
			break
		}

		if err := d.walkPath(path, symbols, items, labels, queue); err != nil {
			return nil, err
		}
	}

	return d.finalize(items, labels), nil
}

// walkPath linearly decodes from path.address until it hits a return or a
// non-call jump, recording every instruction (and any literal-pool data it
// references) into items, and enqueuing any new code paths a jump opens up.
func (d *Disassembler) walkPath(path codePath, symbols *symtab.Index, items map[uint32]Item, labels map[uint32]string, queue *pathQueue) error {
	registers := path.registers
	stack := path.stack
	address := path.address

	for {
		window, err := d.window(address)
		if err != nil {
			return err
		}

		decoded, err := thumb.Decode(address, window)
		if err == thumb.ErrShortRead {
			return &UnexpectedEndOfStream{Address: address}
		}
		if err != nil {
			return &UnsupportedConstruct{Address: address, Reason: err.Error()}
		}

		switch decoded.ID {
		case thumb.IDPush:
			regs := decoded.Operands[0].Regs
			for i := len(regs) - 1; i >= 0; i-- {
				stack = stack.Push(regs[i].Name())
			}
		case thumb.IDPop:
			regs := decoded.Operands[0].Regs
			for _, r := range regs {
				var tag string
				stack, tag = stack.Pop()
				registers.Set(r, tag)
			}
		}

		var lit literal
		var dataRefs []uint32
		if decoded.ID == thumb.IDLDR && len(decoded.Operands) == 2 &&
			decoded.Operands[1].Kind == thumb.OperandMem && decoded.Operands[1].Base == thumb.PC {
			disp := decoded.Operands[1].Disp
			if disp <= 0 {
				return &UnsupportedConstruct{Address: address, Reason: "non-positive literal-pool displacement"}
			}

			var align uint32 = 2
			if address%4 == 0 {
				align = 4
			}
			litAddr := address + uint32(disp) + align

			value, err := d.readWord(litAddr)
			if err != nil {
				return err
			}

			if _, exists := items[litAddr]; !exists {
				items[litAddr] = &Data{address: litAddr, value: value}
			}
			if _, hasLabel := labels[litAddr]; !hasLabel {
				labels[litAddr] = generateLabel(litAddr, "off")
			}

			lit = literal{address: litAddr, value: value, present: true}
			dataRefs = []uint32{litAddr}
		}

		text := renderInsn(decoded, lit, symbols)
		items[address] = &Insn{
			address:   address,
			size:      decoded.Size,
			text:      text,
			dataRefs:  dataRefs,
			Registers: registers,
			Stack:     stack.Clone(),
		}

		isReturn := classifyReturn(decoded, registers)
		isCall := classifyCall(decoded, isReturn)

		if isReturn {
			return nil
		}

		if decoded.IsJump() && !isCall {
			// bx never reaches here: a bx that isn't a return is always
			// classified as a call, so its unresolvable register target is
			// never queried as a jump address.
			target := uint32(decoded.Operands[0].Imm)
			if _, hasLabel := labels[target]; !hasLabel {
				labels[target] = generateLabel(target, "loc")
			}

			var next []uint32
			if decoded.IsUnconditionalBranch() {
				next = []uint32{target}
			} else {
				next = []uint32{address + decoded.Size, target}
			}

			for _, addr := range next {
				queue.push(codePath{address: addr, registers: registers.Clone(), stack: stack.Clone()})
			}

			return nil
		}

		address += decoded.Size
	}
}

func (d *Disassembler) readWord(address uint32) (uint32, error) {
	window, err := d.window(address)
	if err != nil {
		return 0, err
	}
	if len(window) < 4 {
		return 0, &UnexpectedEndOfStream{Address: address}
	}
	return uint32(window[0]) | uint32(window[1])<<8 | uint32(window[2])<<16 | uint32(window[3])<<24, nil
}

func classifyReturn(d thumb.Decoded, registers Registers) bool {
	switch d.ID {
	case thumb.IDBX:
		rs := d.Operands[0].Reg
		if rs == thumb.LR {
			return true
		}
		return registers.Get(rs) == "lr"
	case thumb.IDPop:
		return registers.Get(thumb.PC) == "lr"
	}
	return false
}

func classifyCall(d thumb.Decoded, isReturn bool) bool {
	switch d.ID {
	case thumb.IDBX:
		return !isReturn
	case thumb.IDBL:
		return true
	}
	return false
}

// finalize sorts the address->item map, reifies alignment holes, and
// assigns each item its label from the label map.
func (d *Disassembler) finalize(items map[uint32]Item, labels map[uint32]string) []Item {
	addrs := make([]uint32, 0, len(items))
	for addr := range items {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	out := make([]Item, 0, len(addrs))
	var predictedNext uint32
	havePredicted := false

	for _, addr := range addrs {
		item := items[addr]

		if havePredicted && predictedNext != addr {
			out = append(out, &Align{address: predictedNext, size: addr - predictedNext})
		}

		if label, ok := labels[addr]; ok {
			item.SetLabel(label)
		}
		out = append(out, item)

		predictedNext = addr + item.Size()
		havePredicted = true
	}

	return out
}
