package disassembler

import "github.com/touched/agbdiff/thumb"

// Registers is a fixed 16-slot provenance table: each cell names the
// register whose value is currently believed to reside in that slot, or ""
// if unknown. It is cloned by value at every branch.
type Registers [16]string

// Clone returns an independent copy.
func (r Registers) Clone() Registers {
	return r
}

// Get returns the provenance tag held in reg, or "" if unknown.
func (r Registers) Get(reg thumb.Reg) string {
	return r[reg]
}

// Set records that reg now holds the value originally belonging to tag.
func (r *Registers) Set(reg thumb.Reg, tag string) {
	r[reg] = tag
}

// Stack is a LIFO sequence of provenance tags, cloned by value at every
// branch.
type Stack []string

// Clone returns an independent copy whose backing array is never shared
// with the original.
func (s Stack) Clone() Stack {
	clone := make(Stack, len(s))
	copy(clone, s)
	return clone
}

// Push records that tag's value was just pushed onto the stack.
func (s Stack) Push(tag string) Stack {
	return append(s, tag)
}

// Pop removes and returns the most recently pushed tag. It panics on an
// empty stack, matching the teacher's worklist invariants: a malformed
// push/pop nesting is a logic bug, not routine input to recover from.
func (s Stack) Pop() (Stack, string) {
	n := len(s)
	tag := s[n-1]
	return s[:n-1], tag
}
