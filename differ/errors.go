package differ

import "fmt"

// InvariantViolation marks a condition the differ's own logic should never
// produce: a matcher opcode outside {equal, insert, delete, replace}.
type InvariantViolation struct {
	Tag byte
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("differ: invariant violation: unknown opcode tag %q", e.Tag)
}
