package differ

import (
	"github.com/pmezard/go-difflib/difflib"

	"github.com/touched/agbdiff/disassembler"
)

func renderedLines(items []disassembler.Item) []string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = item.String()
	}
	return lines
}

// Diff compares two disassemblies line by line using an LCS matcher over
// their rendered text, the same way the original tool diffs Python
// disassembly listings: a textual match at displaced addresses is reported
// as a shift rather than a plain equal (code relocation, not a real change,
// is the common case between decompilation passes), and a textually close
// but non-identical replace block is further decomposed by fancy-replace
// into a synch pair plus intra-line spans, rather than reported as an
// opaque delete-then-insert.
func Diff(original, modified []disassembler.Item) ([]Event, error) {
	al := renderedLines(original)
	bl := renderedLines(modified)

	matcher := difflib.NewMatcher(al, bl)
	opcodes := matcher.GetOpCodes()

	var events []Event
	for _, op := range opcodes {
		switch op.Tag {
		case 'r':
			events = append(events, fancyReplace(original, modified, al, bl, op.I1, op.I2, op.J1, op.J2)...)
		case 'd':
			events = append(events, tagRange(Delete, original[op.I1:op.I2])...)
		case 'i':
			events = append(events, tagRange(Insert, modified[op.J1:op.J2])...)
		case 'e':
			events = append(events, equalRange(original[op.I1:op.I2], modified[op.J1:op.J2])...)
		default:
			return nil, &InvariantViolation{Tag: op.Tag}
		}
	}

	return events, nil
}

// equalRange reports a run the matcher considers textually identical. The
// matcher never factors addresses into its comparison, so an "equal" pair
// can still have moved: when it has, both sides are reported as a
// ReplacedLeft/ReplacedRight pair tagged AddressShift instead of a plain
// equal.
func equalRange(left, right []disassembler.Item) []Event {
	events := make([]Event, 0, len(left))
	for i := range left {
		l, r := left[i], right[i]
		if l.Address() == r.Address() {
			events = append(events, tagRange(Equal, []disassembler.Item{l})[0])
			continue
		}

		leftLabel, rightLabel := normalizedLabels(l.Label(), r.Label())

		events = append(events,
			Event{Opcode: ReplacedLeft, Kind: l.Kind(), Address: l.Address(), Size: l.Size(), Text: l.String(), Label: leftLabel, AddressShift: true},
			Event{Opcode: ReplacedRight, Kind: r.Kind(), Address: r.Address(), Size: r.Size(), Text: r.String(), Label: rightLabel, AddressShift: true},
		)
	}
	return events
}
