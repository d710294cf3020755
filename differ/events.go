// Package differ compares two disassembler.Item sequences and reports their
// differences as a flat event stream, suitable for rendering as a unified
// or side-by-side disassembly diff.
package differ

import "github.com/touched/agbdiff/disassembler"

// Opcode is the differ's five-symbol event alphabet.
type Opcode byte

const (
	Equal         Opcode = ' '
	Insert        Opcode = '+'
	Delete        Opcode = '-'
	ReplacedLeft  Opcode = '<'
	ReplacedRight Opcode = '>'
)

// SpanKind classifies one intra-line change span, reported only on
// ReplacedLeft/ReplacedRight events produced by a fancy-replace synch pair.
type SpanKind byte

const (
	SpanChanged SpanKind = '^'
	SpanAdded   SpanKind = '+'
	SpanRemoved SpanKind = '-'
)

// Span is a half-open [Start, End) range into an event's rendered Text.
type Span struct {
	Kind  SpanKind
	Start int
	End   int
}

// Event is one reported line of a diff: an item's rendered text tagged with
// how it relates to the other side.
//
// Label is nil when neither side of a ReplacedLeft/ReplacedRight pair names
// a label at this address — there is no label row to render at all — and a
// pointer to "" when at least one side does but this side doesn't, so a
// side-by-side rendering still reserves the row and stays aligned. For
// Equal/Insert/Delete events it is simply the item's own label, nil if it
// has none.
type Event struct {
	Opcode  Opcode
	Kind    disassembler.Kind
	Address uint32
	Size    uint32
	Text    string
	Label   *string

	// AddressShift marks an 'equal' matcher pair whose items are textually
	// identical but live at different addresses (code relocation).
	AddressShift bool

	// Spans holds intra-line change spans for a non-identical fancy-replace
	// synch pair; nil otherwise.
	Spans []Span
}

func label(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func tagRange(opcode Opcode, items []disassembler.Item) []Event {
	events := make([]Event, 0, len(items))
	for _, item := range items {
		events = append(events, Event{
			Opcode:  opcode,
			Kind:    item.Kind(),
			Address: item.Address(),
			Size:    item.Size(),
			Text:    item.String(),
			Label:   label(item.Label()),
		})
	}
	return events
}

// normalizedLabels implements the "reserve a label row on both sides"
// rule for a displaced pair: if either side names a label, the other side's
// missing label becomes a present-but-empty pointer instead of nil.
func normalizedLabels(left, right string) (*string, *string) {
	if left == "" && right == "" {
		return nil, nil
	}
	l, r := left, right
	return &l, &r
}
