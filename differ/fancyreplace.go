package differ

import (
	"github.com/pmezard/go-difflib/difflib"

	"github.com/touched/agbdiff/disassembler"
)

const (
	synchStartRatio = 0.74
	synchCutoff     = 0.75
)

// fancyReplace decomposes a coarse "replace" block into a synch pair plus
// intra-line spans when the two sides contain a close-but-not-identical
// line pair, falling back to a plain shorter-block-first replace otherwise.
// It mirrors the matcher's own internal fancy-replace pass, but operating
// over rendered disassembly lines rather than raw text, since the coarse
// pass here is driven one level up (by Diff) instead of letting the matcher
// recurse into replace blocks on its own.
func fancyReplace(a, b []disassembler.Item, al, bl []string, alo, ahi, blo, bhi int) []Event {
	bestRatio := synchStartRatio
	bestI, bestJ := -1, -1
	eqI, eqJ := -1, -1

	cruncher := difflib.NewMatcher(nil, nil)

	for j := blo; j < bhi; j++ {
		bj := bl[j]
		cruncher.SetSeq2(splitChars(bj))

		for i := alo; i < ahi; i++ {
			ai := al[i]
			if ai == bj {
				if eqI < 0 {
					eqI, eqJ = i, j
				}
				continue
			}

			cruncher.SetSeq1(splitChars(ai))
			if cruncher.RealQuickRatio() <= bestRatio || cruncher.QuickRatio() <= bestRatio {
				continue
			}
			if ratio := cruncher.Ratio(); ratio > bestRatio {
				bestRatio, bestI, bestJ = ratio, i, j
			}
		}
	}

	identical := false
	if bestRatio < synchCutoff {
		if eqI < 0 {
			return plainReplace(a[alo:ahi], b[blo:bhi])
		}
		bestI, bestJ, identical = eqI, eqJ, true
	}

	var events []Event
	events = append(events, fancyReplace(a, b, al, bl, alo, bestI, blo, bestJ)...)

	if identical {
		events = append(events, tagRange(Equal, []disassembler.Item{a[bestI]})...)
	} else {
		events = append(events, spanEvents(a[bestI], b[bestJ], al[bestI], bl[bestJ])...)
	}

	events = append(events, fancyReplace(a, b, al, bl, bestI+1, ahi, bestJ+1, bhi)...)
	return events
}

// plainReplace emits a replace block with no usable synch pair: the shorter
// side first, matching the original tool's preference for leading with
// whichever reads shorter.
func plainReplace(a, b []disassembler.Item) []Event {
	var events []Event
	if len(b) < len(a) {
		events = append(events, tagRange(Insert, b)...)
		events = append(events, tagRange(Delete, a)...)
	} else {
		events = append(events, tagRange(Delete, a)...)
		events = append(events, tagRange(Insert, b)...)
	}
	return events
}

// spanEvents reports a non-identical synch pair as a ReplacedLeft/
// ReplacedRight event carrying the intra-line change spans between the two
// lines, computed by running the matcher a second time at character
// granularity.
func spanEvents(left, right disassembler.Item, leftLine, rightLine string) []Event {
	m := difflib.NewMatcher(splitChars(leftLine), splitChars(rightLine))

	var leftSpans, rightSpans []Span
	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'r':
			leftSpans = append(leftSpans, Span{Kind: SpanChanged, Start: op.I1, End: op.I2})
			rightSpans = append(rightSpans, Span{Kind: SpanChanged, Start: op.J1, End: op.J2})
		case 'd':
			leftSpans = append(leftSpans, Span{Kind: SpanRemoved, Start: op.I1, End: op.I2})
		case 'i':
			rightSpans = append(rightSpans, Span{Kind: SpanAdded, Start: op.J1, End: op.J2})
		}
	}

	leftLabel, rightLabel := normalizedLabels(left.Label(), right.Label())

	return []Event{
		{Opcode: ReplacedLeft, Kind: left.Kind(), Address: left.Address(), Size: left.Size(), Text: left.String(), Label: leftLabel, Spans: leftSpans},
		{Opcode: ReplacedRight, Kind: right.Kind(), Address: right.Address(), Size: right.Size(), Text: right.String(), Label: rightLabel, Spans: rightSpans},
	}
}

func splitChars(s string) []string {
	runes := []rune(s)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}
