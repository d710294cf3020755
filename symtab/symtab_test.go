package symtab

import "testing"

func TestAddressToOffset(t *testing.T) {
	off, err := AddressToOffset(0x08000100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if off != 0x100 {
		t.Errorf("got offset 0x%X, want 0x100", off)
	}

	if _, err := AddressToOffset(0x02000000); err == nil {
		t.Errorf("expected error for address outside ROM window")
	}
}

func TestIndexLookupExact(t *testing.T) {
	idx := NewIndex([]Symbol{
		{Name: "Foo", Value: 0x08000001, Size: 8, Kind: KindFunction}, // thumb bit set
		{Name: "Bar", Value: 0x08000020, Size: 0, Kind: KindFunction},
	})

	for x := uint32(0x08000000); x < 0x08000008; x++ {
		l, ok := idx.Lookup(x)
		if !ok {
			t.Fatalf("lookup(0x%X) failed", x)
		}
		if l.Symbol.Name != "Foo" {
			t.Fatalf("lookup(0x%X) = %s, want Foo", x, l.Symbol.Name)
		}
		if l.Disp != x-0x08000000 {
			t.Errorf("lookup(0x%X).Disp = %d, want %d", x, l.Disp, x-0x08000000)
		}
	}

	if _, ok := idx.Lookup(0x08000008); ok {
		t.Errorf("lookup(0x08000008) should miss, past Foo's end")
	}

	// Zero-size symbols match anything from their start onward (up to the
	// next symbol's start), per the spec's "size==0 OR addr<end" rule.
	l, ok := idx.Lookup(0x08000100)
	if !ok || l.Symbol.Name != "Bar" {
		t.Fatalf("expected zero-size symbol Bar to match far past its start")
	}
}

func TestIndexLookupName(t *testing.T) {
	idx := NewIndex([]Symbol{{Name: "Foo", Value: 0x08000000, Size: 4}})

	if _, ok := idx.LookupName("Foo"); !ok {
		t.Errorf("expected LookupName(Foo) to succeed")
	}
	if _, ok := idx.LookupName("Missing"); ok {
		t.Errorf("expected LookupName(Missing) to fail")
	}
}
