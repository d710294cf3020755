package symtab

import (
	"debug/elf"
	"fmt"
)

// LoadELF reads an ELF file's symbol table and returns it as a flat list of
// Symbol, ready to be passed to NewIndex. Only named function and object
// symbols are kept; everything else (section symbols, file symbols, the
// null first entry) is dropped.
//
// This is the one ELF-reading corner the core specification treats as an
// external collaborator that it otherwise only consumes; it's implemented
// here with the standard library's debug/elf because no third-party ELF
// parser appears anywhere in the example pack (see DESIGN.md).
func LoadELF(path string) ([]Symbol, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("symtab: opening ELF file %q: %w", path, err)
	}
	defer f.Close()

	syms, err := f.Symbols()
	if err != nil {
		return nil, fmt.Errorf("symtab: reading symbols from %q: %w", path, err)
	}

	out := make([]Symbol, 0, len(syms))
	for _, s := range syms {
		if s.Name == "" {
			continue
		}

		var kind Kind
		switch elf.ST_TYPE(s.Info) {
		case elf.STT_FUNC:
			kind = KindFunction
		case elf.STT_OBJECT:
			kind = KindOther
		default:
			continue
		}

		out = append(out, Symbol{
			Name:  s.Name,
			Value: uint32(s.Value),
			Size:  uint32(s.Size),
			Kind:  kind,
		})
	}

	return out, nil
}
