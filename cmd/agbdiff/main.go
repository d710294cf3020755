// Command agbdiff disassembles the same entry point out of two GBA ROM
// images and reports how the resulting listings differ, treating a
// textually identical block at a new address as a relocation rather than a
// change — the common case when comparing successive decompilation passes.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/grimdork/climate"

	"github.com/touched/agbdiff/disassembler"
	"github.com/touched/agbdiff/differ"
	"github.com/touched/agbdiff/symtab"
)

type options struct {
	climate.BaseCommand
	ROMOriginal string `long:"original" help:"The baseline GBA ROM image."`
	ROMModified string `long:"modified" help:"The GBA ROM image to compare against the baseline."`
	Symbols     string `short:"s" long:"symbols" help:"ELF file carrying symbol names, applied to both sides."`
	Entry       string `short:"e" long:"entry" help:"Entry point address in hex, shared by both ROMs."`
	Name        string `short:"n" long:"name" help:"Entry point given as a symbol name instead of --entry; requires --symbols."`
}

func main() {
	var opts options
	_, err := climate.Parse(&opts, "agbdiff 1.0.0")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if opts.ROMOriginal == "" || opts.ROMModified == "" || (opts.Entry == "" && opts.Name == "") {
		fmt.Fprintln(os.Stderr, "agbdiff: --original, --modified and one of --entry or --name are required")
		os.Exit(1)
	}

	var symbols *symtab.Index
	if opts.Symbols != "" {
		syms, err := symtab.LoadELF(opts.Symbols)
		if err != nil {
			fmt.Fprintf(os.Stderr, "agbdiff: loading symbols: %v\n", err)
			os.Exit(1)
		}
		symbols = symtab.NewIndex(syms)
	}

	entry, err := resolveEntry(opts.Entry, opts.Name, symbols)
	if err != nil {
		fmt.Fprintf(os.Stderr, "agbdiff: %v\n", err)
		os.Exit(1)
	}

	original, err := disassembleFile(opts.ROMOriginal, entry, symbols)
	if err != nil {
		fmt.Fprintf(os.Stderr, "agbdiff: disassembling %s: %v\n", opts.ROMOriginal, err)
		os.Exit(1)
	}

	modified, err := disassembleFile(opts.ROMModified, entry, symbols)
	if err != nil {
		fmt.Fprintf(os.Stderr, "agbdiff: disassembling %s: %v\n", opts.ROMModified, err)
		os.Exit(1)
	}

	events, err := differ.Diff(original, modified)
	if err != nil {
		fmt.Fprintf(os.Stderr, "agbdiff: %v\n", err)
		os.Exit(1)
	}

	fmt.Print(renderDiff(events))
}

func disassembleFile(path string, entry uint32, symbols *symtab.Index) ([]disassembler.Item, error) {
	rom, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return disassembler.New(rom).Disassemble(entry, symbols)
}

func renderDiff(events []differ.Event) string {
	var b strings.Builder
	for _, e := range events {
		prefix := string(e.Opcode)
		if e.Label != nil && *e.Label != "" {
			fmt.Fprintf(&b, "%s%s:\n", prefix, *e.Label)
		}
		fmt.Fprintf(&b, "%s%08X\t%s\n", prefix, e.Address, e.Text)
	}
	return b.String()
}

func parseHexAddress(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// resolveEntry turns --entry or --name into a concrete address, preferring
// an explicit address when both are given.
func resolveEntry(entry, name string, symbols *symtab.Index) (uint32, error) {
	if entry != "" {
		return parseHexAddress(entry)
	}
	if symbols == nil {
		return 0, fmt.Errorf("--name requires --symbols")
	}
	sym, ok := symbols.LookupName(name)
	if !ok {
		return 0, fmt.Errorf("symbol %q not found", name)
	}
	return sym.EffectiveStart(), nil
}
