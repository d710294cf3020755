// Command agbdasm disassembles a single Thumb subroutine out of a GBA ROM
// image, following its control flow from an entry point and optionally
// resolving calls and literal pool loads against an ELF symbol table.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/grimdork/climate"

	"github.com/touched/agbdiff/disassembler"
	"github.com/touched/agbdiff/symtab"
)

type options struct {
	climate.BaseCommand
	ROM     string `short:"r" long:"rom" help:"GBA ROM image to disassemble."`
	Symbols string `short:"s" long:"symbols" help:"ELF file carrying symbol names for calls and literal pools."`
	Entry   string `short:"e" long:"entry" help:"Entry point address in hex, e.g. 0x08000150."`
	Name    string `short:"n" long:"name" help:"Entry point given as a symbol name instead of --entry; requires --symbols."`
	Out     string `short:"o" long:"out" help:"Output file; stdout if omitted."`
}

func main() {
	var opts options
	_, err := climate.Parse(&opts, "agbdasm 1.0.0")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if opts.ROM == "" || (opts.Entry == "" && opts.Name == "") {
		fmt.Fprintln(os.Stderr, "agbdasm: --rom and one of --entry or --name are required")
		os.Exit(1)
	}

	rom, err := os.ReadFile(opts.ROM)
	if err != nil {
		fmt.Fprintf(os.Stderr, "agbdasm: reading ROM: %v\n", err)
		os.Exit(1)
	}

	var symbols *symtab.Index
	if opts.Symbols != "" {
		syms, err := symtab.LoadELF(opts.Symbols)
		if err != nil {
			fmt.Fprintf(os.Stderr, "agbdasm: loading symbols: %v\n", err)
			os.Exit(1)
		}
		symbols = symtab.NewIndex(syms)
	}

	entry, err := resolveEntry(opts.Entry, opts.Name, symbols)
	if err != nil {
		fmt.Fprintf(os.Stderr, "agbdasm: %v\n", err)
		os.Exit(1)
	}

	items, err := disassembler.New(rom).Disassemble(entry, symbols)
	if err != nil {
		fmt.Fprintf(os.Stderr, "agbdasm: %v\n", err)
		os.Exit(1)
	}

	text := renderListing(items)

	if opts.Out == "" {
		fmt.Print(text)
		return
	}

	if err := os.WriteFile(opts.Out, []byte(text), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "agbdasm: writing output: %v\n", err)
		os.Exit(1)
	}
}

func renderListing(items []disassembler.Item) string {
	var b strings.Builder
	for _, item := range items {
		if label := item.Label(); label != "" {
			fmt.Fprintf(&b, "%s:\n", label)
		}
		fmt.Fprintf(&b, "%08X\t%s\n", item.Address(), item.String())
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
