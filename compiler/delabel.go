package compiler

import (
	"github.com/LucasPickering/gdlk-sub000/ast"
)

// delabel strips label declarations out of a validated program, producing the
// flat instruction sequence the machine executes plus the symbol table mapping
// each label to the absolute index of the first instruction at or after its
// declaration. Several labels on consecutive lines may share one target, and
// trailing labels map to the index just past the last instruction.
func delabel(program *ast.SourceProgram, stats ast.ProgramStats) ast.CompiledProgram {
	compiled := ast.CompiledProgram{
		SymbolTable: make(map[string]int),
		Stats:       stats,
	}
	for _, stmt := range program.Body {
		switch {
		case stmt.Value.Label != nil:
			compiled.SymbolTable[stmt.Value.Label.Value] = len(compiled.Instructions)
		case stmt.Value.Instr != nil:
			compiled.Instructions = append(compiled.Instructions, *stmt.Value.Instr)
		}
	}
	return compiled
}
