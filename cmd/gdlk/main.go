// GDLK command line tool, for compiling and executing GDLK programs.
// Subcommands: compile (check a program against a hardware spec), run
// (execute it against a program spec), debug (interactive stepper).
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"

	"github.com/LucasPickering/gdlk-sub000/compiler"
	"github.com/LucasPickering/gdlk-sub000/gdlkerrors"
	"github.com/LucasPickering/gdlk-sub000/log"
	"github.com/LucasPickering/gdlk-sub000/machine"
	"github.com/LucasPickering/gdlk-sub000/types"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

func main() {
	var (
		logLevel     string
		debugModules string
	)

	rootCmd := &cobra.Command{
		Use:     "gdlk",
		Short:   "GDLK compiler and virtual machine",
		Version: fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.InitLogger(logLevel)
			log.EnableModules(debugModules)
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&logLevel, "loglevel", "info", "log level (trace|debug|info|warn|error|crit)")
	rootCmd.PersistentFlags().StringVar(&debugModules, "debug", "", "comma-separated modules to enable debug logging for, or 'all'")

	var (
		hardwarePath string
		programPath  string
		sourcePath   string
		maxCycles    int
		dumpTree     bool
	)

	compileCmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile source code",
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, _, err := loadAndCompile(hardwarePath, sourcePath)
			if err != nil {
				return err
			}
			fmt.Printf("Compiled %d instructions (%d registers, %d stacks referenced)\n",
				prog.NumInstructions(),
				prog.NumUserRegistersReferenced(),
				prog.NumStacksReferenced())
			if dumpTree {
				fmt.Print(dumpProgram(prog))
			}
			return nil
		},
	}
	compileCmd.Flags().StringVar(&hardwarePath, "hardware", "", "path to the hardware spec file (JSON or YAML); defaults used if omitted")
	compileCmd.Flags().StringVarP(&sourcePath, "source", "s", "", "path to the source code file")
	compileCmd.Flags().BoolVar(&dumpTree, "dump", false, "print the compiled program as a tree")
	compileCmd.MarkFlagRequired("source")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Compile and execute source code",
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, hw, err := loadAndCompile(hardwarePath, sourcePath)
			if err != nil {
				return err
			}
			programSpec, err := loadProgramSpec(programPath)
			if err != nil {
				return err
			}
			m := prog.AllocateWithLimit(programSpec, maxCycles)
			success, err := m.ExecuteAll()
			if err != nil {
				return renderError(err)
			}
			printMachineState(hw, m)
			if success {
				fmt.Println("Program completed with SUCCESS")
			} else {
				fmt.Printf("Program completed with FAILURE (%s)\n", m.FailureReason())
			}
			return nil
		},
	}
	runCmd.Flags().StringVar(&hardwarePath, "hardware", "", "path to the hardware spec file (JSON or YAML); defaults used if omitted")
	runCmd.Flags().StringVarP(&programPath, "program", "p", "", "path to the program spec file (JSON or YAML); defaults used if omitted")
	runCmd.Flags().StringVarP(&sourcePath, "source", "s", "", "path to the source code file")
	runCmd.Flags().IntVar(&maxCycles, "max-cycles", machine.DefaultMaxCycles, "cycle ceiling before execution is aborted")
	runCmd.MarkFlagRequired("source")

	debugCmd := &cobra.Command{
		Use:   "debug",
		Short: "Compile source code and step through it interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, hw, err := loadAndCompile(hardwarePath, sourcePath)
			if err != nil {
				return err
			}
			programSpec, err := loadProgramSpec(programPath)
			if err != nil {
				return err
			}
			return debugLoop(hw, prog, programSpec, maxCycles)
		},
	}
	debugCmd.Flags().StringVar(&hardwarePath, "hardware", "", "path to the hardware spec file (JSON or YAML); defaults used if omitted")
	debugCmd.Flags().StringVarP(&programPath, "program", "p", "", "path to the program spec file (JSON or YAML); defaults used if omitted")
	debugCmd.Flags().StringVarP(&sourcePath, "source", "s", "", "path to the source code file")
	debugCmd.Flags().IntVar(&maxCycles, "max-cycles", machine.DefaultMaxCycles, "cycle ceiling before execution is aborted")
	debugCmd.MarkFlagRequired("source")

	rootCmd.AddCommand(compileCmd, runCmd, debugCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadHardwareSpec(path string) (types.HardwareSpec, error) {
	if path == "" {
		return types.DefaultHardwareSpec(), nil
	}
	return types.ReadHardwareSpec(path)
}

func loadProgramSpec(path string) (types.ProgramSpec, error) {
	if path == "" {
		return types.DefaultProgramSpec(), nil
	}
	return types.ReadProgramSpec(path)
}

func loadAndCompile(hardwarePath, sourcePath string) (*compiler.Program, types.HardwareSpec, error) {
	hw, err := loadHardwareSpec(hardwarePath)
	if err != nil {
		return nil, hw, err
	}
	source, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, hw, fmt.Errorf("failed to read file %s: %w", sourcePath, err)
	}
	prog, err := compiler.Compile(string(source), hw)
	if err != nil {
		return nil, hw, renderError(err)
	}
	return prog, hw, nil
}

// renderError swaps a compile or runtime error's plain message for its
// highlighted form, with the offending source lines and caret markers.
func renderError(err error) error {
	if ws, ok := err.(*gdlkerrors.WithSource); ok {
		return fmt.Errorf("%s", ws.Highlighted())
	}
	return err
}

// dumpProgram renders the compiled instruction sequence and symbol table as
// a tree.
func dumpProgram(prog *compiler.Program) string {
	tree := treeprint.New()
	tree.SetValue("program")

	instrs := tree.AddBranch("instructions")
	for i, node := range prog.Instructions() {
		instrs.AddNode(fmt.Sprintf("%d: %s", i, node.Value.String()))
	}

	if symbols := prog.SymbolTable(); len(symbols) > 0 {
		labels := tree.AddBranch("labels")
		for name, target := range symbols {
			labels.AddNode(fmt.Sprintf("%s -> %d", name, target))
		}
	}
	return tree.String()
}

func printMachineState(hw types.HardwareSpec, m *machine.Machine) {
	regs := m.Registers()
	fmt.Println("Registers:")
	for _, ref := range hw.AllRegisterRefs() {
		fmt.Printf("  %s: %d\n", ref, regs[ref])
	}
	stacks := m.Stacks()
	fmt.Println("Stacks:")
	for _, ref := range hw.AllStackRefs() {
		fmt.Printf("  %s: %v\n", ref, stacks[ref])
	}
	fmt.Printf("Input: %v\n", m.Input())
	fmt.Printf("Output: %v\n", m.Output())
	fmt.Printf("Cycles: %d\n", m.CycleCount())
}

const debugHelp = `Commands:
  step [n]  execute the next instruction (or n instructions)
  run       execute until the program terminates
  regs      print all registers
  stacks    print all stacks
  in        print the remaining input
  out       print the output so far
  pc        print the program counter
  list      print the program, marking the next instruction
  reset     start the program over with fresh state
  help      print this help
  exit      quit`

// debugLoop is the interactive stepper. One machine at a time; reset
// allocates a fresh one.
func debugLoop(
	hw types.HardwareSpec,
	prog *compiler.Program,
	spec types.ProgramSpec,
	maxCycles int,
) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "(gdlk) ",
		HistoryFile: filepath.Join(os.TempDir(), "gdlk_debug_history.txt"),
	})
	if err != nil {
		return fmt.Errorf("failed to start readline: %w", err)
	}
	defer rl.Close()

	m := prog.AllocateWithLimit(spec, maxCycles)
	fmt.Printf("Loaded %d instructions. Type 'help' for commands.\n", prog.NumInstructions())

	step := func(n int) {
		for i := 0; i < n; i++ {
			executed, err := m.ExecuteNext()
			if err != nil {
				fmt.Println(renderError(err))
				return
			}
			if !executed {
				reportTermination(m)
				return
			}
		}
		if m.Terminated() {
			reportTermination(m)
		}
	}

	for {
		rl.SetPrompt(fmt.Sprintf("(gdlk pc=%d cyc=%d) ", m.ProgramCounter(), m.CycleCount()))
		line, err := rl.Readline()
		if err != nil {
			return nil
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "step", "s":
			n := 1
			if len(fields) > 1 {
				n, err = strconv.Atoi(fields[1])
				if err != nil || n < 1 {
					fmt.Println("step wants a positive count")
					continue
				}
			}
			step(n)
		case "run", "r":
			if _, err := m.ExecuteAll(); err != nil {
				fmt.Println(renderError(err))
			} else {
				reportTermination(m)
			}
		case "regs":
			regs := m.Registers()
			for _, ref := range hw.AllRegisterRefs() {
				fmt.Printf("%s: %d\n", ref, regs[ref])
			}
		case "stacks":
			stacks := m.Stacks()
			for _, ref := range hw.AllStackRefs() {
				fmt.Printf("%s: %v\n", ref, stacks[ref])
			}
		case "in":
			fmt.Printf("%v\n", m.Input())
		case "out":
			fmt.Printf("%v\n", m.Output())
		case "pc":
			fmt.Printf("%d (cycle %d)\n", m.ProgramCounter(), m.CycleCount())
		case "list":
			for i, node := range prog.Instructions() {
				marker := "  "
				if i == m.ProgramCounter() && !m.Terminated() {
					marker = "->"
				}
				fmt.Printf("%s %3d  %s\n", marker, i, node.Value.String())
			}
		case "reset":
			m = prog.AllocateWithLimit(spec, maxCycles)
			fmt.Println("machine reset")
		case "help", "h":
			fmt.Println(debugHelp)
		case "exit", "quit", "q":
			return nil
		default:
			fmt.Printf("unknown command %q, type 'help' for commands\n", fields[0])
		}
	}
}

func reportTermination(m *machine.Machine) {
	if !m.Terminated() {
		return
	}
	if m.Successful() {
		fmt.Printf("Program completed with SUCCESS after %d cycles\n", m.CycleCount())
	} else {
		fmt.Printf("Program completed with FAILURE (%s) after %d cycles\n",
			m.FailureReason(), m.CycleCount())
	}
}
