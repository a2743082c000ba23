package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nolang-vm/nolang/asm"
	"github.com/nolang-vm/nolang/config"
	"github.com/nolang-vm/nolang/debug"
	"github.com/nolang-vm/nolang/format"
	"github.com/nolang-vm/nolang/verifier"
	"github.com/nolang-vm/nolang/vm"
	"github.com/nolang-vm/nolang/witness"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "assemble":
		err = cmdAssemble(args)
	case "disassemble":
		err = cmdDisassemble(args)
	case "verify":
		err = cmdVerify(args)
	case "run":
		err = cmdRun(args)
	case "hash":
		err = cmdHash(args)
	case "witness":
		err = cmdWitness(args)
	case "debug":
		err = cmdDebug(args)
	case "-version", "--version", "version":
		fmt.Printf("nolang %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		return
	case "-help", "--help", "help":
		printHelp()
		return
	default:
		fmt.Fprintf(os.Stderr, "nolang: unknown command %q\n\n", cmd)
		printHelp()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "nolang %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Printf(`NoLang toolchain %s

Usage: nolang <command> [arguments]

Commands:
  assemble IN.nol -o OUT.nolb   Assemble text source into a binary program
  disassemble IN.nolb           Render a binary program as canonical text
  verify IN.nolb                 Run all eight verification passes, report faults
  run IN.nolb                    Verify then execute a program's entry point
  hash IN.nolb                   Recompute each function's HASH fields
  witness IN.nolb CASES.json     Run a function against recorded (input, expected) pairs
  debug IN.nolb                  Step a program in the interactive TUI debugger

Flags (per-command, run "nolang <command> -help" for details):
  -config PATH   verify, run, debug: load runtime configuration from PATH instead of the default location

Examples:
  nolang assemble factorial.nol -o factorial.nolb
  nolang verify factorial.nolb
  nolang run factorial.nolb
  nolang witness factorial.nolb factorial_cases.json
`, Version)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func readProgram(path string) (format.Program, error) {
	b, err := os.ReadFile(path) // #nosec G304 -- user-specified program path
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	prog, decErr := format.DecodeProgram(b)
	if decErr != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, decErr)
	}
	return prog, nil
}

// reportVerifyErrors prints every fault from Verify in the order Verify
// returned them (pass by pass, not sorted by instruction index), the
// same "collect everything, never stop at first" discipline the
// assembler's ErrorList uses.
func reportVerifyErrors(errs []*verifier.Error) {
	for _, e := range errs {
		fmt.Fprintln(os.Stderr, e.Error())
	}
}

func cmdAssemble(args []string) error {
	fs := flag.NewFlagSet("assemble", flag.ExitOnError)
	out := fs.String("o", "", "output binary path (default: input path with .nolb extension)")
	lint := fs.Bool("lint", false, "run lint checks on the assembled program before writing")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: nolang assemble IN.nol -o OUT.nolb")
	}
	in := fs.Arg(0)

	src, err := os.ReadFile(in) // #nosec G304 -- user-specified source path
	if err != nil {
		return fmt.Errorf("reading %s: %w", in, err)
	}

	prog, errs := asm.Assemble(string(src))
	if errs.HasErrors() {
		return errs
	}

	if *lint {
		for _, finding := range asm.Lint(prog) {
			fmt.Fprintln(os.Stderr, finding.Error())
		}
	}

	outPath := *out
	if outPath == "" {
		outPath = withExtension(in, ".nolb")
	}
	if err := os.WriteFile(outPath, format.EncodeProgram(prog), 0o644); err != nil { // #nosec G306 -- program binaries are not secret
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	fmt.Printf("wrote %s (%d instructions)\n", outPath, len(prog))
	return nil
}

func cmdDisassemble(args []string) error {
	fs := flag.NewFlagSet("disassemble", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: nolang disassemble IN.nolb")
	}
	prog, err := readProgram(fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Print(asm.Disassemble(prog))
	return nil
}

func cmdVerify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	cfgPath := fs.String("config", "", "configuration file path")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: nolang verify IN.nolb")
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	prog, err := readProgram(fs.Arg(0))
	if err != nil {
		return err
	}

	errs := verifier.VerifyWithConfig(prog, cfg)
	if len(errs) == 0 {
		fmt.Println("ok")
		return nil
	}
	reportVerifyErrors(errs)
	return fmt.Errorf("%d verification fault(s)", len(errs))
}

func cmdRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	skipVerify := fs.Bool("skip-verify", false, "execute without verifying first (unsafe)")
	cfgPath := fs.String("config", "", "configuration file path")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: nolang run IN.nolb")
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	prog, err := readProgram(fs.Arg(0))
	if err != nil {
		return err
	}

	if !*skipVerify {
		if errs := verifier.VerifyWithConfig(prog, cfg); len(errs) > 0 {
			reportVerifyErrors(errs)
			return fmt.Errorf("refusing to run: %d verification fault(s)", len(errs))
		}
	}

	result, vmErr := vm.ExecuteWithConfig(prog, cfg)
	if vmErr != nil {
		return fmt.Errorf("fault: %v", vmErr)
	}
	fmt.Println(result.String())
	return nil
}

func cmdHash(args []string) error {
	fs := flag.NewFlagSet("hash", flag.ExitOnError)
	write := fs.Bool("w", false, "rewrite the binary in place with corrected HASH fields")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: nolang hash IN.nolb")
	}
	path := fs.Arg(0)
	prog, err := readProgram(path)
	if err != nil {
		return err
	}

	funcs := verifier.ScanFunctionBlocks(prog)
	for _, fb := range funcs {
		if fb.HashAt < 0 || fb.Malformed {
			fmt.Printf("function %d: no HASH instruction, skipped\n", fb.Index)
			continue
		}
		// FUNC through the instruction preceding HASH, the same range
		// the verifier's hash pass digests.
		block := prog[fb.Index:fb.HashAt]
		digest := verifier.BlockHash(block)
		arg1, arg2, arg3 := verifier.EncodeHash(digest)
		fmt.Printf("function %d: HASH %d %d %d (digest %#016x)\n", fb.Index, arg1, arg2, arg3, digest)
		if *write {
			prog[fb.HashAt].Arg1, prog[fb.HashAt].Arg2, prog[fb.HashAt].Arg3 = arg1, arg2, arg3
		}
	}

	if *write {
		if err := os.WriteFile(path, format.EncodeProgram(prog), 0o644); err != nil { // #nosec G306
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Printf("wrote corrected hashes to %s\n", path)
	}
	return nil
}

func cmdWitness(args []string) error {
	fs := flag.NewFlagSet("witness", flag.ExitOnError)
	funcIdx := fs.Int("func", 0, "binding index of the function to exercise")
	_ = fs.Parse(args)
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: nolang witness IN.nolb CASES.json")
	}

	prog, err := readProgram(fs.Arg(0))
	if err != nil {
		return err
	}

	f, err := os.Open(fs.Arg(1)) // #nosec G304 -- user-specified witness file
	if err != nil {
		return fmt.Errorf("opening %s: %w", fs.Arg(1), err)
	}
	defer f.Close()

	records, err := witness.ReadRecords(f)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", fs.Arg(1), err)
	}

	results := witness.Run(prog, *funcIdx, records)
	for _, r := range results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		if r.Err != nil {
			fmt.Printf("[%s] case %d: fault: %v\n", status, r.Index, r.Err)
		} else {
			fmt.Printf("[%s] case %d: got %s, want %s\n", status, r.Index, r.Got.String(), r.Record.Expected.String())
		}
	}

	passed, total := witness.Summary(results)
	fmt.Printf("%d/%d passed\n", passed, total)
	if passed != total {
		return fmt.Errorf("%d case(s) failed", total-passed)
	}
	return nil
}

func cmdDebug(args []string) error {
	fs := flag.NewFlagSet("debug", flag.ExitOnError)
	cfgPath := fs.String("config", "", "configuration file path")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: nolang debug IN.nolb")
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	prog, err := readProgram(fs.Arg(0))
	if err != nil {
		return err
	}

	if errs := verifier.VerifyWithConfig(prog, cfg); len(errs) > 0 {
		reportVerifyErrors(errs)
		return fmt.Errorf("refusing to debug: %d verification fault(s)", len(errs))
	}

	return debug.Run(prog, cfg)
}

func withExtension(path, ext string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[:i] + ext
		}
	}
	return path + ext
}
