// Command yarvjitc compiles a single method's bytecode, described as a
// JSON instruction-sequence document, into its SSA IR module and prints
// (or dumps) the result.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/yalcin/yarvjit/internal/compiler"
	"github.com/yalcin/yarvjit/internal/iseq"
	"github.com/yalcin/yarvjit/internal/jitconfig"
	"github.com/yalcin/yarvjit/internal/jitlog"
)

func main() {
	var (
		inputPath  = flag.String("in", "", "path to a JSON iseq document (required)")
		configPath = flag.String("config", "", "path to an optional jitconfig TOML file")
		funcName   = flag.String("name", "", "override the compiled function's name (defaults to the iseq's own name)")
	)
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "yarvjitc: -in is required")
		os.Exit(2)
	}

	cfg := jitconfig.Default()
	if *configPath != "" {
		loaded, err := jitconfig.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "yarvjitc: loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		jitlog.SetLevel(level)
	}

	data, err := os.ReadFile(*inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "yarvjitc: reading %s: %v\n", *inputPath, err)
		os.Exit(1)
	}

	var seq iseq.ISeq
	if err := seq.UnmarshalJSON(data); err != nil {
		fmt.Fprintf(os.Stderr, "yarvjitc: parsing iseq: %v\n", err)
		os.Exit(1)
	}

	name := *funcName
	if name == "" {
		name = seq.Name
	}

	if cfg.MaxBlocks > 0 {
		// A pathologically large method is rejected before committing
		// compiler resources. The block count is not known before
		// compiling, so iseq size stands in for it: an iseq longer than
		// 8 words per allowed block is rejected.
		if seq.Size() > cfg.MaxBlocks*8 {
			fmt.Fprintf(os.Stderr, "yarvjitc: iseq size %d exceeds the configured max_blocks ceiling\n", seq.Size())
			os.Exit(1)
		}
	}

	module, err := compiler.CompileISeq(&seq, name)
	if err != nil {
		if ce, ok := err.(*compiler.CompileError); ok {
			fmt.Fprintf(os.Stderr, "yarvjitc: compile error: %s\n", ce.Error())
		} else {
			fmt.Fprintf(os.Stderr, "yarvjitc: %v\n", err)
		}
		os.Exit(1)
	}

	if cfg.DumpIR {
		fmt.Fprint(os.Stderr, module.Dump())
	}
	if cfg.DumpCFGDot {
		for _, fn := range module.Functions() {
			fmt.Fprint(os.Stderr, fn.ToDot())
		}
	}

	fmt.Print(module.Dump())
}
