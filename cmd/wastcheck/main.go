package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/wast/errors"
	"github.com/wippyai/wast/script"
)

func main() {
	var (
		wastFile    = flag.String("wast", "", "Path to WAST script file")
		list        = flag.Bool("list", false, "List every directive with its position")
		validate    = flag.Bool("validate", false, "Check binary module payloads against a real decoder")
		debug       = flag.Bool("debug", false, "Enable debug logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *wastFile == "" && flag.NArg() == 1 {
		*wastFile = flag.Arg(0)
	}
	if *wastFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: wastcheck -wast <file.wast> [-list] [-validate]")
		fmt.Fprintln(os.Stderr, "       wastcheck -wast <file.wast> -i  (interactive mode)")
		os.Exit(1)
	}

	if *debug {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		script.SetLogger(logger)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*wastFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*wastFile, *list, *validate); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(wastFile string, listOnly, validate bool) error {
	data, err := os.ReadFile(wastFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	source := string(data)

	root, err := script.Parse(source)
	if err != nil {
		if perr, ok := err.(*errors.Error); ok {
			line, col := errors.Position(source, perr.Offset)
			return fmt.Errorf("%s:%d:%d: %w", wastFile, line, col, perr)
		}
		return err
	}

	fmt.Printf("Script: %s\n", wastFile)
	fmt.Printf("Directives: %d\n", len(root.Directives))

	counts := map[string]int{}
	for _, d := range root.Directives {
		counts[script.DirectiveName(d)]++
	}
	for _, name := range []string{
		"module", "module quote", "module binary", "register", "invoke",
		"assert_return", "assert_trap", "assert_exhaustion",
		"assert_malformed", "assert_invalid", "assert_unlinkable",
	} {
		if counts[name] > 0 {
			fmt.Printf("  %-17s %d\n", name, counts[name])
		}
	}

	if listOnly {
		fmt.Println()
		for _, d := range root.Directives {
			line, col := errors.Position(source, d.Pos())
			fmt.Printf("%5d:%-3d %s\n", line, col, script.DirectiveName(d))
		}
	}

	if validate {
		fmt.Println()
		return validateBinaries(source, wastFile, root)
	}
	return nil
}

// validateBinaries runs every binary payload through a real wasm
// decoder: standalone binary modules must decode, and the payloads of
// assert_malformed must not.
func validateBinaries(source, wastFile string, root *script.Root) error {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	checked, failed := 0, 0
	report := func(offset int, format string, args ...any) {
		line, col := errors.Position(source, offset)
		fmt.Printf("%s:%d:%d: %s\n", wastFile, line, col, fmt.Sprintf(format, args...))
		failed++
	}

	for _, d := range root.Directives {
		switch d := d.(type) {
		case *script.BinaryModule:
			checked++
			compiled, err := rt.CompileModule(ctx, d.Bytes)
			if err != nil {
				report(d.Pos(), "binary module does not decode: %v", err)
				continue
			}
			compiled.Close(ctx)

		case *script.AssertMalformed:
			if d.Module.Kind != script.Binary {
				continue
			}
			checked++
			compiled, err := rt.CompileModule(ctx, d.Module.Bytes)
			if err == nil {
				compiled.Close(ctx)
				report(d.Pos(), "assert_malformed payload decodes cleanly, expected %q", d.Expected)
			}
		}
	}

	fmt.Printf("Checked %d binary payloads, %d problems\n", checked, failed)
	if failed > 0 {
		return fmt.Errorf("%d binary payloads failed validation", failed)
	}
	return nil
}
