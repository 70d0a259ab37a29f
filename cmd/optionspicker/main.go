// Options Picker spins a weighted wheel of options in the terminal.
// Usage: optionspicker [--version] [--plain] [--script <file>] [--seed <n>]
//
//	[--token <token|url>] [--preset <path>] [--import <file>]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"go.uber.org/zap"

	"github.com/nathoo/optionspicker/cli"
	"github.com/nathoo/optionspicker/engine"
	"github.com/nathoo/optionspicker/engine/textfile"
	"github.com/nathoo/optionspicker/internal/conf"
	"github.com/nathoo/optionspicker/internal/log"
	"github.com/nathoo/optionspicker/loader"
	"github.com/nathoo/optionspicker/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: optionspicker [--version] [--plain] [--script <file>] [--seed <n>] [--token <token|url>] [--preset <path>] [--import <file>]\n"

// sources names where the initial options come from, highest priority first.
type sources struct {
	token      string
	preset     string
	importFile string
}

func main() {
	plain := false
	var scriptFile string
	var src sources
	var seed int64

	args := os.Args[1:]
	value := func(i int, flag string) string {
		if i+1 >= len(args) {
			fmt.Fprintf(os.Stderr, "%s requires a value\n%s", flag, usage)
			os.Exit(1)
		}
		return args[i+1]
	}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("optionspicker %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			plain = true
		case "--script":
			scriptFile = value(i, args[i])
			i++
		case "--token":
			src.token = value(i, args[i])
			i++
		case "--preset":
			src.preset = value(i, args[i])
			i++
		case "--import":
			src.importFile = value(i, args[i])
			i++
		case "--seed":
			n, err := strconv.ParseInt(value(i, args[i]), 10, 64)
			if err != nil {
				fmt.Fprintf(os.Stderr, "--seed must be an integer: %v\n", err)
				os.Exit(1)
			}
			seed = n
			i++
		case "-h", "--help":
			fmt.Print(usage)
			return
		default:
			fmt.Fprintf(os.Stderr, "Unknown argument %q\n%s", args[i], usage)
			os.Exit(1)
		}
	}

	cfg, err := conf.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading configuration: %v\n", err)
		os.Exit(1)
	}
	if seed != 0 {
		cfg.Seed = seed
	}
	if src.token == "" {
		src.token = cfg.Token
	}

	useTUI := scriptFile == "" && !plain && isTerminal()

	// The TUI owns the screen, so it only logs to a file.
	level := cfg.LogLevel
	if useTUI && cfg.LogFile == "" {
		level = "off"
	}
	undo, err := log.Setup(level, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		os.Exit(1)
	}
	defer undo()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eng := engine.New(engine.Config{
		Seed:   cfg.Seed,
		Delays: engine.Delays{Start: cfg.StartDelay, Result: cfg.ResultDelay},
	})
	if err := seedOptions(ctx, eng, src); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading options: %v\n", err)
		os.Exit(1)
	}
	log.Info(ctx, "engine ready",
		zap.Int64("seed", eng.RNG.Seed()),
		zap.Int("options", eng.Len()),
		zap.Duration("start_delay", cfg.StartDelay),
		zap.Duration("result_delay", cfg.ResultDelay))

	newCLI := func() *cli.CLI {
		c := cli.New(eng)
		c.BaseURL = cfg.BaseURL
		c.ExportDir = cfg.ExportDir
		return c
	}

	// Script mode: open file, force plain, echo commands.
	if scriptFile != "" {
		f, err := os.Open(scriptFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening script: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		c := newCLI()
		c.In = f
		c.EchoInput = true
		c.Run(ctx)
		return
	}

	if !useTUI {
		newCLI().Run(ctx)
		return
	}

	if err := tui.Run(ctx, newCLI().Commands); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// seedOptions fills the wheel from the first source given. With none, the
// default options are loaded.
func seedOptions(ctx context.Context, eng *engine.Engine, src sources) error {
	switch {
	case src.token != "":
		if !eng.LoadLink(ctx, src.token) {
			log.Warn(ctx, "initial token unusable, using defaults")
		}
		return nil

	case src.preset != "":
		preset, err := loader.Load(src.preset)
		if err != nil {
			return err
		}
		return eng.ReplaceOptions(preset.Options)

	case src.importFile != "":
		data, err := os.ReadFile(src.importFile)
		if err != nil {
			return err
		}
		opts, err := textfile.Import(string(data))
		if err != nil {
			return fmt.Errorf("importing %s: %w", src.importFile, err)
		}
		return eng.ReplaceOptions(opts)

	default:
		eng.LoadToken(ctx, "")
		return nil
	}
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
