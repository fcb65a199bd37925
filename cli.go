package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"synacor/emu/log"
)

type mode byte

const (
	runMode     mode = iota // Run program images
	debugMode               // Run a program image under debugger control
	disasmMode              // Disassemble a program image
	configMode              // Show or write configuration
	versionMode             // Show version
)

type (
	CLI struct {
		Run     Run     `cmd:"" help:"Run program images, one after the other."`
		Debug   Debug   `cmd:"" help:"Run a program image under the control of a debugger."`
		Disasm  Disasm  `cmd:"" help:"Disassemble a program image."`
		Config  Config  `cmd:"" help:"Show the configuration."`
		Version Version `cmd:"" help:"Show version."`

		Log     logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`
		CfgPath string     `name:"config-file" help:"${config_help}" type:"path" placeholder:"FILE"`
		Trace   *outfile   `name:"trace" help:"Write CPU trace log." placeholder:"FILE|stdout|stderr"`

		mode mode
	}

	Run struct {
		Images []string `arg:"" name:"/path/to/image" help:"Program images to run." required:"true"`
	}

	Debug struct {
		Image    string `arg:"" name:"/path/to/image" help:"Program image to debug." required:"true"`
		Socket   string `name:"socket" help:"Debugger socket path (overrides config)." type:"path"`
		Snapshot string `name:"snapshot" help:"Snapshot file for check/restore (overrides config)." type:"path"`
	}

	Disasm struct {
		Image string `arg:"" name:"/path/to/image" help:"Program image to disassemble." required:"true" type:"existingfile"`
		Start string `name:"start" help:"Start address (hex)." default:"0"`
		Count int    `name:"count" help:"Number of instructions, all memory if 0." default:"0"`
	}

	Config struct {
		Write bool `name:"write" help:"Write the configuration to the config file."`
	}

	Version struct{}
)

var vars = kong.Vars{
	"log_help":    "Enable logging for specified modules.",
	"config_help": "Configuration file (default: user config directory).",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("synacor"),
		kong.Description("16-bit virtual machine with a remote debugger."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	switch ctx.Command() {
	case "debug </path/to/image>":
		cfg.mode = debugMode
	case "disasm </path/to/image>":
		cfg.mode = disasmMode
	case "config":
		cfg.mode = configMode
	case "version":
		cfg.mode = versionMode
	default:
		cfg.mode = runMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	if strings.HasPrefix(ctx.Command(), "run") || strings.HasPrefix(ctx.Command(), "debug") {
		loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
		var strs []string
		for _, m := range log.ModuleNames() {
			strs = append(strs, "    - "+m)
		}

		fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	}

	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	nolog := false
	allLogs := false

	tok := ctx.Scan.Pop()
	for _, v := range strings.Split(tok.Value.(string), ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			lm |= logModMask(mod.Mask())
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if lm != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		return nil
	}

	if allLogs {
		lm = logModMask(log.ModuleMaskAll)
	}

	log.EnableDebugModules(log.ModuleMask(lm))
	return nil
}

type outfile struct {
	w     io.Writer
	name  string
	close func() error
}

// Decode decodes FILE|stdout|stderr into an io.WriteCloser
// that writes to that file.
//
// Implements kong.MapperValue interface.
func (f *outfile) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	return f.open(tok.Value.(string))
}

func (f *outfile) open(name string) error {
	f.name = name
	f.close = func() error { return nil }

	switch f.name {
	case "stdout":
		f.w = os.Stdout
	case "stderr":
		f.w = os.Stderr
	default:
		fd, err := os.Create(f.name)
		if err != nil {
			return err
		}
		f.w = fd
		f.close = fd.Close
	}
	return nil
}

func (f *outfile) String() string              { return f.name }
func (f *outfile) Write(p []byte) (int, error) { return f.w.Write(p) }
func (f *outfile) Close() error                { return f.close() }
