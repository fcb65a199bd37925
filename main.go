package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"

	"synacor/emu"
)

func main() {
	args := parseArgs(os.Args[1:])

	cfgPath := args.CfgPath
	if cfgPath == "" {
		cfgPath = emu.DefaultConfigPath()
	}
	cfg := emu.LoadConfigOrDefault(cfgPath)

	// The --trace flag takes precedence over the configured trace output.
	if args.Trace == nil && cfg.Machine.Trace != "" {
		args.Trace = &outfile{}
		checkf(args.Trace.open(cfg.Machine.Trace), "failed to open trace output")
	}
	if args.Trace != nil {
		cfg.TraceOut = args.Trace
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)

	var code int
	switch args.mode {
	case runMode:
		code = runMain(ctx, args.Run, cfg)
	case debugMode:
		code = debugMain(ctx, args.Debug, cfg)
	case disasmMode:
		code = disasmMain(args.Disasm)
	case configMode:
		code = configMain(args.Config, cfgPath, cfg)
	case versionMode:
		fmt.Println("synacor", version())
	}

	stop()
	if args.Trace != nil {
		args.Trace.Close()
	}
	os.Exit(code)
}

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
