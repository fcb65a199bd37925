package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"synacor/emu"
	"synacor/emu/log"
	"synacor/hw"
	"synacor/rom"
)

// runMain runs each image in turn, without debugger. Images that can't be
// read are skipped.
func runMain(ctx context.Context, args Run, cfg emu.Config) int {
	// Shared by all images so that no buffered input is lost between them.
	stdin := bufio.NewReader(os.Stdin)

	for _, path := range args.Images {
		img, err := rom.Open(path)
		if err != nil {
			log.ModEmu.WarnZ("Skipping unreadable image").
				String("path", path).
				Error("err", err).
				End()
			continue
		}

		emulator, err := emu.Launch(img, cfg, stdin, os.Stdout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start emulator: %v\n", err)
			return 1
		}
		if err := emulator.Run(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			return 1
		}
		if ctx.Err() != nil {
			return 1
		}
	}
	return 0
}

// debugMain runs an image under the control of a debugger.
func debugMain(ctx context.Context, args Debug, cfg emu.Config) int {
	img, err := rom.Open(args.Image)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading image: %s\n", err)
		return 1
	}

	if args.Socket != "" {
		cfg.Debugger.Socket = args.Socket
	}
	if args.Snapshot != "" {
		cfg.Debugger.Snapshot = args.Snapshot
	}

	emulator, err := emu.Launch(img, cfg, os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start emulator: %v\n", err)
		return 1
	}

	fmt.Fprintf(os.Stderr, "waiting for debugger client on %s\n", cfg.Debugger.Socket)
	if err := emulator.Debug(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", args.Image, err)
		return 1
	}
	return 0
}

func disasmMain(args Disasm) int {
	img, err := rom.Open(args.Image)
	checkf(err, "failed to open image")

	start, err := strconv.ParseUint(strings.TrimPrefix(args.Start, "0x"), 16, 16)
	if err != nil || start >= hw.MemSize {
		fatalf("invalid start address %q", args.Start)
	}

	cpu := hw.NewCPU(nil, nil)
	checkf(cpu.LoadProgram(img.Words), "failed to load image")

	w := bufio.NewWriter(os.Stdout)
	count := args.Count
	if count <= 0 {
		count = hw.MemSize
	}
	checkf(cpu.DisasmRange(w, uint16(start), count), "disassembly failed")
	checkf(w.Flush(), "disassembly failed")
	return 0
}

func configMain(args Config, path string, cfg emu.Config) int {
	if args.Write {
		checkf(emu.SaveConfig(path, cfg), "failed to write configuration")
		fmt.Println("configuration written to", path)
		return 0
	}

	fmt.Printf("# %s\n", path)
	checkf(toml.NewEncoder(os.Stdout).Encode(cfg), "failed to encode configuration")
	return 0
}

func version() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi.Main.Version == "" {
		return "(devel)"
	}
	return bi.Main.Version
}
