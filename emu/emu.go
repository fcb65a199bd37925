package emu

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"synacor/emu/debugger"
	"synacor/emu/log"
	"synacor/hw"
	"synacor/rom"
)

type Emulator struct {
	CPU *hw.CPU
	cfg Config
}

// Launch powers up a machine with img loaded in memory. The in instruction
// reads from in and out writes to out. It doesn't start execution, call Run or
// Debug for that.
func Launch(img *rom.Image, cfg Config, in io.Reader, out io.Writer) (*Emulator, error) {
	cpu := hw.NewCPU(in, out)
	if err := cpu.LoadProgram(img.Words); err != nil {
		return nil, fmt.Errorf("power up failed: %s", err)
	}

	// CPU execution trace setup.
	if cfg.TraceOut != nil {
		cpu.SetTraceOutput(cfg.TraceOut)
	}

	log.ModEmu.Infof("Program loaded: %d words", len(img.Words))
	return &Emulator{CPU: cpu, cfg: cfg}, nil
}

// Run executes the program until it halts, faults or ctx is done.
func (e *Emulator) Run(ctx context.Context) error {
	return e.report(e.CPU.Run(ctx))
}

// Debug executes the program under the control of a debugger, driven by a
// client connected to the configured unix socket. Execution is stopped on the
// first instruction until the client lets it go. If the client disconnects,
// execution carries on without debugger.
func (e *Emulator) Debug(ctx context.Context) error {
	srv, err := debugger.Listen(e.cfg.Debugger.Socket, e.cfg.Debugger.Prompt)
	if err != nil {
		return fmt.Errorf("debugger: %w", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	debugger.New(ctx, e.CPU, srv.Commands(), srv.Answers(), e.cfg.Debugger.Snapshot)

	g.Go(func() error {
		return srv.Serve(ctx)
	})
	g.Go(func() error {
		// The session ends with the program.
		defer cancel()
		return e.report(e.CPU.Run(ctx))
	})
	return g.Wait()
}

func (e *Emulator) report(err error) error {
	var f *hw.Fault
	switch {
	case err == nil:
		log.ModEmu.InfoZ("Emulation finished").Int("cycles", int(e.CPU.Cycles)).End()
	case errors.Is(err, context.Canceled):
		log.ModEmu.InfoZ("Emulation interrupted").Hex16("pc", e.CPU.PC).End()
		return nil
	case errors.As(err, &f):
		log.ModEmu.ErrorZ("Machine fault").
			Hex16("pc", f.PC).
			Stringer("op", f.Op).
			Hex16("word", f.Word).
			Error("err", f.Err).
			End()
	}
	return err
}
