package debugger

import (
	"context"

	"synacor/emu/log"
	"synacor/hw"
)

type status int

const (
	stopped status = iota
	running
)

func (s status) String() string {
	if s == running {
		return "running"
	}
	return "stopped"
}

// A Debugger holds the state of a debugging session. It sits between the CPU
// and a client: before each instruction, the CPU calls Trace which checks
// breakpoints (on addresses or opcodes) and watchpoints, then either processes the pending client
// commands (when running) or blocks until the client lets the CPU go (when
// stopped).
//
// Commands and answers are exchanged through 2 channels, the Debugger is the
// only one to touch the CPU.
type Debugger struct {
	cpu    *hw.CPU
	status status

	breakpoints map[uint16]struct{}
	watchpoints map[uint16]struct{}
	opBreaks    map[hw.Opcode]struct{}

	cmds    <-chan string
	answers chan<- string
	done    <-chan struct{}

	// detached is set when the client is gone, the CPU then runs freely.
	detached bool

	snapshotPath string

	prevPC uint16
	prevOp hw.Op
	cstack callStack
}

// New creates a debugger for cpu, stopped on the first instruction. Client
// commands are read from cmds, and each of them gets one answer on answers.
// The debugger stops waiting for commands when ctx is done.
func New(ctx context.Context, cpu *hw.CPU, cmds <-chan string, answers chan<- string, snapshotPath string) *Debugger {
	dbg := &Debugger{
		cpu:          cpu,
		status:       stopped,
		breakpoints:  make(map[uint16]struct{}),
		watchpoints:  make(map[uint16]struct{}),
		opBreaks:     make(map[hw.Opcode]struct{}),
		cmds:         cmds,
		answers:      answers,
		done:         ctx.Done(),
		snapshotPath: snapshotPath,
		prevOp:       hw.Op{Code: hw.OpNoop},
	}
	cpu.SetDebugger(dbg)
	return dbg
}

// Running reports whether the debugger lets the CPU run freely.
func (d *Debugger) Running() bool {
	return d.status == running
}

func (d *Debugger) setStatus(s status) {
	if s != d.status {
		log.ModDbg.DebugZ("status change").
			Stringer("from", d.status).
			Stringer("to", s).
			Hex16("pc", d.cpu.PC).
			End()
	}
	d.status = s
}

// Trace must be called before each instruction is executed. It returns when
// the instruction at pc can be executed.
func (d *Debugger) Trace(pc uint16) {
	d.updateStack(pc)
	defer d.setPrev()

	if d.detached {
		return
	}

	if _, ok := d.breakpoints[pc]; ok {
		log.ModDbg.DebugZ("breakpoint hit").Hex16("pc", pc).End()
		d.setStatus(stopped)
	}

	// Watchpoints match the raw operand words of the next instruction, be it
	// a literal or a register reference.
	op := d.cpu.Decode(pc)
	if _, ok := d.opBreaks[op.Code]; ok {
		log.ModDbg.DebugZ("opcode breakpoint hit").Hex16("pc", pc).Stringer("op", op.Code).End()
		d.setStatus(stopped)
	}
	for _, w := range op.Operands() {
		if _, ok := d.watchpoints[w]; ok {
			log.ModDbg.DebugZ("watchpoint hit").Hex16("pc", pc).Hex16("word", w).End()
			d.setStatus(stopped)
		}
	}

	switch d.status {
	case running:
		d.drain()
	case stopped:
		d.wait()
	}
}

// drain processes all queued commands, without blocking.
func (d *Debugger) drain() {
	for {
		select {
		case cmd, ok := <-d.cmds:
			if !ok {
				d.detach()
				return
			}
			d.process(cmd)
		default:
			return
		}
	}
}

// wait blocks and processes commands until the client either asks for a
// single step or lets the CPU run.
func (d *Debugger) wait() {
	for d.status == stopped {
		select {
		case cmd, ok := <-d.cmds:
			if !ok {
				d.detach()
				return
			}
			if d.process(cmd) {
				return
			}
		case <-d.done:
			d.detach()
			return
		}
	}
}

func (d *Debugger) detach() {
	log.ModDbg.InfoZ("debugger detached").Hex16("pc", d.cpu.PC).End()
	d.detached = true
	d.setStatus(running)
}

// process runs a single command and sends its answer. It reports whether the
// CPU is allowed to execute a single instruction.
func (d *Debugger) process(line string) (step bool) {
	answer, step := d.exec(line)

	log.ModDbg.DebugZ("command processed").
		String("cmd", line).
		String("answer", answer).
		End()

	select {
	case d.answers <- answer:
	case <-d.done:
	}
	return step
}

func (d *Debugger) setPrev() {
	d.prevPC = d.cpu.PC
	d.prevOp = d.cpu.Decode(d.cpu.PC)
}

// updateStack tracks calls and returns, based on the previously executed
// instruction.
func (d *Debugger) updateStack(pc uint16) {
	switch d.prevOp.Code {
	case hw.OpCall:
		d.cstack.push(d.prevPC, pc, d.prevPC+d.prevOp.Len())
	case hw.OpRet:
		d.cstack.pop()
	}
}
