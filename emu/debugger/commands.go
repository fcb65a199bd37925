package debugger

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/go-faster/jx"

	"synacor/emu/log"
	"synacor/hw"
	"synacor/hw/snapshot"
)

type cmdFunc func(d *Debugger, args []string) string

type command struct {
	names []string
	usage string
	help  string
	fn    cmdFunc
}

var commands = []command{
	{[]string{"check", "checkpoint", "save"}, "check", "save machine state", cmdCheck},
	{[]string{"restore"}, "restore", "restore machine state", cmdRestore},
	{[]string{"set"}, "set reg(dec) val(dec)", "set register", cmdSet},
	{[]string{"get"}, "get reg(dec)", "show register", cmdGet},
	{[]string{"stop"}, "stop", "stop execution", cmdStop},
	{[]string{"c", "continue"}, "c", "continue execution", cmdContinue},
	{[]string{"b", "break", "breakpoint"}, "b addr(hex)", "add breakpoint", cmdBreak},
	{[]string{"w", "watch", "watchpoint"}, "w val(hex)", "add watchpoint on operand value", cmdWatch},
	{[]string{"bo", "break-op"}, "bo mnemonic", "add breakpoint on every instruction with that opcode", cmdBreakOp},
	{[]string{"delete"}, "delete b|w|o addr(hex)|op", "remove breakpoint or watchpoint", cmdDelete},
	{[]string{"list"}, "list", "list breakpoints and watchpoints", cmdList},
	{[]string{"dis", "disassemble"}, "dis start(hex) length(dec)", "disassemble", cmdDisasm},
	{[]string{"disall", "disassemble-all"}, "disall", "disassemble whole memory", cmdDisasmAll},
	{[]string{"regs"}, "regs", "show all registers", cmdRegs},
	{[]string{"stack"}, "stack", "show stack, bottom to top", cmdStack},
	{[]string{"mem"}, "mem addr(hex) length(dec)", "dump memory", cmdMem},
	{[]string{"bt"}, "bt", "show call stack", cmdBacktrace},
	{[]string{"info"}, "info", "show machine state as JSON", cmdInfo},
	{[]string{"help"}, "help", "show this help", cmdHelp},
}

var handlers = func() map[string]cmdFunc {
	m := make(map[string]cmdFunc)
	for _, c := range commands {
		for _, name := range c.names {
			m[name] = c.fn
		}
	}
	return m
}()

// exec runs the command line and returns its answer. It reports whether the
// command is the single step command.
func (d *Debugger) exec(line string) (answer string, step bool) {
	tokens := strings.Split(line, " ")
	if tokens[0] == "" {
		return d.cpu.Disasm(d.cpu.PC).String(), true
	}

	fn, ok := handlers[tokens[0]]
	if !ok {
		return fmt.Sprintf("Unknown command! %q", tokens), false
	}
	return fn(d, tokens[1:]), false
}

func invalid(name string, args []string, reason string) string {
	tokens := append([]string{name}, args...)
	return fmt.Sprintf("Invalid %s command! %q: %s", name, tokens, reason)
}

func parseHex(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid hex value %q", s)
	}
	return uint16(v), nil
}

func parseAddr(s string) (uint16, error) {
	addr, err := parseHex(s)
	if err != nil {
		return 0, err
	}
	if addr >= hw.MemSize {
		return 0, fmt.Errorf("address %#x out of memory", addr)
	}
	return addr, nil
}

func parseReg(s string) (int, error) {
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid register %q", s)
	}
	if idx < 0 || idx >= hw.NumRegs {
		return 0, fmt.Errorf("invalid register %d", idx)
	}
	return idx, nil
}

// parseCount parses a word count, capped to the memory size.
func parseCount(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid length %q", s)
	}
	return min(n, hw.MemSize), nil
}

func parseOpcode(s string) (hw.Opcode, error) {
	op, ok := hw.OpcodeByName(s)
	if !ok {
		return 0, fmt.Errorf("unknown mnemonic %q", s)
	}
	return op, nil
}

func cmdCheck(d *Debugger, args []string) string {
	if len(args) != 0 {
		return invalid("check", args, "usage: check")
	}
	buf := d.cpu.SaveSnapshot()
	if err := snapshot.WriteFile(d.snapshotPath, buf); err != nil {
		return fmt.Sprintf("cannot write state: %s", err)
	}
	log.ModDbg.Debugf("state saved to %s at pc %#04x", d.snapshotPath, d.cpu.PC)
	return fmt.Sprintf("dumped to %s (%d bytes)", d.snapshotPath, len(buf))
}

func cmdRestore(d *Debugger, args []string) string {
	if len(args) != 0 {
		return invalid("restore", args, "usage: restore")
	}
	buf, err := snapshot.ReadFile(d.snapshotPath)
	if err != nil {
		return "cannot read state"
	}
	if err := d.cpu.LoadSnapshot(buf); err != nil {
		return fmt.Sprintf("invalid state: %s", err)
	}
	d.cstack.reset()
	log.ModDbg.InfoZ("state restored").
		String("path", d.snapshotPath).
		Hex16("pc", d.cpu.PC).
		Words("stack", d.cpu.Stack).
		End()
	return fmt.Sprintf("restored %s (%d bytes)", d.snapshotPath, len(buf))
}

func cmdSet(d *Debugger, args []string) string {
	if len(args) != 2 {
		return invalid("set", args, "usage: set reg(dec) val(dec)")
	}
	idx, err := parseReg(args[0])
	if err != nil {
		return invalid("set", args, err.Error())
	}
	val, err := strconv.ParseUint(args[1], 10, 16)
	if err != nil || val > hw.MaxWord {
		return invalid("set", args, fmt.Sprintf("invalid value %q", args[1]))
	}
	if err := d.cpu.SetReg(idx, uint16(val)); err != nil {
		return invalid("set", args, err.Error())
	}
	return fmt.Sprintf("Set reg %d to %#x", idx, val)
}

func cmdGet(d *Debugger, args []string) string {
	if len(args) != 1 {
		return invalid("get", args, "usage: get reg(dec)")
	}
	idx, err := parseReg(args[0])
	if err != nil {
		return invalid("get", args, err.Error())
	}
	val, err := d.cpu.Reg(idx)
	if err != nil {
		return invalid("get", args, err.Error())
	}
	return fmt.Sprintf("reg[%d]=%#x", idx, val)
}

func cmdStop(d *Debugger, args []string) string {
	d.setStatus(stopped)
	return "stopped"
}

func cmdContinue(d *Debugger, args []string) string {
	d.setStatus(running)
	return "continued"
}

func cmdBreak(d *Debugger, args []string) string {
	if len(args) != 1 {
		return invalid("b", args, "usage: b addr(hex)")
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return invalid("b", args, err.Error())
	}
	d.breakpoints[addr] = struct{}{}
	return fmt.Sprintf("set breakpoint at %#x", addr)
}

func cmdWatch(d *Debugger, args []string) string {
	if len(args) != 1 {
		return invalid("w", args, "usage: w val(hex)")
	}
	val, err := parseHex(args[0])
	if err != nil {
		return invalid("w", args, err.Error())
	}
	d.watchpoints[val] = struct{}{}
	return fmt.Sprintf("set watchpoint for %#x", val)
}

func cmdBreakOp(d *Debugger, args []string) string {
	if len(args) != 1 {
		return invalid("bo", args, "usage: bo mnemonic")
	}
	op, err := parseOpcode(args[0])
	if err != nil {
		return invalid("bo", args, err.Error())
	}
	d.opBreaks[op] = struct{}{}
	return fmt.Sprintf("set breakpoint on %s", op)
}

func cmdDelete(d *Debugger, args []string) string {
	const usage = "usage: delete b|w|o addr(hex)|op"
	if len(args) != 2 {
		return invalid("delete", args, usage)
	}

	if args[0] == "o" {
		op, err := parseOpcode(args[1])
		if err != nil {
			return invalid("delete", args, err.Error())
		}
		if _, ok := d.opBreaks[op]; !ok {
			return fmt.Sprintf("no breakpoint on %s", op)
		}
		delete(d.opBreaks, op)
		return fmt.Sprintf("deleted breakpoint on %s", op)
	}

	var (
		set  map[uint16]struct{}
		kind string
	)
	switch args[0] {
	case "b":
		set, kind = d.breakpoints, "breakpoint at"
	case "w":
		set, kind = d.watchpoints, "watchpoint for"
	default:
		return invalid("delete", args, usage)
	}

	val, err := parseHex(args[1])
	if err != nil {
		return invalid("delete", args, err.Error())
	}
	if _, ok := set[val]; !ok {
		return fmt.Sprintf("no %s %#x", kind, val)
	}
	delete(set, val)
	return fmt.Sprintf("deleted %s %#x", kind, val)
}

func sortedKeys(m map[uint16]struct{}) []uint16 {
	return slices.Sorted(maps.Keys(m))
}

func hexList(vals []uint16) string {
	strs := make([]string, len(vals))
	for i, v := range vals {
		strs[i] = fmt.Sprintf("%#x", v)
	}
	return strings.Join(strs, " ")
}

func opNames(m map[hw.Opcode]struct{}) []string {
	ops := slices.Sorted(maps.Keys(m))
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.String()
	}
	return names
}

func cmdList(d *Debugger, args []string) string {
	return fmt.Sprintf("breakpoints: [%s]\nwatchpoints: [%s]\nopcodes: [%s]",
		hexList(sortedKeys(d.breakpoints)),
		hexList(sortedKeys(d.watchpoints)),
		strings.Join(opNames(d.opBreaks), " "))
}

func cmdDisasm(d *Debugger, args []string) string {
	const usage = "usage: dis start(hex) length(dec)"
	if len(args) != 2 {
		return invalid("dis", args, usage)
	}
	start, err := parseAddr(args[0])
	if err != nil {
		return invalid("dis", args, err.Error())
	}
	count, err := parseCount(args[1])
	if err != nil {
		return invalid("dis", args, err.Error())
	}

	var sb strings.Builder
	d.cpu.DisasmRange(&sb, start, count)
	return strings.TrimSuffix(sb.String(), "\n")
}

func cmdDisasmAll(d *Debugger, args []string) string {
	if len(args) != 0 {
		return invalid("disall", args, "usage: disall")
	}

	var sb strings.Builder
	d.cpu.DisasmAll(&sb)
	return strings.TrimSuffix(sb.String(), "\n")
}

func cmdRegs(d *Debugger, args []string) string {
	strs := make([]string, hw.NumRegs)
	for i, r := range d.cpu.Regs {
		strs[i] = fmt.Sprintf("r%d=%#x", i, r)
	}
	return strings.Join(strs, " ")
}

func cmdStack(d *Debugger, args []string) string {
	return fmt.Sprintf("stack[%d]: [%s]", len(d.cpu.Stack), hexList(d.cpu.Stack))
}

func cmdMem(d *Debugger, args []string) string {
	const usage = "usage: mem addr(hex) length(dec)"
	if len(args) != 2 {
		return invalid("mem", args, usage)
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return invalid("mem", args, err.Error())
	}
	count, err := parseCount(args[1])
	if err != nil {
		return invalid("mem", args, err.Error())
	}

	const perLine = 8
	end := min(int(addr)+count, hw.MemSize)

	var sb strings.Builder
	for a := int(addr); a < end; a++ {
		switch {
		case a == int(addr):
			fmt.Fprintf(&sb, "0x%04x:", a)
		case (a-int(addr))%perLine == 0:
			fmt.Fprintf(&sb, "\n0x%04x:", a)
		}
		fmt.Fprintf(&sb, " %04x", d.cpu.Mem[a])
	}
	return sb.String()
}

func cmdBacktrace(d *Debugger, args []string) string {
	frames := d.cstack.build(d.cpu.PC)
	lines := make([]string, len(frames))
	for i, f := range frames {
		lines[i] = fmt.Sprintf("#%d %s in %s", i, f[1], f[0])
		if f[2] != "" {
			lines[i] += ", returns to " + f[2]
		}
	}
	return strings.Join(lines, "\n")
}

func cmdInfo(d *Debugger, args []string) string {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("pc")
	e.UInt16(d.cpu.PC)
	e.FieldStart("status")
	e.Str(d.status.String())
	e.FieldStart("halted")
	e.Bool(d.cpu.Halted())
	e.FieldStart("regs")
	e.ArrStart()
	for _, r := range d.cpu.Regs {
		e.UInt16(r)
	}
	e.ArrEnd()
	e.FieldStart("stack_depth")
	e.Int(len(d.cpu.Stack))
	e.FieldStart("breakpoints")
	encodeWords(&e, sortedKeys(d.breakpoints))
	e.FieldStart("watchpoints")
	encodeWords(&e, sortedKeys(d.watchpoints))
	e.FieldStart("opcode_breaks")
	e.ArrStart()
	for _, name := range opNames(d.opBreaks) {
		e.Str(name)
	}
	e.ArrEnd()
	e.ObjEnd()
	return e.String()
}

func encodeWords(e *jx.Encoder, ws []uint16) {
	e.ArrStart()
	for _, w := range ws {
		e.UInt16(w)
	}
	e.ArrEnd()
}

var helpText string

func init() {
	var sb strings.Builder
	sb.WriteString("(empty line)                  show next instruction and step")
	for _, c := range commands {
		fmt.Fprintf(&sb, "\n%-30s%s", c.usage, c.help)
		if len(c.names) > 1 {
			fmt.Fprintf(&sb, " (%s)", strings.Join(c.names[1:], ", "))
		}
	}
	helpText = sb.String()
}

func cmdHelp(d *Debugger, args []string) string {
	return helpText
}
