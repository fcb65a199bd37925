// Package log is a module-aware logging facade over logrus.
//
// Warnings and errors are always emitted. Info and debug entries are only
// emitted for the modules enabled with EnableDebugModules.
package log

import (
	"fmt"

	"gopkg.in/Sirupsen/logrus.v0"
)

type ModuleMask uint64
type Module uint

const ModuleMaskAll ModuleMask = 0xFFFFFFFFFFFFFFFF

// Standard modules. Packages can register more with NewModule.
const (
	ModEmu Module = iota + 1 // emulator lifecycle
	ModCPU                   // instruction execution
	ModMem                   // images and snapshots
	ModIO                    // in and out instructions
	ModDbg                   // debugger and its transport
)

var (
	modNames     = []string{"<error>", "emu", "cpu", "mem", "io", "dbg"}
	modDebugMask ModuleMask
)

// NewModule registers a new module. Up to 64 modules can be registered.
func NewModule(name string) Module {
	modNames = append(modNames, name)
	return Module(len(modNames) - 1)
}

// ModuleByName returns the registered module with the given name.
func ModuleByName(name string) (Module, bool) {
	for idx := 1; idx < len(modNames); idx++ {
		if modNames[idx] == name {
			return Module(idx), true
		}
	}
	return Module(0xFFFFFFFF), false
}

// ModuleNames returns the names of all registered modules.
func ModuleNames() []string {
	return append([]string(nil), modNames[1:]...)
}

func (mod Module) String() string {
	if int(mod) < len(modNames) {
		return modNames[mod]
	}
	return modNames[0]
}

func EnableDebugModules(mask ModuleMask)  { modDebugMask |= mask }
func DisableDebugModules(mask ModuleMask) { modDebugMask &^= mask }

func (mod Module) Mask() ModuleMask {
	return 1 << ModuleMask(mod)
}

// Enabled reports whether entries of the given level are emitted for mod.
func (mod Module) Enabled(level Level) bool {
	if disabled {
		return false
	}
	return level <= WarnLevel || modDebugMask&mod.Mask() != 0
}

// printf-like family

func (mod Module) logf(lvl Level, format string, args ...any) {
	if !mod.Enabled(lvl) {
		return
	}
	entry := logrus.StandardLogger().WithField("_mod", mod.String())
	emit(entry, lvl, fmt.Sprintf(format, args...))
}

func (mod Module) Debugf(format string, args ...any) { mod.logf(DebugLevel, format, args...) }
func (mod Module) Infof(format string, args ...any)  { mod.logf(InfoLevel, format, args...) }
func (mod Module) Warnf(format string, args ...any)  { mod.logf(WarnLevel, format, args...) }
func (mod Module) Errorf(format string, args ...any) { mod.logf(ErrorLevel, format, args...) }

// Builder-style functions

func (mod Module) logz(lvl Level, msg string) *EntryZ {
	if !mod.Enabled(lvl) {
		return nil
	}
	e := newEntryZ()
	e.lvl = lvl
	e.msg = msg
	e.mod = mod
	return e
}

func (mod Module) DebugZ(msg string) *EntryZ { return mod.logz(DebugLevel, msg) }
func (mod Module) InfoZ(msg string) *EntryZ  { return mod.logz(InfoLevel, msg) }
func (mod Module) WarnZ(msg string) *EntryZ  { return mod.logz(WarnLevel, msg) }
func (mod Module) ErrorZ(msg string) *EntryZ { return mod.logz(ErrorLevel, msg) }
func (mod Module) FatalZ(msg string) *EntryZ { return mod.logz(FatalLevel, msg) }
