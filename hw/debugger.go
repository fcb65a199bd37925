package hw

// A Debugger controls and monitors a CPU.
type Debugger interface {
	// Trace must be called before each instruction is executed. This is the
	// main entry point for debugging activity, as the debugger can stop the
	// CPU execution by making this function blocking until user interaction
	// finishes.
	Trace(pc uint16)
}
