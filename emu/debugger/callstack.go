package debugger

import (
	"fmt"
	"slices"
)

type stackFrame struct {
	src    uint16 // address of the call instruction
	target uint16 // called address
	ret    uint16 // return address
}

type callStack []stackFrame

func (cs *callStack) push(src, dst, ret uint16) {
	*cs = append(*cs, stackFrame{
		src:    src,
		target: dst,
		ret:    ret,
	})
}

func (cs *callStack) len() int {
	return len(*cs)
}

func (cs *callStack) pop() {
	if cs.len() == 0 {
		return
	}
	*cs = (*cs)[:cs.len()-1]
}

func (cs *callStack) reset() {
	*cs = (*cs)[:0]
}

// frameInfo holds the entry point of a frame, the current location in it and
// the address it returns to (empty for the bottom frame).
type frameInfo [3]string

// build returns the frames, innermost first.
func (cs *callStack) build(pc uint16) []frameInfo {
	nfos := make([]frameInfo, 0, cs.len()+1)
	var curf *stackFrame
	for i, f := range *cs {
		if i > 0 {
			curf = &((*cs)[i-1])
		}
		nfos = slices.Insert(nfos, 0, frameInfo{
			cs.entryPoint(curf),
			fmt.Sprintf("0x%04x", f.src),
			cs.returnAddr(curf),
		})
	}

	// Current frame
	curf = nil
	if cs.len() > 0 {
		curf = &((*cs)[cs.len()-1])
	}

	return slices.Insert(nfos, 0, frameInfo{
		cs.entryPoint(curf),
		fmt.Sprintf("0x%04x", pc),
		cs.returnAddr(curf),
	})
}

func (callStack) entryPoint(f *stackFrame) string {
	if f == nil {
		return "[bottom of stack]"
	}
	return fmt.Sprintf("0x%04x", f.target)
}

func (callStack) returnAddr(f *stackFrame) string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("0x%04x", f.ret)
}
