package log

import (
	"fmt"
	"sync"

	"gopkg.in/Sirupsen/logrus.v0"
)

const maxFields = 8

// EntryZ is a log entry built field by field, then emitted with End. A nil
// *EntryZ is valid and discards everything, so disabled log statements cost
// a single nil check per field.
type EntryZ struct {
	lvl Level
	msg string
	mod Module

	fields  [maxFields]field
	nfields int
}

var entryPool = sync.Pool{
	New: func() any { return new(EntryZ) },
}

func newEntryZ() *EntryZ {
	e := entryPool.Get().(*EntryZ)
	e.nfields = 0
	return e
}

func (z *EntryZ) add(f field) *EntryZ {
	if z == nil {
		return nil
	}
	if z.nfields < maxFields {
		z.fields[z.nfields] = f
		z.nfields++
	}
	return z
}

func (z *EntryZ) String(key, val string) *EntryZ {
	return z.add(field{key: key, kind: kindString, str: val})
}

func (z *EntryZ) Bool(key string, val bool) *EntryZ {
	var n int64
	if val {
		n = 1
	}
	return z.add(field{key: key, kind: kindBool, num: n})
}

func (z *EntryZ) Int(key string, val int) *EntryZ {
	return z.add(field{key: key, kind: kindInt, num: int64(val)})
}

// Hex16 adds a machine word, shown as 4 hex digits.
func (z *EntryZ) Hex16(key string, val uint16) *EntryZ {
	return z.add(field{key: key, kind: kindWord, num: int64(val)})
}

// Words adds a sequence of machine words.
func (z *EntryZ) Words(key string, ws []uint16) *EntryZ {
	return z.add(field{key: key, kind: kindWords, iface: ws})
}

func (z *EntryZ) Error(key string, err error) *EntryZ {
	f := field{key: key, kind: kindError}
	if err != nil {
		f.iface = err
	}
	return z.add(f)
}

func (z *EntryZ) Stringer(key string, s fmt.Stringer) *EntryZ {
	return z.add(field{key: key, kind: kindStringer, iface: s})
}

// End emits the entry.
func (z *EntryZ) End() {
	if z == nil {
		return
	}

	fields := make(logrus.Fields, z.nfields+1)
	fields["_mod"] = z.mod.String()
	for i := range z.fields[:z.nfields] {
		fields[z.fields[i].key] = z.fields[i].value()
	}
	entry := logrus.StandardLogger().WithFields(fields)
	lvl, msg := z.lvl, z.msg

	z.fields = [maxFields]field{}
	entryPool.Put(z)

	emit(entry, lvl, msg)
}
