package log

import (
	"fmt"
	"strconv"
	"strings"
)

type fieldKind uint8

const (
	kindString fieldKind = iota
	kindBool
	kindInt
	kindWord
	kindWords
	kindError
	kindStringer
)

// A field is a key-value pair attached to an EntryZ. Its value is only
// formatted if the entry is emitted.
type field struct {
	key  string
	kind fieldKind

	str   string
	num   int64
	iface any
}

func (f *field) value() string {
	switch f.kind {
	case kindString:
		return f.str
	case kindBool:
		return strconv.FormatBool(f.num != 0)
	case kindInt:
		return strconv.FormatInt(f.num, 10)
	case kindWord:
		return fmt.Sprintf("%04x", uint16(f.num))
	case kindWords:
		ws := f.iface.([]uint16)
		var sb strings.Builder
		sb.WriteByte('[')
		for i, w := range ws {
			if i > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%04x", w)
		}
		sb.WriteByte(']')
		return sb.String()
	case kindError:
		if f.iface == nil {
			return "<nil>"
		}
		return f.iface.(error).Error()
	case kindStringer:
		return f.iface.(fmt.Stringer).String()
	}
	return ""
}
