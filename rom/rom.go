// Package rom implements a reader for program images: raw byte streams in
// which each pair of bytes is a little-endian 16-bit word, loaded at the
// start of memory.
package rom

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"

	"synacor/emu/log"
)

// MaxWords is the largest image size, in words.
const MaxWords = 0x8000

var (
	ErrOddLength = errors.New("odd number of bytes")
	ErrTooLarge  = errors.New("image larger than memory")
)

type Image struct {
	Words []uint16
}

// Open loads an image from file.
func Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open image")
	}
	defer f.Close()

	img := new(Image)
	if _, err := img.ReadFrom(f); err != nil {
		return nil, errors.Wrapf(err, "read image %s", path)
	}
	log.ModMem.DebugZ("image loaded").String("path", path).Int("words", len(img.Words)).End()
	return img, nil
}

// ReadFrom implements io.ReaderFrom interface
func (img *Image) ReadFrom(r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	if len(buf)%2 != 0 {
		return 0, errors.Wrapf(ErrOddLength, "%d bytes", len(buf))
	}
	if len(buf)/2 > MaxWords {
		return 0, errors.Wrapf(ErrTooLarge, "%d words", len(buf)/2)
	}

	img.Words = make([]uint16, len(buf)/2)
	for i := range img.Words {
		img.Words[i] = binary.LittleEndian.Uint16(buf[2*i:])
	}
	return int64(len(buf)), nil
}

// Bytes encodes the image.
func (img *Image) Bytes() []byte {
	buf := make([]byte, 0, 2*len(img.Words))
	for _, w := range img.Words {
		buf = binary.LittleEndian.AppendUint16(buf, w)
	}
	return buf
}
