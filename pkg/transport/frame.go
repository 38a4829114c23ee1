package transport

import (
	"encoding/binary"
	"fmt"
	"io"
)

// maxFrameSize bounds a single frame so a corrupt length prefix can't
// make a reader allocate unbounded memory.
const maxFrameSize = 64 << 20

// writeFrame writes a length-prefixed frame: a big-endian uint32 byte
// count followed by the payload. No pack dependency implements anonymous
// bind/connect pub/sub, so the wire codec here is a deliberate stdlib
// fallback.
func writeFrame(w io.Writer, payload []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// readFrame reads one length-prefixed frame written by writeFrame.
func readFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(header[:])
	if size > maxFrameSize {
		return nil, fmt.Errorf("transport: frame size %d exceeds maximum %d", size, maxFrameSize)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
