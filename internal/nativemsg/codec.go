// Package nativemsg implements the browser native messaging protocol and a
// host that bridges it to the background worker.
//
// Each message is a 32-bit length in native byte order followed by that many
// bytes of UTF-8 JSON. Supported browsers only run on little-endian hosts.
package nativemsg

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Message size limits. Browsers reject host messages over 1 MiB.
const (
	MaxOutgoingSize = 1 << 20
	MaxIncomingSize = 64 << 20
)

// ErrMessageTooLarge is returned for messages over the size limits.
var ErrMessageTooLarge = errors.New("native message too large")

var byteOrder = binary.LittleEndian

// ReadMessage reads one framed message. It returns io.EOF when the stream
// ends cleanly between messages.
func ReadMessage(r io.Reader) ([]byte, error) {
	var size uint32
	if err := binary.Read(r, byteOrder, &size); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("reading message length: %w", err)
	}
	if size > MaxIncomingSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, size)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("reading message body: %w", err)
	}
	return buf, nil
}

// WriteMessage encodes v as JSON and writes it as one framed message.
func WriteMessage(w io.Writer, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	if len(body) > MaxOutgoingSize {
		return fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(body))
	}
	frame := make([]byte, 4+len(body))
	byteOrder.PutUint32(frame, uint32(len(body)))
	copy(frame[4:], body)
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	return nil
}
