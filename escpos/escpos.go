// Package escpos encodes printer directives into raw ESC/POS byte
// sequences. Every function is a pure byte producer; no I/O happens here.
package escpos

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrInvalidArgument reports a directive input outside the protocol's
// accepted range. Values are never clamped: a silently adjusted command
// byte desynchronizes the printer's internal state machine.
var ErrInvalidArgument = errors.New("escpos: invalid argument")

// Command prefix bytes.
const (
	esc byte = 0x1B
	gs  byte = 0x1D
)

// Alignment values for ESC a.
const (
	AlignLeft   byte = 0x00
	AlignCenter byte = 0x01
	AlignRight  byte = 0x02
)

// Style bitmasks for ESC !. The style byte is absolute: setting a new
// style replaces the prior one entirely.
const (
	StyleNormal     byte = 0x00
	StyleBold       byte = 0x08
	StyleDoubleSize byte = 0x30 // double width + double height
)

// Initialize returns ESC @, resetting the printer to its power-on state.
func Initialize() []byte {
	return []byte{esc, '@'}
}

// Align returns ESC a n. n must be one of AlignLeft, AlignCenter,
// AlignRight.
func Align(n byte) ([]byte, error) {
	if n > AlignRight {
		return nil, fmt.Errorf("%w: alignment %#02x not in {0,1,2}", ErrInvalidArgument, n)
	}
	return []byte{esc, 'a', n}, nil
}

// Style returns ESC ! n. Any bitmask byte is valid per the protocol.
func Style(n byte) []byte {
	return []byte{esc, '!', n}
}

// Text returns the raw single-byte encoding of s. Newlines pass through
// untouched and terminate visual lines on the printer. Runes above 0xFF
// have no single-byte representation and are rejected.
func Text(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			return nil, fmt.Errorf("%w: rune %q has no single-byte encoding", ErrInvalidArgument, r)
		}
		out = append(out, byte(r))
	}
	return out, nil
}

// DrawerKick returns ESC p 0 25 250: pulse drawer pin 0 for ~50ms on,
// ~250ms off (2ms units).
func DrawerKick() []byte {
	return []byte{esc, 'p', 0x00, 0x19, 0xFA}
}

// Cut returns GS V 0, a full paper cut. Must be the final bytes of any
// job that physically separates the receipt.
func Cut() []byte {
	return []byte{gs, 'V', 0x00}
}

// Builder accumulates one complete print job. The first encoding error
// latches; subsequent calls are no-ops and Bytes reports it. A job built
// from an invalid directive therefore never yields a partial buffer.
type Builder struct {
	buf bytes.Buffer
	err error
}

// NewBuilder returns an empty command buffer.
func NewBuilder() *Builder {
	return &Builder{}
}

// Initialize appends ESC @.
func (b *Builder) Initialize() *Builder {
	return b.raw(Initialize())
}

// Align appends an alignment command.
func (b *Builder) Align(n byte) *Builder {
	if b.err != nil {
		return b
	}
	cmd, err := Align(n)
	if err != nil {
		b.err = err
		return b
	}
	return b.raw(cmd)
}

// Style appends an absolute style command.
func (b *Builder) Style(n byte) *Builder {
	return b.raw(Style(n))
}

// Text appends encoded text without a trailing newline.
func (b *Builder) Text(s string) *Builder {
	if b.err != nil {
		return b
	}
	data, err := Text(s)
	if err != nil {
		b.err = err
		return b
	}
	return b.raw(data)
}

// Line appends encoded text terminated by a newline.
func (b *Builder) Line(s string) *Builder {
	return b.Text(s + "\n")
}

// Feed appends n blank lines.
func (b *Builder) Feed(n int) *Builder {
	if b.err != nil {
		return b
	}
	if n < 0 {
		b.err = fmt.Errorf("%w: negative feed %d", ErrInvalidArgument, n)
		return b
	}
	for i := 0; i < n; i++ {
		b.raw([]byte{'\n'})
	}
	return b
}

// DrawerKick appends the drawer pulse sequence.
func (b *Builder) DrawerKick() *Builder {
	return b.raw(DrawerKick())
}

// Cut appends the full-cut sequence.
func (b *Builder) Cut() *Builder {
	return b.raw(Cut())
}

func (b *Builder) raw(data []byte) *Builder {
	if b.err != nil {
		return b
	}
	b.buf.Write(data)
	return b
}

// Bytes returns the accumulated job, or the first encoding error with no
// bytes at all.
func (b *Builder) Bytes() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.buf.Bytes(), nil
}
