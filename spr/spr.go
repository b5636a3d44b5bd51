// Package spr reads sprite files: a signature, an address table and one
// run-length encoded 32x32 record per sprite id.
package spr

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	// Size is the width and height of every sprite in pixels.
	Size = 32
	// PixelBytes is the length of a decoded RGBA sprite buffer.
	PixelBytes = Size * Size * 4

	// recordHeader is the RGB color key followed by the uint16 payload length.
	recordHeader = 5
)

// signatures maps known file signatures to client versions.
var signatures = map[uint32]int{
	0x41B9EA86: 740,
	0x439852BE: 760,
	0x57BBD603: 1098,
}

var (
	ErrBadSignature  = errors.New("spr: unknown sprite file signature")
	ErrUnknownSprite = errors.New("spr: unknown sprite")
	ErrTruncated     = errors.New("record truncated")
	ErrOverflow      = errors.New("pixel run exceeds sprite bounds")
)

// DecodeError reports a malformed sprite record.
type DecodeError struct {
	ID     uint32
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("spr: sprite %d at offset %d: %v", e.ID, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Sprites is a loaded sprite file.
type Sprites struct {
	data    []byte
	addrs   []uint32 // indexed by sprite id, 0 means no record
	Version int
}

// Load reads and indexes the sprite file at path.
func Load(path string) (*Sprites, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse indexes an in-memory sprite file. The slice is retained.
func Parse(data []byte) (*Sprites, error) {
	r := bytes.NewReader(data)
	var sig uint32
	if err := binary.Read(r, binary.LittleEndian, &sig); err != nil {
		return nil, fmt.Errorf("spr: read signature: %w", err)
	}
	version, ok := signatures[sig]
	if !ok {
		return nil, fmt.Errorf("%w %08X", ErrBadSignature, sig)
	}

	var count uint32
	if version > 760 {
		if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
			return nil, fmt.Errorf("spr: read sprite count: %w", err)
		}
	} else {
		var c16 uint16
		if err := binary.Read(r, binary.LittleEndian, &c16); err != nil {
			return nil, fmt.Errorf("spr: read sprite count: %w", err)
		}
		count = uint32(c16)
	}

	if int64(count)*4 > int64(r.Len()) {
		return nil, fmt.Errorf("spr: address table for %d sprites: %w", count, io.ErrUnexpectedEOF)
	}
	s := &Sprites{
		data:    data,
		addrs:   make([]uint32, count+1),
		Version: version,
	}
	for id := uint32(1); id <= count; id++ {
		if err := binary.Read(r, binary.LittleEndian, &s.addrs[id]); err != nil {
			return nil, fmt.Errorf("spr: address of sprite %d: %w", id, err)
		}
	}
	return s, nil
}

// Count returns the number of sprite ids declared by the file.
func (s *Sprites) Count() int {
	return len(s.addrs) - 1
}

// Bytes is the size of the loaded file.
func (s *Sprites) Bytes() int {
	return len(s.data)
}

// Address returns the byte offset of the record for id.
func (s *Sprites) Address(id uint32) (uint32, bool) {
	if id == 0 || int(id) >= len(s.addrs) {
		return 0, false
	}
	addr := s.addrs[id]
	return addr, addr != 0
}

// IDs returns every sprite id that has a record.
func (s *Sprites) IDs() []uint32 {
	ids := make([]uint32, 0, len(s.addrs))
	for id, addr := range s.addrs {
		if addr != 0 {
			ids = append(ids, uint32(id))
		}
	}
	return ids
}

// record returns the segment payload of a sprite, after the color key and
// length header.
func (s *Sprites) record(id uint32) ([]byte, error) {
	addr, ok := s.Address(id)
	if !ok {
		return nil, ErrUnknownSprite
	}
	start := int(addr)
	if start+recordHeader > len(s.data) {
		return nil, &DecodeError{ID: id, Offset: start, Err: ErrTruncated}
	}
	n := int(binary.LittleEndian.Uint16(s.data[start+3:]))
	end := start + recordHeader + n
	if end > len(s.data) {
		return nil, &DecodeError{ID: id, Offset: start, Err: ErrTruncated}
	}
	return s.data[start+recordHeader : end], nil
}
