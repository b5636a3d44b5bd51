package spr

import "encoding/binary"

// Decoder turns sprite records into RGBA pixels. It owns a single output
// buffer, so the slice returned by Decode is only valid until the next call.
// A Decoder is not safe for concurrent use.
type Decoder struct {
	src     *Sprites
	pix     []byte
	decodes int
}

// NewDecoder returns a decoder reading records from s.
func NewDecoder(s *Sprites) *Decoder {
	return &Decoder{src: s, pix: make([]byte, PixelBytes)}
}

// Decodes returns how many records the decoder has attempted.
func (d *Decoder) Decodes() int { return d.decodes }

// Decode returns the non-premultiplied RGBA pixels of sprite id. Pixels not
// covered by a run are fully transparent.
func (d *Decoder) Decode(id uint32) ([]byte, error) {
	clear(d.pix)
	rec, err := d.src.record(id)
	if err != nil {
		return nil, err
	}
	d.decodes++

	pos, idx := 0, 0
	for pos < len(rec) {
		if pos+4 > len(rec) {
			return nil, &DecodeError{ID: id, Offset: pos, Err: ErrTruncated}
		}
		skip := int(binary.LittleEndian.Uint16(rec[pos:]))
		run := int(binary.LittleEndian.Uint16(rec[pos+2:]))
		pos += 4

		idx += skip
		if idx+run > Size*Size {
			return nil, &DecodeError{ID: id, Offset: pos, Err: ErrOverflow}
		}
		n := run * 4
		if pos+n > len(rec) {
			return nil, &DecodeError{ID: id, Offset: pos, Err: ErrTruncated}
		}
		copy(d.pix[idx*4:], rec[pos:pos+n])
		pos += n
		idx += run
	}
	return d.pix, nil
}
