package wire

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

// Wire types used by the plugin schema. The remaining protobuf wire types
// (fixed32, fixed64, groups) are rejected on decode.
const (
	VarintType = protowire.VarintType
	BytesType  = protowire.BytesType
)

var (
	ErrMalformedVarint     = errors.New("wire: malformed varint")
	ErrTruncatedInput      = errors.New("wire: truncated input")
	ErrUnsupportedWireType = errors.New("wire: unsupported wire type")
	ErrInvalidFieldNumber  = errors.New("wire: invalid field number")
	ErrInvalidUTF8         = errors.New("wire: invalid utf-8 in string field")
)

// DecodeError locates a parse failure within one encoded message.
type DecodeError struct {
	Message string
	Field   protowire.Number
	Offset  int
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Field == 0 {
		return fmt.Sprintf("wire: %s offset=%d: %v", e.Message, e.Offset, e.Err)
	}
	return fmt.Sprintf("wire: %s field=%d offset=%d: %v", e.Message, e.Field, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decoder walks the fields of one encoded message. The zero-length buffer is
// a valid message with every field at its default.
type Decoder struct {
	msg   string
	buf   []byte
	off   int
	start int
	num   protowire.Number
	typ   protowire.Type
}

// NewDecoder returns a decoder over b. message names the entity in errors.
func NewDecoder(message string, b []byte) *Decoder {
	return &Decoder{msg: message, buf: b}
}

// Done reports whether every byte of the buffer has been consumed.
func (d *Decoder) Done() bool {
	return d.off >= len(d.buf)
}

// Offset returns the read position within the buffer.
func (d *Decoder) Offset() int {
	return d.off
}

// Next reads the tag of the next field.
func (d *Decoder) Next() (protowire.Number, protowire.Type, error) {
	d.start = d.off
	d.num = 0
	x, n := protowire.ConsumeVarint(d.buf[d.off:])
	if n < 0 {
		return 0, 0, d.fail(ErrMalformedVarint)
	}
	num, typ := protowire.DecodeTag(x)
	if !num.IsValid() {
		return 0, 0, d.fail(ErrInvalidFieldNumber)
	}
	d.num = num
	if typ != VarintType && typ != BytesType {
		return 0, 0, d.fail(ErrUnsupportedWireType)
	}
	d.off += n
	d.typ = typ
	return num, typ, nil
}

// Varint reads a varint value.
func (d *Decoder) Varint() (uint64, error) {
	v, n := protowire.ConsumeVarint(d.buf[d.off:])
	if n < 0 {
		return 0, d.fail(ErrMalformedVarint)
	}
	d.off += n
	return v, nil
}

// Int32 reads a varint and truncates it to 32 bits.
func (d *Decoder) Int32() (int32, error) {
	v, err := d.Varint()
	return int32(v), err
}

// Bytes reads a length-delimited payload. The result aliases the input buffer.
func (d *Decoder) Bytes() ([]byte, error) {
	l, n := protowire.ConsumeVarint(d.buf[d.off:])
	if n < 0 {
		return nil, d.fail(ErrMalformedVarint)
	}
	start := d.off + n
	if l > uint64(len(d.buf)-start) {
		return nil, d.fail(ErrTruncatedInput)
	}
	d.off = start + int(l)
	return d.buf[start:d.off:d.off], nil
}

// BytesCopy reads a length-delimited payload into fresh memory.
func (d *Decoder) BytesCopy() ([]byte, error) {
	p, err := d.Bytes()
	if err != nil || len(p) == 0 {
		return nil, err
	}
	return bytes.Clone(p), nil
}

// Text reads a length-delimited payload that must be valid UTF-8.
func (d *Decoder) Text() (string, error) {
	at := d.off
	p, err := d.Bytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(p) {
		d.off = at
		return "", d.fail(ErrInvalidUTF8)
	}
	return string(p), nil
}

// Skip consumes the value of the current field and returns the raw span of
// tag and value, suitable for an unknown-fields bag.
func (d *Decoder) Skip() ([]byte, error) {
	var err error
	switch d.typ {
	case VarintType:
		_, err = d.Varint()
	case BytesType:
		_, err = d.Bytes()
	default:
		err = d.fail(ErrUnsupportedWireType)
	}
	if err != nil {
		return nil, err
	}
	return d.buf[d.start:d.off:d.off], nil
}

// Wrap attributes an error from an embedded message to the current field.
func (d *Decoder) Wrap(err error) error {
	if err == nil {
		return nil
	}
	return &DecodeError{Message: d.msg, Field: d.num, Offset: d.start, Err: err}
}

func (d *Decoder) fail(err error) error {
	return &DecodeError{Message: d.msg, Field: d.num, Offset: d.off, Err: err}
}

// AppendInt32Field writes a varint field. Negative values are sign-extended
// to 64 bits and take ten bytes.
func AppendInt32Field(b []byte, num protowire.Number, v int32) []byte {
	b = protowire.AppendTag(b, num, VarintType)
	return protowire.AppendVarint(b, uint64(int64(v)))
}

// AppendStringField writes a length-delimited string field.
func AppendStringField(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, BytesType)
	return protowire.AppendString(b, s)
}

// AppendBytesField writes a length-delimited bytes field.
func AppendBytesField(b []byte, num protowire.Number, p []byte) []byte {
	b = protowire.AppendTag(b, num, BytesType)
	return protowire.AppendBytes(b, p)
}

// AppendMessageHeader writes the tag and length prefix of an embedded
// message whose encoding is size bytes long. The caller appends the body.
func AppendMessageHeader(b []byte, num protowire.Number, size int) []byte {
	b = protowire.AppendTag(b, num, BytesType)
	return protowire.AppendVarint(b, uint64(size))
}

// SizeInt32Field is the encoded size of AppendInt32Field.
func SizeInt32Field(num protowire.Number, v int32) int {
	return protowire.SizeTag(num) + protowire.SizeVarint(uint64(int64(v)))
}

// SizeBytesField is the encoded size of a length-delimited field carrying n bytes.
func SizeBytesField(num protowire.Number, n int) int {
	return protowire.SizeTag(num) + protowire.SizeBytes(n)
}
