package wire

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestDecoderReadsAppendedFields(t *testing.T) {
	var b []byte
	b = AppendInt32Field(b, 1, 7)
	b = AppendStringField(b, 2, "name")
	b = AppendBytesField(b, 3, []byte{0xAA, 0xBB})

	d := NewDecoder("test", b)
	num, typ, err := d.Next()
	if err != nil || num != 1 || typ != VarintType {
		t.Fatalf("unexpected tag 1: num=%d typ=%d err=%v", num, typ, err)
	}
	if v, err := d.Int32(); err != nil || v != 7 {
		t.Fatalf("unexpected varint: %d err=%v", v, err)
	}
	if num, typ, err = d.Next(); err != nil || num != 2 || typ != BytesType {
		t.Fatalf("unexpected tag 2: num=%d typ=%d err=%v", num, typ, err)
	}
	if s, err := d.Text(); err != nil || s != "name" {
		t.Fatalf("unexpected text: %q err=%v", s, err)
	}
	if _, _, err = d.Next(); err != nil {
		t.Fatalf("tag 3: %v", err)
	}
	p, err := d.BytesCopy()
	if err != nil || !bytes.Equal(p, []byte{0xAA, 0xBB}) {
		t.Fatalf("unexpected bytes: %x err=%v", p, err)
	}
	if !d.Done() {
		t.Fatalf("expected decoder exhausted at offset %d", d.Offset())
	}
}

func TestNegativeInt32TakesTenBytes(t *testing.T) {
	b := AppendInt32Field(nil, 1, -1)
	if len(b) != 11 {
		t.Fatalf("expected tag + 10 byte varint, got %d bytes", len(b))
	}
	if SizeInt32Field(1, -1) != len(b) {
		t.Fatalf("size mismatch: %d vs %d", SizeInt32Field(1, -1), len(b))
	}
	d := NewDecoder("test", b)
	if _, _, err := d.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	if v, err := d.Int32(); err != nil || v != -1 {
		t.Fatalf("unexpected value: %d err=%v", v, err)
	}
}

func TestSizeHelpersMatchAppend(t *testing.T) {
	payload := bytes.Repeat([]byte{'x'}, 300)
	if got, want := SizeBytesField(20, len(payload)), len(AppendBytesField(nil, 20, payload)); got != want {
		t.Fatalf("bytes size=%d want %d", got, want)
	}
	if got, want := SizeInt32Field(3, 1<<20), len(AppendInt32Field(nil, 3, 1<<20)); got != want {
		t.Fatalf("int32 size=%d want %d", got, want)
	}
	hdr := AppendMessageHeader(nil, 4, len(payload))
	if len(hdr)+len(payload) != SizeBytesField(4, len(payload)) {
		t.Fatalf("message header size mismatch")
	}
}

func TestDecoderErrorsAreDeterministic(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
		read func(d *Decoder) error
		want error
	}{
		{
			name: "truncated tag varint",
			buf:  []byte{0x80},
			read: nextOnly,
			want: ErrMalformedVarint,
		},
		{
			name: "varint without terminator",
			buf:  []byte{0x08, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01},
			read: func(d *Decoder) error {
				if _, _, err := d.Next(); err != nil {
					return err
				}
				_, err := d.Varint()
				return err
			},
			want: ErrMalformedVarint,
		},
		{
			name: "field number zero",
			buf:  []byte{0x00, 0x01},
			read: nextOnly,
			want: ErrInvalidFieldNumber,
		},
		{
			name: "fixed32 wire type",
			buf:  []byte{0x0d, 0, 0, 0, 0},
			read: nextOnly,
			want: ErrUnsupportedWireType,
		},
		{
			name: "fixed64 wire type",
			buf:  protowire.AppendTag(nil, 7, protowire.Fixed64Type),
			read: nextOnly,
			want: ErrUnsupportedWireType,
		},
		{
			name: "start group wire type",
			buf:  protowire.AppendTag(nil, 7, protowire.StartGroupType),
			read: nextOnly,
			want: ErrUnsupportedWireType,
		},
		{
			name: "length beyond buffer",
			buf:  []byte{0x12, 10, 'a', 'b', 'c'},
			read: func(d *Decoder) error {
				if _, _, err := d.Next(); err != nil {
					return err
				}
				_, err := d.Bytes()
				return err
			},
			want: ErrTruncatedInput,
		},
		{
			name: "invalid utf-8",
			buf:  []byte{0x12, 2, 0xff, 0xfe},
			read: func(d *Decoder) error {
				if _, _, err := d.Next(); err != nil {
					return err
				}
				_, err := d.Text()
				return err
			},
			want: ErrInvalidUTF8,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.read(NewDecoder("test", tc.buf))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected *DecodeError, got %T", err)
			}
			if decodeErr.Message != "test" {
				t.Fatalf("unexpected message name: %q", decodeErr.Message)
			}
		})
	}
}

func TestSkipReturnsRawSpan(t *testing.T) {
	var b []byte
	b = AppendStringField(b, 99, "future")
	b = AppendInt32Field(b, 100, 300)

	d := NewDecoder("test", b)
	var bag Unknown
	for !d.Done() {
		if _, _, err := d.Next(); err != nil {
			t.Fatalf("next: %v", err)
		}
		raw, err := d.Skip()
		if err != nil {
			t.Fatalf("skip: %v", err)
		}
		bag = append(bag, raw...)
	}
	if !bag.Equal(Unknown(b)) {
		t.Fatalf("unknown bag mismatch: %x vs %x", bag, b)
	}
	nums, err := bag.Numbers()
	if err != nil {
		t.Fatalf("numbers: %v", err)
	}
	if diff := cmp.Diff([]protowire.Number{99, 100}, nums); diff != "" {
		t.Fatalf("numbers mismatch (-want +got):\n%s", diff)
	}
}

func TestUnknownCloneAndEqual(t *testing.T) {
	var empty Unknown
	if !empty.Equal(Unknown{}) {
		t.Fatalf("nil and empty bags must be equal")
	}
	if empty.Clone() != nil {
		t.Fatalf("clone of empty bag should be nil")
	}
	u := Unknown{0x08, 0x01}
	c := u.Clone()
	c[1] = 0x02
	if u[1] != 0x01 {
		t.Fatalf("clone aliases original")
	}
	if u.Equal(c) {
		t.Fatalf("expected bags to differ after mutation")
	}
}

func nextOnly(d *Decoder) error {
	_, _, err := d.Next()
	return err
}
