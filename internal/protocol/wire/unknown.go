package wire

import (
	"bytes"

	"google.golang.org/protobuf/encoding/protowire"
)

// Unknown holds the raw tag and payload bytes of fields the schema does not
// declare, in arrival order. Encoders append it verbatim after known fields.
type Unknown []byte

// Len returns the number of raw bytes held.
func (u Unknown) Len() int {
	return len(u)
}

// Equal reports byte equality. Nil and empty are equal.
func (u Unknown) Equal(other Unknown) bool {
	return bytes.Equal(u, other)
}

// Clone returns an independent copy.
func (u Unknown) Clone() Unknown {
	if len(u) == 0 {
		return nil
	}
	return bytes.Clone(u)
}

// Numbers lists the field numbers held, in wire order.
func (u Unknown) Numbers() ([]protowire.Number, error) {
	if len(u) == 0 {
		return nil, nil
	}
	d := NewDecoder("unknown", u)
	out := make([]protowire.Number, 0, 2)
	for !d.Done() {
		num, _, err := d.Next()
		if err != nil {
			return nil, err
		}
		if _, err := d.Skip(); err != nil {
			return nil, err
		}
		out = append(out, num)
	}
	return out, nil
}
