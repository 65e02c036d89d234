// Package wire owns the binary primitives of the plugin protocol.
//
// Ownership boundary:
// - varint, tag and length-delimited encode/decode
// - decode error kinds and their offsets
// - the raw unknown-fields bag
//
// Only the varint (0) and length-delimited (2) wire types exist in the
// schema; every other wire type is rejected.
package wire
