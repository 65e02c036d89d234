// Package protocol owns the plugin message model and its wire codec.
//
// Ownership boundary:
// - Version, Parameter, Request, Response, File and Wrapper values
// - per-message field tables, encode and decode
// - value equality and unknown-field preservation
// - copy-on-write storage for Request
//
// Encoding is canonical: fields in ascending number order, default values
// omitted, unknown fields appended verbatim. Encode and decode are pure and
// safe to call concurrently on independent values.
package protocol
