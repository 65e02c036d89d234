// Package plugin owns the plugin side of the stdio contract.
//
// Ownership boundary:
// - read one encoded Request from stdin
// - run the generator
// - write one encoded Response to stdout
//
// Generator errors are data: they land in Response.Errors and the process
// still exits 0. Codec failures are hard failures reported on stderr with a
// non-zero exit.
package plugin
