// Package host runs plugins on behalf of a code-generation host.
//
// Ownership boundary:
//   - Invoker launches one plugin process, pipes the encoded Request to its
//     stdin and decodes the Response from its stdout.
//   - BuildRequest turns a config.HostConfig into a Request.
//   - WriteFiles materializes Response files under an output root.
//
// Wire encoding lives in internal/protocol; this package only moves bytes.
package host
