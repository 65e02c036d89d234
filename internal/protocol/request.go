package protocol

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/danmuck/pluginwire/internal/protocol/wire"
)

// Request is what the host writes to a plugin's stdin.
//
// All state lives in one storage block that Clone shares. Reads never copy
// the block; the first write through a Request whose block is shared copies
// it, so every other holder keeps observing the old values. The zero Request
// is empty and ready to use.
//
// A Request must not be copied by value; take a snapshot with Clone:
//
//	snapshot := req.Clone() // not: snapshot := *req
//
// Setters copy their arguments and getters return copies, so no caller holds
// memory that lives in a storage block.
type Request struct {
	_ [0]sync.Mutex
	s *requestStorage
}

type requestStorage struct {
	refs            atomic.Int32
	wrapper         *Wrapper
	outputPath      string
	parameters      []Parameter
	compilerVersion *Version
	unknown         wire.Unknown
}

// emptyRequestStorage backs reads of a Request that was never written. It is
// never mutated.
var emptyRequestStorage = &requestStorage{}

func newRequestStorage() *requestStorage {
	s := &requestStorage{}
	s.refs.Store(1)
	return s
}

func (s *requestStorage) clone() *requestStorage {
	c := newRequestStorage()
	if s.wrapper != nil {
		w := s.wrapper.Clone()
		c.wrapper = &w
	}
	c.outputPath = s.outputPath
	c.parameters = cloneParameters(s.parameters)
	if s.compilerVersion != nil {
		v := s.compilerVersion.Clone()
		c.compilerVersion = &v
	}
	c.unknown = s.unknown.Clone()
	return c
}

// NewRequest returns an empty Request.
func NewRequest() *Request {
	return &Request{}
}

// Clone returns a Request with the same contents. Storage is shared until
// either side writes.
func (r *Request) Clone() *Request {
	if r == nil || r.s == nil {
		return &Request{}
	}
	r.s.refs.Add(1)
	return &Request{s: r.s}
}

func (r *Request) storage() *requestStorage {
	if r == nil || r.s == nil {
		return emptyRequestStorage
	}
	return r.s
}

// uniqueStorage returns storage owned by r alone, copying a shared block
// first. Every mutating method goes through it.
func (r *Request) uniqueStorage() *requestStorage {
	switch {
	case r.s == nil:
		r.s = newRequestStorage()
	case r.s.refs.Load() > 1:
		c := r.s.clone()
		r.s.refs.Add(-1)
		r.s = c
	}
	return r.s
}

// replaceStorage installs a freshly decoded block, releasing the old one.
func (r *Request) replaceStorage(s *requestStorage) {
	if r.s != nil {
		r.s.refs.Add(-1)
	}
	r.s = s
}

// Wrapper returns the wrapped document, or the zero Wrapper when absent.
func (r *Request) Wrapper() Wrapper {
	if w := r.storage().wrapper; w != nil {
		return w.Clone()
	}
	return Wrapper{}
}

// HasWrapper reports whether a Wrapper is set, even an all-default one.
func (r *Request) HasWrapper() bool {
	return r.storage().wrapper != nil
}

func (r *Request) SetWrapper(w Wrapper) {
	w = w.Clone()
	r.uniqueStorage().wrapper = &w
}

func (r *Request) ClearWrapper() {
	r.uniqueStorage().wrapper = nil
}

// OutputPath is the output location given in the plugin invocation.
func (r *Request) OutputPath() string {
	return r.storage().outputPath
}

func (r *Request) SetOutputPath(path string) {
	r.uniqueStorage().outputPath = path
}

// Parameters returns a copy of the parameter list in invocation order.
func (r *Request) Parameters() []Parameter {
	return cloneParameters(r.storage().parameters)
}

func (r *Request) SetParameters(params []Parameter) {
	r.uniqueStorage().parameters = cloneParameters(params)
}

// AddParameter appends parameters after the existing ones.
func (r *Request) AddParameter(params ...Parameter) {
	s := r.uniqueStorage()
	for _, p := range params {
		s.parameters = append(s.parameters, p.Clone())
	}
}

// LookupParameter returns the value of the last parameter named name.
func (r *Request) LookupParameter(name string) (string, bool) {
	params := r.storage().parameters
	for i := len(params) - 1; i >= 0; i-- {
		if params[i].Name == name {
			return params[i].Value, true
		}
	}
	return "", false
}

// CompilerVersion returns the compiler version, or the zero Version when absent.
func (r *Request) CompilerVersion() Version {
	if v := r.storage().compilerVersion; v != nil {
		return v.Clone()
	}
	return Version{}
}

func (r *Request) HasCompilerVersion() bool {
	return r.storage().compilerVersion != nil
}

func (r *Request) SetCompilerVersion(v Version) {
	v = v.Clone()
	r.uniqueStorage().compilerVersion = &v
}

func (r *Request) ClearCompilerVersion() {
	r.uniqueStorage().compilerVersion = nil
}

// Unknown returns the raw bytes of unrecognized top-level fields.
func (r *Request) Unknown() wire.Unknown {
	return r.storage().unknown.Clone()
}

func (r *Request) SetUnknown(u wire.Unknown) {
	r.uniqueStorage().unknown = u.Clone()
}

// Equal reports whether both requests hold equal fields and unknown bytes.
// Presence of the optional messages must match.
func (r *Request) Equal(o *Request) bool {
	a, b := r.storage(), o.storage()
	if a == b {
		return true
	}
	return optionalEqual(a.wrapper, b.wrapper, Wrapper.Equal) &&
		a.outputPath == b.outputPath &&
		slices.EqualFunc(a.parameters, b.parameters, Parameter.Equal) &&
		optionalEqual(a.compilerVersion, b.compilerVersion, Version.Equal) &&
		a.unknown.Equal(b.unknown)
}

func optionalEqual[T any](a, b *T, eq func(T, T) bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return eq(*a, *b)
}
