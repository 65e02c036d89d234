package protocol

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/danmuck/pluginwire/internal/protocol/wire"
)

// Version is the version number of the compiler driving the plugin.
type Version struct {
	Major int32
	Minor int32
	Patch int32
	// Suffix marks alpha, beta or rc releases, e.g. "alpha-1". Empty for
	// stable releases.
	Suffix  string
	Unknown wire.Unknown
}

// Parameter is one option passed to the plugin, in invocation order.
type Parameter struct {
	Name    string
	Value   string
	Unknown wire.Unknown
}

// File is one output file produced by a plugin.
type File struct {
	Name    string
	Data    []byte
	Unknown wire.Unknown
}

// Wrapper carries a source document encoded in another schema version. Value
// is never interpreted by this package.
type Wrapper struct {
	Name    string
	Version string
	Value   []byte
	Unknown wire.Unknown
}

// Response is what a plugin writes back. A non-empty Errors means the plugin
// failed in a reportable way; it is still a well-formed message.
type Response struct {
	Errors  []string
	Files   []File
	Unknown wire.Unknown
}

func (v Version) Equal(o Version) bool {
	return v.Major == o.Major &&
		v.Minor == o.Minor &&
		v.Patch == o.Patch &&
		v.Suffix == o.Suffix &&
		v.Unknown.Equal(o.Unknown)
}

func (v Version) Clone() Version {
	v.Unknown = v.Unknown.Clone()
	return v
}

// String renders major.minor.patch with the suffix appended after a dash.
func (v Version) String() string {
	if v.Suffix == "" {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	return fmt.Sprintf("%d.%d.%d-%s", v.Major, v.Minor, v.Patch, v.Suffix)
}

func (p Parameter) Equal(o Parameter) bool {
	return p.Name == o.Name && p.Value == o.Value && p.Unknown.Equal(o.Unknown)
}

func (p Parameter) Clone() Parameter {
	p.Unknown = p.Unknown.Clone()
	return p
}

func (f File) Equal(o File) bool {
	return f.Name == o.Name && bytes.Equal(f.Data, o.Data) && f.Unknown.Equal(o.Unknown)
}

func (f File) Clone() File {
	f.Data = cloneBytes(f.Data)
	f.Unknown = f.Unknown.Clone()
	return f
}

func (w Wrapper) Equal(o Wrapper) bool {
	return w.Name == o.Name &&
		w.Version == o.Version &&
		bytes.Equal(w.Value, o.Value) &&
		w.Unknown.Equal(o.Unknown)
}

func (w Wrapper) Clone() Wrapper {
	w.Value = cloneBytes(w.Value)
	w.Unknown = w.Unknown.Clone()
	return w
}

func (r Response) Equal(o Response) bool {
	return slices.Equal(r.Errors, o.Errors) &&
		slices.EqualFunc(r.Files, o.Files, File.Equal) &&
		r.Unknown.Equal(o.Unknown)
}

func (r Response) Clone() Response {
	out := Response{Unknown: r.Unknown.Clone()}
	if len(r.Errors) > 0 {
		out.Errors = slices.Clone(r.Errors)
	}
	if len(r.Files) > 0 {
		out.Files = make([]File, len(r.Files))
		for i, f := range r.Files {
			out.Files[i] = f.Clone()
		}
	}
	return out
}

// AddFile appends an output file.
func (r *Response) AddFile(name string, data []byte) {
	r.Files = append(r.Files, File{Name: name, Data: data})
}

// AddError appends a formatted application-level error.
func (r *Response) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Err returns a *ResponseError when the plugin reported errors, else nil.
func (r Response) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return &ResponseError{Errors: slices.Clone(r.Errors)}
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return bytes.Clone(b)
}

func cloneParameters(in []Parameter) []Parameter {
	if len(in) == 0 {
		return nil
	}
	out := make([]Parameter, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}
