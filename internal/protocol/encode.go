package protocol

import "github.com/danmuck/pluginwire/internal/protocol/wire"

// Message is implemented by every entity of the plugin schema.
type Message interface {
	// Size returns the length of the canonical encoding.
	Size() int
	// Marshal returns the canonical encoding.
	Marshal() []byte
	// Unmarshal replaces the receiver with the message decoded from b.
	Unmarshal(b []byte) error
}

var (
	_ Message = (*Version)(nil)
	_ Message = (*Parameter)(nil)
	_ Message = (*File)(nil)
	_ Message = (*Wrapper)(nil)
	_ Message = (*Response)(nil)
	_ Message = (*Request)(nil)
)

// Encode returns the canonical encoding of m.
func Encode(m Message) []byte {
	return m.Marshal()
}

func (v Version) Size() int {
	n := 0
	if v.Major != 0 {
		n += wire.SizeInt32Field(FieldVersionMajor, v.Major)
	}
	if v.Minor != 0 {
		n += wire.SizeInt32Field(FieldVersionMinor, v.Minor)
	}
	if v.Patch != 0 {
		n += wire.SizeInt32Field(FieldVersionPatch, v.Patch)
	}
	if v.Suffix != "" {
		n += wire.SizeBytesField(FieldVersionSuffix, len(v.Suffix))
	}
	return n + len(v.Unknown)
}

func (v Version) Marshal() []byte {
	return v.appendTo(make([]byte, 0, v.Size()))
}

func (v Version) appendTo(b []byte) []byte {
	if v.Major != 0 {
		b = wire.AppendInt32Field(b, FieldVersionMajor, v.Major)
	}
	if v.Minor != 0 {
		b = wire.AppendInt32Field(b, FieldVersionMinor, v.Minor)
	}
	if v.Patch != 0 {
		b = wire.AppendInt32Field(b, FieldVersionPatch, v.Patch)
	}
	if v.Suffix != "" {
		b = wire.AppendStringField(b, FieldVersionSuffix, v.Suffix)
	}
	return append(b, v.Unknown...)
}

func (p Parameter) Size() int {
	n := 0
	if p.Name != "" {
		n += wire.SizeBytesField(FieldParameterName, len(p.Name))
	}
	if p.Value != "" {
		n += wire.SizeBytesField(FieldParameterValue, len(p.Value))
	}
	return n + len(p.Unknown)
}

func (p Parameter) Marshal() []byte {
	return p.appendTo(make([]byte, 0, p.Size()))
}

func (p Parameter) appendTo(b []byte) []byte {
	if p.Name != "" {
		b = wire.AppendStringField(b, FieldParameterName, p.Name)
	}
	if p.Value != "" {
		b = wire.AppendStringField(b, FieldParameterValue, p.Value)
	}
	return append(b, p.Unknown...)
}

func (f File) Size() int {
	n := 0
	if f.Name != "" {
		n += wire.SizeBytesField(FieldFileName, len(f.Name))
	}
	if len(f.Data) > 0 {
		n += wire.SizeBytesField(FieldFileData, len(f.Data))
	}
	return n + len(f.Unknown)
}

func (f File) Marshal() []byte {
	return f.appendTo(make([]byte, 0, f.Size()))
}

func (f File) appendTo(b []byte) []byte {
	if f.Name != "" {
		b = wire.AppendStringField(b, FieldFileName, f.Name)
	}
	if len(f.Data) > 0 {
		b = wire.AppendBytesField(b, FieldFileData, f.Data)
	}
	return append(b, f.Unknown...)
}

func (w Wrapper) Size() int {
	n := 0
	if w.Name != "" {
		n += wire.SizeBytesField(FieldWrapperName, len(w.Name))
	}
	if w.Version != "" {
		n += wire.SizeBytesField(FieldWrapperVersion, len(w.Version))
	}
	if len(w.Value) > 0 {
		n += wire.SizeBytesField(FieldWrapperValue, len(w.Value))
	}
	return n + len(w.Unknown)
}

func (w Wrapper) Marshal() []byte {
	return w.appendTo(make([]byte, 0, w.Size()))
}

func (w Wrapper) appendTo(b []byte) []byte {
	if w.Name != "" {
		b = wire.AppendStringField(b, FieldWrapperName, w.Name)
	}
	if w.Version != "" {
		b = wire.AppendStringField(b, FieldWrapperVersion, w.Version)
	}
	if len(w.Value) > 0 {
		b = wire.AppendBytesField(b, FieldWrapperValue, w.Value)
	}
	return append(b, w.Unknown...)
}

func (r Response) Size() int {
	n := 0
	for _, e := range r.Errors {
		n += wire.SizeBytesField(FieldResponseErrors, len(e))
	}
	for _, f := range r.Files {
		n += wire.SizeBytesField(FieldResponseFiles, f.Size())
	}
	return n + len(r.Unknown)
}

func (r Response) Marshal() []byte {
	return r.appendTo(make([]byte, 0, r.Size()))
}

func (r Response) appendTo(b []byte) []byte {
	for _, e := range r.Errors {
		b = wire.AppendStringField(b, FieldResponseErrors, e)
	}
	for _, f := range r.Files {
		b = wire.AppendMessageHeader(b, FieldResponseFiles, f.Size())
		b = f.appendTo(b)
	}
	return append(b, r.Unknown...)
}

func (r *Request) Size() int {
	s := r.storage()
	n := 0
	if s.wrapper != nil {
		n += wire.SizeBytesField(FieldRequestWrapper, s.wrapper.Size())
	}
	if s.outputPath != "" {
		n += wire.SizeBytesField(FieldRequestOutputPath, len(s.outputPath))
	}
	for _, p := range s.parameters {
		n += wire.SizeBytesField(FieldRequestParameters, p.Size())
	}
	if s.compilerVersion != nil {
		n += wire.SizeBytesField(FieldRequestCompilerVersion, s.compilerVersion.Size())
	}
	return n + len(s.unknown)
}

func (r *Request) Marshal() []byte {
	return r.appendTo(make([]byte, 0, r.Size()))
}

func (r *Request) appendTo(b []byte) []byte {
	s := r.storage()
	if s.wrapper != nil {
		b = wire.AppendMessageHeader(b, FieldRequestWrapper, s.wrapper.Size())
		b = s.wrapper.appendTo(b)
	}
	if s.outputPath != "" {
		b = wire.AppendStringField(b, FieldRequestOutputPath, s.outputPath)
	}
	for _, p := range s.parameters {
		b = wire.AppendMessageHeader(b, FieldRequestParameters, p.Size())
		b = p.appendTo(b)
	}
	if s.compilerVersion != nil {
		b = wire.AppendMessageHeader(b, FieldRequestCompilerVersion, s.compilerVersion.Size())
		b = s.compilerVersion.appendTo(b)
	}
	return append(b, s.unknown...)
}
