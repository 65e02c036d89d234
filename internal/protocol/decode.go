package protocol

import "github.com/danmuck/pluginwire/internal/protocol/wire"

// Decode replaces m with the message decoded from b.
func Decode(b []byte, m Message) error {
	return m.Unmarshal(b)
}

// DecodeRequest decodes a Request.
func DecodeRequest(b []byte) (*Request, error) {
	req := &Request{}
	if err := req.Unmarshal(b); err != nil {
		return nil, err
	}
	return req, nil
}

// DecodeResponse decodes a Response.
func DecodeResponse(b []byte) (Response, error) {
	var resp Response
	if err := resp.Unmarshal(b); err != nil {
		return Response{}, err
	}
	return resp, nil
}

func (v *Version) Unmarshal(b []byte) error {
	var out Version
	if err := out.merge(b); err != nil {
		return err
	}
	*v = out
	return nil
}

// merge decodes b over v. Scalars overwrite; unknown bytes accumulate.
func (v *Version) merge(b []byte) error {
	d := wire.NewDecoder("Version", b)
	for !d.Done() {
		num, typ, err := d.Next()
		if err != nil {
			return err
		}
		switch {
		case num == FieldVersionMajor && typ == wire.VarintType:
			v.Major, err = d.Int32()
		case num == FieldVersionMinor && typ == wire.VarintType:
			v.Minor, err = d.Int32()
		case num == FieldVersionPatch && typ == wire.VarintType:
			v.Patch, err = d.Int32()
		case num == FieldVersionSuffix && typ == wire.BytesType:
			v.Suffix, err = d.Text()
		default:
			v.Unknown, err = skipUnknown(d, v.Unknown)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Parameter) Unmarshal(b []byte) error {
	var out Parameter
	if err := out.merge(b); err != nil {
		return err
	}
	*p = out
	return nil
}

func (p *Parameter) merge(b []byte) error {
	d := wire.NewDecoder("Parameter", b)
	for !d.Done() {
		num, typ, err := d.Next()
		if err != nil {
			return err
		}
		switch {
		case num == FieldParameterName && typ == wire.BytesType:
			p.Name, err = d.Text()
		case num == FieldParameterValue && typ == wire.BytesType:
			p.Value, err = d.Text()
		default:
			p.Unknown, err = skipUnknown(d, p.Unknown)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (f *File) Unmarshal(b []byte) error {
	var out File
	if err := out.merge(b); err != nil {
		return err
	}
	*f = out
	return nil
}

func (f *File) merge(b []byte) error {
	d := wire.NewDecoder("File", b)
	for !d.Done() {
		num, typ, err := d.Next()
		if err != nil {
			return err
		}
		switch {
		case num == FieldFileName && typ == wire.BytesType:
			f.Name, err = d.Text()
		case num == FieldFileData && typ == wire.BytesType:
			f.Data, err = d.BytesCopy()
		default:
			f.Unknown, err = skipUnknown(d, f.Unknown)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *Wrapper) Unmarshal(b []byte) error {
	var out Wrapper
	if err := out.merge(b); err != nil {
		return err
	}
	*w = out
	return nil
}

func (w *Wrapper) merge(b []byte) error {
	d := wire.NewDecoder("Wrapper", b)
	for !d.Done() {
		num, typ, err := d.Next()
		if err != nil {
			return err
		}
		switch {
		case num == FieldWrapperName && typ == wire.BytesType:
			w.Name, err = d.Text()
		case num == FieldWrapperVersion && typ == wire.BytesType:
			w.Version, err = d.Text()
		case num == FieldWrapperValue && typ == wire.BytesType:
			w.Value, err = d.BytesCopy()
		default:
			w.Unknown, err = skipUnknown(d, w.Unknown)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Response) Unmarshal(b []byte) error {
	var out Response
	d := wire.NewDecoder("Response", b)
	for !d.Done() {
		num, typ, err := d.Next()
		if err != nil {
			return err
		}
		switch {
		case num == FieldResponseErrors && typ == wire.BytesType:
			var e string
			if e, err = d.Text(); err == nil {
				out.Errors = append(out.Errors, e)
			}
		case num == FieldResponseFiles && typ == wire.BytesType:
			var f File
			if err = decodeEmbedded(d, &f); err == nil {
				out.Files = append(out.Files, f)
			}
		default:
			out.Unknown, err = skipUnknown(d, out.Unknown)
		}
		if err != nil {
			return err
		}
	}
	*r = out
	return nil
}

// Unmarshal replaces r's contents. Requests sharing storage with r are not
// affected.
func (r *Request) Unmarshal(b []byte) error {
	s := newRequestStorage()
	d := wire.NewDecoder("Request", b)
	for !d.Done() {
		num, typ, err := d.Next()
		if err != nil {
			return err
		}
		switch {
		case num == FieldRequestWrapper && typ == wire.BytesType:
			if s.wrapper == nil {
				s.wrapper = &Wrapper{}
			}
			err = decodeEmbedded(d, s.wrapper)
		case num == FieldRequestOutputPath && typ == wire.BytesType:
			s.outputPath, err = d.Text()
		case num == FieldRequestParameters && typ == wire.BytesType:
			var p Parameter
			if err = decodeEmbedded(d, &p); err == nil {
				s.parameters = append(s.parameters, p)
			}
		case num == FieldRequestCompilerVersion && typ == wire.BytesType:
			if s.compilerVersion == nil {
				s.compilerVersion = &Version{}
			}
			err = decodeEmbedded(d, s.compilerVersion)
		default:
			s.unknown, err = skipUnknown(d, s.unknown)
		}
		if err != nil {
			return err
		}
	}
	r.replaceStorage(s)
	return nil
}

type merger interface {
	merge(b []byte) error
}

// decodeEmbedded merges a length-delimited embedded message into m. A
// repeated singular message merges with what was decoded before, matching
// protobuf semantics.
func decodeEmbedded(d *wire.Decoder, m merger) error {
	p, err := d.Bytes()
	if err != nil {
		return err
	}
	return d.Wrap(m.merge(p))
}

func skipUnknown(d *wire.Decoder, bag wire.Unknown) (wire.Unknown, error) {
	raw, err := d.Skip()
	if err != nil {
		return bag, err
	}
	return append(bag, raw...), nil
}
