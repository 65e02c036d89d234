package protocol

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/danmuck/pluginwire/internal/testutil/testlog"
)

func TestCloneSharesStorageUntilWrite(t *testing.T) {
	testlog.Start(t)
	a := NewRequest()
	a.SetOutputPath("before")
	a.AddParameter(Parameter{Name: "k", Value: "v"})

	b := a.Clone()
	if a.s != b.s {
		t.Fatalf("expected clone to share storage")
	}
	if a.s.refs.Load() != 2 {
		t.Fatalf("expected two owners, got %d", a.s.refs.Load())
	}

	_ = b.OutputPath()
	_ = b.Parameters()
	_ = b.Wrapper()
	if a.s != b.s {
		t.Fatalf("reads must not copy storage")
	}

	a.SetOutputPath("after")
	if a.OutputPath() != "after" {
		t.Fatalf("writer should observe new value, got %q", a.OutputPath())
	}
	if b.OutputPath() != "before" {
		t.Fatalf("snapshot should keep old value, got %q", b.OutputPath())
	}
	if a.s == b.s {
		t.Fatalf("expected storage to diverge after write")
	}
	if a.s.refs.Load() != 1 || b.s.refs.Load() != 1 {
		t.Fatalf("expected sole ownership after copy: a=%d b=%d", a.s.refs.Load(), b.s.refs.Load())
	}
	if !equalParams(a.Parameters(), b.Parameters()) {
		t.Fatalf("unwritten fields should still match")
	}
}

func TestUniqueOwnerWritesInPlace(t *testing.T) {
	testlog.Start(t)
	a := NewRequest()
	a.SetOutputPath("x")
	s := a.s
	a.SetOutputPath("y")
	a.AddParameter(Parameter{Name: "p"})
	if a.s != s {
		t.Fatalf("sole owner should not copy storage")
	}
}

func TestCloneSnapshotIsolationPerField(t *testing.T) {
	testlog.Start(t)
	base := NewRequest()
	base.SetWrapper(Wrapper{Name: "doc", Value: []byte{1, 2, 3}})
	base.SetOutputPath("out")
	base.SetParameters([]Parameter{{Name: "a", Value: "1"}})
	base.SetCompilerVersion(Version{Major: 1})

	mutations := []struct {
		name   string
		mutate func(r *Request)
	}{
		{"wrapper", func(r *Request) { r.SetWrapper(Wrapper{Name: "other"}) }},
		{"clear wrapper", func(r *Request) { r.ClearWrapper() }},
		{"output path", func(r *Request) { r.SetOutputPath("elsewhere") }},
		{"add parameter", func(r *Request) { r.AddParameter(Parameter{Name: "b", Value: "2"}) }},
		{"set parameters", func(r *Request) { r.SetParameters(nil) }},
		{"compiler version", func(r *Request) { r.SetCompilerVersion(Version{Major: 2}) }},
		{"clear compiler version", func(r *Request) { r.ClearCompilerVersion() }},
		{"unknown", func(r *Request) { r.SetUnknown([]byte{0x98, 0x06, 0x01}) }},
		{"unmarshal", func(r *Request) {
			if err := r.Unmarshal([]byte{0x12, 0x01, 'z'}); err != nil {
				panic(err)
			}
		}},
	}
	for _, m := range mutations {
		t.Run(m.name, func(t *testing.T) {
			a := base.Clone()
			snapshot := a.Clone()
			before := a.Marshal()

			m.mutate(a)

			if a.Equal(snapshot) {
				t.Fatalf("mutation %q not visible to writer", m.name)
			}
			if got := snapshot.Marshal(); string(got) != string(before) {
				t.Fatalf("snapshot changed after %q", m.name)
			}
			if !snapshot.Equal(base) {
				t.Fatalf("base changed after %q", m.name)
			}
		})
	}
}

func TestParametersGetterReturnsCopy(t *testing.T) {
	testlog.Start(t)
	a := NewRequest()
	a.AddParameter(Parameter{Name: "a", Value: "1"})
	params := a.Parameters()
	params[0].Value = "mutated"
	if v, _ := a.LookupParameter("a"); v != "1" {
		t.Fatalf("getter leaked storage, got %q", v)
	}
}

func TestGetterResultsDoNotReachSharedStorage(t *testing.T) {
	testlog.Start(t)
	a := NewRequest()
	a.AddParameter(Parameter{Name: "x", Unknown: []byte{0x98, 0x06, 0x05}})
	a.SetWrapper(Wrapper{Name: "doc", Value: []byte{1, 2, 3}, Unknown: []byte{0x98, 0x06, 0x01}})
	a.SetCompilerVersion(Version{Major: 1, Unknown: []byte{0x98, 0x06, 0x02}})
	a.SetUnknown([]byte{0x98, 0x06, 0x03})
	c := a.Clone()
	want := c.Marshal()

	a.Parameters()[0].Unknown[2] = 0x07
	w := a.Wrapper()
	w.Value[0] = 0xff
	w.Unknown[2] = 0x07
	a.CompilerVersion().Unknown[2] = 0x07
	a.Unknown()[2] = 0x07

	if got := c.Marshal(); !bytes.Equal(got, want) {
		t.Fatalf("snapshot mutated through getter results:\n got %x\nwant %x", got, want)
	}
	if got := a.Marshal(); !bytes.Equal(got, want) {
		t.Fatalf("writer mutated through getter results:\n got %x\nwant %x", got, want)
	}
	if a.s != c.s {
		t.Fatalf("getters must not copy storage")
	}
}

func TestSetterArgumentsAreCopied(t *testing.T) {
	testlog.Start(t)
	param := Parameter{Name: "x", Unknown: []byte{0x98, 0x06, 0x05}}
	value := []byte{1, 2, 3}
	params := []Parameter{{Name: "y", Unknown: []byte{0x98, 0x06, 0x06}}}

	a := NewRequest()
	a.AddParameter(param)
	a.SetParameters(append(a.Parameters(), params...))
	a.SetWrapper(Wrapper{Name: "doc", Value: value})
	snapshot := a.Clone()
	want := snapshot.Marshal()

	param.Unknown[2] = 0x07
	params[0].Unknown[2] = 0x07
	value[0] = 0xff

	if got := a.Marshal(); !bytes.Equal(got, want) {
		t.Fatalf("request aliased caller memory:\n got %x\nwant %x", got, want)
	}
}

func TestZeroRequestIsUsable(t *testing.T) {
	testlog.Start(t)
	var r Request
	if r.HasWrapper() || r.OutputPath() != "" || r.Size() != 0 {
		t.Fatalf("zero request should read as empty")
	}
	c := r.Clone()
	r.SetOutputPath("p")
	if c.OutputPath() != "" {
		t.Fatalf("clone of empty request observed later write")
	}
	if emptyRequestStorage.outputPath != "" {
		t.Fatalf("shared empty storage was mutated")
	}
}

func TestConcurrentWritersOnSharedStorage(t *testing.T) {
	testlog.Start(t)
	base := NewRequest()
	base.SetOutputPath("base")

	const workers = 8
	clones := make([]*Request, workers)
	for i := range clones {
		clones[i] = base.Clone()
	}

	var wg sync.WaitGroup
	for i, c := range clones {
		wg.Add(1)
		go func(i int, c *Request) {
			defer wg.Done()
			c.SetOutputPath(fmt.Sprintf("worker-%d", i))
			c.AddParameter(Parameter{Name: "i", Value: fmt.Sprint(i)})
		}(i, c)
	}
	wg.Wait()

	if base.OutputPath() != "base" || len(base.Parameters()) != 0 {
		t.Fatalf("base mutated by clones: %q %v", base.OutputPath(), base.Parameters())
	}
	for i, c := range clones {
		if c.OutputPath() != fmt.Sprintf("worker-%d", i) {
			t.Fatalf("clone %d: unexpected output path %q", i, c.OutputPath())
		}
		if v, ok := c.LookupParameter("i"); !ok || v != fmt.Sprint(i) {
			t.Fatalf("clone %d: unexpected parameter %q", i, v)
		}
	}
}

func equalParams(a, b []Parameter) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
