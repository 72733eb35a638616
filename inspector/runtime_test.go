package inspector

import (
	goruntime "runtime"
	"strings"
	"testing"

	cwl "github.com/lijiang2014/cwl.inspect"
)

func TestNewRuntime_docdirs(t *testing.T) {
	rt, err := NewRuntime("/out", "/tmp", "/docs")
	if err != nil {
		t.Fatal(err)
	}
	if rt.Outdir != "/out" || rt.Tmpdir != "/tmp" {
		t.Fatalf("%#v", rt)
	}
	if len(rt.DocDirs) < 3 || rt.DocDirs[0] != "/docs" {
		t.Fatalf("docdirs %v", rt.DocDirs)
	}
	if rt.DocDirs[1] != "/usr/share/commonwl" || rt.DocDirs[2] != "/usr/local/share/commonwl" {
		t.Fatalf("docdirs %v", rt.DocDirs)
	}
	if rt.RAM != 1024 {
		t.Fatalf("default ram %d", rt.RAM)
	}
	// docdir never reaches expressions
	if _, got := rt.evalContext()["docdir"]; got {
		t.Fatal("docdir leaked into the expression context")
	}
}

func TestVardir(t *testing.T) {
	switch goruntime.GOOS {
	case "darwin":
		if vardir() != "/private/var" {
			t.Fatal(vardir())
		}
		if shellPath(false) != "/bin/bash" {
			t.Fatal(shellPath(false))
		}
	default:
		if vardir() != "/var" {
			t.Fatal(vardir())
		}
		if shellPath(false) != "/bin/sh" {
			t.Fatal(shellPath(false))
		}
	}
	if shellPath(true) != "/bin/sh" {
		t.Fatal("containers always use /bin/sh")
	}
}

func resourceTool(t *testing.T, body string) *Process {
	t.Helper()
	raw := []byte(`
cwlVersion: v1.0
class: CommandLineTool
baseCommand: date
requirements:
  ResourceRequirement:
` + body + `
inputs: []
outputs: []
`)
	doc, err := cwl.LoadBytes(raw, ".", "", true)
	if err != nil {
		t.Fatal(err)
	}
	rt, err := NewRuntime("/out", "/tmp", ".")
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewProcess(doc, nil, rt)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestResources_cores(t *testing.T) {
	p := resourceTool(t, "    coresMax: 1\n")
	if p.Runtime().Cores != 1 {
		t.Fatalf("cores %d", p.Runtime().Cores)
	}
}

func TestResources_ram(t *testing.T) {
	p := resourceTool(t, "    ramMax: 512\n")
	if p.Runtime().RAM != 512 {
		t.Fatalf("ram %d", p.Runtime().RAM)
	}
}

func TestResources_conflicts(t *testing.T) {
	raw := []byte(`
cwlVersion: v1.0
class: CommandLineTool
baseCommand: date
requirements:
  ResourceRequirement:
    coresMin: 8
    coresMax: 2
inputs: []
outputs: []
`)
	doc, err := cwl.LoadBytes(raw, ".", "", true)
	if err != nil {
		t.Fatal(err)
	}
	rt, err := NewRuntime("/out", "/tmp", ".")
	if err != nil {
		t.Fatal(err)
	}
	if _, err = NewProcess(doc, nil, rt); err == nil {
		t.Fatal("coresMax below coresMin must fail")
	} else if !strings.Contains(err.Error(), "coresMax") {
		t.Fatal(err)
	}
}

func TestResources_ram_floor(t *testing.T) {
	raw := []byte(`
cwlVersion: v1.0
class: CommandLineTool
baseCommand: date
requirements:
  ResourceRequirement:
    ramMin: 4096
    ramMax: 2048
inputs: []
outputs: []
`)
	doc, err := cwl.LoadBytes(raw, ".", "", true)
	if err != nil {
		t.Fatal(err)
	}
	rt, err := NewRuntime("/out", "/tmp", ".")
	if err != nil {
		t.Fatal(err)
	}
	if _, err = NewProcess(doc, nil, rt); err == nil {
		t.Fatal("ramMax below ramMin must fail")
	}
}
