package inspector

import (
	"strings"
	"testing"

	cwl "github.com/lijiang2014/cwl.inspect"
)

func TestListOutputs_stdout(t *testing.T) {
	withDocker(t, true)
	p := newTestProcess(t, "echo.cwl", nil, "/home/me/work")
	outputs, err := p.ListOutputs()
	if err != nil {
		t.Fatal(err)
	}
	f, ok := outputs["output"].(cwl.File)
	if !ok {
		t.Fatalf("%#v", outputs["output"])
	}
	if f.Path != "/home/me/work/output" {
		t.Fatalf("path %q", f.Path)
	}
}

func TestListOutputs_glob(t *testing.T) {
	withDocker(t, true)
	values := &cwl.Values{"src": cwl.File{Path: "Foo.java"}}
	p := newTestProcess(t, "arguments.cwl", values, "/home/me/work")
	outputs, err := p.ListOutputs()
	if err != nil {
		t.Fatal(err)
	}
	f, ok := outputs["classfile"].(cwl.File)
	if !ok {
		t.Fatalf("%#v", outputs["classfile"])
	}
	if !strings.HasPrefix(f.Path, "/home/me/work/") {
		t.Fatalf("path %q", f.Path)
	}
}

func TestListOutputs_expression_tool(t *testing.T) {
	values := &cwl.Values{"x": 41}
	p := newTestProcess(t, "expr-tool.cwl", values, "/home/me/work")
	outputs, err := p.ListOutputs()
	if err != nil {
		t.Fatal(err)
	}
	switch v := outputs["y"].(type) {
	case float64:
		if v != 42 {
			t.Fatalf("%v", v)
		}
	case int64:
		if v != 42 {
			t.Fatalf("%v", v)
		}
	default:
		t.Fatalf("%#v", outputs["y"])
	}
}

func TestListOutputs_secondary_unsupported(t *testing.T) {
	raw := []byte(`
cwlVersion: v1.0
class: CommandLineTool
baseCommand: samtools
inputs: []
outputs:
  - id: bam
    type: File
    secondaryFiles: [".bai"]
    outputBinding:
      glob: "*.bam"
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
	if _, err := p.ListOutputs(); err == nil {
		t.Fatal("secondaryFiles prediction must fail")
	}
}
