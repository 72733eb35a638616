package cwl_test

import (
	"io/ioutil"
	"os"
	"testing"

	cwl "github.com/lijiang2014/cwl.inspect"
)

func loadTestProcess(t *testing.T, name string) cwl.Process {
	t.Helper()
	doc, err := cwl.LoadFile("testdata/"+name, true)
	if err != nil {
		t.Fatal(err)
	}
	return doc.Process
}

func TestCWL_tool_echo(t *testing.T) {
	file, err := os.Open("testdata/echo.cwl")
	if err != nil {
		t.Fatal(err)
	}
	raw, err := ioutil.ReadAll(file)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := cwl.LoadBytes(raw, "testdata", "", true)
	if err != nil {
		t.Fatal(err)
	}
	p, ok := doc.Process.(*cwl.CommandLineTool)
	if !ok {
		t.Fatalf("not CommandLineTool : %#v", doc.Process)
	}
	if p.ClassName() != "CommandLineTool" {
		t.Fatal("ClassName", p.ClassName())
	}
	pass := p.CWLVersion == "v1.0" &&
		len(p.BaseCommands) == 1 && p.BaseCommands[0] == "cowsay" &&
		len(p.Inputs) == 1 && p.Inputs[0].ID == "input" &&
		len(p.Outputs) == 1 && p.Outputs[0].ID == "output" &&
		p.Stdout == "output"
	if !pass {
		t.Fatalf("%#v", p)
	}
	// successCodes defaults to [0]
	if len(p.SuccessCodes) != 1 || p.SuccessCodes[0] != 0 {
		t.Fatalf("successCodes %#v", p.SuccessCodes)
	}
	if len(p.TemporaryFailCodes) != 0 || len(p.PermanentFailCodes) != 0 {
		t.Fatalf("fail codes %#v %#v", p.TemporaryFailCodes, p.PermanentFailCodes)
	}

	in := p.Inputs[0]
	pass = in.Label == "Input string" &&
		in.InputBinding != nil &&
		in.InputBinding.Position.MustInt() == 1 &&
		in.InputBinding.Separate && in.InputBinding.ShellQuote
	if !pass {
		t.Fatalf("input %#v", in)
	}
	// string? desugars to [null, string]
	if !in.Type.IsMulti() || !in.Type.IsNullable() {
		t.Fatalf("input type %s", in.Type.TypeName())
	}

	if hint := p.HintsDocker(); hint == nil || hint.DockerPull != "docker/whalesay" {
		t.Fatalf("docker hint %#v", hint)
	}
	if req := p.RequiresDocker(); req != nil {
		t.Fatal("docker must be a hint, not a requirement")
	}
}

func TestCWL_stdout_synthesis(t *testing.T) {
	raw := []byte(`
cwlVersion: v1.0
class: CommandLineTool
baseCommand: date
inputs: []
outputs:
  - id: out
    type: stdout
`)
	doc, err := cwl.LoadBytes(raw, ".", "", true)
	if err != nil {
		t.Fatal(err)
	}
	p := doc.Process.(*cwl.CommandLineTool)
	if p.Stdout == "" {
		t.Fatal("a stdout-typed output must force a stdout filename")
	}
}

func TestCWL_workflow(t *testing.T) {
	p, ok := loadTestProcess(t, "workflow.cwl").(*cwl.Workflow)
	if !ok {
		t.Fatal("not Workflow")
	}
	pass := len(p.Steps) == 2 &&
		p.Steps.Get("untar") != nil &&
		p.Steps.Get("compile") != nil
	if !pass {
		t.Fatalf("steps %#v", p.Steps)
	}
	untar := p.Steps.Get("untar")
	if untar.Run.Ref != "tar-param.cwl" {
		t.Fatalf("run %#v", untar.Run)
	}
	if len(untar.In) != 2 || len(untar.Out) != 1 || untar.Out[0].ID != "example_out" {
		t.Fatalf("step io %#v %#v", untar.In, untar.Out)
	}
	// the mapping form of inputs lifts ids from the keys
	if p.Inputs.Get("inp") == nil || p.Inputs.Get("ex") == nil {
		t.Fatalf("inputs %#v", p.Inputs)
	}
	if p.Outputs.Get("classout") == nil ||
		len(p.Outputs.Get("classout").OutputSource) != 1 {
		t.Fatalf("outputs %#v", p.Outputs)
	}
}

func TestCWL_expression_tool(t *testing.T) {
	p, ok := loadTestProcess(t, "expr-tool.cwl").(*cwl.ExpressionTool)
	if !ok {
		t.Fatal("not ExpressionTool")
	}
	if p.Expression == "" {
		t.Fatal("no expression")
	}
	if p.RequiresInlineJavascript() == nil {
		t.Fatal("InlineJavascriptRequirement not parsed")
	}
}

func TestCWL_unknown_requirement(t *testing.T) {
	raw := []byte(`
cwlVersion: v1.0
class: CommandLineTool
baseCommand: date
requirements:
  - class: FancyNewRequirement
inputs: []
outputs: []
`)
	_, err := cwl.LoadBytes(raw, ".", "", true)
	if err == nil {
		t.Fatal("unknown class in requirements must fail")
	}
	if _, ok := err.(*cwl.ParseError); !ok {
		t.Fatalf("want ParseError, got %T", err)
	}
}

func TestCWL_unknown_hint_is_opaque(t *testing.T) {
	raw := []byte(`
cwlVersion: v1.0
class: CommandLineTool
baseCommand: date
hints:
  FancyNewHint:
    color: green
inputs: []
outputs: []
`)
	doc, err := cwl.LoadBytes(raw, ".", "", true)
	if err != nil {
		t.Fatal(err)
	}
	hints := doc.Process.Base().Hints
	if len(hints) != 1 {
		t.Fatalf("hints %#v", hints)
	}
	unk, ok := hints[0].(*cwl.UnknownRequirement)
	if !ok || unk.ClassName() != "FancyNewHint" || unk.Bag["color"] != "green" {
		t.Fatalf("hint %#v", hints[0])
	}
}

func TestCWL_version_check(t *testing.T) {
	raw := []byte(`
cwlVersion: v1.2
class: CommandLineTool
baseCommand: date
inputs: []
outputs: []
`)
	if _, err := cwl.LoadBytes(raw, ".", "", true); err == nil {
		t.Fatal("v1.2 must be rejected")
	}
}

func TestCWL_duplicated_input_id(t *testing.T) {
	raw := []byte(`
cwlVersion: v1.0
class: CommandLineTool
baseCommand: date
inputs:
  - id: x
    type: string
  - id: x
    type: int
outputs: []
`)
	if _, err := cwl.LoadBytes(raw, ".", "", true); err == nil {
		t.Fatal("duplicated ids must fail")
	}
}
