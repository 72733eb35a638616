package cwl_test

import (
	"testing"

	cwl "github.com/lijiang2014/cwl.inspect"
)

func TestLoadFile_missing(t *testing.T) {
	_, err := cwl.LoadFile("testdata/no-such-file.cwl", true)
	if err == nil {
		t.Fatal("missing file must fail")
	}
	if _, ok := err.(*cwl.ParseError); !ok {
		t.Fatalf("want ParseError, got %T", err)
	}
}

func TestLoadBytes_malformed(t *testing.T) {
	_, err := cwl.LoadBytes([]byte("a: b\n  c: d\n :"), ".", "", true)
	if err == nil {
		t.Fatal("malformed YAML must fail")
	}
	if _, ok := err.(*cwl.ParseError); !ok {
		t.Fatalf("want ParseError, got %T", err)
	}
}

func TestLoad_import(t *testing.T) {
	doc, err := cwl.LoadFile("testdata/import.cwl", true)
	if err != nil {
		t.Fatal(err)
	}
	req := doc.Process.Base().RequiresEnvVar()
	if req == nil {
		t.Fatal("$import of the EnvVarRequirement was not expanded")
	}
	if len(req.EnvDef) != 1 || req.EnvDef[0].EnvName != "MESSAGE" {
		t.Fatalf("envDef %#v", req.EnvDef)
	}
}

func TestLoad_without_preprocess(t *testing.T) {
	_, err := cwl.LoadFile("testdata/import.cwl", false)
	if err == nil {
		t.Fatal("the raw $import mapping is not a requirement; loading must fail")
	}
}

func TestLoad_fragment(t *testing.T) {
	doc, err := cwl.LoadFile("testdata/echo.cwl", true)
	if err != nil {
		t.Fatal(err)
	}
	if _, got := doc.Fragments["echo"]; !got {
		t.Fatalf("fragment table misses the tool id: %v", doc.Fragments)
	}
	if _, got := doc.Fragments["input"]; !got {
		t.Fatalf("fragment table misses the input id: %v", doc.Fragments)
	}
	// loading by fragment selects the node
	doc2, err := cwl.LoadFile("testdata/echo.cwl#echo", true)
	if err != nil {
		t.Fatal(err)
	}
	if doc2.Process.ClassName() != "CommandLineTool" {
		t.Fatal("fragment did not resolve to the tool")
	}
	if _, err := cwl.LoadFile("testdata/echo.cwl#nope", true); err == nil {
		t.Fatal("unresolved fragment must fail")
	}
}

func TestValues_decode(t *testing.T) {
	values := cwl.NewValues()
	if err := values.DecodeBytes([]byte(`{"input": "Hello!"}`), ".json"); err != nil {
		t.Fatal(err)
	}
	if (*values)["input"] != "Hello!" {
		t.Fatalf("%#v", values)
	}
	values = cwl.NewValues()
	err := values.DecodeBytes([]byte("src:\n  class: File\n  path: x.txt\n"), ".yml")
	if err != nil {
		t.Fatal(err)
	}
	f, ok := (*values)["src"].(cwl.File)
	if !ok || f.Path != "x.txt" {
		t.Fatalf("%#v", (*values)["src"])
	}
}
