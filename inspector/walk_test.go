package inspector

import (
	"testing"

	. "github.com/otiai10/mint"

	cwl "github.com/lijiang2014/cwl.inspect"
)

func loadDoc(t *testing.T, name string) *cwl.Document {
	t.Helper()
	doc, err := cwl.LoadFile("../testdata/"+name, true)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestWalk_echo(t *testing.T) {
	doc := loadDoc(t, "echo.cwl")

	v, err := Walk(doc.Process, ".cwlVersion")
	Expect(t, err).ToBe(nil)
	Expect(t, v).ToBe("v1.0")

	v, err = Walk(doc.Process, ".inputs.input.label")
	Expect(t, err).ToBe(nil)
	Expect(t, v).ToBe("Input string")

	// index based access addresses the same node
	v, err = Walk(doc.Process, ".inputs.0.label")
	Expect(t, err).ToBe(nil)
	Expect(t, v).ToBe("Input string")

	v, err = Walk(doc.Process, ".hints.DockerRequirement.dockerPull")
	Expect(t, err).ToBe(nil)
	Expect(t, v).ToBe("docker/whalesay")

	_, err = Walk(doc.Process, ".inputs.nope")
	if err == nil {
		t.Fatal("missing segment must fail")
	}
	if _, ok := err.(*cwl.InspectionError); !ok {
		t.Fatalf("want InspectionError, got %T", err)
	}

	Expect(t, WalkDefault(doc.Process, ".inputs.nope", "fallback")).ToBe("fallback")
}

func TestWalk_workflow_steps(t *testing.T) {
	doc := loadDoc(t, "workflow.cwl")

	keys, err := Keys(doc.Process, ".steps")
	Expect(t, err).ToBe(nil)
	// the mapping form normalizes in lexical order
	Expect(t, keys).ToBe([]string{"compile", "untar"})

	v, err := Walk(doc.Process, ".steps.untar.run")
	Expect(t, err).ToBe(nil)
	Expect(t, v).ToBe("tar-param.cwl")

	v, err = Walk(doc.Process, ".steps.0.run")
	Expect(t, err).ToBe(nil)
	Expect(t, v).ToBe("arguments.cwl")
}

func TestKeys_of_mapping(t *testing.T) {
	doc := loadDoc(t, "echo.cwl")
	keys, err := Keys(doc.Process, ".inputs.input")
	Expect(t, err).ToBe(nil)
	found := false
	for _, k := range keys {
		if k == "label" {
			found = true
		}
	}
	if !found {
		t.Fatalf("keys %v", keys)
	}

	keys, err = Keys(doc.Process, ".inputs")
	Expect(t, err).ToBe(nil)
	Expect(t, keys).ToBe([]string{"input"})

	_, err = Keys(doc.Process, ".cwlVersion")
	if err == nil {
		t.Fatal("keys of a scalar must fail")
	}
}
