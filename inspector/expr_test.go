package inspector

import (
	"testing"

	cwl "github.com/lijiang2014/cwl.inspect"
)

func TestScanExpressions(t *testing.T) {
	parts := ScanExpressions("pre $(inputs.x) post")
	if len(parts) != 3 {
		t.Fatalf("parts %#v", parts)
	}
	if parts[0].Raw != "pre " || parts[1].Expr != "inputs.x" || parts[2].Raw != " post" {
		t.Fatalf("parts %#v", parts)
	}

	// nested parens are matched greedily
	parts = ScanExpressions(`$(f(a, g(b)))`)
	if len(parts) != 1 || parts[0].Expr != "f(a, g(b))" {
		t.Fatalf("parts %#v", parts)
	}

	// nested braces and string literals inside a function body
	parts = ScanExpressions(`${return {"y": inputs.x};}`)
	if len(parts) != 1 || !parts[0].IsFuncBody {
		t.Fatalf("parts %#v", parts)
	}
	if parts[0].Expr != `return {"y": inputs.x};` {
		t.Fatalf("expr %q", parts[0].Expr)
	}

	// a paren inside a string literal does not close the reference
	parts = ScanExpressions(`$("a)b")`)
	if len(parts) != 1 || parts[0].Expr != `"a)b"` {
		t.Fatalf("parts %#v", parts)
	}

	// the earliest opener wins
	parts = ScanExpressions(`a ${ b } c $( d )`)
	if len(parts) != 4 || !parts[1].IsFuncBody || parts[3].Expr != " d " {
		t.Fatalf("parts %#v", parts)
	}

	// no expressions at all
	parts = ScanExpressions("plain text")
	if len(parts) != 1 || parts[0].Expr != "" {
		t.Fatalf("parts %#v", parts)
	}
}

func newTestVM(js bool) *jsvm {
	vm := newJSVM(js, nil)
	vm.runtime = map[string]interface{}{
		"outdir": "/out",
		"tmpdir": "/tmp",
		"cores":  4,
		"ram":    int64(1024),
	}
	return vm
}

func TestEval_paramRef(t *testing.T) {
	vm := newTestVM(false)
	vm.setInput("x", int64(42))
	vm.setInput("f", map[string]interface{}{"path": "/in/a.txt", "basename": "a.txt"})

	// a reference spanning the whole string keeps its type
	out, err := vm.Eval(cwl.Expression("$(inputs.x)"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := out.(int64); !ok || v != 42 {
		t.Fatalf("%#v", out)
	}

	// embedded in text it becomes a string
	out, err = vm.Eval(cwl.Expression("n=$(inputs.x)!"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "n=42!" {
		t.Fatalf("%#v", out)
	}

	out, err = vm.Eval(cwl.Expression("$(inputs.f.path)"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "/in/a.txt" {
		t.Fatalf("%#v", out)
	}

	out, err = vm.Eval(cwl.Expression("$(runtime.outdir)"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "/out" {
		t.Fatalf("%#v", out)
	}

	// runtime has no docdir attribute
	if _, err = vm.Eval(cwl.Expression("$(runtime.docdir)"), nil); err == nil {
		t.Fatal("docdir must not be visible to expressions")
	}

	// self access
	out, err = vm.Eval(cwl.Expression("$(self[0])"), []interface{}{"first"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "first" {
		t.Fatalf("%#v", out)
	}
}

func TestEval_uninstantiated(t *testing.T) {
	vm := newTestVM(false)
	vm.setInput("x", Uninstantiated("x"))
	out, err := vm.Eval(cwl.Expression("$(inputs.x)"), nil)
	if err != nil {
		t.Fatal(err)
	}
	e, ok := out.(Evaled)
	if !ok {
		t.Fatalf("%#v", out)
	}
	if e.String() != "evaled($(inputs.x))" {
		t.Fatalf("%q", e.String())
	}

	// javascript must not be called out to either
	vm = newTestVM(true)
	vm.setInput("x", Uninstantiated("x"))
	out, err = vm.Eval(cwl.Expression("$(inputs.x + 1)"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := out.(Evaled); !ok {
		t.Fatalf("%#v", out)
	}
}

func TestEval_javascript(t *testing.T) {
	vm := newTestVM(true)
	vm.setInput("x", int64(41))

	out, err := vm.Eval(cwl.Expression("$(inputs.x + 1)"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if n, ok := out.(float64); !ok || n != 42 {
		if n2, ok2 := out.(int64); !ok2 || n2 != 42 {
			t.Fatalf("%#v", out)
		}
	}

	out, err = vm.Eval(cwl.Expression(`${return inputs.x * 2;}`), nil)
	if err != nil {
		t.Fatal(err)
	}
	if n, ok := out.(float64); !ok || n != 82 {
		if n2, ok2 := out.(int64); !ok2 || n2 != 82 {
			t.Fatalf("%#v", out)
		}
	}

	// thrown exceptions are reported as InspectionError with the
	// offending text preserved
	_, err = vm.Eval(cwl.Expression(`$(null.x)`), nil)
	ie, ok := err.(*cwl.InspectionError)
	if !ok {
		t.Fatalf("want InspectionError, got %T", err)
	}
	if ie.Expr != "$(null.x)" {
		t.Fatalf("expr %q", ie.Expr)
	}
}

func TestEval_expressionLib(t *testing.T) {
	vm := newJSVM(true, []string{"function double(n) { return 2*n; }"})
	vm.runtime = map[string]interface{}{}
	out, err := vm.Eval(cwl.Expression("$(double(21))"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if n, ok := out.(float64); !ok || n != 42 {
		if n2, ok2 := out.(int64); !ok2 || n2 != 42 {
			t.Fatalf("%#v", out)
		}
	}
}

func TestEval_funcBody_needs_requirement(t *testing.T) {
	vm := newTestVM(false)
	if _, err := vm.Eval(cwl.Expression("${return 1;}"), nil); err == nil {
		t.Fatal("function body without InlineJavascriptRequirement must fail")
	}
}
