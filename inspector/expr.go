package inspector

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/robertkrimen/otto"

	cwl "github.com/lijiang2014/cwl.inspect"
)

// Uninstantiated marks an input the job did not supply; downstream
// components render and evaluate it symbolically.
type Uninstantiated string

func (u Uninstantiated) String() string { return "$" + string(u) }

// Invalid retains a job entry whose id is not declared on the process.
// It passes through coercion but poisons any evaluation that reads it.
type Invalid struct {
	ID    string
	Value cwl.Value
}

// Evaled is the sentinel result of an evaluation that could not call
// out because an input was uninstantiated.
type Evaled string

func (e Evaled) String() string { return "evaled(" + string(e) + ")" }

// ExpPart is one segment of a string: literal text, a parameter
// reference, or a javascript fragment.
type ExpPart struct {
	Raw        string
	Expr       string
	Start, End int
	// IsFuncBody is true for ${ body } fragments.
	IsFuncBody bool
}

// ScanExpressions segments a string into literal text and embedded
// expressions. `$(` and `${` are matched greedily to their balancing
// close, honoring nested braces, parens and string literals; when both
// could match, whichever appears earliest wins.
func ScanExpressions(e string) []*ExpPart {
	var parts []*ExpPart
	last := 0
	i := 0
	for i < len(e) {
		pi := strings.Index(e[i:], "$(")
		bi := strings.Index(e[i:], "${")
		if pi < 0 && bi < 0 {
			break
		}
		var start int
		funcBody := false
		if bi < 0 || (pi >= 0 && pi < bi) {
			start = i + pi
		} else {
			start = i + bi
			funcBody = true
		}
		closer := byte(')')
		if funcBody {
			closer = '}'
		}
		end := matchBalanced(e, start+2, closer)
		if end < 0 {
			// unterminated; the rest is literal text
			break
		}
		if start > last {
			parts = append(parts, &ExpPart{Raw: e[last:start], Start: last, End: start})
		}
		parts = append(parts, &ExpPart{
			Raw:        e[start : end+1],
			Expr:       e[start+2 : end],
			Start:      start,
			End:        end + 1,
			IsFuncBody: funcBody,
		})
		last = end + 1
		i = end + 1
	}
	if last < len(e) {
		parts = append(parts, &ExpPart{Raw: e[last:], Start: last, End: len(e)})
	}
	return parts
}

// matchBalanced finds the index of the close byte balancing the
// bracket opened just before from, skipping nested `()`/`{}` pairs and
// string literals.
func matchBalanced(e string, from int, close byte) int {
	depthParen, depthBrace := 0, 0
	for i := from; i < len(e); i++ {
		c := e[i]
		switch c {
		case '\'', '"', '`':
			quote := c
			for i++; i < len(e); i++ {
				if e[i] == '\\' {
					i++
					continue
				}
				if e[i] == quote {
					break
				}
			}
			if i >= len(e) {
				return -1
			}
		case '(':
			depthParen++
		case ')':
			if close == ')' && depthParen == 0 && depthBrace == 0 {
				return i
			}
			depthParen--
		case '{':
			depthBrace++
		case '}':
			if close == '}' && depthParen == 0 && depthBrace == 0 {
				return i
			}
			depthBrace--
		}
	}
	return -1
}

// jsvm evaluates expressions against an environment of inputs, runtime
// and self. When InlineJavascriptRequirement is absent only parameter
// references are recognized.
type jsvm struct {
	vm        *otto.Otto
	libs      []string
	inputs    map[string]interface{}
	runtime   map[string]interface{}
	jsEnabled bool
}

func newJSVM(jsEnabled bool, libs []string) *jsvm {
	return &jsvm{
		vm:        otto.New(),
		libs:      libs,
		jsEnabled: jsEnabled,
		inputs:    map[string]interface{}{},
	}
}

func (j *jsvm) setInput(name string, v interface{}) {
	j.inputs[name] = v
}

func (j *jsvm) hasUninstantiated() bool {
	for _, v := range j.inputs {
		if _, ok := v.(Uninstantiated); ok {
			return true
		}
	}
	return false
}

// Eval locates the expressions embedded in e, evaluates each against
// the environment, and reassembles. A reference that spans the whole
// string keeps its original type; otherwise results are concatenated
// as text.
func (j *jsvm) Eval(e cwl.Expression, self interface{}) (cwl.Value, error) {
	s := string(e)
	parts := ScanExpressions(s)
	hasExpr := false
	for _, p := range parts {
		if p.Expr != "" {
			hasExpr = true
		}
	}
	if !hasExpr {
		return s, nil
	}
	if len(parts) == 1 {
		return j.evalPart(parts[0], self)
	}
	var sb strings.Builder
	for _, p := range parts {
		if p.Expr == "" {
			sb.WriteString(p.Raw)
			continue
		}
		v, err := j.evalPart(p, self)
		if err != nil {
			return nil, err
		}
		sb.WriteString(stringify(v))
	}
	return sb.String(), nil
}

func (j *jsvm) evalPart(part *ExpPart, self interface{}) (cwl.Value, error) {
	if !j.jsEnabled {
		if part.IsFuncBody {
			return nil, cwl.NewInspectionError(
				"javascript body %q needs InlineJavascriptRequirement", part.Raw)
		}
		return j.resolveRef(part, self)
	}
	// an undeclared input poisons any evaluation that reads it
	for id, v := range j.inputs {
		if _, ok := v.(Invalid); !ok {
			continue
		}
		q := regexp.QuoteMeta(id)
		ref := regexp.MustCompile(`inputs(\.` + q + `\b|\[\s*["']` + q + `["']\s*\])`)
		if ref.MatchString(part.Expr) {
			return nil, cwl.NewInspectionError("input %q is not declared by the process", id).WithExpr(part.Raw)
		}
	}
	if j.hasUninstantiated() {
		// must not call out with a symbolic environment
		return Evaled(part.Raw), nil
	}
	code := strings.Join(j.libs, "\n") + "\n"
	if part.IsFuncBody {
		code += "(function(){" + part.Expr + "})()"
	} else {
		code += "(function(){ return (" + part.Expr + "); })()"
	}
	if err := j.vm.Set("inputs", j.exportableInputs()); err != nil {
		return nil, cwl.WrapEvalError(err, part.Raw)
	}
	if err := j.vm.Set("runtime", j.runtime); err != nil {
		return nil, cwl.WrapEvalError(err, part.Raw)
	}
	if self == nil {
		if err := j.vm.Set("self", otto.NullValue()); err != nil {
			return nil, cwl.WrapEvalError(err, part.Raw)
		}
	} else if err := j.vm.Set("self", self); err != nil {
		return nil, cwl.WrapEvalError(err, part.Raw)
	}
	val, err := j.vm.Run(code)
	if err != nil {
		return nil, cwl.WrapEvalError(err, part.Raw)
	}
	ival, _ := val.Export()
	return ival, nil
}

// exportableInputs replaces sentinels with nulls so otto never sees
// them; callers short-circuit before evaluation when sentinels matter.
func (j *jsvm) exportableInputs() map[string]interface{} {
	out := make(map[string]interface{}, len(j.inputs))
	for k, v := range j.inputs {
		switch v.(type) {
		case Uninstantiated, Invalid:
			out[k] = nil
		default:
			out[k] = v
		}
	}
	return out
}

// resolveRef resolves a parameter reference of the grammar
// inputs.<id>(.<field>|[idx])*, self(...)*, or runtime.<attr>.
func (j *jsvm) resolveRef(part *ExpPart, self interface{}) (cwl.Value, error) {
	segs, err := splitRef(part.Expr)
	if err != nil {
		return nil, cwl.WrapEvalError(err, part.Raw)
	}
	if len(segs) == 0 {
		return nil, cwl.NewInspectionError("empty parameter reference").WithExpr(part.Raw)
	}
	var cur interface{}
	switch segs[0] {
	case "inputs":
		if len(segs) < 2 {
			return nil, cwl.NewInspectionError("bare `inputs` is not a reference").WithExpr(part.Raw)
		}
		v, got := j.inputs[segs[1]]
		if !got {
			return nil, cwl.NewInspectionError("no input named %q", segs[1]).WithExpr(part.Raw)
		}
		if _, ok := v.(Uninstantiated); ok {
			return Evaled(part.Raw), nil
		}
		if inv, ok := v.(Invalid); ok {
			return nil, cwl.NewInspectionError("input %q is not declared by the process", inv.ID).WithExpr(part.Raw)
		}
		cur = v
		segs = segs[2:]
	case "self":
		cur = self
		segs = segs[1:]
	case "runtime":
		if len(segs) != 2 {
			return nil, cwl.NewInspectionError("runtime reference needs exactly one attribute").WithExpr(part.Raw)
		}
		switch segs[1] {
		case "outdir", "tmpdir", "cores", "ram":
			return j.runtime[segs[1]], nil
		}
		return nil, cwl.NewInspectionError("unknown runtime attribute %q", segs[1]).WithExpr(part.Raw)
	default:
		return nil, cwl.NewInspectionError("reference must start with inputs, self or runtime").WithExpr(part.Raw)
	}
	for _, seg := range segs {
		cur2, err := access(cur, seg)
		if err != nil {
			return nil, cwl.WrapEvalError(err, part.Raw)
		}
		cur = cur2
	}
	return cur, nil
}

// splitRef tokenizes `a.b[0]["c"]` into ["a", "b", "0", "c"].
func splitRef(expr string) ([]string, error) {
	var segs []string
	s := strings.TrimSpace(expr)
	i := 0
	start := 0
	flush := func(end int) {
		if end > start {
			segs = append(segs, s[start:end])
		}
	}
	for i < len(s) {
		switch s[i] {
		case '.':
			flush(i)
			i++
			start = i
		case '[':
			flush(i)
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("unterminated index")
			}
			idx := strings.TrimSpace(s[i+1 : i+end])
			idx = strings.Trim(idx, `'"`)
			segs = append(segs, idx)
			i += end + 1
			start = i
		default:
			i++
		}
	}
	flush(len(s))
	return segs, nil
}

func access(cur interface{}, seg string) (interface{}, error) {
	cur = jsonify(cur)
	switch node := cur.(type) {
	case map[string]interface{}:
		v, got := node[seg]
		if !got {
			return nil, fmt.Errorf("no field %q", seg)
		}
		return v, nil
	case []interface{}:
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= len(node) {
			return nil, fmt.Errorf("bad index %q", seg)
		}
		return node[idx], nil
	}
	return nil, fmt.Errorf("cannot access %q in a scalar", seg)
}

// jsonify flattens typed values (File, Directory, ...) into their
// JSON-shaped form for field access and JS evaluation.
func jsonify(v interface{}) interface{} {
	switch v.(type) {
	case nil, bool, string, int, int32, int64, float32, float64,
		map[string]interface{}, []interface{}:
		return v
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

func stringify(v interface{}) string {
	switch z := v.(type) {
	case nil:
		return ""
	case string:
		return z
	case Evaled:
		return z.String()
	case Uninstantiated:
		return z.String()
	case map[string]interface{}, []interface{}:
		raw, err := json.Marshal(z)
		if err == nil {
			return string(raw)
		}
	}
	return fmt.Sprint(v)
}
