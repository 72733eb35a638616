package inspector

import (
	"encoding/json"
	"sort"
	"strings"

	cwl "github.com/lijiang2014/cwl.inspect"
)

// argType marks bindings that came from "arguments" rather than from a
// typed input.
const argType = "_argument_"

// CommandLine materializes the exact shell line that would execute the
// process. It is a pure function of the process: two calls return the
// same string.
func (p *Process) CommandLine() (string, error) {
	if p.exprTool != nil {
		return p.expressionToolLine()
	}

	docker, preamble, err := p.dockerPreamble()
	if err != nil {
		return "", err
	}

	argv, err := p.argv()
	if err != nil {
		return "", err
	}

	redirs, err := p.redirections()
	if err != nil {
		return "", err
	}

	if docker {
		parts := append(preamble, argv...)
		return strings.Join(append(parts, redirs...), " "), nil
	}

	// without a container: env preamble, shell wrapper, cd ~ first
	env := []string{"env", "HOME=" + p.runtime.Outdir, "TMPDIR=" + p.runtime.Tmpdir}
	for _, k := range sortedKeys(p.env) {
		env = append(env, k+"='"+p.env[k]+"'")
	}
	inner := "cd ~ && " + strings.Join(argv, " ")
	parts := append(env, shellPath(false), "-c", squote(inner))
	return strings.Join(append(parts, redirs...), " "), nil
}

// argv renders baseCommand plus every sorted binding.
func (p *Process) argv() ([]string, error) {
	args := make([]*Binding, 0, len(p.bindings))

	// input parameters contribute when they carry a binding or are of
	// a constructed type
	for _, b := range flatBinding(p.bindings, true) {
		args = append(args, b)
	}

	// standalone arguments
	for i, arg := range p.tool.Arguments {
		if arg.Binding == nil {
			if arg.Exp == "" {
				return nil, cwl.NewInspectionError("empty argument")
			}
			val, err := p.Eval(arg.Exp, nil)
			if err != nil {
				return nil, err
			}
			b := &Binding{nil, inferAnyType(val), val, sortKey{0, i}, nil, ""}
			b.Type = argValueType(val, b.Type)
			args = append(args, b)
			continue
		}
		if arg.Binding.ValueFrom == "" {
			return nil, cwl.NewInspectionError("valueFrom is required but missing for argument %d", i)
		}
		args = append(args, &Binding{arg.Binding, cwl.NewType(argType), nil, sortKey{getPos(arg.Binding), i}, nil, ""})
	}

	// evaluate valueFrom with self bound to the current value
	for i, b := range args {
		if b.clb == nil || b.clb.ValueFrom == "" {
			continue
		}
		if _, ok := b.Value.(Uninstantiated); ok {
			// keep the sentinel; evaluation would be symbolic anyway
			continue
		}
		val, err := p.Eval(b.clb.ValueFrom, exportValue(b.Value))
		if err != nil {
			return nil, cwl.NewInspectionError("failed to eval argument value: %s", err)
		}
		nb := &Binding{b.clb, argValueType(val, inferAnyType(val)), val, b.sortKey, nil, b.name}
		if nb.Type.IsArray() {
			items := nb.Type.MustArraySchema().Items
			vals, _ := toValueSlice(val)
			for j, vi := range vals {
				nb.nested = append(nb.nested, &Binding{nil, items, vi, append(append(sortKey{}, b.sortKey...), j), nil, ""})
			}
		}
		args[i] = nb
	}

	sort.Stable(bySortKey(args))

	cmd := []string{}
	for _, c := range p.tool.BaseCommands {
		cmd = append(cmd, dquote(c))
	}
	for _, b := range args {
		tokens, err := p.bindArgs(b)
		if err != nil {
			return nil, err
		}
		cmd = append(cmd, tokens...)
	}
	return cmd, nil
}

// argValueType re-infers the rendered type of an evaluated value,
// keeping strings renderable as quoted literals.
func argValueType(val cwl.Value, inferred cwl.SaladType) cwl.SaladType {
	if _, ok := val.(Evaled); ok {
		return cwl.NewType("string")
	}
	return inferred
}

// flatBinding selects the bindings that contribute to the command
// line: checkClb keeps those with an explicit binding or a constructed
// type, descending into nested bindings otherwise.
func flatBinding(nested []*Binding, checkClb bool) []*Binding {
	outs := make([]*Binding, 0, len(nested))
	for i, bi := range nested {
		contributes := bi.clb != nil
		if !contributes {
			switch bi.Type.TypeName() {
			case "record", "enum", "array":
				contributes = bi.name != ""
			}
		}
		if checkClb && contributes {
			outs = append(outs, nested[i])
		} else if bi.nested != nil {
			outs = append(outs, flatBinding(nested[i].nested, checkClb)...)
		} else if !checkClb {
			outs = append(outs, nested[i])
		}
	}
	return outs
}

// redirections renders the stdio redirect tokens.
func (p *Process) redirections() ([]string, error) {
	out := []string{}
	if p.stdin != "" {
		path := p.stdin
		if !strings.HasPrefix(path, "/") && len(p.runtime.DocDirs) > 0 {
			path = p.runtime.DocDirs[0] + "/" + path
		}
		out = append(out, "<", path)
	}
	if p.stdout != "" {
		out = append(out, ">", joinOutdir(p.runtime.Outdir, p.stdout))
	}
	if p.stderr != "" {
		out = append(out, "2>", joinOutdir(p.runtime.Outdir, p.stderr))
	}
	return out, nil
}

func joinOutdir(outdir, name string) string {
	if strings.HasPrefix(name, "/") {
		return name
	}
	return outdir + "/" + name
}

// expressionToolLine materializes the echo line that writes
// cwl.output.json for an ExpressionTool.
func (p *Process) expressionToolLine() (string, error) {
	out, err := p.Eval(p.exprTool.Expression, nil)
	if err != nil {
		return "", err
	}
	var raw []byte
	switch v := out.(type) {
	case Evaled:
		raw = []byte(v.String())
	default:
		raw, err = json.Marshal(jsonify(out))
		if err != nil {
			return "", cwl.NewInspectionError("expression result is not serializable: %s", err)
		}
	}
	return "echo " + squote(string(raw)) + " > cwl.output.json", nil
}

// squote wraps in single quotes, escaping embedded single quotes the
// POSIX way.
func squote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
