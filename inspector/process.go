package inspector

import (
	"fmt"

	cwl "github.com/lijiang2014/cwl.inspect"
)

// Process couples a loaded document with a job binding and a runtime
// so commands, expressions and outputs can be inspected. The fields
// are set at construction; the one later change is the in-container
// path rewrite CommandLine applies to staged inputs under docker,
// which is idempotent, so repeated inspections return the same result.
type Process struct {
	doc       *cwl.Document
	root      cwl.Process
	tool      *cwl.CommandLineTool
	exprTool  *cwl.ExpressionTool
	runtime   Runtime
	bindings  []*Binding
	invalid   map[string]cwl.Value
	env       map[string]string
	vm        *jsvm
	dockerReq *cwl.DockerRequirement
	shell     bool
	stdin     string
	stdout    string
	stderr    string
}

// NewProcess binds a document to a job. A nil values means no job was
// supplied: every input without a default becomes an Uninstantiated
// sentinel.
func NewProcess(doc *cwl.Document, values *cwl.Values, rt Runtime) (*Process, error) {
	p := &Process{
		doc:     doc,
		root:    doc.Process,
		runtime: rt,
		invalid: map[string]cwl.Value{},
		env:     map[string]string{},
	}
	switch t := doc.Process.(type) {
	case *cwl.CommandLineTool:
		p.tool = t
	case *cwl.ExpressionTool:
		p.exprTool = t
	case *cwl.Workflow:
		return nil, cwl.NewInspectionError("a workflow has no command line; inspect a step's run instead")
	default:
		return nil, cwl.NewInspectionError("unknown process class %q", doc.Process.ClassName())
	}
	base := doc.Process.Base()

	jsReq := base.RequiresInlineJavascript()
	var libs []string
	if jsReq != nil {
		libs = jsReq.ExpressionLib
	}
	p.vm = newJSVM(jsReq != nil, libs)
	p.shell = base.RequiresShellCommand()

	// inside a container, expressions see the container-side outdir
	// and tmpdir; redirections keep using the host paths.
	p.dockerReq = base.RequiresDocker()
	if p.dockerReq == nil {
		if hint := base.HintsDocker(); hint != nil && dockerDetect() {
			p.dockerReq = hint
		}
	}
	ctx := rt.evalContext()
	if p.dockerReq != nil {
		ctx["outdir"] = containerWorkdir(p.dockerReq)
		ctx["tmpdir"] = "/tmp"
	}
	p.vm.runtime = ctx

	if err := p.bindInputs(base.Inputs, values); err != nil {
		return nil, err
	}
	if err := p.resolveResources(); err != nil {
		return nil, err
	}
	if req := base.RequiresEnvVar(); req != nil {
		if err := p.bindEnvVars(req); err != nil {
			return nil, err
		}
	}
	if p.tool != nil {
		if err := p.resolveStdio(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Process) Runtime() Runtime { return p.runtime }

// Eval evaluates an expression with self bound.
func (p *Process) Eval(e cwl.Expression, self interface{}) (cwl.Value, error) {
	return p.vm.Eval(e, self)
}

// bindInputs coerces every declared input against the job, then keeps
// undeclared job entries as Invalid sentinels.
func (p *Process) bindInputs(inputs cwl.Inputs, values *cwl.Values) error {
	jobKeys := map[string]bool{}
	for _, in := range inputs {
		var val cwl.Value
		supplied := false
		if values != nil {
			val, supplied = (*values)[in.ID]
			jobKeys[in.ID] = true
		}
		if !supplied || val == nil {
			if in.Default != nil {
				val = in.Default
			} else if values == nil {
				val = Uninstantiated(in.ID)
			}
		}
		key := sortKey{getPos(in.InputBinding), in.ID}
		bs, err := p.bindInput(in.ID, in.Type, in.InputBinding, val, key)
		if err != nil {
			return err
		}
		p.bindings = append(p.bindings, bs...)
		for _, b := range bs {
			if b.name == in.ID {
				p.vm.setInput(in.ID, exportValue(b.Value))
			}
		}
	}
	if values != nil {
		for key, val := range *values {
			if !jobKeys[key] {
				p.invalid[key] = val
				p.vm.setInput(key, Invalid{key, val})
			}
		}
	}
	return nil
}

func exportValue(v cwl.Value) interface{} {
	switch v.(type) {
	case Uninstantiated, Invalid, Evaled, nil:
		return v
	}
	return jsonify(v)
}

func (p *Process) bindEnvVars(req *cwl.EnvVarRequirement) error {
	for _, defi := range req.EnvDef {
		value, err := p.Eval(defi.EnvValue, nil)
		if err != nil {
			return err
		}
		p.env[defi.EnvName] = fmt.Sprint(value)
	}
	return nil
}

// Env returns a copy of the user-defined environment.
func (p *Process) Env() map[string]string {
	env := map[string]string{}
	for k, v := range p.env {
		env[k] = v
	}
	return env
}

// resolveStdio evaluates the tool's redirect expressions.
func (p *Process) resolveStdio() error {
	var err error
	if p.tool.Stdin != "" {
		p.stdin, err = p.evalToString(p.tool.Stdin)
		if err != nil {
			return err
		}
	}
	if p.tool.Stdout != "" {
		p.stdout, err = p.evalToString(p.tool.Stdout)
		if err != nil {
			return err
		}
	}
	if p.tool.Stderr != "" {
		p.stderr, err = p.evalToString(p.tool.Stderr)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Process) evalToString(e cwl.Expression) (string, error) {
	out, err := p.Eval(e, nil)
	if err != nil {
		return "", err
	}
	return stringify(out), nil
}
