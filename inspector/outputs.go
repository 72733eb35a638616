package inspector

import (
	"encoding/json"
	"strings"

	cwl "github.com/lijiang2014/cwl.inspect"
)

// ListOutputs predicts the output files and values the process would
// produce, without executing anything. Globs are resolved
// symbolically against the runtime outdir.
func (p *Process) ListOutputs() (cwl.Values, error) {
	if p.exprTool != nil {
		return p.listExpressionOutputs()
	}
	outputs := cwl.Values{}
	for _, out := range p.tool.Outputs {
		v, err := p.predictOutput(&out)
		if err != nil {
			return nil, cwl.NewInspectionError("failed to predict %q: %s", out.ID, err)
		}
		outputs[out.ID] = v
	}
	return outputs, nil
}

func (p *Process) predictOutput(out *cwl.OutputParameter) (cwl.Value, error) {
	if len(out.SecondaryFiles) > 0 {
		return nil, cwl.NewInspectionError("secondaryFiles prediction is not supported")
	}
	switch out.Type.TypeName() {
	case "stdout":
		return p.predictedFile(p.stdout), nil
	case "stderr":
		return p.predictedFile(p.stderr), nil
	}
	if out.OutputBinding == nil {
		if out.Type.IsNullable() {
			return nil, nil
		}
		return nil, cwl.NewInspectionError("output has no binding")
	}
	if out.OutputBinding.OutputEval != "" && len(out.OutputBinding.Glob) == 0 {
		v, err := p.Eval(out.OutputBinding.OutputEval, nil)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	files := []cwl.Value{}
	for _, glob := range out.OutputBinding.Glob {
		pattern, err := p.evalToString(glob)
		if err != nil {
			return nil, err
		}
		for _, pat := range strings.Fields(pattern) {
			files = append(files, p.predictedFile(pat))
		}
	}
	if out.Type.TypeName() == "File" && len(files) == 1 {
		return files[0], nil
	}
	return files, nil
}

func (p *Process) predictedFile(name string) cwl.File {
	path := joinOutdir(p.runtime.Outdir, name)
	f := cwl.File{Path: path}
	f.Class = "File"
	f.Basename = name
	return f
}

// listExpressionOutputs evaluates the tool expression and shapes the
// result as the output values.
func (p *Process) listExpressionOutputs() (cwl.Values, error) {
	out, err := p.Eval(p.exprTool.Expression, nil)
	if err != nil {
		return nil, err
	}
	if e, ok := out.(Evaled); ok {
		values := cwl.Values{}
		for _, o := range p.exprTool.Outputs {
			values[o.ID] = e.String()
		}
		return values, nil
	}
	raw, err := json.Marshal(jsonify(out))
	if err != nil {
		return nil, cwl.NewInspectionError("expression result is not serializable: %s", err)
	}
	values := cwl.Values{}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, cwl.NewInspectionError("expression result is not an output mapping: %s", err)
	}
	return values, nil
}
