package cwl

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// CommandLineBinding describes how a value contributes to the final
// command line.
// @see http://www.commonwl.org/v1.0/CommandLineTool.html#CommandLineBinding
type CommandLineBinding struct {
	LoadContents  *bool          `json:"loadContents,omitempty"`
	Position      *IntExpression `json:"position,omitempty"`
	Prefix        string         `json:"prefix,omitempty"`
	Separate      bool           `json:"separate"`
	ItemSeparator string         `json:"itemSeparator,omitempty"`
	ValueFrom     Expression     `json:"valueFrom,omitempty"`
	ShellQuote    bool           `json:"shellQuote"`
}

func (b *CommandLineBinding) UnmarshalJSON(data []byte) error {
	type rawBinding CommandLineBinding
	raw := rawBinding{Separate: true, ShellQuote: true}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = CommandLineBinding(raw)
	return nil
}

type CommandOutputBinding struct {
	LoadContents *bool           `json:"loadContents,omitempty"`
	Glob         ArrayExpression `json:"glob,omitempty"`
	OutputEval   Expression      `json:"outputEval,omitempty"`
}

// Argument is one element of "arguments": a bare expression or a
// standalone binding.
type Argument struct {
	Exp     Expression
	Binding *CommandLineBinding
}

func (p *Argument) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if data[0] == '{' {
		p.Binding = &CommandLineBinding{}
		return json.Unmarshal(data, p.Binding)
	}
	return json.Unmarshal(data, &p.Exp)
}

func (p Argument) MarshalJSON() ([]byte, error) {
	if p.Binding != nil {
		return json.Marshal(p.Binding)
	}
	return json.Marshal(p.Exp)
}

type Arguments []Argument

// CommandLineTool ...
type CommandLineTool struct {
	ClassBase          `json:",inline"`
	ProcessBase        `json:",inline"`
	BaseCommands       ArrayString `json:"baseCommand,omitempty"`
	Arguments          Arguments   `json:"arguments,omitempty"`
	Stdin              Expression  `json:"stdin,omitempty"`
	Stdout             Expression  `json:"stdout,omitempty"`
	Stderr             Expression  `json:"stderr,omitempty"`
	SuccessCodes       []int       `json:"successCodes,omitempty"`
	TemporaryFailCodes []int       `json:"temporaryFailCodes,omitempty"`
	PermanentFailCodes []int       `json:"permanentFailCodes,omitempty"`
}

func (p *CommandLineTool) UnmarshalJSON(data []byte) error {
	type rawTool struct {
		ClassBase          `json:",inline"`
		CWLVersion         string      `json:"cwlVersion,omitempty"`
		ID                 string      `json:"id,omitempty"`
		Label              string      `json:"label,omitempty"`
		Doc                ArrayString `json:"doc,omitempty"`
		Inputs             Inputs      `json:"inputs"`
		Outputs            Outputs     `json:"outputs"`
		Requirements       Requirements `json:"requirements,omitempty"`
		Hints              Hints        `json:"hints,omitempty"`
		Namespaces         map[string]string `json:"$namespaces,omitempty"`
		Schemas            []string          `json:"$schemas,omitempty"`
		BaseCommands       ArrayString  `json:"baseCommand,omitempty"`
		Arguments          Arguments    `json:"arguments,omitempty"`
		Stdin              Expression   `json:"stdin,omitempty"`
		Stdout             Expression   `json:"stdout,omitempty"`
		Stderr             Expression   `json:"stderr,omitempty"`
		SuccessCodes       []int        `json:"successCodes,omitempty"`
		TemporaryFailCodes []int        `json:"temporaryFailCodes,omitempty"`
		PermanentFailCodes []int        `json:"permanentFailCodes,omitempty"`
	}
	raw := rawTool{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.ClassBase = raw.ClassBase
	p.ProcessBase = ProcessBase{
		CWLVersion:   raw.CWLVersion,
		ID:           raw.ID,
		Label:        raw.Label,
		Doc:          raw.Doc,
		Inputs:       raw.Inputs,
		Outputs:      raw.Outputs,
		Requirements: raw.Requirements,
		Hints:        raw.Hints,
		Namespaces:   raw.Namespaces,
		Schemas:      raw.Schemas,
	}
	p.BaseCommands = raw.BaseCommands
	p.Arguments = raw.Arguments
	p.Stdin = raw.Stdin
	p.Stdout = raw.Stdout
	p.Stderr = raw.Stderr
	p.SuccessCodes = raw.SuccessCodes
	p.TemporaryFailCodes = raw.TemporaryFailCodes
	p.PermanentFailCodes = raw.PermanentFailCodes
	return p.normalize()
}

// normalize applies the v1.0 tool defaults: successCodes is [0] when
// absent, and a "stdout"/"stderr" typed output forces a redirect
// filename on the tool.
func (p *CommandLineTool) normalize() error {
	if p.SuccessCodes == nil {
		p.SuccessCodes = []int{0}
	}
	for i := range p.Outputs {
		out := &p.Outputs[i]
		switch out.Type.TypeName() {
		case "stdout":
			if p.Stdout == "" {
				p.Stdout = Expression(randomRedirectName("stdout"))
			}
		case "stderr":
			if p.Stderr == "" {
				p.Stderr = Expression(randomRedirectName("stderr"))
			}
		}
	}
	return nil
}

func randomRedirectName(kind string) string {
	return fmt.Sprintf("%s.%s", uuid.New().String(), kind)
}

// ExpressionTool ...
type ExpressionTool struct {
	ClassBase   `json:",inline"`
	ProcessBase `json:",inline"`
	Expression  Expression `json:"expression"`
}

func (p *ExpressionTool) UnmarshalJSON(data []byte) error {
	type rawTool struct {
		ClassBase    `json:",inline"`
		CWLVersion   string       `json:"cwlVersion,omitempty"`
		ID           string       `json:"id,omitempty"`
		Label        string       `json:"label,omitempty"`
		Doc          ArrayString  `json:"doc,omitempty"`
		Inputs       Inputs       `json:"inputs"`
		Outputs      Outputs      `json:"outputs"`
		Requirements Requirements `json:"requirements,omitempty"`
		Hints        Hints        `json:"hints,omitempty"`
		Namespaces   map[string]string `json:"$namespaces,omitempty"`
		Schemas      []string          `json:"$schemas,omitempty"`
		Expression   Expression   `json:"expression"`
	}
	raw := rawTool{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.ClassBase = raw.ClassBase
	p.ProcessBase = ProcessBase{
		CWLVersion:   raw.CWLVersion,
		ID:           raw.ID,
		Label:        raw.Label,
		Doc:          raw.Doc,
		Inputs:       raw.Inputs,
		Outputs:      raw.Outputs,
		Requirements: raw.Requirements,
		Hints:        raw.Hints,
		Namespaces:   raw.Namespaces,
		Schemas:      raw.Schemas,
	}
	p.Expression = raw.Expression
	if p.Expression == "" {
		return NewParseError("ExpressionTool without an expression")
	}
	return nil
}
