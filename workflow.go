package cwl

import (
	"encoding/json"
)

// WorkflowStepInput ...
type WorkflowStepInput struct {
	ID        string      `json:"id"`
	Source    ArrayString `json:"source,omitempty"`
	LinkMerge string      `json:"linkMerge,omitempty"`
	Default   Value       `json:"default,omitempty"`
	ValueFrom Expression  `json:"valueFrom,omitempty"`
}

// WorkflowStepOutput ...
type WorkflowStepOutput struct {
	ID string `json:"id"`
}

func (o *WorkflowStepOutput) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &o.ID)
	}
	type rawOutput WorkflowStepOutput
	return json.Unmarshal(data, (*rawOutput)(o))
}

func (o WorkflowStepOutput) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.ID)
}

// RunEntry is a step's "run": a file reference or an embedded process.
type RunEntry struct {
	Ref     string
	Process Process
}

func (r *RunEntry) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.Ref)
	}
	p, err := ParseCWLProcess(data)
	if err != nil {
		return err
	}
	r.Process = p
	return nil
}

func (r RunEntry) MarshalJSON() ([]byte, error) {
	if r.Ref != "" {
		return json.Marshal(r.Ref)
	}
	return json.Marshal(r.Process)
}

// WorkflowStep ...
type WorkflowStep struct {
	ID            string               `json:"id"`
	Label         string               `json:"label,omitempty"`
	Doc           ArrayString          `json:"doc,omitempty"`
	In            []WorkflowStepInput  `json:"in"`
	Out           []WorkflowStepOutput `json:"out"`
	Run           RunEntry             `json:"run"`
	Requirements  Requirements         `json:"requirements,omitempty"`
	Hints         Hints                `json:"hints,omitempty"`
	Scatter       ArrayString          `json:"scatter,omitempty"`
	ScatterMethod string               `json:"scatterMethod,omitempty"`
}

type stepInputs []WorkflowStepInput

func (ins *stepInputs) UnmarshalJSON(data []byte) error {
	values, err := JsonldPredicateMapSubject(data, "id", "source")
	if err != nil {
		return WrapParseError(err, "step in")
	}
	out := make([]WorkflowStepInput, len(values))
	for i, vali := range values {
		if err := json.Unmarshal(vali, &out[i]); err != nil {
			return err
		}
	}
	*ins = out
	return nil
}

func (s *WorkflowStep) UnmarshalJSON(data []byte) error {
	type rawStep struct {
		ID            string               `json:"id"`
		Label         string               `json:"label,omitempty"`
		Doc           ArrayString          `json:"doc,omitempty"`
		In            stepInputs           `json:"in"`
		Out           []WorkflowStepOutput `json:"out"`
		Run           RunEntry             `json:"run"`
		Requirements  Requirements         `json:"requirements,omitempty"`
		Hints         Hints                `json:"hints,omitempty"`
		Scatter       ArrayString          `json:"scatter,omitempty"`
		ScatterMethod string               `json:"scatterMethod,omitempty"`
	}
	raw := rawStep{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = WorkflowStep{
		ID: raw.ID, Label: raw.Label, Doc: raw.Doc,
		In: raw.In, Out: raw.Out, Run: raw.Run,
		Requirements: raw.Requirements, Hints: raw.Hints,
		Scatter: raw.Scatter, ScatterMethod: raw.ScatterMethod,
	}
	if s.ID == "" {
		return NewParseError("workflow step without an id")
	}
	return nil
}

// Steps accepts the list form and the mapping form.
type Steps []WorkflowStep

func (ss *Steps) UnmarshalJSON(data []byte) error {
	values, err := JsonldPredicateMapSubject(data, "id", "run")
	if err != nil {
		return WrapParseError(err, "steps")
	}
	out := make(Steps, len(values))
	seen := map[string]bool{}
	for i, vali := range values {
		if err := json.Unmarshal(vali, &out[i]); err != nil {
			return err
		}
		if seen[out[i].ID] {
			return NewParseError("duplicated step id %q", out[i].ID)
		}
		seen[out[i].ID] = true
	}
	*ss = out
	return nil
}

// Workflow ...
type Workflow struct {
	ClassBase   `json:",inline"`
	ProcessBase `json:",inline"`
	Steps       Steps `json:"steps"`
}

func (p *Workflow) UnmarshalJSON(data []byte) error {
	type rawWorkflow struct {
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
		Steps        Steps        `json:"steps"`
	}
	raw := rawWorkflow{}
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
	p.Steps = raw.Steps
	return nil
}

// Get finds a step by id.
func (ss Steps) Get(id string) *WorkflowStep {
	for i := range ss {
		if ss[i].ID == id {
			return &ss[i]
		}
	}
	return nil
}
