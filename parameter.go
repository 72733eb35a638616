package cwl

import (
	"encoding/json"
)

// InputParameter describes one entry of a process's "inputs".
type InputParameter struct {
	ID             string              `json:"id"`
	Label          string              `json:"label,omitempty"`
	Doc            ArrayString         `json:"doc,omitempty"`
	SecondaryFiles ArrayExpression     `json:"secondaryFiles,omitempty"`
	Format         ArrayExpression     `json:"format,omitempty"`
	Streamable     bool                `json:"streamable,omitempty"`
	Type           SaladType           `json:"type"`
	Default        Value               `json:"default,omitempty"`
	InputBinding   *CommandLineBinding `json:"inputBinding,omitempty"`
}

// OutputParameter describes one entry of a process's "outputs".
type OutputParameter struct {
	ID             string                `json:"id"`
	Label          string                `json:"label,omitempty"`
	Doc            ArrayString           `json:"doc,omitempty"`
	SecondaryFiles ArrayExpression       `json:"secondaryFiles,omitempty"`
	Format         Expression            `json:"format,omitempty"`
	Streamable     bool                  `json:"streamable,omitempty"`
	Type           SaladType             `json:"type"`
	OutputBinding  *CommandOutputBinding `json:"outputBinding,omitempty"`
	// workflow only
	OutputSource ArrayString `json:"outputSource,omitempty"`
}

type Inputs []InputParameter

type Outputs []OutputParameter

func (p *InputParameter) UnmarshalJSON(data []byte) error {
	type rawParameter InputParameter
	raw := rawParameter{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = InputParameter(raw)
	if p.ID == "" {
		return NewParseError("input parameter without an id")
	}
	if p.Default != nil && p.Type.TypeName() == "_unknownType_" {
		return NewParseError("input %q declares a default but no type", p.ID)
	}
	if v, err := ConvertToValue(p.Default); err == nil {
		p.Default = v
	}
	return nil
}

func (p *OutputParameter) UnmarshalJSON(data []byte) error {
	type rawParameter OutputParameter
	raw := rawParameter{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = OutputParameter(raw)
	if p.ID == "" {
		return NewParseError("output parameter without an id")
	}
	return nil
}

// Inputs accepts both the list form and the mapping form, where the
// mapping value may be a full object or a bare type shorthand.
func (ps *Inputs) UnmarshalJSON(data []byte) error {
	values, err := JsonldPredicateMapSubject(data, "id", "type")
	if err != nil {
		return WrapParseError(err, "inputs")
	}
	out := make(Inputs, len(values))
	seen := map[string]bool{}
	for i, vali := range values {
		if err := json.Unmarshal(vali, &out[i]); err != nil {
			return err
		}
		if seen[out[i].ID] {
			return NewParseError("duplicated input id %q", out[i].ID)
		}
		seen[out[i].ID] = true
	}
	*ps = out
	return nil
}

func (ps *Outputs) UnmarshalJSON(data []byte) error {
	values, err := JsonldPredicateMapSubject(data, "id", "type")
	if err != nil {
		return WrapParseError(err, "outputs")
	}
	out := make(Outputs, len(values))
	seen := map[string]bool{}
	for i, vali := range values {
		if err := json.Unmarshal(vali, &out[i]); err != nil {
			return err
		}
		if seen[out[i].ID] {
			return NewParseError("duplicated output id %q", out[i].ID)
		}
		seen[out[i].ID] = true
	}
	*ps = out
	return nil
}

// Get finds a parameter by id.
func (ps Inputs) Get(id string) *InputParameter {
	for i := range ps {
		if ps[i].ID == id {
			return &ps[i]
		}
	}
	return nil
}

func (ps Outputs) Get(id string) *OutputParameter {
	for i := range ps {
		if ps[i].ID == id {
			return &ps[i]
		}
	}
	return nil
}
