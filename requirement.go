package cwl

import (
	"encoding/json"
)

// Requirement is a declared capability or need. Entries under
// "requirements" are mandatory; under "hints" they are best-effort.
type Requirement interface {
	Classable
}

type BaseRequirement struct {
	ClassBase `json:",inline"`
}

type InlineJavascriptRequirement struct {
	BaseRequirement `json:",inline"`
	ExpressionLib   []string `json:"expressionLib,omitempty"`
}

// SchemaDefRequirement carries named type definitions referencable as
// "#name" from parameter types.
type SchemaDefRequirement struct {
	BaseRequirement `json:",inline"`
	Types           []SaladType `json:"types"`
}

type DockerRequirement struct {
	BaseRequirement       `json:",inline"`
	DockerPull            string `json:"dockerPull,omitempty"`
	DockerLoad            string `json:"dockerLoad,omitempty"`
	DockerFile            string `json:"dockerFile,omitempty"`
	DockerImport          string `json:"dockerImport,omitempty"`
	DockerImageID         string `json:"dockerImageId,omitempty"`
	DockerOutputDirectory string `json:"dockerOutputDirectory,omitempty"`
}

type SoftwarePackage struct {
	Package string   `json:"package"`
	Version []string `json:"version,omitempty"`
	Specs   []string `json:"specs,omitempty"`
}

type SoftwareRequirement struct {
	BaseRequirement `json:",inline"`
	Packages        []SoftwarePackage `json:"packages"`
}

func (r *SoftwareRequirement) UnmarshalJSON(data []byte) error {
	bean := struct {
		ClassBase `json:",inline"`
		Packages  json.RawMessage `json:"packages"`
	}{}
	if err := json.Unmarshal(data, &bean); err != nil {
		return err
	}
	r.ClassBase = bean.ClassBase
	values, err := JsonldPredicateMapSubject(bean.Packages, "package", "specs")
	if err != nil {
		return WrapParseError(err, "software packages")
	}
	r.Packages = make([]SoftwarePackage, len(values))
	for i, vali := range values {
		if err := json.Unmarshal(vali, &r.Packages[i]); err != nil {
			return err
		}
	}
	return nil
}

// Dirent describes a generated working-directory entry.
// @see http://www.commonwl.org/v1.0/CommandLineTool.html#Dirent
type Dirent struct {
	Entry     Expression `json:"entry,omitempty"`
	EntryName Expression `json:"entryname,omitempty"`
	Writable  bool       `json:"writable,omitempty"`
}

// WorkDirEntry is one element of an InitialWorkDirRequirement listing:
// an expression, a File/Directory, or a Dirent.
type WorkDirEntry struct {
	Expression Expression
	File       *File
	Directory  *Directory
	Dirent     *Dirent
}

func (e *WorkDirEntry) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &e.Expression)
	}
	bean := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &bean); err != nil {
		return err
	}
	if classRaw, got := bean["class"]; got {
		var class string
		if err := json.Unmarshal(classRaw, &class); err != nil {
			return err
		}
		switch class {
		case "File":
			e.File = &File{}
			return json.Unmarshal(data, e.File)
		case "Directory":
			e.Directory = &Directory{}
			return json.Unmarshal(data, e.Directory)
		}
		return NewParseError("workdir entry class needs to be File/Directory")
	}
	e.Dirent = &Dirent{}
	return json.Unmarshal(data, e.Dirent)
}

func (e WorkDirEntry) MarshalJSON() ([]byte, error) {
	switch {
	case e.File != nil:
		return json.Marshal(e.File)
	case e.Directory != nil:
		return json.Marshal(e.Directory)
	case e.Dirent != nil:
		return json.Marshal(e.Dirent)
	}
	return json.Marshal(e.Expression)
}

type InitialWorkDirRequirement struct {
	BaseRequirement `json:",inline"`
	Listing         []WorkDirEntry `json:"listing"`
}

type EnvironmentDef struct {
	EnvName  string     `json:"envName"`
	EnvValue Expression `json:"envValue"`
}

type EnvVarRequirement struct {
	BaseRequirement `json:",inline"`
	EnvDef          []EnvironmentDef `json:"envDef"`
}

func (r *EnvVarRequirement) UnmarshalJSON(data []byte) error {
	bean := struct {
		ClassBase `json:",inline"`
		EnvDef    json.RawMessage `json:"envDef"`
	}{}
	if err := json.Unmarshal(data, &bean); err != nil {
		return err
	}
	r.ClassBase = bean.ClassBase
	values, err := JsonldPredicateMapSubject(bean.EnvDef, "envName", "envValue")
	if err != nil {
		return WrapParseError(err, "envDef")
	}
	r.EnvDef = make([]EnvironmentDef, len(values))
	for i, vali := range values {
		if err := json.Unmarshal(vali, &r.EnvDef[i]); err != nil {
			return err
		}
	}
	return nil
}

type ShellCommandRequirement struct {
	BaseRequirement `json:",inline"`
}

type ResourceRequirement struct {
	BaseRequirement `json:",inline"`
	CoresMin        LongFloatExpression `json:"coresMin,omitempty"`
	CoresMax        LongFloatExpression `json:"coresMax,omitempty"`
	RAMMin          LongFloatExpression `json:"ramMin,omitempty"`
	RAMMax          LongFloatExpression `json:"ramMax,omitempty"`
	TmpdirMin       LongFloatExpression `json:"tmpdirMin,omitempty"`
	TmpdirMax       LongFloatExpression `json:"tmpdirMax,omitempty"`
	OutdirMin       LongFloatExpression `json:"outdirMin,omitempty"`
	OutdirMax       LongFloatExpression `json:"outdirMax,omitempty"`
}

type SubworkflowFeatureRequirement struct {
	BaseRequirement `json:",inline"`
}

type ScatterFeatureRequirement struct {
	BaseRequirement `json:",inline"`
}

type MultipleInputFeatureRequirement struct {
	BaseRequirement `json:",inline"`
}

type StepInputExpressionRequirement struct {
	BaseRequirement `json:",inline"`
}

// UnknownRequirement retains a hint of an unrecognized class as an
// opaque bag.
type UnknownRequirement struct {
	BaseRequirement `json:",inline"`
	Bag             map[string]interface{} `json:"-"`
}

func (r UnknownRequirement) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Bag)
}

var requirementFactory = map[string]func() Requirement{
	"InlineJavascriptRequirement":     func() Requirement { return &InlineJavascriptRequirement{} },
	"SchemaDefRequirement":            func() Requirement { return &SchemaDefRequirement{} },
	"DockerRequirement":               func() Requirement { return &DockerRequirement{} },
	"SoftwareRequirement":             func() Requirement { return &SoftwareRequirement{} },
	"InitialWorkDirRequirement":       func() Requirement { return &InitialWorkDirRequirement{} },
	"EnvVarRequirement":               func() Requirement { return &EnvVarRequirement{} },
	"ShellCommandRequirement":         func() Requirement { return &ShellCommandRequirement{} },
	"ResourceRequirement":             func() Requirement { return &ResourceRequirement{} },
	"SubworkflowFeatureRequirement":   func() Requirement { return &SubworkflowFeatureRequirement{} },
	"ScatterFeatureRequirement":       func() Requirement { return &ScatterFeatureRequirement{} },
	"MultipleInputFeatureRequirement": func() Requirement { return &MultipleInputFeatureRequirement{} },
	"StepInputExpressionRequirement":  func() Requirement { return &StepInputExpressionRequirement{} },
}

type Requirements []Requirement

type Hints []Requirement

func parseRequirementList(data []byte, strict bool) ([]Requirement, error) {
	values, err := JsonldPredicateMapSubject(data, "class", "value")
	if err != nil {
		return nil, WrapParseError(err, "requirements")
	}
	out := make([]Requirement, 0, len(values))
	for _, vali := range values {
		head := ClassBase{}
		if err := json.Unmarshal(vali, &head); err != nil {
			return nil, err
		}
		factory, known := requirementFactory[head.Class]
		if !known {
			if strict {
				return nil, NewParseError("unknown requirement class %q", head.Class)
			}
			bag := map[string]interface{}{}
			if err := json.Unmarshal(vali, &bag); err != nil {
				return nil, err
			}
			out = append(out, &UnknownRequirement{BaseRequirement{head}, bag})
			continue
		}
		req := factory()
		if err := json.Unmarshal(vali, req); err != nil {
			if strict {
				return nil, err
			}
			// hints are best-effort; degrade to the opaque bag
			bag := map[string]interface{}{}
			if err := json.Unmarshal(vali, &bag); err != nil {
				return nil, err
			}
			out = append(out, &UnknownRequirement{BaseRequirement{head}, bag})
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

func (rs *Requirements) UnmarshalJSON(data []byte) error {
	out, err := parseRequirementList(data, true)
	if err != nil {
		return err
	}
	*rs = out
	return nil
}

func (hs *Hints) UnmarshalJSON(data []byte) error {
	out, err := parseRequirementList(data, false)
	if err != nil {
		return err
	}
	*hs = out
	return nil
}

func findRequirement(rs []Requirement, class string) Requirement {
	for _, r := range rs {
		if r.ClassName() == class {
			return r
		}
	}
	return nil
}
