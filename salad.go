package cwl

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// SaladType is the closed type algebra: a primitive, a named reference,
// a record, an enum, an array, or a union of them.
type SaladType struct {
	name      string // named type reference, e.g. "#capture_kit"
	primitive string // null / boolean / int / long / float / double / string
	record    *RecordSchema
	enum      *EnumSchema
	array     *ArraySchema
	multi     []SaladType
}

type RecordSchema struct {
	Type   string        `json:"type"` // must be record
	Name   string        `json:"name,omitempty"`
	Label  string        `json:"label,omitempty"`
	Fields []RecordField `json:"fields,omitempty"`
}

type RecordField struct {
	Name    string              `json:"name"`
	Doc     ArrayString         `json:"doc,omitempty"`
	Type    SaladType           `json:"type"`
	Binding *CommandLineBinding `json:"inputBinding,omitempty"`
}

type EnumSchema struct {
	Type    string              `json:"type"` // must be enum
	Name    string              `json:"name,omitempty"`
	Symbols []string            `json:"symbols"`
	Binding *CommandLineBinding `json:"inputBinding,omitempty"`
}

type ArraySchema struct {
	Type    string              `json:"type"` // must be array
	Items   SaladType           `json:"items"`
	Binding *CommandLineBinding `json:"inputBinding,omitempty"`
}

func isPrimitive(v string) bool {
	return v == "null" || v == "boolean" || v == "int" || v == "long" ||
		v == "float" || v == "double" || v == "string"
}

// typeDSLResolution desugars the "T?" and "T[]" shorthands.
func typeDSLResolution(dslType string) (isOptional bool, isArray bool, restType string) {
	if strings.HasSuffix(dslType, "?") {
		isOptional = true
		dslType = dslType[:len(dslType)-1]
	}
	if strings.HasSuffix(dslType, "[]") {
		isArray = true
		dslType = dslType[:len(dslType)-2]
	}
	return isOptional, isArray, dslType
}

func NewType(name string) SaladType {
	t := SaladType{}
	t.SetTypename(name)
	return t
}

func NewArrayType(items SaladType) SaladType {
	return SaladType{array: &ArraySchema{Type: "array", Items: items}}
}

func NewUnionType(types []SaladType) SaladType {
	return SaladType{multi: types}
}

var NullType = SaladType{primitive: "null"}

func (t *SaladType) SetTypename(name string) {
	if isPrimitive(name) {
		t.primitive = name
	} else {
		t.name = name
	}
}

func (t *SaladType) SetNull()                  { t.primitive = "null" }
func (t *SaladType) SetRecord(r *RecordSchema) { t.record = r }
func (t *SaladType) SetEnum(e *EnumSchema)     { t.enum = e }
func (t *SaladType) SetArray(a *ArraySchema)   { t.array = a }
func (t *SaladType) SetMulti(m []SaladType)    { t.multi = m }

func (t *SaladType) UnmarshalJSON(data []byte) error {
	var bean interface{}
	if err := json.Unmarshal(data, &bean); err != nil {
		return err
	}
	switch v := bean.(type) {
	case string:
		isOptional, isArray, restType := typeDSLResolution(v)
		inner := SaladType{}
		inner.SetTypename(restType)
		if isArray {
			inner = NewArrayType(inner)
		}
		if isOptional {
			*t = NewUnionType([]SaladType{NullType, inner})
			return nil
		}
		*t = inner
		return nil
	case map[string]interface{}:
		typenameRaw, got := v["type"]
		if !got {
			return NewParseError("type field is required for a type object")
		}
		typenameStr, got := typenameRaw.(string)
		if !got {
			return NewParseError("type field of a type object must be a string")
		}
		switch typenameStr {
		case "record":
			t.record = &RecordSchema{}
			return json.Unmarshal(data, t.record)
		case "enum":
			t.enum = &EnumSchema{}
			return json.Unmarshal(data, t.enum)
		case "array":
			t.array = &ArraySchema{}
			return json.Unmarshal(data, t.array)
		}
		return NewParseError("unknown schema kind %q", typenameStr)
	case []interface{}:
		t.multi = make([]SaladType, 0)
		return json.Unmarshal(data, &t.multi)
	}
	return NewParseError("unknown type %s", string(data))
}

func (t SaladType) MarshalJSON() ([]byte, error) {
	if t.primitive != "" {
		return json.Marshal(t.primitive)
	} else if t.name != "" {
		return json.Marshal(t.name)
	} else if t.array != nil {
		return json.Marshal(t.array)
	} else if t.enum != nil {
		return json.Marshal(t.enum)
	} else if t.record != nil {
		return json.Marshal(t.record)
	} else if t.multi != nil {
		return json.Marshal(t.multi)
	}
	return nil, fmt.Errorf("invalid type")
}

func (t ArraySchema) MarshalJSON() ([]byte, error) {
	t.Type = "array"
	type rawArray ArraySchema
	return json.Marshal(rawArray(t))
}

func (t EnumSchema) MarshalJSON() ([]byte, error) {
	t.Type = "enum"
	type rawEnum EnumSchema
	return json.Marshal(rawEnum(t))
}

func (t RecordSchema) MarshalJSON() ([]byte, error) {
	t.Type = "record"
	type rawRecord RecordSchema
	return json.Marshal(rawRecord(t))
}

func (f *RecordField) UnmarshalJSON(data []byte) error {
	type rawField RecordField
	if err := json.Unmarshal(data, (*rawField)(f)); err != nil {
		return err
	}
	if f.Name == "" {
		return NewParseError("record field without a name")
	}
	return nil
}

func (r *RecordSchema) UnmarshalJSON(data []byte) error {
	type rawRecord struct {
		Type   string          `json:"type"`
		Name   string          `json:"name"`
		Label  string          `json:"label"`
		Fields json.RawMessage `json:"fields"`
	}
	raw := rawRecord{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Type = "record"
	r.Name = raw.Name
	r.Label = raw.Label
	if len(raw.Fields) == 0 {
		return nil
	}
	values, err := JsonldPredicateMapSubject(raw.Fields, "name", "type")
	if err != nil {
		return WrapParseError(err, "record %q fields", raw.Name)
	}
	r.Fields = make([]RecordField, len(values))
	for i, vali := range values {
		if err := json.Unmarshal(vali, &r.Fields[i]); err != nil {
			return err
		}
	}
	return nil
}

func (t *SaladType) String() string {
	raw, err := t.MarshalJSON()
	if err != nil {
		return "ErrType:" + err.Error()
	}
	return string(raw)
}

func (t *SaladType) IsPrimitive() bool { return t.primitive != "" }
func (t *SaladType) IsArray() bool     { return t.array != nil }
func (t *SaladType) IsRecord() bool    { return t.record != nil }
func (t *SaladType) IsEnum() bool      { return t.enum != nil }
func (t *SaladType) IsMulti() bool     { return t.multi != nil }
func (t *SaladType) IsNull() bool      { return t.primitive == "null" }

func (t *SaladType) IsNullable() bool {
	if t.primitive == "null" {
		return true
	}
	for _, i := range t.multi {
		if i.primitive == "null" {
			return true
		}
	}
	return false
}

func (t *SaladType) MustArraySchema() *ArraySchema { return t.array }
func (t *SaladType) MustRecord() *RecordSchema     { return t.record }
func (t *SaladType) MustEnum() *EnumSchema         { return t.enum }
func (t *SaladType) MustMulti() []SaladType        { return t.multi }

func (t *SaladType) TypeName() string {
	if t.primitive != "" {
		return t.primitive
	} else if t.name != "" {
		return t.name
	} else if t.array != nil {
		return "array"
	} else if t.enum != nil {
		return "enum"
	} else if t.record != nil {
		return "record"
	} else if t.multi != nil {
		types := make([]string, len(t.multi))
		for i, ti := range t.multi {
			types[i] = ti.TypeName()
		}
		return "[" + strings.Join(types, ",") + "]"
	}
	return "_unknownType_"
}

// JsonldPredicateMapSubject rewrites the mapping surface form into the
// list form:
//
//	{ key: obj1, key2: notObjVal } => [{sub: key, obj1...}, {sub: key2, predicate: notObjVal}]
//
// Keys are emitted in lexical order so normalization is stable.
func JsonldPredicateMapSubject(raw []byte, subject, predicate string) ([]json.RawMessage, error) {
	rawArray := make([]json.RawMessage, 0)
	rawMap := make(map[string]json.RawMessage)
	trimmed := strings.TrimSpace(string(raw))
	if len(trimmed) == 0 {
		return rawArray, nil
	}
	if trimmed[0] == '[' {
		err := json.Unmarshal(raw, &rawArray)
		return rawArray, err
	}
	err := json.Unmarshal(raw, &rawMap)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(rawMap))
	for key := range rawMap {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := rawMap[key]
		newObj := make(map[string]interface{})
		if len(value) > 0 && value[0] == '{' {
			if err = json.Unmarshal(value, &newObj); err != nil {
				return nil, err
			}
		} else {
			var any interface{}
			if err = json.Unmarshal(value, &any); err != nil {
				return nil, err
			}
			newObj[predicate] = any
		}
		if _, got := newObj[subject]; !got {
			newObj[subject] = key
		}
		newObjRaw, err := json.Marshal(newObj)
		if err != nil {
			return nil, err
		}
		rawArray = append(rawArray, newObjRaw)
	}
	return rawArray, nil
}
