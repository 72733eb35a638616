package inspector

import (
	"github.com/spf13/cast"

	cwl "github.com/lijiang2014/cwl.inspect"
)

// Binding binds an input type description to a concrete value. The
// Type field records which union alternative matched, so later
// rendering knows the choice that was taken.
type Binding struct {
	clb     *cwl.CommandLineBinding
	Type    cwl.SaladType
	Value   cwl.Value
	sortKey sortKey
	nested  []*Binding
	name    string
}

// sortKey layers (position, name/index) pairs for nested bindings.
type sortKey []interface{}

func getPos(in *cwl.CommandLineBinding) int {
	if in == nil || in.Position == nil {
		return 0
	}
	ret, _ := in.Position.Value()
	return int(ret)
}

func getLoadContents(clb *cwl.CommandLineBinding) bool {
	return clb != nil && clb.LoadContents != nil && *clb.LoadContents
}

// bindInput coerces a raw job value against a declared type, trying
// union alternatives in declared order.
func (p *Process) bindInput(
	name string,
	typein cwl.SaladType,
	clb *cwl.CommandLineBinding,
	val cwl.Value,
	key sortKey,
) ([]*Binding, error) {

	if u, ok := val.(Uninstantiated); ok {
		return []*Binding{{clb, typein, u, key, nil, name}}, nil
	}
	if inv, ok := val.(Invalid); ok {
		return []*Binding{{clb, typein, inv, key, nil, name}}, nil
	}

	// A nil value binds only when the declared type admits null.
	if val == nil {
		if typein.IsNullable() {
			return []*Binding{{clb, typein, nil, key, nil, name}}, nil
		}
		return nil, cwl.NewInspectionError("missing value for %q", name)
	}

	types := []cwl.SaladType{typein}
	if typein.IsMulti() {
		types = typein.MustMulti()
	}

Loop:
	for _, ti := range types {
		switch ti.TypeName() {
		case "null":
			continue

		case "array":
			vals, ok := toValueSlice(val)
			if !ok {
				continue Loop
			}
			t := ti.MustArraySchema()
			out := []*Binding{}
			for i, itemVal := range vals {
				subkey := append(append(sortKey{}, key...), getPos(t.Binding), i)
				b, err := p.bindInput("", t.Items, t.Binding, itemVal, subkey)
				if err != nil {
					return nil, err
				}
				if b == nil {
					continue Loop
				}
				out = append(out, b...)
			}
			nested := make([]*Binding, len(out))
			copy(nested, out)
			return []*Binding{{clb, ti, vals, key, nested, name}}, nil

		case "enum":
			v, ok := val.(string)
			if !ok {
				continue Loop
			}
			t := ti.MustEnum()
			if clb == nil && t.Binding != nil {
				clb = t.Binding
			}
			for _, symbol := range t.Symbols {
				if v == symbol {
					return []*Binding{{clb, ti, v, key, nil, name}}, nil
				}
			}
			continue Loop

		case "record":
			vals, ok := toValueMap(val)
			if !ok {
				continue Loop
			}
			t := ti.MustRecord()
			var out []*Binding
			for _, field := range t.Fields {
				fieldVal, got := vals[field.Name]
				if !got {
					if !field.Type.IsNullable() {
						continue Loop
					}
					continue
				}
				subkey := sortKey{getPos(field.Binding), field.Name}
				b, err := p.bindInput(field.Name, field.Type, field.Binding, fieldVal, subkey)
				if err != nil {
					continue Loop
				}
				if b == nil {
					continue Loop
				}
				out = append(out, b...)
			}
			nested := make([]*Binding, len(out))
			copy(nested, out)
			return []*Binding{{clb, ti, vals, key, nested, name}}, nil

		case "Any", "any":
			inferred := inferAnyType(val)
			return []*Binding{{clb, inferred, val, key, nil, name}}, nil

		case "boolean":
			v, err := cast.ToBoolE(val)
			if err != nil {
				continue Loop
			}
			return []*Binding{{clb, ti, v, key, nil, name}}, nil

		case "int":
			v, err := toIntegerE(val, 32)
			if err != nil {
				continue Loop
			}
			return []*Binding{{clb, ti, int32(v), key, nil, name}}, nil

		case "long":
			v, err := toIntegerE(val, 64)
			if err != nil {
				continue Loop
			}
			return []*Binding{{clb, ti, v, key, nil, name}}, nil

		case "float":
			v, err := toFloatE(val)
			if err != nil {
				continue Loop
			}
			return []*Binding{{clb, ti, float32(v), key, nil, name}}, nil

		case "double":
			v, err := toFloatE(val)
			if err != nil {
				continue Loop
			}
			return []*Binding{{clb, ti, v, key, nil, name}}, nil

		case "string":
			v, ok := val.(string)
			if !ok {
				continue Loop
			}
			return []*Binding{{clb, ti, v, key, nil, name}}, nil

		case "File":
			f, ok := toFile(val)
			if !ok {
				continue Loop
			}
			resolved, err := f.Evaluate(p.runtime.DocDirs, getLoadContents(clb))
			if err != nil {
				return nil, err
			}
			return []*Binding{{clb, ti, resolved, key, nil, name}}, nil

		case "Directory":
			d, ok := toDirectory(val)
			if !ok {
				continue Loop
			}
			resolved, err := d.Evaluate(p.runtime.DocDirs)
			if err != nil {
				return nil, err
			}
			return []*Binding{{clb, ti, resolved, key, nil, name}}, nil

		case "stdin":
			// stdin shorthand: the File is also the tool's stdin
			f, ok := toFile(val)
			if !ok {
				continue Loop
			}
			resolved, err := f.Evaluate(p.runtime.DocDirs, false)
			if err != nil {
				return nil, err
			}
			if p.stdin == "" {
				p.stdin = resolved.Path
			}
			fileType := cwl.NewType("File")
			return []*Binding{{clb, fileType, resolved, key, nil, name}}, nil

		default:
			// named type: resolve through SchemaDefRequirement
			resolved, binding, found := p.resolveSchemaDef(ti.TypeName())
			if !found {
				continue Loop
			}
			if clb == nil {
				clb = binding
			}
			b, err := p.bindInput(name, resolved, clb, val, key)
			if err != nil {
				continue Loop
			}
			if b != nil {
				return b, nil
			}
			continue Loop
		}
	}

	return nil, cwl.NewInspectionError("value for %q matches no alternative of %s", name, typein.TypeName())
}

// resolveSchemaDef finds a named type among SchemaDefRequirement
// definitions; "#name" and "name" address the same definition.
func (p *Process) resolveSchemaDef(ref string) (cwl.SaladType, *cwl.CommandLineBinding, bool) {
	rsd := p.root.Base().RequiresSchemaDef()
	if rsd == nil {
		return cwl.SaladType{}, nil, false
	}
	want := ref
	if len(want) > 0 && want[0] == '#' {
		want = want[1:]
	}
	for i := range rsd.Types {
		t := &rsd.Types[i]
		var name string
		var binding *cwl.CommandLineBinding
		switch {
		case t.IsRecord():
			name = t.MustRecord().Name
		case t.IsEnum():
			name = t.MustEnum().Name
			binding = t.MustEnum().Binding
		case t.IsArray():
			binding = t.MustArraySchema().Binding
		}
		if name == "" {
			continue
		}
		if trimHash(name) == want {
			return *t, binding, true
		}
	}
	return cwl.SaladType{}, nil, false
}

func trimHash(s string) string {
	if len(s) > 0 && s[0] == '#' {
		return s[1:]
	}
	return s
}

// inferAnyType maps a concrete value to its natural type.
func inferAnyType(val cwl.Value) cwl.SaladType {
	switch v := val.(type) {
	case nil:
		return cwl.NullType
	case bool:
		return cwl.NewType("boolean")
	case int, int32, int64:
		return cwl.NewType("int")
	case float32, float64:
		return cwl.NewType("float")
	case string:
		return cwl.NewType("string")
	case cwl.File, *cwl.File:
		return cwl.NewType("File")
	case cwl.Directory, *cwl.Directory:
		return cwl.NewType("Directory")
	case []cwl.Value:
		if len(v) > 0 {
			return cwl.NewArrayType(inferAnyType(v[0]))
		}
		return cwl.NewArrayType(cwl.NewType("Any"))
	case []interface{}:
		if len(v) > 0 {
			return cwl.NewArrayType(inferAnyType(v[0]))
		}
		return cwl.NewArrayType(cwl.NewType("Any"))
	}
	return cwl.NewType("Any")
}

func toValueSlice(val cwl.Value) ([]cwl.Value, bool) {
	switch v := val.(type) {
	case []cwl.Value:
		return v, true
	case []interface{}:
		out := make([]cwl.Value, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, true
	}
	return nil, false
}

func toValueMap(val cwl.Value) (map[string]cwl.Value, bool) {
	switch v := val.(type) {
	case map[string]cwl.Value:
		return v, true
	case map[string]interface{}:
		out := make(map[string]cwl.Value, len(v))
		for k := range v {
			out[k] = v[k]
		}
		return out, true
	}
	return nil, false
}

func toFile(val cwl.Value) (cwl.File, bool) {
	switch v := val.(type) {
	case cwl.File:
		return v, true
	case *cwl.File:
		return *v, true
	}
	return cwl.File{}, false
}

func toDirectory(val cwl.Value) (cwl.Directory, bool) {
	switch v := val.(type) {
	case cwl.Directory:
		return v, true
	case *cwl.Directory:
		return *v, true
	}
	return cwl.Directory{}, false
}

// toIntegerE accepts integral values only; floats with a fractional
// part are a type error.
func toIntegerE(val cwl.Value, bits int) (int64, error) {
	switch v := val.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v == float64(int64(v)) {
			return int64(v), nil
		}
	}
	return 0, cwl.NewInspectionError("%v is not an integer", val)
}

func toFloatE(val cwl.Value) (float64, error) {
	switch v := val.(type) {
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	}
	return 0, cwl.NewInspectionError("%v is not a number", val)
}
