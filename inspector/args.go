package inspector

import (
	"fmt"
	"strings"

	cwl "github.com/lijiang2014/cwl.inspect"
)

// bySortKey defines the rules for sorting bindings;
// http://www.commonwl.org/v1.0/CommandLineTool.html#Input_binding
type bySortKey []*Binding

func (s bySortKey) Len() int      { return len(s) }
func (s bySortKey) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s bySortKey) Less(i, j int) bool {
	z := compareKey(s[i].sortKey, s[j].sortKey)
	// cwl spec:
	//  If and only if two bindings have the same sort key,
	// the tie must be broken using the ordering of the field or
	// parameter name immediately containing the leaf binding.
	if z == 0 {
		return s[i].name < s[j].name
	}
	return z == -1
}

// compareKey compares two sort keys.
//
// The result will be 0 if i==j, -1 if i < j, and +1 if i > j.
func compareKey(i, j sortKey) int {
	for x := 0; x < len(i) || x < len(j); x++ {
		if x >= len(i) {
			// i key is shorter than j
			return -1
		}
		if x >= len(j) {
			// j key is shorter than i
			return 1
		}
		z := compare(i[x], j[x])
		if z != 0 {
			return z
		}
	}
	return 0
}

// compare two sort key items, because sort keys may have mixed ints
// and strings. cwl spec: "ints sort before strings".
func compare(iv, jv interface{}) int {
	istr, istrok := iv.(string)
	jstr, jstrok := jv.(string)
	iint, iintok := toKeyInt(iv)
	jint, jintok := toKeyInt(jv)

	switch {
	case istrok && jintok:
		return 1
	case iintok && jstrok:
		return -1
	case istrok && jstrok && istr == jstr:
		return 0
	case istrok && jstrok && istr < jstr:
		return -1
	case istrok && jstrok && istr > jstr:
		return 1
	case iintok && jintok && iint == jint:
		return 0
	case iintok && jintok && iint < jint:
		return -1
	case iintok && jintok && iint > jint:
		return 1
	}
	return 0
}

func toKeyInt(v interface{}) (int, bool) {
	switch z := v.(type) {
	case int:
		return z, true
	case int64:
		return int(z), true
	}
	return 0, false
}

// bindArgs converts a binding into formatted command line tokens.
func (p *Process) bindArgs(b *Binding) ([]string, error) {
	quote := b.clb == nil || b.clb.ShellQuote || !p.shell
	switch b.Type.TypeName() {

	case "array":
		arr, _ := toValueSlice(b.Value)
		// an empty array contributes nothing
		if len(arr) == 0 {
			return nil, nil
		}

		// cwl spec:
		// "If itemSeparator is specified, add prefix and then join the
		// array into a single string with itemSeparator separating the
		// items..."
		if b.clb != nil && b.clb.ItemSeparator != "" {
			var nested []cwl.Value
			for _, nb := range b.nested {
				nested = append(nested, nb.Value)
			}
			return p.formatArgs(b.clb, quote, nested...), nil
		}
		// "...otherwise first add prefix, then recursively process
		// individual elements."
		args := p.formatArgs(b.clb, quote)
		for _, nb := range b.nested {
			sub, err := p.bindArgs(nb)
			if err != nil {
				return nil, err
			}
			args = append(args, sub...)
		}
		return args, nil

	case "record":
		return nil, cwl.NewInspectionError("record values cannot be rendered on a command line")

	case "enum":
		clb := b.clb
		if clb == nil && b.Type.MustEnum() != nil {
			clb = b.Type.MustEnum().Binding
		}
		return p.formatArgs(clb, quote, b.Value), nil

	case "boolean":
		// cwl spec:
		// "boolean: If true, add prefix to the command line.
		// If false, add nothing."
		bv, ok := b.Value.(bool)
		if ok && bv && b.clb != nil && b.clb.Prefix != "" {
			return p.formatArgs(b.clb, quote), nil
		}
		return nil, nil

	case "null":
		return nil, nil

	default:
		if b.Value == nil {
			return nil, nil
		}
		return p.formatArgs(b.clb, quote, b.Value), nil
	}
}

// formatArgs applies the binding rules prefix, separate and
// itemSeparator to a rendered value.
// http://www.commonwl.org/v1.0/CommandLineTool.html#CommandLineBinding
func (p *Process) formatArgs(clb *cwl.CommandLineBinding, quote bool, args ...cwl.Value) []string {
	var (
		prefix, join string
		sep          = true
		strargs      []string
	)
	if clb != nil {
		prefix = clb.Prefix
		join = clb.ItemSeparator
		sep = clb.Separate
	}

	for _, arg := range args {
		strargs = append(strargs, valueToStrings(arg, quote)...)
	}

	if join != "" && strargs != nil {
		strargs = []string{strings.Join(strargs, join)}
	}

	if prefix != "" {
		if !sep && strargs != nil {
			strargs[0] = prefix + strargs[0]
		} else {
			strargs = append([]string{prefix}, strargs...)
		}
	}
	return strargs
}

// valueToStrings renders a value to command line tokens. Strings are
// double-quoted when quote is set; File and Directory paths and
// evaluation sentinels are always double-quoted; an uninstantiated
// input contributes an empty token.
func valueToStrings(v cwl.Value, quote bool) []string {
	switch z := v.(type) {
	case nil:
		return nil
	case Uninstantiated:
		return []string{""}
	case Evaled:
		return []string{dquote(z.String())}
	case []cwl.Value:
		var out []string
		for _, vi := range z {
			out = append(out, valueToStrings(vi, quote)...)
		}
		return out
	case []interface{}:
		var out []string
		for _, vi := range z {
			out = append(out, valueToStrings(vi, quote)...)
		}
		return out
	case string:
		if quote {
			return []string{dquote(z)}
		}
		return []string{z}
	case cwl.File:
		return []string{dquote(z.Path)}
	case *cwl.File:
		return []string{dquote(z.Path)}
	case cwl.Directory:
		return []string{dquote(z.Path)}
	case *cwl.Directory:
		return []string{dquote(z.Path)}
	case int, int32, int64, float32, float64, bool:
		return []string{fmt.Sprintf("%v", z)}
	}
	return []string{fmt.Sprintf("%v", v)}
}

// dquote wraps a token in double quotes for the POSIX shell.
func dquote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`")
	return `"` + r.Replace(s) + `"`
}
