package cwl

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	yaml "gopkg.in/yaml.v2"
)

// Document is a loaded CWL source: the preprocessed raw tree, the
// fragment table, and the typed process parsed from it.
type Document struct {
	Process   Process
	Raw       interface{}
	Fragments map[string]interface{}
	Path      string
	Dir       string
}

// LoadFile reads a CWL document from a local path with an optional
// "#fragment" suffix.
func LoadFile(ref string, preprocess bool) (doc *Document, err error) {
	path, frag := SplitFragment(ref)
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, WrapParseError(err, "reading %q", path)
	}
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, WrapParseError(err, "resolving %q", path)
	}
	doc, err = LoadBytes(raw, dir, frag, preprocess)
	if err != nil {
		return nil, err
	}
	doc.Path = path
	return doc, nil
}

// LoadReader parses a CWL document from a stream, e.g. stdin.
func LoadReader(r io.Reader, dir string, preprocess bool) (*Document, error) {
	raw, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, WrapParseError(err, "reading document")
	}
	return LoadBytes(raw, dir, "", preprocess)
}

// SplitFragment splits "path#frag" into its halves.
func SplitFragment(ref string) (path, frag string) {
	if idx := strings.Index(ref, "#"); idx >= 0 {
		return ref[:idx], ref[idx+1:]
	}
	return ref, ""
}

// LoadBytes parses, preprocesses and type-loads a document held in
// memory. dir is the base for $import/$include references.
func LoadBytes(data []byte, dir, frag string, preprocess bool) (doc *Document, err error) {
	defer func() {
		if e := recover(); e != nil {
			err = NewParseError("%v", e)
		}
	}()
	trimmed := strings.TrimSpace(string(data))
	if len(trimmed) == 0 {
		return nil, NewParseError("empty document")
	}
	if trimmed[0] == '#' && strings.HasPrefix(trimmed, "#!") {
		// interpreter line
		parts := strings.SplitN(trimmed, "\n", 2)
		if len(parts) == 1 {
			return nil, NewParseError("empty document")
		}
		trimmed = parts[1]
	}
	var tree interface{}
	if err := yaml.Unmarshal([]byte(trimmed), &tree); err != nil {
		return nil, WrapParseError(err, "not valid YAML")
	}
	return LoadTree(convert(tree), dir, frag, preprocess)
}

// LoadTree runs preprocessing and the schema loader over an
// already-parsed tree.
func LoadTree(tree interface{}, dir, frag string, preprocess bool) (*Document, error) {
	var err error
	if preprocess {
		tree, err = expandRefs(tree, dir)
		if err != nil {
			return nil, err
		}
	}
	doc := &Document{
		Raw:       tree,
		Fragments: map[string]interface{}{},
		Dir:       dir,
	}
	collectFragments(tree, doc.Fragments)

	root := tree
	if frag != "" {
		var got bool
		root, got = doc.Fragments[frag]
		if !got {
			return nil, NewParseError("unresolved fragment %q", frag)
		}
	} else if m, ok := tree.(map[string]interface{}); ok {
		if graph, ok := m["$graph"]; ok {
			root, err = mainOfGraph(graph)
			if err != nil {
				return nil, err
			}
		}
	}

	raw, err := json.Marshal(root)
	if err != nil {
		return nil, WrapParseError(err, "normalizing document")
	}
	doc.Process, err = ParseCWLProcess(raw)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// expandRefs substitutes $import and $include nodes.
func expandRefs(tree interface{}, dir string) (interface{}, error) {
	switch node := tree.(type) {
	case map[string]interface{}:
		if ref, got := node["$import"]; got && len(node) == 1 {
			refStr, ok := ref.(string)
			if !ok {
				return nil, NewParseError("$import needs a string reference")
			}
			return loadImport(refStr, dir)
		}
		if ref, got := node["$include"]; got && len(node) == 1 {
			refStr, ok := ref.(string)
			if !ok {
				return nil, NewParseError("$include needs a string reference")
			}
			contents, err := ioutil.ReadFile(resolveRef(refStr, dir))
			if err != nil {
				return nil, WrapParseError(err, "$include %q", refStr)
			}
			return string(contents), nil
		}
		out := make(map[string]interface{}, len(node))
		for key, val := range node {
			expanded, err := expandRefs(val, dir)
			if err != nil {
				return nil, err
			}
			out[key] = expanded
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(node))
		for i, val := range node {
			expanded, err := expandRefs(val, dir)
			if err != nil {
				return nil, err
			}
			out[i] = expanded
		}
		return out, nil
	}
	return tree, nil
}

func loadImport(ref, dir string) (interface{}, error) {
	path, frag := SplitFragment(ref)
	path = resolveRef(path, dir)
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, WrapParseError(err, "$import %q", ref)
	}
	var tree interface{}
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, WrapParseError(err, "$import %q is not valid YAML", ref)
	}
	expanded, err := expandRefs(convert(tree), filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	if frag == "" {
		return expanded, nil
	}
	frags := map[string]interface{}{}
	collectFragments(expanded, frags)
	sub, got := frags[frag]
	if !got {
		return nil, NewParseError("unresolved fragment %q in $import %q", frag, ref)
	}
	return sub, nil
}

func resolveRef(ref, dir string) string {
	ref = strings.TrimPrefix(ref, "file://")
	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(dir, ref)
}

// collectFragments builds the id -> node table. Anonymous schema nodes
// get a synthesized id so later references stay resolvable.
func collectFragments(tree interface{}, table map[string]interface{}) {
	switch node := tree.(type) {
	case map[string]interface{}:
		id := fragmentID(node)
		if id == "" && isSchemaNode(node) {
			id = "_:" + uuid.New().String()
		}
		if id != "" {
			if _, taken := table[id]; !taken {
				table[id] = node
			}
		}
		for _, val := range node {
			collectFragments(val, table)
		}
	case []interface{}:
		for _, val := range node {
			collectFragments(val, table)
		}
	}
}

func fragmentID(node map[string]interface{}) string {
	for _, key := range []string{"id", "name"} {
		if v, got := node[key]; got {
			if s, ok := v.(string); ok && s != "" {
				return strings.TrimPrefix(s, "#")
			}
		}
	}
	return ""
}

func isSchemaNode(node map[string]interface{}) bool {
	t, got := node["type"]
	if !got {
		return false
	}
	switch t {
	case "record", "enum", "array":
		_, hasFields := node["fields"]
		_, hasSymbols := node["symbols"]
		_, hasItems := node["items"]
		return hasFields || hasSymbols || hasItems
	}
	return false
}

// mainOfGraph picks the "main" member of a $graph document.
func mainOfGraph(graph interface{}) (interface{}, error) {
	members, ok := graph.([]interface{})
	if !ok {
		return nil, NewParseError("$graph needs to be a list")
	}
	for _, m := range members {
		if node, ok := m.(map[string]interface{}); ok {
			if fragmentID(node) == "main" {
				return node, nil
			}
		}
	}
	if len(members) > 0 {
		return members[0], nil
	}
	return nil, NewParseError("$graph has no members")
}

// Y2J converts yaml to json.
func Y2J(in []byte) ([]byte, error) {
	var root interface{}
	if err := yaml.Unmarshal(in, &root); err != nil {
		return nil, err
	}
	return json.Marshal(convert(root))
}

// convert rewrites yaml's map[interface{}]interface{} nodes so the tree
// is JSON-marshalable.
func convert(parent interface{}) interface{} {
	switch entity := parent.(type) {
	case map[interface{}]interface{}:
		node := map[string]interface{}{}
		for key, val := range entity {
			node[fmt.Sprint(key)] = convert(val)
		}
		return node
	case []interface{}:
		for idx, val := range entity {
			entity[idx] = convert(val)
		}
		return entity
	}
	return parent
}
