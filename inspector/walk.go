package inspector

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	cwl "github.com/lijiang2014/cwl.inspect"
)

// Walk resolves a dotted/indexed path over the typed graph. Each
// segment is a field name or a decimal index; lists of keyed objects
// are also addressable by their key field (id for parameters and
// steps, class for requirements, package for software packages).
func Walk(doc interface{}, path string) (interface{}, error) {
	node, err := canonical(doc)
	if err != nil {
		return nil, err
	}
	if path == "." || path == "" {
		return node, nil
	}
	if !strings.HasPrefix(path, ".") {
		return nil, cwl.NewInspectionError("path %q must start with '.'", path)
	}
	cur := node
	walked := "."
	for _, seg := range strings.Split(path[1:], ".") {
		next, err := step(cur, seg)
		if err != nil {
			return nil, cwl.NewInspectionError("no %q under %q", seg, walked)
		}
		cur = next
		walked = strings.TrimSuffix(walked, ".") + "." + seg
	}
	return cur, nil
}

// WalkDefault returns def instead of raising on a missing segment.
func WalkDefault(doc interface{}, path string, def interface{}) interface{} {
	out, err := Walk(doc, path)
	if err != nil {
		return def
	}
	return out
}

// Keys lists the keys at a path: the key-field values of a keyed
// list, or the field names of a mapping.
func Keys(doc interface{}, path string) ([]string, error) {
	node, err := Walk(doc, path)
	if err != nil {
		return nil, err
	}
	switch v := node.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys, nil
	case []interface{}:
		keys := make([]string, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]interface{})
			if !ok {
				return nil, cwl.NewInspectionError("list at %q has no keyed objects", path)
			}
			key := objectKey(m)
			if key == "" {
				return nil, cwl.NewInspectionError("list at %q has no keyed objects", path)
			}
			keys = append(keys, key)
		}
		return keys, nil
	}
	return nil, cwl.NewInspectionError("no keys at %q", path)
}

// step resolves one path segment.
func step(cur interface{}, seg string) (interface{}, error) {
	switch node := cur.(type) {
	case map[string]interface{}:
		v, got := node[seg]
		if !got {
			return nil, errNoSegment
		}
		return v, nil
	case []interface{}:
		if idx, err := strconv.Atoi(seg); err == nil {
			if idx < 0 || idx >= len(node) {
				return nil, errNoSegment
			}
			return node[idx], nil
		}
		for _, item := range node {
			m, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			if objectKey(m) == seg {
				return item, nil
			}
		}
		return nil, errNoSegment
	}
	return nil, errNoSegment
}

var errNoSegment = cwl.NewInspectionError("no such segment")

// objectKey picks the key field of a keyed-list element.
func objectKey(m map[string]interface{}) string {
	for _, field := range []string{"id", "class", "package"} {
		if v, got := m[field]; got {
			if s, ok := v.(string); ok {
				return strings.TrimPrefix(s, "#")
			}
		}
	}
	return ""
}

// canonical maps a typed value onto the JSON-shaped tree the navigator
// walks; the canonical form is what the loader would produce from the
// normalized document.
func canonical(v interface{}) (interface{}, error) {
	switch v.(type) {
	case map[string]interface{}, []interface{}, string, bool, float64, nil:
		return v, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, cwl.NewInspectionError("not a walkable value: %s", err)
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, cwl.NewInspectionError("not a walkable value: %s", err)
	}
	return out, nil
}
