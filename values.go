package cwl

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v2"
)

// Value ...
type Value interface{}

// Values represents the job: the mapping from parameter ids to concrete
// input values.
type Values map[string]Value

// NewValues ...
func NewValues() *Values {
	return &Values{}
}

// Decode reads a job document; a ".json" suffix selects JSON, anything
// else is parsed as YAML.
func (p *Values) Decode(f *os.File) error {
	b, err := ioutil.ReadAll(f)
	if err != nil {
		return err
	}
	return p.DecodeBytes(b, filepath.Ext(f.Name()))
}

// DecodeBytes ...
func (p *Values) DecodeBytes(b []byte, ext string) error {
	if ext != ".json" {
		var err error
		b, err = Y2J(b)
		if err != nil {
			return WrapParseError(err, "job document")
		}
	}
	if err := json.Unmarshal(b, p); err != nil {
		return WrapParseError(err, "job document")
	}
	return nil
}

func (recv *Values) UnmarshalJSON(b []byte) error {
	if *recv == nil {
		*recv = Values{}
	}
	var any interface{}
	if err := json.Unmarshal(b, &any); err != nil {
		return err
	}
	params, ok := any.(map[string]interface{})
	if !ok {
		return fmt.Errorf("not a key-value type")
	}
	for key, value := range params {
		v, err := ConvertToValue(value)
		if err != nil {
			return err
		}
		(*recv)[key] = v
	}
	return nil
}

// ConvertToValue lifts the {class: File|Directory} mappings of a raw
// value into their typed form.
func ConvertToValue(bean interface{}) (out Value, err error) {
	switch t := bean.(type) {
	case []interface{}:
		arr := make([]Value, len(t))
		for i, item := range t {
			v, err := ConvertToValue(item)
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return arr, nil
	case map[string]interface{}:
		tClass, got := t["class"]
		if !got {
			break
		}
		switch tClass {
		case "File":
			var entry File
			raw, err := json.Marshal(bean)
			if err != nil {
				return nil, err
			}
			if err = json.Unmarshal(raw, &entry); err != nil {
				return nil, err
			}
			return entry, nil
		case "Directory":
			var entry Directory
			raw, err := json.Marshal(bean)
			if err != nil {
				return nil, err
			}
			if err = json.Unmarshal(raw, &entry); err != nil {
				return nil, err
			}
			return entry, nil
		}
	}
	return bean, nil
}

// J2Y converts a JSON-shaped value tree to YAML text.
func J2Y(bean interface{}) ([]byte, error) {
	raw, err := json.Marshal(bean)
	if err != nil {
		return nil, err
	}
	var root interface{}
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, err
	}
	return yaml.Marshal(root)
}
