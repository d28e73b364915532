package util

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes a YAML document into target through its JSON form, so
// json struct tags and UnmarshalJSON methods apply. Keys follow YAML 1.2: an
// unquoted y or no stays a string key. Mappings with non-string keys are
// rejected.
func UnmarshalYAML(data []byte, target any) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}

	doc, err := jsonValue(doc, "")
	if err != nil {
		return err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	return json.Unmarshal(raw, target)
}

func jsonValue(v any, path string) (any, error) {
	switch v := v.(type) {
	case map[string]any:
		for k, val := range v {
			conv, err := jsonValue(val, path+"."+k)
			if err != nil {
				return nil, err
			}
			v[k] = conv
		}
		return v, nil
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("%s: mapping key %v is not a string", displayPath(path), k)
			}
			conv, err := jsonValue(val, path+"."+key)
			if err != nil {
				return nil, err
			}
			out[key] = conv
		}
		return out, nil
	case []any:
		for i, val := range v {
			conv, err := jsonValue(val, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			v[i] = conv
		}
		return v, nil
	default:
		return v, nil
	}
}

func displayPath(path string) string {
	if path == "" {
		return "document root"
	}
	return strings.TrimPrefix(path, ".")
}
