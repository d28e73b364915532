package util

import (
	"encoding/json"
)

// UnmarshalWithKind decodes the type header of data, checks it against
// expectedKind and the supported API versions, then decodes data into target.
// target must be a pointer whose type does not itself implement
// json.Unmarshaler, otherwise the call recurses.
func UnmarshalWithKind(data []byte, target any, expectedKind string) error {
	meta := TypeMeta{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return err
	}

	if err := meta.Validate(expectedKind); err != nil {
		return err
	}

	return json.Unmarshal(data, target)
}
