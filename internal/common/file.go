package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode"

	"gopkg.in/yaml.v3"
)

var ErrEmptyDocument = errors.New("empty document")

// DecodeDocument decodes a YAML or JSON document into T through T's json
// tags. A document starting with '{' or '[' is read as JSON, anything else
// as YAML.
func DecodeDocument[T any](data []byte) (*T, error) {
	data = bytes.TrimLeftFunc(data, unicode.IsSpace)
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}

	if data[0] != '{' && data[0] != '[' {
		var yamlData any
		if err := yaml.Unmarshal(data, &yamlData); err != nil {
			return nil, fmt.Errorf("invalid YAML document: %w", err)
		}
		if yamlData == nil {
			return nil, ErrEmptyDocument
		}

		jsonData, err := json.Marshal(yamlData)
		if err != nil {
			return nil, fmt.Errorf("failed to convert YAML document: %w", err)
		}
		data = jsonData
	}

	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}
	return &item, nil
}
