package content

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
)

// Query evaluates a jq expression against the JSON representation of the index.
//
// Ex: '.lessons[] | select(.subject == "German") | .title'
func (i *Index) Query(expr string) ([]any, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", expr, err)
	}

	// gojq only supports generic types (map[string]any, []any, ...)
	data, err := i.asGeneric()
	if err != nil {
		return nil, err
	}

	values := []any{}
	iter := query.Run(data)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return nil, fmt.Errorf("query %q failed: %w", expr, err)
		}
		values = append(values, v)
	}
	return values, nil
}

func (i *Index) asGeneric() (any, error) {
	jsonData, err := json.Marshal(i)
	if err != nil {
		return nil, err
	}
	var data any
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, err
	}
	return data, nil
}
