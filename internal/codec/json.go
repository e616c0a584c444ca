package codec

import (
	"fmt"
	"math"

	"github.com/bytedance/sonic"

	"github.com/bittrance/vector/pkg/event"
)

// fieldsAPI emits keys in sorted order and does not escape HTML characters.
var fieldsAPI = sonic.Config{
	SortMapKeys:    true,
	ValidateString: true,
}.Froze()

// marshalFields writes fields as one JSON object. NaN and infinite floats
// have no JSON form and are written as null.
func marshalFields(fields []event.Field) ([]byte, error) {
	obj := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := f.Value.Float(); ok && (math.IsNaN(v) || math.IsInf(v, 0)) {
			obj[f.Key] = nil
			continue
		}
		obj[f.Key] = f.Value.Interface()
	}

	b, err := fieldsAPI.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fields: %w", err)
	}
	return b, nil
}
