package ops

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/simplesearch/simplesearch/simplesearch/storage"
)

// Flatten converts a property value into the text stored in its column.
// Lists are comma-joined; nil stays NULL.
func Flatten(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch x := v.(type) {
	case []string:
		return strings.Join(x, ","), nil
	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			s, err := FlattenString(e)
			if err != nil {
				return nil, err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	case map[string]any:
		return nil, fmt.Errorf("nested objects are not supported")
	}
	return FlattenString(v)
}

// FlattenString renders a scalar as text; nil is "".
func FlattenString(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case time.Time:
		return x.UTC().Format(storage.DateLayout), nil
	case *time.Time:
		if x == nil {
			return "", nil
		}
		return x.UTC().Format(storage.DateLayout), nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int8, int16, int32, int64:
		return fmt.Sprintf("%d", x), nil
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", x), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case json.Number:
		return x.String(), nil
	case []byte:
		return string(x), nil
	case fmt.Stringer:
		return x.String(), nil
	case []any, []string, map[string]any:
		return "", fmt.Errorf("nested value of type %T is not supported", v)
	}
	return fmt.Sprint(v), nil
}
