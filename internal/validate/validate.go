// internal/validate/validate.go
// Package validate checks loosely typed configuration values against expected
// shapes before they reach the code that consumes them.
package validate

import "fmt"

// ShapeError reports a value that does not match the expected parameter shape.
type ShapeError struct {
	Param  string
	Detail string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("parameter %q expected map[string]int: %s", e.Param, e.Detail)
}

// IntMap validates that value is a string-keyed mapping whose values are all
// integers, and returns it coerced to map[string]int. Booleans are rejected
// even though they are often conflated with integers in loosely typed
// configuration sources. Floats are accepted only when they carry an exact
// integral value, which is how JSON and YAML decoders hand back whole numbers.
//
// Callers invoke IntMap before acting on the mapping; a *ShapeError means the
// configuration is malformed and the operation must not proceed.
func IntMap(param string, value any) (map[string]int, error) {
	switch m := value.(type) {
	case nil:
		return nil, &ShapeError{Param: param, Detail: "got nil"}
	case map[string]int:
		return m, nil
	case map[string]any:
		out := make(map[string]int, len(m))
		for key, raw := range m {
			n, err := intValue(param, key, raw)
			if err != nil {
				return nil, err
			}
			out[key] = n
		}
		return out, nil
	case map[any]any:
		// YAML decoders produce interface-keyed maps.
		out := make(map[string]int, len(m))
		for rawKey, raw := range m {
			key, ok := rawKey.(string)
			if !ok {
				return nil, &ShapeError{Param: param, Detail: fmt.Sprintf("key %v is %T, not string", rawKey, rawKey)}
			}
			n, err := intValue(param, key, raw)
			if err != nil {
				return nil, err
			}
			out[key] = n
		}
		return out, nil
	default:
		return nil, &ShapeError{Param: param, Detail: fmt.Sprintf("got %T", value)}
	}
}

func intValue(param, key string, raw any) (int, error) {
	switch v := raw.(type) {
	case bool:
		return 0, &ShapeError{Param: param, Detail: fmt.Sprintf("key %q has bool value %v (bool is not allowed, use int)", key, v)}
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, &ShapeError{Param: param, Detail: fmt.Sprintf("key %q has non-integral value %v", key, v)}
		}
		return int(v), nil
	default:
		return 0, &ShapeError{Param: param, Detail: fmt.Sprintf("key %q has value of type %T", key, raw)}
	}
}
