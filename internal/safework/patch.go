package safework

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Patch is a set of named field updates keyed by JSON field name. Values
// replace the current field wholesale; nested values are not merged.
type Patch map[string]any

// readOnlyFields may never appear in a Patch.
var readOnlyFields = map[string]bool{"id": true, "createdAt": true}

// Keys returns the patch keys in sorted order.
func (p Patch) Keys() []string {
	return slices.Sorted(maps.Keys(p))
}

// ApplyPatch returns current with the fields named in patch replaced.
// current is not modified. Unknown keys, read-only keys and values that do
// not decode into the field's type yield ErrInvalidInput.
func ApplyPatch[T any](current T, patch Patch) (T, error) {
	var zero T

	raw, err := json.Marshal(current)
	if err != nil {
		return zero, fmt.Errorf("encoding record: %w", err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return zero, fmt.Errorf("decoding record fields: %w", err)
	}

	for _, key := range patch.Keys() {
		if readOnlyFields[key] {
			return zero, fmt.Errorf("%w: field %q is read-only", ErrInvalidInput, key)
		}
		if _, ok := fields[key]; !ok {
			return zero, fmt.Errorf("%w: unknown field %q", ErrInvalidInput, key)
		}
		value, err := json.Marshal(patch[key])
		if err != nil {
			return zero, fmt.Errorf("%w: field %q: %v", ErrInvalidInput, key, err)
		}
		fields[key] = value
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return zero, fmt.Errorf("encoding merged record: %w", err)
	}

	var out T
	dec := json.NewDecoder(bytes.NewReader(merged))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return zero, fmt.Errorf("%w: %s", ErrInvalidInput, strings.TrimPrefix(err.Error(), "json: "))
	}
	return out, nil
}

// PatchFromStrings builds a Patch from textual key=value input, typing each
// value after the field it targets on current: string-valued fields (dates
// and decimals included) take the text verbatim, list fields accept a bare
// comma separated list, and other fields take it as a JSON literal such as
// 12, true or [1,2].
func PatchFromStrings[T any](current T, values map[string]string) (Patch, error) {
	raw, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decoding record fields: %w", err)
	}

	patch := Patch{}
	for key, value := range values {
		field, ok := fields[key]
		if !ok {
			return nil, fmt.Errorf("%w: unknown field %q", ErrInvalidInput, key)
		}
		switch {
		case bytes.HasPrefix(field, []byte(`"`)):
			patch[key] = value
		case bytes.Equal(field, []byte("null")):
			if json.Valid([]byte(value)) && strings.ContainsAny(value[:1], "[{") {
				patch[key] = json.RawMessage(value)
			} else {
				patch[key] = value
			}
		case bytes.HasPrefix(field, []byte("[")) && !strings.HasPrefix(value, "["):
			list := "[" + value + "]"
			if !json.Valid([]byte(list)) {
				return nil, fmt.Errorf("%w: field %q: %q is not a valid list", ErrInvalidInput, key, value)
			}
			patch[key] = json.RawMessage(list)
		default:
			if !json.Valid([]byte(value)) {
				return nil, fmt.Errorf("%w: field %q: %q is not a valid value", ErrInvalidInput, key, value)
			}
			patch[key] = json.RawMessage(value)
		}
	}
	return patch, nil
}
