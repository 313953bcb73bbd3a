package arfs

import (
	"encoding/json"
	"fmt"
	"slices"
)

// ParseCustomTags groups leftover transaction tags by name. Repeated names
// accumulate their values in order. A tag that uses a protected name or has
// an empty value invalidates the whole set.
func ParseCustomTags(tags []Tag) (map[string][]string, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	out := make(map[string][]string)
	for _, t := range tags {
		if IsProtectedTagName(t.Name) {
			return nil, fmt.Errorf("%w: tag name %q collides with a protected ArFS tag", ErrInvalidCustomMetaData, t.Name)
		}
		if t.Value == "" {
			return nil, fmt.Errorf("%w: tag %q must be at least one character", ErrInvalidCustomMetaData, t.Name)
		}
		out[t.Name] = append(out[t.Name], t.Value)
	}
	return out, nil
}

// ParseCustomJSON returns the payload fields whose keys are not protected for
// the entity kind.
func ParseCustomJSON(fields map[string]json.RawMessage, protected []string) map[string]json.RawMessage {
	var out map[string]json.RawMessage
	for k, v := range fields {
		if slices.Contains(protected, k) {
			continue
		}
		if out == nil {
			out = make(map[string]json.RawMessage)
		}
		out[k] = v
	}
	return out
}
