// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

// cloneMap deep-copies free-form metadata. Nested maps and slices are copied;
// other values are shared, which is safe for the JSON scalar types metadata holds.
func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), v...)
	default:
		return v
	}
}

// MergeMetadata returns a new map holding dst overlaid with src. Neither input
// is modified.
func MergeMetadata(dst map[string]any, src ...map[string]any) map[string]any {
	out := cloneMap(dst)
	for _, m := range src {
		if len(m) == 0 {
			continue
		}
		if out == nil {
			out = make(map[string]any, len(m))
		}
		for k, v := range m {
			out[k] = cloneValue(v)
		}
	}
	return out
}
