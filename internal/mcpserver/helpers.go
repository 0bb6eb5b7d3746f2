package mcpserver

import (
	"encoding/json"
	"fmt"
)

// stringify renders a callback's return value as text for a content
// block: strings pass through unchanged, everything else is JSON
// encoded so structured results stay inspectable.
func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if stringer, ok := v.(fmt.Stringer); ok {
		return stringer.String()
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(encoded)
}
