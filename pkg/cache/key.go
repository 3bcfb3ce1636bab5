package cache

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Key represents a unique identifier for a cached operation result.
type Key struct {
	// Operation is the logical operation name (e.g., "search", "stats")
	Operation string

	// Params are the operation parameters (e.g., {"query": "acme"})
	Params map[string]any
}

// String generates a deterministic cache key string.
// Format: crm:operation:{canonical JSON params}
//
// Object keys are sorted at every nesting level, so two parameter maps
// equal by value produce the same key regardless of insertion order.
//
// Example:
//
//	crm:search:{"limit":20,"query":"acme"}
func (k Key) String() string {
	parts := []string{"crm"}

	op := strings.TrimSpace(k.Operation)
	if op != "" {
		parts = append(parts, op)
	}

	if len(k.Params) > 0 {
		parts = append(parts, canonical(k.Params))
	}

	return strings.Join(parts, ":")
}

// canonical encodes params as JSON. encoding/json writes map keys in
// sorted order, which makes the encoding canonical for JSON-like values.
func canonical(params map[string]any) string {
	data, err := json.Marshal(params)
	if err != nil {
		// fmt also prints maps with sorted keys
		return fmt.Sprintf("%v", params)
	}
	return string(data)
}
