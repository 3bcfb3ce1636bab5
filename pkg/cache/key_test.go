package cache

import (
	"fmt"
	"math/rand"
	"testing"
)

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "operation without params",
			key: Key{
				Operation: "stats",
			},
			want: "crm:stats",
		},
		{
			name: "single param",
			key: Key{
				Operation: "search",
				Params:    map[string]any{"query": "acme"},
			},
			want: `crm:search:{"query":"acme"}`,
		},
		{
			name: "multiple params (sorted)",
			key: Key{
				Operation: "search",
				Params: map[string]any{
					"query": "acme",
					"limit": 20,
				},
			},
			want: `crm:search:{"limit":20,"query":"acme"}`,
		},
		{
			name: "nested params (sorted at every level)",
			key: Key{
				Operation: "qualification",
				Params: map[string]any{
					"filter": map[string]any{"z": 1, "a": 2},
					"id":     42,
				},
			},
			want: `crm:qualification:{"filter":{"a":2,"z":1},"id":42}`,
		},
		{
			name: "operation is trimmed",
			key: Key{
				Operation: " stats ",
				Params:    map[string]any{"type": "renouvellement"},
			},
			want: `crm:stats:{"type":"renouvellement"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.key.String()
			if got != tt.want {
				t.Errorf("Key.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestKey_Determinism ensures insertion order never changes the key.
func TestKey_Determinism(t *testing.T) {
	names := []string{"query", "limit", "type", "enterprise_id", "page", "force"}
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		values := make(map[string]any, len(names))
		for _, n := range names {
			values[n] = rng.Intn(1000)
		}

		a := make(map[string]any, len(names))
		for _, n := range names {
			a[n] = values[n]
		}
		b := make(map[string]any, len(names))
		for _, idx := range rng.Perm(len(names)) {
			b[names[idx]] = values[names[idx]]
		}

		ka := Key{Operation: "search", Params: a}.String()
		kb := Key{Operation: "search", Params: b}.String()
		if ka != kb {
			t.Fatalf("keys differ for equal params: %s vs %s", ka, kb)
		}
	}
}

// TestKey_NoCollisions ensures distinct parameter sets never share a key.
func TestKey_NoCollisions(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	seen := make(map[string]string)

	for i := 0; i < 500; i++ {
		params := map[string]any{
			"query": fmt.Sprintf("q%d", rng.Intn(50)),
			"limit": rng.Intn(30),
		}
		if rng.Intn(2) == 0 {
			params["extra"] = "a:b=c"
		}

		id := fmt.Sprintf("%v|%v|%v", params["query"], params["limit"], params["extra"])
		key := Key{Operation: "search", Params: params}.String()

		if prev, ok := seen[key]; ok && prev != id {
			t.Fatalf("collision: %s produced by %s and %s", key, prev, id)
		}
		seen[key] = id
	}

	// Separator characters inside values must not mimic another layout.
	k1 := Key{Operation: "search", Params: map[string]any{"a": "1:b=2"}}.String()
	k2 := Key{Operation: "search", Params: map[string]any{"a": 1, "b": 2}}.String()
	if k1 == k2 {
		t.Errorf("keys collide: %s", k1)
	}
}
