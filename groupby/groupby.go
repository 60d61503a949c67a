// Package groupby implements the YAML-directed result aggregation and JSON
// export supplemented from the original system's group_by/to_json
// (original_source/half_orm/relation.py), which spec.md's distillation
// dropped in favor of the bare select()/count() surface.
package groupby

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Directive is a parsed grouping description: each key names a source row
// column, and its value is either the destination field name (a leaf), a
// nested Directive (fold to one sub-object), or a one-element slice
// containing a nested Directive (fold to a list of sub-objects).
type Directive map[string]any

// Group folds rows according to yamlDirective, the Go analogue of the
// original's group_by(). Unlike the original's incremental
// partial-key "deja vu" matching, list-level deduplication here keys on the
// full tuple of leaf values already assigned to a prior element — simpler
// to reason about and sufficient for every directive shape the original
// actually documents, at the cost of not replicating its more permissive
// partial-match behavior on pathological directives.
func Group(rows []map[string]any, yamlDirective string) ([]map[string]any, error) {
	var directive Directive
	if err := yaml.Unmarshal([]byte(yamlDirective), &directive); err != nil {
		return nil, fmt.Errorf("groupby: parse directive: %w", err)
	}
	return innerGroup(rows, directive), nil
}

func innerGroup(rows []map[string]any, directive Directive) []map[string]any {
	var out []map[string]any
	for _, row := range rows {
		leaf := map[string]any{}
		var nestedKeys []string
		for key, v := range directive {
			switch v.(type) {
			case string:
				leaf[v.(string)] = row[key]
			default:
				nestedKeys = append(nestedKeys, key)
			}
		}

		target := findMatch(out, leaf)
		if target == nil {
			target = leaf
			out = append(out, target)
		}

		for _, key := range nestedKeys {
			sub, isList, ok := asNestedDirective(directive[key])
			if !ok {
				continue
			}
			folded := innerGroup([]map[string]any{row}, sub)
			if !isList {
				if len(folded) > 0 {
					target[key] = folded[0]
				}
				continue
			}
			existing, _ := target[key].([]map[string]any)
			if len(folded) == 0 {
				target[key] = existing
				continue
			}
			if m := findMatch(existing, folded[0]); m == nil {
				existing = append(existing, folded[0])
			}
			target[key] = existing
		}
	}
	return out
}

func asNestedDirective(v any) (Directive, bool, bool) {
	switch d := v.(type) {
	case Directive:
		return d, false, true
	case map[string]any:
		return Directive(d), false, true
	case []any:
		if len(d) == 0 {
			return nil, false, false
		}
		sub, _, ok := asNestedDirective(d[0])
		return sub, true, ok
	default:
		return nil, false, false
	}
}

func findMatch(haystack []map[string]any, leaf map[string]any) map[string]any {
	for _, candidate := range haystack {
		if sameLeaf(candidate, leaf) {
			return candidate
		}
	}
	return nil
}

func sameLeaf(a, b map[string]any) bool {
	for k, v := range b {
		if av, ok := a[k]; !ok || !equalScalar(av, v) {
			return false
		}
	}
	return true
}

func equalScalar(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// ToJSON renders rows (or, with a directive, Group(rows, directive)) as
// JSON, handling time.Time and uuid.UUID the way the original's json
// handler special-cases isoformat()-able objects and uuid.UUID (spec.md's
// to_json supplement).
func ToJSON(rows []map[string]any, yamlDirective string) ([]byte, error) {
	var payload any = rows
	if yamlDirective != "" {
		grouped, err := Group(rows, yamlDirective)
		if err != nil {
			return nil, err
		}
		payload = grouped
	}
	return json.Marshal(jsonSafe(payload))
}

func jsonSafe(v any) any {
	switch val := v.(type) {
	case []map[string]any:
		out := make([]any, len(val))
		for i, m := range val {
			out[i] = jsonSafe(m)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = jsonSafe(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = jsonSafe(e)
		}
		return out
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case uuid.UUID:
		return val.String()
	default:
		return val
	}
}
