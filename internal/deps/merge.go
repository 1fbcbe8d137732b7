package deps

import "github.com/rulesets-dev/rulesets/pkg/core"

// Merge returns the union of existing and derived keyed by (kind, identifier).
//
// Existing entries keep their order and win on collision; derived entries not
// already present are appended in discovery order. The bool reports whether
// anything was added. When it is false the returned slice is existing itself,
// so a nil existing stays nil.
func Merge(existing, derived []core.Dependency) ([]core.Dependency, bool) {
	if len(derived) == 0 {
		return existing, false
	}

	seen := make(map[string]struct{}, len(existing)+len(derived))
	for _, dep := range existing {
		seen[dep.Key()] = struct{}{}
	}

	var added []core.Dependency
	for _, dep := range derived {
		key := dep.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		added = append(added, dep)
	}

	if len(added) == 0 {
		return existing, false
	}

	merged := make([]core.Dependency, 0, len(existing)+len(added))
	merged = append(merged, existing...)
	merged = append(merged, added...)
	return merged, true
}
