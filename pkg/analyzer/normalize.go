package analyzer

import "fmt"

// The normalize* functions coerce loosely-typed decoded JSON (maps with
// `any` values, as produced by encoding/json unmarshaling into
// map[string]any) into the fixed-shape types in types.go. They are
// idempotent: re-running normalize over its own (already string-typed)
// output is a no-op, since toString on a string returns it unchanged
// (spec §8: "normalize(normalize(x)) = normalize(x)").

func toString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

// normalizeFindings coerces a decoded `findings` array into
// `{severity, indicator|source, description}` entries (spec §4.7).
func normalizeFindings(raw any) []Finding {
	items := asSlice(raw)
	out := make([]Finding, 0, len(items))
	for _, item := range items {
		m := asMap(item)
		out = append(out, Finding{
			Severity:    toString(m["severity"]),
			Indicator:   toString(m["indicator"]),
			Source:      toString(m["source"]),
			Description: toString(m["description"]),
		})
	}
	return out
}

// normalizeIOCs coerces a decoded `iocs` array. Summary-level IOCs
// additionally carry a severity field; per-tool IOCs do not (spec §4.7).
func normalizeIOCs(raw any, summaryLevel bool) []IOC {
	items := asSlice(raw)
	out := make([]IOC, 0, len(items))
	for _, item := range items {
		m := asMap(item)
		ioc := IOC{
			Type:  toString(m["type"]),
			Value: toString(m["value"]),
		}
		if summaryLevel {
			ioc.Severity = toString(m["severity"])
		}
		out = append(out, ioc)
	}
	return out
}

// normalizeMITRE coerces a decoded `mitre_attack` array, accepting
// `technique_id` as a synonym for `id` (spec §4.7).
func normalizeMITRE(raw any) []MITREEntry {
	items := asSlice(raw)
	out := make([]MITREEntry, 0, len(items))
	for _, item := range items {
		m := asMap(item)
		id := toString(m["id"])
		if id == "" {
			id = toString(m["technique_id"])
		}
		out = append(out, MITREEntry{
			ID:          id,
			Name:        toString(m["name"]),
			Tactic:      toString(m["tactic"]),
			Description: toString(m["description"]),
		})
	}
	return out
}

// normalizeRecommendations coerces a decoded `recommendations` array
// (spec §4.7).
func normalizeRecommendations(raw any) []Recommendation {
	items := asSlice(raw)
	out := make([]Recommendation, 0, len(items))
	for _, item := range items {
		m := asMap(item)
		out = append(out, Recommendation{
			Priority: toString(m["priority"]),
			Action:   toString(m["action"]),
		})
	}
	return out
}

// confidenceOf extracts and clamps a numeric confidence-like field from
// decoded JSON (spec §8: "risk_score/confidence are clamped to
// [0,100]").
func confidenceOf(m map[string]any, key string) int {
	v, ok := m[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return clamp(int(n), 0, 100)
	case int:
		return clamp(n, 0, 100)
	default:
		return 0
	}
}
