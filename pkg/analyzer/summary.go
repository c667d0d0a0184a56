package analyzer

import (
	"context"
	"encoding/json"
)

// summarizerAgentName is the agent name the final summarizer call is
// dispatched under.
const summarizerAgentName = "summarizer"

// runSummarizer builds and dispatches the summarizer prompt over the
// joined per-tool results, then parses the response into the overall
// report, falling back to the risk-score heuristic on decode failure
// (spec §4.7 steps 4-5).
func (a *Analyzer) runSummarizer(ctx context.Context, sample string, results []ToolResult) (Report, string) {
	toolJSONs := make([]string, 0, len(results))
	for _, r := range results {
		b, err := json.Marshal(r)
		if err != nil {
			continue
		}
		toolJSONs = append(toolJSONs, string(b))
	}

	prompt := buildSummaryPrompt(sample, toolJSONs)

	raw, err := a.transport.Chat(ctx, summarizerAgentName, prompt, a.callTimeout)
	if err != nil {
		return fallbackReport(results, "", "summarizer call failed: "+err.Error()), ""
	}
	if raw == "" {
		return fallbackReport(results, "", "empty LLM response"), ""
	}

	var decoded map[string]any
	if !decodeJSON(raw, &decoded) {
		return fallbackReport(results, raw, "failed to decode JSON response"), raw
	}

	return Report{
		RiskScore:        confidenceOf(decoded, "risk_score"),
		ThreatLevel:      ThreatLevel(toString(decoded["threat_level"])),
		Classification:   decodeClassification(decoded["classification"]),
		ExecutiveSummary: toString(decoded["executive_summary"]),
		DetailedAnalysis: toString(decoded["detailed_analysis"]),
		KeyFindings:      normalizeFindings(decoded["key_findings"]),
		IOCs:             normalizeIOCs(decoded["iocs"], true),
		MITREAttack:      normalizeMITRE(decoded["mitre_attack"]),
		Recommendations:  normalizeRecommendations(decoded["recommendations"]),
		ToolResults:      results,
		RawSummary:       raw,
		Status:           "complete",
	}, raw
}

func decodeClassification(raw any) Classification {
	m := asMap(raw)
	return Classification{
		MalwareType:   toString(m["malware_type"]),
		MalwareFamily: toString(m["malware_family"]),
		Platform:      toString(m["platform"]),
		Confidence:    confidenceOf(m, "confidence"),
	}
}

// fallbackReport implements the fallback risk-score heuristic used when
// the summarizer response cannot be decoded (spec §4.7): M = count of
// malicious per-tool verdicts, S = count of suspicious. The raw text,
// when present, is kept verbatim as the executive summary.
func fallbackReport(results []ToolResult, raw, errMsg string) Report {
	var m, s int
	for _, r := range results {
		switch r.Verdict {
		case VerdictMalicious:
			m++
		case VerdictSuspicious:
			s++
		}
	}

	var score int
	var level ThreatLevel
	switch {
	case m > 0:
		score = clamp(50+15*m, 0, 85)
		if score >= 70 {
			level = ThreatHigh
		} else {
			level = ThreatMedium
		}
	case s > 0:
		score = clamp(30+15*s, 0, 65)
		level = ThreatMedium
	default:
		score = 20
		level = ThreatLow
	}

	summary := raw
	if summary == "" {
		summary = errMsg
	}

	return Report{
		RiskScore:        score,
		ThreatLevel:      level,
		ExecutiveSummary: summary,
		ToolResults:      results,
		RawSummary:       raw,
		Status:           "complete",
		Error:            errMsg,
	}
}
