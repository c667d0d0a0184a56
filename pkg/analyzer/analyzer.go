package analyzer

import (
	"context"
	"time"

	"github.com/cloudlab/detonator/pkg/config"
	"github.com/cloudlab/detonator/pkg/llmtransport"
	"github.com/cloudlab/detonator/pkg/toolload"

	"golang.org/x/sync/errgroup"
)

// DefaultLLMCallTimeout is the per-call LLM timeout when the caller does
// not override it (spec §5: "Every LLM call has a timeout (120s by
// default)").
const DefaultLLMCallTimeout = 120 * time.Second

// Analyzer runs the C7 fan-out/fan-in pipeline over a fixed roster of
// per-tool agents plus a summarizer agent.
type Analyzer struct {
	transport   llmtransport.Transport
	roles       map[string]config.AgentRoleConfig
	loaders     map[string]toolload.Loader
	callTimeout time.Duration
}

// New builds an Analyzer wired to transport, the agent-role roster, and
// the per-tool loader registry (spec §4.6, §4.7). callTimeout of 0 uses
// DefaultLLMCallTimeout.
func New(transport llmtransport.Transport, roles map[string]config.AgentRoleConfig, loaders map[string]toolload.Loader, callTimeout time.Duration) *Analyzer {
	if callTimeout <= 0 {
		callTimeout = DefaultLLMCallTimeout
	}
	return &Analyzer{transport: transport, roles: roles, loaders: loaders, callTimeout: callTimeout}
}

// Run executes the full pipeline for one sample's report directory and
// returns the per-tool results, the overall report, and the raw
// summarizer response text (spec §4.7).
func (a *Analyzer) Run(ctx context.Context, sample, reportDir string) ([]ToolResult, Report, string) {
	names := sortedRoleNames(a.roles)
	results := make([]ToolResult, len(names))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			results[i] = a.runToolAgent(gctx, sample, reportDir, name)
			return nil
		})
	}
	// Per-tool dispatch failures are converted to inconclusive results
	// inside runToolAgent, so the group itself never returns an error
	// (spec §5: "exceptions are converted to inconclusive results rather
	// than propagated").
	_ = g.Wait()

	report, raw := a.runSummarizer(ctx, sample, results)
	return results, report, raw
}

func sortedRoleNames(roles map[string]config.AgentRoleConfig) []string {
	names := make([]string, 0, len(roles))
	for name := range roles {
		names = append(names, name)
	}
	// Deterministic ordering keeps the summarizer prompt (and any
	// persisted tool_results ordering) stable across runs.
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
	return names
}

// runToolAgent loads one tool's artifact, dispatches its LLM call (unless
// there is no data to analyze), and decodes the response into a
// ToolResult (spec §4.7 steps 1-3).
func (a *Analyzer) runToolAgent(ctx context.Context, sample, reportDir, name string) ToolResult {
	role := a.roles[name]
	loader, ok := a.loaders[name]
	if !ok {
		return ToolResult{Tool: name, Verdict: VerdictInconclusive, Summary: "no loader configured for this tool", Error: "no loader configured"}
	}

	loaded := loader(reportDir)
	if !loaded.HasData {
		return ToolResult{Tool: name, Verdict: VerdictInconclusive, Summary: loaded.PayloadText}
	}

	prompt := buildToolPrompt(sample, name, role.Persona, role.ResponseSchemaHint, loaded.PayloadText)

	raw, err := a.transport.Chat(ctx, name, prompt, a.callTimeout)
	if err != nil {
		return ToolResult{Tool: name, Verdict: VerdictInconclusive, Summary: "LLM call failed", Error: err.Error()}
	}
	if raw == "" {
		return ToolResult{Tool: name, Verdict: VerdictInconclusive, RawResponse: raw, Error: "empty LLM response"}
	}

	return decodeToolResult(name, raw)
}

// decodeToolResult applies the clean/slice/decode rules to a raw LLM
// response, falling back to the verdict heuristic on decode failure
// (spec §4.7 step 3).
func decodeToolResult(tool, raw string) ToolResult {
	var decoded map[string]any
	if !decodeJSON(raw, &decoded) {
		return ToolResult{
			Tool:        tool,
			Verdict:     inferVerdict(raw),
			Confidence:  40,
			Summary:     raw,
			RawResponse: raw,
			Error:       "failed to decode JSON response",
		}
	}

	verdict := Verdict(toString(decoded["verdict"]))
	switch verdict {
	case VerdictMalicious, VerdictSuspicious, VerdictBenign, VerdictInconclusive:
	default:
		verdict = VerdictInconclusive
	}

	return ToolResult{
		Tool:        tool,
		Verdict:     verdict,
		Confidence:  confidenceOf(decoded, "confidence"),
		Findings:    normalizeFindings(decoded["findings"]),
		IOCs:        normalizeIOCs(decoded["iocs"], false),
		Summary:     toString(decoded["summary"]),
		RawResponse: raw,
	}
}
