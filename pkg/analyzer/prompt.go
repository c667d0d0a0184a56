package analyzer

import "fmt"

const jsonOnlyReminder = "Respond with a single JSON object only. Do not include any text outside the JSON object."

// buildToolPrompt constructs the per-tool agent prompt: a context line
// naming the sample, a fenced payload block, and the JSON-only contract
// reminder (spec §4.7 step 1).
func buildToolPrompt(sample, tool, persona, schemaHint, payload string) string {
	context := fmt.Sprintf("You are %s, reviewing %s output collected while detonating the sample %q.", persona, tool, sample)
	if persona == "" {
		context = fmt.Sprintf("You are analyzing %s output collected while detonating the sample %q.", tool, sample)
	}
	prompt := fmt.Sprintf("%s\n\n```\n%s\n```\n\n%s", context, payload, jsonOnlyReminder)
	if schemaHint != "" {
		prompt += "\n" + schemaHint
	}
	return prompt
}

// buildSummaryPrompt constructs the summarizer prompt: a header, each
// per-tool JSON result in the order given (Run sorts by tool name), then the JSON-only
// contract reminder (spec §4.7 step 4).
func buildSummaryPrompt(sample string, toolJSONs []string) string {
	header := fmt.Sprintf(
		"You are synthesizing a final threat report for the sample %q from the following per-tool analyses.\n",
		sample,
	)
	body := header
	for _, tj := range toolJSONs {
		body += "\n" + tj + "\n"
	}
	return body + "\n" + jsonOnlyReminder
}
