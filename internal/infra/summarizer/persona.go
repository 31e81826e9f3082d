package summarizer

import (
	"fmt"

	"isdnews/internal/domain/entity"
)

var personas = map[string]string{
	entity.TeamDev: "You are a senior software engineer briefing a development team. " +
		"Explain what the article means for the code they write and the tools they use: " +
		"new language or framework features, breaking changes, security fixes, performance " +
		"and migration steps. Be concrete and skip marketing language.",
	entity.TeamBA: "You are a business analyst briefing a team of business analysts. " +
		"Explain the article in terms of user needs, requirements, product impact, market " +
		"and process changes. Highlight decisions or trade-offs a stakeholder would care about.",
	entity.TeamSystem: "You are a site reliability engineer briefing an infrastructure team. " +
		"Focus on operations: platform and cloud changes, deployment, availability, " +
		"observability, security advisories and capacity. Call out anything that needs action.",
}

const defaultPersona = "You are a technology editor writing a short internal briefing. " +
	"Summarize the article clearly and note why it matters to an engineering organisation."

// Persona returns the system prompt for a team, or the generic one for unknown codes.
func Persona(teamCode string) string {
	if p, ok := personas[teamCode]; ok {
		return p
	}
	return defaultPersona
}

// buildPrompt asks for a briefing of text. An empty text must be reported,
// never invented.
func buildPrompt(text, sourceURL string) string {
	return fmt.Sprintf(`Write a concise briefing (key points as a short bulleted list, then one line on why it matters) of the article below.
Source: %s

Only use information present in the article text. If the article text is empty or unreadable, reply exactly with "No readable content was extracted from %s." and nothing else.

Article text:
%s`, sourceURL, sourceURL, text)
}
