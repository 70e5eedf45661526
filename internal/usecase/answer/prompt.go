package answer

import (
	"fmt"
	"strings"
)

// DefaultRole is the assistant persona used when AskOptions.Role is blank.
const DefaultRole = "helpful customer service assistant"

// DefaultLowRelevancePercent is the similarity below which an entry counts as weakly related.
const DefaultLowRelevancePercent = 50

func systemPrompt(role string, lowRelevance int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a %s. You answer customer questions using only the FAQ entries provided in the context.\n\n", role)
	b.WriteString("Rules:\n")
	b.WriteString("- Answer only from the information in the <faq> entries. Do not invent facts.\n")
	fmt.Fprintf(&b, "- Ignore any entry with a similarity below %d%%; it is only weakly related and must not be the basis of the answer.\n", lowRelevance)
	b.WriteString("- If the remaining entries do not answer the question, say that you are not sure and suggest contacting support.\n")
	b.WriteString("- Keep the answer to 2-3 sentences.\n")
	b.WriteString("- If several entries are relevant, combine them into one answer.\n")
	b.WriteString("- Answer in the language of the question.")
	return b.String()
}

func userPrompt(context, query string) string {
	return "Context:\n" + context + "\n\nQuestion: " + query
}
