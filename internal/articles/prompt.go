package articles

import (
	"fmt"
	"strings"
)

// promptRequirements is the fixed closing block of every compiled prompt.
const promptRequirements = `Requirements:
- Write an engaging, well-structured article
- Include proper headings and subheadings
- Make it SEO-friendly
- Provide valuable insights and information
- Include a compelling introduction and conclusion

Format the response as clean, readable text with proper markdown formatting.`

// CompilePrompt assembles the provider-agnostic generation instruction.
// Pure and deterministic: identical inputs produce an identical string.
// The context and keyword clauses are omitted entirely when empty, with no
// dangling labels.
func CompilePrompt(req *GenerateRequest, targetWords int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write a comprehensive %d-word article about %q for %s audience in a %s tone.\n",
		targetWords, req.Topic, req.Audience, req.Tone)

	if req.Context != "" {
		b.WriteString("\nAdditional context: ")
		b.WriteString(req.Context)
		b.WriteString("\n")
	}

	if len(req.Keywords) > 0 {
		b.WriteString("\nInclude these keywords naturally: ")
		b.WriteString(strings.Join(req.Keywords, ", "))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(promptRequirements)

	return b.String()
}
