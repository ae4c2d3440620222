package generate

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/lostlondon/vicd/internal/fusion"
	"github.com/lostlondon/vicd/internal/session"
)

// SystemPrompt defines the narrator persona and its grounding rules. It
// is sent unchanged with every generation request.
const SystemPrompt = `You are VIC, the voice of Vic Keegan - a warm London historian.

## How to speak
- Warm, enthusiastic, conversational British English
- First person: "I discovered...", "I've always been fascinated by..."
- Like chatting to a friend over tea
- Keep responses concise - 2-3 sentences per point, not essays
- NO meta-references like "my articles say" or "according to my research" - just share the facts naturally

## Accuracy rules
- ONLY state facts from the provided articles
- If something isn't mentioned (architect, date, designer), say "I'm not sure about that" and move on
- Never guess or infer - if you don't know, you don't know

## Style
- Be warm but get to the point
- Don't repeat the user's question back
- End with a natural follow-up like "Shall I tell you more about...?" only if relevant`

// greetingStyles vary how a known user's name is woven in so repeated
// turns don't open identically.
var greetingStyles = []string{
	"Address %[1]s naturally - 'Well %[1]s,...' or 'Ah %[1]s,...'",
	"Use %[1]s's name once warmly, then get into the story",
	"Start with '%[1]s, ' followed by an interesting fact",
	"Weave %[1]s's name in naturally mid-sentence",
}

const unknownNameInstruction = `

IMPORTANT: You do NOT know the user's name yet.
- Do NOT address them by any name (not Victor, not any name)
- Do NOT make up a name
- Simply respond without using a name, or ask "What should I call you?" at the end of your response.`

// PromptInput carries everything the prompt builder needs for one turn.
type PromptInput struct {
	Query   string
	Sources []fusion.Fused

	// UserName is the stored name; UseName gates whether this turn
	// should actually address the user by it.
	UserName string
	UseName  bool

	// Connections are cross-article facts from the knowledge graph,
	// rendered in their own section so attribution stays honest.
	Connections []session.Connection
}

// SourceContent joins the retrieved articles into the block that is both
// quoted in the prompt and used as ground truth by Validate.
func SourceContent(sources []fusion.Fused) string {
	blocks := make([]string, len(sources))
	for i, s := range sources {
		blocks[i] = fmt.Sprintf("**%s**\n%s", s.Title, s.Content)
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

// SourceTitles returns the article titles in rank order.
func SourceTitles(sources []fusion.Fused) []string {
	titles := make([]string, len(sources))
	for i, s := range sources {
		titles[i] = s.Title
	}
	return titles
}

// BuildPrompt assembles the per-turn user prompt: the question, the name
// instruction, the retrieved source material, and any graph connections.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Question: %q\n", in.Query)
	b.WriteString(nameInstruction(in.UserName, in.UseName))
	b.WriteString("\n\nSource material:\n")
	b.WriteString(SourceContent(in.Sources))
	b.WriteString(graphSection(in.Connections))
	b.WriteString("\n\nRespond naturally using facts from above. Keep it conversational and concise.")

	return b.String()
}

func nameInstruction(userName string, useName bool) string {
	if userName == "" {
		return unknownNameInstruction
	}
	if !useName {
		return fmt.Sprintf("\n\nThe user's name is %s, but do not use it this turn; just answer. Don't ask for their name.", userName)
	}
	style := greetingStyles[rand.IntN(len(greetingStyles))]
	return fmt.Sprintf("\n\nThe user's name is %s. %s. Don't ask for their name.", userName, fmt.Sprintf(style, userName))
}

func graphSection(connections []session.Connection) string {
	if len(connections) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\n## Connections from my wider network:\n")
	for _, c := range connections {
		fmt.Fprintf(&b, "- %s → %s → %s\n", c.From, c.Relation, c.To)
	}
	b.WriteString(`
IMPORTANT: If you mention any of these connections, preface it with "From my wider network..." or "Through my broader research, I can see a link between..." - this shows when information comes from connected knowledge rather than direct article content.`)
	return b.String()
}
