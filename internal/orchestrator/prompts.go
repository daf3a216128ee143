package orchestrator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/planforge/planforge/pkg/models"
)

// systemPrompt combines an agent's persona with the turn's language
// directive.
func systemPrompt(agent models.AgentDefinition, language string) string {
	var b strings.Builder
	b.WriteString(agent.SystemPrompt)
	if language != "" {
		fmt.Fprintf(&b, "\n\nRespond in the user's language: %s.", language)
	}
	b.WriteString("\nBe concrete and concise. Use your tools for any numeric estimate instead of computing it yourself.")
	return b.String()
}

// taskPrompt builds the user message for one agent task: the goal, the
// facts collected so far, and in sequential mode the outputs of the
// agents that already ran.
func taskPrompt(task models.Task, convo models.ConversationContext, prior []models.AgentResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Goal: %s\n", task.Description)

	if len(convo.Answers) > 0 {
		b.WriteString("\nWhat we know about the business so far:\n")
		keys := make([]string, 0, len(convo.Answers))
		for k := range convo.Answers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %v\n", k, convo.Answers[k])
		}
	}

	var carried []models.AgentResult
	for _, r := range prior {
		if r.Success && r.OutputText != "" {
			carried = append(carried, r)
		}
	}
	if len(carried) > 0 {
		b.WriteString("\nAnalyses from agents that already ran this turn:\n")
		for _, r := range carried {
			fmt.Fprintf(&b, "\n[%s]\n%s\n", r.AgentID, r.OutputText)
		}
		b.WriteString("\nBuild on these analyses rather than repeating them.")
	}

	return b.String()
}
