package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nidhogg/atrium/internal/intent"
	"github.com/nidhogg/atrium/internal/relevance"
	"github.com/nidhogg/atrium/internal/subagent"
	"go.uber.org/zap"
)

const sectionDivider = "\n\n---\n\n"

const fallbackMessage = "Sorry, I couldn't finish that request. I can help you with:\n" +
	"• searching Slack messages and recent team activity\n" +
	"• checking important emails and tasks\n" +
	"• analyzing how your team has been doing\n" +
	"Try rephrasing, or ask me one of the above."

var greetingTemplates = []string{
	"Hello! How can I help you today?",
	"Hi there! Ask me about your messages, emails, or tasks.",
	"Hey! What would you like to know about your workspace?",
}

var casualTemplates = []string{
	"Happy to chat! I'm best at work questions though: messages, emails, tasks.",
	"I'll leave the small talk to the pros, but I'm great with work questions.",
}

var unknownTemplates = []string{
	"I'm not sure what you're after. Try asking about messages, emails, or tasks.",
}

// directReply synthesizes a canned reply keyed by intent category. The
// template index is derived from the input so repeated identical requests
// get the same reply.
func directReply(in intent.Intent, message, userID string) string {
	pick := func(templates []string) string {
		return templates[len(message+userID)%len(templates)]
	}
	switch in.Category {
	case intent.CategoryGreeting:
		return pick(greetingTemplates)
	case intent.CategoryCasual:
		return pick(casualTemplates)
	default:
		return pick(unknownTemplates)
	}
}

// formatSingle renders one agent result into response text.
func (o *Orchestrator) formatSingle(ctx context.Context, in intent.Intent, rel relevance.ContextRelevance, r *subagent.Result) string {
	if !r.Success {
		o.logger.Warn("agent failed",
			zap.String("agent", r.Metadata.AgentType),
			zap.String("error", r.Error))
		return fmt.Sprintf("I couldn't reach %s right now (%s). Please try again in a bit.",
			r.Metadata.AgentType, r.Error)
	}
	body := formatAgentData(r.Data)
	if rel.ResponseType == relevance.ResponseDetailedAnalysis {
		return o.polish(ctx, body)
	}
	return body
}

// formatMulti aggregates a parallel batch section-per-agent, separated by
// a divider. Failed agents are omitted; the batch still succeeds as long
// as the orchestration itself did.
func (o *Orchestrator) formatMulti(ctx context.Context, in intent.Intent, rel relevance.ContextRelevance, sources []string, results []*subagent.Result) string {
	var sections []string
	for i, r := range results {
		if r == nil || !r.Success {
			if r != nil {
				o.logger.Warn("agent failed in batch",
					zap.String("agent", sources[i]),
					zap.String("error", r.Error))
			}
			continue
		}
		sections = append(sections,
			fmt.Sprintf("**%s**\n%s", r.Metadata.AgentType, formatAgentData(r.Data)))
	}
	if len(sections) == 0 {
		return "None of your data sources responded. Please check the integrations and try again."
	}

	body := strings.Join(sections, sectionDivider)
	if rel.ResponseType == relevance.ResponseDetailedAnalysis {
		return o.polish(ctx, body)
	}
	return body
}

// formatAgentData renders an agent payload: a structured summary block
// for analysis data, a short bulleted list for messages, and a generic
// line otherwise.
func formatAgentData(data any) string {
	switch d := data.(type) {
	case *subagent.AnalysisData:
		var b strings.Builder
		fmt.Fprintf(&b, "Sentiment: %s (%.2f)\n", d.Sentiment, d.SentimentScore)
		fmt.Fprintf(&b, "Tasks: %d (%d urgent)\n", d.TaskCount, d.UrgentTaskCount)
		b.WriteString(d.Summary)
		for _, ins := range d.Insights {
			b.WriteString("\n• ")
			b.WriteString(ins)
		}
		for _, rec := range d.Recommendations {
			b.WriteString("\n→ ")
			b.WriteString(rec)
		}
		return b.String()

	case *subagent.MessagesData:
		if d.Total == 0 {
			if d.Source == "none" {
				return "No data connector is set up for this workspace yet."
			}
			return "I looked, but nothing matched."
		}
		var b strings.Builder
		limit := len(d.Messages)
		if limit > 3 {
			limit = 3
		}
		for _, m := range d.Messages[:limit] {
			fmt.Fprintf(&b, "• %s: %s\n", m.User, truncate(m.Text, 100))
		}
		fmt.Fprintf(&b, "(%d message(s) total)", d.Total)
		return b.String()

	case []subagent.NameCount:
		if len(d) == 0 {
			return "No activity found."
		}
		var b strings.Builder
		for _, nc := range d {
			fmt.Fprintf(&b, "• %s: %d messages\n", nc.Name, nc.Count)
		}
		return strings.TrimRight(b.String(), "\n")

	case map[string]string:
		if ts, ok := d["timestamp"]; ok {
			return fmt.Sprintf("Notification sent (ts %s).", ts)
		}
		return "Done."

	default:
		return "I processed your request but didn't find anything relevant."
	}
}

// polish asks the text-completion collaborator to turn the templated
// sections into a narrative. Every failure falls back to the template.
func (o *Orchestrator) polish(ctx context.Context, body string) string {
	if o.completer == nil {
		return body
	}
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	prompt := fmt.Sprintf(
		"You are an enterprise work assistant. Rewrite the following data-source findings into a concise, friendly summary for the user. Keep all numbers.\n\nFindings:\n%s", body)
	text, err := o.completer.Complete(ctx, prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		o.logger.Warn("completion failed, using templated response", zap.Error(err))
		return body
	}
	return text
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Cut on a rune boundary so multi-byte text stays valid.
	runes := []rune(s)
	for len(string(runes)) > max {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
