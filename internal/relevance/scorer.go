// Package relevance decides whether a classified intent needs external
// context data, and from which sources.
package relevance

import (
	"strings"

	"github.com/nidhogg/atrium/internal/intent"
)

// Source identifies an external data-source integration.
type Source string

const (
	SourceSlack  Source = "slack"
	SourceGmail  Source = "gmail"
	SourceJira   Source = "jira"
	SourceGithub Source = "github"
)

// ResponseType selects the formatting mode for the final answer.
type ResponseType string

const (
	ResponseCasual           ResponseType = "casual"
	ResponseSimpleWork       ResponseType = "simple_work"
	ResponseDetailedAnalysis ResponseType = "detailed_analysis"
)

// ContextRelevance is the scorer's verdict for one request.
type ContextRelevance struct {
	IsWorkRelated    bool         `json:"is_work_related"`
	NeedsContextData bool         `json:"needs_context_data"`
	RelevanceScore   float64      `json:"relevance_score"`
	RequiredSources  []Source     `json:"required_sources"`
	ResponseType     ResponseType `json:"response_type"`
}

// Entity hint tables: which tokens in an intent's entities pull in which
// source. Kept as data so new languages extend the table, not the code.
var (
	gmailHints  = []string{"email", "emails", "mail", "inbox", "gmail", "邮件", "邮箱"}
	jiraHints   = []string{"task", "tasks", "todo", "ticket", "tickets", "bug", "bugs", "issue", "issues", "jira", "任务", "工单", "待办"}
	githubHints = []string{"code", "commit", "commits", "pull request", "merge request", "github", "代码", "提交"}
)

// Scorer maps an Intent to a ContextRelevance. Pure and total: categories
// outside the table fall through to a safe no-context default.
type Scorer struct{}

// NewScorer creates a relevance scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score derives the context decision for an intent.
func (s *Scorer) Score(in intent.Intent) ContextRelevance {
	switch in.Category {
	case intent.CategoryGreeting, intent.CategoryCasual:
		return ContextRelevance{
			RelevanceScore:  0.0,
			RequiredSources: []Source{},
			ResponseType:    ResponseCasual,
		}
	case intent.CategoryWorkQuery:
		return ContextRelevance{
			IsWorkRelated:    true,
			NeedsContextData: true,
			RelevanceScore:   0.7,
			RequiredSources:  deriveSources(in),
			ResponseType:     ResponseSimpleWork,
		}
	case intent.CategoryComplexAnalysis:
		return ContextRelevance{
			IsWorkRelated:    true,
			NeedsContextData: true,
			RelevanceScore:   0.9,
			RequiredSources:  []Source{SourceSlack, SourceGmail, SourceJira},
			ResponseType:     ResponseDetailedAnalysis,
		}
	default:
		return ContextRelevance{
			RelevanceScore:  0.1,
			RequiredSources: []Source{},
			ResponseType:    ResponseCasual,
		}
	}
}

// deriveSources inspects entity tokens for integration hints. Slack is
// the default collaboration source when no hint matches or the query is
// team-scoped, so a work query never comes back with an empty source set.
func deriveSources(in intent.Intent) []Source {
	var sources []Source
	have := make(map[Source]bool)
	add := func(src Source) {
		if !have[src] {
			have[src] = true
			sources = append(sources, src)
		}
	}

	for _, e := range in.Entities {
		lower := strings.ToLower(e)
		if hintMatch(gmailHints, lower) {
			add(SourceGmail)
		}
		if hintMatch(jiraHints, lower) {
			add(SourceJira)
		}
		if hintMatch(githubHints, lower) {
			add(SourceGithub)
		}
	}

	if len(sources) == 0 || in.Scope == intent.ScopeTeam {
		add(SourceSlack)
	}
	return sources
}

func hintMatch(hints []string, token string) bool {
	for _, h := range hints {
		if strings.Contains(token, h) {
			return true
		}
	}
	return false
}
