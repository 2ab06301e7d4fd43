package intent

import (
	"regexp"
	"strings"
)

// Classifier categorizes free-text messages with ordered pattern tables.
// Rules are evaluated top-down and the first match wins: casual and
// greeting short-circuit before the work/analysis checks so small talk
// never reaches a data-fetch path. English and Chinese pattern sets are
// evaluated independently and OR'd.
type Classifier struct{}

// NewClassifier creates a pattern-based classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

var (
	casualRe = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(weather|what time is it|thank(s| you)?|bye|goodbye|see you|farewell|joke|funny|music|song|movie|film)\b`),
		regexp.MustCompile(`天气|几点了|谢谢|多谢|感谢|再见|拜拜|笑话|搞笑|音乐|唱歌|歌曲|电影`),
	}

	greetingRe = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*(hi|hello|hey|yo|good\s+(morning|afternoon|evening)|are\s+you\s+(there|here))\s*[!,.?~]*\s*$`),
		regexp.MustCompile(`^\s*(你好|您好|嗨|哈喽|早上好|早安|下午好|晚上好|在吗|在不在)\s*[！!，,。？?~]*\s*$`),
	}

	analysisVerbRe = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(analy[sz]e|analysis|summar(y|ize|ise)|report|trend|review)\b`),
		regexp.MustCompile(`分析|总结|汇总|报告|趋势|复盘`),
	}

	collectiveRe = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(team|project|department|organization|everyone)\b`),
		regexp.MustCompile(`团队|项目|部门|组织|大家`),
	}

	temporalRe = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(today|yesterday|this\s+week|this\s+month|recent(ly)?|latest|now)\b`),
		regexp.MustCompile(`今天|昨天|本周|这周|本月|这个月|最近|刚才|现在`),
	}

	possessiveRe = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(my|our|team'?s?)\b`),
		regexp.MustCompile(`我的|我们的|团队的`),
	}

	mentionRe   = regexp.MustCompile(`@([\p{L}\p{N}_.\-]+)`)
	projectEnRe = regexp.MustCompile(`(?i)\bproject\s+([A-Za-z0-9_\-]+)`)
	projectZhRe = regexp.MustCompile(`([\p{Han}A-Za-z0-9_\-]+)\s*项目`)
)

// workNouns are the work-topic words a simple query must contain. Matched
// tokens are carried into Intent.Entities so downstream source selection
// can see which integration the query is about.
var workNouns = []string{
	"email", "emails", "mail", "inbox", "gmail",
	"task", "tasks", "todo", "ticket", "tickets", "bug", "bugs", "issue", "issues", "jira",
	"meeting", "meetings", "calendar",
	"message", "messages", "channel", "slack",
	"code", "commit", "commits", "pull request", "merge request", "github",
	"邮件", "邮箱", "任务", "工单", "待办", "会议", "日程", "消息", "频道", "代码", "提交",
}

// timeframePhrases maps temporal phrases to normalized timeframes.
// Multi-word phrases are listed first so "this week" wins over no match.
var timeframePhrases = []struct {
	phrase string
	tf     Timeframe
}{
	{"this week", TimeframeThisWeek},
	{"this month", TimeframeThisMonth},
	{"本周", TimeframeThisWeek},
	{"这周", TimeframeThisWeek},
	{"这个月", TimeframeThisMonth},
	{"本月", TimeframeThisMonth},
	{"today", TimeframeToday},
	{"今天", TimeframeToday},
	{"yesterday", TimeframeYesterday},
	{"昨天", TimeframeYesterday},
}

// scopeKeywords is checked in order; the first bucket with a hit wins.
var scopeKeywords = []struct {
	scope Scope
	words []string
}{
	{ScopeOrganization, []string{"organization", "company", "org-wide", "公司", "组织", "全公司"}},
	{ScopeProject, []string{"project", "项目"}},
	{ScopeTeam, []string{"team", "团队", "我们", "大家"}},
	{ScopePersonal, []string{"my ", "mine", "我的", "个人"}},
}

// Classify maps a message to an Intent. It never fails: messages that
// match no pattern come back as CategoryUnknown with low confidence.
func (c *Classifier) Classify(message string) Intent {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return Intent{Category: CategoryUnknown, Confidence: 0.3, Entities: []string{}}
	}
	lower := strings.ToLower(msg)

	// 1. Small talk first.
	if matchAny(casualRe, msg) {
		return Intent{Category: CategoryCasual, Confidence: 0.95, Entities: []string{}}
	}

	// 2. Simple work query: temporal/possessive word + work noun.
	if (matchAny(temporalRe, msg) || matchAny(possessiveRe, msg)) && containsWorkNoun(lower) {
		return Intent{
			Category:   CategoryWorkQuery,
			Confidence: 0.8,
			Entities:   extractEntities(msg, lower),
			Timeframe:  extractTimeframe(lower),
			Scope:      extractScope(lower),
		}
	}

	// 3. Complex analysis: analysis verb + collective noun or explicit timeframe.
	if matchAny(analysisVerbRe, msg) && (matchAny(collectiveRe, msg) || extractTimeframe(lower) != "") {
		return Intent{
			Category:   CategoryComplexAnalysis,
			Confidence: 0.9,
			Entities:   extractEntities(msg, lower),
			Timeframe:  extractTimeframe(lower),
			Scope:      extractScope(lower),
		}
	}

	// 4. Short fixed greetings.
	if matchAny(greetingRe, msg) {
		return Intent{Category: CategoryGreeting, Confidence: 0.9, Entities: []string{}}
	}

	return Intent{Category: CategoryUnknown, Confidence: 0.3, Entities: []string{}}
}

func matchAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func containsWorkNoun(lower string) bool {
	for _, n := range workNouns {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}

// extractEntities collects @mentions, project names, and matched
// work-topic tokens, de-duplicated in first-seen order.
func extractEntities(msg, lower string) []string {
	seen := make(map[string]bool)
	entities := []string{}
	add := func(e string) {
		e = strings.TrimSpace(e)
		if e == "" || seen[e] {
			return
		}
		seen[e] = true
		entities = append(entities, e)
	}

	for _, m := range mentionRe.FindAllStringSubmatch(msg, -1) {
		add(m[1])
	}
	for _, m := range projectEnRe.FindAllStringSubmatch(msg, -1) {
		add(m[1])
	}
	for _, m := range projectZhRe.FindAllStringSubmatch(msg, -1) {
		add(m[1])
	}
	for _, n := range workNouns {
		if strings.Contains(lower, n) {
			add(n)
		}
	}
	return entities
}

func extractTimeframe(lower string) Timeframe {
	for _, tp := range timeframePhrases {
		if strings.Contains(lower, tp.phrase) {
			return tp.tf
		}
	}
	return ""
}

// extractScope defaults to team when no keyword hits: work queries in a
// chat workspace are usually about the surrounding team.
func extractScope(lower string) Scope {
	for _, sk := range scopeKeywords {
		for _, w := range sk.words {
			if strings.Contains(lower, w) {
				return sk.scope
			}
		}
	}
	return ScopeTeam
}
