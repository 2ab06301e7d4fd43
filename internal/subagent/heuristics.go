package subagent

import "strings"

// Keyword tables for message-level heuristics. These are deliberately
// plain data so each supported language can be extended without touching
// the detection code.
var (
	urgencyWords = []string{
		"urgent", "asap", "immediately", "critical", "emergency", "deadline", "blocker",
		"紧急", "马上", "立刻", "尽快", "截止",
	}

	bugWords = []string{
		"bug", "error", "crash", "broken", "failure", "exception", "regression",
		"故障", "报错", "崩溃", "异常", "坏了",
	}

	assignWords = []string{
		"assign", "assigned", "please handle", "take care of", "can you do",
		"负责", "安排", "指派", "交给", "麻烦处理",
	}

	positiveWords = []string{
		"great", "good", "awesome", "nice", "thanks", "excellent", "perfect", "love", "done", "shipped",
		"很好", "太棒", "不错", "感谢", "完成", "顺利", "赞",
	}

	negativeWords = []string{
		"bad", "terrible", "awful", "hate", "angry", "frustrated", "slow", "blocked", "stuck",
		"糟糕", "很差", "生气", "失望", "卡住", "延期", "问题",
	}
)

func containsAny(lower string, words []string) bool {
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func countHits(lower string, words []string) int {
	n := 0
	for _, w := range words {
		n += strings.Count(lower, w)
	}
	return n
}

// IsImportant reports whether a message carries urgency markers.
func IsImportant(text string) bool {
	return containsAny(strings.ToLower(text), urgencyWords)
}

// IsBugReport detects bug-report style messages.
func IsBugReport(text string) bool {
	return containsAny(strings.ToLower(text), bugWords)
}

// IsTaskAssignment detects task hand-offs: an @mention plus an
// assignment word, or an assignment word alone.
func IsTaskAssignment(text string) bool {
	lower := strings.ToLower(text)
	if containsAny(lower, assignWords) {
		return true
	}
	return strings.Contains(text, "@") && containsAny(lower, []string{"todo", "task", "任务", "待办"})
}

// Sentiment classifies a message as positive, negative, or neutral by
// keyword counts. Ties break to neutral.
func Sentiment(text string) (label string, score float64) {
	lower := strings.ToLower(text)
	pos := countHits(lower, positiveWords)
	neg := countHits(lower, negativeWords)
	total := pos + neg
	if total == 0 || pos == neg {
		return "neutral", 0
	}
	score = float64(pos-neg) / float64(total)
	if pos > neg {
		return "positive", score
	}
	return "negative", score
}

// ImportanceScore rates a message 0-5 from the heuristic signals.
func ImportanceScore(text string) int {
	score := 0
	if IsImportant(text) {
		score += 2
	}
	if IsBugReport(text) {
		score += 2
	}
	if IsTaskAssignment(text) {
		score++
	}
	if strings.Contains(text, "@") {
		score++
	}
	if score > 5 {
		score = 5
	}
	return score
}

// Categorize returns the single storage-tagging label for a message.
// Checks are ordered by severity: a bug mention wins over a plain task.
func Categorize(text string) string {
	switch {
	case IsBugReport(text):
		return "bug_report"
	case IsTaskAssignment(text):
		return "task"
	case IsImportant(text):
		return "urgent"
	default:
		return "general"
	}
}
