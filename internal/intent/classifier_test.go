package intent

import (
	"reflect"
	"testing"
)

func TestClassifyCategories(t *testing.T) {
	c := NewClassifier()

	cases := []struct {
		message    string
		category   Category
		confidence float64
	}{
		{"hi", CategoryGreeting, 0.9},
		{"Hello!", CategoryGreeting, 0.9},
		{"good morning", CategoryGreeting, 0.9},
		{"你好", CategoryGreeting, 0.9},
		{"在吗？", CategoryGreeting, 0.9},
		{"what's the weather like", CategoryCasual, 0.95},
		{"thanks a lot", CategoryCasual, 0.95},
		{"讲个笑话吧", CategoryCasual, 0.95},
		{"再见", CategoryCasual, 0.95},
		{"any important emails today?", CategoryWorkQuery, 0.8},
		{"今天有什么重要邮件吗", CategoryWorkQuery, 0.8},
		{"what meetings do I have this week", CategoryWorkQuery, 0.8},
		{"我们的任务进展如何", CategoryWorkQuery, 0.8},
		{"analyze the team performance", CategoryComplexAnalysis, 0.9},
		{"分析一下团队最近的工作情况", CategoryComplexAnalysis, 0.9},
		{"summarize this week", CategoryComplexAnalysis, 0.9},
		{"帮我总结一下项目趋势", CategoryComplexAnalysis, 0.9},
		{"flibbertigibbet", CategoryUnknown, 0.3},
		{"", CategoryUnknown, 0.3},
	}

	for _, tc := range cases {
		got := c.Classify(tc.message)
		if got.Category != tc.category {
			t.Errorf("Classify(%q) category = %s, want %s", tc.message, got.Category, tc.category)
		}
		if got.Confidence != tc.confidence {
			t.Errorf("Classify(%q) confidence = %v, want %v", tc.message, got.Confidence, tc.confidence)
		}
	}
}

func TestClassifyGreetingNeverRoutedAsWork(t *testing.T) {
	c := NewClassifier()
	for _, msg := range []string{"hi", "hello", "你好", "早上好"} {
		got := c.Classify(msg)
		if got.Category != CategoryGreeting && got.Category != CategoryCasual {
			t.Errorf("Classify(%q) = %s, want greeting/casual", msg, got.Category)
		}
		if got.Confidence < 0.9 {
			t.Errorf("Classify(%q) confidence = %v, want >= 0.9", msg, got.Confidence)
		}
	}
}

func TestClassifyEntityExtraction(t *testing.T) {
	c := NewClassifier()

	got := c.Classify("any emails from @alice about project apollo today?")
	if got.Category != CategoryWorkQuery {
		t.Fatalf("category = %s, want work_query", got.Category)
	}
	wantSubset := []string{"alice", "apollo"}
	for _, w := range wantSubset {
		if !contains(got.Entities, w) {
			t.Errorf("entities %v missing %q", got.Entities, w)
		}
	}
	if !contains(got.Entities, "email") && !contains(got.Entities, "emails") {
		t.Errorf("entities %v missing email topic token", got.Entities)
	}
}

func TestClassifyTimeframe(t *testing.T) {
	c := NewClassifier()

	cases := []struct {
		message string
		tf      Timeframe
	}{
		{"any emails today", TimeframeToday},
		{"昨天的会议记录", TimeframeYesterday},
		{"my tasks this week", TimeframeThisWeek},
		{"本月项目进展", TimeframeThisMonth},
	}
	for _, tc := range cases {
		got := c.Classify(tc.message)
		if got.Timeframe != tc.tf {
			t.Errorf("Classify(%q) timeframe = %q, want %q", tc.message, got.Timeframe, tc.tf)
		}
	}
}

func TestClassifyScope(t *testing.T) {
	c := NewClassifier()

	cases := []struct {
		message string
		scope   Scope
	}{
		{"my emails today", ScopePersonal},
		{"team meetings this week", ScopeTeam},
		{"project apollo tasks today", ScopeProject},
		{"company meetings this week", ScopeOrganization},
		// No scope keyword: defaults to team.
		{"any emails today", ScopeTeam},
	}
	for _, tc := range cases {
		got := c.Classify(tc.message)
		if got.Scope != tc.scope {
			t.Errorf("Classify(%q) scope = %q, want %q", tc.message, got.Scope, tc.scope)
		}
	}
}

func TestClassifyPure(t *testing.T) {
	c := NewClassifier()
	msg := "分析一下团队最近的工作情况"
	first := c.Classify(msg)
	second := c.Classify(msg)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Classify not deterministic: %+v vs %+v", first, second)
	}
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}
