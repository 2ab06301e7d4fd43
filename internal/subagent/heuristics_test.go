package subagent

import "testing"

func TestImportanceScoreBounds(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"hello there", 0},
		{"urgent: deploy now", 2},
		{"the build crashed with an exception", 2},
		{"@bob please handle this urgent broken deadline task", 5},
	}
	for _, tc := range cases {
		if got := ImportanceScore(tc.text); got != tc.want {
			t.Errorf("ImportanceScore(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}

	// Never outside 0-5 regardless of keyword density.
	loaded := "urgent asap critical bug error crash assign @a @b todo 紧急 报错"
	if got := ImportanceScore(loaded); got < 0 || got > 5 {
		t.Errorf("ImportanceScore out of bounds: %d", got)
	}
}

func TestSentiment(t *testing.T) {
	cases := []struct {
		text  string
		label string
	}{
		{"this is great, thanks!", "positive"},
		{"terrible, I'm blocked and frustrated", "negative"},
		{"the meeting is at 3pm", "neutral"},
		// One positive + one negative word: tie breaks to neutral.
		{"good but slow", "neutral"},
		{"太棒了，感谢", "positive"},
		{"又延期了，很失望", "negative"},
	}
	for _, tc := range cases {
		label, _ := Sentiment(tc.text)
		if label != tc.label {
			t.Errorf("Sentiment(%q) = %q, want %q", tc.text, label, tc.label)
		}
	}
}

func TestBugAndTaskDetection(t *testing.T) {
	if !IsBugReport("login page throws an error on submit") {
		t.Error("expected bug report detection")
	}
	if IsBugReport("lunch at noon?") {
		t.Error("unexpected bug report")
	}
	if !IsTaskAssignment("@carol please handle the rollout") {
		t.Error("expected task assignment detection")
	}
	if !IsTaskAssignment("这个任务交给小王") {
		t.Error("expected chinese task assignment detection")
	}
}

func TestCategorize(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"the api crashed again", "bug_report"},
		{"please handle the report", "task"},
		{"urgent: all hands now", "urgent"},
		{"see you tomorrow", "general"},
		// Bug wins over task when both appear.
		{"please handle this crash", "bug_report"},
	}
	for _, tc := range cases {
		if got := Categorize(tc.text); got != tc.want {
			t.Errorf("Categorize(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}
