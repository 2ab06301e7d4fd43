package subagent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

const slackDataSource = "slack_workspace"

// MessageStore is the local archive consulted before any live API call.
// Implemented by the postgres store; nil when the workspace has none.
type MessageStore interface {
	Search(ctx context.Context, contextID, query string, limit int) ([]Message, error)
	Recent(ctx context.Context, contextID string, since time.Time, limit int) ([]Message, error)
}

// SlackAPI is the subset of the Slack client the agent needs.
type SlackAPI interface {
	SearchMessagesContext(ctx context.Context, query string, params slack.SearchParameters) (*slack.SearchMessages, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackAgent adapts one Slack workspace to the source-agent contract.
type SlackAgent struct {
	contextID string
	store     MessageStore
	api       SlackAPI
	timeout   time.Duration
	logger    *zap.Logger
}

// NewSlackAgent creates a Slack agent for a workspace. Both store and api
// may be nil; each action degrades to a structured result instead of
// failing construction.
func NewSlackAgent(contextID string, store MessageStore, api SlackAPI, timeout time.Duration, logger *zap.Logger) *SlackAgent {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SlackAgent{
		contextID: contextID,
		store:     store,
		api:       api,
		timeout:   timeout,
		logger:    logger,
	}
}

func (a *SlackAgent) Type() string { return "slack" }

// Execute dispatches a single action. It never panics or returns a raw
// error: every failure is folded into Result with timing preserved.
func (a *SlackAgent) Execute(ctx context.Context, action Action, params Params) (res *Result) {
	start := time.Now()
	meta := Metadata{
		AgentType:  "slack",
		Action:     action,
		DataSource: slackDataSource,
	}
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("slack agent panic",
				zap.String("action", string(action)), zap.Any("panic", r))
			meta.ProcessingTimeMs = time.Since(start).Milliseconds()
			res = &Result{Metadata: meta, Error: fmt.Sprintf("internal agent error: %v", r)}
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var (
		data any
		err  error
	)
	switch action {
	case ActionSearch:
		data, err = a.searchMessages(ctx, params)
	case ActionRecent:
		data, err = a.recentMessages(ctx, params)
	case ActionAnalyze:
		data, err = a.analyzeConversations(ctx, params)
	case ActionNotify:
		data, err = a.sendNotification(ctx, params)
	case ActionChannelActivity:
		data, err = a.channelActivity(ctx, params)
	case ActionKeyDiscussions:
		data, err = a.keyDiscussions(ctx, params)
	default:
		err = fmt.Errorf("unsupported action: %s", action)
	}

	meta.ProcessingTimeMs = time.Since(start).Milliseconds()
	if err != nil {
		return &Result{Metadata: meta, Error: err.Error()}
	}
	return &Result{Success: true, Data: data, Metadata: meta}
}

// SearchMessages is a convenience wrapper around Execute.
func (a *SlackAgent) SearchMessages(ctx context.Context, query string, limit int) *Result {
	return a.Execute(ctx, ActionSearch, Params{Query: query, Limit: limit})
}

// GetRecentMessages is a convenience wrapper around Execute.
func (a *SlackAgent) GetRecentMessages(ctx context.Context, limit int) *Result {
	return a.Execute(ctx, ActionRecent, Params{Limit: limit})
}

// AnalyzeConversations is a convenience wrapper around Execute.
func (a *SlackAgent) AnalyzeConversations(ctx context.Context, timeframe string) *Result {
	return a.Execute(ctx, ActionAnalyze, Params{Timeframe: timeframe})
}

// SendNotification is a convenience wrapper around Execute.
func (a *SlackAgent) SendNotification(ctx context.Context, channel, text string) *Result {
	return a.Execute(ctx, ActionNotify, Params{Channel: channel, Text: text})
}

// GetChannelActivity is a convenience wrapper around Execute.
func (a *SlackAgent) GetChannelActivity(ctx context.Context, timeframe string) *Result {
	return a.Execute(ctx, ActionChannelActivity, Params{Timeframe: timeframe})
}

// FindKeyDiscussions is a convenience wrapper around Execute.
func (a *SlackAgent) FindKeyDiscussions(ctx context.Context, timeframe string) *Result {
	return a.Execute(ctx, ActionKeyDiscussions, Params{Timeframe: timeframe})
}

// searchMessages tries the local archive first and only falls back to the
// live Slack search API when the archive yields nothing. The Source field
// tells callers apart: local_database, slack_api, or none when no
// connector was available at all.
func (a *SlackAgent) searchMessages(ctx context.Context, params Params) (*MessagesData, error) {
	query := strings.TrimSpace(params.Query)
	if query == "" {
		return nil, fmt.Errorf("search requires a query")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 10
	}

	if a.store != nil {
		candidates, err := a.store.Search(ctx, a.contextID, query, limit*3)
		if err != nil {
			return nil, fmt.Errorf("local search: %w", err)
		}
		ranked := rankByRelevance(query, candidates)
		if len(ranked) > 0 {
			if len(ranked) > limit {
				ranked = ranked[:limit]
			}
			return &MessagesData{
				Messages: ranked,
				Total:    len(ranked),
				Source:   "local_database",
				Query:    query,
			}, nil
		}
	}

	if a.api != nil {
		sm, err := a.api.SearchMessagesContext(ctx, query, slack.SearchParameters{Count: limit})
		if err != nil {
			return nil, fmt.Errorf("slack api search: %w", err)
		}
		msgs := make([]Message, 0, len(sm.Matches))
		for _, m := range sm.Matches {
			msgs = append(msgs, Message{
				Channel: m.Channel.Name,
				User:    m.Username,
				Text:    m.Text,
			})
		}
		return &MessagesData{
			Messages: msgs,
			Total:    len(msgs),
			Source:   "slack_api",
			Query:    query,
		}, nil
	}

	return &MessagesData{Messages: []Message{}, Source: "none", Query: query}, nil
}

// rankByRelevance orders messages by the fraction of query words found as
// substrings of the message text, dropping zero-score candidates.
func rankByRelevance(query string, msgs []Message) []Message {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return nil
	}

	type scored struct {
		msg   Message
		score float64
	}
	var ranked []scored
	for _, m := range msgs {
		lower := strings.ToLower(m.Text)
		hits := 0
		for _, w := range words {
			if strings.Contains(lower, w) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		ranked = append(ranked, scored{m, float64(hits) / float64(len(words))})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	out := make([]Message, len(ranked))
	for i, s := range ranked {
		out[i] = s.msg
	}
	return out
}

func (a *SlackAgent) recentMessages(ctx context.Context, params Params) (*MessagesData, error) {
	if a.store == nil {
		return nil, fmt.Errorf("no local message store for workspace %s", a.contextID)
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	msgs, err := a.store.Recent(ctx, a.contextID, time.Now().Add(-24*time.Hour), limit)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	return &MessagesData{Messages: msgs, Total: len(msgs), Source: "local_database"}, nil
}

// timeframeDays maps the timeframe keyword to a day window.
func timeframeDays(tf string) int {
	switch tf {
	case "day":
		return 1
	case "month":
		return 30
	default:
		return 7
	}
}

// Fixed thresholds for generated insights. Not learned, just auditable
// constants.
const (
	lowActivityPerDay  = 10
	manyChannels       = 8
	fewParticipants    = 3
	urgentScoreCutoff  = 4
	keyDiscussionScore = 3
)

func (a *SlackAgent) analyzeConversations(ctx context.Context, params Params) (*AnalysisData, error) {
	if a.store == nil {
		return nil, fmt.Errorf("no local message store for workspace %s", a.contextID)
	}
	days := timeframeDays(params.Timeframe)
	msgs, err := a.store.Recent(ctx, a.contextID, time.Now().AddDate(0, 0, -days), 1000)
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	hourCounts := make(map[int]int)
	channelCounts := make(map[string]int)
	userCounts := make(map[string]int)
	var pos, neg, tasks, urgent int

	for _, m := range msgs {
		hourCounts[m.Timestamp.Hour()]++
		channelCounts[m.Channel]++
		userCounts[m.User]++

		lower := strings.ToLower(m.Text)
		pos += countHits(lower, positiveWords)
		neg += countHits(lower, negativeWords)
		if IsTaskAssignment(m.Text) {
			tasks++
			if ImportanceScore(m.Text) >= urgentScoreCutoff {
				urgent++
			}
		}
	}

	sentiment, score := "neutral", 0.0
	if pos+neg > 0 && pos != neg {
		score = float64(pos-neg) / float64(pos+neg)
		if pos > neg {
			sentiment = "positive"
		} else {
			sentiment = "negative"
		}
	}

	data := &AnalysisData{
		Sentiment:       sentiment,
		SentimentScore:  score,
		TaskCount:       tasks,
		UrgentTaskCount: urgent,
		PeakHours:       topHours(hourCounts, 3),
		TopChannels:     topNames(channelCounts, 5),
		TopUsers:        topNames(userCounts, 5),
		TimeframeDays:   days,
	}
	data.Summary = fmt.Sprintf(
		"%d messages across %d channels and %d participants in the last %d day(s); overall sentiment %s.",
		len(msgs), len(channelCounts), len(userCounts), days, sentiment)

	perDay := float64(len(msgs)) / float64(days)
	if perDay < lowActivityPerDay {
		data.Insights = append(data.Insights,
			fmt.Sprintf("Low activity: %.1f messages per day on average.", perDay))
		data.Recommendations = append(data.Recommendations,
			"Consider more frequent stand-ups to keep discussions flowing.")
	}
	if len(channelCounts) > manyChannels {
		data.Insights = append(data.Insights,
			fmt.Sprintf("Discussion is spread over %d channels.", len(channelCounts)))
		data.Recommendations = append(data.Recommendations,
			"Consolidate overlapping channels to reduce fragmentation.")
	}
	if len(userCounts) > 0 && len(userCounts) < fewParticipants {
		data.Insights = append(data.Insights,
			fmt.Sprintf("Only %d participant(s) are active.", len(userCounts)))
		data.Recommendations = append(data.Recommendations,
			"Invite more team members into the conversation.")
	}
	if urgent > 0 {
		data.Insights = append(data.Insights,
			fmt.Sprintf("%d of %d task assignments look urgent.", urgent, tasks))
	}

	return data, nil
}

func (a *SlackAgent) sendNotification(ctx context.Context, params Params) (any, error) {
	if a.api == nil {
		return nil, fmt.Errorf("no slack connector for workspace %s", a.contextID)
	}
	if params.Channel == "" || params.Text == "" {
		return nil, fmt.Errorf("notify requires channel and text")
	}
	_, ts, err := a.api.PostMessageContext(ctx, params.Channel,
		slack.MsgOptionText(params.Text, false))
	if err != nil {
		return nil, fmt.Errorf("post message: %w", err)
	}
	return map[string]string{"channel": params.Channel, "timestamp": ts}, nil
}

func (a *SlackAgent) channelActivity(ctx context.Context, params Params) ([]NameCount, error) {
	if a.store == nil {
		return nil, fmt.Errorf("no local message store for workspace %s", a.contextID)
	}
	days := timeframeDays(params.Timeframe)
	msgs, err := a.store.Recent(ctx, a.contextID, time.Now().AddDate(0, 0, -days), 1000)
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}
	counts := make(map[string]int)
	for _, m := range msgs {
		counts[m.Channel]++
	}
	return topNames(counts, 10), nil
}

func (a *SlackAgent) keyDiscussions(ctx context.Context, params Params) (*MessagesData, error) {
	if a.store == nil {
		return nil, fmt.Errorf("no local message store for workspace %s", a.contextID)
	}
	days := timeframeDays(params.Timeframe)
	msgs, err := a.store.Recent(ctx, a.contextID, time.Now().AddDate(0, 0, -days), 1000)
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	var key []Message
	for _, m := range msgs {
		if ImportanceScore(m.Text) >= keyDiscussionScore {
			key = append(key, m)
		}
	}
	sort.SliceStable(key, func(i, j int) bool {
		return ImportanceScore(key[i].Text) > ImportanceScore(key[j].Text)
	})
	if len(key) > 10 {
		key = key[:10]
	}
	return &MessagesData{Messages: key, Total: len(key), Source: "local_database"}, nil
}

func topHours(counts map[int]int, n int) []HourCount {
	out := make([]HourCount, 0, len(counts))
	for h, c := range counts {
		out = append(out, HourCount{Hour: h, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Hour < out[j].Hour
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func topNames(counts map[string]int, n int) []NameCount {
	out := make([]NameCount, 0, len(counts))
	for name, c := range counts {
		out = append(out, NameCount{Name: name, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
