// Package integration wraps the external collaborators of the standup
// agent: the Slack Web API and the gh CLI.
package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// SlackErrorKind classifies Slack API failures into the small set of
// causes the agent knows how to explain.
type SlackErrorKind string

const (
	SlackErrAuth            SlackErrorKind = "auth"
	SlackErrChannelNotFound SlackErrorKind = "channel_not_found"
	SlackErrNotInChannel    SlackErrorKind = "not_in_channel"
	SlackErrRateLimited     SlackErrorKind = "rate_limited"
	SlackErrUnknown         SlackErrorKind = "unknown"
)

// SlackError is a classified Slack API failure. Code carries the raw API
// error string (e.g. "invalid_auth") for diagnostics.
type SlackError struct {
	Kind SlackErrorKind
	Code string
}

func (e *SlackError) Error() string {
	return fmt.Sprintf("slack api error: %s (%s)", e.Code, e.Kind)
}

// Message is a message returned by the channel history API.
type Message struct {
	TS       string `json:"ts"`
	ThreadTS string `json:"thread_ts,omitempty"`
	Text     string `json:"text"`
	User     string `json:"user,omitempty"`
}

// SlackClient is the chat platform client contract consumed by the
// publish protocol and the data-gathering tools.
type SlackClient interface {
	// ResolveChannelID maps a channel name (with or without #) or id to a
	// stable channel id. The mapping is effectively static, so results
	// are cached for the process lifetime.
	ResolveChannelID(name string) (string, error)

	// PostToThread posts text as a reply under threadTS and returns the
	// new message's ts.
	PostToThread(channelID, threadTS, text string) (string, error)

	// RecentMessages returns up to limit messages newer than oldest.
	RecentMessages(channelID string, oldest time.Time, limit int) ([]Message, error)

	// FindStandupThread scans recent channel history for the newest
	// message mentioning "standup" and returns its thread timestamp, or
	// "" when none is found.
	FindStandupThread(channelID string, daysBack int) (string, error)

	// Remedy renders an error from this client as an actionable message.
	Remedy(err error) string
}

// httpSlackClient implements SlackClient against the Slack Web API with
// plain net/http.
type httpSlackClient struct {
	baseURL string
	token   string
	client  *http.Client

	mu           sync.Mutex
	channelCache map[string]string
}

// NewSlackClient creates a SlackClient using the given bot token.
func NewSlackClient(token string) SlackClient {
	return &httpSlackClient{
		baseURL:      "https://slack.com/api",
		token:        token,
		client:       &http.Client{Timeout: 30 * time.Second},
		channelCache: make(map[string]string),
	}
}

// NewSlackClientForTest creates a SlackClient pointed at a test server.
func NewSlackClientForTest(baseURL, token string) SlackClient {
	c := NewSlackClient(token).(*httpSlackClient)
	c.baseURL = baseURL
	return c
}

func (c *httpSlackClient) ResolveChannelID(name string) (string, error) {
	// Already an id.
	if strings.HasPrefix(name, "C") || strings.HasPrefix(name, "G") {
		return name, nil
	}
	name = strings.TrimPrefix(name, "#")

	c.mu.Lock()
	if id, ok := c.channelCache[name]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	cursor := ""
	for {
		params := url.Values{
			"types": {"public_channel,private_channel"},
			"limit": {"200"},
		}
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		var resp struct {
			apiResponse
			Channels []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"channels"`
			ResponseMetadata struct {
				NextCursor string `json:"next_cursor"`
			} `json:"response_metadata"`
		}
		if err := c.call("conversations.list", params, &resp); err != nil {
			return "", err
		}

		for _, ch := range resp.Channels {
			if ch.Name == name {
				c.mu.Lock()
				c.channelCache[name] = ch.ID
				c.mu.Unlock()
				return ch.ID, nil
			}
		}

		cursor = resp.ResponseMetadata.NextCursor
		if cursor == "" {
			break
		}
	}

	return "", &SlackError{Kind: SlackErrChannelNotFound, Code: "channel_not_found"}
}

func (c *httpSlackClient) PostToThread(channelID, threadTS, text string) (string, error) {
	params := url.Values{
		"channel":   {channelID},
		"thread_ts": {threadTS},
		"text":      {text},
	}

	var resp struct {
		apiResponse
		TS string `json:"ts"`
	}
	if err := c.call("chat.postMessage", params, &resp); err != nil {
		return "", err
	}
	return resp.TS, nil
}

func (c *httpSlackClient) RecentMessages(channelID string, oldest time.Time, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}

	params := url.Values{
		"channel": {channelID},
		"limit":   {fmt.Sprintf("%d", limit)},
	}
	if !oldest.IsZero() {
		params.Set("oldest", fmt.Sprintf("%d", oldest.Unix()))
	}

	var resp struct {
		apiResponse
		Messages []Message `json:"messages"`
	}
	if err := c.call("conversations.history", params, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func (c *httpSlackClient) FindStandupThread(channelID string, daysBack int) (string, error) {
	if daysBack <= 0 {
		daysBack = 7
	}
	oldest := time.Now().Add(-time.Duration(daysBack) * 24 * time.Hour)

	messages, err := c.RecentMessages(channelID, oldest, 100)
	if err != nil {
		return "", err
	}

	// History is newest-first; the first match is the latest thread.
	for _, msg := range messages {
		if strings.Contains(strings.ToLower(msg.Text), "standup") {
			if msg.ThreadTS != "" {
				return msg.ThreadTS, nil
			}
			return msg.TS, nil
		}
	}
	return "", nil
}

// Remedy maps a classified failure to a distinct actionable message.
func (c *httpSlackClient) Remedy(err error) string {
	var se *SlackError
	if !errors.As(err, &se) {
		return fmt.Sprintf("Error publishing to Slack: %v", err)
	}

	switch se.Kind {
	case SlackErrAuth:
		return "Slack rejected the bot token. Re-check STANDUP_SLACK_BOT_TOKEN and the app's chat:write scope."
	case SlackErrChannelNotFound:
		return "Slack channel not found. Check the slack_channel setting (name without #, or a channel ID)."
	case SlackErrNotInChannel:
		return "The bot is not a member of the channel. Invite it with /invite in Slack and retry."
	case SlackErrRateLimited:
		return "Slack rate-limited or timed out the request. Wait a moment and retry; your confirmation still stands."
	default:
		return fmt.Sprintf("Slack API error: %s. Retry, or check the app configuration.", se.Code)
	}
}

// apiResponse is the envelope every Slack Web API response carries.
type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func (r *apiResponse) envelope() *apiResponse { return r }

// envelopeCarrier lets call inspect the ok/error envelope of any typed
// response struct that embeds apiResponse.
type envelopeCarrier interface {
	envelope() *apiResponse
}

func (c *httpSlackClient) call(method string, params url.Values, out envelopeCarrier) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/"+method, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("building slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return &SlackError{Kind: SlackErrRateLimited, Code: "request_failed"}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &SlackError{Kind: SlackErrRateLimited, Code: "rate_limited"}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding slack response: %w", err)
	}

	env := out.envelope()
	if !env.OK {
		return classifySlackError(env.Error)
	}
	return nil
}

func classifySlackError(code string) *SlackError {
	switch code {
	case "invalid_auth", "not_authed", "account_inactive", "token_revoked", "token_expired":
		return &SlackError{Kind: SlackErrAuth, Code: code}
	case "channel_not_found":
		return &SlackError{Kind: SlackErrChannelNotFound, Code: code}
	case "not_in_channel":
		return &SlackError{Kind: SlackErrNotInChannel, Code: code}
	case "rate_limited", "ratelimited":
		return &SlackError{Kind: SlackErrRateLimited, Code: code}
	default:
		return &SlackError{Kind: SlackErrUnknown, Code: code}
	}
}
