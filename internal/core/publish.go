package core

import (
	"fmt"
	"strings"
	"time"
)

// ChatPoster is the subset of the chat platform client the publish
// protocol needs. The thread identifier is discovered by a separate
// data-gathering step; this component only consumes it.
type ChatPoster interface {
	// ResolveChannelID maps a human channel name to a stable channel id.
	ResolveChannelID(name string) (string, error)
	// PostToThread posts text as a reply in the given thread and returns
	// the message id.
	PostToThread(channelID, threadTS, text string) (string, error)
	// Remedy renders a transport error as an actionable user message.
	Remedy(err error) string
}

// PublishState classifies the outcome of a publish request.
type PublishState string

const (
	// PublishPreview means nothing was posted; the result message is a
	// preview plus instructions for confirming.
	PublishPreview PublishState = "preview"
	// PublishPosted means the standup was posted to the channel.
	PublishPosted PublishState = "posted"
	// PublishError means a precondition failed or the transport errored;
	// the message carries the remedy.
	PublishError PublishState = "error"
)

// PublishResult is the structured result returned to the agent runtime.
type PublishResult struct {
	State   PublishState
	Message string
}

const previewExcerptLimit = 500

// Publisher implements the two-phase confirm-then-publish protocol for
// posting a standup to a shared channel. Posting is irreversible and
// highly visible, so an unconfirmed request stages the content and
// returns a preview; only an explicit confirmation releases exactly one
// post, and the staged content wins over whatever the session's current
// standup has drifted to in between.
type Publisher struct {
	poster  ChatPoster
	channel string // configured channel name
	events  EventLogger
}

// NewPublisher creates a Publisher for the configured channel name.
// events may be nil to disable telemetry.
func NewPublisher(poster ChatPoster, channel string, events EventLogger) *Publisher {
	return &Publisher{poster: poster, channel: channel, events: events}
}

// Channel returns the configured channel name.
func (p *Publisher) Channel() string {
	return p.channel
}

// Confirm records the user's explicit approval to publish. Idempotent.
func (p *Publisher) Confirm(rc *RunContext) string {
	rc.PublishConfirmed = true
	return "Confirmation received. You can now publish the standup."
}

// Publish runs one step of the protocol. text overrides the session's
// current standup when non-empty; confirmed reflects an explicit
// confirmation carried on this call.
func (p *Publisher) Publish(rc *RunContext, text string, confirmed bool) PublishResult {
	if p.poster == nil {
		return PublishResult{
			State:   PublishError,
			Message: "Slack integration not configured. Set STANDUP_SLACK_BOT_TOKEN to enable.",
		}
	}
	if p.channel == "" {
		return PublishResult{
			State:   PublishError,
			Message: "Slack channel not configured. Set slack_channel in config.",
		}
	}

	content := text
	if content == "" {
		content = rc.CurrentStandup
	}
	if content == "" {
		return PublishResult{
			State:   PublishError,
			Message: "No standup to publish. Generate one first.",
		}
	}

	// The protocol replies in an existing thread; it never silently
	// creates a new top-level message when a thread was expected.
	if rc.SlackThreadTS == "" {
		return PublishResult{
			State: PublishError,
			Message: "No standup thread found to reply to. " +
				"Run the team standup lookup first to discover today's thread.",
		}
	}

	if !confirmed && !rc.PublishConfirmed {
		// Stage the content so the later confirmed call posts exactly
		// what was previewed, even if the current standup changes.
		rc.StagedStandup = content
		return PublishResult{State: PublishPreview, Message: p.preview(rc, content)}
	}

	// Staged content wins: what the user approved is what is sent.
	if rc.StagedStandup != "" {
		content = rc.StagedStandup
	}

	channelID := rc.SlackChannelID
	if channelID == "" {
		id, err := p.poster.ResolveChannelID(p.channel)
		if err != nil {
			// Leave confirmation and staged content intact so the user
			// can retry without re-confirming.
			return PublishResult{State: PublishError, Message: p.poster.Remedy(err)}
		}
		channelID = id
		rc.SlackChannelID = id
	}

	if _, err := p.poster.PostToThread(channelID, rc.SlackThreadTS, content); err != nil {
		return PublishResult{State: PublishError, Message: p.poster.Remedy(err)}
	}

	// One confirmation authorizes exactly one publish.
	rc.PublishConfirmed = false
	rc.StagedStandup = ""

	emit(p.events, EventStandupPosted, map[string]any{
		"owner":          rc.GitHubUsername,
		"channel":        p.channel,
		"in_thread":      true,
		"date":           time.Now().UTC().Format("2006-01-02"),
		"summary_length": len(content),
	})

	return PublishResult{
		State:   PublishPosted,
		Message: fmt.Sprintf("Posted standup to #%s (thread: %s)", p.channel, rc.SlackThreadTS),
	}
}

func (p *Publisher) preview(rc *RunContext, content string) string {
	excerpt := content
	if len(excerpt) > previewExcerptLimit {
		excerpt = excerpt[:previewExcerptLimit] + "..."
	}

	lines := []string{
		"Ready to publish to Slack:",
		"",
		fmt.Sprintf("Channel: #%s", p.channel),
		fmt.Sprintf("Thread: %s", rc.SlackThreadTS),
		"",
		"Content preview:",
		excerpt,
		"",
		"To confirm, say 'yes, publish to slack' or 'confirm publish'.",
	}
	return strings.Join(lines, "\n")
}
