// Package Slack posts account events to the managers' channel.
package Slack

import (
	"context"
	"fmt"
	"strings"
	"time"

	"TaskLedger/Models"
	"TaskLedger/Services"

	"github.com/slack-go/slack"
)

// Notifier implements Services.Notifier with chat.postMessage.
// Required Bot Token Scopes:
// - chat:write
// - chat:write.public (post to channels without being invited)
type Notifier struct {
	client  *slack.Client
	channel string
	timeout time.Duration
}

// NewNotifier builds a notifier. apiURL may be empty for the public Slack API;
// when set it must end with a slash.
func NewNotifier(token, channel, apiURL string) *Notifier {
	var opts []slack.Option
	if apiURL != "" {
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		opts = append(opts, slack.OptionAPIURL(apiURL))
	}
	return &Notifier{
		client:  slack.New(token, opts...),
		channel: channel,
		timeout: 15 * time.Second,
	}
}

func (n *Notifier) AccountChanged(ctx context.Context, event Services.AccountEvent) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	_, _, err := n.client.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(FormatEvent(event), false),
	)
	if err != nil {
		return fmt.Errorf("slack API error: %w", err)
	}
	return nil
}

// FormatEvent renders the one-line message managers see.
func FormatEvent(event Services.AccountEvent) string {
	var message strings.Builder
	message.WriteString(statusEmoji(event))
	message.WriteString(" ")
	switch {
	case event.Unpaused:
		message.WriteString(fmt.Sprintf("*%s* is back on account *%s* (unpaused)", event.Employee, event.AccountName))
	case event.Status == Models.AccountPaused:
		message.WriteString(fmt.Sprintf("*%s* paused account *%s*", event.Employee, event.AccountName))
	case event.Status == Models.AccountLeft:
		message.WriteString(fmt.Sprintf("*%s* left account *%s*", event.Employee, event.AccountName))
	default:
		message.WriteString(fmt.Sprintf("*%s* set account *%s* to %s", event.Employee, event.AccountName, event.Status))
	}
	return message.String()
}

func statusEmoji(event Services.AccountEvent) string {
	if event.Unpaused {
		return "🟢"
	}
	switch event.Status {
	case Models.AccountPaused:
		return "🟡"
	case Models.AccountLeft:
		return "🔴"
	default:
		return "🔵"
	}
}
