package notify

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

// PostAPI abstracts the Slack API client for testing.
type PostAPI interface {
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier posts session events to a Slack channel. Users map their
// account to a channel (typically a DM) out of band.
type SlackNotifier struct {
	api     PostAPI
	channel string
	logger  zerolog.Logger
}

// NewSlackNotifier creates a notifier posting to the given channel.
func NewSlackNotifier(botToken, channel string, logger zerolog.Logger) *SlackNotifier {
	return &SlackNotifier{
		api:     slack.New(botToken),
		channel: channel,
		logger:  logger.With().Str("component", "notify").Logger(),
	}
}

// NewSlackNotifierWithAPI injects a PostAPI, for tests.
func NewSlackNotifierWithAPI(api PostAPI, channel string, logger zerolog.Logger) *SlackNotifier {
	return &SlackNotifier{api: api, channel: channel, logger: logger.With().Str("component", "notify").Logger()}
}

// NotifySessionEvent posts the event. Errors are logged and swallowed.
func (n *SlackNotifier) NotifySessionEvent(event SessionEvent) {
	text := fmt.Sprintf("session %s is %s — stamina %d%%, focus gauge %d%%, %dm studied today",
		event.SessionID, event.Status, event.Stamina, event.FocusGauge, event.TotalStudySeconds/60)

	_, _, err := n.api.PostMessage(n.channel, slack.MsgOptionText(text, false))
	if err != nil {
		n.logger.Warn().Err(err).
			Str("session_id", event.SessionID.String()).
			Str("status", event.Status).
			Msg("notification delivery failed")
	}
}
