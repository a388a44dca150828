package notify

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAPI struct {
	channels []string
	options  [][]slack.MsgOption
	err      error
}

func (r *recordingAPI) PostMessage(channelID string, options ...slack.MsgOption) (string, string, error) {
	r.channels = append(r.channels, channelID)
	r.options = append(r.options, options)
	return channelID, "123.456", r.err
}

func testEvent() SessionEvent {
	return SessionEvent{
		SessionID:         uuid.New(),
		UserID:            uuid.New(),
		Status:            "COMPLETED",
		Stamina:           87,
		FocusGauge:        95,
		TotalStudySeconds: 5400,
		Timestamp:         time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestSlackNotifierPostsToConfiguredChannel(t *testing.T) {
	api := &recordingAPI{}
	n := NewSlackNotifierWithAPI(api, "C012345", zerolog.Nop())

	n.NotifySessionEvent(testEvent())

	require.Len(t, api.channels, 1)
	assert.Equal(t, "C012345", api.channels[0])
	require.Len(t, api.options[0], 1)
}

func TestSlackNotifierSwallowsDeliveryError(t *testing.T) {
	api := &recordingAPI{err: errors.New("channel_not_found")}
	n := NewSlackNotifierWithAPI(api, "C012345", zerolog.Nop())

	assert.NotPanics(t, func() {
		n.NotifySessionEvent(testEvent())
	})
	assert.Len(t, api.channels, 1)
}

func TestNopNotifier(t *testing.T) {
	var n Notifier = Nop{}
	assert.NotPanics(t, func() {
		n.NotifySessionEvent(testEvent())
	})
}
