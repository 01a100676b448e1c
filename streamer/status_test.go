package streamer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStatusRoundTrip(t *testing.T) {
	variants := []SessionStatus{
		ConnectingSessionStatus{},
		StalledSessionStatus{},
		DisconnectedSessionStatus{Retrying: false},
		DisconnectedSessionStatus{Retrying: true},
		ConnectedSessionStatus{Kind: Sensing, Polling: false},
		ConnectedSessionStatus{Kind: Sensing, Polling: true},
		ConnectedSessionStatus{Kind: Http, Polling: false},
		ConnectedSessionStatus{Kind: Http, Polling: true},
		ConnectedSessionStatus{Kind: WebSocket, Polling: false},
		ConnectedSessionStatus{Kind: WebSocket, Polling: true},
	}
	for _, v := range variants {
		parsed, err := ParseSessionStatus(v.String())
		require.NoError(t, err)
		assert.Equal(t, v, parsed)
	}
}

func TestParseSessionStatusRejectsUnknown(t *testing.T) {
	_, err := ParseSessionStatus("Something(else)")
	assert.Error(t, err)
}

func TestIsReady(t *testing.T) {
	assert.True(t, IsReady(ConnectedSessionStatus{Kind: Http}))
	assert.True(t, IsReady(ConnectedSessionStatus{Kind: WebSocket}))
	assert.False(t, IsReady(ConnectedSessionStatus{Kind: Sensing}))
	assert.False(t, IsReady(ConnectingSessionStatus{}))
	assert.False(t, IsReady(DisconnectedSessionStatus{}))
}

func TestIsConnecting(t *testing.T) {
	assert.True(t, IsConnecting(ConnectingSessionStatus{}))
	assert.True(t, IsConnecting(ConnectedSessionStatus{Kind: Sensing}))
	assert.False(t, IsConnecting(ConnectedSessionStatus{Kind: Http}))
	assert.False(t, IsConnecting(StalledSessionStatus{}))
}

func TestSameSessionStatus(t *testing.T) {
	assert.True(t, sameSessionStatus(DisconnectedSessionStatus{Retrying: true}, DisconnectedSessionStatus{Retrying: true}))
	assert.False(t, sameSessionStatus(DisconnectedSessionStatus{Retrying: true}, DisconnectedSessionStatus{Retrying: false}))
	assert.False(t, sameSessionStatus(ConnectingSessionStatus{}, StalledSessionStatus{}))
}
