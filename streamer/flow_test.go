package streamer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFlowChannel(connection *mockConn) *Channel {
	return &Channel{
		logger:     newStdLog(),
		user:       "account-1",
		password:   "CST-a|XST-b",
		adapterSet: "DEFAULT",
		conn:       connection,
		subs:       map[int]*Subscription{},
	}
}

func TestReadSessionAckWebSocket(t *testing.T) {
	connection := newMockConn()
	defer connection.close()
	ch := newTestFlowChannel(connection)

	connection.pushSessionAck("CONOK,sessionId,50000,5000,control_url transport=WS")
	kind, err := ch.readSessionAck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, WebSocket, kind)
}

func TestReadSessionAckHTTP(t *testing.T) {
	connection := newMockConn()
	defer connection.close()
	ch := newTestFlowChannel(connection)

	connection.pushSessionAck("CONOK,sessionId,50000,5000,control_url transport=http-polling")
	kind, err := ch.readSessionAck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Http, kind)
}

func TestReadSessionAckError(t *testing.T) {
	connection := newMockConn()
	defer connection.close()
	ch := newTestFlowChannel(connection)

	connection.pushSessionAck("CONERR,21,requested adapter set not found")
	_, err := ch.readSessionAck(context.Background())
	require.Error(t, err)
	var subErr *SubscriptionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, InvalidGroupName, subErr.Kind)
	assert.Equal(t, 21, subErr.Code)
}

func TestReadSessionAckEnd(t *testing.T) {
	connection := newMockConn()
	defer connection.close()
	ch := newTestFlowChannel(connection)

	connection.pushSessionAck("END,40,server is shutting down")
	_, err := ch.readSessionAck(context.Background())
	assert.Error(t, err)
}

func TestWriteCreateSessionIncludesCredentials(t *testing.T) {
	connection := newMockConn()
	defer connection.close()
	ch := newTestFlowChannel(connection)

	require.NoError(t, ch.writeCreateSession(context.Background()))
	msg := <-connection.writeCh
	assert.Contains(t, string(msg), "create_session")
	assert.Contains(t, string(msg), "user=account-1")
	assert.Contains(t, string(msg), "password=CST-a|XST-b")
	assert.Contains(t, string(msg), "adapter_set=DEFAULT")
}

func TestWriteSubscribeRequestSetsStateAndWritesFrame(t *testing.T) {
	connection := newMockConn()
	defer connection.close()
	ch := newTestFlowChannel(connection)

	sub := &Subscription{
		id:            7,
		mode:          Distinct,
		items:         []string{"CS.D.EURUSD.CFD.IP"},
		fields:        []string{"BID", "OFFER"},
		wantsSnapshot: false,
	}
	require.NoError(t, ch.writeSubscribeRequest(context.Background(), sub))
	assert.Equal(t, Subscribing, sub.State())

	msg := <-connection.writeCh
	assert.Contains(t, string(msg), "id=7")
	assert.Contains(t, string(msg), "mode=DISTINCT")
	assert.Contains(t, string(msg), "items=CS.D.EURUSD.CFD.IP")
	assert.Contains(t, string(msg), "snapshot=false")
}

func TestWriteUnsubscribeRequestSetsState(t *testing.T) {
	connection := newMockConn()
	defer connection.close()
	ch := newTestFlowChannel(connection)

	sub := &Subscription{id: 3}
	require.NoError(t, ch.writeUnsubscribeRequest(context.Background(), sub))
	assert.Equal(t, Unsubscribing, sub.State())

	msg := <-connection.writeCh
	assert.Equal(t, "unsubscribe\nid=3", string(msg))
}
