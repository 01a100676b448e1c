package streamer

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igmarkets/ig-go/internal/authn"
)

func testCredentials(t *testing.T) *authn.Credentials {
	t.Helper()
	creds, err := authn.NewCredentials(
		"client-1", "account-1", "abcdefabcdefabcdefabcdefabcdefabcdefabcd",
		"https://demo-apd.marketsapi.com/lightstreamer", "Europe/London",
		authn.CertificateToken{Access: "cst-token", Security: "xst-token"},
		time.Now().Add(time.Hour),
	)
	require.NoError(t, err)
	return creds
}

func newTestChannel(t *testing.T, connection *mockConn, opts ...Option) *Channel {
	t.Helper()
	creds := testCredentials(t)
	allOpts := append([]Option{
		withConnCreator(func(_ context.Context, _ url.URL) (conn, error) { return connection, nil }),
		WithReconnectLimit(1),
		WithReconnectDelay(time.Millisecond),
	}, opts...)
	ch, err := NewChannel(creds, allOpts...)
	require.NoError(t, err)
	return ch
}

func TestNewChannelRejectsOAuthToken(t *testing.T) {
	creds, err := authn.NewCredentials(
		"client-1", "account-1", "abcdefabcdefabcdefabcdefabcdefabcdefabcd",
		"https://demo-apd.marketsapi.com/lightstreamer", "Europe/London",
		authn.OAuthToken{Access: "a", Refresh: "b", Type: "Bearer"},
		time.Now().Add(time.Hour),
	)
	require.NoError(t, err)
	_, err = NewChannel(creds)
	assert.Error(t, err)
}

func TestConnectSucceeds(t *testing.T) {
	connection := newMockConn()
	defer connection.close()
	connection.pushSessionAck("CONOK,sessionId,requestLimit,keepalive,control_url transport=WS")

	ch := newTestChannel(t, connection)
	require.NoError(t, ch.Connect(context.Background()))
	assert.True(t, IsReady(ch.Status()))
	assert.NoError(t, ch.Close())
}

func TestConnectCalledTwiceFails(t *testing.T) {
	connection := newMockConn()
	defer connection.close()
	connection.pushSessionAck("CONOK,sessionId,requestLimit,keepalive,control_url transport=WS")

	ch := newTestChannel(t, connection)
	require.NoError(t, ch.Connect(context.Background()))
	err := ch.Connect(context.Background())
	assert.ErrorIs(t, err, ErrConnectCalledMultipleTimes)
	_ = ch.Close()
}

func TestConnectFailsAfterReconnectLimit(t *testing.T) {
	connection := newMockConn()
	defer connection.close()
	// No ack queued: readSessionAck will block until the conn closes, at
	// which point readMessage returns errMockClosed and initialize fails.
	connection.close()

	ch := newTestChannel(t, connection, WithReconnectLimit(1))
	err := ch.Connect(context.Background())
	assert.ErrorIs(t, err, ErrUnableToConnect)
}

func TestSubscribeBeforeConnectFails(t *testing.T) {
	connection := newMockConn()
	defer connection.close()
	ch := newTestChannel(t, connection)
	_, err := ch.Subscribe(context.Background(), Merge, []string{"CS.D.EURUSD.CFD.IP"}, []string{"BID"}, false)
	assert.ErrorIs(t, err, ErrSubscribeBeforeConnect)
}

func TestSubscribeDispatchesWireRequest(t *testing.T) {
	connection := newMockConn()
	defer connection.close()
	connection.pushSessionAck("CONOK,sessionId,requestLimit,keepalive,control_url transport=WS")

	ch := newTestChannel(t, connection)
	require.NoError(t, ch.Connect(context.Background()))

	// Drain the create_session handshake message already sitting on the
	// conn before looking for the subscribe request.
	select {
	case <-connection.writeCh:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for create_session to reach the conn")
	}

	sub, err := ch.Subscribe(context.Background(), Merge, []string{"CS.D.EURUSD.CFD.IP"}, []string{"BID"}, true)
	require.NoError(t, err)
	assert.Equal(t, Subscribing, sub.State())

	select {
	case msg := <-connection.writeCh:
		assert.Contains(t, string(msg), "subscribe")
		assert.Contains(t, string(msg), "snapshot=true")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for subscribe request to reach the conn")
	}
	_ = ch.Close()
}

func TestDisconnectStopsReconnectLoop(t *testing.T) {
	connection := newMockConn()
	connection.pushSessionAck("CONOK,sessionId,requestLimit,keepalive,control_url transport=WS")

	ch := newTestChannel(t, connection, WithReconnectLimit(0))
	require.NoError(t, ch.Connect(context.Background()))

	require.NoError(t, ch.Disconnect(context.Background()))

	require.Eventually(t, func() bool {
		s, ok := ch.Status().(DisconnectedSessionStatus)
		return ok && !s.Retrying
	}, time.Second, time.Millisecond, "channel should settle on Disconnected(retrying=false) and stay there")

	time.Sleep(20 * time.Millisecond)
	s, ok := ch.Status().(DisconnectedSessionStatus)
	require.True(t, ok)
	assert.False(t, s.Retrying, "disconnect must not be followed by an automatic reconnect attempt")
}

func TestStatusStreamDeliversTransitions(t *testing.T) {
	connection := newMockConn()
	defer connection.close()
	connection.pushSessionAck("CONOK,sessionId,requestLimit,keepalive,control_url transport=WS")

	ch := newTestChannel(t, connection)
	stream, cancel := ch.StatusStream()
	defer cancel()

	require.NoError(t, ch.Connect(context.Background()))

	var sawReady bool
	for i := 0; i < 10; i++ {
		select {
		case s := <-stream:
			if IsReady(s) {
				sawReady = true
			}
		case <-time.After(time.Second):
		}
		if sawReady {
			break
		}
	}
	assert.True(t, sawReady)
	_ = ch.Close()
}
