package streamer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeString(t *testing.T) {
	assert.Equal(t, "MERGE", Merge.String())
	assert.Equal(t, "DISTINCT", Distinct.String())
	assert.Equal(t, "RAW", Raw.String())
	assert.Equal(t, "COMMAND", Command.String())
}

func TestCommandSchemaFieldAt(t *testing.T) {
	schema := CommandSchema{
		FirstLevelFields:  []string{"key", "command"},
		SecondLevelFields: []string{"bid", "offer"},
	}
	name, second, ok := schema.fieldAt(0)
	assert.Equal(t, "key", name)
	assert.False(t, second)
	assert.True(t, ok)

	name, second, ok = schema.fieldAt(2)
	assert.Equal(t, "bid", name)
	assert.True(t, second)
	assert.True(t, ok)

	_, _, ok = schema.fieldAt(10)
	assert.False(t, ok)
}

func TestCommandSchemaAllFieldsFirstLevelWins(t *testing.T) {
	schema := CommandSchema{
		FirstLevelFields:  []string{"key", "command"},
		SecondLevelFields: []string{"command", "bid"},
	}
	assert.Equal(t, []string{"key", "command", "bid"}, schema.allFields())
}

func newTestSubscription(mode Mode, fields []string, schema *CommandSchema) *Subscription {
	return &Subscription{
		mode:   mode,
		fields: fields,
		schema: schema,
	}
}

func TestDecodeUpdateMerge(t *testing.T) {
	s := newTestSubscription(Merge, []string{"BID", "OFFER"}, nil)
	u, err := s.decodeUpdate("CS.D.EURUSD.CFD.IP|1.2000|1.2002")
	require.NoError(t, err)
	assert.Equal(t, "CS.D.EURUSD.CFD.IP", u.Item)
	require.Contains(t, u.Fields, "BID")
	assert.Equal(t, "1.2000", *u.Fields["BID"].Value)
	assert.Equal(t, "1.2002", *u.Fields["OFFER"].Value)
}

func TestDecodeUpdateMergeUnchangedFieldOmitted(t *testing.T) {
	s := newTestSubscription(Merge, []string{"BID", "OFFER"}, nil)
	u, err := s.decodeUpdate("CS.D.EURUSD.CFD.IP||1.2002")
	require.NoError(t, err)
	assert.NotContains(t, u.Fields, "BID")
	assert.Equal(t, "1.2002", *u.Fields["OFFER"].Value)
}

func TestDecodeUpdateAbsentValue(t *testing.T) {
	s := newTestSubscription(Merge, []string{"BID"}, nil)
	u, err := s.decodeUpdate("CS.D.EURUSD.CFD.IP|#")
	require.NoError(t, err)
	require.Contains(t, u.Fields, "BID")
	assert.Nil(t, u.Fields["BID"].Value)
	assert.True(t, u.Fields["BID"].Changed)
}

func TestDecodeUpdateCommand(t *testing.T) {
	schema := &CommandSchema{
		FirstLevelFields:  []string{"direction"},
		SecondLevelFields: []string{"bid", "offer"},
	}
	s := newTestSubscription(Command, nil, schema)
	u, err := s.decodeUpdate("WOP.D.EURUSD|12345|ADD|BUY|1.2000|1.2002")
	require.NoError(t, err)
	assert.Equal(t, "WOP.D.EURUSD", u.Item)
	assert.Equal(t, "12345", u.CommandKey)
	assert.Equal(t, "ADD", u.CommandOp)
	assert.Equal(t, "BUY", *u.Fields["direction"].Value)
	assert.Equal(t, "1.2000", *u.Fields["bid"].Value)
}

func TestDecodeUpdateCommandDeleteClearsFirstLevelFields(t *testing.T) {
	schema := &CommandSchema{
		FirstLevelFields:  []string{"direction"},
		SecondLevelFields: []string{"bid"},
	}
	s := newTestSubscription(Command, nil, schema)
	u, err := s.decodeUpdate("WOP.D.EURUSD|12345|DELETE|BUY|1.2000")
	require.NoError(t, err)
	assert.Equal(t, "DELETE", u.CommandOp)
	require.Contains(t, u.Fields, "direction")
	assert.Nil(t, u.Fields["direction"].Value)
	assert.True(t, u.Fields["direction"].Changed)
}

func TestDecodeUpdateCommandMalformedFrame(t *testing.T) {
	s := newTestSubscription(Command, nil, &CommandSchema{})
	_, err := s.decodeUpdate("WOP.D.EURUSD|12345")
	assert.Error(t, err)
}

func TestSubscriptionTerminateIdempotent(t *testing.T) {
	s := &Subscription{
		updates:     make(chan Update, 1),
		lostUpdates: make(chan int, 1),
		errs:        make(chan error, 1),
		done:        make(chan struct{}),
	}
	s.terminate()
	assert.Equal(t, Removed, s.State())
	assert.NotPanics(t, func() { s.terminate() })

	_, ok := <-s.updates
	assert.False(t, ok)
}
