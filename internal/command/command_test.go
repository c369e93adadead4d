package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func args(ss ...string) [][]byte {
	out := make([][]byte, len(ss))
	for i, s := range ss {
		out[i] = []byte(s)
	}
	return out
}

func TestParsePing(t *testing.T) {
	cmd := Parse(args("PING"))
	assert.Equal(t, KindPing, cmd.Kind)
}

func TestParseEchoRequiresAtLeastOneArg(t *testing.T) {
	cmd := Parse(args("ECHO"))
	assert.Equal(t, KindErr, cmd.Kind)

	cmd = Parse(args("echo", "hello"))
	require.Equal(t, KindEcho, cmd.Kind)
	assert.Equal(t, []byte("hello"), cmd.Message)
}

func TestParseEchoJoinsMultipleArgsWithASpace(t *testing.T) {
	cmd := Parse(args("ECHO", "hello", "world"))
	require.Equal(t, KindEcho, cmd.Kind)
	assert.Equal(t, []byte("hello world"), cmd.Message)
}

func TestParseSetWithPX(t *testing.T) {
	cmd := Parse(args("SET", "key", "value", "PX", "100"))
	require.Equal(t, KindSet, cmd.Kind)
	assert.Equal(t, []byte("key"), cmd.Key)
	assert.Equal(t, []byte("value"), cmd.Value)
	assert.True(t, cmd.HasPX)
	assert.EqualValues(t, 100, cmd.PXMilli)
}

func TestParseSetWithoutExpiry(t *testing.T) {
	cmd := Parse(args("SET", "key", "value"))
	require.Equal(t, KindSet, cmd.Kind)
	assert.False(t, cmd.HasPX)
}

func TestParseSetRejectsBadPX(t *testing.T) {
	cmd := Parse(args("SET", "key", "value", "PX", "notanumber"))
	assert.Equal(t, KindErr, cmd.Kind)

	cmd = Parse(args("SET", "key", "value", "EXPIRE", "100"))
	assert.Equal(t, KindErr, cmd.Kind)
}

func TestParseReplConfAck(t *testing.T) {
	cmd := Parse(args("REPLCONF", "ACK", "42"))
	require.Equal(t, KindReplConf, cmd.Kind)
	offset, ok := cmd.IsAck()
	require.True(t, ok)
	assert.EqualValues(t, 42, offset)
}

func TestParseReplConfGetAck(t *testing.T) {
	cmd := Parse(args("REPLCONF", "GETACK", "*"))
	require.Equal(t, KindReplConf, cmd.Kind)
	assert.Equal(t, "getack", cmd.ReplConfSub)
	_, ok := cmd.IsAck()
	assert.False(t, ok)
}

func TestParsePSync(t *testing.T) {
	cmd := Parse(args("PSYNC", "?", "-1"))
	require.Equal(t, KindPSync, cmd.Kind)
	assert.Equal(t, "?", cmd.PSyncReplID)
	assert.Equal(t, "-1", cmd.PSyncOffset)
}

func TestParseWait(t *testing.T) {
	cmd := Parse(args("WAIT", "1", "500"))
	require.Equal(t, KindWait, cmd.Kind)
	assert.Equal(t, 1, cmd.NumReplicas)
	assert.EqualValues(t, 500, cmd.TimeoutMs)
}

func TestParseUnknownVerb(t *testing.T) {
	cmd := Parse(args("FLUSHALL"))
	assert.Equal(t, KindErr, cmd.Kind)
}

func TestParseEmptyArgs(t *testing.T) {
	cmd := Parse(nil)
	assert.Equal(t, KindErr, cmd.Kind)
}
