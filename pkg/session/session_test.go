/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amused-dev/go-amused/pkg/transport"
)

func TestEncodeCommand(t *testing.T) {
	assert.Equal(t, []byte{0x03, 'v', '6', '\n'}, EncodeCommand(CmdVersion))
	assert.Equal(t, []byte{0x02, 's', '\n'}, EncodeCommand(CmdStatus))
	assert.Equal(t, []byte{0x06, 'p', '1', '0', '3', '4', '\n'}, EncodeCommand(string(PresetBasic)))
	assert.Equal(t, []byte{0x06, 'd', 'c', '0', '0', '1', '\n'}, EncodeCommand(CmdStartStream))
}

func TestHandshakeSequence(t *testing.T) {
	ch := transport.NewMockChannel()
	s := New(PresetBasic, time.Second)

	require.NoError(t, s.Begin(context.Background(), ch))
	assert.Equal(t, Handshaking, s.State())

	want := [][]byte{
		EncodeCommand(CmdVersion),
		EncodeCommand(CmdStatus),
		EncodeCommand(CmdHalt),
		EncodeCommand(string(PresetBasic)),
		EncodeCommand(CmdStartStream),
		EncodeCommand(CmdStartStream), // the device needs it twice
		EncodeCommand(CmdKeepAlive),
	}
	assert.Equal(t, want, ch.Writes())
}

func TestHandshakeFullSensorPreset(t *testing.T) {
	ch := transport.NewMockChannel()
	s := New(PresetFullSensor, time.Second)

	require.NoError(t, s.Begin(context.Background(), ch))

	writes := ch.Writes()
	require.Len(t, writes, 7)
	assert.Equal(t, EncodeCommand("p1035"), writes[3])
}

func TestBadPresetRejected(t *testing.T) {
	ch := transport.NewMockChannel()
	s := New(Preset("p9999"), time.Second)

	err := s.Begin(context.Background(), ch)
	require.Error(t, err)
	assert.IsType(t, ErrBadPreset{}, err)
	assert.Equal(t, Disconnected, s.State())
	assert.Empty(t, ch.Writes())
}

// Command writes alone must not flip the session to Streaming; only a
// decoded frame does.
func TestStreamingRequiresFrame(t *testing.T) {
	ch := transport.NewMockChannel()
	s := New(PresetBasic, 50*time.Millisecond)

	require.NoError(t, s.Begin(context.Background(), ch))
	assert.Equal(t, Handshaking, s.State())

	err := s.AwaitStreaming(context.Background())
	require.Error(t, err)
	assert.IsType(t, ErrHandshakeTimeout{}, err)
	assert.Equal(t, Handshaking, s.State())
}

func TestFrameCompletesHandshake(t *testing.T) {
	ch := transport.NewMockChannel()
	s := New(PresetBasic, time.Second)

	require.NoError(t, s.Begin(context.Background(), ch))

	go func() {
		time.Sleep(10 * time.Millisecond)
		s.FrameReceived()
	}()
	require.NoError(t, s.AwaitStreaming(context.Background()))
	assert.Equal(t, Streaming, s.State())

	// further frames are a no-op
	s.FrameReceived()
	assert.Equal(t, Streaming, s.State())
}

func TestAwaitStreamingHonorsContext(t *testing.T) {
	ch := transport.NewMockChannel()
	s := New(PresetBasic, time.Minute)

	require.NoError(t, s.Begin(context.Background(), ch))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.AwaitStreaming(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKeepAliveOnlyWhileStreaming(t *testing.T) {
	ch := transport.NewMockChannel()
	s := New(PresetBasic, time.Second)

	err := s.KeepAlive(context.Background())
	require.Error(t, err)
	assert.IsType(t, ErrWrongState{}, err)

	require.NoError(t, s.Begin(context.Background(), ch))
	s.FrameReceived()
	writesBefore := len(ch.Writes())

	require.NoError(t, s.KeepAlive(context.Background()))
	writes := ch.Writes()
	require.Len(t, writes, writesBefore+1)
	assert.Equal(t, EncodeCommand(CmdKeepAlive), writes[len(writes)-1])
}

func TestDropToReconnecting(t *testing.T) {
	ch := transport.NewMockChannel()
	s := New(PresetBasic, time.Second)

	require.NoError(t, s.Begin(context.Background(), ch))
	s.FrameReceived()
	assert.Equal(t, Streaming, s.State())

	s.Drop(Reconnecting)
	assert.Equal(t, Reconnecting, s.State())

	// a new channel restarts the handshake
	ch2 := transport.NewMockChannel()
	require.NoError(t, s.Begin(context.Background(), ch2))
	assert.Equal(t, Handshaking, s.State())
	assert.Len(t, ch2.Writes(), 7)
}

func TestBeginTwiceRejected(t *testing.T) {
	ch := transport.NewMockChannel()
	s := New(PresetBasic, time.Second)

	require.NoError(t, s.Begin(context.Background(), ch))
	err := s.Begin(context.Background(), transport.NewMockChannel())
	require.Error(t, err)
	assert.IsType(t, ErrWrongState{}, err)
}
