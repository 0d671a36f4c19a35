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

package demux

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amused-dev/go-amused/pkg/layers"
)

type collectingSink struct {
	packets []*layers.RawPacket
	errs    []error
}

func (s *collectingSink) HandlePacket(p *layers.RawPacket) { s.packets = append(s.packets, p) }
func (s *collectingSink) HandleError(err error)            { s.errs = append(s.errs, err) }

func packet(h layers.Header, fill byte) []byte {
	buf := make([]byte, 1+layers.PayloadLength(h))
	buf[0] = byte(h)
	for i := 1; i < len(buf); i++ {
		buf[i] = fill
	}
	return buf
}

func TestFeedEmitsPackets(t *testing.T) {
	sink := &collectingSink{}
	d := NewDemux(sink)

	stream := append(packet(layers.HeaderEEG, 0x11), packet(layers.HeaderPPG, 0x22)...)
	stream = append(stream, packet(layers.HeaderIMU, 0x33)...)
	stream = append(stream, packet(layers.HeaderAux, 0x44)...)

	ts := time.Unix(10, 0)
	d.Feed(stream, ts)

	require.Len(t, sink.packets, 4)
	assert.Empty(t, sink.errs)
	assert.Equal(t, layers.HeaderEEG, sink.packets[0].Header)
	assert.Equal(t, layers.HeaderPPG, sink.packets[1].Header)
	assert.Equal(t, layers.HeaderIMU, sink.packets[2].Header)
	assert.Equal(t, layers.HeaderAux, sink.packets[3].Header)
	for _, p := range sink.packets {
		assert.Len(t, p.Payload, layers.PayloadLength(p.Header))
		assert.Equal(t, ts, p.Timestamp)
	}
	assert.Zero(t, d.Buffered())
}

// Chunk boundaries must not matter: feeding the same stream a byte at
// a time yields the same packets as feeding it whole.
func TestFeedByteAtATime(t *testing.T) {
	stream := append(packet(layers.HeaderEEG, 0xaa), packet(layers.HeaderPPG, 0xbb)...)
	stream = append(stream, packet(layers.HeaderIMU, 0xcc)...)

	whole := &collectingSink{}
	NewDemux(whole).Feed(stream, time.Unix(1, 0))

	split := &collectingSink{}
	d := NewDemux(split)
	for _, b := range stream {
		d.Feed([]byte{b}, time.Unix(1, 0))
	}

	require.Len(t, split.packets, len(whole.packets))
	for i := range whole.packets {
		assert.Equal(t, whole.packets[i].Header, split.packets[i].Header)
		assert.Equal(t, whole.packets[i].Payload, split.packets[i].Payload)
	}
	assert.Zero(t, d.Buffered())
}

func TestIncompletePacketStaysBuffered(t *testing.T) {
	sink := &collectingSink{}
	d := NewDemux(sink)

	full := packet(layers.HeaderEEG, 0x55)
	d.Feed(full[:len(full)-1], time.Unix(2, 0))

	assert.Empty(t, sink.packets)
	assert.Empty(t, sink.errs)
	assert.Equal(t, len(full)-1, d.Buffered())

	d.Feed(full[len(full)-1:], time.Unix(2, 0))
	require.Len(t, sink.packets, 1)
	assert.Equal(t, full[1:], sink.packets[0].Payload)
	assert.Zero(t, d.Buffered())
}

func TestUnknownBytesAtBoundary(t *testing.T) {
	sink := &collectingSink{}
	d := NewDemux(sink)

	stream := append([]byte{0x01, 0x02, 0x03}, packet(layers.HeaderEEG, 0x66)...)
	d.Feed(stream, time.Unix(3, 0))

	// one error for the junk run, then a clean resync
	require.Len(t, sink.errs, 1)
	assert.IsType(t, layers.ErrUnknownHeader{}, sink.errs[0])
	require.Len(t, sink.packets, 1)
	assert.Equal(t, layers.HeaderEEG, sink.packets[0].Header)
}

func TestUnknownByteBetweenPackets(t *testing.T) {
	sink := &collectingSink{}
	d := NewDemux(sink)

	stream := packet(layers.HeaderIMU, 0x10)
	stream = append(stream, 0x00) // stray byte
	stream = append(stream, packet(layers.HeaderPPG, 0x20)...)
	d.Feed(stream, time.Unix(4, 0))

	require.Len(t, sink.packets, 2)
	assert.Equal(t, layers.HeaderIMU, sink.packets[0].Header)
	assert.Equal(t, layers.HeaderPPG, sink.packets[1].Header)
	require.Len(t, sink.errs, 1)
}

func TestReset(t *testing.T) {
	sink := &collectingSink{}
	d := NewDemux(sink)

	d.Feed(packet(layers.HeaderEEG, 0x77)[:5], time.Unix(5, 0))
	assert.Equal(t, 5, d.Buffered())

	d.Reset()
	assert.Zero(t, d.Buffered())

	// a fresh complete packet decodes normally after the reset
	d.Feed(packet(layers.HeaderAux, 0x88), time.Unix(6, 0))
	require.Len(t, sink.packets, 1)
	assert.Equal(t, layers.HeaderAux, sink.packets[0].Header)
}

func TestPayloadIsCopied(t *testing.T) {
	sink := &collectingSink{}
	d := NewDemux(sink)

	buf := packet(layers.HeaderEEG, 0x99)
	d.Feed(buf, time.Unix(7, 0))
	require.Len(t, sink.packets, 1)

	buf[1] = 0x00
	assert.Equal(t, byte(0x99), sink.packets[0].Payload[0])
}

// A corruption run longer than the buffer bound surfaces as
// desynchronization, on top of the unknown-header report.
func TestLongCorruptionRunReportsDesync(t *testing.T) {
	sink := &collectingSink{}
	d := NewDemux(sink)

	// Zero bytes are never a recognized header.
	junk := make([]byte, MaxBufferSize+64)
	d.Feed(junk, time.Unix(2, 0))

	var desync ErrStreamDesynchronized
	found := false
	for _, err := range sink.errs {
		if errors.As(err, &desync) {
			found = true
		}
	}
	require.True(t, found)
	assert.Greater(t, desync.Discarded, MaxBufferSize)
	assert.Empty(t, sink.packets)
	assert.Zero(t, d.Buffered())

	// The stream recovers once valid packets resume.
	d.Feed(packet(layers.HeaderEEG, 0x77), time.Unix(2, 1))
	require.Len(t, sink.packets, 1)
	assert.Equal(t, layers.HeaderEEG, sink.packets[0].Header)
}
