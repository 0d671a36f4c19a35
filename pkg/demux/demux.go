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
	"encoding/hex"
	"time"

	"github.com/google/gopacket"

	"github.com/amused-dev/go-amused/pkg/layers"
	"github.com/amused-dev/go-amused/pkg/log"
)

const (
	// MaxBufferSize bounds how many bytes may be discarded between two
	// complete packets before the stream is declared desynchronized.
	MaxBufferSize = 4096
)

// Sink receives complete packets and recoverable stream errors from a
// Demux. HandleError is called for unknown headers and for
// desynchronization; neither terminates the stream.
type Sink interface {
	HandlePacket(p *layers.RawPacket)
	HandleError(err error)
}

// Demux reassembles the headband's notification chunks into complete
// fixed-length packets. BLE notifications carry arbitrary slices of the
// stream, so a packet may span several chunks and a chunk may hold
// several packets. The carry buffer is owned exclusively by the Demux
// and survives between Feed calls.
type Demux struct {
	sink Sink
	buf  []byte
	// junk counts bytes discarded since the last complete packet.
	// Crossing MaxBufferSize means resync is not finding a parseable
	// stream and the desynchronization is surfaced, not just the
	// individual unknown bytes.
	junk int
}

func NewDemux(sink Sink) *Demux {
	return &Demux{sink: sink}
}

// Buffered returns the number of bytes waiting for the rest of a
// packet.
func (d *Demux) Buffered() int {
	return len(d.buf)
}

// Reset discards the carry buffer. Called across reconnects: a fragment
// spanning a disconnect can never be completed.
func (d *Demux) Reset() {
	d.buf = d.buf[:0]
	d.junk = 0
}

// Feed appends a transport chunk to the carry buffer and emits as many
// complete packets as it now holds. Leftover bytes stay buffered for
// the next call.
func (d *Demux) Feed(chunk []byte, ts time.Time) {
	d.buf = append(d.buf, chunk...)
	if log.DebugEnabled() {
		log.Debug("Feed: %d bytes, %d buffered:\n%s", len(chunk), len(d.buf), hex.Dump(chunk))
	}

	for len(d.buf) > 0 {
		header := layers.Header(d.buf[0])
		if !layers.Known(header) {
			// The boundary byte is not a header. Report it so
			// desynchronization is observable, then resync on the next
			// recognized header.
			d.sink.HandleError(layers.ErrUnknownHeader{Byte: d.buf[0]})
			d.discard(d.resync(1))
			continue
		}

		need := 1 + layers.PayloadLength(header)
		if len(d.buf) < need {
			// Incomplete packet, wait for more bytes.
			return
		}

		ml := &layers.MuseLayer{}
		if err := ml.DecodeFromBytes(d.buf[:need], gopacket.NilDecodeFeedback); err != nil {
			d.sink.HandleError(err)
			d.discard(d.resync(1))
			continue
		}
		packet := &layers.RawPacket{
			Header:    ml.Header,
			Payload:   append([]byte(nil), ml.Payload...),
			Timestamp: ts,
		}
		d.buf = d.buf[need:]
		d.junk = 0
		d.sink.HandlePacket(packet)
	}
}

// discard accounts for n resynced bytes and reports desynchronization
// once a corruption run outgrows the bound.
func (d *Demux) discard(n int) {
	d.junk += n
	if d.junk > MaxBufferSize {
		d.sink.HandleError(ErrStreamDesynchronized{Discarded: d.junk})
		d.junk = 0
	}
}

// resync drops bytes from the front of the buffer, starting at skip,
// until the buffer begins with a recognized header (or is empty).
// It returns the number of bytes discarded.
func (d *Demux) resync(skip int) int {
	i := skip
	for i < len(d.buf) && !layers.Known(layers.Header(d.buf[i])) {
		i++
	}
	log.Warning("Stream resync: discarding %d bytes", i)
	d.buf = d.buf[i:]
	return i
}
