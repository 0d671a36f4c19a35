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

package layers

import (
	"time"
)

// RawPacket is a complete single-sensor packet cut out of the
// notification stream: header byte, exact-length payload and the
// arrival time of the chunk that completed it.
type RawPacket struct {
	Header    Header
	Payload   []byte
	Timestamp time.Time
}

// Frame is the closed set of decoded sensor frames. Frames are
// immutable once produced; every consumer shares the same value
// read-only.
type Frame interface {
	// Type returns the wire header the frame was decoded from.
	Type() Header
	// Time returns the arrival timestamp of the underlying packet.
	Time() time.Time
	// PackPayload re-serializes the frame's samples into the exact
	// wire payload bytes it was decoded from.
	PackPayload() []byte
}

// EEGFrame holds one packet worth of EEG samples: EEGSamplesPerCh
// samples for each of the four electrodes, in arrival order.
type EEGFrame struct {
	Timestamp time.Time
	// Channels is indexed in EEGChannelNames order.
	Channels [EEGChannelCount][]uint32
}

func (f *EEGFrame) Type() Header    { return HeaderEEG }
func (f *EEGFrame) Time() time.Time { return f.Timestamp }

func (f *EEGFrame) PackPayload() []byte {
	samples := make([]uint32, 0, EEGSampleCount)
	for ch := 0; ch < EEGChannelCount; ch++ {
		samples = append(samples, f.Channels[ch]...)
	}
	return Pack(EEGBitWidth, samples)
}

// PPGFrame holds matched sample runs for the three optical
// wavelengths.
type PPGFrame struct {
	Timestamp time.Time
	IR        []uint32
	NIR       []uint32
	Red       []uint32
}

func (f *PPGFrame) Type() Header    { return HeaderPPG }
func (f *PPGFrame) Time() time.Time { return f.Timestamp }

func (f *PPGFrame) PackPayload() []byte {
	buf := make([]byte, 0, PPGPayloadLength)
	for _, ch := range [][]uint32{f.IR, f.NIR, f.Red} {
		buf = append(buf, Pack(PPGBitWidth, ch)...)
	}
	return buf
}

// IMUFrame holds raw accelerometer and gyroscope samples. Values are
// the unscaled 16-bit register contents; interpretation (two's
// complement, full-scale range) is up to the consumer.
type IMUFrame struct {
	Timestamp time.Time
	AccelX    []uint32
	AccelY    []uint32
	AccelZ    []uint32
	GyroX     []uint32
	GyroY     []uint32
	GyroZ     []uint32
}

func (f *IMUFrame) Type() Header    { return HeaderIMU }
func (f *IMUFrame) Time() time.Time { return f.Timestamp }

func (f *IMUFrame) PackPayload() []byte {
	axes := [][]uint32{f.AccelX, f.AccelY, f.AccelZ, f.GyroX, f.GyroY, f.GyroZ}
	samples := make([]uint32, 0, IMUSampleCount)
	// set-major, the same order the payload arrives in
	for k := 0; k < IMUSamplesPerAx; k++ {
		for _, ax := range axes {
			samples = append(samples, ax[k])
		}
	}
	return Pack(IMUBitWidth, samples)
}

// AuxFrame carries the multiplexed auxiliary payload verbatim. The
// modality is recognized for framing purposes only.
type AuxFrame struct {
	Timestamp time.Time
	Payload   []byte
}

func (f *AuxFrame) Type() Header    { return HeaderAux }
func (f *AuxFrame) Time() time.Time { return f.Timestamp }

func (f *AuxFrame) PackPayload() []byte {
	out := make([]byte, len(f.Payload))
	copy(out, f.Payload)
	return out
}
