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
	"encoding/hex"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/amused-dev/go-amused/pkg/log"
)

const (
	// MuseLayerNum identifies the layer
	MuseLayerNum = 2001
)

// MuseLayer is one sensor packet of the headband's combined-data
// characteristic: a header byte followed by the modality's fixed-length
// payload.
type MuseLayer struct {
	layers.BaseLayer
	Header  Header
	Payload []byte
}

var MuseLayerType = gopacket.RegisterLayerType(MuseLayerNum,
	gopacket.LayerTypeMetadata{Name: "MuseLayerType", Decoder: gopacket.DecodeFunc(DecodeMuseLayer)})

// LayerType returns the type of the Muse layer in the layer catalog
func (ml *MuseLayer) LayerType() gopacket.LayerType {
	return MuseLayerType
}

func (ml *MuseLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < 1 {
		df.SetTruncated()
		return ErrMalformedPayload{Want: 1, Got: 0}
	}
	header := Header(data[0])
	if !Known(header) {
		return ErrUnknownHeader{Byte: data[0]}
	}
	want := PayloadLength(header)
	if len(data)-1 != want {
		if len(data)-1 < want {
			df.SetTruncated()
		}
		return ErrMalformedPayload{Header: header, Want: want, Got: len(data) - 1}
	}
	ml.Header = header
	ml.Payload = data[1:]
	ml.BaseLayer = layers.BaseLayer{
		Contents: data[:1],
		Payload:  data[1:],
	}
	return nil
}

// SerializeTo serializes the packet into bytes and writes the bytes to
// the SerializeBuffer
func (ml *MuseLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.AppendBytes(1 + len(ml.Payload))
	if err != nil {
		return err
	}
	bytes[0] = uint8(ml.Header)
	copy(bytes[1:], ml.Payload)
	return nil
}

func DecodeMuseLayer(data []byte, p gopacket.PacketBuilder) error {
	ml := &MuseLayer{}
	err := ml.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(ml)
	return nil
}

// DecodeFrame turns a complete RawPacket into its typed Frame. It is a
// pure function: identical input yields an identical Frame or an
// identical error, which is what makes replay and fuzzing
// deterministic.
func DecodeFrame(p *RawPacket) (Frame, error) {
	if !Known(p.Header) {
		return nil, ErrUnknownHeader{Byte: uint8(p.Header)}
	}
	if want := PayloadLength(p.Header); len(p.Payload) != want {
		return nil, ErrMalformedPayload{Header: p.Header, Want: want, Got: len(p.Payload)}
	}
	if log.DebugEnabled() {
		log.Debug("DecodeFrame: header: 0x%02x payload:\n%s", uint8(p.Header), hex.Dump(p.Payload))
	}
	switch p.Header {
	case HeaderEEG:
		return decodeEEG(p.Payload, p.Timestamp)
	case HeaderPPG:
		return decodePPG(p.Payload, p.Timestamp)
	case HeaderIMU:
		return decodeIMU(p.Payload, p.Timestamp)
	default: // HeaderAux
		return decodeAux(p.Payload, p.Timestamp), nil
	}
}

func decodeEEG(payload []byte, ts time.Time) (*EEGFrame, error) {
	samples, err := Unpack(EEGBitWidth, payload, EEGSampleCount)
	if err != nil {
		return nil, ErrMalformedPayload{Header: HeaderEEG, Want: EEGPayloadLength, Got: len(payload)}
	}
	f := &EEGFrame{Timestamp: ts}
	// channel-major: 3 consecutive samples per electrode
	for ch := 0; ch < EEGChannelCount; ch++ {
		f.Channels[ch] = samples[ch*EEGSamplesPerCh : (ch+1)*EEGSamplesPerCh]
	}
	return f, nil
}

func decodePPG(payload []byte, ts time.Time) (*PPGFrame, error) {
	chans := make([][]uint32, PPGChannelCount)
	for i := 0; i < PPGChannelCount; i++ {
		block := payload[i*PPGChannelByteSize : (i+1)*PPGChannelByteSize]
		samples, err := Unpack(PPGBitWidth, block, PPGSamplesPerCh)
		if err != nil {
			return nil, ErrMalformedPayload{Header: HeaderPPG, Want: PPGPayloadLength, Got: len(payload)}
		}
		chans[i] = samples
	}
	return &PPGFrame{
		Timestamp: ts,
		IR:        chans[PPGChannelIR],
		NIR:       chans[PPGChannelNIR],
		Red:       chans[PPGChannelRed],
	}, nil
}

func decodeIMU(payload []byte, ts time.Time) (*IMUFrame, error) {
	samples, err := Unpack(IMUBitWidth, payload, IMUSampleCount)
	if err != nil {
		return nil, ErrMalformedPayload{Header: HeaderIMU, Want: IMUPayloadLength, Got: len(payload)}
	}
	f := &IMUFrame{Timestamp: ts}
	axes := []*[]uint32{&f.AccelX, &f.AccelY, &f.AccelZ, &f.GyroX, &f.GyroY, &f.GyroZ}
	// set-major: accel xyz then gyro xyz, repeated per sample set
	for k := 0; k < IMUSamplesPerAx; k++ {
		for j, ax := range axes {
			*ax = append(*ax, samples[k*IMUAxisCount+j])
		}
	}
	return f, nil
}

func decodeAux(payload []byte, ts time.Time) *AuxFrame {
	f := &AuxFrame{Timestamp: ts, Payload: make([]byte, len(payload))}
	copy(f.Payload, payload)
	return f
}
