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

// Header is the one-byte packet type identifier that starts every
// sensor packet on the combined-data characteristic.
type Header uint8

const (
	// HeaderEEG identifies an EEG packet.
	HeaderEEG Header = 0xdf
	// HeaderPPG identifies a PPG packet carrying the three optical
	// wavelength channels.
	HeaderPPG Header = 0xf2
	// HeaderIMU identifies an accelerometer/gyroscope packet.
	HeaderIMU Header = 0xf4
	// HeaderAux identifies the multiplexed auxiliary packet. It is
	// recognized for framing but its payload is not further decoded.
	HeaderAux Header = 0xdb
)

// Fixed payload layout per modality. The EEG figures follow the
// 4-channel montage; see eeg_sample.go for a captured packet.
const (
	EEGBitWidth      = 12
	EEGChannelCount  = 4
	EEGSamplesPerCh  = 3
	EEGSampleCount   = EEGChannelCount * EEGSamplesPerCh
	EEGPayloadLength = EEGBitWidth * EEGSampleCount / 8 // 18

	PPGBitWidth     = 20
	PPGChannelCount = 3
	PPGSamplesPerCh = 7
	// PPGChannelByteSize rounds 7*20 bits up to whole bytes; the last
	// nibble of each block is padding.
	PPGChannelByteSize = (PPGBitWidth*PPGSamplesPerCh + 7) / 8 // 18
	PPGPayloadLength   = PPGChannelCount * PPGChannelByteSize  // 54

	IMUBitWidth      = 16
	IMUAxisCount     = 6 // accel xyz + gyro xyz
	IMUSamplesPerAx  = 3
	IMUSampleCount   = IMUAxisCount * IMUSamplesPerAx
	IMUPayloadLength = IMUBitWidth * IMUSampleCount / 8 // 36

	AuxPayloadLength = 52
)

// Nominal sample rates of the headband, Hz.
const (
	EEGSampleRate = 256
	PPGSampleRate = 64
	IMUSampleRate = 52
)

// EEGChannelNames lists the electrode positions in payload order.
var EEGChannelNames = [EEGChannelCount]string{"TP9", "AF7", "AF8", "TP10"}

// PPG wavelength channel indices, in payload order.
const (
	PPGChannelIR = iota
	PPGChannelNIR
	PPGChannelRed
)

// Known reports whether b is one of the four reserved header bytes.
func Known(b Header) bool {
	switch b {
	case HeaderEEG, HeaderPPG, HeaderIMU, HeaderAux:
		return true
	}
	return false
}

// PayloadLength returns the fixed payload length for a recognized
// header, or -1 for an unknown one.
func PayloadLength(b Header) int {
	switch b {
	case HeaderEEG:
		return EEGPayloadLength
	case HeaderPPG:
		return PPGPayloadLength
	case HeaderIMU:
		return IMUPayloadLength
	case HeaderAux:
		return AuxPayloadLength
	}
	return -1
}
