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

// Control command tokens. Each is written to the control
// characteristic as one length byte (token length + 1 for the trailing
// newline), the ASCII token, and '\n'. So "v6" goes out as
// 03 76 36 0a and "dc001" as 06 64 63 30 30 31 0a.
const (
	CmdVersion     = "v6"
	CmdStatus      = "s"
	CmdHalt        = "h"
	CmdStartStream = "dc001"
	CmdKeepAlive   = "L1"
)

// Preset selects the sensor suite at connect time. It is immutable for
// the session's lifetime; switching presets takes a new session.
type Preset string

const (
	// PresetBasic enables the EEG montage only.
	PresetBasic Preset = "p1034"
	// PresetFullSensor enables EEG, PPG/fNIRS optics and IMU.
	PresetFullSensor Preset = "p1035"
)

// KnownPreset reports whether p is a preset this package can request.
func KnownPreset(p Preset) bool {
	return p == PresetBasic || p == PresetFullSensor
}

// EncodeCommand frames a command token for the control characteristic.
func EncodeCommand(token string) []byte {
	buf := make([]byte, 0, len(token)+2)
	buf = append(buf, byte(len(token)+1))
	buf = append(buf, token...)
	buf = append(buf, '\n')
	return buf
}
