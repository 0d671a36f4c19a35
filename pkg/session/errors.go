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
	"fmt"
	"time"
)

// ErrHandshakeTimeout returned when the device acknowledged nothing
// with a data frame within the handshake window.
type ErrHandshakeTimeout struct {
	Timeout time.Duration
}

func (e ErrHandshakeTimeout) Error() string {
	return fmt.Sprintf("Handshake timed out: no frame within %s", e.Timeout)
}

// ErrBadPreset returned by Begin for a preset the device would not
// understand.
type ErrBadPreset struct {
	Preset Preset
}

func (e ErrBadPreset) Error() string {
	return fmt.Sprintf("Unknown preset: %q", string(e.Preset))
}

// ErrWrongState returned for operations that are invalid in the
// session's current state.
type ErrWrongState struct {
	Op    string
	State State
}

func (e ErrWrongState) Error() string {
	return fmt.Sprintf("Operation %s not allowed in state %s", e.Op, e.State)
}
