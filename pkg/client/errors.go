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

package client

import "fmt"

// ErrSessionLost is returned by Run when the link dropped and every
// reconnect attempt failed.
type ErrSessionLost struct {
	Attempts int
}

func (e ErrSessionLost) Error() string {
	return fmt.Sprintf("session lost after %d reconnect attempts", e.Attempts)
}

// ErrRecordingActive is returned by StartRecording when a recording is
// already in progress.
type ErrRecordingActive struct {
	Path string
}

func (e ErrRecordingActive) Error() string {
	return fmt.Sprintf("recording already active: %s", e.Path)
}

// ErrNoRecording is returned by StopRecording when nothing is being
// recorded.
type ErrNoRecording struct {
}

func (e ErrNoRecording) Error() string {
	return "no recording active"
}
