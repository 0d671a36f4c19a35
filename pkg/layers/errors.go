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
	"fmt"
)

// ErrUnknownHeader returned when a packet starts with a byte that is
// not one of the four reserved header values.
type ErrUnknownHeader struct {
	Byte uint8
}

func (e ErrUnknownHeader) Error() string {
	return fmt.Sprintf("Unknown packet header: 0x%02x", e.Byte)
}

// ErrMalformedPayload returned when a payload does not match the fixed
// layout of its modality, either in total length or in the byte count
// expected by the bit unpacker.
type ErrMalformedPayload struct {
	Header Header
	Want   int
	Got    int
}

func (e ErrMalformedPayload) Error() string {
	return fmt.Sprintf("Malformed payload for header 0x%02x: want %d bytes, got %d", uint8(e.Header), e.Want, e.Got)
}
