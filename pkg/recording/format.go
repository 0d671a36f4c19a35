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

// Package recording implements the private binary format that records
// decoded frame sequences for replay.
//
// Layout, all little-endian:
//
//	header (64 bytes)
//	  [0:4]   magic "MBR1"
//	  [4:6]   format version
//	  [6:8]   reserved
//	  [8:40]  device id, NUL-padded
//	  [40:48] preset token, NUL-padded
//	  [48:56] created-at, unix microseconds
//	  [56:60] record count, 0xffffffff while the file is open
//	  [60:64] reserved
//	record
//	  1 byte  modality tag (the wire header byte)
//	  uvarint timestamp delta from the previous record, microseconds
//	  uint16  payload length
//	  n bytes bit-packed sample payload, identical to the wire payload
//
// The format promises nothing beyond exact round-trip within a
// version.
package recording

import (
	"fmt"
)

const (
	Magic         = "MBR1"
	FormatVersion = 1

	HeaderSize       = 64
	DeviceIDSize     = 32
	PresetSize       = 8
	openCountPattern = 0xffffffff
)

// FileInfo is the decoded recording header.
type FileInfo struct {
	Version     uint16
	DeviceID    string
	Preset      string
	CreatedAt   int64 // unix microseconds
	RecordCount uint32
}

// Finalized reports whether the writer patched the record count, i.e.
// the file was closed cleanly.
func (i FileInfo) Finalized() bool {
	return i.RecordCount != openCountPattern
}

// ErrBadHeader returned when a file does not start with a valid
// recording header.
type ErrBadHeader struct {
	What string
}

func (e ErrBadHeader) Error() string {
	return fmt.Sprintf("Not a recording file: %s", e.What)
}

// ErrBadRecord returned when a record cannot be decoded at the given
// offset.
type ErrBadRecord struct {
	Offset int64
	What   string
}

func (e ErrBadRecord) Error() string {
	return fmt.Sprintf("Corrupt record at offset %d: %s", e.Offset, e.What)
}
