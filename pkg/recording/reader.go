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

package recording

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/amused-dev/go-amused/pkg/layers"
)

// Reader walks a recording forward-only. Restarting means reopening.
type Reader struct {
	r      *bufio.Reader
	file   *os.File // non-nil when we own the handle
	info   FileInfo
	cursor time.Time
	offset int64
	read   uint32
}

// Open opens a recording file for reading.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	r.file = file
	return r, nil
}

// NewReader reads a recording from rd, which must be positioned at the
// header.
func NewReader(rd io.Reader) (*Reader, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(rd, header); err != nil {
		return nil, ErrBadHeader{What: fmt.Sprintf("short header: %v", err)}
	}
	if !bytes.Equal(header[0:4], []byte(Magic)) {
		return nil, ErrBadHeader{What: "bad magic"}
	}
	version := binary.LittleEndian.Uint16(header[4:6])
	if version != FormatVersion {
		return nil, ErrBadHeader{What: fmt.Sprintf("unsupported version %d", version)}
	}

	info := FileInfo{
		Version:     version,
		DeviceID:    string(bytes.TrimRight(header[8:8+DeviceIDSize], "\x00")),
		Preset:      string(bytes.TrimRight(header[40:40+PresetSize], "\x00")),
		CreatedAt:   int64(binary.LittleEndian.Uint64(header[48:56])),
		RecordCount: binary.LittleEndian.Uint32(header[56:60]),
	}
	return &Reader{
		r:      bufio.NewReader(rd),
		info:   info,
		cursor: time.UnixMicro(info.CreatedAt),
		offset: HeaderSize,
	}, nil
}

// Info returns the decoded file header.
func (r *Reader) Info() FileInfo {
	return r.info
}

// Next returns the next recorded frame and its absolute timestamp.
// io.EOF signals a clean end of the recording.
func (r *Reader) Next() (time.Time, layers.Frame, error) {
	var zero time.Time

	tag, err := r.r.ReadByte()
	if err == io.EOF {
		if r.info.Finalized() && r.read != r.info.RecordCount {
			return zero, nil, ErrBadRecord{Offset: r.offset,
				What: fmt.Sprintf("file ends after %d of %d records", r.read, r.info.RecordCount)}
		}
		return zero, nil, io.EOF
	}
	if err != nil {
		return zero, nil, err
	}
	r.offset++

	delta, err := binary.ReadUvarint(r.r)
	if err != nil {
		return zero, nil, ErrBadRecord{Offset: r.offset, What: "truncated timestamp delta"}
	}

	var lenBuf [2]byte
	if _, err := io.ReadFull(r.r, lenBuf[:]); err != nil {
		return zero, nil, ErrBadRecord{Offset: r.offset, What: "truncated payload length"}
	}
	payloadLen := binary.LittleEndian.Uint16(lenBuf[:])

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return zero, nil, ErrBadRecord{Offset: r.offset, What: "truncated payload"}
	}

	r.cursor = r.cursor.Add(time.Duration(delta) * time.Microsecond)
	r.offset += int64(payloadLen) + 2
	r.read++

	frame, err := layers.DecodeFrame(&layers.RawPacket{
		Header:    layers.Header(tag),
		Payload:   payload,
		Timestamp: r.cursor,
	})
	if err != nil {
		return zero, nil, ErrBadRecord{Offset: r.offset, What: err.Error()}
	}
	return r.cursor, frame, nil
}

func (r *Reader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
