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
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/amused-dev/go-amused/pkg/layers"
	"github.com/amused-dev/go-amused/pkg/log"
)

// Writer appends decoded frames to a recording. The header is written
// with an open record-count pattern and patched on Close, so a crash
// leaves a recognizably unfinalized file instead of a lying one.
type Writer struct {
	ws      io.WriteSeeker
	file    *os.File // non-nil when we own the handle
	created time.Time
	prev    time.Time
	count   uint32
}

// Create opens path for writing and emits the provisional header.
func Create(path, deviceID string, preset string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(file, deviceID, preset, time.Now())
	if err != nil {
		file.Close()
		return nil, err
	}
	w.file = file
	return w, nil
}

// NewWriter writes a recording to ws. createdAt anchors the first
// record's timestamp delta.
func NewWriter(ws io.WriteSeeker, deviceID, preset string, createdAt time.Time) (*Writer, error) {
	if len(deviceID) > DeviceIDSize {
		return nil, fmt.Errorf("device id longer than %d bytes: %q", DeviceIDSize, deviceID)
	}
	if len(preset) > PresetSize {
		return nil, fmt.Errorf("preset longer than %d bytes: %q", PresetSize, preset)
	}
	createdAt = createdAt.Truncate(time.Microsecond)
	w := &Writer{
		ws:      ws,
		created: createdAt,
		prev:    createdAt,
	}

	header := make([]byte, HeaderSize)
	copy(header[0:4], Magic)
	binary.LittleEndian.PutUint16(header[4:6], FormatVersion)
	copy(header[8:8+DeviceIDSize], deviceID)
	copy(header[40:40+PresetSize], preset)
	binary.LittleEndian.PutUint64(header[48:56], uint64(createdAt.UnixMicro()))
	binary.LittleEndian.PutUint32(header[56:60], openCountPattern)

	if _, err := ws.Write(header); err != nil {
		return nil, fmt.Errorf("error writing header: %w", err)
	}
	return w, nil
}

// Append serializes one frame. Timestamps are truncated to
// microseconds; deltas are clamped at zero so the record sequence
// stays monotonically non-decreasing even if a consumer hands frames
// with a skewed clock.
func (w *Writer) Append(f layers.Frame) error {
	ts := f.Time().Truncate(time.Microsecond)
	delta := ts.Sub(w.prev)
	if delta < 0 {
		log.Warning("Recording: non-monotonic frame timestamp, clamping delta (%s)", delta)
		delta = 0
		ts = w.prev
	}

	payload := f.PackPayload()
	record := make([]byte, 0, 1+binary.MaxVarintLen64+2+len(payload))
	record = append(record, byte(f.Type()))
	record = binary.AppendUvarint(record, uint64(delta.Microseconds()))
	record = binary.LittleEndian.AppendUint16(record, uint16(len(payload)))
	record = append(record, payload...)

	if _, err := w.ws.Write(record); err != nil {
		return err
	}
	w.prev = ts
	w.count++
	return nil
}

// Count returns the number of records appended so far.
func (w *Writer) Count() uint32 {
	return w.count
}

// Close patches the record count into the header and, when the writer
// owns the file handle, syncs and closes it. No partial trailing
// record can exist past a successful Close.
func (w *Writer) Close() error {
	if _, err := w.ws.Seek(56, io.SeekStart); err != nil {
		return fmt.Errorf("error finalizing header: %w", err)
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], w.count)
	if _, err := w.ws.Write(buf[:]); err != nil {
		return fmt.Errorf("error finalizing header: %w", err)
	}
	if w.file != nil {
		if err := w.file.Sync(); err != nil {
			w.file.Close()
			return err
		}
		return w.file.Close()
	}
	return nil
}
