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
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amused-dev/go-amused/pkg/layers"
)

func sampleFrames(t0 time.Time) []layers.Frame {
	eegSamples := make([]uint32, layers.EEGSampleCount)
	for i := range eegSamples {
		eegSamples[i] = uint32(0x800 + i)
	}
	eegPacket := &layers.RawPacket{
		Header:    layers.HeaderEEG,
		Payload:   layers.Pack(layers.EEGBitWidth, eegSamples),
		Timestamp: t0,
	}
	eeg, _ := layers.DecodeFrame(eegPacket)

	ppg := &layers.PPGFrame{
		Timestamp: t0.Add(3125 * time.Microsecond),
		IR:        []uint32{1, 2, 3, 4, 5, 6, 7},
		NIR:       []uint32{10, 20, 30, 40, 50, 60, 70},
		Red:       []uint32{100, 200, 300, 400, 500, 600, 700},
	}

	imu := &layers.IMUFrame{
		Timestamp: t0.Add(7 * time.Millisecond),
		AccelX:    []uint32{1, 2, 3},
		AccelY:    []uint32{4, 5, 6},
		AccelZ:    []uint32{7, 8, 9},
		GyroX:     []uint32{10, 11, 12},
		GyroY:     []uint32{13, 14, 15},
		GyroZ:     []uint32{16, 17, 18},
	}

	aux := &layers.AuxFrame{
		Timestamp: t0.Add(12 * time.Millisecond),
		Payload:   make([]byte, layers.AuxPayloadLength),
	}

	return []layers.Frame{eeg, ppg, imu, aux}
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.mbr")

	w, err := Create(path, "Muse-ABCD", "p1035")
	require.NoError(t, err)

	// frame timestamps must not predate the file's creation instant
	t0 := time.Now().Add(time.Millisecond)
	frames := sampleFrames(t0)
	for _, f := range frames {
		require.NoError(t, w.Append(f))
	}
	assert.Equal(t, uint32(len(frames)), w.Count())
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	info := r.Info()
	assert.Equal(t, uint16(FormatVersion), info.Version)
	assert.Equal(t, "Muse-ABCD", info.DeviceID)
	assert.Equal(t, "p1035", info.Preset)
	assert.True(t, info.Finalized())
	assert.Equal(t, uint32(len(frames)), info.RecordCount)

	for i, want := range frames {
		ts, got, err := r.Next()
		require.NoError(t, err, "record %d", i)
		assert.Equal(t, want.Type(), got.Type(), "record %d", i)
		assert.Equal(t, want.PackPayload(), got.PackPayload(), "record %d", i)
		// timestamps survive at microsecond precision
		assert.Equal(t, want.Time().Truncate(time.Microsecond).UnixMicro(), ts.UnixMicro(), "record %d", i)
	}
	_, _, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.mbr")
	w, err := Create(path, "x", "p1034")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	raw, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	copy(raw[0:4], "NOPE")

	_, err = NewReader(bytes.NewReader(raw))
	require.Error(t, err)
	assert.IsType(t, ErrBadHeader{}, err)

	// a short file is rejected too
	_, err = NewReader(bytes.NewReader(raw[:10]))
	require.Error(t, err)
	assert.IsType(t, ErrBadHeader{}, err)
}

func TestNonMonotonicTimestampClamped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clamp.mbr")
	w, err := Create(path, "Muse-ABCD", "p1034")
	require.NoError(t, err)

	t0 := time.Now()
	first := &layers.AuxFrame{Timestamp: t0, Payload: make([]byte, layers.AuxPayloadLength)}
	second := &layers.AuxFrame{Timestamp: t0.Add(-time.Second), Payload: make([]byte, layers.AuxPayloadLength)}
	require.NoError(t, w.Append(first))
	require.NoError(t, w.Append(second))
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	ts1, _, err := r.Next()
	require.NoError(t, err)
	ts2, _, err := r.Next()
	require.NoError(t, err)
	assert.False(t, ts2.Before(ts1))
	assert.Equal(t, ts1, ts2)
}

func TestReplayDeliversInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replay.mbr")
	frames := sampleFrames(time.Now())

	w, err := Create(path, "Muse-ABCD", "p1034")
	require.NoError(t, err)
	for _, f := range frames {
		require.NoError(t, w.Append(f))
	}
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	player := NewReplayer(r)
	player.Speed = 0 // no sleeping in tests

	var got []layers.Header
	var progress []uint32
	player.OnProgress = func(n uint32) { progress = append(progress, n) }
	require.NoError(t, player.Play(context.Background(), func(ts time.Time, f layers.Frame) {
		got = append(got, f.Type())
	}))

	assert.Equal(t, []layers.Header{layers.HeaderEEG, layers.HeaderPPG, layers.HeaderIMU, layers.HeaderAux}, got)
	assert.Equal(t, []uint32{1, 2, 3, 4}, progress)
}

func TestReplayHonorsContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cancel.mbr")
	t0 := time.Now()

	w, err := Create(path, "Muse-ABCD", "p1034")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		f := &layers.AuxFrame{
			Timestamp: t0.Add(time.Duration(i) * time.Hour), // huge gaps
			Payload:   make([]byte, layers.AuxPayloadLength),
		}
		require.NoError(t, w.Append(f))
	}
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	player := NewReplayer(r)

	delivered := 0
	errCh := make(chan error, 1)
	go func() {
		errCh <- player.Play(ctx, func(ts time.Time, f layers.Frame) { delivered++ })
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
	assert.Equal(t, 1, delivered) // stuck in the first hour-long gap
}
