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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackedSize(t *testing.T) {
	assert.Equal(t, 18, PackedSize(12, 12))
	assert.Equal(t, 18, PackedSize(20, 7)) // 140 bits round up to 18 bytes
	assert.Equal(t, 36, PackedSize(16, 18))
}

func TestUnpack12Bit(t *testing.T) {
	// two 12-bit samples in three bytes, MSB first
	buf := []byte{0x12, 0x34, 0x56}
	samples, err := Unpack(12, buf, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x123, 0x456}, samples)
}

func TestUnpack12BitFullRange(t *testing.T) {
	buf := make([]byte, EEGPayloadLength)
	for i := range buf {
		buf[i] = 0xff
	}
	samples, err := Unpack(EEGBitWidth, buf, EEGSampleCount)
	require.NoError(t, err)
	require.Len(t, samples, EEGSampleCount)
	for _, s := range samples {
		assert.Equal(t, uint32(0xfff), s)
	}
}

func TestUnpack20BitCrossesBytes(t *testing.T) {
	// 0xABCDE then 0xF0123: five bytes hold two 20-bit samples
	buf := []byte{0xab, 0xcd, 0xef, 0x01, 0x23}
	samples, err := Unpack(20, buf, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0xabcde, 0xf0123}, samples)
}

func TestUnpackLengthMismatch(t *testing.T) {
	buf := make([]byte, 17)
	_, err := Unpack(EEGBitWidth, buf, EEGSampleCount)
	require.Error(t, err)
	assert.IsType(t, ErrMalformedPayload{}, err)
}

func TestPackInvertsUnpack(t *testing.T) {
	samples := []uint32{0x000, 0xfff, 0x123, 0x800, 0x7ff, 0x001, 0xabc, 0x555, 0xaaa, 0x0f0, 0xf0f, 0x999}
	buf := Pack(12, samples)
	require.Len(t, buf, 18)
	back, err := Unpack(12, buf, len(samples))
	require.NoError(t, err)
	assert.Equal(t, samples, back)
}

func TestPackTruncatesHighBits(t *testing.T) {
	buf := Pack(12, []uint32{0xf_ffff, 0x1_0001})
	samples, err := Unpack(12, buf, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0xfff, 0x001}, samples)
}
