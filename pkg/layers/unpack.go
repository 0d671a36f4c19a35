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

// Bit packing of sensor samples. Samples are unsigned integers packed
// MSB-first: the 12-bit scheme puts 12 samples into 18 bytes (big-endian
// nibble ordering) and the 20-bit scheme puts 7 samples into 18 bytes
// with 4 trailing pad bits, crossing byte boundaries. No sign extension
// or unit scaling happens here; calibration is up to the caller.

// PackedSize returns the number of bytes needed to hold count samples
// of the given bit width.
func PackedSize(bitWidth, count int) int {
	return (bitWidth*count + 7) / 8
}

// Unpack converts buf into count unsigned samples of the given bit
// width. It fails with ErrMalformedPayload if the buffer length does
// not exactly match the packed size.
func Unpack(bitWidth int, buf []byte, count int) ([]uint32, error) {
	want := PackedSize(bitWidth, count)
	if len(buf) != want {
		return nil, ErrMalformedPayload{Want: want, Got: len(buf)}
	}

	samples := make([]uint32, count)
	bitPos := 0
	for i := 0; i < count; i++ {
		var v uint32
		for taken := 0; taken < bitWidth; {
			byteIdx := bitPos >> 3
			bitIdx := bitPos & 7
			avail := 8 - bitIdx
			need := bitWidth - taken
			n := avail
			if need < n {
				n = need
			}
			// n bits starting at bitIdx, MSB first
			chunk := uint32(buf[byteIdx]) >> uint(avail-n) & (1<<uint(n) - 1)
			v = v<<uint(n) | chunk
			taken += n
			bitPos += n
		}
		samples[i] = v
	}
	return samples, nil
}

// Pack is the inverse of Unpack. Sample values must fit in bitWidth
// bits; higher bits are truncated.
func Pack(bitWidth int, samples []uint32) []byte {
	buf := make([]byte, PackedSize(bitWidth, len(samples)))
	bitPos := 0
	for _, s := range samples {
		s &= 1<<uint(bitWidth) - 1
		for left := bitWidth; left > 0; {
			byteIdx := bitPos >> 3
			bitIdx := bitPos & 7
			avail := 8 - bitIdx
			n := avail
			if left < n {
				n = left
			}
			chunk := byte(s >> uint(left-n) & (1<<uint(n) - 1))
			buf[byteIdx] |= chunk << uint(avail-n)
			left -= n
			bitPos += n
		}
	}
	return buf
}
