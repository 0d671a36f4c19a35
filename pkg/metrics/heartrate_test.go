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

package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amused-dev/go-amused/pkg/layers"
)

// pulseWave builds a synthetic PPG signal with a constant beat period,
// in seconds, at the given sample rate.
func pulseWave(rate int, periodSec float64, durationSec float64) []uint32 {
	n := int(float64(rate) * durationSec)
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		phase := 2 * math.Pi * float64(i) / (periodSec * float64(rate))
		out[i] = uint32(100000 + 20000*math.Sin(phase))
	}
	return out
}

func TestInsufficientDataBeforePeaks(t *testing.T) {
	e := NewHeartRateEngine(layers.PPGSampleRate)

	_, err := e.Compute()
	assert.ErrorIs(t, err, ErrInsufficientData)

	// one beat worth of signal holds at most one usable peak
	e.PushSamples(pulseWave(layers.PPGSampleRate, 0.8, 0.9))
	_, err = e.Compute()
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestSeventyFiveBPM(t *testing.T) {
	e := NewHeartRateEngine(layers.PPGSampleRate)

	// 800 ms peak-to-peak over the full 10 s window
	e.PushSamples(pulseWave(layers.PPGSampleRate, 0.8, 10))

	res, err := e.Compute()
	require.NoError(t, err)
	assert.InDelta(t, 75.0, res.BPM, 3.0)
	assert.GreaterOrEqual(t, res.Peaks, MinPeaksForRate)
	assert.True(t, res.HRVValid)
	// constant period means near-zero successive differences
	assert.Less(t, res.RMSSDMs, 20.0)
	assert.InDelta(t, 10.0, res.WindowSec, 0.1)
}

func TestWindowSlides(t *testing.T) {
	e := NewHeartRateEngine(layers.PPGSampleRate)

	// push far more than the window; the buffer must stay bounded
	e.PushSamples(pulseWave(layers.PPGSampleRate, 0.8, 30))
	res, err := e.Compute()
	require.NoError(t, err)
	assert.LessOrEqual(t, res.WindowSec, float64(HRWindowSeconds))
}

func TestPushFrameUsesIRChannel(t *testing.T) {
	e := NewHeartRateEngine(layers.PPGSampleRate)

	wave := pulseWave(layers.PPGSampleRate, 0.8, 10)
	flat := make([]uint32, len(wave))
	for i := 0; i < len(wave); i += layers.PPGSamplesPerCh {
		end := i + layers.PPGSamplesPerCh
		if end > len(wave) {
			end = len(wave)
		}
		e.PushFrame(&layers.PPGFrame{
			IR:  wave[i:end],
			NIR: flat[i:end],
			Red: flat[i:end],
		})
	}

	res, err := e.Compute()
	require.NoError(t, err)
	assert.InDelta(t, 75.0, res.BPM, 3.0)
}

func TestReset(t *testing.T) {
	e := NewHeartRateEngine(layers.PPGSampleRate)
	e.PushSamples(pulseWave(layers.PPGSampleRate, 0.8, 10))

	_, err := e.Compute()
	require.NoError(t, err)

	e.Reset()
	_, err = e.Compute()
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestRefractoryRejectsImplausibleRates(t *testing.T) {
	e := NewHeartRateEngine(layers.PPGSampleRate)

	// 150 ms period is 400 BPM; the refractory interval must merge
	// peaks so the reported rate stays at or below the plausible bound.
	e.PushSamples(pulseWave(layers.PPGSampleRate, 0.15, 10))
	res, err := e.Compute()
	if err != nil {
		assert.ErrorIs(t, err, ErrInsufficientData)
		return
	}
	assert.LessOrEqual(t, res.BPM, float64(MaxPlausibleBPM)+1)
}
