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

// Package metrics derives physiological measurements from decoded
// frames: heart rate and HRV from the PPG channels, blood-oxygenation
// indices from the multi-wavelength optics.
package metrics

import (
	"math"

	"github.com/amused-dev/go-amused/pkg/layers"
)

const (
	// HRWindowSeconds is how much PPG history the peak detector sees.
	HRWindowSeconds = 10
	// MaxPlausibleBPM bounds the refractory interval between peaks.
	MaxPlausibleBPM = 220
	// MinPeaksForRate is the number of detected peaks needed before a
	// heart rate is reported at all.
	MinPeaksForRate = 3
	// MinIntervalsForRMSSD: successive differences need at least two
	// intervals, i.e. three peaks; we ask for one more for stability.
	MinIntervalsForRMSSD = 3

	peakThresholdStddevs = 0.5
)

// HeartRateResult is a point-in-time estimate over the rolling window.
type HeartRateResult struct {
	BPM       float64
	Peaks     int
	RMSSDMs   float64 // 0 when HRVValid is false
	HRVValid  bool
	WindowSec float64
}

// HeartRateEngine keeps a rolling buffer of PPG samples and extracts
// beats by peak detection. It is not a medical device; it is a
// pulse-plausible estimator over a noisy optical signal.
type HeartRateEngine struct {
	sampleRate int
	window     int
	samples    []float64
}

// NewHeartRateEngine creates an engine for a PPG stream at the given
// sample rate (the headband delivers 64 Hz).
func NewHeartRateEngine(sampleRate int) *HeartRateEngine {
	if sampleRate <= 0 {
		sampleRate = layers.PPGSampleRate
	}
	return &HeartRateEngine{
		sampleRate: sampleRate,
		window:     sampleRate * HRWindowSeconds,
	}
}

// PushFrame appends the frame's IR channel (the strongest pulsatile
// wavelength on this device) to the rolling buffer.
func (e *HeartRateEngine) PushFrame(f *layers.PPGFrame) {
	e.PushSamples(f.IR)
}

// PushSamples appends raw PPG samples.
func (e *HeartRateEngine) PushSamples(samples []uint32) {
	for _, s := range samples {
		e.samples = append(e.samples, float64(s))
	}
	if excess := len(e.samples) - e.window; excess > 0 {
		e.samples = e.samples[excess:]
	}
}

// Compute runs peak detection over the current buffer. It returns
// ErrInsufficientData until enough peaks accumulate for a stable
// estimate; it never fabricates a number.
func (e *HeartRateEngine) Compute() (HeartRateResult, error) {
	peaks := e.detectPeaks()
	if len(peaks) < MinPeaksForRate {
		return HeartRateResult{}, ErrInsufficientData
	}

	// peak-to-peak intervals in milliseconds
	intervals := make([]float64, 0, len(peaks)-1)
	for i := 1; i < len(peaks); i++ {
		intervals = append(intervals, float64(peaks[i]-peaks[i-1])*1000/float64(e.sampleRate))
	}

	var sum float64
	for _, iv := range intervals {
		sum += iv
	}
	mean := sum / float64(len(intervals))

	result := HeartRateResult{
		BPM:       60000 / mean,
		Peaks:     len(peaks),
		WindowSec: float64(len(e.samples)) / float64(e.sampleRate),
	}

	if len(intervals) >= MinIntervalsForRMSSD {
		result.RMSSDMs = rmssd(intervals)
		result.HRVValid = true
	}
	return result, nil
}

// Reset drops the rolling buffer, e.g. across a reconnect.
func (e *HeartRateEngine) Reset() {
	e.samples = e.samples[:0]
}

// detectPeaks returns indices of local maxima that clear a threshold
// of mean + k·stddev and are separated by at least the refractory
// interval implied by MaxPlausibleBPM.
func (e *HeartRateEngine) detectPeaks() []int {
	n := len(e.samples)
	if n < 3 {
		return nil
	}

	var sum, sumSq float64
	for _, s := range e.samples {
		sum += s
		sumSq += s * s
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	threshold := mean + peakThresholdStddevs*math.Sqrt(variance)

	refractory := e.sampleRate * 60 / MaxPlausibleBPM

	var peaks []int
	last := -refractory
	for i := 1; i < n-1; i++ {
		s := e.samples[i]
		if s <= threshold {
			continue
		}
		if !(s > e.samples[i-1] && s >= e.samples[i+1]) {
			continue
		}
		if i-last < refractory {
			continue
		}
		peaks = append(peaks, i)
		last = i
	}
	return peaks
}

// rmssd is the root mean square of successive differences of the
// peak-to-peak intervals, in the same unit as the intervals.
func rmssd(intervals []float64) float64 {
	if len(intervals) < 2 {
		return 0
	}
	var sumSq float64
	for i := 1; i < len(intervals); i++ {
		d := intervals[i] - intervals[i-1]
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(intervals)-1))
}
