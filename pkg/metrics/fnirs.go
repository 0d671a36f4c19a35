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

	"github.com/amused-dev/go-amused/pkg/layers"
)

const (
	// FNIRSWarmupSamples per wavelength establish the optical baseline
	// (2 s at the 64 Hz optics rate).
	FNIRSWarmupSamples = 128

	// Molar extinction coefficients for the red (660 nm) and infrared
	// (850 nm) emitters, cm^-1 mM^-1. The standard modified
	// Beer-Lambert pair; the near-infrared channel is not used in the
	// inversion.
	extHbO2Red = 0.32
	extHbRRed  = 3.42
	extHbO2IR  = 1.10
	extHbRIR   = 0.78

	tsiDenominatorFloor = 1e-9
)

// FNIRSResult holds concentration changes relative to the warm-up
// baseline, in arbitrary linear units, and the derived
// tissue-saturation index.
type FNIRSResult struct {
	HbO2 float64
	HbR  float64
	// TSI = HbO2 / (HbO2 + HbR), in [0,1] when the changes are
	// physiologic; clamped otherwise.
	TSI float64
	// OD per wavelength for downstream consumers that want the raw
	// optical densities.
	ODRed float64
	ODIR  float64
}

// FNIRSEngine computes optical density against a rolling baseline and
// inverts the modified Beer-Lambert system for HbO2/HbR changes.
// Stateless per batch aside from the baseline accumulators.
type FNIRSEngine struct {
	warmRed []float64
	warmIR  []float64
	baseRed float64
	baseIR  float64
	ready   bool

	// precomputed 2x2 inverse of the extinction matrix
	invA, invB, invC, invD float64
}

func NewFNIRSEngine() *FNIRSEngine {
	det := extHbO2Red*extHbRIR - extHbRRed*extHbO2IR
	return &FNIRSEngine{
		invA: extHbRIR / det,
		invB: -extHbRRed / det,
		invC: -extHbO2IR / det,
		invD: extHbO2Red / det,
	}
}

// Ready reports whether the warm-up baseline is established.
func (e *FNIRSEngine) Ready() bool {
	return e.ready
}

// Reset discards the baseline, e.g. after the headband is re-seated.
func (e *FNIRSEngine) Reset() {
	e.warmRed = e.warmRed[:0]
	e.warmIR = e.warmIR[:0]
	e.ready = false
}

// PushFrame consumes one matched batch of wavelength samples and
// returns the result for that batch. Until the warm-up window fills it
// returns ErrInsufficientData while accumulating the baseline.
func (e *FNIRSEngine) PushFrame(f *layers.PPGFrame) (FNIRSResult, error) {
	return e.Push(f.Red, f.IR)
}

// Push consumes matched red/infrared sample batches.
func (e *FNIRSEngine) Push(red, ir []uint32) (FNIRSResult, error) {
	if !e.ready {
		for _, s := range red {
			e.warmRed = append(e.warmRed, float64(s))
		}
		for _, s := range ir {
			e.warmIR = append(e.warmIR, float64(s))
		}
		if len(e.warmRed) < FNIRSWarmupSamples || len(e.warmIR) < FNIRSWarmupSamples {
			return FNIRSResult{}, ErrInsufficientData
		}
		e.baseRed = meanOf(e.warmRed)
		e.baseIR = meanOf(e.warmIR)
		e.warmRed, e.warmIR = nil, nil
		e.ready = true
		return FNIRSResult{}, ErrInsufficientData
	}

	if len(red) == 0 || len(ir) == 0 {
		return FNIRSResult{}, ErrInsufficientData
	}

	odRed := opticalDensity(meanOfU32(red), e.baseRed)
	odIR := opticalDensity(meanOfU32(ir), e.baseIR)

	hbO2 := e.invA*odRed + e.invB*odIR
	hbR := e.invC*odRed + e.invD*odIR

	total := hbO2 + hbR
	var tsi float64
	if math.Abs(total) > tsiDenominatorFloor {
		tsi = hbO2 / total
	}
	if tsi < 0 {
		tsi = 0
	} else if tsi > 1 {
		tsi = 1
	}

	return FNIRSResult{
		HbO2:  hbO2,
		HbR:   hbR,
		TSI:   tsi,
		ODRed: odRed,
		ODIR:  odIR,
	}, nil
}

// opticalDensity is -log10(I/I0). Zero intensities are floored so a
// dropped sample cannot produce an infinity.
func opticalDensity(intensity, baseline float64) float64 {
	if intensity < 1 {
		intensity = 1
	}
	if baseline < 1 {
		baseline = 1
	}
	return -math.Log10(intensity / baseline)
}

func meanOf(v []float64) float64 {
	var sum float64
	for _, s := range v {
		sum += s
	}
	return sum / float64(len(v))
}

func meanOfU32(v []uint32) float64 {
	var sum float64
	for _, s := range v {
		sum += float64(s)
	}
	return sum / float64(len(v))
}
