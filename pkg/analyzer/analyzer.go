// Package analyzer derives per-frame waveform statistics from a filled sample buffer.
package analyzer

import (
	"github.com/itohio/goscope/pkg/config"
	"github.com/itohio/goscope/pkg/sample"
)

// Measurements are recomputed from scratch for every frame.
type Measurements struct {
	PeakMax    uint16
	PeakMin    uint16
	PeakToPeak uint16
	Average    float32

	SoundPresent      bool // Some sample strays from the bias point
	OverdrivePositive bool // Peak reached the positive rail
	OverdriveNegative bool // Trough reached the negative rail

	AcquisitionTime uint32 // Microseconds, copied from the frame
	RefreshRate     uint32 // Acquisitions per second, copied from the frame
	Triggered       bool

	PeakToPeakVolts float32 // Peak-to-peak scaled by the front-end gain
}

// Analyzer computes Measurements for one resolution.
type Analyzer struct {
	cfg      config.AnalyzerConfig
	bitDepth uint32
	bias     float32 // Sound detection baseline, half of bit depth
}

// New creates an Analyzer for samples in [0, bitDepth).
func New(cfg config.AnalyzerConfig, bitDepth uint32) *Analyzer {
	return &Analyzer{
		cfg:      cfg,
		bitDepth: bitDepth,
		bias:     float32(bitDepth / 2),
	}
}

// Analyze makes a single pass over f.Samples. An empty buffer yields zero peaks.
func (a *Analyzer) Analyze(f *sample.Frame) Measurements {
	m := Measurements{
		AcquisitionTime: f.AcquisitionTime,
		RefreshRate:     f.RefreshRate,
		Triggered:       f.Triggered,
	}
	if len(f.Samples) == 0 {
		return m
	}

	tol := float32(a.cfg.SoundThreshold)
	positiveRail := int64(a.bitDepth) - int64(a.cfg.PositiveRailMargin)
	negativeRail := int64(a.cfg.NegativeRailLevel)

	peakMax := uint32(0)
	peakMin := a.bitDepth
	var sum uint64

	for _, s := range f.Samples {
		v := uint32(s)
		if v > peakMax {
			peakMax = v
		}
		if v < peakMin {
			peakMin = v
		}
		sum += uint64(v)

		if !m.SoundPresent {
			fv := float32(v)
			if a.bias < fv*(1-tol) || a.bias > fv*(1+tol) {
				m.SoundPresent = true
			}
		}
		if int64(peakMax) >= positiveRail {
			m.OverdrivePositive = true
		}
		if int64(peakMin) <= negativeRail {
			m.OverdriveNegative = true
		}
	}

	m.PeakMax = uint16(peakMax)
	m.PeakMin = uint16(peakMin)
	m.PeakToPeak = uint16(peakMax - peakMin)
	m.Average = float32(sum) / float32(len(f.Samples))
	m.PeakToPeakVolts = float32(m.PeakToPeak) * float32(a.cfg.PeakToPeakGain) / 1000
	return m
}
