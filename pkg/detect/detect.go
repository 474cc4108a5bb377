// Package detect decides whether the analog front end is attached by sensing
// its mid-scale bias on the input channel.
package detect

import (
	"fmt"

	"github.com/itohio/goscope/pkg/adc"
	"github.com/itohio/goscope/pkg/clock"
	"github.com/itohio/goscope/pkg/config"
)

// Result is the outcome of one detection run.
type Result struct {
	Ready       bool
	Average     float32 // Mean of the settled reads
	BiasFound   bool    // Average sits near mid-scale
	SignalFound bool    // Previous peak-to-peak exceeded the signal threshold
}

// Detector runs the bias check against an ADC source.
type Detector struct {
	cfg config.DetectConfig
	res config.Resolution

	last Result
}

// New creates a Detector for one resolution.
func New(cfg config.DetectConfig, res config.Resolution) *Detector {
	return &Detector{cfg: cfg, res: res}
}

// Detect configures src, discards one settling read and averages the next
// cfg.Samples reads. The front end is ready when the average lies within the
// bias tolerance of mid-scale, or otherwise when peakToPeak from an earlier
// sweep shows a live signal.
func (d *Detector) Detect(src adc.Source, clk clock.Clock, peakToPeak uint16) (Result, error) {
	if err := src.Configure(d.res); err != nil {
		return Result{}, fmt.Errorf("failed to configure adc: %w", err)
	}
	clk.Sleep(d.cfg.SettleTime)
	src.Read()
	clk.Sleep(d.cfg.SettleTime)

	n := max(d.cfg.Samples, 1)
	var sum uint64
	for i := 0; i < n; i++ {
		sum += uint64(src.Read())
		clk.Sleep(d.cfg.ReadInterval)
	}

	bitDepth := float32(d.res.BitDepth())
	mid := bitDepth / 2
	tol := float32(d.cfg.BiasTolerance)

	r := Result{Average: float32(sum) / float32(n)}
	r.BiasFound = r.Average >= mid*(1-tol) && r.Average <= mid*(1+tol)
	if !r.BiasFound {
		r.SignalFound = float32(peakToPeak) > bitDepth*float32(d.cfg.SignalThreshold)
	}
	r.Ready = r.BiasFound || r.SignalFound

	d.last = r
	return r, nil
}

// Ready reports the outcome of the last detection run.
func (d *Detector) Ready() bool {
	return d.last.Ready
}

// Last returns the last detection result.
func (d *Detector) Last() Result {
	return d.last
}

// Average returns the bias average measured by the last detection run.
func (d *Detector) Average() float32 {
	return d.last.Average
}
