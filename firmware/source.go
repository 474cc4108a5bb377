//go:build tinygo

package main

import (
	"machine"

	"github.com/itohio/goscope/pkg/adc"
	"github.com/itohio/goscope/pkg/config"
)

var _ adc.Source = (*adcSource)(nil)

// adcSource reads one machine ADC channel. Get returns left-aligned 16-bit
// values which are shifted down to the configured resolution.
type adcSource struct {
	adc   machine.ADC
	shift uint16
}

func newADCSource(pin machine.Pin) *adcSource {
	return &adcSource{adc: machine.ADC{Pin: pin}}
}

func (s *adcSource) Configure(res config.Resolution) error {
	if err := s.adc.Configure(machine.ADCConfig{
		Reference:  uint32(res.ReferenceMV),
		Resolution: uint32(res.Bits),
	}); err != nil {
		return err
	}
	s.shift = uint16(16 - res.Bits)
	return nil
}

func (s *adcSource) Read() uint16 {
	return s.adc.Get() >> s.shift
}
