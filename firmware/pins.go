//go:build tinygo

package main

import "machine"

const (
	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 12   // ADC resolution in bits (12-bit = 0-4095)

	// Probe input, biased to mid-scale by the front end
	PIN_SCOPE = machine.ADC0

	// SSD1306 panel on I2C0
	DISPLAY_WIDTH   = 128
	DISPLAY_HEIGHT  = 64
	DISPLAY_ADDRESS = 0x3C

	// Readout positions for the narrower panel
	REFRESH_TEXT_X = 88

	// Serial stream: "#<frame>\n" followed by one sample per line.
	// 384 samples * ~5 bytes = ~2KB per frame, so only every
	// STREAM_EVERY-th frame is sent.
	STREAM_EVERY = 10
)
