package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalid is wrapped by Validate for every rejected field.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the scope configuration.
type Config struct {
	ADC      ADCConfig      `yaml:"adc"`
	Trigger  TriggerConfig  `yaml:"trigger"`
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Display  DisplayConfig  `yaml:"display"`
	Overlays OverlayConfig  `yaml:"overlays"`
	Detect   DetectConfig   `yaml:"detect"`
	Serial   SerialConfig   `yaml:"serial"`
	Mock     MockConfig     `yaml:"mock"`
}

// ADCConfig contains acquisition resolution and sweep length.
type ADCConfig struct {
	ResolutionBits int           `yaml:"resolution_bits"` // 10 on AVR class parts, 12 on SAMD/RP2040
	ReferenceMV    int           `yaml:"reference_mv"`    // Reference voltage in millivolts
	SettleTime     time.Duration `yaml:"settle_time"`     // Delay after (re)configuring the ADC
	Samples        int           `yaml:"samples"`         // Samples per sweep (N)
}

// Resolution returns the derived resolution configuration.
func (c ADCConfig) Resolution() Resolution {
	return Resolution{
		Bits:        c.ResolutionBits,
		ReferenceMV: c.ReferenceMV,
		SettleTime:  c.SettleTime,
	}
}

// Resolution is the ADC capability derived once at startup.
type Resolution struct {
	Bits        int
	ReferenceMV int
	SettleTime  time.Duration
}

// BitDepth returns the number of quantization levels (2^bits).
func (r Resolution) BitDepth() uint32 {
	return 1 << uint(r.Bits)
}

// Edge selects the slope the trigger locks onto.
type Edge string

const (
	EdgeRising  Edge = "rising"
	EdgeFalling Edge = "falling"
	EdgeEither  Edge = "either"
)

// Fallback selects what the sampler does once the trigger search gives up.
type Fallback string

const (
	// FallbackFreeRun fills the buffer untriggered.
	FallbackFreeRun Fallback = "free-run"
	// FallbackHold aborts the sweep so the caller can keep the last good frame.
	FallbackHold Fallback = "hold"
)

// TriggerConfig contains edge trigger parameters.
type TriggerConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Edge           Edge          `yaml:"edge"`
	Level          float64       `yaml:"level"`           // Fraction of bit depth
	Tolerance      float64       `yaml:"tolerance"`       // Relative acceptance window around the sample
	ConfirmSamples int           `yaml:"confirm_samples"` // Indices after 0 whose slope must match Edge
	MaxAttempts    int           `yaml:"max_attempts"`    // 0 = unlimited
	Timeout        time.Duration `yaml:"timeout"`         // 0 = unlimited
	Fallback       Fallback      `yaml:"fallback"`
}

// AnalyzerConfig contains calibration data of the analog front end.
type AnalyzerConfig struct {
	SoundThreshold     float64 `yaml:"sound_threshold"`      // Fraction of baseline counted as signal
	PositiveRailMargin int     `yaml:"positive_rail_margin"` // Counts below full scale treated as pos+ rail
	NegativeRailLevel  int     `yaml:"negative_rail_level"`  // Absolute counts treated as neg- rail
	PeakToPeakGain     float64 `yaml:"peak_to_peak_gain"`    // Millivolts per count at the input
}

// DisplayConfig contains static display geometry and overlay placement.
type DisplayConfig struct {
	Width               int     `yaml:"width"`  // Largest x coordinate (panel width - 1)
	Height              int     `yaml:"height"` // Largest y coordinate (panel height - 1)
	VerticalScale       float64 `yaml:"vertical_scale"`
	VerticalOffset      int     `yaml:"vertical_offset"` // Waveform zero vs screen zero correction
	GraticuleX          int     `yaml:"graticule_x"`
	TickWidth           int     `yaml:"tick_width"`
	Ticks               int     `yaml:"ticks"`
	RefreshX            int     `yaml:"refresh_x"`
	RefreshY            int     `yaml:"refresh_y"`
	TimeDivisionX       int     `yaml:"time_division_x"` // ms/div readout, bottom row
	PeakCountsX         int     `yaml:"peak_counts_x"`   // Raw pk-pk readout, bottom row
	IconX               int     `yaml:"icon_x"`
	IconTopY            int     `yaml:"icon_top_y"`
	IconBottomY         int     `yaml:"icon_bottom_y"`
	DottedBelow         int     `yaml:"dotted_below"` // Top cursor is dotted at or below this height
	DashStep            int     `yaml:"dash_step"`    // 1 = dotted, 2+ = dashed
	DashGap             int     `yaml:"dash_gap"`     // Blank length as a multiple of DashStep
	HorizontalDivisions int     `yaml:"horizontal_divisions"`
}

// OverlayConfig toggles individual render layers.
type OverlayConfig struct {
	Waveform            bool `yaml:"waveform"`
	Graticule           bool `yaml:"graticule"`
	HorizontalGraticule bool `yaml:"horizontal_graticule"`
	RefreshRate         bool `yaml:"refresh_rate"`
	AcquisitionTime     bool `yaml:"acquisition_time"`
	PeakToPeak          bool `yaml:"peak_to_peak"`
	PeakToPeakCounts    bool `yaml:"peak_to_peak_counts"`
	VoltsPerDivision    bool `yaml:"volts_per_division"`
	TimePerDivision     bool `yaml:"time_per_division"`
	TopCursor           bool `yaml:"top_cursor"`
	BottomCursor        bool `yaml:"bottom_cursor"`
	SoundIcon           bool `yaml:"sound_icon"`
	OverdriveIcons      bool `yaml:"overdrive_icons"`
}

// DetectConfig contains hardware presence detection parameters.
type DetectConfig struct {
	Samples         int           `yaml:"samples"`
	BiasTolerance   float64       `yaml:"bias_tolerance"`
	SignalThreshold float64       `yaml:"signal_threshold"`
	SettleTime      time.Duration `yaml:"settle_time"`
	ReadInterval    time.Duration `yaml:"read_interval"`
}

// SerialConfig contains serial port configuration of the host source.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// Waveform names a synthetic signal shape.
type Waveform string

const (
	WaveformSine   Waveform = "sine"
	WaveformSquare Waveform = "square"
	WaveformFlat   Waveform = "flat"
)

// MockConfig contains synthetic source configuration.
type MockConfig struct {
	Waveform     Waveform      `yaml:"waveform"`
	Frequency    float64       `yaml:"frequency"`     // Hz
	Amplitude    float64       `yaml:"amplitude"`     // Fraction of full scale
	Bias         float64       `yaml:"bias"`          // Fraction of full scale
	Noise        float64       `yaml:"noise"`         // Fraction of full scale
	SamplePeriod time.Duration `yaml:"sample_period"` // Simulated conversion time
}

// Default returns a default configuration matching the reference front end.
func Default() *Config {
	return &Config{
		ADC: ADCConfig{
			ResolutionBits: 12,
			ReferenceMV:    3300,
			SettleTime:     50 * time.Microsecond,
			Samples:        384,
		},
		Trigger: TriggerConfig{
			Enabled:        true,
			Edge:           EdgeRising,
			Level:          0.5,
			Tolerance:      0.02,
			ConfirmSamples: 2,
			MaxAttempts:    200000,
			Timeout:        250 * time.Millisecond,
			Fallback:       FallbackFreeRun,
		},
		Analyzer: AnalyzerConfig{
			SoundThreshold:     0.04,
			PositiveRailMargin: 10,
			NegativeRailLevel:  70,
			PeakToPeakGain:     0.818,
		},
		Display: DisplayConfig{
			Width:               255,
			Height:              63,
			VerticalScale:       1,
			VerticalOffset:      2,
			GraticuleX:          2,
			TickWidth:           4,
			Ticks:               4,
			RefreshX:            204,
			RefreshY:            10,
			TimeDivisionX:       180,
			PeakCountsX:         104,
			IconX:               119,
			IconTopY:            10,
			IconBottomY:         63,
			DottedBelow:         44,
			DashStep:            1,
			DashGap:             5,
			HorizontalDivisions: 10,
		},
		Overlays: OverlayConfig{
			Waveform:       true,
			Graticule:      true,
			RefreshRate:    true,
			TopCursor:      true,
			BottomCursor:   true,
			SoundIcon:      true,
			OverdriveIcons: true,
		},
		Detect: DetectConfig{
			Samples:         8,
			BiasTolerance:   0.10,
			SignalThreshold: 0.04,
			SettleTime:      500 * time.Microsecond,
			ReadInterval:    50 * time.Microsecond,
		},
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0",
			BaudRate: 115200,
		},
		Mock: MockConfig{
			Waveform:     WaveformSine,
			Frequency:    440,
			Amplitude:    0.3,
			Bias:         0.5,
			Noise:        0.002,
			SamplePeriod: 20 * time.Microsecond,
		},
	}
}

// Validate rejects settings the acquisition pipeline cannot work with.
func (c *Config) Validate() error {
	if c.ADC.ResolutionBits < 8 || c.ADC.ResolutionBits > 16 {
		return fmt.Errorf("%w: resolution_bits %d not in [8, 16]", ErrInvalid, c.ADC.ResolutionBits)
	}
	if c.ADC.Samples < 3 {
		return fmt.Errorf("%w: samples %d < 3", ErrInvalid, c.ADC.Samples)
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("%w: display %dx%d", ErrInvalid, c.Display.Width, c.Display.Height)
	}
	if c.Display.VerticalScale <= 0 {
		return fmt.Errorf("%w: vertical_scale %v", ErrInvalid, c.Display.VerticalScale)
	}
	if c.Trigger.Level <= 0 || c.Trigger.Level >= 1 {
		return fmt.Errorf("%w: trigger level %v not in (0, 1)", ErrInvalid, c.Trigger.Level)
	}
	if c.Trigger.Tolerance < 0 || c.Trigger.Tolerance >= 1 {
		return fmt.Errorf("%w: trigger tolerance %v not in [0, 1)", ErrInvalid, c.Trigger.Tolerance)
	}
	if c.Trigger.ConfirmSamples >= c.ADC.Samples {
		return fmt.Errorf("%w: confirm_samples %d >= samples %d", ErrInvalid, c.Trigger.ConfirmSamples, c.ADC.Samples)
	}
	switch c.Trigger.Edge {
	case EdgeRising, EdgeFalling, EdgeEither:
	default:
		return fmt.Errorf("%w: trigger edge %q", ErrInvalid, c.Trigger.Edge)
	}
	switch c.Trigger.Fallback {
	case FallbackFreeRun, FallbackHold:
	default:
		return fmt.Errorf("%w: trigger fallback %q", ErrInvalid, c.Trigger.Fallback)
	}
	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.ADC.ResolutionBits == 0 {
		c.ADC.ResolutionBits = def.ADC.ResolutionBits
	}
	if c.ADC.ReferenceMV == 0 {
		c.ADC.ReferenceMV = def.ADC.ReferenceMV
	}
	if c.ADC.Samples == 0 {
		c.ADC.Samples = def.ADC.Samples
	}

	if c.Trigger.Edge == "" {
		c.Trigger.Edge = def.Trigger.Edge
	}
	if c.Trigger.Level == 0 {
		c.Trigger.Level = def.Trigger.Level
	}
	if c.Trigger.Fallback == "" {
		c.Trigger.Fallback = def.Trigger.Fallback
	}

	if c.Analyzer.SoundThreshold == 0 {
		c.Analyzer.SoundThreshold = def.Analyzer.SoundThreshold
	}
	if c.Analyzer.PeakToPeakGain == 0 {
		c.Analyzer.PeakToPeakGain = def.Analyzer.PeakToPeakGain
	}

	if c.Display.Width == 0 {
		c.Display.Width = def.Display.Width
	}
	if c.Display.Height == 0 {
		c.Display.Height = def.Display.Height
	}
	if c.Display.VerticalScale == 0 {
		c.Display.VerticalScale = def.Display.VerticalScale
	}
	if c.Display.Ticks == 0 {
		c.Display.Ticks = def.Display.Ticks
	}
	if c.Display.DashStep == 0 {
		c.Display.DashStep = def.Display.DashStep
	}
	if c.Display.HorizontalDivisions == 0 {
		c.Display.HorizontalDivisions = def.Display.HorizontalDivisions
	}

	if c.Detect.Samples == 0 {
		c.Detect.Samples = def.Detect.Samples
	}
	if c.Detect.BiasTolerance == 0 {
		c.Detect.BiasTolerance = def.Detect.BiasTolerance
	}
	if c.Detect.SignalThreshold == 0 {
		c.Detect.SignalThreshold = def.Detect.SignalThreshold
	}

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Mock.Waveform == "" {
		c.Mock.Waveform = def.Mock.Waveform
	}
	if c.Mock.SamplePeriod == 0 {
		c.Mock.SamplePeriod = def.Mock.SamplePeriod
	}
}
